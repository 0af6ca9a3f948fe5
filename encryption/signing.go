package encryption

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/nacl/sign"

	"voting-registrar/models"
)

// Sign serializes payload as JSON and signs the bytes with skey.
func Sign(payload any, skey models.Key) (models.SignedLoad, error) {
	if skey.Alg != models.AlgSign {
		return models.SignedLoad{}, fmt.Errorf("%w: key %s is for '%s', not signing", ErrAlgMismatch, skey.Kid, skey.Alg)
	}
	if len(skey.K) != models.SignSecretKeyLength {
		return models.SignedLoad{}, fmt.Errorf("%w: signing key %s has %d bytes", ErrBadKeyLength, skey.Kid, len(skey.K))
	}
	loadBytes, err := json.Marshal(payload)
	if err != nil {
		return models.SignedLoad{}, fmt.Errorf("failed to serialize payload: %w", err)
	}
	signed := sign.Sign(nil, loadBytes, (*[models.SignSecretKeyLength]byte)(skey.K))
	return models.SignedLoad{
		Alg:  skey.Alg,
		Kid:  skey.Kid,
		Sig:  base64.StdEncoding.EncodeToString(signed[:sign.Overhead]),
		Load: base64.StdEncoding.EncodeToString(loadBytes),
	}, nil
}

// VerifyAndOpen checks load's signature with pkey and decodes its payload.
// The kid and alg echoed in the load must match pkey, but the decision to
// trust the payload rests only on the signature check against pkey.
func VerifyAndOpen[T any](load models.SignedLoad, pkey models.Key) (T, error) {
	var payload T
	if load.Kid != pkey.Kid || load.Alg != pkey.Alg {
		return payload, fmt.Errorf("%w: load is signed by %s/%s, key is %s/%s",
			ErrKeyIdentityMismatch, load.Kid, load.Alg, pkey.Kid, pkey.Alg)
	}
	if len(pkey.K) != models.SignPublicKeyLength {
		return payload, fmt.Errorf("%w: public key %s has %d bytes", ErrBadKeyLength, pkey.Kid, len(pkey.K))
	}
	sig, err := base64.StdEncoding.DecodeString(load.Sig)
	if err != nil || len(sig) != models.SignatureLength {
		return payload, fmt.Errorf("%w: malformed signature", ErrSignatureInvalid)
	}
	loadBytes, err := base64.StdEncoding.DecodeString(load.Load)
	if err != nil {
		return payload, fmt.Errorf("%w: load is not base64: %v", ErrMalformedPayload, err)
	}
	signed := make([]byte, 0, len(sig)+len(loadBytes))
	signed = append(signed, sig...)
	signed = append(signed, loadBytes...)
	if _, ok := sign.Open(nil, signed, (*[models.SignPublicKeyLength]byte)(pkey.K)); !ok {
		return payload, ErrSignatureInvalid
	}
	if err := json.Unmarshal(loadBytes, &payload); err != nil {
		return payload, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return payload, nil
}
