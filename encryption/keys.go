package encryption

import (
	"encoding/base64"
	"fmt"

	"voting-registrar/models"
)

// ParseKey turns a JSON key into a usable key. It checks, in this order,
// that the key has the expected use, the expected algorithm and the
// expected number of bytes.
func ParseKey(jkey models.JSONKey, use models.KeyUse, alg models.Alg, klen int) (models.Key, error) {
	if jkey.Use != use {
		return models.Key{}, fmt.Errorf("%w: key %s has incorrect use '%s', instead of '%s'",
			ErrUseMismatch, jkey.Kid, jkey.Use, use)
	}
	if jkey.Alg != alg {
		return models.Key{}, fmt.Errorf("%w: key %s should be used with unsupported algorithm '%s'",
			ErrAlgMismatch, jkey.Kid, jkey.Alg)
	}
	k, err := base64.StdEncoding.DecodeString(jkey.K)
	if err != nil {
		return models.Key{}, fmt.Errorf("%w: key %s bytes are not base64: %v", ErrMalformedKey, jkey.Kid, err)
	}
	if len(k) != klen {
		return models.Key{}, fmt.Errorf("%w: key %s has %d bytes, expected %d",
			ErrBadKeyLength, jkey.Kid, len(k), klen)
	}
	return models.Key{
		K:   k,
		Kid: jkey.Kid,
		Use: jkey.Use,
		Alg: jkey.Alg,
	}, nil
}

// ParsePublicKey parses the public half of a role's key pair.
func ParsePublicKey(jkey models.JSONKey, role models.Role) (models.Key, error) {
	return ParseKey(jkey, role.PublicUse, role.Alg, role.PublicKeyLength())
}

// ParseSecretKey parses the secret half of a role's key pair.
func ParseSecretKey(jkey models.JSONKey, role models.Role) (models.Key, error) {
	return ParseKey(jkey, role.SecretUse, role.Alg, role.SecretKeyLength())
}

func KeyToJSON(key models.Key) models.JSONKey {
	return models.JSONKey{
		K:   base64.StdEncoding.EncodeToString(key.K),
		Kid: key.Kid,
		Use: key.Use,
		Alg: key.Alg,
	}
}
