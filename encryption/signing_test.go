package encryption

import (
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/nacl/sign"

	"voting-registrar/models"
)

type testPayload struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Tags  []string `json:"tags"`
}

func signingKeys(t *testing.T) (models.Key, models.Key) {
	t.Helper()
	pair, err := GenerateRoleKeyPair(models.RoleRegistrar, 20, rand.Reader)
	require.NoError(t, err)
	pkey, err := ParsePublicKey(pair.PKey, models.RoleRegistrar)
	require.NoError(t, err)
	skey, err := ParseSecretKey(pair.SKey, models.RoleRegistrar)
	require.NoError(t, err)
	return pkey, skey
}

func TestSignAndOpen(t *testing.T) {
	pkey, skey := signingKeys(t)
	payload := testPayload{Name: "A", Count: 3, Tags: []string{"x", "y"}}

	load, err := Sign(payload, skey)
	require.NoError(t, err)
	require.Equal(t, skey.Kid, load.Kid)
	require.Equal(t, models.AlgSign, load.Alg)

	opened, err := VerifyAndOpen[testPayload](load, pkey)
	require.NoError(t, err)
	require.Equal(t, payload, opened)

	again, err := Sign(payload, skey)
	require.NoError(t, err)
	require.Equal(t, load, again)
}

func TestVerifyRejectsOtherKey(t *testing.T) {
	_, skey := signingKeys(t)
	otherPKey, _ := signingKeys(t)

	load, err := Sign(testPayload{Name: "A"}, skey)
	require.NoError(t, err)

	_, err = VerifyAndOpen[testPayload](load, otherPKey)
	require.ErrorIs(t, err, ErrKeyIdentityMismatch)

	// same identity claimed, different key bytes.
	otherPKey.Kid = skey.Kid
	_, err = VerifyAndOpen[testPayload](load, otherPKey)
	require.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestVerifyRejectsTampering(t *testing.T) {
	pkey, skey := signingKeys(t)
	load, err := Sign(testPayload{Name: "A"}, skey)
	require.NoError(t, err)

	tampered := load
	tampered.Load = base64.StdEncoding.EncodeToString([]byte(`{"name":"B"}`))
	_, err = VerifyAndOpen[testPayload](tampered, pkey)
	require.ErrorIs(t, err, ErrSignatureInvalid)

	sig, err := base64.StdEncoding.DecodeString(load.Sig)
	require.NoError(t, err)
	sig[0] ^= 0xff
	tampered = load
	tampered.Sig = base64.StdEncoding.EncodeToString(sig)
	_, err = VerifyAndOpen[testPayload](tampered, pkey)
	require.ErrorIs(t, err, ErrSignatureInvalid)

	tampered = load
	tampered.Sig = "AAAA"
	_, err = VerifyAndOpen[testPayload](tampered, pkey)
	require.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestVerifyMalformedPayload(t *testing.T) {
	pkey, skey := signingKeys(t)
	raw := []byte("not json")
	signed := sign.Sign(nil, raw, (*[models.SignSecretKeyLength]byte)(skey.K))
	load := models.SignedLoad{
		Alg:  skey.Alg,
		Kid:  skey.Kid,
		Sig:  base64.StdEncoding.EncodeToString(signed[:sign.Overhead]),
		Load: base64.StdEncoding.EncodeToString(raw),
	}
	_, err := VerifyAndOpen[testPayload](load, pkey)
	require.ErrorIs(t, err, ErrMalformedPayload)
}

func TestSignRejectsBoxKey(t *testing.T) {
	pair, err := GenerateRoleKeyPair(models.RoleVoting, 20, rand.Reader)
	require.NoError(t, err)
	skey, err := ParseSecretKey(pair.SKey, models.RoleVoting)
	require.NoError(t, err)
	_, err = Sign(testPayload{}, skey)
	require.ErrorIs(t, err, ErrAlgMismatch)
}
