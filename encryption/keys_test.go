package encryption

import (
	"bytes"
	"crypto/rand"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/require"

	"voting-registrar/models"
)

func TestParseKeyRoundTrip(t *testing.T) {
	pair, err := GenerateEncryptingKeyPair(models.UseVotingPublic, models.UseVotingSecret, 20, rand.Reader)
	require.NoError(t, err)

	pkey, err := ParseKey(pair.PKey, models.UseVotingPublic, models.AlgBox, models.BoxKeyLength)
	require.NoError(t, err)
	require.Equal(t, pair.PKey.Kid, pkey.Kid)
	require.Len(t, pkey.K, models.BoxKeyLength)
	require.Equal(t, pair.PKey, KeyToJSON(pkey))
}

func TestParseKeyChecks(t *testing.T) {
	pair, err := GenerateSigningKeyPair(models.UseRegistrarPublic, models.UseRegistrarSecret, 20, rand.Reader)
	require.NoError(t, err)

	tests := []struct {
		name string
		key  models.JSONKey
		use  models.KeyUse
		alg  models.Alg
		klen int
		err  error
	}{
		{"wrong use", pair.PKey, models.UseVotingPublic, models.AlgSign, models.SignPublicKeyLength, ErrUseMismatch},
		{"secret for public", pair.SKey, models.UseRegistrarPublic, models.AlgSign, models.SignPublicKeyLength, ErrUseMismatch},
		{"wrong alg", pair.PKey, models.UseRegistrarPublic, models.AlgBox, models.SignPublicKeyLength, ErrAlgMismatch},
		{"wrong length", pair.SKey, models.UseRegistrarSecret, models.AlgSign, models.SignPublicKeyLength, ErrBadKeyLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseKey(tt.key, tt.use, tt.alg, tt.klen)
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestParseKeyUseCheckedFirst(t *testing.T) {
	jkey := models.JSONKey{K: "not base64!", Kid: "x", Use: "private-mail-key", Alg: "rot13"}
	_, err := ParseKey(jkey, models.UseEntryPublic, models.AlgBox, models.BoxKeyLength)
	require.ErrorIs(t, err, ErrUseMismatch)
	require.ErrorContains(t, err, "private-mail-key")

	jkey.Use = models.UseEntryPublic
	_, err = ParseKey(jkey, models.UseEntryPublic, models.AlgBox, models.BoxKeyLength)
	require.ErrorIs(t, err, ErrAlgMismatch)

	jkey.Alg = models.AlgBox
	_, err = ParseKey(jkey, models.UseEntryPublic, models.AlgBox, models.BoxKeyLength)
	require.ErrorIs(t, err, ErrMalformedKey)
}

func TestGenerateKeyPairs(t *testing.T) {
	for _, role := range models.Roles {
		t.Run(role.Name, func(t *testing.T) {
			pair, err := GenerateRoleKeyPair(role, 12, rand.Reader)
			require.NoError(t, err)
			require.Equal(t, pair.PKey.Kid, pair.SKey.Kid)
			require.Equal(t, role.Alg, pair.PKey.Alg)
			require.Equal(t, role.Alg, pair.SKey.Alg)
			require.Equal(t, role.PublicUse, pair.PKey.Use)
			require.Equal(t, role.SecretUse, pair.SKey.Use)

			_, err = ParsePublicKey(pair.PKey, role)
			require.NoError(t, err)
			_, err = ParseSecretKey(pair.SKey, role)
			require.NoError(t, err)
		})
	}
}

func TestGenerateKeyPairIsDeterministicInRandom(t *testing.T) {
	seed := bytes.Repeat([]byte{7}, 64)
	p1, err := GenerateSigningKeyPair(models.UseRegistrarPublic, models.UseRegistrarSecret, 20, bytes.NewReader(seed))
	require.NoError(t, err)
	p2, err := GenerateSigningKeyPair(models.UseRegistrarPublic, models.UseRegistrarSecret, 20, bytes.NewReader(seed))
	require.NoError(t, err)
	require.Equal(t, p1, p2)

	e1, err := GenerateEncryptingKeyPair(models.UseEntryPublic, models.UseEntrySecret, 20, bytes.NewReader(seed))
	require.NoError(t, err)
	e2, err := GenerateEncryptingKeyPair(models.UseEntryPublic, models.UseEntrySecret, 20, bytes.NewReader(seed))
	require.NoError(t, err)
	require.Equal(t, e1, e2)
}

func TestGenerateKeyPairRandomFailure(t *testing.T) {
	_, err := GenerateSigningKeyPair(models.UseRegistrarPublic, models.UseRegistrarSecret, 20, iotest.ErrReader(iotest.ErrTimeout))
	require.ErrorIs(t, err, iotest.ErrTimeout)

	// enough for the key, not for the key id.
	short := bytes.NewReader(make([]byte, models.BoxKeyLength+3))
	_, err = GenerateEncryptingKeyPair(models.UseVotingPublic, models.UseVotingSecret, 20, short)
	require.Error(t, err)
}
