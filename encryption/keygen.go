package encryption

import (
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/box"
	"golang.org/x/crypto/nacl/sign"

	"voting-registrar/models"
)

// GenerateSigningKeyPair draws a signing seed and then a kidLen-byte key id
// from random. The public key is derived from the seed.
func GenerateSigningKeyPair(pubUse, secUse models.KeyUse, kidLen int, random io.Reader) (models.KeyPairJSON, error) {
	pk, sk, err := sign.GenerateKey(random)
	if err != nil {
		return models.KeyPairJSON{}, fmt.Errorf("failed to generate signing key: %w", err)
	}
	return makePair(pubUse, secUse, models.AlgSign, pk[:], sk[:], kidLen, random)
}

// GenerateEncryptingKeyPair draws a box secret key and then a kidLen-byte
// key id from random. The public key is derived from the secret key.
func GenerateEncryptingKeyPair(pubUse, secUse models.KeyUse, kidLen int, random io.Reader) (models.KeyPairJSON, error) {
	pk, sk, err := box.GenerateKey(random)
	if err != nil {
		return models.KeyPairJSON{}, fmt.Errorf("failed to generate box key: %w", err)
	}
	return makePair(pubUse, secUse, models.AlgBox, pk[:], sk[:], kidLen, random)
}

// GenerateRoleKeyPair generates a pair for role with the role's algorithm.
func GenerateRoleKeyPair(role models.Role, kidLen int, random io.Reader) (models.KeyPairJSON, error) {
	if role.Alg == models.AlgSign {
		return GenerateSigningKeyPair(role.PublicUse, role.SecretUse, kidLen, random)
	}
	return GenerateEncryptingKeyPair(role.PublicUse, role.SecretUse, kidLen, random)
}

func makePair(pubUse, secUse models.KeyUse, alg models.Alg, pk, sk []byte, kidLen int, random io.Reader) (models.KeyPairJSON, error) {
	kid := make([]byte, kidLen)
	if _, err := io.ReadFull(random, kid); err != nil {
		return models.KeyPairJSON{}, fmt.Errorf("failed to generate key id: %w", err)
	}
	kidStr := base64.StdEncoding.EncodeToString(kid)
	return models.KeyPairJSON{
		PKey: models.JSONKey{
			K:   base64.StdEncoding.EncodeToString(pk),
			Kid: kidStr,
			Use: pubUse,
			Alg: alg,
		},
		SKey: models.JSONKey{
			K:   base64.StdEncoding.EncodeToString(sk),
			Kid: kidStr,
			Use: secUse,
			Alg: alg,
		},
	}, nil
}
