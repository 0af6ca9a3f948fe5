package voting

import (
	"io"

	"voting-registrar/encryption"
	"voting-registrar/models"
)

func GenerateVotingKeyPair(kidLen int, random io.Reader) (models.KeyPairJSON, error) {
	return encryption.GenerateRoleKeyPair(models.RoleVoting, kidLen, random)
}

func GenerateEntryKeyPair(kidLen int, random io.Reader) (models.KeyPairJSON, error) {
	return encryption.GenerateRoleKeyPair(models.RoleEntry, kidLen, random)
}

// VerifyRegistrarSignatureAndOpen opens a load signed by the registrar whose
// public key is regKey.
func VerifyRegistrarSignatureAndOpen[T any](load models.SignedLoad, regKey models.JSONKey) (T, error) {
	pkey, err := encryption.ParsePublicKey(regKey, models.RoleRegistrar)
	if err != nil {
		var zero T
		return zero, err
	}
	return encryption.VerifyAndOpen[T](load, pkey)
}

// EncryptVote encrypts vote for ballotNum with the voter's voting secret key
// and the main voting public key.
func EncryptVote(ballotNum uint64, vote any, voterKey, mainKey models.JSONKey, random io.Reader) ([]byte, error) {
	skey, err := encryption.ParseSecretKey(voterKey, models.RoleVoting)
	if err != nil {
		return nil, err
	}
	pkey, err := encryption.ParsePublicKey(mainKey, models.RoleMainVoting)
	if err != nil {
		return nil, err
	}
	return encryption.EncryptVote(ballotNum, vote, skey, pkey, random)
}

// DecryptVote opens a vote cipher cast for ballotNum, using the voter's
// voting public key and the main voting secret key.
func DecryptVote[V any](ballotNum uint64, cipher []byte, voterKey, mainKey models.JSONKey) (V, error) {
	var vote V
	skey, err := encryption.ParseSecretKey(mainKey, models.RoleMainVoting)
	if err != nil {
		return vote, err
	}
	pkey, err := encryption.ParsePublicKey(voterKey, models.RoleVoting)
	if err != nil {
		return vote, err
	}
	return encryption.DecryptVote[V](ballotNum, cipher, pkey, skey)
}
