package voting

import (
	"io"

	"voting-registrar/encryption"
	"voting-registrar/models"
)

// GenerateMainVotingKeyPair makes the key pair of the tally authority. Votes
// are boxed to its public half.
func GenerateMainVotingKeyPair(kidLen int, random io.Reader) (models.KeyPairJSON, error) {
	return encryption.GenerateRoleKeyPair(models.RoleMainVoting, kidLen, random)
}
