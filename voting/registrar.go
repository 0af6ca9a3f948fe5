// Package voting holds the role-scoped operations of the registrar, the
// voter and the ballot box, on top of the generic primitives in encryption.
package voting

import (
	"io"

	"voting-registrar/encryption"
	"voting-registrar/models"
)

func GenerateRegistrarKeyPair(kidLen int, random io.Reader) (models.KeyPairJSON, error) {
	return encryption.GenerateRoleKeyPair(models.RoleRegistrar, kidLen, random)
}

// SignKeyFrom extracts the registrar's signing key from its key pair.
func SignKeyFrom(pair models.KeyPairJSON) (models.Key, error) {
	return encryption.ParseSecretKey(pair.SKey, models.RoleRegistrar)
}

// SignedBallotInfo holds the two artifacts signed for one registration.
type SignedBallotInfo struct {
	RegistrationCert models.SignedLoad `json:"registration_cert"`
	BallotTriplet    models.SignedLoad `json:"ballot_triplet"`
}

// SignBallotInfo signs the full certificate and its public triplet with the
// same registrar key.
func SignBallotInfo(cert *models.RegistrationCert, signKey models.Key) (SignedBallotInfo, error) {
	registrationCert, err := encryption.Sign(cert, signKey)
	if err != nil {
		return SignedBallotInfo{}, err
	}
	ballotTriplet, err := encryption.Sign(cert.Triplet(), signKey)
	if err != nil {
		return SignedBallotInfo{}, err
	}
	return SignedBallotInfo{
		RegistrationCert: registrationCert,
		BallotTriplet:    ballotTriplet,
	}, nil
}
