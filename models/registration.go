package models

import "encoding/json"

// SignedLoad carries payload bytes with a detached signature made by the
// secret key identified by Kid. Kid and Alg are informational only; trust
// comes from the public key the verifier supplies.
type SignedLoad struct {
	Alg  Alg    `json:"alg"`
	Kid  string `json:"kid"`
	Sig  string `json:"sig"`
	Load string `json:"load"`
}

// BallotTriplet is the public record of a registration. It must never carry
// anything that identifies the voter.
type BallotTriplet struct {
	BallotNum  uint64  `json:"ballot_num"`
	EntryPKey  JSONKey `json:"entry_pkey"`
	VotingPKey JSONKey `json:"voting_pkey"`
}

// RegistrationCert is the full registration record returned only to the
// registering voter.
type RegistrationCert struct {
	BallotNum    uint64          `json:"ballot_num"`
	EntryPKey    JSONKey         `json:"entry_pkey"`
	VotingPKey   JSONKey         `json:"voting_pkey"`
	VoterInfo    json.RawMessage `json:"voter_info"`
	Registrar    string          `json:"registrar"`
	RegisteredAt int64           `json:"registered_at"`
}

// Triplet drops voter info, registrar name and registration time.
func (c *RegistrationCert) Triplet() BallotTriplet {
	return BallotTriplet{
		BallotNum:  c.BallotNum,
		EntryPKey:  c.EntryPKey,
		VotingPKey: c.VotingPKey,
	}
}
