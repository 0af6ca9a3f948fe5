package models

// KeyUse tells applications in which protocol role a key may be used.
// It has nothing to do with crypto primitives; checking it guards against
// reusing key material across roles.
type KeyUse string

const (
	UseRegistrarPublic  KeyUse = "registrar-public-key"
	UseRegistrarSecret  KeyUse = "registrar-secret-key"
	UseVotingPublic     KeyUse = "voting-public-key"
	UseVotingSecret     KeyUse = "voting-secret-key"
	UseEntryPublic      KeyUse = "entry-public-key"
	UseEntrySecret      KeyUse = "entry-secret-key"
	UseMainVotingPublic KeyUse = "main-voting-public-key"
	UseMainVotingSecret KeyUse = "main-voting-secret-key"
)

// Known reports whether u is one of the uses defined by the protocol.
func (u KeyUse) Known() bool {
	switch u {
	case UseRegistrarPublic, UseRegistrarSecret,
		UseVotingPublic, UseVotingSecret,
		UseEntryPublic, UseEntrySecret,
		UseMainVotingPublic, UseMainVotingSecret:
		return true
	default:
		return false
	}
}

// Alg names the complete NaCl function a key is meant for.
type Alg string

const (
	AlgSign Alg = "NaCl-sign-Ed"
	AlgBox  Alg = "NaCl-xsp-box"
)

// Key lengths fixed by each algorithm.
const (
	SignPublicKeyLength = 32
	SignSecretKeyLength = 64
	SignatureLength     = 64
	BoxKeyLength        = 32
	BoxNonceLength      = 24
)

// Role pairs the public and secret uses of one protocol role with the
// algorithm its keys are bound to.
type Role struct {
	Name      string
	PublicUse KeyUse
	SecretUse KeyUse
	Alg       Alg
}

var (
	RoleRegistrar  = Role{Name: "registrar", PublicUse: UseRegistrarPublic, SecretUse: UseRegistrarSecret, Alg: AlgSign}
	RoleVoting     = Role{Name: "voting", PublicUse: UseVotingPublic, SecretUse: UseVotingSecret, Alg: AlgBox}
	RoleEntry      = Role{Name: "entry", PublicUse: UseEntryPublic, SecretUse: UseEntrySecret, Alg: AlgBox}
	RoleMainVoting = Role{Name: "main-voting", PublicUse: UseMainVotingPublic, SecretUse: UseMainVotingSecret, Alg: AlgBox}
)

// Roles lists every protocol role.
var Roles = []Role{RoleRegistrar, RoleVoting, RoleEntry, RoleMainVoting}

// PublicKeyLength returns the byte length of the role's public keys.
func (r Role) PublicKeyLength() int {
	if r.Alg == AlgSign {
		return SignPublicKeyLength
	}
	return BoxKeyLength
}

// SecretKeyLength returns the byte length of the role's secret keys.
func (r Role) SecretKeyLength() int {
	if r.Alg == AlgSign {
		return SignSecretKeyLength
	}
	return BoxKeyLength
}

// JSONKey is the serializable form of a key, with bytes packed as base64.
type JSONKey struct {
	K   string `json:"k"`
	Kid string `json:"kid"`
	Use KeyUse `json:"use"`
	Alg Alg    `json:"alg"`
}

// Key is a parsed key. Keys are never mutated after construction, so they
// can be shared between goroutines.
type Key struct {
	K   []byte
	Kid string
	Use KeyUse
	Alg Alg
}

type KeyPairJSON struct {
	PKey JSONKey `json:"pkey"`
	SKey JSONKey `json:"skey"`
}
