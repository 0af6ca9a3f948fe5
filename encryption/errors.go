package encryption

import "errors"

// Error kinds returned by key parsing, signing and vote encryption. Callers
// match them with errors.Is; the wrapped message carries the details.
var (
	ErrUseMismatch          = errors.New("key use mismatch")
	ErrAlgMismatch          = errors.New("key algorithm mismatch")
	ErrBadKeyLength         = errors.New("wrong number of key bytes")
	ErrMalformedKey         = errors.New("malformed key")
	ErrKeyIdentityMismatch  = errors.New("signed load does not name the given key")
	ErrSignatureInvalid     = errors.New("signature verification failed")
	ErrMalformedPayload     = errors.New("can't open signed load")
	ErrBallotNumberRange    = errors.New("ballot number is bigger than unsigned 32 bit integer")
	ErrBallotNumberMismatch = errors.New("nonce in vote cipher doesn't match ballot number")
	ErrDecryptionFailed     = errors.New("vote decryption failed")
	ErrMalformedVote        = errors.New("can't open vote from decrypted bytes")
)
