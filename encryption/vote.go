package encryption

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"golang.org/x/crypto/nacl/box"

	"voting-registrar/models"
)

func ballotNumBytes(ballotNum uint64) ([]byte, error) {
	if ballotNum > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d", ErrBallotNumberRange, ballotNum)
	}
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(ballotNum))
	return b, nil
}

// EncryptVote boxes the JSON form of vote from the voter to the main voting
// key. The first 4 bytes of the nonce hold the big-endian ballot number, and
// the nonce is prepended to the returned cipher.
func EncryptVote(ballotNum uint64, vote any, voterSKey, mainPKey models.Key, random io.Reader) ([]byte, error) {
	prefix, err := ballotNumBytes(ballotNum)
	if err != nil {
		return nil, err
	}
	if len(voterSKey.K) != models.BoxKeyLength || len(mainPKey.K) != models.BoxKeyLength {
		return nil, fmt.Errorf("%w: box keys must have %d bytes", ErrBadKeyLength, models.BoxKeyLength)
	}
	voteBytes, err := json.Marshal(vote)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize vote: %w", err)
	}
	var nonce [models.BoxNonceLength]byte
	if _, err := io.ReadFull(random, nonce[:]); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	copy(nonce[:], prefix)
	return box.Seal(nonce[:], voteBytes, &nonce,
		(*[models.BoxKeyLength]byte)(mainPKey.K), (*[models.BoxKeyLength]byte)(voterSKey.K)), nil
}

// DecryptVote opens a cipher made by EncryptVote. Ciphers whose nonce names
// another ballot are rejected before any decryption is attempted.
func DecryptVote[V any](ballotNum uint64, cipher []byte, voterPKey, mainSKey models.Key) (V, error) {
	var vote V
	prefix, err := ballotNumBytes(ballotNum)
	if err != nil {
		return vote, err
	}
	if len(cipher) < len(prefix) || !bytes.Equal(cipher[:len(prefix)], prefix) {
		return vote, fmt.Errorf("%w: expected ballot %d", ErrBallotNumberMismatch, ballotNum)
	}
	if len(voterPKey.K) != models.BoxKeyLength || len(mainSKey.K) != models.BoxKeyLength {
		return vote, fmt.Errorf("%w: box keys must have %d bytes", ErrBadKeyLength, models.BoxKeyLength)
	}
	if len(cipher) < models.BoxNonceLength+box.Overhead {
		return vote, fmt.Errorf("%w: cipher is too short", ErrDecryptionFailed)
	}
	var nonce [models.BoxNonceLength]byte
	copy(nonce[:], cipher)
	voteBytes, ok := box.Open(nil, cipher[models.BoxNonceLength:], &nonce,
		(*[models.BoxKeyLength]byte)(voterPKey.K), (*[models.BoxKeyLength]byte)(mainSKey.K))
	if !ok {
		return vote, ErrDecryptionFailed
	}
	if err := json.Unmarshal(voteBytes, &vote); err != nil {
		return vote, fmt.Errorf("%w: %v", ErrMalformedVote, err)
	}
	return vote, nil
}
