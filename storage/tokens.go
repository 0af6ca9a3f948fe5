package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/zeebo/blake3"
)

// AdmissionToken is a single-use registration credential.
type AdmissionToken struct {
	Token  string
	Expiry int64 // unix millis
}

// TokenStore keeps unused admission tokens in memory. Tokens are indexed by
// their blake3 digest, so the map never holds a usable token.
type TokenStore struct {
	mu     sync.Mutex
	unused map[[32]byte]int64
	random io.Reader
	now    func() time.Time
}

// NewTokenStore makes a store drawing tokens from random. A nil now means
// time.Now.
func NewTokenStore(random io.Reader, now func() time.Time) *TokenStore {
	if now == nil {
		now = time.Now
	}
	return &TokenStore{
		unused: make(map[[32]byte]int64),
		random: random,
		now:    now,
	}
}

func (s *TokenStore) newToken(length int) (string, error) {
	raw := make([]byte, (length*3+3)/4)
	if _, err := io.ReadFull(s.random, raw); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw)[:length], nil
}

// Issue makes a new token of length characters valid for ttl.
func (s *TokenStore) Issue(ctx context.Context, ttl time.Duration, length int) (AdmissionToken, error) {
	if err := checkCtx(ctx); err != nil {
		return AdmissionToken{}, err
	}
	if length <= 0 {
		return AdmissionToken{}, fmt.Errorf("token length must be positive, got %d", length)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry := s.now().Add(ttl).UnixMilli()
	for {
		token, err := s.newToken(length)
		if err != nil {
			return AdmissionToken{}, err
		}
		digest := blake3.Sum256([]byte(token))
		if _, taken := s.unused[digest]; taken {
			continue
		}
		s.unused[digest] = expiry
		return AdmissionToken{Token: token, Expiry: expiry}, nil
	}
}

// Consume removes token and reports whether it existed and was unexpired.
// Check and removal happen under one lock, so among concurrent callers with
// the same token at most one gets true.
func (s *TokenStore) Consume(ctx context.Context, token string) (bool, error) {
	if err := checkCtx(ctx); err != nil {
		return false, err
	}
	digest := blake3.Sum256([]byte(token))

	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, found := s.unused[digest]
	if !found {
		return false, nil
	}
	delete(s.unused, digest)
	return s.now().UnixMilli() < expiry, nil
}

// PurgeExpired drops expired tokens and returns how many were dropped.
func (s *TokenStore) PurgeExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UnixMilli()
	purged := 0
	for digest, expiry := range s.unused {
		if expiry <= now {
			delete(s.unused, digest)
			purged++
		}
	}
	return purged
}

// Len returns the number of unused tokens, expired ones included.
func (s *TokenStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.unused)
}
