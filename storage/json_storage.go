package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"voting-registrar/models"
)

// ErrUnavailable is returned when a store can't serve a call, including when
// the caller's context is done first.
var ErrUnavailable = errors.New("store unavailable")

// Chain is the persisted ledger state: the blocks plus the highest ballot
// number ever handed out. Numbers up to Reserved are never handed out again,
// whether or not they were published.
type Chain struct {
	Reserved uint64          `json:"reserved"`
	Blocks   []*models.Block `json:"blocks"`
}

// ChainStore persists a Chain.
type ChainStore interface {
	LoadChain(ctx context.Context) (*Chain, error)
	SaveChain(ctx context.Context, chain *Chain) error
}

var _ ChainStore = (*JSONStore)(nil)

// JSONStore keeps the chain in a single JSON file, replaced atomically on
// every save.
type JSONStore struct {
	path string
	mu   sync.Mutex
}

func NewJSONStore(basePath string) (*JSONStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %v", err)
	}
	return &JSONStore{path: filepath.Join(basePath, "ballot_chain.json")}, nil
}

func checkCtx(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

func (s *JSONStore) LoadChain(ctx context.Context) (*Chain, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Chain{Blocks: make([]*models.Block, 0)}, nil
		}
		return nil, fmt.Errorf("%w: failed to read chain file: %v", ErrUnavailable, err)
	}

	var chain Chain
	if err := json.Unmarshal(data, &chain); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chain: %v", err)
	}
	return &chain, nil
}

func (s *JSONStore) SaveChain(ctx context.Context, chain *Chain) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(chain, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal chain: %v", err)
	}

	// Write to temporary file first
	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("%w: failed to write chain file: %v", ErrUnavailable, err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("%w: failed to save chain file: %v", ErrUnavailable, err)
	}
	return nil
}
