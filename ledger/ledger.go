// Package ledger is the append-only ballot ledger. Every published ballot
// triplet becomes one block of a hash chain, keyed by its ballot number.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"voting-registrar/models"
	"voting-registrar/storage"
)

var (
	// ErrDuplicateBallotNumber means a ballot number was published twice.
	// It never happens in correct operation.
	ErrDuplicateBallotNumber = errors.New("ballot number already published")
	// ErrUnassignedBallotNumber means a put for a number NextNumber never
	// handed out.
	ErrUnassignedBallotNumber = errors.New("ballot number was never assigned")
)

type Ledger struct {
	mu    sync.RWMutex
	store storage.ChainStore
	chain *storage.Chain
	byNum map[uint64]int
}

// Status summarizes the chain for operators.
type Status struct {
	Length   int    `json:"length"`
	Reserved uint64 `json:"reserved"`
	LastHash string `json:"last_hash"`
	IsValid  bool   `json:"is_valid"`
}

// Open loads and validates the chain kept in store.
func Open(ctx context.Context, store storage.ChainStore) (*Ledger, error) {
	chain, err := store.LoadChain(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load ballot chain: %w", err)
	}
	if err := models.ValidateChain(chain.Blocks); err != nil {
		return nil, fmt.Errorf("ballot chain is corrupt: %w", err)
	}
	l := &Ledger{
		store: store,
		chain: chain,
		byNum: make(map[uint64]int, len(chain.Blocks)),
	}
	for i, block := range chain.Blocks {
		if block.BallotNum == 0 || block.BallotNum > chain.Reserved {
			return nil, fmt.Errorf("block %d: %w: %d", i, ErrUnassignedBallotNumber, block.BallotNum)
		}
		if _, dup := l.byNum[block.BallotNum]; dup {
			return nil, fmt.Errorf("block %d: %w: %d", i, ErrDuplicateBallotNumber, block.BallotNum)
		}
		l.byNum[block.BallotNum] = i
	}
	return l, nil
}

// NextNumber hands out the next ballot number. The reservation is persisted
// before the number is returned, so a number is never handed out twice,
// even across restarts. Numbers that are never published stay unused.
func (l *Ledger) NextNumber(ctx context.Context) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.chain.Reserved + 1
	updated := &storage.Chain{Reserved: next, Blocks: l.chain.Blocks}
	if err := l.store.SaveChain(ctx, updated); err != nil {
		return 0, fmt.Errorf("failed to reserve ballot number: %w", err)
	}
	l.chain = updated
	return next, nil
}

// Put publishes the signed triplet of ballot n.
func (l *Ledger) Put(ctx context.Context, n uint64, triplet models.SignedLoad) error {
	data, err := json.Marshal(triplet)
	if err != nil {
		return fmt.Errorf("failed to marshal ballot triplet: %v", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if n == 0 || n > l.chain.Reserved {
		return fmt.Errorf("%w: %d", ErrUnassignedBallotNumber, n)
	}
	if _, exists := l.byNum[n]; exists {
		return fmt.Errorf("%w: %d", ErrDuplicateBallotNumber, n)
	}

	blocks := l.chain.Blocks
	block := models.NewBlock(uint64(len(blocks)), n, data, l.lastHash())
	updated := &storage.Chain{
		Reserved: l.chain.Reserved,
		Blocks:   append(blocks[:len(blocks):len(blocks)], block),
	}
	if err := l.store.SaveChain(ctx, updated); err != nil {
		return fmt.Errorf("failed to save ballot %d: %w", n, err)
	}
	l.chain = updated
	l.byNum[n] = len(updated.Blocks) - 1
	return nil
}

// Get returns the signed triplet of ballot n, if published.
func (l *Ledger) Get(ctx context.Context, n uint64) (models.SignedLoad, bool, error) {
	if err := ctx.Err(); err != nil {
		return models.SignedLoad{}, false, fmt.Errorf("%w: %w", storage.ErrUnavailable, err)
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	i, found := l.byNum[n]
	if !found {
		return models.SignedLoad{}, false, nil
	}
	var load models.SignedLoad
	if err := json.Unmarshal(l.chain.Blocks[i].Data, &load); err != nil {
		return models.SignedLoad{}, false, fmt.Errorf("ballot %d is unreadable: %v", n, err)
	}
	return load, true, nil
}

// List returns published ballot numbers in increasing order.
func (l *Ledger) List(ctx context.Context) ([]uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrUnavailable, err)
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	nums := make([]uint64, 0, len(l.byNum))
	for n := range l.byNum {
		nums = append(nums, n)
	}
	slices.Sort(nums)
	return nums, nil
}

// Validate rechecks every hash link of the chain.
func (l *Ledger) Validate() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return models.ValidateChain(l.chain.Blocks)
}

func (l *Ledger) Status() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Status{
		Length:   len(l.chain.Blocks),
		Reserved: l.chain.Reserved,
		LastHash: hexutil.Encode(l.lastHash()),
		IsValid:  models.ValidateChain(l.chain.Blocks) == nil,
	}
}

func (l *Ledger) lastHash() []byte {
	if len(l.chain.Blocks) == 0 {
		return models.GenesisHash()
	}
	return l.chain.Blocks[len(l.chain.Blocks)-1].Hash
}
