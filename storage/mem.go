package storage

import (
	"context"
	"encoding/json"
	"sync"
)

var _ ChainStore = (*MemStore)(nil)

// MemStore is an in-memory ChainStore for tests. It keeps an encoded copy so
// callers can't alias its state. Set Fail to make every call fail.
type MemStore struct {
	mu   sync.Mutex
	data []byte
	Fail error
}

func NewMemStore() *MemStore {
	return &MemStore{}
}

func (m *MemStore) LoadChain(ctx context.Context) (*Chain, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	chain := &Chain{}
	if m.data == nil {
		return chain, nil
	}
	if err := json.Unmarshal(m.data, chain); err != nil {
		return nil, err
	}
	return chain, nil
}

func (m *MemStore) SaveChain(ctx context.Context, chain *Chain) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	data, err := json.Marshal(chain)
	if err != nil {
		return err
	}
	m.data = data
	return nil
}

// SetFail changes the injected failure while other goroutines use the store.
func (m *MemStore) SetFail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Fail = err
}
