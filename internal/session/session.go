// Package session keeps the add-fine selection an operator has made so far.
package session

import (
	"context"
	"sync"
)

// Selection is the pending add-fine choice. The zero value means nothing
// has been selected.
type Selection struct {
	Employee string `json:"employee,omitempty"`
	Amount   int    `json:"amount,omitempty"`
}

func (s Selection) IsZero() bool { return s == Selection{} }

// Store persists one Selection per operator. Saves overwrite; concurrent
// saves for the same operator are last-write-wins.
type Store interface {
	Load(ctx context.Context, operatorID int64) (Selection, error)
	Save(ctx context.Context, operatorID int64, sel Selection) error
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[int64]Selection
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[int64]Selection)}
}

func (m *MemoryStore) Load(_ context.Context, operatorID int64) (Selection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data[operatorID], nil
}

func (m *MemoryStore) Save(_ context.Context, operatorID int64, sel Selection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sel.IsZero() {
		delete(m.data, operatorID)
		return nil
	}
	m.data[operatorID] = sel
	return nil
}
