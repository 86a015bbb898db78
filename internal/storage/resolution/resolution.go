// Package resolution persists identifier to symbol mappings.
package resolution

import (
	"context"
	"sort"
	"sync"

	"github.com/newthinker/stockscan/internal/core"
)

// Store keeps one resolution per identifier. Entries are never deleted.
type Store interface {
	// Get returns the stored resolution or core.ErrNotFound.
	Get(ctx context.Context, identifier string) (*core.Resolution, error)

	// Upsert inserts or replaces the resolution for r.Identifier.
	Upsert(ctx context.Context, r core.Resolution) error

	// List returns every stored resolution ordered by identifier.
	List(ctx context.Context) ([]core.Resolution, error)
}

// MemoryStore is an in-memory resolution store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]core.Resolution
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]core.Resolution)}
}

func (m *MemoryStore) Get(ctx context.Context, identifier string) (*core.Resolution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.entries[identifier]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &r, nil
}

func (m *MemoryStore) Upsert(ctx context.Context, r core.Resolution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.entries[r.Identifier]; ok && r.Name == "" {
		r.Name = existing.Name
	}
	m.entries[r.Identifier] = r
	return nil
}

func (m *MemoryStore) List(ctx context.Context) ([]core.Resolution, error) {
	m.mu.RLock()
	out := make([]core.Resolution, 0, len(m.entries))
	for _, r := range m.entries {
		out = append(out, r)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Identifier < out[j].Identifier })
	return out, nil
}
