package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/newthinker/stockscan/internal/core"
)

// MemoryStore is an in-process cache. Contents are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[Key]Entry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[Key]Entry),
		now:     time.Now,
	}
}

// Get returns a fresh payload or core.ErrCacheMiss.
func (m *MemoryStore) Get(ctx context.Context, key Key, ttl time.Duration) (json.RawMessage, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || !e.Fresh(m.now(), ttl) {
		return nil, core.ErrCacheMiss
	}
	out := make(json.RawMessage, len(e.Payload))
	copy(out, e.Payload)
	return out, nil
}

// Set upserts the payload.
func (m *MemoryStore) Set(ctx context.Context, key Key, payload json.RawMessage) error {
	stored := make(json.RawMessage, len(payload))
	copy(stored, payload)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = Entry{Payload: stored, FetchedAt: m.now()}
	return nil
}

// Len returns the number of stored entries, stale ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
