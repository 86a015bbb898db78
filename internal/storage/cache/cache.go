// Package cache stores fetched provider payloads keyed by symbol, data
// category and interval. Entries are never expired on write; a reader passes
// the TTL it accepts and older entries read as misses until overwritten.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/newthinker/stockscan/internal/core"
)

// Key identifies one cached payload. Interval is empty for non-series data.
type Key struct {
	Symbol   string
	Category core.Category
	Interval string
}

// NewKey builds a key for a symbol and category.
func NewKey(symbol string, category core.Category) Key {
	return Key{Symbol: symbol, Category: category}
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s", k.Symbol, k.Category, k.Interval)
}

// Store is a TTL-checked payload cache. Set is an upsert keyed by the full
// Key, so concurrent writers of the same key converge on the last write.
type Store interface {
	// Get returns the payload under key if it was written no more than ttl
	// ago. Absent and stale entries both return core.ErrCacheMiss.
	Get(ctx context.Context, key Key, ttl time.Duration) (json.RawMessage, error)

	// Set stores payload under key with the current time as fetched-at.
	Set(ctx context.Context, key Key, payload json.RawMessage) error
}

// Entry is a payload with the time it was fetched.
type Entry struct {
	Payload   json.RawMessage `json:"payload"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// Fresh reports whether the entry is still within ttl at now.
func (e Entry) Fresh(now time.Time, ttl time.Duration) bool {
	return !e.FetchedAt.IsZero() && now.Sub(e.FetchedAt) <= ttl
}
