package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/newthinker/stockscan/internal/core"
)

const (
	defaultNamespace = "stockscan:cache"
	defaultRetention = 30 * 24 * time.Hour
)

// RedisStore keeps the cache in Redis. Each value carries its own fetched-at
// time; the Redis expiry only reclaims space long after entries went stale.
type RedisStore struct {
	rdb       redis.Cmdable
	namespace string
	retention time.Duration
	now       func() time.Time
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed store. If namespace is empty it uses
// "stockscan:cache"; if retention is not positive it defaults to 30 days.
func NewRedisStore(rdb redis.Cmdable, namespace string, retention time.Duration) *RedisStore {
	if namespace == "" {
		namespace = defaultNamespace
	}
	if retention <= 0 {
		retention = defaultRetention
	}
	return &RedisStore{
		rdb:       rdb,
		namespace: namespace,
		retention: retention,
		now:       time.Now,
	}
}

// redisKey generates the key for one entry.
func (s *RedisStore) redisKey(key Key) string {
	return fmt.Sprintf("%s:%s:%s:%s",
		s.namespace,
		safe(key.Symbol),
		safe(string(key.Category)),
		safe(key.Interval),
	)
}

// Get returns a fresh payload or core.ErrCacheMiss. Corrupted values are
// deleted and read as misses.
func (s *RedisStore) Get(ctx context.Context, key Key, ttl time.Duration) (json.RawMessage, error) {
	rk := s.redisKey(key)
	b, err := s.rdb.Get(ctx, rk).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache %s: %w", key, err)
	}

	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		_ = s.rdb.Del(ctx, rk).Err()
		return nil, core.ErrCacheMiss
	}
	if !e.Fresh(s.now(), ttl) {
		return nil, core.ErrCacheMiss
	}
	return e.Payload, nil
}

// Set overwrites the entry with fetched_at = now.
func (s *RedisStore) Set(ctx context.Context, key Key, payload json.RawMessage) error {
	b, err := json.Marshal(Entry{Payload: payload, FetchedAt: s.now().UTC()})
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	if err := s.rdb.Set(ctx, s.redisKey(key), b, s.retention).Err(); err != nil {
		return fmt.Errorf("writing cache %s: %w", key, err)
	}
	return nil
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
