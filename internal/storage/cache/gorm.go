package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/newthinker/stockscan/internal/core"
)

// EntryModel is the scan_cache row. One row per (symbol, category, interval).
type EntryModel struct {
	ID        uint      `gorm:"primaryKey"`
	Symbol    string    `gorm:"size:32;not null;uniqueIndex:scan_cache_key,priority:1"`
	Category  string    `gorm:"size:16;not null;uniqueIndex:scan_cache_key,priority:2"`
	Interval  string    `gorm:"size:16;not null;default:'';uniqueIndex:scan_cache_key,priority:3"`
	Payload   string    `gorm:"type:text;not null"`
	FetchedAt time.Time `gorm:"not null;index"`
}

func (EntryModel) TableName() string {
	return "scan_cache"
}

// GormStore keeps the cache in a SQL database.
type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

var _ Store = (*GormStore)(nil)

// NewGormStore creates a store on db. The table must already exist; see
// db.Migrate.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, now: time.Now}
}

func keyCondition(key Key) map[string]any {
	return map[string]any{
		"symbol":   key.Symbol,
		"category": string(key.Category),
		"interval": key.Interval,
	}
}

// Get returns a fresh payload or core.ErrCacheMiss.
func (s *GormStore) Get(ctx context.Context, key Key, ttl time.Duration) (json.RawMessage, error) {
	var row EntryModel
	err := s.db.WithContext(ctx).Where(keyCondition(key)).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, core.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache %s: %w", key, err)
	}

	e := Entry{Payload: json.RawMessage(row.Payload), FetchedAt: row.FetchedAt}
	if !e.Fresh(s.now(), ttl) {
		return nil, core.ErrCacheMiss
	}
	return e.Payload, nil
}

// Set upserts the payload with fetched_at = now.
func (s *GormStore) Set(ctx context.Context, key Key, payload json.RawMessage) error {
	row := EntryModel{
		Symbol:    key.Symbol,
		Category:  string(key.Category),
		Interval:  key.Interval,
		Payload:   string(payload),
		FetchedAt: s.now().UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "category"}, {Name: "interval"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "fetched_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("writing cache %s: %w", key, err)
	}
	return nil
}
