package resolution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/newthinker/stockscan/internal/core"
)

// Model is the symbol_resolutions row.
type Model struct {
	ID         uint      `gorm:"primaryKey"`
	Identifier string    `gorm:"size:32;not null;uniqueIndex"`
	Symbol     string    `gorm:"size:32;not null"`
	Name       string    `gorm:"size:255"`
	Source     string    `gorm:"size:32;not null"`
	ResolvedAt time.Time `gorm:"not null"`
}

func (Model) TableName() string {
	return "symbol_resolutions"
}

func (m Model) resolution() core.Resolution {
	return core.Resolution{
		Identifier: m.Identifier,
		Symbol:     m.Symbol,
		Name:       m.Name,
		Source:     m.Source,
		ResolvedAt: m.ResolvedAt,
	}
}

// GormStore keeps resolutions in a SQL database.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

// NewGormStore creates a store on db.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Get(ctx context.Context, identifier string) (*core.Resolution, error) {
	var row Model
	err := s.db.WithContext(ctx).Where("identifier = ?", identifier).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading resolution %s: %w", identifier, err)
	}
	res := row.resolution()
	return &res, nil
}

func (s *GormStore) List(ctx context.Context) ([]core.Resolution, error) {
	var rows []Model
	if err := s.db.WithContext(ctx).Order("identifier").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing resolutions: %w", err)
	}
	out := make([]core.Resolution, len(rows))
	for i, row := range rows {
		out[i] = row.resolution()
	}
	return out, nil
}

// Upsert replaces symbol, source and timestamp. An empty name keeps the
// stored one.
func (s *GormStore) Upsert(ctx context.Context, r core.Resolution) error {
	row := Model{
		Identifier: r.Identifier,
		Symbol:     r.Symbol,
		Name:       r.Name,
		Source:     r.Source,
		ResolvedAt: r.ResolvedAt.UTC(),
	}
	columns := []string{"symbol", "source", "resolved_at"}
	if r.Name != "" {
		columns = append(columns, "name")
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "identifier"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("writing resolution %s: %w", r.Identifier, err)
	}
	return nil
}
