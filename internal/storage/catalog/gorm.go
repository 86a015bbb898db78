package catalog

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Model is a row of the stocks reference table.
type Model struct {
	ID   uint   `gorm:"primaryKey"`
	ISIN string `gorm:"column:isin;size:32;not null;uniqueIndex"`
	Name string `gorm:"size:255;not null"`
}

func (Model) TableName() string {
	return "stocks"
}

// GormCatalog reads names from the stocks table.
type GormCatalog struct {
	db *gorm.DB
}

var _ Catalog = (*GormCatalog)(nil)

// NewGormCatalog creates a catalog on db.
func NewGormCatalog(db *gorm.DB) *GormCatalog {
	return &GormCatalog{db: db}
}

// Name returns the stored name. Lookup errors read as not found.
func (c *GormCatalog) Name(ctx context.Context, identifier string) (string, bool) {
	var row Model
	err := c.db.WithContext(ctx).
		Where("isin = ?", strings.ToUpper(strings.TrimSpace(identifier))).
		Limit(1).
		Find(&row).Error
	if err != nil || row.Name == "" {
		return "", false
	}
	return row.Name, true
}

// Upsert records or renames an entry.
func (c *GormCatalog) Upsert(ctx context.Context, identifier, name string) error {
	row := Model{ISIN: strings.ToUpper(strings.TrimSpace(identifier)), Name: strings.TrimSpace(name)}
	if row.ISIN == "" || row.Name == "" {
		return fmt.Errorf("catalog entry needs identifier and name")
	}
	return c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "isin"}},
		DoUpdates: clause.AssignmentColumns([]string{"name"}),
	}).Create(&row).Error
}

// List returns every stored entry ordered by name.
func (c *GormCatalog) List(ctx context.Context) ([]Entry, error) {
	var rows []Model
	if err := c.db.WithContext(ctx).Order("name, isin").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing catalog: %w", err)
	}
	out := make([]Entry, len(rows))
	for i, row := range rows {
		out[i] = Entry{ISIN: row.ISIN, Name: row.Name}
	}
	return out, nil
}

// Seed upserts every entry of a static catalog.
func (c *GormCatalog) Seed(ctx context.Context, entries Static) error {
	for id, name := range entries {
		if err := c.Upsert(ctx, id, name); err != nil {
			return fmt.Errorf("seeding %s: %w", id, err)
		}
	}
	return nil
}
