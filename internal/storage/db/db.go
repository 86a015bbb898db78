// Package db opens the SQL database shared by the gorm-backed stores.
package db

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/newthinker/stockscan/internal/storage/cache"
	"github.com/newthinker/stockscan/internal/storage/catalog"
	"github.com/newthinker/stockscan/internal/storage/resolution"
)

// Config selects the SQL driver.
type Config struct {
	Driver string // sqlite or postgres
	DSN    string

	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// Open connects to the configured database and migrates the schema.
func Open(cfg Config, log *zap.Logger) (*gorm.DB, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite", "":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "stockscan.db"
		}
		dialector = sqlite.Open(dsn)
	case "postgres":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres requires a dsn")
		}
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown database driver: %s", cfg.Driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", cfg.Driver, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql handle: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := Migrate(gdb); err != nil {
		return nil, err
	}
	log.Info("database ready", zap.String("driver", gdb.Dialector.Name()))
	return gdb, nil
}

// Migrate creates or updates the tables of every gorm-backed store.
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&cache.EntryModel{},
		&resolution.Model{},
		&catalog.Model{},
	); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}
