// Package app builds a running stockscan instance from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/newthinker/stockscan/internal/agent"
	"github.com/newthinker/stockscan/internal/api"
	"github.com/newthinker/stockscan/internal/config"
	"github.com/newthinker/stockscan/internal/core"
	"github.com/newthinker/stockscan/internal/fetch"
	"github.com/newthinker/stockscan/internal/llm/factory"
	"github.com/newthinker/stockscan/internal/metrics"
	"github.com/newthinker/stockscan/internal/pipeline"
	"github.com/newthinker/stockscan/internal/provider"
	"github.com/newthinker/stockscan/internal/provider/alphavantage"
	"github.com/newthinker/stockscan/internal/provider/synthetic"
	"github.com/newthinker/stockscan/internal/provider/yahoo"
	"github.com/newthinker/stockscan/internal/ratelimit"
	"github.com/newthinker/stockscan/internal/resolver"
	"github.com/newthinker/stockscan/internal/storage/archive"
	"github.com/newthinker/stockscan/internal/storage/cache"
	"github.com/newthinker/stockscan/internal/storage/catalog"
	"github.com/newthinker/stockscan/internal/storage/db"
	"github.com/newthinker/stockscan/internal/storage/resolution"
	"github.com/newthinker/stockscan/internal/storage/session"
	"github.com/newthinker/stockscan/internal/warmup"
)

// App holds every long-lived component.
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	Metrics   *metrics.Registry
	Providers *provider.Registry
	Resolver  *resolver.Resolver
	Stocks    *catalog.Directory
	Fetcher   *fetch.Orchestrator
	Agent     *agent.Agent
	Sessions  session.Store
	Pipeline  *pipeline.Executor
	Warmer    *warmup.Warmer

	db        *gorm.DB
	redis     *redis.Client
	scheduler *warmup.Scheduler
}

// New wires the application. Close releases what it opened.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{cfg: cfg, logger: logger}
	if cfg.Metrics.Enabled {
		a.Metrics = metrics.NewRegistry()
	}

	if err := a.openDatabase(); err != nil {
		return nil, err
	}

	store, err := a.cacheStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Providers = a.providers()
	if a.Providers.Len() == 0 {
		a.Close()
		return nil, core.WrapError(core.ErrConfigMissing,
			errors.New("no market data provider configured: set providers.alphavantage.api_key, enable yahoo or use dev_mode"))
	}

	cat, err := a.catalog(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	resolutions := resolution.NewGormStore(a.db)
	a.Stocks = catalog.NewDirectory(cat, resolutions)
	a.Resolver = resolver.New(a.Providers, resolutions, cat,
		resolver.WithLogger(logger.Named("resolver")),
		resolver.WithMetrics(a.Metrics),
		resolver.WithDevMode(cfg.DevMode),
	)

	a.Fetcher = fetch.New(a.Providers, store,
		fetch.WithLogger(logger.Named("fetch")),
		fetch.WithMetrics(a.Metrics),
		fetch.WithTTLs(cache.NewTTLs(cfg.Cache.TTL)),
		fetch.WithNewsLimit(cfg.Pipeline.NewsLimit),
	)

	llmProvider, err := factory.New(ctx, cfg.LLM, logger.Named("llm"))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("creating llm provider: %w", err)
	}
	if llmProvider == nil && !cfg.DevMode {
		logger.Warn("no llm provider configured, advice will carry a fallback message")
	}
	a.Agent = agent.New(llmProvider,
		agent.WithLogger(logger.Named("agent")),
		agent.WithDevMode(cfg.DevMode),
		agent.WithTimeout(cfg.LLM.Timeout),
	)

	arch, err := archive.New(archive.Config{
		Type: cfg.Archive.Type,
		Path: cfg.Archive.Path,
		S3: archive.S3Config{
			Bucket:    cfg.Archive.S3.Bucket,
			Endpoint:  cfg.Archive.S3.Endpoint,
			Region:    cfg.Archive.S3.Region,
			AccessKey: cfg.Archive.S3.AccessKey,
			SecretKey: cfg.Archive.S3.SecretKey,
			Prefix:    cfg.Archive.S3.Prefix,
		},
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("creating archive: %w", err)
	}
	a.Sessions = session.NewArchiveStore(arch)

	a.Pipeline = pipeline.New(a.Resolver, a.Fetcher, a.Agent, a.Sessions,
		pipeline.WithLogger(logger.Named("pipeline")),
		pipeline.WithMetrics(a.Metrics),
		pipeline.WithSampleSize(cfg.Pipeline.SampleSize),
	)

	a.Warmer = warmup.New(a.Resolver, a.Fetcher, cfg.Warmup.Identifiers,
		warmup.WithLogger(logger.Named("warmup")),
		warmup.WithMetrics(a.Metrics),
	)

	logger.Info("stockscan ready",
		zap.Bool("dev_mode", cfg.DevMode),
		zap.Int("providers", a.Providers.Len()),
		zap.String("cache", cfg.Cache.Backend),
		zap.String("archive", cfg.Archive.Type))
	return a, nil
}

func (a *App) openDatabase() error {
	cfg := db.Config{Driver: a.cfg.Database.Driver, DSN: a.cfg.Database.DSN}
	if cfg.Driver == "sqlite" {
		// SQLite allows one writer; a single connection also keeps a
		// shared in-memory database alive.
		cfg.MaxOpenConns = 1
		if dir := sqliteDir(cfg.DSN); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("creating database directory: %w", err)
			}
		}
	} else {
		cfg.MaxOpenConns = 10
		cfg.ConnMaxLifetime = time.Hour
	}

	gdb, err := db.Open(cfg, a.logger.Named("db"))
	if err != nil {
		return err
	}
	a.db = gdb
	return nil
}

// sqliteDir returns the directory of a file DSN, or "" for in-memory databases.
func sqliteDir(dsn string) string {
	if dsn == "" || strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return ""
	}
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return ""
	}
	return dir
}

func (a *App) cacheStore(ctx context.Context) (cache.Store, error) {
	switch a.cfg.Cache.Backend {
	case "memory":
		return cache.NewMemoryStore(), nil
	case "redis":
		rc := a.cfg.Cache.Redis
		a.redis = redis.NewClient(&redis.Options{
			Addr:     rc.Addr,
			Password: rc.Password,
			DB:       rc.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := a.redis.Ping(pingCtx).Err(); err != nil {
			return nil, fmt.Errorf("connecting to redis at %s: %w", rc.Addr, err)
		}
		return cache.NewRedisStore(a.redis, rc.Prefix, rc.Retention), nil
	default:
		return cache.NewGormStore(a.db), nil
	}
}

// providers builds the adapter list in priority order. Dev mode uses only
// the synthetic adapter.
func (a *App) providers() *provider.Registry {
	reg := provider.NewRegistry()
	if a.cfg.DevMode {
		reg.Register(synthetic.New())
		return reg
	}

	av := a.cfg.Providers.AlphaVantage
	if av.APIKey != "" {
		limiter := ratelimit.New(av.MinInterval, av.DailyLimit,
			ratelimit.WithName(alphavantage.Name),
			ratelimit.WithMetrics(a.Metrics),
		)
		reg.Register(alphavantage.New(alphavantage.Config{
			APIKey:  av.APIKey,
			BaseURL: av.BaseURL,
			Timeout: av.Timeout,
		}, limiter, a.logger))
	} else {
		a.logger.Warn("alphavantage disabled: no api key")
	}

	if y := a.cfg.Providers.Yahoo; y.Enabled {
		reg.Register(yahoo.New(yahoo.Config{BaseURL: y.BaseURL, Timeout: y.Timeout}, a.logger))
	}
	return reg
}

// catalog layers configured names over the database table and seeds the
// table with them.
func (a *App) catalog(ctx context.Context) (catalog.Chain, error) {
	static := catalog.NewStatic(a.cfg.CatalogNames())
	stored := catalog.NewGormCatalog(a.db)
	if err := stored.Seed(ctx, static); err != nil {
		return nil, fmt.Errorf("seeding catalog: %w", err)
	}
	return catalog.Chain{static, stored}, nil
}

// Server builds the HTTP server.
func (a *App) Server() (*api.Server, error) {
	deps := api.Dependencies{
		Advice:   a.Pipeline,
		Resolver: a.Resolver,
		Data:     a.Fetcher,
		Stocks:   a.Stocks,
		Sessions: a.Sessions,
		Chat:     a.Agent,
		Metrics:  a.Metrics,
	}
	if len(a.cfg.Warmup.Identifiers) > 0 {
		deps.Warmer = a.Warmer
	}
	metricsPath := ""
	if a.cfg.Metrics.Enabled {
		metricsPath = a.cfg.Metrics.Path
	}
	return api.NewServer(api.Config{
		Host:         a.cfg.Server.Host,
		Port:         a.cfg.Server.Port,
		APIKey:       a.cfg.Server.APIKey,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		MetricsPath:  metricsPath,
	}, deps, a.logger.Named("http"))
}

// StartScheduler starts the warm-up schedule when enabled.
func (a *App) StartScheduler(ctx context.Context) error {
	w := a.cfg.Warmup
	if !w.Enabled || len(w.Identifiers) == 0 {
		return nil
	}
	s, err := warmup.NewScheduler(ctx, a.Warmer, w.Schedule, a.logger.Named("warmup"))
	if err != nil {
		return err
	}
	s.Start()
	a.scheduler = s
	return nil
}

// Close stops the scheduler and releases connections.
func (a *App) Close() error {
	var errs []error
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
