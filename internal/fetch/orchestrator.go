// Package fetch gathers market data for a symbol, cache first, falling back
// across provider adapters in priority order.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/newthinker/stockscan/internal/core"
	"github.com/newthinker/stockscan/internal/metrics"
	"github.com/newthinker/stockscan/internal/provider"
	"github.com/newthinker/stockscan/internal/sanitize"
	"github.com/newthinker/stockscan/internal/storage/cache"
)

// Scan step names, in the order Scan runs them.
const (
	StepQuote        = "Fetching price data"
	StepDaily        = "Fetching daily series"
	StepFundamentals = "Fetching fundamentals"
	StepNews         = "Fetching news"
)

// ScanSteps is the number of progress steps Scan reports.
const ScanSteps = 4

// DefaultNewsLimit bounds the news items requested per symbol.
const DefaultNewsLimit = 10

var errNoResult = errors.New("no adapter returned data")

// Orchestrator runs the cache-then-fallback-then-persist routine for every
// data category.
type Orchestrator struct {
	registry  *provider.Registry
	cache     cache.Store
	ttls      cache.TTLs
	logger    *zap.Logger
	metrics   *metrics.Registry
	newsLimit int
	group     singleflight.Group
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics records cache lookups and provider calls.
func WithMetrics(m *metrics.Registry) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithTTLs replaces the default freshness table.
func WithTTLs(t cache.TTLs) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.ttls = t
		}
	}
}

// WithNewsLimit sets how many news items are requested.
func WithNewsLimit(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.newsLimit = n
		}
	}
}

// New creates an orchestrator over the registry's adapters.
func New(registry *provider.Registry, store cache.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry:  registry,
		cache:     store,
		ttls:      cache.DefaultTTLs,
		logger:    zap.NewNop(),
		newsLimit: DefaultNewsLimit,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Scan runs the quote, daily series, fundamentals and news stages in turn.
// A stage that yields nothing leaves its field nil and reports a failed step;
// the returned context is never nil.
func (o *Orchestrator) Scan(ctx context.Context, symbol string, steps *core.Steps) *core.ScanContext {
	sc := &core.ScanContext{Symbol: symbol}

	steps.Begin(StepQuote)
	if q, ok := o.Quote(ctx, symbol); ok {
		sc.Quote = q
	}
	steps.End(StepQuote, stageErr(sc.Quote != nil, core.CategoryQuote))

	steps.Begin(StepDaily)
	if s, ok := o.Series(ctx, symbol, core.CategoryDaily); ok {
		sc.Daily = s
	}
	steps.End(StepDaily, stageErr(sc.Daily != nil, core.CategoryDaily))

	steps.Begin(StepFundamentals)
	if f, ok := o.Fundamentals(ctx, symbol); ok {
		sc.Fundamentals = f
	}
	steps.End(StepFundamentals, stageErr(sc.Fundamentals != nil, core.CategoryFundamentals))

	steps.Begin(StepNews)
	if n, ok := o.News(ctx, symbol); ok {
		sc.News = n
	}
	steps.End(StepNews, stageErr(sc.News != nil, core.CategoryNews))

	o.logger.Info("scan complete",
		zap.String("symbol", symbol),
		zap.Bool("quote", sc.Quote != nil),
		zap.Int("daily_points", len(sc.Daily)),
		zap.Bool("fundamentals", sc.Fundamentals != nil),
		zap.Int("news", len(sc.News)))
	return sc
}

func stageErr(ok bool, c core.Category) error {
	if ok {
		return nil
	}
	return core.WrapError(core.ErrNoData, fmt.Errorf("%s fetch failed", c))
}

// Quote returns the latest quote.
func (o *Orchestrator) Quote(ctx context.Context, symbol string) (*core.Quote, bool) {
	return run(ctx, o, symbol, stage[*core.Quote]{
		category: core.CategoryQuote,
		fetch: func(ctx context.Context, a provider.Adapter) (*core.Quote, bool) {
			return a.Quote(ctx, symbol)
		},
		usable: func(q *core.Quote) bool { return q != nil && q.IsValid() && sanitize.IsSafe(q) },
		encode: func(q *core.Quote) any { return q },
		decode: func(raw json.RawMessage) (*core.Quote, error) {
			var q core.Quote
			err := json.Unmarshal(raw, &q)
			return &q, err
		},
	})
}

type seriesPayload struct {
	Series []core.OHLCV `json:"series"`
}

// Series returns a daily, weekly or monthly series sorted ascending.
func (o *Orchestrator) Series(ctx context.Context, symbol string, category core.Category) ([]core.OHLCV, bool) {
	if !category.IsSeries() {
		return nil, false
	}
	return run(ctx, o, symbol, stage[[]core.OHLCV]{
		category: category,
		fetch: func(ctx context.Context, a provider.Adapter) ([]core.OHLCV, bool) {
			return a.Series(ctx, symbol, category)
		},
		usable: func(s []core.OHLCV) bool { return len(s) > 0 && sanitize.IsSafe(s) },
		encode: func(s []core.OHLCV) any { return seriesPayload{Series: s} },
		decode: func(raw json.RawMessage) ([]core.OHLCV, error) {
			var p seriesPayload
			err := json.Unmarshal(raw, &p)
			return p.Series, err
		},
	})
}

// Fundamentals returns the merged company or fund profile.
func (o *Orchestrator) Fundamentals(ctx context.Context, symbol string) (core.Fundamentals, bool) {
	return run(ctx, o, symbol, stage[core.Fundamentals]{
		category: core.CategoryFundamentals,
		fetch: func(ctx context.Context, a provider.Adapter) (core.Fundamentals, bool) {
			return a.Fundamentals(ctx, symbol)
		},
		usable: func(f core.Fundamentals) bool { return len(f) > 0 && sanitize.IsSafe(f) },
		encode: func(f core.Fundamentals) any { return f },
		decode: func(raw json.RawMessage) (core.Fundamentals, error) {
			var f core.Fundamentals
			err := json.Unmarshal(raw, &f)
			return f, err
		},
	})
}

type newsPayload struct {
	Items []core.NewsItem `json:"items"`
}

// News returns recent news items.
func (o *Orchestrator) News(ctx context.Context, symbol string) ([]core.NewsItem, bool) {
	limit := o.newsLimit
	return run(ctx, o, symbol, stage[[]core.NewsItem]{
		category: core.CategoryNews,
		fetch: func(ctx context.Context, a provider.Adapter) ([]core.NewsItem, bool) {
			return a.News(ctx, symbol, limit)
		},
		usable: func(n []core.NewsItem) bool { return len(n) > 0 && !sanitize.HasMarkerKeys(n) },
		encode: func(n []core.NewsItem) any { return newsPayload{Items: n} },
		decode: func(raw json.RawMessage) ([]core.NewsItem, error) {
			var p newsPayload
			err := json.Unmarshal(raw, &p)
			return p.Items, err
		},
	})
}

// stage describes one data category for run.
type stage[T any] struct {
	category core.Category
	fetch    func(context.Context, provider.Adapter) (T, bool)
	// usable rejects empty values and values carrying provider error text.
	usable func(T) bool
	encode func(T) any
	decode func(json.RawMessage) (T, error)
}

// run is the shared cache-then-fallback-then-persist routine. Concurrent
// misses for the same key share one provider walk. The walk is detached from
// the caller that started it, so a cancelled caller returns early without
// failing the others waiting on the same key.
func run[T any](ctx context.Context, o *Orchestrator, symbol string, s stage[T]) (T, bool) {
	var zero T
	key := cache.NewKey(symbol, s.category)
	log := o.logger.With(zap.String("symbol", symbol), zap.String("category", string(s.category)))

	if v, ok := lookup(ctx, o, key, s, log); ok {
		o.metrics.RecordCacheLookup(string(s.category), true)
		log.Debug("cache hit")
		return v, true
	}
	o.metrics.RecordCacheLookup(string(s.category), false)

	walk := context.WithoutCancel(ctx)
	ch := o.group.DoChan(key.String(), func() (any, error) {
		for _, a := range o.registry.All() {
			val, ok := s.fetch(walk, a)
			if !ok {
				o.metrics.RecordProviderCall(a.Name(), string(s.category), "empty")
				log.Debug("adapter returned nothing", zap.String("adapter", a.Name()))
				continue
			}
			if !s.usable(val) {
				o.metrics.RecordProviderCall(a.Name(), string(s.category), "rejected")
				log.Debug("adapter result rejected", zap.String("adapter", a.Name()))
				continue
			}
			o.metrics.RecordProviderCall(a.Name(), string(s.category), "ok")
			persist(walk, o, key, s.encode(val), log)
			log.Info("fetched", zap.String("adapter", a.Name()))
			return val, nil
		}
		return nil, errNoResult
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		log.Debug("caller gone before fetch finished", zap.Error(ctx.Err()))
		return zero, false
	}
	v, err, shared := res.Val, res.Err, res.Shared
	if err != nil {
		log.Warn("all adapters failed")
		return zero, false
	}
	if shared {
		log.Debug("shared in-flight fetch")
	}
	return v.(T), true
}

func lookup[T any](ctx context.Context, o *Orchestrator, key cache.Key, s stage[T], log *zap.Logger) (T, bool) {
	var zero T
	if o.cache == nil {
		return zero, false
	}
	raw, err := o.cache.Get(ctx, key, o.ttls.For(s.category))
	if err != nil {
		if !errors.Is(err, core.ErrCacheMiss) {
			log.Warn("cache read failed", zap.Error(err))
		}
		return zero, false
	}
	v, err := s.decode(raw)
	if err != nil {
		log.Warn("cached payload undecodable", zap.Error(err))
		return zero, false
	}
	if !s.usable(v) {
		log.Warn("cached payload rejected")
		return zero, false
	}
	return v, true
}

func persist(ctx context.Context, o *Orchestrator, key cache.Key, payload any, log *zap.Logger) {
	if o.cache == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Warn("encoding payload failed", zap.Error(err))
		return
	}
	if err := o.cache.Set(ctx, key, raw); err != nil {
		log.Warn("cache write failed", zap.Error(err))
	}
}
