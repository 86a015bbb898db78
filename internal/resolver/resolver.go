// Package resolver maps ISINs and other identifiers to trading symbols.
package resolver

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/newthinker/stockscan/internal/core"
	"github.com/newthinker/stockscan/internal/metrics"
	"github.com/newthinker/stockscan/internal/provider"
	"github.com/newthinker/stockscan/internal/storage/cache"
	"github.com/newthinker/stockscan/internal/storage/catalog"
	"github.com/newthinker/stockscan/internal/storage/resolution"
)

// MaxTickerLength is the longest identifier passed through unchanged.
const MaxTickerLength = 6

// Resolver turns identifiers into symbols. It consults the resolution store
// first, then the adapters by ID, then the adapters by catalog name.
type Resolver struct {
	registry *provider.Registry
	store    resolution.Store
	catalog  catalog.Catalog
	logger   *zap.Logger
	metrics  *metrics.Registry
	ttl      time.Duration
	devMode  bool
	now      func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics records resolution outcomes.
func WithMetrics(m *metrics.Registry) Option {
	return func(r *Resolver) { r.metrics = m }
}

// WithDevMode makes the resolver trust stored entries regardless of age and
// invent a mock symbol instead of calling providers.
func WithDevMode(dev bool) Option {
	return func(r *Resolver) { r.devMode = dev }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// New creates a resolver. cat may be nil when no reference names exist.
func New(registry *provider.Registry, store resolution.Store, cat catalog.Catalog, opts ...Option) *Resolver {
	r := &Resolver{
		registry: registry,
		store:    store,
		catalog:  cat,
		logger:   zap.NewNop(),
		ttl:      cache.ResolutionTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the trading symbol for identifier, or false when nothing
// could resolve it.
func (r *Resolver) Resolve(ctx context.Context, identifier string) (string, bool) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", false
	}
	if LooksLikeTicker(identifier) {
		return identifier, true
	}

	if sym, ok := r.cached(ctx, identifier); ok {
		r.metrics.RecordResolution("cache")
		return sym, true
	}

	if r.devMode {
		sym := mockSymbol(identifier)
		r.logger.Info("dev mode mock symbol", zap.String("identifier", identifier), zap.String("symbol", sym))
		r.metrics.RecordResolution("dev")
		return sym, true
	}

	adapters := r.registry.All()

	for _, a := range adapters {
		res, ok := a.(provider.IDResolver)
		if !ok {
			continue
		}
		match, ok := res.ResolveByID(ctx, identifier)
		r.recordCall(a.Name(), "resolve_by_id", ok && match != nil && match.Symbol != "")
		if ok && match != nil && match.Symbol != "" {
			r.logger.Info("resolved by id",
				zap.String("identifier", identifier),
				zap.String("symbol", match.Symbol),
				zap.String("source", a.Name()))
			return r.persist(ctx, identifier, match, a.Name()), true
		}
	}

	name, ok := r.referenceName(ctx, identifier)
	if !ok {
		r.logger.Warn("identifier not resolved, no reference name", zap.String("identifier", identifier))
		r.metrics.RecordResolution("unresolved")
		return "", false
	}

	variants := NameVariants(name)
	for _, a := range adapters {
		res, ok := a.(provider.NameResolver)
		if !ok {
			continue
		}
		for _, v := range variants {
			match, ok := res.ResolveByName(ctx, v)
			r.recordCall(a.Name(), "resolve_by_name", ok && match != nil && match.Symbol != "")
			if ok && match != nil && match.Symbol != "" {
				r.logger.Info("resolved by name",
					zap.String("identifier", identifier),
					zap.String("name", v),
					zap.String("symbol", match.Symbol),
					zap.String("source", a.Name()))
				return r.persist(ctx, identifier, match, a.Name()), true
			}
		}
	}

	r.logger.Warn("identifier not resolved", zap.String("identifier", identifier), zap.String("name", name))
	r.metrics.RecordResolution("unresolved")
	return "", false
}

func (r *Resolver) cached(ctx context.Context, identifier string) (string, bool) {
	if r.store == nil {
		return "", false
	}
	res, err := r.store.Get(ctx, identifier)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			r.logger.Warn("resolution lookup failed", zap.String("identifier", identifier), zap.Error(err))
		}
		return "", false
	}
	if r.devMode || r.now().Sub(res.ResolvedAt) <= r.ttl {
		r.logger.Debug("resolution cache hit", zap.String("identifier", identifier), zap.String("symbol", res.Symbol))
		return res.Symbol, true
	}
	r.logger.Debug("resolution expired", zap.String("identifier", identifier), zap.Time("resolved_at", res.ResolvedAt))
	return "", false
}

func (r *Resolver) referenceName(ctx context.Context, identifier string) (string, bool) {
	if r.catalog == nil {
		return "", false
	}
	name, ok := r.catalog.Name(ctx, identifier)
	if !ok || strings.TrimSpace(name) == "" {
		return "", false
	}
	return name, true
}

// persist stores the match and returns its symbol. A store failure is logged
// only; the symbol is still good for this run.
func (r *Resolver) persist(ctx context.Context, identifier string, match *core.SymbolMatch, source string) string {
	r.metrics.RecordResolution(source)
	if r.store == nil {
		return match.Symbol
	}
	err := r.store.Upsert(ctx, core.Resolution{
		Identifier: identifier,
		Symbol:     match.Symbol,
		Name:       match.Name,
		Source:     source,
		ResolvedAt: r.now().UTC(),
	})
	if err != nil {
		r.logger.Warn("storing resolution failed", zap.String("identifier", identifier), zap.Error(err))
	}
	return match.Symbol
}

func (r *Resolver) recordCall(adapter, op string, ok bool) {
	result := "empty"
	if ok {
		result = "ok"
	}
	r.metrics.RecordProviderCall(adapter, op, result)
}

// LooksLikeTicker reports whether s can be used as a symbol as-is: short,
// no spaces, at least one letter and no lower-case letters.
func LooksLikeTicker(s string) bool {
	if len(s) == 0 || len(s) > MaxTickerLength || strings.ContainsRune(s, ' ') {
		return false
	}
	hasLetter := false
	for _, c := range s {
		if unicode.IsLower(c) {
			return false
		}
		if unicode.IsLetter(c) {
			hasLetter = true
		}
	}
	return hasLetter
}

var parenthetical = regexp.MustCompile(`\s*\([^)]*\)\s*`)

// NameVariants returns the search names tried for a display name, most
// specific first: the full name, the name without parenthetical qualifiers,
// the first two words and the first three words. Duplicates are dropped.
func NameVariants(name string) []string {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	variants := []string{name}
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" {
			return
		}
		for _, existing := range variants {
			if existing == v {
				return
			}
		}
		variants = append(variants, v)
	}

	add(strings.Join(strings.Fields(parenthetical.ReplaceAllString(name, " ")), " "))

	words := strings.Fields(name)
	if len(words) > 2 {
		add(strings.Join(words[:2], " "))
	}
	if len(words) > 3 {
		add(strings.Join(words[:3], " "))
	}
	return variants
}

func mockSymbol(identifier string) string {
	if len(identifier) > MaxTickerLength || strings.ContainsRune(identifier, ' ') {
		return "MOCK"
	}
	s := strings.ToUpper(identifier)
	if len(s) > 4 {
		s = s[:4]
	}
	return s
}
