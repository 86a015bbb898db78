// Package warmup pre-fetches market data for a fixed list of identifiers so
// interactive requests find it in the cache.
package warmup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/newthinker/stockscan/internal/core"
	"github.com/newthinker/stockscan/internal/metrics"
)

// Resolver maps an identifier to a trading symbol.
type Resolver interface {
	Resolve(ctx context.Context, identifier string) (string, bool)
}

// Scanner fetches and caches everything for a symbol.
type Scanner interface {
	Scan(ctx context.Context, symbol string, steps *core.Steps) *core.ScanContext
}

// Report summarises one warm-up run.
type Report struct {
	Total      int      `json:"total"`
	Warmed     []string `json:"warmed"`
	Partial    []string `json:"partial,omitempty"`
	Unresolved []string `json:"unresolved,omitempty"`
	Cancelled  bool     `json:"cancelled,omitempty"`
}

// ProgressFunc is called after each identifier.
type ProgressFunc func(done, total int)

// Warmer runs warm-ups. Only one run is active at a time.
type Warmer struct {
	resolver    Resolver
	scanner     Scanner
	identifiers []string
	logger      *zap.Logger
	metrics     *metrics.Registry
	running     sync.Mutex
}

// Option configures a Warmer.
type Option func(*Warmer)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Warmer) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithMetrics records run outcomes.
func WithMetrics(m *metrics.Registry) Option {
	return func(w *Warmer) { w.metrics = m }
}

// New creates a warmer for identifiers.
func New(resolver Resolver, scanner Scanner, identifiers []string, opts ...Option) *Warmer {
	w := &Warmer{
		resolver:    resolver,
		scanner:     scanner,
		identifiers: append([]string(nil), identifiers...),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Identifiers returns the configured identifiers.
func (w *Warmer) Identifiers() []string {
	return append([]string(nil), w.identifiers...)
}

// Run warms every identifier in order. A run that starts while another is
// active returns core.ErrStageFailed without doing anything.
func (w *Warmer) Run(ctx context.Context, progress ProgressFunc) (Report, error) {
	if !w.running.TryLock() {
		w.metrics.RecordWarmup("skipped")
		return Report{}, core.WrapError(core.ErrStageFailed, fmt.Errorf("warm-up already running"))
	}
	defer w.running.Unlock()

	start := time.Now()
	report := Report{Total: len(w.identifiers), Warmed: []string{}}

	for i, id := range w.identifiers {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}

		symbol, ok := w.resolver.Resolve(ctx, id)
		switch {
		case !ok:
			report.Unresolved = append(report.Unresolved, id)
			w.logger.Warn("warm-up identifier not resolved", zap.String("identifier", id))
		default:
			sc := w.scanner.Scan(ctx, symbol, nil)
			if complete(sc) {
				report.Warmed = append(report.Warmed, id)
			} else {
				report.Partial = append(report.Partial, id)
			}
		}

		if progress != nil {
			progress(i+1, len(w.identifiers))
		}
	}

	status := "ok"
	if report.Cancelled {
		status = "cancelled"
	} else if len(report.Unresolved) > 0 || len(report.Partial) > 0 {
		status = "partial"
	}
	w.metrics.RecordWarmup(status)
	w.logger.Info("warm-up finished",
		zap.String("status", status),
		zap.Int("warmed", len(report.Warmed)),
		zap.Int("partial", len(report.Partial)),
		zap.Int("unresolved", len(report.Unresolved)),
		zap.Duration("took", time.Since(start)))
	return report, nil
}

func complete(sc *core.ScanContext) bool {
	return sc != nil && sc.Quote != nil && len(sc.Daily) > 0 && len(sc.Fundamentals) > 0 && len(sc.News) > 0
}

// Scheduler triggers warm-ups on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	warmer *Warmer
	logger *zap.Logger
	ctx    context.Context
}

// NewScheduler registers warmer on a standard five-field cron schedule.
func NewScheduler(ctx context.Context, warmer *Warmer, schedule string, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		cron:   cron.New(),
		warmer: warmer,
		logger: logger,
		ctx:    ctx,
	}
	if _, err := s.cron.AddFunc(schedule, s.tick); err != nil {
		return nil, fmt.Errorf("register warm-up schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("warm-up scheduler started", zap.Int("identifiers", len(s.warmer.identifiers)))
}

// Stop stops the scheduler and waits for a running warm-up to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("warm-up scheduler stopped")
}

// Next returns the next scheduled run time.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) tick() {
	if _, err := s.warmer.Run(s.ctx, nil); err != nil {
		s.logger.Warn("scheduled warm-up skipped", zap.Error(err))
	}
}
