// Package ratelimit paces calls to a quota-constrained provider.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/newthinker/stockscan/internal/metrics"
)

// Defaults match the free Alpha Vantage tier.
const (
	DefaultMinInterval = 12 * time.Second
	DefaultDailyLimit  = 25
)

const dayLayout = "2006-01-02"

// Limiter enforces a minimum interval between calls and a cap on calls per
// UTC calendar day. One Limiter is shared by every caller of a provider.
//
// RecordCall reserves the next free slot while holding the lock and sleeps
// after releasing it, so concurrent callers are still spaced by the interval
// but CanCall never blocks behind a sleeping caller.
type Limiter struct {
	name        string
	minInterval time.Duration
	dailyLimit  int
	metrics     *metrics.Registry
	now         func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error

	mu    sync.Mutex
	last  time.Time
	count int
	day   string
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithName labels the limiter in metrics.
func WithName(name string) Option {
	return func(l *Limiter) { l.name = name }
}

// WithMetrics records waits and rejections.
func WithMetrics(reg *metrics.Registry) Option {
	return func(l *Limiter) { l.metrics = reg }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithSleep replaces the context-aware timer used to wait out the interval.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(l *Limiter) { l.sleep = sleep }
}

// New creates a limiter. A dailyLimit of zero or less disables the daily cap.
func New(minInterval time.Duration, dailyLimit int, opts ...Option) *Limiter {
	l := &Limiter{
		name:        "default",
		minInterval: minInterval,
		dailyLimit:  dailyLimit,
		now:         time.Now,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CanCall reports whether today's cap still has room.
func (l *Limiter) CanCall() bool {
	l.mu.Lock()
	l.rollover(l.now())
	ok := l.dailyLimit <= 0 || l.count < l.dailyLimit
	l.mu.Unlock()

	if !ok {
		l.metrics.RecordRateLimitRejection(l.name)
	}
	return ok
}

// RecordCall counts a call against today's cap and blocks until at least the
// minimum interval has passed since the previous call. It returns ctx.Err()
// if the context ends first; the slot stays consumed in that case.
func (l *Limiter) RecordCall(ctx context.Context) error {
	l.mu.Lock()
	now := l.now()
	l.rollover(now)

	slot := now
	if !l.last.IsZero() {
		if earliest := l.last.Add(l.minInterval); earliest.After(now) {
			slot = earliest
		}
	}
	l.last = slot
	l.count++
	l.mu.Unlock()

	wait := slot.Sub(now)
	if wait <= 0 {
		return nil
	}
	l.metrics.RecordRateLimitWait(l.name, wait.Seconds())
	return l.sleep(ctx, wait)
}

// Remaining returns how many calls are left today, or -1 without a cap.
func (l *Limiter) Remaining() int {
	if l.dailyLimit <= 0 {
		return -1
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollover(l.now())
	return max(l.dailyLimit-l.count, 0)
}

// rollover resets the counter when the UTC day changes. Caller holds mu.
func (l *Limiter) rollover(now time.Time) {
	today := now.UTC().Format(dayLayout)
	if today != l.day {
		l.day = today
		l.count = 0
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
