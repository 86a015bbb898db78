package cache

import (
	"time"

	"github.com/newthinker/stockscan/internal/core"
)

// ResolutionTTL is how long a stored identifier resolution is trusted.
const ResolutionTTL = 30 * 24 * time.Hour

const week = 7 * 24 * time.Hour

// DefaultTTLs is the freshness window per data category.
var DefaultTTLs = TTLs{
	core.CategoryQuote:        15 * time.Minute,
	core.CategoryDaily:        week,
	core.CategoryWeekly:       week,
	core.CategoryMonthly:      week,
	core.CategoryFundamentals: week,
	core.CategoryNews:         time.Hour,
}

// TTLs maps a data category to its freshness window.
type TTLs map[core.Category]time.Duration

// NewTTLs returns the defaults with positive overrides applied. Override keys
// are category names.
func NewTTLs(overrides map[string]time.Duration) TTLs {
	t := make(TTLs, len(DefaultTTLs))
	for c, d := range DefaultTTLs {
		t[c] = d
	}
	for name, d := range overrides {
		if d > 0 {
			t[core.Category(name)] = d
		}
	}
	return t
}

// For returns the TTL of a category. Unknown categories get the quote TTL,
// the shortest configured window.
func (t TTLs) For(c core.Category) time.Duration {
	if d, ok := t[c]; ok {
		return d
	}
	if d, ok := DefaultTTLs[c]; ok {
		return d
	}
	return DefaultTTLs[core.CategoryQuote]
}
