// Package synthetic serves deterministic market data for dev mode, so the
// whole pipeline can run without network access or API keys.
package synthetic

import (
	"context"
	"math"
	"time"

	"github.com/newthinker/stockscan/internal/core"
	"github.com/newthinker/stockscan/internal/provider"
)

// Name is the adapter identity.
const Name = "synthetic"

// Bars generated per series category.
var seriesLength = map[core.Category]int{
	core.CategoryDaily:   252,
	core.CategoryWeekly:  52,
	core.CategoryMonthly: 12,
}

// Adapter generates plausible but fake data.
type Adapter struct {
	now func() time.Time
}

var _ provider.Adapter = (*Adapter)(nil)

// New creates a synthetic adapter.
func New() *Adapter {
	return &Adapter{now: time.Now}
}

func (a *Adapter) Name() string {
	return Name
}

func (a *Adapter) Quote(_ context.Context, symbol string) (*core.Quote, bool) {
	return &core.Quote{
		Symbol:        symbol,
		Price:         100.0,
		Volume:        1_000_000,
		Change:        1.0,
		ChangePercent: 1.0,
		Source:        Name,
		Time:          a.now(),
	}, true
}

// Series returns bars ending today, spaced one trading day, week or month
// apart, with a gentle upward drift.
func (a *Adapter) Series(_ context.Context, _ string, category core.Category) ([]core.OHLCV, bool) {
	n, ok := seriesLength[category]
	if !ok {
		return nil, false
	}

	dates := make([]core.Date, 0, n)
	d := core.DateOf(a.now().UTC())
	for len(dates) < n {
		if category != core.CategoryDaily || !d.IsWeekend() {
			dates = append(dates, d)
		}
		switch category {
		case core.CategoryWeekly:
			d = d.AddDays(-7)
		case core.CategoryMonthly:
			d = core.Date{Time: d.AddDate(0, -1, 0)}
		default:
			d = d.AddDays(-1)
		}
	}

	bars := make([]core.OHLCV, n)
	for i := range dates {
		date := dates[n-1-i]
		price := 100 + 0.05*float64(i) + 2*math.Sin(float64(i)/10)
		bars[i] = core.OHLCV{
			Date:   date,
			Open:   core.Float(round(price - 0.5)),
			High:   core.Float(round(price + 1)),
			Low:    core.Float(round(price - 1)),
			Close:  core.Float(round(price)),
			Volume: core.Int(1_000_000),
		}
	}
	return bars, true
}

func (a *Adapter) Fundamentals(_ context.Context, symbol string) (core.Fundamentals, bool) {
	return core.Fundamentals{
		"Symbol":               symbol,
		"Name":                 "Mock Company (Dev)",
		"MarketCapitalization": "1000000000",
		"PERatio":              "15",
		"EPS":                  "1.5",
		"52WeekHigh":           "120",
		"52WeekLow":            "80",
	}, true
}

func (a *Adapter) News(_ context.Context, _ string, limit int) ([]core.NewsItem, bool) {
	items := []core.NewsItem{{
		Title:         "Mock news (Dev mode)",
		Summary:       "No real API calls in Dev mode.",
		PublishedTime: a.now().UTC().Format("20060102T150400"),
	}}
	return provider.CleanNews(items, limit), true
}

func round(v float64) float64 {
	return math.Round(v*10000) / 10000
}
