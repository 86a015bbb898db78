package core

import (
	"strings"
	"time"
)

// Category identifies a kind of market data. It doubles as the cache data type.
type Category string

const (
	CategoryQuote        Category = "quote"
	CategoryDaily        Category = "daily"
	CategoryWeekly       Category = "weekly"
	CategoryMonthly      Category = "monthly"
	CategoryFundamentals Category = "fundamentals"
	CategoryNews         Category = "news"
)

// IsSeries reports whether the category is an OHLCV series.
func (c Category) IsSeries() bool {
	return c == CategoryDaily || c == CategoryWeekly || c == CategoryMonthly
}

// CategoryForInterval maps a chart interval (1d, 1w, 1m) to a series category.
// Unknown intervals fall back to daily.
func CategoryForInterval(interval string) Category {
	switch strings.ToLower(interval) {
	case "1w", "weekly":
		return CategoryWeekly
	case "1m", "1mo", "monthly":
		return CategoryMonthly
	default:
		return CategoryDaily
	}
}

// Quote represents the latest price snapshot for a symbol
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Volume        int64     `json:"volume"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Source        string    `json:"source,omitempty"`
	Time          time.Time `json:"time,omitempty"`
}

// IsValid checks if the quote has required fields
func (q Quote) IsValid() bool {
	return q.Symbol != "" && q.Price > 0
}

// OHLCV is one bar of a price series. Providers may omit any numeric field.
type OHLCV struct {
	Date   Date     `json:"time"`
	Open   *float64 `json:"open"`
	High   *float64 `json:"high"`
	Low    *float64 `json:"low"`
	Close  *float64 `json:"close"`
	Volume *int64   `json:"volume"`
}

// Fundamentals is a flat key/value view of company and fund data.
type Fundamentals map[string]any

// Merge copies entries from other that are not already present and not empty.
func (f Fundamentals) Merge(other Fundamentals) {
	for k, v := range other {
		if _, exists := f[k]; exists {
			continue
		}
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		f[k] = v
	}
}

// NewsItem represents a news article about a symbol.
type NewsItem struct {
	Title         string   `json:"title,omitempty"`
	URL           string   `json:"url,omitempty"`
	Summary       string   `json:"summary,omitempty"`
	PublishedTime string   `json:"time_published,omitempty"`
	Sentiment     *float64 `json:"sentiment_score,omitempty"`
}

// IsEmpty reports whether the item carries nothing worth showing.
func (n NewsItem) IsEmpty() bool {
	return n.Title == "" && n.Summary == "" && n.URL == ""
}

// SymbolMatch is the result of an identifier or name lookup at a provider.
type SymbolMatch struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// Resolution records which trading symbol an identifier maps to.
type Resolution struct {
	Identifier string    `json:"identifier"`
	Symbol     string    `json:"symbol"`
	Name       string    `json:"name,omitempty"`
	Source     string    `json:"source"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// ScanContext aggregates everything fetched for one symbol. Any field may be
// nil when every provider failed for it.
type ScanContext struct {
	Symbol       string       `json:"symbol"`
	Quote        *Quote       `json:"quote"`
	Daily        []OHLCV      `json:"daily"`
	Weekly       []OHLCV      `json:"weekly"`
	Monthly      []OHLCV      `json:"monthly"`
	Fundamentals Fundamentals `json:"fundamentals"`
	News         []NewsItem   `json:"news"`
}

// Float returns a pointer to v, for building OHLCV bars.
func Float(v float64) *float64 {
	return &v
}

// Int returns a pointer to v.
func Int(v int64) *int64 {
	return &v
}
