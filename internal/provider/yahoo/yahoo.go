// Package yahoo implements the unmetered secondary provider on top of the
// public Yahoo Finance endpoints.
package yahoo

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/stockscan/internal/core"
	"github.com/newthinker/stockscan/internal/provider"
)

const (
	// DefaultBaseURL serves the chart, search and quoteSummary endpoints.
	DefaultBaseURL = "https://query1.finance.yahoo.com"

	// Name is the adapter identity stored with resolutions.
	Name = "yahoo"

	idSearchCount   = 5
	nameSearchCount = 10
	newsTimeLayout  = "20060102T150405"
)

// validSymbol matches symbols like AAPL, BRK-B, ^GSPC, 600519.SH, VWRL.L
var validSymbol = regexp.MustCompile(`^\^?[A-Za-z0-9][A-Za-z0-9\-]{0,11}(\.[A-Za-z]{1,4})?$`)

// validateSymbol checks if a symbol has valid format
func validateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if len(symbol) > 20 {
		return fmt.Errorf("symbol too long: %s", symbol)
	}
	if !validSymbol.MatchString(symbol) {
		return fmt.Errorf("invalid symbol format: %s", symbol)
	}
	return nil
}

// chartRanges maps a series category to the chart range and bar interval.
var chartRanges = map[core.Category]struct{ rng, interval string }{
	core.CategoryDaily:   {"2y", "1d"},
	core.CategoryWeekly:  {"1y", "1wk"},
	core.CategoryMonthly: {"2y", "1mo"},
}

// Config holds Yahoo settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Yahoo is the Yahoo Finance adapter.
type Yahoo struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

var _ provider.ResolvingAdapter = (*Yahoo)(nil)

// New creates a new Yahoo adapter
func New(cfg Config, logger *zap.Logger) *Yahoo {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Yahoo{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger.Named(Name),
	}
}

func (y *Yahoo) Name() string {
	return Name
}

// toYahooSymbol converts internal symbol format to Yahoo format
func (y *Yahoo) toYahooSymbol(symbol string) string {
	// Shanghai stocks: 600519.SH -> 600519.SS
	if strings.HasSuffix(symbol, ".SH") {
		return strings.TrimSuffix(symbol, ".SH") + ".SS"
	}
	return symbol
}

// ResolveByID looks an ISIN up through the search endpoint.
func (y *Yahoo) ResolveByID(ctx context.Context, id string) (*core.SymbolMatch, bool) {
	return y.search(ctx, id, idSearchCount)
}

// ResolveByName searches by company name.
func (y *Yahoo) ResolveByName(ctx context.Context, name string) (*core.SymbolMatch, bool) {
	return y.search(ctx, name, nameSearchCount)
}

func (y *Yahoo) search(ctx context.Context, query string, count int) (*core.SymbolMatch, bool) {
	if strings.TrimSpace(query) == "" {
		return nil, false
	}
	params := url.Values{
		"q":           {query},
		"quotesCount": {strconv.Itoa(count)},
		"newsCount":   {"0"},
	}
	var result searchResponse
	if err := provider.GetJSON(ctx, y.client, y.baseURL+"/v1/finance/search?"+params.Encode(), &result); err != nil {
		y.logger.Debug("search failed", zap.String("query", query), zap.Error(err))
		return nil, false
	}
	for _, q := range result.Quotes {
		symbol := strings.TrimSpace(q.Symbol)
		if symbol == "" {
			continue
		}
		name := strings.TrimSpace(q.LongName)
		if name == "" {
			name = strings.TrimSpace(q.ShortName)
		}
		if name == "" {
			name = symbol
		}
		return &core.SymbolMatch{Symbol: symbol, Name: name}, true
	}
	return nil, false
}

// Quote reads the latest price from the chart metadata.
func (y *Yahoo) Quote(ctx context.Context, symbol string) (*core.Quote, bool) {
	r, ok := y.chart(ctx, symbol, "5d", "1d")
	if !ok {
		return nil, false
	}
	meta := r.Meta
	q := &core.Quote{
		Symbol: symbol,
		Price:  meta.RegularMarketPrice,
		Volume: meta.RegularMarketVolume,
		Source: Name,
		Time:   time.Unix(meta.RegularMarketTime, 0),
	}
	prev := meta.ChartPreviousClose
	if prev == 0 {
		prev = meta.PreviousClose
	}
	if prev > 0 {
		q.Change = round(q.Price-prev, 4)
		q.ChangePercent = round((q.Price-prev)/prev*100, 4)
	}
	if !q.IsValid() {
		return nil, false
	}
	return q, true
}

// Series fetches daily (2y), weekly (1y) or monthly (2y) bars.
func (y *Yahoo) Series(ctx context.Context, symbol string, category core.Category) ([]core.OHLCV, bool) {
	spec, supported := chartRanges[category]
	if !supported {
		return nil, false
	}
	r, ok := y.chart(ctx, symbol, spec.rng, spec.interval)
	if !ok || len(r.Indicators.Quote) == 0 {
		return nil, false
	}

	quotes := r.Indicators.Quote[0]
	bars := make([]core.OHLCV, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		bar := core.OHLCV{
			// Shift into exchange time so the calendar day matches the session.
			Date:   core.DateOf(time.Unix(ts+r.Meta.GMTOffset, 0).UTC()),
			Open:   at(quotes.Open, i),
			High:   at(quotes.High, i),
			Low:    at(quotes.Low, i),
			Close:  at(quotes.Close, i),
			Volume: at(quotes.Volume, i),
		}
		if bar.Open == nil && bar.Close == nil {
			continue // Skip missing data
		}
		bars = append(bars, bar)
	}
	bars = provider.SortSeries(bars)
	return bars, len(bars) > 0
}

func (y *Yahoo) chart(ctx context.Context, symbol, rng, interval string) (*chartResult, bool) {
	if err := validateSymbol(symbol); err != nil {
		y.logger.Debug("invalid symbol", zap.Error(err))
		return nil, false
	}
	params := url.Values{"range": {rng}, "interval": {interval}}
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", y.baseURL, url.PathEscape(y.toYahooSymbol(symbol)), params.Encode())

	var result chartResponse
	if err := provider.GetJSON(ctx, y.client, endpoint, &result); err != nil {
		y.logger.Debug("chart request failed", zap.String("symbol", symbol), zap.Error(err))
		return nil, false
	}
	if result.Chart.Error != nil || len(result.Chart.Result) == 0 {
		return nil, false
	}
	return &result.Chart.Result[0], true
}

// Fundamentals flattens the quoteSummary modules into the overview field names
// used by the primary provider.
func (y *Yahoo) Fundamentals(ctx context.Context, symbol string) (core.Fundamentals, bool) {
	if err := validateSymbol(symbol); err != nil {
		return nil, false
	}
	params := url.Values{"modules": {summaryModules}}
	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?%s", y.baseURL, url.PathEscape(y.toYahooSymbol(symbol)), params.Encode())

	var result summaryResponse
	if err := provider.GetJSON(ctx, y.client, endpoint, &result); err != nil {
		y.logger.Debug("quoteSummary request failed", zap.String("symbol", symbol), zap.Error(err))
		return nil, false
	}
	if result.QuoteSummary.Error != nil || len(result.QuoteSummary.Result) == 0 {
		return nil, false
	}
	modules := result.QuoteSummary.Result[0]

	if s, ok := modules["price"]["symbol"].(string); ok && s != "" && s != y.toYahooSymbol(symbol) {
		return nil, false
	}

	out := core.Fundamentals{"Symbol": symbol}
	for _, f := range fundamentalFields {
		if v := unwrap(modules[f.module][f.field]); v != nil {
			out[f.key] = v
		}
	}
	if len(out) == 1 {
		return nil, false
	}
	return out, true
}

// News reads related articles from the search endpoint.
func (y *Yahoo) News(ctx context.Context, symbol string, limit int) ([]core.NewsItem, bool) {
	if limit <= 0 {
		limit = 10
	}
	params := url.Values{
		"q":           {symbol},
		"quotesCount": {"0"},
		"newsCount":   {strconv.Itoa(limit)},
	}
	var result searchResponse
	if err := provider.GetJSON(ctx, y.client, y.baseURL+"/v1/finance/search?"+params.Encode(), &result); err != nil {
		y.logger.Debug("news request failed", zap.String("symbol", symbol), zap.Error(err))
		return nil, false
	}

	items := make([]core.NewsItem, 0, len(result.News))
	for _, n := range result.News {
		item := core.NewsItem{
			Title:   n.Title,
			URL:     n.Link,
			Summary: n.Summary,
		}
		if !strings.HasPrefix(item.URL, "http") {
			item.URL = ""
		}
		if n.PublishTime > 0 {
			item.PublishedTime = time.Unix(n.PublishTime, 0).UTC().Format(newsTimeLayout)
		}
		items = append(items, item)
	}
	items = provider.CleanNews(items, limit)
	return items, len(items) > 0
}

func at[T any](values []*T, i int) *T {
	if i < len(values) {
		return values[i]
	}
	return nil
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
