// Package alphavantage implements the quota-limited primary provider.
package alphavantage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/stockscan/internal/core"
	"github.com/newthinker/stockscan/internal/provider"
	"github.com/newthinker/stockscan/internal/ratelimit"
)

const (
	// DefaultBaseURL is the Alpha Vantage query endpoint.
	DefaultBaseURL = "https://www.alphavantage.co/query"

	// Name is the adapter identity stored with resolutions.
	Name = "alphavantage"

	maxNewsLimit = 50
	newsWindow   = 7 * 24 * time.Hour
	newsLayout   = "20060102T1504"
)

// Keys that mark an error or throttling response instead of data.
var errorMarkers = []string{"Error Message", "Note", "Information"}

var seriesFunctions = map[core.Category]string{
	core.CategoryDaily:   "TIME_SERIES_DAILY",
	core.CategoryWeekly:  "TIME_SERIES_WEEKLY",
	core.CategoryMonthly: "TIME_SERIES_MONTHLY",
}

// Config holds Alpha Vantage settings.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client is the Alpha Vantage adapter. Every request goes through the shared
// rate limiter; when the daily cap is spent the adapter reports no data.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	limiter *ratelimit.Limiter
	logger  *zap.Logger
	now     func() time.Time
}

var (
	_ provider.Adapter      = (*Client)(nil)
	_ provider.NameResolver = (*Client)(nil)
)

// New creates an Alpha Vantage adapter.
func New(cfg Config, limiter *ratelimit.Limiter, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		logger:  logger.Named(Name),
		now:     time.Now,
	}
}

func (c *Client) Name() string {
	return Name
}

// request runs one query. ok is false when no key is configured, the limiter
// refuses, the transport fails or the body carries an error marker.
func (c *Client) request(ctx context.Context, params url.Values) (map[string]json.RawMessage, bool) {
	if c.apiKey == "" {
		return nil, false
	}
	if c.limiter != nil {
		if !c.limiter.CanCall() {
			c.logger.Debug("daily limit reached, skipping", zap.String("function", params.Get("function")))
			return nil, false
		}
		if err := c.limiter.RecordCall(ctx); err != nil {
			return nil, false
		}
	}
	params.Set("apikey", c.apiKey)

	var data map[string]json.RawMessage
	if err := provider.GetJSON(ctx, c.client, c.baseURL+"?"+params.Encode(), &data); err != nil {
		c.logger.Debug("request failed", zap.String("function", params.Get("function")), zap.Error(err))
		return nil, false
	}
	for _, marker := range errorMarkers {
		if _, found := data[marker]; found {
			c.logger.Debug("error or rate limit response", zap.String("function", params.Get("function")), zap.String("marker", marker))
			return nil, false
		}
	}
	return data, true
}

// ResolveByName searches symbols by company name and returns the best match.
func (c *Client) ResolveByName(ctx context.Context, name string) (*core.SymbolMatch, bool) {
	data, ok := c.request(ctx, url.Values{
		"function": {"SYMBOL_SEARCH"},
		"keywords": {name},
		"datatype": {"json"},
	})
	if !ok {
		return nil, false
	}

	var matches []map[string]string
	if err := json.Unmarshal(data["bestMatches"], &matches); err != nil {
		return nil, false
	}
	for _, m := range matches {
		symbol := strings.TrimSpace(m["1. symbol"])
		if symbol == "" {
			continue
		}
		display := strings.TrimSpace(m["2. name"])
		if display == "" {
			display = symbol
		}
		return &core.SymbolMatch{Symbol: symbol, Name: display}, true
	}
	return nil, false
}

// Quote fetches GLOBAL_QUOTE.
func (c *Client) Quote(ctx context.Context, symbol string) (*core.Quote, bool) {
	data, ok := c.request(ctx, url.Values{
		"function": {"GLOBAL_QUOTE"},
		"symbol":   {symbol},
	})
	if !ok {
		return nil, false
	}

	var gq map[string]string
	if err := json.Unmarshal(data["Global Quote"], &gq); err != nil || len(gq) == 0 {
		return nil, false
	}

	price := provider.ParseFloat(gq["05. price"])
	if price == nil {
		return nil, false
	}
	q := &core.Quote{
		Symbol: gq["01. symbol"],
		Price:  *price,
		Source: Name,
		Time:   c.now(),
	}
	if q.Symbol == "" {
		q.Symbol = symbol
	}
	if v := provider.ParseInt(gq["06. volume"]); v != nil {
		q.Volume = *v
	}
	if v := provider.ParseFloat(gq["09. change"]); v != nil {
		q.Change = *v
	}
	if v := provider.ParseFloat(gq["10. change percent"]); v != nil {
		q.ChangePercent = *v
	}
	if !q.IsValid() {
		return nil, false
	}
	return q, true
}

// Series fetches a daily, weekly or monthly time series. Daily requests ask
// for the full history.
func (c *Client) Series(ctx context.Context, symbol string, category core.Category) ([]core.OHLCV, bool) {
	function, supported := seriesFunctions[category]
	if !supported {
		return nil, false
	}
	outputSize := "compact"
	if category == core.CategoryDaily {
		outputSize = "full"
	}
	data, ok := c.request(ctx, url.Values{
		"function":   {function},
		"symbol":     {symbol},
		"outputsize": {outputSize},
	})
	if !ok {
		return nil, false
	}

	var raw map[string]map[string]string
	for key, value := range data {
		if strings.Contains(key, "Time Series") {
			if err := json.Unmarshal(value, &raw); err != nil {
				return nil, false
			}
			break
		}
	}
	if len(raw) == 0 {
		return nil, false
	}

	bars := make([]core.OHLCV, 0, len(raw))
	for day, v := range raw {
		date, err := core.ParseDate(day)
		if err != nil {
			continue
		}
		bars = append(bars, core.OHLCV{
			Date:   date,
			Open:   provider.ParseFloat(v["1. open"]),
			High:   provider.ParseFloat(v["2. high"]),
			Low:    provider.ParseFloat(v["3. low"]),
			Close:  provider.ParseFloat(v["4. close"]),
			Volume: provider.ParseInt(v["5. volume"]),
		})
	}
	bars = provider.SortSeries(bars)
	return bars, len(bars) > 0
}

// Fundamentals fetches OVERVIEW and fills gaps from ETF_PROFILE.
func (c *Client) Fundamentals(ctx context.Context, symbol string) (core.Fundamentals, bool) {
	overview, ok := c.fetchMap(ctx, "OVERVIEW", symbol)
	if !ok || len(overview) == 0 {
		return nil, false
	}
	if s, _ := overview["Symbol"].(string); s == "" {
		overview["Symbol"] = symbol
	}
	if profile, ok := c.fetchMap(ctx, "ETF_PROFILE", symbol); ok {
		overview.Merge(profile)
	}
	return overview, true
}

func (c *Client) fetchMap(ctx context.Context, function, symbol string) (core.Fundamentals, bool) {
	data, ok := c.request(ctx, url.Values{
		"function": {function},
		"symbol":   {symbol},
	})
	if !ok {
		return nil, false
	}
	out := make(core.Fundamentals, len(data))
	for k, raw := range data {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		out[k] = v
	}
	return out, true
}

// News fetches NEWS_SENTIMENT for the last seven days.
func (c *Client) News(ctx context.Context, symbol string, limit int) ([]core.NewsItem, bool) {
	if limit <= 0 || limit > maxNewsLimit {
		limit = maxNewsLimit
	}
	to := c.now().UTC()
	from := to.Add(-newsWindow)
	data, ok := c.request(ctx, url.Values{
		"function":  {"NEWS_SENTIMENT"},
		"tickers":   {symbol},
		"limit":     {strconv.Itoa(limit)},
		"time_from": {from.Format(newsLayout) + "00"},
		"time_to":   {to.Format(newsLayout) + "00"},
	})
	if !ok {
		return nil, false
	}

	var feed []struct {
		Title     string   `json:"title"`
		URL       string   `json:"url"`
		Summary   string   `json:"summary"`
		Published string   `json:"time_published"`
		Sentiment *float64 `json:"overall_sentiment_score"`
	}
	if err := json.Unmarshal(data["feed"], &feed); err != nil {
		return nil, false
	}

	items := make([]core.NewsItem, 0, len(feed))
	for _, f := range feed {
		items = append(items, core.NewsItem{
			Title:         f.Title,
			URL:           f.URL,
			Summary:       f.Summary,
			PublishedTime: f.Published,
			Sentiment:     f.Sentiment,
		})
	}
	items = provider.CleanNews(items, limit)
	c.logger.Debug("news fetched", zap.String("symbol", symbol), zap.Int("items", len(items)))
	return items, len(items) > 0
}
