package provider

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/newthinker/stockscan/internal/core"
)

// MaxNewsSummary bounds the summary text kept per news item, in bytes.
const MaxNewsSummary = 2000

// SortSeries orders bars by date ascending and drops bars without a date.
// When a date repeats, the bar seen last wins.
func SortSeries(bars []core.OHLCV) []core.OHLCV {
	byDate := make(map[string]core.OHLCV, len(bars))
	for _, b := range bars {
		if b.Date.IsZero() {
			continue
		}
		byDate[b.Date.String()] = b
	}

	out := make([]core.OHLCV, 0, len(byDate))
	for _, b := range byDate {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date.Time)
	})
	return out
}

// CleanNews drops empty items, trims long summaries and bounds the list to limit.
func CleanNews(items []core.NewsItem, limit int) []core.NewsItem {
	out := make([]core.NewsItem, 0, len(items))
	for _, item := range items {
		if limit > 0 && len(out) >= limit {
			break
		}
		item.Title = strings.TrimSpace(item.Title)
		item.Summary = strings.TrimSpace(item.Summary)
		item.URL = strings.TrimSpace(item.URL)
		if item.IsEmpty() {
			continue
		}
		item.Summary = truncate(item.Summary, MaxNewsSummary)
		out = append(out, item)
	}
	return out
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// ParseFloat reads a provider number that may be a string, a percentage
// ("1.25%") or "None". It returns nil when the value is not numeric.
func ParseFloat(v any) *float64 {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return nil
		}
		return &n
	case int:
		f := float64(n)
		return &f
	case int64:
		f := float64(n)
		return &f
	case string:
		s := strings.TrimSuffix(strings.TrimSpace(n), "%")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return &f
	default:
		return nil
	}
}

// ParseInt is ParseFloat truncated to an integer.
func ParseInt(v any) *int64 {
	f := ParseFloat(v)
	if f == nil {
		return nil
	}
	i := int64(*f)
	return &i
}
