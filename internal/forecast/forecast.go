// Package forecast fits a linear trend to a daily close series and projects it
// a few trading days ahead.
package forecast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/newthinker/stockscan/internal/core"
)

const (
	// Horizon is the number of trading days projected past the last bar.
	Horizon = 3
	// BandWidth is the number of standard deviations between trend and band.
	BandWidth = 2.0
)

// Point is one value on the trend line or a band.
type Point struct {
	Date  core.Date `json:"time"`
	Value float64   `json:"value"`
}

// Projection is a projected close on a future trading day.
type Projection struct {
	Date  core.Date `json:"time"`
	Close float64   `json:"close"`
}

// Stats describes the fitted trend.
type Stats struct {
	Slope     float64   `json:"slope"`
	Intercept float64   `json:"intercept"`
	Std       float64   `json:"std"`
	LastDate  core.Date `json:"last_date"`
}

// Result is the trend, its dispersion bands and the projection.
// Stats is nil when the series had fewer than two usable closes and is
// encoded as an empty object.
type Result struct {
	TrendLine []Point      `json:"trend_line"`
	UpperBand []Point      `json:"upper_band"`
	LowerBand []Point      `json:"lower_band"`
	Forecast  []Projection `json:"forecast"`
	Stats     *Stats       `json:"stats"`
}

// IsEmpty reports whether nothing could be computed.
func (r Result) IsEmpty() bool {
	return r.Stats == nil
}

// MarshalJSON writes missing stats as {}.
func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result
	out := struct {
		plain
		Stats any `json:"stats"`
	}{plain: plain(r), Stats: r.Stats}
	if r.Stats == nil {
		out.Stats = struct{}{}
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads {} or null stats back as nil.
func (r *Result) UnmarshalJSON(b []byte) error {
	type plain Result
	var in struct {
		plain
		Stats json.RawMessage `json:"stats"`
	}
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*r = Result(in.plain)
	r.Stats = nil
	raw := bytes.TrimSpace(in.Stats)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) || bytes.Equal(raw, []byte("{}")) {
		return nil
	}
	var st Stats
	if err := json.Unmarshal(raw, &st); err != nil {
		return err
	}
	r.Stats = &st
	return nil
}

func empty() Result {
	return Result{
		TrendLine: []Point{},
		UpperBand: []Point{},
		LowerBand: []Point{},
		Forecast:  []Projection{},
	}
}

// Compute fits closes against their position in series, which must be sorted
// ascending by date. Bars without a date or close are skipped.
func Compute(series []core.OHLCV) Result {
	dates := make([]core.Date, 0, len(series))
	closes := make([]float64, 0, len(series))
	for _, bar := range series {
		if bar.Close == nil || bar.Date.IsZero() {
			continue
		}
		if math.IsNaN(*bar.Close) || math.IsInf(*bar.Close, 0) {
			continue
		}
		dates = append(dates, bar.Date)
		closes = append(closes, *bar.Close)
	}
	if len(closes) < 2 {
		return empty()
	}

	n := len(closes)
	slope, intercept := regress(closes)
	std := sampleStd(closes)

	res := Result{
		TrendLine: make([]Point, n),
		UpperBand: make([]Point, n),
		LowerBand: make([]Point, n),
		Forecast:  make([]Projection, 0, Horizon),
	}
	for i := range n {
		v := intercept + slope*float64(i)
		res.TrendLine[i] = Point{Date: dates[i], Value: round(v, 4)}
		res.UpperBand[i] = Point{Date: dates[i], Value: round(v+BandWidth*std, 4)}
		res.LowerBand[i] = Point{Date: dates[i], Value: round(v-BandWidth*std, 4)}
	}

	last := dates[n-1]
	for i, d := range NextTradingDays(last, Horizon) {
		res.Forecast = append(res.Forecast, Projection{
			Date:  d,
			Close: round(intercept+slope*float64(n+i), 4),
		})
	}

	res.Stats = &Stats{
		Slope:     round(slope, 6),
		Intercept: round(intercept, 4),
		Std:       round(std, 4),
		LastDate:  last,
	}
	return res
}

// NextTradingDays returns the count weekdays following from.
func NextTradingDays(from core.Date, count int) []core.Date {
	days := make([]core.Date, 0, count)
	d := from
	for len(days) < count {
		d = d.AddDays(1)
		if !d.IsWeekend() {
			days = append(days, d)
		}
	}
	return days
}

// Summary renders the projection as one line of text, or "" for an empty result.
func (r Result) Summary() string {
	if r.IsEmpty() || len(r.Forecast) == 0 {
		return ""
	}
	parts := make([]string, len(r.Forecast))
	for i, p := range r.Forecast {
		parts[i] = fmt.Sprintf("%s=%.2f", p.Date, p.Close)
	}
	return fmt.Sprintf("Next %d trading days (linear trend extrapolation): %s Trend slope: %.4f, std: %.2f.",
		len(r.Forecast), strings.Join(parts, ", "), r.Stats.Slope, r.Stats.Std)
}

// regress returns the least squares slope and intercept of y against 0..n-1.
func regress(y []float64) (slope, intercept float64) {
	n := float64(len(y))
	var sumX, sumY, sumXX, sumXY float64
	for i, v := range y {
		x := float64(i)
		sumX += x
		sumY += v
		sumXX += x * x
		sumXY += x * v
	}
	denom := n*sumXX - sumX*sumX
	if math.Abs(denom) < 1e-20 {
		return 0, sumY / n
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

func sampleStd(v []float64) float64 {
	n := len(v)
	if n < 2 {
		return 0
	}
	var mean float64
	for _, x := range v {
		mean += x
	}
	mean /= float64(n)
	var ss float64
	for _, x := range v {
		ss += (x - mean) * (x - mean)
	}
	return math.Sqrt(ss / float64(n-1))
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
