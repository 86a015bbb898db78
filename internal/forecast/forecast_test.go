package forecast

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/stockscan/internal/core"
)

func series(start core.Date, closes ...float64) []core.OHLCV {
	out := make([]core.OHLCV, 0, len(closes))
	d := start
	for _, c := range closes {
		for d.IsWeekend() {
			d = d.AddDays(1)
		}
		out = append(out, core.OHLCV{Date: d, Close: core.Float(c)})
		d = d.AddDays(1)
	}
	return out
}

func TestCompute_KnownLine(t *testing.T) {
	// 2024-01-03 is a Wednesday, so the last bar lands on Friday 2024-01-05.
	res := Compute(series(core.NewDate(2024, 1, 3), 100, 102, 104))
	require.False(t, res.IsEmpty())

	assert.Equal(t, 2.0, res.Stats.Slope)
	assert.Equal(t, 100.0, res.Stats.Intercept)
	assert.Equal(t, 2.0, res.Stats.Std)
	assert.Equal(t, "2024-01-05", res.Stats.LastDate.String())

	values := make([]float64, len(res.TrendLine))
	for i, p := range res.TrendLine {
		values[i] = p.Value
	}
	assert.Equal(t, []float64{100, 102, 104}, values)

	require.Len(t, res.Forecast, 3)
	wantDates := []string{"2024-01-08", "2024-01-09", "2024-01-10"}
	wantCloses := []float64{106, 108, 110}
	for i, p := range res.Forecast {
		assert.Equal(t, wantDates[i], p.Date.String())
		assert.Equal(t, wantCloses[i], p.Close)
	}
}

func TestCompute_BandsAndHorizon(t *testing.T) {
	closes := []float64{10.5, 11.2, 10.9, 12.4, 13.1, 12.7, 14.0, 13.6, 15.2, 14.8, 16.1}
	res := Compute(series(core.NewDate(2024, 2, 5), closes...))
	require.False(t, res.IsEmpty())

	n := len(closes)
	require.Len(t, res.TrendLine, n)
	require.Len(t, res.UpperBand, n)
	require.Len(t, res.LowerBand, n)

	std := sampleStd(closes)
	for i := range res.TrendLine {
		assert.InDelta(t, res.TrendLine[i].Value+2*std, res.UpperBand[i].Value, 1e-3)
		assert.InDelta(t, res.TrendLine[i].Value-2*std, res.LowerBand[i].Value, 1e-3)
		assert.Equal(t, res.TrendLine[i].Date, res.UpperBand[i].Date)
	}

	require.Len(t, res.Forecast, Horizon)
	last := res.Stats.LastDate
	prev := last
	for _, p := range res.Forecast {
		assert.True(t, p.Date.After(prev.Time))
		assert.False(t, p.Date.IsWeekend())
		prev = p.Date
	}
}

func TestCompute_TooShort(t *testing.T) {
	for _, s := range [][]core.OHLCV{
		nil,
		series(core.NewDate(2024, 1, 2), 100),
		{{Date: core.NewDate(2024, 1, 2), Close: core.Float(1)}, {Date: core.NewDate(2024, 1, 3)}},
	} {
		res := Compute(s)
		assert.True(t, res.IsEmpty())
		assert.Empty(t, res.TrendLine)
		assert.Empty(t, res.Forecast)
		assert.Empty(t, res.Summary())
	}
}

func TestCompute_SkipsMissingCloses(t *testing.T) {
	s := series(core.NewDate(2024, 1, 2), 100, 0, 104)
	s[1].Close = nil

	res := Compute(s)
	require.False(t, res.IsEmpty())
	require.Len(t, res.TrendLine, 2)
	assert.Equal(t, 4.0, res.Stats.Slope)
}

func TestCompute_FlatSeries(t *testing.T) {
	res := Compute(series(core.NewDate(2024, 1, 2), 50, 50, 50, 50))
	assert.Equal(t, 0.0, res.Stats.Slope)
	assert.Equal(t, 50.0, res.Stats.Intercept)
	assert.Equal(t, 0.0, res.Stats.Std)
	for _, p := range res.Forecast {
		assert.Equal(t, 50.0, p.Close)
	}
}

func TestNextTradingDays(t *testing.T) {
	sat := core.NewDate(2024, 1, 6)
	days := NextTradingDays(sat, 3)
	require.Len(t, days, 3)
	assert.Equal(t, time.Monday, days[0].Weekday())
	assert.Equal(t, "2024-01-10", days[2].String())
}

func TestResult_Summary(t *testing.T) {
	res := Compute(series(core.NewDate(2024, 1, 3), 100, 102, 104))
	assert.Equal(t,
		"Next 3 trading days (linear trend extrapolation): 2024-01-08=106.00, 2024-01-09=108.00, 2024-01-10=110.00 Trend slope: 2.0000, std: 2.00.",
		res.Summary())
}

func TestResult_JSON(t *testing.T) {
	raw, err := json.Marshal(Compute(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"trend_line":[],"upper_band":[],"lower_band":[],"forecast":[],"stats":{}}`, string(raw))

	raw, err = json.Marshal(Compute(series(core.NewDate(2024, 1, 3), 100, 102)))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"time":"2024-01-03"`)
	assert.Contains(t, string(raw), `"last_date":"2024-01-04"`)
}

func TestResult_JSONRoundTripKeepsEmptiness(t *testing.T) {
	var res Result
	require.NoError(t, json.Unmarshal([]byte(`{"trend_line":[],"upper_band":[],"lower_band":[],"forecast":[],"stats":{}}`), &res))
	assert.True(t, res.IsEmpty())

	require.NoError(t, json.Unmarshal([]byte(`{"stats":null}`), &res))
	assert.True(t, res.IsEmpty())

	raw, err := json.Marshal(Compute(series(core.NewDate(2024, 1, 3), 100, 102, 104)))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &res))
	require.False(t, res.IsEmpty())
	assert.Equal(t, 2.0, res.Stats.Slope)
	assert.Len(t, res.Forecast, Horizon)
}
