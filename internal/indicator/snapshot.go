package indicator

import (
	"math"

	"github.com/newthinker/stockscan/internal/core"
)

// Snapshot is the latest value of each indicator over a daily sample.
// Indicators whose window is longer than the sample are nil.
type Snapshot struct {
	Points       int      `json:"points"`
	LastClose    float64  `json:"last_close"`
	PeriodHigh   float64  `json:"period_high"`
	PeriodLow    float64  `json:"period_low"`
	ReturnPct    float64  `json:"period_return_pct"`
	VolatilityPc float64  `json:"daily_volatility_pct"`
	SMA20        *float64 `json:"sma_20,omitempty"`
	SMA50        *float64 `json:"sma_50,omitempty"`
	SMA200       *float64 `json:"sma_200,omitempty"`
	EMA12        *float64 `json:"ema_12,omitempty"`
	EMA26        *float64 `json:"ema_26,omitempty"`
	RSI14        *float64 `json:"rsi_14,omitempty"`
}

// Closes extracts the valid closes of series in order.
func Closes(series []core.OHLCV) []float64 {
	out := make([]float64, 0, len(series))
	for _, bar := range series {
		if bar.Close == nil || math.IsNaN(*bar.Close) || math.IsInf(*bar.Close, 0) {
			continue
		}
		out = append(out, *bar.Close)
	}
	return out
}

// Compute builds a snapshot, or returns nil when fewer than 2 closes exist.
func Compute(series []core.OHLCV) *Snapshot {
	closes := Closes(series)
	if len(closes) < 2 {
		return nil
	}

	first, last := closes[0], closes[len(closes)-1]
	s := &Snapshot{
		Points:     len(closes),
		LastClose:  round(last),
		PeriodHigh: closes[0],
		PeriodLow:  closes[0],
	}
	for _, c := range closes {
		s.PeriodHigh = math.Max(s.PeriodHigh, c)
		s.PeriodLow = math.Min(s.PeriodLow, c)
	}
	s.PeriodHigh, s.PeriodLow = round(s.PeriodHigh), round(s.PeriodLow)
	if first != 0 {
		s.ReturnPct = round(100 * (last - first) / first)
	}
	s.VolatilityPc = round(100 * returnStd(closes))

	s.SMA20 = latest(SMA(closes, 20))
	s.SMA50 = latest(SMA(closes, 50))
	s.SMA200 = latest(SMA(closes, 200))
	s.EMA12 = latest(EMA(closes, 12))
	s.EMA26 = latest(EMA(closes, 26))
	s.RSI14 = latest(RSI(closes, 14))
	return s
}

// returnStd is the sample standard deviation of simple daily returns.
func returnStd(closes []float64) float64 {
	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		returns = append(returns, closes[i]/closes[i-1]-1)
	}
	if len(returns) < 2 {
		return 0
	}
	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))
	var ss float64
	for _, r := range returns {
		ss += (r - mean) * (r - mean)
	}
	return math.Sqrt(ss / float64(len(returns)-1))
}

func latest(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	v := round(values[len(values)-1])
	return &v
}

func round(v float64) float64 {
	return math.Round(v*10000) / 10000
}
