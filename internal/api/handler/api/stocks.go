package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/newthinker/stockscan/internal/api/response"
	"github.com/newthinker/stockscan/internal/core"
	"github.com/newthinker/stockscan/internal/forecast"
	"github.com/newthinker/stockscan/internal/sanitize"
	"github.com/newthinker/stockscan/internal/storage/catalog"
)

// SymbolResolver maps an identifier to a trading symbol.
type SymbolResolver interface {
	Resolve(ctx context.Context, identifier string) (string, bool)
}

// MarketData serves cached-first series and fundamentals.
type MarketData interface {
	Series(ctx context.Context, symbol string, category core.Category) ([]core.OHLCV, bool)
	Fundamentals(ctx context.Context, symbol string) (core.Fundamentals, bool)
}

// StockDirectory lists the reference stocks with their resolved symbols.
type StockDirectory interface {
	Stocks(ctx context.Context) ([]catalog.Stock, error)
}

// errDataUnavailable is returned instead of anything a provider said.
var errDataUnavailable = &core.Error{Code: core.ErrNoData.Code, Message: sanitize.DataUnavailableMessage}

// SeriesResponse is the chart payload.
type SeriesResponse struct {
	Symbol        string                `json:"symbol"`
	Interval      string                `json:"interval"`
	Series        []core.OHLCV          `json:"series"`
	Forecast      []forecast.Projection `json:"forecast,omitempty"`
	TrendLine     []forecast.Point      `json:"trend_line,omitempty"`
	UpperBand     []forecast.Point      `json:"upper_band,omitempty"`
	LowerBand     []forecast.Point      `json:"lower_band,omitempty"`
	ForecastStats *forecast.Stats       `json:"forecast_stats,omitempty"`
}

// StocksHandler serves the stock list, chart and metrics data.
type StocksHandler struct {
	resolver  SymbolResolver
	data      MarketData
	directory StockDirectory
	logger    *zap.Logger
}

// NewStocksHandler creates a new stocks handler. directory may be nil, in
// which case the list is empty.
func NewStocksHandler(resolver SymbolResolver, data MarketData, directory StockDirectory, logger *zap.Logger) *StocksHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StocksHandler{resolver: resolver, data: data, directory: directory, logger: logger}
}

// List handles GET /api/stocks.
func (h *StocksHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.directory == nil {
		response.JSON(w, http.StatusOK, []catalog.Stock{})
		return
	}
	stocks, err := h.directory.Stocks(r.Context())
	if err != nil {
		h.logger.Error("listing stocks failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, err)
		return
	}
	if stocks == nil {
		stocks = []catalog.Stock{}
	}
	response.JSON(w, http.StatusOK, stocks)
}

// Series handles GET /api/stocks/{id}/series?interval=1d|1w|1m&include_forecast=true.
func (h *StocksHandler) Series(w http.ResponseWriter, r *http.Request) {
	identifier := strings.TrimSpace(r.PathValue("id"))
	interval := r.URL.Query().Get("interval")
	if interval == "" {
		interval = "1d"
	}
	withForecast, _ := strconv.ParseBool(r.URL.Query().Get("include_forecast"))

	symbol, ok := h.resolver.Resolve(r.Context(), identifier)
	if !ok {
		response.Error(w, http.StatusNotFound, core.ErrSymbolNotResolved)
		return
	}

	category := core.CategoryForInterval(interval)
	series, ok := h.data.Series(r.Context(), symbol, category)
	if !ok || !sanitize.IsSafe(series) {
		h.logger.Info("series unavailable", zap.String("symbol", symbol), zap.String("interval", interval))
		response.Error(w, http.StatusNotFound, errDataUnavailable)
		return
	}

	out := SeriesResponse{Symbol: symbol, Interval: interval, Series: series}
	if withForecast && category == core.CategoryDaily {
		if fc := forecast.Compute(series); !fc.IsEmpty() {
			out.Forecast = fc.Forecast
			out.TrendLine = fc.TrendLine
			out.UpperBand = fc.UpperBand
			out.LowerBand = fc.LowerBand
			out.ForecastStats = fc.Stats
		}
	}
	response.JSON(w, http.StatusOK, out)
}

// Metrics handles GET /api/stocks/{id}/metrics. Missing or unsafe
// fundamentals yield an empty object so dashboards still render.
func (h *StocksHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	identifier := strings.TrimSpace(r.PathValue("id"))
	empty := core.Fundamentals{}

	symbol, ok := h.resolver.Resolve(r.Context(), identifier)
	if !ok {
		h.logger.Info("metrics requested for unresolved identifier", zap.String("identifier", identifier))
		response.JSON(w, http.StatusOK, empty)
		return
	}

	f, ok := h.data.Fundamentals(r.Context(), symbol)
	switch {
	case !ok:
		h.logger.Info("metrics missing", zap.String("symbol", symbol))
		response.JSON(w, http.StatusOK, empty)
	case !sanitize.IsSafe(f):
		h.logger.Info("metrics unsafe, returning empty", zap.String("symbol", symbol))
		response.JSON(w, http.StatusOK, empty)
	default:
		response.JSON(w, http.StatusOK, f)
	}
}
