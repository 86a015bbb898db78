// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	handler "github.com/newthinker/stockscan/internal/api/handler/api"
	"github.com/newthinker/stockscan/internal/api/job"
	"github.com/newthinker/stockscan/internal/api/middleware"
	"github.com/newthinker/stockscan/internal/metrics"
	"github.com/newthinker/stockscan/internal/storage/session"
)

// Server represents the HTTP server for stockscan.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
}

// Config holds server configuration
type Config struct {
	Host   string
	Port   int
	APIKey string
	// WriteTimeout bounds a whole response, so it has to cover a streamed advice run.
	WriteTimeout time.Duration
	MetricsPath  string
}

// Dependencies holds what the handlers need. Stocks, Chat, Warmer and Metrics
// are optional.
type Dependencies struct {
	Advice   handler.AdviceRunner
	Resolver handler.SymbolResolver
	Data     handler.MarketData
	Stocks   handler.StockDirectory
	Sessions session.Store
	Chat     handler.Replier
	Warmer   handler.Warmer
	Metrics  *metrics.Registry
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Advice == nil || deps.Resolver == nil || deps.Data == nil || deps.Sessions == nil {
		return nil, fmt.Errorf("advice, resolver, data and sessions are required")
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Minute
	}

	mux := http.NewServeMux()
	s := &Server{
		httpServer: &http.Server{
			Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler: middleware.Chain(mux,
				metrics.LoggingMiddleware(logger),
				metrics.HTTPMiddleware(deps.Metrics),
			),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
		mux:    mux,
	}

	s.setupRoutes(cfg, deps)
	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config, deps Dependencies) {
	auth := middleware.APIKeyAuth(cfg.APIKey)
	protect := func(h http.HandlerFunc) http.Handler { return auth(h) }

	advice := handler.NewAdviceHandler(deps.Advice, s.logger)
	stocks := handler.NewStocksHandler(deps.Resolver, deps.Data, deps.Stocks, s.logger)
	sessions := handler.NewSessionsHandler(deps.Sessions, s.logger)

	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	s.mux.Handle("POST /api/stocks/{id}/advice", protect(advice.Stream))
	s.mux.Handle("GET /api/stocks", protect(stocks.List))
	s.mux.Handle("GET /api/stocks/{id}/series", protect(stocks.Series))
	s.mux.Handle("GET /api/stocks/{id}/metrics", protect(stocks.Metrics))
	s.mux.Handle("GET /api/sessions", protect(sessions.List))
	s.mux.Handle("GET /api/sessions/{id}", protect(sessions.Get))

	if deps.Chat != nil {
		chat := handler.NewChatHandler(deps.Chat, deps.Sessions, s.logger)
		s.mux.Handle("POST /api/chat", protect(chat.Stream))
	}

	if deps.Warmer != nil {
		warm := handler.NewWarmupHandler(deps.Warmer, job.NewStore(50, 24*time.Hour), s.logger)
		s.mux.Handle("POST /api/warmup", protect(warm.Trigger))
		s.mux.Handle("GET /api/jobs", protect(warm.List))
		s.mux.Handle("GET /api/jobs/{id}", protect(warm.Get))
	}

	if deps.Metrics != nil && cfg.MetricsPath != "" {
		s.mux.Handle("GET "+cfg.MetricsPath, promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}
}

// Handler returns the root handler, middleware included.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
