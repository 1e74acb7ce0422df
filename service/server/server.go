package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xnetlabs/burnwatch/service/config"
	"github.com/xnetlabs/burnwatch/service/db"
	"github.com/xnetlabs/burnwatch/service/metrics"
	"github.com/xnetlabs/burnwatch/service/temporal"
)

// Server represents the HTTP server exposing the burn event API.
type Server struct {
	addr      string
	cfg       *config.Config
	store     *db.Store
	scheduler temporal.Scheduler
	metrics   *metrics.Metrics
	logger    *slog.Logger
	server    *http.Server
}

// New creates a new HTTP server with the given dependencies.
// The scheduler manages the Temporal schedule driving tracking runs.
// The metrics is optional - if nil, the metrics endpoint won't be available.
func New(addr string, cfg *config.Config, store *db.Store, scheduler temporal.Scheduler, m *metrics.Metrics, logger *slog.Logger) *Server {
	return &Server{
		addr:      addr,
		cfg:       cfg,
		store:     store,
		scheduler: scheduler,
		metrics:   m,
		logger:    logger,
	}
}

// Start starts the HTTP server. It blocks until Shutdown is called or the
// listener fails.
func (s *Server) Start() error {
	mux := http.NewServeMux()

	decimals := s.cfg.TokenDecimals

	// Burn event routes. Literal segments win over the wildcard, so
	// /burns/latest and /burns/history never collide with {signature}.
	mux.Handle("GET /api/v1/burns", s.instrument("list_burns", handleListBurns(s.store, decimals, s.logger)))
	mux.Handle("GET /api/v1/burns/latest", s.instrument("latest_burn", handleGetLatestBurn(s.store, decimals, s.logger)))
	mux.Handle("GET /api/v1/burns/history", s.instrument("burn_history", handleBurnHistory(s.store, decimals, s.logger)))
	mux.Handle("GET /api/v1/burns/{signature}", s.instrument("get_burn", handleGetBurn(s.store, decimals, s.logger)))

	// Run audit routes
	mux.Handle("GET /api/v1/runs", s.instrument("list_runs", handleListRuns(s.store, s.logger)))

	// Schedule management routes
	mux.Handle("POST /api/v1/schedule/trigger", s.instrument("trigger_run", handleTriggerRun(s.scheduler, s.cfg, s.logger)))

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus metrics endpoint (if metrics collector is configured)
	if s.metrics != nil {
		mux.Handle("GET /metrics", promhttp.Handler())
		s.logger.Info("Prometheus metrics endpoint enabled")
	}

	handler := corsMiddleware(mux)

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting HTTP server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// instrument wraps a handler with HTTP metrics collection when configured.
func (s *Server) instrument(name string, h http.Handler) http.Handler {
	if s.metrics == nil {
		return h
	}
	return metrics.HTTPMetricsMiddleware(s.metrics, name)(h)
}

// corsMiddleware adds CORS headers to all responses and handles OPTIONS preflight requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
