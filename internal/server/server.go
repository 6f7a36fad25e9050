// Package server is the HTTP surface of the detection service: routing,
// middleware, and request/response mapping for the pipeline.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/meghraj-labs/auris/internal/auth"
	"github.com/meghraj-labs/auris/internal/ledger"
	"github.com/meghraj-labs/auris/internal/metrics"
	"github.com/meghraj-labs/auris/internal/pipeline"
)

// Config wires the server's collaborators.
type Config struct {
	Port           int
	RequestTimeout time.Duration

	// RateLimitCapacity is reported in X-RateLimit-Limit headers.
	RateLimitCapacity int

	Orchestrator  *pipeline.Orchestrator
	Store         ledger.Store
	Recorder      *metrics.Recorder
	Authenticator *auth.Authenticator
	Logger        *slog.Logger
}

// Server hosts the detection API.
type Server struct {
	Router *chi.Mux
	Port   int

	logger *slog.Logger
	http   *http.Server
}

// New builds the router and middleware chain.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h := &handlers{
		orchestrator:      cfg.Orchestrator,
		store:             cfg.Store,
		recorder:          cfg.Recorder,
		rateLimitCapacity: cfg.RateLimitCapacity,
		logger:            logger,
	}

	r := chi.NewRouter()

	// Middleware order matters: the request ID must exist before logging,
	// and authentication runs before the pipeline timeout starts.
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "auris")
	})

	// Unauthenticated operational endpoints.
	r.Get("/healthz", h.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Authenticator))
		r.Use(TimeoutMiddleware(cfg.RequestTimeout))
		r.Post("/detect", h.detect)
		r.Get("/detections", h.detections)
		r.Get("/stats", h.stats)
	})

	return &Server{
		Router: r,
		Port:   cfg.Port,
		logger: logger,
	}
}

// Start begins serving and blocks until the listener fails or Shutdown is
// called.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.Port),
		Handler: s.Router,
	}
	s.logger.Info("starting server", slog.Int("port", s.Port))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
