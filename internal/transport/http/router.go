package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"quantkit/internal/fetch"
	"quantkit/internal/middleware"
)

// RouterConfig wires the handlers of the ops server
type RouterConfig struct {
	Version string
	Logger  *slog.Logger
	// Metrics serves /metrics when set
	Metrics http.Handler
	// Store and Total enable /fetch/status
	Store *fetch.Store
	Total int
	// Events serves /fetch/events when set
	Events http.Handler
}

// NewRouter builds the ops router
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(middleware.Recoverer(logger))

	health := NewHealthHandler(cfg.Version)
	r.Get("/healthz", health.HealthCheck)

	if cfg.Store != nil {
		r.Get("/fetch/status", NewFetchHandler(cfg.Store, cfg.Total, logger).Status)
	}
	if cfg.Events != nil {
		r.Handle("/fetch/events", cfg.Events)
	}
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = middleware.WriteProblem(w, middleware.ProblemFromStatus(http.StatusNotFound, r.URL.Path, middleware.GetReqID(r.Context())))
	})
	return r
}
