package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"quantkit/internal/fetch"
)

// HealthStatus is the body of GET /healthz
type HealthStatus struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	version string
	start   time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{version: version, start: time.Now()}
}

// HealthCheck handles GET /healthz
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, HealthStatus{
		Status:        "ok",
		Version:       h.version,
		UptimeSeconds: time.Since(h.start).Seconds(),
	})
}

// BatchStatus is the body of GET /fetch/status
type BatchStatus struct {
	Total     int               `json:"total"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Pending   int               `json:"pending"`
	Done      []string          `json:"done"`
	Failures  map[string]string `json:"failures,omitempty"`
}

// FetchHandler reports the progress of a running batch from its store
type FetchHandler struct {
	store  *fetch.Store
	total  int
	logger *slog.Logger
}

// NewFetchHandler creates a handler over store for a batch of total URLs
func NewFetchHandler(store *fetch.Store, total int, logger *slog.Logger) *FetchHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FetchHandler{
		store:  store,
		total:  total,
		logger: logger.With(slog.String("handler", "fetch")),
	}
}

// Status handles GET /fetch/status
func (h *FetchHandler) Status(w http.ResponseWriter, r *http.Request) {
	failures := h.store.Failures()
	status := BatchStatus{
		Total:     h.total,
		Succeeded: h.store.Len(),
		Failed:    len(failures),
		Done:      h.store.Keys(),
	}
	status.Pending = max(status.Total-status.Succeeded-status.Failed, 0)
	if len(failures) > 0 {
		status.Failures = make(map[string]string, len(failures))
		for u, err := range failures {
			status.Failures[u] = err.Error()
		}
	}
	h.logger.DebugContext(r.Context(), "fetch_status_served",
		slog.Int("succeeded", status.Succeeded),
		slog.Int("failed", status.Failed))
	render.JSON(w, r, status)
}
