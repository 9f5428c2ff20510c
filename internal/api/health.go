package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Pinger is satisfied by the store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	db      Pinger
	timeout time.Duration
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db, timeout: 5 * time.Second}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Health returns the health status of the API and its dependencies.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := healthResponse{
		Status: "healthy",
		Checks: map[string]string{"api": "ok", "database": "ok"},
	}
	statusCode := http.StatusOK

	if err := h.db.Ping(ctx); err != nil {
		slog.Error("Health check failed", "error", err)
		resp.Status = "degraded"
		resp.Checks["database"] = "unreachable"
		statusCode = http.StatusServiceUnavailable
	}

	JSON(w, statusCode, resp)
}

// RegisterHealth registers the health check route.
func (h *HealthHandler) RegisterHealth(r chi.Router) {
	r.Get("/api/health", h.Health)
}
