// Package api provides HTTP handlers for the C-LEIA API.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ashureev/cleia/internal/domain"
	"github.com/ashureev/cleia/internal/elicitation"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Version is reported by the root status endpoint.
const Version = "1.0"

// Handler serves the elicitation endpoints.
type Handler struct {
	svc *elicitation.Service
}

// NewHandler creates a new Handler over the elicitation service.
func NewHandler(svc *elicitation.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the elicitation routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Root)
	r.Get("/api/domains", h.ListDomains)
	r.Get("/api/domains/{domain_id}/personas", h.ListPersonas)
	r.Post("/api/start_session", h.StartSession)
	r.Post("/api/chat", h.Chat)
	r.Post("/api/submit_solution", h.SubmitSolution)
	r.Get("/api/export/conversations/{session_id}", h.ExportConversation)
	r.Post("/api/persona", h.CreatePersona)
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("Failed to encode response", "error", err)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, errorResponse{Error: message})
}

// errorStatus maps a service error to an HTTP status and a message that is
// safe to show to clients.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, "session not found"
	case errors.Is(err, domain.ErrDomainPersonaNotFound):
		return http.StatusNotFound, "domain or persona not found"
	case errors.Is(err, domain.ErrDomainNotFound):
		return http.StatusNotFound, "domain not found"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable, "inference service unavailable"
	case errors.Is(err, domain.ErrBadUpstream):
		return http.StatusBadGateway, "no response from inference service"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// serviceError logs err with request context and writes the mapped response.
func serviceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status, message := errorStatus(err)
	attrs := []any{"error", err, "status", status, "request_id", middleware.GetReqID(r.Context())}
	if status >= http.StatusInternalServerError {
		slog.Error(msg, attrs...)
	} else {
		slog.Warn(msg, attrs...)
	}
	Error(w, status, message)
}

// decode reads a JSON request body into v and validates it.
func decode(r *http.Request, v validator) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return v.validate()
}

func badRequest(w http.ResponseWriter, r *http.Request, err error) {
	slog.Warn("Rejected request", "error", err, "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()))
	Error(w, http.StatusBadRequest, "invalid request")
}

func int64Param(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", name, raw, err)
	}
	return id, nil
}
