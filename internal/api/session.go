package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// StartSession opens a new elicitation session.
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, r, err)
		return
	}

	started, err := h.svc.StartSession(r.Context(), *req.DomainID, *req.PersonaID, req.StudentID)
	if err != nil {
		serviceError(w, r, "Failed to start session", err)
		return
	}
	JSON(w, http.StatusOK, newStartSessionResponse(started))
}

// Chat runs one chat turn and returns the persona reply.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, r, err)
		return
	}

	reply, err := h.svc.HandleMessage(r.Context(), req.SessionID, *req.Message)
	if err != nil {
		serviceError(w, r, "Chat turn failed", err)
		return
	}
	JSON(w, http.StatusOK, chatResponse{Reply: reply})
}

// SubmitSolution stores a student's solution for a session.
func (h *Handler) SubmitSolution(w http.ResponseWriter, r *http.Request) {
	var req submitSolutionRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, r, err)
		return
	}

	if err := h.svc.SubmitSolution(r.Context(), req.SessionID, *req.SolutionType, *req.SolutionContent); err != nil {
		serviceError(w, r, "Failed to submit solution", err)
		return
	}
	JSON(w, http.StatusOK, messageResponse{Message: "Solution submitted successfully"})
}

// ExportConversation returns the transcript of a session.
func (h *Handler) ExportConversation(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")

	transcript, err := h.svc.ExportConversation(r.Context(), sessionID)
	if err != nil {
		serviceError(w, r, "Failed to export conversation", err)
		return
	}
	JSON(w, http.StatusOK, newExportResponse(transcript))
}
