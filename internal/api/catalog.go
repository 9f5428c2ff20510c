package api

import (
	"net/http"
)

// Root reports that the API is running.
func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, statusResponse{Status: "C-LEIA API is running", Version: Version})
}

// ListDomains returns every domain.
func (h *Handler) ListDomains(w http.ResponseWriter, r *http.Request) {
	domains, err := h.svc.ListDomains(r.Context())
	if err != nil {
		serviceError(w, r, "Failed to list domains", err)
		return
	}
	JSON(w, http.StatusOK, domains)
}

// ListPersonas returns the personas of one domain. An unknown domain yields
// an empty list.
func (h *Handler) ListPersonas(w http.ResponseWriter, r *http.Request) {
	domainID, err := int64Param(r, "domain_id")
	if err != nil {
		badRequest(w, r, err)
		return
	}

	personas, err := h.svc.ListPersonas(r.Context(), domainID)
	if err != nil {
		serviceError(w, r, "Failed to list personas", err)
		return
	}

	resp := make([]personaResponse, 0, len(personas))
	for _, p := range personas {
		resp = append(resp, personaResponse{
			ID:              p.ID,
			Name:            p.Name,
			Role:            p.Role,
			BackgroundStory: p.BackgroundStory,
		})
	}
	JSON(w, http.StatusOK, resp)
}

// CreatePersona adds a persona to an existing domain.
func (h *Handler) CreatePersona(w http.ResponseWriter, r *http.Request) {
	var req createPersonaRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, r, err)
		return
	}

	id, err := h.svc.CreatePersona(r.Context(), req.toDomain())
	if err != nil {
		serviceError(w, r, "Failed to create persona", err)
		return
	}
	JSON(w, http.StatusOK, createPersonaResponse{Message: "Persona created successfully", PersonaID: id})
}
