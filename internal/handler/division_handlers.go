package handler

import (
	"encoding/json"
	"net/http"

	"github.com/opsboard/teamtask/internal/handler/dto"
	"github.com/opsboard/teamtask/internal/middleware"
	"github.com/opsboard/teamtask/internal/service"
)

// handleCreateDivision creates a division.
func (h *Handler) handleCreateDivision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, err := middleware.GetUserFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return
	}

	var req dto.DivisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := dto.Validate(req); err != nil {
		respondDomainError(w, err)
		return
	}

	division, err := h.divisionService.CreateDivision(ctx, actor, service.DivisionParams{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.ToDivisionResponse(division))
}

// handleGetDivision retrieves a division with its member count.
func (h *Handler) handleGetDivision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, err := middleware.GetUserFromContext(ctx); err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return
	}

	divisionID, ok := extractPathID(w, r, "division")
	if !ok {
		return
	}

	division, members, err := h.divisionService.GetDivision(ctx, divisionID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.DivisionDetailResponse{
		DivisionResponse: dto.ToDivisionResponse(division),
		MemberCount:      members,
	})
}

// handleListDivisions returns all divisions.
func (h *Handler) handleListDivisions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, err := middleware.GetUserFromContext(ctx); err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return
	}

	divisions, err := h.divisionService.ListDivisions(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list divisions")
		return
	}

	items := make([]dto.DivisionResponse, len(divisions))
	for i, division := range divisions {
		items[i] = dto.ToDivisionResponse(division)
	}

	respondJSON(w, http.StatusOK, dto.DivisionsListResponse{Divisions: items})
}

// handleUpdateDivision renames or redescribes a division.
func (h *Handler) handleUpdateDivision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, err := middleware.GetUserFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return
	}

	divisionID, ok := extractPathID(w, r, "division")
	if !ok {
		return
	}

	var req dto.DivisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := dto.Validate(req); err != nil {
		respondDomainError(w, err)
		return
	}

	division, err := h.divisionService.UpdateDivision(ctx, actor, divisionID, service.DivisionParams{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToDivisionResponse(division))
}

// handleDeleteDivision removes a division and its tasks.
func (h *Handler) handleDeleteDivision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, err := middleware.GetUserFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return
	}

	divisionID, ok := extractPathID(w, r, "division")
	if !ok {
		return
	}

	if err := h.divisionService.DeleteDivision(ctx, actor, divisionID); err != nil {
		respondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
