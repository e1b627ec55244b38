package handler

import (
	"net/http"

	"github.com/opsboard/teamtask/internal/handler/dto"
	"github.com/opsboard/teamtask/internal/middleware"
)

// handleGetStats returns task counts over the caller's visible scope.
func (h *Handler) handleGetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, err := middleware.GetUserFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return
	}

	stats, err := h.taskService.GetStats(ctx, actor)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to compute stats")
		return
	}

	respondJSON(w, http.StatusOK, dto.StatsResponse{
		Total:         stats.Total,
		TasksByStatus: stats.TasksByStatus,
		OverdueCount:  stats.OverdueCount,
	})
}
