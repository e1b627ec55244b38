package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/opsboard/teamtask/internal/auth"
	"github.com/opsboard/teamtask/internal/domain"
	"github.com/opsboard/teamtask/internal/handler/dto"
)

// handleLogin exchanges credentials for a bearer token.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := dto.Validate(req); err != nil {
		respondDomainError(w, err)
		return
	}

	user, err := h.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		// An unknown email and a wrong password are indistinguishable on the wire.
		if errors.Is(err, domain.ErrUserNotFound) {
			respondDomainError(w, domain.ErrInvalidCredentials)
			return
		}
		respondDomainError(w, err)
		return
	}

	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		respondDomainError(w, domain.ErrInvalidCredentials)
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		slog.Error("failed to issue token", "user_id", user.ID, "error", err)
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to issue token")
		return
	}

	respondJSON(w, http.StatusOK, dto.LoginResponse{
		Token: token,
		User:  dto.ToUserResponse(user),
	})
}
