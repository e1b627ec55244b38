package dto

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/opsboard/teamtask/internal/domain"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error code, message and, for validation failures,
// the per-field violations.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// NewErrorResponse creates a new error response.
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	}
}

// MapDomainError maps domain errors to an HTTP status code and error response.
func MapDomainError(err error) (int, ErrorResponse) {
	message := err.Error()

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return http.StatusUnprocessableEntity, ErrorResponse{
			Error: ErrorDetail{
				Code:    "VALIDATION_ERROR",
				Message: message,
				Fields:  verr.Fields,
			},
		}
	}

	switch {
	// Task errors
	case errors.Is(err, domain.ErrTaskNotFound):
		return http.StatusNotFound, NewErrorResponse("TASK_NOT_FOUND", message)
	case errors.Is(err, domain.ErrTaskNotAvailable):
		return http.StatusConflict, NewErrorResponse("TASK_NOT_AVAILABLE", message)
	case errors.Is(err, domain.ErrIllegalTransition):
		return http.StatusConflict, NewErrorResponse("ILLEGAL_TRANSITION", message)
	case errors.Is(err, domain.ErrTargetGone):
		return http.StatusConflict, NewErrorResponse("TARGET_GONE", message)

	// Permission errors
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, NewErrorResponse("FORBIDDEN", message)

	// Division errors
	case errors.Is(err, domain.ErrDivisionNotFound):
		return http.StatusNotFound, NewErrorResponse("DIVISION_NOT_FOUND", message)
	case errors.Is(err, domain.ErrDivisionNameTaken):
		return http.StatusConflict, NewErrorResponse("NAME_TAKEN", message)

	// User and credential errors
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, NewErrorResponse("USER_NOT_FOUND", message)
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, NewErrorResponse("INVALID_CREDENTIALS", message)
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, NewErrorResponse("INVALID_TOKEN", message)

	// Payload validation errors carried as sentinels
	case errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidPriority),
		errors.Is(err, domain.ErrInvalidRole):
		return http.StatusUnprocessableEntity, NewErrorResponse("VALIDATION_ERROR", message)

	default:
		slog.Error("unmapped domain error returned to client",
			"error", err,
			"error_type", fmt.Sprintf("%T", err),
		)
		return http.StatusInternalServerError, NewErrorResponse("INTERNAL_ERROR", "Internal server error")
	}
}
