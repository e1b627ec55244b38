package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Domain-specific errors for business logic validation.
var (
	// Task errors
	ErrTaskNotFound      = errors.New("task not found")
	ErrTaskNotAvailable  = errors.New("task not available")
	ErrIllegalTransition = errors.New("illegal status transition")

	// Permission errors
	ErrForbidden = errors.New("forbidden")

	// Assignment target errors
	ErrTargetGone = errors.New("assignment target no longer exists")

	// Division errors
	ErrDivisionNotFound  = errors.New("division not found")
	ErrDivisionNameTaken = errors.New("division name already taken")

	// User errors
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid authentication token")

	// Validation errors
	ErrInvalidStatus   = errors.New("invalid task status")
	ErrInvalidPriority = errors.New("invalid priority level")
	ErrInvalidRole     = errors.New("invalid role")
)

// ValidationError reports field-level payload violations. Fields maps a field
// name to a human-readable message.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError creates a ValidationError with a single field violation.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Add records a field violation and returns the receiver for chaining.
func (e *ValidationError) Add(field, message string) *ValidationError {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
	return e
}

// Empty reports whether no violations were recorded.
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// ErrOrNil returns nil when no violations were recorded, otherwise the error.
func (e *ValidationError) ErrOrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	if e.Empty() {
		return "validation failed"
	}
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
