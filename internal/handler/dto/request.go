package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/opsboard/teamtask/internal/domain"
)

// validate holds the shared struct validator. Field names in violation
// reports come from the json tags so they match the wire format.
var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}()

// Validate runs the struct tags of a request against the shared validator and
// converts violations into a domain ValidationError.
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var violations validator.ValidationErrors
	if !errors.As(err, &violations) {
		return err
	}

	verr := &domain.ValidationError{}
	for _, violation := range violations {
		verr.Add(violation.Field(), violationMessage(violation))
	}
	return verr.ErrOrNil()
}

func violationMessage(violation validator.FieldError) string {
	switch violation.Tag() {
	case "required":
		return "this field is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", violation.Param())
	case "min":
		return fmt.Sprintf("must have at least %s", violation.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", violation.Param())
	case "uuid":
		return "must be a valid UUID"
	default:
		return fmt.Sprintf("failed %s validation", violation.Tag())
	}
}

// LoginRequest represents the request body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CreateTaskRequest represents the request body for POST /tasks.
type CreateTaskRequest struct {
	Name                 string    `json:"name" validate:"required,max=255"`
	Description          string    `json:"description" validate:"required"`
	ImagePath            string    `json:"image_path" validate:"required"`
	DueDate              time.Time `json:"due_date" validate:"required"`
	Priority             string    `json:"priority" validate:"required,oneof=low medium high urgent"`
	AssignmentType       string    `json:"assignment_type" validate:"required,oneof=division user"`
	AssignedDivisionID   *string   `json:"assigned_division_id" validate:"omitempty,uuid"`
	AssignedUserID       *string   `json:"assigned_user_id" validate:"omitempty,uuid"`
	InitialTimeEstimates []int     `json:"initial_time_estimates" validate:"required,min=2,max=3,dive,min=1"`
}

// Assignment resolves the discriminator and reference pair into a domain
// assignment. Exactly one reference must be present and it must match the
// declared type.
func (r CreateTaskRequest) Assignment() (domain.Assignment, error) {
	switch r.AssignmentType {
	case string(domain.AssignmentTypeDivision):
		if r.AssignedDivisionID == nil || r.AssignedUserID != nil {
			return domain.Assignment{}, domain.NewValidationError(
				"assigned_division_id", "division assignment requires assigned_division_id and no assigned_user_id")
		}
		return domain.AssignToDivision(*r.AssignedDivisionID), nil
	case string(domain.AssignmentTypeUser):
		if r.AssignedUserID == nil || r.AssignedDivisionID != nil {
			return domain.Assignment{}, domain.NewValidationError(
				"assigned_user_id", "user assignment requires assigned_user_id and no assigned_division_id")
		}
		return domain.AssignToUser(*r.AssignedUserID), nil
	default:
		return domain.Assignment{}, domain.NewValidationError(
			"assignment_type", "assignment_type must be 'division' or 'user'")
	}
}

// WorkerPatchRequest represents the request body for PATCH /tasks/:id/progress.
type WorkerPatchRequest struct {
	CurrentTimeEstimate *int    `json:"current_time_estimate" validate:"omitempty,min=1"`
	ItemsCompleted      *int    `json:"items_completed" validate:"omitempty,min=0"`
	WorkResultImage     *string `json:"work_result_image"`
	Status              *string `json:"status" validate:"omitempty,oneof=in_progress under_review"`
}

// ManagerPatchRequest represents the request body for PATCH /tasks/:id.
type ManagerPatchRequest struct {
	Name        *string    `json:"name" validate:"omitempty,max=255"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	Priority    *string    `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Status      *string    `json:"status" validate:"omitempty,oneof=not_started in_progress under_review accepted completed"`
}

// DivisionRequest represents the request body for division create and update.
type DivisionRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description"`
}
