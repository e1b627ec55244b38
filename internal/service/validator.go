package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/opsboard/teamtask/internal/domain"
)

// CreateTaskParams carries the payload for task creation.
type CreateTaskParams struct {
	Name                 string
	Description          string
	ImagePath            string
	DueDate              time.Time
	Priority             domain.TaskPriority
	Assignment           domain.Assignment
	InitialTimeEstimates domain.TimeEstimates
}

// WorkerPatch is the field set the claiming worker may touch.
type WorkerPatch struct {
	CurrentTimeEstimate *int
	ItemsCompleted      *int
	WorkResultImage     *string
	Status              *domain.TaskStatus
}

// ManagerPatch is the field set the creating manager may touch.
type ManagerPatch struct {
	Name        *string
	Description *string
	DueDate     *time.Time
	Priority    *domain.TaskPriority
	Status      *domain.TaskStatus
}

// Validator handles permission and state validation for task operations.
// It is pure: all checks run against the snapshots it is handed.
type Validator struct{}

// NewValidator creates a new Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// imageRefOK checks that an image reference looks like a safe relative path.
func imageRefOK(ref string) bool {
	if ref == "" || strings.HasPrefix(ref, "/") {
		return false
	}
	return !strings.Contains(ref, "..")
}

// ValidateCreate checks the creation payload against the task invariants.
func (v *Validator) ValidateCreate(params CreateTaskParams, now time.Time) error {
	verr := &domain.ValidationError{}

	if strings.TrimSpace(params.Name) == "" {
		verr.Add("name", "task name is required")
	} else if len(params.Name) > 255 {
		verr.Add("name", "task name must be at most 255 characters")
	}
	if strings.TrimSpace(params.Description) == "" {
		verr.Add("description", "task description is required")
	}
	if !imageRefOK(params.ImagePath) {
		verr.Add("image_path", "a task image reference is required")
	}
	if !params.DueDate.After(now) {
		verr.Add("due_date", "due date must be in the future")
	}
	if !params.Priority.IsValid() {
		verr.Add("priority", "priority must be low, medium, high or urgent")
	}
	if params.Assignment.IsZero() {
		verr.Add("assignment_type", "assignment target is required")
	}
	if err := params.InitialTimeEstimates.Validate(); err != nil {
		verr.Add("initial_time_estimates", "provide 2 or 3 estimates of at least 1 hour each")
	}

	return verr.ErrOrNil()
}

// CanTake validates that a user may claim the task. Target-mismatch is a
// permission failure; a task that is no longer waiting is reported as not
// available so callers can tell "someone beat you to it" from "not yours".
func (v *Validator) CanTake(task *domain.Task, actor *domain.User) error {
	if divisionID, ok := task.Assignment.DivisionID(); ok {
		if !actor.MemberOf(divisionID) {
			return fmt.Errorf("%w: user %s is not a member of division %s", domain.ErrForbidden, actor.ID, divisionID)
		}
	} else if userID, ok := task.Assignment.UserID(); ok {
		if actor.ID != userID {
			return fmt.Errorf("%w: task %s is assigned to another user", domain.ErrForbidden, task.ID)
		}
	}

	if !task.IsAvailable() {
		return fmt.Errorf("%w: task %s is in %s status", domain.ErrTaskNotAvailable, task.ID, task.Status)
	}

	return nil
}

// ValidateWorkerPatch checks a progress update from the claiming worker.
func (v *Validator) ValidateWorkerPatch(task *domain.Task, actor *domain.User, patch WorkerPatch) error {
	if !actor.CanUpdateProgress(task) {
		return fmt.Errorf("%w: user %s has not taken task %s", domain.ErrForbidden, actor.ID, task.ID)
	}

	verr := &domain.ValidationError{}
	if patch.CurrentTimeEstimate != nil && *patch.CurrentTimeEstimate < 1 {
		verr.Add("current_time_estimate", "time estimate must be at least 1 hour")
	}
	if patch.ItemsCompleted != nil && *patch.ItemsCompleted < 0 {
		verr.Add("items_completed", "items completed cannot be negative")
	}
	if patch.WorkResultImage != nil && !imageRefOK(*patch.WorkResultImage) {
		verr.Add("work_result_image", "work result image reference is invalid")
	}

	if patch.Status != nil {
		switch *patch.Status {
		case domain.TaskStatusInProgress:
			// Self-loop: revise progress without advancing.
		case domain.TaskStatusUnderReview:
			// Submitting for review requires a work result to review.
			hasImage := task.WorkResultImage != nil
			if patch.WorkResultImage != nil {
				hasImage = imageRefOK(*patch.WorkResultImage)
			}
			if !hasImage {
				verr.Add("work_result_image", "attach a work result image before submitting for review")
			}
		default:
			return fmt.Errorf("%w: worker cannot move task %s to %s", domain.ErrIllegalTransition, task.ID, *patch.Status)
		}

		if task.Status != domain.TaskStatusInProgress {
			return fmt.Errorf("%w: task %s is in %s status", domain.ErrIllegalTransition, task.ID, task.Status)
		}
	}

	return verr.ErrOrNil()
}

// ValidateManagerPatch checks a metadata/status update from the creating
// manager. A requested status is held against the legal-edge table keyed by
// the task's current status, with the edge's own guard applied, so a manager
// cannot skip stages on a task just because they created it.
func (v *Validator) ValidateManagerPatch(
	task *domain.Task,
	actor *domain.User,
	patch ManagerPatch,
	now time.Time,
) error {
	if !actor.CanEditTask(task) {
		return fmt.Errorf("%w: user %s did not create task %s", domain.ErrForbidden, actor.ID, task.ID)
	}

	verr := &domain.ValidationError{}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		verr.Add("name", "task name cannot be empty")
	}
	if patch.Description != nil && strings.TrimSpace(*patch.Description) == "" {
		verr.Add("description", "task description cannot be empty")
	}
	if patch.DueDate != nil && !patch.DueDate.After(now) {
		verr.Add("due_date", "due date must be in the future")
	}
	if patch.Priority != nil && !patch.Priority.IsValid() {
		verr.Add("priority", "priority must be low, medium, high or urgent")
	}
	if patch.Status != nil && !patch.Status.IsValid() {
		verr.Add("status", "status is not one of the five lifecycle stages")
	}
	if err := verr.ErrOrNil(); err != nil {
		return err
	}

	if patch.Status == nil || *patch.Status == task.Status {
		return nil
	}

	newStatus := *patch.Status
	if !task.Status.CanAdvanceTo(newStatus) {
		return fmt.Errorf("%w: task %s cannot transition %s -> %s", domain.ErrIllegalTransition, task.ID, task.Status, newStatus)
	}

	// Each edge keeps its own guard even when the actor is the creator.
	switch task.Status {
	case domain.TaskStatusNotStarted:
		// The only outgoing edge is the claim; the manager must themselves be
		// an eligible claimant.
		return v.CanTake(task, actor)
	case domain.TaskStatusInProgress:
		// Submission for review belongs to the worker.
		if !actor.CanUpdateProgress(task) {
			return fmt.Errorf("%w: only the worker may submit task %s for review", domain.ErrForbidden, task.ID)
		}
		if task.WorkResultImage == nil {
			return domain.NewValidationError("work_result_image", "a work result image must be attached before review")
		}
	case domain.TaskStatusUnderReview:
		if !actor.CanReview(task) {
			return fmt.Errorf("%w: user %s may not review task %s", domain.ErrForbidden, actor.ID, task.ID)
		}
	case domain.TaskStatusAccepted:
		// Finalize: creator check already done above.
	}

	return nil
}
