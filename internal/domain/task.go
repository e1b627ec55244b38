package domain

import "time"

// TaskStatus represents the lifecycle stage of a task.
type TaskStatus string

const (
	TaskStatusNotStarted  TaskStatus = "not_started"
	TaskStatusInProgress  TaskStatus = "in_progress"
	TaskStatusUnderReview TaskStatus = "under_review"
	TaskStatusAccepted    TaskStatus = "accepted"
	TaskStatusCompleted   TaskStatus = "completed"
)

// legalEdges is the transition table of the task state machine. A status may
// only ever advance along one of these edges.
var legalEdges = map[TaskStatus][]TaskStatus{
	TaskStatusNotStarted:  {TaskStatusInProgress},
	TaskStatusInProgress:  {TaskStatusInProgress, TaskStatusUnderReview},
	TaskStatusUnderReview: {TaskStatusAccepted, TaskStatusInProgress},
	TaskStatusAccepted:    {TaskStatusCompleted},
	TaskStatusCompleted:   {},
}

// IsValid checks if the status is one of the five lifecycle stages.
func (s TaskStatus) IsValid() bool {
	_, ok := legalEdges[s]
	return ok
}

// IsTerminal returns true if the status is terminal (no transitions allowed).
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted
}

// CanAdvanceTo reports whether the state machine has an edge from s to next.
func (s TaskStatus) CanAdvanceTo(next TaskStatus) bool {
	for _, edge := range legalEdges[s] {
		if edge == next {
			return true
		}
	}
	return false
}

// IsOpen returns true if the task is still being worked toward acceptance.
func (s TaskStatus) IsOpen() bool {
	return s != TaskStatusAccepted && s != TaskStatusCompleted
}

// TaskPriority represents the priority level of a task.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

// IsValid checks if the priority is one of the allowed values.
func (p TaskPriority) IsValid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	default:
		return false
	}
}

// AssignmentType discriminates the two kinds of assignment target.
type AssignmentType string

const (
	AssignmentTypeDivision AssignmentType = "division"
	AssignmentTypeUser     AssignmentType = "user"
)

// Assignment is the single target a task is directed to: either a division or
// a specific user, never both. The zero value is invalid; construct one with
// AssignToDivision or AssignToUser so an inconsistent pair cannot exist.
type Assignment struct {
	kind AssignmentType
	ref  string
}

// AssignToDivision targets a task at every member of a division.
func AssignToDivision(divisionID string) Assignment {
	return Assignment{kind: AssignmentTypeDivision, ref: divisionID}
}

// AssignToUser targets a task at one specific user.
func AssignToUser(userID string) Assignment {
	return Assignment{kind: AssignmentTypeUser, ref: userID}
}

// Type returns the assignment discriminator.
func (a Assignment) Type() AssignmentType { return a.kind }

// IsZero reports whether the assignment was never constructed.
func (a Assignment) IsZero() bool { return a.kind == "" }

// DivisionID returns the target division and true when the task is
// division-assigned.
func (a Assignment) DivisionID() (string, bool) {
	if a.kind == AssignmentTypeDivision {
		return a.ref, true
	}
	return "", false
}

// UserID returns the target user and true when the task is user-assigned.
func (a Assignment) UserID() (string, bool) {
	if a.kind == AssignmentTypeUser {
		return a.ref, true
	}
	return "", false
}

// TimeEstimates is the manager's original estimate spread in hours, fixed at
// creation. Valid spreads hold 2 or 3 positive entries.
type TimeEstimates []int

// Validate checks the estimate spread invariant.
func (e TimeEstimates) Validate() error {
	if len(e) < 2 || len(e) > 3 {
		return NewValidationError("initial_time_estimates", "provide 2 or 3 time estimates")
	}
	for _, hours := range e {
		if hours < 1 {
			return NewValidationError("initial_time_estimates", "each estimate must be at least 1 hour")
		}
	}
	return nil
}

// Task represents a unit of work assigned to a division or an individual.
type Task struct {
	ID                   string
	Name                 string
	Description          string
	ImagePath            string
	DueDate              time.Time
	Priority             TaskPriority
	Status               TaskStatus
	Assignment           Assignment
	CreatedBy            string
	TakenBy              *string
	InitialTimeEstimates TimeEstimates
	CurrentTimeEstimate  *int
	ItemsCompleted       int
	WorkResultImage      *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// IsAvailable checks if the task is still waiting to be taken.
func (t *Task) IsAvailable() bool {
	return t.Status == TaskStatusNotStarted && t.TakenBy == nil
}

// IsTakenBy checks if the given user is currently executing the task.
func (t *Task) IsTakenBy(userID string) bool {
	return t.TakenBy != nil && *t.TakenBy == userID
}

// IsCreatedBy checks if the task was authored by the given user.
func (t *Task) IsCreatedBy(userID string) bool {
	return t.CreatedBy == userID
}

// IsOverdue reports whether the due date has passed while the task is still
// open. Accepted and completed tasks are never overdue.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.Status.IsOpen() && t.DueDate.Before(now)
}
