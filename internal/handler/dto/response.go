package dto

import (
	"time"

	"github.com/opsboard/teamtask/internal/domain"
)

// TaskResponse represents a task in list and detail views.
type TaskResponse struct {
	ID                   string     `json:"id"`
	Name                 string     `json:"name"`
	Description          string     `json:"description"`
	ImagePath            string     `json:"image_path"`
	DueDate              time.Time  `json:"due_date"`
	Priority             string     `json:"priority"`
	Status               string     `json:"status"`
	AssignmentType       string     `json:"assignment_type"`
	AssignedDivisionID   *string    `json:"assigned_division_id"`
	AssignedUserID       *string    `json:"assigned_user_id"`
	CreatedBy            string     `json:"created_by"`
	TakenBy              *string    `json:"taken_by"`
	InitialTimeEstimates []int      `json:"initial_time_estimates"`
	CurrentTimeEstimate  *int       `json:"current_time_estimate"`
	ItemsCompleted       int        `json:"items_completed"`
	WorkResultImage      *string    `json:"work_result_image"`
	IsOverdue            bool       `json:"is_overdue"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// TasksListResponse represents the response for GET /tasks.
type TasksListResponse struct {
	Tasks  []TaskResponse `json:"tasks"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// TaskDetailResponse represents full task details with the audit trail.
type TaskDetailResponse struct {
	Task   TaskResponse        `json:"task"`
	Events []TaskEventResponse `json:"events"`
}

// TaskEventResponse represents a single audit event.
type TaskEventResponse struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	Type      string    `json:"type"`
	ActorID   string    `json:"actor_id"`
	OldStatus *string   `json:"old_status"`
	NewStatus *string   `json:"new_status"`
	CreatedAt time.Time `json:"created_at"`
}

// DivisionResponse represents a division in list views.
type DivisionResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DivisionsListResponse represents the response for GET /divisions.
type DivisionsListResponse struct {
	Divisions []DivisionResponse `json:"divisions"`
}

// DivisionDetailResponse adds the member count to the division view.
type DivisionDetailResponse struct {
	DivisionResponse
	MemberCount int `json:"member_count"`
}

// UserResponse represents the authenticated user in the login response.
type UserResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Role       string  `json:"role"`
	DivisionID *string `json:"division_id"`
}

// LoginResponse represents the response for POST /auth/login.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// StatsResponse represents scoped task statistics.
type StatsResponse struct {
	Total         int            `json:"total"`
	TasksByStatus map[string]int `json:"tasks_by_status"`
	OverdueCount  int            `json:"overdue_count"`
}

// ToTaskResponse converts domain.Task to TaskResponse; overdue is computed
// against now.
func ToTaskResponse(task *domain.Task, now time.Time) TaskResponse {
	var divisionID, userID *string
	if id, ok := task.Assignment.DivisionID(); ok {
		divisionID = &id
	}
	if id, ok := task.Assignment.UserID(); ok {
		userID = &id
	}

	return TaskResponse{
		ID:                   task.ID,
		Name:                 task.Name,
		Description:          task.Description,
		ImagePath:            task.ImagePath,
		DueDate:              task.DueDate,
		Priority:             string(task.Priority),
		Status:               string(task.Status),
		AssignmentType:       string(task.Assignment.Type()),
		AssignedDivisionID:   divisionID,
		AssignedUserID:       userID,
		CreatedBy:            task.CreatedBy,
		TakenBy:              task.TakenBy,
		InitialTimeEstimates: task.InitialTimeEstimates,
		CurrentTimeEstimate:  task.CurrentTimeEstimate,
		ItemsCompleted:       task.ItemsCompleted,
		WorkResultImage:      task.WorkResultImage,
		IsOverdue:            task.IsOverdue(now),
		CreatedAt:            task.CreatedAt,
		UpdatedAt:            task.UpdatedAt,
	}
}

// ToTaskEventResponse converts domain.TaskEvent to TaskEventResponse.
func ToTaskEventResponse(event *domain.TaskEvent) TaskEventResponse {
	var oldStatus, newStatus *string
	if event.OldStatus != nil {
		s := string(*event.OldStatus)
		oldStatus = &s
	}
	if event.NewStatus != nil {
		s := string(*event.NewStatus)
		newStatus = &s
	}

	return TaskEventResponse{
		ID:        event.ID,
		TaskID:    event.TaskID,
		Type:      string(event.Type),
		ActorID:   event.ActorID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		CreatedAt: event.CreatedAt,
	}
}

// ToDivisionResponse converts domain.Division to DivisionResponse.
func ToDivisionResponse(division *domain.Division) DivisionResponse {
	return DivisionResponse{
		ID:          division.ID,
		Name:        division.Name,
		Description: division.Description,
		CreatedAt:   division.CreatedAt,
		UpdatedAt:   division.UpdatedAt,
	}
}

// ToUserResponse converts domain.User to UserResponse.
func ToUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		Role:       string(user.Role),
		DivisionID: user.DivisionID,
	}
}
