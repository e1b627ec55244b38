package domain

import "time"

// EventType represents the type of task event.
type EventType string

const (
	EventTypeCreated         EventType = "created"
	EventTypeTaken           EventType = "taken"
	EventTypeProgressUpdated EventType = "progress_updated"
	EventTypeStatusChanged   EventType = "status_changed"
)

// TaskEvent is an audit log entry recording who did what to a task.
type TaskEvent struct {
	ID        string
	TaskID    string
	ActorID   string
	Type      EventType
	OldStatus *TaskStatus
	NewStatus *TaskStatus
	CreatedAt time.Time
}
