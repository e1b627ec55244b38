package domain

import "time"

// Division represents an organizational unit that can be a task assignment
// target.
type Division struct {
	ID          string
	Name        string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
