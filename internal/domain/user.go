package domain

import "time"

// Role classifies a user into exactly one of the four system roles.
type Role string

const (
	RoleAdministrator  Role = "administrator"
	RoleManager        Role = "manager"
	RoleDivisionMember Role = "division_member"
	RoleIndividualUser Role = "individual_user"
)

// IsValid checks if the role is one of the allowed values.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdministrator, RoleManager, RoleDivisionMember, RoleIndividualUser:
		return true
	default:
		return false
	}
}

// User is the acting identity presented to every operation. Role and division
// membership are set at account-management time and treated as immutable
// inputs here.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	DivisionID   *string
	CreatedAt    time.Time
}

// IsAdministrator checks if the user holds the administrator role.
func (u *User) IsAdministrator() bool { return u.Role == RoleAdministrator }

// IsManager checks if the user holds the manager role.
func (u *User) IsManager() bool { return u.Role == RoleManager }

// IsDivisionMember checks if the user holds the division_member role.
func (u *User) IsDivisionMember() bool { return u.Role == RoleDivisionMember }

// IsIndividualUser checks if the user holds the individual_user role.
func (u *User) IsIndividualUser() bool { return u.Role == RoleIndividualUser }

// MemberOf checks if the user belongs to the given division.
func (u *User) MemberOf(divisionID string) bool {
	return u.DivisionID != nil && *u.DivisionID == divisionID
}

// CanCreateTask reports whether the user may author tasks.
func (u *User) CanCreateTask() bool { return u.IsManager() }

// CanCreateDivision reports whether the user may manage divisions.
func (u *User) CanCreateDivision() bool { return u.IsAdministrator() }

// CanTake reports whether the user may claim the task: it must still be
// waiting, and the user must be the assignment target (division membership
// for division-assigned tasks, identity for user-assigned ones).
func (u *User) CanTake(task *Task) bool {
	if !task.IsAvailable() {
		return false
	}
	if divisionID, ok := task.Assignment.DivisionID(); ok {
		return u.MemberOf(divisionID)
	}
	if userID, ok := task.Assignment.UserID(); ok {
		return u.ID == userID
	}
	return false
}

// CanEditTask reports whether the user may edit task metadata: only the
// manager who created it.
func (u *User) CanEditTask(task *Task) bool {
	return u.IsManager() && task.IsCreatedBy(u.ID)
}

// CanUpdateProgress reports whether the user is the current worker on the task.
func (u *User) CanUpdateProgress(task *Task) bool {
	return task.IsTakenBy(u.ID)
}

// CanReview reports whether the user may accept or send back the task: the
// creating manager, once the task is under review.
func (u *User) CanReview(task *Task) bool {
	return u.CanEditTask(task) && task.Status == TaskStatusUnderReview
}
