package domain_test

import (
	"testing"

	"github.com/opsboard/teamtask/internal/domain"
	"github.com/stretchr/testify/assert"
)

func divisionMember(id, divisionID string) *domain.User {
	return &domain.User{ID: id, Role: domain.RoleDivisionMember, DivisionID: &divisionID}
}

func TestRoleIsValid(t *testing.T) {
	assert.True(t, domain.RoleManager.IsValid())
	assert.True(t, domain.RoleAdministrator.IsValid())
	assert.False(t, domain.Role("superuser").IsValid())
}

func TestUserCanCreate(t *testing.T) {
	manager := &domain.User{ID: "m1", Role: domain.RoleManager}
	admin := &domain.User{ID: "a1", Role: domain.RoleAdministrator}
	member := divisionMember("w1", "div-1")

	assert.True(t, manager.CanCreateTask())
	assert.False(t, admin.CanCreateTask())
	assert.False(t, member.CanCreateTask())

	assert.True(t, admin.CanCreateDivision())
	assert.False(t, manager.CanCreateDivision())
}

func TestUserCanTake(t *testing.T) {
	member := divisionMember("w1", "div-1")
	outsider := divisionMember("w2", "div-2")
	individual := &domain.User{ID: "u1", Role: domain.RoleIndividualUser}

	divisionTask := &domain.Task{
		Status:     domain.TaskStatusNotStarted,
		Assignment: domain.AssignToDivision("div-1"),
	}
	assert.True(t, member.CanTake(divisionTask))
	assert.False(t, outsider.CanTake(divisionTask))
	assert.False(t, individual.CanTake(divisionTask))

	userTask := &domain.Task{
		Status:     domain.TaskStatusNotStarted,
		Assignment: domain.AssignToUser("u1"),
	}
	assert.True(t, individual.CanTake(userTask))
	assert.False(t, member.CanTake(userTask))

	// A task that already left not_started cannot be taken by anyone.
	taken := "w9"
	started := &domain.Task{
		Status:     domain.TaskStatusInProgress,
		TakenBy:    &taken,
		Assignment: domain.AssignToDivision("div-1"),
	}
	assert.False(t, member.CanTake(started))
}

func TestUserCanEditAndReview(t *testing.T) {
	creator := &domain.User{ID: "m1", Role: domain.RoleManager}
	otherManager := &domain.User{ID: "m2", Role: domain.RoleManager}
	member := divisionMember("w1", "div-1")

	task := &domain.Task{
		Status:     domain.TaskStatusUnderReview,
		Assignment: domain.AssignToDivision("div-1"),
		CreatedBy:  "m1",
	}

	assert.True(t, creator.CanEditTask(task))
	assert.False(t, otherManager.CanEditTask(task))
	assert.False(t, member.CanEditTask(task))

	assert.True(t, creator.CanReview(task))
	assert.False(t, otherManager.CanReview(task))

	// Review is only meaningful while the task sits under review.
	task.Status = domain.TaskStatusInProgress
	assert.False(t, creator.CanReview(task))
}

func TestUserCanUpdateProgress(t *testing.T) {
	worker := divisionMember("w1", "div-1")
	bystander := divisionMember("w2", "div-1")

	workerID := "w1"
	task := &domain.Task{
		Status:     domain.TaskStatusInProgress,
		TakenBy:    &workerID,
		Assignment: domain.AssignToDivision("div-1"),
	}

	assert.True(t, worker.CanUpdateProgress(task))
	assert.False(t, bystander.CanUpdateProgress(task))
}
