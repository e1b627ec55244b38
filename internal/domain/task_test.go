package domain_test

import (
	"testing"
	"time"

	"github.com/opsboard/teamtask/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskStatusCanAdvanceTo(t *testing.T) {
	all := []domain.TaskStatus{
		domain.TaskStatusNotStarted,
		domain.TaskStatusInProgress,
		domain.TaskStatusUnderReview,
		domain.TaskStatusAccepted,
		domain.TaskStatusCompleted,
	}

	legal := map[domain.TaskStatus][]domain.TaskStatus{
		domain.TaskStatusNotStarted:  {domain.TaskStatusInProgress},
		domain.TaskStatusInProgress:  {domain.TaskStatusInProgress, domain.TaskStatusUnderReview},
		domain.TaskStatusUnderReview: {domain.TaskStatusAccepted, domain.TaskStatusInProgress},
		domain.TaskStatusAccepted:    {domain.TaskStatusCompleted},
		domain.TaskStatusCompleted:   {},
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, edge := range legal[from] {
				if edge == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanAdvanceTo(to), "%s -> %s", from, to)
		}
	}
}

func TestTaskStatusPredicates(t *testing.T) {
	assert.True(t, domain.TaskStatusNotStarted.IsValid())
	assert.False(t, domain.TaskStatus("done").IsValid())

	assert.True(t, domain.TaskStatusCompleted.IsTerminal())
	assert.False(t, domain.TaskStatusAccepted.IsTerminal())

	assert.True(t, domain.TaskStatusUnderReview.IsOpen())
	assert.False(t, domain.TaskStatusAccepted.IsOpen())
	assert.False(t, domain.TaskStatusCompleted.IsOpen())
}

func TestAssignment(t *testing.T) {
	var zero domain.Assignment
	assert.True(t, zero.IsZero())

	byDivision := domain.AssignToDivision("div-1")
	assert.False(t, byDivision.IsZero())
	assert.Equal(t, domain.AssignmentTypeDivision, byDivision.Type())
	divisionID, ok := byDivision.DivisionID()
	require.True(t, ok)
	assert.Equal(t, "div-1", divisionID)
	_, ok = byDivision.UserID()
	assert.False(t, ok)

	byUser := domain.AssignToUser("user-1")
	assert.Equal(t, domain.AssignmentTypeUser, byUser.Type())
	userID, ok := byUser.UserID()
	require.True(t, ok)
	assert.Equal(t, "user-1", userID)
	_, ok = byUser.DivisionID()
	assert.False(t, ok)
}

func TestTimeEstimatesValidate(t *testing.T) {
	assert.NoError(t, domain.TimeEstimates{2, 4}.Validate())
	assert.NoError(t, domain.TimeEstimates{1, 2, 3}.Validate())

	assert.Error(t, domain.TimeEstimates{}.Validate())
	assert.Error(t, domain.TimeEstimates{5}.Validate())
	assert.Error(t, domain.TimeEstimates{1, 2, 3, 4}.Validate())
	assert.Error(t, domain.TimeEstimates{2, 0}.Validate())
}

func TestTaskIsAvailable(t *testing.T) {
	taker := "user-1"

	waiting := &domain.Task{Status: domain.TaskStatusNotStarted}
	assert.True(t, waiting.IsAvailable())

	taken := &domain.Task{Status: domain.TaskStatusInProgress, TakenBy: &taker}
	assert.False(t, taken.IsAvailable())
}

func TestTaskIsOverdue(t *testing.T) {
	now := time.Now()
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	overdue := &domain.Task{Status: domain.TaskStatusInProgress, DueDate: past}
	assert.True(t, overdue.IsOverdue(now))

	onTime := &domain.Task{Status: domain.TaskStatusInProgress, DueDate: future}
	assert.False(t, onTime.IsOverdue(now))

	// A closed task is never overdue, however late it finished.
	accepted := &domain.Task{Status: domain.TaskStatusAccepted, DueDate: past}
	assert.False(t, accepted.IsOverdue(now))

	completed := &domain.Task{Status: domain.TaskStatusCompleted, DueDate: past}
	assert.False(t, completed.IsOverdue(now))
}

func TestValidationError(t *testing.T) {
	verr := &domain.ValidationError{}
	assert.True(t, verr.Empty())
	assert.NoError(t, verr.ErrOrNil())

	verr.Add("name", "is required").Add("due_date", "must be in the future")
	assert.False(t, verr.Empty())
	require.Error(t, verr.ErrOrNil())
	assert.Equal(t, "validation failed: due_date: must be in the future; name: is required", verr.Error())
}
