package service_test

import (
	"testing"
	"time"

	"github.com/opsboard/teamtask/internal/domain"
	"github.com/opsboard/teamtask/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func validCreateParams() service.CreateTaskParams {
	return service.CreateTaskParams{
		Name:                 "Prepare quarterly report",
		Description:          "Collect figures and draft the report",
		ImagePath:            "uploads/brief.png",
		DueDate:              now.Add(72 * time.Hour),
		Priority:             domain.TaskPriorityHigh,
		Assignment:           domain.AssignToDivision("div-1"),
		InitialTimeEstimates: domain.TimeEstimates{4, 8},
	}
}

func memberOf(id, divisionID string) *domain.User {
	return &domain.User{ID: id, Role: domain.RoleDivisionMember, DivisionID: &divisionID}
}

func TestValidateCreate_OK(t *testing.T) {
	v := service.NewValidator()
	assert.NoError(t, v.ValidateCreate(validCreateParams(), now))
}

func TestValidateCreate_CollectsFieldErrors(t *testing.T) {
	v := service.NewValidator()

	params := validCreateParams()
	params.Name = ""
	params.DueDate = now.Add(-time.Hour)
	params.InitialTimeEstimates = domain.TimeEstimates{5}

	err := v.ValidateCreate(params, now)
	require.Error(t, err)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "due_date")
	assert.Contains(t, verr.Fields, "initial_time_estimates")
	assert.NotContains(t, verr.Fields, "priority")
}

func TestValidateCreate_ImageRef(t *testing.T) {
	v := service.NewValidator()

	for _, ref := range []string{"", "/etc/passwd", "../../secret.png"} {
		params := validCreateParams()
		params.ImagePath = ref

		err := v.ValidateCreate(params, now)
		require.Error(t, err, "ref %q", ref)

		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "image_path")
	}
}

func TestValidateCreate_ZeroAssignment(t *testing.T) {
	v := service.NewValidator()

	params := validCreateParams()
	params.Assignment = domain.Assignment{}

	err := v.ValidateCreate(params, now)
	require.Error(t, err)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "assignment_type")
}

// A non-target caller must get a permission error even when the task is also
// no longer available; only an eligible-but-late caller sees the conflict.
func TestCanTake_ForbiddenBeforeNotAvailable(t *testing.T) {
	v := service.NewValidator()

	takenBy := "w1"
	task := &domain.Task{
		ID:         "t1",
		Status:     domain.TaskStatusInProgress,
		TakenBy:    &takenBy,
		Assignment: domain.AssignToDivision("div-1"),
	}

	outsider := memberOf("w2", "div-2")
	assert.ErrorIs(t, v.CanTake(task, outsider), domain.ErrForbidden)

	lateMember := memberOf("w3", "div-1")
	assert.ErrorIs(t, v.CanTake(task, lateMember), domain.ErrTaskNotAvailable)
}

func TestCanTake_UserTarget(t *testing.T) {
	v := service.NewValidator()

	task := &domain.Task{
		ID:         "t1",
		Status:     domain.TaskStatusNotStarted,
		Assignment: domain.AssignToUser("u1"),
	}

	target := &domain.User{ID: "u1", Role: domain.RoleIndividualUser}
	assert.NoError(t, v.CanTake(task, target))

	other := &domain.User{ID: "u2", Role: domain.RoleIndividualUser}
	assert.ErrorIs(t, v.CanTake(task, other), domain.ErrForbidden)
}

func workedTask(workerID string) *domain.Task {
	return &domain.Task{
		ID:         "t1",
		Status:     domain.TaskStatusInProgress,
		TakenBy:    &workerID,
		Assignment: domain.AssignToDivision("div-1"),
		CreatedBy:  "m1",
	}
}

func TestValidateWorkerPatch_OnlyWorker(t *testing.T) {
	v := service.NewValidator()
	task := workedTask("w1")

	bystander := memberOf("w2", "div-1")
	err := v.ValidateWorkerPatch(task, bystander, service.WorkerPatch{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestValidateWorkerPatch_FieldChecks(t *testing.T) {
	v := service.NewValidator()
	task := workedTask("w1")
	worker := memberOf("w1", "div-1")

	badEstimate := 0
	badItems := -1
	badImage := "/abs/path.png"

	err := v.ValidateWorkerPatch(task, worker, service.WorkerPatch{
		CurrentTimeEstimate: &badEstimate,
		ItemsCompleted:      &badItems,
		WorkResultImage:     &badImage,
	})
	require.Error(t, err)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "current_time_estimate")
	assert.Contains(t, verr.Fields, "items_completed")
	assert.Contains(t, verr.Fields, "work_result_image")
}

func TestValidateWorkerPatch_SubmitRequiresImage(t *testing.T) {
	v := service.NewValidator()
	task := workedTask("w1")
	worker := memberOf("w1", "div-1")

	underReview := domain.TaskStatusUnderReview
	err := v.ValidateWorkerPatch(task, worker, service.WorkerPatch{Status: &underReview})
	require.Error(t, err)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "work_result_image")

	// Attaching the image in the same patch satisfies the requirement.
	image := "uploads/result.png"
	err = v.ValidateWorkerPatch(task, worker, service.WorkerPatch{
		Status:          &underReview,
		WorkResultImage: &image,
	})
	assert.NoError(t, err)
}

func TestValidateWorkerPatch_IllegalTargets(t *testing.T) {
	v := service.NewValidator()
	task := workedTask("w1")
	worker := memberOf("w1", "div-1")

	for _, target := range []domain.TaskStatus{
		domain.TaskStatusNotStarted,
		domain.TaskStatusAccepted,
		domain.TaskStatusCompleted,
	} {
		status := target
		err := v.ValidateWorkerPatch(task, worker, service.WorkerPatch{Status: &status})
		assert.ErrorIs(t, err, domain.ErrIllegalTransition, "target %s", target)
	}
}

func TestValidateWorkerPatch_OnlyFromInProgress(t *testing.T) {
	v := service.NewValidator()
	task := workedTask("w1")
	task.Status = domain.TaskStatusUnderReview
	image := "uploads/result.png"
	task.WorkResultImage = &image
	worker := memberOf("w1", "div-1")

	underReview := domain.TaskStatusUnderReview
	err := v.ValidateWorkerPatch(task, worker, service.WorkerPatch{Status: &underReview})
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
}

func TestValidateManagerPatch_OnlyCreator(t *testing.T) {
	v := service.NewValidator()
	task := workedTask("w1")

	otherManager := &domain.User{ID: "m2", Role: domain.RoleManager}
	err := v.ValidateManagerPatch(task, otherManager, service.ManagerPatch{}, now)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	worker := memberOf("w1", "div-1")
	err = v.ValidateManagerPatch(task, worker, service.ManagerPatch{}, now)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestValidateManagerPatch_ReviewEdges(t *testing.T) {
	v := service.NewValidator()
	creator := &domain.User{ID: "m1", Role: domain.RoleManager}

	task := workedTask("w1")
	task.Status = domain.TaskStatusUnderReview
	image := "uploads/result.png"
	task.WorkResultImage = &image

	accepted := domain.TaskStatusAccepted
	assert.NoError(t, v.ValidateManagerPatch(task, creator, service.ManagerPatch{Status: &accepted}, now))

	// Send back for rework.
	inProgress := domain.TaskStatusInProgress
	assert.NoError(t, v.ValidateManagerPatch(task, creator, service.ManagerPatch{Status: &inProgress}, now))

	// Skipping review straight to completed is off the edge table.
	completed := domain.TaskStatusCompleted
	err := v.ValidateManagerPatch(task, creator, service.ManagerPatch{Status: &completed}, now)
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
}

func TestValidateManagerPatch_FinalizeAndTerminal(t *testing.T) {
	v := service.NewValidator()
	creator := &domain.User{ID: "m1", Role: domain.RoleManager}

	task := workedTask("w1")
	task.Status = domain.TaskStatusAccepted

	completed := domain.TaskStatusCompleted
	assert.NoError(t, v.ValidateManagerPatch(task, creator, service.ManagerPatch{Status: &completed}, now))

	task.Status = domain.TaskStatusCompleted
	notStarted := domain.TaskStatusNotStarted
	err := v.ValidateManagerPatch(task, creator, service.ManagerPatch{Status: &notStarted}, now)
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
}

// The creator cannot push a worked task into review on the worker's behalf.
func TestValidateManagerPatch_SubmitBelongsToWorker(t *testing.T) {
	v := service.NewValidator()
	creator := &domain.User{ID: "m1", Role: domain.RoleManager}

	task := workedTask("w1")
	underReview := domain.TaskStatusUnderReview
	err := v.ValidateManagerPatch(task, creator, service.ManagerPatch{Status: &underReview}, now)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestValidateManagerPatch_UnchangedStatusIsNoOp(t *testing.T) {
	v := service.NewValidator()
	creator := &domain.User{ID: "m1", Role: domain.RoleManager}

	task := workedTask("w1")
	inProgress := domain.TaskStatusInProgress
	name := "Renamed task"
	assert.NoError(t, v.ValidateManagerPatch(task, creator, service.ManagerPatch{
		Name:   &name,
		Status: &inProgress,
	}, now))
}

func TestValidateManagerPatch_FieldChecks(t *testing.T) {
	v := service.NewValidator()
	creator := &domain.User{ID: "m1", Role: domain.RoleManager}
	task := workedTask("w1")

	empty := "  "
	pastDue := now.Add(-time.Hour)
	err := v.ValidateManagerPatch(task, creator, service.ManagerPatch{
		Name:    &empty,
		DueDate: &pastDue,
	}, now)
	require.Error(t, err)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "due_date")
}
