package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/opsboard/teamtask/internal/domain"
	"github.com/opsboard/teamtask/internal/repository"
)

// ImageReleaser is the image-storage collaborator. The engine only records
// references; when a reference becomes unreachable the collaborator is told
// to dispose of the underlying object.
type ImageReleaser interface {
	Release(ctx context.Context, ref string) error
}

// TaskService coordinates task operations and state transitions.
type TaskService struct {
	pool         *pgxpool.Pool
	taskRepo     *repository.TaskRepository
	eventRepo    *repository.TaskEventRepository
	userRepo     *repository.UserRepository
	divisionRepo *repository.DivisionRepository
	images       ImageReleaser
	validator    *Validator
}

// NewTaskService creates a new TaskService.
func NewTaskService(
	pool *pgxpool.Pool,
	taskRepo *repository.TaskRepository,
	eventRepo *repository.TaskEventRepository,
	userRepo *repository.UserRepository,
	divisionRepo *repository.DivisionRepository,
	images ImageReleaser,
) *TaskService {
	return &TaskService{
		pool:         pool,
		taskRepo:     taskRepo,
		eventRepo:    eventRepo,
		userRepo:     userRepo,
		divisionRepo: divisionRepo,
		images:       images,
		validator:    NewValidator(),
	}
}

// rollback releases the transaction, tolerating an already-committed one.
func rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && err.Error() != "tx is closed" {
		slog.Error("failed to rollback transaction", "error", err)
	}
}

// createEventAndCommit persists a task event within the transaction, then commits.
func (s *TaskService) createEventAndCommit(ctx context.Context, tx pgx.Tx, event *domain.TaskEvent) error {
	if err := s.eventRepo.Create(ctx, tx, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// checkTargetExists verifies the assignment target still exists. A vanished
// target means the task is orphaned: readable, but a dead end for claims and
// an invalid choice on creation.
func (s *TaskService) checkTargetExists(ctx context.Context, assignment domain.Assignment) error {
	if divisionID, ok := assignment.DivisionID(); ok {
		exists, err := s.divisionRepo.Exists(ctx, divisionID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: division %s", domain.ErrTargetGone, divisionID)
		}
		return nil
	}
	if userID, ok := assignment.UserID(); ok {
		exists, err := s.userRepo.Exists(ctx, userID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: user %s", domain.ErrTargetGone, userID)
		}
	}
	return nil
}

// CreateTask authors a new task in the not_started stage.
func (s *TaskService) CreateTask(
	ctx context.Context,
	actor *domain.User,
	params CreateTaskParams,
) (*domain.Task, error) {
	if !actor.CanCreateTask() {
		return nil, fmt.Errorf("%w: only managers may create tasks", domain.ErrForbidden)
	}

	if err := s.validator.ValidateCreate(params, time.Now()); err != nil {
		return nil, err
	}

	if err := s.checkTargetExists(ctx, params.Assignment); err != nil {
		return nil, err
	}

	task := &domain.Task{
		Name:                 params.Name,
		Description:          params.Description,
		ImagePath:            params.ImagePath,
		DueDate:              params.DueDate,
		Priority:             params.Priority,
		Status:               domain.TaskStatusNotStarted,
		Assignment:           params.Assignment,
		CreatedBy:            actor.ID,
		InitialTimeEstimates: params.InitialTimeEstimates,
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	if _, err := s.taskRepo.Create(ctx, tx, task); err != nil {
		return nil, err
	}

	newStatus := task.Status
	event := &domain.TaskEvent{
		TaskID:    task.ID,
		ActorID:   actor.ID,
		Type:      domain.EventTypeCreated,
		NewStatus: &newStatus,
	}

	if err := s.createEventAndCommit(ctx, tx, event); err != nil {
		return nil, err
	}

	slog.Info("task created",
		"task_id", task.ID,
		"created_by", actor.ID,
		"assignment_type", task.Assignment.Type(),
	)

	return task, nil
}

// TakeTask claims a waiting task for the actor. At most one claim ever
// succeeds per task: the row is locked and the write is guarded on the
// not_started state, so a concurrent loser gets ErrTaskNotAvailable.
func (s *TaskService) TakeTask(ctx context.Context, actor *domain.User, taskID string) (*domain.Task, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	task, err := s.taskRepo.GetByIDForUpdate(ctx, tx, taskID)
	if err != nil {
		return nil, err
	}

	// Orphan check first: a vanished target is a conflict for everyone, not a
	// permission problem for this particular actor.
	if err := s.checkTargetExists(ctx, task.Assignment); err != nil {
		return nil, err
	}

	if err := s.validator.CanTake(task, actor); err != nil {
		return nil, err
	}

	if err := s.taskRepo.Take(ctx, tx, taskID, actor.ID); err != nil {
		return nil, err
	}

	oldStatus := task.Status
	newStatus := domain.TaskStatusInProgress
	event := &domain.TaskEvent{
		TaskID:    taskID,
		ActorID:   actor.ID,
		Type:      domain.EventTypeTaken,
		OldStatus: &oldStatus,
		NewStatus: &newStatus,
	}

	if err := s.createEventAndCommit(ctx, tx, event); err != nil {
		return nil, err
	}

	task.Status = newStatus
	takerID := actor.ID
	task.TakenBy = &takerID

	slog.Info("task taken",
		"task_id", taskID,
		"taken_by", actor.ID,
	)

	return task, nil
}

// UpdateProgress applies a worker patch: revised estimate, items completed,
// work result image, and optionally submission for review.
func (s *TaskService) UpdateProgress(
	ctx context.Context,
	actor *domain.User,
	taskID string,
	patch WorkerPatch,
) (*domain.Task, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	task, err := s.taskRepo.GetByIDForUpdate(ctx, tx, taskID)
	if err != nil {
		return nil, err
	}

	if err := s.validator.ValidateWorkerPatch(task, actor, patch); err != nil {
		return nil, err
	}

	oldStatus := task.Status
	var replacedImage *string

	if patch.CurrentTimeEstimate != nil {
		task.CurrentTimeEstimate = patch.CurrentTimeEstimate
	}
	if patch.ItemsCompleted != nil {
		task.ItemsCompleted = *patch.ItemsCompleted
	}
	if patch.WorkResultImage != nil {
		replacedImage = task.WorkResultImage
		task.WorkResultImage = patch.WorkResultImage
	}
	if patch.Status != nil {
		task.Status = *patch.Status
	}

	if err := s.taskRepo.Update(ctx, tx, task, oldStatus); err != nil {
		return nil, err
	}

	eventType := domain.EventTypeProgressUpdated
	var eventOld, eventNew *domain.TaskStatus
	if task.Status != oldStatus {
		eventType = domain.EventTypeStatusChanged
		eventOld, eventNew = &oldStatus, &task.Status
	}
	event := &domain.TaskEvent{
		TaskID:    taskID,
		ActorID:   actor.ID,
		Type:      eventType,
		OldStatus: eventOld,
		NewStatus: eventNew,
	}

	if err := s.createEventAndCommit(ctx, tx, event); err != nil {
		return nil, err
	}

	// The old work result is unreachable once the commit lands; tell the
	// image store to dispose of it.
	if replacedImage != nil {
		s.releaseImage(ctx, *replacedImage)
	}

	slog.Info("task progress updated",
		"task_id", taskID,
		"actor_id", actor.ID,
		"status", task.Status,
	)

	return task, nil
}

// ManagerUpdate applies a creator-manager patch to task metadata and,
// optionally, a legal status transition.
func (s *TaskService) ManagerUpdate(
	ctx context.Context,
	actor *domain.User,
	taskID string,
	patch ManagerPatch,
) (*domain.Task, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	task, err := s.taskRepo.GetByIDForUpdate(ctx, tx, taskID)
	if err != nil {
		return nil, err
	}

	if err := s.validator.ValidateManagerPatch(task, actor, patch, time.Now()); err != nil {
		return nil, err
	}

	oldStatus := task.Status

	if patch.Name != nil {
		task.Name = *patch.Name
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.DueDate != nil {
		task.DueDate = *patch.DueDate
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.Status != nil {
		task.Status = *patch.Status
		// The claim edge records who started executing; every other edge
		// leaves the worker untouched.
		if oldStatus == domain.TaskStatusNotStarted && task.Status == domain.TaskStatusInProgress {
			takerID := actor.ID
			task.TakenBy = &takerID
		}
	}

	if err := s.taskRepo.Update(ctx, tx, task, oldStatus); err != nil {
		return nil, err
	}

	eventType := domain.EventTypeProgressUpdated
	var eventOld, eventNew *domain.TaskStatus
	if task.Status != oldStatus {
		eventType = domain.EventTypeStatusChanged
		eventOld, eventNew = &oldStatus, &task.Status
	}
	event := &domain.TaskEvent{
		TaskID:    taskID,
		ActorID:   actor.ID,
		Type:      eventType,
		OldStatus: eventOld,
		NewStatus: eventNew,
	}

	if err := s.createEventAndCommit(ctx, tx, event); err != nil {
		return nil, err
	}

	slog.Info("task updated by manager",
		"task_id", taskID,
		"actor_id", actor.ID,
		"old_status", oldStatus,
		"new_status", task.Status,
	)

	return task, nil
}

// DeleteTask removes a task in any status and signals the image store to
// release both image references.
func (s *TaskService) DeleteTask(ctx context.Context, actor *domain.User, taskID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	task, err := s.taskRepo.GetByIDForUpdate(ctx, tx, taskID)
	if err != nil {
		return err
	}

	if !actor.CanEditTask(task) {
		return fmt.Errorf("%w: user %s did not create task %s", domain.ErrForbidden, actor.ID, taskID)
	}

	if err := s.taskRepo.Delete(ctx, tx, taskID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	s.releaseImage(ctx, task.ImagePath)
	if task.WorkResultImage != nil {
		s.releaseImage(ctx, *task.WorkResultImage)
	}

	slog.Info("task deleted",
		"task_id", taskID,
		"actor_id", actor.ID,
	)

	return nil
}

// GetTask returns a task with its audit trail, if the actor may see it:
// the creator, the assignment target, or the current worker.
func (s *TaskService) GetTask(
	ctx context.Context,
	actor *domain.User,
	taskID string,
) (*domain.Task, []*domain.TaskEvent, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}

	if !canView(actor, task) {
		return nil, nil, fmt.Errorf("%w: task %s is not visible to user %s", domain.ErrForbidden, taskID, actor.ID)
	}

	events, err := s.eventRepo.GetByTaskID(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}

	return task, events, nil
}

// canView mirrors the listing scopes for a single task.
func canView(actor *domain.User, task *domain.Task) bool {
	if task.IsCreatedBy(actor.ID) || task.IsTakenBy(actor.ID) {
		return true
	}
	if divisionID, ok := task.Assignment.DivisionID(); ok {
		return actor.MemberOf(divisionID)
	}
	if userID, ok := task.Assignment.UserID(); ok {
		return actor.ID == userID
	}
	return false
}

// scopeFor computes the listing scope for an actor. Managers see what they
// created; division members see their division's pool; everyone else,
// administrators included, sees only tasks targeted directly at them.
func scopeFor(actor *domain.User) repository.TaskScope {
	switch {
	case actor.IsManager():
		return repository.TaskScope{CreatedBy: &actor.ID}
	case actor.IsDivisionMember() && actor.DivisionID != nil:
		return repository.TaskScope{AssignedDivisionID: actor.DivisionID}
	default:
		return repository.TaskScope{AssignedUserID: &actor.ID}
	}
}

// ListTasks returns the actor's visible tasks with optional filters.
func (s *TaskService) ListTasks(
	ctx context.Context,
	actor *domain.User,
	filters repository.TaskListFilters,
) ([]*domain.Task, int, error) {
	return s.taskRepo.List(ctx, scopeFor(actor), filters)
}

// GetStats returns status counts over the actor's visible scope.
func (s *TaskService) GetStats(ctx context.Context, actor *domain.User) (*repository.ScopeStatsResult, error) {
	return s.taskRepo.GetScopeStats(ctx, scopeFor(actor))
}

// releaseImage tells the image store an image reference is no longer
// reachable. Disposal failures are logged, not surfaced: the task mutation
// already committed.
func (s *TaskService) releaseImage(ctx context.Context, ref string) {
	if s.images == nil || ref == "" {
		return
	}
	if err := s.images.Release(ctx, ref); err != nil {
		slog.Error("failed to release image reference", "ref", ref, "error", err)
	}
}
