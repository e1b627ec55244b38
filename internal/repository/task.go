package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/opsboard/teamtask/internal/domain"
)

// taskColumns is the shared list of columns for task queries.
var taskColumns = []string{
	"id", "name", "description", "image_path", "due_date", "priority", "status",
	"assignment_type", "assigned_division_id", "assigned_user_id",
	"created_by", "taken_by", "initial_time_estimates", "current_time_estimate",
	"items_completed", "work_result_image", "created_at", "updated_at",
}

// TaskRepository handles database operations for tasks.
type TaskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

// assignmentColumns splits an Assignment into the discriminator plus the two
// nullable target columns it is persisted as.
func assignmentColumns(a domain.Assignment) (kind domain.AssignmentType, divisionID, userID *string) {
	kind = a.Type()
	if id, ok := a.DivisionID(); ok {
		divisionID = &id
	}
	if id, ok := a.UserID(); ok {
		userID = &id
	}
	return kind, divisionID, userID
}

// assignmentFrom rebuilds the Assignment sum type from its persisted columns.
func assignmentFrom(kind domain.AssignmentType, divisionID, userID *string) (domain.Assignment, error) {
	switch kind {
	case domain.AssignmentTypeDivision:
		if divisionID == nil || userID != nil {
			return domain.Assignment{}, fmt.Errorf("inconsistent division assignment row")
		}
		return domain.AssignToDivision(*divisionID), nil
	case domain.AssignmentTypeUser:
		if userID == nil || divisionID != nil {
			return domain.Assignment{}, fmt.Errorf("inconsistent user assignment row")
		}
		return domain.AssignToUser(*userID), nil
	default:
		return domain.Assignment{}, fmt.Errorf("unknown assignment type %q", kind)
	}
}

// scanTask scans a single row into a Task struct.
func scanTask(row pgx.Row) (*domain.Task, error) {
	var (
		task          domain.Task
		kind          domain.AssignmentType
		divisionID    *string
		userID        *string
		estimatesJSON []byte
	)
	err := row.Scan(
		&task.ID,
		&task.Name,
		&task.Description,
		&task.ImagePath,
		&task.DueDate,
		&task.Priority,
		&task.Status,
		&kind,
		&divisionID,
		&userID,
		&task.CreatedBy,
		&task.TakenBy,
		&estimatesJSON,
		&task.CurrentTimeEstimate,
		&task.ItemsCompleted,
		&task.WorkResultImage,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}

	task.Assignment, err = assignmentFrom(kind, divisionID, userID)
	if err != nil {
		return nil, fmt.Errorf("task %s: %w", task.ID, err)
	}
	if err := json.Unmarshal(estimatesJSON, &task.InitialTimeEstimates); err != nil {
		return nil, fmt.Errorf("parse initial_time_estimates for task %s: %w", task.ID, err)
	}

	return &task, nil
}

// scanTasks scans multiple rows into a slice of Task structs.
func scanTasks(rows pgx.Rows) ([]*domain.Task, error) {
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return tasks, nil
}

// GetByID retrieves a task by ID.
func (r *TaskRepository) GetByID(ctx context.Context, taskID string) (*domain.Task, error) {
	query, args, err := psql.
		Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"id": taskID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByID query for task: %w", err)
	}

	return scanTask(r.pool.QueryRow(ctx, query, args...))
}

// GetByIDForUpdate retrieves a task by ID with FOR UPDATE lock (within transaction).
func (r *TaskRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, taskID string) (*domain.Task, error) {
	query, args, err := psql.
		Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"id": taskID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByIDForUpdate query for task %s: %w", taskID, err)
	}

	return scanTask(tx.QueryRow(ctx, query, args...))
}

// Create persists a new task within a transaction and fills in ID, CreatedAt
// and UpdatedAt.
func (r *TaskRepository) Create(ctx context.Context, tx pgx.Tx, task *domain.Task) (*domain.Task, error) {
	estimatesJSON, err := json.Marshal(task.InitialTimeEstimates)
	if err != nil {
		return nil, fmt.Errorf("encode initial_time_estimates: %w", err)
	}

	kind, divisionID, userID := assignmentColumns(task.Assignment)

	query, args, err := psql.
		Insert("tasks").
		Columns(
			"name", "description", "image_path", "due_date", "priority", "status",
			"assignment_type", "assigned_division_id", "assigned_user_id",
			"created_by", "taken_by", "initial_time_estimates",
			"current_time_estimate", "items_completed", "work_result_image",
		).
		Values(
			task.Name,
			task.Description,
			task.ImagePath,
			task.DueDate,
			task.Priority,
			task.Status,
			kind,
			divisionID,
			userID,
			task.CreatedBy,
			task.TakenBy,
			estimatesJSON,
			task.CurrentTimeEstimate,
			task.ItemsCompleted,
			task.WorkResultImage,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Create query for task: %w", err)
	}

	err = tx.QueryRow(ctx, query, args...).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	return task, nil
}

// Take claims a waiting task for the given user with a conditional write.
// Returns ErrTaskNotAvailable when the row is no longer claimable, which is
// how the loser of a concurrent claim is told apart.
func (r *TaskRepository) Take(ctx context.Context, tx pgx.Tx, taskID, userID string) error {
	query, args, err := psql.
		Update("tasks").
		Set("status", domain.TaskStatusInProgress).
		Set("taken_by", userID).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{
			"id":       taskID,
			"status":   domain.TaskStatusNotStarted,
			"taken_by": nil,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build Take query for task %s: %w", taskID, err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("take task: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotAvailable
	}

	return nil
}

// Update writes the task's mutable fields, guarded on the status the caller
// read. A zero row count means the row moved underneath us and nothing
// changed.
func (r *TaskRepository) Update(
	ctx context.Context,
	tx pgx.Tx,
	task *domain.Task,
	expectedStatus domain.TaskStatus,
) error {
	query, args, err := psql.
		Update("tasks").
		Set("name", task.Name).
		Set("description", task.Description).
		Set("due_date", task.DueDate).
		Set("priority", task.Priority).
		Set("status", task.Status).
		Set("taken_by", task.TakenBy).
		Set("current_time_estimate", task.CurrentTimeEstimate).
		Set("items_completed", task.ItemsCompleted).
		Set("work_result_image", task.WorkResultImage).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{
			"id":     task.ID,
			"status": expectedStatus,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build Update query for task %s: %w", task.ID, err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotAvailable
	}

	return nil
}

// Delete removes a task row.
func (r *TaskRepository) Delete(ctx context.Context, tx pgx.Tx, taskID string) error {
	query, args, err := psql.
		Delete("tasks").
		Where(sq.Eq{"id": taskID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build Delete query for task %s: %w", taskID, err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}

	return nil
}
