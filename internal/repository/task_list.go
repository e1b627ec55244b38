package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/opsboard/teamtask/internal/domain"
)

// TaskScope restricts a listing to the tasks an actor is allowed to see.
// Exactly one field is set; which one depends on the actor's role.
type TaskScope struct {
	CreatedBy          *string // managers: tasks they authored
	AssignedDivisionID *string // division members: their division's tasks
	AssignedUserID     *string // individual users: tasks targeted at them
}

// TaskListFilters holds the optional filters for task listing.
type TaskListFilters struct {
	Statuses   []string
	Priorities []string
	Limit      int
	Offset     int
}

// applyScope adds the visibility predicate for the scope.
func applyScope(qb sq.SelectBuilder, scope TaskScope) sq.SelectBuilder {
	switch {
	case scope.CreatedBy != nil:
		return qb.Where(sq.Eq{"created_by": *scope.CreatedBy})
	case scope.AssignedDivisionID != nil:
		return qb.Where(sq.Eq{
			"assignment_type":      domain.AssignmentTypeDivision,
			"assigned_division_id": *scope.AssignedDivisionID,
		})
	case scope.AssignedUserID != nil:
		return qb.Where(sq.Eq{
			"assignment_type":  domain.AssignmentTypeUser,
			"assigned_user_id": *scope.AssignedUserID,
		})
	default:
		// Unscoped listings are never served.
		return qb.Where("FALSE")
	}
}

// applyFilters adds the optional status/priority predicates.
func applyFilters(qb sq.SelectBuilder, filters TaskListFilters) sq.SelectBuilder {
	if len(filters.Statuses) > 0 {
		qb = qb.Where(sq.Eq{"status": filters.Statuses})
	}
	if len(filters.Priorities) > 0 {
		qb = qb.Where(sq.Eq{"priority": filters.Priorities})
	}
	return qb
}

// List retrieves the tasks visible in the scope, most urgent first, with
// pagination. Returns the page and the total match count.
func (r *TaskRepository) List(
	ctx context.Context,
	scope TaskScope,
	filters TaskListFilters,
) ([]*domain.Task, int, error) {
	qb := psql.Select(taskColumns...).From("tasks")
	qb = applyScope(qb, scope)
	qb = applyFilters(qb, filters)

	qb = qb.
		OrderBy("CASE priority WHEN 'urgent' THEN 1 WHEN 'high' THEN 2 WHEN 'medium' THEN 3 WHEN 'low' THEN 4 END ASC").
		OrderBy("due_date ASC").
		OrderBy("created_at ASC").
		Offset(uint64(filters.Offset))
	if filters.Limit > 0 {
		qb = qb.Limit(uint64(filters.Limit))
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build List query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query tasks: %w", err)
	}

	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, 0, err
	}

	countQb := psql.Select("COUNT(*)").From("tasks")
	countQb = applyScope(countQb, scope)
	countQb = applyFilters(countQb, filters)

	countQuery, countArgs, err := countQb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	return tasks, total, nil
}
