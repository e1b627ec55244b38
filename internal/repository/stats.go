package repository

import (
	"context"
	"fmt"
)

// ScopeStatsResult holds task statistics for one actor's visible scope.
type ScopeStatsResult struct {
	Total         int
	TasksByStatus map[string]int
	OverdueCount  int
}

// GetScopeStats computes status counts and the overdue count over the tasks
// visible in the given scope.
func (r *TaskRepository) GetScopeStats(ctx context.Context, scope TaskScope) (*ScopeStatsResult, error) {
	qb := psql.Select("status", "COUNT(*)").From("tasks")
	qb = applyScope(qb, scope)
	qb = qb.GroupBy("status")

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build stats query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks by status: %w", err)
	}
	defer rows.Close()

	result := &ScopeStatsResult{TasksByStatus: make(map[string]int)}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		result.TasksByStatus[status] = count
		result.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status rows: %w", err)
	}

	overdueQb := psql.Select("COUNT(*)").From("tasks")
	overdueQb = applyScope(overdueQb, scope)
	overdueQb = overdueQb.
		Where("due_date < NOW()").
		Where("status NOT IN ('accepted', 'completed')")

	overdueQuery, overdueArgs, err := overdueQb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build overdue query: %w", err)
	}

	if err := r.pool.QueryRow(ctx, overdueQuery, overdueArgs...).Scan(&result.OverdueCount); err != nil {
		return nil, fmt.Errorf("count overdue tasks: %w", err)
	}

	return result, nil
}
