package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/opsboard/teamtask/internal/domain"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pgUniqueViolation = "23505"

var divisionColumns = []string{"id", "name", "description", "created_at", "updated_at"}

// DivisionRepository handles database operations for divisions.
type DivisionRepository struct {
	pool *pgxpool.Pool
}

// NewDivisionRepository creates a new DivisionRepository.
func NewDivisionRepository(pool *pgxpool.Pool) *DivisionRepository {
	return &DivisionRepository{pool: pool}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func scanDivision(row pgx.Row) (*domain.Division, error) {
	var division domain.Division
	err := row.Scan(
		&division.ID,
		&division.Name,
		&division.Description,
		&division.CreatedAt,
		&division.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDivisionNotFound
		}
		return nil, fmt.Errorf("scan division: %w", err)
	}
	return &division, nil
}

// Create persists a new division and fills in ID and timestamps.
func (r *DivisionRepository) Create(ctx context.Context, division *domain.Division) (*domain.Division, error) {
	query, args, err := psql.
		Insert("divisions").
		Columns("name", "description").
		Values(division.Name, division.Description).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Create query for division: %w", err)
	}

	err = r.pool.QueryRow(ctx, query, args...).Scan(&division.ID, &division.CreatedAt, &division.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDivisionNameTaken
		}
		return nil, fmt.Errorf("create division: %w", err)
	}

	return division, nil
}

// GetByID retrieves a division by ID.
func (r *DivisionRepository) GetByID(ctx context.Context, divisionID string) (*domain.Division, error) {
	query, args, err := psql.
		Select(divisionColumns...).
		From("divisions").
		Where(sq.Eq{"id": divisionID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByID query for division: %w", err)
	}

	return scanDivision(r.pool.QueryRow(ctx, query, args...))
}

// List retrieves all divisions, newest first.
func (r *DivisionRepository) List(ctx context.Context) ([]*domain.Division, error) {
	query, args, err := psql.
		Select(divisionColumns...).
		From("divisions").
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build List query for divisions: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query divisions: %w", err)
	}
	defer rows.Close()

	var divisions []*domain.Division
	for rows.Next() {
		division, err := scanDivision(rows)
		if err != nil {
			return nil, err
		}
		divisions = append(divisions, division)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate division rows: %w", err)
	}

	return divisions, nil
}

// Update writes a division's name and description.
func (r *DivisionRepository) Update(ctx context.Context, division *domain.Division) error {
	query, args, err := psql.
		Update("divisions").
		Set("name", division.Name).
		Set("description", division.Description).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": division.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build Update query for division %s: %w", division.ID, err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDivisionNameTaken
		}
		return fmt.Errorf("update division: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrDivisionNotFound
	}

	return nil
}

// Delete removes a division. Tasks assigned to it go with it (FK cascade);
// member users are detached (division_id set to NULL).
func (r *DivisionRepository) Delete(ctx context.Context, divisionID string) error {
	query, args, err := psql.
		Delete("divisions").
		Where(sq.Eq{"id": divisionID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build Delete query for division %s: %w", divisionID, err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete division: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrDivisionNotFound
	}

	return nil
}

// Exists reports whether a division row with the given ID is present.
func (r *DivisionRepository) Exists(ctx context.Context, divisionID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM divisions WHERE id = $1)", divisionID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check division existence: %w", err)
	}
	return exists, nil
}

// CountMembers returns how many users belong to the division.
func (r *DivisionRepository) CountMembers(ctx context.Context, divisionID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM users WHERE division_id = $1", divisionID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count division members: %w", err)
	}
	return count, nil
}
