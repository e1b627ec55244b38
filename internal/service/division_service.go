package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/opsboard/teamtask/internal/domain"
	"github.com/opsboard/teamtask/internal/repository"
)

// DivisionParams carries the payload for division creation and updates.
type DivisionParams struct {
	Name        string
	Description *string
}

// DivisionService handles division CRUD. Divisions have no state machine;
// the only rule is that mutations are administrator-only.
type DivisionService struct {
	divisionRepo *repository.DivisionRepository
}

// NewDivisionService creates a new DivisionService.
func NewDivisionService(divisionRepo *repository.DivisionRepository) *DivisionService {
	return &DivisionService{divisionRepo: divisionRepo}
}

func validateDivisionParams(params DivisionParams) error {
	verr := &domain.ValidationError{}
	if strings.TrimSpace(params.Name) == "" {
		verr.Add("name", "division name is required")
	} else if len(params.Name) > 255 {
		verr.Add("name", "division name must be at most 255 characters")
	}
	return verr.ErrOrNil()
}

// CreateDivision creates a division. Administrator only; names are unique.
func (s *DivisionService) CreateDivision(
	ctx context.Context,
	actor *domain.User,
	params DivisionParams,
) (*domain.Division, error) {
	if !actor.CanCreateDivision() {
		return nil, fmt.Errorf("%w: only administrators may manage divisions", domain.ErrForbidden)
	}
	if err := validateDivisionParams(params); err != nil {
		return nil, err
	}

	division := &domain.Division{
		Name:        params.Name,
		Description: params.Description,
	}
	if _, err := s.divisionRepo.Create(ctx, division); err != nil {
		return nil, err
	}

	slog.Info("division created", "division_id", division.ID, "actor_id", actor.ID)
	return division, nil
}

// UpdateDivision renames or redescribes a division. Administrator only.
func (s *DivisionService) UpdateDivision(
	ctx context.Context,
	actor *domain.User,
	divisionID string,
	params DivisionParams,
) (*domain.Division, error) {
	if !actor.CanCreateDivision() {
		return nil, fmt.Errorf("%w: only administrators may manage divisions", domain.ErrForbidden)
	}
	if err := validateDivisionParams(params); err != nil {
		return nil, err
	}

	division, err := s.divisionRepo.GetByID(ctx, divisionID)
	if err != nil {
		return nil, err
	}

	division.Name = params.Name
	division.Description = params.Description
	if err := s.divisionRepo.Update(ctx, division); err != nil {
		return nil, err
	}

	slog.Info("division updated", "division_id", divisionID, "actor_id", actor.ID)
	return division, nil
}

// DeleteDivision removes a division. Administrator only. Tasks assigned to
// the division are removed with it; in-flight claims racing this delete
// resolve as conflicts when they re-check the target.
func (s *DivisionService) DeleteDivision(ctx context.Context, actor *domain.User, divisionID string) error {
	if !actor.CanCreateDivision() {
		return fmt.Errorf("%w: only administrators may manage divisions", domain.ErrForbidden)
	}

	if err := s.divisionRepo.Delete(ctx, divisionID); err != nil {
		return err
	}

	slog.Info("division deleted", "division_id", divisionID, "actor_id", actor.ID)
	return nil
}

// GetDivision returns a division with its member count. Any authenticated
// user may look divisions up.
func (s *DivisionService) GetDivision(
	ctx context.Context,
	divisionID string,
) (*domain.Division, int, error) {
	division, err := s.divisionRepo.GetByID(ctx, divisionID)
	if err != nil {
		return nil, 0, err
	}
	members, err := s.divisionRepo.CountMembers(ctx, divisionID)
	if err != nil {
		return nil, 0, err
	}
	return division, members, nil
}

// ListDivisions returns all divisions.
func (s *DivisionService) ListDivisions(ctx context.Context) ([]*domain.Division, error) {
	return s.divisionRepo.List(ctx)
}
