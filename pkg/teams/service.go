package teams

import (
	"context"
	"errors"

	"github.com/platinummonkey/staffing/pkg/apperrors"
	"github.com/platinummonkey/staffing/pkg/auth"
	"github.com/platinummonkey/staffing/pkg/query"
	"github.com/platinummonkey/staffing/pkg/validation"
)

// Store is the persistence the team service needs
type Store interface {
	Create(ctx context.Context, caller int64, nom string) (*Team, error)
	Rename(ctx context.Context, caller, id int64, set *query.Set) (*Team, error)
	Delete(ctx context.Context, caller int64, ids []int64) (int64, error)
	List(ctx context.Context, caller int64) ([]Team, error)
	Members(ctx context.Context, caller int64) ([]Member, error)
	SetTeam(ctx context.Context, caller int64, staffIDs []int64, team int64) (int64, error)
}

// Service scopes team operations to the caller's tenant
type Service struct {
	store Store
}

// NewService creates a team service
func NewService(store Store) *Service {
	return &Service{store: store}
}

func classify(err error, message string) error {
	var appErr *apperrors.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, ErrAccountNotFound):
		return apperrors.NotFound("Account not found")
	case errors.Is(err, ErrNoTenant):
		return apperrors.Validation("Entreprise ID not found for this account", nil)
	case errors.Is(err, ErrTeamNotFound):
		return apperrors.NotFound("Team not found")
	case errors.Is(err, ErrNoStaffMoved):
		return apperrors.NotFound("no staff were added")
	case errors.Is(err, query.ErrNoChanges):
		return apperrors.Validation("missing data", nil)
	}
	return apperrors.Store(message, err)
}

func invalid(v *validation.Result) error {
	if v.Valid() {
		return nil
	}
	return apperrors.Validation("missing data", v.Errors)
}

// Add creates a team under the caller's tenant
func (s *Service) Add(ctx context.Context, caller auth.Identity, req AddRequest) (*Team, error) {
	if err := invalid(validation.Struct(req)); err != nil {
		return nil, err
	}

	team, err := s.store.Create(ctx, caller.AccountID, req.Nom)
	if err != nil {
		return nil, classify(err, "failed to create team")
	}
	return team, nil
}

// Update renames one team
func (s *Service) Update(ctx context.Context, caller auth.Identity, req UpdateRequest) (*Team, error) {
	if err := invalid(validation.Struct(req)); err != nil {
		return nil, err
	}

	team, err := s.store.Rename(ctx, caller.AccountID, req.ID, query.NewSet().String("nom", req.Nom))
	if err != nil {
		return nil, classify(err, "failed to update team")
	}
	return team, nil
}

// Delete removes teams, detaching their staff first
func (s *Service) Delete(ctx context.Context, caller auth.Identity, req DeleteRequest) (int64, error) {
	if err := invalid(validation.Struct(req)); err != nil {
		return 0, err
	}

	n, err := s.store.Delete(ctx, caller.AccountID, req.IDs)
	if err != nil {
		return 0, classify(err, "failed to delete teams")
	}
	return n, nil
}

// List returns the tenant teams
func (s *Service) List(ctx context.Context, caller auth.Identity) ([]Team, error) {
	teams, err := s.store.List(ctx, caller.AccountID)
	if err != nil {
		return nil, classify(err, "failed to list teams")
	}
	return teams, nil
}

// Members returns the tenant staff
func (s *Service) Members(ctx context.Context, caller auth.Identity) ([]Member, error) {
	members, err := s.store.Members(ctx, caller.AccountID)
	if err != nil {
		return nil, classify(err, "failed to list staff")
	}
	return members, nil
}

// SetTeam moves staff into a team, or out of their team when TeamID is 0
func (s *Service) SetTeam(ctx context.Context, caller auth.Identity, req MembershipRequest) (int64, error) {
	if err := invalid(validation.Struct(req)); err != nil {
		return 0, err
	}

	n, err := s.store.SetTeam(ctx, caller.AccountID, req.StaffIDs, req.TeamID)
	if err != nil {
		return 0, classify(err, "failed to set team")
	}
	return n, nil
}
