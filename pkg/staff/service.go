package staff

import (
	"context"
	"errors"
	"time"

	"github.com/platinummonkey/staffing/pkg/apperrors"
	"github.com/platinummonkey/staffing/pkg/auth"
	"github.com/platinummonkey/staffing/pkg/observability"
	"github.com/platinummonkey/staffing/pkg/query"
	"github.com/platinummonkey/staffing/pkg/validation"
)

// Store is the persistence the staff service needs
type Store interface {
	AgencyColumns(ctx context.Context) ([]Column, error)
	Create(ctx context.Context, caller int64, st NewStaff) (*Staff, error)
	CreateWithAssignment(ctx context.Context, caller int64, st NewStaff, assignment *NewAssignment) (*Created, error)
	Update(ctx context.Context, caller, id int64, set *query.Set) (*Staff, error)
	Delete(ctx context.Context, caller, id int64) (*Staff, error)
	DeleteWithAssignments(ctx context.Context, caller, id int64) (*Deleted, error)
	List(ctx context.Context, caller int64, availableOnly bool) ([]Listing, error)
	ListByEvent(ctx context.Context, caller, eventID int64) ([]Listing, error)
	AvailableBetween(ctx context.Context, caller int64, start, end time.Time) ([]Listing, error)
	Participation(ctx context.Context, caller int64) ([]Participation, error)
	EventsOf(ctx context.Context, caller, staffID int64) ([]StaffEvent, error)
	EventStaff(ctx context.Context, caller, eventID int64) ([]EventStaff, error)
	AgencyStaffByEvent(ctx context.Context, caller, eventID int64) ([]AgencyStaff, error)
	Assign(ctx context.Context, caller, staffID, eventID int64) (*Assigned, error)
	Unassign(ctx context.Context, caller, staffID, eventID int64) (*Unassigned, error)
}

// Agencies answers agency lookups, usually through an AgencyCache
type Agencies interface {
	List(ctx context.Context) ([]Agency, error)
	Exists(ctx context.Context, id int64) (bool, error)
}

// Assignment actions reported to metrics
const (
	actionAssign   = "assign"
	actionUnassign = "unassign"
)

// Service scopes every staff operation to the caller's tenant
type Service struct {
	store    Store
	agencies Agencies
	metrics  *observability.Metrics
}

// NewService creates a staff service
func NewService(store Store, agencies Agencies, metrics *observability.Metrics) *Service {
	return &Service{store: store, agencies: agencies, metrics: metrics}
}

// classify maps store errors to application errors
func classify(err error, message string) error {
	var appErr *apperrors.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, ErrStaffNotFound):
		return apperrors.NotFound("Staff not found")
	case errors.Is(err, ErrEventNotFound):
		return apperrors.NotFound("Specified event does not exist or you don't have access to it")
	case errors.Is(err, ErrNotInTenant):
		return apperrors.Authorization("Staff or event not found, or they don't belong to your enterprise")
	case errors.Is(err, ErrAlreadyAssigned):
		return apperrors.Conflict("Staff is already assigned to this event")
	case errors.Is(err, ErrNotAssigned):
		return apperrors.NotFound("Staff is not assigned to this event")
	case errors.Is(err, query.ErrNoChanges):
		return apperrors.Validation(msgNoChanges, nil)
	}
	return apperrors.Store(message, err)
}

func (s *Service) requireAgency(ctx context.Context, id int64) error {
	ok, err := s.agencies.Exists(ctx, id)
	if err != nil {
		return apperrors.Store("failed to check agency", err)
	}
	if !ok {
		return apperrors.NotFound("Specified agency does not exist")
	}
	return nil
}

// Add creates a staff member under the caller's tenant
func (s *Service) Add(ctx context.Context, caller auth.Identity, req AddStaffRequest) (*Staff, error) {
	st, err := parseAddStaff(req)
	if err != nil {
		return nil, err
	}
	if err := s.requireAgency(ctx, st.AgenceID); err != nil {
		return nil, err
	}

	created, err := s.store.Create(ctx, caller.AccountID, st)
	if err != nil {
		return nil, classify(err, "failed to create staff")
	}
	return created, nil
}

// AddWithAgence creates a staff member and optionally assigns it to an
// event of the caller's tenant in one transaction
func (s *Service) AddWithAgence(ctx context.Context, caller auth.Identity, req AddStaffWithAgenceRequest) (*Created, error) {
	st, assignment, err := parseAddStaffWithAgence(req)
	if err != nil {
		return nil, err
	}
	if err := s.requireAgency(ctx, st.AgenceID); err != nil {
		return nil, err
	}

	created, err := s.store.CreateWithAssignment(ctx, caller.AccountID, st, assignment)
	if err != nil {
		return nil, classify(err, "failed to create staff")
	}
	if created.Assignment != nil {
		s.metrics.AssignmentChange(actionAssign)
	}
	return created, nil
}

// Update patches one staff member of the caller's tenant
func (s *Service) Update(ctx context.Context, caller auth.Identity, req UpdateRequest) (*Staff, error) {
	set, err := parseUpdate(req)
	if err != nil {
		return nil, err
	}
	if agency := nonZero(req.AgenceID); agency != nil {
		if err := s.requireAgency(ctx, *agency); err != nil {
			return nil, err
		}
	}

	updated, err := s.store.Update(ctx, caller.AccountID, req.ID, set)
	if err != nil {
		return nil, classify(err, "failed to update staff")
	}
	return updated, nil
}

// Delete removes one staff member of the caller's tenant
func (s *Service) Delete(ctx context.Context, caller auth.Identity, id int64) (*Staff, error) {
	if err := positive("ID", id); err != nil {
		return nil, err
	}
	deleted, err := s.store.Delete(ctx, caller.AccountID, id)
	if err != nil {
		return nil, classify(err, "failed to delete staff")
	}
	return deleted, nil
}

// DeleteWithAssignments removes a staff member and its assignments
func (s *Service) DeleteWithAssignments(ctx context.Context, caller auth.Identity, id int64) (*Deleted, error) {
	if err := positive("staff_id", id); err != nil {
		return nil, err
	}
	deleted, err := s.store.DeleteWithAssignments(ctx, caller.AccountID, id)
	if err != nil {
		return nil, classify(err, "failed to delete staff")
	}
	return deleted, nil
}

// List returns the tenant staff, optionally only the available ones
func (s *Service) List(ctx context.Context, caller auth.Identity, availableOnly bool) ([]Listing, error) {
	listings, err := s.store.List(ctx, caller.AccountID, availableOnly)
	if err != nil {
		return nil, classify(err, "failed to list staff")
	}
	return listings, nil
}

// ListByEvent returns the tenant staff of an event
func (s *Service) ListByEvent(ctx context.Context, caller auth.Identity, eventID int64) ([]Listing, error) {
	listings, err := s.store.ListByEvent(ctx, caller.AccountID, eventID)
	if err != nil {
		return nil, classify(err, "failed to list staff")
	}
	return listings, nil
}

// AvailableBetween returns the tenant staff free over the window
func (s *Service) AvailableBetween(ctx context.Context, caller auth.Identity, startRaw, endRaw string) ([]Listing, error) {
	start, end, err := parseWindow(startRaw, endRaw)
	if err != nil {
		return nil, err
	}
	listings, err := s.store.AvailableBetween(ctx, caller.AccountID, start, end)
	if err != nil {
		return nil, classify(err, "failed to list available staff")
	}
	return listings, nil
}

// Participation returns recent tenant event participation
func (s *Service) Participation(ctx context.Context, caller auth.Identity) ([]Participation, error) {
	result, err := s.store.Participation(ctx, caller.AccountID)
	if err != nil {
		return nil, classify(err, "failed to get participation")
	}
	return result, nil
}

// EventsOf returns the events of one staff member
func (s *Service) EventsOf(ctx context.Context, caller auth.Identity, staffID int64) ([]StaffEvent, error) {
	events, err := s.store.EventsOf(ctx, caller.AccountID, staffID)
	if err != nil {
		return nil, classify(err, "failed to get staff events")
	}
	return events, nil
}

// EventStaff returns the staff of one event
func (s *Service) EventStaff(ctx context.Context, caller auth.Identity, eventID int64) ([]EventStaff, error) {
	members, err := s.store.EventStaff(ctx, caller.AccountID, eventID)
	if err != nil {
		return nil, classify(err, "failed to get event staff")
	}
	return members, nil
}

// AgencyStaffByEvent returns the agency staff of one event
func (s *Service) AgencyStaffByEvent(ctx context.Context, caller auth.Identity, eventID int64) ([]AgencyStaff, error) {
	if err := positive("evenement_id", eventID); err != nil {
		return nil, err
	}
	members, err := s.store.AgencyStaffByEvent(ctx, caller.AccountID, eventID)
	if err != nil {
		return nil, classify(err, "failed to get agency staff")
	}
	return members, nil
}

// Assign links a staff member to an event and marks it unavailable
func (s *Service) Assign(ctx context.Context, caller auth.Identity, req AssignmentRequest) (*Assigned, error) {
	if err := checkPair(req); err != nil {
		return nil, err
	}
	result, err := s.store.Assign(ctx, caller.AccountID, req.StaffID, req.EvenementID)
	if err != nil {
		return nil, classify(err, "failed to assign staff")
	}
	s.metrics.AssignmentChange(actionAssign)
	observability.FromContext(ctx).WithAssignment(req.StaffID, req.EvenementID).Info("staff assigned to event")
	return result, nil
}

// SetAvailable releases a staff member from an event and marks it available
func (s *Service) SetAvailable(ctx context.Context, caller auth.Identity, req AssignmentRequest) (*Unassigned, error) {
	if err := checkPair(req); err != nil {
		return nil, err
	}
	return s.unassign(ctx, caller, req)
}

// RemoveFromEvent is SetAvailable restricted to assignment managers
func (s *Service) RemoveFromEvent(ctx context.Context, caller auth.Identity, req AssignmentRequest) (*Unassigned, error) {
	if err := auth.CanManageAssignments(caller.Role); err != nil {
		return nil, apperrors.Authorization(err.Error())
	}
	if err := checkPair(req); err != nil {
		return nil, err
	}
	return s.unassign(ctx, caller, req)
}

func (s *Service) unassign(ctx context.Context, caller auth.Identity, req AssignmentRequest) (*Unassigned, error) {
	result, err := s.store.Unassign(ctx, caller.AccountID, req.StaffID, req.EvenementID)
	if err != nil {
		return nil, classify(err, "failed to unassign staff")
	}
	s.metrics.AssignmentChange(actionUnassign)
	observability.FromContext(ctx).WithAssignment(req.StaffID, req.EvenementID).Info("staff released from event")
	return result, nil
}

// Agencies returns every agency ordered by name
func (s *Service) Agencies(ctx context.Context) ([]Agency, error) {
	agencies, err := s.agencies.List(ctx)
	if err != nil {
		return nil, classify(err, "failed to list agencies")
	}
	return agencies, nil
}

// AgencyColumns describes the agence table
func (s *Service) AgencyColumns(ctx context.Context) ([]Column, error) {
	columns, err := s.store.AgencyColumns(ctx)
	if err != nil {
		return nil, classify(err, "failed to describe agence")
	}
	return columns, nil
}

func positive(field string, id int64) error {
	v := validation.New()
	v.Positive(field, id)
	if !v.Valid() {
		return apperrors.Validation(msgMissingFields, v.Errors)
	}
	return nil
}

func checkPair(req AssignmentRequest) error {
	if v := validation.Struct(req); !v.Valid() {
		return apperrors.Validation(msgMissingFields, v.Errors)
	}
	return nil
}
