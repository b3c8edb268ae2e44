package staff

import (
	"time"

	"github.com/platinummonkey/staffing/pkg/apperrors"
	"github.com/platinummonkey/staffing/pkg/query"
	"github.com/platinummonkey/staffing/pkg/validation"
)

const (
	msgMissingFields = "Missing required fields"
	msgNoChanges     = "No fields to update"
)

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// nonZero treats 0 as an absent reference
func nonZero(v *int64) *int64 {
	if v == nil || *v == 0 {
		return nil
	}
	return v
}

func newStaff(req AddStaffRequest) NewStaff {
	available := true
	if req.Available != nil {
		available = *req.Available
	}
	return NewStaff{
		Nom:         req.Nom,
		Prenom:      optional(req.Prenom),
		Role:        req.Role,
		Departement: optional(req.Departement),
		NumTel:      optional(req.NumTel),
		Email:       optional(req.Email),
		TeamID:      nonZero(req.TeamID),
		AgenceID:    req.AgenceID,
		Available:   available,
	}
}

func parseAddStaff(req AddStaffRequest) (NewStaff, error) {
	if v := validation.Struct(req); !v.Valid() {
		return NewStaff{}, apperrors.Validation(msgMissingFields, v.Errors)
	}
	return newStaff(req), nil
}

// parseAddStaffWithAgence validates a joint creation. Agency staff carry a
// first name, phone and email. The assignment is nil when no event is named.
func parseAddStaffWithAgence(req AddStaffWithAgenceRequest) (NewStaff, *NewAssignment, error) {
	v := validation.New()
	v.Required("prenom", req.Prenom)
	v.Required("num_tel", req.NumTel)
	v.Required("email", req.Email)
	v.Struct(req)
	if !v.Valid() {
		return NewStaff{}, nil, apperrors.Validation(msgMissingFields, v.Errors)
	}

	st := newStaff(req.AddStaffRequest)
	if req.EvenementID == nil {
		return st, nil, nil
	}

	assignment := &NewAssignment{EvenementID: *req.EvenementID}
	assignment.DateDebut = optionalDate(req.StartDate)
	assignment.DateFin = optionalDate(req.EndDate)
	if assignment.DateDebut != nil && assignment.DateFin != nil && assignment.DateFin.Before(*assignment.DateDebut) {
		return NewStaff{}, nil, apperrors.Validation("end_date must not be before start_date", []validation.FieldError{
			{Field: "end_date", Rule: validation.RuleDate, Message: "end_date must not be before start_date"},
		})
	}
	return st, assignment, nil
}

func optionalDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := validation.ParseDate(s)
	if err != nil {
		return nil
	}
	return &t
}

// parseUpdate validates a staff patch. Empty strings and zero references
// leave the column unchanged.
func parseUpdate(req UpdateRequest) (*query.Set, error) {
	v := validation.Struct(req)
	if req.Email != nil {
		v.Email("email", *req.Email)
	}
	if !v.Valid() {
		return nil, apperrors.Validation("invalid staff data", v.Errors)
	}

	set := query.NewSet().
		String("nom", req.Nom).
		String("prenom", req.Prenom).
		String("role", req.Role).
		String("departement", req.Departement).
		String("num_tel", req.NumTel).
		String("email", req.Email).
		Int64("team_id", nonZero(req.TeamID)).
		Int64("agence_id", nonZero(req.AgenceID)).
		Bool("available", req.Available)
	if set.Len() == 0 {
		return nil, apperrors.Validation(msgNoChanges, nil)
	}
	return set, nil
}

// parseWindow validates the window of an availability search
func parseWindow(startRaw, endRaw string) (time.Time, time.Time, error) {
	v := validation.New()
	v.Required("start_date", startRaw)
	v.Required("end_date", endRaw)
	v.Date("start_date", startRaw)
	v.Date("end_date", endRaw)
	if !v.Valid() {
		return time.Time{}, time.Time{}, apperrors.Validation("invalid date range", v.Errors)
	}

	start, _ := validation.ParseDate(startRaw)
	end, _ := validation.ParseDate(endRaw)
	if !end.After(start) {
		return time.Time{}, time.Time{}, apperrors.Validation("invalid date range", []validation.FieldError{
			{Field: "end_date", Rule: validation.RuleDate, Message: "end_date must be after start_date"},
		})
	}
	return start, end, nil
}
