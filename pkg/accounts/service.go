package accounts

import (
	"context"
	"errors"
	"time"

	"github.com/platinummonkey/staffing/pkg/apperrors"
	"github.com/platinummonkey/staffing/pkg/audit"
	"github.com/platinummonkey/staffing/pkg/auth"
	"github.com/platinummonkey/staffing/pkg/observability"
	"github.com/platinummonkey/staffing/pkg/query"
	"github.com/platinummonkey/staffing/pkg/validation"
)

// Store is the persistence the account service needs
type Store interface {
	Create(ctx context.Context, caller int64, account NewAccount) error
	FindByEmail(ctx context.Context, email string) (*Credentials, error)
	SetToken(ctx context.Context, id int64, token string) error
	Update(ctx context.Context, caller int64, accepted []auth.Role, id int64, set *query.Set) (int64, error)
	Delete(ctx context.Context, caller int64, accepted []auth.Role, ids []int64) (int64, error)
	List(ctx context.Context, scope auth.ListScope, caller int64) ([]Account, error)
}

// Login outcomes reported to metrics
const (
	outcomeSuccess       = "success"
	outcomeUnknownEmail  = "unknown_email"
	outcomeWrongPassword = "wrong_password"
	outcomeInactive      = "inactive"
)

// Service applies the role table to account operations and records every
// outcome in the audit trail
type Service struct {
	store   Store
	issuer  *auth.SessionIssuer
	metrics *observability.Metrics
	now     func() time.Time
}

// NewService creates an account service
func NewService(store Store, issuer *auth.SessionIssuer, metrics *observability.Metrics) *Service {
	return &Service{
		store:   store,
		issuer:  issuer,
		metrics: metrics,
		now:     time.Now,
	}
}

func (s *Service) audit(ctx context.Context, event *audit.Event) {
	if err := audit.FromContext(ctx).Log(ctx, event); err != nil {
		observability.FromContext(ctx).WithError(err).Warn("failed to write audit event")
	}
}

func actor(caller auth.Identity) *int64 {
	id := caller.AccountID
	return &id
}

func (s *Service) denied(ctx context.Context, eventType audit.EventType, caller auth.Identity, targets []int64) error {
	s.audit(ctx, &audit.Event{
		EventType: eventType,
		Status:    audit.EventStatusDenied,
		AccountID: actor(caller),
		TargetIDs: targets,
		Message:   auth.ErrMissingPrivilege.Error(),
		Metadata:  map[string]interface{}{"role": string(caller.Role)},
	})
	return apperrors.Authorization(auth.ErrMissingPrivilege.Error())
}

// SignUp creates an account on behalf of caller. The new account joins the
// caller's tenant, except for super_admin callers who name the tenant.
func (s *Service) SignUp(ctx context.Context, caller auth.Identity, req SignUpRequest) error {
	account, err := parseSignUp(req, caller.Role)
	if err != nil {
		return err
	}
	if !auth.MayAssign(caller.Role, account.Role) {
		return s.denied(ctx, audit.EventTypeAccountCreate, caller, nil)
	}

	password := req.Password
	if password == "" {
		password = req.Nom
	}
	account.PasswordHash, err = auth.HashPassword(password)
	if err != nil {
		return apperrors.Store("failed to hash password", err)
	}

	if err := s.store.Create(ctx, caller.AccountID, account); err != nil {
		s.audit(ctx, &audit.Event{
			EventType: audit.EventTypeAccountCreate,
			Status:    audit.EventStatusFailure,
			AccountID: actor(caller),
			Email:     account.Email,
			Message:   err.Error(),
		})
		return err
	}

	s.audit(ctx, &audit.Event{
		EventType: audit.EventTypeAccountCreate,
		Status:    audit.EventStatusSuccess,
		AccountID: actor(caller),
		Email:     account.Email,
		Message:   "account created",
		Metadata:  map[string]interface{}{"role": string(account.Role), "type": string(account.Type)},
	})
	return nil
}

// LogIn checks credentials and opens a session. The token is recorded on
// the account row.
func (s *Service) LogIn(ctx context.Context, req LogInRequest, ip string) (*Session, error) {
	if v := validation.Struct(req); !v.Valid() {
		return nil, apperrors.Validation("invalid request", v.Errors)
	}

	fail := func(accountID *int64, outcome, message string) error {
		s.metrics.LoginAttempt(outcome)
		s.audit(ctx, &audit.Event{
			EventType: audit.EventTypeAuthLoginFailed,
			Status:    audit.EventStatusFailure,
			AccountID: accountID,
			Email:     req.Email,
			IPAddress: ip,
			Message:   message,
		})
		return apperrors.Authentication(message)
	}

	creds, err := s.store.FindByEmail(ctx, req.Email)
	if errors.Is(err, ErrAccountNotFound) {
		return nil, fail(nil, outcomeUnknownEmail, "account email does not exist")
	}
	if err != nil {
		return nil, err
	}

	accountID := creds.ID
	if err := auth.VerifyPassword(creds.PasswordHash, req.Password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return nil, fail(&accountID, outcomeWrongPassword, "wrong password")
		}
		return nil, apperrors.Store("failed to verify password", err)
	}

	if !creds.ActiveAt(s.now()) {
		return nil, fail(&accountID, outcomeInactive, "account is not active")
	}

	token, expires, err := s.issuer.Issue(auth.Identity{AccountID: creds.ID, Role: creds.Role})
	if err != nil {
		return nil, apperrors.Store("failed to issue session", err)
	}
	if err := s.store.SetToken(ctx, creds.ID, token); err != nil {
		return nil, err
	}

	s.metrics.LoginAttempt(outcomeSuccess)
	s.audit(ctx, &audit.Event{
		EventType: audit.EventTypeAuthLogin,
		Status:    audit.EventStatusSuccess,
		AccountID: &accountID,
		Email:     creds.Email,
		IPAddress: ip,
		Message:   "logged in",
	})

	return &Session{
		ID:               creds.ID,
		Email:            creds.Email,
		Role:             creds.Role,
		Type:             creds.Type,
		ActivationDate:   creds.ActivationDate,
		DeactivationDate: creds.DeactivationDate,
		Nom:              creds.Nom,
		EntrepriseNom:    creds.EntrepriseNom,
		Token:            token,
		ExpiresAt:        expires,
	}, nil
}

// LogOut clears the recorded session token of caller
func (s *Service) LogOut(ctx context.Context, caller auth.Identity) error {
	if err := s.store.SetToken(ctx, caller.AccountID, ""); err != nil {
		return err
	}
	s.audit(ctx, &audit.Event{
		EventType: audit.EventTypeAuthLogout,
		Status:    audit.EventStatusSuccess,
		AccountID: actor(caller),
		Message:   "logged out",
	})
	return nil
}

// Update patches one account. It returns false when no row matched the
// role and tenant predicate, which is not an error.
func (s *Service) Update(ctx context.Context, caller auth.Identity, req UpdateRequest) (bool, error) {
	accepted, err := auth.AcceptedRoles(caller.Role)
	if err != nil {
		return false, s.denied(ctx, audit.EventTypeAccountUpdate, caller, []int64{req.ID})
	}

	id, patch, err := parseUpdate(req)
	if err != nil {
		return false, err
	}
	keepsOwnRole := id == caller.AccountID && patch.Role != nil && *patch.Role == caller.Role
	if patch.Role != nil && !keepsOwnRole && !auth.MayAssign(caller.Role, *patch.Role) {
		return false, s.denied(ctx, audit.EventTypeAccountUpdate, caller, []int64{id})
	}

	var hash string
	if patch.Password != nil {
		if hash, err = auth.HashPassword(*patch.Password); err != nil {
			return false, apperrors.Store("failed to hash password", err)
		}
	}

	n, err := s.store.Update(ctx, caller.AccountID, accepted, id, patch.Set(hash))
	if errors.Is(err, query.ErrNoChanges) {
		return false, apperrors.Validation(msgMissingData, nil)
	}
	if err != nil {
		return false, err
	}

	status := audit.EventStatusSuccess
	if n == 0 {
		status = audit.EventStatusNoop
	}
	s.audit(ctx, &audit.Event{
		EventType: audit.EventTypeAccountUpdate,
		Status:    status,
		AccountID: actor(caller),
		TargetIDs: []int64{id},
		Message:   "account update",
		Metadata:  map[string]interface{}{"rows": n},
	})
	return n > 0, nil
}

// Delete removes the accounts of req that caller may act on. Matching no
// row at all is NotFound.
func (s *Service) Delete(ctx context.Context, caller auth.Identity, req DeleteRequest) (int64, error) {
	if v := validation.Struct(req); !v.Valid() {
		return 0, apperrors.Validation(msgMissingData, v.Errors)
	}

	accepted, err := auth.AcceptedRoles(caller.Role)
	if err != nil {
		return 0, s.denied(ctx, audit.EventTypeAccountDelete, caller, req.IDs)
	}

	n, err := s.store.Delete(ctx, caller.AccountID, accepted, req.IDs)
	if err != nil {
		return 0, err
	}

	status := audit.EventStatusSuccess
	if n == 0 {
		status = audit.EventStatusNoop
	}
	s.audit(ctx, &audit.Event{
		EventType: audit.EventTypeAccountDelete,
		Status:    status,
		AccountID: actor(caller),
		TargetIDs: req.IDs,
		Message:   "account delete",
		Metadata:  map[string]interface{}{"rows": n},
	})

	if n == 0 {
		return 0, apperrors.NotFound("no accounts where deleted")
	}
	return n, nil
}

// List returns the accounts caller may see
func (s *Service) List(ctx context.Context, caller auth.Identity) ([]Account, error) {
	scope, err := auth.AccountListScope(caller.Role)
	if err != nil {
		return nil, apperrors.Authorization(err.Error())
	}
	return s.store.List(ctx, scope, caller.AccountID)
}
