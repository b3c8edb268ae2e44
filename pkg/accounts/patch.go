package accounts

import (
	"time"

	"github.com/platinummonkey/staffing/pkg/apperrors"
	"github.com/platinummonkey/staffing/pkg/auth"
	"github.com/platinummonkey/staffing/pkg/query"
	"github.com/platinummonkey/staffing/pkg/validation"
)

const msgMissingData = "missing data"

var (
	roleNames = auth.RoleNames(auth.Roles)
	typeNames = []string{string(auth.AccountTemporary), string(auth.AccountPermanent)}
)

// Patch is a validated account update. Nil fields are left unchanged.
type Patch struct {
	Nom              *string
	Email            *string
	Password         *string
	Role             *auth.Role
	Type             *auth.AccountType
	ActivationDate   *time.Time
	DeactivationDate *time.Time
}

// Set renders the patch as column assignments. The password column takes
// passwordHash, computed by the caller from Password.
func (p Patch) Set(passwordHash string) *query.Set {
	set := query.NewSet().
		String("nom", p.Nom).
		String("email", p.Email)
	if passwordHash != "" {
		set.Value("password", passwordHash)
	}
	if p.Role != nil {
		set.Value("role", string(*p.Role))
	}
	if p.Type != nil {
		set.Value("type", string(*p.Type))
	}
	return set.
		Time("activation_date", p.ActivationDate).
		Time("deactivation_date", p.DeactivationDate)
}

func present(s *string) bool {
	return s != nil && *s != ""
}

func parseOptionalDate(s *string) *time.Time {
	if !present(s) {
		return nil
	}
	t, err := validation.ParseDate(*s)
	if err != nil {
		return nil
	}
	return &t
}

// parseUpdate validates an update request and returns the account ID and
// its patch
func parseUpdate(req UpdateRequest) (int64, Patch, error) {
	if req.ID < 1 || !(present(req.Nom) || present(req.Email) || present(req.Password) ||
		present(req.Role) || present(req.Type) || present(req.ActivationDate) || present(req.DeactivationDate)) {
		return 0, Patch{}, apperrors.Validation(msgMissingData, nil)
	}

	v := validation.New()
	if present(req.Email) {
		v.Email("email", *req.Email)
	}
	if present(req.Role) {
		v.OneOf("role", *req.Role, roleNames...)
	}
	if present(req.Type) {
		v.OneOf("type", *req.Type, typeNames...)
	}
	if present(req.ActivationDate) {
		v.Date("activation_date", *req.ActivationDate)
	}
	if present(req.DeactivationDate) {
		v.Date("deactivation_date", *req.DeactivationDate)
	}
	if !v.Valid() {
		return 0, Patch{}, apperrors.Validation("invalid request", v.Errors)
	}

	if present(req.Type) && auth.AccountType(*req.Type) == auth.AccountTemporary &&
		(!present(req.ActivationDate) || !present(req.DeactivationDate)) {
		return 0, Patch{}, apperrors.Validation(msgMissingData, []validation.FieldError{
			{Field: "activation_date", Rule: validation.RuleRequired, Message: "temporary accounts need an activation window"},
		})
	}

	patch := Patch{
		Nom:              req.Nom,
		Email:            req.Email,
		ActivationDate:   parseOptionalDate(req.ActivationDate),
		DeactivationDate: parseOptionalDate(req.DeactivationDate),
	}
	if present(req.Password) {
		patch.Password = req.Password
	}
	if present(req.Role) {
		role := auth.Role(*req.Role)
		patch.Role = &role
	}
	if present(req.Type) {
		typ := auth.AccountType(*req.Type)
		patch.Type = &typ
	}
	return req.ID, patch, nil
}

// parseSignUp validates a sign-up request. The password is left for the
// caller to hash.
func parseSignUp(req SignUpRequest, caller auth.Role) (NewAccount, error) {
	if v := validation.Struct(req); !v.Valid() {
		return NewAccount{}, apperrors.Validation("invalid request", v.Errors)
	}

	account := NewAccount{
		Nom:   req.Nom,
		Email: req.Email,
		Role:  auth.Role(req.Role),
		Type:  auth.AccountType(req.Type),
	}

	if account.Type == auth.AccountTemporary {
		if req.ActivationDate == "" || req.DeactivationDate == "" {
			return NewAccount{}, apperrors.Validation(msgMissingData, []validation.FieldError{
				{Field: "activation_date", Rule: validation.RuleRequired, Message: "temporary accounts need an activation window"},
			})
		}
		account.ActivationDate = parseOptionalDate(&req.ActivationDate)
		account.DeactivationDate = parseOptionalDate(&req.DeactivationDate)
	}

	if caller == auth.RoleSuperAdmin {
		if req.EntrepriseID == nil || *req.EntrepriseID < 1 {
			return NewAccount{}, apperrors.Validation(msgMissingData, []validation.FieldError{
				{Field: "entreprise_id", Rule: validation.RuleRequired, Message: "entreprise_id is required"},
			})
		}
		id := *req.EntrepriseID
		account.EntrepriseID = &id
	}

	return account, nil
}
