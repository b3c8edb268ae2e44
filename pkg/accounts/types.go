package accounts

import (
	"time"

	"github.com/platinummonkey/staffing/pkg/auth"
)

// Account is the public view of an account row. The password hash and
// session token never leave the store.
type Account struct {
	ID               int64            `json:"ID"`
	Nom              string           `json:"nom"`
	Email            string           `json:"email"`
	Role             auth.Role        `json:"role"`
	Type             auth.AccountType `json:"type"`
	ActivationDate   *time.Time       `json:"activation_date"`
	DeactivationDate *time.Time       `json:"deactivation_date"`
}

// Credentials is the row read at login
type Credentials struct {
	Account
	PasswordHash  string
	EntrepriseNom *string
}

// ActiveAt reports whether the account may log in at t. Permanent accounts
// are always active; temporary ones only inside their window.
func (c *Credentials) ActiveAt(t time.Time) bool {
	if c.Type != auth.AccountTemporary {
		return true
	}
	if c.ActivationDate != nil && t.Before(*c.ActivationDate) {
		return false
	}
	if c.DeactivationDate != nil && t.After(*c.DeactivationDate) {
		return false
	}
	return true
}

// Session is the login response payload
type Session struct {
	ID               int64            `json:"ID"`
	Email            string           `json:"email"`
	Role             auth.Role        `json:"role"`
	Type             auth.AccountType `json:"type"`
	ActivationDate   *time.Time       `json:"activation_date"`
	DeactivationDate *time.Time       `json:"deactivation_date"`
	Nom              string           `json:"nom"`
	EntrepriseNom    *string          `json:"entreprise_nom"`
	Token            string           `json:"token"`
	ExpiresAt        time.Time        `json:"-"`
}

// NewAccount is a validated account ready to insert
type NewAccount struct {
	Nom              string
	Email            string
	PasswordHash     string
	Role             auth.Role
	Type             auth.AccountType
	ActivationDate   *time.Time
	DeactivationDate *time.Time
	// EntrepriseID is set only when a super_admin names the tenant. Otherwise
	// the tenant is the caller's.
	EntrepriseID *int64
}

// SignUpRequest is the body of POST /api/signUp
type SignUpRequest struct {
	Nom              string `json:"nom" validate:"notblank"`
	Email            string `json:"email" validate:"required,email"`
	Password         string `json:"password"`
	Role             string `json:"role" validate:"required,oneof=super_admin admin super_user user"`
	Type             string `json:"type" validate:"required,oneof=temporaire permanent"`
	ActivationDate   string `json:"activation_date" validate:"omitempty,date"`
	DeactivationDate string `json:"deactivation_date" validate:"omitempty,date"`
	EntrepriseID     *int64 `json:"entreprise_id" validate:"omitnil,gt=0"`
}

// LogInRequest is the body of POST /api/logIn
type LogInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateRequest is the body of PUT /api/updateAccount. Absent and empty
// fields leave the column unchanged.
type UpdateRequest struct {
	ID               int64   `json:"ID"`
	Nom              *string `json:"nom"`
	Email            *string `json:"email"`
	Password         *string `json:"password"`
	Role             *string `json:"role"`
	Type             *string `json:"type"`
	ActivationDate   *string `json:"activation_date"`
	DeactivationDate *string `json:"deactivation_date"`
}

// DeleteRequest is the body of DELETE /api/deleteAccount
type DeleteRequest struct {
	IDs []int64 `json:"IDs" validate:"min=1,dive,gt=0"`
}
