package auth

import (
	"context"
	"fmt"

	"github.com/platinummonkey/staffing/pkg/contextkeys"
)

// Role is an account-level privilege tier
type Role string

const (
	RoleSuperAdmin Role = "super_admin" // Creates tenants and their admins
	RoleAdmin      Role = "admin"       // Manages one tenant
	RoleSuperUser  Role = "super_user"  // Manages plain users of one tenant
	RoleUser       Role = "user"        // No account privileges
)

// Roles lists every role, highest first
var Roles = []Role{RoleSuperAdmin, RoleAdmin, RoleSuperUser, RoleUser}

// ParseRole converts a string to a Role
func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role: %q", s)
}

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// RoleNames returns the string form of roles, for ANY($n) parameters
func RoleNames(roles []Role) []string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return names
}

// AccountType controls whether an account has a validity window
type AccountType string

const (
	AccountTemporary AccountType = "temporaire"
	AccountPermanent AccountType = "permanent"
)

// AccountTypes lists the accepted account types
var AccountTypes = []AccountType{AccountTemporary, AccountPermanent}

// Identity is the decoded session of a caller
type Identity struct {
	AccountID int64 `json:"id"`
	Role      Role  `json:"role"`
}

// WithIdentity stores the caller identity in ctx
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return contextkeys.WithIdentity(ctx, id)
}

// FromContext returns the caller identity set by the access gate
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextkeys.IdentityKey).(Identity)
	return id, ok
}
