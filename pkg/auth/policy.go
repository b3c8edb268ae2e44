package auth

// subordinates maps a caller role to the account roles it may create,
// update or delete. Privilege never reaches beyond this table.
var subordinates = map[Role][]Role{
	RoleSuperAdmin: {RoleUser, RoleSuperUser, RoleAdmin},
	RoleAdmin:      {RoleUser, RoleSuperUser},
	RoleSuperUser:  {RoleUser},
	RoleUser:       nil,
}

// AssignmentManagers may remove staff from events
var AssignmentManagers = []Role{RoleSuperAdmin, RoleAdmin, RoleSuperUser}

// AcceptedRoles returns the target roles caller may act upon. Callers with
// no subordinate roles get ErrMissingPrivilege.
func AcceptedRoles(caller Role) ([]Role, error) {
	roles := subordinates[caller]
	if len(roles) == 0 {
		return nil, ErrMissingPrivilege
	}
	out := make([]Role, len(roles))
	copy(out, roles)
	return out, nil
}

// MayAssign reports whether caller may give an account the target role
func MayAssign(caller, target Role) bool {
	for _, r := range subordinates[caller] {
		if r == target {
			return true
		}
	}
	return false
}

// CanActOn is the role half of the account mutation predicate: the target
// role is subordinate to the caller, or the target is the caller. The
// tenant half is enforced in SQL.
func CanActOn(caller Identity, targetID int64, targetRole Role) bool {
	return targetID == caller.AccountID || MayAssign(caller.Role, targetRole)
}

// ListScope is the set of accounts a caller may list
type ListScope int

const (
	ListNone ListScope = iota
	ListTenant
	ListAll
)

// AccountListScope returns which accounts caller may list
func AccountListScope(caller Role) (ListScope, error) {
	switch caller {
	case RoleSuperAdmin:
		return ListAll, nil
	case RoleAdmin:
		return ListTenant, nil
	default:
		return ListNone, ErrMissingPrivilege
	}
}

// CanManageAssignments checks the flat allow-list for assignment removal.
// There is no self-escape here.
func CanManageAssignments(caller Role) error {
	for _, r := range AssignmentManagers {
		if r == caller {
			return nil
		}
	}
	return ErrMissingPrivilege
}
