package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

const (
	// IDColumn is the quoted primary key column shared by every table
	IDColumn = `"ID"`
	// TenantColumn references the owning entreprise
	TenantColumn = "entreprise_id"
)

var (
	ErrNoChanges = errors.New("no fields to update")
	ErrNoTarget  = errors.New("no target id")
)

// TenantOf renders the correlated lookup of an account's tenant, reading
// the account ID from placeholder pos.
func TenantOf(pos int) string {
	return fmt.Sprintf(`(SELECT entreprise_id FROM accounts WHERE "ID" = $%d)`, pos)
}

// predicate accumulates WHERE clauses and their bound values. Placeholders
// continue after any SET values already bound.
type predicate struct {
	clauses []string
	args    []interface{}
	offset  int
}

func (p *predicate) bind(v interface{}) string {
	p.args = append(p.args, v)
	return fmt.Sprintf("$%d", p.offset+len(p.args))
}

// scope holds the target and policy parts shared by updates and deletes
type scope struct {
	id        *int64
	ids       []int64
	roles     []string
	gated     bool
	caller    int64
	tenant    bool
	returning string
}

// render appends, in order: target id(s), role set, caller id for the
// self-escape, caller id for the tenant lookup.
func (s *scope) render(p *predicate) error {
	switch {
	case s.id != nil:
		p.clauses = append(p.clauses, fmt.Sprintf("%s = %s", IDColumn, p.bind(*s.id)))
	case len(s.ids) > 0:
		p.clauses = append(p.clauses, fmt.Sprintf("%s = ANY(%s)", IDColumn, p.bind(pq.Array(s.ids))))
	default:
		return ErrNoTarget
	}

	if s.gated {
		roles := p.bind(pq.Array(s.roles))
		self := p.bind(s.caller)
		p.clauses = append(p.clauses, fmt.Sprintf("(role = ANY(%s) OR %s = %s)", roles, IDColumn, self))
	}

	if s.tenant {
		p.args = append(p.args, s.caller)
		p.clauses = append(p.clauses, fmt.Sprintf("%s = %s", TenantColumn, TenantOf(p.offset+len(p.args))))
	}
	return nil
}

// UpdateBuilder builds a scoped UPDATE statement
type UpdateBuilder struct {
	table string
	set   *Set
	scope scope
}

// Update starts an UPDATE of table with the given assignments
func Update(table string, set *Set) *UpdateBuilder {
	return &UpdateBuilder{table: table, set: set}
}

// ByID targets one row
func (b *UpdateBuilder) ByID(id int64) *UpdateBuilder {
	b.scope.id = &id
	return b
}

// RoleGated restricts the target to rows whose role is in roles, or to the
// caller's own row.
func (b *UpdateBuilder) RoleGated(roles []string, caller int64) *UpdateBuilder {
	b.scope.gated = true
	b.scope.roles = roles
	b.scope.caller = caller
	return b
}

// InTenantOf restricts the target to rows of the caller's tenant
func (b *UpdateBuilder) InTenantOf(caller int64) *UpdateBuilder {
	b.scope.tenant = true
	b.scope.caller = caller
	return b
}

// Returning appends a RETURNING clause
func (b *UpdateBuilder) Returning(columns string) *UpdateBuilder {
	b.scope.returning = columns
	return b
}

// Build renders the statement and its positional arguments
func (b *UpdateBuilder) Build() (string, []interface{}, error) {
	if b.set == nil || b.set.Len() == 0 {
		return "", nil, ErrNoChanges
	}

	p := &predicate{offset: b.set.Len()}
	if err := b.scope.render(p); err != nil {
		return "", nil, err
	}

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s", b.table, b.set.clause(), strings.Join(p.clauses, " AND "))
	if b.scope.returning != "" {
		sql += " RETURNING " + b.scope.returning
	}

	args := append(b.set.Args(), p.args...)
	return sql, args, nil
}

// DeleteBuilder builds a scoped DELETE statement
type DeleteBuilder struct {
	table string
	scope scope
}

// Delete starts a DELETE from table
func Delete(table string) *DeleteBuilder {
	return &DeleteBuilder{table: table}
}

// ByID targets one row
func (b *DeleteBuilder) ByID(id int64) *DeleteBuilder {
	b.scope.id = &id
	return b
}

// ByIDs targets every row whose ID is in ids
func (b *DeleteBuilder) ByIDs(ids []int64) *DeleteBuilder {
	b.scope.ids = ids
	return b
}

// RoleGated restricts the target to rows whose role is in roles, or to the
// caller's own row.
func (b *DeleteBuilder) RoleGated(roles []string, caller int64) *DeleteBuilder {
	b.scope.gated = true
	b.scope.roles = roles
	b.scope.caller = caller
	return b
}

// InTenantOf restricts the target to rows of the caller's tenant
func (b *DeleteBuilder) InTenantOf(caller int64) *DeleteBuilder {
	b.scope.tenant = true
	b.scope.caller = caller
	return b
}

// Returning appends a RETURNING clause
func (b *DeleteBuilder) Returning(columns string) *DeleteBuilder {
	b.scope.returning = columns
	return b
}

// Build renders the statement and its positional arguments
func (b *DeleteBuilder) Build() (string, []interface{}, error) {
	p := &predicate{}
	if err := b.scope.render(p); err != nil {
		return "", nil, err
	}

	sql := fmt.Sprintf("DELETE FROM %s WHERE %s", b.table, strings.Join(p.clauses, " AND "))
	if b.scope.returning != "" {
		sql += " RETURNING " + b.scope.returning
	}
	return sql, p.args, nil
}
