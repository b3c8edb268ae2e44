package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/platinummonkey/staffing/pkg/apperrors"
	"github.com/platinummonkey/staffing/pkg/auth"
	"github.com/platinummonkey/staffing/pkg/observability"
	"github.com/platinummonkey/staffing/pkg/query"
)

// ErrAccountNotFound is returned when no account has the given email
var ErrAccountNotFound = errors.New("account not found")

const accountColumns = `"ID", nom, email, role, type, activation_date, deactivation_date`

// PostgresStore persists accounts in the accounts table
type PostgresStore struct {
	db      *sql.DB
	reader  *sql.DB
	metrics *observability.Metrics
}

// NewPostgresStore creates a store writing to db. Listings go to reader when
// it is not nil.
func NewPostgresStore(db, reader *sql.DB, metrics *observability.Metrics) *PostgresStore {
	if reader == nil {
		reader = db
	}
	return &PostgresStore{db: db, reader: reader, metrics: metrics}
}

func (s *PostgresStore) observe(ctx context.Context, op string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "accounts."+op)
	return ctx, func(err error) {
		observability.EndSpan(span, err)
		s.metrics.ObserveStore("accounts."+op, start, err)
	}
}

// Create inserts a new account. The tenant is the one named in account, or
// else the caller's.
func (s *PostgresStore) Create(ctx context.Context, caller int64, account NewAccount) (err error) {
	ctx, done := s.observe(ctx, "create")
	defer func() { done(err) }()

	tenant, tenantArg := query.TenantOf(8), interface{}(caller)
	if account.EntrepriseID != nil {
		tenant, tenantArg = "$8", *account.EntrepriseID
	}

	stmt := fmt.Sprintf(`
		INSERT INTO accounts (nom, email, password, role, type, activation_date, deactivation_date, entreprise_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, %s)
	`, tenant)

	_, err = s.db.ExecContext(ctx, stmt,
		account.Nom,
		account.Email,
		account.PasswordHash,
		string(account.Role),
		string(account.Type),
		account.ActivationDate,
		account.DeactivationDate,
		tenantArg,
	)
	if err != nil {
		return apperrors.FromStore(err, "failed to create account", "an account with this email already exists")
	}
	return nil
}

// FindByEmail loads the credentials used at login
func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (creds *Credentials, err error) {
	ctx, done := s.observe(ctx, "find_by_email")
	defer func() { done(err) }()

	row := s.db.QueryRowContext(ctx, `
		SELECT a."ID", a.email, a.password, a.role, a.type, a.activation_date, a.deactivation_date, a.nom,
			(SELECT nom FROM entreprise WHERE "ID" = a.entreprise_id) AS entreprise_nom
		FROM accounts a
		WHERE a.email = $1
	`, email)

	var (
		c             Credentials
		activation    sql.NullTime
		deactivation  sql.NullTime
		entrepriseNom sql.NullString
	)
	err = row.Scan(&c.ID, &c.Email, &c.PasswordHash, &c.Role, &c.Type, &activation, &deactivation, &c.Nom, &entrepriseNom)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	c.ActivationDate = nullTime(activation)
	c.DeactivationDate = nullTime(deactivation)
	if entrepriseNom.Valid {
		c.EntrepriseNom = &entrepriseNom.String
	}
	return &c, nil
}

// SetToken records the current session token. An empty token clears it.
func (s *PostgresStore) SetToken(ctx context.Context, id int64, token string) (err error) {
	ctx, done := s.observe(ctx, "set_token")
	defer func() { done(err) }()

	_, err = s.db.ExecContext(ctx, `UPDATE accounts SET token = $1 WHERE "ID" = $2`,
		sql.NullString{String: token, Valid: token != ""}, id)
	if err != nil {
		return fmt.Errorf("failed to store session token: %w", err)
	}
	return nil
}

// Update applies set to one account of the caller's tenant whose role is in
// accepted, or to the caller's own account. It returns the affected rows.
func (s *PostgresStore) Update(ctx context.Context, caller int64, accepted []auth.Role, id int64, set *query.Set) (n int64, err error) {
	ctx, done := s.observe(ctx, "update")
	defer func() { done(err) }()

	stmt, args, err := query.Update("accounts", set).
		ByID(id).
		RoleGated(auth.RoleNames(accepted), caller).
		InTenantOf(caller).
		Build()
	if err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, apperrors.FromStore(err, "failed to update account", "an account with this email already exists")
	}
	return result.RowsAffected()
}

// Delete removes the accounts of ids that the caller may act on
func (s *PostgresStore) Delete(ctx context.Context, caller int64, accepted []auth.Role, ids []int64) (n int64, err error) {
	ctx, done := s.observe(ctx, "delete")
	defer func() { done(err) }()

	stmt, args, err := query.Delete("accounts").
		ByIDs(ids).
		RoleGated(auth.RoleNames(accepted), caller).
		InTenantOf(caller).
		Build()
	if err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete accounts: %w", err)
	}
	return result.RowsAffected()
}

// List returns every account, or those of the caller's tenant
func (s *PostgresStore) List(ctx context.Context, scope auth.ListScope, caller int64) (accounts []Account, err error) {
	ctx, done := s.observe(ctx, "list")
	defer func() { done(err) }()

	var rows *sql.Rows
	switch scope {
	case auth.ListAll:
		rows, err = s.reader.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY "ID"`)
	case auth.ListTenant:
		rows, err = s.reader.QueryContext(ctx,
			`SELECT `+accountColumns+` FROM accounts WHERE entreprise_id IN `+query.TenantOf(1)+` ORDER BY "ID"`, caller)
	default:
		return nil, auth.ErrMissingPrivilege
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts = []Account{}
	for rows.Next() {
		var (
			a            Account
			activation   sql.NullTime
			deactivation sql.NullTime
		)
		if err := rows.Scan(&a.ID, &a.Nom, &a.Email, &a.Role, &a.Type, &activation, &deactivation); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		a.ActivationDate = nullTime(activation)
		a.DeactivationDate = nullTime(deactivation)
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
