package teams

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/platinummonkey/staffing/pkg/observability"
	"github.com/platinummonkey/staffing/pkg/query"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrNoTenant        = errors.New("account has no entreprise")
	ErrTeamNotFound    = errors.New("team not found")
	ErrNoStaffMoved    = errors.New("no staff matched")
)

const teamColumns = `"ID", nom, entreprise_id`

// PostgresStore persists teams and staff membership
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
	ctx, span := observability.StartSpan(ctx, "teams."+op)
	return ctx, func(err error) {
		observability.EndSpan(span, err)
		s.metrics.ObserveStore("teams."+op, start, err)
	}
}

// Create inserts a team under the caller's tenant
func (s *PostgresStore) Create(ctx context.Context, caller int64, nom string) (team *Team, err error) {
	ctx, done := s.observe(ctx, "create")
	defer func() { done(err) }()

	var tenant sql.NullInt64
	err = s.db.QueryRowContext(ctx, `SELECT entreprise_id FROM accounts WHERE "ID" = $1`, caller).Scan(&tenant)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if !tenant.Valid {
		return nil, ErrNoTenant
	}

	var t Team
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO team (nom, entreprise_id) VALUES ($1, $2) RETURNING `+teamColumns,
		nom, tenant.Int64).Scan(&t.ID, &t.Nom, &t.EntrepriseID)
	if err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return &t, nil
}

// Rename renames one team of the caller's tenant
func (s *PostgresStore) Rename(ctx context.Context, caller, id int64, set *query.Set) (team *Team, err error) {
	ctx, done := s.observe(ctx, "rename")
	defer func() { done(err) }()

	stmt, args, err := query.Update("team", set).
		ByID(id).
		InTenantOf(caller).
		Returning(teamColumns).
		Build()
	if err != nil {
		return nil, err
	}

	var t Team
	err = s.db.QueryRowContext(ctx, stmt, args...).Scan(&t.ID, &t.Nom, &t.EntrepriseID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update team: %w", err)
	}
	return &t, nil
}

// Delete detaches the staff of the given tenant teams and removes them
func (s *PostgresStore) Delete(ctx context.Context, caller int64, ids []int64) (n int64, err error) {
	ctx, done := s.observe(ctx, "delete")
	defer func() { done(err) }()

	stmt, args, err := query.Delete("team").
		ByIDs(ids).
		InTenantOf(caller).
		Build()
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx,
		`UPDATE staff SET team_id = NULL WHERE team_id = ANY($1) AND entreprise_id = `+query.TenantOf(2),
		pq.Array(ids), caller)
	if err != nil {
		return 0, fmt.Errorf("failed to detach staff: %w", err)
	}

	result, err := tx.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete teams: %w", err)
	}
	n, err = result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to delete teams: %w", err)
	}
	if n == 0 {
		err = ErrTeamNotFound
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return n, nil
}

// List returns the teams of the caller's tenant
func (s *PostgresStore) List(ctx context.Context, caller int64) (teams []Team, err error) {
	ctx, done := s.observe(ctx, "list")
	defer func() { done(err) }()

	rows, err := s.reader.QueryContext(ctx,
		`SELECT `+teamColumns+` FROM team WHERE entreprise_id = `+query.TenantOf(1)+` ORDER BY "ID"`, caller)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	teams = []Team{}
	for rows.Next() {
		var t Team
		if err := rows.Scan(&t.ID, &t.Nom, &t.EntrepriseID); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return teams, nil
}

// Members returns every staff member of the caller's tenant
func (s *PostgresStore) Members(ctx context.Context, caller int64) (members []Member, err error) {
	ctx, done := s.observe(ctx, "members")
	defer func() { done(err) }()

	rows, err := s.reader.QueryContext(ctx, `
		SELECT "ID", nom, prenom, num_tel, email, departement, role, team_id, entreprise_id, agence_id, available
		FROM staff
		WHERE entreprise_id = `+query.TenantOf(1)+`
		ORDER BY "ID"
	`, caller)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	defer rows.Close()

	members = []Member{}
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.Nom, &m.Prenom, &m.NumTel, &m.Email, &m.Departement, &m.Role,
			&m.TeamID, &m.EntrepriseID, &m.AgenceID, &m.Available); err != nil {
			return nil, fmt.Errorf("failed to scan staff: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	return members, nil
}

// SetTeam moves the given tenant staff into team, or out of any team when
// team is 0. It returns the number of staff moved.
func (s *PostgresStore) SetTeam(ctx context.Context, caller int64, staffIDs []int64, team int64) (n int64, err error) {
	ctx, done := s.observe(ctx, "set_team")
	defer func() { done(err) }()

	if team != 0 {
		var one int
		err = s.db.QueryRowContext(ctx,
			`SELECT 1 FROM team WHERE "ID" = $1 AND entreprise_id = `+query.TenantOf(2), team, caller).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrTeamNotFound
		}
		if err != nil {
			return 0, fmt.Errorf("failed to check team: %w", err)
		}
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE staff SET team_id = $1 WHERE "ID" = ANY($2) AND entreprise_id = `+query.TenantOf(3),
		sql.NullInt64{Int64: team, Valid: team != 0}, pq.Array(staffIDs), caller)
	if err != nil {
		return 0, fmt.Errorf("failed to set team: %w", err)
	}
	n, err = result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to set team: %w", err)
	}
	if n == 0 {
		return 0, ErrNoStaffMoved
	}
	return n, nil
}
