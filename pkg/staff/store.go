package staff

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/platinummonkey/staffing/pkg/apperrors"
	"github.com/platinummonkey/staffing/pkg/observability"
	"github.com/platinummonkey/staffing/pkg/query"
)

var (
	ErrStaffNotFound   = errors.New("staff not found")
	ErrEventNotFound   = errors.New("event not found")
	ErrNotInTenant     = errors.New("staff or event outside the caller's tenant")
	ErrAlreadyAssigned = errors.New("staff already assigned to event")
	ErrNotAssigned     = errors.New("staff not assigned to event")
)

const (
	staffColumns      = `"ID", nom, prenom, role, departement, num_tel, email, team_id, agence_id, available`
	assignmentColumns = `"ID", staff_id, evenement_id, date_debut, date_fin, has_agency`
	availabilityCols  = `"ID", nom, available`

	listingSelect = `
		SELECT s."ID", s.nom, s.prenom, s.email, s.departement, s.num_tel, s.role, s.available, s.agence_id,
			t.nom AS team_nom, a.nom AS agence_nom`
	listingJoins = `
		FROM staff s
		LEFT JOIN team t ON t."ID" = s.team_id
		LEFT JOIN agence a ON a."ID" = s.agence_id`
)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// PostgresStore persists staff, agencies and event assignments
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
	ctx, span := observability.StartSpan(ctx, "staff."+op)
	return ctx, func(err error) {
		observability.EndSpan(span, err)
		s.metrics.ObserveStore("staff."+op, start, err)
	}
}

// withTx runs fn in a transaction, rolling back when fn fails
func (s *PostgresStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func scanStaff(row rowScanner) (*Staff, error) {
	var st Staff
	err := row.Scan(&st.ID, &st.Nom, &st.Prenom, &st.Role, &st.Departement, &st.NumTel, &st.Email,
		&st.TeamID, &st.AgenceID, &st.Available)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func scanAssignment(row rowScanner) (*Assignment, error) {
	var a Assignment
	if err := row.Scan(&a.ID, &a.StaffID, &a.EvenementID, &a.DateDebut, &a.DateFin, &a.HasAgency); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanAvailability(row rowScanner) (*Availability, error) {
	var a Availability
	if err := row.Scan(&a.ID, &a.Nom, &a.Available); err != nil {
		return nil, err
	}
	return &a, nil
}

func insertStaff(ctx context.Context, q queryRower, caller int64, st NewStaff) (*Staff, error) {
	row := q.QueryRowContext(ctx, `
		INSERT INTO staff (nom, prenom, role, departement, num_tel, email, team_id, agence_id, available, entreprise_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, `+query.TenantOf(10)+`)
		RETURNING `+staffColumns,
		st.Nom, st.Prenom, st.Role, st.Departement, st.NumTel, st.Email, st.TeamID, st.AgenceID, st.Available, caller)

	created, err := scanStaff(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create staff: %w", err)
	}
	return created, nil
}

// AgencyExists reports whether agency id exists
func (s *PostgresStore) AgencyExists(ctx context.Context, id int64) (ok bool, err error) {
	ctx, done := s.observe(ctx, "agency_exists")
	defer func() { done(err) }()

	var one int
	err = s.reader.QueryRowContext(ctx, `SELECT 1 FROM agence WHERE "ID" = $1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check agency: %w", err)
	}
	return true, nil
}

// ListAgencies returns every agency ordered by name
func (s *PostgresStore) ListAgencies(ctx context.Context) (agencies []Agency, err error) {
	ctx, done := s.observe(ctx, "list_agencies")
	defer func() { done(err) }()

	rows, err := s.reader.QueryContext(ctx, `SELECT a."ID", a.nom FROM agence a ORDER BY a.nom ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list agencies: %w", err)
	}
	defer rows.Close()

	agencies = []Agency{}
	for rows.Next() {
		var a Agency
		if err := rows.Scan(&a.ID, &a.Nom); err != nil {
			return nil, fmt.Errorf("failed to scan agency: %w", err)
		}
		agencies = append(agencies, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list agencies: %w", err)
	}
	return agencies, nil
}

// AgencyColumns describes the columns of the agence table
func (s *PostgresStore) AgencyColumns(ctx context.Context) (columns []Column, err error) {
	ctx, done := s.observe(ctx, "agency_columns")
	defer func() { done(err) }()

	rows, err := s.reader.QueryContext(ctx, `
		SELECT column_name, data_type, character_maximum_length, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = 'agence'
		ORDER BY ordinal_position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to describe agence: %w", err)
	}
	defer rows.Close()

	columns = []Column{}
	for rows.Next() {
		var c Column
		if err := rows.Scan(&c.ColumnName, &c.DataType, &c.CharacterMaximumLength, &c.IsNullable, &c.ColumnDefault); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		columns = append(columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to describe agence: %w", err)
	}
	return columns, nil
}

// Create inserts a staff member under the caller's tenant
func (s *PostgresStore) Create(ctx context.Context, caller int64, st NewStaff) (created *Staff, err error) {
	ctx, done := s.observe(ctx, "create")
	defer func() { done(err) }()

	return insertStaff(ctx, s.db, caller, st)
}

// CreateWithAssignment inserts a staff member and, when assignment is not
// nil, links it to an event of the caller's tenant. Nothing is written
// unless both succeed.
func (s *PostgresStore) CreateWithAssignment(ctx context.Context, caller int64, st NewStaff, assignment *NewAssignment) (result *Created, err error) {
	ctx, done := s.observe(ctx, "create_with_assignment")
	defer func() { done(err) }()

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		created, err := insertStaff(ctx, tx, caller, st)
		if err != nil {
			return err
		}
		result = &Created{Staff: created}
		if assignment == nil {
			return nil
		}

		var one int
		err = tx.QueryRowContext(ctx, `
			SELECT 1 FROM evenement
			WHERE "ID" = $1 AND client_id IN (SELECT "ID" FROM "Clients" WHERE entreprise_id = `+query.TenantOf(2)+`)
		`, assignment.EvenementID, caller).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrEventNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to check event: %w", err)
		}

		row := tx.QueryRowContext(ctx, `
			INSERT INTO "Liste_staff" (staff_id, evenement_id, date_debut, date_fin, has_agency)
			VALUES ($1, $2, $3, $4, true)
			RETURNING `+assignmentColumns,
			created.ID, assignment.EvenementID, assignment.DateDebut, assignment.DateFin)
		result.Assignment, err = scanAssignment(row)
		if err != nil {
			return fmt.Errorf("failed to create assignment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Update applies set to one staff member of the caller's tenant
func (s *PostgresStore) Update(ctx context.Context, caller, id int64, set *query.Set) (updated *Staff, err error) {
	ctx, done := s.observe(ctx, "update")
	defer func() { done(err) }()

	stmt, args, err := query.Update("staff", set).
		ByID(id).
		InTenantOf(caller).
		Returning(staffColumns).
		Build()
	if err != nil {
		return nil, err
	}

	updated, err = scanStaff(s.db.QueryRowContext(ctx, stmt, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStaffNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update staff: %w", err)
	}
	return updated, nil
}

// Delete removes one staff member of the caller's tenant. Its assignments
// go with it through the foreign key.
func (s *PostgresStore) Delete(ctx context.Context, caller, id int64) (deleted *Staff, err error) {
	ctx, done := s.observe(ctx, "delete")
	defer func() { done(err) }()

	stmt, args, err := query.Delete("staff").
		ByID(id).
		InTenantOf(caller).
		Returning(staffColumns).
		Build()
	if err != nil {
		return nil, err
	}

	deleted, err = scanStaff(s.db.QueryRowContext(ctx, stmt, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStaffNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete staff: %w", err)
	}
	return deleted, nil
}

// DeleteWithAssignments removes a staff member of the caller's tenant and
// reports the assignments removed with it
func (s *PostgresStore) DeleteWithAssignments(ctx context.Context, caller, id int64) (result *Deleted, err error) {
	ctx, done := s.observe(ctx, "delete_with_assignments")
	defer func() { done(err) }()

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			DELETE FROM "Liste_staff"
			WHERE staff_id = $1 AND staff_id IN (SELECT "ID" FROM staff WHERE entreprise_id = `+query.TenantOf(2)+`)
			RETURNING `+assignmentColumns, id, caller)
		if err != nil {
			return fmt.Errorf("failed to delete assignments: %w", err)
		}
		assignments := []*Assignment{}
		for rows.Next() {
			a, err := scanAssignment(rows)
			if err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan assignment: %w", err)
			}
			assignments = append(assignments, a)
		}
		if err := rows.Close(); err != nil {
			return fmt.Errorf("failed to delete assignments: %w", err)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to delete assignments: %w", err)
		}

		deleted, err := scanStaff(tx.QueryRowContext(ctx, `
			DELETE FROM staff WHERE "ID" = $1 AND entreprise_id = `+query.TenantOf(2)+`
			RETURNING `+staffColumns, id, caller))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrStaffNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to delete staff: %w", err)
		}

		result = &Deleted{Staff: deleted, Assignments: assignments}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *PostgresStore) listings(ctx context.Context, withAssignment bool, stmt string, args ...interface{}) ([]Listing, error) {
	rows, err := s.reader.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	defer rows.Close()

	listings := []Listing{}
	for rows.Next() {
		var l Listing
		dest := []interface{}{&l.ID, &l.Nom, &l.Prenom, &l.Email, &l.Departement, &l.NumTel, &l.Role,
			&l.Available, &l.AgenceID, &l.TeamNom, &l.AgenceNom}
		if withAssignment {
			dest = append(dest, &l.AssignmentID)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan staff: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	return listings, nil
}

// List returns the staff of the caller's tenant, optionally only the
// available ones
func (s *PostgresStore) List(ctx context.Context, caller int64, availableOnly bool) (listings []Listing, err error) {
	op := "list"
	filter := ""
	if availableOnly {
		op, filter = "list_available", " AND s.available = true"
	}
	ctx, done := s.observe(ctx, op)
	defer func() { done(err) }()

	return s.listings(ctx, false,
		listingSelect+listingJoins+`
		WHERE s.entreprise_id = `+query.TenantOf(1)+filter+`
		ORDER BY s."ID"`, caller)
}

// ListByEvent returns the tenant staff assigned to an event with their
// assignment id
func (s *PostgresStore) ListByEvent(ctx context.Context, caller, eventID int64) (listings []Listing, err error) {
	ctx, done := s.observe(ctx, "list_by_event")
	defer func() { done(err) }()

	return s.listings(ctx, true,
		listingSelect+`, ls."ID" AS assignment_id`+listingJoins+`
		JOIN "Liste_staff" ls ON ls.staff_id = s."ID"
		WHERE ls.evenement_id = $1 AND s.entreprise_id = `+query.TenantOf(2)+`
		ORDER BY s."ID"`, eventID, caller)
}

// AvailableBetween returns the tenant staff with no assignment overlapping
// [start, end). Assignment dates fall back to the event dates.
func (s *PostgresStore) AvailableBetween(ctx context.Context, caller int64, start, end time.Time) (listings []Listing, err error) {
	ctx, done := s.observe(ctx, "available_between")
	defer func() { done(err) }()

	return s.listings(ctx, false,
		listingSelect+listingJoins+`
		WHERE s.entreprise_id = `+query.TenantOf(1)+`
		AND NOT EXISTS (
			SELECT 1 FROM "Liste_staff" ls
			JOIN evenement e ON e."ID" = ls.evenement_id
			WHERE ls.staff_id = s."ID"
			AND COALESCE(ls.date_debut, e.date_debut, '-infinity') < $3
			AND COALESCE(ls.date_fin, e.date_fin, 'infinity') > $2
		)
		ORDER BY s."ID"`, caller, start, end)
}

// Participation returns the (staff, event) pairs of tenant events that
// started within the last five months
func (s *PostgresStore) Participation(ctx context.Context, caller int64) (result []Participation, err error) {
	ctx, done := s.observe(ctx, "participation")
	defer func() { done(err) }()

	rows, err := s.reader.QueryContext(ctx, `
		SELECT ls.staff_id, e.date_debut, e.nom
		FROM evenement e
		LEFT JOIN "Liste_staff" ls ON ls.evenement_id = e."ID"
		WHERE e.client_id IN (SELECT "ID" FROM "Clients" WHERE entreprise_id = `+query.TenantOf(1)+`)
		AND e.date_debut BETWEEN date_trunc('month', CURRENT_DATE) - INTERVAL '5 months' AND CURRENT_DATE
		ORDER BY e.date_debut
	`, caller)
	if err != nil {
		return nil, fmt.Errorf("failed to get participation: %w", err)
	}
	defer rows.Close()

	result = []Participation{}
	for rows.Next() {
		var p Participation
		if err := rows.Scan(&p.StaffID, &p.DateDebut, &p.Nom); err != nil {
			return nil, fmt.Errorf("failed to scan participation: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get participation: %w", err)
	}
	return result, nil
}

// EventsOf returns the events a staff member of the caller's tenant is
// assigned to
func (s *PostgresStore) EventsOf(ctx context.Context, caller, staffID int64) (events []StaffEvent, err error) {
	ctx, done := s.observe(ctx, "events_of")
	defer func() { done(err) }()

	rows, err := s.reader.QueryContext(ctx, `
		SELECT e."ID" AS event_id, e.nom AS event_name, e.date_debut, e.date_fin, e.type, e.edition,
			e.nbr_invite, e.description, e.address, e.client_id, c.nom AS client_name
		FROM evenement e
		JOIN "Liste_staff" ls ON ls.evenement_id = e."ID"
		JOIN staff s ON s."ID" = ls.staff_id
		LEFT JOIN "Clients" c ON c."ID" = e.client_id
		WHERE s."ID" = $1 AND s.entreprise_id = `+query.TenantOf(2)+`
		ORDER BY e.date_debut
	`, staffID, caller)
	if err != nil {
		return nil, fmt.Errorf("failed to get staff events: %w", err)
	}
	defer rows.Close()

	events = []StaffEvent{}
	for rows.Next() {
		var e StaffEvent
		if err := rows.Scan(&e.EventID, &e.EventName, &e.DateDebut, &e.DateFin, &e.Type, &e.Edition,
			&e.NbrInvite, &e.Description, &e.Address, &e.ClientID, &e.ClientName); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get staff events: %w", err)
	}
	return events, nil
}

// EventStaff returns the tenant staff of one event
func (s *PostgresStore) EventStaff(ctx context.Context, caller, eventID int64) (members []EventStaff, err error) {
	ctx, done := s.observe(ctx, "event_staff")
	defer func() { done(err) }()

	rows, err := s.reader.QueryContext(ctx, `
		SELECT st.nom AS staff_name, st.prenom AS staff_lastname, st.num_tel, st.email, st.departement,
			st.role, st.available, te.nom AS team_nom
		FROM "Liste_staff" ls
		JOIN staff st ON st."ID" = ls.staff_id
		LEFT JOIN team te ON te."ID" = st.team_id
		WHERE ls.evenement_id = $1 AND st.entreprise_id = `+query.TenantOf(2)+`
		ORDER BY st."ID"
	`, eventID, caller)
	if err != nil {
		return nil, fmt.Errorf("failed to get event staff: %w", err)
	}
	defer rows.Close()

	members = []EventStaff{}
	for rows.Next() {
		var m EventStaff
		if err := rows.Scan(&m.StaffName, &m.StaffLastname, &m.NumTel, &m.Email, &m.Departement,
			&m.Role, &m.Available, &m.TeamNom); err != nil {
			return nil, fmt.Errorf("failed to scan staff: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get event staff: %w", err)
	}
	return members, nil
}

// AgencyStaffByEvent returns the agency staff of one event with their
// assignment dates
func (s *PostgresStore) AgencyStaffByEvent(ctx context.Context, caller, eventID int64) (members []AgencyStaff, err error) {
	ctx, done := s.observe(ctx, "agency_staff_by_event")
	defer func() { done(err) }()

	rows, err := s.reader.QueryContext(ctx, `
		SELECT s."ID", s.nom, s.prenom, s.email, s.departement, s.num_tel, s.role, s.available, s.agence_id,
			a.nom AS agence_nom, ls.date_debut, ls.date_fin, ls.has_agency
		FROM staff s
		JOIN "Liste_staff" ls ON ls.staff_id = s."ID"
		JOIN agence a ON a."ID" = s.agence_id
		WHERE ls.evenement_id = $1 AND s.agence_id IS NOT NULL AND s.entreprise_id = `+query.TenantOf(2)+`
		ORDER BY s."ID"
	`, eventID, caller)
	if err != nil {
		return nil, fmt.Errorf("failed to get agency staff: %w", err)
	}
	defer rows.Close()

	members = []AgencyStaff{}
	for rows.Next() {
		var m AgencyStaff
		if err := rows.Scan(&m.ID, &m.Nom, &m.Prenom, &m.Email, &m.Departement, &m.NumTel, &m.Role, &m.Available,
			&m.AgenceID, &m.AgenceNom, &m.DateDebut, &m.DateFin, &m.HasAgency); err != nil {
			return nil, fmt.Errorf("failed to scan staff: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get agency staff: %w", err)
	}
	return members, nil
}

// Assign links a staff member to an event and marks it unavailable. Both
// must belong to the caller's tenant.
func (s *PostgresStore) Assign(ctx context.Context, caller, staffID, eventID int64) (result *Assigned, err error) {
	ctx, done := s.observe(ctx, "assign")
	defer func() { done(err) }()

	var one int
	err = s.db.QueryRowContext(ctx, `
		SELECT 1 FROM staff s
		JOIN evenement e ON e.client_id IN (SELECT c."ID" FROM "Clients" c WHERE c.entreprise_id = s.entreprise_id)
		WHERE s."ID" = $1 AND e."ID" = $2 AND s.entreprise_id = `+query.TenantOf(3)+`
	`, staffID, eventID, caller).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotInTenant
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check staff and event: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT 1 FROM "Liste_staff" WHERE staff_id = $1 AND evenement_id = $2`, staffID, eventID).Scan(&one)
	if err == nil {
		return nil, ErrAlreadyAssigned
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check assignment: %w", err)
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		assignment, err := scanAssignment(tx.QueryRowContext(ctx, `
			INSERT INTO "Liste_staff" (staff_id, evenement_id) VALUES ($1, $2)
			RETURNING `+assignmentColumns, staffID, eventID))
		if apperrors.IsUniqueViolation(err) {
			return ErrAlreadyAssigned
		}
		if err != nil {
			return fmt.Errorf("failed to create assignment: %w", err)
		}

		staff, err := scanAvailability(tx.QueryRowContext(ctx,
			`UPDATE staff SET available = false WHERE "ID" = $1 RETURNING `+availabilityCols, staffID))
		if err != nil {
			return fmt.Errorf("failed to mark staff unavailable: %w", err)
		}

		result = &Assigned{Assignment: assignment, Staff: staff}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Unassign removes the assignment of a tenant staff member to an event and
// marks it available again
func (s *PostgresStore) Unassign(ctx context.Context, caller, staffID, eventID int64) (result *Unassigned, err error) {
	ctx, done := s.observe(ctx, "unassign")
	defer func() { done(err) }()

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		assignment, err := scanAssignment(tx.QueryRowContext(ctx, `
			DELETE FROM "Liste_staff"
			WHERE staff_id = $1 AND evenement_id = $2
			AND staff_id IN (SELECT "ID" FROM staff WHERE entreprise_id = `+query.TenantOf(3)+`)
			RETURNING `+assignmentColumns, staffID, eventID, caller))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotAssigned
		}
		if err != nil {
			return fmt.Errorf("failed to delete assignment: %w", err)
		}

		staff, err := scanAvailability(tx.QueryRowContext(ctx,
			`UPDATE staff SET available = true WHERE "ID" = $1 RETURNING `+availabilityCols, staffID))
		if err != nil {
			return fmt.Errorf("failed to mark staff available: %w", err)
		}

		result = &Unassigned{Assignment: assignment, Staff: staff}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
