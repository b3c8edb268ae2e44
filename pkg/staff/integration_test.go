//go:build integration

package staff

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/platinummonkey/staffing/pkg/query"
	storage "github.com/platinummonkey/staffing/pkg/storage/postgres"
)

// tenantFixture holds the rows seeded for one tenant
type tenantFixture struct {
	account int64
	event   int64
}

func setupPostgres(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("staffing_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, storage.RunMigrations(ctx, db, nil))
	return db
}

func seedTenant(t *testing.T, db *sql.DB, name string) tenantFixture {
	t.Helper()
	ctx := context.Background()
	var f tenantFixture
	var tenant, client int64

	require.NoError(t, db.QueryRowContext(ctx, `INSERT INTO entreprise (nom) VALUES ($1) RETURNING "ID"`, name).Scan(&tenant))
	require.NoError(t, db.QueryRowContext(ctx, `
		INSERT INTO accounts (entreprise_id, nom, email, password, role) VALUES ($1, $2, $3, 'x', 'admin') RETURNING "ID"
	`, tenant, name, name+"@example.com").Scan(&f.account))
	require.NoError(t, db.QueryRowContext(ctx,
		`INSERT INTO "Clients" (entreprise_id, nom) VALUES ($1, $2) RETURNING "ID"`, tenant, name+" client").Scan(&client))
	require.NoError(t, db.QueryRowContext(ctx, `
		INSERT INTO evenement (client_id, nom, date_debut, date_fin) VALUES ($1, 'Gala', $2, $3) RETURNING "ID"
	`, client, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 6, 3, 0, 0, 0, 0, time.UTC)).Scan(&f.event))
	return f
}

func TestIntegration_Staff(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupPostgres(t)
	ctx := context.Background()
	store := NewPostgresStore(db, nil, nil)

	acme := seedTenant(t, db, "acme")
	globex := seedTenant(t, db, "globex")

	var agency int64
	require.NoError(t, db.QueryRowContext(ctx, `INSERT INTO agence (nom) VALUES ('Alpha') RETURNING "ID"`).Scan(&agency))

	newStaff := func(nom string) NewStaff {
		return NewStaff{Nom: nom, Role: "hostess", AgenceID: agency, Available: true}
	}

	t.Run("joint creation round-trips the assignment id", func(t *testing.T) {
		created, err := store.CreateWithAssignment(ctx, acme.account, newStaff("Durand"), &NewAssignment{EvenementID: acme.event})
		require.NoError(t, err)
		require.NotNil(t, created.Assignment)

		listings, err := store.ListByEvent(ctx, acme.account, acme.event)
		require.NoError(t, err)

		var found bool
		for _, l := range listings {
			if l.ID == created.Staff.ID {
				found = true
				require.NotNil(t, l.AssignmentID)
				assert.Equal(t, created.Assignment.ID, *l.AssignmentID)
			}
		}
		assert.True(t, found)
	})

	t.Run("foreign event leaves no staff behind", func(t *testing.T) {
		_, err := store.CreateWithAssignment(ctx, acme.account, newStaff("Phantom"), &NewAssignment{EvenementID: globex.event})
		require.ErrorIs(t, err, ErrEventNotFound)

		listings, err := store.List(ctx, acme.account, false)
		require.NoError(t, err)
		for _, l := range listings {
			assert.NotEqual(t, "Phantom", l.Nom)
		}
	})

	t.Run("availability follows the assignment", func(t *testing.T) {
		st, err := store.Create(ctx, acme.account, newStaff("Martin"))
		require.NoError(t, err)

		countAssignments := func() int {
			var n int
			require.NoError(t, db.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM "Liste_staff" WHERE staff_id = $1 AND evenement_id = $2`, st.ID, acme.event).Scan(&n))
			return n
		}
		available := func() bool {
			var v bool
			require.NoError(t, db.QueryRowContext(ctx, `SELECT available FROM staff WHERE "ID" = $1`, st.ID).Scan(&v))
			return v
		}

		_, err = store.Assign(ctx, acme.account, st.ID, acme.event)
		require.NoError(t, err)
		assert.False(t, available())
		assert.Equal(t, 1, countAssignments())

		_, err = store.Assign(ctx, acme.account, st.ID, acme.event)
		assert.ErrorIs(t, err, ErrAlreadyAssigned)
		assert.Equal(t, 1, countAssignments())

		_, err = store.Unassign(ctx, acme.account, st.ID, acme.event)
		require.NoError(t, err)
		assert.True(t, available())
		assert.Equal(t, 0, countAssignments())

		_, err = store.Unassign(ctx, acme.account, st.ID, acme.event)
		assert.ErrorIs(t, err, ErrNotAssigned)
	})

	t.Run("tenants are isolated", func(t *testing.T) {
		st, err := store.Create(ctx, acme.account, newStaff("Petit"))
		require.NoError(t, err)

		nom := "Hijacked"
		_, err = store.Update(ctx, globex.account, st.ID, query.NewSet().String("nom", &nom))
		assert.ErrorIs(t, err, ErrStaffNotFound)

		_, err = store.Assign(ctx, globex.account, st.ID, globex.event)
		assert.ErrorIs(t, err, ErrNotInTenant)

		_, err = store.Delete(ctx, globex.account, st.ID)
		assert.ErrorIs(t, err, ErrStaffNotFound)

		listings, err := store.List(ctx, globex.account, false)
		require.NoError(t, err)
		assert.Empty(t, listings)

		deleted, err := store.DeleteWithAssignments(ctx, acme.account, st.ID)
		require.NoError(t, err)
		assert.Equal(t, "Petit", deleted.Staff.Nom)
	})

	t.Run("availability window", func(t *testing.T) {
		busy, err := store.Create(ctx, acme.account, newStaff("Busy"))
		require.NoError(t, err)
		_, err = store.Assign(ctx, acme.account, busy.ID, acme.event)
		require.NoError(t, err)

		free, err := store.AvailableBetween(ctx, acme.account,
			time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC), time.Date(2026, 6, 5, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		for _, l := range free {
			assert.NotEqual(t, busy.ID, l.ID)
		}

		later, err := store.AvailableBetween(ctx, acme.account,
			time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 7, 2, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		var seen bool
		for _, l := range later {
			seen = seen || l.ID == busy.ID
		}
		assert.True(t, seen)
	})

	t.Run("undated assignment overlaps every window", func(t *testing.T) {
		var undated int64
		require.NoError(t, db.QueryRowContext(ctx, `
			INSERT INTO evenement (client_id, nom) SELECT client_id, 'Salon' FROM evenement WHERE "ID" = $1 RETURNING "ID"
		`, acme.event).Scan(&undated))

		st, err := store.Create(ctx, acme.account, newStaff("Open"))
		require.NoError(t, err)
		_, err = store.Assign(ctx, acme.account, st.ID, undated)
		require.NoError(t, err)

		for _, year := range []int{2001, 2026, 2099} {
			free, err := store.AvailableBetween(ctx, acme.account,
				time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(year, 1, 2, 0, 0, 0, 0, time.UTC))
			require.NoError(t, err)
			for _, l := range free {
				assert.NotEqual(t, st.ID, l.ID, "year %d", year)
			}
		}
	})
}
