package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/platinummonkey/staffing/pkg/observability"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// Migrations returns the schema migrations in version order
func Migrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create tenant and account tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS entreprise (
					"ID" SERIAL PRIMARY KEY,
					nom VARCHAR(255) NOT NULL,
					created_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE TABLE IF NOT EXISTS accounts (
					"ID" SERIAL PRIMARY KEY,
					entreprise_id INTEGER REFERENCES entreprise("ID") ON DELETE CASCADE,
					nom VARCHAR(255) NOT NULL,
					email VARCHAR(255) NOT NULL UNIQUE,
					password VARCHAR(255) NOT NULL,
					role VARCHAR(32) NOT NULL CHECK (role IN ('super_admin', 'admin', 'super_user', 'user')),
					type VARCHAR(32) NOT NULL DEFAULT 'permanent' CHECK (type IN ('temporaire', 'permanent')),
					activation_date TIMESTAMP,
					deactivation_date TIMESTAMP,
					token TEXT,
					created_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_accounts_entreprise ON accounts(entreprise_id);
			`,
		},
		{
			Version:     2,
			Description: "Create client and event tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS "Clients" (
					"ID" SERIAL PRIMARY KEY,
					entreprise_id INTEGER NOT NULL REFERENCES entreprise("ID") ON DELETE CASCADE,
					nom VARCHAR(255) NOT NULL
				);

				CREATE TABLE IF NOT EXISTS evenement (
					"ID" SERIAL PRIMARY KEY,
					client_id INTEGER REFERENCES "Clients"("ID") ON DELETE CASCADE,
					nom VARCHAR(255) NOT NULL,
					date_debut TIMESTAMP,
					date_fin TIMESTAMP,
					type VARCHAR(255),
					edition VARCHAR(255),
					nbr_invite INTEGER,
					description TEXT,
					address TEXT
				);

				CREATE INDEX IF NOT EXISTS idx_clients_entreprise ON "Clients"(entreprise_id);
				CREATE INDEX IF NOT EXISTS idx_evenement_client ON evenement(client_id);
			`,
		},
		{
			Version:     3,
			Description: "Create agency, team and staff tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS agence (
					"ID" SERIAL PRIMARY KEY,
					nom VARCHAR(255) NOT NULL
				);

				CREATE TABLE IF NOT EXISTS team (
					"ID" SERIAL PRIMARY KEY,
					nom VARCHAR(255) NOT NULL,
					entreprise_id INTEGER NOT NULL REFERENCES entreprise("ID") ON DELETE CASCADE
				);

				CREATE TABLE IF NOT EXISTS staff (
					"ID" SERIAL PRIMARY KEY,
					nom VARCHAR(255) NOT NULL,
					prenom VARCHAR(255),
					num_tel VARCHAR(64),
					email VARCHAR(255),
					departement VARCHAR(255),
					role VARCHAR(255) NOT NULL,
					team_id INTEGER REFERENCES team("ID") ON DELETE SET NULL,
					entreprise_id INTEGER NOT NULL REFERENCES entreprise("ID") ON DELETE CASCADE,
					agence_id INTEGER REFERENCES agence("ID"),
					available BOOLEAN NOT NULL DEFAULT TRUE
				);

				CREATE INDEX IF NOT EXISTS idx_team_entreprise ON team(entreprise_id);
				CREATE INDEX IF NOT EXISTS idx_staff_entreprise ON staff(entreprise_id);
				CREATE INDEX IF NOT EXISTS idx_staff_team ON staff(team_id);
			`,
		},
		{
			Version:     4,
			Description: "Create event staff assignments",
			SQL: `
				CREATE TABLE IF NOT EXISTS "Liste_staff" (
					"ID" SERIAL PRIMARY KEY,
					staff_id INTEGER NOT NULL REFERENCES staff("ID") ON DELETE CASCADE,
					evenement_id INTEGER NOT NULL REFERENCES evenement("ID") ON DELETE CASCADE,
					date_debut TIMESTAMP,
					date_fin TIMESTAMP,
					has_agency BOOLEAN NOT NULL DEFAULT FALSE,
					UNIQUE (staff_id, evenement_id)
				);

				CREATE INDEX IF NOT EXISTS idx_liste_staff_event ON "Liste_staff"(evenement_id);
			`,
		},
		{
			Version:     5,
			Description: "Require a tenant on every account below super_admin",
			SQL: `
				ALTER TABLE accounts ADD CONSTRAINT accounts_tenant_required
					CHECK (role = 'super_admin' OR entreprise_id IS NOT NULL);
			`,
		},
	}
}

// RunMigrations executes all pending migrations, each in its own transaction
func RunMigrations(ctx context.Context, db *sql.DB, logger *observability.Logger) error {
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}

	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return err
	}

	for _, migration := range Migrations() {
		if applied[migration.Version] {
			continue
		}

		log := logger.WithFields(map[string]interface{}{
			"version":     migration.Version,
			"description": migration.Description,
		})
		log.Info("running migration")

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}

		if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, description) VALUES ($1, $2)",
			migration.Version, migration.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}

		log.Info("migration completed")
	}

	return nil
}

func appliedVersions(ctx context.Context, db *sql.DB) (map[int]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	return applied, rows.Err()
}
