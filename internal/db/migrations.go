package db

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Column types are written as placeholders so the same statements run on
// PostgreSQL and on the SQLite used by tests.
var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS dossiers (
		id {{uuid}} PRIMARY KEY,
		dossier_number VARCHAR(64) NOT NULL,
		creation_date DATE NOT NULL,
		status VARCHAR(32) NOT NULL,
		next_deadline TEXT,
		next_action TEXT,
		additional_notes TEXT,
		created_at {{timestamp}} NOT NULL,
		updated_at {{timestamp}} NOT NULL
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_dossiers_number ON dossiers (dossier_number);`,
	`CREATE INDEX IF NOT EXISTS idx_dossiers_created_at ON dossiers (created_at);`,
	`CREATE TABLE IF NOT EXISTS tenants (
		id {{uuid}} PRIMARY KEY,
		dossier_id {{uuid}} NOT NULL REFERENCES dossiers(id) ON DELETE CASCADE,
		first_name VARCHAR(255) NOT NULL,
		last_name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		phone VARCHAR(64) NOT NULL,
		address TEXT NOT NULL,
		city VARCHAR(255) NOT NULL,
		postal_code VARCHAR(16) NOT NULL,
		created_at {{timestamp}} NOT NULL,
		updated_at {{timestamp}} NOT NULL
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_tenants_dossier_id ON tenants (dossier_id);`,
	`CREATE TABLE IF NOT EXISTS landlords (
		id {{uuid}} PRIMARY KEY,
		dossier_id {{uuid}} NOT NULL REFERENCES dossiers(id) ON DELETE CASCADE,
		type VARCHAR(16) NOT NULL,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		phone VARCHAR(64) NOT NULL,
		created_at {{timestamp}} NOT NULL,
		updated_at {{timestamp}} NOT NULL
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_landlords_dossier_id ON landlords (dossier_id);`,
	`CREATE TABLE IF NOT EXISTS unpaid_amounts (
		id {{uuid}} PRIMARY KEY,
		dossier_id {{uuid}} NOT NULL REFERENCES dossiers(id) ON DELETE CASCADE,
		amount NUMERIC(12,2) NOT NULL CHECK (amount >= 0),
		months INTEGER NOT NULL CHECK (months >= 1),
		since DATE NOT NULL,
		reason VARCHAR(16) NOT NULL,
		previous_actions TEXT,
		created_at {{timestamp}} NOT NULL,
		updated_at {{timestamp}} NOT NULL
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_unpaid_amounts_dossier_id ON unpaid_amounts (dossier_id);`,
	`CREATE TABLE IF NOT EXISTS status_tracking (
		id {{uuid}} PRIMARY KEY,
		dossier_id {{uuid}} NOT NULL REFERENCES dossiers(id) ON DELETE CASCADE,
		status VARCHAR(32) NOT NULL,
		date {{timestamp}} NOT NULL,
		notes TEXT,
		created_at {{timestamp}} NOT NULL,
		updated_at {{timestamp}} NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_status_tracking_dossier_date ON status_tracking (dossier_id, date);`,
	`CREATE TABLE IF NOT EXISTS diagnostics (
		dossier_id {{uuid}} PRIMARY KEY REFERENCES dossiers(id) ON DELETE CASCADE,
		document {{json}} NOT NULL,
		created_at {{timestamp}} NOT NULL,
		updated_at {{timestamp}} NOT NULL
	);`,
}

func columnTypes(dialect string) *strings.Replacer {
	if dialect == "sqlite" {
		return strings.NewReplacer(
			"{{uuid}}", "TEXT",
			"{{timestamp}}", "DATETIME",
			"{{json}}", "TEXT",
		)
	}
	return strings.NewReplacer(
		"{{uuid}}", "UUID",
		"{{timestamp}}", "TIMESTAMPTZ",
		"{{json}}", "JSONB",
	)
}

// Migrate creates the schema. Statements are idempotent.
func Migrate(db *gorm.DB) error {
	types := columnTypes(db.Dialector.Name())
	for i, stmt := range migrationStatements {
		if err := db.Exec(types.Replace(stmt)).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
