package sqlite

import (
	"database/sql"
	"fmt"
)

type migration struct {
	version int
	name    string
	sql     string
}

var migrations = []migration{
	{1, "create_notes_table", createNotesTable},
	{2, "create_notes_position_index", createNotesPositionIndex},
}

const createNotesTable = `
	CREATE TABLE IF NOT EXISTS notes (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		title TEXT NOT NULL,
		body TEXT NOT NULL,
		created_at TEXT NOT NULL,
		tags TEXT NOT NULL DEFAULT '[]'
	)
`

const createNotesPositionIndex = `
	CREATE UNIQUE INDEX IF NOT EXISTS idx_notes_position ON notes(position)
`

// applyMigrations applies all database migrations in order.
func applyMigrations(db *sql.DB) error {
	if err := createMigrationsTable(db); err != nil {
		return err
	}

	for _, m := range migrations {
		applied, err := isMigrationApplied(db, m.version)
		if err != nil {
			return fmt.Errorf("could not check migration %d: %w", m.version, err)
		}
		if applied {
			continue
		}

		if _, err := db.Exec(m.sql); err != nil {
			return fmt.Errorf("could not apply migration %d (%s): %w", m.version, m.name, err)
		}
		if err := recordMigration(db, m.version, m.name); err != nil {
			return fmt.Errorf("could not record migration %d: %w", m.version, err)
		}
	}

	return nil
}

// createMigrationsTable creates the migrations tracking table.
func createMigrationsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

// isMigrationApplied checks if a migration has been applied.
func isMigrationApplied(db *sql.DB, version int) (bool, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM migrations WHERE version = ?", version).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// recordMigration records that a migration has been applied.
func recordMigration(db *sql.DB, version int, name string) error {
	_, err := db.Exec("INSERT INTO migrations (version, name) VALUES (?, ?)", version, name)
	return err
}
