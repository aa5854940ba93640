package postgres

import (
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"
)

// Migration is one embedded SQL file and whether it has been applied
type Migration struct {
	Version   string
	Applied   bool
	AppliedAt *time.Time
}

const migrationsTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version VARCHAR(255) PRIMARY KEY,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)
`

// RunMigrations applies every pending migration in migrationsFS, in name
// order, each in its own transaction. It returns the number applied.
func RunMigrations(db *sql.DB, migrationsFS fs.FS) (int, error) {
	status, err := MigrationStatus(db, migrationsFS)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, m := range status {
		if m.Applied {
			continue
		}

		content, err := fs.ReadFile(migrationsFS, m.Version)
		if err != nil {
			return applied, fmt.Errorf("failed to read migration file %s: %w", m.Version, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return applied, fmt.Errorf("failed to start transaction for %s: %w", m.Version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return applied, fmt.Errorf("failed to execute migration %s: %w", m.Version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES ($1)", m.Version); err != nil {
			tx.Rollback()
			return applied, fmt.Errorf("failed to record migration %s: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return applied, fmt.Errorf("failed to commit migration %s: %w", m.Version, err)
		}
		applied++
	}

	return applied, nil
}

// MigrationStatus lists the migrations in migrationsFS with their state
func MigrationStatus(db *sql.DB, migrationsFS fs.FS) ([]Migration, error) {
	if _, err := db.Exec(migrationsTable); err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	appliedAt := make(map[string]time.Time)
	rows, err := db.Query("SELECT version, applied_at FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var version string
		var at sql.NullTime
		if err := rows.Scan(&version, &at); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		appliedAt[version] = at.Time
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	entries, err := fs.ReadDir(migrationsFS, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	out := make([]Migration, 0, len(files))
	for _, name := range files {
		m := Migration{Version: name}
		if at, ok := appliedAt[name]; ok {
			m.Applied = true
			at := at
			m.AppliedAt = &at
		}
		out = append(out, m)
	}
	return out, nil
}
