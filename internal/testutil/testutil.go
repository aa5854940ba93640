package testutil

import (
	"database/sql"
	"io/fs"
	"sort"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pratik-mahalle/lexaudit/internal/pkg/logger"
	"github.com/pratik-mahalle/lexaudit/migrations"
)

// FixedTime is the clock used by date-dependent tests
var FixedTime = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

// Clock returns a time source frozen at FixedTime
func Clock() func() time.Time {
	return func() time.Time { return FixedTime }
}

// Logger returns a logger that only reports errors
func Logger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json"})
}

// NewTestDB creates an in-memory SQLite database with the schema applied
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// Each new connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	entries, err := fs.ReadDir(migrations.Files, ".")
	if err != nil {
		t.Fatalf("Failed to read migrations: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := fs.ReadFile(migrations.Files, name)
		if err != nil {
			t.Fatalf("Failed to read migration %s: %v", name, err)
		}
		if _, err := db.Exec(string(content)); err != nil {
			t.Fatalf("Failed to apply migration %s: %v", name, err)
		}
	}

	t.Cleanup(func() { db.Close() })
	return db
}
