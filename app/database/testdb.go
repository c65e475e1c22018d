package database

import (
	"testing"
)

// NewTestDB creates a fresh in-memory SQLite database with the full schema
// applied. The migration files are executed directly so each test database
// gets its own schema regardless of the process-wide migration guard.
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	// Every connection to :memory: is a distinct database; keep one.
	db.SetMaxOpenConns(1)

	schema, err := migrationFS.ReadFile("migrations/0001_init.up.sql")
	if err != nil {
		db.Close()
		t.Fatalf("reading schema migration: %v", err)
	}

	if _, err := db.Exec(string(schema)); err != nil {
		db.Close()
		t.Fatalf("applying test database schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}
