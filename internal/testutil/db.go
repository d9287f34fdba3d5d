// Package testutil provides shared test fixtures: an in-memory libsql
// database with all migrations applied, and row seeding helpers.
package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/tursodatabase/go-libsql"

	"github.com/emiliopalmerini/effortmap/internal/migrate"
)

// DB creates an in-memory database with all migrations applied. The
// database is closed when the test finishes.
func DB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("libsql", ":memory:")
	if err != nil {
		t.Fatalf("open in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// The in-memory database lives in a single connection; a second pooled
	// conn would see an empty schema.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}

	if err := migrate.RunAll(context.Background(), db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	return db
}

// SeedUser inserts a user row and returns its id.
func SeedUser(t *testing.T, db *sql.DB, email string) string {
	t.Helper()

	id := uuid.NewString()
	_, err := db.Exec(`
		INSERT INTO users (id, email, api_token, created_at)
		VALUES (?, ?, ?, ?)
	`, id, email, uuid.NewString(), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return id
}
