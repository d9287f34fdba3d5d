package database

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "github.com/tursodatabase/go-libsql"
)

// New opens a libsql database. databaseURL may be a Turso URL (authToken is
// appended), a file path, or ":memory:" for tests.
func New(databaseURL, authToken string) (*sql.DB, error) {
	connStr := databaseURL
	if authToken != "" {
		connStr = databaseURL + "?authToken=" + authToken
	}

	db, err := sql.Open("libsql", connStr)
	if err != nil {
		return nil, err
	}

	// Turso's Hrana protocol aggressively closes idle streams; keep the
	// pool small and fresh to avoid "stream not found" on stale conns.
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(0)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// IsStreamError checks if an error is a Turso "stream not found" error.
func IsStreamError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "stream not found")
}

// WithRetry executes fn with retry logic for Turso stream errors, up to
// maxRetries attempts after the first.
func WithRetry[T any](ctx context.Context, maxRetries int, fn func() (T, error)) (T, error) {
	var result T
	var err error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		result, err = fn()
		if err == nil {
			return result, nil
		}

		if !IsStreamError(err) || attempt == maxRetries {
			return result, err
		}

		// Brief pause before retry to allow the pool to refresh.
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}

	return result, err
}
