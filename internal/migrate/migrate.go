// Package migrate applies the embedded SQL migrations in order, tracking
// progress in a schema_migrations (version, dirty) table.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/emiliopalmerini/effortmap/migrations"
)

// Migration is a single versioned migration with up and down SQL.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
	DownSQL string
}

// EnsureTable creates the schema_migrations table if it doesn't exist.
func EnsureTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			dirty INTEGER NOT NULL DEFAULT 0
		)
	`)
	return err
}

// CurrentVersion returns the applied migration version and dirty state.
func CurrentVersion(ctx context.Context, db *sql.DB) (int, bool, error) {
	var version, dirty int
	err := db.QueryRowContext(ctx, `SELECT version, dirty FROM schema_migrations ORDER BY version DESC LIMIT 1`).Scan(&version, &dirty)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return version, dirty == 1, nil
}

func setVersion(ctx context.Context, db *sql.DB, version int, dirty bool) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM schema_migrations`); err != nil {
		return err
	}
	if version <= 0 {
		return nil
	}
	dirtyInt := 0
	if dirty {
		dirtyInt = 1
	}
	_, err := db.ExecContext(ctx, `INSERT INTO schema_migrations (version, dirty) VALUES (?, ?)`, version, dirtyInt)
	return err
}

var upPattern = regexp.MustCompile(`^(\d+)_(.+)\.up\.sql$`)

// Load reads the embedded migration files sorted by version.
func Load() ([]Migration, error) {
	var result []Migration

	err := fs.WalkDir(migrations.FS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		matches := upPattern.FindStringSubmatch(filepath.Base(path))
		if matches == nil {
			return nil
		}
		version, _ := strconv.Atoi(matches[1])
		name := matches[2]

		upSQL, err := fs.ReadFile(migrations.FS, path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		// A missing down file just means the migration is irreversible.
		downSQL, _ := fs.ReadFile(migrations.FS, fmt.Sprintf("%04d_%s.down.sql", version, name))

		result = append(result, Migration{
			Version: version,
			Name:    name,
			UpSQL:   string(upSQL),
			DownSQL: string(downSQL),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Version < result[j].Version })
	return result, nil
}

// Apply executes a single migration in the given direction.
func Apply(ctx context.Context, db *sql.DB, m Migration, up bool) error {
	direction, sqlContent, target := "up", m.UpSQL, m.Version
	if !up {
		direction, sqlContent, target = "down", m.DownSQL, m.Version-1
	}

	if err := setVersion(ctx, db, m.Version, true); err != nil {
		return fmt.Errorf("set dirty flag: %w", err)
	}

	for _, stmt := range strings.Split(sqlContent, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d %s: %w", m.Version, direction, err)
		}
	}

	if err := setVersion(ctx, db, target, false); err != nil {
		return fmt.Errorf("clear dirty flag: %w", err)
	}
	return nil
}

// Up runs all pending migrations above currentVersion.
func Up(ctx context.Context, db *sql.DB, all []Migration, currentVersion int) (int, error) {
	applied := 0
	for _, m := range all {
		if m.Version <= currentVersion {
			continue
		}
		if err := Apply(ctx, db, m, true); err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}

// DownTo rolls back migrations until targetVersion is the highest applied.
func DownTo(ctx context.Context, db *sql.DB, all []Migration, currentVersion, targetVersion int) error {
	for i := len(all) - 1; i >= 0; i-- {
		m := all[i]
		if m.Version > currentVersion {
			continue
		}
		if m.Version <= targetVersion {
			break
		}
		if m.DownSQL == "" {
			return fmt.Errorf("no down migration for version %d", m.Version)
		}
		if err := Apply(ctx, db, m, false); err != nil {
			return err
		}
	}
	return nil
}

// RunAll brings the database to the latest version.
func RunAll(ctx context.Context, db *sql.DB) error {
	if err := EnsureTable(ctx, db); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	current, dirty, err := CurrentVersion(ctx, db)
	if err != nil {
		return fmt.Errorf("get current version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database is in dirty state at version %d", current)
	}

	all, err := Load()
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	_, err = Up(ctx, db, all, current)
	return err
}
