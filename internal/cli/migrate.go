package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/effortmap/internal/config"
	"github.com/emiliopalmerini/effortmap/internal/database"
	"github.com/emiliopalmerini/effortmap/internal/migrate"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [version]",
	Short: "Run database migrations",
	Long: `Run database migrations.

Without arguments, runs all pending migrations (up).
With a version number, migrates to that specific version (up or down as needed).

Examples:
  effortmap migrate      # Run all pending migrations
  effortmap migrate 1    # Migrate to version 1
  effortmap migrate 0    # Rollback all migrations`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadServer()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.New(cfg.Database.URL, cfg.Database.AuthToken)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if err := migrate.EnsureTable(ctx, db); err != nil {
		return fmt.Errorf("ensure migrations table: %w", err)
	}

	current, dirty, err := migrate.CurrentVersion(ctx, db)
	if err != nil {
		return fmt.Errorf("read current version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database is dirty at version %d, fix it manually before migrating", current)
	}

	all, err := migrate.Load()
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	if len(args) == 0 {
		applied, err := migrate.Up(ctx, db, all, current)
		if err != nil {
			return err
		}
		fmt.Printf("Applied %d migration(s), now at version %d\n", applied, latestVersion(all, current))
		return nil
	}

	target, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid version %q", args[0])
	}

	switch {
	case target > current:
		if _, err := migrate.Up(ctx, db, upTo(all, target), current); err != nil {
			return err
		}
	case target < current:
		if err := migrate.DownTo(ctx, db, all, current, target); err != nil {
			return err
		}
	}
	fmt.Printf("Database at version %d\n", target)
	return nil
}

func latestVersion(all []migrate.Migration, current int) int {
	latest := current
	for _, m := range all {
		if m.Version > latest {
			latest = m.Version
		}
	}
	return latest
}

func upTo(all []migrate.Migration, target int) []migrate.Migration {
	out := make([]migrate.Migration, 0, len(all))
	for _, m := range all {
		if m.Version <= target {
			out = append(out, m)
		}
	}
	return out
}
