package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// MigrateOptions controls which migrations RunMigrations applies.
type MigrateOptions struct {
	// Dir holds one subdirectory per driver ("postgresql", "mysql").
	Dir string
	// Steps applies n migrations; negative values roll back. Zero migrates up fully.
	Steps int
}

// migrationsSource returns the file:// source URL for driver under dir.
func migrationsSource(dir, driver string) (string, error) {
	var sub string
	switch driver {
	case "postgres":
		sub = "postgresql"
	case "mysql":
		sub = "mysql"
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
	if dir == "" {
		dir = "migrations"
	}
	return "file://" + filepath.ToSlash(filepath.Join(dir, sub)), nil
}

// RunMigrations applies migrations to the configured database and logs the
// resulting schema version. ErrNoChange is not an error.
func RunMigrations(logger *slog.Logger, dbDriver, dbConnectionString string, opts MigrateOptions) error {
	source, err := migrationsSource(opts.Dir, dbDriver)
	if err != nil {
		return err
	}

	logger.Info("running database migrations",
		slog.String("driver", dbDriver),
		slog.String("source", source),
		slog.Int("steps", opts.Steps),
	)

	m, err := migrate.New(source, dbConnectionString)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer closeMigrate(m, logger)

	if opts.Steps == 0 {
		err = m.Up()
	} else {
		err = m.Steps(opts.Steps)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		logger.Info("migrations completed, schema is empty")
	case err != nil:
		return fmt.Errorf("failed to read schema version: %w", err)
	default:
		logger.Info("migrations completed",
			slog.Uint64("version", uint64(version)),
			slog.Bool("dirty", dirty),
		)
	}
	return nil
}
