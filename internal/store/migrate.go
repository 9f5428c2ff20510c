package store

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrate applies every pending schema migration for the store's dialect.
func (s *SQLStore) Migrate() error {
	return RunMigrations(s.dialect)
}

// RunMigrations applies the embedded migrations of the given dialect.
func RunMigrations(dialect Dialect) error {
	sub, err := fs.Sub(migrationsFS, "migrations/"+dialect.Name)
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}

	d, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", d, dialect.MigrateURL)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			slog.Warn("failed to close migrate instance", "source_error", srcErr, "database_error", dbErr)
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read migration version: %w", err)
	}
	slog.Info("migrations applied", "dialect", dialect.Name, "version", version, "dirty", dirty)
	return nil
}
