package postgres

import (
	"errors"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // postgres driver
	_ "github.com/golang-migrate/migrate/v4/source/file"       // file source driver

	apperrors "github.com/chemforge/molpipe/pkg/errors"
)

// RunMigrations applies all pending schema migrations.  Called once before
// the postgres sink is used; a run with nothing to apply is not an error.
func RunMigrations(dbURL, migrationsPath string) error {
	m, err := migrate.New(migrationsPath, dbURL)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "create migrate instance")
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "run migrations")
	}
	return nil
}

// MigrationVersion reports the current schema version and dirty flag.
func MigrationVersion(dbURL, migrationsPath string) (uint, bool, error) {
	m, err := migrate.New(migrationsPath, dbURL)
	if err != nil {
		return 0, false, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "create migrate instance")
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "read migration version")
	}
	return version, dirty, nil
}
