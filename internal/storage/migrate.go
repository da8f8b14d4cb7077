package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var snapshotMigrations embed.FS

// withMigrator runs fn against a migrator bound to its own connection to
// dbPath. Closing the migrator closes that connection.
func withMigrator(dbPath string, fn func(*migrate.Migrate) error) error {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", dbPath, err)
	}
	driver, err := sqlite.WithInstance(conn, &sqlite.Config{})
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("sqlite migration driver: %w", err)
	}
	src, err := iofs.New(snapshotMigrations, "migrations")
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("migrator: %w", err)
	}
	defer m.Close()
	return fn(m)
}

// RunMigrations brings the snapshot schema up to date.
func RunMigrations(dbPath string) error {
	return withMigrator(dbPath, func(m *migrate.Migrate) error {
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("apply snapshot migrations: %w", err)
		}
		return nil
	})
}

// SchemaVersion reports the applied migration version. A database without
// migrations reports version 0.
func SchemaVersion(dbPath string) (version uint, dirty bool, err error) {
	err = withMigrator(dbPath, func(m *migrate.Migrate) error {
		var verr error
		version, dirty, verr = m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			version, dirty = 0, false
			return nil
		}
		return verr
	})
	return version, dirty, err
}
