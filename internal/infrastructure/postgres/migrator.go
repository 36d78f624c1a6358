package postgres

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"

	"github.com/iho/procureledger/migrations"
)

// Migrator applies the embedded schema migrations.
type Migrator struct {
	databaseURL string
	logger      zerolog.Logger
}

// NewMigrator creates a Migrator for databaseURL.
func NewMigrator(databaseURL string, logger zerolog.Logger) *Migrator {
	return &Migrator{databaseURL: databaseURL, logger: logger.With().Str("component", "migrator").Logger()}
}

func embeddedSource() (source.Driver, error) {
	return iofs.New(migrations.FS, ".")
}

func (m *Migrator) open() (*migrate.Migrate, error) {
	src, err := embeddedSource()
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	mig, err := migrate.NewWithSourceInstance("iofs", src, m.databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return mig, nil
}

// Up applies every pending migration.
func (m *Migrator) Up() error {
	mig, err := m.open()
	if err != nil {
		return err
	}
	defer mig.Close()

	if err := mig.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.Info().Msg("database migrations: no change")
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	m.logVersion(mig, "database migrations: applied successfully")
	return nil
}

// Down rolls back the given number of migrations.
func (m *Migrator) Down(steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", steps)
	}

	mig, err := m.open()
	if err != nil {
		return err
	}
	defer mig.Close()

	if err := mig.Steps(-steps); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}

	m.logVersion(mig, "database migrations: rolled back successfully")
	return nil
}

func (m *Migrator) logVersion(mig *migrate.Migrate, msg string) {
	version, dirty, err := mig.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		m.logger.Warn().Err(err).Msg("failed to read migration version")
		return
	}
	m.logger.Info().Uint("version", version).Bool("dirty", dirty).Msg(msg)
}
