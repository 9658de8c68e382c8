package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	iofs "github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/janhq/money-coach/migrations"
)

const migrationsTable = "schema_migrations"

// AutoMigrate brings the coach schema up to the newest embedded migration.
// A run that died mid-migration leaves the version dirty; that version is
// rolled back to its predecessor and reapplied, so every up file must be
// idempotent.
func AutoMigrate(ctx context.Context, gormDB *gorm.DB, log zerolog.Logger) (err error) {
	log = log.With().Str("component", "migrations").Str("schema", SchemaName).Logger()

	if err := gormDB.WithContext(ctx).Exec("CREATE SCHEMA IF NOT EXISTS " + SchemaName).Error; err != nil {
		return fmt.Errorf("create schema %s: %w", SchemaName, err)
	}

	migrator, closeMigrator, err := newMigrator(ctx, gormDB)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeMigrator(); err == nil && closeErr != nil {
			err = closeErr
		}
	}()

	before, dirty, err := migrator.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		log.Info().Msg("empty schema, applying all migrations")
	case err != nil:
		return fmt.Errorf("read migration version: %w", err)
	case dirty:
		previous := int(before) - 1
		if previous < 1 {
			previous = -1
		}
		log.Warn().Uint("version", before).Int("rerun_from", previous).Msg("dirty migration state, rerunning interrupted migration")
		if err := migrator.Force(previous); err != nil {
			return fmt.Errorf("reset dirty version %d: %w", before, err)
		}
	}

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	after, _, err := migrator.Version()
	if err != nil {
		return fmt.Errorf("read migration version: %w", err)
	}
	if after == before && !dirty {
		log.Info().Uint("version", after).Msg("schema up to date")
	} else {
		log.Info().Uint("from", before).Uint("to", after).Msg("migrations applied")
	}
	return nil
}

func newMigrator(ctx context.Context, gormDB *gorm.DB) (*migrate.Migrate, func() error, error) {
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("retrieve sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("acquire migration connection: %w", err)
	}

	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{
		MigrationsTable: migrationsTable,
		SchemaName:      SchemaName,
	})
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("initialize postgres driver: %w", err)
	}

	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		_ = driver.Close()
		return nil, nil, fmt.Errorf("load embedded migrations: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		_ = source.Close()
		_ = driver.Close()
		return nil, nil, fmt.Errorf("create migrator: %w", err)
	}

	closeAll := func() error {
		sourceErr, driverErr := migrator.Close()
		return errors.Join(sourceErr, driverErr)
	}
	return migrator, closeAll, nil
}
