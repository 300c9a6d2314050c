package identity

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// Migrator applies the embedded account schema migrations with goose.
type Migrator struct {
	dsn string
	log *slog.Logger
}

// NewMigrator returns a Migrator for the database at dsn.
func NewMigrator(dsn string, log *slog.Logger) (Migrator, error) {
	if dsn == "" {
		return Migrator{}, errors.New("identity: empty database dsn")
	}
	if log == nil {
		log = slog.Default()
	}
	return Migrator{dsn: dsn, log: log}, nil
}

// Up applies all pending migrations.
func (m Migrator) Up(ctx context.Context) error {
	return m.withDB(ctx, func(runCtx context.Context, db *sql.DB) error {
		if err := goose.UpContext(runCtx, db, migrationsDir); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		m.log.Info("db.migrate.done", "direction", "up")
		return nil
	})
}

// Down rolls back the latest migration, or down to target when target > 0.
func (m Migrator) Down(ctx context.Context, target int64) error {
	return m.withDB(ctx, func(runCtx context.Context, db *sql.DB) error {
		var err error
		if target > 0 {
			err = goose.DownToContext(runCtx, db, migrationsDir, target)
		} else {
			err = goose.DownContext(runCtx, db, migrationsDir)
		}
		if err != nil {
			return fmt.Errorf("rollback migrations: %w", err)
		}
		m.log.Info("db.migrate.done", "direction", "down", "target", target)
		return nil
	})
}

// Status prints applied and pending migrations through goose's logger.
func (m Migrator) Status(ctx context.Context) error {
	return m.withDB(ctx, func(runCtx context.Context, db *sql.DB) error {
		if err := goose.StatusContext(runCtx, db, migrationsDir); err != nil {
			return fmt.Errorf("migration status: %w", err)
		}
		return nil
	})
}

func (m Migrator) withDB(ctx context.Context, fn func(context.Context, *sql.DB) error) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("configure goose: %w", err)
	}

	db, err := sql.Open("pgx", m.dsn)
	if err != nil {
		return fmt.Errorf("open sql connection: %w", err)
	}
	defer func() { _ = db.Close() }()

	runCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	if err := db.PingContext(runCtx); err != nil {
		return fmt.Errorf("ping sql connection: %w", err)
	}
	return fn(runCtx, db)
}
