package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3" // Required by the library implementation.
)

const (
	busyTimeoutMillis = 5000
	timeLayout        = time.DateTime
)

// Database is the single owner of persisted feeds, articles and settings.
// Every method is a self-contained unit of work: it borrows a pooled
// connection (or a transaction) and releases it before returning.
type Database struct {
	db  *sql.DB
	log *slog.Logger
}

//go:embed migrations/*.sql
var migrationsFS embed.FS

func New(ctx context.Context, dbPath string, log *slog.Logger) (*Database, error) {
	dsn := fmt.Sprintf(
		"file:%s?_foreign_keys=on&_busy_timeout=%d&_journal_mode=WAL",
		dbPath,
		busyTimeoutMillis,
	)

	dbFile, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open DB file: %w", err)
	}

	d := &Database{db: dbFile, log: log}

	if err = d.migrate(ctx, dbPath); err != nil {
		if closeErr := dbFile.Close(); closeErr != nil {
			log.ErrorContext(ctx, "Failed to close db",
				"error", closeErr,
				"dbPath", dbPath)
		}

		return nil, err
	}

	return d, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) migrate(ctx context.Context, dbPath string) error {
	dbInstance, err := sqlite3.WithInstance(d.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("create DB instance: %w", err)
	}

	srcInstance, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create source instance: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", srcInstance, "sqlite3", dbInstance)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	migrateErr := m.Up()

	version, dirty, versionErr := m.Version()
	fields := []any{
		"dbPath", dbPath,
	}

	if versionErr == nil {
		fields = append(fields, "version", version, "dirty", dirty)
	} else if !errors.Is(versionErr, migrate.ErrNilVersion) {
		d.log.WarnContext(ctx, "Failed to fetch migration version",
			"error", versionErr,
			"dbPath", dbPath)
	}

	if migrateErr != nil {
		if !errors.Is(migrateErr, migrate.ErrNoChange) {
			return fmt.Errorf("apply migrations: %w", migrateErr)
		}

		d.log.DebugContext(ctx, "No migrations to apply", fields...)
	} else {
		d.log.InfoContext(ctx, "DB is migrated", fields...)
	}

	added, err := d.addMissingColumns(ctx)
	if err != nil {
		return fmt.Errorf("add missing columns: %w", err)
	}
	if len(added) > 0 {
		d.log.InfoContext(ctx, "DB columns are added",
			"columns", added,
			"dbPath", dbPath)
	}

	if err = d.createIndexes(ctx); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}

	return nil
}

func (d *Database) closeRows(ctx context.Context, rows *sql.Rows, operation string) {
	if err := rows.Close(); err != nil {
		d.log.ErrorContext(ctx, "Failed to close rows",
			"error", err,
			"operation", operation)
	}
}

func (d *Database) rollback(ctx context.Context, tx *sql.Tx, operation string) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		d.log.ErrorContext(ctx, "Failed to rollback transaction",
			"error", err,
			"operation", operation)
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullableTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}

	v := t.Time

	return &v
}
