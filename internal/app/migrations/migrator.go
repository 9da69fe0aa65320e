package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

//go:embed sql/*.sql
var files embed.FS

const createTrackingTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version VARCHAR(255) PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`

// Beginner opens transactions; *pgxpool.Pool satisfies it
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Migrator applies SQL migrations in filename order, each in its own transaction
type Migrator struct {
	db     Beginner
	source fs.FS
	logger zerolog.Logger
}

// NewMigrator creates a migrator over the embedded migration files
func NewMigrator(db Beginner, logger zerolog.Logger) *Migrator {
	sub, err := fs.Sub(files, "sql")
	if err != nil {
		// the embed pattern above guarantees the directory exists
		panic(err)
	}
	return NewMigratorFromFS(db, sub, logger)
}

// NewMigratorFromFS creates a migrator reading *.sql files from the root of source
func NewMigratorFromFS(db Beginner, source fs.FS, logger zerolog.Logger) *Migrator {
	return &Migrator{db: db, source: source, logger: logger}
}

// Up applies every migration not yet recorded in schema_migrations and returns the applied versions
func (m *Migrator) Up(ctx context.Context) ([]string, error) {
	names, err := m.migrationFiles()
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, name := range names {
		ok, err := m.apply(ctx, name)
		if err != nil {
			return applied, err
		}
		if ok {
			applied = append(applied, versionOf(name))
		}
	}
	return applied, nil
}

func (m *Migrator) migrationFiles() ([]string, error) {
	entries, err := fs.ReadDir(m.source, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// versionOf extracts the version prefix, e.g. "001_init.sql" => "001"
func versionOf(name string) string {
	return strings.SplitN(name, "_", 2)[0]
}

func (m *Migrator) apply(ctx context.Context, name string) (bool, error) {
	version := versionOf(name)

	tx, err := m.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, createTrackingTable); err != nil {
		return false, fmt.Errorf("failed to create migration tracking table: %w", err)
	}

	var exists bool
	err = tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check migration status: %w", err)
	}
	if exists {
		m.logger.Debug().Str("migration", name).Msg("Migration already applied, skipping")
		return false, nil
	}

	content, err := fs.ReadFile(m.source, name)
	if err != nil {
		return false, fmt.Errorf("failed to read migration file %s: %w", name, err)
	}

	if _, err := tx.Exec(ctx, string(content)); err != nil {
		return false, fmt.Errorf("migration %s failed: %w", name, err)
	}

	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version, applied_at) VALUES ($1, $2)`, version, time.Now().UTC()); err != nil {
		return false, fmt.Errorf("failed to record migration %s: %w", name, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit migration %s: %w", name, err)
	}

	m.logger.Info().Str("migration", name).Msg("Migration applied")
	return true, nil
}
