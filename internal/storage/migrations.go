package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

const (
	// CurrentSchemaVersion tracks the database schema version
	CurrentSchemaVersion = "1.0.0"
)

// dialect captures the SQL differences between the supported databases
type dialect struct {
	name string
	// tableExists returns one row when schema_version exists
	tableExists string
	// bind returns the placeholder for the n-th (1-based) argument
	bind func(n int) string
}

var (
	sqliteDialect = dialect{
		name:        BackendSQLite,
		tableExists: "SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'",
		bind:        func(int) string { return "?" },
	}
	postgresDialect = dialect{
		name:        BackendPostgres,
		tableExists: "SELECT table_name FROM information_schema.tables WHERE table_name = 'schema_version'",
		bind:        func(n int) string { return fmt.Sprintf("$%d", n) },
	}
)

// Migration represents a database schema migration
type Migration struct {
	Version string
	Up      map[string]string // dialect name -> SQL
	Down    map[string]string
}

// AllMigrations contains all database migrations in order
var AllMigrations = []Migration{
	{
		Version: "1.0.0",
		Up: map[string]string{
			BackendSQLite:   migrationV1UpSQLite,
			BackendPostgres: migrationV1UpPostgres,
		},
		Down: map[string]string{
			BackendSQLite:   migrationV1Down,
			BackendPostgres: migrationV1Down,
		},
	},
}

const migrationV1UpSQLite = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
    version TEXT PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- One row per collection blob
CREATE TABLE IF NOT EXISTS kv_store (
    key TEXT PRIMARY KEY,
    value BLOB NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

const migrationV1UpPostgres = `
CREATE TABLE IF NOT EXISTS schema_version (
    version TEXT PRIMARY KEY,
    applied_at TIMESTAMPTZ DEFAULT now()
);

CREATE TABLE IF NOT EXISTS kv_store (
    key TEXT PRIMARY KEY,
    value BYTEA NOT NULL,
    updated_at TIMESTAMPTZ DEFAULT now()
);
`

const migrationV1Down = `
DROP TABLE IF EXISTS kv_store;
DROP TABLE IF EXISTS schema_version;
`

// currentVersion reads the applied schema version (0.0.0 when none)
func currentVersion(ctx context.Context, db *sql.DB, d dialect) (*semver.Version, error) {
	var tableName string
	err := db.QueryRowContext(ctx, d.tableExists).Scan(&tableName)
	if err == sql.ErrNoRows {
		return semver.MustParse("0.0.0"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check schema_version table: %w", err)
	}

	var versionStr string
	err = db.QueryRowContext(ctx, "SELECT version FROM schema_version ORDER BY applied_at DESC, version DESC LIMIT 1").Scan(&versionStr)
	if err == sql.ErrNoRows || (err == nil && versionStr == "") {
		return semver.MustParse("0.0.0"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read schema_version: %w", err)
	}

	v, err := semver.NewVersion(versionStr)
	if err != nil {
		return nil, fmt.Errorf("invalid current schema version %s: %w", versionStr, err)
	}
	return v, nil
}

// applyMigrations runs all pending migrations
func applyMigrations(ctx context.Context, db *sql.DB, d dialect) error {
	current, err := currentVersion(ctx, db, d)
	if err != nil {
		return err
	}

	for _, migration := range AllMigrations {
		migrationVersion, err := semver.NewVersion(migration.Version)
		if err != nil {
			return fmt.Errorf("invalid migration version %s: %w", migration.Version, err)
		}

		// Skip if already applied
		if !current.LessThan(migrationVersion) {
			continue
		}

		up, ok := migration.Up[d.name]
		if !ok {
			return fmt.Errorf("migration %s has no %s variant", migration.Version, d.name)
		}
		if _, err := db.ExecContext(ctx, up); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", migration.Version, err)
		}

		record := "INSERT INTO schema_version (version) VALUES (" + d.bind(1) + ")"
		if _, err := db.ExecContext(ctx, record, migration.Version); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", migration.Version, err)
		}

		current = migrationVersion
	}

	return nil
}

// rollbackMigration rolls back the most recent migration
func rollbackMigration(ctx context.Context, db *sql.DB, d dialect) error {
	current, err := currentVersion(ctx, db, d)
	if err != nil {
		return err
	}
	if current.Equal(semver.MustParse("0.0.0")) {
		return fmt.Errorf("no migrations to rollback")
	}

	var migration *Migration
	for i := range AllMigrations {
		v, err := semver.NewVersion(AllMigrations[i].Version)
		if err == nil && v.Equal(current) {
			migration = &AllMigrations[i]
			break
		}
	}
	if migration == nil {
		return fmt.Errorf("migration %s not found", current)
	}

	down, ok := migration.Down[d.name]
	if !ok {
		return fmt.Errorf("migration %s has no %s rollback", migration.Version, d.name)
	}
	if _, err := db.ExecContext(ctx, down); err != nil {
		return fmt.Errorf("failed to rollback migration %s: %w", migration.Version, err)
	}

	// The v1 rollback drops schema_version itself
	var tableName string
	if err := db.QueryRowContext(ctx, d.tableExists).Scan(&tableName); err == nil {
		del := "DELETE FROM schema_version WHERE version = " + d.bind(1)
		if _, err := db.ExecContext(ctx, del, migration.Version); err != nil {
			return fmt.Errorf("failed to remove migration record %s: %w", migration.Version, err)
		}
	}

	return nil
}
