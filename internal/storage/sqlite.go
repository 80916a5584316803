package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gofrs/flock"
)

// SQLiteStorage implements KV using SQLite
type SQLiteStorage struct {
	sqlKV
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return db, nil
}

// isMemoryPath reports whether dbPath names an in-memory database
func isMemoryPath(dbPath string) bool {
	return dbPath == ":memory:" || strings.HasPrefix(dbPath, "file::memory:")
}

// NewSQLiteStorage opens (creating if needed) a SQLite key-value store.
// File-backed stores take an exclusive lock file next to the database, so
// only one process can own the store at a time.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	var lock *flock.Flock
	if !isMemoryPath(dbPath) {
		lock = flock.New(dbPath + ".lock")
		locked, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("failed to lock %s: %w", dbPath, err)
		}
		if !locked {
			return nil, fmt.Errorf("%w: %s", ErrLocked, dbPath)
		}
	}

	db, err := openDatabase(dbPath)
	if err != nil {
		releaseLock(lock)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := applyMigrations(context.Background(), db, sqliteDialect); err != nil {
		_ = db.Close()
		releaseLock(lock)
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{sqlKV{db: db, dialect: sqliteDialect, lock: lock}}, nil
}

func releaseLock(lock *flock.Flock) {
	if lock != nil {
		_ = lock.Unlock()
	}
}
