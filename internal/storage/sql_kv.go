package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqlKV implements KV over a kv_store table. It backs both the SQLite and
// the Postgres stores; only the dialect differs.
type sqlKV struct {
	db      *sql.DB
	dialect dialect
	// rowLock is appended to the SELECT inside Update ("FOR UPDATE" on Postgres)
	rowLock string
	lock    *flock.Flock // nil when no lock file is used
}

// getWithQuerier is the internal implementation that uses a querier
func (s *sqlKV) getWithQuerier(ctx context.Context, q querier, key string, suffix string) ([]byte, error) {
	query := "SELECT value FROM kv_store WHERE key = " + s.dialect.bind(1) + suffix
	var value []byte
	err := q.QueryRowContext(ctx, query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

// setWithQuerier is the internal implementation that uses a querier
func (s *sqlKV) setWithQuerier(ctx context.Context, q querier, key string, value []byte) error {
	query := fmt.Sprintf(`
		INSERT INTO kv_store (key, value, updated_at)
		VALUES (%s, %s, %s)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, s.dialect.bind(1), s.dialect.bind(2), s.dialect.bind(3))
	if value == nil {
		value = []byte{}
	}
	if _, err := q.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *sqlKV) Get(ctx context.Context, key string) ([]byte, error) {
	return s.getWithQuerier(ctx, s.db, key, "")
}

func (s *sqlKV) Set(ctx context.Context, key string, value []byte) error {
	return s.setWithQuerier(ctx, s.db, key, value)
}

func (s *sqlKV) Delete(ctx context.Context, key string) error {
	query := "DELETE FROM kv_store WHERE key = " + s.dialect.bind(1)
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Update runs the read-modify-write inside a transaction
func (s *sqlKV) Update(ctx context.Context, key string, fn func(value []byte, found bool) ([]byte, error)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := s.getWithQuerier(ctx, tx, key, s.rowLock)
	found := err == nil
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	next, err := fn(current, found)
	if err != nil {
		return err
	}

	if err := s.setWithQuerier(ctx, tx, key, next); err != nil {
		return err
	}
	return tx.Commit()
}

// Close closes the database connection and releases the lock file
func (s *sqlKV) Close() error {
	err := s.db.Close()
	if s.lock != nil {
		if unlockErr := s.lock.Unlock(); unlockErr != nil && err == nil {
			err = unlockErr
		}
	}
	return err
}
