package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Options configures which backend Open creates
type Options struct {
	Backend string // sqlite (default), postgres, memory
	Path    string // SQLite database file
	DSN     string // Postgres connection string
}

// Open creates the key-value store selected by opts. It is the single place
// where the backing store is chosen.
func Open(ctx context.Context, opts Options) (KV, error) {
	switch strings.ToLower(opts.Backend) {
	case BackendSQLite, "":
		if opts.Path == "" {
			return nil, fmt.Errorf("sqlite backend requires a database path")
		}
		if !isMemoryPath(opts.Path) {
			if err := os.MkdirAll(filepath.Dir(opts.Path), 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		return NewSQLiteStorage(opts.Path)
	case BackendPostgres:
		if opts.DSN == "" {
			return nil, fmt.Errorf("postgres backend requires a DSN")
		}
		return NewPostgresStorage(ctx, opts.DSN)
	case BackendMemory:
		return NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: sqlite, postgres, memory)", opts.Backend)
	}
}
