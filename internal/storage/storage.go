package storage

import (
	"context"
	"errors"

	"github.com/dshills/bigbook-mcp/pkg/types"
)

var (
	// ErrNotFound is returned when a key or record doesn't exist
	ErrNotFound = types.ErrNotFound
	// ErrCorruptCollection is returned when a stored collection cannot be decoded
	ErrCorruptCollection = errors.New("corrupt collection")
	// ErrLocked is returned when another process holds the store
	ErrLocked = errors.New("store is locked by another process")
	// ErrClosed is returned when using a closed store
	ErrClosed = errors.New("store is closed")
)

// KV is the device key-value store boundary. Values are opaque byte blobs.
type KV interface {
	// Get returns the value for key, or ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Update performs a read-modify-write of key as one unit. fn receives the
	// current value (nil and false when absent) and returns the value to store.
	// If fn returns an error nothing is written.
	Update(ctx context.Context, key string, fn func(value []byte, found bool) ([]byte, error)) error

	// Close releases the store
	Close() error
}

// Backend names accepted by Open
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)
