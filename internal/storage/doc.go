// Package storage persists the user's highlights and bookmarks.
//
// The storage layer has two levels:
//   - KV: a minimal device key-value store (Get, Set, Delete, Update)
//   - Service: the highlight and bookmark collections on top of a KV
//
// # Backends
//
// Open selects the backend from Options; it is the only place that knows
// about concrete stores:
//
//	kv, err := storage.Open(ctx, storage.Options{
//	    Backend: storage.BackendSQLite,
//	    Path:    "~/.bigbook/bigbook.db",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer kv.Close()
//
// Supported backends:
//   - sqlite: single kv_store table, WAL mode, guarded by a lock file so only
//     one process owns the database
//   - postgres: the same table in Postgres, for a shared remote store
//   - memory: process-local map, for tests and ephemeral sessions
//
// # Collections
//
// Each collection is a JSON array stored under one fixed key
// (HighlightsKey, BookmarksKey). Every write is a read-modify-write of the
// whole array. Backends run the cycle in one transaction (or under one
// mutex), but nothing coordinates independent processes sharing a store:
// the last writer wins at the blob level.
//
//	svc := storage.NewService(kv)
//	err := svc.SaveHighlight(ctx, highlight)
//	all, err := svc.GetAllHighlights(ctx)
//	updated, err := svc.UpdateHighlight(ctx, id, types.HighlightPatch{Note: &note})
//
// Missing records surface as ErrNotFound; undecodable blobs as
// ErrCorruptCollection. Backend failures are returned wrapped and are never
// retried.
//
// # Build Tags
//
// The SQLite driver is selected at build time:
//
//	CGO_ENABLED=0 go build -tags "purego" ./...      // modernc.org/sqlite (default)
//	CGO_ENABLED=1 go build -tags "sqlite_vec" ./...  // github.com/mattn/go-sqlite3
package storage
