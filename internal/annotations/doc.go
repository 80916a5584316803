// Package annotations holds the shared in-memory views of the reader's
// highlights and bookmarks.
//
// Each cache is constructed once, loads its collection from the store and is
// then handed to every consumer. Writes go to the store first; the cache
// changes only after the store call succeeds, so a failed write leaves the
// visible list untouched. Consumers that need to react to changes register
// with Subscribe and receive a snapshot after every committed change.
package annotations
