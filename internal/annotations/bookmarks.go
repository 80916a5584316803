package annotations

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/dshills/bigbook-mcp/pkg/types"
)

// BookmarkStore is the persistence the bookmarks cache needs.
// *storage.Service implements it.
type BookmarkStore interface {
	SaveBookmark(ctx context.Context, b types.Bookmark) error
	GetAllBookmarks(ctx context.Context) ([]types.Bookmark, error)
	DeleteBookmark(ctx context.Context, id string) error
	ClearAllBookmarks(ctx context.Context) error
}

// Bookmarks is the shared cache of bookmarks, ordered by page. The cache
// keeps at most one bookmark per page when written through Add.
type Bookmarks struct {
	store  BookmarkStore
	opts   options
	logger logrus.FieldLogger

	mu    sync.RWMutex
	items []types.Bookmark

	subs subscribers[types.Bookmark]
}

// NewBookmarks creates the cache and loads every stored bookmark
func NewBookmarks(ctx context.Context, store BookmarkStore, opts ...Option) (*Bookmarks, error) {
	o := applyOptions(opts)
	b := &Bookmarks{
		store:  store,
		opts:   o,
		logger: o.logger.WithField("component", "bookmarks"),
	}
	if err := b.Reload(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

// Reload replaces the cache with the stored collection
func (b *Bookmarks) Reload(ctx context.Context) error {
	items, err := b.store.GetAllBookmarks(ctx)
	if err != nil {
		return err
	}
	sortByPage(items)

	b.mu.Lock()
	b.items = items
	version, snapshot := b.subs.stamp(), b.snapshotLocked()
	b.mu.Unlock()

	b.logger.WithField("count", len(items)).Debug("bookmarks loaded")
	b.subs.publish(version, snapshot)
	return nil
}

// Add bookmarks page and reports whether a new bookmark was created. If the
// page already has a cached bookmark that bookmark is returned and nothing is
// written.
func (b *Bookmarks) Add(ctx context.Context, page int, chapterID, label string) (types.Bookmark, bool, error) {
	if chapterID == "" {
		return types.Bookmark{}, false, types.ErrEmptyAnchor
	}

	b.mu.Lock()
	for _, existing := range b.items {
		if existing.PageNumber == page {
			b.mu.Unlock()
			return existing, false, nil
		}
	}

	bm := types.Bookmark{
		ID:         b.opts.newID(),
		PageNumber: page,
		ChapterID:  chapterID,
		Label:      label,
		CreatedAt:  types.Millis(b.opts.now()),
	}
	if err := b.store.SaveBookmark(ctx, bm); err != nil {
		b.mu.Unlock()
		return types.Bookmark{}, false, err
	}
	b.items = append(b.items, bm)
	sortByPage(b.items)
	version, snapshot := b.subs.stamp(), b.snapshotLocked()
	b.mu.Unlock()

	b.logger.WithFields(logrus.Fields{
		"bookmark_id": bm.ID,
		"page":        types.FormatPage(page),
	}).Debug("bookmark added")
	b.subs.publish(version, snapshot)
	return bm, true, nil
}

// Delete removes the bookmark with id. Unknown ids are not an error.
func (b *Bookmarks) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	if err := b.store.DeleteBookmark(ctx, id); err != nil {
		b.mu.Unlock()
		return err
	}
	kept := make([]types.Bookmark, 0, len(b.items))
	for _, bm := range b.items {
		if bm.ID != id {
			kept = append(kept, bm)
		}
	}
	b.items = kept
	version, snapshot := b.subs.stamp(), b.snapshotLocked()
	b.mu.Unlock()

	b.subs.publish(version, snapshot)
	return nil
}

// UpdateLabel sets the label of a cached bookmark. It returns ErrNotFound
// when the id is not in the cache.
func (b *Bookmarks) UpdateLabel(ctx context.Context, id, label string) (types.Bookmark, error) {
	b.mu.Lock()
	idx := -1
	for i := range b.items {
		if b.items[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		b.mu.Unlock()
		return types.Bookmark{}, fmt.Errorf("bookmark %s: %w", id, types.ErrNotFound)
	}

	updated := b.items[idx]
	updated.Label = label
	if err := b.store.SaveBookmark(ctx, updated); err != nil {
		b.mu.Unlock()
		return types.Bookmark{}, err
	}
	b.items[idx] = updated
	version, snapshot := b.subs.stamp(), b.snapshotLocked()
	b.mu.Unlock()

	b.subs.publish(version, snapshot)
	return updated, nil
}

// ClearAll removes every bookmark
func (b *Bookmarks) ClearAll(ctx context.Context) error {
	b.mu.Lock()
	if err := b.store.ClearAllBookmarks(ctx); err != nil {
		b.mu.Unlock()
		return err
	}
	b.items = nil
	version := b.subs.stamp()
	b.mu.Unlock()

	b.logger.Info("bookmarks cleared")
	b.subs.publish(version, nil)
	return nil
}

// All returns every cached bookmark, ordered by page
func (b *Bookmarks) All() []types.Bookmark {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshotLocked()
}

// ByChapter returns the bookmarks in one chapter
func (b *Bookmarks) ByChapter(chapterID string) []types.Bookmark {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]types.Bookmark, 0)
	for _, bm := range b.items {
		if bm.ChapterID == chapterID {
			out = append(out, bm)
		}
	}
	return out
}

// IsPageBookmarked reports whether any bookmark is on page
func (b *Bookmarks) IsPageBookmarked(page int) bool {
	_, ok := b.ForPage(page, "")
	return ok
}

// ForPage returns the bookmark on page, preferring one in preferredChapterID
// and falling back to any bookmark on that page
func (b *Bookmarks) ForPage(page int, preferredChapterID string) (types.Bookmark, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var (
		fallback types.Bookmark
		found    bool
	)
	for _, bm := range b.items {
		if bm.PageNumber != page {
			continue
		}
		if preferredChapterID != "" && bm.ChapterID == preferredChapterID {
			return bm, true
		}
		if !found {
			fallback, found = bm, true
		}
	}
	return fallback, found
}

// Subscribe registers fn to receive the full list after every change. The
// returned function removes the subscription.
func (b *Bookmarks) Subscribe(fn func([]types.Bookmark)) func() {
	return b.subs.add(fn)
}

// snapshotLocked copies the cache; callers hold mu
func (b *Bookmarks) snapshotLocked() []types.Bookmark {
	out := make([]types.Bookmark, len(b.items))
	copy(out, b.items)
	return out
}

func sortByPage(items []types.Bookmark) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PageNumber < items[j].PageNumber
	})
}
