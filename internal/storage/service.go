package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dshills/bigbook-mcp/pkg/types"
)

// Collection keys in the key-value store. Each holds a JSON array.
const (
	HighlightsKey = "bigbook_highlights"
	BookmarksKey  = "bigbook_bookmarks"
)

// Service persists the highlight and bookmark collections. Every write reads
// the whole collection, modifies it and writes it back as one blob.
type Service struct {
	kv  KV
	now func() time.Time
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithClock overrides the time source used for updatedAt stamps
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service over kv
func NewService(kv KV, opts ...ServiceOption) *Service {
	s := &Service{kv: kv, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot is a full copy of both collections
type Snapshot struct {
	Highlights []types.Highlight `json:"highlights"`
	Bookmarks  []types.Bookmark  `json:"bookmarks"`
	ExportedAt int64             `json:"exportedAt"`
}

// readCollection loads and decodes the collection stored at key
func readCollection[T any](ctx context.Context, kv KV, key string) ([]T, error) {
	raw, err := kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeCollection[T](key, raw)
}

func decodeCollection[T any](key string, raw []byte) ([]T, error) {
	items := make([]T, 0)
	if len(raw) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptCollection, key, err)
	}
	return items, nil
}

// updateCollection applies fn to the decoded collection and writes the result back
func updateCollection[T any](ctx context.Context, kv KV, key string, fn func(items []T) ([]T, error)) error {
	return kv.Update(ctx, key, func(raw []byte, found bool) ([]byte, error) {
		items, err := decodeCollection[T](key, raw)
		if err != nil {
			return nil, err
		}
		items, err = fn(items)
		if err != nil {
			return nil, err
		}
		return json.Marshal(items)
	})
}

// Highlight operations

// SaveHighlight inserts h, or replaces the stored highlight with the same id
func (s *Service) SaveHighlight(ctx context.Context, h types.Highlight) error {
	err := updateCollection(ctx, s.kv, HighlightsKey, func(items []types.Highlight) ([]types.Highlight, error) {
		for i := range items {
			if items[i].ID == h.ID {
				items[i] = h
				return items, nil
			}
		}
		return append(items, h), nil
	})
	if err != nil {
		return fmt.Errorf("failed to save highlight %s: %w", h.ID, err)
	}
	return nil
}

// GetHighlights returns the highlights of one chapter, or all when chapterID is empty
func (s *Service) GetHighlights(ctx context.Context, chapterID string) ([]types.Highlight, error) {
	items, err := s.GetAllHighlights(ctx)
	if err != nil || chapterID == "" {
		return items, err
	}
	filtered := make([]types.Highlight, 0, len(items))
	for _, h := range items {
		if h.ChapterID == chapterID {
			filtered = append(filtered, h)
		}
	}
	return filtered, nil
}

// GetAllHighlights returns every stored highlight in storage order
func (s *Service) GetAllHighlights(ctx context.Context) ([]types.Highlight, error) {
	items, err := readCollection[types.Highlight](ctx, s.kv, HighlightsKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load highlights: %w", err)
	}
	return items, nil
}

// UpdateHighlight merges patch into the stored highlight and stamps updatedAt.
// It returns ErrNotFound when no highlight has the id.
func (s *Service) UpdateHighlight(ctx context.Context, id string, patch types.HighlightPatch) (types.Highlight, error) {
	if patch.Color != nil && !patch.Color.Valid() {
		return types.Highlight{}, types.ErrInvalidColor
	}

	var updated types.Highlight
	err := updateCollection(ctx, s.kv, HighlightsKey, func(items []types.Highlight) ([]types.Highlight, error) {
		for i := range items {
			if items[i].ID == id {
				patch.Apply(&items[i])
				items[i].UpdatedAt = types.Millis(s.now())
				updated = items[i]
				return items, nil
			}
		}
		return nil, fmt.Errorf("highlight %s: %w", id, ErrNotFound)
	})
	if err != nil {
		return types.Highlight{}, fmt.Errorf("failed to update highlight: %w", err)
	}
	return updated, nil
}

// DeleteHighlight removes the highlight with id. Unknown ids are ignored.
func (s *Service) DeleteHighlight(ctx context.Context, id string) error {
	err := updateCollection(ctx, s.kv, HighlightsKey, func(items []types.Highlight) ([]types.Highlight, error) {
		kept := items[:0]
		for _, h := range items {
			if h.ID != id {
				kept = append(kept, h)
			}
		}
		return kept, nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete highlight %s: %w", id, err)
	}
	return nil
}

// ClearAllHighlights removes the whole highlight collection
func (s *Service) ClearAllHighlights(ctx context.Context) error {
	if err := s.kv.Delete(ctx, HighlightsKey); err != nil {
		return fmt.Errorf("failed to clear highlights: %w", err)
	}
	return nil
}

// Bookmark operations

// SaveBookmark inserts b, or replaces the stored bookmark with the same id.
// It does not check for other bookmarks on the same page.
func (s *Service) SaveBookmark(ctx context.Context, b types.Bookmark) error {
	err := updateCollection(ctx, s.kv, BookmarksKey, func(items []types.Bookmark) ([]types.Bookmark, error) {
		for i := range items {
			if items[i].ID == b.ID {
				items[i] = b
				return items, nil
			}
		}
		return append(items, b), nil
	})
	if err != nil {
		return fmt.Errorf("failed to save bookmark %s: %w", b.ID, err)
	}
	return nil
}

// GetBookmarks returns the bookmarks of one chapter, or all when chapterID is empty
func (s *Service) GetBookmarks(ctx context.Context, chapterID string) ([]types.Bookmark, error) {
	items, err := s.GetAllBookmarks(ctx)
	if err != nil || chapterID == "" {
		return items, err
	}
	filtered := make([]types.Bookmark, 0, len(items))
	for _, b := range items {
		if b.ChapterID == chapterID {
			filtered = append(filtered, b)
		}
	}
	return filtered, nil
}

// GetAllBookmarks returns every stored bookmark in storage order
func (s *Service) GetAllBookmarks(ctx context.Context) ([]types.Bookmark, error) {
	items, err := readCollection[types.Bookmark](ctx, s.kv, BookmarksKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookmarks: %w", err)
	}
	return items, nil
}

// DeleteBookmark removes the bookmark with id. Unknown ids are ignored.
func (s *Service) DeleteBookmark(ctx context.Context, id string) error {
	err := updateCollection(ctx, s.kv, BookmarksKey, func(items []types.Bookmark) ([]types.Bookmark, error) {
		kept := items[:0]
		for _, b := range items {
			if b.ID != id {
				kept = append(kept, b)
			}
		}
		return kept, nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete bookmark %s: %w", id, err)
	}
	return nil
}

// ClearAllBookmarks removes the whole bookmark collection
func (s *Service) ClearAllBookmarks(ctx context.Context) error {
	if err := s.kv.Delete(ctx, BookmarksKey); err != nil {
		return fmt.Errorf("failed to clear bookmarks: %w", err)
	}
	return nil
}

// Export returns both collections
func (s *Service) Export(ctx context.Context) (*Snapshot, error) {
	highlights, err := s.GetAllHighlights(ctx)
	if err != nil {
		return nil, err
	}
	bookmarks, err := s.GetAllBookmarks(ctx)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Highlights: highlights,
		Bookmarks:  bookmarks,
		ExportedAt: types.Millis(s.now()),
	}, nil
}
