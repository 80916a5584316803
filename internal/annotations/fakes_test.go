package annotations

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dshills/bigbook-mcp/internal/storage"
	"github.com/dshills/bigbook-mcp/pkg/types"
)

// flakyStore wraps a real storage.Service and fails writes while failWrites is set
type flakyStore struct {
	*storage.Service
	failWrites error
	failReads  error
	saves      int
}

func newFlakyStore() *flakyStore {
	return &flakyStore{Service: storage.NewService(storage.NewMemoryStorage())}
}

func (f *flakyStore) SaveHighlight(ctx context.Context, h types.Highlight) error {
	if f.failWrites != nil {
		return f.failWrites
	}
	f.saves++
	return f.Service.SaveHighlight(ctx, h)
}

func (f *flakyStore) GetAllHighlights(ctx context.Context) ([]types.Highlight, error) {
	if f.failReads != nil {
		return nil, f.failReads
	}
	return f.Service.GetAllHighlights(ctx)
}

func (f *flakyStore) UpdateHighlight(ctx context.Context, id string, patch types.HighlightPatch) (types.Highlight, error) {
	if f.failWrites != nil {
		return types.Highlight{}, f.failWrites
	}
	return f.Service.UpdateHighlight(ctx, id, patch)
}

func (f *flakyStore) DeleteHighlight(ctx context.Context, id string) error {
	if f.failWrites != nil {
		return f.failWrites
	}
	return f.Service.DeleteHighlight(ctx, id)
}

func (f *flakyStore) ClearAllHighlights(ctx context.Context) error {
	if f.failWrites != nil {
		return f.failWrites
	}
	return f.Service.ClearAllHighlights(ctx)
}

func (f *flakyStore) SaveBookmark(ctx context.Context, b types.Bookmark) error {
	if f.failWrites != nil {
		return f.failWrites
	}
	f.saves++
	return f.Service.SaveBookmark(ctx, b)
}

func (f *flakyStore) GetAllBookmarks(ctx context.Context) ([]types.Bookmark, error) {
	if f.failReads != nil {
		return nil, f.failReads
	}
	return f.Service.GetAllBookmarks(ctx)
}

func (f *flakyStore) DeleteBookmark(ctx context.Context, id string) error {
	if f.failWrites != nil {
		return f.failWrites
	}
	return f.Service.DeleteBookmark(ctx, id)
}

func (f *flakyStore) ClearAllBookmarks(ctx context.Context) error {
	if f.failWrites != nil {
		return f.failWrites
	}
	return f.Service.ClearAllBookmarks(ctx)
}

// testClock returns increasing times one second apart
func testClock() func() time.Time {
	t := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

// sequentialIDs returns ids prefix-1, prefix-2, ...
func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testOptions(prefix string) []Option {
	return []Option{
		WithClock(testClock()),
		WithIDGenerator(sequentialIDs(prefix)),
		WithLogger(quietLogger()),
	}
}
