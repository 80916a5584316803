package annotations

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/bigbook-mcp/pkg/types"
)

func setupBookmarks(t *testing.T) (*Bookmarks, *flakyStore) {
	t.Helper()
	store := newFlakyStore()
	b, err := NewBookmarks(context.Background(), store, testOptions("b")...)
	require.NoError(t, err)
	return b, store
}

func TestBookmarks_AddIsIdempotentPerPage(t *testing.T) {
	b, store := setupBookmarks(t)
	ctx := context.Background()

	first, created, err := b.Add(ctx, 58, "chapter-5", "How It Works")
	require.NoError(t, err)
	assert.True(t, created)
	second, created, err := b.Add(ctx, 58, "chapter-5", "")
	require.NoError(t, err)
	assert.False(t, created)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "How It Works", second.Label)
	assert.Equal(t, 1, store.saves)

	stored, err := store.GetAllBookmarks(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestBookmarks_SortedByPage(t *testing.T) {
	b, _ := setupBookmarks(t)
	ctx := context.Background()

	for _, page := range []int{30, 1, types.EncodeRomanPage(25), 17} {
		_, _, err := b.Add(ctx, page, "c", "")
		require.NoError(t, err)
	}

	var pages []int
	for _, bm := range b.All() {
		pages = append(pages, bm.PageNumber)
	}
	assert.Equal(t, []int{types.EncodeRomanPage(25), 1, 17, 30}, pages)
}

func TestBookmarks_LoadSortsStoredCollection(t *testing.T) {
	ctx := context.Background()
	store := newFlakyStore()
	require.NoError(t, store.Service.SaveBookmark(ctx, types.Bookmark{ID: "x", PageNumber: 9, ChapterID: "c"}))
	require.NoError(t, store.Service.SaveBookmark(ctx, types.Bookmark{ID: "y", PageNumber: 2, ChapterID: "c"}))

	b, err := NewBookmarks(ctx, store, testOptions("b")...)
	require.NoError(t, err)
	assert.Equal(t, []string{"y", "x"}, ids(b.All()))
}

func TestBookmarks_UpdateLabel(t *testing.T) {
	b, store := setupBookmarks(t)
	ctx := context.Background()

	added, _, err := b.Add(ctx, 17, "chapter-2", "")
	require.NoError(t, err)

	updated, err := b.UpdateLabel(ctx, added.ID, "There Is a Solution")
	require.NoError(t, err)
	assert.Equal(t, "There Is a Solution", updated.Label)
	assert.Equal(t, added.CreatedAt, updated.CreatedAt)

	stored, err := store.GetAllBookmarks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []types.Bookmark{updated}, stored)

	_, err = b.UpdateLabel(ctx, "unknown", "x")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestBookmarks_Delete(t *testing.T) {
	b, store := setupBookmarks(t)
	ctx := context.Background()

	added, _, err := b.Add(ctx, 17, "chapter-2", "")
	require.NoError(t, err)
	require.NoError(t, b.Delete(ctx, added.ID))
	require.NoError(t, b.Delete(ctx, added.ID))

	assert.False(t, b.IsPageBookmarked(17))
	stored, err := store.GetAllBookmarks(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)

	readded, _, err := b.Add(ctx, 17, "chapter-2", "")
	require.NoError(t, err)
	assert.NotEqual(t, added.ID, readded.ID)
}

func TestBookmarks_DerivedReads(t *testing.T) {
	ctx := context.Background()
	store := newFlakyStore()
	// duplicates per page can only come from direct store writes
	require.NoError(t, store.Service.SaveBookmark(ctx, types.Bookmark{ID: "a", PageNumber: 44, ChapterID: "chapter-3"}))
	require.NoError(t, store.Service.SaveBookmark(ctx, types.Bookmark{ID: "b", PageNumber: 44, ChapterID: "chapter-4"}))
	require.NoError(t, store.Service.SaveBookmark(ctx, types.Bookmark{ID: "c", PageNumber: 50, ChapterID: "chapter-4"}))

	b, err := NewBookmarks(ctx, store, testOptions("b")...)
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "c"}, ids(b.ByChapter("chapter-4")))
	assert.Empty(t, b.ByChapter("chapter-9"))

	assert.True(t, b.IsPageBookmarked(44))
	assert.False(t, b.IsPageBookmarked(45))

	bm, ok := b.ForPage(44, "chapter-4")
	require.True(t, ok)
	assert.Equal(t, "b", bm.ID)

	bm, ok = b.ForPage(44, "chapter-7")
	require.True(t, ok)
	assert.Equal(t, "a", bm.ID, "falls back to any bookmark on the page")

	bm, ok = b.ForPage(44, "")
	require.True(t, ok)
	assert.Equal(t, "a", bm.ID)

	_, ok = b.ForPage(99, "chapter-4")
	assert.False(t, ok)
}

func TestBookmarks_FailedWritesLeaveCacheUnchanged(t *testing.T) {
	b, store := setupBookmarks(t)
	ctx := context.Background()

	added, _, err := b.Add(ctx, 1, "chapter-1", "start")
	require.NoError(t, err)
	before := b.All()

	boom := errors.New("write failed")
	store.failWrites = boom

	_, _, err = b.Add(ctx, 2, "chapter-1", "")
	assert.ErrorIs(t, err, boom)
	_, err = b.UpdateLabel(ctx, added.ID, "changed")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, b.Delete(ctx, added.ID), boom)
	assert.ErrorIs(t, b.ClearAll(ctx), boom)

	assert.Equal(t, before, b.All())
}

func TestBookmarks_ClearAllAndSubscribe(t *testing.T) {
	b, store := setupBookmarks(t)
	ctx := context.Background()

	var counts []int
	b.Subscribe(func(items []types.Bookmark) { counts = append(counts, len(items)) })

	_, _, err := b.Add(ctx, 1, "chapter-1", "")
	require.NoError(t, err)
	_, _, err = b.Add(ctx, 2, "chapter-1", "")
	require.NoError(t, err)
	_, _, err = b.Add(ctx, 2, "chapter-1", "")
	require.NoError(t, err)
	require.NoError(t, b.ClearAll(ctx))

	assert.Equal(t, []int{1, 2, 0}, counts, "idempotent add does not notify")
	assert.Empty(t, b.All())
	stored, err := store.GetAllBookmarks(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestBookmarks_AddRequiresChapter(t *testing.T) {
	b, _ := setupBookmarks(t)
	_, _, err := b.Add(context.Background(), 1, "", "")
	assert.ErrorIs(t, err, types.ErrEmptyAnchor)
}

func TestBookmarks_ConcurrentAdds(t *testing.T) {
	b, err := NewBookmarks(context.Background(), newFlakyStore(), WithLogger(quietLogger()))
	require.NoError(t, err)
	ctx := context.Background()

	var (
		mu   sync.Mutex
		last []types.Bookmark
	)
	b.Subscribe(func(items []types.Bookmark) {
		mu.Lock()
		last = items
		mu.Unlock()
	})

	const workers = 8
	var (
		wg      sync.WaitGroup
		created = make(chan bool, workers*2)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(page int) {
			defer wg.Done()
			// every worker adds its own page and the shared page 1
			for _, p := range []int{page, 1} {
				_, ok, err := b.Add(ctx, p, "chapter-1", "")
				assert.NoError(t, err)
				created <- ok && p == 1
			}
		}(i + 2)
	}
	wg.Wait()
	close(created)

	sharedCreations := 0
	for ok := range created {
		if ok {
			sharedCreations++
		}
	}
	assert.Equal(t, 1, sharedCreations, "only one add creates the shared page")
	assert.Len(t, b.All(), workers+1)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, b.All(), last, "subscribers end on the cached list")
}
