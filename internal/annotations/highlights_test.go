package annotations

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/bigbook-mcp/internal/storage"
	"github.com/dshills/bigbook-mcp/pkg/types"
)

func newHighlight(paragraph string, sentence int, color types.HighlightColor) NewHighlight {
	return NewHighlight{
		ParagraphID:   paragraph,
		ChapterID:     "chapter-1",
		SentenceIndex: sentence,
		Color:         color,
		TextSnapshot:  "If you are as seriously alcoholic as we were...",
	}
}

func setupHighlights(t *testing.T) (*Highlights, *flakyStore) {
	t.Helper()
	store := newFlakyStore()
	h, err := NewHighlights(context.Background(), store, testOptions("h")...)
	require.NoError(t, err)
	return h, store
}

func TestHighlights_AddScenario(t *testing.T) {
	h, store := setupHighlights(t)
	ctx := context.Background()

	added, err := h.Add(ctx, newHighlight("chapter-1-p1", 0, types.ColorYellow))
	require.NoError(t, err)
	assert.Equal(t, "h-1", added.ID)
	assert.Equal(t, added.CreatedAt, added.UpdatedAt)

	got := h.ByParagraph("chapter-1-p1")
	require.Len(t, got, 1)
	assert.Equal(t, types.ColorYellow, got[0].Color)

	stored, err := store.GetAllHighlights(ctx)
	require.NoError(t, err)
	assert.Equal(t, []types.Highlight{added}, stored)
}

func TestHighlights_NewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newFlakyStore()
	require.NoError(t, store.Service.SaveHighlight(ctx, types.Highlight{ID: "old", ParagraphID: "p", ChapterID: "c", Color: types.ColorBlue, CreatedAt: 1}))
	require.NoError(t, store.Service.SaveHighlight(ctx, types.Highlight{ID: "new", ParagraphID: "p", ChapterID: "c", Color: types.ColorBlue, CreatedAt: 5}))

	h, err := NewHighlights(ctx, store, testOptions("h")...)
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "old"}, ids(h.All()))

	_, err = h.Add(ctx, newHighlight("chapter-1-p2", 1, types.ColorGreen))
	require.NoError(t, err)
	assert.Equal(t, []string{"h-1", "new", "old"}, ids(h.All()))
}

func TestHighlights_Validation(t *testing.T) {
	h, store := setupHighlights(t)
	ctx := context.Background()

	_, err := h.Add(ctx, newHighlight("chapter-1-p1", 0, "purple"))
	assert.ErrorIs(t, err, types.ErrInvalidColor)

	_, err = h.Add(ctx, newHighlight("chapter-1-p1", -1, types.ColorPink))
	assert.ErrorIs(t, err, types.ErrInvalidSentence)

	_, err = h.Add(ctx, newHighlight("", 0, types.ColorPink))
	assert.ErrorIs(t, err, types.ErrEmptyAnchor)

	assert.Zero(t, store.saves)
	assert.Empty(t, h.All())
}

func TestHighlights_DerivedViews(t *testing.T) {
	h, _ := setupHighlights(t)
	ctx := context.Background()

	_, err := h.Add(ctx, newHighlight("chapter-1-p1", 0, types.ColorYellow))
	require.NoError(t, err)
	_, err = h.Add(ctx, newHighlight("chapter-1-p1", 2, types.ColorBlue))
	require.NoError(t, err)
	other := newHighlight("chapter-2-p4", 0, types.ColorPink)
	other.ChapterID = "chapter-2"
	_, err = h.Add(ctx, other)
	require.NoError(t, err)

	assert.Len(t, h.ByChapter("chapter-1"), 2)
	assert.Len(t, h.ByChapter("chapter-2"), 1)
	assert.Len(t, h.ByParagraph("chapter-1-p1"), 2)
	sentence := h.BySentence("chapter-1-p1", 2)
	require.Len(t, sentence, 1)
	assert.Equal(t, types.ColorBlue, sentence[0].Color)
	assert.Empty(t, h.BySentence("chapter-1-p1", 1))
	assert.NotNil(t, h.ByChapter("nowhere"))
}

func TestHighlights_UpdateAndNote(t *testing.T) {
	h, store := setupHighlights(t)
	ctx := context.Background()

	added, err := h.Add(ctx, newHighlight("chapter-1-p1", 0, types.ColorYellow))
	require.NoError(t, err)

	green := types.ColorGreen
	updated, err := h.Update(ctx, added.ID, types.HighlightPatch{Color: &green})
	require.NoError(t, err)
	assert.Equal(t, types.ColorGreen, updated.Color)

	updated, err = h.UpdateNote(ctx, added.ID, "Step one")
	require.NoError(t, err)
	assert.Equal(t, "Step one", updated.Note)

	cached, ok := h.Get(added.ID)
	require.True(t, ok)
	assert.Equal(t, types.ColorGreen, cached.Color)
	assert.Equal(t, "Step one", cached.Note)
	assert.Equal(t, updated.UpdatedAt, cached.UpdatedAt, "cache refreshes updatedAt to match the store")

	stored, err := store.GetAllHighlights(ctx)
	require.NoError(t, err)
	assert.Equal(t, cached, stored[0])

	_, err = h.UpdateNote(ctx, "missing", "x")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestHighlights_Delete(t *testing.T) {
	h, store := setupHighlights(t)
	ctx := context.Background()

	added, err := h.Add(ctx, newHighlight("chapter-1-p1", 0, types.ColorYellow))
	require.NoError(t, err)

	require.NoError(t, h.Delete(ctx, added.ID))
	require.NoError(t, h.Delete(ctx, added.ID), "second delete does not fail")

	assert.Empty(t, h.All())
	stored, err := store.GetAllHighlights(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestHighlights_FailedWritesLeaveCacheUnchanged(t *testing.T) {
	h, store := setupHighlights(t)
	ctx := context.Background()

	added, err := h.Add(ctx, newHighlight("chapter-1-p1", 0, types.ColorYellow))
	require.NoError(t, err)
	before := h.All()

	notified := 0
	h.Subscribe(func([]types.Highlight) { notified++ })

	boom := errors.New("device store unavailable")
	store.failWrites = boom

	_, err = h.Add(ctx, newHighlight("chapter-1-p2", 0, types.ColorBlue))
	assert.ErrorIs(t, err, boom)
	_, err = h.UpdateNote(ctx, added.ID, "note")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, h.Delete(ctx, added.ID), boom)
	assert.ErrorIs(t, h.ClearAll(ctx), boom)

	assert.Equal(t, before, h.All())
	assert.Zero(t, notified)
}

func TestHighlights_ClearAllReloads(t *testing.T) {
	h, store := setupHighlights(t)
	ctx := context.Background()

	_, err := h.Add(ctx, newHighlight("chapter-1-p1", 0, types.ColorYellow))
	require.NoError(t, err)

	require.NoError(t, h.ClearAll(ctx))
	assert.Empty(t, h.All())

	stored, err := store.GetAllHighlights(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)

	// a reload failure after a successful clear is reported, and subscribers
	// still see the committed clear
	_, err = h.Add(ctx, newHighlight("chapter-1-p1", 0, types.ColorYellow))
	require.NoError(t, err)
	_, err = h.Add(ctx, newHighlight("chapter-1-p2", 0, types.ColorBlue))
	require.NoError(t, err)

	var last []types.Highlight
	h.Subscribe(func(items []types.Highlight) { last = items })

	store.failReads = errors.New("read failed")
	assert.Error(t, h.ClearAll(ctx))
	assert.Empty(t, h.All())
	require.NotNil(t, last)
	assert.Empty(t, last)
}

func TestHighlights_SubscribersEndOnLatestChange(t *testing.T) {
	h, err := NewHighlights(context.Background(), newFlakyStore(), WithLogger(quietLogger()))
	require.NoError(t, err)
	ctx := context.Background()

	var (
		mu    sync.Mutex
		calls int
		last  []types.Highlight
	)
	entered := make(chan struct{})
	release := make(chan struct{})
	h.Subscribe(func(items []types.Highlight) {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			close(entered)
			<-release
		}
		mu.Lock()
		last = items
		mu.Unlock()
	})

	firstDone := make(chan error, 1)
	go func() {
		_, err := h.Add(ctx, newHighlight("chapter-1-p1", 0, types.ColorYellow))
		firstDone <- err
	}()
	<-entered

	// the second change commits while the first delivery is still running
	secondDone := make(chan error, 1)
	go func() {
		_, err := h.Add(ctx, newHighlight("chapter-1-p2", 0, types.ColorGreen))
		secondDone <- err
	}()
	require.Eventually(t, func() bool { return len(h.All()) == 2 }, time.Second, time.Millisecond)

	close(release)
	require.NoError(t, <-firstDone)
	require.NoError(t, <-secondDone)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, ids(h.All()), ids(last))
}

func TestHighlights_Subscribe(t *testing.T) {
	h, _ := setupHighlights(t)
	ctx := context.Background()

	var seen [][]types.Highlight
	unsubscribe := h.Subscribe(func(items []types.Highlight) { seen = append(seen, items) })

	added, err := h.Add(ctx, newHighlight("chapter-1-p1", 0, types.ColorYellow))
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, []string{added.ID}, ids(seen[0]))

	// subscribers get their own copy
	seen[0][0].Color = types.ColorPink
	cached, _ := h.Get(added.ID)
	assert.Equal(t, types.ColorYellow, cached.Color)

	require.NoError(t, h.Delete(ctx, added.ID))
	require.Len(t, seen, 2)
	assert.Empty(t, seen[1])

	unsubscribe()
	unsubscribe()
	_, err = h.Add(ctx, newHighlight("chapter-1-p1", 0, types.ColorYellow))
	require.NoError(t, err)
	assert.Len(t, seen, 2)
}

func TestNewHighlights_LoadError(t *testing.T) {
	store := newFlakyStore()
	store.failReads = storage.ErrCorruptCollection
	_, err := NewHighlights(context.Background(), store)
	assert.ErrorIs(t, err, storage.ErrCorruptCollection)
}

func TestHighlights_DefaultIDs(t *testing.T) {
	h, err := NewHighlights(context.Background(), newFlakyStore(), WithLogger(quietLogger()))
	require.NoError(t, err)

	a, err := h.Add(context.Background(), newHighlight("chapter-1-p1", 0, types.ColorYellow))
	require.NoError(t, err)
	b, err := h.Add(context.Background(), newHighlight("chapter-1-p1", 0, types.ColorYellow))
	require.NoError(t, err)
	assert.Len(t, a.ID, 36)
	assert.NotEqual(t, a.ID, b.ID)
}

func ids[T interface{ types.Highlight | types.Bookmark }](items []T) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch v := any(item).(type) {
		case types.Highlight:
			out = append(out, v.ID)
		case types.Bookmark:
			out = append(out, v.ID)
		}
	}
	return out
}
