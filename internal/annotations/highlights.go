package annotations

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/dshills/bigbook-mcp/pkg/types"
)

// HighlightStore is the persistence the highlights cache needs.
// *storage.Service implements it.
type HighlightStore interface {
	SaveHighlight(ctx context.Context, h types.Highlight) error
	GetAllHighlights(ctx context.Context) ([]types.Highlight, error)
	UpdateHighlight(ctx context.Context, id string, patch types.HighlightPatch) (types.Highlight, error)
	DeleteHighlight(ctx context.Context, id string) error
	ClearAllHighlights(ctx context.Context) error
}

// NewHighlight carries the caller-supplied fields of a highlight
type NewHighlight struct {
	ParagraphID   string
	ChapterID     string
	SentenceIndex int
	Color         types.HighlightColor
	TextSnapshot  string
	Note          string
}

// Highlights is the shared cache of highlights, newest first
type Highlights struct {
	store  HighlightStore
	opts   options
	logger logrus.FieldLogger

	mu    sync.RWMutex
	items []types.Highlight

	subs subscribers[types.Highlight]
}

// NewHighlights creates the cache and loads every stored highlight
func NewHighlights(ctx context.Context, store HighlightStore, opts ...Option) (*Highlights, error) {
	o := applyOptions(opts)
	h := &Highlights{
		store:  store,
		opts:   o,
		logger: o.logger.WithField("component", "highlights"),
	}
	if err := h.Reload(ctx); err != nil {
		return nil, err
	}
	return h, nil
}

// Reload replaces the cache with the stored collection
func (h *Highlights) Reload(ctx context.Context) error {
	h.mu.Lock()
	if err := h.reloadLocked(ctx); err != nil {
		h.mu.Unlock()
		return err
	}
	version, snapshot := h.subs.stamp(), h.snapshotLocked()
	h.mu.Unlock()

	h.subs.publish(version, snapshot)
	return nil
}

func (h *Highlights) reloadLocked(ctx context.Context) error {
	items, err := h.store.GetAllHighlights(ctx)
	if err != nil {
		return err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt > items[j].CreatedAt
	})
	h.items = items
	h.logger.WithField("count", len(items)).Debug("highlights loaded")
	return nil
}

// Add creates, persists and caches a new highlight
func (h *Highlights) Add(ctx context.Context, in NewHighlight) (types.Highlight, error) {
	now := types.Millis(h.opts.now())
	hl := types.Highlight{
		ID:            h.opts.newID(),
		ParagraphID:   in.ParagraphID,
		ChapterID:     in.ChapterID,
		SentenceIndex: in.SentenceIndex,
		Color:         in.Color,
		Note:          in.Note,
		TextSnapshot:  in.TextSnapshot,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := hl.Validate(); err != nil {
		return types.Highlight{}, err
	}

	h.mu.Lock()
	if err := h.store.SaveHighlight(ctx, hl); err != nil {
		h.mu.Unlock()
		return types.Highlight{}, err
	}
	h.items = append([]types.Highlight{hl}, h.items...)
	version, snapshot := h.subs.stamp(), h.snapshotLocked()
	h.mu.Unlock()

	h.logger.WithFields(logrus.Fields{
		"highlight_id": hl.ID,
		"paragraph_id": hl.ParagraphID,
	}).Debug("highlight added")
	h.subs.publish(version, snapshot)
	return hl, nil
}

// Update applies patch to the highlight with id
func (h *Highlights) Update(ctx context.Context, id string, patch types.HighlightPatch) (types.Highlight, error) {
	h.mu.Lock()
	updated, err := h.store.UpdateHighlight(ctx, id, patch)
	if err != nil {
		h.mu.Unlock()
		return types.Highlight{}, err
	}
	for i := range h.items {
		if h.items[i].ID == id {
			patch.Apply(&h.items[i])
			h.items[i].UpdatedAt = updated.UpdatedAt
			break
		}
	}
	version, snapshot := h.subs.stamp(), h.snapshotLocked()
	h.mu.Unlock()

	h.subs.publish(version, snapshot)
	return updated, nil
}

// UpdateNote replaces the note of the highlight with id
func (h *Highlights) UpdateNote(ctx context.Context, id, note string) (types.Highlight, error) {
	return h.Update(ctx, id, types.HighlightPatch{Note: &note})
}

// Delete removes the highlight with id. Unknown ids are not an error.
func (h *Highlights) Delete(ctx context.Context, id string) error {
	h.mu.Lock()
	if err := h.store.DeleteHighlight(ctx, id); err != nil {
		h.mu.Unlock()
		return err
	}
	kept := make([]types.Highlight, 0, len(h.items))
	for _, hl := range h.items {
		if hl.ID != id {
			kept = append(kept, hl)
		}
	}
	h.items = kept
	version, snapshot := h.subs.stamp(), h.snapshotLocked()
	h.mu.Unlock()

	h.subs.publish(version, snapshot)
	return nil
}

// ClearAll removes every highlight, then reloads from the store. Subscribers
// are notified once the clear is committed, even when the reload fails.
func (h *Highlights) ClearAll(ctx context.Context) error {
	h.mu.Lock()
	if err := h.store.ClearAllHighlights(ctx); err != nil {
		h.mu.Unlock()
		return err
	}
	h.items = nil
	err := h.reloadLocked(ctx)
	version, snapshot := h.subs.stamp(), h.snapshotLocked()
	h.mu.Unlock()

	h.subs.publish(version, snapshot)
	if err != nil {
		return fmt.Errorf("reload after clear: %w", err)
	}
	h.logger.Info("highlights cleared")
	return nil
}

// All returns every cached highlight, newest first
func (h *Highlights) All() []types.Highlight {
	return h.filter(func(types.Highlight) bool { return true })
}

// ByChapter returns the highlights in one chapter
func (h *Highlights) ByChapter(chapterID string) []types.Highlight {
	return h.filter(func(hl types.Highlight) bool { return hl.ChapterID == chapterID })
}

// ByParagraph returns the highlights in one paragraph
func (h *Highlights) ByParagraph(paragraphID string) []types.Highlight {
	return h.filter(func(hl types.Highlight) bool { return hl.ParagraphID == paragraphID })
}

// BySentence returns the highlights on one sentence of a paragraph
func (h *Highlights) BySentence(paragraphID string, sentenceIndex int) []types.Highlight {
	return h.filter(func(hl types.Highlight) bool {
		return hl.ParagraphID == paragraphID && hl.SentenceIndex == sentenceIndex
	})
}

// Get returns the cached highlight with id
func (h *Highlights) Get(id string) (types.Highlight, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hl := range h.items {
		if hl.ID == id {
			return hl, true
		}
	}
	return types.Highlight{}, false
}

// Subscribe registers fn to receive the full list after every change. The
// returned function removes the subscription.
func (h *Highlights) Subscribe(fn func([]types.Highlight)) func() {
	return h.subs.add(fn)
}

// snapshotLocked copies the cache; callers hold mu
func (h *Highlights) snapshotLocked() []types.Highlight {
	out := make([]types.Highlight, len(h.items))
	copy(out, h.items)
	return out
}

func (h *Highlights) filter(keep func(types.Highlight) bool) []types.Highlight {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]types.Highlight, 0)
	for _, hl := range h.items {
		if keep(hl) {
			out = append(out, hl)
		}
	}
	return out
}
