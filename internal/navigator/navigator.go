// Package navigator tracks which chapter the reader is viewing. The state is
// ephemeral and lives only as long as the process.
package navigator

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/dshills/bigbook-mcp/internal/content"
	"github.com/dshills/bigbook-mcp/pkg/types"
)

// Navigator is the current-chapter state machine over a content table
type Navigator struct {
	table  *content.Table
	logger logrus.FieldLogger

	mu      sync.RWMutex
	current string // empty until a chapter is loaded
}

// New creates a Navigator with no current chapter
func New(table *content.Table, logger logrus.FieldLogger) *Navigator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Navigator{table: table, logger: logger}
}

// Current returns the metadata of the current chapter
func (n *Navigator) Current() (types.ChapterMeta, bool) {
	n.mu.RLock()
	id := n.current
	n.mu.RUnlock()

	if id == "" {
		return types.ChapterMeta{}, false
	}
	ch, ok := n.table.GetChapter(id)
	if !ok {
		return types.ChapterMeta{}, false
	}
	return ch.Meta(), true
}

// CurrentID returns the current chapter id, or "" when none is set
func (n *Navigator) CurrentID() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.current
}

// LoadChapter makes id the current chapter. Unknown ids leave the state
// unchanged and return ErrChapterNotFound.
func (n *Navigator) LoadChapter(id string) error {
	if _, ok := n.table.GetChapter(id); !ok {
		n.logger.WithField("chapter_id", id).Warn("load chapter: unknown chapter")
		return fmt.Errorf("%w: %s", types.ErrChapterNotFound, id)
	}

	n.mu.Lock()
	n.current = id
	n.mu.Unlock()
	return nil
}

// GoToNextChapter moves to the following chapter. It reports false when no
// chapter is loaded or the current chapter is the last one.
func (n *Navigator) GoToNextChapter() bool {
	return n.step(1)
}

// GoToPreviousChapter moves to the preceding chapter. It reports false when
// no chapter is loaded or the current chapter is the first one.
func (n *Navigator) GoToPreviousChapter() bool {
	return n.step(-1)
}

func (n *Navigator) step(delta int) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.current == "" {
		return false
	}
	next, ok := n.table.ChapterAt(n.table.IndexOf(n.current) + delta)
	if !ok {
		return false
	}
	n.current = next.ID
	return true
}

// GoToPage resolves page to the first chapter whose range contains it and
// the first paragraph printed on exactly that page. The current chapter
// changes only when both are found.
func (n *Navigator) GoToPage(page int) (types.PageLocation, bool) {
	ch, ok := n.table.ChapterForPage(page)
	if !ok {
		return types.PageLocation{}, false
	}
	p, ok := ch.FirstParagraphOnPage(page)
	if !ok {
		return types.PageLocation{}, false
	}

	n.mu.Lock()
	n.current = ch.ID
	n.mu.Unlock()

	return types.PageLocation{
		ChapterID:   ch.ID,
		ParagraphID: p.ID,
		PageNumber:  page,
	}, true
}
