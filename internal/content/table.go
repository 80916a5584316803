package content

import (
	"fmt"

	"github.com/dshills/bigbook-mcp/pkg/types"
)

// paragraphRef locates a paragraph inside the table
type paragraphRef struct {
	chapter int
	index   int
}

// Table is the immutable content table: chapters in reading order, each
// owning its ordered paragraphs. Pointers returned by lookups refer to shared
// data and must not be modified.
type Table struct {
	chapters   []types.Chapter
	byID       map[string]int
	paragraphs map[string]paragraphRef
	metas      []types.ChapterMeta
}

// NewTable validates chapters and builds the lookup indexes
func NewTable(chapters []types.Chapter) (*Table, error) {
	t := &Table{
		chapters:   chapters,
		byID:       make(map[string]int, len(chapters)),
		paragraphs: make(map[string]paragraphRef),
		metas:      make([]types.ChapterMeta, len(chapters)),
	}

	for ci := range chapters {
		ch := &chapters[ci]
		if err := ch.Validate(); err != nil {
			return nil, err
		}
		if _, dup := t.byID[ch.ID]; dup {
			return nil, fmt.Errorf("duplicate chapter id %q", ch.ID)
		}
		t.byID[ch.ID] = ci
		t.metas[ci] = ch.Meta()

		for pi := range ch.Paragraphs {
			id := ch.Paragraphs[pi].ID
			if _, dup := t.paragraphs[id]; dup {
				return nil, fmt.Errorf("duplicate paragraph id %q", id)
			}
			t.paragraphs[id] = paragraphRef{chapter: ci, index: pi}
		}
	}

	return t, nil
}

// Len returns the number of chapters
func (t *Table) Len() int {
	return len(t.chapters)
}

// ParagraphCount returns the number of paragraphs across all chapters
func (t *Table) ParagraphCount() int {
	return len(t.paragraphs)
}

// GetChapter returns the chapter with the given id
func (t *Table) GetChapter(id string) (*types.Chapter, bool) {
	i, ok := t.byID[id]
	if !ok {
		return nil, false
	}
	return &t.chapters[i], true
}

// GetAllChapters returns the chapter descriptors in reading order
func (t *Table) GetAllChapters() []types.ChapterMeta {
	out := make([]types.ChapterMeta, len(t.metas))
	copy(out, t.metas)
	return out
}

// GetParagraph returns the paragraph with the given id
func (t *Table) GetParagraph(id string) (*types.Paragraph, bool) {
	ref, ok := t.paragraphs[id]
	if !ok {
		return nil, false
	}
	return &t.chapters[ref.chapter].Paragraphs[ref.index], true
}

// IndexOf returns the reading-order position of a chapter, or -1
func (t *Table) IndexOf(id string) int {
	if i, ok := t.byID[id]; ok {
		return i
	}
	return -1
}

// ChapterAt returns the chapter at a reading-order position
func (t *Table) ChapterAt(i int) (*types.Chapter, bool) {
	if i < 0 || i >= len(t.chapters) {
		return nil, false
	}
	return &t.chapters[i], true
}

// ChapterForPage returns the first chapter, in reading order, whose page range contains page
func (t *Table) ChapterForPage(page int) (*types.Chapter, bool) {
	for i := range t.chapters {
		if t.chapters[i].PageRange.Contains(page) {
			return &t.chapters[i], true
		}
	}
	return nil, false
}

// Each calls fn for every chapter in reading order until fn returns false
func (t *Table) Each(fn func(ch *types.Chapter) bool) {
	for i := range t.chapters {
		if !fn(&t.chapters[i]) {
			return
		}
	}
}
