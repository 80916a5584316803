package types

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// PageRange is an inclusive range of encoded page numbers
type PageRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Contains reports whether page falls inside the range
func (r PageRange) Contains(page int) bool {
	return page >= r.Start && page <= r.End
}

// String renders the range with printed page labels
func (r PageRange) String() string {
	return FormatPage(r.Start) + "-" + FormatPage(r.End)
}

// Paragraph is one block of book text
type Paragraph struct {
	ID         string `json:"id"`
	ChapterID  string `json:"chapterId"`
	PageNumber int    `json:"pageNumber"`
	Content    string `json:"content"`
	Order      int    `json:"order"` // 1-based position within the chapter
	IsItalic   bool   `json:"isItalic,omitempty"`
}

// Chapter is one titled section of the book. Chapters are static.
type Chapter struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	ChapterNumber *int        `json:"chapterNumber,omitempty"` // main chapters only
	PageRange     PageRange   `json:"pageRange"`
	Roman         bool        `json:"useRomanNumerals,omitempty"`
	Paragraphs    []Paragraph `json:"paragraphs"`
}

// ChapterMeta is a Chapter without its paragraph bodies
type ChapterMeta struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	ChapterNumber  *int      `json:"chapterNumber,omitempty"`
	PageRange      PageRange `json:"pageRange"`
	Roman          bool      `json:"useRomanNumerals,omitempty"`
	ParagraphCount int       `json:"paragraphCount"`
}

// Meta returns the lightweight descriptor for the chapter
func (c *Chapter) Meta() ChapterMeta {
	return ChapterMeta{
		ID:             c.ID,
		Title:          c.Title,
		ChapterNumber:  c.ChapterNumber,
		PageRange:      c.PageRange,
		Roman:          c.Roman,
		ParagraphCount: len(c.Paragraphs),
	}
}

// ParagraphID derives the paragraph id for a chapter and 1-based order
func ParagraphID(chapterID string, order int) string {
	return fmt.Sprintf("%s-p%d", chapterID, order)
}

// Sentences splits the paragraph into sentences. A sentence ends at '.', '!'
// or '?', plus any closing quotes or brackets, followed by white space or the
// end of the text.
func (p Paragraph) Sentences() []string {
	runes := []rune(p.Content)
	var out []string
	start := 0
	for i := 0; i < len(runes); i++ {
		if !strings.ContainsRune(".!?", runes[i]) {
			continue
		}
		end := i + 1
		for end < len(runes) && strings.ContainsRune(".!?\"'”’)]", runes[end]) {
			end++
		}
		if end < len(runes) && !unicode.IsSpace(runes[end]) {
			i = end - 1
			continue
		}
		if s := strings.TrimSpace(string(runes[start:end])); s != "" {
			out = append(out, s)
		}
		start, i = end, end-1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

// Sentence returns sentence i of the paragraph
func (p Paragraph) Sentence(i int) (string, bool) {
	sentences := p.Sentences()
	if i < 0 || i >= len(sentences) {
		return "", false
	}
	return sentences[i], true
}

// FirstParagraphOnPage returns the first paragraph printed on page
func (c *Chapter) FirstParagraphOnPage(page int) (*Paragraph, bool) {
	for i := range c.Paragraphs {
		if c.Paragraphs[i].PageNumber == page {
			return &c.Paragraphs[i], true
		}
	}
	return nil, false
}

// Validate checks the chapter's structural invariants: paragraphs are
// numbered 1..n without gaps, point back at the chapter, never move to an
// earlier page and stay within the chapter's page range.
func (c *Chapter) Validate() error {
	if c.ID == "" {
		return errors.New("chapter id cannot be empty")
	}
	if c.PageRange.Start > c.PageRange.End {
		return fmt.Errorf("chapter %s: page range %s is inverted", c.ID, c.PageRange)
	}

	lastPage := c.PageRange.Start
	for i, p := range c.Paragraphs {
		if p.Order != i+1 {
			return fmt.Errorf("chapter %s: paragraph %d has order %d", c.ID, i+1, p.Order)
		}
		if p.ChapterID != c.ID {
			return fmt.Errorf("chapter %s: paragraph %s belongs to %q", c.ID, p.ID, p.ChapterID)
		}
		if p.ID != ParagraphID(c.ID, p.Order) {
			return fmt.Errorf("chapter %s: paragraph id %s does not match order %d", c.ID, p.ID, p.Order)
		}
		if !c.PageRange.Contains(p.PageNumber) {
			return fmt.Errorf("chapter %s: paragraph %s on page %s outside %s",
				c.ID, p.ID, FormatPage(p.PageNumber), c.PageRange)
		}
		if p.PageNumber < lastPage {
			return fmt.Errorf("chapter %s: paragraph %s moves back to page %s",
				c.ID, p.ID, FormatPage(p.PageNumber))
		}
		lastPage = p.PageNumber
	}

	return nil
}
