package types

import (
	"strings"
	"time"
)

// HighlightColor is one of the fixed highlight colors
type HighlightColor string

const (
	ColorYellow HighlightColor = "yellow"
	ColorGreen  HighlightColor = "green"
	ColorBlue   HighlightColor = "blue"
	ColorPink   HighlightColor = "pink"
)

// HighlightColors lists the allowed colors in display order
var HighlightColors = []HighlightColor{ColorYellow, ColorGreen, ColorBlue, ColorPink}

// Valid reports whether c is one of the enumerated colors
func (c HighlightColor) Valid() bool {
	for _, allowed := range HighlightColors {
		if c == allowed {
			return true
		}
	}
	return false
}

// ParseHighlightColor parses a color name case-insensitively
func ParseHighlightColor(s string) (HighlightColor, error) {
	c := HighlightColor(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", ErrInvalidColor
	}
	return c, nil
}

// Highlight is a user annotation anchored to one sentence of one paragraph
type Highlight struct {
	ID            string         `json:"id"`
	ParagraphID   string         `json:"paragraphId"`
	ChapterID     string         `json:"chapterId"`
	SentenceIndex int            `json:"sentenceIndex"`
	Color         HighlightColor `json:"color"`
	Note          string         `json:"note,omitempty"`
	TextSnapshot  string         `json:"textSnapshot"`
	CreatedAt     int64          `json:"createdAt"` // epoch milliseconds
	UpdatedAt     int64          `json:"updatedAt"` // epoch milliseconds
}

// Validate checks the highlight's anchors and color
func (h *Highlight) Validate() error {
	if h.ParagraphID == "" || h.ChapterID == "" {
		return ErrEmptyAnchor
	}
	if h.SentenceIndex < 0 {
		return ErrInvalidSentence
	}
	if !h.Color.Valid() {
		return ErrInvalidColor
	}
	return nil
}

// HighlightPatch carries the mutable highlight fields. Nil fields are left unchanged.
type HighlightPatch struct {
	Color *HighlightColor `json:"color,omitempty"`
	Note  *string         `json:"note,omitempty"`
}

// Apply merges the patch into h
func (p HighlightPatch) Apply(h *Highlight) {
	if p.Color != nil {
		h.Color = *p.Color
	}
	if p.Note != nil {
		h.Note = *p.Note
	}
}

// Bookmark is a user marker anchored to a page
type Bookmark struct {
	ID         string `json:"id"`
	PageNumber int    `json:"pageNumber"`
	ChapterID  string `json:"chapterId"`
	Label      string `json:"label,omitempty"`
	CreatedAt  int64  `json:"createdAt"` // epoch milliseconds
}

// Millis converts t to epoch milliseconds
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}
