package types

import "errors"

// Domain errors shared by the content, navigation and annotation layers
var (
	// Lookup errors
	ErrNotFound          = errors.New("not found")
	ErrChapterNotFound   = errors.New("chapter not found")
	ErrParagraphNotFound = errors.New("paragraph not found")
	ErrPageNotFound      = errors.New("page not found")

	// Annotation validation errors
	ErrInvalidColor    = errors.New("invalid highlight color")
	ErrInvalidSentence = errors.New("sentence index must be >= 0")
	ErrEmptyAnchor     = errors.New("paragraph and chapter ids are required")
	ErrInvalidPage     = errors.New("invalid page number")

	// Search errors
	ErrEmptyQuery = errors.New("query cannot be empty")
)
