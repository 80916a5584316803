package types

// MatchContext is one occurrence of a query inside a paragraph
type MatchContext struct {
	Before string `json:"before"`
	Match  string `json:"match"` // source text, case preserved
	After  string `json:"after"`
	Offset int    `json:"offset"` // rune offset of the match in the paragraph
}

// SearchResult groups every occurrence found in one paragraph
type SearchResult struct {
	ChapterID      string         `json:"chapterId"`
	ChapterTitle   string         `json:"chapterTitle"`
	ParagraphID    string         `json:"paragraphId"`
	PageNumber     int            `json:"pageNumber"`
	Order          int            `json:"order"`
	Matches        []MatchContext `json:"matches"`
	RelevanceScore int            `json:"relevanceScore"`
}

// PageLocation is the resolved target of a page jump
type PageLocation struct {
	ChapterID   string `json:"chapterId"`
	ParagraphID string `json:"paragraphId"`
	PageNumber  int    `json:"pageNumber"`
}
