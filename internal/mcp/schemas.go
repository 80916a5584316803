package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/bigbook-mcp/internal/searcher"
	"github.com/dshills/bigbook-mcp/pkg/types"
)

func colorNames() []string {
	names := make([]string, len(types.HighlightColors))
	for i, c := range types.HighlightColors {
		names[i] = string(c)
	}
	return names
}

var pageProperty = map[string]interface{}{
	"type":        "string",
	"description": "Printed page label: an arabic number ('58') or a roman numeral for front matter ('xiii')",
}

var confirmProperty = map[string]interface{}{
	"type":        "boolean",
	"description": "Must be true; guards against accidental deletion",
}

func noArgs() mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: map[string]interface{}{},
	}
}

// listChaptersTool returns the tool definition for list_chapters
func listChaptersTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_chapters",
		Description: "List every chapter of the book in reading order with title and page range",
		InputSchema: noArgs(),
	}
}

// readChapterTool returns the tool definition for read_chapter
func readChapterTool() mcp.Tool {
	return mcp.Tool{
		Name:        "read_chapter",
		Description: "Read the paragraphs of a chapter and make it the current chapter",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"chapter_id": map[string]interface{}{
					"type":        "string",
					"description": "Chapter id from list_chapters, e.g. 'chapter-1'",
				},
			},
			Required: []string{"chapter_id"},
		},
	}
}

// getParagraphTool returns the tool definition for get_paragraph
func getParagraphTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_paragraph",
		Description: "Fetch one paragraph by id together with its highlights",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"paragraph_id": map[string]interface{}{
					"type":        "string",
					"description": "Paragraph id, e.g. 'chapter-1-p3'",
				},
			},
			Required: []string{"paragraph_id"},
		},
	}
}

// goToPageTool returns the tool definition for go_to_page
func goToPageTool() mcp.Tool {
	return mcp.Tool{
		Name:        "go_to_page",
		Description: "Jump to the first paragraph printed on a page",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"page": pageProperty,
			},
			Required: []string{"page"},
		},
	}
}

// navigateTool returns the tool definition for navigate
func navigateTool() mcp.Tool {
	return mcp.Tool{
		Name:        "navigate",
		Description: "Move to the next or previous chapter",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"direction": map[string]interface{}{
					"type": "string",
					"enum": []string{"next", "previous"},
				},
			},
			Required: []string{"direction"},
		},
	}
}

// currentChapterTool returns the tool definition for current_chapter
func currentChapterTool() mcp.Tool {
	return mcp.Tool{
		Name:        "current_chapter",
		Description: "Show the chapter currently being read",
		InputSchema: noArgs(),
	}
}

// searchBookTool returns the tool definition for search_book
func searchBookTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_book",
		Description: "Find paragraphs containing a phrase (case-insensitive) with context snippets, best matches first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Text to search for",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     searcher.DefaultLimit,
					"minimum":     1,
					"maximum":     searcher.MaxLimit,
				},
				"chapter_id": map[string]interface{}{
					"type":        "string",
					"description": "Only search this chapter",
				},
			},
			Required: []string{"query"},
		},
	}
}

// addHighlightTool returns the tool definition for add_highlight
func addHighlightTool() mcp.Tool {
	return mcp.Tool{
		Name:        "add_highlight",
		Description: "Highlight one sentence of a paragraph",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"paragraph_id": map[string]interface{}{
					"type":        "string",
					"description": "Paragraph id, e.g. 'chapter-5-p2'",
				},
				"sentence_index": map[string]interface{}{
					"type":        "integer",
					"description": "0-based sentence index within the paragraph",
					"minimum":     0,
				},
				"color": map[string]interface{}{
					"type":    "string",
					"enum":    colorNames(),
					"default": string(types.ColorYellow),
				},
				"text_snapshot": map[string]interface{}{
					"type":        "string",
					"description": "The highlighted text; defaults to the text of sentence sentence_index",
				},
				"note": map[string]interface{}{
					"type":        "string",
					"description": "Optional note",
				},
			},
			Required: []string{"paragraph_id", "sentence_index"},
		},
	}
}

// updateHighlightTool returns the tool definition for update_highlight
func updateHighlightTool() mcp.Tool {
	return mcp.Tool{
		Name:        "update_highlight",
		Description: "Change the color or note of a highlight",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type": "string",
				},
				"color": map[string]interface{}{
					"type": "string",
					"enum": colorNames(),
				},
				"note": map[string]interface{}{
					"type": "string",
				},
			},
			Required: []string{"id"},
		},
	}
}

// deleteHighlightTool returns the tool definition for delete_highlight
func deleteHighlightTool() mcp.Tool {
	return mcp.Tool{
		Name:        "delete_highlight",
		Description: "Delete a highlight",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type": "string",
				},
			},
			Required: []string{"id"},
		},
	}
}

// listHighlightsTool returns the tool definition for list_highlights
func listHighlightsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_highlights",
		Description: "List highlights, newest first, optionally filtered by chapter or paragraph",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"chapter_id": map[string]interface{}{
					"type": "string",
				},
				"paragraph_id": map[string]interface{}{
					"type": "string",
				},
				"sentence_index": map[string]interface{}{
					"type":        "integer",
					"description": "With paragraph_id, only highlights on this sentence",
					"minimum":     0,
				},
			},
		},
	}
}

// clearHighlightsTool returns the tool definition for clear_highlights
func clearHighlightsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "clear_highlights",
		Description: "Delete every highlight",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"confirm": confirmProperty,
			},
			Required: []string{"confirm"},
		},
	}
}

// addBookmarkTool returns the tool definition for add_bookmark
func addBookmarkTool() mcp.Tool {
	return mcp.Tool{
		Name:        "add_bookmark",
		Description: "Bookmark a page. A page holds at most one bookmark; adding again returns the existing one.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"page": pageProperty,
				"label": map[string]interface{}{
					"type": "string",
				},
			},
			Required: []string{"page"},
		},
	}
}

// updateBookmarkLabelTool returns the tool definition for update_bookmark_label
func updateBookmarkLabelTool() mcp.Tool {
	return mcp.Tool{
		Name:        "update_bookmark_label",
		Description: "Rename a bookmark",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type": "string",
				},
				"label": map[string]interface{}{
					"type": "string",
				},
			},
			Required: []string{"id", "label"},
		},
	}
}

// deleteBookmarkTool returns the tool definition for delete_bookmark
func deleteBookmarkTool() mcp.Tool {
	return mcp.Tool{
		Name:        "delete_bookmark",
		Description: "Delete a bookmark",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type": "string",
				},
			},
			Required: []string{"id"},
		},
	}
}

// listBookmarksTool returns the tool definition for list_bookmarks
func listBookmarksTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_bookmarks",
		Description: "List bookmarks in page order, optionally for one chapter",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"chapter_id": map[string]interface{}{
					"type": "string",
				},
			},
		},
	}
}

// clearBookmarksTool returns the tool definition for clear_bookmarks
func clearBookmarksTool() mcp.Tool {
	return mcp.Tool{
		Name:        "clear_bookmarks",
		Description: "Delete every bookmark",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"confirm": confirmProperty,
			},
			Required: []string{"confirm"},
		},
	}
}
