package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/bigbook-mcp/pkg/types"
)

// handleContentsResource serves the table of contents
func (s *Server) handleContentsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	metas := s.app.Content.GetAllChapters()
	contents := make([]map[string]interface{}, 0, len(metas))
	for _, m := range metas {
		summary := chapterSummary(m)
		summary["uri"] = ChapterURIPrefix + m.ID
		contents = append(contents, summary)
	}

	data, err := json.MarshalIndent(contents, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode contents: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// handleChapterResource serves one chapter as markdown
func (s *Server) handleChapterResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	id := strings.TrimPrefix(req.Params.URI, ChapterURIPrefix)
	ch, ok := s.app.Content.GetChapter(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrChapterNotFound, id)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     renderChapter(ch),
		},
	}, nil
}

// renderChapter formats a chapter as markdown with a marker at each page break
func renderChapter(ch *types.Chapter) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", ch.Title)

	page := 0
	for i, p := range ch.Paragraphs {
		if i == 0 || p.PageNumber != page {
			page = p.PageNumber
			fmt.Fprintf(&b, "\n<!-- page %s -->\n", types.FormatPage(page))
		}
		text := p.Content
		if p.IsItalic {
			text = "_" + text + "_"
		}
		fmt.Fprintf(&b, "\n%s\n", text)
	}
	return b.String()
}

// handleSummarizeChapterPrompt builds a summary prompt from a chapter and its highlights
func (s *Server) handleSummarizeChapterPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	id := req.Params.Arguments["chapter_id"]
	if id == "" {
		current, ok := s.app.Navigator.Current()
		if !ok {
			return nil, fmt.Errorf("chapter_id is required when no chapter is open")
		}
		id = current.ID
	}
	ch, ok := s.app.Content.GetChapter(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrChapterNotFound, id)
	}

	var notes strings.Builder
	for _, h := range s.app.Highlights.ByChapter(id) {
		fmt.Fprintf(&notes, "- [%s] %s", h.Color, h.TextSnapshot)
		if h.Note != "" {
			fmt.Fprintf(&notes, " (note: %s)", h.Note)
		}
		notes.WriteString("\n")
	}
	if notes.Len() == 0 {
		notes.WriteString("(none)\n")
	}

	promptText := fmt.Sprintf(`Summarize the chapter "%s" (pages %s).

Chapter text:

%s
Passages the reader highlighted:
%s
Keep the summary faithful to the text and point out how the highlighted passages fit in.`,
		ch.Title, ch.PageRange, renderChapter(ch), notes.String())

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Summary of '%s'", ch.Title),
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.NewTextContent(promptText),
			},
		},
	}, nil
}
