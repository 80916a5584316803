package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"

	"github.com/dshills/bigbook-mcp/internal/annotations"
	"github.com/dshills/bigbook-mcp/internal/searcher"
	"github.com/dshills/bigbook-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeNotFound      = -32001 // Chapter, paragraph, page or annotation does not exist
	ErrorCodeEmptyQuery    = -32004 // Query parameter is missing
)

// Reading and navigation

// handleListChapters handles the list_chapters tool invocation
func (s *Server) handleListChapters(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	metas := s.app.Content.GetAllChapters()
	chapters := make([]map[string]interface{}, 0, len(metas))
	for _, m := range metas {
		chapters = append(chapters, chapterSummary(m))
	}

	response := map[string]interface{}{
		"chapters": chapters,
		"count":    len(chapters),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleReadChapter handles the read_chapter tool invocation
func (s *Server) handleReadChapter(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	id, err := requireString(args, "chapter_id")
	if err != nil {
		return nil, err
	}
	if err := s.app.Navigator.LoadChapter(id); err != nil {
		return nil, toolError("chapter not found", err)
	}
	ch, _ := s.app.Content.GetChapter(id)

	paragraphs := make([]map[string]interface{}, 0, len(ch.Paragraphs))
	for _, p := range ch.Paragraphs {
		paragraphs = append(paragraphs, paragraphView(p, len(s.app.Highlights.ByParagraph(p.ID))))
	}

	response := map[string]interface{}{
		"chapter":    chapterSummary(ch.Meta()),
		"paragraphs": paragraphs,
		"bookmarks":  s.app.Bookmarks.ByChapter(id),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetParagraph handles the get_paragraph tool invocation
func (s *Server) handleGetParagraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	id, err := requireString(args, "paragraph_id")
	if err != nil {
		return nil, err
	}
	p, ok := s.app.Content.GetParagraph(id)
	if !ok {
		return nil, toolError("paragraph not found", fmt.Errorf("%w: %s", types.ErrParagraphNotFound, id))
	}

	highlights := s.app.Highlights.ByParagraph(id)
	response := map[string]interface{}{
		"paragraph":  paragraphView(*p, len(highlights)),
		"highlights": highlights,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGoToPage handles the go_to_page tool invocation
func (s *Server) handleGoToPage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	page, err := requirePage(args, "page")
	if err != nil {
		return nil, err
	}

	loc, ok := s.app.Navigator.GoToPage(page)
	if !ok {
		return nil, toolError("page not found", fmt.Errorf("%w: %s", types.ErrPageNotFound, types.FormatPage(page)))
	}
	p, _ := s.app.Content.GetParagraph(loc.ParagraphID)
	current, _ := s.app.Navigator.Current()

	response := map[string]interface{}{
		"location":   loc,
		"page":       types.FormatPage(loc.PageNumber),
		"chapter":    chapterSummary(current),
		"paragraph":  paragraphView(*p, len(s.app.Highlights.ByParagraph(p.ID))),
		"bookmarked": s.app.Bookmarks.IsPageBookmarked(page),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleNavigate handles the navigate tool invocation
func (s *Server) handleNavigate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	var moved bool
	switch direction := getStringDefault(args, "direction", ""); direction {
	case "next":
		moved = s.app.Navigator.GoToNextChapter()
	case "previous":
		moved = s.app.Navigator.GoToPreviousChapter()
	default:
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid direction", map[string]interface{}{
			"param":   "direction",
			"value":   direction,
			"allowed": []string{"next", "previous"},
		})
	}

	response := map[string]interface{}{
		"moved": moved,
	}
	if current, ok := s.app.Navigator.Current(); ok {
		response["current"] = chapterSummary(current)
	} else {
		response["message"] = "No chapter is open. Use read_chapter or go_to_page first."
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleCurrentChapter handles the current_chapter tool invocation
func (s *Server) handleCurrentChapter(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	current, ok := s.app.Navigator.Current()
	response := map[string]interface{}{
		"open": ok,
	}
	if ok {
		response["current"] = chapterSummary(current)
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchBook handles the search_book tool invocation
func (s *Server) handleSearchBook(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	query, ok := args["query"].(string)
	if !ok {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required", map[string]interface{}{
			"param":  "query",
			"reason": "missing",
		})
	}

	limit := getIntDefault(args, "limit", searcher.DefaultLimit)
	if limit < 1 || limit > searcher.MaxLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	chapterID := getStringDefault(args, "chapter_id", "")
	if chapterID != "" {
		if _, ok := s.app.Content.GetChapter(chapterID); !ok {
			return nil, toolError("chapter not found", fmt.Errorf("%w: %s", types.ErrChapterNotFound, chapterID))
		}
	}

	resp, err := s.app.Searcher.SearchWithRequest(ctx, searcher.SearchRequest{
		Query:     query,
		Limit:     limit,
		ChapterID: chapterID,
	})
	if err != nil {
		return nil, toolError("search failed", err)
	}

	results := make([]map[string]interface{}, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, map[string]interface{}{
			"chapter_id":      r.ChapterID,
			"chapter_title":   r.ChapterTitle,
			"paragraph_id":    r.ParagraphID,
			"page":            types.FormatPage(r.PageNumber),
			"relevance_score": r.RelevanceScore,
			"matches":         r.Matches,
		})
	}

	response := map[string]interface{}{
		"query":         query,
		"results":       results,
		"total_results": resp.TotalResults,
		"cache_hit":     resp.CacheHit,
		"duration_ms":   resp.Duration.Milliseconds(),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Highlights

// handleAddHighlight handles the add_highlight tool invocation
func (s *Server) handleAddHighlight(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	paragraphID, err := requireString(args, "paragraph_id")
	if err != nil {
		return nil, err
	}
	p, ok := s.app.Content.GetParagraph(paragraphID)
	if !ok {
		return nil, toolError("paragraph not found", fmt.Errorf("%w: %s", types.ErrParagraphNotFound, paragraphID))
	}

	sentence := getIntDefault(args, "sentence_index", -1)
	text, ok := p.Sentence(sentence)
	if !ok {
		return nil, toolError("invalid sentence_index", fmt.Errorf("%w: %d, paragraph %s has %d sentences",
			types.ErrInvalidSentence, sentence, p.ID, len(p.Sentences())))
	}
	color, err := types.ParseHighlightColor(getStringDefault(args, "color", string(types.ColorYellow)))
	if err != nil {
		return nil, toolError("invalid color", err)
	}

	h, err := s.app.Highlights.Add(ctx, annotations.NewHighlight{
		ParagraphID:   p.ID,
		ChapterID:     p.ChapterID,
		SentenceIndex: sentence,
		Color:         color,
		TextSnapshot:  getStringDefault(args, "text_snapshot", text),
		Note:          getStringDefault(args, "note", ""),
	})
	if err != nil {
		return nil, toolError("failed to add highlight", err)
	}

	s.logger.WithFields(logrus.Fields{
		"tool":         "add_highlight",
		"highlight_id": h.ID,
	}).Info("highlight added")
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{"highlight": h})), nil
}

// handleUpdateHighlight handles the update_highlight tool invocation
func (s *Server) handleUpdateHighlight(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	id, err := requireString(args, "id")
	if err != nil {
		return nil, err
	}

	var patch types.HighlightPatch
	if raw, ok := args["color"].(string); ok {
		color, err := types.ParseHighlightColor(raw)
		if err != nil {
			return nil, toolError("invalid color", err)
		}
		patch.Color = &color
	}
	if note, ok := args["note"].(string); ok {
		patch.Note = &note
	}
	if patch.Color == nil && patch.Note == nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "color or note is required", map[string]interface{}{
			"params": []string{"color", "note"},
		})
	}

	h, err := s.app.Highlights.Update(ctx, id, patch)
	if err != nil {
		return nil, toolError("failed to update highlight", err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{"highlight": h})), nil
}

// handleDeleteHighlight handles the delete_highlight tool invocation
func (s *Server) handleDeleteHighlight(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	id, err := requireString(args, "id")
	if err != nil {
		return nil, err
	}
	_, existed := s.app.Highlights.Get(id)
	if err := s.app.Highlights.Delete(ctx, id); err != nil {
		return nil, toolError("failed to delete highlight", err)
	}

	response := map[string]interface{}{
		"deleted": existed,
		"id":      id,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleListHighlights handles the list_highlights tool invocation
func (s *Server) handleListHighlights(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	chapterID := getStringDefault(args, "chapter_id", "")
	paragraphID := getStringDefault(args, "paragraph_id", "")
	sentence := getIntDefault(args, "sentence_index", -1)

	var highlights []types.Highlight
	switch {
	case paragraphID != "" && sentence >= 0:
		highlights = s.app.Highlights.BySentence(paragraphID, sentence)
	case paragraphID != "":
		highlights = s.app.Highlights.ByParagraph(paragraphID)
	case chapterID != "":
		highlights = s.app.Highlights.ByChapter(chapterID)
	default:
		highlights = s.app.Highlights.All()
	}

	response := map[string]interface{}{
		"highlights": highlights,
		"count":      len(highlights),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleClearHighlights handles the clear_highlights tool invocation
func (s *Server) handleClearHighlights(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := requireConfirm(arguments(request)); err != nil {
		return nil, err
	}
	removed := len(s.app.Highlights.All())
	if err := s.app.Highlights.ClearAll(ctx); err != nil {
		return nil, toolError("failed to clear highlights", err)
	}
	s.logger.WithFields(logrus.Fields{"tool": "clear_highlights", "removed": removed}).Warn("highlights cleared")
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{"cleared": removed})), nil
}

// Bookmarks

// handleAddBookmark handles the add_bookmark tool invocation
func (s *Server) handleAddBookmark(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	page, err := requirePage(args, "page")
	if err != nil {
		return nil, err
	}
	ch, ok := s.app.Content.ChapterForPage(page)
	if !ok {
		return nil, toolError("page not found", fmt.Errorf("%w: %s", types.ErrPageNotFound, types.FormatPage(page)))
	}

	b, created, err := s.app.Bookmarks.Add(ctx, page, ch.ID, getStringDefault(args, "label", ""))
	if err != nil {
		return nil, toolError("failed to add bookmark", err)
	}

	response := map[string]interface{}{
		"bookmark": b,
		"page":     types.FormatPage(b.PageNumber),
		"created":  created,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleUpdateBookmarkLabel handles the update_bookmark_label tool invocation
func (s *Server) handleUpdateBookmarkLabel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	id, err := requireString(args, "id")
	if err != nil {
		return nil, err
	}
	label, ok := args["label"].(string)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "label parameter is required", map[string]interface{}{
			"param":  "label",
			"reason": "missing",
		})
	}

	b, err := s.app.Bookmarks.UpdateLabel(ctx, id, label)
	if err != nil {
		return nil, toolError("failed to update bookmark", err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{"bookmark": b})), nil
}

// handleDeleteBookmark handles the delete_bookmark tool invocation
func (s *Server) handleDeleteBookmark(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	id, err := requireString(args, "id")
	if err != nil {
		return nil, err
	}
	if err := s.app.Bookmarks.Delete(ctx, id); err != nil {
		return nil, toolError("failed to delete bookmark", err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{"deleted": id})), nil
}

// handleListBookmarks handles the list_bookmarks tool invocation
func (s *Server) handleListBookmarks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	var bookmarks []types.Bookmark
	if chapterID := getStringDefault(args, "chapter_id", ""); chapterID != "" {
		bookmarks = s.app.Bookmarks.ByChapter(chapterID)
	} else {
		bookmarks = s.app.Bookmarks.All()
	}

	listed := make([]map[string]interface{}, 0, len(bookmarks))
	for _, b := range bookmarks {
		listed = append(listed, map[string]interface{}{
			"id":         b.ID,
			"page":       types.FormatPage(b.PageNumber),
			"chapter_id": b.ChapterID,
			"label":      b.Label,
			"created_at": b.CreatedAt,
		})
	}

	response := map[string]interface{}{
		"bookmarks": listed,
		"count":     len(listed),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleClearBookmarks handles the clear_bookmarks tool invocation
func (s *Server) handleClearBookmarks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := requireConfirm(arguments(request)); err != nil {
		return nil, err
	}
	removed := len(s.app.Bookmarks.All())
	if err := s.app.Bookmarks.ClearAll(ctx); err != nil {
		return nil, toolError("failed to clear bookmarks", err)
	}
	s.logger.WithFields(logrus.Fields{"tool": "clear_bookmarks", "removed": removed}).Warn("bookmarks cleared")
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{"cleared": removed})), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// toolError maps a domain error to an MCPError code
func toolError(message string, err error) error {
	code := ErrorCodeInternalError
	switch {
	case errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrChapterNotFound),
		errors.Is(err, types.ErrParagraphNotFound),
		errors.Is(err, types.ErrPageNotFound):
		code = ErrorCodeNotFound
	case errors.Is(err, types.ErrInvalidColor),
		errors.Is(err, types.ErrInvalidSentence),
		errors.Is(err, types.ErrEmptyAnchor),
		errors.Is(err, types.ErrInvalidPage):
		code = ErrorCodeInvalidParams
	}
	return newMCPError(code, message, map[string]interface{}{
		"error": err.Error(),
	})
}

// arguments returns the call arguments, or an empty map when there are none
func arguments(request mcp.CallToolRequest) map[string]interface{} {
	if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
		return args
	}
	return map[string]interface{}{}
}

// requireString extracts a non-empty string parameter
func requireString(args map[string]interface{}, key string) (string, error) {
	val, ok := args[key].(string)
	if !ok || val == "" {
		return "", newMCPError(ErrorCodeInvalidParams, key+" parameter is required", map[string]interface{}{
			"param":  key,
			"reason": "missing or empty",
		})
	}
	return val, nil
}

// requirePage extracts a page given as a label ("xiii", "58") or a number
func requirePage(args map[string]interface{}, key string) (int, error) {
	var label string
	switch v := args[key].(type) {
	case string:
		label = v
	case float64:
		if v != math.Trunc(v) {
			return 0, newMCPError(ErrorCodeInvalidParams, "invalid page", map[string]interface{}{
				"param":  key,
				"value":  v,
				"reason": "page must be a whole number",
			})
		}
		label = strconv.Itoa(int(v))
	case int:
		label = strconv.Itoa(v)
	}

	page, err := types.ParsePage(label)
	if err != nil {
		return 0, newMCPError(ErrorCodeInvalidParams, "invalid page", map[string]interface{}{
			"param":  key,
			"value":  args[key],
			"reason": err.Error(),
		})
	}
	return page, nil
}

// requireConfirm rejects destructive calls without confirm=true
func requireConfirm(args map[string]interface{}) error {
	if !getBoolDefault(args, "confirm", false) {
		return newMCPError(ErrorCodeInvalidParams, "confirm must be true", map[string]interface{}{
			"param": "confirm",
		})
	}
	return nil
}

// chapterSummary renders chapter metadata with printed page labels
func chapterSummary(m types.ChapterMeta) map[string]interface{} {
	summary := map[string]interface{}{
		"id":              m.ID,
		"title":           m.Title,
		"pages":           m.PageRange.String(),
		"paragraph_count": m.ParagraphCount,
	}
	if m.ChapterNumber != nil {
		summary["number"] = *m.ChapterNumber
	}
	return summary
}

// paragraphView renders a paragraph with its printed page label
func paragraphView(p types.Paragraph, highlightCount int) map[string]interface{} {
	view := map[string]interface{}{
		"id":      p.ID,
		"order":   p.Order,
		"page":    types.FormatPage(p.PageNumber),
		"content": p.Content,
	}
	if p.IsItalic {
		view["italic"] = true
	}
	if highlightCount > 0 {
		view["highlights"] = highlightCount
	}
	return view
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
