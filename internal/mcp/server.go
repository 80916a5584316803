package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/dshills/bigbook-mcp/internal/app"
)

const (
	// ServerName is the MCP server name
	ServerName = "bigbook-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// ChapterURIPrefix prefixes every chapter resource URI
	ChapterURIPrefix = "bigbook://chapters/"
	// ContentsURI is the table of contents resource
	ContentsURI = "bigbook://contents"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp    *server.MCPServer
	app    *app.App
	logger logrus.FieldLogger
}

// NewServer creates a new MCP server over a
func NewServer(a *app.App) (*Server, error) {
	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
	)

	s := &Server{
		mcp:    mcpServer,
		app:    a,
		logger: a.Logger.WithField("component", "mcp"),
	}

	// Register tools
	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}
	s.registerResources()
	s.registerPrompts()

	return s, nil
}

// Serve starts the MCP server on stdio and blocks until stdin closes
func (s *Server) Serve(ctx context.Context) error {
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() error {
	tools := []struct {
		tool    mcp.Tool
		handler server.ToolHandlerFunc
	}{
		// Reading and navigation
		{listChaptersTool(), s.handleListChapters},
		{readChapterTool(), s.handleReadChapter},
		{getParagraphTool(), s.handleGetParagraph},
		{goToPageTool(), s.handleGoToPage},
		{navigateTool(), s.handleNavigate},
		{currentChapterTool(), s.handleCurrentChapter},
		{searchBookTool(), s.handleSearchBook},

		// Highlights
		{addHighlightTool(), s.handleAddHighlight},
		{updateHighlightTool(), s.handleUpdateHighlight},
		{deleteHighlightTool(), s.handleDeleteHighlight},
		{listHighlightsTool(), s.handleListHighlights},
		{clearHighlightsTool(), s.handleClearHighlights},

		// Bookmarks
		{addBookmarkTool(), s.handleAddBookmark},
		{updateBookmarkLabelTool(), s.handleUpdateBookmarkLabel},
		{deleteBookmarkTool(), s.handleDeleteBookmark},
		{listBookmarksTool(), s.handleListBookmarks},
		{clearBookmarksTool(), s.handleClearBookmarks},
	}

	seen := make(map[string]bool, len(tools))
	for _, t := range tools {
		if seen[t.tool.Name] {
			return fmt.Errorf("duplicate tool %s", t.tool.Name)
		}
		seen[t.tool.Name] = true
		s.mcp.AddTool(t.tool, t.handler)
	}
	return nil
}

// registerResources publishes the table of contents and one resource per chapter
func (s *Server) registerResources() {
	s.mcp.AddResource(
		mcp.NewResource(
			ContentsURI,
			"Table of Contents",
			mcp.WithResourceDescription("Every chapter with its title and page range"),
			mcp.WithMIMEType("application/json"),
		),
		s.handleContentsResource,
	)

	for _, meta := range s.app.Content.GetAllChapters() {
		s.mcp.AddResource(
			mcp.NewResource(
				ChapterURIPrefix+meta.ID,
				meta.Title,
				mcp.WithResourceDescription(fmt.Sprintf("Full text of %s (pages %s)", meta.Title, meta.PageRange)),
				mcp.WithMIMEType("text/markdown"),
			),
			s.handleChapterResource,
		)
	}
}

// registerPrompts registers the predefined prompts
func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(
		mcp.NewPrompt("summarize_chapter",
			mcp.WithPromptDescription("Summarize a chapter of the book together with the reader's highlights in it"),
			mcp.WithArgument("chapter_id",
				mcp.ArgumentDescription("Chapter id, e.g. 'chapter-5'. Defaults to the current chapter."),
			),
		),
		s.handleSummarizeChapterPrompt,
	)
}
