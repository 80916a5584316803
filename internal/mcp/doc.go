// Package mcp implements the Model Context Protocol (MCP) server for the Big Book.
//
// The server lets an assistant read, search and annotate the book:
//   - list_chapters, read_chapter, get_paragraph: read the content
//   - go_to_page, navigate, current_chapter: move through the book
//   - search_book: case-insensitive phrase search with context snippets
//   - add_highlight, update_highlight, delete_highlight, list_highlights, clear_highlights
//   - add_bookmark, update_bookmark_label, delete_bookmark, list_bookmarks, clear_bookmarks
//
// The table of contents is published as the bigbook://contents resource and
// every chapter as bigbook://chapters/{id}. The summarize_chapter prompt
// combines a chapter's text with the reader's highlights in it.
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// Logs go to stderr; stdout carries only protocol messages.
//
// # Basic Usage
//
//	bigbook mcp
//
// # Pages
//
// Pages are passed as printed labels. Front matter uses roman numerals:
//
//	{"name": "go_to_page", "arguments": {"page": "xxv"}}
//	{"name": "add_bookmark", "arguments": {"page": "58", "label": "How It Works"}}
//
// # Tool: search_book
//
//	Request:
//	{
//	  "name": "search_book",
//	  "arguments": {"query": "alcoholic", "limit": 5}
//	}
//
//	Response:
//	{
//	  "query": "alcoholic",
//	  "results": [
//	    {
//	      "chapter_id": "chapter-1",
//	      "paragraph_id": "chapter-1-p1",
//	      "page": "1",
//	      "relevance_score": 20,
//	      "matches": [{"before": "...", "match": "alcoholic", "after": "...", "offset": 24}]
//	    }
//	  ],
//	  "total_results": 1
//	}
//
// # Error Handling
//
// Errors are returned as MCPError values:
//
//	-32602  invalid parameters (bad page label, unknown color, negative sentence)
//	-32603  internal error (annotation store failure)
//	-32001  chapter, paragraph, page or annotation not found
//	-32004  query parameter missing
//
// A blank query is not an error; it returns no results.
package mcp
