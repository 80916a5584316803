// Package types provides shared type definitions for the Big Book service.
//
// This package defines the domain types used across the content, storage,
// search and annotation components.
//
// # Book Content
//
// Chapter is one titled section of the book. It owns an ordered list of
// Paragraphs, each anchored to a printed page:
//
//	chapter := &types.Chapter{
//	    ID:        "chapter-5",
//	    Title:     "How It Works",
//	    PageRange: types.PageRange{Start: 58, End: 71},
//	}
//
// Paragraph ids are derived from the chapter id and the paragraph order, so
// they can be computed without a lookup table:
//
//	types.ParagraphID("chapter-5", 1) // "chapter-5-p1"
//
// # Page Numbers
//
// Front matter uses roman-numeral pagination. Roman pages are encoded as
// negative integers offset by RomanPageOffset so they sort before page 1 and
// never collide with arabic pages:
//
//	types.EncodeRomanPage(11) // -989
//	types.FormatPage(-989)    // "xi"
//	types.ParsePage("xi")     // -989, nil
//
// # Annotations
//
// Highlight anchors a colored annotation to one sentence of one paragraph.
// Bookmark anchors a marker to a page. Both use epoch-millisecond timestamps
// and camelCase JSON field names so that stored collections stay compatible
// with the device key-value format.
//
// # Search Results
//
// SearchResult groups every MatchContext found in one paragraph together with
// the paragraph's relevance score.
package types
