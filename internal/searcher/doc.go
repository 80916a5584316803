// Package searcher implements substring search over the book content.
//
// Every paragraph of every chapter is scanned for the query, ignoring case.
// A paragraph that contains the query becomes one result holding every
// non-overlapping occurrence, each with up to 40 characters of context on
// either side.
//
// # Basic Usage
//
//	s := searcher.NewSearcher(table, 0)
//
//	for _, r := range s.Search("alcoholic") {
//	    fmt.Printf("%s p.%s (score: %d)\n",
//	        r.ChapterTitle, types.FormatPage(r.PageNumber), r.RelevanceScore)
//	}
//
// # Scoring
//
// A result scores 10 per occurrence plus a bonus of 10 when the paragraph is
// the first of its chapter. Results are sorted by descending score with a
// stable sort, so ties keep reading order.
//
// # Snippets
//
// When more than 40 characters precede a match, Before is "..." followed by
// the 37 characters closest to the match, 40 characters in total. After is
// built the same way. Shorter context is returned literally.
//
// # Caching
//
// Content never changes after load, so results for a query are cached in an
// LRU keyed by the normalized query and never expire. Callers always receive
// copies.
//
// # Filtered Requests
//
//	resp, err := s.SearchWithRequest(ctx, searcher.SearchRequest{
//	    Query:     "solution",
//	    ChapterID: "chapter-2",
//	    Limit:     5,
//	})
package searcher
