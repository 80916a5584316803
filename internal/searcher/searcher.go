package searcher

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/bigbook-mcp/internal/content"
	"github.com/dshills/bigbook-mcp/pkg/types"
)

const (
	// ContextWindow is the maximum number of characters of context on each side of a match
	ContextWindow = 40
	// Ellipsis marks truncated context
	Ellipsis = "..."
	// OccurrenceScore is added per occurrence of the query in a paragraph
	OccurrenceScore = 10
	// FirstParagraphBonus is added when the paragraph opens its chapter
	FirstParagraphBonus = 10

	// DefaultCacheSize is the number of distinct queries kept in the result cache
	DefaultCacheSize = 256
	// DefaultLimit and MaxLimit bound SearchRequest.Limit
	DefaultLimit = 10
	MaxLimit     = 100
)

// SearchRequest contains parameters for a filtered search
type SearchRequest struct {
	Query     string
	Limit     int    // defaults to DefaultLimit, capped at MaxLimit
	ChapterID string // optional chapter filter
}

// SearchResponse contains search results and metadata
type SearchResponse struct {
	Results      []types.SearchResult `json:"results"`
	TotalResults int                  `json:"totalResults"` // before Limit is applied
	Duration     time.Duration        `json:"duration"`
	CacheHit     bool                 `json:"cacheHit"`
}

// Searcher runs substring searches over an immutable content table
type Searcher struct {
	table   *content.Table
	cache   *lru.Cache[[32]byte, []types.SearchResult]
	cacheMu sync.RWMutex
}

// NewSearcher creates a Searcher. cacheSize <= 0 selects DefaultCacheSize.
func NewSearcher(table *content.Table, cacheSize int) *Searcher {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[[32]byte, []types.SearchResult](cacheSize)
	if err != nil {
		// This should never happen with valid size parameter
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}

	return &Searcher{
		table: table,
		cache: cache,
	}
}

// Search returns every paragraph containing query, best first. Empty or
// whitespace-only queries return an empty result.
func (s *Searcher) Search(query string) []types.SearchResult {
	results, _ := s.search(query)
	return results
}

// SearchWithRequest runs a search with an optional chapter filter and limit
func (s *Searcher) SearchWithRequest(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	startTime := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	validateRequest(&req)

	results, cacheHit := s.search(req.Query)
	if req.ChapterID != "" {
		filtered := results[:0]
		for _, r := range results {
			if r.ChapterID == req.ChapterID {
				filtered = append(filtered, r)
			}
		}
		results = filtered
	}

	total := len(results)
	if len(results) > req.Limit {
		results = results[:req.Limit]
	}

	return &SearchResponse{
		Results:      results,
		TotalResults: total,
		Duration:     time.Since(startTime),
		CacheHit:     cacheHit,
	}, nil
}

// validateRequest applies the limit defaults
func validateRequest(req *SearchRequest) {
	req.Query = strings.TrimSpace(req.Query)
	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	if req.Limit > MaxLimit {
		req.Limit = MaxLimit
	}
}

// search returns a private copy of the results for query and whether they
// came from the cache
func (s *Searcher) search(query string) ([]types.SearchResult, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []types.SearchResult{}, false
	}

	needle := lowerRunes(query)
	hash := sha256.Sum256([]byte(string(needle)))

	s.cacheMu.RLock()
	cached, found := s.cache.Get(hash)
	s.cacheMu.RUnlock()
	if found {
		return copyResults(cached), true
	}

	results := s.scan(needle)

	s.cacheMu.Lock()
	s.cache.Add(hash, copyResults(results))
	s.cacheMu.Unlock()

	return results, false
}

// scan walks the whole table in reading order
func (s *Searcher) scan(needle []rune) []types.SearchResult {
	results := make([]types.SearchResult, 0)
	s.table.Each(func(ch *types.Chapter) bool {
		for i := range ch.Paragraphs {
			p := &ch.Paragraphs[i]
			matches := findMatches([]rune(p.Content), needle)
			if len(matches) == 0 {
				continue
			}
			results = append(results, types.SearchResult{
				ChapterID:      ch.ID,
				ChapterTitle:   ch.Title,
				ParagraphID:    p.ID,
				PageNumber:     p.PageNumber,
				Order:          p.Order,
				Matches:        matches,
				RelevanceScore: score(len(matches), p.Order),
			})
		}
		return true
	})

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})
	return results
}

// score ranks a paragraph by occurrence count, favoring chapter openings
func score(occurrences, order int) int {
	s := occurrences * OccurrenceScore
	if order == 1 {
		s += FirstParagraphBonus
	}
	return s
}

// findMatches returns every non-overlapping, case-insensitive occurrence of
// needle in text, scanning left to right
func findMatches(text, needle []rune) []types.MatchContext {
	if len(needle) == 0 || len(needle) > len(text) {
		return nil
	}
	folded := lowerSlice(text)

	var matches []types.MatchContext
	for i := 0; i+len(needle) <= len(folded); {
		if !hasPrefixAt(folded, needle, i) {
			i++
			continue
		}
		end := i + len(needle)
		matches = append(matches, types.MatchContext{
			Before: contextBefore(text, i),
			Match:  string(text[i:end]),
			After:  contextAfter(text, end),
			Offset: i,
		})
		i = end
	}
	return matches
}

func hasPrefixAt(text, needle []rune, at int) bool {
	for j, r := range needle {
		if text[at+j] != r {
			return false
		}
	}
	return true
}

// contextBefore returns the text preceding start, truncated to ContextWindow
// characters including the ellipsis
func contextBefore(text []rune, start int) string {
	if start <= ContextWindow {
		return string(text[:start])
	}
	keep := ContextWindow - len(Ellipsis)
	return Ellipsis + string(text[start-keep:start])
}

// contextAfter returns the text following end, truncated to ContextWindow
// characters including the ellipsis
func contextAfter(text []rune, end int) string {
	if len(text)-end <= ContextWindow {
		return string(text[end:])
	}
	keep := ContextWindow - len(Ellipsis)
	return string(text[end:end+keep]) + Ellipsis
}

// lowerRunes folds s rune by rune so offsets line up with the source text
func lowerRunes(s string) []rune {
	return lowerSlice([]rune(s))
}

func lowerSlice(runes []rune) []rune {
	out := make([]rune, len(runes))
	for i, r := range runes {
		out[i] = unicode.ToLower(r)
	}
	return out
}

// copyResults creates a deep copy of a result list
func copyResults(src []types.SearchResult) []types.SearchResult {
	dst := make([]types.SearchResult, len(src))
	for i, r := range src {
		dst[i] = r
		dst[i].Matches = append([]types.MatchContext(nil), r.Matches...)
	}
	return dst
}

// InvalidateCache drops every cached query
func (s *Searcher) InvalidateCache() {
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
}

// CacheLen returns the number of cached queries
func (s *Searcher) CacheLen() int {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	return s.cache.Len()
}
