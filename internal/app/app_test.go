package app

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/bigbook-mcp/internal/annotations"
	"github.com/dshills/bigbook-mcp/internal/config"
	"github.com/dshills/bigbook-mcp/internal/content"
	"github.com/dshills/bigbook-mcp/pkg/types"
)

func testConfig(backend, path string) *config.Config {
	return &config.Config{
		Storage: config.StorageConfig{Backend: backend, Path: path},
		Content: config.ContentConfig{Workers: 2},
		Search:  config.SearchConfig{CacheSize: 16},
	}
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestNew_EmbeddedContent(t *testing.T) {
	a, err := New(context.Background(), testConfig("memory", ""), quietLogger())
	require.NoError(t, err)
	defer a.Close()

	assert.Greater(t, a.Content.Len(), 0)
	_, ok := a.Content.GetChapter("chapter-1")
	assert.True(t, ok)
	assert.NotEmpty(t, a.Searcher.Search("alcoholic"))
	assert.Empty(t, a.Highlights.All())
	assert.Empty(t, a.Bookmarks.All())
}

func TestNew_ScenarioEndToEnd(t *testing.T) {
	fsys := fstest.MapFS{
		content.MetadataFile: {Data: []byte("chapters:\n  - id: chapter-1\n    title: Bill's Story\n    number: 1\n    pages: [1, 2]\n    source: chapter-1.txt\n")},
		"chapter-1.txt":      {Data: []byte("@page 1\nIf you are as seriously alcoholic as we were...\n")},
	}
	ctx := context.Background()

	a, err := New(ctx, testConfig("memory", ""), quietLogger(), WithContentFS(fsys))
	require.NoError(t, err)
	defer a.Close()

	loc, ok := a.Navigator.GoToPage(1)
	require.True(t, ok)
	assert.Equal(t, "chapter-1", loc.ChapterID)
	assert.Equal(t, "chapter-1-p1", loc.ParagraphID)

	results := a.Searcher.Search("alcoholic")
	require.Len(t, results, 1)
	assert.Equal(t, "alcoholic", results[0].Matches[0].Match)
	assert.Equal(t, 20, results[0].RelevanceScore)

	_, err = a.Highlights.Add(ctx, annotations.NewHighlight{
		ParagraphID:  "chapter-1-p1",
		ChapterID:    "chapter-1",
		Color:        types.ColorYellow,
		TextSnapshot: "If you are as seriously alcoholic as we were...",
	})
	require.NoError(t, err)
	got := a.Highlights.ByParagraph("chapter-1-p1")
	require.Len(t, got, 1)
	assert.Equal(t, types.ColorYellow, got[0].Color)
}

func TestNew_SQLitePersistsAcrossRestart(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig("sqlite", filepath.Join(t.TempDir(), "data", "bigbook.db"))

	first, err := New(ctx, cfg, quietLogger())
	require.NoError(t, err)
	_, _, err = first.Bookmarks.Add(ctx, 58, "chapter-5", "How It Works")
	require.NoError(t, err)

	_, err = New(ctx, cfg, quietLogger())
	assert.Error(t, err, "a second process cannot open a locked store")
	require.NoError(t, first.Close())

	second, err := New(ctx, cfg, quietLogger())
	require.NoError(t, err)
	defer second.Close()
	assert.True(t, second.Bookmarks.IsPageBookmarked(58))
}

func TestNew_BadContent(t *testing.T) {
	_, err := New(context.Background(), testConfig("memory", ""), quietLogger(),
		WithContentFS(fstest.MapFS{}))
	assert.Error(t, err)
}
