package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/bigbook-mcp/internal/app"
	"github.com/dshills/bigbook-mcp/internal/config"
	"github.com/dshills/bigbook-mcp/internal/content"
)

const testMetadata = `chapters:
  - id: preface
    title: Preface
    pages: [xi, xii]
    roman: true
    source: preface.txt
  - id: chapter-1
    title: Bill's Story
    number: 1
    pages: [1, 3]
    source: chapter-1.txt
`

func setupServer(t *testing.T) (*fiber.App, *app.App) {
	t.Helper()
	fsys := fstest.MapFS{
		content.MetadataFile: {Data: []byte(testMetadata)},
		"preface.txt":        {Data: []byte("@page xi\nThis is the preface.\n")},
		"chapter-1.txt": {Data: []byte("@page 1\nIf you are as seriously alcoholic as we were...\n\n" +
			"@page 2\nWar fever ran high. We landed in England.\n")},
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	cfg := &config.Config{
		Storage: config.StorageConfig{Backend: "memory"},
		Content: config.ContentConfig{Workers: 1},
		Search:  config.SearchConfig{CacheSize: 16},
	}

	a, err := app.New(context.Background(), cfg, logger, app.WithContentFS(fsys))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	return New(a, Options{}), a
}

// do sends a request and decodes the JSON response body
func do(t *testing.T, srv *fiber.App, method, target, body string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := srv.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	srv, _ := setupServer(t)

	status, body := do(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(2), body["chapters"])
	assert.Equal(t, float64(3), body["paragraphs"])
}

func TestContentRoutes(t *testing.T) {
	srv, _ := setupServer(t)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"list chapters", "/chapters", http.StatusOK},
		{"chapter", "/chapters/chapter-1", http.StatusOK},
		{"missing chapter", "/chapters/chapter-9", http.StatusNotFound},
		{"paragraph", "/paragraphs/chapter-1-p2", http.StatusOK},
		{"missing paragraph", "/paragraphs/chapter-1-p7", http.StatusNotFound},
		{"page", "/pages/2", http.StatusOK},
		{"roman page", "/pages/xi", http.StatusOK},
		{"page without paragraph", "/pages/3", http.StatusNotFound},
		{"invalid page", "/pages/zero", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, srv, http.MethodGet, tt.target, "")
			assert.Equal(t, tt.status, status, body)
			if tt.status != http.StatusOK {
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestGoToPage_MovesNavigation(t *testing.T) {
	srv, a := setupServer(t)

	status, body := do(t, srv, http.MethodGet, "/pages/2", "")
	require.Equal(t, http.StatusOK, status)
	loc := body["location"].(map[string]interface{})
	assert.Equal(t, "chapter-1-p2", loc["paragraphId"])
	assert.Equal(t, "chapter-1", a.Navigator.CurrentID())

	status, _ = do(t, srv, http.MethodGet, "/pages/3", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "chapter-1", a.Navigator.CurrentID())
}

func TestSearch(t *testing.T) {
	srv, _ := setupServer(t)

	status, body := do(t, srv, http.MethodGet, "/search?q=ALCOHOLIC", "")
	require.Equal(t, http.StatusOK, status)
	results := body["results"].([]interface{})
	require.Len(t, results, 1)
	first := results[0].(map[string]interface{})
	assert.Equal(t, "chapter-1-p1", first["paragraphId"])
	assert.Equal(t, float64(20), first["relevanceScore"])

	status, body = do(t, srv, http.MethodGet, "/search?q=", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["results"])

	status, _ = do(t, srv, http.MethodGet, "/search", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, srv, http.MethodGet, "/search?q=war&limit=0", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, srv, http.MethodGet, "/search?q=war&chapter=nope", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestNavigation(t *testing.T) {
	srv, _ := setupServer(t)

	status, body := do(t, srv, http.MethodGet, "/navigation", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["open"])

	status, body = do(t, srv, http.MethodPost, "/navigation", `{"chapter_id":"preface"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "preface", body["current"].(map[string]interface{})["id"])

	status, body = do(t, srv, http.MethodPost, "/navigation", `{"direction":"next"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["moved"])
	assert.Equal(t, "chapter-1", body["current"].(map[string]interface{})["id"])

	status, body = do(t, srv, http.MethodPost, "/navigation", `{"direction":"next"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["moved"])

	status, _ = do(t, srv, http.MethodPost, "/navigation", `{"chapter_id":"nope"}`)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = do(t, srv, http.MethodPost, "/navigation", `{}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHighlights(t *testing.T) {
	srv, a := setupServer(t)

	status, body := do(t, srv, http.MethodPost, "/highlights",
		`{"paragraph_id":"chapter-1-p1","sentence_index":0,"color":"green","note":"start"}`)
	require.Equal(t, http.StatusCreated, status, body)
	hl := body["highlight"].(map[string]interface{})
	id := hl["id"].(string)
	assert.Equal(t, "chapter-1", hl["chapterId"])
	assert.Equal(t, "green", hl["color"])

	status, body = do(t, srv, http.MethodPost, "/highlights", `{"paragraph_id":"chapter-1-p2","sentence_index":1}`)
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "We landed in England.", body["highlight"].(map[string]interface{})["textSnapshot"])
	second := body["highlight"].(map[string]interface{})["id"].(string)
	status, _ = do(t, srv, http.MethodDelete, "/highlights/"+second, "")
	require.Equal(t, http.StatusNoContent, status)

	status, body = do(t, srv, http.MethodGet, "/highlights?chapter=chapter-1", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["count"])

	status, body = do(t, srv, http.MethodPatch, "/highlights/"+id, `{"color":"PINK"}`)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "pink", body["highlight"].(map[string]interface{})["color"])
	assert.Equal(t, "start", body["highlight"].(map[string]interface{})["note"])

	bad := []struct {
		name, method, target, body string
		status                     int
	}{
		{"missing sentence", http.MethodPost, "/highlights", `{"paragraph_id":"chapter-1-p1"}`, http.StatusBadRequest},
		{"negative sentence", http.MethodPost, "/highlights", `{"paragraph_id":"chapter-1-p1","sentence_index":-1}`, http.StatusBadRequest},
		{"bad color", http.MethodPost, "/highlights", `{"paragraph_id":"chapter-1-p1","sentence_index":0,"color":"red"}`, http.StatusBadRequest},
		{"sentence out of range", http.MethodPost, "/highlights", `{"paragraph_id":"chapter-1-p2","sentence_index":2}`, http.StatusBadRequest},
		{"unknown paragraph", http.MethodPost, "/highlights", `{"paragraph_id":"x","sentence_index":0}`, http.StatusNotFound},
		{"empty patch", http.MethodPatch, "/highlights/" + id, `{}`, http.StatusBadRequest},
		{"unknown id", http.MethodPatch, "/highlights/missing", `{"note":"x"}`, http.StatusNotFound},
		{"clear without confirm", http.MethodDelete, "/highlights", "", http.StatusBadRequest},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, srv, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.status, status, body)
		})
	}
	assert.Len(t, a.Highlights.All(), 1)

	status, _ = do(t, srv, http.MethodDelete, "/highlights/"+id, "")
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = do(t, srv, http.MethodDelete, "/highlights/"+id, "")
	assert.Equal(t, http.StatusNoContent, status)
	assert.Empty(t, a.Highlights.All())

	_, _ = do(t, srv, http.MethodPost, "/highlights", `{"paragraph_id":"chapter-1-p2","sentence_index":0}`)
	status, body = do(t, srv, http.MethodDelete, "/highlights?confirm=true", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["cleared"])
	assert.Empty(t, a.Highlights.All())
}

func TestBookmarks(t *testing.T) {
	srv, a := setupServer(t)

	status, body := do(t, srv, http.MethodPost, "/bookmarks", `{"page":"xi","label":"preface"}`)
	require.Equal(t, http.StatusCreated, status, body)
	bm := body["bookmark"].(map[string]interface{})
	id := bm["id"].(string)
	assert.Equal(t, "preface", bm["chapterId"])

	status, body = do(t, srv, http.MethodPost, "/bookmarks", `{"page":"XI"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, id, body["bookmark"].(map[string]interface{})["id"])

	status, _ = do(t, srv, http.MethodPost, "/bookmarks", `{"page":"77"}`)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = do(t, srv, http.MethodPost, "/bookmarks", `{"page":""}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = do(t, srv, http.MethodPatch, "/bookmarks/"+id, `{"label":"Preface"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Preface", body["bookmark"].(map[string]interface{})["label"])
	status, _ = do(t, srv, http.MethodPatch, "/bookmarks/missing", `{"label":"x"}`)
	assert.Equal(t, http.StatusNotFound, status)

	_, _ = do(t, srv, http.MethodPost, "/bookmarks", `{"page":"2"}`)
	status, body = do(t, srv, http.MethodGet, "/bookmarks", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), body["count"])

	status, body = do(t, srv, http.MethodGet, "/bookmarks?chapter=chapter-1", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["count"])

	status, _ = do(t, srv, http.MethodDelete, "/bookmarks/"+id, "")
	assert.Equal(t, http.StatusNoContent, status)
	assert.Len(t, a.Bookmarks.All(), 1)

	status, _ = do(t, srv, http.MethodDelete, "/bookmarks?confirm=true", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, a.Bookmarks.All())
}

func TestExport(t *testing.T) {
	srv, _ := setupServer(t)

	_, _ = do(t, srv, http.MethodPost, "/highlights", `{"paragraph_id":"chapter-1-p1","sentence_index":0}`)
	_, _ = do(t, srv, http.MethodPost, "/bookmarks", `{"page":"1"}`)

	status, body := do(t, srv, http.MethodGet, "/export", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["highlights"], 1)
	assert.Len(t, body["bookmarks"], 1)
	assert.NotZero(t, body["exportedAt"])
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusTeapot, statusFor(fiber.NewError(http.StatusTeapot, "tea")))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
