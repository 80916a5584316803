// Package httpapi serves the book, search, navigation and annotations as a
// JSON HTTP API for mobile and web clients.
package httpapi

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/dshills/bigbook-mcp/internal/app"
	"github.com/dshills/bigbook-mcp/pkg/types"
)

// AppName is reported in the Server header
const AppName = "Big Book API"

// Options configures the HTTP server
type Options struct {
	// AccessLog receives one line per request. Nil disables access logging.
	AccessLog io.Writer
}

type handlers struct {
	app    *app.App
	logger logrus.FieldLogger
}

// New builds the fiber app with every route registered
func New(a *app.App, opts Options) *fiber.App {
	srv := fiber.New(fiber.Config{
		AppName:               AppName,
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})

	srv.Use(recover.New())
	if opts.AccessLog != nil {
		srv.Use(logger.New(logger.Config{Output: opts.AccessLog}))
	}

	h := &handlers{app: a, logger: a.Logger.WithField("component", "http")}

	srv.Get("/healthz", h.health)

	// Content
	srv.Get("/chapters", h.listChapters)
	srv.Get("/chapters/:id", h.getChapter)
	srv.Get("/paragraphs/:id", h.getParagraph)
	srv.Get("/pages/:page", h.goToPage)
	srv.Get("/search", h.search)

	// Navigation
	srv.Get("/navigation", h.getNavigation)
	srv.Post("/navigation", h.navigate)

	// Highlights
	srv.Get("/highlights", h.listHighlights)
	srv.Post("/highlights", h.addHighlight)
	srv.Delete("/highlights", h.clearHighlights)
	srv.Patch("/highlights/:id", h.updateHighlight)
	srv.Delete("/highlights/:id", h.deleteHighlight)

	// Bookmarks
	srv.Get("/bookmarks", h.listBookmarks)
	srv.Post("/bookmarks", h.addBookmark)
	srv.Delete("/bookmarks", h.clearBookmarks)
	srv.Patch("/bookmarks/:id", h.updateBookmark)
	srv.Delete("/bookmarks/:id", h.deleteBookmark)

	srv.Get("/export", h.export)

	return srv
}

// errorHandler renders every error as {"error": "..."} with a status derived from it
func errorHandler(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrChapterNotFound),
		errors.Is(err, types.ErrParagraphNotFound),
		errors.Is(err, types.ErrPageNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, types.ErrInvalidColor),
		errors.Is(err, types.ErrInvalidSentence),
		errors.Is(err, types.ErrEmptyAnchor),
		errors.Is(err, types.ErrInvalidPage):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}
