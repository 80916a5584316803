package httpapi

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/dshills/bigbook-mcp/internal/annotations"
	"github.com/dshills/bigbook-mcp/pkg/types"
)

type addHighlightRequest struct {
	ParagraphID   string `json:"paragraph_id"`
	SentenceIndex *int   `json:"sentence_index"`
	Color         string `json:"color"`
	TextSnapshot  string `json:"text_snapshot"`
	Note          string `json:"note"`
}

type updateHighlightRequest struct {
	Color *string `json:"color"`
	Note  *string `json:"note"`
}

type addBookmarkRequest struct {
	Page  string `json:"page"`
	Label string `json:"label"`
}

type updateBookmarkRequest struct {
	Label *string `json:"label"`
}

// requireConfirm guards the clear-all routes
func requireConfirm(c *fiber.Ctx) error {
	if !c.QueryBool("confirm") {
		return fiber.NewError(fiber.StatusBadRequest, "confirm=true is required")
	}
	return nil
}

func (h *handlers) listHighlights(c *fiber.Ctx) error {
	var highlights []types.Highlight
	switch {
	case c.Query("paragraph") != "":
		highlights = h.app.Highlights.ByParagraph(c.Query("paragraph"))
	case c.Query("chapter") != "":
		highlights = h.app.Highlights.ByChapter(c.Query("chapter"))
	default:
		highlights = h.app.Highlights.All()
	}
	return c.JSON(fiber.Map{"highlights": highlights, "count": len(highlights)})
}

func (h *handlers) addHighlight(c *fiber.Ctx) error {
	var req addHighlightRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if req.SentenceIndex == nil {
		return fiber.NewError(fiber.StatusBadRequest, "sentence_index is required")
	}
	p, ok := h.app.Content.GetParagraph(req.ParagraphID)
	if !ok {
		return fmt.Errorf("%w: %q", types.ErrParagraphNotFound, req.ParagraphID)
	}

	if req.Color == "" {
		req.Color = string(types.ColorYellow)
	}
	color, err := types.ParseHighlightColor(req.Color)
	if err != nil {
		return err
	}
	text, ok := p.Sentence(*req.SentenceIndex)
	if !ok {
		return fmt.Errorf("%w: %d, paragraph %s has %d sentences",
			types.ErrInvalidSentence, *req.SentenceIndex, p.ID, len(p.Sentences()))
	}
	if req.TextSnapshot == "" {
		req.TextSnapshot = text
	}

	hl, err := h.app.Highlights.Add(c.UserContext(), annotations.NewHighlight{
		ParagraphID:   p.ID,
		ChapterID:     p.ChapterID,
		SentenceIndex: *req.SentenceIndex,
		Color:         color,
		TextSnapshot:  req.TextSnapshot,
		Note:          req.Note,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"highlight": hl})
}

func (h *handlers) updateHighlight(c *fiber.Ctx) error {
	var req updateHighlightRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}

	var patch types.HighlightPatch
	if req.Color != nil {
		color, err := types.ParseHighlightColor(*req.Color)
		if err != nil {
			return err
		}
		patch.Color = &color
	}
	patch.Note = req.Note
	if patch.Color == nil && patch.Note == nil {
		return fiber.NewError(fiber.StatusBadRequest, "color or note is required")
	}

	hl, err := h.app.Highlights.Update(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"highlight": hl})
}

func (h *handlers) deleteHighlight(c *fiber.Ctx) error {
	if err := h.app.Highlights.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handlers) clearHighlights(c *fiber.Ctx) error {
	if err := requireConfirm(c); err != nil {
		return err
	}
	removed := len(h.app.Highlights.All())
	if err := h.app.Highlights.ClearAll(c.UserContext()); err != nil {
		return err
	}
	h.logger.WithFields(logrus.Fields{"route": "DELETE /highlights", "removed": removed}).Warn("highlights cleared")
	return c.JSON(fiber.Map{"cleared": removed})
}

func (h *handlers) listBookmarks(c *fiber.Ctx) error {
	var bookmarks []types.Bookmark
	if chapterID := c.Query("chapter"); chapterID != "" {
		bookmarks = h.app.Bookmarks.ByChapter(chapterID)
	} else {
		bookmarks = h.app.Bookmarks.All()
	}
	return c.JSON(fiber.Map{"bookmarks": bookmarks, "count": len(bookmarks)})
}

// addBookmark bookmarks a page in the chapter that contains it. An already
// bookmarked page answers 200 with the existing bookmark.
func (h *handlers) addBookmark(c *fiber.Ctx) error {
	var req addBookmarkRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	page, err := types.ParsePage(req.Page)
	if err != nil {
		return err
	}
	ch, ok := h.app.Content.ChapterForPage(page)
	if !ok {
		return fmt.Errorf("%w: %s", types.ErrPageNotFound, types.FormatPage(page))
	}

	bm, created, err := h.app.Bookmarks.Add(c.UserContext(), page, ch.ID, req.Label)
	if err != nil {
		return err
	}
	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{"bookmark": bm})
}

func (h *handlers) updateBookmark(c *fiber.Ctx) error {
	var req updateBookmarkRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if req.Label == nil {
		return fiber.NewError(fiber.StatusBadRequest, "label is required")
	}
	bm, err := h.app.Bookmarks.UpdateLabel(c.UserContext(), c.Params("id"), *req.Label)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"bookmark": bm})
}

func (h *handlers) deleteBookmark(c *fiber.Ctx) error {
	if err := h.app.Bookmarks.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handlers) clearBookmarks(c *fiber.Ctx) error {
	if err := requireConfirm(c); err != nil {
		return err
	}
	removed := len(h.app.Bookmarks.All())
	if err := h.app.Bookmarks.ClearAll(c.UserContext()); err != nil {
		return err
	}
	h.logger.WithFields(logrus.Fields{"route": "DELETE /bookmarks", "removed": removed}).Warn("bookmarks cleared")
	return c.JSON(fiber.Map{"cleared": removed})
}

// export returns every highlight and bookmark in one document
func (h *handlers) export(c *fiber.Ctx) error {
	snap, err := h.app.Store.Export(c.UserContext())
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="bigbook-annotations.json"`)
	return c.JSON(snap)
}
