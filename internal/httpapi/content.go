package httpapi

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/dshills/bigbook-mcp/internal/searcher"
	"github.com/dshills/bigbook-mcp/pkg/types"
)

func (h *handlers) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":     "ok",
		"chapters":   h.app.Content.Len(),
		"paragraphs": h.app.Content.ParagraphCount(),
	})
}

func (h *handlers) listChapters(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"chapters": h.app.Content.GetAllChapters()})
}

func (h *handlers) getChapter(c *fiber.Ctx) error {
	id := c.Params("id")
	ch, ok := h.app.Content.GetChapter(id)
	if !ok {
		return fmt.Errorf("%w: %s", types.ErrChapterNotFound, id)
	}
	return c.JSON(fiber.Map{
		"chapter":    ch,
		"highlights": h.app.Highlights.ByChapter(id),
		"bookmarks":  h.app.Bookmarks.ByChapter(id),
	})
}

func (h *handlers) getParagraph(c *fiber.Ctx) error {
	id := c.Params("id")
	p, ok := h.app.Content.GetParagraph(id)
	if !ok {
		return fmt.Errorf("%w: %s", types.ErrParagraphNotFound, id)
	}
	return c.JSON(fiber.Map{
		"paragraph":  p,
		"highlights": h.app.Highlights.ByParagraph(id),
	})
}

// goToPage moves the reading position to the first paragraph on a page
func (h *handlers) goToPage(c *fiber.Ctx) error {
	page, err := types.ParsePage(c.Params("page"))
	if err != nil {
		return err
	}
	loc, ok := h.app.Navigator.GoToPage(page)
	if !ok {
		return fmt.Errorf("%w: %s", types.ErrPageNotFound, types.FormatPage(page))
	}
	p, _ := h.app.Content.GetParagraph(loc.ParagraphID)
	return c.JSON(fiber.Map{
		"location":   loc,
		"page":       types.FormatPage(page),
		"paragraph":  p,
		"bookmarked": h.app.Bookmarks.IsPageBookmarked(page),
	})
}

func (h *handlers) search(c *fiber.Ctx) error {
	if !c.Context().QueryArgs().Has("q") {
		return fiber.NewError(fiber.StatusBadRequest, "q is required")
	}
	query := c.Query("q")

	limit := c.QueryInt("limit", searcher.DefaultLimit)
	if limit < 1 || limit > searcher.MaxLimit {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("limit must be between 1 and %d", searcher.MaxLimit))
	}

	chapterID := c.Query("chapter")
	if chapterID != "" {
		if _, ok := h.app.Content.GetChapter(chapterID); !ok {
			return fmt.Errorf("%w: %s", types.ErrChapterNotFound, chapterID)
		}
	}

	resp, err := h.app.Searcher.SearchWithRequest(c.UserContext(), searcher.SearchRequest{
		Query:     query,
		Limit:     limit,
		ChapterID: chapterID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"query":         strings.TrimSpace(query),
		"results":       resp.Results,
		"total_results": resp.TotalResults,
		"cache_hit":     resp.CacheHit,
	})
}

func (h *handlers) getNavigation(c *fiber.Ctx) error {
	current, ok := h.app.Navigator.Current()
	resp := fiber.Map{"open": ok}
	if ok {
		resp["current"] = current
	}
	return c.JSON(resp)
}

type navigationRequest struct {
	ChapterID string `json:"chapter_id"`
	Direction string `json:"direction"`
}

// navigate opens a chapter by id or steps to the next or previous one
func (h *handlers) navigate(c *fiber.Ctx) error {
	var req navigationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}

	moved := true
	switch {
	case req.ChapterID != "":
		if err := h.app.Navigator.LoadChapter(req.ChapterID); err != nil {
			return err
		}
	case req.Direction == "next":
		moved = h.app.Navigator.GoToNextChapter()
	case req.Direction == "previous":
		moved = h.app.Navigator.GoToPreviousChapter()
	default:
		return fiber.NewError(fiber.StatusBadRequest, "chapter_id or direction (next, previous) is required")
	}

	current, ok := h.app.Navigator.Current()
	resp := fiber.Map{"moved": moved, "open": ok}
	if ok {
		resp["current"] = current
	}
	return c.JSON(resp)
}
