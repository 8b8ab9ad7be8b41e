package handlers

import (
	"log"

	"cahier/internal/services"

	"github.com/gofiber/fiber/v2"
)

// LessonHandler exposes the lesson registry
type LessonHandler struct {
	lessons *services.LessonService
}

// NewLessonHandler creates a new lesson handler
func NewLessonHandler(lessons *services.LessonService) *LessonHandler {
	return &LessonHandler{lessons: lessons}
}

// List handles GET /api/lessons. The registry is synchronized with the
// lessons directory first; a failed pass is logged and the current records
// are still returned. Content is omitted unless include_content=true.
func (h *LessonHandler) List(c *fiber.Ctx) error {
	changed, err := h.lessons.SyncRegistry()
	if err != nil {
		log.Printf("⚠️  [LESSONS] Listing without a fresh sync: %v", err)
	}

	records := h.lessons.ListRegistry()

	if c.QueryBool("include_content") {
		return c.JSON(fiber.Map{
			"lessons": records,
			"count":   len(records),
			"changed": changed,
		})
	}

	summaries := make([]interface{}, 0, len(records))
	for _, r := range records {
		summaries = append(summaries, r.Summary())
	}
	return c.JSON(fiber.Map{
		"lessons": summaries,
		"count":   len(records),
		"changed": changed,
	})
}

// Sync handles POST /api/lessons/sync
func (h *LessonHandler) Sync(c *fiber.Ctx) error {
	changed, err := h.lessons.SyncRegistry()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Registry sync failed",
		})
	}
	return c.JSON(fiber.Map{"changed": changed})
}
