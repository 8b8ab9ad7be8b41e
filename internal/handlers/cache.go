package handlers

import (
	"log"

	"cahier/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CacheHandler exposes lesson cache maintenance
type CacheHandler struct {
	lessons *services.LessonService
}

// NewCacheHandler creates a new cache handler
func NewCacheHandler(lessons *services.LessonService) *CacheHandler {
	return &CacheHandler{lessons: lessons}
}

// Stats handles GET /api/cache/stats
func (h *CacheHandler) Stats(c *fiber.Ctx) error {
	return c.JSON(h.lessons.CacheStats())
}

// Clear handles DELETE /api/cache
func (h *CacheHandler) Clear(c *fiber.Ctx) error {
	h.lessons.CacheClear()
	log.Printf("🗑️  [CACHE] Cleared by %s", c.IP())
	return c.JSON(fiber.Map{"message": "Cache cleared"})
}

// Cleanup handles POST /api/cache/cleanup
func (h *CacheHandler) Cleanup(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"removed": h.lessons.CacheCleanup()})
}
