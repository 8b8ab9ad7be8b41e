package handlers

import (
	"time"

	"cahier/internal/document"
	"cahier/internal/jobs"
	"cahier/internal/services"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	lessons   *services.LessonService
	deletions *jobs.DeletionScheduler
	documents *document.Service
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(lessons *services.LessonService, deletions *jobs.DeletionScheduler, documents *document.Service) *HealthHandler {
	return &HealthHandler{lessons: lessons, deletions: deletions, documents: documents}
}

// Handle responds with server health status
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":            "healthy",
		"cache_size":        h.lessons.CacheStats().Size,
		"pending_deletions": h.deletions.Pending(),
		"documents":         h.documents.Count(),
		"timestamp":         time.Now().Format(time.RFC3339),
	})
}
