package handlers

import (
	"fmt"
	"log"
	"time"

	"cahier/internal/document"
	"cahier/internal/services"

	"github.com/gofiber/fiber/v2"
)

const defaultJournalLimit = 100

// JournalHandler lists and exports the lesson journal
type JournalHandler struct {
	journal   *services.JournalService
	documents *document.Service
}

// NewJournalHandler creates a new journal handler
func NewJournalHandler(journal *services.JournalService, documents *document.Service) *JournalHandler {
	return &JournalHandler{journal: journal, documents: documents}
}

// List handles GET /api/journal?limit=N (newest first)
func (h *JournalHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultJournalLimit)
	if limit <= 0 || limit > 1000 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "limit must be between 1 and 1000",
		})
	}

	entries, err := h.journal.List(c.UserContext(), limit)
	if err != nil {
		log.Printf("❌ [JOURNAL] Failed to list entries: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load journal",
		})
	}

	return c.JSON(fiber.Map{
		"entries": entries,
		"count":   len(entries),
	})
}

// Export handles GET /api/journal/export. The spreadsheet is stored like a
// rendered lesson, so downloading it schedules its deletion.
func (h *JournalHandler) Export(c *fiber.Ctx) error {
	ctx := c.UserContext()
	filename := fmt.Sprintf("cahier_journal_%s.xlsx", time.Now().Format("2006-01-02"))

	rows := 0
	doc, err := h.documents.StoreFile(filename, document.ContentTypeXLSX, func(path string) error {
		n, err := h.journal.ExportXLSX(ctx, path)
		rows = n
		return err
	})
	if err != nil {
		log.Printf("❌ [JOURNAL] Export failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to export journal",
		})
	}

	return c.JSON(fiber.Map{
		"document_id":  doc.DocumentID,
		"download_url": doc.DownloadURL,
		"filename":     doc.Filename,
		"entries":      rows,
	})
}
