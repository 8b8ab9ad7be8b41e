package handlers

import (
	"log"
	"os"

	"cahier/internal/document"
	"cahier/internal/jobs"
	"cahier/internal/security"
	"cahier/internal/services"

	"github.com/gofiber/fiber/v2"
)

// DownloadHandler serves generated documents and schedules their deletion
type DownloadHandler struct {
	documents *document.Service
	deletions *jobs.DeletionScheduler
	metrics   *services.Metrics
}

// NewDownloadHandler creates a new download handler. metrics may be nil.
func NewDownloadHandler(documents *document.Service, deletions *jobs.DeletionScheduler, metrics *services.Metrics) *DownloadHandler {
	return &DownloadHandler{
		documents: documents,
		deletions: deletions,
		metrics:   metrics,
	}
}

// Download serves a generated document. Once it has been sent, the file is
// handed to the deletion scheduler; later requests succeed until it fires.
func (h *DownloadHandler) Download(c *fiber.Ctx) error {
	documentID := c.Params("id")

	if err := security.ValidateFileID(documentID); err != nil {
		log.Printf("🚫 [SECURITY] Rejected download id %q: %v", documentID, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document id",
		})
	}

	doc, err := h.documents.GetDocument(documentID)
	if err != nil {
		log.Printf("⚠️  [DOWNLOAD] Document not found: %s", documentID)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Document not found or already deleted",
		})
	}

	if _, err := os.Stat(doc.FilePath); err != nil {
		log.Printf("⚠️  [DOWNLOAD] File for document %s is gone: %v", documentID, err)
		h.documents.Forget(documentID)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Document not found or already deleted",
		})
	}

	log.Printf("📥 [DOWNLOAD] Serving document: %s (%d bytes)", doc.Filename, doc.Size)

	contentType := doc.ContentType
	if contentType == "" {
		contentType = fiber.MIMEOctetStream
	}

	c.Attachment(doc.Filename)
	c.Set(fiber.HeaderContentType, contentType)

	if err := c.SendFile(doc.FilePath); err != nil {
		log.Printf("❌ [DOWNLOAD] Failed to send file: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to download file",
		})
	}

	h.documents.MarkDownloaded(documentID)
	h.deletions.Schedule(doc.FilePath)
	h.metrics.RecordDownload()

	return nil
}
