package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"cahier/internal/document"
	"cahier/internal/logging"
	"cahier/internal/models"
	"cahier/internal/security"
	"cahier/internal/services"
	"cahier/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// GenerateHandler turns slide decks into lesson documents
type GenerateHandler struct {
	lessons    *services.LessonService
	documents  *document.Service
	journal    *services.JournalService
	metrics    *services.Metrics
	extractor  *utils.ContentExtractor
	extensions []string
}

// NewGenerateHandler creates a generate handler. journal and metrics may be nil;
// extensions lists the accepted upload types (e.g. ".pptx").
func NewGenerateHandler(lessons *services.LessonService, documents *document.Service, journal *services.JournalService, metrics *services.Metrics, extensions []string) *GenerateHandler {
	return &GenerateHandler{
		lessons:    lessons,
		documents:  documents,
		journal:    journal,
		metrics:    metrics,
		extractor:  utils.NewContentExtractor(),
		extensions: extensions,
	}
}

// Upload handles POST /api/generate: the multipart "file" is saved into the
// lessons directory, then extracted, generated, rendered and journaled.
// Optional form fields (title, subject, level, period, week, session)
// override what the filename says.
func (h *GenerateHandler) Upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file provided",
		})
	}

	if err := security.ValidateSourceFilename(file.Filename, h.extensions); err != nil || !h.lessons.AcceptsSource(file.Filename) {
		log.Printf("🚫 [GENERATE] Rejected upload %q: %v", file.Filename, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Unsupported file. Allowed types: %s", strings.Join(h.extensions, ", ")),
		})
	}

	if file.Size > utils.MaxSourceFileSize {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": fmt.Sprintf("File too large. Maximum size is %d MB", utils.MaxSourceFileSize/(1024*1024)),
		})
	}

	dir := h.lessons.LessonsDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Printf("❌ [GENERATE] Failed to create lessons directory: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save file",
		})
	}

	path := filepath.Join(dir, file.Filename)
	if err := c.SaveFile(file, path); err != nil {
		log.Printf("❌ [GENERATE] Failed to save upload: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save file",
		})
	}
	log.Printf("📤 [GENERATE] Saved %s (%d bytes)", file.Filename, file.Size)

	content := h.extractor.ExtractText(path)
	if strings.TrimSpace(content) == "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "No text could be extracted from the file",
		})
	}

	meta := overrideMetadata(c, utils.ExtractMetadata(file.Filename))

	data, cached, err := h.lessons.GetCachedOrGenerate(c.UserContext(), models.GenerateRequest{
		LessonMetadata: meta,
		Content:        content,
	})
	if err != nil {
		return generationError(c, err)
	}

	return h.respond(c, meta, data, cached)
}

// GenerateForLesson handles POST /api/lessons/:id/generate
func (h *GenerateHandler) GenerateForLesson(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid lesson id",
		})
	}

	record, data, cached, err := h.lessons.GenerateForLesson(c.UserContext(), id)
	if errors.Is(err, services.ErrLessonNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Lesson not found",
		})
	}
	if err != nil {
		return generationError(c, err)
	}

	return h.respond(c, record.Metadata(), data, cached)
}

// respond renders the lesson document, journals it and writes the result
func (h *GenerateHandler) respond(c *fiber.Ctx, meta models.LessonMetadata, data models.LessonData, cached bool) error {
	ctx := c.UserContext()

	doc, err := h.documents.GenerateLessonPDF(ctx, withMetadata(data, meta), document.DownloadName(meta))
	if err != nil {
		log.Printf("❌ [GENERATE] Failed to render %q: %v", meta.Title, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to render lesson document",
		})
	}
	h.metrics.RecordDocumentRendered()
	logging.WithDocument(logging.WithLesson(meta.Title, meta.Subject, meta.Session), doc.DocumentID, doc.Filename).
		Info("lesson document rendered", "cached", cached, "size", doc.Size)

	result := models.GenerateResult{
		Title:       meta.Title,
		LessonData:  data,
		Cached:      cached,
		DocumentID:  doc.DocumentID,
		DownloadURL: doc.DownloadURL,
		Filename:    doc.Filename,
	}

	if h.journal != nil {
		result.JournalID = h.recordJournal(ctx, meta, data)
	}

	return c.JSON(result)
}

// recordJournal is best effort: a failed insert does not fail the request
func (h *GenerateHandler) recordJournal(ctx context.Context, meta models.LessonMetadata, data models.LessonData) int64 {
	id, err := h.journal.Record(ctx, meta, data)
	if err != nil {
		log.Printf("⚠️  [GENERATE] Failed to record journal entry for %q: %v", meta.Title, err)
		return 0
	}
	return id
}

// withMetadata fills the document header fields from the lesson metadata when
// the generated data left them out
func withMetadata(data models.LessonData, meta models.LessonMetadata) models.LessonData {
	out := data.Clone()
	fields := map[string]string{
		"title":   meta.Title,
		"subject": meta.Subject,
		"level":   meta.Level,
		"period":  meta.Period,
		"week":    meta.Week,
		"session": meta.Session,
	}
	for key, value := range fields {
		if out.String(key) == "" && value != "" {
			out[key] = value
		}
	}
	return out
}

func overrideMetadata(c *fiber.Ctx, meta models.LessonMetadata) models.LessonMetadata {
	override := func(field string, target *string) {
		if v := strings.TrimSpace(c.FormValue(field)); v != "" {
			*target = v
		}
	}
	override("title", &meta.Title)
	override("subject", &meta.Subject)
	override("level", &meta.Level)
	override("period", &meta.Period)
	override("week", &meta.Week)
	override("session", &meta.Session)
	return meta
}

func generationError(c *fiber.Ctx, err error) error {
	log.Printf("❌ [GENERATE] Generation failed: %v", err)

	switch {
	case errors.Is(err, services.ErrGeneratorUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Lesson generation provider is unavailable",
		})
	case errors.Is(err, context.DeadlineExceeded):
		return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{
			"error": "Lesson generation timed out",
		})
	default:
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Lesson generation failed",
		})
	}
}
