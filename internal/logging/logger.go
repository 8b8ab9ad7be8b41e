package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures the global slog logger.
// In production (ENVIRONMENT=production) it uses JSON output for log aggregation.
// Otherwise it uses the human-readable text handler.
// Standard library log output is routed through the same handler.
func Init() {
	slog.SetDefault(slog.New(newHandler(os.Getenv("ENVIRONMENT"))))
}

func newHandler(environment string) slog.Handler {
	if strings.ToLower(environment) == "production" {
		return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
}

// WithLesson returns a logger with lesson fields attached.
// Use this for logging along a generation path.
func WithLesson(title, subject, session string) *slog.Logger {
	return slog.With(
		"lesson_title", title,
		"subject", subject,
		"session", session,
	)
}

// WithDocument returns a logger scoped to a rendered document.
func WithDocument(logger *slog.Logger, documentID, filename string) *slog.Logger {
	return logger.With(
		"document_id", documentID,
		"filename", filename,
	)
}
