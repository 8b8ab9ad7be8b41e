package logging

import (
	"log/slog"
	"testing"
)

func TestNewHandlerByEnvironment(t *testing.T) {
	if _, ok := newHandler("production").(*slog.JSONHandler); !ok {
		t.Error("production should use the JSON handler")
	}
	if _, ok := newHandler("PRODUCTION").(*slog.JSONHandler); !ok {
		t.Error("environment match should be case-insensitive")
	}
	if _, ok := newHandler("development").(*slog.TextHandler); !ok {
		t.Error("non-production should use the text handler")
	}
}
