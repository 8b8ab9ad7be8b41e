package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "CACHE_TTL", "DELETION_DELAY", "SOURCE_EXTENSIONS", "LLM_API_KEY", "OPENAI_API_KEY", "ARTIFACT_MAX_AGE", "ARTIFACT_SWEEP_INTERVAL"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "3001" {
		t.Errorf("expected default port 3001, got %s", cfg.Port)
	}
	if cfg.CacheTTL != 24*time.Hour {
		t.Errorf("expected 24h cache TTL, got %v", cfg.CacheTTL)
	}
	if cfg.DeletionDelay != 120*time.Second {
		t.Errorf("expected 120s deletion delay, got %v", cfg.DeletionDelay)
	}
	if cfg.ArtifactMaxAge != 20*time.Minute {
		t.Errorf("expected artifact max age of ten deletion delays, got %v", cfg.ArtifactMaxAge)
	}
	if cfg.ArtifactSweepInterval != 10*time.Minute {
		t.Errorf("expected 10m artifact sweep interval, got %v", cfg.ArtifactSweepInterval)
	}
	if !reflect.DeepEqual(cfg.SourceExtensions, []string{".pptx"}) {
		t.Errorf("unexpected source extensions %v", cfg.SourceExtensions)
	}
	if cfg.LLMAPIKey != "" {
		t.Errorf("expected empty API key, got %q", cfg.LLMAPIKey)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CACHE_TTL", "90m")
	t.Setenv("DELETION_DELAY", "30")
	t.Setenv("ARTIFACT_MAX_AGE", "")
	t.Setenv("SOURCE_EXTENSIONS", ".pptx, .pdf ,,")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-fallback")
	t.Setenv("WATCH_LESSONS_DIR", "false")
	t.Setenv("LLM_TEMPERATURE", "0.7")
	t.Setenv("ENVIRONMENT", "Production")

	cfg := Load()
	if cfg.CacheTTL != 90*time.Minute {
		t.Errorf("expected 90m, got %v", cfg.CacheTTL)
	}
	if cfg.DeletionDelay != 30*time.Second {
		t.Errorf("plain seconds should parse, got %v", cfg.DeletionDelay)
	}
	if cfg.ArtifactMaxAge != 5*time.Minute {
		t.Errorf("artifact max age should follow the deletion delay, got %v", cfg.ArtifactMaxAge)
	}
	if !reflect.DeepEqual(cfg.SourceExtensions, []string{".pptx", ".pdf"}) {
		t.Errorf("unexpected source extensions %v", cfg.SourceExtensions)
	}
	if cfg.LLMAPIKey != "sk-fallback" {
		t.Errorf("expected OPENAI_API_KEY fallback, got %q", cfg.LLMAPIKey)
	}
	if cfg.WatchLessonsDir {
		t.Error("expected watcher disabled")
	}
	if cfg.LLMTemperature != 0.7 {
		t.Errorf("expected temperature 0.7, got %v", cfg.LLMTemperature)
	}
	if !cfg.IsProduction() {
		t.Error("expected production environment")
	}
}

func TestGetDurationEnvInvalidKeepsDefault(t *testing.T) {
	t.Setenv("CACHE_SWEEP_INTERVAL", "soon")
	if got := getDurationEnv("CACHE_SWEEP_INTERVAL", time.Hour); got != time.Hour {
		t.Errorf("expected default, got %v", got)
	}
}
