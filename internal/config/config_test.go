package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"SKETCHER_PORT", "PORT", "SKETCHER_DATABASE_PATH", "ANALYSIS_PROVIDER",
		"ANALYSIS_TIMEOUT_SECONDS", "PREVIEW_MAX_SIZE", "ALLOWED_ORIGINS",
		"OLLAMA_URL", "OLLAMA_HOST",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != defaultPort {
		t.Errorf("Expected port %s, got %s", defaultPort, cfg.Port)
	}
	if cfg.Provider != "volcano" {
		t.Errorf("Expected provider volcano, got %s", cfg.Provider)
	}
	if cfg.AnalysisTimeout != 120*time.Second {
		t.Errorf("Expected 120s timeout, got %s", cfg.AnalysisTimeout)
	}
	if cfg.OllamaURL != defaultOllamaURL {
		t.Errorf("Expected ollama url %s, got %s", defaultOllamaURL, cfg.OllamaURL)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Errorf("Expected [*] origins, got %v", cfg.AllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SKETCHER_PORT", "9000")
	t.Setenv("ANALYSIS_PROVIDER", "OpenAI")
	t.Setenv("ANALYSIS_TIMEOUT_SECONDS", "45")
	t.Setenv("PREVIEW_MAX_SIZE", "not-a-number")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test ,")

	cfg := Load()

	if cfg.Port != "9000" {
		t.Errorf("Expected port 9000, got %s", cfg.Port)
	}
	if cfg.Provider != "openai" {
		t.Errorf("Expected provider openai, got %s", cfg.Provider)
	}
	if cfg.AnalysisTimeout != 45*time.Second {
		t.Errorf("Expected 45s timeout, got %s", cfg.AnalysisTimeout)
	}
	if cfg.PreviewMaxSize != defaultPreviewMaxSize {
		t.Errorf("Expected fallback preview size %d, got %d", defaultPreviewMaxSize, cfg.PreviewMaxSize)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Errorf("Expected two trimmed origins, got %v", cfg.AllowedOrigins)
	}
}
