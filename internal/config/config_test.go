package config

import (
	"testing"
	"time"

	"promptdeck/internal/models"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PROMPTDECK_DB_PATH", t.TempDir()+"/test.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := cfg.Profiles.DefaultID(); got != models.ProfileGemini {
		t.Errorf("default profile = %q, want gemini", got)
	}
	gemini, ok := cfg.Profiles.Lookup(models.ProfileGemini)
	if !ok {
		t.Fatal("gemini profile missing")
	}
	if gemini.ChatEndpoint != "http://localhost:8002/api/chat" {
		t.Errorf("gemini chat endpoint = %q", gemini.ChatEndpoint)
	}
	if gemini.HealthEndpoint != "http://localhost:8002/api/health" {
		t.Errorf("gemini health endpoint = %q", gemini.HealthEndpoint)
	}
	openai, _ := cfg.Profiles.Lookup(models.ProfileOpenAI)
	if openai.BaseURL != "http://localhost:8000" {
		t.Errorf("openai base URL = %q", openai.BaseURL)
	}
	if cfg.Timeouts != DefaultTimeouts() {
		t.Errorf("timeouts = %+v, want defaults", cfg.Timeouts)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PROMPTDECK_DB_PATH", t.TempDir()+"/test.db")
	t.Setenv("PROMPTDECK_OPENAI_URL", "https://chat.example.com/")
	t.Setenv("PROMPTDECK_DEFAULT_BACKEND", "OpenAI")
	t.Setenv("PROMPTDECK_RETRY_DELAY", "250")
	t.Setenv("PROMPTDECK_API_TIMEOUT", "2s")
	t.Setenv("PROMPTDECK_MAX_RETRIES", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := cfg.Profiles.Default().ID; got != models.ProfileOpenAI {
		t.Errorf("default profile = %q, want openai", got)
	}
	if got := cfg.Profiles.Default().ChatEndpoint; got != "https://chat.example.com/api/chat" {
		t.Errorf("chat endpoint = %q", got)
	}
	if cfg.Timeouts.RetryDelay != 250*time.Millisecond {
		t.Errorf("retry delay = %v", cfg.Timeouts.RetryDelay)
	}
	if cfg.Timeouts.APIRequest != 2*time.Second {
		t.Errorf("api timeout = %v", cfg.Timeouts.APIRequest)
	}
	if cfg.Timeouts.MaxRetries != 5 {
		t.Errorf("max retries = %d", cfg.Timeouts.MaxRetries)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown default backend", "PROMPTDECK_DEFAULT_BACKEND", "claude"},
		{"non-http base URL", "PROMPTDECK_GEMINI_URL", "ftp://example.com"},
		{"zero retries", "PROMPTDECK_MAX_RETRIES", "0"},
		{"zero api timeout", "PROMPTDECK_API_TIMEOUT", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PROMPTDECK_DB_PATH", t.TempDir()+"/test.db")
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%q succeeded, want error", tt.key, tt.val)
			}
		})
	}
}
