// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"promptdeck/internal/models"
)

const (
	DefaultOpenAIURL = "http://localhost:8000"
	DefaultGeminiURL = "http://localhost:8002"

	ChatPath   = "/api/chat"
	HealthPath = "/api/health"

	DefaultAPIRequestTimeout  = 30 * time.Second
	DefaultHealthCheckTimeout = 5 * time.Second
	DefaultRetryDelay         = 1 * time.Second
	DefaultMaxRetries         = 3
)

// Config holds all application configuration.
type Config struct {
	Profiles models.Profiles
	Timeouts TimeoutConfig
	DBPath   string
	LogLevel string
	LogFile  string
}

// TimeoutConfig controls the request client's timing and retry bound.
type TimeoutConfig struct {
	APIRequest  time.Duration
	HealthCheck time.Duration
	RetryDelay  time.Duration
	MaxRetries  int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	defaultID := models.ProfileID(strings.ToLower(getEnv("PROMPTDECK_DEFAULT_BACKEND", string(models.ProfileGemini))))

	cfg := &Config{
		Profiles: models.NewProfiles(defaultID,
			NewProfile(models.ProfileOpenAI, getEnv("PROMPTDECK_OPENAI_URL", DefaultOpenAIURL), "OpenAI Version"),
			NewProfile(models.ProfileGemini, getEnv("PROMPTDECK_GEMINI_URL", DefaultGeminiURL), "Gemini Version"),
		),
		Timeouts: TimeoutConfig{
			APIRequest:  getEnvDuration("PROMPTDECK_API_TIMEOUT", DefaultAPIRequestTimeout),
			HealthCheck: getEnvDuration("PROMPTDECK_HEALTH_TIMEOUT", DefaultHealthCheckTimeout),
			RetryDelay:  getEnvDuration("PROMPTDECK_RETRY_DELAY", DefaultRetryDelay),
			MaxRetries:  getEnvInt("PROMPTDECK_MAX_RETRIES", DefaultMaxRetries),
		},
		DBPath:   getEnv("PROMPTDECK_DB_PATH", defaultDataPath("promptdeck.db")),
		LogLevel: getEnv("PROMPTDECK_LOG_LEVEL", "info"),
		LogFile:  getEnv("PROMPTDECK_LOG_FILE", defaultDataPath("promptdeck.log")),
	}

	if !defaultID.Valid() {
		return nil, fmt.Errorf("invalid configuration: PROMPTDECK_DEFAULT_BACKEND %q is not one of openai, gemini", defaultID)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// NewProfile derives the chat and health endpoints from a base URL.
func NewProfile(id models.ProfileID, baseURL, name string) models.Profile {
	base := strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	return models.Profile{
		ID:             id,
		BaseURL:        base,
		ChatEndpoint:   base + ChatPath,
		HealthEndpoint: base + HealthPath,
		Name:           name,
	}
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	for _, id := range models.KnownProfileIDs {
		p, ok := c.Profiles.Lookup(id)
		if !ok || p.BaseURL == "" {
			return fmt.Errorf("base URL for %s cannot be empty", id)
		}
		if !strings.HasPrefix(p.BaseURL, "http://") && !strings.HasPrefix(p.BaseURL, "https://") {
			return fmt.Errorf("base URL for %s must be http(s), got %q", id, p.BaseURL)
		}
	}
	if c.Timeouts.APIRequest <= 0 {
		return fmt.Errorf("PROMPTDECK_API_TIMEOUT must be > 0")
	}
	if c.Timeouts.HealthCheck <= 0 {
		return fmt.Errorf("PROMPTDECK_HEALTH_TIMEOUT must be > 0")
	}
	if c.Timeouts.RetryDelay < 0 {
		return fmt.Errorf("PROMPTDECK_RETRY_DELAY cannot be negative")
	}
	if c.Timeouts.MaxRetries <= 0 {
		return fmt.Errorf("PROMPTDECK_MAX_RETRIES must be > 0")
	}
	if c.DBPath == "" {
		return fmt.Errorf("PROMPTDECK_DB_PATH cannot be empty")
	}
	return nil
}

// DefaultTimeouts returns the built-in timing used when nothing is configured.
func DefaultTimeouts() TimeoutConfig {
	return TimeoutConfig{
		APIRequest:  DefaultAPIRequestTimeout,
		HealthCheck: DefaultHealthCheckTimeout,
		RetryDelay:  DefaultRetryDelay,
		MaxRetries:  DefaultMaxRetries,
	}
}

func defaultDataPath(name string) string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, herr := os.UserHomeDir()
		if herr != nil {
			return filepath.Join(".", name)
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "promptdeck", name)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

// getEnvDuration accepts Go durations ("1.5s") or bare milliseconds ("1500").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
