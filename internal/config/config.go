package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

const DefaultBaseURL = "https://api.linkup.so/v1"

var (
	ErrMissingAPIKey  = errors.New("LINKUP_API_KEY is required")
	ErrInvalidTimeout = errors.New("LINKUP_TIMEOUT_SEC must be non-negative")
	ErrInvalidBaseURL = errors.New("LINKUP_BASE_URL must be an http(s) URL")
)

type Config struct {
	Linkup LinkupConfig
	Log    LogConfig
}

type LinkupConfig struct {
	APIKey  string
	BaseURL string
	// Timeout == 0 means no timeout.
	Timeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads the environment once. Callers keep the result for the client lifetime.
func Load() (*Config, error) {
	cfg := &Config{
		Linkup: LinkupConfig{
			APIKey:  strings.TrimSpace(os.Getenv("LINKUP_API_KEY")),
			BaseURL: getEnvOrDefault("LINKUP_BASE_URL", DefaultBaseURL),
			Timeout: time.Duration(getEnvIntOrDefault("LINKUP_TIMEOUT_SEC", 0)) * time.Second,
		},
		Log: LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Linkup.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.Linkup.Timeout < 0 {
		return ErrInvalidTimeout
	}
	if !strings.HasPrefix(c.Linkup.BaseURL, "http://") && !strings.HasPrefix(c.Linkup.BaseURL, "https://") {
		return ErrInvalidBaseURL
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
