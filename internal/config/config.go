// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration. It is loaded once at startup.
type Config struct {
	Port        string `env:"PORT" envDefault:"8000"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"sqlite://./data/cleia.db"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Inference endpoint.
	OllamaURL   string        `env:"OLLAMA_API_URL" envDefault:"http://localhost:11434/api/generate"`
	OllamaModel string        `env:"OLLAMA_MODEL" envDefault:"mistral"`
	LLMTimeout  time.Duration `env:"LLM_TIMEOUT" envDefault:"0s"` // 0 = transport default

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// Optional gRPC health endpoint; empty disables it.
	GRPCHealthAddr      string        `env:"GRPC_HEALTH_ADDR"`
	HealthProbeInterval time.Duration `env:"HEALTH_PROBE_INTERVAL" envDefault:"15s"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL cannot be empty")
	}
	u, err := url.Parse(c.OllamaURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("OLLAMA_API_URL must be an http(s) URL, got %q", c.OllamaURL)
	}
	if c.OllamaModel == "" {
		return fmt.Errorf("OLLAMA_MODEL cannot be empty")
	}
	if c.LLMTimeout < 0 {
		return fmt.Errorf("LLM_TIMEOUT must be >= 0")
	}
	if c.HealthProbeInterval <= 0 {
		return fmt.Errorf("HEALTH_PROBE_INTERVAL must be > 0")
	}
	if len(c.CORSAllowedOrigins) == 0 {
		return fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error", s)
	}
}
