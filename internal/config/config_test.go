package config

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "DATABASE_URL", "AUTO_MIGRATE", "LOG_LEVEL", "OLLAMA_API_URL",
		"OLLAMA_MODEL", "LLM_TIMEOUT", "CORS_ALLOWED_ORIGINS", "GRPC_HEALTH_ADDR",
		"HEALTH_PROBE_INTERVAL",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "sqlite://./data/cleia.db", cfg.DatabaseURL)
	assert.Equal(t, "http://localhost:11434/api/generate", cfg.OllamaURL)
	assert.Equal(t, "mistral", cfg.OllamaModel)
	assert.Equal(t, time.Duration(0), cfg.LLMTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 15*time.Second, cfg.HealthProbeInterval)
	assert.True(t, cfg.AutoMigrate)
	assert.Empty(t, cfg.GRPCHealthAddr)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://cleia@db/cleia")
	t.Setenv("OLLAMA_MODEL", "llama3")
	t.Setenv("LLM_TIMEOUT", "90s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,https://cleia.example")
	t.Setenv("AUTO_MIGRATE", "false")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("GRPC_HEALTH_ADDR", ":9091")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "postgres://cleia@db/cleia", cfg.DatabaseURL)
	assert.Equal(t, "llama3", cfg.OllamaModel)
	assert.Equal(t, 90*time.Second, cfg.LLMTimeout)
	assert.Equal(t, []string{"http://localhost:3000", "https://cleia.example"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.AutoMigrate)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, ":9091", cfg.GRPCHealthAddr)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:                "8000",
			DatabaseURL:         "sqlite://./data/cleia.db",
			OllamaURL:           "http://localhost:11434/api/generate",
			OllamaModel:         "mistral",
			CORSAllowedOrigins:  []string{"*"},
			HealthProbeInterval: time.Second,
			LogLevel:            "info",
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty port", func(c *Config) { c.Port = "" }},
		{"empty database url", func(c *Config) { c.DatabaseURL = "" }},
		{"non-http endpoint", func(c *Config) { c.OllamaURL = "localhost:11434" }},
		{"empty model", func(c *Config) { c.OllamaModel = "" }},
		{"negative timeout", func(c *Config) { c.LLMTimeout = -time.Second }},
		{"zero probe interval", func(c *Config) { c.HealthProbeInterval = 0 }},
		{"no cors origins", func(c *Config) { c.CORSAllowedOrigins = nil }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
