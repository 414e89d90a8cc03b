package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SCAN_COOLDOWN", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("CLASSIFIER_TIMEOUT", "")
	t.Setenv("GENERATION_TIMEOUT", "")

	cfg := Load()

	assert.Equal(t, 10*time.Second, cfg.ScanCooldown)
	assert.Equal(t, 20*time.Second, cfg.ClassifierTimeout)
	assert.Equal(t, 30*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, "google/gemini-2.5-flash", cfg.ClassifierModel)
	assert.Equal(t, "openai/gpt-4o-mini", cfg.GenerationModel)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SCAN_COOLDOWN", "45s")
	t.Setenv("GENERATION_TEMPERATURE", "0.2")
	t.Setenv("GENERATION_MAX_TOKENS", "256")
	t.Setenv("TRACING_ENABLED", "true")

	cfg := Load()

	assert.Equal(t, 45*time.Second, cfg.ScanCooldown)
	assert.InDelta(t, 0.2, cfg.GenerationTemperature, 1e-9)
	assert.Equal(t, 256, cfg.GenerationMaxTokens)
	assert.True(t, cfg.TracingEnabled)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("SCAN_COOLDOWN", "ten seconds")
	t.Setenv("RATE_LIMIT_REQUESTS", "lots")

	cfg := Load()

	assert.Equal(t, 10*time.Second, cfg.ScanCooldown)
	assert.Equal(t, 60, cfg.RateLimitRequests)
}
