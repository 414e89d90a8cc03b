// Package config provides environment configuration for the router.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// Relational store. Empty DatabaseURL selects the in-memory store.
	DatabaseURL  string
	QueryTimeout time.Duration

	// NATS event mirror. Empty URL disables it.
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// Hosted models
	OpenRouterAPIKey      string
	OpenRouterBaseURL     string
	OpenRouterReferer     string
	OpenRouterTitle       string
	AnthropicAPIKey       string
	GenerationProvider    string
	ClassifierModel       string
	GenerationModel       string
	ClassifierTimeout     time.Duration
	GenerationTimeout     time.Duration
	GenerationMaxTokens   int
	GenerationTemperature float64

	// Sensor scanning
	ScanCooldown time.Duration

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "5003"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),

		// Store
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		QueryTimeout: getDurationEnv("QUERY_TIMEOUT", 10*time.Second),

		// NATS
		NATSURL:      getEnv("NATS_URL", ""),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		// LLM
		OpenRouterAPIKey:      getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterBaseURL:     getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenRouterReferer:     getEnv("OPENROUTER_REFERER", "http://localhost:5003"),
		OpenRouterTitle:       getEnv("OPENROUTER_TITLE", "Smart Environment Assistant"),
		AnthropicAPIKey:       getEnv("ANTHROPIC_API_KEY", ""),
		GenerationProvider:    getEnv("GENERATION_PROVIDER", "openrouter"),
		ClassifierModel:       getEnv("CLASSIFIER_MODEL", "google/gemini-2.5-flash"),
		GenerationModel:       getEnv("GENERATION_MODEL", "openai/gpt-4o-mini"),
		ClassifierTimeout:     getDurationEnv("CLASSIFIER_TIMEOUT", 20*time.Second),
		GenerationTimeout:     getDurationEnv("GENERATION_TIMEOUT", 30*time.Second),
		GenerationMaxTokens:   getIntEnv("GENERATION_MAX_TOKENS", 1000),
		GenerationTemperature: getFloatEnv("GENERATION_TEMPERATURE", 0.7),

		// Scanning
		ScanCooldown: getDurationEnv("SCAN_COOLDOWN", 10*time.Second),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
