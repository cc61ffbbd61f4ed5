package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the analysis host.
type Config struct {
	// Server configuration
	Port    string
	Version string
	Debug   bool

	// Cache configuration
	CacheDir            string
	CacheMemoryCapacity int
	CacheBaseTTL        time.Duration
	CleanupSchedule     string

	// Provider configuration
	CloudEnabled      bool
	PreferredProvider string
	AnthropicAPIKey   string
	OpenAIAPIKey      string
	GeminiAPIKey      string
	BuiltinEndpoint   string
	ProviderTimeout   time.Duration

	// Fixed per-provider confidence values. Hand-tuned, treated as
	// configuration rather than derived from response content.
	ConfidenceBuiltIn   float64
	ConfidenceAnthropic float64
	ConfidenceOpenAI    float64
	ConfidenceGemini    float64
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		// Defaults
		Port:                getEnv("PORT", "8080"),
		Version:             getEnv("VERSION", "1.0.0"),
		Debug:               getBoolEnv("DEBUG", false),
		CacheDir:            getEnv("CACHE_DIR", "./cache"),
		CacheMemoryCapacity: getIntEnv("CACHE_MEMORY_CAPACITY", 100),
		CacheBaseTTL:        getDurationEnv("CACHE_BASE_TTL", 30*time.Minute),
		CleanupSchedule:     getEnv("CLEANUP_SCHEDULE", "*/15 * * * *"),
		CloudEnabled:        getBoolEnv("CLOUD_ENABLED", true),
		PreferredProvider:   getEnv("PREFERRED_PROVIDER", ""),
		AnthropicAPIKey:     getEnv("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		BuiltinEndpoint:     getEnv("BUILTIN_ENDPOINT", "http://127.0.0.1:11434"),
		ProviderTimeout:     getDurationEnv("PROVIDER_TIMEOUT", 8*time.Second),
		ConfidenceBuiltIn:   getFloatEnv("CONFIDENCE_BUILTIN", 0.92),
		ConfidenceAnthropic: getFloatEnv("CONFIDENCE_ANTHROPIC", 0.95),
		ConfidenceOpenAI:    getFloatEnv("CONFIDENCE_OPENAI", 0.93),
		ConfidenceGemini:    getFloatEnv("CONFIDENCE_GEMINI", 0.91),
	}

	return cfg, nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolValue
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return floatValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}
