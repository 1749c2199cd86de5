// Package config loads Mediascribe's configuration from the environment,
// grounded on the teacher's internal/config/config.go: a .env file loaded
// via godotenv, then a flat Config struct populated through
// getEnv/getEnvAsInt/getEnvAsFloat helpers with the same environment-override
// shape, just pointed at this domain's keys instead of JWT/WhisperX ones.
package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for one Mediascribe process.
type Config struct {
	// Server
	Port string
	Host string

	// Storage
	DatabasePath string
	ScratchDir   string

	// Media tooling. ffmpeg/ffprobe paths are resolved directly by
	// pkg/binaries at call time (FFMPEG_PATH/FFPROBE_PATH env vars); only
	// the VAD model cache needs a config-carried path.
	VADModelCacheDir string

	// Job Queue
	QueueWorkers int

	// Worker
	MaxSplitDurationSeconds float64
	PriceBookPath           string

	// Default provider credentials, used only when a submission's api_keys
	// field is empty (spec §6 POST /submit's api_keys is opaque and
	// optional in practice, even though the wire contract always carries
	// the field).
	GoogleAPIKey    string
	AnthropicAPIKey string
	OpenAIAPIKey    string
}

// Load loads configuration from environment variables and a .env file.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return &Config{
		Port:         getEnv("PORT", "8080"),
		Host:         getEnv("HOST", "localhost"),
		DatabasePath: getEnv("DATABASE_PATH", "data/mediascribe.db"),
		ScratchDir:   getEnv("SCRATCH_DIR", "data/scratch"),

		VADModelCacheDir: getEnv("VAD_MODEL_CACHE_DIR", "data/vad-models"),

		QueueWorkers: getEnvAsInt("QUEUE_WORKERS", 0),

		MaxSplitDurationSeconds: getEnvAsFloat("MAX_SPLIT_DURATION_SECONDS", 180),
		PriceBookPath:           getEnv("PRICE_BOOK_PATH", ""),

		GoogleAPIKey:    getEnv("GOOGLE_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
	}
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as int with a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsFloat gets an environment variable as float64 with a default value.
func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
