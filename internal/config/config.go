package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const DefaultModel = "gemini-flash-latest"

type Config struct {
	GeminiAPIKey  string
	GeminiBaseURL string

	ServerHost string
	ServerPort string

	DefaultModel  string
	MaxCodeLength int
	CacheSize     int
	ModelTimeout  time.Duration

	RedisURL         string
	RateLimitPerHour int

	DatabaseURL string

	AdminKey  string
	JWTSecret string

	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment, after merging any .env file
// in the working directory. A missing GEMINI_API_KEY is not an error here:
// analysis calls fail individually instead.
func Load() (*Config, error) {
	godotenv.Load()

	cfg := &Config{
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", ""),
		ServerHost:    getEnv("SERVER_HOST", "0.0.0.0"),
		ServerPort:    getEnv("SERVER_PORT", "8000"),
		DefaultModel:  getEnv("DEFAULT_MODEL", DefaultModel),
		RedisURL:      getEnv("REDIS_URL", ""),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		AdminKey:      getEnv("ADMIN_KEY", ""),
		JWTSecret:     getEnv("JWT_SECRET", "secret"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "text"),
	}

	var err error
	if cfg.MaxCodeLength, err = getEnvInt("MAX_CODE_LENGTH", 10000); err != nil {
		return nil, err
	}
	if cfg.CacheSize, err = getEnvInt("CACHE_SIZE", 100); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerHour, err = getEnvInt("RATE_LIMIT_PER_HOUR", 100); err != nil {
		return nil, err
	}
	if cfg.ModelTimeout, err = getEnvDuration("MODEL_TIMEOUT", 0); err != nil {
		return nil, err
	}

	if cfg.MaxCodeLength <= 0 {
		return nil, fmt.Errorf("MAX_CODE_LENGTH must be positive, got %d", cfg.MaxCodeLength)
	}
	if cfg.CacheSize <= 0 {
		return nil, fmt.Errorf("CACHE_SIZE must be positive, got %d", cfg.CacheSize)
	}

	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}
