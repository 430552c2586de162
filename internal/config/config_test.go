package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"GEMINI_API_KEY", "GEMINI_BASE_URL", "SERVER_HOST", "SERVER_PORT", "DEFAULT_MODEL",
		"MAX_CODE_LENGTH", "CACHE_SIZE", "MODEL_TIMEOUT", "REDIS_URL", "RATE_LIMIT_PER_HOUR",
		"DATABASE_URL", "ADMIN_KEY", "JWT_SECRET", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "", cfg.GeminiAPIKey)
	assert.Equal(t, "0.0.0.0:8000", cfg.Addr())
	assert.Equal(t, "gemini-flash-latest", cfg.DefaultModel)
	assert.Equal(t, 10000, cfg.MaxCodeLength)
	assert.Equal(t, 100, cfg.CacheSize)
	assert.Equal(t, time.Duration(0), cfg.ModelTimeout)
	assert.Equal(t, 100, cfg.RateLimitPerHour)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("SERVER_PORT", "9001")
	t.Setenv("CACHE_SIZE", "5")
	t.Setenv("MODEL_TIMEOUT", "30s")
	t.Setenv("DEFAULT_MODEL", "gemini-2.5-pro")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "k", cfg.GeminiAPIKey)
	assert.Equal(t, "9001", cfg.ServerPort)
	assert.Equal(t, 5, cfg.CacheSize)
	assert.Equal(t, 30*time.Second, cfg.ModelTimeout)
	assert.Equal(t, "gemini-2.5-pro", cfg.DefaultModel)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"CACHE_SIZE", "lots"},
		{"CACHE_SIZE", "0"},
		{"MAX_CODE_LENGTH", "-1"},
		{"MODEL_TIMEOUT", "soon"},
		{"RATE_LIMIT_PER_HOUR", "1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
