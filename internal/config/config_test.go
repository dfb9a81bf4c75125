package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 30*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, int64(1<<20), cfg.HTTP.MaxBodyBytes)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 0.2, cfg.Firefly.Alpha)
	assert.Equal(t, 1.0, cfg.Firefly.Gamma)
	assert.Equal(t, 1, cfg.Firefly.Workers)
	assert.Equal(t, "standard", cfg.Firefly.Mode)
	assert.Empty(t, cfg.Firefly.OutputDir)
	assert.False(t, cfg.Firefly.Chart)
}

func TestLoadDevelopmentLogsDebug(t *testing.T) {
	t.Setenv("ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadOverrides(t *testing.T) {
	out := filepath.Join(t.TempDir(), "runs")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("FIREFLY_ALPHA", "0.5")
	t.Setenv("FIREFLY_WORKERS", "8")
	t.Setenv("FIREFLY_MODE", "hybrid")
	t.Setenv("FIREFLY_OUTPUT_DIR", out)
	t.Setenv("FIREFLY_CHART", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 0.5, cfg.Firefly.Alpha)
	assert.Equal(t, 8, cfg.Firefly.Workers)
	assert.Equal(t, "hybrid", cfg.Firefly.Mode)
	assert.True(t, cfg.Firefly.Chart)
	assert.DirExists(t, out)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"FIREFLY_ALPHA":         "-1",
		"FIREFLY_GAMMA":         "-0.5",
		"FIREFLY_WORKERS":       "-2",
		"FIREFLY_MAX_FIREFLIES": "0",
		"HTTP_PORT":             "eighty",
		"HTTP_MAX_BODY_BYTES":   "0",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("FIREFLY_TEST_INT", "42")
	t.Setenv("FIREFLY_TEST_BOOL", "true")
	t.Setenv("FIREFLY_TEST_BAD", "x")

	assert.Equal(t, "fallback", GetEnv("FIREFLY_TEST_UNSET", "fallback"))
	assert.Equal(t, 42, GetEnvAsInt("FIREFLY_TEST_INT", 1))
	assert.Equal(t, 1, GetEnvAsInt("FIREFLY_TEST_BAD", 1))
	assert.True(t, GetEnvAsBool("FIREFLY_TEST_BOOL", false))
	assert.False(t, GetEnvAsBool("FIREFLY_TEST_BAD", false))
}
