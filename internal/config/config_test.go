package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ModeMock, cfg.APIMode)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "30-M", cfg.SearchRateLimit)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("API_MODE", "LIVE")
	t.Setenv("BACKOFFICE_API_URL", "https://api.example.com")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, ModeLive, cfg.APIMode)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
}

func TestLoad_DotEnvDoesNotOverrideEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("LOG_LEVEL=debug\nMOCK_SEED=7\n"), 0o600))
	t.Setenv("MOCK_SEED", "99")
	// godotenv writes to the process environment; restore it afterwards
	t.Setenv("LOG_LEVEL", "")
	os.Unsetenv("LOG_LEVEL")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, int64(99), cfg.MockSeed)
}

func TestLoad_RejectsUnknownMode(t *testing.T) {
	t.Setenv("API_MODE", "staging")

	_, err := Load("")
	assert.ErrorContains(t, err, "API_MODE")
}
