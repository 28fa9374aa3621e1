package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 4, cfg.WorkerCount)
	assert.Equal(t, "sonar", cfg.PerplexityModel)
	assert.Equal(t, 10000, cfg.VisaTimeoutMS)
	assert.Equal(t, "memory", cfg.RegistryBackend())
	assert.Equal(t, "local", cfg.WorkerQueue)
	assert.Equal(t, "trip_jobs", cfg.RedisStream)
}

func TestLoadEnvironmentOverridesDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "PORT=9090\nWORKER_COUNT=8\nCORS_ALLOWED_ORIGINS=https://a.example, https://b.example\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("PORT", "7070")

	cfg, err := Load(path, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, 8, cfg.WorkerCount)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestRegistryBackend(t *testing.T) {
	assert.Equal(t, "postgres", Config{DatabaseURL: "postgres://x"}.RegistryBackend())
	assert.Equal(t, "redis", Config{JobRegistry: "redis", DatabaseURL: "postgres://x"}.RegistryBackend())
	assert.Equal(t, "memory", Config{JobRegistry: "bogus"}.RegistryBackend())
}
