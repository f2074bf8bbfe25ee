package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, ":2112", cfg.Server.MetricsAddress)
	assert.Equal(t, 15*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "artifacts", cfg.Registry.ArtifactDir)
	assert.Equal(t, 6*time.Hour, cfg.History.TTL)
	assert.InDelta(t, 0.3, cfg.History.MinQuality, 1e-9)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  address: ":9090"
  requestTimeout: 5s
clients:
  weather:
    baseURL: "http://weather.internal:8000"
    timeout: 2s
registry:
  artifactDir: "/var/lib/yield/artifacts"
history:
  maxEntries: 512
logging:
  level: debug
  json: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "http://weather.internal:8000", cfg.Clients.Weather.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.Clients.Weather.Timeout)
	assert.Equal(t, "/var/lib/yield/artifacts", cfg.Registry.ArtifactDir)
	assert.Equal(t, 512, cfg.History.MaxEntries)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.JSON)

	// Settings absent from the file keep their defaults.
	assert.Equal(t, ":2112", cfg.Server.MetricsAddress)
	assert.Equal(t, 6*time.Hour, cfg.History.TTL)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("YIELD_ENGINE_SERVER_ADDRESS", ":7070")
	t.Setenv("YIELD_ENGINE_WEATHER_URL", "http://override:9000")
	t.Setenv("YIELD_ENGINE_REQUEST_TIMEOUT", "30s")
	t.Setenv("YIELD_ENGINE_HISTORY_MIN_QUALITY", "0.5")
	t.Setenv("YIELD_ENGINE_LOG_FORMAT", "json")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Address)
	assert.Equal(t, "http://override:9000", cfg.Clients.Weather.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.InDelta(t, 0.5, cfg.History.MinQuality, 1e-9)
	assert.True(t, cfg.Logging.JSON)
}
