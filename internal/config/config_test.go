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
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, int64(100<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 20*time.Second, cfg.AdapterTimeout)
	assert.Equal(t, 30, cfg.SatelliteWindowDays)
	assert.Equal(t, 30*24*time.Hour, cfg.SatelliteWindow())
	assert.Equal(t, 6, cfg.HistoryMaxDistance)
	assert.Zero(t, cfg.VerifyWorkers)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen_addr: ":9090"
classifier_url: "http://classifier.local/models/ai-detector"
adapter_timeout: 5s
satellite_window_days: 14
log_format: json
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LISTEN_ADDR", ":7070")
	t.Setenv("ADAPTER_TIMEOUT", "750ms")
	t.Setenv("SATELLITE_RPS", "0.5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.ListenAddr, "env wins over file")
	assert.Equal(t, "http://classifier.local/models/ai-detector", cfg.ClassifierURL)
	assert.Equal(t, 750*time.Millisecond, cfg.AdapterTimeout)
	assert.Equal(t, 14, cfg.SatelliteWindowDays)
	assert.Equal(t, 0.5, cfg.SatelliteRPS)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: [unclosed"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsNonPositiveWindow(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("SATELLITE_WINDOW_DAYS", "0")

	_, err := Load()
	assert.Error(t, err)
}

func TestGetenvFallbacks(t *testing.T) {
	t.Setenv("X_INT", "abc")
	t.Setenv("X_DUR", "soon")
	assert.Equal(t, 3, getenvInt("X_INT", 3))
	assert.Equal(t, time.Second, getenvDuration("X_DUR", time.Second))
}
