package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cuemby/fabricapi/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fabricapi.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
  json: true
archive:
  path: /tmp/archive
metrics:
  addr: 127.0.0.1:9090
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, "/tmp/archive", cfg.Archive.Path)
	assert.Equal(t, "127.0.0.1:9090", cfg.Metrics.Addr)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "log:\n  json: true\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, Default().Archive.Path, cfg.Archive.Path)
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "log:\n  level: warn\narchive:\n  path: /from/file\n")
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvArchivePath, "/from/env")
	t.Setenv(EnvLogJSON, "1")
	t.Setenv(EnvMetricsAddr, ":9100")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "/from/env", cfg.Archive.Path)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, ":9100", cfg.Metrics.Addr)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := Load(writeConfig(t, "logging:\n  level: debug\n"))
		assert.Error(t, err)
	})

	t.Run("bad level", func(t *testing.T) {
		_, err := Load(writeConfig(t, "log:\n  level: verbose\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "verbose")
	})

	t.Run("bad bool env", func(t *testing.T) {
		t.Setenv(EnvLogJSON, "sometimes")
		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), EnvLogJSON)
	})
}

func TestLogging(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "debug"
	cfg.Log.JSON = true

	lc := cfg.Logging()
	assert.Equal(t, log.DebugLevel, lc.Level)
	assert.True(t, lc.JSONOutput)
}
