package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("full config", func(t *testing.T) {
		path := writeConfig(t, `
interval: 120
persistent: true
cache_dir: /var/cache/github-notifyd
quirks:
  - name: dunst
    vendor: knopwob
    disable_hyperlinks: true
  - name: Plasma
    vendor: KDE
    version: "1.0"
    newline: "<br/>"
`)
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 120, cfg.Interval)
		assert.True(t, cfg.Persistent)
		assert.False(t, cfg.NoAvatar)
		assert.Equal(t, "/var/cache/github-notifyd", cfg.CacheDir)

		require.Len(t, cfg.Quirks, 2)
		assert.Equal(t, "dunst", cfg.Quirks[0].Name)
		assert.True(t, cfg.Quirks[0].DisableHyperlinks)
		assert.Empty(t, cfg.Quirks[0].Version)
		assert.Equal(t, "<br/>", cfg.Quirks[1].Newline)
	})

	t.Run("env expansion", func(t *testing.T) {
		t.Setenv("NOTIFYD_CACHE", "/tmp/avatars")
		path := writeConfig(t, "cache_dir: ${NOTIFYD_CACHE}\n")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "/tmp/avatars", cfg.CacheDir)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load("/nonexistent/config.yml")
		require.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := writeConfig(t, "interval: [not a number\n")
		_, err := Load(path)
		require.Error(t, err)
	})

	t.Run("quirk without vendor rejected", func(t *testing.T) {
		path := writeConfig(t, `
quirks:
  - name: dunst
    disable_hyperlinks: true
`)
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "vendor")
	})
}
