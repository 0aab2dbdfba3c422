package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "10000", cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3001"}, cfg.Server.AllowOrigins)
	assert.Equal(t, 120, cfg.Game.PeriodSeconds)
	assert.Equal(t, 60, cfg.Game.BettingCloseOffset)
	assert.Equal(t, 19, cfg.Game.OverrideCutoff)
	assert.InDelta(t, 1.92, cfg.Game.WinMultiplier, 0.001)
	assert.InDelta(t, 1.3, cfg.Game.DojiMultiplier, 0.001)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: "8080"
  allow_origins:
    - https://game.example.com
game:
  period_seconds: 60
  betting_close_offset: 30
  override_cutoff: 10
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"https://game.example.com"}, cfg.Server.AllowOrigins)
	assert.Equal(t, 60, cfg.Game.PeriodSeconds)
	assert.Equal(t, 30, cfg.Game.BettingCloseOffset)
	assert.Equal(t, 10, cfg.Game.OverrideCutoff)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"8080\"\n"), 0o644))

	t.Setenv("PORT", "9999")
	t.Setenv("PERIOD_SECONDS", "30")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, 30, cfg.Game.PeriodSeconds)
	assert.Equal(t, "warn", cfg.Log.Level)
	// offset defaults to half the overridden period
	assert.Equal(t, 15, cfg.Game.BettingCloseOffset)
}

func TestOffsetClampedToPeriod(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "game:\n  period_seconds: 60\n  betting_close_offset: 90\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	// an offset past the round length falls back to the halfway point
	assert.Equal(t, 30, cfg.Game.BettingCloseOffset)
}

func TestMultiplierAccessors(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "1.92", cfg.WinMultiplier().String())
	assert.Equal(t, "1.3", cfg.DojiMultiplier().String())
}
