package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_AppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("world:\n  width: 32\nactions:\n  dig_chance: 0\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.World.Width)
	assert.Equal(t, 64, cfg.World.Height)
	assert.Equal(t, ":1945", cfg.Server.Addr)
	assert.Equal(t, 17*time.Millisecond, cfg.Server.TickInterval)
	assert.Equal(t, "file", cfg.Storage.Type)
	assert.Equal(t, 70, cfg.Client.ConnectIntervalTicks)
	assert.Equal(t, 10, cfg.Client.MaxAttempts)
	require.NotNil(t, cfg.Actions.DigChance)
	assert.Equal(t, 0.0, *cfg.Actions.DigChance)
	require.NotNil(t, cfg.World.SandLevel)
	assert.Equal(t, -2.0, *cfg.World.SandLevel)
	assert.Equal(t, 5*time.Second, cfg.Client.DialTimeout)
}

func TestLoad_ZeroSandLevelIsKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("world:\n  sand_level: 0\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.World.SandLevel)
	assert.Equal(t, 0.0, *cfg.World.SandLevel)
}

func TestLoad_Durations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  tick_interval: 20ms\n  autosave_interval: 1m\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 20*time.Millisecond, cfg.Server.TickInterval)
	assert.Equal(t, time.Minute, cfg.Server.AutosaveInterval)
}

func TestLoadOrDefault_MissingFileAndEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DB_TYPE", "json")
	t.Setenv("DATA_DIR", "/tmp/worlds")

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "json", cfg.Storage.Type)
	assert.Equal(t, "/tmp/worlds", cfg.Storage.DataDir)
	assert.Equal(t, 1.0, *cfg.Actions.DigChance)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("world: [unclosed"), 0644))

	_, err := LoadOrDefault(path)
	assert.Error(t, err)
}
