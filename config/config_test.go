package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "relay.log", cfg.Log.File)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Console)
	assert.Equal(t, "ws://localhost:8080/ws", cfg.Relay.URL)
	assert.Equal(t, 5, cfg.Match.TurnInterval)
	assert.Equal(t, 30, cfg.Match.TicksPerSecond)
	assert.Equal(t, 2.0, cfg.Limits.JoinPerSecond)
	assert.Equal(t, 5, cfg.Limits.JoinBurst)
	assert.Equal(t, 1000, cfg.Limits.MaxRooms)
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sectorwar.json")
	body := `{
		"listen": ":9000",
		"log": { "level": "debug", "console": true },
		"match": { "turnInterval": 3 }
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Console)
	assert.Equal(t, 3, cfg.Match.TurnInterval)
	assert.Equal(t, 30, cfg.Match.TicksPerSecond)
	assert.Equal(t, "relay.log", cfg.Log.File)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SECTORWAR_LISTEN", ":7777")
	t.Setenv("SECTORWAR_RELAY_URL", "ws://relay.example:9000/ws")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.Listen)
	assert.Equal(t, "ws://relay.example:9000/ws", cfg.Relay.URL)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/sectorwar.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoad_RejectsZeroTurnInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"match": {"turnInterval": 0}}`), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "match.turnInterval")
}
