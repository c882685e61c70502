package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitLogger_WritesFile(t *testing.T) {
	t.Cleanup(func() { Log = zap.NewNop().Sugar() })

	path := filepath.Join(t.TempDir(), "relay.log")
	require.NoError(t, InitLogger(Options{File: path, Level: "debug"}))
	Log.Infow("room created", "room", "ABCD")
	Log.Debugf("turn %d flushed", 3)
	SyncLogger()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "room created")
	assert.Contains(t, string(data), "turn 3 flushed")
}

func TestInitLogger_LevelFilters(t *testing.T) {
	t.Cleanup(func() { Log = zap.NewNop().Sugar() })

	path := filepath.Join(t.TempDir(), "relay.log")
	require.NoError(t, InitLogger(Options{File: path, Level: "warn"}))
	Log.Info("hidden")
	Log.Warn("shown")
	SyncLogger()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestInitLogger_BadLevel(t *testing.T) {
	err := InitLogger(Options{Level: "loud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loud")
}
