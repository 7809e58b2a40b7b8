package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLogFileName(t *testing.T) {
	now := time.Date(2025, 9, 1, 14, 5, 9, 0, time.UTC)

	assert.Equal(t, "prod_2025-09-01_14-05-09.log", LogFileName("prod", now))
	assert.Equal(t, "default_2025-09-01_14-05-09.log", LogFileName("", now))
}

func TestInitLogger_WritesJSONFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	logger, err := InitLogger(Options{Env: "test", Dir: dir})
	require.NoError(t, err)

	logger.Debug("file only")
	_ = logger.Sync()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(data, &line))
	assert.Equal(t, "file only", line["msg"])
	assert.Equal(t, "debug", line["level"])
	assert.Equal(t, "test", line["env"])
	assert.Contains(t, line, "timestamp")
}

func TestInitLogger_ConsoleOnly(t *testing.T) {
	logger, err := InitLogger(Options{Verbose: true})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel), "Verbose enables debug")
}
