package cli

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLoggerWithWriters_FansOut(t *testing.T) {
	stderr := &bytes.Buffer{}
	file := &bytes.Buffer{}

	logger := SetupLoggerWithWriters(stderr, file, slog.LevelInfo)
	logger.Info("session started", "session", "s-1", "count", 3)
	logger.Debug("dropped")

	assert.Contains(t, stderr.String(), "session started")
	assert.Contains(t, stderr.String(), "session=s-1")
	assert.NotContains(t, stderr.String(), "dropped")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(file.Bytes(), &entry))
	assert.Equal(t, "session started", entry["msg"])
	assert.Equal(t, "s-1", entry["session"])
	assert.EqualValues(t, 3, entry["count"])
}

func TestSetupLogger_File(t *testing.T) {
	stderr := &bytes.Buffer{}
	path := filepath.Join(t.TempDir(), "spread.log")

	logger, cleanup := SetupLogger(stderr, path, slog.LevelWarn)
	logger.Warn("session refused", "code", "SELECTION_COUNT")
	logger.Info("not written")
	require.NoError(t, cleanup())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"code":"SELECTION_COUNT"`)
	assert.Contains(t, stderr.String(), "session refused")
}

func TestSetupLogger_NoFile(t *testing.T) {
	stderr := &bytes.Buffer{}

	logger, cleanup := SetupLogger(stderr, "", slog.LevelDebug)
	logger.Debug("hello")
	assert.NoError(t, cleanup())
	assert.Contains(t, stderr.String(), "hello")
}

func TestSetupLogger_UnwritableFileFallsBack(t *testing.T) {
	stderr := &bytes.Buffer{}
	path := filepath.Join(t.TempDir(), "missing", "dir", "spread.log")

	logger, cleanup := SetupLogger(stderr, path, slog.LevelInfo)
	require.NotNil(t, logger)
	assert.NoError(t, cleanup())
	assert.Contains(t, stderr.String(), "failed to open log file")

	logger.Info("still logging")
	assert.Contains(t, stderr.String(), "still logging")
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logLevel(true))
	assert.Equal(t, slog.LevelWarn, logLevel(false))
}
