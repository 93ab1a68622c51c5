package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewJSON(t *testing.T) {
	out := filepath.Join(t.TempDir(), "log.json")
	log, err := New(Options{Level: "debug", Encoding: "json", Outputs: []string{out}})
	require.NoError(t, err)

	log.Debug("task started", zap.String("key", "java:17"))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(data, &line))
	assert.Equal(t, "task started", line["message"])
	assert.Equal(t, "DEBUG", line["level"])
	assert.Equal(t, "java:17", line["key"])
}

func TestNewUnknownLevelFallsBackToInfo(t *testing.T) {
	log, err := New(Options{Level: "chatty", Encoding: "json", Outputs: []string{filepath.Join(t.TempDir(), "x")}})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
}

func TestNewRejectsUnknownEncoding(t *testing.T) {
	_, err := New(Options{Encoding: "xml"})
	assert.Error(t, err)
}
