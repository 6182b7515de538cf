package logger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestBuild_JSONLevelFiltering(t *testing.T) {
	var out bytes.Buffer
	l, err := build(Options{Level: "warn", Format: "json", Service: "stockroom"}, zapcore.AddSync(&out), nil)
	require.NoError(t, err)

	l.Info("dropped")
	l.Warn("kept", zap.Int("n", 1))
	require.NoError(t, l.Sync())

	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "stockroom", entry["service"])
	assert.EqualValues(t, 1, entry["n"])
}

func TestBuild_TeesToFile(t *testing.T) {
	var out, file bytes.Buffer
	l, err := build(Options{Level: "info", Format: "console"}, zapcore.AddSync(&out), &file)
	require.NoError(t, err)

	l.Info("hello")
	require.NoError(t, l.Sync())

	assert.Contains(t, out.String(), "INFO")
	assert.Contains(t, out.String(), "hello")
	assert.True(t, json.Valid(bytes.TrimSpace(file.Bytes())))
}

func TestBuild_BadLevel(t *testing.T) {
	_, err := build(Options{Level: "loud"}, zapcore.AddSync(&bytes.Buffer{}), nil)
	assert.Error(t, err)
}

func TestNew_WithRotatedFile(t *testing.T) {
	l, err := New(Options{Level: "info", File: filepath.Join(t.TempDir(), "app.log")})
	require.NoError(t, err)
	l.Info("written")
}
