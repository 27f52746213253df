package logging

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dronepath/autopilot/internal/config"
)

func TestLogFilePath(t *testing.T) {
	sessionStart := time.Date(2026, 2, 12, 21, 38, 36, 0, time.UTC)

	tests := []struct {
		name    string
		logsDir string
		want    string
	}{
		{
			name:    "basic path",
			logsDir: "logs",
			want:    filepath.Join("logs", "autopilot.20260212_213836.log"),
		},
		{
			name:    "relative path with dot",
			logsDir: "./logs",
			want:    filepath.Join(".", "logs", "autopilot.20260212_213836.log"),
		},
		{
			name:    "absolute path",
			logsDir: filepath.Join("/var", "log", "autopilot"),
			want:    filepath.Join("/var", "log", "autopilot", "autopilot.20260212_213836.log"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LogFilePath(tt.logsDir, "autopilot", sessionStart))
		})
	}
}

func TestNewRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.log")
	f := NewRotatingFile(path, config.LogConfig{MaxSizeMB: 5, MaxBackups: 2, MaxAgeDays: 3, Compress: true})
	t.Cleanup(func() { f.Close() })

	assert.Equal(t, path, f.Filename)
	assert.Equal(t, 5, f.MaxSize)
	assert.Equal(t, 2, f.MaxBackups)
	assert.Equal(t, 3, f.MaxAge)
	assert.True(t, f.Compress)

	_, err := f.Write([]byte("line\n"))
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestNewZerolog(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerolog(&buf, "warn", "database")

	l.Info().Msg("hidden")
	l.Warn().Str("table", "plans").Msg("shown")

	require.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("\n")))
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "database", entry["component"])
	assert.Equal(t, "plans", entry["table"])
	assert.Equal(t, "shown", entry["message"])
}

func TestNewZerolog_BadLevelDefaultsToInfo(t *testing.T) {
	l := NewZerolog(&bytes.Buffer{}, "loud", "x")
	assert.Equal(t, zerolog.InfoLevel, l.GetLevel())
}
