package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "ParseLevel(%q)", tt.in)
			continue
		}
		assert.NoError(t, err, "ParseLevel(%q)", tt.in)
		assert.Equal(t, tt.want, got, "ParseLevel(%q)", tt.in)
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("info", "json", &buf)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("login confirmed", "rtt_us", int64(1500))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1, "debug line should be filtered: %q", buf.String())

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "login confirmed", entry["msg"])
	assert.Equal(t, float64(1500), entry["rtt_us"])
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("debug", "text", &buf)
	require.NoError(t, err)

	logger.Debug("pong sent", "payload_bytes", 4)

	out := buf.String()
	assert.Contains(t, out, `msg="pong sent"`)
	assert.Contains(t, out, "payload_bytes=4")
}

func TestNewRejectsUnknown(t *testing.T) {
	_, err := New("info", "xml", nil)
	assert.Error(t, err, "unknown format")

	_, err = New("loud", "json", nil)
	assert.Error(t, err, "unknown level")
}
