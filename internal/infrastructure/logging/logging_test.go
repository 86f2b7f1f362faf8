package logging

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "level %q", tt.in)
	}
}

func TestNewAppliesLevel(t *testing.T) {
	logger := New("warn", "console")
	require.NotNil(t, logger.Logger)
	assert.Equal(t, slog.LevelWarn, logger.Level())
	assert.False(t, logger.Enabled(nil, slog.LevelInfo))
	assert.True(t, logger.Enabled(nil, slog.LevelError))
}

func TestSetLevelTakesEffectLive(t *testing.T) {
	logger := New("info", "console")
	assert.False(t, logger.Enabled(nil, slog.LevelDebug))

	logger.SetLevel("debug")
	assert.True(t, logger.Enabled(nil, slog.LevelDebug))

	logger.SetLevel("error")
	assert.False(t, logger.Enabled(nil, slog.LevelWarn))
}

func TestNewFormats(t *testing.T) {
	for _, format := range []string{"console", "json", "text", ""} {
		logger := New("info", format)
		require.NotNil(t, logger.Logger, "format %q", format)
	}
}
