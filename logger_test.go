package mypet_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/nasermirzaei89/mypet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected slog.Level
	}{
		{input: "debug", expected: slog.LevelDebug},
		{input: "info", expected: slog.LevelInfo},
		{input: "warn", expected: slog.LevelWarn},
		{input: "error", expected: slog.LevelError},
		{input: "loud", expected: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, mypet.ParseLogLevel(tt.input))
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	t.Run("json to stdout", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer

		logger, closer := mypet.NewLogger(mypet.LogConfig{Level: slog.LevelWarn, Format: mypet.LogFormatJSON}, &buf)
		defer closer.Close()

		logger.Info("hidden")
		logger.Warn("shown", "key", "value")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), `"msg":"shown"`)
		assert.Contains(t, buf.String(), `"key":"value"`)
	})

	t.Run("text to file", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer

		file := filepath.Join(t.TempDir(), "mypet.log")

		logger, closer := mypet.NewLogger(mypet.LogConfig{Level: slog.LevelInfo, File: file, MaxSizeMB: 1}, &buf)

		logger.Info("hello file")
		require.NoError(t, closer.Close())

		content, err := os.ReadFile(file)
		require.NoError(t, err)
		assert.Contains(t, string(content), "msg=\"hello file\"")
		assert.Contains(t, buf.String(), "msg=\"hello file\"")
	})
}
