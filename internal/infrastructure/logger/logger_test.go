package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	t.Run("creates console logger", func(t *testing.T) {
		logger, err := New(DefaultConfig())
		require.NoError(t, err)
		assert.NotNil(t, logger)
	})

	t.Run("writes json to a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.log")

		logger, err := New(Config{Level: "debug", Format: "json", Output: path})
		require.NoError(t, err)
		logger.Info("hello")
		require.NoError(t, logger.Sync())

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), `"msg":"hello"`)
	})

	t.Run("fails for an unwritable file", func(t *testing.T) {
		_, err := New(Config{Output: filepath.Join(t.TempDir(), "missing", "app.log")})
		assert.Error(t, err)
	})

	t.Run("tees into extra cores", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)

		logger, err := New(Config{Level: "info", Format: "json", Output: "stderr"}, WithCore(core))
		require.NoError(t, err)
		logger.Info("bridged")

		require.Equal(t, 1, recorded.Len())
		assert.Equal(t, "bridged", recorded.All()[0].Message)
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"unknown", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}
