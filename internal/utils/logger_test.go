package utils

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonLogger(buf *bytes.Buffer, level string) *Logger {
	return NewLogger(LoggerOptions{
		Level:  level,
		Format: "json",
		Output: buf,
	})
}

func TestNewLogger(t *testing.T) {
	t.Run("stderr by default", func(t *testing.T) {
		require.NotNil(t, NewLogger(LoggerOptions{Level: "info", Format: "pretty"}))
	})

	t.Run("nop logger", func(t *testing.T) {
		logger := NewNopLogger()
		require.NotNil(t, logger)
		assert.NotPanics(t, func() { logger.Info().Msg("dropped") })
	})

	t.Run("custom output", func(t *testing.T) {
		var buf bytes.Buffer
		jsonLogger(&buf, "info").Info().Msg("test")
		assert.Contains(t, buf.String(), "test")
	})

	t.Run("pretty format", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LoggerOptions{Level: "info", Format: "pretty", Output: &buf})
		logger.Info().Msg("test")
		assert.Contains(t, buf.String(), "test")
	})

	t.Run("verbose option", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LoggerOptions{Level: "info", Format: "json", Output: &buf, Verbose: true})
		logger.Debug().Msg("debug test")
		assert.Contains(t, buf.String(), "debug test")
	})
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf, "info")

	logger.WithComponent("writer").WithProfile("md_fence").WithPath("src/main.go").Info().Msg("chained test")
	output := buf.String()

	assert.Contains(t, output, `"component":"writer"`)
	assert.Contains(t, output, `"profile":"md_fence"`)
	assert.Contains(t, output, `"path":"src/main.go"`)
	assert.Contains(t, output, "chained test")
}

func TestLoggerLevels(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		logFunc   func(*Logger)
		shouldLog bool
	}{
		{"debug level logs debug", "debug", func(l *Logger) { l.Debug().Msg("debug") }, true},
		{"info level doesn't log debug", "info", func(l *Logger) { l.Debug().Msg("debug") }, false},
		{"warn level logs warn", "WARN", func(l *Logger) { l.Warn().Msg("warn") }, true},
		{"error level drops warn", "error", func(l *Logger) { l.Warn().Msg("warn") }, false},
		{"off drops error", "off", func(l *Logger) { l.Error().Msg("error") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(jsonLogger(&buf, tt.level))
			if tt.shouldLog {
				assert.NotEmpty(t, buf.String())
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"Warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"OFF", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"unknown", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLogLevel(tt.level))
		})
	}
}
