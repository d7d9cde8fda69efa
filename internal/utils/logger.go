package utils

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger with the fields bundle operations log under
type Logger struct {
	zerolog.Logger
}

// LoggerOptions configures NewLogger
type LoggerOptions struct {
	Level   string
	Format  string // "pretty" or "json"
	Output  io.Writer
	Verbose bool
}

// NewLogger builds a logger writing to opts.Output, stderr by default.
// Verbose forces the debug level.
func NewLogger(opts LoggerOptions) *Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	if opts.Format == "pretty" {
		_, isFile := out.(*os.File)
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.TimeOnly,
			NoColor:    !isFile || os.Getenv("NO_COLOR") != "",
		}
	}

	level := parseLogLevel(opts.Level)
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	return &Logger{Logger: zerolog.New(out).Level(level).With().Timestamp().Logger()}
}

// NewNopLogger creates a logger that discards everything
func NewNopLogger() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// parseLogLevel maps a level name to zerolog, accepting "off" for disabled.
// Unknown names fall back to info.
func parseLogLevel(level string) zerolog.Level {
	if strings.EqualFold(level, "off") {
		return zerolog.Disabled
	}
	l, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

func (l *Logger) with(key, value string) *Logger {
	return &Logger{Logger: l.Logger.With().Str(key, value).Logger()}
}

// WithComponent tags entries with the package doing the work
func (l *Logger) WithComponent(component string) *Logger { return l.with("component", component) }

// WithPath tags entries with a bundle entry path
func (l *Logger) WithPath(path string) *Logger { return l.with("path", path) }

// WithProfile tags entries with a profile name
func (l *Logger) WithProfile(profile string) *Logger { return l.with("profile", profile) }
