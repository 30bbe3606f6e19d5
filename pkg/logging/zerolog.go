package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Format represents the log output format
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Config holds the logger settings
type Config struct {
	// Format is the output format (json or text)
	Format Format
	// Level is the minimum log level
	Level Level
	// Path is the log file; empty logs to Output
	Path string
	// MaxSize is the maximum size in bytes before rotation (0 = no rotation)
	MaxSize int64
	// MaxBackups is the maximum number of rotated files to keep
	MaxBackups int
	// Output receives the records when Path is empty; defaults to stderr
	Output io.Writer
}

// ZeroLogger implements Logger on top of zerolog
type ZeroLogger struct {
	logger zerolog.Logger
	closer io.Closer
}

// NewZeroLogger creates a logger writing text or JSON records to a file or
// to config.Output
func NewZeroLogger(config Config) (*ZeroLogger, error) {
	var out io.Writer = os.Stderr
	if config.Output != nil {
		out = config.Output
	}

	var closer io.Closer
	if config.Path != "" {
		file, err := OpenRotatingFile(config.Path, config.MaxSize, config.MaxBackups)
		if err != nil {
			return nil, err
		}
		out, closer = file, file
	}

	if config.Format != FormatJSON {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    config.Path != "" || config.Output != nil,
		}
	}

	logger := zerolog.New(out).Level(zerologLevel(config.Level)).With().Timestamp().Logger()
	return &ZeroLogger{logger: logger, closer: closer}, nil
}

func zerologLevel(level Level) zerolog.Level {
	switch level {
	case DebugLevel:
		return zerolog.DebugLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Debug logs a debug message
func (l *ZeroLogger) Debug(ctx context.Context, msg string, fields Fields) {
	l.logger.Debug().Fields(map[string]interface{}(fields)).Msg(msg)
}

// Info logs an info message
func (l *ZeroLogger) Info(ctx context.Context, msg string, fields Fields) {
	l.logger.Info().Fields(map[string]interface{}(fields)).Msg(msg)
}

// Warn logs a warning message
func (l *ZeroLogger) Warn(ctx context.Context, msg string, fields Fields) {
	l.logger.Warn().Fields(map[string]interface{}(fields)).Msg(msg)
}

// Error logs an error message
func (l *ZeroLogger) Error(ctx context.Context, msg string, err error, fields Fields) {
	l.logger.Error().Err(err).Fields(map[string]interface{}(fields)).Msg(msg)
}

// WithFields returns a logger with additional fields. The child shares the
// output; closing it is a no-op.
func (l *ZeroLogger) WithFields(fields Fields) Logger {
	return &ZeroLogger{logger: l.logger.With().Fields(map[string]interface{}(fields)).Logger()}
}

// Close closes the log file, if any
func (l *ZeroLogger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
