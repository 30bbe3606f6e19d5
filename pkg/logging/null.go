package logging

import "context"

var (
	_ Logger = (*NullLogger)(nil)
	_ Logger = (*ZeroLogger)(nil)
)

// NullLogger discards every record. Components fall back to it when no
// logger is given, and the CLI uses it while logging is disabled.
type NullLogger struct{}

// NewNullLogger creates a new null logger
func NewNullLogger() *NullLogger {
	return &NullLogger{}
}

func (l *NullLogger) Debug(context.Context, string, Fields) {}
func (l *NullLogger) Info(context.Context, string, Fields) {}
func (l *NullLogger) Warn(context.Context, string, Fields) {}
func (l *NullLogger) Error(context.Context, string, error, Fields) {}

// WithFields returns l; there is nothing to attach fields to
func (l *NullLogger) WithFields(Fields) Logger { return l }

func (l *NullLogger) Close() error { return nil }
