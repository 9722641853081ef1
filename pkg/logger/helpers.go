package logger

import (
	"context"

	"github.com/rs/zerolog"
)

// WithField adds a field to the default logger
func WithField(key string, value interface{}) Logger {
	return GetLogger().WithField(key, value)
}

// WithError adds an error to the default logger
func WithError(err error) Logger {
	return GetLogger().WithError(err)
}

// Info logs an info message on the default logger
func Info(msg string) { GetLogger().Info(msg) }

// Error logs an error message on the default logger
func Error(msg string) { GetLogger().Error(msg) }

// LogRequest logs HTTP request information at a level matching the status
func LogRequest(method, url string, statusCode int, durationMs float64) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": durationMs,
	}

	switch {
	case statusCode >= 500:
		GetLogger().ErrorWithFields("HTTP request server error", fields)
	case statusCode >= 400:
		GetLogger().WarnWithFields("HTTP request client error", fields)
	default:
		GetLogger().DebugWithFields("HTTP request completed", fields)
	}
}

// LogExportOutcome logs the terminal state of an export submission
func LogExportOutcome(format, outcome string, err error) {
	fields := map[string]interface{}{
		"format":  format,
		"outcome": outcome,
	}

	l := GetLogger().WithFields(fields)
	if err != nil {
		l.WithError(err).Error("Export finished with error")
		return
	}
	l.Info("Export finished")
}

// NewNopLogger creates a no-operation logger, useful as a default in tests
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing
type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
