package logger

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
)

// Logger emits structured JSON log entries for a single service mode.
type Logger struct {
	service  string
	hostname string
	handler  *slog.Logger
}

// New creates a logger for the given service mode.
func New(service string) *Logger {
	hostname, _ := os.Hostname()

	handler := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	return &Logger{
		service:  service,
		hostname: hostname,
		handler:  handler,
	}
}

// GenerateRequestID returns a new request correlation ID.
func GenerateRequestID() string {
	return uuid.NewString()
}

func (l *Logger) log(level slog.Level, action, message, requestID string, fields map[string]interface{}, err error) {
	attrs := []slog.Attr{
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
		slog.String("service", l.service),
		slog.String("hostname", l.hostname),
		slog.String("action", action),
		slog.String("request_id", requestID),
	}

	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}

	if err != nil {
		attrs = append(attrs, slog.Group("error", slog.String("msg", err.Error())))
	}

	l.handler.LogAttrs(context.TODO(), level, message, attrs...)
}

// Info logs an informational entry.
func (l *Logger) Info(action, message, requestID string, fields map[string]interface{}) {
	l.log(slog.LevelInfo, action, message, requestID, fields, nil)
}

// Debug logs a debug entry.
func (l *Logger) Debug(action, message, requestID string, fields map[string]interface{}) {
	l.log(slog.LevelDebug, action, message, requestID, fields, nil)
}

// Error logs an error entry.
func (l *Logger) Error(action, message, requestID string, err error, fields map[string]interface{}) {
	l.log(slog.LevelError, action, message, requestID, fields, err)
}
