// Package observability wires structured logging for the server: one slog
// logger configured per run mode, plus per-request ids.
package observability

import (
	"log/slog"
	"os"

	"github.com/google/uuid"
)

const (
	// LogFieldRequestID is the field name for request ID.
	LogFieldRequestID = "request_id"
	// LogFieldMethod is the field name for the HTTP method.
	LogFieldMethod = "method"
	// LogFieldPath is the field name for the request path.
	LogFieldPath = "path"
	// LogFieldStatus is the field name for the response status.
	LogFieldStatus = "status"
	// LogFieldDuration is the field name for duration in milliseconds.
	LogFieldDuration = "duration_ms"
)

// NewLogger builds the process logger: JSON in prod, readable text with
// debug level everywhere else.
func NewLogger(mode string) *slog.Logger {
	if mode == "prod" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// NewRequestID generates a unique request ID.
func NewRequestID() string {
	return uuid.New().String()
}
