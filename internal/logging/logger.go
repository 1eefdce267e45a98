package logging

import (
	"io"
	"log/slog"
	"os"
)

// Logger is the application-wide structured logger instance.
var Logger *slog.Logger = slog.Default()

// Init initializes the global logger with the specified level and format.
// level: "debug", "info", "warn", "error" (defaults to "info")
// format: "json" or "text" (defaults to "text")
func Init(level, format string, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}

	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

// WithClient returns a logger with a client_id field.
func WithClient(clientID uint) *slog.Logger {
	return Logger.With("client_id", clientID)
}

// WithSession returns a logger with a session_id field.
func WithSession(sessionID uint) *slog.Logger {
	return Logger.With("session_id", sessionID)
}

// WithJob returns a logger with a job_id field.
func WithJob(jobID uint) *slog.Logger {
	return Logger.With("job_id", jobID)
}
