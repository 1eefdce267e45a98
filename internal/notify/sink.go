// Package notify defines the passive notification surface. Automated
// triggers never raise blocking dialogs; they either succeed silently or
// emit a notification here.
package notify

import (
	"log/slog"

	"github.com/mpetrov/fieldclock/internal/logging"
)

// Sink receives user-facing notifications about timer activity.
type Sink interface {
	// ShowRunningTimer surfaces the currently running timer.
	ShowRunningTimer(clientName string, elapsedSeconds int)
	// Notify surfaces a one-off passive message, e.g. a dropped
	// geofence auto-start.
	Notify(message string)
	// Dismiss removes the running-timer notification, if shown.
	Dismiss()
}

// LogSink writes notifications to the structured log. It is the default
// sink for the CLI, where there is no notification shade to post to.
type LogSink struct {
	log *slog.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink() *LogSink {
	return &LogSink{log: logging.Logger}
}

func (s *LogSink) ShowRunningTimer(clientName string, elapsedSeconds int) {
	s.log.Info("timer running", "client", clientName, "elapsed_seconds", elapsedSeconds)
}

func (s *LogSink) Notify(message string) {
	s.log.Info("notification", "message", message)
}

func (s *LogSink) Dismiss() {}
