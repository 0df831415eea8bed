package calendar

import (
	"fmt"
	"io"
	"log/slog"
)

// Severity classifies a notification.
type Severity int

const (
	SeverityError Severity = iota
	SeveritySuccess
	// SeverityInfo is used for reminders that are not operation outcomes.
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeveritySuccess:
		return "success"
	case SeverityInfo:
		return "info"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Notifier receives one message per completed operation, plus alarm reminders.
type Notifier interface {
	Notify(message string, severity Severity)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(message string, severity Severity)

// Notify calls f.
func (f NotifierFunc) Notify(message string, severity Severity) {
	f(message, severity)
}

// LogNotifier writes notifications to the default slog logger.
type LogNotifier struct{}

// Notify logs errors at error level and everything else at info level.
func (LogNotifier) Notify(message string, severity Severity) {
	if severity == SeverityError {
		slog.Error("Notification", "message", message)
		return
	}
	slog.Info("Notification", "message", message)
}

// ConsoleNotifier prints notifications as "[severity] message" lines.
type ConsoleNotifier struct {
	W io.Writer
}

// Notify writes one line to W.
func (n ConsoleNotifier) Notify(message string, severity Severity) {
	fmt.Fprintf(n.W, "[%s] %s\n", severity, message)
}
