// Package notify carries user-visible messages out of the sync engine. The
// host UI is not part of this tool, so the default implementation writes to
// the process log.
package notify

import "log"

// Notifier surfaces per-task confirmations, warnings and pass summaries.
type Notifier interface {
	Info(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// LogNotifier writes notifications through a standard logger.
type LogNotifier struct {
	Logger *log.Logger
}

// NewLogNotifier wraps the given logger; nil falls back to the default
// logger.
func NewLogNotifier(l *log.Logger) *LogNotifier {
	if l == nil {
		l = log.Default()
	}
	return &LogNotifier{Logger: l}
}

func (n *LogNotifier) Info(format string, args ...interface{}) {
	n.Logger.Printf(format, args...)
}

func (n *LogNotifier) Error(format string, args ...interface{}) {
	n.Logger.Printf("ERROR: "+format, args...)
}
