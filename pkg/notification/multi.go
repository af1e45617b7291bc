package notification

import (
	"github.com/raykavin/smarttrades/pkg/core"
	"github.com/raykavin/smarttrades/pkg/logger"
)

// Log writes alerts to the log, it is always part of the notifier set
type Log struct {
	log logger.Logger
}

// NewLog creates a notifier that logs every alert
func NewLog(log logger.Logger) *Log {
	return &Log{log: log}
}

// Notify logs text at info level
func (l *Log) Notify(text string) {
	l.log.WithField("channel", "notification").Info(text)
}

// Multi fans an alert out to every notifier
type Multi []core.Notifier

// Notify delivers text to all notifiers in order
func (m Multi) Notify(text string) {
	for _, notifier := range m {
		notifier.Notify(text)
	}
}
