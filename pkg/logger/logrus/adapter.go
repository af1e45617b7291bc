// Package logrus adapts sirupsen/logrus to logger.Logger
package logrus

import (
	"github.com/raykavin/smarttrades/pkg/logger"
	"github.com/sirupsen/logrus"
)

type Adapter struct {
	*logrus.Entry
}

// New creates a text formatted logrus logger at the given level
func New(level string) (*Adapter, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	log := logrus.New()
	log.SetLevel(lvl)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &Adapter{logrus.NewEntry(log)}, nil
}

func NewAdapter(entry *logrus.Entry) *Adapter {
	return &Adapter{entry}
}

// WithField implements logger.Logger.
func (l *Adapter) WithField(key string, value any) logger.Logger {
	return &Adapter{l.Entry.WithField(key, value)}
}

// WithFields implements logger.Logger.
func (l *Adapter) WithFields(fields map[string]any) logger.Logger {
	return &Adapter{l.Entry.WithFields(fields)}
}

// WithError implements logger.Logger.
func (l *Adapter) WithError(err error) logger.Logger {
	return &Adapter{l.Entry.WithError(err)}
}

// SetLevel implements logger.Logger.
func (l *Adapter) SetLevel(level logger.Level) {
	if level == logger.Disabled {
		l.Logger.SetLevel(logrus.PanicLevel)
		return
	}

	for lr, own := range levels {
		if own == level {
			l.Logger.SetLevel(lr)
			return
		}
	}
}

// GetLevel implements logger.Logger.
func (l *Adapter) GetLevel() logger.Level {
	if level, ok := levels[l.Logger.GetLevel()]; ok {
		return level
	}
	return logger.NoLevel
}

var levels = map[logrus.Level]logger.Level{
	logrus.TraceLevel: logger.TraceLevel,
	logrus.DebugLevel: logger.DebugLevel,
	logrus.InfoLevel:  logger.InfoLevel,
	logrus.WarnLevel:  logger.WarnLevel,
	logrus.ErrorLevel: logger.ErrorLevel,
	logrus.FatalLevel: logger.FatalLevel,
	logrus.PanicLevel: logger.PanicLevel,
}
