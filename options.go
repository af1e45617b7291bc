package smarttrades

import (
	"time"

	"github.com/raykavin/smarttrades/pkg/core"
	"github.com/raykavin/smarttrades/pkg/logger"
	"github.com/raykavin/smarttrades/pkg/strategy"
)

// Option is a functional option for configuring a Bot instance
type Option func(*Bot)

// WithSessionStore sets the checkpoint store, by default a local buntdb file called smarttrades.db
func WithSessionStore(store core.SessionStore) Option {
	return func(bot *Bot) {
		bot.store = store
	}
}

// WithStatisticsLog sets the ledger of resolved rounds, by default smarttrades_stats.csv
func WithStatisticsLog(stats core.StatisticsLog) Option {
	return func(bot *Bot) {
		bot.stats = stats
	}
}

// WithNotifier registers a notifier. Notifiers with a Start and Stop method
// are started with the bot.
func WithNotifier(notifier core.Notifier) Option {
	return func(bot *Bot) {
		bot.notifiers = append(bot.notifiers, notifier)
		if s, ok := notifier.(service); ok {
			bot.services = append(bot.services, s)
		}
	}
}

// WithLogger replaces DefaultLog
func WithLogger(log logger.Logger) Option {
	return func(bot *Bot) {
		bot.log = log
	}
}

// WithLogLevel sets the log level. eg: logger.DebugLevel, logger.InfoLevel, logger.WarnLevel
func WithLogLevel(level logger.Level) Option {
	return func(bot *Bot) {
		bot.log.SetLevel(level)
	}
}

// WithMetrics registers the observer of every state machine, usually a *metric.Metrics
func WithMetrics(observer strategy.Observer) Option {
	return func(bot *Bot) {
		bot.observer = observer
	}
}

// WithClock replaces the wall clock of every state machine
func WithClock(clock func() time.Time) Option {
	return func(bot *Bot) {
		bot.clock = clock
	}
}
