// Package smarttrades runs the dual-sided martingale SmartTrade bot over one or
// more instruments
package smarttrades

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/raykavin/smarttrades/pkg/core"
	"github.com/raykavin/smarttrades/pkg/logger"
	"github.com/raykavin/smarttrades/pkg/notification"
	"github.com/raykavin/smarttrades/pkg/storage"
	"github.com/raykavin/smarttrades/pkg/strategy"
	"golang.org/x/sync/errgroup"
)

// DefaultLog is the default logger instance
var DefaultLog logger.Logger

const (
	defaultDatabase = "smarttrades.db"
	defaultStats    = "smarttrades_stats.csv"
)

// service is a notifier with a background loop, such as the Telegram command poller
type service interface {
	Start()
	Stop()
}

// Bot wires the venue, stores and notifiers to one state machine per instrument
type Bot struct {
	settings core.Settings
	venue    core.Venue
	feed     core.PriceFeed
	store    core.SessionStore
	stats    core.StatisticsLog
	log      logger.Logger

	notifiers notification.Multi
	services  []service
	observer  strategy.Observer
	clock     func() time.Time
}

// NewBot creates a bot for the instruments in settings
func NewBot(settings core.Settings, venue core.Venue, feed core.PriceFeed, options ...Option) (*Bot, error) {
	if len(settings.Instruments) == 0 {
		return nil, fmt.Errorf("%w: no instrument configured", core.ErrConfiguration)
	}

	bot := &Bot{
		settings: settings,
		venue:    venue,
		feed:     feed,
		log:      DefaultLog,
	}

	for _, option := range options {
		option(bot)
	}

	if err := initializeStorage(bot); err != nil {
		return nil, err
	}

	return bot, nil
}

// initializeStorage falls back to the local buntdb file and CSV ledger
func initializeStorage(bot *Bot) error {
	if bot.store == nil {
		store, err := storage.FromFile(defaultDatabase)
		if err != nil {
			return fmt.Errorf("%w: open %s: %v", core.ErrPersistence, defaultDatabase, err)
		}
		bot.store = store
	}

	if bot.stats == nil {
		bot.stats = storage.NewCSVStatisticsLog(defaultStats)
	}

	return nil
}

// Instruments lists the instruments driven by Run
func (b *Bot) Instruments() []string {
	if b.settings.MultiInstrument {
		return b.settings.Instruments
	}
	return b.settings.Instruments[:1]
}

// Run logs the accounts, then drives every active instrument until ctx is
// cancelled. The first persistence failure stops all machines.
func (b *Bot) Run(ctx context.Context) error {
	b.logAccounts(ctx)

	for _, s := range b.services {
		s.Start()
		defer s.Stop()
	}

	group, ctx := errgroup.WithContext(ctx)
	for _, instrument := range b.Instruments() {
		instrument := instrument
		machine := b.newMachine(instrument)
		group.Go(func() error {
			if err := machine.Run(ctx); err != nil {
				return fmt.Errorf("%s: %w", instrument, err)
			}
			return nil
		})
	}

	err := group.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		b.log.WithError(err).Error("bot stopped")
		return err
	}

	return nil
}

func (b *Bot) newMachine(instrument string) *strategy.Machine {
	options := []strategy.MachineOption{strategy.WithObserver(b.observer)}
	if b.clock != nil {
		options = append(options, strategy.WithClock(b.clock))
	}

	return strategy.NewMachine(instrument, b.settings, strategy.Dependencies{
		Venue:    b.venue,
		Feed:     b.feed,
		Store:    b.store,
		Stats:    b.stats,
		Notifier: b.notifier(),
		Logger:   b.log,
	}, options...)
}

func (b *Bot) notifier() core.Notifier {
	if len(b.notifiers) == 0 {
		return notification.NewLog(b.log)
	}
	return b.notifiers
}

// logAccounts lists the sub-accounts and the balance of both legs. Failures
// are logged only, the machines retry the venue on every cycle.
func (b *Bot) logAccounts(ctx context.Context) {
	accounts, err := b.venue.Accounts(ctx)
	if err != nil {
		b.log.WithError(err).Warn("failed to list accounts")
	}

	for _, account := range accounts {
		b.log.WithFields(map[string]any{
			"id":     account.ID,
			"name":   account.Name,
			"market": account.MarketCode,
		}).Info("account")
	}

	for _, side := range []core.Side{core.SideLong, core.SideShort} {
		accountID := b.settings.AccountFor(side)
		balance, err := b.venue.AccountBalance(ctx, accountID)
		if err != nil {
			b.log.WithError(err).WithField("account", accountID).Warnf("failed to load %s balance", side)
			continue
		}

		b.log.WithField("account", accountID).Infof("%s account balance: %.2f USD", side, balance)
	}
}

type sessionLister interface {
	Sessions() ([]core.Session, error)
}

// Status describes the checkpoint of every active instrument
func (b *Bot) Status() string {
	var sessions []core.Session
	if lister, ok := b.store.(sessionLister); ok {
		all, err := lister.Sessions()
		if err != nil {
			return fmt.Sprintf("Status unavailable: %v", err)
		}
		sessions = all
	} else {
		for _, instrument := range b.Instruments() {
			session, err := b.store.Load(instrument)
			if err != nil {
				continue
			}
			sessions = append(sessions, session)
		}
	}

	if len(sessions) == 0 {
		return "No session started."
	}

	lines := make([]string, 0, len(sessions))
	for _, session := range sessions {
		lines = append(lines, fmt.Sprintf("%s: level %d, amount %.2f, rounds %d, TP %d, SL %d, PnL %.2f",
			session.Instrument, session.Level, session.CurrentAmountQuote, session.RoundsExecuted,
			session.TakeProfitHits, session.StopLossHits, session.RealizedPnl))
	}

	return strings.Join(lines, "\n")
}
