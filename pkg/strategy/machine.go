// Package strategy implements the dual-sided martingale state machine
package strategy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/StudioSol/set"
	"github.com/google/uuid"
	"github.com/raykavin/smarttrades/pkg/core"
	"github.com/raykavin/smarttrades/pkg/logger"
)

const timestampLayout = "2006-01-02 15:04:05"

// unwindTimeout bounds the cancellation of a lone leg, which outlives the caller context
const unwindTimeout = 30 * time.Second

// State is the phase of the round currently handled by a Machine
type State string

const (
	StateStarting   State = "STARTING"
	StateMonitoring State = "MONITORING"
	StateResolving  State = "RESOLVING"
)

// Dependencies groups the collaborators of a Machine
type Dependencies struct {
	Venue    core.Venue
	Feed     core.PriceFeed
	Store    core.SessionStore
	Stats    core.StatisticsLog
	Notifier core.Notifier
	Logger   logger.Logger
}

// MachineOption configures optional Machine behaviour
type MachineOption func(*Machine)

// WithClock replaces the wall clock, mostly for tests
func WithClock(clock func() time.Time) MachineOption {
	return func(m *Machine) {
		m.clock = clock
	}
}

// WithIDGenerator replaces the session id generator
func WithIDGenerator(newID func() string) MachineOption {
	return func(m *Machine) {
		m.newID = newID
	}
}

// WithObserver registers an event observer
func WithObserver(observer Observer) MachineOption {
	return func(m *Machine) {
		if observer != nil {
			m.observer = observer
		}
	}
}

// Machine drives the rounds of a single instrument. It owns its session
// exclusively and must not be shared between goroutines.
type Machine struct {
	instrument string
	settings   core.Settings
	deps       Dependencies
	log        logger.Logger
	observer   Observer
	clock      func() time.Time
	newID      func() string

	session       core.Session
	state         State
	restored      bool
	nextHeartbeat time.Time

	// legs already reported as failed in the current round
	failedLegs *set.LinkedHashSetString
	// rounds counter of a record appended whose checkpoint is not saved yet
	unsavedRecord int
}

// NewMachine creates the state machine of an instrument
func NewMachine(instrument string, settings core.Settings, deps Dependencies, options ...MachineOption) *Machine {
	m := &Machine{
		instrument: instrument,
		settings:   settings,
		deps:       deps,
		log:        deps.Logger.WithField("instrument", instrument),
		observer:   nopObserver{},
		clock:      time.Now,
		newID:      uuid.NewString,
		state:      StateStarting,
		failedLegs: set.NewLinkedHashSetString(),
	}

	for _, option := range options {
		option(m)
	}

	return m
}

// Session returns a copy of the current session
func (m *Machine) Session() core.Session {
	return m.session
}

// State returns the current phase
func (m *Machine) State() State {
	return m.state
}

// Restore loads the checkpoint of the instrument or starts a fresh session
func (m *Machine) Restore() error {
	now := m.clock()

	session, err := m.deps.Store.Load(m.instrument)
	switch {
	case errors.Is(err, core.ErrSessionNotFound):
		session = core.NewSession(m.newID(), m.instrument, m.settings.AmountUSDT, now)
		m.log.Infof("starting a fresh session %s with %.2f USDT", session.SessionID, session.BaseAmountQuote)
	case err != nil:
		return fmt.Errorf("%w: load session %s: %w", core.ErrPersistence, m.instrument, err)
	default:
		if err := session.Validate(); err != nil {
			return fmt.Errorf("checkpoint of %s is corrupt: %w", m.instrument, err)
		}
		if session.BaseAmountQuote != m.settings.AmountUSDT {
			m.log.Warnf("checkpoint base amount %.2f differs from AmountUSDT %.2f, keeping the checkpoint value until the session is closed",
				session.BaseAmountQuote, m.settings.AmountUSDT)
		}
		m.log.WithFields(map[string]any{
			"level":  session.Level,
			"long":   session.LongOrderRef,
			"short":  session.ShortOrderRef,
			"rounds": session.RoundsExecuted,
		}).Info("session restored from checkpoint")
	}

	m.session = session
	m.state = StateStarting
	if session.HasOpenRound() {
		m.state = StateMonitoring
	}

	m.nextHeartbeat = nextHeartbeat(session.StartTime, m.settings.HeartbeatPeriod, now)
	m.restored = true

	return nil
}

// Run restores the session and loops until the context is cancelled or a
// persistence failure makes continuing unsafe
func (m *Machine) Run(ctx context.Context) error {
	if !m.restored {
		if err := m.Restore(); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(m.settings.CheckInterval)
	defer ticker.Stop()

	for {
		if err := m.Step(ctx); err != nil {
			return err
		}

		m.log.Debugf("next check in %s (state %s)", m.settings.CheckInterval, m.state)

		select {
		case <-ctx.Done():
			m.log.Info("state machine stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Step runs one poll-and-decide cycle. Only persistence failures are returned,
// every other failure is logged and retried on the next cycle.
func (m *Machine) Step(ctx context.Context) error {
	if !m.restored {
		if err := m.Restore(); err != nil {
			return err
		}
	}

	m.heartbeat(m.clock())

	switch m.state {
	case StateMonitoring:
		return m.poll(ctx)
	default:
		return m.openRound(ctx)
	}
}

func (m *Machine) poll(ctx context.Context) error {
	long, longErr := m.deps.Venue.SmartTrade(ctx, m.session.LongOrderRef)
	short, shortErr := m.deps.Venue.SmartTrade(ctx, m.session.ShortOrderRef)
	if err := errors.Join(longErr, shortErr); err != nil {
		m.observer.OnFetchError(m.instrument)
		m.log.WithError(err).Warn("SmartTrade status unavailable, retrying on next check")
		return nil
	}

	roundPnl := long.ProfitUSD + short.ProfitUSD
	vocabulary := m.settings.Statuses

	m.log.WithFields(map[string]any{
		"long_status":  long.StatusTitle,
		"short_status": short.StatusTitle,
		"long_profit":  long.ProfitUSD,
		"short_profit": short.ProfitUSD,
		"pnl":          m.session.TotalPnl(),
		"rounds":       m.session.RoundsExecuted,
		"level":        m.session.Level,
		"tp_count":     m.session.TakeProfitHits,
		"tsl_count":    m.session.StopLossHits,
	}).Info("SmartTrades status")

	for _, leg := range []core.SmartTrade{long, short} {
		if !leg.Failed(vocabulary.FailedMarker) || m.failedLegs.InArray(leg.Ref) {
			continue
		}
		m.failedLegs.Add(leg.Ref)
		m.observer.OnLegFailure(m.instrument)
		m.log.WithError(core.ErrRemoteFailure).Errorf("venue marked SmartTrade %s as failed", leg.Ref)
		m.notify(fmt.Sprintf("TimeStamp: %s, Pair: %s, SmartTrade Status: Failed",
			m.clock().Format(timestampLayout), m.instrument))
	}

	outcome := Classify(long, short, vocabulary)
	if outcome == core.OutcomeOpen {
		if Unclassified(long, vocabulary) || Unclassified(short, vocabulary) {
			m.log.WithFields(map[string]any{
				"long_status":  long.StatusType,
				"short_status": short.StatusType,
			}).Warn("a leg is closed without a take profit or stop loss status, the round stays open")
		}
		return nil
	}

	m.state = StateResolving
	return m.resolve(ctx, outcome, roundPnl)
}

func (m *Machine) resolve(ctx context.Context, outcome core.Outcome, roundPnl float64) error {
	now := m.clock()

	next, transition, err := Resolve(m.session, outcome, roundPnl, now)
	if err != nil {
		return err
	}

	log := m.log.WithFields(map[string]any{
		"outcome":   outcome,
		"decision":  transition.Kind,
		"level":     transition.ResolvedLevel,
		"round_pnl": roundPnl,
		"amount":    next.CurrentAmountQuote,
	})

	switch transition.Kind {
	case KindTakeProfit:
		log.Infof("SmartTrades hit TP, next round at %.2f USDT", next.CurrentAmountQuote)
	case KindEscalate:
		log.Infof("SmartTrades hit TSL, escalating to level %d with %.2f USDT", next.Level, next.CurrentAmountQuote)
	case KindReset:
		log.Infof("SmartTrades hit TSL at level %d, starting again from the base order", core.MaxLevel)
	}

	if m.unsavedRecord != transition.Record.RoundsExecuted {
		if err := m.deps.Stats.Append(transition.Record); err != nil {
			m.state = StateMonitoring
			return fmt.Errorf("%w: append statistics: %w", core.ErrPersistence, err)
		}
		m.unsavedRecord = transition.Record.RoundsExecuted
	}

	if err := m.save(next); err != nil {
		m.state = StateMonitoring
		return err
	}

	m.unsavedRecord = 0
	m.failedLegs = set.NewLinkedHashSetString()
	m.session = next
	m.state = StateStarting
	m.observer.OnTransition(next, transition)

	if transition.Notify {
		m.notify(summary(transition.Record))
	}

	return m.openRound(ctx)
}

func (m *Machine) openRound(ctx context.Context) error {
	m.state = StateStarting

	price, err := m.deps.Feed.LastQuote(ctx, m.instrument)
	if err != nil || price <= 0 {
		m.observer.OnFetchError(m.instrument)
		m.log.WithError(errors.Join(core.ErrTransientFetch, err)).Warn("price unavailable, round not opened")
		return nil
	}

	longRequest, err := BuildRequest(m.settings, m.session, core.SideLong, price)
	if err != nil {
		m.log.WithError(err).Error("cannot build long SmartTrade")
		return nil
	}

	shortRequest, err := BuildRequest(m.settings, m.session, core.SideShort, price)
	if err != nil {
		m.log.WithError(err).Error("cannot build short SmartTrade")
		return nil
	}

	m.log.Infof("placing SmartTrades with %.2f USDT (qty %.3f at %f), sides: LONG & SHORT, level %d",
		m.session.CurrentAmountQuote, longRequest.Quantity, price, m.session.Level)

	long, err := m.deps.Venue.PlaceSmartTrade(ctx, longRequest)
	if err != nil {
		m.log.WithError(err).Error("long SmartTrade rejected, retrying on next check")
		return nil
	}

	short, err := m.deps.Venue.PlaceSmartTrade(ctx, shortRequest)
	if err != nil {
		m.log.WithError(err).Error("short SmartTrade rejected, unwinding the long leg")
		m.unwind(ctx, long.Ref)
		return nil
	}

	next := m.session
	next.LongOrderRef = long.Ref
	next.ShortOrderRef = short.Ref
	next.UpdatedAt = m.clock()

	if err := m.save(next); err != nil {
		m.notify(fmt.Sprintf("Pair: %s, checkpoint failed with open SmartTrades long=%s short=%s, reconcile manually",
			m.instrument, long.Ref, short.Ref))
		return err
	}

	m.session = next
	m.state = StateMonitoring
	m.observer.OnRoundOpened(next)
	m.log.WithFields(map[string]any{"long": long.Ref, "short": short.Ref}).Info("SmartTrades placed")

	return nil
}

// unwind cancels a leg placed without its opposite. The cancellation runs even
// when ctx is done, since shutdown is the usual reason the second placement failed.
func (m *Machine) unwind(ctx context.Context, ref string) {
	cleanup, cancel := context.WithTimeout(context.WithoutCancel(ctx), unwindTimeout)
	defer cancel()

	if err := m.deps.Venue.CancelSmartTrade(cleanup, ref); err != nil {
		m.log.WithError(err).Errorf("failed to cancel SmartTrade %s", ref)
		m.notify(fmt.Sprintf("Pair: %s, SmartTrade %s is open without its opposite leg, reconcile manually",
			m.instrument, ref))
		return
	}
	m.log.Infof("SmartTrade %s cancelled", ref)
}

func (m *Machine) save(session core.Session) error {
	if err := m.deps.Store.Save(session); err != nil {
		return fmt.Errorf("%w: save session %s: %w", core.ErrPersistence, session.Instrument, err)
	}
	return nil
}

func (m *Machine) heartbeat(now time.Time) {
	if m.settings.HeartbeatPeriod <= 0 || now.Before(m.nextHeartbeat) {
		return
	}

	m.notify(fmt.Sprintf("TimeStamp: %s, Pair: %s Bot Status: Working ...", now.Format(timestampLayout), m.instrument))
	m.nextHeartbeat = nextHeartbeat(m.session.StartTime, m.settings.HeartbeatPeriod, now)
}

func (m *Machine) notify(text string) {
	if m.deps.Notifier == nil {
		return
	}
	m.deps.Notifier.Notify(text)
}

// nextHeartbeat returns the first start + k*period strictly after now
func nextHeartbeat(start time.Time, period time.Duration, now time.Time) time.Time {
	if period <= 0 {
		return time.Time{}
	}

	if now.Before(start) {
		return start.Add(period)
	}

	elapsed := now.Sub(start)
	return start.Add((elapsed/period + 1) * period)
}

func summary(record core.StatisticsRecord) string {
	content, err := json.MarshalIndent(map[string]any{
		"TimeStamp":   record.Timestamp.Format(timestampLayout),
		"Pair":        record.Instrument,
		"Trade count": record.RoundsExecuted,
		"Level":       record.Level,
		"TP count":    record.TakeProfitHits,
		"TSL count":   record.StopLossHits,
		"PnL":         record.Pnl,
	}, "", "    ")
	if err != nil {
		return fmt.Sprintf("Pair: %s, outcome: %s", record.Instrument, record.Outcome)
	}
	return string(content)
}
