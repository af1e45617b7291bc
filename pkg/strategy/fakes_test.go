package strategy

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/raykavin/smarttrades/pkg/core"
	"github.com/raykavin/smarttrades/pkg/logger"
	zlog "github.com/raykavin/smarttrades/pkg/logger/zerolog"
	"github.com/rs/zerolog"
)

// journal records the order in which collaborators were called
type journal struct {
	mu     sync.Mutex
	events []string
}

func (j *journal) add(format string, args ...any) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, fmt.Sprintf(format, args...))
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.events...)
}

type fakeVenue struct {
	journal *journal

	placed    []core.SmartTradeRequest
	cancelled []string
	trades    map[string]core.SmartTrade
	last      map[core.Side]string
	next      int

	placeErr  map[core.Side]error
	fetchErr  error
	cancelErr error
	// runs before a placement is decided, e.g. to cancel the caller context
	beforePlace func(side core.Side)
}

func newFakeVenue(j *journal) *fakeVenue {
	return &fakeVenue{
		journal:  j,
		trades:   map[string]core.SmartTrade{},
		last:     map[core.Side]string{},
		placeErr: map[core.Side]error{},
	}
}

func (v *fakeVenue) Accounts(context.Context) ([]core.Account, error) {
	return []core.Account{{ID: 11, Name: "long"}, {ID: 22, Name: "short"}}, nil
}

func (v *fakeVenue) AccountBalance(context.Context, int64) (float64, error) {
	return 1000, nil
}

func (v *fakeVenue) PlaceSmartTrade(ctx context.Context, request core.SmartTradeRequest) (core.SmartTrade, error) {
	if v.beforePlace != nil {
		v.beforePlace(request.Side)
	}
	if err := ctx.Err(); err != nil {
		v.journal.add("place %s aborted", request.Side)
		return core.SmartTrade{}, err
	}
	if err := v.placeErr[request.Side]; err != nil {
		v.journal.add("place %s rejected", request.Side)
		return core.SmartTrade{}, err
	}

	v.next++
	ref := fmt.Sprintf("%s-%d", request.Side, v.next)
	v.placed = append(v.placed, request)
	v.trades[ref] = core.SmartTrade{Ref: ref, Instrument: request.Instrument, StatusType: "waiting_targets"}
	v.last[request.Side] = ref
	v.journal.add("place %s %s", request.Side, ref)

	return v.trades[ref], nil
}

func (v *fakeVenue) SmartTrade(_ context.Context, ref string) (core.SmartTrade, error) {
	if v.fetchErr != nil {
		return core.SmartTrade{}, v.fetchErr
	}
	trade, ok := v.trades[ref]
	if !ok {
		return core.SmartTrade{}, fmt.Errorf("%w: unknown ref %s", core.ErrTransientFetch, ref)
	}
	return trade, nil
}

func (v *fakeVenue) CancelSmartTrade(ctx context.Context, ref string) error {
	v.journal.add("cancel %s", ref)
	if err := ctx.Err(); err != nil {
		return err
	}
	if v.cancelErr != nil {
		return v.cancelErr
	}
	v.cancelled = append(v.cancelled, ref)
	return nil
}

// close sets the status and profit of the last placed leg of a side
func (v *fakeVenue) close(side core.Side, status string, profit float64) {
	ref := v.last[side]
	trade := v.trades[ref]
	trade.StatusType = status
	trade.StatusTitle = status
	trade.ProfitUSD = profit
	v.trades[ref] = trade
}

type fakeFeed struct {
	price float64
	err   error
}

func (f *fakeFeed) LastQuote(context.Context, string) (float64, error) {
	return f.price, f.err
}

type fakeStore struct {
	journal  *journal
	sessions map[string]core.Session
	saved    []core.Session
	saveErr  error
	loadErr  error
}

func newFakeStore(j *journal) *fakeStore {
	return &fakeStore{journal: j, sessions: map[string]core.Session{}}
}

func (s *fakeStore) Load(instrument string) (core.Session, error) {
	if s.loadErr != nil {
		return core.Session{}, s.loadErr
	}
	session, ok := s.sessions[instrument]
	if !ok {
		return core.Session{}, core.ErrSessionNotFound
	}
	return session, nil
}

func (s *fakeStore) Save(session core.Session) error {
	if s.saveErr != nil {
		s.journal.add("save failed")
		return s.saveErr
	}
	s.journal.add("save level=%d long=%s short=%s", session.Level, session.LongOrderRef, session.ShortOrderRef)
	s.sessions[session.Instrument] = session
	s.saved = append(s.saved, session)
	return nil
}

func (s *fakeStore) Delete(instrument string) error {
	delete(s.sessions, instrument)
	return nil
}

type fakeStats struct {
	journal *journal
	records []core.StatisticsRecord
	err     error
}

func (s *fakeStats) Append(record core.StatisticsRecord) error {
	if s.err != nil {
		return s.err
	}
	s.journal.add("stats level=%d outcome=%s", record.Level, record.Outcome)
	s.records = append(s.records, record)
	return nil
}

type fakeNotifier struct {
	journal  *journal
	messages []string
}

func (n *fakeNotifier) Notify(text string) {
	n.journal.add("notify")
	n.messages = append(n.messages, text)
}

type recordingObserver struct {
	opened      int
	transitions []Transition
	failures    int
	fetchErrors int
}

func (o *recordingObserver) OnRoundOpened(core.Session) { o.opened++ }
func (o *recordingObserver) OnTransition(_ core.Session, transition Transition) {
	o.transitions = append(o.transitions, transition)
}
func (o *recordingObserver) OnLegFailure(string) { o.failures++ }
func (o *recordingObserver) OnFetchError(string) { o.fetchErrors++ }

func nopLogger() logger.Logger {
	log := zerolog.Nop()
	return zlog.NewAdapter(&log)
}

var errBoom = errors.New("boom")
