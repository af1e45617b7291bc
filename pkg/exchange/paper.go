// Package exchange holds venue implementations that do not talk to a broker
package exchange

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"

	"github.com/raykavin/smarttrades/pkg/core"
	"github.com/raykavin/smarttrades/pkg/logger"
)

// Status types reported by the paper venue, aligned with the default vocabulary
const (
	PaperStatusOpen       = "waiting_targets"
	PaperStatusTakeProfit = "finished"
	PaperStatusStopLoss   = "stop_loss_finished"
	PaperStatusCancelled  = "cancelled"
)

type paperTrade struct {
	request core.SmartTradeRequest
	status  string
	profit  float64

	// best price seen since entry, drives the trailing stop
	extreme   float64
	stop      float64
	targetHit int
	realized  float64
}

// PaperVenue simulates SmartTrades against a live price feed, so the bot can run
// without placing real orders. Every status query marks trades to the current price.
type PaperVenue struct {
	mu sync.Mutex

	feed     core.PriceFeed
	log      logger.Logger
	counter  int64
	trades   map[string]*paperTrade
	balances map[int64]float64
}

// PaperOption configures a PaperVenue
type PaperOption func(*PaperVenue)

// WithPaperBalance registers a simulated sub-account with its USD balance
func WithPaperBalance(accountID int64, amount float64) PaperOption {
	return func(p *PaperVenue) {
		p.balances[accountID] = amount
	}
}

// NewPaperVenue creates a paper venue priced by feed
func NewPaperVenue(feed core.PriceFeed, log logger.Logger, options ...PaperOption) *PaperVenue {
	venue := &PaperVenue{
		feed:     feed,
		log:      log,
		trades:   make(map[string]*paperTrade),
		balances: make(map[int64]float64),
	}

	for _, option := range options {
		option(venue)
	}

	return venue
}

// Accounts lists the simulated sub-accounts
func (p *PaperVenue) Accounts(context.Context) ([]core.Account, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	accounts := make([]core.Account, 0, len(p.balances))
	for id := range p.balances {
		accounts = append(accounts, core.Account{ID: id, Name: fmt.Sprintf("paper-%d", id), MarketCode: "paper"})
	}

	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

// AccountBalance returns the simulated balance plus the profit of closed trades of the account
func (p *PaperVenue) AccountBalance(_ context.Context, accountID int64) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	balance := p.balances[accountID]
	for _, trade := range p.trades {
		if trade.request.AccountID == accountID && trade.status != PaperStatusOpen {
			balance += trade.profit
		}
	}

	return balance, nil
}

// PlaceSmartTrade opens a simulated SmartTrade at its entry price
func (p *PaperVenue) PlaceSmartTrade(_ context.Context, request core.SmartTradeRequest) (core.SmartTrade, error) {
	if request.Quantity <= 0 || request.EntryPrice <= 0 {
		return core.SmartTrade{}, &core.OrderError{
			Err:        fmt.Errorf("%w: quantity and entry price must be positive", core.ErrOrderRejected),
			Instrument: request.Instrument,
			Side:       request.Side,
			Quantity:   request.Quantity,
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.counter++
	ref := strconv.FormatInt(p.counter, 10)
	p.trades[ref] = &paperTrade{
		request: request,
		status:  PaperStatusOpen,
		extreme: request.EntryPrice,
		stop:    request.StopLossPrice,
	}

	p.log.WithFields(map[string]any{
		"ref":      ref,
		"pair":     request.Instrument,
		"side":     request.Side,
		"quantity": request.Quantity,
		"entry":    request.EntryPrice,
	}).Info("paper SmartTrade placed")

	return p.view(ref, p.trades[ref]), nil
}

// SmartTrade marks a simulated SmartTrade to the current price and returns it
func (p *PaperVenue) SmartTrade(ctx context.Context, ref string) (core.SmartTrade, error) {
	p.mu.Lock()
	trade, ok := p.trades[ref]
	open := ok && trade.status == PaperStatusOpen
	instrument := ""
	if ok {
		instrument = trade.request.Instrument
	}
	p.mu.Unlock()

	if !ok {
		return core.SmartTrade{}, fmt.Errorf("%w: unknown paper SmartTrade %s", core.ErrTransientFetch, ref)
	}

	var price float64
	if open {
		var err error
		price, err = p.feed.LastQuote(ctx, instrument)
		if err != nil {
			return core.SmartTrade{}, fmt.Errorf("%w: mark paper SmartTrade %s: %w", core.ErrTransientFetch, ref, err)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if open && trade.status == PaperStatusOpen {
		trade.mark(price)
	}

	return p.view(ref, trade), nil
}

// CancelSmartTrade closes an open simulated SmartTrade without profit
func (p *PaperVenue) CancelSmartTrade(_ context.Context, ref string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	trade, ok := p.trades[ref]
	if !ok {
		return fmt.Errorf("unknown paper SmartTrade %s", ref)
	}

	if trade.status == PaperStatusOpen {
		trade.status = PaperStatusCancelled
		trade.profit = trade.realized
	}

	return nil
}

func (p *PaperVenue) view(ref string, trade *paperTrade) core.SmartTrade {
	return core.SmartTrade{
		Ref:         ref,
		Instrument:  trade.request.Instrument,
		StatusType:  trade.status,
		StatusTitle: trade.status,
		ProfitUSD:   trade.profit,
	}
}

// direction is +1 for long legs and -1 for short legs
func (t *paperTrade) direction() float64 {
	if t.request.Side == core.SideShort {
		return -1
	}
	return 1
}

func (t *paperTrade) pnl(exit, volumePercent float64) float64 {
	quantity := t.request.Quantity * volumePercent / 100
	return t.direction() * (exit - t.request.EntryPrice) * quantity
}

func (t *paperTrade) remainingVolume() float64 {
	remaining := 100.0
	for i := 0; i < t.targetHit; i++ {
		remaining -= t.request.TakeProfits[i].VolumePercent
	}
	return math.Max(remaining, 0)
}

// mark applies a price to the trade: take-profit steps fill first, then the trailing stop
func (t *paperTrade) mark(price float64) {
	d := t.direction()

	for t.targetHit < len(t.request.TakeProfits) {
		step := t.request.TakeProfits[t.targetHit]
		if d*(price-step.Price) < 0 {
			break
		}
		t.realized += t.pnl(step.Price, step.VolumePercent)
		t.targetHit++
	}

	if t.targetHit > 0 && t.remainingVolume() <= 0 {
		t.status = PaperStatusTakeProfit
		t.profit = t.realized
		return
	}

	if d*(price-t.extreme) > 0 {
		t.extreme = price
		if trail := math.Abs(t.request.TrailingPercent); trail > 0 {
			candidate := t.extreme * (1 - d*trail/100)
			if d*(candidate-t.stop) > 0 {
				t.stop = candidate
			}
		}
	}

	if t.stop > 0 && d*(price-t.stop) <= 0 {
		t.realized += t.pnl(t.stop, t.remainingVolume())
		t.profit = t.realized
		t.status = PaperStatusStopLoss
		if t.targetHit > 0 {
			t.status = PaperStatusTakeProfit
		}
		return
	}

	t.profit = t.realized + t.pnl(price, t.remainingVolume())
}
