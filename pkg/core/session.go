package core

import (
	"fmt"
	"math"
	"time"
)

// MaxLevel is the last martingale escalation step before a cycle reset
const MaxLevel = 7

// Session is the trading state of one instrument, the unit of checkpoint and recovery
type Session struct {
	SessionID  string `json:"session_id"`
	Instrument string `json:"instrument"`
	Level      int    `json:"level"`

	BaseAmountQuote    float64 `json:"base_amount_quote"`
	CurrentAmountQuote float64 `json:"current_amount_quote"`

	LongOrderRef  string `json:"long_order_ref"`
	ShortOrderRef string `json:"short_order_ref"`

	// PnlByLevel holds the realized profit of the round that last occupied each level, index 0 is unused
	PnlByLevel  [MaxLevel + 1]float64 `json:"pnl_by_level"`
	RealizedPnl float64               `json:"realized_pnl"`

	RoundsExecuted int `json:"rounds_executed"`
	TakeProfitHits int `json:"take_profit_hits"`
	StopLossHits   int `json:"stop_loss_hits"`

	StartTime time.Time `json:"start_time"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates a fresh level 1 session sized at the base amount
func NewSession(id, instrument string, baseAmount float64, now time.Time) Session {
	return Session{
		SessionID:          id,
		Instrument:         instrument,
		Level:              1,
		BaseAmountQuote:    baseAmount,
		CurrentAmountQuote: baseAmount,
		StartTime:          now,
		UpdatedAt:          now,
	}
}

// AmountForLevel returns base * 2^(level-1)
func AmountForLevel(base float64, level int) float64 {
	if level < 1 {
		level = 1
	}
	return base * math.Pow(2, float64(level-1))
}

// TotalPnl sums the profit recorded for every level
func (s Session) TotalPnl() float64 {
	total := 0.0
	for _, pnl := range s.PnlByLevel {
		total += pnl
	}
	return total
}

// HasOpenRound reports whether both legs of a round are placed
func (s Session) HasOpenRound() bool {
	return s.LongOrderRef != "" && s.ShortOrderRef != ""
}

// WithoutRound returns a copy of the session with no open legs
func (s Session) WithoutRound() Session {
	s.LongOrderRef = ""
	s.ShortOrderRef = ""
	return s
}

// Validate checks the session invariants
func (s Session) Validate() error {
	if s.Instrument == "" {
		return fmt.Errorf("%w: empty instrument", ErrInvalidSession)
	}

	if s.Level < 1 || s.Level > MaxLevel {
		return fmt.Errorf("%w: level %d out of range [1, %d]", ErrInvalidSession, s.Level, MaxLevel)
	}

	if s.BaseAmountQuote <= 0 {
		return fmt.Errorf("%w: base amount must be positive", ErrInvalidSession)
	}

	expected := AmountForLevel(s.BaseAmountQuote, s.Level)
	if math.Abs(s.CurrentAmountQuote-expected) > 1e-9*expected {
		return fmt.Errorf("%w: amount %.8f does not match level %d (expected %.8f)",
			ErrInvalidSession, s.CurrentAmountQuote, s.Level, expected)
	}

	if (s.LongOrderRef == "") != (s.ShortOrderRef == "") {
		return fmt.Errorf("%w: half-open round (long=%q short=%q)",
			ErrInvalidSession, s.LongOrderRef, s.ShortOrderRef)
	}

	if s.RoundsExecuted < 0 || s.TakeProfitHits < 0 || s.StopLossHits < 0 {
		return fmt.Errorf("%w: negative counter", ErrInvalidSession)
	}

	return nil
}
