package core

import "time"

// Outcome classifies a round from the status of both legs
type Outcome string

const (
	OutcomeOpen       Outcome = "open"
	OutcomeTakeProfit Outcome = "take_profit"
	OutcomeStopLoss   Outcome = "stop_loss"
)

// StatisticsRecord is one immutable row of the statistics ledger
type StatisticsRecord struct {
	Timestamp      time.Time `json:"timestamp"`
	Instrument     string    `json:"instrument"`
	RoundsExecuted int       `json:"rounds_executed"`
	Level          int       `json:"level"`
	TakeProfitHits int       `json:"take_profit_hits"`
	StopLossHits   int       `json:"stop_loss_hits"`
	Outcome        Outcome   `json:"outcome"`
	Pnl            float64   `json:"pnl"`
}

// NewStatisticsRecord snapshots the counters of a session after a resolution
func NewStatisticsRecord(session Session, outcome Outcome, pnl float64, now time.Time) StatisticsRecord {
	return StatisticsRecord{
		Timestamp:      now,
		Instrument:     session.Instrument,
		RoundsExecuted: session.RoundsExecuted,
		Level:          session.Level,
		TakeProfitHits: session.TakeProfitHits,
		StopLossHits:   session.StopLossHits,
		Outcome:        outcome,
		Pnl:            pnl,
	}
}
