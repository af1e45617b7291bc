package strategy

import (
	"fmt"
	"time"

	"github.com/raykavin/smarttrades/pkg/core"
)

// TransitionKind names the sizing decision taken after a resolved round
type TransitionKind string

const (
	KindTakeProfit TransitionKind = "take_profit"
	KindEscalate   TransitionKind = "escalate"
	KindReset      TransitionKind = "reset"
)

// Transition describes a resolved round and the bookkeeping it produced
type Transition struct {
	Kind          TransitionKind
	Outcome       core.Outcome
	ResolvedLevel int
	RoundPnl      float64
	Record        core.StatisticsRecord
	Notify        bool
}

// Resolve computes the session that follows a resolved round. It is a pure
// function: the returned session has no open legs and the caller is responsible
// for persisting it and opening the next round.
func Resolve(session core.Session, outcome core.Outcome, roundPnl float64, now time.Time) (core.Session, Transition, error) {
	if err := session.Validate(); err != nil {
		return session, Transition{}, err
	}

	next := session.WithoutRound()
	resolved := session.Level

	next.PnlByLevel[resolved] = roundPnl
	next.RealizedPnl += roundPnl
	next.RoundsExecuted += 2
	next.UpdatedAt = now

	transition := Transition{
		Outcome:       outcome,
		ResolvedLevel: resolved,
		RoundPnl:      roundPnl,
	}

	switch {
	case outcome == core.OutcomeTakeProfit:
		transition.Kind = KindTakeProfit
		transition.Notify = true
		next.TakeProfitHits++
		next.Level = 1
	case outcome == core.OutcomeStopLoss && resolved < core.MaxLevel:
		transition.Kind = KindEscalate
		next.Level = resolved + 1
	case outcome == core.OutcomeStopLoss:
		transition.Kind = KindReset
		transition.Notify = true
		next.StopLossHits++
		next.Level = 1
	default:
		return session, Transition{}, fmt.Errorf("cannot resolve a round with outcome %q", outcome)
	}

	next.CurrentAmountQuote = core.AmountForLevel(next.BaseAmountQuote, next.Level)

	record := core.NewStatisticsRecord(next, outcome, roundPnl, now)
	record.Level = resolved
	transition.Record = record

	return next, transition, nil
}
