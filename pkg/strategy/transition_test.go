package strategy

import (
	"testing"
	"time"

	"github.com/raykavin/smarttrades/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func openSession(level int) core.Session {
	session := core.NewSession("id", "BTC_USDT", 100, fixedNow)
	session.Level = level
	session.CurrentAmountQuote = core.AmountForLevel(100, level)
	session.LongOrderRef = "L"
	session.ShortOrderRef = "S"
	return session
}

func TestResolve_TakeProfit(t *testing.T) {
	session := openSession(4)
	session.RoundsExecuted = 6

	next, transition, err := Resolve(session, core.OutcomeTakeProfit, 12.5, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, KindTakeProfit, transition.Kind)
	assert.True(t, transition.Notify)
	assert.Equal(t, 1, next.Level)
	assert.Equal(t, 100.0, next.CurrentAmountQuote)
	assert.Equal(t, 1, next.TakeProfitHits)
	assert.Equal(t, 0, next.StopLossHits)
	assert.Equal(t, 8, next.RoundsExecuted)
	assert.Equal(t, 12.5, next.PnlByLevel[4])
	assert.Equal(t, 12.5, next.RealizedPnl)
	assert.False(t, next.HasOpenRound())

	assert.Equal(t, 4, transition.Record.Level)
	assert.Equal(t, 8, transition.Record.RoundsExecuted)
	assert.Equal(t, 1, transition.Record.TakeProfitHits)
	assert.Equal(t, core.OutcomeTakeProfit, transition.Record.Outcome)
	assert.Equal(t, 12.5, transition.Record.Pnl)

	// input is untouched
	assert.Equal(t, "L", session.LongOrderRef)
	assert.Equal(t, 4, session.Level)
}

func TestResolve_Escalate(t *testing.T) {
	next, transition, err := Resolve(openSession(2), core.OutcomeStopLoss, -3, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, KindEscalate, transition.Kind)
	assert.False(t, transition.Notify)
	assert.Equal(t, 3, next.Level)
	assert.Equal(t, 400.0, next.CurrentAmountQuote)
	assert.Equal(t, 0, next.StopLossHits)
	assert.Equal(t, -3.0, next.PnlByLevel[2])
	assert.Equal(t, 2, transition.Record.Level)
}

func TestResolve_Reset(t *testing.T) {
	next, transition, err := Resolve(openSession(core.MaxLevel), core.OutcomeStopLoss, -40, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, KindReset, transition.Kind)
	assert.True(t, transition.Notify)
	assert.Equal(t, 1, next.Level)
	assert.Equal(t, 100.0, next.CurrentAmountQuote)
	assert.Equal(t, 1, next.StopLossHits)
	assert.Equal(t, -40.0, next.PnlByLevel[core.MaxLevel])
	assert.Equal(t, core.MaxLevel, transition.Record.Level)
}

func TestResolve_OpenOutcome(t *testing.T) {
	_, _, err := Resolve(openSession(1), core.OutcomeOpen, 0, fixedNow)
	require.Error(t, err)
}

func TestResolve_InvalidSession(t *testing.T) {
	session := openSession(2)
	session.CurrentAmountQuote = 150

	_, _, err := Resolve(session, core.OutcomeStopLoss, 0, fixedNow)
	require.ErrorIs(t, err, core.ErrInvalidSession)
}

func TestResolve_FullEscalationCycle(t *testing.T) {
	session := openSession(1)
	amounts := []float64{}

	for i := 0; i < core.MaxLevel; i++ {
		amounts = append(amounts, session.CurrentAmountQuote)

		next, _, err := Resolve(session, core.OutcomeStopLoss, -1, fixedNow)
		require.NoError(t, err)

		next.LongOrderRef, next.ShortOrderRef = "L", "S"
		session = next
	}

	assert.Equal(t, []float64{100, 200, 400, 800, 1600, 3200, 6400}, amounts)
	assert.Equal(t, 1, session.Level)
	assert.Equal(t, 100.0, session.CurrentAmountQuote)
	assert.Equal(t, 1, session.StopLossHits)
	assert.Equal(t, 2*core.MaxLevel, session.RoundsExecuted)
	assert.Equal(t, -7.0, session.TotalPnl())
}
