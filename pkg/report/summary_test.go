package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/raykavin/smarttrades/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func records() []core.StatisticsRecord {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	at := func(minutes int) time.Time { return start.Add(time.Duration(minutes) * time.Minute) }

	return []core.StatisticsRecord{
		{Timestamp: at(2), Instrument: "USDT_BTC", Level: 2, RoundsExecuted: 4, TakeProfitHits: 1, Outcome: core.OutcomeTakeProfit, Pnl: 3},
		{Timestamp: at(1), Instrument: "USDT_BTC", Level: 1, RoundsExecuted: 2, Outcome: core.OutcomeStopLoss, Pnl: -1},
		{Timestamp: at(1), Instrument: "USDT_ETH", Level: 1, RoundsExecuted: 2, TakeProfitHits: 1, Outcome: core.OutcomeTakeProfit, Pnl: 2},
	}
}

func TestSummarize(t *testing.T) {
	summaries := Summarize(records())
	require.Len(t, summaries, 2)

	btc := summaries[0]
	assert.Equal(t, "USDT_BTC", btc.Instrument)
	assert.Equal(t, []float64{-1, 3}, btc.Pnl)
	assert.Equal(t, []int{1, 2}, btc.Levels)
	assert.Equal(t, 1, btc.TakeProfits)
	assert.Equal(t, 1, btc.StopLosses)
	assert.Equal(t, 1, btc.CycleTakeProfits)
	assert.Equal(t, 0, btc.CycleResets)
	assert.Equal(t, 2, btc.Rounds())
	assert.Equal(t, 2, btc.MaxLevel())
	assert.InDelta(t, 2, btc.Profit(), 1e-9)

	assert.Equal(t, "USDT_ETH", summaries[1].Instrument)
	assert.Equal(t, 0.0, summaries[1].SQN())

	assert.Empty(t, Summarize(nil))
}

func TestWrite(t *testing.T) {
	buffer := &bytes.Buffer{}
	options := DefaultOptions()
	options.Resamples = 100

	require.NoError(t, Write(buffer, Summarize(records()), options))

	output := buffer.String()
	assert.Contains(t, output, "USDT_BTC")
	assert.Contains(t, output, "USDT_ETH")
	assert.Contains(t, output, "TOTAL")
	assert.Contains(t, output, "L1: 2  L2: 1  L3: 0")
	assert.Contains(t, output, "CONFIDENCE INTERVAL (95%)")
	assert.Contains(t, output, "PNL/ROUND:")
}

func TestWrite_Empty(t *testing.T) {
	buffer := &bytes.Buffer{}
	require.NoError(t, Write(buffer, nil, DefaultOptions()))
	assert.Equal(t, "No rounds registered.\n", buffer.String())
}
