package strategy

import (
	"testing"

	"github.com/raykavin/smarttrades/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSettings() core.Settings {
	return core.Settings{
		AccountIDLong:    11,
		AccountIDShort:   22,
		OrderType:        "market",
		MarketCode:       "binance",
		AmountUSDT:       100,
		TakeProfit1:      1,
		TakeProfit2:      2,
		TrailingStopLoss: 1,
		Leverage:         10,
		Statuses: core.StatusVocabulary{
			TakeProfit:   []string{"finished", "take_profit_finished"},
			StopLoss:     []string{"stop_loss_finished"},
			FailedMarker: "failed",
		},
	}
}

func TestQuantity(t *testing.T) {
	assert.Equal(t, 0.1, Quantity(100, 1000))
	assert.Equal(t, 0.333, Quantity(100, 300))
	assert.Equal(t, 0.0, Quantity(100, 0))
	assert.Equal(t, 0.0, Quantity(1, 100000))
}

func TestBracketFor(t *testing.T) {
	settings := testSettings()

	long := BracketFor(core.SideLong, 100, settings)
	assert.InDelta(t, 101, long.TakeProfit1, 1e-9)
	assert.InDelta(t, 102, long.TakeProfit2, 1e-9)
	assert.InDelta(t, 99, long.StopLoss, 1e-9)

	short := BracketFor(core.SideShort, 100, settings)
	assert.InDelta(t, 99, short.TakeProfit1, 1e-9)
	assert.InDelta(t, 98, short.TakeProfit2, 1e-9)
	assert.InDelta(t, 101, short.StopLoss, 1e-9)
}

func TestBracketFor_Precision(t *testing.T) {
	bracket := BracketFor(core.SideLong, 0.123456789, testSettings())
	assert.Equal(t, 0.12469, bracket.TakeProfit1)
	assert.Equal(t, 0.12222, bracket.StopLoss)
}

func TestBuildRequest(t *testing.T) {
	settings := testSettings()
	session := core.NewSession("id", "BTC_USDT", 100, fixedNow)
	session.Level = 3
	session.CurrentAmountQuote = core.AmountForLevel(100, 3)

	t.Run("long", func(t *testing.T) {
		request, err := BuildRequest(settings, session, core.SideLong, 1000)
		require.NoError(t, err)

		assert.Equal(t, int64(11), request.AccountID)
		assert.Equal(t, "BTC_USDT", request.Instrument)
		assert.Equal(t, core.SideLong, request.Side)
		assert.Equal(t, "market", request.OrderType)
		assert.Equal(t, 0.4, request.Quantity)
		assert.Equal(t, 10.0, request.Leverage)
		assert.Equal(t, "Level: 3", request.Note)
		require.Len(t, request.TakeProfits, 2)
		assert.Equal(t, core.TakeProfitStep{Price: 1010, VolumePercent: 50}, request.TakeProfits[0])
		assert.Equal(t, core.TakeProfitStep{Price: 1020, VolumePercent: 50}, request.TakeProfits[1])
		assert.Equal(t, 990.0, request.StopLossPrice)
		assert.Equal(t, -1.0, request.TrailingPercent)
	})

	t.Run("short", func(t *testing.T) {
		request, err := BuildRequest(settings, session, core.SideShort, 1000)
		require.NoError(t, err)

		assert.Equal(t, int64(22), request.AccountID)
		assert.Equal(t, core.SideShort, request.Side)
		assert.Equal(t, 0.4, request.Quantity)
		assert.Equal(t, 990.0, request.TakeProfits[0].Price)
		assert.Equal(t, 980.0, request.TakeProfits[1].Price)
		assert.Equal(t, 1010.0, request.StopLossPrice)
	})

	t.Run("quantity rounds to zero", func(t *testing.T) {
		_, err := BuildRequest(settings, session, core.SideLong, 10_000_000)
		require.ErrorIs(t, err, core.ErrOrderRejected)

		var orderErr *core.OrderError
		require.ErrorAs(t, err, &orderErr)
		assert.Equal(t, core.SideLong, orderErr.Side)
	})
}
