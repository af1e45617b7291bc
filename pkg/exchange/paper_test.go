package exchange

import (
	"context"
	"testing"

	"github.com/raykavin/smarttrades/pkg/core"
	"github.com/raykavin/smarttrades/pkg/logger"
	zlog "github.com/raykavin/smarttrades/pkg/logger/zerolog"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticFeed struct {
	price float64
	err   error
}

func (f *staticFeed) LastQuote(context.Context, string) (float64, error) {
	return f.price, f.err
}

func nopLogger() logger.Logger {
	log := zerolog.Nop()
	return zlog.NewAdapter(&log)
}

func request(side core.Side) core.SmartTradeRequest {
	tp1, tp2, sl := 101.0, 102.0, 99.0
	if side == core.SideShort {
		tp1, tp2, sl = 99, 98, 101
	}

	return core.SmartTradeRequest{
		AccountID:  1,
		Instrument: "USDT_BTC",
		Side:       side,
		Quantity:   1,
		EntryPrice: 100,
		TakeProfits: []core.TakeProfitStep{
			{Price: tp1, VolumePercent: 50},
			{Price: tp2, VolumePercent: 50},
		},
		StopLossPrice:   sl,
		TrailingPercent: -1,
	}
}

func TestPaperVenue_LongTakeProfit(t *testing.T) {
	feed := &staticFeed{price: 100}
	venue := NewPaperVenue(feed, nopLogger(), WithPaperBalance(1, 1000))
	ctx := context.Background()

	placed, err := venue.PlaceSmartTrade(ctx, request(core.SideLong))
	require.NoError(t, err)
	assert.Equal(t, PaperStatusOpen, placed.StatusType)

	feed.price = 100.5
	trade, err := venue.SmartTrade(ctx, placed.Ref)
	require.NoError(t, err)
	assert.Equal(t, PaperStatusOpen, trade.StatusType)
	assert.InDelta(t, 0.5, trade.ProfitUSD, 1e-9)

	feed.price = 101.2
	trade, err = venue.SmartTrade(ctx, placed.Ref)
	require.NoError(t, err)
	assert.Equal(t, PaperStatusOpen, trade.StatusType)
	assert.InDelta(t, 1.1, trade.ProfitUSD, 1e-9)

	feed.price = 102
	trade, err = venue.SmartTrade(ctx, placed.Ref)
	require.NoError(t, err)
	assert.Equal(t, PaperStatusTakeProfit, trade.StatusType)
	assert.InDelta(t, 1.5, trade.ProfitUSD, 1e-9)

	// closed trades are no longer marked
	feed.price = 50
	trade, err = venue.SmartTrade(ctx, placed.Ref)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, trade.ProfitUSD, 1e-9)

	balance, err := venue.AccountBalance(ctx, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1001.5, balance, 1e-9)
}

func TestPaperVenue_ShortStopLoss(t *testing.T) {
	feed := &staticFeed{price: 100}
	venue := NewPaperVenue(feed, nopLogger())
	ctx := context.Background()

	placed, err := venue.PlaceSmartTrade(ctx, request(core.SideShort))
	require.NoError(t, err)

	feed.price = 101.5
	trade, err := venue.SmartTrade(ctx, placed.Ref)
	require.NoError(t, err)
	assert.Equal(t, PaperStatusStopLoss, trade.StatusType)
	assert.InDelta(t, -1, trade.ProfitUSD, 1e-9)
}

func TestPaperVenue_TrailingStopAfterPartialTakeProfit(t *testing.T) {
	feed := &staticFeed{price: 100}
	venue := NewPaperVenue(feed, nopLogger())
	ctx := context.Background()

	placed, err := venue.PlaceSmartTrade(ctx, request(core.SideLong))
	require.NoError(t, err)

	feed.price = 101.5
	_, err = venue.SmartTrade(ctx, placed.Ref)
	require.NoError(t, err)

	feed.price = 100
	trade, err := venue.SmartTrade(ctx, placed.Ref)
	require.NoError(t, err)
	assert.Equal(t, PaperStatusTakeProfit, trade.StatusType)
	// half at 101 plus half at the trailed stop 101.5 * 0.99
	assert.InDelta(t, 0.5+0.5*(101.5*0.99-100), trade.ProfitUSD, 1e-9)
}

func TestPaperVenue_Cancel(t *testing.T) {
	venue := NewPaperVenue(&staticFeed{price: 100}, nopLogger())
	ctx := context.Background()

	placed, err := venue.PlaceSmartTrade(ctx, request(core.SideLong))
	require.NoError(t, err)
	require.NoError(t, venue.CancelSmartTrade(ctx, placed.Ref))

	trade, err := venue.SmartTrade(ctx, placed.Ref)
	require.NoError(t, err)
	assert.Equal(t, PaperStatusCancelled, trade.StatusType)

	require.Error(t, venue.CancelSmartTrade(ctx, "unknown"))
}

func TestPaperVenue_Errors(t *testing.T) {
	feed := &staticFeed{price: 100}
	venue := NewPaperVenue(feed, nopLogger())
	ctx := context.Background()

	invalid := request(core.SideLong)
	invalid.Quantity = 0
	_, err := venue.PlaceSmartTrade(ctx, invalid)
	require.ErrorIs(t, err, core.ErrOrderRejected)

	_, err = venue.SmartTrade(ctx, "missing")
	require.ErrorIs(t, err, core.ErrTransientFetch)

	placed, err := venue.PlaceSmartTrade(ctx, request(core.SideLong))
	require.NoError(t, err)

	feed.err = core.ErrTransientFetch
	_, err = venue.SmartTrade(ctx, placed.Ref)
	require.ErrorIs(t, err, core.ErrTransientFetch)
}

func TestPaperVenue_Accounts(t *testing.T) {
	venue := NewPaperVenue(&staticFeed{}, nopLogger(), WithPaperBalance(22, 10), WithPaperBalance(11, 20))

	accounts, err := venue.Accounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, int64(11), accounts[0].ID)
	assert.Equal(t, int64(22), accounts[1].ID)
}
