package strategy

import (
	"fmt"
	"math"

	"github.com/raykavin/smarttrades/pkg/core"
)

const (
	quantityPrecision = 3
	pricePrecision    = 5
	takeProfitVolume  = 50.0
)

// Bracket holds the trigger prices of one leg
type Bracket struct {
	TakeProfit1 float64
	TakeProfit2 float64
	StopLoss    float64
}

func round(value float64, precision int) float64 {
	scale := math.Pow(10, float64(precision))
	return math.Round(value*scale) / scale
}

// Quantity converts a quote amount into base units at the given price
func Quantity(amountQuote, price float64) float64 {
	if price <= 0 {
		return 0
	}
	return round(amountQuote/price, quantityPrecision)
}

// BracketFor mirrors take-profit and stop-loss around the entry price:
// the long leg profits above the entry, the short leg below it
func BracketFor(side core.Side, price float64, settings core.Settings) Bracket {
	direction := 1.0
	if side == core.SideShort {
		direction = -1.0
	}

	return Bracket{
		TakeProfit1: round(price+direction*settings.TakeProfit1/100*price, pricePrecision),
		TakeProfit2: round(price+direction*settings.TakeProfit2/100*price, pricePrecision),
		StopLoss:    round(price-direction*settings.TrailingStopLoss/100*price, pricePrecision),
	}
}

// BuildRequest prepares the SmartTrade of one leg for the next round of the session
func BuildRequest(settings core.Settings, session core.Session, side core.Side, price float64) (core.SmartTradeRequest, error) {
	quantity := Quantity(session.CurrentAmountQuote, price)
	if quantity <= 0 {
		return core.SmartTradeRequest{}, &core.OrderError{
			Err:        fmt.Errorf("%w: amount %.2f at price %f rounds to zero", core.ErrOrderRejected, session.CurrentAmountQuote, price),
			Instrument: session.Instrument,
			Side:       side,
			Quantity:   quantity,
		}
	}

	bracket := BracketFor(side, price, settings)

	return core.SmartTradeRequest{
		AccountID:  settings.AccountFor(side),
		Instrument: session.Instrument,
		Side:       side,
		OrderType:  settings.OrderType,
		Quantity:   quantity,
		EntryPrice: price,
		Leverage:   settings.Leverage,
		Note:       fmt.Sprintf("Level: %d", session.Level),
		TakeProfits: []core.TakeProfitStep{
			{Price: bracket.TakeProfit1, VolumePercent: takeProfitVolume},
			{Price: bracket.TakeProfit2, VolumePercent: takeProfitVolume},
		},
		StopLossPrice:   bracket.StopLoss,
		TrailingPercent: -settings.TrailingStopLoss,
	}, nil
}
