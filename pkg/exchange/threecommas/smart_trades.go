package threecommas

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/raykavin/smarttrades/pkg/core"
	"github.com/samber/lo"
)

func newSmartTradeRequest(request core.SmartTradeRequest) smartTradeRequest {
	return smartTradeRequest{
		AccountID: request.AccountID,
		Pair:      request.Instrument,
		Note:      request.Note,
		Leverage: leverage{
			Enabled: request.Leverage > 0,
			Type:    "isolated",
			Value:   request.Leverage,
		},
		Position: position{
			Type:      request.Side.PositionType(),
			Units:     units{Value: request.Quantity},
			OrderType: request.OrderType,
		},
		TakeProfit: takeProfit{
			Enabled: len(request.TakeProfits) > 0,
			Steps: lo.Map(request.TakeProfits, func(step core.TakeProfitStep, _ int) takeProfitStep {
				return takeProfitStep{
					OrderType: request.OrderType,
					Price:     price{Type: "bid", Value: step.Price},
					Volume:    step.VolumePercent,
				}
			}),
		},
		StopLoss: stopLoss{
			Enabled:   true,
			OrderType: request.OrderType,
			Conditional: conditional{
				Price: price{Type: "bid", Value: request.StopLossPrice},
				Trailing: trailing{
					Enabled: request.TrailingPercent != 0,
					Percent: request.TrailingPercent,
				},
			},
		},
	}
}

func (t smartTrade) toCore() core.SmartTrade {
	return core.SmartTrade{
		Ref:         string(t.ID),
		Instrument:  t.Pair,
		StatusType:  t.Status.Type,
		StatusTitle: t.Status.Title,
		ProfitUSD:   float64(t.Profit.Usd),
	}
}

// PlaceSmartTrade opens a SmartTrade. Client side rejections wrap core.ErrOrderRejected,
// server side failures wrap core.ErrTransientFetch.
func (c *Client) PlaceSmartTrade(ctx context.Context, request core.SmartTradeRequest) (core.SmartTrade, error) {
	var created smartTrade

	err := c.do(ctx, http.MethodPost, apiV2+"/smart_trades", nil, newSmartTradeRequest(request), &created)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Temporary() {
			err = fmt.Errorf("%w: %w", core.ErrOrderRejected, err)
		} else if !errors.Is(err, core.ErrTransientFetch) {
			err = fmt.Errorf("%w: %w", core.ErrTransientFetch, err)
		}

		return core.SmartTrade{}, &core.OrderError{
			Err:        err,
			Instrument: request.Instrument,
			Side:       request.Side,
			Quantity:   request.Quantity,
		}
	}

	if created.ID == "" {
		return core.SmartTrade{}, &core.OrderError{
			Err:        fmt.Errorf("%w: answer without id", core.ErrOrderRejected),
			Instrument: request.Instrument,
			Side:       request.Side,
			Quantity:   request.Quantity,
		}
	}

	c.log.WithFields(map[string]any{
		"ref":      created.ID,
		"pair":     request.Instrument,
		"side":     request.Side,
		"quantity": request.Quantity,
	}).Info("SmartTrade has been placed")

	return created.toCore(), nil
}

// SmartTrade returns the current status of a SmartTrade
func (c *Client) SmartTrade(ctx context.Context, ref string) (core.SmartTrade, error) {
	var trade smartTrade

	path := apiV2 + "/smart_trades/" + url.PathEscape(ref)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &trade); err != nil {
		return core.SmartTrade{}, fetchError(fmt.Sprintf("fetch SmartTrade %s", ref), err)
	}

	return trade.toCore(), nil
}

// CancelSmartTrade cancels a SmartTrade that has not closed yet
func (c *Client) CancelSmartTrade(ctx context.Context, ref string) error {
	path := apiV2 + "/smart_trades/" + url.PathEscape(ref)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return fmt.Errorf("cancel SmartTrade %s: %w", ref, err)
	}

	c.log.WithField("ref", ref).Info("SmartTrade cancelled")
	return nil
}
