package threecommas

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/raykavin/smarttrades/pkg/core"
	"github.com/samber/lo"
)

// Accounts lists the exchange accounts connected to 3Commas
func (c *Client) Accounts(ctx context.Context) ([]core.Account, error) {
	var accounts []account

	if err := c.do(ctx, http.MethodGet, apiV1+"/accounts", nil, nil, &accounts); err != nil {
		return nil, fetchError("list accounts", err)
	}

	return lo.Map(accounts, func(a account, _ int) core.Account {
		return core.Account{ID: a.ID, Name: a.Name, MarketCode: a.MarketCode}
	}), nil
}

// AccountBalance refreshes the balances of an account and returns its USD value
func (c *Client) AccountBalance(ctx context.Context, accountID int64) (float64, error) {
	var refreshed account

	path := apiV1 + "/accounts/" + strconv.FormatInt(accountID, 10) + "/load_balances"
	if err := c.do(ctx, http.MethodPost, path, nil, nil, &refreshed); err != nil {
		return 0, fetchError(fmt.Sprintf("load balances of account %d", accountID), err)
	}

	return float64(refreshed.UsdAmount), nil
}

// LastQuote returns the last price of a pair on the configured market
func (c *Client) LastQuote(ctx context.Context, instrument string) (float64, error) {
	var rate currencyRate

	query := url.Values{}
	query.Set("market_code", c.marketCode)
	query.Set("pair", instrument)

	if err := c.do(ctx, http.MethodGet, apiV1+"/accounts/currency_rates", query, nil, &rate); err != nil {
		return 0, fetchError(fmt.Sprintf("fetch %s price", instrument), err)
	}

	if rate.Last <= 0 {
		return 0, fmt.Errorf("fetch %s price: %w: no last price", instrument, core.ErrTransientFetch)
	}

	c.log.Debugf("current price of %s is %f", instrument, float64(rate.Last))
	return float64(rate.Last), nil
}
