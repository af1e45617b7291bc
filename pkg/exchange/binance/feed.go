// Package binance resolves instrument prices from the Binance public ticker
package binance

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/adshao/go-binance/v2"
	"github.com/raykavin/smarttrades/pkg/core"
	"github.com/samber/lo"
)

var quoteAssets = []string{"USDT", "BUSD", "USDC", "FDUSD", "BTC", "ETH", "BNB"}

// FeedOption configures a PriceFeed
type FeedOption func(*PriceFeed)

// WithBaseURL points the feed at another API host
func WithBaseURL(baseURL string) FeedOption {
	return func(f *PriceFeed) {
		f.client.BaseURL = baseURL
	}
}

// PriceFeed implements core.PriceFeed with the spot ticker price endpoint
type PriceFeed struct {
	client *binance.Client
}

// NewPriceFeed creates an unauthenticated Binance price feed
func NewPriceFeed(options ...FeedOption) *PriceFeed {
	feed := &PriceFeed{client: binance.NewClient("", "")}
	for _, option := range options {
		option(feed)
	}
	return feed
}

// Symbol converts a 3Commas pair (QUOTE_BASE, e.g. USDT_BTC) to a Binance symbol (BTCUSDT).
// Pairs written BASE_QUOTE and plain symbols are accepted too. When both sides
// are quote assets the one listed first in quoteAssets is the quote.
func Symbol(instrument string) string {
	first, second, found := strings.Cut(strings.ToUpper(instrument), "_")
	if !found {
		return first
	}

	firstRank := lo.IndexOf(quoteAssets, first)
	secondRank := lo.IndexOf(quoteAssets, second)

	if secondRank >= 0 && (firstRank < 0 || secondRank < firstRank) {
		return first + second
	}

	return second + first
}

// LastQuote returns the last traded price of an instrument
func (f *PriceFeed) LastQuote(ctx context.Context, instrument string) (float64, error) {
	symbol := Symbol(instrument)

	prices, err := f.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: binance price of %s: %w", core.ErrTransientFetch, symbol, err)
	}

	ticker, found := lo.Find(prices, func(p *binance.SymbolPrice) bool {
		return p != nil && p.Symbol == symbol
	})
	if !found {
		return 0, fmt.Errorf("%w: binance has no price for %s", core.ErrTransientFetch, symbol)
	}

	price, err := strconv.ParseFloat(ticker.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid binance price %q: %w", core.ErrTransientFetch, ticker.Price, err)
	}

	return price, nil
}
