package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/raykavin/smarttrades/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymbol(t *testing.T) {
	tt := map[string]string{
		"USDT_BTC": "BTCUSDT",
		"usdt_ada": "ADAUSDT",
		"BTC_USDT": "BTCUSDT",
		"BTC_ETH":  "ETHBTC",
		"ETHUSDT":  "ETHUSDT",
	}

	for instrument, expected := range tt {
		assert.Equal(t, expected, Symbol(instrument), instrument)
	}
}

func TestPriceFeed_LastQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/ticker/price", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		_, _ = w.Write([]byte(`[{"symbol": "BTCUSDT", "price": "42000.50"}]`))
	}))
	defer server.Close()

	feed := NewPriceFeed(WithBaseURL(server.URL))

	price, err := feed.LastQuote(context.Background(), "USDT_BTC")
	require.NoError(t, err)
	assert.Equal(t, 42000.5, price)
}

func TestPriceFeed_LastQuoteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code": -1121, "msg": "Invalid symbol."}`))
	}))
	defer server.Close()

	feed := NewPriceFeed(WithBaseURL(server.URL))

	_, err := feed.LastQuote(context.Background(), "USDT_NOPE")
	require.ErrorIs(t, err, core.ErrTransientFetch)
}
