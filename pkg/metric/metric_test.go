package metric

import (
	"context"
	"io"
	"math/rand"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/raykavin/smarttrades/pkg/core"
	"github.com/raykavin/smarttrades/pkg/logger"
	zlog "github.com/raykavin/smarttrades/pkg/logger/zerolog"
	"github.com/raykavin/smarttrades/pkg/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func nopLogger() logger.Logger {
	log := zerolog.Nop()
	return zlog.NewAdapter(&log)
}

func TestMetrics_Observer(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics("", registry)

	session := core.Session{Instrument: "USDT_BTC", Level: 3, CurrentAmountQuote: 400, RealizedPnl: -7}

	metrics.OnRoundOpened(session)
	metrics.OnRoundOpened(session)
	metrics.OnTransition(session, strategy.Transition{Kind: strategy.KindEscalate, RoundPnl: -4})
	metrics.OnLegFailure("USDT_BTC")
	metrics.OnFetchError("USDT_BTC")
	metrics.OnFetchError("USDT_BTC")

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RoundsOpened.WithLabelValues("USDT_BTC")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RoundsResolved.WithLabelValues("USDT_BTC", "escalate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.LegFailures.WithLabelValues("USDT_BTC")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.FetchErrors.WithLabelValues("USDT_BTC")))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.Level.WithLabelValues("USDT_BTC")))
	assert.Equal(t, 400.0, testutil.ToFloat64(metrics.Amount.WithLabelValues("USDT_BTC")))
	assert.Equal(t, -7.0, testutil.ToFloat64(metrics.RealizedPnl.WithLabelValues("USDT_BTC")))
	assert.Equal(t, -4.0, testutil.ToFloat64(metrics.RoundPnl.WithLabelValues("USDT_BTC")))
}

func TestHandler(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics("bot", registry)
	metrics.OnFetchError("USDT_ETH")

	server := httptest.NewServer(Handler(registry))
	defer server.Close()

	response, err := server.Client().Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `bot_venue_fetch_errors_total{instrument="USDT_ETH"} 1`)

	health, err := server.Client().Get(server.URL + "/healthz")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, 200, health.StatusCode)
}

func TestServe_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Serve(ctx, "127.0.0.1:0", prometheus.NewRegistry(), nopLogger())
	require.NoError(t, err)
}

func TestPerformance(t *testing.T) {
	values := []float64{2, -1, 3, -2, 4}

	assert.InDelta(t, 1.2, Mean(values), 1e-9)
	assert.InDelta(t, 0.6, WinRate(values), 1e-9)
	assert.InDelta(t, 2, Payoff(values), 1e-9)
	assert.InDelta(t, 3, ProfitFactor(values), 1e-9)
	assert.InDelta(t, 2, MaxDrawdown(values), 1e-9)

	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, WinRate(nil))
	assert.Equal(t, float64(noLossRatio), Payoff([]float64{1, 2}))
	assert.Equal(t, float64(noLossRatio), ProfitFactor([]float64{1}))
}

func TestBootstrap(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	interval := Bootstrap(values, Mean, 500, 0.95, rand.New(rand.NewSource(1)))

	assert.Less(t, interval.Lower, interval.Mean)
	assert.Greater(t, interval.Upper, interval.Mean)
	assert.InDelta(t, 3, interval.Mean, 0.2)
	assert.Positive(t, interval.StdDev)

	assert.Equal(t, Interval{}, Bootstrap(nil, Mean, 100, 0.95, rand.New(rand.NewSource(1))))
}
