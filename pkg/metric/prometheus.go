package metric

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/raykavin/smarttrades/pkg/core"
	"github.com/raykavin/smarttrades/pkg/logger"
	"github.com/raykavin/smarttrades/pkg/strategy"
)

// DefaultNamespace prefixes every exported series
const DefaultNamespace = "smarttrades"

// Metrics exports the state machine events as Prometheus series. It
// implements strategy.Observer.
type Metrics struct {
	RoundsOpened   *prometheus.CounterVec
	RoundsResolved *prometheus.CounterVec
	LegFailures    *prometheus.CounterVec
	FetchErrors    *prometheus.CounterVec

	Level       *prometheus.GaugeVec
	Amount      *prometheus.GaugeVec
	RealizedPnl *prometheus.GaugeVec
	RoundPnl    *prometheus.GaugeVec
}

var _ strategy.Observer = (*Metrics)(nil)

// NewMetrics registers the series on registerer
func NewMetrics(namespace string, registerer prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	factory := promauto.With(registerer)

	return &Metrics{
		RoundsOpened: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rounds",
			Name:      "opened_total",
			Help:      "Rounds opened with both legs placed",
		}, []string{"instrument"}),
		RoundsResolved: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rounds",
			Name:      "resolved_total",
			Help:      "Resolved rounds by transition kind",
		}, []string{"instrument", "kind"}),
		LegFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "venue",
			Name:      "leg_failures_total",
			Help:      "Leg placements that failed or were rejected",
		}, []string{"instrument"}),
		FetchErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "venue",
			Name:      "fetch_errors_total",
			Help:      "Status polls skipped after a transient fetch error",
		}, []string{"instrument"}),
		Level: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "level",
			Help:      "Current martingale level",
		}, []string{"instrument"}),
		Amount: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "amount_usd",
			Help:      "Notional per leg of the current round",
		}, []string{"instrument"}),
		RealizedPnl: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "realized_pnl_usd",
			Help:      "Profit realized since the session started",
		}, []string{"instrument"}),
		RoundPnl: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "rounds",
			Name:      "last_pnl_usd",
			Help:      "Profit of the last resolved round",
		}, []string{"instrument"}),
	}
}

func (m *Metrics) OnRoundOpened(session core.Session) {
	m.RoundsOpened.WithLabelValues(session.Instrument).Inc()
	m.Level.WithLabelValues(session.Instrument).Set(float64(session.Level))
	m.Amount.WithLabelValues(session.Instrument).Set(session.CurrentAmountQuote)
}

func (m *Metrics) OnTransition(session core.Session, transition strategy.Transition) {
	m.RoundsResolved.WithLabelValues(session.Instrument, string(transition.Kind)).Inc()
	m.RoundPnl.WithLabelValues(session.Instrument).Set(transition.RoundPnl)
	m.RealizedPnl.WithLabelValues(session.Instrument).Set(session.RealizedPnl)
	m.Level.WithLabelValues(session.Instrument).Set(float64(session.Level))
}

func (m *Metrics) OnLegFailure(instrument string) {
	m.LegFailures.WithLabelValues(instrument).Inc()
}

func (m *Metrics) OnFetchError(instrument string) {
	m.FetchErrors.WithLabelValues(instrument).Inc()
}

// Handler exposes gatherer in the Prometheus text format
func Handler(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Serve listens on address until ctx is done
func Serve(ctx context.Context, address string, gatherer prometheus.Gatherer, log logger.Logger) error {
	server := &http.Server{
		Addr:              address,
		Handler:           Handler(gatherer),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdown)
	}()

	log.WithField("address", address).Info("serving metrics")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
