package metrics

import (
	"TickPulse/internal/domain/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// sessionStates lists every state label so the gauge can be reset to one-hot.
var sessionStates = []string{"connecting", "authenticating", "seeding_history", "live", "reconnecting", "closed", "failed"}

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	ticksTotal   *prometheus.CounterVec
	signalsTotal *prometheus.CounterVec
	ordersTotal  *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	lastPrice    *prometheus.GaugeVec
	indicator    *prometheus.GaugeVec
	sessionState *prometheus.GaugeVec
	latency      *prometheus.HistogramVec
}

// New registers the recorder's collectors on reg. Pass prometheus.DefaultRegisterer
// to expose them on the default /metrics handler.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		ticksTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tickpulse_ticks_total",
				Help: "Total number of ticks received per symbol",
			},
			[]string{"symbol"},
		),
		signalsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tickpulse_signals_total",
				Help: "Actionable signals produced per symbol and direction",
			},
			[]string{"symbol", "signal"},
		),
		ordersTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tickpulse_orders_total",
				Help: "Order submissions per symbol and outcome",
			},
			[]string{"symbol", "status"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tickpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tickpulse_last_price",
				Help: "Last recorded quote for a symbol",
			},
			[]string{"symbol"},
		),
		indicator: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tickpulse_indicator_value",
				Help: "Latest indicator value per symbol (ema_short, ema_long, zscore)",
			},
			[]string{"symbol", "indicator"},
		),
		sessionState: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tickpulse_session_state",
				Help: "1 for the current state of each stream session",
			},
			[]string{"symbol", "state"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tickpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordTick(symbol string, price float64) {
	r.ticksTotal.WithLabelValues(symbol).Inc()
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordIndicators only exports EMAs that are defined for the current window.
func (r *Recorder) RecordIndicators(symbol string, ind models.Indicators) {
	if ind.HasShort {
		r.indicator.WithLabelValues(symbol, "ema_short").Set(ind.ShortEMA)
	}
	if ind.HasLong {
		r.indicator.WithLabelValues(symbol, "ema_long").Set(ind.LongEMA)
	}
	r.indicator.WithLabelValues(symbol, "zscore").Set(ind.Z)
}

func (r *Recorder) RecordSignal(symbol string, sig models.Signal) {
	r.signalsTotal.WithLabelValues(symbol, sig.String()).Inc()
}

func (r *Recorder) RecordOrder(symbol string, status models.OrderStatus) {
	r.ordersTotal.WithLabelValues(symbol, string(status)).Inc()
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

func (r *Recorder) RecordSessionState(symbol, state string) {
	for _, s := range sessionStates {
		v := 0.0
		if s == state {
			v = 1
		}
		r.sessionState.WithLabelValues(symbol, s).Set(v)
	}
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordTick(string, float64)                 {}
func (Nop) RecordIndicators(string, models.Indicators) {}
func (Nop) RecordSignal(string, models.Signal)         {}
func (Nop) RecordOrder(string, models.OrderStatus)     {}
func (Nop) RecordError(string)                         {}
func (Nop) RecordLatency(string, float64)              {}
func (Nop) RecordSessionState(string, string)          {}
