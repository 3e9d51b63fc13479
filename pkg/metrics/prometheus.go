package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "foliopull"

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	upstreamCalls  *prometheus.CounterVec
	skippedItems   *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	latency        *prometheus.HistogramVec
	portfolioValue *prometheus.GaugeVec
}

// New registers the collectors on the default registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the collectors on reg. Tests pass a fresh
// prometheus.NewRegistry() to avoid duplicate registration.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		upstreamCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_requests_total",
				Help:      "Exchange API calls by operation and result",
			},
			[]string{"operation", "result"},
		),
		skippedItems: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "skipped_items_total",
				Help:      "Items omitted from partially failed batches",
			},
			[]string{"stage"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of operations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		portfolioValue: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "portfolio_value",
				Help:      "Last computed portfolio total by display currency",
			},
			[]string{"currency"},
		),
	}
}

// RecordUpstream counts one exchange call.
func (r *Recorder) RecordUpstream(op, result string) {
	r.upstreamCalls.WithLabelValues(op, result).Inc()
}

// RecordSkip adds n skipped items for a pipeline stage.
func (r *Recorder) RecordSkip(stage string, n int) {
	if n <= 0 {
		return
	}
	r.skippedItems.WithLabelValues(stage).Add(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordPortfolioValue sets the last valuation total.
func (r *Recorder) RecordPortfolioValue(currency string, value float64) {
	r.portfolioValue.WithLabelValues(currency).Set(value)
}
