package loadgen

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Stage names used as metric labels
const (
	StageIntake     = "intake"
	StageCompliance = "compliance"
	StageFinance    = "finance"
	StageAccept     = "accept"
	StagePayment    = "payment"
	StageProof      = "proof"
	StageVerify     = "verify"
)

// Metrics is the Prometheus view of a run. It owns its registry so the
// process default metrics are not mixed into the load figures.
type Metrics struct {
	registry      *prometheus.Registry
	tradesTotal   *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	inflight      prometheus.Gauge
	targetRate    prometheus.Gauge
}

// NewMetrics registers the loadgen collectors on a fresh registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		tradesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loadgen",
			Name:      "trades_total",
			Help:      "Trades driven through the workflow, by outcome.",
		}, []string{"outcome"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "loadgen",
			Name:      "stage_duration_seconds",
			Help:      "Latency of each workflow call as seen by the client.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"stage", "result"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "loadgen",
			Name:      "inflight_trades",
			Help:      "Trades currently being driven.",
		}),
		targetRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "loadgen",
			Name:      "target_trades_per_second",
			Help:      "Configured trade start rate.",
		}),
	}
	m.registry.MustRegister(m.tradesTotal, m.stageDuration, m.inflight, m.targetRate)
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) observeStage(stage string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.stageDuration.WithLabelValues(stage, result).Observe(d.Seconds())
}

func (m *Metrics) recordOutcome(o Outcome) {
	m.tradesTotal.WithLabelValues(string(o)).Inc()
}
