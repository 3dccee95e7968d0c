package cache

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mattcknight/cursor-rules-mcp/logging"
)

// Metrics holds the Prometheus collectors for a Mirror. A nil *Metrics
// records nothing.
type Metrics struct {
	fetches       *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	freshHits     prometheus.Counter
	sharedWaits   prometheus.Counter
	lastFetch     prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
// Use prometheus.DefaultRegisterer for the process-wide registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		fetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cursor_rules",
			Subsystem: "mirror",
			Name:      "fetches_total",
			Help:      "Total clone and pull operations by kind and result.",
		}, []string{"kind", "result"}),

		fetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cursor_rules",
			Subsystem: "mirror",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of clone and pull operations.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"kind"}),

		freshHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "cursor_rules",
			Subsystem: "mirror",
			Name:      "fresh_hits_total",
			Help:      "Freshness checks answered without fetching.",
		}),

		sharedWaits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "cursor_rules",
			Subsystem: "mirror",
			Name:      "shared_waits_total",
			Help:      "Callers that waited on a fetch already in flight.",
		}),

		lastFetch: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "cursor_rules",
			Subsystem: "mirror",
			Name:      "last_fetch_timestamp_seconds",
			Help:      "Unix time of the last successful fetch.",
		}),
	}
}

func (m *Metrics) observeFetch(kind logging.FetchKind, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.fetches.WithLabelValues(string(kind), result).Inc()
	m.fetchDuration.WithLabelValues(string(kind)).Observe(d.Seconds())
}

func (m *Metrics) observeLastFetch(t time.Time) {
	if m == nil {
		return
	}
	m.lastFetch.Set(float64(t.Unix()))
}

func (m *Metrics) observeFreshHit() {
	if m == nil {
		return
	}
	m.freshHits.Inc()
}

func (m *Metrics) observeSharedWait() {
	if m == nil {
		return
	}
	m.sharedWaits.Inc()
}
