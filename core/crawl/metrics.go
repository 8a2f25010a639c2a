// ABOUTME: Prometheus metrics for crawl runs
// ABOUTME: Counts article outcomes and discovered urls per source

package crawl

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// MetricsNamespace is the namespace for all crawl metrics.
	MetricsNamespace = "newsfeed"

	// MetricsSubsystem is the subsystem for crawl metrics.
	MetricsSubsystem = "crawl"
)

// Metrics holds the crawl counters.
type Metrics struct {
	ArticlesTotal   *prometheus.CounterVec
	URLsDiscovered  *prometheus.CounterVec
	RunDuration     *prometheus.HistogramVec
	SourcesInFlight prometheus.Gauge
}

// NewMetrics creates and registers the crawl metrics on reg, or on the default registerer when reg is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		ArticlesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Subsystem: MetricsSubsystem,
				Name:      "articles_total",
				Help:      "Articles processed by outcome (saved, duplicate, skipped, failed)",
			},
			[]string{"source", "outcome"},
		),
		URLsDiscovered: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Subsystem: MetricsSubsystem,
				Name:      "urls_discovered_total",
				Help:      "Candidate article urls discovered",
			},
			[]string{"source", "strategy"},
		),
		RunDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: MetricsNamespace,
				Subsystem: MetricsSubsystem,
				Name:      "run_duration_seconds",
				Help:      "Duration of one source crawl",
				Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"source", "mode"},
		),
		SourcesInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: MetricsNamespace,
				Subsystem: MetricsSubsystem,
				Name:      "sources_in_flight",
				Help:      "Sources currently being crawled",
			},
		),
	}
}

func (m *Metrics) article(source string, o outcome) {
	if m == nil {
		return
	}
	m.ArticlesTotal.WithLabelValues(source, string(o)).Inc()
}

func (m *Metrics) discovered(source, strategy string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.URLsDiscovered.WithLabelValues(source, strategy).Add(float64(n))
}

func (m *Metrics) observeRun(source string, mode Mode, seconds float64) {
	if m == nil {
		return
	}
	m.RunDuration.WithLabelValues(source, string(mode)).Observe(seconds)
}

func (m *Metrics) inFlight(delta float64) {
	if m == nil {
		return
	}
	m.SourcesInFlight.Add(delta)
}
