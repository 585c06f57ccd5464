package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "drainage"

// Metrics holds the Prometheus counters, histograms, and gauges for the analysis service.
type Metrics struct {
	AnalysesTotal    *prometheus.CounterVec // labels: outcome={success,invalid,error}
	AnalysisDuration prometheus.Histogram

	// Fallback metrics.
	Fallbacks *prometheus.CounterVec // labels: component={terrain,outlet,rainfall}, reason

	// Upstream provider metrics.
	UpstreamRequests *prometheus.CounterVec   // labels: provider={earthengine,overpass,openmeteo}, outcome={success,error}
	UpstreamDuration *prometheus.HistogramVec // labels: provider
	RainfallCache    *prometheus.CounterVec   // labels: result={hit,miss}
	ProviderReady    prometheus.Gauge

	// Plan event sink.
	PlansPublished *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.AnalysesTotal,
		m.AnalysisDuration,
		m.Fallbacks,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.RainfallCache,
		m.ProviderReady,
		m.PlansPublished,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Drainage analyses by outcome.",
		}, []string{"outcome"}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Duration of a complete drainage analysis including upstream lookups.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}),
		Fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Lookups answered with a deterministic fallback, by component and reason.",
		}, []string{"component", "reason"}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Upstream provider requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_duration_seconds",
			Help:      "Upstream provider request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"provider"}),
		RainfallCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rainfall_cache_total",
			Help:      "Rainfall series cache lookups by result.",
		}, []string{"result"}),
		ProviderReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geospatial_provider_ready",
			Help:      "1 when the geospatial client initialized, 0 otherwise.",
		}),
		PlansPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plans_published_total",
			Help:      "Plan events written to the sink topic by outcome.",
		}, []string{"outcome"}),
	}
}

// ObserveUpstream records one upstream call.
func (m *Metrics) ObserveUpstream(provider string, seconds float64, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.UpstreamRequests.WithLabelValues(provider, outcome).Inc()
	m.UpstreamDuration.WithLabelValues(provider).Observe(seconds)
}
