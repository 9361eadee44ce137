package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the verification
// service.
type Metrics struct {
	AnalysesTotal    *prometheus.CounterVec // labels: event_type, outcome={completed,invalid_request,insufficient_data}
	AnalysisDuration prometheus.Histogram

	// Backend retrieval metrics.
	BackendRequests        *prometheus.CounterVec   // labels: sensor, outcome={success,empty,error}
	BackendRequestDuration *prometheus.HistogramVec // labels: sensor
	CompositesAbsent       *prometheus.CounterVec   // labels: sensor

	// Result sink metrics.
	RecordsPublished *prometheus.CounterVec // labels: sink, outcome={success,error}
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crop_damage",
			Name:      "analyses_total",
			Help:      "Analysis runs by event type and outcome.",
		}, []string{"event_type", "outcome"}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "crop_damage",
			Name:      "analysis_duration_seconds",
			Help:      "Duration of a complete analysis run including backend retrievals.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		BackendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crop_damage",
			Name:      "backend_requests_total",
			Help:      "Satellite backend requests by sensor and outcome.",
		}, []string{"sensor", "outcome"}),
		BackendRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "crop_damage",
			Name:      "backend_request_duration_seconds",
			Help:      "Satellite backend request duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"sensor"}),
		CompositesAbsent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crop_damage",
			Name:      "composites_absent_total",
			Help:      "Composite retrievals that produced no usable imagery, by sensor.",
		}, []string{"sensor"}),
		RecordsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crop_damage",
			Name:      "records_published_total",
			Help:      "Assessment records delivered to result sinks, by sink and outcome.",
		}, []string{"sink", "outcome"}),
	}

	prometheus.MustRegister(
		m.AnalysesTotal,
		m.AnalysisDuration,
		m.BackendRequests,
		m.BackendRequestDuration,
		m.CompositesAbsent,
		m.RecordsPublished,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		AnalysesTotal:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "crop_damage", Name: "analyses_total"}, []string{"event_type", "outcome"}),
		AnalysisDuration:       prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "crop_damage", Name: "analysis_duration_seconds"}),
		BackendRequests:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "crop_damage", Name: "backend_requests_total"}, []string{"sensor", "outcome"}),
		BackendRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "crop_damage", Name: "backend_request_duration_seconds"}, []string{"sensor"}),
		CompositesAbsent:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "crop_damage", Name: "composites_absent_total"}, []string{"sensor"}),
		RecordsPublished:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "crop_damage", Name: "records_published_total"}, []string{"sink", "outcome"}),
	}
}
