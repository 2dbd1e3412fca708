package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all prometheus collectors for the service
// ⭐ SSOT: collectors are registered here only
type Metrics struct {
	registry *prometheus.Registry

	FetchDuration   *prometheus.HistogramVec
	FetchErrors     *prometheus.CounterVec
	DegradedSources *prometheus.CounterVec
	RunsTotal       *prometheus.CounterVec
	Resolutions     *prometheus.CounterVec
}

// New creates and registers all collectors on a private registry
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "argus",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of external provider fetches",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "argus",
			Name:      "fetch_errors_total",
			Help:      "External provider fetch failures",
		}, []string{"source"}),
		DegradedSources: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "argus",
			Name:      "degraded_sources_total",
			Help:      "Runs in which a source was marked degraded",
		}, []string{"source"}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "argus",
			Name:      "runs_total",
			Help:      "Signal aggregation runs by overall status",
		}, []string{"status"}),
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "argus",
			Name:      "entity_resolutions_total",
			Help:      "Entity resolutions by resolution path",
		}, []string{"path"}),
	}

	reg.MustRegister(
		m.FetchDuration,
		m.FetchErrors,
		m.DegradedSources,
		m.RunsTotal,
		m.Resolutions,
	)

	return m
}

// Handler returns the /metrics HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
