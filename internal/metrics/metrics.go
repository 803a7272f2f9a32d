// Package metrics registers and serves the service's Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "insurewise"

// Metrics owns the registry and the instruments recorded by the HTTP
// layer. All instruments are registered once at construction.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	policiesLoaded  prometheus.Gauge
	recommendations prometheus.Histogram
}

// New builds a Metrics instance backed by its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total HTTP requests served",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		policiesLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "policies_loaded",
				Help:      "Number of policies in the catalog snapshot",
			},
		),
		recommendations: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "quote_recommendations_returned",
				Help:      "Recommendations returned per quote request",
				Buckets:   []float64{0, 1, 2, 3},
			},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestsTotal,
		m.requestDuration,
		m.policiesLoaded,
		m.recommendations,
	)

	return m
}

// Handler returns the Prometheus exposition endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(method, path string, status int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// SetPoliciesLoaded publishes the catalog size.
func (m *Metrics) SetPoliciesLoaded(n int) {
	m.policiesLoaded.Set(float64(n))
}

// ObserveRecommendations records how many policies a quote returned.
func (m *Metrics) ObserveRecommendations(n int) {
	m.recommendations.Observe(float64(n))
}
