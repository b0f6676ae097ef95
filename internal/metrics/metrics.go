// Package metrics exposes the Prometheus collectors of the service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "configurator"

// Metrics groups the collectors recorded while serving configurations.
type Metrics struct {
	registry *prometheus.Registry

	Requests        *prometheus.CounterVec
	CollectDuration *prometheus.HistogramVec
	Routes          *prometheus.HistogramVec
	VenueErrors     *prometheus.CounterVec
}

// New creates the collectors on a dedicated registry, together with the Go and
// process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Configuration requests by exchange and outcome.",
		}, []string{"exchange", "outcome"}),
		CollectDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "collect_duration_seconds",
			Help:      "Time spent collecting configuration data.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"exchange"}),
		Routes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "routes",
			Help:      "Number of trade routes constructed per response.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"exchange"}),
		VenueErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "venue_errors_total",
			Help:      "Failed venue calls by exchange and operation.",
		}, []string{"exchange", "operation"}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Requests,
		m.CollectDuration,
		m.Routes,
		m.VenueErrors,
	)
	return m
}

// ObserveCollect records a completed collection.
func (m *Metrics) ObserveCollect(exchange string, elapsed time.Duration, routes int) {
	m.CollectDuration.WithLabelValues(exchange).Observe(elapsed.Seconds())
	m.Routes.WithLabelValues(exchange).Observe(float64(routes))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
