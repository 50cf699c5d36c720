// Package observability exposes Prometheus metrics for report building and
// upstream USDA calls.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "allergenscan"

// Metrics holds the collectors and the private registry they live in
type Metrics struct {
	registry *prometheus.Registry

	reportsTotal            *prometheus.CounterVec
	allergensDetectedTotal  *prometheus.CounterVec
	upstreamRequestsTotal   *prometheus.CounterVec
	upstreamRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on a fresh registry
func NewMetrics() (*Metrics, error) {
	m := &Metrics{registry: prometheus.NewRegistry()}
	m.initMetrics()

	if err := m.registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) initMetrics() {
	m.reportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_total",
			Help:      "Total number of report builds by outcome",
		},
		[]string{"outcome"}, // ok, no_results, search_failed, invalid
	)

	m.allergensDetectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "allergens_detected_total",
			Help:      "Total number of allergen categories detected in reports",
		},
		[]string{"category"},
	)

	m.upstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Total number of USDA API requests",
		},
		[]string{"endpoint", "status"},
	)

	m.upstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Time taken for USDA API requests",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
}

func (m *Metrics) getCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.reportsTotal,
		m.allergensDetectedTotal,
		m.upstreamRequestsTotal,
		m.upstreamRequestDuration,
	}
}

// Describe implements prometheus.Collector
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.getCollectors() {
		collector.Describe(ch)
	}
}

// Collect implements prometheus.Collector
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.getCollectors() {
		collector.Collect(ch)
	}
}

// RecordReport counts one report build and the allergen categories it found
func (m *Metrics) RecordReport(outcome string, allergens []string) {
	m.reportsTotal.WithLabelValues(outcome).Inc()
	for _, category := range allergens {
		m.allergensDetectedTotal.WithLabelValues(category).Inc()
	}
}

// ObserveUpstream records one USDA request. Status 0 means the request never
// produced a response.
func (m *Metrics) ObserveUpstream(endpoint string, status int, duration time.Duration) {
	m.upstreamRequestsTotal.WithLabelValues(endpoint, statusLabel(status)).Inc()
	m.upstreamRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// Registry returns the private registry backing these metrics
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func statusLabel(status int) string {
	if status <= 0 {
		return "error"
	}
	return strconv.Itoa(status)
}
