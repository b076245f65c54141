package telemetry

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "commerce"

// Metrics holds the Prometheus collectors exposed on /metrics
type Metrics struct {
	registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	httpInFlight   prometheus.Gauge
	ordersPlaced   *prometheus.CounterVec
	checkoutFailed *prometheus.CounterVec
	jobRuns        *prometheus.CounterVec
}

// NewMetrics registers the HTTP, business and runtime collectors on a fresh registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "HTTP requests currently being served.",
		}),
		ordersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "orders_placed_total",
			Help:      "Orders placed by currency.",
		}, []string{"currency"}),
		checkoutFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "checkout_failures_total",
			Help:      "Failed cart completions by stage.",
		}, []string{"stage"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "scheduler",
			Name:      "job_runs_total",
			Help:      "Scheduled job runs by job and result.",
		}, []string{"job", "result"}),
	}
	m.registry.MustRegister(
		m.httpRequests, m.httpDuration, m.httpInFlight,
		m.ordersPlaced, m.checkoutFailed, m.jobRuns,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RegisterDB exposes connection pool stats of db
func (m *Metrics) RegisterDB(db *sql.DB, name string) error {
	return m.registry.Register(collectors.NewDBStatsCollector(db, name))
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RequestStarted increments the in-flight gauge and returns the matching completion func
func (m *Metrics) RequestStarted() func(method, route string, status int, elapsed time.Duration) {
	m.httpInFlight.Inc()
	return func(method, route string, status int, elapsed time.Duration) {
		m.httpInFlight.Dec()
		m.httpRequests.WithLabelValues(method, route, statusLabel(status)).Inc()
		m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
	}
}

// OrderPlaced counts a placed order
func (m *Metrics) OrderPlaced(currency string) {
	m.ordersPlaced.WithLabelValues(currency).Inc()
}

// CheckoutFailed counts a cart completion that failed at stage
func (m *Metrics) CheckoutFailed(stage string) {
	m.checkoutFailed.WithLabelValues(stage).Inc()
}

// JobRun counts a scheduled job run
func (m *Metrics) JobRun(job string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.jobRuns.WithLabelValues(job, result).Inc()
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
