// Package metrics holds the Prometheus collectors of the catalog service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "catalog"

// Metrics groups the service collectors on a dedicated registry.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	CacheLookups    *prometheus.CounterVec
	RelayMessages   *prometheus.CounterVec
	SearchQueries   *prometheus.CounterVec
	WorkerRuns      *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Redis cache lookups by result (hit, miss).",
		}, []string{"result"}),
		RelayMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_messages_total",
			Help:      "Translation and specification relay messages by direction and outcome.",
		}, []string{"direction", "outcome"}),
		SearchQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_queries_total",
			Help:      "Search queries by backend (elasticsearch, database).",
		}, []string{"backend"}),
		WorkerRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_runs_total",
			Help:      "Background worker runs by worker and outcome.",
		}, []string{"worker", "outcome"}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestsTotal,
		m.RequestDuration,
		m.CacheLookups,
		m.RelayMessages,
		m.SearchQueries,
		m.WorkerRuns,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry (tests gather from it).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// CacheHit records a cache lookup result. Safe on a nil receiver.
func (m *Metrics) CacheHit(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheLookups.WithLabelValues("hit").Inc()
	} else {
		m.CacheLookups.WithLabelValues("miss").Inc()
	}
}

// Relay records a relay message. Safe on a nil receiver.
func (m *Metrics) Relay(direction, outcome string) {
	if m == nil {
		return
	}
	m.RelayMessages.WithLabelValues(direction, outcome).Inc()
}

// Search records a search query. Safe on a nil receiver.
func (m *Metrics) Search(backend string) {
	if m == nil {
		return
	}
	m.SearchQueries.WithLabelValues(backend).Inc()
}

// WorkerRun records a worker run. Safe on a nil receiver.
func (m *Metrics) WorkerRun(worker, outcome string) {
	if m == nil {
		return
	}
	m.WorkerRuns.WithLabelValues(worker, outcome).Inc()
}
