// Package metrics exposes the ledger's Prometheus counters. A nil *Metrics
// is valid and records nothing, so library callers can skip it.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "registru"

// Metrics holds the ledger collectors and their registry.
type Metrics struct {
	registry *prometheus.Registry

	EntriesPosted      *prometheus.CounterVec
	PostingsRejected   *prometheus.CounterVec
	AccountChanges     *prometheus.CounterVec
	IntegrityFailures  *prometheus.CounterVec
	EventsPublished    *prometheus.CounterVec
	ReportDuration     *prometheus.HistogramVec
	HTTPRequestsTotal  *prometheus.CounterVec
	HTTPRequestLatency *prometheus.HistogramVec
}

// New creates a Metrics with its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}

	m.EntriesPosted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_posted_total",
			Help:      "Journal entries committed, by kind (regular, reversal)",
		},
		[]string{"kind"},
	)
	m.PostingsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "postings_rejected_total",
			Help:      "Postings rejected by validation, by reason",
		},
		[]string{"reason"},
	)
	m.AccountChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "account_changes_total",
			Help:      "Chart of accounts mutations, by operation",
		},
		[]string{"operation"},
	)
	m.IntegrityFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "integrity_failures_total",
			Help:      "Reports that failed their own consistency check",
		},
		[]string{"report"},
	)
	m.EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Domain events handed to the publisher",
		},
		[]string{"event_type", "status"},
	)
	m.ReportDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_duration_seconds",
			Help:      "Time to build a report",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"report"},
	)
	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served",
		},
		[]string{"method", "path", "status"},
	)
	m.HTTPRequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	registry.MustRegister(
		m.EntriesPosted,
		m.PostingsRejected,
		m.AccountChanges,
		m.IntegrityFailures,
		m.EventsPublished,
		m.ReportDuration,
		m.HTTPRequestsTotal,
		m.HTTPRequestLatency,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordEntryPosted(reversal bool) {
	if m == nil {
		return
	}
	kind := "regular"
	if reversal {
		kind = "reversal"
	}
	m.EntriesPosted.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordPostingRejected(reason string) {
	if m == nil {
		return
	}
	m.PostingsRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordAccountChange(operation string) {
	if m == nil {
		return
	}
	m.AccountChanges.WithLabelValues(operation).Inc()
}

func (m *Metrics) RecordIntegrityFailure(report string) {
	if m == nil {
		return
	}
	m.IntegrityFailures.WithLabelValues(report).Inc()
}

func (m *Metrics) RecordEventPublished(eventType string, success bool) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "error"
	}
	m.EventsPublished.WithLabelValues(eventType, status).Inc()
}

func (m *Metrics) ObserveReport(report string, d time.Duration) {
	if m == nil {
		return
	}
	m.ReportDuration.WithLabelValues(report).Observe(d.Seconds())
}

// RecordHTTPRequest records a served request. path is the route pattern.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestLatency.WithLabelValues(method, path).Observe(d.Seconds())
}
