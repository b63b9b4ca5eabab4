// Package metrics exposes Prometheus collectors for scans, vault writes,
// integrity verification and access denials.
//
// All methods are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cui_inspector"

// Metrics holds the application collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	scans         *prometheus.CounterVec
	scanDuration  *prometheus.HistogramVec
	objectPuts    *prometheus.CounterVec
	objectBytes   prometheus.Counter
	versions      *prometheus.CounterVec
	verifyResults *prometheus.CounterVec
	denials       *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// New creates the collectors and registers them, together with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Documents analyzed, by ruleset and risk level.",
		}, []string{"ruleset", "risk_level"}),
		scanDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Time spent running a ruleset over one document.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"ruleset"}),
		objectPuts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "object_puts_total",
			Help:      "Object store writes, split into created and deduplicated.",
		}, []string{"result"}),
		objectBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "object_bytes_written_total",
			Help:      "Bytes of newly created objects.",
		}),
		versions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifact_versions_total",
			Help:      "Artifact uploads, split into new versions and dedup hits.",
		}, []string{"result"}),
		verifyResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vault_verify_objects_total",
			Help:      "Objects re-hashed by vault verification, by status.",
		}, []string{"status"}),
		denials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "permission_denied_total",
			Help:      "Actions rejected by the access gate.",
		}, []string{"action"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.scans, m.scanDuration, m.objectPuts, m.objectBytes, m.versions,
		m.verifyResults, m.denials, m.httpRequests, m.httpDuration,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveScan records one analyzed document.
func (m *Metrics) ObserveScan(ruleset, riskLevel string, d time.Duration) {
	if m == nil {
		return
	}
	m.scans.WithLabelValues(ruleset, riskLevel).Inc()
	m.scanDuration.WithLabelValues(ruleset).Observe(d.Seconds())
}

// ObservePut records one object store write.
func (m *Metrics) ObservePut(created bool, size int64) {
	if m == nil {
		return
	}
	if created {
		m.objectPuts.WithLabelValues("created").Inc()
		m.objectBytes.Add(float64(size))
		return
	}
	m.objectPuts.WithLabelValues("dedup").Inc()
}

// ObserveVersion records an artifact upload outcome.
func (m *Metrics) ObserveVersion(created bool) {
	if m == nil {
		return
	}
	if created {
		m.versions.WithLabelValues("created").Inc()
		return
	}
	m.versions.WithLabelValues("dedup").Inc()
}

// ObserveVerify records one verification row status.
func (m *Metrics) ObserveVerify(status string) {
	if m == nil {
		return
	}
	m.verifyResults.WithLabelValues(status).Inc()
}

// ObserveDenied records an access gate rejection.
func (m *Metrics) ObserveDenied(action string) {
	if m == nil {
		return
	}
	m.denials.WithLabelValues(action).Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
