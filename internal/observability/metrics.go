// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/axiomhq/hyperloglog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Upstream metrics
	UpstreamRequests *prometheus.CounterVec
	UpstreamLatency  *prometheus.HistogramVec

	// Fetch layer metrics
	QueryResults  *prometheus.CounterVec
	Notifications *prometheus.CounterVec

	// Audit metrics
	AuditsTotal       *prometheus.CounterVec
	DistinctContracts prometheus.Gauge
	LiveSessions      prometheus.Gauge

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	RateLimited  *prometheus.CounterVec

	audits      atomic.Uint64
	contractsMu sync.Mutex
	contracts   *hyperloglog.Sketch
}

// NewMetrics creates a new Metrics instance registered on reg.
// A nil reg registers on the default Prometheus registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "token_audit"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		UpstreamRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Total number of upstream API requests by provider, endpoint and status",
		}, []string{"provider", "endpoint", "status"}),
		UpstreamLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Upstream API request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider", "endpoint"}),

		QueryResults: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "results_total",
			Help:      "Request cache lookups by kind and outcome (hit, miss, shared, error)",
		}, []string{"kind", "outcome"}),
		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "notifications_total",
			Help:      "Error notifications raised by failed fetches",
		}, []string{"kind"}),

		AuditsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "audits_total",
			Help:      "Total number of audits by chain and outcome",
		}, []string{"chain", "outcome"}),
		DistinctContracts: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "distinct_contracts",
			Help:      "Estimated number of distinct contracts audited since start",
		}),
		LiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "live_sessions",
			Help:      "Open websocket audit sessions",
		}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Inbound HTTP requests by route and status code",
		}, []string{"route", "code"}),
		RateLimited: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Inbound requests rejected by the per-IP limiter",
		}, []string{"route"}),

		contracts: hyperloglog.New14(),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// RecordUpstream records one upstream API call.
func RecordUpstream(provider, endpoint, status string, seconds float64) {
	DefaultMetrics.UpstreamRequests.WithLabelValues(provider, endpoint, status).Inc()
	DefaultMetrics.UpstreamLatency.WithLabelValues(provider, endpoint).Observe(seconds)
}

// RecordQuery records a request cache lookup.
func RecordQuery(kind, outcome string) {
	DefaultMetrics.QueryResults.WithLabelValues(kind, outcome).Inc()
}

// RecordNotification records an error notification for a fetch kind.
func RecordNotification(kind string) {
	DefaultMetrics.Notifications.WithLabelValues(kind).Inc()
}

// RecordAudit records an audit outcome and, for rendered audits, adds the
// contract to the distinct-contracts estimate.
func RecordAudit(chain, address, outcome string) {
	DefaultMetrics.RecordAudit(chain, address, outcome)
}

// RecordAudit is the instance form of the package-level RecordAudit.
func (m *Metrics) RecordAudit(chain, address, outcome string) {
	m.AuditsTotal.WithLabelValues(chain, outcome).Inc()
	m.audits.Add(1)
	if address == "" {
		return
	}

	m.contractsMu.Lock()
	m.contracts.Insert([]byte(chain + ":" + address))
	estimate := m.contracts.Estimate()
	m.contractsMu.Unlock()

	m.DistinctContracts.Set(float64(estimate))
}

// Audits returns the number of audits recorded since start.
func Audits() uint64 {
	return DefaultMetrics.audits.Load()
}

// DistinctContracts returns the estimated number of distinct contracts audited.
func DistinctContracts() uint64 {
	return DefaultMetrics.DistinctContractsEstimate()
}

// DistinctContractsEstimate returns the estimated number of distinct contracts audited.
func (m *Metrics) DistinctContractsEstimate() uint64 {
	m.contractsMu.Lock()
	defer m.contractsMu.Unlock()
	return m.contracts.Estimate()
}

// LiveSessionOpened increments the open websocket sessions gauge.
func LiveSessionOpened() {
	DefaultMetrics.LiveSessions.Inc()
}

// LiveSessionClosed decrements the open websocket sessions gauge.
func LiveSessionClosed() {
	DefaultMetrics.LiveSessions.Dec()
}

// RecordHTTP records an inbound request.
func RecordHTTP(route, code string) {
	DefaultMetrics.HTTPRequests.WithLabelValues(route, code).Inc()
}

// RecordRateLimited records a request rejected by the rate limiter.
func RecordRateLimited(route string) {
	DefaultMetrics.RateLimited.WithLabelValues(route).Inc()
}
