package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the server. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	accessDecisions     *prometheus.CounterVec
	consentChanges      *prometheus.CounterVec
	emergencyAccesses   *prometheus.CounterVec
}

// New creates and registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		accessDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "records_access_decisions_total",
				Help: "Medical record read decisions by requester role",
			},
			[]string{"user_role", "decision"},
		),
		consentChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "consent_changes_total",
				Help: "Consent grants and revocations",
			},
			[]string{"status"},
		),
		emergencyAccesses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emergency_access_total",
				Help: "Break-glass lookups by outcome",
			},
			[]string{"outcome", "identified"},
		),
	}

	m.registry.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.accessDecisions,
		m.consentChanges,
		m.emergencyAccesses,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordAccessDecision counts an allow/deny on the records read path.
func (m *Metrics) RecordAccessDecision(role string, allowed bool) {
	if m == nil {
		return
	}
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	m.accessDecisions.WithLabelValues(role, decision).Inc()
}

// RecordConsentChange counts a successful grant or revoke.
func (m *Metrics) RecordConsentChange(status string) {
	if m == nil {
		return
	}
	m.consentChanges.WithLabelValues(status).Inc()
}

// RecordEmergencyAccess counts a break-glass call. outcome is one of
// "found", "fallback", "not_found" or "error".
func (m *Metrics) RecordEmergencyAccess(outcome string, identified bool) {
	if m == nil {
		return
	}
	m.emergencyAccesses.WithLabelValues(outcome, strconv.FormatBool(identified)).Inc()
}
