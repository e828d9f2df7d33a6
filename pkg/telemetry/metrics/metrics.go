package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the gateway's metric families, registered on a private
// registry so tests can run side by side without default-registry clashes.
type Metrics struct {
	registry *prometheus.Registry

	// Per-request outcome counter.
	requestsTotal *prometheus.CounterVec

	// End-to-end request duration, including the upstream round trip.
	requestDuration *prometheus.HistogramVec

	// Authentication gate outcomes ("public", "ok", "no_token",
	// "inactive", "error").
	authResultsTotal *prometheus.CounterVec

	// Token introspection round-trip duration.
	introspectionDuration prometheus.Histogram

	// Accepted TCP connections per listen address.
	acceptedTotal *prometheus.CounterVec

	// Current depth of the shared accept queue.
	acceptQueueDepth prometheus.Gauge

	// Failed TLS handshakes per listen address.
	handshakeFailuresTotal *prometheus.CounterVec

	// Audit records dropped because the recorder buffer was full.
	auditDroppedTotal prometheus.Counter
}

// New creates and registers the gateway metric families under the given
// namespace, alongside the standard Go and process collectors.
func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of proxied requests by virtual host and outcome",
			},
			[]string{"server", "outcome"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Duration of proxied requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"server"},
		),

		authResultsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_results_total",
				Help:      "Authentication gate outcomes",
			},
			[]string{"result"},
		),

		introspectionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "introspection_duration_seconds",
				Help:      "Duration of OIDC token introspection calls in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),

		acceptedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "accepted_connections_total",
				Help:      "TCP connections accepted per listen address",
			},
			[]string{"listen"},
		),

		acceptQueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "accept_queue_depth",
				Help:      "Current number of connections waiting in the accept queue",
			},
		),

		handshakeFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tls_handshake_failures_total",
				Help:      "Failed TLS handshakes per listen address",
			},
			[]string{"listen"},
		),

		auditDroppedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "audit_records_dropped_total",
				Help:      "Audit records dropped because the recorder buffer was full",
			},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestsTotal,
		m.requestDuration,
		m.authResultsTotal,
		m.introspectionDuration,
		m.acceptedTotal,
		m.acceptQueueDepth,
		m.handshakeFailuresTotal,
		m.auditDroppedTotal,
	)

	return m
}

// RecordRequest records the outcome and duration of one proxied request.
func (m *Metrics) RecordRequest(server, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(server, outcome).Inc()
	m.requestDuration.WithLabelValues(server).Observe(duration.Seconds())
}

// RecordAuthResult records one authentication gate outcome.
func (m *Metrics) RecordAuthResult(result string) {
	if m == nil {
		return
	}
	m.authResultsTotal.WithLabelValues(result).Inc()
}

// RecordIntrospection records the duration of one introspection call.
func (m *Metrics) RecordIntrospection(duration time.Duration) {
	if m == nil {
		return
	}
	m.introspectionDuration.Observe(duration.Seconds())
}

// RecordAccepted counts one accepted connection on the given address.
func (m *Metrics) RecordAccepted(listen string) {
	if m == nil {
		return
	}
	m.acceptedTotal.WithLabelValues(listen).Inc()
}

// SetAcceptQueueDepth updates the accept queue depth gauge.
func (m *Metrics) SetAcceptQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.acceptQueueDepth.Set(float64(depth))
}

// RecordHandshakeFailure counts one failed TLS handshake.
func (m *Metrics) RecordHandshakeFailure(listen string) {
	if m == nil {
		return
	}
	m.handshakeFailuresTotal.WithLabelValues(listen).Inc()
}

// RecordAuditDropped counts one dropped audit record.
func (m *Metrics) RecordAuditDropped() {
	if m == nil {
		return
	}
	m.auditDroppedTotal.Inc()
}
