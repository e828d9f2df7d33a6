// Package metrics exposes the gateway's Prometheus metric families.
//
// Metrics:
//   - gateway_requests_total: proxied requests by virtual host and outcome
//   - gateway_request_duration_seconds: request duration histogram
//   - gateway_auth_results_total: authentication gate outcomes
//   - gateway_introspection_duration_seconds: OIDC introspection latency
//   - gateway_accepted_connections_total: accepted TCP connections
//   - gateway_accept_queue_depth: connections waiting in the accept queue
//   - gateway_tls_handshake_failures_total: failed TLS handshakes
//   - gateway_audit_records_dropped_total: audit records shed under load
//
// All families live on a private registry served by Handler. Every record
// method is a no-op on a nil *Metrics, so callers do not guard the
// metrics-disabled case.
package metrics
