// Package health provides the liveness and readiness probes served on the
// admin endpoint. Liveness is a constant fast path; readiness aggregates
// registered component checks (OIDC discovery, audit store) with a
// per-check timeout.
package health
