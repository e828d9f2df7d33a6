// Package auth authenticates requests against an OIDC provider by RFC
// 7662 token introspection.
//
// The Client is constructed once per process: discovery runs against the
// issuer at startup (and is fatal when it fails), after which every
// introspection call shares a single pooled HTTP transport with redirects
// disabled. A fresh client per call would leak connections and defeat
// keep-alive under load, so construction is deliberately the only place a
// transport is built.
package auth
