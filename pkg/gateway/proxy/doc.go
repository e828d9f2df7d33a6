// Package proxy implements the gateway's request pipeline.
//
// Per request: resolve the host (SNI first, Host header second), route to
// the virtual host for (listen address, host), test the path against the
// host's anchored public-route patterns, gate on OIDC introspection for
// non-public paths, scrub the headers a client could use to forge
// identity, rewrite the URL for the upstream, inject the proxy's identity
// assertions, execute the upstream request exactly once, and stream the
// response back.
//
// The handler never fails a connection: every internal error maps to a
// synthetic 400, 401, or 500.
package proxy
