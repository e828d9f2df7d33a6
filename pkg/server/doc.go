// Package server runs the gateway's accept loop.
//
// The Supervisor pops accepted connections off the listener manager's
// shared queue, performs the TLS handshake for addresses that terminate
// TLS (capturing the SNI name as the connection's authoritative host
// identifier), and feeds each connection to a per-address HTTP/1 server
// that invokes the request handler until the client closes. Handshake
// failures close that connection only.
//
// The AdminServer is a separate plaintext endpoint for metrics and
// health probes.
package server
