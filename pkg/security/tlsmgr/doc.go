// Package tlsmgr terminates TLS for the gateway with per-virtual-host
// certificates selected by SNI.
//
// A Manager holds one *tls.Config per listen address; each defers
// certificate selection to a Resolver keyed case-insensitively by server
// name. A listen address with no registered keys serves plaintext HTTP —
// the presence of a config is the only TLS/plaintext signal, and the two
// are never mixed on one socket.
//
// The Reloader watches certificate files with fsnotify and swaps renewed
// certificates into the resolver, so rotation needs no restart.
package tlsmgr
