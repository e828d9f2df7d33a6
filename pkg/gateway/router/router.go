package router

import (
	"strings"

	"github.com/panicbit/oauth-gateway/pkg/config"
)

// Router selects a virtual host from a connection's listen address and a
// request's host name. The table is a flat list scanned per request; for
// the configured handful of servers that beats any map, and the contract
// would not change if a two-level map replaced it.
type Router struct {
	servers []config.Server
}

// New builds a router over the configured servers. The configuration is
// immutable for the process lifetime, so the router is freely shared.
func New(servers []config.Server) *Router {
	return &Router{servers: servers}
}

// Resolve returns the unique server configured for (listenAddr, host),
// matching the name case-insensitively, or nil when no server matches.
func (r *Router) Resolve(listenAddr, host string) *config.Server {
	for i := range r.servers {
		s := &r.servers[i]
		if s.Listen == listenAddr && strings.EqualFold(s.Name, host) {
			return s
		}
	}
	return nil
}

// ListenAddrs returns the distinct listen addresses across all servers,
// in first-seen order.
func (r *Router) ListenAddrs() []string {
	seen := make(map[string]bool)
	var addrs []string
	for i := range r.servers {
		addr := r.servers[i].Listen
		if !seen[addr] {
			seen[addr] = true
			addrs = append(addrs, addr)
		}
	}
	return addrs
}
