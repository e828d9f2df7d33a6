package tlsmgr

import (
	"crypto/tls"
	"sync"
)

// Manager owns one TLS server configuration per listen address, each
// deferring certificate selection to that address's Resolver. The
// presence of a configuration for an address is the sole signal that the
// address terminates TLS; an address without one serves plain HTTP.
type Manager struct {
	mu        sync.Mutex
	endpoints map[string]*endpoint
}

type endpoint struct {
	config   *tls.Config
	resolver *Resolver
}

// NewManager creates a TLS manager with no endpoints.
func NewManager() *Manager {
	return &Manager{
		endpoints: make(map[string]*endpoint),
	}
}

// AddCertifiedKey registers cert for serverName on listenAddr. The first
// key for an address lazily constructs its TLS configuration: TLS 1.2
// minimum, Go's default cipher suites, no client authentication, and
// certificate selection via the address's resolver. No ALPN protocols are
// advertised, so connections negotiate HTTP/1.1.
func (m *Manager) AddCertifiedKey(listenAddr, serverName string, cert *tls.Certificate) error {
	m.mu.Lock()
	ep, ok := m.endpoints[listenAddr]
	if !ok {
		resolver := NewResolver()
		ep = &endpoint{
			resolver: resolver,
			config: &tls.Config{
				MinVersion:     tls.VersionTLS12,
				GetCertificate: resolver.GetCertificate,
			},
		}
		m.endpoints[listenAddr] = ep
	}
	m.mu.Unlock()

	return ep.resolver.Add(serverName, cert)
}

// Config returns the TLS configuration for listenAddr, or nil when the
// address has no registered keys and therefore serves plaintext HTTP.
func (m *Manager) Config(listenAddr string) *tls.Config {
	m.mu.Lock()
	defer m.mu.Unlock()

	ep, ok := m.endpoints[listenAddr]
	if !ok {
		return nil
	}
	return ep.config
}

// Resolver returns the certificate resolver for listenAddr, or nil when
// the address terminates no TLS. The reload path uses it to swap renewed
// certificates in place.
func (m *Manager) Resolver(listenAddr string) *Resolver {
	m.mu.Lock()
	defer m.mu.Unlock()

	ep, ok := m.endpoints[listenAddr]
	if !ok {
		return nil
	}
	return ep.resolver
}
