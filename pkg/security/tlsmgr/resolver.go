package tlsmgr

import (
	"crypto/tls"
	"fmt"
	"strings"
	"sync"
)

// Resolver maps server names to certificates for one listen address. It
// implements the tls.Config.GetCertificate callback, so lookups run from
// inside the TLS handshake; the map is read-mostly and sits behind a
// reader-biased lock because certificates are replaced on reload.
type Resolver struct {
	mu    sync.RWMutex
	certs map[string]*tls.Certificate
}

// NewResolver creates an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{
		certs: make(map[string]*tls.Certificate),
	}
}

// Add registers a certificate under serverName, case-insensitively. The
// name must be a syntactically valid ASCII DNS name. A later Add with the
// same name replaces the earlier certificate; handshakes in flight keep
// the certificate they already resolved.
func (r *Resolver) Add(serverName string, cert *tls.Certificate) error {
	if err := validateDNSName(serverName); err != nil {
		return fmt.Errorf("bad DNS name %q: %w", serverName, err)
	}

	r.mu.Lock()
	r.certs[strings.ToLower(serverName)] = cert
	r.mu.Unlock()

	return nil
}

// GetCertificate selects the certificate for the ClientHello's SNI name.
// An absent SNI or an unknown name returns an error, failing the
// handshake.
func (r *Resolver) GetCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
	if hello.ServerName == "" {
		return nil, fmt.Errorf("no SNI server name in ClientHello")
	}

	r.mu.RLock()
	cert, ok := r.certs[strings.ToLower(hello.ServerName)]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no certificate for server name %q", hello.ServerName)
	}

	return cert, nil
}

// validateDNSName checks that name is a syntactically valid ASCII DNS
// name: dot-separated labels of letters, digits, and interior hyphens,
// each 1-63 octets, 253 octets overall.
func validateDNSName(name string) error {
	if name == "" {
		return fmt.Errorf("empty name")
	}
	if len(name) > 253 {
		return fmt.Errorf("name exceeds 253 octets")
	}

	for _, label := range strings.Split(name, ".") {
		if label == "" {
			return fmt.Errorf("empty label")
		}
		if len(label) > 63 {
			return fmt.Errorf("label %q exceeds 63 octets", label)
		}
		if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return fmt.Errorf("label %q starts or ends with a hyphen", label)
		}
		for i := 0; i < len(label); i++ {
			c := label[i]
			switch {
			case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9', c == '-':
			default:
				return fmt.Errorf("label %q contains invalid character %q", label, rune(c))
			}
		}
	}

	return nil
}
