package tlsmgr

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"
	"time"
)

// expiryWarningWindow is how close to expiry a certificate gets before
// load starts warning about it.
const expiryWarningWindow = 30 * 24 * time.Hour

// LoadCertifiedKey loads and validates a PEM certificate/key pair. The
// returned certificate carries its parsed leaf. Expired or not-yet-valid
// certificates are an error; certificates within the warning window load
// with a warning.
func LoadCertifiedKey(certFile, keyFile string, logger *slog.Logger) (*tls.Certificate, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load certificate %q: %w", certFile, err)
	}

	if len(cert.Certificate) == 0 {
		return nil, fmt.Errorf("certificate %q has an empty chain", certFile)
	}

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate %q: %w", certFile, err)
	}
	cert.Leaf = leaf

	if err := validateLeaf(leaf); err != nil {
		return nil, fmt.Errorf("certificate %q: %w", certFile, err)
	}

	if remaining := time.Until(leaf.NotAfter); remaining < expiryWarningWindow {
		logger.Warn("certificate expiring soon",
			"cert_file", certFile,
			"subject", leaf.Subject.CommonName,
			"expires_at", leaf.NotAfter.Format(time.RFC3339),
		)
	} else {
		logger.Info("certificate loaded",
			"cert_file", certFile,
			"subject", leaf.Subject.CommonName,
			"expires_at", leaf.NotAfter.Format(time.RFC3339),
		)
	}

	return &cert, nil
}

// validateLeaf checks the leaf certificate's validity window.
func validateLeaf(leaf *x509.Certificate) error {
	now := time.Now()

	if now.Before(leaf.NotBefore) {
		return fmt.Errorf("certificate is not yet valid (valid from %s)", leaf.NotBefore.Format(time.RFC3339))
	}
	if now.After(leaf.NotAfter) {
		return fmt.Errorf("certificate expired on %s", leaf.NotAfter.Format(time.RFC3339))
	}

	return nil
}
