package tlsmgr

import (
	"context"
	"crypto/tls"
	"testing"
	"time"
)

func TestReloader_SwapsRenewedCertificate(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeCertFiles(t, dir, "api.example",
		time.Now().Add(-time.Hour), time.Now().Add(365*24*time.Hour))

	logger := discardLogger()
	manager := NewManager()

	cert, err := LoadCertifiedKey(certFile, keyFile, logger)
	if err != nil {
		t.Fatalf("failed to load initial certificate: %v", err)
	}
	if err := manager.AddCertifiedKey("127.0.0.1:8443", "api.example", cert); err != nil {
		t.Fatalf("failed to register: %v", err)
	}
	initialSerial := cert.Leaf.SerialNumber

	reloader, err := NewReloader(manager, logger)
	if err != nil {
		t.Fatalf("failed to create reloader: %v", err)
	}
	if err := reloader.Watch(Entry{
		ListenAddr: "127.0.0.1:8443",
		ServerName: "api.example",
		CertFile:   certFile,
		KeyFile:    keyFile,
	}); err != nil {
		t.Fatalf("failed to watch: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reloader.Start(ctx)

	// Renew in place: overwrite both files with a fresh pair.
	writeCertFiles(t, dir, "api.example",
		time.Now().Add(-time.Hour), time.Now().Add(365*24*time.Hour))

	resolver := manager.Resolver("127.0.0.1:8443")
	hello := &tls.ClientHelloInfo{ServerName: "api.example"}

	deadline := time.After(5 * time.Second)
	for {
		got, err := resolver.GetCertificate(hello)
		if err != nil {
			t.Fatalf("lookup failed: %v", err)
		}
		if got.Leaf != nil && got.Leaf.SerialNumber.Cmp(initialSerial) != 0 {
			return // renewed certificate is live
		}

		select {
		case <-deadline:
			t.Fatal("certificate was not reloaded within the deadline")
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func TestReloader_BadRenewalKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeCertFiles(t, dir, "api.example",
		time.Now().Add(-time.Hour), time.Now().Add(365*24*time.Hour))

	logger := discardLogger()
	manager := NewManager()

	cert, err := LoadCertifiedKey(certFile, keyFile, logger)
	if err != nil {
		t.Fatalf("failed to load initial certificate: %v", err)
	}
	if err := manager.AddCertifiedKey("127.0.0.1:8443", "api.example", cert); err != nil {
		t.Fatalf("failed to register: %v", err)
	}

	reloader, err := NewReloader(manager, logger)
	if err != nil {
		t.Fatalf("failed to create reloader: %v", err)
	}
	if err := reloader.Watch(Entry{
		ListenAddr: "127.0.0.1:8443",
		ServerName: "api.example",
		CertFile:   certFile,
		KeyFile:    keyFile,
	}); err != nil {
		t.Fatalf("failed to watch: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reloader.Start(ctx)

	// A garbage renewal must not dislodge the working certificate.
	reloader.reload(Entry{
		ListenAddr: "127.0.0.1:8443",
		ServerName: "api.example",
		CertFile:   "no/such.pem",
		KeyFile:    "no/such.key",
	})

	resolver := manager.Resolver("127.0.0.1:8443")
	got, err := resolver.GetCertificate(&tls.ClientHelloInfo{ServerName: "api.example"})
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got != cert {
		t.Error("previous certificate should remain active after a failed reload")
	}
}
