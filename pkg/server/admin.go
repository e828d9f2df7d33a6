package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/panicbit/oauth-gateway/pkg/telemetry/health"
	"github.com/panicbit/oauth-gateway/pkg/telemetry/metrics"
)

// AdminServer serves the operational endpoints (/metrics, /healthz,
// /readyz) on their own plaintext listener, separate from the proxy
// sockets.
type AdminServer struct {
	srv    *http.Server
	logger *slog.Logger
}

// NewAdminServer builds the admin endpoint for listenAddr. The metrics
// handler is omitted when metrics are disabled.
func NewAdminServer(listenAddr string, m *metrics.Metrics, checker *health.Checker, logger *slog.Logger) *AdminServer {
	mux := http.NewServeMux()
	if m != nil {
		mux.Handle("/metrics", m.Handler())
	}
	mux.HandleFunc("/healthz", checker.LivenessHandler())
	mux.HandleFunc("/readyz", checker.ReadinessHandler())

	return &AdminServer{
		srv: &http.Server{
			Addr:              listenAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Start binds the admin listener and serves in the background. Bind
// failure is returned synchronously and is fatal at startup.
func (a *AdminServer) Start() error {
	ln, err := net.Listen("tcp", a.srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to bind admin endpoint: %w", err)
	}

	a.logger.Info("admin endpoint listening", "listen", a.srv.Addr)

	go func() {
		if err := a.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("admin endpoint stopped", "error", err)
		}
	}()

	return nil
}

// Shutdown gracefully stops the admin endpoint.
func (a *AdminServer) Shutdown(ctx context.Context) error {
	return a.srv.Shutdown(ctx)
}
