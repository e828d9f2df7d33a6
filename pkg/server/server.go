package server

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/panicbit/oauth-gateway/pkg/gateway/listener"
	"github.com/panicbit/oauth-gateway/pkg/gateway/proxy"
	"github.com/panicbit/oauth-gateway/pkg/security/tlsmgr"
	"github.com/panicbit/oauth-gateway/pkg/telemetry/metrics"
)

// shutdownGrace bounds how long in-flight requests get to finish once
// shutdown begins.
const shutdownGrace = 30 * time.Second

// Supervisor owns the accept loop: it pops accepted connections off the
// shared queue, terminates TLS where the listen address calls for it, and
// hands each connection to an HTTP/1 server that invokes the request
// handler. Per-connection faults (handshake failures, protocol errors)
// never poison the loop.
type Supervisor struct {
	listeners *listener.Manager
	tls       *tlsmgr.Manager
	handler   http.Handler
	logger    *slog.Logger
	metrics   *metrics.Metrics

	mu    sync.Mutex
	https map[string]*addrServer

	wg sync.WaitGroup
}

// addrServer is the HTTP server for one listen address, fed by the
// supervisor through a connListener.
type addrServer struct {
	srv *http.Server
	ln  *connListener
}

// NewSupervisor wires the accept loop to its collaborators.
func NewSupervisor(
	listeners *listener.Manager,
	tlsManager *tlsmgr.Manager,
	handler http.Handler,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Supervisor {
	return &Supervisor{
		listeners: listeners,
		tls:       tlsManager,
		handler:   handler,
		logger:    logger,
		metrics:   m,
		https:     make(map[string]*addrServer),
	}
}

// Run accepts connections until ctx is cancelled, then shuts down:
// listeners stop first, the queue drains, and in-flight requests get the
// grace period to finish. It returns nil on orderly shutdown.
func (s *Supervisor) Run(ctx context.Context) error {
	for {
		accepted, err := s.listeners.Accept(ctx)
		if err != nil {
			// Context cancelled: the only way Accept fails.
			s.shutdown()
			return nil
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(ctx, accepted)
		}()
	}
}

// handleConn prepares one accepted connection and delivers it to the
// address's HTTP server.
func (s *Supervisor) handleConn(ctx context.Context, accepted listener.Accepted) {
	conn := accepted.Conn
	info := proxy.ConnInfo{ListenAddr: accepted.ListenAddr}

	if tlsConfig := s.tls.Config(accepted.ListenAddr); tlsConfig != nil {
		tlsConn := tls.Server(conn, tlsConfig)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			s.metrics.RecordHandshakeFailure(accepted.ListenAddr)
			s.logger.Warn("tls handshake failed",
				"listen", accepted.ListenAddr,
				"client_addr", accepted.RemoteAddr.String(),
				"error", err,
			)
			conn.Close()
			return
		}
		info.ServerName = tlsConn.ConnectionState().ServerName
		conn = tlsConn
	}

	if !s.addrServerFor(accepted).ln.deliver(&gatewayConn{Conn: conn, info: info}) {
		conn.Close()
	}
}

// addrServerFor returns the HTTP server for the accepted connection's
// listen address, starting it on first use.
func (s *Supervisor) addrServerFor(accepted listener.Accepted) *addrServer {
	s.mu.Lock()
	defer s.mu.Unlock()

	if as, ok := s.https[accepted.ListenAddr]; ok {
		return as
	}

	ln := newConnListener(dummyAddr(accepted.ListenAddr))
	as := &addrServer{
		ln: ln,
		srv: &http.Server{
			Handler: s.handler,
			ConnContext: func(ctx context.Context, c net.Conn) context.Context {
				if gc, ok := c.(*gatewayConn); ok {
					return proxy.ContextWithConnInfo(ctx, gc.info)
				}
				return ctx
			},
		},
	}
	s.https[accepted.ListenAddr] = as

	go func() {
		if err := as.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server stopped", "listen", accepted.ListenAddr, "error", err)
		}
	}()

	return as
}

// shutdown stops the listeners, waits for queued connections to land, and
// gracefully drains the HTTP servers.
func (s *Supervisor) shutdown() {
	s.logger.Info("shutting down")

	s.listeners.Shutdown()
	s.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	s.mu.Lock()
	servers := make([]*addrServer, 0, len(s.https))
	for _, as := range s.https {
		servers = append(servers, as)
	}
	s.mu.Unlock()

	for _, as := range servers {
		if err := as.srv.Shutdown(ctx); err != nil {
			s.logger.Warn("forced http server shutdown", "error", err)
			as.srv.Close()
		}
	}
}

// dummyAddr satisfies net.Listener.Addr for the connListener; the real
// socket belongs to the Listener that accepted the connection.
type dummyAddr string

func (a dummyAddr) Network() string { return "tcp" }
func (a dummyAddr) String() string  { return string(a) }
