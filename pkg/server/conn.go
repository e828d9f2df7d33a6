package server

import (
	"net"
	"sync"

	"github.com/panicbit/oauth-gateway/pkg/gateway/proxy"
)

// gatewayConn wraps a (possibly TLS-terminated) connection together with
// the facts the request handler needs about it. The HTTP server's
// ConnContext hook unwraps it.
type gatewayConn struct {
	net.Conn
	info proxy.ConnInfo
}

// connListener adapts a channel of prepared connections to net.Listener,
// so the standard HTTP server can serve connections the supervisor has
// already accepted and handshaken. One connListener exists per listen
// address.
type connListener struct {
	addr  net.Addr
	conns chan net.Conn

	closeOnce sync.Once
	closed    chan struct{}
}

func newConnListener(addr net.Addr) *connListener {
	return &connListener{
		addr:   addr,
		conns:  make(chan net.Conn),
		closed: make(chan struct{}),
	}
}

// deliver hands a prepared connection to the HTTP server. It reports
// false when the listener is already closed; the caller then owns the
// connection and must close it.
func (l *connListener) deliver(conn net.Conn) bool {
	select {
	case l.conns <- conn:
		return true
	case <-l.closed:
		return false
	}
}

func (l *connListener) Accept() (net.Conn, error) {
	select {
	case conn := <-l.conns:
		return conn, nil
	case <-l.closed:
		return nil, net.ErrClosed
	}
}

func (l *connListener) Close() error {
	l.closeOnce.Do(func() { close(l.closed) })
	return nil
}

func (l *connListener) Addr() net.Addr {
	return l.addr
}
