package listener

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/panicbit/oauth-gateway/pkg/telemetry/metrics"
)

// acceptRetryDelay is how long the accept loop sleeps after a transient
// accept failure before retrying.
const acceptRetryDelay = time.Second

// Accepted is one connection handed from a Listener to the supervisor.
// Ownership of Conn transfers with the value; whoever pops it from the
// queue is responsible for closing it.
type Accepted struct {
	// ListenAddr is the configured address of the accepting listener.
	ListenAddr string

	// RemoteAddr is the peer address.
	RemoteAddr net.Addr

	// Conn is the raw TCP connection.
	Conn net.Conn
}

// Listener owns one TCP listening socket. Its accept loop pushes accepted
// connections onto the shared queue; a full queue blocks the loop, which
// is the gateway's backpressure surface.
type Listener struct {
	listenAddr string
	ln         net.Listener
	queue      chan<- Accepted
	logger     *slog.Logger
	metrics    *metrics.Metrics

	shutdownOnce sync.Once
	shutdown     chan struct{}
	done         chan struct{}
}

// Start binds listenAddr and starts the accept loop. Bind failure is
// fatal for the listener; accept failures are not (the loop logs, sleeps,
// and retries). The listener never closes the queue.
func Start(listenAddr string, queue chan<- Accepted, logger *slog.Logger, m *metrics.Metrics) (*Listener, error) {
	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", listenAddr, err)
	}

	l := &Listener{
		listenAddr: listenAddr,
		ln:         ln,
		queue:      queue,
		logger:     logger.With("listen", listenAddr),
		metrics:    m,
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
	}

	go l.acceptLoop()

	return l, nil
}

// Addr returns the listener's bound address. It differs from the
// configured address when the configuration asked for port 0.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Shutdown stops the accept loop, cancelling a blocked accept, and waits
// for the loop to drain. It is safe to call more than once.
func (l *Listener) Shutdown() {
	l.shutdownOnce.Do(func() {
		close(l.shutdown)
		l.ln.Close()
	})
	<-l.done
}

func (l *Listener) acceptLoop() {
	defer close(l.done)

	for {
		conn, err := l.ln.Accept()
		if err != nil {
			select {
			case <-l.shutdown:
				return
			default:
			}

			if errors.Is(err, net.ErrClosed) {
				return
			}

			l.logger.Error("tcp accept failed", "error", err)
			select {
			case <-time.After(acceptRetryDelay):
				continue
			case <-l.shutdown:
				return
			}
		}

		accepted := Accepted{
			ListenAddr: l.listenAddr,
			RemoteAddr: conn.RemoteAddr(),
			Conn:       conn,
		}

		select {
		case l.queue <- accepted:
			l.metrics.RecordAccepted(l.listenAddr)
			l.metrics.SetAcceptQueueDepth(len(l.queue))
		case <-l.shutdown:
			conn.Close()
			return
		}
	}
}
