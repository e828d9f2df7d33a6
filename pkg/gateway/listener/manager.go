package listener

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/panicbit/oauth-gateway/pkg/telemetry/metrics"
)

// AcceptQueueCapacity bounds the number of accepted connections waiting
// for the supervisor. When the queue is full, accept loops block, which
// stalls TCP accept and lets the kernel push back on new connections.
const AcceptQueueCapacity = 100

// Manager multiplexes several Listeners onto a single accept queue and
// owns their lifecycle. Many listeners send; one supervisor receives.
type Manager struct {
	queue   chan Accepted
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu        sync.Mutex
	listeners map[string]*Listener
}

// NewManager creates a listener manager with an empty listener set.
func NewManager(logger *slog.Logger, m *metrics.Metrics) *Manager {
	return &Manager{
		queue:     make(chan Accepted, AcceptQueueCapacity),
		logger:    logger,
		metrics:   m,
		listeners: make(map[string]*Listener),
	}
}

// StartListeningOn starts a listener on addr, sharing the accept queue.
// A second call with the same address is a no-op. Bind failure is
// returned to the caller and leaves the listener set unchanged.
func (m *Manager) StartListeningOn(addr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.listeners[addr]; ok {
		return nil
	}

	l, err := Start(addr, m.queue, m.logger, m.metrics)
	if err != nil {
		return fmt.Errorf("failed to start listener: %w", err)
	}

	m.listeners[addr] = l
	m.logger.Info("listening", "listen", addr)

	return nil
}

// StopListeningOn shuts down and removes the listener for addr. Unknown
// addresses are a no-op. The listener's accept loop is drained outside
// the table lock.
func (m *Manager) StopListeningOn(addr string) {
	m.mu.Lock()
	l, ok := m.listeners[addr]
	delete(m.listeners, addr)
	m.mu.Unlock()

	if ok {
		l.Shutdown()
		m.logger.Info("stopped listening", "listen", addr)
	}
}

// BoundAddr returns the actual bound address for a configured listen
// address. They differ when the configuration asked for port 0.
func (m *Manager) BoundAddr(addr string) (net.Addr, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.listeners[addr]
	if !ok {
		return nil, false
	}
	return l.Addr(), true
}

// Accept dequeues the next accepted connection, FIFO across all
// listeners. It returns the context's error when ctx is cancelled.
func (m *Manager) Accept(ctx context.Context) (Accepted, error) {
	select {
	case accepted := <-m.queue:
		m.metrics.SetAcceptQueueDepth(len(m.queue))
		return accepted, nil
	case <-ctx.Done():
		return Accepted{}, ctx.Err()
	}
}

// Shutdown stops every listener and waits for their accept loops to
// drain. Connections already in the queue stay there for the supervisor
// to drain or discard.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	listeners := make([]*Listener, 0, len(m.listeners))
	for _, l := range m.listeners {
		listeners = append(listeners, l)
	}
	m.listeners = make(map[string]*Listener)
	m.mu.Unlock()

	for _, l := range listeners {
		l.Shutdown()
	}
}
