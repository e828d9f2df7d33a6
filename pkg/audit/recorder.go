package audit

import (
	"context"
	"log/slog"
	"sync"

	"github.com/panicbit/oauth-gateway/pkg/telemetry/metrics"
)

// Recorder decouples request handling from audit persistence: handlers
// push records into a buffered channel and a single writer goroutine
// drains it into the store. A full buffer drops the record and counts the
// drop; recording never blocks or fails a request. A nil *Recorder is a
// no-op, so callers do not guard the audit-disabled case.
type Recorder struct {
	store   *Store
	records chan Record
	logger  *slog.Logger
	metrics *metrics.Metrics

	closeOnce sync.Once
	done      chan struct{}
}

// NewRecorder creates a recorder over store with the given buffer size.
func NewRecorder(store *Store, bufferSize int, logger *slog.Logger, m *metrics.Metrics) *Recorder {
	return &Recorder{
		store:   store,
		records: make(chan Record, bufferSize),
		logger:  logger,
		metrics: m,
		done:    make(chan struct{}),
	}
}

// Start runs the writer goroutine until Close is called, then drains
// whatever the buffer still holds.
func (r *Recorder) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case rec := <-r.records:
				r.write(ctx, rec)
			case <-r.done:
				for {
					select {
					case rec := <-r.records:
						r.write(context.Background(), rec)
					default:
						return
					}
				}
			}
		}
	}()
}

// Record enqueues one access record, dropping it when the buffer is full.
func (r *Recorder) Record(rec Record) {
	if r == nil {
		return
	}

	select {
	case r.records <- rec:
	default:
		r.metrics.RecordAuditDropped()
	}
}

// Close stops the writer after the buffer drains.
func (r *Recorder) Close() {
	if r == nil {
		return
	}
	r.closeOnce.Do(func() { close(r.done) })
}

func (r *Recorder) write(ctx context.Context, rec Record) {
	if err := r.store.Insert(ctx, rec); err != nil {
		r.logger.Error("failed to write access record", "request_id", rec.ID, "error", err)
	}
}
