// transport.go defines the delivery channel contract and the bounded-queue
// transport that implements it over any sink.

package faultline

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Transport accepts ownership of finalized events and delivers them
// asynchronously. Implementations must be safe for concurrent use.
type Transport interface {
	// DSN returns the endpoint this transport is attached to, or nil when it
	// delivers somewhere that has no DSN (spool, cxdb, stderr).
	DSN() *DSN

	// SendEvent takes ownership of a finalized event and returns its
	// identifier without waiting for delivery. Must be fast; the real work
	// happens on the transport's worker.
	SendEvent(event *Event) uuid.UUID

	// Drain blocks until all queued events were delivered or the timeout
	// elapsed. A timeout of zero or less blocks indefinitely. It returns
	// whether the queue was empty at return time.
	Drain(timeout time.Duration) bool

	// Close stops the delivery worker and releases the underlying sink.
	Close() error
}

// TransportOption configures a queue transport.
type TransportOption func(*transportConfig)

type transportConfig struct {
	queueSize int
	onDropped func(count int)
	logger    *slog.Logger
}

// WithQueueSize sets the maximum number of queued events (default: 1000).
func WithQueueSize(size int) TransportOption {
	return func(c *transportConfig) {
		if size > 0 {
			c.queueSize = size
		}
	}
}

// WithOnDropped sets a callback invoked when events are dropped due to queue
// overflow.
func WithOnDropped(fn func(count int)) TransportOption {
	return func(c *transportConfig) {
		c.onDropped = fn
	}
}

// WithTransportLogger sets the logger for delivery diagnostics.
func WithTransportLogger(logger *slog.Logger) TransportOption {
	return func(c *transportConfig) {
		c.logger = logger
	}
}

// queueTransport delivers events to a sink through a bounded queue.
// SendEvent returns immediately; when the queue is full, the oldest event is
// dropped to make room.
type queueTransport struct {
	dsn       *DSN
	sink      Sink
	queue     chan *Event
	pending   atomic.Int64
	done      chan struct{}
	closeOnce sync.Once
	closeMu   sync.Mutex
	closed    bool
	wg        sync.WaitGroup
	onDropped func(count int)
	logger    *slog.Logger
}

// NewHTTPTransport creates the standard transport: a bounded queue in front
// of an HTTP sink posting events to the DSN's ingest URL.
func NewHTTPTransport(dsn *DSN, clientAgent string, opts ...TransportOption) Transport {
	cfg := applyTransportOptions(opts)
	sink := newHTTPSink(dsn, clientAgent, cfg.logger)
	return newQueueTransport(dsn, sink, cfg)
}

// NewSinkTransport creates a transport that runs the same bounded queue over
// an arbitrary sink. dsn may be nil for backends that have no endpoint.
func NewSinkTransport(dsn *DSN, sink Sink, opts ...TransportOption) Transport {
	return newQueueTransport(dsn, sink, applyTransportOptions(opts))
}

func applyTransportOptions(opts []TransportOption) *transportConfig {
	cfg := &transportConfig{
		queueSize: 1000,
		logger:    slog.Default().With("component", "faultline.transport"),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func newQueueTransport(dsn *DSN, sink Sink, cfg *transportConfig) *queueTransport {
	t := &queueTransport{
		dsn:       dsn,
		sink:      sink,
		queue:     make(chan *Event, cfg.queueSize),
		done:      make(chan struct{}),
		onDropped: cfg.onDropped,
		logger:    cfg.logger,
	}

	t.wg.Add(1)
	go t.processLoop()

	return t
}

// DSN returns the endpoint this transport is attached to.
func (t *queueTransport) DSN() *DSN {
	return t.dsn
}

// SendEvent assigns the event its identifier and enqueues it for delivery.
// Returns uuid.Nil when the transport is already closed.
func (t *queueTransport) SendEvent(event *Event) uuid.UUID {
	t.closeMu.Lock()
	if t.closed {
		t.closeMu.Unlock()
		return uuid.Nil
	}
	t.closeMu.Unlock()

	id := stampEvent(event)

	t.pending.Add(1)
	select {
	case t.queue <- event:
	default:
		t.dropOldestAndEnqueue(event)
	}
	return id
}

// stampEvent fills the event identity fields that must exist before delivery
// and returns the event's UUID.
func stampEvent(event *Event) uuid.UUID {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.EventID != "" {
		if id, err := uuid.Parse(event.EventID); err == nil {
			return id
		}
	}
	id := uuid.New()
	event.EventID = id.String()
	return id
}

// dropOldestAndEnqueue drops the oldest queued event and enqueues the new one.
func (t *queueTransport) dropOldestAndEnqueue(event *Event) {
	select {
	case <-t.queue:
		t.pending.Add(-1)
		t.noteDropped(1)
	default:
		// Queue was emptied by the worker in the meantime.
	}

	select {
	case t.queue <- event:
	default:
		// Still full, drop the new event instead.
		t.pending.Add(-1)
		t.noteDropped(1)
	}
}

func (t *queueTransport) noteDropped(count int) {
	if t.onDropped != nil {
		t.onDropped(count)
	}
	if t.logger != nil {
		t.logger.Warn("event queue full, dropping events", "count", count)
	}
}

// processLoop drains the queue and writes to the sink.
func (t *queueTransport) processLoop() {
	defer t.wg.Done()
	for {
		select {
		case event, ok := <-t.queue:
			if !ok {
				return
			}
			t.deliver(event)
		case <-t.done:
			// Drain remaining events before shutting down.
			for {
				select {
				case event, ok := <-t.queue:
					if !ok {
						return
					}
					t.deliver(event)
				default:
					return
				}
			}
		}
	}
}

func (t *queueTransport) deliver(event *Event) {
	defer t.pending.Add(-1)
	if err := t.sink.Write(context.Background(), event); err != nil && t.logger != nil {
		t.logger.Warn("event delivery failed", "event_id", event.EventID, "error", err)
	}
}

// Drain blocks until all queued events were delivered or the timeout elapsed.
func (t *queueTransport) Drain(timeout time.Duration) bool {
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return t.pending.Load() == 0
		case <-ticker.C:
			if t.pending.Load() == 0 {
				if err := t.sink.Flush(ctx); err != nil {
					return false
				}
				return true
			}
		}
	}
}

// Close stops the worker, drains what it can, and closes the sink.
func (t *queueTransport) Close() error {
	t.closeOnce.Do(func() {
		t.closeMu.Lock()
		t.closed = true
		t.closeMu.Unlock()

		close(t.done)
		t.wg.Wait()
		close(t.queue)
	})

	return t.sink.Close()
}
