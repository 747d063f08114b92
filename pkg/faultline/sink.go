// sink.go defines the Sink interface for event delivery backends.

package faultline

import "context"

// Sink is the destination a transport delivers finalized events to.
// Implementations must be safe for concurrent use.
type Sink interface {
	// Write delivers a finalized event. Called after preparation, off the
	// capture path.
	Write(ctx context.Context, event *Event) error

	// Flush ensures any buffered events are delivered.
	// For synchronous sinks, this may be a no-op.
	Flush(ctx context.Context) error

	// Close releases resources held by the sink.
	// After Close is called, Write and Flush should return errors.
	Close() error
}
