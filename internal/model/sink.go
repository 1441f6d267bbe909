package model

import "context"

// Sink delivers a batch of enriched records to a downstream consumer.
// Delivery is best-effort: callers drop the batch on error and never retry.
type Sink interface {
	// Deliver attempts to hand off the batch within the context's deadline.
	Deliver(ctx context.Context, batch []LogRecord) error

	// Close releases the sink's underlying connection, if any.
	Close()
}
