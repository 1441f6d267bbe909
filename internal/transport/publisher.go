package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"NetSentry/internal/config"
	"NetSentry/internal/model"

	"github.com/nats-io/nats.go"
)

// Publisher delivers batches by publishing them to a NATS subject.
type Publisher struct {
	nc      *nats.Conn
	subject string
}

// NewPublisher connects to NATS and returns a publisher sink.
func NewPublisher(cfg config.NATSConfig) (*Publisher, error) {
	nc, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	log.Printf("Connected to NATS server at %s", cfg.URL)
	return &Publisher{nc: nc, subject: cfg.Subject}, nil
}

// Deliver serializes the batch to JSON and publishes it. The flush is
// bounded by the caller's context so a stalled broker degrades to a
// dropped batch instead of blocking capture.
func (p *Publisher) Deliver(ctx context.Context, batch []model.LogRecord) error {
	data, err := json.Marshal(IngestRequest{Logs: batch})
	if err != nil {
		return fmt.Errorf("failed to encode batch: %w", err)
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish batch: %w", err)
	}
	if err := p.nc.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush batch to NATS: %w", err)
	}
	return nil
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
		log.Println("NATS connection drained and closed.")
	}
}
