package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"NetSentry/internal/config"
	"NetSentry/internal/model"
)

// IngestRequest is the JSON payload carried from the sniffer to the
// ingestion API, both over HTTP and over NATS.
type IngestRequest struct {
	Logs []model.LogRecord `json:"logs"`
}

// IngestResponse acknowledges a batch with the assigned record ids.
type IngestResponse struct {
	Message string  `json:"message"`
	IDs     []int64 `json:"ids"`
}

// HTTPSink delivers batches by POSTing them to the ingest endpoint.
type HTTPSink struct {
	url    string
	client *http.Client
}

// NewHTTPSink creates an HTTP sink for the configured ingest URL.
func NewHTTPSink(cfg config.HTTPSinkConfig) (*HTTPSink, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("http sink requires a url")
	}
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid http sink timeout: %w", err)
	}
	return &HTTPSink{
		url:    cfg.URL,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// Deliver POSTs the batch as JSON. Non-2xx responses count as failures so
// the caller drops the batch.
func (s *HTTPSink) Deliver(ctx context.Context, batch []model.LogRecord) error {
	body, err := json.Marshal(IngestRequest{Logs: batch})
	if err != nil {
		return fmt.Errorf("failed to encode batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build ingest request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("ingest request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("ingest endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Close implements model.Sink; the HTTP client holds no dedicated resources.
func (s *HTTPSink) Close() {}
