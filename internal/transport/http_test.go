package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"NetSentry/internal/config"
	"NetSentry/internal/model"
)

func TestHTTPSinkDeliversBatch(t *testing.T) {
	var received IngestRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected application/json, got %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("Failed to decode payload: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	sink, err := NewHTTPSink(config.HTTPSinkConfig{URL: server.URL, Timeout: "1s"})
	if err != nil {
		t.Fatalf("Failed to create sink: %v", err)
	}
	defer sink.Close()

	batch := []model.LogRecord{
		{SrcIP: "10.0.0.1", Classification: "Normal", Confidence: 0.9},
		{SrcIP: "10.0.0.2", Classification: "Anomaly", Confidence: 0.8},
	}
	if err := sink.Deliver(context.Background(), batch); err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}

	if len(received.Logs) != 2 {
		t.Fatalf("Expected 2 records in the payload, got %d", len(received.Logs))
	}
	if received.Logs[1].SrcIP != "10.0.0.2" || received.Logs[1].Classification != "Anomaly" {
		t.Errorf("Record did not survive the boundary: %+v", received.Logs[1])
	}
}

func TestHTTPSinkReportsServerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	sink, err := NewHTTPSink(config.HTTPSinkConfig{URL: server.URL, Timeout: "1s"})
	if err != nil {
		t.Fatalf("Failed to create sink: %v", err)
	}

	if err := sink.Deliver(context.Background(), []model.LogRecord{{SrcIP: "10.0.0.1"}}); err == nil {
		t.Error("Expected an error for a 500 response")
	}
}

func TestHTTPSinkReportsUnreachableEndpoint(t *testing.T) {
	sink, err := NewHTTPSink(config.HTTPSinkConfig{URL: "http://127.0.0.1:1/ingest", Timeout: "100ms"})
	if err != nil {
		t.Fatalf("Failed to create sink: %v", err)
	}

	if err := sink.Deliver(context.Background(), []model.LogRecord{{SrcIP: "10.0.0.1"}}); err == nil {
		t.Error("Expected an error for an unreachable endpoint")
	}
}

func TestNewHTTPSinkValidatesConfig(t *testing.T) {
	if _, err := NewHTTPSink(config.HTTPSinkConfig{URL: "", Timeout: "1s"}); err == nil {
		t.Error("Expected an error for an empty url")
	}
	if _, err := NewHTTPSink(config.HTTPSinkConfig{URL: "http://x", Timeout: "soon"}); err == nil {
		t.Error("Expected an error for an invalid timeout")
	}
}
