package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"NetSentry/internal/model"
	"NetSentry/internal/policy"
	"NetSentry/internal/store"
	"NetSentry/internal/stream"
)

func newTestHandler(st *store.Store) *APIHandler {
	return &APIHandler{
		store:       st,
		hub:         stream.NewHub(),
		sensitivity: policy.NewThreshold(0.5),
	}
}

func TestStoreBackedRoutesRejectMissingStore(t *testing.T) {
	h := newTestHandler(nil)
	srv := httptest.NewServer(h.routes())
	defer srv.Close()

	requests := []struct {
		method, path, body string
	}{
		{"POST", "/api/traffic/ingest", `{"logs":[]}`},
		{"GET", "/api/traffic/live", ""},
		{"GET", "/api/analytics/trends", ""},
		{"GET", "/api/packet/1", ""},
		{"GET", "/api/alerts/history", ""},
		{"POST", "/api/alerts/action", `{"alert_id":1,"action":"acknowledge"}`},
	}
	for _, rq := range requests {
		req, err := http.NewRequest(rq.method, srv.URL+rq.path, strings.NewReader(rq.body))
		if err != nil {
			t.Fatalf("%s %s: failed to build request: %v", rq.method, rq.path, err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("%s %s: request failed: %v", rq.method, rq.path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadGateway {
			t.Errorf("%s %s: expected 502 without a store, got %d", rq.method, rq.path, resp.StatusCode)
		}
	}
}

func TestLiveTrafficOnEmptyStore(t *testing.T) {
	h := newTestHandler(store.New(50, 0, store.AnomalyAlertPolicy))
	srv := httptest.NewServer(h.routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/traffic/live")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 from an empty store, got %d", resp.StatusCode)
	}

	var body struct {
		Logs        []model.LogRecord `json:"logs"`
		Sensitivity float64           `json:"sensitivity"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(body.Logs) != 0 {
		t.Errorf("Expected an empty log list, got %d entries", len(body.Logs))
	}
	if body.Sensitivity != 0.5 {
		t.Errorf("Expected sensitivity 0.5, got %f", body.Sensitivity)
	}
}

func TestIngestThenFetchPacketDetail(t *testing.T) {
	h := newTestHandler(store.New(50, 0, store.AnomalyAlertPolicy))
	srv := httptest.NewServer(h.routes())
	defer srv.Close()

	payload := `{"logs":[{"src_ip":"10.0.0.1","dst_ip":"8.8.8.8","protocol":"TCP","classification":"Normal","confidence":0.9}]}`
	resp, err := http.Post(srv.URL+"/api/traffic/ingest", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("Ingest request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201 from ingest, got %d", resp.StatusCode)
	}

	detail, err := http.Get(srv.URL + "/api/packet/1")
	if err != nil {
		t.Fatalf("Detail request failed: %v", err)
	}
	detail.Body.Close()
	if detail.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 for an ingested packet, got %d", detail.StatusCode)
	}

	missing, err := http.Get(srv.URL + "/api/packet/999")
	if err != nil {
		t.Fatalf("Detail request failed: %v", err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for an unknown packet id, got %d", missing.StatusCode)
	}
}
