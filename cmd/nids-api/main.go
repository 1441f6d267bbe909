package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"NetSentry/internal/config"
	"NetSentry/internal/model"
	"NetSentry/internal/notification"
	"NetSentry/internal/policy"
	"NetSentry/internal/store"
	"NetSentry/internal/stream"
	"NetSentry/internal/transport"

	"github.com/gorilla/mux"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the configuration file.")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ingestStore := store.New(cfg.Store.MaxRecent, cfg.Store.MaxAlerts, store.AnomalyAlertPolicy)
	hub := stream.NewHub()

	var notifier model.Notifier
	if cfg.SMTP.Host != "" {
		notifier = notification.NewEmailNotifier(cfg.SMTP)
		log.Println("Email notifier enabled.")
	}

	h := &APIHandler{
		store:       ingestStore,
		hub:         hub,
		notifier:    notifier,
		sensitivity: policy.NewThreshold(cfg.Sensitivity),
	}

	// Optional NATS ingest path alongside HTTP.
	if cfg.API.NATSIngest {
		sub, err := transport.NewSubscriber(cfg.API.NATS)
		if err != nil {
			log.Fatalf("Failed to create NATS subscriber: %v", err)
		}
		defer sub.Close()
		if err := sub.Start(func(batch []model.LogRecord) {
			h.ingest(batch)
		}); err != nil {
			log.Fatalf("NATS subscriber failed to start: %v", err)
		}
	}

	server := &http.Server{
		Addr:    cfg.API.ListenAddr,
		Handler: h.routes(),
	}

	go func() {
		log.Printf("API server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v", server.Addr, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("API server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("API server exited.")
}

// APIHandler holds the dependencies for API handlers.
type APIHandler struct {
	store       *store.Store
	hub         *stream.Hub
	notifier    model.Notifier
	sensitivity *policy.Threshold
}

// routes builds the API router. Every store-backed route goes through
// requireStore so they all fail the same way when the store is not wired.
func (h *APIHandler) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/traffic/ingest", h.requireStore(h.ingestHandler)).Methods("POST")
	r.HandleFunc("/api/traffic/live", h.requireStore(h.liveTrafficHandler)).Methods("GET")
	r.HandleFunc("/api/traffic/ws", h.hub.ServeWS)
	r.HandleFunc("/api/analytics/trends", h.requireStore(h.trendsHandler)).Methods("GET")
	r.HandleFunc("/api/packet/{id:[0-9]+}", h.requireStore(h.packetDetailHandler)).Methods("GET")
	r.HandleFunc("/api/alerts/history", h.requireStore(h.alertHistoryHandler)).Methods("GET")
	r.HandleFunc("/api/alerts/action", h.requireStore(h.alertActionHandler)).Methods("POST")
	r.HandleFunc("/api/settings", h.settingsHandler).Methods("POST")
	return r
}

// requireStore rejects requests with 502 while the ingestion store is not
// available.
func (h *APIHandler) requireStore(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.store == nil {
			writeJSON(w, http.StatusBadGateway, map[string]string{"message": "ingestion store unavailable"})
			return
		}
		next(w, r)
	}
}

// ingest appends a batch, feeds the live feed and notifies on new alerts.
func (h *APIHandler) ingest(batch []model.LogRecord) []int64 {
	ids, alerts := h.store.Append(batch)
	for i, rec := range batch {
		rec.ID = ids[i]
		h.hub.Broadcast(rec)
	}
	if len(alerts) > 0 && h.notifier != nil {
		go func() {
			subject := fmt.Sprintf("NetSentry Intrusion Alerts (%d new)", len(alerts))
			if err := h.notifier.Send(subject, notification.AlertBody(alerts)); err != nil {
				log.Printf("ERROR: Failed to send alert notification: %v", err)
			}
		}()
	}
	return ids
}

func (h *APIHandler) ingestHandler(w http.ResponseWriter, r *http.Request) {
	var req transport.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": fmt.Sprintf("failed to decode request: %v", err)})
		return
	}

	ids := h.ingest(req.Logs)
	writeJSON(w, http.StatusCreated, transport.IngestResponse{
		Message: fmt.Sprintf("Batch ingested %d packets successfully.", len(ids)),
		IDs:     ids,
	})
}

func (h *APIHandler) liveTrafficHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"logs":        h.store.Recent(),
		"sensitivity": h.sensitivity.Load(),
	})
}

func (h *APIHandler) trendsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Stats())
}

func (h *APIHandler) packetDetailHandler(w http.ResponseWriter, r *http.Request) {
	var id int64
	if _, err := fmt.Sscanf(mux.Vars(r)["id"], "%d", &id); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid packet id"})
		return
	}

	rec, err := h.store.ByID(id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"message": fmt.Sprintf("Packet ID %d not found in recent logs.", id),
			"details": nil,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("Packet %d found.", id),
		"details": rec,
	})
}

func (h *APIHandler) alertHistoryHandler(w http.ResponseWriter, r *http.Request) {
	status := model.AlertStatus(r.URL.Query().Get("status"))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": h.store.Alerts(status),
	})
}

func (h *APIHandler) alertActionHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AlertID int64  `json:"alert_id"`
		Action  string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": fmt.Sprintf("failed to decode request: %v", err)})
		return
	}

	// Idempotent: unknown alerts and repeated actions are both no-ops.
	h.store.ProcessAlert(req.AlertID)
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Action '%s' processed for Alert ID %d. Status updated.", req.Action, req.AlertID),
	})
}

func (h *APIHandler) settingsHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Sensitivity *float64 `json:"sensitivity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": fmt.Sprintf("failed to decode request: %v", err)})
		return
	}
	if req.Sensitivity != nil {
		if *req.Sensitivity < 0 || *req.Sensitivity > 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "sensitivity must be in [0,1]"})
			return
		}
		h.sensitivity.Store(*req.Sensitivity)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Settings saved successfully.",
		"sensitivity": h.sensitivity.Load(),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
