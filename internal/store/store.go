package store

import (
	"errors"
	"sort"
	"sync"

	"NetSentry/internal/model"
)

// ErrNotFound is returned when a record id is outside the retained window.
var ErrNotFound = errors.New("record not found")

// AlertPolicy decides whether a newly ingested record produces an alert and
// with which attack type.
type AlertPolicy func(rec model.LogRecord) (attackType string, ok bool)

// AnomalyAlertPolicy is the production policy: alerts are derived only from
// records classified as Anomaly, with the attack type inferred from the
// packet shape.
func AnomalyAlertPolicy(rec model.LogRecord) (string, bool) {
	if rec.Classification != model.LabelAnomaly.String() {
		return "", false
	}
	if len(rec.Features) == model.NumFeatures && rec.Features[3] >= 3 {
		return "Port Scan", true
	}
	if rec.Size >= 1200 {
		return "DDoS", true
	}
	return "Suspicious Traffic", true
}

// Store is the bounded ingestion store: the single shared-mutable-state
// boundary between the capture/emitter path and the reporting path. It is
// the only writer of record ids and alert lifecycle transitions.
type Store struct {
	mu        sync.RWMutex
	maxRecent int
	maxAlerts int
	policy    AlertPolicy

	nextID      int64
	nextAlertID int64
	records     []model.LogRecord
	alerts      []model.AlertRecord
}

// New creates a store retaining the maxRecent most recent records.
// maxAlerts of 0 keeps alerts unbounded. A nil policy derives no alerts.
func New(maxRecent, maxAlerts int, policy AlertPolicy) *Store {
	if maxRecent <= 0 {
		maxRecent = 50
	}
	return &Store{
		maxRecent: maxRecent,
		maxAlerts: maxAlerts,
		policy:    policy,
	}
}

// Append assigns strictly increasing ids to the incoming records in call
// order, appends them to the retained window, truncates the window to the
// most recent N entries and derives alerts, all as one atomic unit. It
// returns the assigned ids and any alerts created.
func (s *Store) Append(records []model.LogRecord) ([]int64, []model.AlertRecord) {
	if len(records) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(records))
	var created []model.AlertRecord

	for _, rec := range records {
		s.nextID++
		rec.ID = s.nextID
		s.records = append(s.records, rec)
		ids = append(ids, rec.ID)

		if s.policy == nil {
			continue
		}
		if attackType, ok := s.policy(rec); ok {
			s.nextAlertID++
			alert := model.AlertRecord{
				AlertID:    s.nextAlertID,
				PacketID:   rec.ID,
				Timestamp:  rec.Timestamp,
				SrcIP:      rec.SrcIP,
				AttackType: attackType,
				Confidence: rec.Confidence,
				Status:     model.AlertStatusNew,
			}
			s.alerts = append(s.alerts, alert)
			created = append(created, alert)
		}
	}

	// Evict oldest records first, regardless of classification.
	if len(s.records) > s.maxRecent {
		s.records = s.records[len(s.records)-s.maxRecent:]
	}
	if s.maxAlerts > 0 && len(s.alerts) > s.maxAlerts {
		s.alerts = capAlerts(s.alerts, s.maxAlerts)
	}

	return ids, created
}

// capAlerts trims the alert log to max entries, evicting the oldest
// Processed alerts first so unacknowledged alerts survive the cap as long
// as possible. Only when every remaining alert is still New does it fall
// back to evicting the oldest alerts outright.
func capAlerts(alerts []model.AlertRecord, max int) []model.AlertRecord {
	drop := len(alerts) - max
	kept := make([]model.AlertRecord, 0, max)
	for _, a := range alerts {
		if drop > 0 && a.Status == model.AlertStatusProcessed {
			drop--
			continue
		}
		kept = append(kept, a)
	}
	if drop > 0 {
		kept = kept[drop:]
	}
	return kept
}

// Recent returns a copy of the retained window, oldest first.
func (s *Store) Recent() []model.LogRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.LogRecord, len(s.records))
	copy(out, s.records)
	return out
}

// ByID returns the retained record with the given id, or ErrNotFound if it
// was never ingested or has been evicted from the window.
func (s *Store) ByID(id int64) (model.LogRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return model.LogRecord{}, ErrNotFound
}

// Alerts returns alerts filtered by status, oldest first. An empty status
// returns all alerts.
func (s *Store) Alerts(status model.AlertStatus) []model.AlertRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.AlertRecord, 0, len(s.alerts))
	for _, a := range s.alerts {
		if status == "" || a.Status == status {
			out = append(out, a)
		}
	}
	return out
}

// ProcessAlert transitions an alert from New to Processed. The transition
// happens at most once; calls for already-processed or unknown alerts are
// no-ops. It reports whether the alert exists.
func (s *Store) ProcessAlert(alertID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.alerts {
		if s.alerts[i].AlertID == alertID {
			if s.alerts[i].Status == model.AlertStatusNew {
				s.alerts[i].Status = model.AlertStatusProcessed
			}
			return true
		}
	}
	return false
}

// CountEntry is one key/count pair in a stats breakdown.
type CountEntry struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Stats summarizes the retained window for the analytics surface.
type Stats struct {
	Classifications []CountEntry `json:"classification_stats"`
	Protocols       []CountEntry `json:"protocol_stats"`
	TopSources      []CountEntry `json:"ip_stats"`
}

// Stats computes classification, protocol and top-source breakdowns over
// the retained window.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	classifications := make(map[string]int)
	protocols := make(map[string]int)
	sources := make(map[string]int)
	for _, rec := range s.records {
		classifications[rec.Classification]++
		protocols[rec.Protocol]++
		sources[rec.SrcIP]++
	}

	return Stats{
		Classifications: sortedCounts(classifications, 0),
		Protocols:       sortedCounts(protocols, 0),
		TopSources:      sortedCounts(sources, 10),
	}
}

// sortedCounts flattens a count map into entries sorted by descending
// count; limit > 0 truncates the result.
func sortedCounts(counts map[string]int, limit int) []CountEntry {
	entries := make([]CountEntry, 0, len(counts))
	for k, v := range counts {
		entries = append(entries, CountEntry{Key: k, Count: v})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Key < entries[j].Key
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
