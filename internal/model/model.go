package model

import (
	"time"
)

// FeatureOrder is the fixed feature order shared by the training path
// (scripts/modelgen) and the inference path (internal/ml). The classifier
// artifact records this order and the engine refuses artifacts that do not
// match it; a silent mismatch would corrupt every prediction.
var FeatureOrder = [...]string{"protocol", "length", "ttl", "flags_count"}

// NumFeatures is the length of every feature vector.
const NumFeatures = len(FeatureOrder)

// FeatureVector is a numeric summary of a single packet, ordered per
// FeatureOrder. Immutable once produced by the extractor.
type FeatureVector []float64

// Label is the binary classification outcome.
type Label int

const (
	LabelNormal  Label = 0
	LabelAnomaly Label = 1
)

func (l Label) String() string {
	if l == LabelAnomaly {
		return "Anomaly"
	}
	return "Normal"
}

// ClassificationResult pairs a label with the probability mass the
// classifier assigned to that label (not necessarily to Anomaly).
type ClassificationResult struct {
	Label      Label
	Confidence float64
}

// LogRecord is one enriched, classified packet as it travels from the
// sniffer to the ingestion store. ID is zero until the store assigns it.
type LogRecord struct {
	ID             int64         `json:"id"`
	Timestamp      time.Time     `json:"timestamp"`
	SrcIP          string        `json:"src_ip"`
	DstIP          string        `json:"dst_ip"`
	Protocol       string        `json:"protocol"`
	Size           int           `json:"size"`
	Flags          string        `json:"flags"`
	Classification string        `json:"classification"`
	Confidence     float64       `json:"confidence"`
	RawData        string        `json:"raw_data,omitempty"` // base64 of the captured bytes
	Features       FeatureVector `json:"ml_features,omitempty"`
}

// AlertStatus is the lifecycle state of an alert. Transitions New ->
// Processed exactly once and never back.
type AlertStatus string

const (
	AlertStatusNew       AlertStatus = "New"
	AlertStatusProcessed AlertStatus = "Processed"
)

// AlertRecord is the durable signal derived from an anomalous log record.
// PacketID references a LogRecord id; the record itself may already have
// been evicted from the retention window.
type AlertRecord struct {
	AlertID    int64       `json:"alert_id"`
	PacketID   int64       `json:"packet_id"`
	Timestamp  time.Time   `json:"timestamp"`
	SrcIP      string      `json:"src_ip"`
	AttackType string      `json:"attack_type"`
	Confidence float64     `json:"confidence"`
	Status     AlertStatus `json:"status"`
}
