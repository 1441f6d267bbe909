package policy

import (
	"math"
	"sync/atomic"

	"NetSentry/internal/model"
)

// Threshold holds the live sensitivity value. It is written by the config
// watcher and read on every packet, so access goes through an atomic.
type Threshold struct {
	bits atomic.Uint64
}

// NewThreshold creates a threshold initialised to v.
func NewThreshold(v float64) *Threshold {
	t := &Threshold{}
	t.Store(v)
	return t
}

// Store replaces the sensitivity value.
func (t *Threshold) Store(v float64) {
	t.bits.Store(math.Float64bits(v))
}

// Load returns the sensitivity value currently in effect.
func (t *Threshold) Load() float64 {
	return math.Float64frombits(t.bits.Load())
}

// Apply downgrades a low-confidence Anomaly verdict to Normal. The returned
// confidence always refers to the returned label, so a flipped result
// carries 1 - original confidence. Normal verdicts pass through unchanged.
func Apply(res model.ClassificationResult, sensitivity float64) model.ClassificationResult {
	if res.Label == model.LabelAnomaly && res.Confidence < sensitivity {
		return model.ClassificationResult{
			Label:      model.LabelNormal,
			Confidence: 1 - res.Confidence,
		}
	}
	return res
}
