package ml

import (
	"log"

	"NetSentry/internal/model"
)

// Engine wraps the pre-trained forest and performs real-time inference.
// When no usable artifact is available it runs degraded: every prediction
// is {Normal, 0.0} and capture continues regardless.
type Engine struct {
	forest *Artifact // nil when degraded
}

// NewEngine loads the model artifact once at startup. A missing or
// malformed artifact is logged and the engine starts degraded instead of
// failing the pipeline.
func NewEngine(path string) *Engine {
	art, err := LoadArtifact(path)
	if err != nil {
		log.Printf("ml: no usable model, running degraded (all predictions Normal): %v", err)
		return &Engine{}
	}
	log.Printf("ml: loaded model from %s (%d trees)", path, len(art.Trees))
	return &Engine{forest: art}
}

// Degraded reports whether the engine is running without a model.
func (e *Engine) Degraded() bool {
	return e.forest == nil
}

// Predict classifies one feature vector. The forest votes; confidence is
// the vote share of the reported label. Any internal failure is caught and
// mapped to the degraded default rather than propagated.
func (e *Engine) Predict(fv model.FeatureVector) (res model.ClassificationResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ml: prediction failure for features %v: %v", fv, r)
			res = model.ClassificationResult{Label: model.LabelNormal, Confidence: 0}
		}
	}()

	if e.forest == nil {
		return model.ClassificationResult{Label: model.LabelNormal, Confidence: 0}
	}
	if len(fv) != model.NumFeatures {
		log.Printf("ml: rejected feature vector of length %d", len(fv))
		return model.ClassificationResult{Label: model.LabelNormal, Confidence: 0}
	}

	votes := 0
	for _, tree := range e.forest.Trees {
		if tree.vote(fv) {
			votes++
		}
	}
	p := float64(votes) / float64(len(e.forest.Trees))
	if p >= 0.5 {
		return model.ClassificationResult{Label: model.LabelAnomaly, Confidence: p}
	}
	return model.ClassificationResult{Label: model.LabelNormal, Confidence: 1 - p}
}
