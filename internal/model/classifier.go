package model

// Classifier is the inference interface the capture pipeline depends on.
// Implementations must never panic outward: any internal failure maps to
// the degraded default {Normal, 0.0}.
type Classifier interface {
	Predict(features FeatureVector) ClassificationResult
}
