package main

import (
	"encoding/gob"
	"flag"
	"log"
	"os"
	"path/filepath"

	"NetSentry/internal/ml"
	"NetSentry/internal/model"
)

// Feature indexes per model.FeatureOrder.
const (
	featProtocol = 0
	featLength   = 1
	featTTL      = 2
	featFlags    = 3
)

// Writes a hand-built forest artifact for the inference engine. The trees
// encode simple traffic heuristics (flag floods, oversized packets, low
// TTLs); a real deployment would replace this with a forest trained on a
// labeled flow dataset, keeping the same artifact shape and feature order.
func main() {
	outputFile := flag.String("o", "models/forest.gob", "Output model artifact path")
	flag.Parse()

	art := &ml.Artifact{
		FeatureNames: model.FeatureOrder[:],
		Trees: []ml.Tree{
			stump(featFlags, 3),
			stump(featLength, 1200),
			invertedStump(featTTL, 33),
			{Nodes: []ml.Node{
				// flags >= 2 and length >= 900 -> anomaly
				{Feature: featFlags, Threshold: 2, Left: 1, Right: 2},
				leaf(false),
				{Feature: featLength, Threshold: 900, Left: 3, Right: 4},
				leaf(false),
				leaf(true),
			}},
			{Nodes: []ml.Node{
				// length >= 1400, or ttl < 17 -> anomaly
				{Feature: featLength, Threshold: 1400, Left: 1, Right: 2},
				{Feature: featTTL, Threshold: 17, Left: 3, Right: 4},
				leaf(true),
				leaf(true),
				leaf(false),
			}},
		},
	}

	if err := os.MkdirAll(filepath.Dir(*outputFile), 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}
	f, err := os.Create(*outputFile)
	if err != nil {
		log.Fatalf("Failed to create artifact file: %v", err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(art); err != nil {
		log.Fatalf("Failed to encode artifact: %v", err)
	}
	log.Printf("Wrote %d-tree forest artifact to %s (features: %v)", len(art.Trees), *outputFile, art.FeatureNames)
}

func leaf(anomaly bool) ml.Node {
	return ml.Node{Feature: -1, Anomaly: anomaly}
}

// stump votes anomaly when feature >= threshold.
func stump(feature int, threshold float64) ml.Tree {
	return ml.Tree{Nodes: []ml.Node{
		{Feature: feature, Threshold: threshold, Left: 1, Right: 2},
		leaf(false),
		leaf(true),
	}}
}

// invertedStump votes anomaly when feature < threshold.
func invertedStump(feature int, threshold float64) ml.Tree {
	return ml.Tree{Nodes: []ml.Node{
		{Feature: feature, Threshold: threshold, Left: 1, Right: 2},
		leaf(true),
		leaf(false),
	}}
}
