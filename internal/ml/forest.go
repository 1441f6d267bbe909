package ml

import (
	"encoding/gob"
	"fmt"
	"os"

	"NetSentry/internal/model"
)

// Node is a single decision node. Feature < 0 marks a leaf, whose vote is
// Anomaly. Internal nodes branch left when feature < Threshold.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Anomaly   bool
}

// Tree is one decision tree, stored as a flat node slice rooted at index 0.
type Tree struct {
	Nodes []Node
}

// vote walks the tree for one feature vector and returns the leaf verdict.
func (t Tree) vote(fv model.FeatureVector) bool {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n.Anomaly
		}
		if fv[n.Feature] < n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Artifact is the serialized classifier blob produced by scripts/modelgen.
// FeatureNames records the training-time feature order and must match
// model.FeatureOrder exactly.
type Artifact struct {
	FeatureNames []string
	Trees        []Tree
}

// LoadArtifact reads and validates a gob-encoded forest from disk.
func LoadArtifact(path string) (*Artifact, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model artifact: %w", err)
	}
	defer file.Close()

	var art Artifact
	if err := gob.NewDecoder(file).Decode(&art); err != nil {
		return nil, fmt.Errorf("failed to decode model artifact: %w", err)
	}
	if err := art.validate(); err != nil {
		return nil, fmt.Errorf("invalid model artifact %s: %w", path, err)
	}
	return &art, nil
}

func (a *Artifact) validate() error {
	if len(a.FeatureNames) != model.NumFeatures {
		return fmt.Errorf("expected %d features, artifact has %d", model.NumFeatures, len(a.FeatureNames))
	}
	for i, name := range a.FeatureNames {
		if name != model.FeatureOrder[i] {
			return fmt.Errorf("feature order mismatch at %d: artifact %q, runtime %q", i, name, model.FeatureOrder[i])
		}
	}
	if len(a.Trees) == 0 {
		return fmt.Errorf("artifact contains no trees")
	}
	for ti, tree := range a.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", ti)
		}
		for ni, n := range tree.Nodes {
			if n.Feature >= model.NumFeatures {
				return fmt.Errorf("tree %d node %d references feature %d", ti, ni, n.Feature)
			}
			if n.Feature >= 0 && (n.Left < 0 || n.Left >= len(tree.Nodes) || n.Right < 0 || n.Right >= len(tree.Nodes)) {
				return fmt.Errorf("tree %d node %d has out-of-range children", ti, ni)
			}
		}
	}
	return nil
}
