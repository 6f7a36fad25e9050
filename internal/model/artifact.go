package model

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// Artifact is the on-disk JSON representation of a trained classifier:
// a standardizing scaler, an ensemble of decision trees, and an optional
// probability calibration curve.
type Artifact struct {
	Language     string             `json:"language"`
	ModelType    string             `json:"model_type"`
	Version      string             `json:"version"`
	FeatureNames []string           `json:"feature_names"`
	Scaler       Scaler             `json:"scaler"`
	Trees        []Tree             `json:"trees"`
	Calibration  *Curve             `json:"calibration,omitempty"`
	Metrics      map[string]float64 `json:"metrics,omitempty"`
}

// Scaler standardizes a raw feature vector: (x - mean) / scale.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Apply standardizes values in place into a new slice.
func (s Scaler) Apply(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, x := range values {
		sc := s.Scale[i]
		if sc == 0 {
			sc = 1
		}
		out[i] = (x - s.Mean[i]) / sc
	}
	return out
}

// Tree is one decision tree stored as a flat node array. Index 0 is the
// root. Leaves have Feature == -1 and carry the AI-class probability.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Node is a single split or leaf.
type Node struct {
	// Feature indexes the scaled vector, or -1 for a leaf.
	Feature int `json:"feature"`

	// Threshold splits: values <= Threshold go Left, else Right.
	Threshold float64 `json:"threshold"`

	Left  int `json:"left"`
	Right int `json:"right"`

	// Value is the leaf's AI-class probability. Unused on split nodes.
	Value float64 `json:"value"`
}

// eval walks the tree for one scaled vector.
func (t Tree) eval(scaled []float64) (float64, error) {
	idx := 0
	for steps := 0; steps <= len(t.Nodes); steps++ {
		if idx < 0 || idx >= len(t.Nodes) {
			return 0, fmt.Errorf("tree walk escaped node array at index %d", idx)
		}
		n := t.Nodes[idx]
		if n.Feature < 0 {
			return n.Value, nil
		}
		if n.Feature >= len(scaled) {
			return 0, fmt.Errorf("node references feature %d, vector has %d", n.Feature, len(scaled))
		}
		if scaled[n.Feature] <= n.Threshold {
			idx = n.Left
		} else {
			idx = n.Right
		}
	}
	return 0, fmt.Errorf("tree walk did not terminate (cycle in node links)")
}

// LoadArtifact reads and validates one model artifact file.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model artifact: %w", err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to parse model artifact %s: %w", path, err)
	}
	if err := a.validate(); err != nil {
		return nil, fmt.Errorf("invalid model artifact %s: %w", path, err)
	}
	return &a, nil
}

func (a *Artifact) validate() error {
	n := len(a.FeatureNames)
	if n == 0 {
		return fmt.Errorf("no feature names")
	}
	if len(a.Scaler.Mean) != n || len(a.Scaler.Scale) != n {
		return fmt.Errorf("scaler dimensions (%d, %d) do not match %d features",
			len(a.Scaler.Mean), len(a.Scaler.Scale), n)
	}
	if len(a.Trees) == 0 {
		return fmt.Errorf("no trees")
	}
	for i, t := range a.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", i)
		}
	}
	if a.Calibration != nil {
		if err := a.Calibration.validate(); err != nil {
			return err
		}
	}
	for _, m := range a.Scaler.Mean {
		if math.IsNaN(m) || math.IsInf(m, 0) {
			return fmt.Errorf("scaler contains non-finite values")
		}
	}
	if a.Version == "" {
		a.Version = "1.0"
	}
	return nil
}
