package model

import (
	"fmt"
	"math"

	"github.com/meghraj-labs/auris/internal/domain"
)

// TrainedModel is a decision-forest classifier loaded from an artifact.
// Read-only after load; safe for unsynchronized concurrent inference.
type TrainedModel struct {
	artifact *Artifact
}

// NewTrainedModel wraps a validated artifact.
func NewTrainedModel(a *Artifact) *TrainedModel {
	return &TrainedModel{artifact: a}
}

// Infer standardizes the vector through the model's scaler and averages the
// AI-class probability across all trees. A shape mismatch or a non-finite
// score is an inference error, surfaced as ClassifierFailure upstream.
func (m *TrainedModel) Infer(v domain.FeatureVector) (float64, error) {
	values := v.Values()
	if len(values) != len(m.artifact.FeatureNames) {
		return 0, fmt.Errorf("feature vector has %d values, model %s expects %d",
			len(values), m.artifact.Version, len(m.artifact.FeatureNames))
	}

	scaled := m.artifact.Scaler.Apply(values)

	sum := 0.0
	for i, tree := range m.artifact.Trees {
		p, err := tree.eval(scaled)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", i, err)
		}
		sum += p
	}
	score := sum / float64(len(m.artifact.Trees))

	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, fmt.Errorf("model %s produced non-finite score", m.artifact.Version)
	}
	return score, nil
}

// Version implements Handle.
func (m *TrainedModel) Version() string { return m.artifact.Version }

// Calibration implements Handle.
func (m *TrainedModel) Calibration() *Curve { return m.artifact.Calibration }

// Language returns the language the model was trained for, or "" for the
// global model.
func (m *TrainedModel) Language() string { return m.artifact.Language }
