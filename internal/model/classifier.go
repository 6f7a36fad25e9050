// Package model holds the classification stage: the model registry, the
// built-in heuristic, trained decision-forest inference, and confidence
// calibration.
package model

import (
	"github.com/meghraj-labs/auris/internal/domain"
)

// Classifier turns a feature vector into a raw AI-likelihood score in
// [0, 1]. An error from Infer on a well-formed vector indicates a
// configuration defect (vector/scaler mismatch), never bad input.
type Classifier interface {
	Infer(v domain.FeatureVector) (float64, error)
}

// Handle is a resolved classifier for a language: a trained model with its
// scaler and calibration curve, or the always-available heuristic.
type Handle interface {
	Classifier

	// Version identifies the model for result attribution ("heuristic"
	// or the trained artifact's version).
	Version() string

	// Calibration returns the probability calibration curve, or nil when
	// raw scores are used directly.
	Calibration() *Curve
}

// LabelFor projects a calibrated confidence onto the binary label.
func LabelFor(confidence, threshold float64) domain.Label {
	if confidence >= threshold {
		return domain.LabelAIGenerated
	}
	return domain.LabelHuman
}
