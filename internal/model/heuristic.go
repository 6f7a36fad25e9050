package model

import (
	"github.com/meghraj-labs/auris/internal/config"
	"github.com/meghraj-labs/auris/internal/domain"
)

// HeuristicVersion is the model_version reported for heuristic results.
const HeuristicVersion = "heuristic"

// Heuristic is the always-available fallback classifier. Synthetic voices
// tend to show unnaturally stable pitch, low zero-crossing rates and a
// narrow, peaky spectrum; the score is a fixed-weight blend of those cues:
//
//	raw = 0.45*pitch_stability + 0.25*(1-zcr) + 0.20*(1-spec_var) + 0.10*(1-flatness)
//
// with every term pre-normalized to [0, 1]. The weights are part of the
// classification contract: non-default weights are reported under a
// distinct version so historical results stay attributable.
type Heuristic struct {
	cfg     config.ClassifierConfig
	version string
}

// NewHeuristic creates the heuristic scorer from configured weights.
func NewHeuristic(cfg config.ClassifierConfig) *Heuristic {
	version := HeuristicVersion
	if !cfg.DefaultHeuristicWeights() {
		version = HeuristicVersion + "-tuned"
	}
	return &Heuristic{cfg: cfg, version: version}
}

// Infer scores the vector. The heuristic consumes normalized terms and
// cannot fail on a finite vector.
func (h *Heuristic) Infer(v domain.FeatureVector) (float64, error) {
	n := v.Normalized()
	score := h.cfg.PitchWeight*n.PitchStability +
		h.cfg.ZCRWeight*(1.0-n.ZeroCrossingRate) +
		h.cfg.SpectralWeight*(1.0-n.SpectralVariance) +
		h.cfg.FlatnessWeight*(1.0-n.SpectralFlatness)
	return clamp01(score), nil
}

// Version implements Handle.
func (h *Heuristic) Version() string { return h.version }

// Calibration implements Handle. Heuristic scores are already in [0, 1]
// and are used uncalibrated.
func (h *Heuristic) Calibration() *Curve { return nil }
