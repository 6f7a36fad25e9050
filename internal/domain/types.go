// Package domain provides the canonical types shared by every stage of the
// detection pipeline: decoded audio, feature vectors, detection results and
// the error taxonomy.
package domain

import (
	"math"
	"time"
)

// Label is the binary classification verdict.
type Label string

const (
	// LabelAIGenerated indicates the clip is classified as synthetic speech.
	LabelAIGenerated Label = "AI_GENERATED"

	// LabelHuman indicates the clip is classified as human speech.
	LabelHuman Label = "HUMAN"
)

// SupportedLanguages is the closed set of language tags the service accepts.
var SupportedLanguages = map[string]string{
	"en": "English",
	"ta": "Tamil",
	"hi": "Hindi",
	"ml": "Malayalam",
	"te": "Telugu",
}

// IsSupportedLanguage reports whether lang is in the supported set.
func IsSupportedLanguage(lang string) bool {
	_, ok := SupportedLanguages[lang]
	return ok
}

// AudioClip is a decoded mono waveform, normalized to the canonical sample
// rate before feature extraction. It is owned by a single request and
// discarded once features have been extracted.
type AudioClip struct {
	// Samples are mono amplitudes in [-1, 1].
	Samples []float64

	// SampleRate in Hz. Always the canonical rate after validation.
	SampleRate int
}

// Duration returns the clip length in seconds.
func (c *AudioClip) Duration() float64 {
	if c.SampleRate <= 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate)
}

// FeatureVector is the fixed-length acoustic summary of a clip. Field order
// matters: trained model artifacts consume Values() in exactly this order.
type FeatureVector struct {
	// Duration of the clip in seconds.
	Duration float64

	// PitchVariance is the variance of the fundamental-frequency contour
	// over voiced frames. When no voiced frames are detected it is set to
	// UnvoicedPitchVariance so the pitch-stability term contributes zero.
	PitchVariance float64

	// ZeroCrossingRate is the mean per-frame rate of sign changes.
	ZeroCrossingRate float64

	// SpectralVariance is the variance of the per-frame spectral centroid.
	SpectralVariance float64

	// SpectralFlatness is the mean per-frame geometric-to-arithmetic mean
	// ratio of the power spectrum.
	SpectralFlatness float64
}

// UnvoicedPitchVariance is the finite pitch variance assigned when a clip
// contains no voiced frames. Large enough that every normalizer saturates.
const UnvoicedPitchVariance = 1e6

// FeatureNames lists the canonical feature ordering consumed by trained
// model scalers. Artifacts whose feature_names differ are rejected at load.
var FeatureNames = []string{
	"duration", "f0_var", "zcr_mean", "spec_centroid_var", "flatness_mean",
}

// Values returns the raw features in canonical order.
func (v FeatureVector) Values() []float64 {
	return []float64{
		v.Duration,
		v.PitchVariance,
		v.ZeroCrossingRate,
		v.SpectralVariance,
		v.SpectralFlatness,
	}
}

// Finite reports whether every feature value is finite. A non-finite vector
// is a hard extraction failure, never silently coerced.
func (v FeatureVector) Finite() bool {
	for _, x := range v.Values() {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// NormalizedTerms maps the raw features into the [0, 1] terms consumed by
// the heuristic scorer. The normalizers mirror the reference calibration:
// pitch variance saturates at 500, ZCR at 0.5, spectral variance at 5000.
type NormalizedTerms struct {
	PitchStability   float64 // 1 - min(f0_var, 500)/500
	ZeroCrossingRate float64 // min(zcr/0.5, 1)
	SpectralVariance float64 // min(spec_var/5000, 1)
	SpectralFlatness float64 // min(flatness, 1)
}

// Normalized returns the bounded heuristic terms for this vector.
func (v FeatureVector) Normalized() NormalizedTerms {
	return NormalizedTerms{
		PitchStability:   1.0 - math.Min(v.PitchVariance, 500.0)/500.0,
		ZeroCrossingRate: math.Min(v.ZeroCrossingRate/0.5, 1.0),
		SpectralVariance: math.Min(v.SpectralVariance/5000.0, 1.0),
		SpectralFlatness: math.Min(v.SpectralFlatness, 1.0),
	}
}

// DetectionResult is the immutable outcome of a successful detection.
type DetectionResult struct {
	// RequestID uniquely identifies the detection attempt.
	RequestID string `json:"request_id"`

	// Label is the thresholded projection of Confidence.
	Label Label `json:"result"`

	// Confidence is in [0, 1], rounded to three decimals.
	Confidence float64 `json:"confidence"`

	// Language is the caller-supplied language tag.
	Language string `json:"language"`

	// ModelVersion identifies the classifier that produced the score.
	ModelVersion string `json:"model_version"`

	// Latency is the end-to-end pipeline time for this request.
	Latency time.Duration `json:"-"`

	// Timestamp is when the verdict was produced.
	Timestamp time.Time `json:"timestamp"`
}
