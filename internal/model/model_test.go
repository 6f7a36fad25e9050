package model

import (
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/meghraj-labs/auris/internal/config"
	"github.com/meghraj-labs/auris/internal/domain"
)

func defaultClassifierConfig() config.ClassifierConfig {
	return config.ClassifierConfig{
		Threshold:      0.5,
		PitchWeight:    0.45,
		ZCRWeight:      0.25,
		SpectralWeight: 0.20,
		FlatnessWeight: 0.10,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stumpArtifact builds a one-tree model: f0_var (feature 1, scaled
// identity) <= 0.5 predicts AI with probability pAI, else pHuman.
func stumpArtifact(lang string, pAI, pHuman float64) *Artifact {
	return &Artifact{
		Language:     lang,
		ModelType:    "RandomForestClassifier",
		Version:      "1.0",
		FeatureNames: domain.FeatureNames,
		Scaler: Scaler{
			Mean:  []float64{0, 0, 0, 0, 0},
			Scale: []float64{1, 1, 1, 1, 1},
		},
		Trees: []Tree{{Nodes: []Node{
			{Feature: 1, Threshold: 250, Left: 1, Right: 2},
			{Feature: -1, Value: pAI},
			{Feature: -1, Value: pHuman},
		}}},
	}
}

func writeArtifact(t *testing.T, dir, key string, a *Artifact) {
	t.Helper()
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "model_"+key+".json"), data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func aiLikeVector() domain.FeatureVector {
	// Stable pitch, low ZCR, narrow peaky spectrum.
	return domain.FeatureVector{Duration: 3, PitchVariance: 10, ZeroCrossingRate: 0.04, SpectralVariance: 500, SpectralFlatness: 0.1}
}

func humanLikeVector() domain.FeatureVector {
	// High pitch movement, busy spectrum.
	return domain.FeatureVector{Duration: 3, PitchVariance: 1500, ZeroCrossingRate: 0.45, SpectralVariance: 12000, SpectralFlatness: 0.8}
}

func TestHeuristicScoresAILike(t *testing.T) {
	h := NewHeuristic(defaultClassifierConfig())
	score, err := h.Infer(aiLikeVector())
	if err != nil {
		t.Fatal(err)
	}
	if score < 0.5 {
		t.Errorf("AI-like vector scored %f, want >= 0.5", score)
	}
}

func TestHeuristicScoresHumanLike(t *testing.T) {
	h := NewHeuristic(defaultClassifierConfig())
	score, err := h.Infer(humanLikeVector())
	if err != nil {
		t.Fatal(err)
	}
	if score >= 0.5 {
		t.Errorf("human-like vector scored %f, want < 0.5", score)
	}
}

func TestHeuristicVersionMarksTunedWeights(t *testing.T) {
	h := NewHeuristic(defaultClassifierConfig())
	if h.Version() != "heuristic" {
		t.Errorf("version = %q, want heuristic", h.Version())
	}

	tuned := defaultClassifierConfig()
	tuned.PitchWeight, tuned.ZCRWeight = 0.5, 0.2
	h = NewHeuristic(tuned)
	if h.Version() != "heuristic-tuned" {
		t.Errorf("version = %q, want heuristic-tuned", h.Version())
	}
}

func TestTrainedModelInfer(t *testing.T) {
	m := NewTrainedModel(stumpArtifact("en", 0.9, 0.1))

	score, err := m.Infer(aiLikeVector())
	if err != nil {
		t.Fatal(err)
	}
	if score != 0.9 {
		t.Errorf("AI-like score = %f, want 0.9", score)
	}

	score, err = m.Infer(humanLikeVector())
	if err != nil {
		t.Fatal(err)
	}
	if score != 0.1 {
		t.Errorf("human-like score = %f, want 0.1", score)
	}
}

func TestTrainedModelRejectsShapeMismatch(t *testing.T) {
	a := stumpArtifact("en", 0.9, 0.1)
	a.FeatureNames = []string{"duration", "f0_var"}
	a.Scaler = Scaler{Mean: []float64{0, 0}, Scale: []float64{1, 1}}
	m := NewTrainedModel(a)

	if _, err := m.Infer(aiLikeVector()); err == nil {
		t.Fatal("expected shape mismatch error")
	}
}

func TestTreeEvalDetectsCycles(t *testing.T) {
	tree := Tree{Nodes: []Node{
		{Feature: 0, Threshold: 0, Left: 0, Right: 0}, // self-loop
	}}
	if _, err := tree.eval([]float64{1, 2, 3, 4, 5}); err == nil {
		t.Fatal("expected cycle detection error")
	}
}

func TestRegistryResolutionOrder(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "ta", stumpArtifact("ta", 0.9, 0.1))
	writeArtifact(t, dir, "global", stumpArtifact("", 0.8, 0.2))

	cfg := defaultClassifierConfig()
	cfg.ModelDir = dir
	r := NewRegistry(cfg, discardLogger())

	// Per-language model wins.
	if h := r.Resolve("ta"); h.Version() != "1.0" {
		t.Errorf("ta resolved to %q", h.Version())
	}
	if m, ok := r.Resolve("ta").(*TrainedModel); !ok || m.Language() != "ta" {
		t.Error("ta should resolve to the Tamil model")
	}

	// No per-language model: global.
	if m, ok := r.Resolve("hi").(*TrainedModel); !ok || m.Language() != "" {
		t.Error("hi should resolve to the global model")
	}
}

func TestRegistryFallsBackToHeuristic(t *testing.T) {
	cfg := defaultClassifierConfig()
	cfg.ModelDir = t.TempDir() // empty
	r := NewRegistry(cfg, discardLogger())

	h := r.Resolve("en")
	if h.Version() != HeuristicVersion {
		t.Errorf("empty registry resolved %q, want heuristic", h.Version())
	}
}

func TestRegistryMissingDirDoesNotFail(t *testing.T) {
	cfg := defaultClassifierConfig()
	cfg.ModelDir = filepath.Join(t.TempDir(), "does-not-exist")
	r := NewRegistry(cfg, discardLogger())

	if r.Resolve("en").Version() != HeuristicVersion {
		t.Error("missing model dir must degrade to heuristic")
	}
}

func TestRegistrySkipsCorruptArtifact(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "model_en.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	writeArtifact(t, dir, "ta", stumpArtifact("ta", 0.9, 0.1))

	cfg := defaultClassifierConfig()
	cfg.ModelDir = dir
	r := NewRegistry(cfg, discardLogger())

	if r.Resolve("en").Version() != HeuristicVersion {
		t.Error("corrupt en artifact must fall back to heuristic")
	}
	if _, ok := r.Resolve("ta").(*TrainedModel); !ok {
		t.Error("healthy ta artifact must still load")
	}
	if langs := r.Languages(); len(langs) != 1 || langs[0] != "ta" {
		t.Errorf("Languages() = %v, want [ta]", langs)
	}
}

func TestCurveApply(t *testing.T) {
	c := &Curve{X: []float64{0, 0.5, 1}, Y: []float64{0.1, 0.6, 0.9}}
	if err := c.validate(); err != nil {
		t.Fatal(err)
	}

	cases := []struct{ in, want float64 }{
		{-1, 0.1},    // clamp below
		{0, 0.1},     // first knot
		{0.25, 0.35}, // interpolated
		{0.5, 0.6},   // exact knot
		{0.75, 0.75}, // interpolated
		{2, 0.9},     // clamp above
	}
	for _, tc := range cases {
		if got := c.Apply(tc.in); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("Apply(%f) = %f, want %f", tc.in, got, tc.want)
		}
	}
}

func TestCalibrateRoundsAndClamps(t *testing.T) {
	h := NewHeuristic(defaultClassifierConfig())
	if got := Calibrate(0.12345, h); got != 0.123 {
		t.Errorf("Calibrate raw = %f, want 0.123", got)
	}
	if got := Calibrate(1.7, h); got != 1.0 {
		t.Errorf("Calibrate overflow = %f, want 1.0", got)
	}
	if got := Calibrate(-0.2, h); got != 0.0 {
		t.Errorf("Calibrate underflow = %f, want 0.0", got)
	}
}

func TestCalibrateUsesModelCurve(t *testing.T) {
	a := stumpArtifact("en", 0.9, 0.1)
	a.Calibration = &Curve{X: []float64{0, 1}, Y: []float64{0.25, 0.75}}
	m := NewTrainedModel(a)

	// raw 0.9 maps linearly to 0.25 + 0.9*0.5 = 0.7
	if got := Calibrate(0.9, m); got != 0.7 {
		t.Errorf("calibrated = %f, want 0.7", got)
	}
}

func TestLabelFor(t *testing.T) {
	if LabelFor(0.5, 0.5) != domain.LabelAIGenerated {
		t.Error("confidence == threshold must label AI_GENERATED")
	}
	if LabelFor(0.499, 0.5) != domain.LabelHuman {
		t.Error("confidence below threshold must label HUMAN")
	}
	if LabelFor(1.0, 0.5) != domain.LabelAIGenerated {
		t.Error("confidence 1.0 must label AI_GENERATED")
	}
}

func TestArtifactValidation(t *testing.T) {
	a := stumpArtifact("en", 0.9, 0.1)
	a.Scaler.Mean = []float64{0}
	if err := a.validate(); err == nil {
		t.Error("mismatched scaler should fail validation")
	}

	a = stumpArtifact("en", 0.9, 0.1)
	a.Trees = nil
	if err := a.validate(); err == nil {
		t.Error("empty forest should fail validation")
	}

	a = stumpArtifact("en", 0.9, 0.1)
	a.Calibration = &Curve{X: []float64{1, 0}, Y: []float64{0, 1}}
	if err := a.validate(); err == nil {
		t.Error("unsorted calibration knots should fail validation")
	}
}
