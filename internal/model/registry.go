package model

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/meghraj-labs/auris/internal/config"
	"github.com/meghraj-labs/auris/internal/domain"
)

// Artifact file names follow the training pipeline convention:
// model_<lang>.json per language, model_global.json for the global model.
const (
	artifactPrefix = "model_"
	artifactSuffix = ".json"
	globalKey      = "global"
)

// Registry resolves the classifier for a language. It is populated once at
// startup and never mutated afterwards, so lookups need no synchronization.
type Registry struct {
	perLanguage map[string]*TrainedModel
	global      *TrainedModel
	heuristic   *Heuristic
}

// NewRegistry loads trained artifacts from cfg.ModelDir and builds the
// resolution table. An artifact that fails to load is logged as a warning
// and skipped: absence of trained models degrades to the heuristic, it
// never prevents startup.
func NewRegistry(cfg config.ClassifierConfig, logger *slog.Logger) *Registry {
	r := &Registry{
		perLanguage: make(map[string]*TrainedModel),
		heuristic:   NewHeuristic(cfg),
	}

	entries, err := os.ReadDir(cfg.ModelDir)
	if err != nil {
		logger.Warn("model directory unavailable, serving heuristic only",
			slog.String("dir", cfg.ModelDir),
			slog.String("error", err.Error()))
		return r
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != artifactSuffix {
			continue
		}
		key, ok := artifactKey(name)
		if !ok {
			continue
		}

		artifact, err := LoadArtifact(filepath.Join(cfg.ModelDir, name))
		if err != nil {
			logger.Warn("failed to load model artifact, falling back",
				slog.String("file", name),
				slog.String("error", err.Error()))
			continue
		}

		m := NewTrainedModel(artifact)
		if key == globalKey {
			r.global = m
		} else if domain.IsSupportedLanguage(key) {
			r.perLanguage[key] = m
		} else {
			logger.Warn("ignoring model for unsupported language",
				slog.String("file", name),
				slog.String("language", key))
			continue
		}
		logger.Info("loaded model artifact",
			slog.String("language", key),
			slog.String("type", artifact.ModelType),
			slog.String("version", artifact.Version),
			slog.Int("trees", len(artifact.Trees)),
			slog.Bool("calibrated", artifact.Calibration != nil))
	}

	return r
}

// artifactKey extracts the language key from "model_<key>.json".
func artifactKey(name string) (string, bool) {
	base := name[:len(name)-len(artifactSuffix)]
	if len(base) <= len(artifactPrefix) || base[:len(artifactPrefix)] != artifactPrefix {
		return "", false
	}
	return base[len(artifactPrefix):], true
}

// Resolve returns the classifier handle for a language. Resolution order:
// per-language trained model, global trained model, heuristic. It never
// fails.
func (r *Registry) Resolve(language string) Handle {
	if m, ok := r.perLanguage[language]; ok {
		return m
	}
	if r.global != nil {
		return r.global
	}
	return r.heuristic
}

// Versions describes every loaded classifier for the stats surface, keyed
// by language ("global" and "heuristic" included), sorted for stable
// output.
func (r *Registry) Versions() map[string]string {
	out := map[string]string{"heuristic": r.heuristic.Version()}
	if r.global != nil {
		out[globalKey] = fmt.Sprintf("%s (%s)", r.global.Version(), r.global.artifact.ModelType)
	}
	for lang, m := range r.perLanguage {
		out[lang] = fmt.Sprintf("%s (%s)", m.Version(), m.artifact.ModelType)
	}
	return out
}

// Languages returns the languages with dedicated trained models, sorted.
func (r *Registry) Languages() []string {
	langs := make([]string, 0, len(r.perLanguage))
	for lang := range r.perLanguage {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}
