// Package config loads service configuration: built-in defaults, an
// optional YAML file, then AURIS_* environment overrides, in that order.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Auth       AuthConfig       `koanf:"auth"`
	Audio      AudioConfig      `koanf:"audio"`
	Classifier ClassifierConfig `koanf:"classifier"`
	RateLimit  RateLimitConfig  `koanf:"rate_limit"`
	Ledger     LedgerConfig     `koanf:"ledger"`
}

type ServerConfig struct {
	Port int `koanf:"port"`

	// RequestTimeout bounds the whole detect pipeline per request.
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

type AuthConfig struct {
	// KeyHashes are SHA-256 hex digests of accepted API keys. Empty
	// disables authentication (local development only).
	KeyHashes []string `koanf:"key_hashes"`
}

type AudioConfig struct {
	// MinBytes and MaxBytes bound the raw payload size.
	MinBytes int `koanf:"min_bytes"`
	MaxBytes int `koanf:"max_bytes"`

	// MinDuration and MaxDuration bound the decoded clip length, seconds.
	MinDuration float64 `koanf:"min_duration"`
	MaxDuration float64 `koanf:"max_duration"`

	// SampleRate is the canonical rate clips are resampled to.
	SampleRate int `koanf:"sample_rate"`

	// ExtractionTimeout bounds the feature-extraction stage.
	ExtractionTimeout time.Duration `koanf:"extraction_timeout"`
}

type ClassifierConfig struct {
	// ModelDir holds trained model artifacts. Empty or missing means the
	// heuristic serves every language.
	ModelDir string `koanf:"model_dir"`

	// Threshold is the confidence at or above which a clip is labeled
	// AI_GENERATED.
	Threshold float64 `koanf:"threshold"`

	// Heuristic term weights. Changing these changes classification
	// semantics; the reported model version marks non-default weights.
	PitchWeight    float64 `koanf:"pitch_weight"`
	ZCRWeight      float64 `koanf:"zcr_weight"`
	SpectralWeight float64 `koanf:"spectral_weight"`
	FlatnessWeight float64 `koanf:"flatness_weight"`
}

type RateLimitConfig struct {
	// Capacity is the number of admitted requests per caller per window.
	Capacity int `koanf:"capacity"`

	// Window is the trailing sliding-window length.
	Window time.Duration `koanf:"window"`
}

type LedgerConfig struct {
	// Path is the SQLite database file for detection history.
	Path string `koanf:"path"`

	// WriteTimeout bounds each ledger write transaction.
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

// defaults mirror the reference deployment: 2 MB / 100 B payload bounds,
// 0.5–30 s clips, 10 requests per 60 s, 10 s end-to-end budget.
var defaults = map[string]any{
	"server.port":                8080,
	"server.request_timeout":     "10s",
	"audio.min_bytes":            100,
	"audio.max_bytes":            2 * 1024 * 1024,
	"audio.min_duration":         0.5,
	"audio.max_duration":         30.0,
	"audio.sample_rate":          16000,
	"audio.extraction_timeout":   "5s",
	"classifier.model_dir":       "./models",
	"classifier.threshold":       0.5,
	"classifier.pitch_weight":    0.45,
	"classifier.zcr_weight":      0.25,
	"classifier.spectral_weight": 0.20,
	"classifier.flatness_weight": 0.10,
	"rate_limit.capacity":        10,
	"rate_limit.window":          "60s",
	"ledger.path":                "./data/detections.db",
	"ledger.write_timeout":       "2s",
}

// Load reads configuration. path names an optional YAML file; a missing
// file is not an error, a malformed one is.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	for key, val := range defaults {
		k.Set(key, val)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider("AURIS_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "AURIS_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Audio.MinBytes <= 0 || c.Audio.MaxBytes <= c.Audio.MinBytes {
		return fmt.Errorf("invalid audio size bounds: min=%d max=%d", c.Audio.MinBytes, c.Audio.MaxBytes)
	}
	if c.Audio.MinDuration <= 0 || c.Audio.MaxDuration <= c.Audio.MinDuration {
		return fmt.Errorf("invalid audio duration bounds: min=%f max=%f", c.Audio.MinDuration, c.Audio.MaxDuration)
	}
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", c.Audio.SampleRate)
	}
	if c.Classifier.Threshold < 0 || c.Classifier.Threshold > 1 {
		return fmt.Errorf("classifier threshold must be in [0,1], got %f", c.Classifier.Threshold)
	}
	if c.RateLimit.Capacity <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("invalid rate limit: capacity=%d window=%s", c.RateLimit.Capacity, c.RateLimit.Window)
	}
	sum := c.Classifier.PitchWeight + c.Classifier.ZCRWeight + c.Classifier.SpectralWeight + c.Classifier.FlatnessWeight
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("heuristic weights must sum to 1.0, got %f", sum)
	}
	return nil
}

// DefaultHeuristicWeights reports whether the configured weights match the
// documented defaults.
func (c *ClassifierConfig) DefaultHeuristicWeights() bool {
	return c.PitchWeight == 0.45 && c.ZCRWeight == 0.25 &&
		c.SpectralWeight == 0.20 && c.FlatnessWeight == 0.10
}
