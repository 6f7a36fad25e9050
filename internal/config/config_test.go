package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.RequestTimeout != 10*time.Second {
		t.Errorf("request timeout = %s, want 10s", cfg.Server.RequestTimeout)
	}
	if cfg.Audio.MaxBytes != 2*1024*1024 {
		t.Errorf("max bytes = %d, want 2MiB", cfg.Audio.MaxBytes)
	}
	if cfg.Audio.MinDuration != 0.5 || cfg.Audio.MaxDuration != 30.0 {
		t.Errorf("duration bounds = [%f, %f], want [0.5, 30]", cfg.Audio.MinDuration, cfg.Audio.MaxDuration)
	}
	if cfg.RateLimit.Capacity != 10 || cfg.RateLimit.Window != time.Minute {
		t.Errorf("rate limit = %d/%s, want 10/60s", cfg.RateLimit.Capacity, cfg.RateLimit.Window)
	}
	if cfg.Classifier.Threshold != 0.5 {
		t.Errorf("threshold = %f, want 0.5", cfg.Classifier.Threshold)
	}
	if !cfg.Classifier.DefaultHeuristicWeights() {
		t.Error("default weights should be reported as default")
	}
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "auris.yaml")
	content := []byte("server:\n  port: 9090\naudio:\n  max_bytes: 1048576\nclassifier:\n  threshold: 0.6\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Audio.MaxBytes != 1048576 {
		t.Errorf("max bytes = %d, want 1048576", cfg.Audio.MaxBytes)
	}
	if cfg.Classifier.Threshold != 0.6 {
		t.Errorf("threshold = %f, want 0.6", cfg.Classifier.Threshold)
	}
	// Untouched keys keep their defaults.
	if cfg.Audio.SampleRate != 16000 {
		t.Errorf("sample rate = %d, want 16000", cfg.Audio.SampleRate)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load with missing file should not fail: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want default 8080", cfg.Server.Port)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("AURIS_SERVER__PORT", "7070")
	t.Setenv("AURIS_RATE_LIMIT__CAPACITY", "3")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d, want 7070 from env", cfg.Server.Port)
	}
	if cfg.RateLimit.Capacity != 3 {
		t.Errorf("capacity = %d, want 3 from env", cfg.RateLimit.Capacity)
	}
}

func TestValidateRejectsBadWeights(t *testing.T) {
	t.Setenv("AURIS_CLASSIFIER__PITCH_WEIGHT", "0.9")

	if _, err := Load(""); err == nil {
		t.Fatal("expected error for weights not summing to 1.0")
	}
}

func TestValidateRejectsBadBounds(t *testing.T) {
	t.Setenv("AURIS_AUDIO__MIN_DURATION", "40")

	if _, err := Load(""); err == nil {
		t.Fatal("expected error for min duration above max")
	}
}
