package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"confidence-engine/internal/signal"
	"confidence-engine/internal/vsa"
)

func writeWeights(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "weights.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestLoadWeightsFilePartial tests that omitted keys keep their defaults
func TestLoadWeightsFilePartial(t *testing.T) {
	path := writeWeights(t, "score:\n  vsa: 3.0\n")

	wf, err := LoadWeightsFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wf.Score.VSA != 3.0 {
		t.Errorf("expected overridden VSA weight 3.0, got %f", wf.Score.VSA)
	}
	if wf.Score.MACD != signal.DefaultScoreWeights().MACD {
		t.Errorf("expected default MACD weight, got %f", wf.Score.MACD)
	}
	if wf.Vsa.Activation != vsa.DefaultWeights().Activation {
		t.Errorf("expected default activation, got %f", wf.Vsa.Activation)
	}
}

// TestLoadWeightsFileRejectsInvalid tests validation of parsed weights
func TestLoadWeightsFileRejectsInvalid(t *testing.T) {
	path := writeWeights(t, "score:\n  vsa: -1\n")
	if _, err := LoadWeightsFile(path); err == nil {
		t.Error("expected an error for a negative weight")
	}

	if _, err := LoadWeightsFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}

	bad := writeWeights(t, "score: [not a map]\n")
	if _, err := LoadWeightsFile(bad); err == nil {
		t.Error("expected an error for malformed YAML")
	}
}

// TestEngineConfigEnvOverrides tests that env settings reach the engine config
func TestEngineConfigEnvOverrides(t *testing.T) {
	t.Setenv("ANALYSIS_VSA_WINDOW", "12")
	t.Setenv("ANALYSIS_BUY_THRESHOLD", "65.5")
	t.Setenv("ANALYSIS_COOLDOWN_HOURS", "24")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ec, err := cfg.EngineConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ec.VsaWindow != 12 {
		t.Errorf("expected window 12, got %d", ec.VsaWindow)
	}
	if ec.Extractor.Threshold != 65.5 {
		t.Errorf("expected threshold 65.5, got %f", ec.Extractor.Threshold)
	}
	if ec.Extractor.Cooldown != 24*time.Hour {
		t.Errorf("expected cooldown 24h, got %s", ec.Extractor.Cooldown)
	}
}

// TestEngineConfigRejectsBadWindow tests validation through EngineConfig
func TestEngineConfigRejectsBadWindow(t *testing.T) {
	t.Setenv("ANALYSIS_VSA_WINDOW", "1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := cfg.EngineConfig(); err == nil {
		t.Error("expected an error for a window of 1")
	}
}
