package config

import (
	"os"
	"path/filepath"
	"testing"
)

// =============================================================================
// UNIFIED CONFIG TESTS
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Name != "uiscout" {
		t.Errorf("expected Name=uiscout, got %s", cfg.Name)
	}
	if cfg.Screen.SimilarityThreshold != 0.90 {
		t.Errorf("expected SimilarityThreshold=0.90, got %v", cfg.Screen.SimilarityThreshold)
	}
	if cfg.Screen.RecentWindow != 10 {
		t.Errorf("expected RecentWindow=10, got %d", cfg.Screen.RecentWindow)
	}
	if cfg.Command.MinStability != 0.7 {
		t.Errorf("expected MinStability=0.7, got %v", cfg.Command.MinStability)
	}
	if cfg.Command.MatchThreshold != 0.5 {
		t.Errorf("expected MatchThreshold=0.5, got %v", cfg.Command.MatchThreshold)
	}
	if cfg.Explore.BackRecoveryAttempts != 3 {
		t.Errorf("expected BackRecoveryAttempts=3, got %d", cfg.Explore.BackRecoveryAttempts)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	t.Setenv("UISCOUT_DB", "")
	t.Setenv("UISCOUT_DEBUG", "")
	t.Setenv("UISCOUT_CAPTURE_DIR", "")

	tmpDir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Explore.MaxDepth = 7
	cfg.Screen.SimilarityThreshold = 0.85
	cfg.Safety.ExtraDangerTerms = []string{"self destruct"}

	if err := cfg.Save(filepath.Join(tmpDir, "config.yaml")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Explore.MaxDepth != 7 {
		t.Errorf("expected MaxDepth=7, got %d", loaded.Explore.MaxDepth)
	}
	if loaded.Screen.SimilarityThreshold != 0.85 {
		t.Errorf("expected SimilarityThreshold=0.85, got %v", loaded.Screen.SimilarityThreshold)
	}
	if len(loaded.Safety.ExtraDangerTerms) != 1 || loaded.Safety.ExtraDangerTerms[0] != "self destruct" {
		t.Errorf("extra danger terms not round-tripped: %v", loaded.Safety.ExtraDangerTerms)
	}
	// Relative database path resolves against the data dir.
	if want := filepath.Join(tmpDir, "uiscout.db"); loaded.Store.DatabasePath != want {
		t.Errorf("expected DatabasePath=%s, got %s", want, loaded.Store.DatabasePath)
	}
}

func TestConfig_MissingFileYieldsDefaults(t *testing.T) {
	t.Setenv("UISCOUT_DB", "")

	tmpDir := t.TempDir()
	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Screen.RecentWindow != 10 {
		t.Errorf("expected defaults, got RecentWindow=%d", cfg.Screen.RecentWindow)
	}
}

func TestConfig_EnvOverrides(t *testing.T) {
	os.Setenv("UISCOUT_DB", "/tmp/env-uiscout.db")
	defer os.Unsetenv("UISCOUT_DB")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	if cfg.Store.DatabasePath != "/tmp/env-uiscout.db" {
		t.Errorf("expected DatabasePath=/tmp/env-uiscout.db, got %s", cfg.Store.DatabasePath)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}

	bad := DefaultConfig()
	bad.Screen.SimilarityThreshold = 1.5
	if err := bad.Validate(); err == nil {
		t.Error("expected validation error for similarity > 1")
	}

	bad = DefaultConfig()
	bad.Explore.BackRecoveryAttempts = 0
	if err := bad.Validate(); err == nil {
		t.Error("expected validation error for zero recovery attempts")
	}

	bad = DefaultConfig()
	bad.Store.DatabasePath = ""
	if err := bad.Validate(); err == nil {
		t.Error("expected validation error for empty database path")
	}
}

func TestDurationGetters(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.Explore.GetMaxDuration().Minutes(); got != 10 {
		t.Errorf("expected 10m, got %vm", got)
	}
	if got := cfg.Explore.GetSettleDelay().Milliseconds(); got != 800 {
		t.Errorf("expected 800ms, got %vms", got)
	}
	if got := cfg.Store.GetBusyTimeout().Seconds(); got != 5 {
		t.Errorf("expected 5s, got %vs", got)
	}

	// Malformed strings fall back to defaults.
	cfg.Explore.MaxDuration = "not-a-duration"
	if got := cfg.Explore.GetMaxDuration().Minutes(); got != 10 {
		t.Errorf("expected 10m fallback, got %vm", got)
	}
	cfg.Bridge.Web.PageTimeout = ""
	if got := cfg.Bridge.Web.GetPageTimeout().Seconds(); got != 30 {
		t.Errorf("expected 30s fallback, got %vs", got)
	}
	cfg.Bridge.Capture.DebounceMs = 0
	if got := cfg.Bridge.Capture.GetDebounce().Milliseconds(); got != 500 {
		t.Errorf("expected 500ms fallback, got %vms", got)
	}
}
