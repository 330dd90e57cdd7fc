package models

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Settle != 1500*time.Millisecond {
		t.Errorf("Settle = %s, want 1.5s", cfg.Settle)
	}
	if cfg.NoGrowthLimit != 2 {
		t.Errorf("NoGrowthLimit = %d, want 2", cfg.NoGrowthLimit)
	}
	if cfg.MaxIterations != 0 {
		t.Errorf("MaxIterations = %d, want 0 (unbounded)", cfg.MaxIterations)
	}
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "url: https://gemini.google.com/app/abc\nsettle: 2s\nno_growth_limit: 3\nmax_iterations: 50\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.URL != "https://gemini.google.com/app/abc" {
		t.Errorf("URL = %q", cfg.URL)
	}
	if cfg.Settle != 2*time.Second {
		t.Errorf("Settle = %s, want 2s", cfg.Settle)
	}
	if cfg.NoGrowthLimit != 3 {
		t.Errorf("NoGrowthLimit = %d, want 3", cfg.NoGrowthLimit)
	}
	if cfg.MaxIterations != 50 {
		t.Errorf("MaxIterations = %d, want 50", cfg.MaxIterations)
	}
	// Unset keys keep their defaults
	if cfg.LoadTimeout != 30*time.Second {
		t.Errorf("LoadTimeout = %s, want 30s", cfg.LoadTimeout)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("no_growth_limit: 0\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig() error = nil, want validation error")
	}
}
