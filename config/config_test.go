package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.World.Width <= 0 || cfg.World.Height <= 0 {
		t.Errorf("world dimensions not set: %+v", cfg.World)
	}
	if cfg.Genome.Length <= 0 {
		t.Errorf("genome length not set: %d", cfg.Genome.Length)
	}
	if cfg.Trophic.Hunting.HuntingRange != 30 {
		t.Errorf("hunting range = %v, want 30", cfg.Trophic.Hunting.HuntingRange)
	}
	if cfg.Speciation.Divergence.DivergenceThreshold != 0.3 {
		t.Errorf("divergence threshold = %v, want 0.3", cfg.Speciation.Divergence.DivergenceThreshold)
	}
}

func TestLoadOverridesOnlyGivenFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.yaml")
	override := "world:\n  initial_population: 7\n"
	if err := os.WriteFile(path, []byte(override), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.World.InitialPopulation != 7 {
		t.Errorf("initial_population = %d, want 7", cfg.World.InitialPopulation)
	}

	defaults, err := Load("")
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}
	if cfg.World.Width != defaults.World.Width {
		t.Errorf("unrelated field changed: width %v vs %v", cfg.World.Width, defaults.World.Width)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}
