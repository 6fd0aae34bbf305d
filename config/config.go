// Package config provides configuration loading and access for the
// simulation. Embedded defaults are always loaded first; a user file, if
// given, overrides only the fields it sets.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ecosysx/terrarium/genome"
	"github.com/ecosysx/terrarium/speciation"
	"github.com/ecosysx/terrarium/trophic"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Genome     GenomeConfig     `yaml:"genome"`
	Brain      BrainConfig      `yaml:"brain"`
	Energy     EnergyConfig     `yaml:"energy"`
	Resource   ResourceConfig   `yaml:"resource"`
	Breeding   BreedingConfig   `yaml:"breeding"`
	Trophic    TrophicConfig    `yaml:"trophic"`
	Speciation SpeciationConfig `yaml:"speciation"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
}

// WorldConfig holds world dimensions and population parameters.
type WorldConfig struct {
	Width             float64 `yaml:"width"`
	Height            float64 `yaml:"height"`
	GridCellSize      float64 `yaml:"grid_cell_size"`
	InitialPopulation int     `yaml:"initial_population"`
	MaxPopulation     int     `yaml:"max_population"`
	SenseRadius       float64 `yaml:"sense_radius"`
	MoveSpeed         float64 `yaml:"move_speed"` // World units per tick at full thrust
	TurnRate          float64 `yaml:"turn_rate"`  // Radians per tick at full rotation
}

// GenomeConfig holds genome construction parameters.
type GenomeConfig struct {
	Length   int                   `yaml:"length"`
	Mutation genome.MutationConfig `yaml:"mutation"`
}

// BrainConfig holds brain construction and evolution parameters.
type BrainConfig struct {
	Kind             string  `yaml:"kind"` // "fcm" or "neural"
	MutationRate     float64 `yaml:"mutation_rate"`
	MutationStrength float64 `yaml:"mutation_strength"`
}

// EnergyConfig holds the metabolic economy.
type EnergyConfig struct {
	Initial  float64 `yaml:"initial"`
	Max      float64 `yaml:"max"`
	BaseCost float64 `yaml:"base_cost"` // Drain per tick for existing
	MoveCost float64 `yaml:"move_cost"` // Additional drain per unit moved
}

// ResourceConfig holds the vegetation field parameters.
type ResourceConfig struct {
	GridSize        int     `yaml:"grid_size"`
	GrazeRate       float64 `yaml:"graze_rate"`       // Resource units requested per foraging tick
	GrazeEfficiency float64 `yaml:"graze_efficiency"` // Energy per resource unit consumed
	GrazeRadius     int     `yaml:"graze_radius"`     // Kernel radius in cells
}

// BreedingConfig holds reproduction parameters.
type BreedingConfig struct {
	EnergyThreshold float64 `yaml:"energy_threshold"` // Minimum energy to attempt reproduction
	EnergyCost      float64 `yaml:"energy_cost"`      // Parent's energy spent per offspring
	Cooldown        int64   `yaml:"cooldown"`         // Ticks between reproductions
	MateRadius      float64 `yaml:"mate_radius"`      // Search radius for crossover partners
	CrossoverRate   float64 `yaml:"crossover_rate"`
}

// TrophicConfig bundles the predation subsystem parameters.
type TrophicConfig struct {
	Tracker            trophic.TrackerConfig `yaml:"tracker"`
	Hunting            trophic.HuntingConfig `yaml:"hunting"`
	RoleUpdateInterval int64                 `yaml:"role_update_interval"`
}

// SpeciationConfig bundles the speciation subsystem parameters.
type SpeciationConfig struct {
	Divergence             speciation.DivergenceConfig `yaml:"divergence"`
	Isolation              speciation.IsolationConfig  `yaml:"isolation"`
	Engine                 speciation.EngineConfig     `yaml:"engine"`
	CentroidUpdateInterval int64                       `yaml:"centroid_update_interval"`
	CentroidSampleSize     int                         `yaml:"centroid_sample_size"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow int64 `yaml:"stats_window"` // Ticks per stats window
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults
// if path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded
// defaults. If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into the same struct, overwriting only fields present
		// in the file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	return cfg, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
