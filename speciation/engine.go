package speciation

import (
	"log/slog"
	"math"

	"github.com/google/uuid"
)

// Speciation mechanisms.
const (
	MechanismGeneticDrift             = "genetic-drift"
	MechanismGeographicIsolation      = "geographic-isolation"
	MechanismTemporalIsolation        = "temporal-isolation"
	MechanismBehavioralIsolation      = "behavioral-isolation"
	MechanismHybridIncompatibility    = "hybrid-incompatibility"
	MechanismEcologicalSpecialization = "ecological-specialization"
)

// SpeciationEvent is the immutable record of one population/lineage split.
type SpeciationEvent struct {
	ID                   string   `json:"id"`
	Tick                 int64    `json:"tick"`
	ParentPopulationID   string   `json:"parentPopulationId"`
	ParentLineageID      string   `json:"parentLineageId"`
	NewPopulationID      string   `json:"newPopulationId"`
	NewLineageID         string   `json:"newLineageId"`
	Mechanism            string   `json:"mechanism"`
	FounderGenomeIDs     []string `json:"founderGenomeIds"`
	GeneticDistance      float64  `json:"geneticDistance"`
	PopulationDivergence float64  `json:"populationDivergence"`
	SpatialSeparation    float64  `json:"spatialSeparation"`
}

// LineageSource is the external collaborator issuing opaque lineage ids.
type LineageSource interface {
	NextLineageID() string
}

// EngineConfig controls speciation-event detection.
type EngineConfig struct {
	SpeciationCooldown    int64 `yaml:"speciation_cooldown"`
	MinFoundingPopulation int   `yaml:"min_founding_population"`
	EnableGeneticDrift    bool  `yaml:"enable_genetic_drift"`
	EnableGeographic      bool  `yaml:"enable_geographic"`
	EnableEcological      bool  `yaml:"enable_ecological"`
}

// DefaultEngineConfig returns the standard engine parameters.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		SpeciationCooldown:    500,
		MinFoundingPopulation: 5,
		EnableGeneticDrift:    true,
		EnableGeographic:      true,
		EnableEcological:      true,
	}
}

// EngineStats aggregates emitted events per mechanism.
type EngineStats struct {
	TotalEvents int
	ByMechanism map[string]int
}

// Engine orchestrates the divergence matrix into emitted speciation
// events. It shares the matrix with ReproductiveIsolation; mutations by
// either holder are visible to both.
type Engine struct {
	Config  EngineConfig
	matrix  *DivergenceMatrix
	lineage LineageSource

	events         []SpeciationEvent
	lastSpeciation map[string]int64 // population id -> tick of last split
	stats          EngineStats
}

// NewEngine creates a speciation engine over a shared divergence matrix.
func NewEngine(cfg EngineConfig, matrix *DivergenceMatrix, lineage LineageSource) *Engine {
	return &Engine{
		Config:         cfg,
		matrix:         matrix,
		lineage:        lineage,
		lastSpeciation: make(map[string]int64),
		stats:          EngineStats{ByMechanism: make(map[string]int)},
	}
}

// Matrix returns the shared divergence matrix.
func (e *Engine) Matrix() *DivergenceMatrix {
	return e.matrix
}

// Update runs one orchestration pass: advance the matrix bookkeeping on
// its interval, then scan above-threshold pairs for speciation. Mechanism
// classification is a geometric heuristic over the populations' spatial
// extents, intentionally coarse for reproducibility.
func (e *Engine) Update(tick int64) []SpeciationEvent {
	if interval := e.matrix.Config.UpdateInterval; interval > 0 && tick%interval == 0 {
		e.matrix.Update(tick)
	}

	var emitted []SpeciationEvent
	for _, cand := range e.matrix.SpeciationCandidates() {
		popA := e.matrix.Population(cand.Key.A)
		popB := e.matrix.Population(cand.Key.B)
		if popA == nil || popB == nil {
			continue
		}

		if e.onCooldown(popA.ID, tick) || e.onCooldown(popB.ID, tick) {
			continue
		}

		dx, dy := popA.CenterX-popB.CenterX, popA.CenterY-popB.CenterY
		separation := math.Sqrt(dx*dx + dy*dy)
		combined := popA.Radius + popB.Radius

		var mechanism string
		switch {
		case separation > 2*combined:
			mechanism = MechanismGeographicIsolation
		case separation > 0.5*combined:
			mechanism = MechanismEcologicalSpecialization
		default:
			mechanism = MechanismGeneticDrift // Sympatric divergence
		}
		if !e.mechanismEnabled(mechanism) {
			continue
		}

		// The smaller population founds the new species.
		parent, founder := popA, popB
		if popB.MemberCount > popA.MemberCount {
			parent, founder = popB, popA
		}
		if founder.MemberCount < e.Config.MinFoundingPopulation {
			continue
		}

		geneticDist := 0.0
		if parent.Centroid != nil && founder.Centroid != nil {
			if d, err := parent.Centroid.NormalizedDistanceFrom(founder.Centroid); err == nil {
				geneticDist = d
			}
		}

		var founderIDs []string
		if founder.Centroid != nil {
			founderIDs = append(founderIDs, founder.Centroid.ID)
		}

		event := SpeciationEvent{
			ID:                   uuid.NewString(),
			Tick:                 tick,
			ParentPopulationID:   parent.ID,
			ParentLineageID:      parent.LineageID,
			NewPopulationID:      founder.ID,
			NewLineageID:         e.lineage.NextLineageID(),
			Mechanism:            mechanism,
			FounderGenomeIDs:     founderIDs,
			GeneticDistance:      geneticDist,
			PopulationDivergence: cand.Divergence,
			SpatialSeparation:    separation,
		}

		founder.LineageID = event.NewLineageID
		e.events = append(e.events, event)
		emitted = append(emitted, event)
		e.stats.TotalEvents++
		e.stats.ByMechanism[mechanism]++
		e.lastSpeciation[popA.ID] = tick
		e.lastSpeciation[popB.ID] = tick

		slog.Info("speciation event",
			"tick", tick,
			"mechanism", mechanism,
			"parent", parent.ID,
			"founder", founder.ID,
			"divergence", cand.Divergence,
			"separation", separation,
		)
	}

	return emitted
}

func (e *Engine) onCooldown(popID string, tick int64) bool {
	last, ok := e.lastSpeciation[popID]
	return ok && tick-last < e.Config.SpeciationCooldown
}

func (e *Engine) mechanismEnabled(mechanism string) bool {
	switch mechanism {
	case MechanismGeneticDrift:
		return e.Config.EnableGeneticDrift
	case MechanismGeographicIsolation:
		return e.Config.EnableGeographic
	case MechanismEcologicalSpecialization:
		return e.Config.EnableEcological
	default:
		return true
	}
}

// Events returns the append-only event log.
func (e *Engine) Events() []SpeciationEvent {
	return e.events
}

// Stats returns aggregate event counters.
func (e *Engine) Stats() EngineStats {
	return e.stats
}
