package speciation

import (
	"fmt"
	"math"

	"github.com/ecosysx/terrarium/genome"
)

// Isolation factor types.
const (
	FactorGenetic    = "genetic"
	FactorPopulation = "population"
	FactorGeographic = "geographic"
	FactorBehavioral = "behavioral"
)

// IsolationFactor is one triggered mating barrier.
type IsolationFactor struct {
	Type        string
	Strength    float64
	Description string
}

// MatingCompatibility is the result of a compatibility check between two
// prospective mates.
type MatingCompatibility struct {
	CanMate         bool
	GeneticDistance float64
	Factors         []IsolationFactor
}

// MateCandidate is the view of an agent the isolation policy needs.
type MateCandidate struct {
	Genome       *genome.Genome
	X, Y         float64
	PopulationID string
	SpeciesID    string
}

// IsolationConfig controls the mating-compatibility policy.
type IsolationConfig struct {
	MatingDistanceThreshold      float64 `yaml:"mating_distance_threshold"`
	PopulationIsolationThreshold float64 `yaml:"population_isolation_threshold"`
	GeographicIsolationRadius    float64 `yaml:"geographic_isolation_radius"`
	BehavioralIsolationEnabled   bool    `yaml:"behavioral_isolation_enabled"`
}

// DefaultIsolationConfig returns the standard isolation parameters.
func DefaultIsolationConfig() IsolationConfig {
	return IsolationConfig{
		MatingDistanceThreshold:      0.3,
		PopulationIsolationThreshold: 0.5,
		GeographicIsolationRadius:    200,
		BehavioralIsolationEnabled:   true,
	}
}

// ReproductiveIsolation evaluates mating barriers between agents. The
// divergence matrix is shared with the speciation engine; it may be nil,
// which disables the population-divergence factor.
type ReproductiveIsolation struct {
	Config IsolationConfig
	matrix *DivergenceMatrix
}

// NewReproductiveIsolation creates the isolation policy, optionally
// attached to a shared divergence matrix.
func NewReproductiveIsolation(cfg IsolationConfig, matrix *DivergenceMatrix) *ReproductiveIsolation {
	return &ReproductiveIsolation{Config: cfg, matrix: matrix}
}

// CheckCompatibility evaluates the four isolation factors. The pair is
// incompatible if any factor fires. The behavioral factor never fires
// alone: it requires differing species tags AND a genetic distance already
// past 70% of the mating threshold.
func (r *ReproductiveIsolation) CheckCompatibility(a, b MateCandidate) (MatingCompatibility, error) {
	dist, err := a.Genome.NormalizedDistanceFrom(b.Genome)
	if err != nil {
		return MatingCompatibility{}, fmt.Errorf("isolation: %w", err)
	}

	result := MatingCompatibility{GeneticDistance: dist}

	if dist > r.Config.MatingDistanceThreshold {
		result.Factors = append(result.Factors, IsolationFactor{
			Type:        FactorGenetic,
			Strength:    math.Min(1, dist/r.Config.MatingDistanceThreshold-1),
			Description: fmt.Sprintf("genetic distance %.3f exceeds mating threshold %.3f", dist, r.Config.MatingDistanceThreshold),
		})
	}

	if r.matrix != nil && a.PopulationID != "" && b.PopulationID != "" && a.PopulationID != b.PopulationID {
		div := r.matrix.GetDivergence(a.PopulationID, b.PopulationID)
		if div > r.Config.PopulationIsolationThreshold {
			result.Factors = append(result.Factors, IsolationFactor{
				Type:        FactorPopulation,
				Strength:    div,
				Description: fmt.Sprintf("population divergence %.3f exceeds isolation threshold %.3f", div, r.Config.PopulationIsolationThreshold),
			})
		}
	}

	dx, dy := a.X-b.X, a.Y-b.Y
	spatial := math.Sqrt(dx*dx + dy*dy)
	if spatial > r.Config.GeographicIsolationRadius {
		result.Factors = append(result.Factors, IsolationFactor{
			Type:        FactorGeographic,
			Strength:    math.Min(1, spatial/r.Config.GeographicIsolationRadius-1),
			Description: fmt.Sprintf("spatial distance %.1f exceeds isolation radius %.1f", spatial, r.Config.GeographicIsolationRadius),
		})
	}

	if r.Config.BehavioralIsolationEnabled &&
		a.SpeciesID != "" && b.SpeciesID != "" && a.SpeciesID != b.SpeciesID &&
		dist > 0.7*r.Config.MatingDistanceThreshold {
		result.Factors = append(result.Factors, IsolationFactor{
			Type:        FactorBehavioral,
			Strength:    math.Min(1, dist/r.Config.MatingDistanceThreshold),
			Description: fmt.Sprintf("species tags %q and %q differ with borderline genetic distance %.3f", a.SpeciesID, b.SpeciesID, dist),
		})
	}

	result.CanMate = len(result.Factors) == 0
	return result, nil
}

// CanMate is the boolean projection of CheckCompatibility. Precondition
// failures count as incompatible.
func (r *ReproductiveIsolation) CanMate(a, b MateCandidate) bool {
	compat, err := r.CheckCompatibility(a, b)
	if err != nil {
		return false
	}
	return compat.CanMate
}

// IsolationScore collapses the compatibility evidence into one scalar:
// the average of genetic distance (double-weighted), population divergence
// when available, and every triggered factor's strength. Higher means more
// isolated.
func (r *ReproductiveIsolation) IsolationScore(a, b MateCandidate) (float64, error) {
	compat, err := r.CheckCompatibility(a, b)
	if err != nil {
		return 0, err
	}

	sum := compat.GeneticDistance * 2
	n := 2.0

	if r.matrix != nil && a.PopulationID != "" && b.PopulationID != "" && a.PopulationID != b.PopulationID {
		sum += r.matrix.GetDivergence(a.PopulationID, b.PopulationID)
		n++
	}
	for _, f := range compat.Factors {
		sum += f.Strength
		n++
	}

	return sum / n, nil
}

// IsSpeciationCandidate flags an individual whose genome has drifted past
// the threshold from its population centroid: a potential founder of a new
// population.
func (r *ReproductiveIsolation) IsSpeciationCandidate(g, centroid *genome.Genome, threshold float64) (bool, error) {
	dist, err := g.NormalizedDistanceFrom(centroid)
	if err != nil {
		return false, fmt.Errorf("isolation: %w", err)
	}
	return dist > threshold, nil
}
