// Package genome provides fixed-length real-valued genomes and their
// genetic operators (mutation, crossover, distance metrics).
package genome

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
)

// MutationConfig controls how genes are perturbed.
type MutationConfig struct {
	MutationRate      float64 `yaml:"mutation_rate" json:"mutationRate"`           // Per-gene mutation probability
	MutationMagnitude float64 `yaml:"mutation_magnitude" json:"mutationMagnitude"` // Perturbation scale
	MinValue          float64 `yaml:"min_value" json:"minValue"`                   // Gene lower bound
	MaxValue          float64 `yaml:"max_value" json:"maxValue"`                   // Gene upper bound
	UseGaussian       bool    `yaml:"use_gaussian" json:"useGaussian"`             // Gaussian vs uniform perturbation
}

// DefaultMutationConfig returns the standard mutation parameters.
func DefaultMutationConfig() MutationConfig {
	return MutationConfig{
		MutationRate:      0.05,
		MutationMagnitude: 0.2,
		MinValue:          -1.0,
		MaxValue:          1.0,
		UseGaussian:       true,
	}
}

// Genome is a fixed-length vector of real-valued genes plus lineage metadata.
// The gene slice length is immutable after construction. All operators except
// Mutate produce a new Genome; Mutate perturbs only its receiver.
type Genome struct {
	ID               string
	Genes            []float64
	Generation       int
	ParentID         string
	MutationCount    int
	LastMutationTick int64
	CreatedAt        int64
	Config           MutationConfig
}

// New creates a genome of the given size with all genes at zero.
func New(size int, cfg MutationConfig) *Genome {
	return &Genome{
		ID:     uuid.NewString(),
		Genes:  make([]float64, size),
		Config: cfg,
	}
}

// NewRandom creates a genome with genes drawn uniformly from [MinValue, MaxValue].
func NewRandom(rng *rand.Rand, size int, cfg MutationConfig) *Genome {
	g := New(size, cfg)
	span := cfg.MaxValue - cfg.MinValue
	for i := range g.Genes {
		g.Genes[i] = cfg.MinValue + rng.Float64()*span
	}
	return g
}

// Size returns the gene count.
func (g *Genome) Size() int {
	return len(g.Genes)
}

// MutationResult reports which genes changed during a Mutate call.
type MutationResult struct {
	MutatedCount int
	Indices      []int
	Deltas       []float64
}

// Mutate perturbs the receiver's genes in place. Each gene independently
// mutates with probability MutationRate; the perturbation is Gaussian
// (Box-Muller via rng.NormFloat64) or uniform depending on UseGaussian,
// scaled by MutationMagnitude, and the result is clamped to [Min, Max].
// An override config, when non-nil, replaces the genome's own config for
// this call only.
func (g *Genome) Mutate(rng *rand.Rand, tick int64, override *MutationConfig) MutationResult {
	cfg := g.Config
	if override != nil {
		cfg = *override
	}

	var result MutationResult
	for i := range g.Genes {
		if rng.Float64() >= cfg.MutationRate {
			continue
		}

		var delta float64
		if cfg.UseGaussian {
			delta = rng.NormFloat64() * cfg.MutationMagnitude
		} else {
			delta = (rng.Float64()*2 - 1) * cfg.MutationMagnitude
		}

		g.Genes[i] = clamp(g.Genes[i]+delta, cfg.MinValue, cfg.MaxValue)
		result.MutatedCount++
		result.Indices = append(result.Indices, i)
		result.Deltas = append(result.Deltas, delta)
	}

	if result.MutatedCount > 0 {
		g.MutationCount++
		g.LastMutationTick = tick
	}

	return result
}

// Reproduce deep-copies the genome into a child with generation+1 and
// ParentID set to the receiver. When mutate is true the child is mutated
// before being returned; the parent is never touched.
func (g *Genome) Reproduce(rng *rand.Rand, tick int64, mutate bool) *Genome {
	child := &Genome{
		ID:         uuid.NewString(),
		Genes:      append([]float64(nil), g.Genes...),
		Generation: g.Generation + 1,
		ParentID:   g.ID,
		CreatedAt:  tick,
		Config:     g.Config,
	}
	if mutate {
		child.Mutate(rng, tick, nil)
	}
	return child
}

// Crossover produces a child whose genes are selected gene-wise between the
// two parents: each position takes other's value with probability rate,
// else the receiver's. Generation is max(parents)+1. Only the receiver's id
// is recorded as parent (primary-lineage tracking).
func (g *Genome) Crossover(rng *rand.Rand, other *Genome, tick int64, rate float64) (*Genome, error) {
	if len(g.Genes) != len(other.Genes) {
		return nil, fmt.Errorf("crossover: gene length mismatch %d vs %d", len(g.Genes), len(other.Genes))
	}

	genes := make([]float64, len(g.Genes))
	for i := range genes {
		if rng.Float64() < rate {
			genes[i] = other.Genes[i]
		} else {
			genes[i] = g.Genes[i]
		}
	}

	gen := g.Generation
	if other.Generation > gen {
		gen = other.Generation
	}

	return &Genome{
		ID:         uuid.NewString(),
		Genes:      genes,
		Generation: gen + 1,
		ParentID:   g.ID,
		CreatedAt:  tick,
		Config:     g.Config,
	}, nil
}

// DistanceFrom returns the Euclidean distance between the two gene vectors.
func (g *Genome) DistanceFrom(other *Genome) (float64, error) {
	if len(g.Genes) != len(other.Genes) {
		return 0, fmt.Errorf("distance: gene length mismatch %d vs %d", len(g.Genes), len(other.Genes))
	}
	return floats.Distance(g.Genes, other.Genes, 2), nil
}

// NormalizedDistanceFrom divides the Euclidean distance by the maximum
// possible distance for a width-2 gene range, sqrt(4n), clamped to [0,1].
func (g *Genome) NormalizedDistanceFrom(other *Genome) (float64, error) {
	d, err := g.DistanceFrom(other)
	if err != nil {
		return 0, err
	}
	if len(g.Genes) == 0 {
		return 0, nil
	}
	norm := d / math.Sqrt(float64(len(g.Genes))*4)
	if norm > 1 {
		norm = 1
	}
	return norm, nil
}

// HammingDistanceFrom quantizes each gene to gene >= threshold and counts
// positions where the two genomes disagree.
func (g *Genome) HammingDistanceFrom(other *Genome, threshold float64) (int, error) {
	if len(g.Genes) != len(other.Genes) {
		return 0, fmt.Errorf("hamming: gene length mismatch %d vs %d", len(g.Genes), len(other.Genes))
	}
	count := 0
	for i := range g.Genes {
		if (g.Genes[i] >= threshold) != (other.Genes[i] >= threshold) {
			count++
		}
	}
	return count, nil
}

// NormalizedHammingDistanceFrom divides the Hamming distance by gene count.
func (g *Genome) NormalizedHammingDistanceFrom(other *Genome, threshold float64) (float64, error) {
	d, err := g.HammingDistanceFrom(other, threshold)
	if err != nil {
		return 0, err
	}
	if len(g.Genes) == 0 {
		return 0, nil
	}
	return float64(d) / float64(len(g.Genes)), nil
}

// CanBreedWith is a coarse compatibility check: breeding is allowed while
// the bit-quantized Hamming distance stays at or below maxBitDifference.
func (g *Genome) CanBreedWith(other *Genome, maxBitDifference int) (bool, error) {
	d, err := g.HammingDistanceFrom(other, 0)
	if err != nil {
		return false, err
	}
	return d <= maxBitDifference, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
