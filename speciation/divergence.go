// Package speciation tracks genetic divergence between populations and
// detects emergent speciation events.
package speciation

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ecosysx/terrarium/genome"
)

// PopulationDescriptor summarizes one tracked population: a cluster of
// agents sharing a lineage, reduced to a centroid genome and a spatial
// extent.
type PopulationDescriptor struct {
	ID          string
	LineageID   string
	Centroid    *genome.Genome
	MemberCount int
	CenterX     float64
	CenterY     float64
	Radius      float64
	Generation  int
	CreatedTick int64
	UpdatedTick int64
}

// PairKey is the canonical unordered key for a population pair: the
// lexicographically smaller id always comes first, so lookups are
// order-independent.
type PairKey struct {
	A, B string
}

// MakePairKey canonicalizes two population ids into a PairKey.
func MakePairKey(a, b string) PairKey {
	if b < a {
		a, b = b, a
	}
	return PairKey{A: a, B: b}
}

// DivergenceEntry holds the divergence state for one population pair.
type DivergenceEntry struct {
	Divergence       float64 // [0,1]
	GeneFlow         bool
	LastGeneFlowTick int64
	LastUpdateTick   int64
}

// GeneFlowEvent is one observed interbreeding event between populations.
type GeneFlowEvent struct {
	PopulationA string
	PopulationB string
	Strength    float64 // Gene-flow strength [0,1]
	Tick        int64
}

// DivergenceConfig controls divergence accumulation and decay.
type DivergenceConfig struct {
	DivergenceThreshold       float64 `yaml:"divergence_threshold"`
	IsolationAccumulationRate float64 `yaml:"isolation_accumulation_rate"` // Divergence gain per tick without gene flow
	GeneFlowDecayRate         float64 `yaml:"gene_flow_decay_rate"`        // Divergence loss per tick under gene flow
	UpdateInterval            int64   `yaml:"update_interval"`
	MaxPopulations            int     `yaml:"max_populations"`
}

// DefaultDivergenceConfig returns the standard divergence parameters.
func DefaultDivergenceConfig() DivergenceConfig {
	return DivergenceConfig{
		DivergenceThreshold:       0.3,
		IsolationAccumulationRate: 0.0001,
		GeneFlowDecayRate:         0.001,
		UpdateInterval:            100,
		MaxPopulations:            64,
	}
}

// DivergenceMatrix is a sparse symmetric ledger of pairwise genetic
// divergence between registered populations.
type DivergenceMatrix struct {
	Config      DivergenceConfig
	populations map[string]*PopulationDescriptor
	entries     map[PairKey]*DivergenceEntry
}

// NewDivergenceMatrix creates an empty matrix.
func NewDivergenceMatrix(cfg DivergenceConfig) *DivergenceMatrix {
	return &DivergenceMatrix{
		Config:      cfg,
		populations: make(map[string]*PopulationDescriptor),
		entries:     make(map[PairKey]*DivergenceEntry),
	}
}

// RegisterPopulation upserts a population. On first registration an entry
// is created against every existing population, seeded with the normalized
// centroid distance (0 when either centroid is missing).
func (m *DivergenceMatrix) RegisterPopulation(pop *PopulationDescriptor, tick int64) {
	if existing, ok := m.populations[pop.ID]; ok {
		*existing = *pop
		existing.UpdatedTick = tick
		return
	}

	if len(m.populations) >= m.Config.MaxPopulations {
		m.PruneExtinctPopulations()
	}

	pop.UpdatedTick = tick
	if pop.CreatedTick == 0 {
		pop.CreatedTick = tick
	}
	m.populations[pop.ID] = pop

	for otherID, other := range m.populations {
		if otherID == pop.ID {
			continue
		}
		div := 0.0
		if pop.Centroid != nil && other.Centroid != nil {
			if d, err := pop.Centroid.NormalizedDistanceFrom(other.Centroid); err == nil {
				div = d
			}
		}
		m.entries[MakePairKey(pop.ID, otherID)] = &DivergenceEntry{
			Divergence:     div,
			LastUpdateTick: tick,
		}
	}
}

// Population returns a registered population or nil.
func (m *DivergenceMatrix) Population(id string) *PopulationDescriptor {
	return m.populations[id]
}

// Populations returns all registered populations, sorted by id.
func (m *DivergenceMatrix) Populations() []*PopulationDescriptor {
	pops := make([]*PopulationDescriptor, 0, len(m.populations))
	for _, p := range m.populations {
		pops = append(pops, p)
	}
	sort.Slice(pops, func(i, j int) bool { return pops[i].ID < pops[j].ID })
	return pops
}

// GetDivergence returns the stored divergence for a pair. A population's
// divergence from itself is always 0, as is any unknown pair.
func (m *DivergenceMatrix) GetDivergence(a, b string) float64 {
	if a == b {
		return 0
	}
	if e, ok := m.entries[MakePairKey(a, b)]; ok {
		return e.Divergence
	}
	return 0
}

// SetDivergence stores a divergence value, clamped to [0,1]. The entry is
// created if both populations exist and no entry does yet.
func (m *DivergenceMatrix) SetDivergence(a, b string, value float64, tick int64) {
	if a == b {
		return
	}
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}
	key := MakePairKey(a, b)
	if e, ok := m.entries[key]; ok {
		e.Divergence = value
		e.LastUpdateTick = tick
		return
	}
	if m.populations[a] == nil || m.populations[b] == nil {
		return
	}
	m.entries[key] = &DivergenceEntry{Divergence: value, LastUpdateTick: tick}
}

// Update advances every entry by one bookkeeping step. Pairs without
// recent gene flow accumulate isolation; pairs under gene flow decay
// toward panmixia. Both movements are linear in elapsed ticks and clamped
// to [0,1].
func (m *DivergenceMatrix) Update(tick int64) {
	for _, e := range m.entries {
		elapsed := tick - e.LastUpdateTick
		if elapsed <= 0 {
			continue
		}

		if tick-e.LastGeneFlowTick > m.Config.UpdateInterval {
			e.Divergence += m.Config.IsolationAccumulationRate * float64(elapsed)
			if e.Divergence > 1 {
				e.Divergence = 1
			}
			e.GeneFlow = false
		} else {
			e.Divergence -= m.Config.GeneFlowDecayRate * float64(elapsed)
			if e.Divergence < 0 {
				e.Divergence = 0
			}
		}
		e.LastUpdateTick = tick
	}
}

// RecordGeneFlow applies one interbreeding event: divergence drops by
// strength × decay rate × 10 (floored at 0) and the gene-flow flag is set.
func (m *DivergenceMatrix) RecordGeneFlow(event GeneFlowEvent) {
	key := MakePairKey(event.PopulationA, event.PopulationB)
	e, ok := m.entries[key]
	if !ok {
		return
	}
	e.Divergence -= event.Strength * m.Config.GeneFlowDecayRate * 10
	if e.Divergence < 0 {
		e.Divergence = 0
	}
	e.GeneFlow = true
	e.LastGeneFlowTick = event.Tick
}

// UpdatePopulationCentroid recomputes a population's centroid as the mean
// gene vector of the sampled members, then blends its divergence to every
// other population as an exponential moving average (0.9 old, 0.1 new).
func (m *DivergenceMatrix) UpdatePopulationCentroid(id string, genomes []*genome.Genome, tick int64) {
	pop, ok := m.populations[id]
	if !ok || len(genomes) == 0 {
		return
	}

	size := genomes[0].Size()
	centroid := genome.New(size, genomes[0].Config)
	column := make([]float64, len(genomes))
	for gene := 0; gene < size; gene++ {
		for i, g := range genomes {
			column[i] = g.Genes[gene]
		}
		centroid.Genes[gene] = stat.Mean(column, nil)
	}

	pop.Centroid = centroid
	pop.MemberCount = len(genomes)
	pop.UpdatedTick = tick

	for otherID, other := range m.populations {
		if otherID == id || other.Centroid == nil {
			continue
		}
		newDist, err := centroid.NormalizedDistanceFrom(other.Centroid)
		if err != nil {
			continue
		}
		key := MakePairKey(id, otherID)
		if e, ok := m.entries[key]; ok {
			e.Divergence = 0.9*e.Divergence + 0.1*newDist
			e.LastUpdateTick = tick
		}
	}
}

// Candidate is one above-threshold population pair.
type Candidate struct {
	Key        PairKey
	Divergence float64
}

// SpeciationCandidates returns every pair at or above the divergence
// threshold, sorted descending by divergence.
func (m *DivergenceMatrix) SpeciationCandidates() []Candidate {
	var out []Candidate
	for key, e := range m.entries {
		if e.Divergence >= m.Config.DivergenceThreshold {
			out = append(out, Candidate{Key: key, Divergence: e.Divergence})
		}
	}
	// Tie-break on the pair key: entries come out of a map, and equal
	// divergences are common when pairs accumulate at the same rate.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Divergence != out[j].Divergence {
			return out[i].Divergence > out[j].Divergence
		}
		if out[i].Key.A != out[j].Key.A {
			return out[i].Key.A < out[j].Key.A
		}
		return out[i].Key.B < out[j].Key.B
	})
	return out
}

// ShouldSpeciate reports whether a pair's divergence has reached the
// threshold, boundary value included.
func (m *DivergenceMatrix) ShouldSpeciate(a, b string) bool {
	return m.GetDivergence(a, b) >= m.Config.DivergenceThreshold
}

// PruneExtinctPopulations removes populations with zero members and all
// their divergence entries. Called opportunistically when the population
// cap is reached.
func (m *DivergenceMatrix) PruneExtinctPopulations() int {
	removed := 0
	for id, pop := range m.populations {
		if pop.MemberCount > 0 {
			continue
		}
		delete(m.populations, id)
		for key := range m.entries {
			if key.A == id || key.B == id {
				delete(m.entries, key)
			}
		}
		removed++
	}
	return removed
}

// Entry returns the stored entry for a pair, or nil.
func (m *DivergenceMatrix) Entry(a, b string) *DivergenceEntry {
	return m.entries[MakePairKey(a, b)]
}

// EntryCount returns the number of stored pair entries.
func (m *DivergenceMatrix) EntryCount() int {
	return len(m.entries)
}
