package speciation

import (
	"encoding/json"
	"fmt"
	"sort"
)

type populationJSON struct {
	ID          string    `json:"id"`
	LineageID   string    `json:"lineageId"`
	Centroid    []float64 `json:"centroid,omitempty"`
	MemberCount int       `json:"memberCount"`
	CenterX     float64   `json:"centerX"`
	CenterY     float64   `json:"centerY"`
	Radius      float64   `json:"radius"`
	Generation  int       `json:"generation"`
	CreatedTick int64     `json:"createdTick"`
	UpdatedTick int64     `json:"updatedTick"`
}

type entryJSON struct {
	PopulationA      string  `json:"populationA"`
	PopulationB      string  `json:"populationB"`
	Divergence       float64 `json:"divergence"`
	GeneFlow         bool    `json:"geneFlow"`
	LastGeneFlowTick int64   `json:"lastGeneFlowTick"`
	LastUpdateTick   int64   `json:"lastUpdateTick"`
}

type matrixJSON struct {
	Config      DivergenceConfig `json:"config"`
	Populations []populationJSON `json:"populations"`
	Entries     []entryJSON      `json:"entries"`
}

// ToJSON serializes the matrix: config, population list (centroids as
// plain gene arrays) and divergence entries tagged with their canonical
// pair key.
func (m *DivergenceMatrix) ToJSON() ([]byte, error) {
	wire := matrixJSON{Config: m.Config}

	for _, pop := range m.Populations() {
		pj := populationJSON{
			ID:          pop.ID,
			LineageID:   pop.LineageID,
			MemberCount: pop.MemberCount,
			CenterX:     pop.CenterX,
			CenterY:     pop.CenterY,
			Radius:      pop.Radius,
			Generation:  pop.Generation,
			CreatedTick: pop.CreatedTick,
			UpdatedTick: pop.UpdatedTick,
		}
		if pop.Centroid != nil {
			pj.Centroid = pop.Centroid.Genes
		}
		wire.Populations = append(wire.Populations, pj)
	}

	keys := make([]PairKey, 0, len(m.entries))
	for key := range m.entries {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].A != keys[j].A {
			return keys[i].A < keys[j].A
		}
		return keys[i].B < keys[j].B
	})
	for _, key := range keys {
		e := m.entries[key]
		wire.Entries = append(wire.Entries, entryJSON{
			PopulationA:      key.A,
			PopulationB:      key.B,
			Divergence:       e.Divergence,
			GeneFlow:         e.GeneFlow,
			LastGeneFlowTick: e.LastGeneFlowTick,
			LastUpdateTick:   e.LastUpdateTick,
		})
	}

	data, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("divergence matrix: encoding JSON: %w", err)
	}
	return data, nil
}

type engineJSON struct {
	Config EngineConfig      `json:"config"`
	Matrix json.RawMessage   `json:"matrix"`
	Events []SpeciationEvent `json:"events"`
	Stats  struct {
		TotalEvents int            `json:"totalEvents"`
		ByMechanism map[string]int `json:"byMechanism"`
	} `json:"stats"`
}

// ToJSON serializes the engine: config, the shared matrix, the event log
// and aggregate stats.
func (e *Engine) ToJSON() ([]byte, error) {
	matrixData, err := e.matrix.ToJSON()
	if err != nil {
		return nil, err
	}

	wire := engineJSON{
		Config: e.Config,
		Matrix: matrixData,
		Events: e.events,
	}
	wire.Stats.TotalEvents = e.stats.TotalEvents
	wire.Stats.ByMechanism = e.stats.ByMechanism

	data, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("speciation engine: encoding JSON: %w", err)
	}
	return data, nil
}
