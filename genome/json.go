package genome

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// genomeJSON is the wire shape for genome serialization. Field names are
// significant for round-trip compatibility with external save files.
type genomeJSON struct {
	ID             string         `json:"id"`
	Genes          []float64      `json:"genes"`
	Stats          genomeStats    `json:"stats"`
	MutationConfig MutationConfig `json:"mutationConfig"`
}

type genomeStats struct {
	Generation       int    `json:"generation"`
	MutationCount    int    `json:"mutationCount"`
	LastMutationTick int64  `json:"lastMutationTick"`
	ParentID         string `json:"parentId"`
	CreatedAt        int64  `json:"createdAt"`
}

// ToJSON serializes the genome.
func (g *Genome) ToJSON() ([]byte, error) {
	return json.Marshal(genomeJSON{
		ID:    g.ID,
		Genes: g.Genes,
		Stats: genomeStats{
			Generation:       g.Generation,
			MutationCount:    g.MutationCount,
			LastMutationTick: g.LastMutationTick,
			ParentID:         g.ParentID,
			CreatedAt:        g.CreatedAt,
		},
		MutationConfig: g.Config,
	})
}

// FromJSON deserializes a genome. The serialized id is discarded and a
// fresh one issued; use FromJSONWithID to keep a caller-chosen id.
func FromJSON(data []byte) (*Genome, error) {
	return FromJSONWithID(data, "")
}

// FromJSONWithID deserializes a genome, assigning the given id. An empty
// id requests a freshly generated one.
func FromJSONWithID(data []byte, id string) (*Genome, error) {
	var wire genomeJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("genome: decoding JSON: %w", err)
	}
	if id == "" {
		id = uuid.NewString()
	}
	return &Genome{
		ID:               id,
		Genes:            wire.Genes,
		Generation:       wire.Stats.Generation,
		ParentID:         wire.Stats.ParentID,
		MutationCount:    wire.Stats.MutationCount,
		LastMutationTick: wire.Stats.LastMutationTick,
		CreatedAt:        wire.Stats.CreatedAt,
		Config:           wire.MutationConfig,
	}, nil
}
