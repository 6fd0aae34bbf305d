package speciation

import (
	"encoding/json"
	"fmt"
	"testing"
)

type countingLineage struct {
	next int
}

func (c *countingLineage) NextLineageID() string {
	c.next++
	return fmt.Sprintf("lineage-%d", c.next)
}

// twoPopulationMatrix builds a matrix with two registered populations at
// the given separation and an explicit divergence between them.
func twoPopulationMatrix(separation, radius, divergence float64, members int) *DivergenceMatrix {
	m := NewDivergenceMatrix(DefaultDivergenceConfig())
	m.RegisterPopulation(&PopulationDescriptor{
		ID: "pop-a", LineageID: "lineage-root",
		Centroid: uniformGenome(10, 0.0), MemberCount: members * 2,
		CenterX: 0, CenterY: 0, Radius: radius,
	}, 0)
	m.RegisterPopulation(&PopulationDescriptor{
		ID: "pop-b", LineageID: "lineage-root",
		Centroid: uniformGenome(10, 0.5), MemberCount: members,
		CenterX: separation, CenterY: 0, Radius: radius,
	}, 0)
	m.SetDivergence("pop-a", "pop-b", divergence, 0)
	return m
}

func TestEngineEmitsGeographicEvent(t *testing.T) {
	// Separation 500 against combined radii 100: well past the 2x cutoff.
	m := twoPopulationMatrix(500, 50, 0.6, 10)
	lineage := &countingLineage{}
	eng := NewEngine(DefaultEngineConfig(), m, lineage)

	events := eng.Update(50)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	ev := events[0]
	if ev.Mechanism != MechanismGeographicIsolation {
		t.Errorf("mechanism = %q, want %q", ev.Mechanism, MechanismGeographicIsolation)
	}
	if ev.ParentPopulationID != "pop-a" || ev.NewPopulationID != "pop-b" {
		t.Errorf("smaller population should found the species: %+v", ev)
	}
	if ev.NewLineageID != "lineage-1" {
		t.Errorf("new lineage id = %q, want lineage-1", ev.NewLineageID)
	}
	if ev.ID == "" {
		t.Error("event id is empty")
	}
	if ev.PopulationDivergence != 0.6 {
		t.Errorf("event divergence = %v, want 0.6", ev.PopulationDivergence)
	}
	if m.Population("pop-b").LineageID != "lineage-1" {
		t.Error("founder's lineage id not reassigned")
	}
	if stats := eng.Stats(); stats.TotalEvents != 1 || stats.ByMechanism[MechanismGeographicIsolation] != 1 {
		t.Errorf("stats not updated: %+v", stats)
	}
}

func TestEngineMechanismClassification(t *testing.T) {
	tests := []struct {
		name       string
		separation float64
		radius     float64
		want       string
	}{
		{"fully overlapping", 0, 50, MechanismGeneticDrift},
		{"partially separated", 80, 50, MechanismEcologicalSpecialization},
		{"disjoint ranges", 500, 50, MechanismGeographicIsolation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := twoPopulationMatrix(tc.separation, tc.radius, 0.6, 10)
			eng := NewEngine(DefaultEngineConfig(), m, &countingLineage{})
			events := eng.Update(50)
			if len(events) != 1 {
				t.Fatalf("got %d events, want 1", len(events))
			}
			if events[0].Mechanism != tc.want {
				t.Errorf("mechanism = %q, want %q", events[0].Mechanism, tc.want)
			}
		})
	}
}

func TestEngineCooldownSuppressesRepeats(t *testing.T) {
	m := twoPopulationMatrix(500, 50, 0.6, 10)
	cfg := DefaultEngineConfig()
	eng := NewEngine(cfg, m, &countingLineage{})

	if events := eng.Update(50); len(events) != 1 {
		t.Fatalf("first pass: got %d events, want 1", len(events))
	}

	// Divergence stays above threshold, but both populations just split.
	m.SetDivergence("pop-a", "pop-b", 0.6, 60)
	if events := eng.Update(60); len(events) != 0 {
		t.Fatalf("within cooldown: got %d events, want 0", len(events))
	}

	if events := eng.Update(50 + cfg.SpeciationCooldown + 1); len(events) != 1 {
		t.Fatalf("after cooldown: got %d events, want 1", len(events))
	}
}

func TestEngineFoundingPopulationGate(t *testing.T) {
	// Smaller population has 3 members, below the default floor of 5.
	m := twoPopulationMatrix(500, 50, 0.6, 3)
	eng := NewEngine(DefaultEngineConfig(), m, &countingLineage{})

	if events := eng.Update(50); len(events) != 0 {
		t.Fatalf("got %d events, want 0 for an undersized founder", len(events))
	}
}

func TestEngineDisabledMechanismSkipped(t *testing.T) {
	m := twoPopulationMatrix(500, 50, 0.6, 10)
	cfg := DefaultEngineConfig()
	cfg.EnableGeographic = false
	eng := NewEngine(cfg, m, &countingLineage{})

	if events := eng.Update(50); len(events) != 0 {
		t.Fatalf("got %d events with geographic speciation disabled, want 0", len(events))
	}
}

func TestEngineBelowThresholdNoEvents(t *testing.T) {
	m := twoPopulationMatrix(500, 50, 0.1, 10)
	eng := NewEngine(DefaultEngineConfig(), m, &countingLineage{})

	if events := eng.Update(50); len(events) != 0 {
		t.Fatalf("got %d events below the divergence threshold, want 0", len(events))
	}
}

func TestMatrixToJSON(t *testing.T) {
	m := twoPopulationMatrix(500, 50, 0.6, 10)

	data, err := m.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	var decoded struct {
		Config      DivergenceConfig `json:"config"`
		Populations []struct {
			ID       string    `json:"id"`
			Centroid []float64 `json:"centroid"`
		} `json:"populations"`
		Entries []struct {
			PopulationA string  `json:"populationA"`
			PopulationB string  `json:"populationB"`
			Divergence  float64 `json:"divergence"`
		} `json:"entries"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded.Config.DivergenceThreshold != m.Config.DivergenceThreshold {
		t.Error("config not serialized")
	}
	if len(decoded.Populations) != 2 {
		t.Fatalf("got %d populations, want 2", len(decoded.Populations))
	}
	if decoded.Populations[0].ID != "pop-a" || decoded.Populations[1].ID != "pop-b" {
		t.Errorf("populations not sorted by id: %+v", decoded.Populations)
	}
	if len(decoded.Populations[0].Centroid) != 10 {
		t.Errorf("centroid length = %d, want 10", len(decoded.Populations[0].Centroid))
	}
	if len(decoded.Entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(decoded.Entries))
	}
	e := decoded.Entries[0]
	if e.PopulationA != "pop-a" || e.PopulationB != "pop-b" {
		t.Errorf("entry key not canonical: %+v", e)
	}
	if e.Divergence != 0.6 {
		t.Errorf("entry divergence = %v, want 0.6", e.Divergence)
	}
}

func TestEngineToJSON(t *testing.T) {
	m := twoPopulationMatrix(500, 50, 0.6, 10)
	eng := NewEngine(DefaultEngineConfig(), m, &countingLineage{})
	eng.Update(50)

	data, err := eng.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	var decoded struct {
		Config EngineConfig      `json:"config"`
		Matrix json.RawMessage   `json:"matrix"`
		Events []SpeciationEvent `json:"events"`
		Stats  struct {
			TotalEvents int            `json:"totalEvents"`
			ByMechanism map[string]int `json:"byMechanism"`
		} `json:"stats"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(decoded.Events) != 1 {
		t.Fatalf("got %d events, want 1", len(decoded.Events))
	}
	if decoded.Events[0].Mechanism != MechanismGeographicIsolation {
		t.Errorf("event mechanism = %q", decoded.Events[0].Mechanism)
	}
	if decoded.Stats.TotalEvents != 1 {
		t.Errorf("stats totalEvents = %d, want 1", decoded.Stats.TotalEvents)
	}
	if len(decoded.Matrix) == 0 {
		t.Error("embedded matrix missing")
	}
}
