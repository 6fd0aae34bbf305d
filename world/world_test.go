package world

import (
	"math"
	"sort"
	"testing"

	"github.com/ecosysx/terrarium/config"
)

func testWorld(t *testing.T, population int) *World {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	cfg.World.InitialPopulation = population

	w, err := New(cfg, Options{Seed: 42})
	if err != nil {
		t.Fatalf("creating world: %v", err)
	}
	return w
}

func TestNewWorldSpawnsConfiguredPopulation(t *testing.T) {
	w := testWorld(t, 9)

	if got := w.Population(); got != 9 {
		t.Fatalf("Population() = %d, want 9", got)
	}
	if len(w.genomes) != 9 || len(w.brains) != 9 {
		t.Fatalf("registered %d genomes and %d brains, want 9 each", len(w.genomes), len(w.brains))
	}

	pops := w.matrix.Populations()
	if len(pops) != len(founderSpecies) {
		t.Fatalf("registered %d populations, want %d", len(pops), len(founderSpecies))
	}
	for _, pop := range pops {
		if pop.MemberCount != 3 {
			t.Errorf("population %s has %d members, want 3", pop.ID, pop.MemberCount)
		}
		if pop.LineageID == "" {
			t.Errorf("population %s has empty lineage id", pop.ID)
		}
		if pop.Centroid == nil {
			t.Errorf("population %s has no genetic centroid", pop.ID)
		}
		if pop.Radius <= 0 {
			t.Errorf("population %s has radius %f, want > 0", pop.ID, pop.Radius)
		}
	}
}

func TestStepAdvancesTickWithoutEarlyDeaths(t *testing.T) {
	w := testWorld(t, 9)

	for i := 0; i < 10; i++ {
		w.Step()
	}

	if got := w.Tick(); got != 10 {
		t.Fatalf("Tick() = %d, want 10", got)
	}
	// Founder clusters sit far apart and breeding cooldowns have not
	// elapsed, so the headcount is stable this early.
	if got := w.Population(); got != 9 {
		t.Fatalf("Population() = %d, want 9", got)
	}

	alive := 0
	query := w.entityFilter.Query()
	for query.Next() {
		_, _, energy, _ := query.Get()
		if energy.Alive {
			alive++
		}
	}
	if alive != w.Population() {
		t.Fatalf("counted %d alive entities, Population() says %d", alive, w.Population())
	}
}

func TestStarvedAgentIsReaped(t *testing.T) {
	w := testWorld(t, 9)

	var starvedID string
	query := w.entityFilter.Query()
	for query.Next() {
		_, _, energy, org := query.Get()
		if starvedID == "" {
			// Deep deficit so a lucky graze cannot revive it mid-tick
			energy.Current = -1000
			starvedID = org.ID
		}
	}
	if starvedID == "" {
		t.Fatal("no entity found to starve")
	}

	w.Step()

	if got := w.Population(); got != 8 {
		t.Fatalf("Population() = %d after starvation, want 8", got)
	}
	if _, ok := w.genomes[starvedID]; ok {
		t.Error("starved organism's genome was not released")
	}
	if _, ok := w.brains[starvedID]; ok {
		t.Error("starved organism's brain was not released")
	}
}

func TestRefreshPopulationsKeepsLineage(t *testing.T) {
	w := testWorld(t, 9)

	before := make(map[string]string)
	for _, pop := range w.matrix.Populations() {
		before[pop.ID] = pop.LineageID
	}

	w.refreshPopulations()

	for _, pop := range w.matrix.Populations() {
		if pop.LineageID != before[pop.ID] {
			t.Errorf("population %s lineage changed from %s to %s on refresh",
				pop.ID, before[pop.ID], pop.LineageID)
		}
	}
}

func TestSameSeedReplaysExactly(t *testing.T) {
	run := func(seed int64, ticks int) [][3]float64 {
		cfg, err := config.Load("")
		if err != nil {
			t.Fatalf("loading defaults: %v", err)
		}
		cfg.World.InitialPopulation = 30

		w, err := New(cfg, Options{Seed: seed})
		if err != nil {
			t.Fatalf("creating world: %v", err)
		}
		for i := 0; i < ticks; i++ {
			w.Step()
		}

		var states [][3]float64
		query := w.entityFilter.Query()
		for query.Next() {
			pos, _, energy, _ := query.Get()
			states = append(states, [3]float64{pos.X, pos.Y, energy.Current})
		}
		sort.Slice(states, func(i, j int) bool {
			a, b := states[i], states[j]
			if a[0] != b[0] {
				return a[0] < b[0]
			}
			if a[1] != b[1] {
				return a[1] < b[1]
			}
			return a[2] < b[2]
		})
		return states
	}

	const ticks = 200
	first := run(7, ticks)
	second := run(7, ticks)

	if len(first) != len(second) {
		t.Fatalf("runs diverged in population: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("runs diverged at agent %d: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestCircularMean(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		period float64
		want   float64
	}{
		{"single value", []float64{500}, 2000, 500},
		{"plain average", []float64{100, 200}, 2000, 150},
		{"straddles seam", []float64{1990, 10}, 2000, 0},
		{"empty", nil, 2000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := circularMean(tt.values, tt.period)
			// The seam case may land on either side of the wrap point
			diff := math.Abs(got - tt.want)
			if diff > tt.period/2 {
				diff = tt.period - diff
			}
			if diff > 1e-6 {
				t.Errorf("circularMean(%v, %v) = %f, want %f", tt.values, tt.period, got, tt.want)
			}
		})
	}
}

func TestAgentIndexReturnsTrophicViews(t *testing.T) {
	w := testWorld(t, 9)
	w.rebuildGrid()

	var x, y float64
	found := false
	query := w.entityFilter.Query()
	for query.Next() {
		pos, _, _, _ := query.Get()
		if !found {
			x, y = pos.X, pos.Y
			found = true
		}
	}
	if !found {
		t.Fatal("no entities in world")
	}

	index := &agentIndex{w: w}
	results := index.QueryRadiusSorted(x, y, w.cfg.World.Width)
	if len(results) == 0 {
		t.Fatal("expected neighbors within world-sized radius")
	}
	for i, r := range results {
		if r.Agent == nil {
			t.Fatalf("result %d has nil agent view", i)
		}
		if i > 0 && results[i-1].Distance > r.Distance {
			t.Fatalf("results not sorted by distance at %d", i)
		}
	}
}
