package genome

import (
	"math"
	"math/rand"
	"testing"
)

func testRNG() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

func TestMutateRateZeroLeavesGenesUntouched(t *testing.T) {
	rng := testRNG()
	cfg := DefaultMutationConfig()
	cfg.MutationRate = 0

	g := NewRandom(rng, 50, cfg)
	before := append([]float64(nil), g.Genes...)

	result := g.Mutate(rng, 10, nil)

	if result.MutatedCount != 0 {
		t.Errorf("MutatedCount = %d, want 0", result.MutatedCount)
	}
	for i := range before {
		if g.Genes[i] != before[i] {
			t.Errorf("gene %d changed: %v -> %v", i, before[i], g.Genes[i])
		}
	}
	if g.MutationCount != 0 {
		t.Errorf("MutationCount = %d, want 0", g.MutationCount)
	}
}

func TestMutateRateOneMutatesEveryGene(t *testing.T) {
	rng := testRNG()
	g := New(100, DefaultMutationConfig())

	result := g.Mutate(rng, 0, &MutationConfig{
		MutationRate:      1.0,
		MutationMagnitude: 0.5,
		MinValue:          -1,
		MaxValue:          1,
		UseGaussian:       true,
	})

	if result.MutatedCount != 100 {
		t.Errorf("MutatedCount = %d, want 100", result.MutatedCount)
	}
	for i, v := range g.Genes {
		if v < -1 || v > 1 {
			t.Errorf("gene %d = %v, outside [-1,1]", i, v)
		}
	}
	if g.LastMutationTick != 0 || g.MutationCount != 1 {
		t.Errorf("mutation bookkeeping: count=%d tick=%d", g.MutationCount, g.LastMutationTick)
	}
}

func TestGeneLengthConstantAcrossLifetime(t *testing.T) {
	rng := testRNG()
	g := NewRandom(rng, 16, DefaultMutationConfig())

	g.Mutate(rng, 1, nil)
	child := g.Reproduce(rng, 2, true)
	cross, err := g.Crossover(rng, child, 3, 0.5)
	if err != nil {
		t.Fatalf("crossover failed: %v", err)
	}

	for _, got := range []int{g.Size(), child.Size(), cross.Size()} {
		if got != 16 {
			t.Errorf("genome size = %d, want 16", got)
		}
	}
}

func TestDistanceSymmetryAndRange(t *testing.T) {
	rng := testRNG()
	a := NewRandom(rng, 20, DefaultMutationConfig())
	b := NewRandom(rng, 20, DefaultMutationConfig())

	dab, err := a.DistanceFrom(b)
	if err != nil {
		t.Fatalf("distance failed: %v", err)
	}
	dba, _ := b.DistanceFrom(a)
	if dab != dba {
		t.Errorf("distance asymmetric: %v vs %v", dab, dba)
	}

	self, _ := a.DistanceFrom(a)
	if self != 0 {
		t.Errorf("self distance = %v, want 0", self)
	}

	norm, err := a.NormalizedDistanceFrom(b)
	if err != nil {
		t.Fatalf("normalized distance failed: %v", err)
	}
	if norm < 0 || norm > 1 {
		t.Errorf("normalized distance = %v, outside [0,1]", norm)
	}
}

func TestDistanceLengthMismatch(t *testing.T) {
	rng := testRNG()
	a := NewRandom(rng, 10, DefaultMutationConfig())
	b := NewRandom(rng, 5, DefaultMutationConfig())

	if _, err := a.DistanceFrom(b); err == nil {
		t.Error("expected error for mismatched lengths")
	}
	if _, err := a.HammingDistanceFrom(b, 0); err == nil {
		t.Error("expected hamming error for mismatched lengths")
	}
	if _, err := a.Crossover(testRNG(), b, 0, 0.5); err == nil {
		t.Error("expected crossover error for mismatched lengths")
	}
}

func TestCrossoverShapeAndGeneration(t *testing.T) {
	rng := testRNG()
	a := NewRandom(rng, 10, DefaultMutationConfig())
	b := NewRandom(rng, 10, DefaultMutationConfig())
	a.Generation = 3
	b.Generation = 7

	child, err := a.Crossover(rng, b, 5, 0.5)
	if err != nil {
		t.Fatalf("crossover failed: %v", err)
	}
	if child.Size() != 10 {
		t.Errorf("child size = %d, want 10", child.Size())
	}
	if child.Generation != 8 {
		t.Errorf("child generation = %d, want 8", child.Generation)
	}
	if child.ParentID != a.ID {
		t.Errorf("child parent = %q, want receiver id %q", child.ParentID, a.ID)
	}

	// Every child gene must come from one of the two parents.
	for i := range child.Genes {
		if child.Genes[i] != a.Genes[i] && child.Genes[i] != b.Genes[i] {
			t.Errorf("gene %d = %v from neither parent", i, child.Genes[i])
		}
	}
}

func TestCrossoverRateExtremes(t *testing.T) {
	rng := testRNG()
	a := NewRandom(rng, 12, DefaultMutationConfig())
	b := NewRandom(rng, 12, DefaultMutationConfig())

	allSelf, _ := a.Crossover(rng, b, 0, 0.0)
	for i := range allSelf.Genes {
		if allSelf.Genes[i] != a.Genes[i] {
			t.Errorf("rate 0: gene %d not from receiver", i)
		}
	}

	allOther, _ := a.Crossover(rng, b, 0, 1.0)
	for i := range allOther.Genes {
		if allOther.Genes[i] != b.Genes[i] {
			t.Errorf("rate 1: gene %d not from other parent", i)
		}
	}
}

func TestReproduceLineage(t *testing.T) {
	rng := testRNG()
	parent := NewRandom(rng, 8, DefaultMutationConfig())
	parent.Generation = 4
	parentGenes := append([]float64(nil), parent.Genes...)

	child := parent.Reproduce(rng, 100, false)

	if child.Generation != 5 {
		t.Errorf("child generation = %d, want 5", child.Generation)
	}
	if child.ParentID != parent.ID {
		t.Errorf("child parent = %q, want %q", child.ParentID, parent.ID)
	}
	if child.ID == parent.ID {
		t.Error("child must get a fresh id")
	}
	for i := range parentGenes {
		if child.Genes[i] != parentGenes[i] {
			t.Errorf("gene %d not copied: %v vs %v", i, child.Genes[i], parentGenes[i])
		}
		if parent.Genes[i] != parentGenes[i] {
			t.Errorf("parent gene %d mutated by reproduce", i)
		}
	}
}

func TestHammingDistance(t *testing.T) {
	cfg := DefaultMutationConfig()
	a := New(4, cfg)
	b := New(4, cfg)
	a.Genes = []float64{0.5, -0.5, 0.5, -0.5}
	b.Genes = []float64{0.5, 0.5, -0.5, -0.5}

	d, err := a.HammingDistanceFrom(b, 0)
	if err != nil {
		t.Fatalf("hamming failed: %v", err)
	}
	if d != 2 {
		t.Errorf("hamming distance = %d, want 2", d)
	}

	norm, _ := a.NormalizedHammingDistanceFrom(b, 0)
	if math.Abs(norm-0.5) > 1e-9 {
		t.Errorf("normalized hamming = %v, want 0.5", norm)
	}

	ok, _ := a.CanBreedWith(b, 2)
	if !ok {
		t.Error("CanBreedWith(maxBits=2) = false, want true")
	}
	ok, _ = a.CanBreedWith(b, 1)
	if ok {
		t.Error("CanBreedWith(maxBits=1) = true, want false")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	rng := testRNG()
	g := NewRandom(rng, 6, DefaultMutationConfig())
	g.Generation = 9
	g.ParentID = "parent-1"
	g.MutationCount = 3
	g.LastMutationTick = 77

	data, err := g.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}

	restored, err := FromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON failed: %v", err)
	}

	if restored.ID == g.ID {
		t.Error("FromJSON must issue a fresh id")
	}
	if restored.Generation != 9 || restored.ParentID != "parent-1" {
		t.Errorf("lineage metadata lost: gen=%d parent=%q", restored.Generation, restored.ParentID)
	}
	if restored.MutationCount != 3 || restored.LastMutationTick != 77 {
		t.Errorf("mutation stats lost: count=%d tick=%d", restored.MutationCount, restored.LastMutationTick)
	}
	for i := range g.Genes {
		if math.Abs(restored.Genes[i]-g.Genes[i]) > 1e-12 {
			t.Errorf("gene %d = %v, want %v", i, restored.Genes[i], g.Genes[i])
		}
	}
	if restored.Config != g.Config {
		t.Errorf("mutation config lost: %+v vs %+v", restored.Config, g.Config)
	}

	kept, err := FromJSONWithID(data, g.ID)
	if err != nil {
		t.Fatalf("FromJSONWithID failed: %v", err)
	}
	if kept.ID != g.ID {
		t.Errorf("FromJSONWithID id = %q, want %q", kept.ID, g.ID)
	}
}
