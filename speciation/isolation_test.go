package speciation

import (
	"testing"
)

func hasFactor(compat MatingCompatibility, factorType string) bool {
	for _, f := range compat.Factors {
		if f.Type == factorType {
			return true
		}
	}
	return false
}

func TestCompatiblePairHasNoFactors(t *testing.T) {
	iso := NewReproductiveIsolation(DefaultIsolationConfig(), nil)
	a := MateCandidate{Genome: uniformGenome(10, 0.1), X: 10, Y: 10}
	b := MateCandidate{Genome: uniformGenome(10, 0.1), X: 15, Y: 12}

	compat, err := iso.CheckCompatibility(a, b)
	if err != nil {
		t.Fatalf("CheckCompatibility: %v", err)
	}
	if !compat.CanMate {
		t.Errorf("identical nearby genomes should mate, factors: %+v", compat.Factors)
	}
	if compat.GeneticDistance != 0 {
		t.Errorf("genetic distance = %v, want 0", compat.GeneticDistance)
	}
}

func TestGeneticIsolationFactor(t *testing.T) {
	iso := NewReproductiveIsolation(DefaultIsolationConfig(), nil)
	// Uniform gene gap of 0.8 over 10 genes: normalized distance 0.4,
	// past the 0.3 mating threshold.
	a := MateCandidate{Genome: uniformGenome(10, -0.4)}
	b := MateCandidate{Genome: uniformGenome(10, 0.4)}

	compat, err := iso.CheckCompatibility(a, b)
	if err != nil {
		t.Fatalf("CheckCompatibility: %v", err)
	}
	if compat.CanMate {
		t.Error("genetically distant pair should not mate")
	}
	if !hasFactor(compat, FactorGenetic) {
		t.Errorf("expected genetic factor, got %+v", compat.Factors)
	}
}

func TestGeographicIsolationFactor(t *testing.T) {
	iso := NewReproductiveIsolation(DefaultIsolationConfig(), nil)
	a := MateCandidate{Genome: uniformGenome(10, 0.1), X: 0, Y: 0}
	b := MateCandidate{Genome: uniformGenome(10, 0.1), X: 500, Y: 0}

	compat, err := iso.CheckCompatibility(a, b)
	if err != nil {
		t.Fatalf("CheckCompatibility: %v", err)
	}
	if compat.CanMate {
		t.Error("pair beyond the isolation radius should not mate")
	}
	if !hasFactor(compat, FactorGeographic) {
		t.Errorf("expected geographic factor, got %+v", compat.Factors)
	}
}

func TestPopulationDivergenceFactor(t *testing.T) {
	m := NewDivergenceMatrix(DefaultDivergenceConfig())
	m.RegisterPopulation(&PopulationDescriptor{ID: "pop-a", MemberCount: 5}, 0)
	m.RegisterPopulation(&PopulationDescriptor{ID: "pop-b", MemberCount: 5}, 0)
	m.SetDivergence("pop-a", "pop-b", 0.9, 0)

	iso := NewReproductiveIsolation(DefaultIsolationConfig(), m)
	a := MateCandidate{Genome: uniformGenome(10, 0.1), PopulationID: "pop-a"}
	b := MateCandidate{Genome: uniformGenome(10, 0.1), PopulationID: "pop-b"}

	compat, err := iso.CheckCompatibility(a, b)
	if err != nil {
		t.Fatalf("CheckCompatibility: %v", err)
	}
	if compat.CanMate {
		t.Error("highly diverged populations should not interbreed")
	}
	if !hasFactor(compat, FactorPopulation) {
		t.Errorf("expected population factor, got %+v", compat.Factors)
	}

	// Same-population mates never trigger the divergence barrier.
	b.PopulationID = "pop-a"
	compat, err = iso.CheckCompatibility(a, b)
	if err != nil {
		t.Fatalf("CheckCompatibility: %v", err)
	}
	if hasFactor(compat, FactorPopulation) {
		t.Error("population factor fired for same-population mates")
	}
}

func TestBehavioralFactorNeedsBorderlineDistance(t *testing.T) {
	iso := NewReproductiveIsolation(DefaultIsolationConfig(), nil)

	// Same tags, borderline distance: no behavioral barrier.
	a := MateCandidate{Genome: uniformGenome(10, 0.0), SpeciesID: "sp-1"}
	b := MateCandidate{Genome: uniformGenome(10, 0.5), SpeciesID: "sp-1"}
	compat, err := iso.CheckCompatibility(a, b)
	if err != nil {
		t.Fatalf("CheckCompatibility: %v", err)
	}
	if hasFactor(compat, FactorBehavioral) {
		t.Error("behavioral factor fired for identical species tags")
	}

	// Differing tags but genetically close: still no behavioral barrier.
	b = MateCandidate{Genome: uniformGenome(10, 0.05), SpeciesID: "sp-2"}
	compat, err = iso.CheckCompatibility(a, b)
	if err != nil {
		t.Fatalf("CheckCompatibility: %v", err)
	}
	if hasFactor(compat, FactorBehavioral) {
		t.Error("behavioral factor fired without borderline genetic distance")
	}

	// Differing tags with distance past 70% of the mating threshold.
	b = MateCandidate{Genome: uniformGenome(10, 0.5), SpeciesID: "sp-2"}
	compat, err = iso.CheckCompatibility(a, b)
	if err != nil {
		t.Fatalf("CheckCompatibility: %v", err)
	}
	if !hasFactor(compat, FactorBehavioral) {
		t.Errorf("expected behavioral factor, got %+v", compat.Factors)
	}

	// Disabling the policy suppresses it.
	cfg := DefaultIsolationConfig()
	cfg.BehavioralIsolationEnabled = false
	iso = NewReproductiveIsolation(cfg, nil)
	compat, err = iso.CheckCompatibility(a, b)
	if err != nil {
		t.Fatalf("CheckCompatibility: %v", err)
	}
	if hasFactor(compat, FactorBehavioral) {
		t.Error("behavioral factor fired while disabled")
	}
}

func TestCheckCompatibilityLengthMismatch(t *testing.T) {
	iso := NewReproductiveIsolation(DefaultIsolationConfig(), nil)
	a := MateCandidate{Genome: uniformGenome(10, 0.1)}
	b := MateCandidate{Genome: uniformGenome(12, 0.1)}

	if _, err := iso.CheckCompatibility(a, b); err == nil {
		t.Error("expected error for mismatched genome lengths")
	}
	if iso.CanMate(a, b) {
		t.Error("CanMate must be false on precondition failure")
	}
}

func TestIsolationScoreOrdering(t *testing.T) {
	iso := NewReproductiveIsolation(DefaultIsolationConfig(), nil)
	base := MateCandidate{Genome: uniformGenome(10, 0.0)}
	near := MateCandidate{Genome: uniformGenome(10, 0.1)}
	far := MateCandidate{Genome: uniformGenome(10, 0.9), X: 500}

	nearScore, err := iso.IsolationScore(base, near)
	if err != nil {
		t.Fatalf("IsolationScore: %v", err)
	}
	farScore, err := iso.IsolationScore(base, far)
	if err != nil {
		t.Fatalf("IsolationScore: %v", err)
	}
	if farScore <= nearScore {
		t.Errorf("isolation score not ordered: near=%v far=%v", nearScore, farScore)
	}
}

func TestIsSpeciationCandidate(t *testing.T) {
	iso := NewReproductiveIsolation(DefaultIsolationConfig(), nil)
	centroid := uniformGenome(10, 0.0)

	drifted, err := iso.IsSpeciationCandidate(uniformGenome(10, 0.9), centroid, 0.3)
	if err != nil {
		t.Fatalf("IsSpeciationCandidate: %v", err)
	}
	if !drifted {
		t.Error("strongly drifted genome should be a candidate")
	}

	settled, err := iso.IsSpeciationCandidate(uniformGenome(10, 0.05), centroid, 0.3)
	if err != nil {
		t.Fatalf("IsSpeciationCandidate: %v", err)
	}
	if settled {
		t.Error("genome near the centroid should not be a candidate")
	}
}
