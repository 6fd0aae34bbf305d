package world

import (
	"fmt"
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/ecosysx/terrarium/brain"
	"github.com/ecosysx/terrarium/components"
	"github.com/ecosysx/terrarium/genome"
	"github.com/ecosysx/terrarium/systems"
)

// Founder species seeded at startup. Each maps to an FCM preset and a
// trophic inclination; roles are still learned from observed behavior.
var founderSpecies = []string{"herbivore", "carnivore", "omnivore"}

// spawnInitialPopulation seeds founder populations in separate regions so
// geographic structure exists from the first tick.
func (w *World) spawnInitialPopulation() {
	n := w.cfg.World.InitialPopulation
	pops := len(founderSpecies)

	for i := 0; i < n; i++ {
		popIdx := i % pops
		species := founderSpecies[popIdx]
		popID := fmt.Sprintf("pop-%d", popIdx+1)

		// Cluster each population around its own region center
		angle := 2 * math.Pi * float64(popIdx) / float64(pops)
		cx := w.cfg.World.Width/2 + math.Cos(angle)*w.cfg.World.Width/4
		cy := w.cfg.World.Height/2 + math.Sin(angle)*w.cfg.World.Height/4
		x := cx + (w.rng.Float64()-0.5)*w.cfg.World.Width/6
		y := cy + (w.rng.Float64()-0.5)*w.cfg.World.Height/6
		x, y = w.wrap(x, y)

		g := genome.NewRandom(w.rng, w.cfg.Genome.Length, w.cfg.Genome.Mutation)
		b := w.newBrain(species)

		w.spawnAgent(x, y, species, popID, g, b)
	}

	w.refreshPopulations()
}

// newBrain builds a founder brain for a species according to config.
func (w *World) newBrain(species string) brain.Brain {
	if w.cfg.Brain.Kind == brain.TypeNeural {
		return brain.NewNeuralBrain(w.rng)
	}
	return brain.NewFCMBrainPreset(species)
}

// spawnAgent creates an agent entity and registers its genome and brain.
// Physical traits derive from the leading genes, so selection on hunting
// and escape feeds back into the genome.
func (w *World) spawnAgent(x, y float64, speciesID, populationID string, g *genome.Genome, b brain.Brain) ecs.Entity {
	pos := components.Position{X: x, Y: y}
	vel := components.Velocity{}
	energy := components.Energy{
		Current: w.cfg.Energy.Initial,
		Max:     w.cfg.Energy.Max,
		Alive:   true,
	}
	org := components.Organism{
		ID:            g.ID,
		SpeciesID:     speciesID,
		PopulationID:  populationID,
		Size:          traitFromGene(g, 0),
		Speed:         traitFromGene(g, 1),
		Strength:      traitFromGene(g, 2),
		Heading:       w.rng.Float64() * 2 * math.Pi,
		BreedCooldown: w.cfg.Breeding.Cooldown,
		Generation:    g.Generation,
	}

	w.genomes[g.ID] = g
	w.brains[g.ID] = b

	e := w.entityMapper.NewEntity(&pos, &vel, &energy, &org)
	w.population++
	return e
}

// traitFromGene maps a gene in [-1,1] to a trait in [0.5,1.5].
func traitFromGene(g *genome.Genome, idx int) float64 {
	if idx >= len(g.Genes) {
		return 1.0
	}
	return 1.0 + g.Genes[idx]/2
}

func (w *World) wrap(x, y float64) (float64, float64) {
	return systems.WrapPosition(x, y, w.cfg.World.Width, w.cfg.World.Height)
}
