// Package world owns the simulation: the ECS storage, the per-tick
// orchestration of sensing, movement, predation, foraging, reproduction
// and speciation, and the telemetry flow.
package world

import (
	"math/rand"

	"github.com/google/uuid"
	"github.com/mlange-42/ark/ecs"

	"github.com/ecosysx/terrarium/brain"
	"github.com/ecosysx/terrarium/components"
	"github.com/ecosysx/terrarium/config"
	"github.com/ecosysx/terrarium/genome"
	"github.com/ecosysx/terrarium/speciation"
	"github.com/ecosysx/terrarium/systems"
	"github.com/ecosysx/terrarium/telemetry"
	"github.com/ecosysx/terrarium/trophic"
)

// Options configures a simulation run.
type Options struct {
	Seed      int64
	OutputDir string
	LogStats  bool
}

// World holds the complete simulation state.
type World struct {
	cfg *config.Config
	rng *rand.Rand

	ecs          *ecs.World
	entityMapper *ecs.Map4[
		components.Position,
		components.Velocity,
		components.Energy,
		components.Organism,
	]
	entityFilter *ecs.Filter4[
		components.Position,
		components.Velocity,
		components.Energy,
		components.Organism,
	]
	posMap    *ecs.Map1[components.Position]
	energyMap *ecs.Map1[components.Energy]
	orgMap    *ecs.Map1[components.Organism]

	// Per-organism state keyed by organism id (uuid). Brains and genomes
	// are pointer-heavy and mutate on reproduction, so they live beside
	// the ECS rather than in it.
	genomes map[string]*genome.Genome
	brains  map[string]brain.Brain

	// Per-tick trophic agent views, rebuilt before the hunt phase
	agents map[ecs.Entity]*trophic.Agent

	grid      *systems.SpatialGrid
	resources *systems.ResourceField

	tracker *trophic.Tracker
	hunter  *trophic.HuntingSystem

	matrix    *speciation.DivergenceMatrix
	isolation *speciation.ReproductiveIsolation
	engine    *speciation.Engine

	collector *telemetry.Collector
	output    *telemetry.OutputManager
	logStats  bool

	tick       int64
	population int
}

// uuidLineage issues opaque lineage ids for speciation events.
type uuidLineage struct{}

func (uuidLineage) NextLineageID() string { return uuid.NewString() }

// New creates a simulation world from configuration.
func New(cfg *config.Config, opts Options) (*World, error) {
	ecsWorld := ecs.NewWorld()

	w := &World{
		cfg: cfg,
		rng: rand.New(rand.NewSource(opts.Seed)),
		ecs: ecsWorld,
		entityMapper: ecs.NewMap4[
			components.Position,
			components.Velocity,
			components.Energy,
			components.Organism,
		](ecsWorld),
		entityFilter: ecs.NewFilter4[
			components.Position,
			components.Velocity,
			components.Energy,
			components.Organism,
		](ecsWorld),
		posMap:    ecs.NewMap1[components.Position](ecsWorld),
		energyMap: ecs.NewMap1[components.Energy](ecsWorld),
		orgMap:    ecs.NewMap1[components.Organism](ecsWorld),

		genomes:  make(map[string]*genome.Genome),
		brains:   make(map[string]brain.Brain),
		agents:   make(map[ecs.Entity]*trophic.Agent),
		logStats: opts.LogStats,
	}

	w.grid = systems.NewSpatialGrid(cfg.World.Width, cfg.World.Height, cfg.World.GridCellSize)
	w.resources = systems.NewResourceField(
		cfg.Resource.GridSize, cfg.Resource.GridSize,
		cfg.World.Width, cfg.World.Height,
		opts.Seed,
	)

	w.tracker = trophic.NewTracker(cfg.Trophic.Tracker)
	w.hunter = trophic.NewHuntingSystem(cfg.Trophic.Hunting, w.tracker, &agentIndex{w: w})

	w.matrix = speciation.NewDivergenceMatrix(cfg.Speciation.Divergence)
	w.isolation = speciation.NewReproductiveIsolation(cfg.Speciation.Isolation, w.matrix)
	w.engine = speciation.NewEngine(cfg.Speciation.Engine, w.matrix, uuidLineage{})

	w.collector = telemetry.NewCollector(cfg.Telemetry.StatsWindow)
	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	w.output = output

	w.spawnInitialPopulation()

	return w, nil
}

// agentIndex adapts the spatial grid to the predation collaborator
// contract, translating grid neighbors into trophic agent views.
type agentIndex struct {
	w *World
}

func (ai *agentIndex) QueryRadiusSorted(x, y, radius float64) []trophic.EntityDistance {
	neighbors := ai.w.grid.QueryRadiusSorted(x, y, radius, ecs.Entity{}, ai.w.posMap)
	out := make([]trophic.EntityDistance, 0, len(neighbors))
	for _, n := range neighbors {
		if agent, ok := ai.w.agents[n.E]; ok {
			out = append(out, trophic.EntityDistance{Agent: agent, Distance: n.Dist})
		}
	}
	return out
}

// Tick returns the current simulation tick.
func (w *World) Tick() int64 {
	return w.tick
}

// Population returns the number of living agents.
func (w *World) Population() int {
	return w.population
}

// Tracker exposes the trophic role tracker.
func (w *World) Tracker() *trophic.Tracker {
	return w.tracker
}

// Engine exposes the speciation engine.
func (w *World) Engine() *speciation.Engine {
	return w.engine
}

// Close flushes telemetry output.
func (w *World) Close() error {
	return w.output.Close()
}
