package world

import (
	"log/slog"
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/ecosysx/terrarium/brain"
	"github.com/ecosysx/terrarium/components"
	"github.com/ecosysx/terrarium/genome"
	"github.com/ecosysx/terrarium/speciation"
	"github.com/ecosysx/terrarium/telemetry"
	"github.com/ecosysx/terrarium/trophic"
)

// Sensing ray offsets relative to heading, in radians.
const (
	rayFrontLeft  = -0.5
	rayFrontRight = 0.5
	rayLeft       = -1.2
	rayRight      = 1.2
)

// Step advances the simulation by one tick.
func (w *World) Step() {
	w.tick++

	w.resources.Step()

	// Sense and move against last tick's positions
	w.rebuildGrid()
	actions := w.senseThinkMove()

	// Fresh grid and trophic agent views for predation
	w.rebuildGrid()
	fed := w.resolveHunts(actions)
	w.forage(actions, fed)
	w.reproduce(actions)

	if interval := w.cfg.Trophic.RoleUpdateInterval; interval > 0 && w.tick%interval == 0 {
		w.tracker.UpdateRoles(w.tick)
	}
	w.updateSpeciation()

	w.applyMetabolism()
	w.reapDead()

	w.flushTelemetry()
}

// rebuildGrid reindexes living entities and refreshes the trophic agent
// views the hunting system operates on.
func (w *World) rebuildGrid() {
	w.grid.Clear()
	for e := range w.agents {
		delete(w.agents, e)
	}

	query := w.entityFilter.Query()
	for query.Next() {
		e := query.Entity()
		pos, _, energy, org := query.Get()

		if !energy.Alive {
			continue
		}

		w.grid.Insert(e, pos.X, pos.Y)
		w.agents[e] = &trophic.Agent{
			ID:        org.ID,
			SpeciesID: org.SpeciesID,
			X:         pos.X,
			Y:         pos.Y,
			Energy:    energy.Current,
			Size:      org.Size,
			Speed:     org.Speed,
			Strength:  org.Strength,
			Alive:     true,
		}
	}
}

// pendingAction is one entity's decision for this tick. The downstream
// phases iterate these in query order so a seeded run replays exactly;
// ranging a map here would reorder rng consumption between runs.
type pendingAction struct {
	e      ecs.Entity
	action int
}

// senseThinkMove runs the perception-decision-movement phase and returns
// each entity's chosen action for the downstream phases.
func (w *World) senseThinkMove() []pendingAction {
	actions := make([]pendingAction, 0, w.population)

	query := w.entityFilter.Query()
	for query.Next() {
		e := query.Entity()
		pos, vel, energy, org := query.Get()

		if !energy.Alive {
			continue
		}

		b, ok := w.brains[org.ID]
		if !ok {
			continue
		}

		in := w.sense(e, pos, energy, org)
		out := b.Think(in)
		actions = append(actions, pendingAction{e: e, action: out.Action})

		org.Heading += out.Rotate * w.cfg.World.TurnRate
		if org.Heading > math.Pi {
			org.Heading -= 2 * math.Pi
		} else if org.Heading < -math.Pi {
			org.Heading += 2 * math.Pi
		}

		thrust := out.MoveForward
		if thrust < 0 {
			thrust = 0
		}
		dist := w.cfg.World.MoveSpeed * org.Speed * thrust
		vel.X = math.Cos(org.Heading) * dist
		vel.Y = math.Sin(org.Heading) * dist
		pos.X, pos.Y = w.wrap(pos.X+vel.X, pos.Y+vel.Y)

		energy.Current -= w.cfg.Energy.MoveCost * dist
	}

	return actions
}

// sense assembles the sensory frame: vegetation salience along five rays,
// normalized energy, and trophic threat/prey pressure from neighbors.
func (w *World) sense(e ecs.Entity, pos *components.Position, energy *components.Energy, org *components.Organism) brain.SensoryInput {
	sampleDist := w.cfg.World.SenseRadius / 2
	ray := func(offset float64) float64 {
		x := pos.X + math.Cos(org.Heading+offset)*sampleDist
		y := pos.Y + math.Sin(org.Heading+offset)*sampleDist
		return w.resources.Sample(x, y)
	}

	in := brain.SensoryInput{
		Front:      ray(0),
		FrontLeft:  ray(rayFrontLeft),
		FrontRight: ray(rayFrontRight),
		Left:       ray(rayLeft),
		Right:      ray(rayRight),
		Energy:     energy.Current / energy.Max,
		Bias:       1.0,
	}

	radius := w.cfg.World.SenseRadius
	neighbors := w.grid.QueryRadiusInto(nil, pos.X, pos.Y, radius, e, w.posMap)
	for _, n := range neighbors {
		other := w.orgMap.Get(n.E)
		if other == nil || other.SpeciesID == org.SpeciesID {
			continue
		}
		weight := 1 - n.Dist/radius
		if weight < 0 {
			weight = 0
		}
		if w.tracker.IsThreatTo(other.SpeciesID, org.SpeciesID) && weight > in.Threat {
			in.Threat = weight
		}
		if w.tracker.IsThreatTo(org.SpeciesID, other.SpeciesID) && weight > in.Prey {
			in.Prey = weight
		}
	}

	return in
}

// resolveHunts runs predation for every agent that chose to eat. Returns
// the set of predators that fed, so foraging can skip them.
func (w *World) resolveHunts(actions []pendingAction) map[ecs.Entity]bool {
	fed := make(map[ecs.Entity]bool)

	for _, pa := range actions {
		if pa.action != brain.ActionEat {
			continue
		}
		e := pa.e
		agent, ok := w.agents[e]
		if !ok || !agent.Alive {
			continue
		}

		target := w.hunter.BestTarget(agent)
		if target == nil {
			continue
		}

		result := w.hunter.AttemptHunt(w.rng, agent, target.Agent, w.tick)
		if result.Reason == trophic.ReasonInsufficientEnergy || result.Reason == trophic.ReasonCooldown {
			continue
		}
		w.collector.RecordHunt(result.Success, result.PreyKilled)
		if result.Success {
			fed[e] = true
		}
	}

	// Hunts mutate the agent views; write energy and death back into the
	// ECS before later phases read it.
	for e, agent := range w.agents {
		energy := w.energyMap.Get(e)
		if energy == nil {
			continue
		}
		energy.Current = agent.Energy
		if energy.Current > energy.Max {
			energy.Current = energy.Max
		}
		if !agent.Alive {
			energy.Alive = false
			energy.Current = 0
		}
	}

	return fed
}

// forage lets eating agents graze the vegetation field. Successful
// hunters skip grazing this tick.
func (w *World) forage(actions []pendingAction, fed map[ecs.Entity]bool) {
	for _, pa := range actions {
		if pa.action != brain.ActionEat || fed[pa.e] {
			continue
		}
		e := pa.e

		pos := w.posMap.Get(e)
		energy := w.energyMap.Get(e)
		org := w.orgMap.Get(e)
		if pos == nil || energy == nil || org == nil || !energy.Alive {
			continue
		}

		removed := w.resources.Graze(pos.X, pos.Y, w.cfg.Resource.GrazeRate, w.cfg.Resource.GrazeRadius)
		if removed <= 1e-9 {
			continue
		}

		gain := removed * w.cfg.Resource.GrazeEfficiency
		energy.Current += gain
		if energy.Current > energy.Max {
			energy.Current = energy.Max
		}

		w.tracker.RecordFoodConsumption(org.SpeciesID)
		w.collector.RecordForage(gain)
	}
}

// reproduce handles breeding for agents that chose to. A compatible mate
// within range yields crossover offspring and may record gene flow;
// otherwise reproduction is clonal with mutation.
func (w *World) reproduce(actions []pendingAction) {
	for _, pa := range actions {
		if pa.action != brain.ActionReproduce {
			continue
		}
		if w.population >= w.cfg.World.MaxPopulation {
			return
		}
		e := pa.e

		pos := w.posMap.Get(e)
		energy := w.energyMap.Get(e)
		org := w.orgMap.Get(e)
		if pos == nil || energy == nil || org == nil || !energy.Alive {
			continue
		}
		if org.BreedCooldown > 0 || energy.Current < w.cfg.Breeding.EnergyThreshold {
			continue
		}

		g := w.genomes[org.ID]
		b := w.brains[org.ID]
		if g == nil || b == nil {
			continue
		}

		mateEntity, mateOrg := w.findMate(e, pos, org, g)

		var (
			childGenome = g.Reproduce(w.rng, w.tick, true)
			childBrain  = b.Mutate(w.rng, w.cfg.Brain.MutationRate, w.cfg.Brain.MutationStrength)
		)
		if mateOrg != nil {
			mateGenome := w.genomes[mateOrg.ID]
			mateBrain := w.brains[mateOrg.ID]

			crossed, err := g.Crossover(w.rng, mateGenome, w.tick, w.cfg.Breeding.CrossoverRate)
			if err == nil {
				crossed.Mutate(w.rng, w.tick, nil)
				childGenome = crossed
			}
			if mateBrain != nil {
				if cb, err := b.Crossover(w.rng, mateBrain); err == nil {
					childBrain = cb.Mutate(w.rng, w.cfg.Brain.MutationRate, w.cfg.Brain.MutationStrength)
				}
			}

			if mateOrg.PopulationID != org.PopulationID {
				dist, err := g.NormalizedDistanceFrom(mateGenome)
				if err != nil {
					dist = 0
				}
				w.matrix.RecordGeneFlow(speciation.GeneFlowEvent{
					PopulationA: org.PopulationID,
					PopulationB: mateOrg.PopulationID,
					Strength:    1 - dist,
					Tick:        w.tick,
				})
			}
			if mate := w.orgMap.Get(mateEntity); mate != nil {
				mate.BreedCooldown = w.cfg.Breeding.Cooldown
			}
		}

		energy.Current -= w.cfg.Breeding.EnergyCost
		org.BreedCooldown = w.cfg.Breeding.Cooldown

		offset := w.cfg.Breeding.MateRadius / 4
		x, y := w.wrap(
			pos.X+(w.rng.Float64()-0.5)*offset,
			pos.Y+(w.rng.Float64()-0.5)*offset,
		)

		child := w.spawnAgent(x, y, org.SpeciesID, org.PopulationID, childGenome, childBrain)
		if childEnergy := w.energyMap.Get(child); childEnergy != nil {
			childEnergy.Current = w.cfg.Breeding.EnergyCost
			if childEnergy.Current > childEnergy.Max {
				childEnergy.Current = childEnergy.Max
			}
		}

		w.collector.RecordBirth()
	}
}

// mateView projects an agent into the isolation policy's candidate shape.
func mateView(g *genome.Genome, x, y float64, org *components.Organism) speciation.MateCandidate {
	return speciation.MateCandidate{
		Genome:       g,
		X:            x,
		Y:            y,
		PopulationID: org.PopulationID,
		SpeciesID:    org.SpeciesID,
	}
}

// findMate returns the nearest compatible breeding partner within mate
// radius, or nil organisms when none qualifies.
func (w *World) findMate(e ecs.Entity, pos *components.Position, org *components.Organism, g *genome.Genome) (ecs.Entity, *components.Organism) {
	neighbors := w.grid.QueryRadiusSorted(pos.X, pos.Y, w.cfg.Breeding.MateRadius, e, w.posMap)

	self := mateView(g, pos.X, pos.Y, org)
	for _, n := range neighbors {
		otherOrg := w.orgMap.Get(n.E)
		otherEnergy := w.energyMap.Get(n.E)
		if otherOrg == nil || otherEnergy == nil || !otherEnergy.Alive {
			continue
		}
		if otherOrg.BreedCooldown > 0 || otherEnergy.Current < w.cfg.Breeding.EnergyThreshold {
			continue
		}
		otherGenome := w.genomes[otherOrg.ID]
		if otherGenome == nil {
			continue
		}
		otherPos := w.posMap.Get(n.E)
		if w.isolation.CanMate(self, mateView(otherGenome, otherPos.X, otherPos.Y, otherOrg)) {
			return n.E, otherOrg
		}
	}
	return ecs.Entity{}, nil
}

// applyMetabolism drains base energy, ages agents, counts down breeding
// cooldowns and marks starved agents dead.
func (w *World) applyMetabolism() {
	query := w.entityFilter.Query()
	for query.Next() {
		_, _, energy, org := query.Get()

		if !energy.Alive {
			continue
		}

		energy.Current -= w.cfg.Energy.BaseCost
		org.Age++
		if org.BreedCooldown > 0 {
			org.BreedCooldown--
		}

		if energy.Current <= 0 {
			energy.Current = 0
			energy.Alive = false
		}
	}
}

// reapDead removes dead entities and their world-side state.
func (w *World) reapDead() {
	type deadInfo struct {
		entity ecs.Entity
		id     string
	}
	var toRemove []deadInfo

	query := w.entityFilter.Query()
	for query.Next() {
		_, _, energy, org := query.Get()
		if !energy.Alive {
			toRemove = append(toRemove, deadInfo{entity: query.Entity(), id: org.ID})
		}
	}

	for _, dead := range toRemove {
		w.hunter.ClearCooldown(dead.id)
		delete(w.genomes, dead.id)
		delete(w.brains, dead.id)
		w.entityMapper.Remove(dead.entity)
		w.population--
		w.collector.RecordDeath()
	}
}

// flushTelemetry emits a stats window when due.
func (w *World) flushTelemetry() {
	if !w.collector.ShouldFlush(w.tick) {
		return
	}

	census := telemetry.Census{
		Population:    w.population,
		TotalResource: w.resources.TotalResource(),
	}

	query := w.entityFilter.Query()
	for query.Next() {
		_, _, energy, _ := query.Get()
		if energy.Alive {
			census.Energies = append(census.Energies, energy.Current)
		}
	}

	for _, id := range w.tracker.SpeciesIDs() {
		profile := w.tracker.Profile(id)
		if profile == nil {
			continue
		}
		switch profile.Role {
		case trophic.RoleHerbivore:
			census.Herbivores++
		case trophic.RoleCarnivore:
			census.Carnivores++
		case trophic.RoleOmnivore:
			census.Omnivores++
		case trophic.RoleApexPredator:
			census.ApexSpecies++
		case trophic.RoleScavenger:
			census.Scavengers++
		default:
			census.Undetermined++
		}
	}

	pops := w.matrix.Populations()
	census.Populations = len(pops)
	var divSum float64
	var divN int
	for i := 0; i < len(pops); i++ {
		for j := i + 1; j < len(pops); j++ {
			divSum += w.matrix.GetDivergence(pops[i].ID, pops[j].ID)
			divN++
		}
	}
	if divN > 0 {
		census.MeanDivergence = divSum / float64(divN)
	}

	stats := w.collector.Flush(w.tick, census)
	if w.logStats {
		stats.LogStats()
	}
	if err := w.output.WriteStats(stats); err != nil {
		slog.Error("writing telemetry", "error", err)
	}
}
