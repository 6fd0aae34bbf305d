// Package components defines the plain data components stored in the ECS
// world. Components hold state only; behavior lives in systems and world.
package components

// Position is a world-space location. The world is toroidal; coordinates
// wrap at the world bounds.
type Position struct {
	X, Y float64
}

// Velocity is the per-tick displacement.
type Velocity struct {
	X, Y float64
}

// Energy tracks an agent's metabolic state. Alive is cleared on death and
// the entity is reaped at the end of the tick.
type Energy struct {
	Current float64
	Max     float64
	Alive   bool
}

// Organism carries identity and physical traits. SpeciesID groups agents
// for trophic classification; PopulationID groups them for divergence
// tracking. Size, Speed and Strength feed hunt-success estimation.
type Organism struct {
	ID           string // uuid
	SpeciesID    string
	PopulationID string

	Size     float64
	Speed    float64
	Strength float64

	Heading       float64 // radians
	Age           int64   // ticks since birth
	BreedCooldown int64   // ticks until reproduction is allowed again
	Generation    int
}
