// Package brain provides decision-making models for simulated agents.
// Two implementations share one contract: a fuzzy cognitive map relaxed to
// a fixed point each tick (FCMBrain) and a feedforward network (NeuralBrain).
package brain

import (
	"encoding/json"
	"fmt"
	"math/rand"
)

// Action codes emitted by a brain.
const (
	ActionNone = iota
	ActionEat  // Also used for hunting; predation is resolved downstream
	ActionReproduce
)

// SensoryInput is the fixed sensory frame a brain consumes each tick.
// Direction fields carry normalized food/obstacle salience in [-1,1].
type SensoryInput struct {
	Front      float64
	FrontLeft  float64
	FrontRight float64
	Left       float64
	Right      float64
	Energy     float64 // Normalized energy level [0,1]
	Threat     float64 // Trophic threat pressure [0,1], 0 when unknown
	Prey       float64 // Trophic prey availability [0,1], 0 when unknown
	Bias       float64 // Constant drive input, conventionally 1.0
}

// BehaviorOutput is a brain's movement/action decision. All fields are
// clamped to [-1,1] before being returned.
type BehaviorOutput struct {
	MoveForward float64
	Rotate      float64 // turn_right - turn_left; positive turns right
	Action      int
}

// Brain maps sensory input to behavior. Implementations are replaced, not
// mutated in place: Mutate and Crossover return new instances.
type Brain interface {
	Think(in SensoryInput) BehaviorOutput
	Mutate(rng *rand.Rand, rate, strength float64) Brain
	Clone() Brain
	Crossover(rng *rand.Rand, other Brain) (Brain, error)
	Serialize() (State, error)
	Complexity() int
}

// Brain type tags used in serialized State.
const (
	TypeFCM    = "fcm"
	TypeNeural = "neural"
)

// State is the serialized form of a brain. Data is brain-specific and
// interpreted according to Type.
type State struct {
	Type    string          `json:"type"`
	Version int             `json:"version"`
	Config  StateConfig     `json:"config"`
	Data    json.RawMessage `json:"data"`
}

// StateConfig carries presentation metadata shared by all brain types.
type StateConfig struct {
	Label string `json:"label,omitempty"`
}

// Deserialize reconstructs a brain from its serialized state. The type tag
// selects the implementation; unknown tags are an error.
func Deserialize(state State) (Brain, error) {
	switch state.Type {
	case TypeFCM:
		return fcmFromState(state)
	case TypeNeural:
		return neuralFromState(state)
	default:
		return nil, fmt.Errorf("unknown brain type: %q", state.Type)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
