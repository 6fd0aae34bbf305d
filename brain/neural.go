package brain

import (
	"encoding/json"
	"fmt"
	"math/rand"
)

// NeuralBrain is a thin adapter over a feedforward network: the seven
// sensory scalars feed the network inputs, and the three outputs map
// directly onto {moveForward, rotate, action} with no extra shaping.
type NeuralBrain struct {
	Net   *FFNN
	Label string
}

// NewNeuralBrain creates a neural brain with a freshly initialized network.
func NewNeuralBrain(rng *rand.Rand) *NeuralBrain {
	return &NeuralBrain{Net: NewFFNN(rng)}
}

// Think runs one forward pass.
func (b *NeuralBrain) Think(in SensoryInput) BehaviorOutput {
	out := b.Net.Forward([ffnnInputs]float64{
		in.Front,
		in.FrontLeft,
		in.FrontRight,
		in.Left,
		in.Right,
		in.Energy,
		in.Threat,
	})

	action := ActionNone
	switch {
	case out[2] > 0.7:
		action = ActionReproduce
	case out[2] > 0.3:
		action = ActionEat
	}

	return BehaviorOutput{
		MoveForward: clamp(out[0], -1, 1),
		Rotate:      clamp(out[1], -1, 1),
		Action:      action,
	}
}

// Mutate returns a copy with per-weight Gaussian perturbation.
func (b *NeuralBrain) Mutate(rng *rand.Rand, rate, strength float64) Brain {
	child := &NeuralBrain{Net: b.Net.Clone(), Label: b.Label}
	child.Net.Mutate(rng, rate, strength)
	return child
}

// Clone returns a deep copy.
func (b *NeuralBrain) Clone() Brain {
	return &NeuralBrain{Net: b.Net.Clone(), Label: b.Label}
}

// Crossover selects each weight from either parent uniformly at random.
func (b *NeuralBrain) Crossover(rng *rand.Rand, other Brain) (Brain, error) {
	mate, ok := other.(*NeuralBrain)
	if !ok {
		return nil, fmt.Errorf("neural crossover: incompatible brain type %T", other)
	}
	return &NeuralBrain{Net: b.Net.Crossover(rng, mate.Net), Label: b.Label}, nil
}

// Complexity is the network's weight count.
func (b *NeuralBrain) Complexity() int {
	return b.Net.WeightCount()
}

// Serialize encodes the brain as a tagged State.
func (b *NeuralBrain) Serialize() (State, error) {
	raw, err := json.Marshal(b.Net.marshalWeights())
	if err != nil {
		return State{}, fmt.Errorf("neural: encoding state: %w", err)
	}
	return State{
		Type:    TypeNeural,
		Version: 1,
		Config:  StateConfig{Label: b.Label},
		Data:    raw,
	}, nil
}

func neuralFromState(state State) (*NeuralBrain, error) {
	var w ffnnWeights
	if err := json.Unmarshal(state.Data, &w); err != nil {
		return nil, fmt.Errorf("neural: decoding state: %w", err)
	}
	b := &NeuralBrain{Net: &FFNN{}, Label: state.Config.Label}
	b.Net.unmarshalWeights(w)
	return b, nil
}
