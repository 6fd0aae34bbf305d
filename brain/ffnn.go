package brain

import (
	"math"
	"math/rand"
)

// Network dimensions (compile-time constants for array sizing).
const (
	ffnnInputs  = 7 // front, front-left, front-right, left, right, energy, threat
	ffnnHidden  = 8
	ffnnOutputs = 3 // move, rotate, action
)

// FFNN is a two-layer feedforward network with fixed topology.
type FFNN struct {
	W1 [ffnnHidden][ffnnInputs]float64
	B1 [ffnnHidden]float64
	W2 [ffnnOutputs][ffnnHidden]float64
	B2 [ffnnOutputs]float64
}

// NewFFNN creates a Xavier-initialized network.
func NewFFNN(rng *rand.Rand) *FFNN {
	nn := &FFNN{}
	scale1 := math.Sqrt(2.0 / float64(ffnnInputs))
	scale2 := math.Sqrt(2.0 / float64(ffnnHidden))

	for i := range nn.W1 {
		for j := range nn.W1[i] {
			nn.W1[i][j] = rng.NormFloat64() * scale1
		}
	}
	for i := range nn.W2 {
		for j := range nn.W2[i] {
			nn.W2[i][j] = rng.NormFloat64() * scale2
		}
	}
	return nn
}

// Forward computes the three raw outputs, each squashed by tanh.
func (nn *FFNN) Forward(inputs [ffnnInputs]float64) [ffnnOutputs]float64 {
	var hidden [ffnnHidden]float64
	for i := 0; i < ffnnHidden; i++ {
		sum := nn.B1[i]
		for j := 0; j < ffnnInputs; j++ {
			sum += nn.W1[i][j] * inputs[j]
		}
		hidden[i] = math.Tanh(sum)
	}

	var outputs [ffnnOutputs]float64
	for i := 0; i < ffnnOutputs; i++ {
		sum := nn.B2[i]
		for j := 0; j < ffnnHidden; j++ {
			sum += nn.W2[i][j] * hidden[j]
		}
		outputs[i] = math.Tanh(sum)
	}
	return outputs
}

// Mutate perturbs each weight and bias independently with probability rate
// by Gaussian noise scaled by strength.
func (nn *FFNN) Mutate(rng *rand.Rand, rate, strength float64) {
	perturb := func(v float64) float64 {
		if rng.Float64() < rate {
			return v + rng.NormFloat64()*strength
		}
		return v
	}

	for i := range nn.W1 {
		for j := range nn.W1[i] {
			nn.W1[i][j] = perturb(nn.W1[i][j])
		}
		nn.B1[i] = perturb(nn.B1[i])
	}
	for i := range nn.W2 {
		for j := range nn.W2[i] {
			nn.W2[i][j] = perturb(nn.W2[i][j])
		}
		nn.B2[i] = perturb(nn.B2[i])
	}
}

// Crossover builds a child network selecting each weight from either
// parent uniformly at random.
func (nn *FFNN) Crossover(rng *rand.Rand, other *FFNN) *FFNN {
	child := nn.Clone()
	for i := range child.W1 {
		for j := range child.W1[i] {
			if rng.Float64() < 0.5 {
				child.W1[i][j] = other.W1[i][j]
			}
		}
		if rng.Float64() < 0.5 {
			child.B1[i] = other.B1[i]
		}
	}
	for i := range child.W2 {
		for j := range child.W2[i] {
			if rng.Float64() < 0.5 {
				child.W2[i][j] = other.W2[i][j]
			}
		}
		if rng.Float64() < 0.5 {
			child.B2[i] = other.B2[i]
		}
	}
	return child
}

// Clone creates a deep copy of the network.
func (nn *FFNN) Clone() *FFNN {
	clone := *nn
	return &clone
}

// WeightCount returns the total number of weights and biases.
func (nn *FFNN) WeightCount() int {
	return ffnnHidden*ffnnInputs + ffnnHidden + ffnnOutputs*ffnnHidden + ffnnOutputs
}

// ffnnWeights holds flattened network weights for serialization.
type ffnnWeights struct {
	W1 []float64 `json:"w1"`
	B1 []float64 `json:"b1"`
	W2 []float64 `json:"w2"`
	B2 []float64 `json:"b2"`
}

// marshalWeights flattens the network weights.
func (nn *FFNN) marshalWeights() ffnnWeights {
	w := ffnnWeights{
		W1: make([]float64, ffnnHidden*ffnnInputs),
		B1: make([]float64, ffnnHidden),
		W2: make([]float64, ffnnOutputs*ffnnHidden),
		B2: make([]float64, ffnnOutputs),
	}
	for i := 0; i < ffnnHidden; i++ {
		for j := 0; j < ffnnInputs; j++ {
			w.W1[i*ffnnInputs+j] = nn.W1[i][j]
		}
	}
	copy(w.B1, nn.B1[:])
	for i := 0; i < ffnnOutputs; i++ {
		for j := 0; j < ffnnHidden; j++ {
			w.W2[i*ffnnHidden+j] = nn.W2[i][j]
		}
	}
	copy(w.B2, nn.B2[:])
	return w
}

// unmarshalWeights restores network weights from flattened form.
func (nn *FFNN) unmarshalWeights(w ffnnWeights) {
	for i := 0; i < ffnnHidden; i++ {
		for j := 0; j < ffnnInputs; j++ {
			if idx := i*ffnnInputs + j; idx < len(w.W1) {
				nn.W1[i][j] = w.W1[idx]
			}
		}
	}
	for i := 0; i < ffnnHidden && i < len(w.B1); i++ {
		nn.B1[i] = w.B1[i]
	}
	for i := 0; i < ffnnOutputs; i++ {
		for j := 0; j < ffnnHidden; j++ {
			if idx := i*ffnnHidden + j; idx < len(w.W2) {
				nn.W2[i][j] = w.W2[idx]
			}
		}
	}
	for i := 0; i < ffnnOutputs && i < len(w.B2); i++ {
		nn.B2[i] = w.B2[i]
	}
}
