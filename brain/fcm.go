package brain

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// ConceptType classifies a concept's role in the map.
type ConceptType string

const (
	ConceptInput  ConceptType = "input"
	ConceptHidden ConceptType = "hidden"
	ConceptOutput ConceptType = "output"
	ConceptMemory ConceptType = "memory" // Slow-decaying hidden state
)

// Concept is one node of the cognitive map.
type Concept struct {
	Activation float64 // Current activation [-1,1]
	DecayRate  float64 // Per-iteration retention loss [0,1]
	Bias       float64 // Constant input term [-1,1]
	Type       ConceptType
}

// Edge is an ordered causal link between two concepts. Struct keys give
// structural equality without delimiter-collision risk.
type Edge struct {
	From string
	To   string
}

// FCMConfig controls the propagation loop.
type FCMConfig struct {
	ActivationFunction   string  `json:"activationFunction"` // tanh | sigmoid | linear | step
	ConvergenceThreshold float64 `json:"convergenceThreshold"`
	MaxIterations        int     `json:"maxIterations"`
	GlobalDecay          float64 `json:"globalDecay"`
}

// DefaultFCMConfig returns the standard propagation parameters.
func DefaultFCMConfig() FCMConfig {
	return FCMConfig{
		ActivationFunction:   "tanh",
		ConvergenceThreshold: 0.001,
		MaxIterations:        10,
		GlobalDecay:          0.0,
	}
}

// FCMBrain is a fuzzy cognitive map: a weighted directed graph of concepts
// whose activations are relaxed toward a fixed point on every Think call.
// Input concepts are written only by sensory mapping, never by propagation.
type FCMBrain struct {
	Concepts map[string]*Concept
	Weights  map[Edge]float64
	Config   FCMConfig
	Label    string
}

// NewFCMBrain creates a brain with the default topology and config.
func NewFCMBrain() *FCMBrain {
	return NewFCMBrainPreset("")
}

// Think runs one full decision cycle: sensory mapping, propagation to
// convergence, output extraction.
func (b *FCMBrain) Think(in SensoryInput) BehaviorOutput {
	b.applySensoryInput(in)
	b.propagate()
	return b.extractOutput()
}

// applySensoryInput writes the fixed linear sensor combinations onto the
// designated input concepts.
func (b *FCMBrain) applySensoryInput(in SensoryInput) {
	set := func(id string, v float64) {
		if c, ok := b.Concepts[id]; ok && c.Type == ConceptInput {
			c.Activation = clamp(v, -1, 1)
		}
	}

	set("food_front", in.Front)
	set("food_left", in.FrontLeft+0.5*in.Left)
	set("food_right", in.FrontRight+0.5*in.Right)
	set("energy", in.Energy)
	set("threat", in.Threat)
	set("prey_scent", in.Prey)
	set("bias", in.Bias)
}

// propagate iterates synchronous activation updates until the largest
// per-concept change falls below the convergence threshold or the
// iteration cap is hit.
func (b *FCMBrain) propagate() {
	activate := activationFor(b.Config.ActivationFunction)

	// Incoming edge lists, rebuilt per call; topology is small. Sorted
	// edge order keeps the float accumulation identical across runs.
	incoming := make(map[string][]Edge, len(b.Concepts))
	for _, e := range sortedEdges(b.Weights) {
		incoming[e.To] = append(incoming[e.To], e)
	}

	prev := make(map[string]float64, len(b.Concepts))

	for iter := 0; iter < b.Config.MaxIterations; iter++ {
		for id, c := range b.Concepts {
			prev[id] = c.Activation
		}

		maxDelta := 0.0
		for id, c := range b.Concepts {
			if c.Type == ConceptInput {
				continue
			}

			sum := c.Bias
			for _, e := range incoming[id] {
				sum += prev[e.From] * b.Weights[e]
			}

			retained := prev[id] * (1 - c.DecayRate - b.Config.GlobalDecay)
			next := clamp(0.7*activate(sum)+0.3*retained, -1, 1)

			if d := math.Abs(next - prev[id]); d > maxDelta {
				maxDelta = d
			}
			c.Activation = next
		}

		if maxDelta <= b.Config.ConvergenceThreshold {
			break
		}
	}
}

// extractOutput reads the designated output concepts into a behavior
// decision. Fleeing boosts forward motion; hunting shares the eat action
// code, with the predation system deciding what actually gets bitten.
func (b *FCMBrain) extractOutput() BehaviorOutput {
	get := func(id string) float64 {
		if c, ok := b.Concepts[id]; ok {
			return c.Activation
		}
		return 0
	}

	moveForward := get("move_forward")
	flee := get("flee")
	if flee > 0.5 {
		moveForward += 0.5 * flee
	}

	rotate := get("turn_right") - get("turn_left")

	eat := get("eat")
	hunt := get("hunt")
	reproduce := get("reproduce")

	action := ActionNone
	best := eat
	action2 := ActionEat
	if hunt > best {
		best = hunt
		action2 = ActionEat // Hunt reuses the eat action code
	}
	if reproduce > best {
		best = reproduce
		action2 = ActionReproduce
	}
	if best > 0.3 {
		action = action2
	}

	return BehaviorOutput{
		MoveForward: clamp(moveForward, -1, 1),
		Rotate:      clamp(rotate, -1, 1),
		Action:      action,
	}
}

// Mutate returns a perturbed copy. Per concept, decay rate and bias each
// mutate independently with probability rate by up to ±strength/2. Every
// weight mutates the same way, and with probability rate*0.1 one new edge
// is added between a non-output source and a non-input target.
func (b *FCMBrain) Mutate(rng *rand.Rand, rate, strength float64) Brain {
	child := b.clone()

	// Sorted iteration: ranging the maps here would draw from the rng in
	// a different order every run, breaking seeded replay.
	for _, id := range child.conceptIDs() {
		c := child.Concepts[id]
		if rng.Float64() < rate {
			c.DecayRate = clamp(c.DecayRate+(rng.Float64()-0.5)*strength, 0, 1)
		}
		if rng.Float64() < rate {
			c.Bias = clamp(c.Bias+(rng.Float64()-0.5)*strength, -1, 1)
		}
	}

	for _, e := range sortedEdges(child.Weights) {
		if rng.Float64() < rate {
			child.Weights[e] = clamp(child.Weights[e]+(rng.Float64()-0.5)*strength, -1, 1)
		}
	}

	if rng.Float64() < rate*0.1 {
		child.addRandomEdge(rng)
	}

	return child
}

// addRandomEdge inserts one new causal link if a valid free slot exists.
// Sources cannot be output concepts; targets cannot be input concepts.
func (b *FCMBrain) addRandomEdge(rng *rand.Rand) {
	sources := make([]string, 0, len(b.Concepts))
	targets := make([]string, 0, len(b.Concepts))
	for id, c := range b.Concepts {
		if c.Type != ConceptOutput {
			sources = append(sources, id)
		}
		if c.Type != ConceptInput {
			targets = append(targets, id)
		}
	}
	sort.Strings(sources)
	sort.Strings(targets)

	if len(sources) == 0 || len(targets) == 0 {
		return
	}

	// Bounded retries; the map is sparse so free pairs are common.
	for attempt := 0; attempt < 10; attempt++ {
		e := Edge{From: sources[rng.Intn(len(sources))], To: targets[rng.Intn(len(targets))]}
		if e.From == e.To {
			continue
		}
		if _, exists := b.Weights[e]; exists {
			continue
		}
		b.Weights[e] = rng.Float64()*2 - 1
		return
	}
}

// Clone returns a deep copy.
func (b *FCMBrain) Clone() Brain {
	return b.clone()
}

func (b *FCMBrain) clone() *FCMBrain {
	concepts := make(map[string]*Concept, len(b.Concepts))
	for id, c := range b.Concepts {
		cc := *c
		concepts[id] = &cc
	}
	weights := make(map[Edge]float64, len(b.Weights))
	for e, w := range b.Weights {
		weights[e] = w
	}
	return &FCMBrain{
		Concepts: concepts,
		Weights:  weights,
		Config:   b.Config,
		Label:    b.Label,
	}
}

// Crossover blends two FCM brains. Concepts shared by both parents are
// inherited whole from either parent uniformly at random; one-sided
// concepts carry forward. Shared weights pick one parent's value; a weight
// present in only one parent survives with probability 0.7.
func (b *FCMBrain) Crossover(rng *rand.Rand, other Brain) (Brain, error) {
	mate, ok := other.(*FCMBrain)
	if !ok {
		return nil, fmt.Errorf("fcm crossover: incompatible brain type %T", other)
	}

	child := &FCMBrain{
		Concepts: make(map[string]*Concept),
		Weights:  make(map[Edge]float64),
		Config:   b.Config,
		Label:    b.Label,
	}

	for _, id := range b.conceptIDs() {
		pick := b.Concepts[id]
		if mc, shared := mate.Concepts[id]; shared && rng.Float64() < 0.5 {
			pick = mc
		}
		cc := *pick
		child.Concepts[id] = &cc
	}
	for id, mc := range mate.Concepts {
		if _, seen := child.Concepts[id]; !seen {
			cc := *mc
			child.Concepts[id] = &cc
		}
	}

	seen := make(map[Edge]bool, len(b.Weights))
	for _, e := range sortedEdges(b.Weights) {
		seen[e] = true
		w := b.Weights[e]
		if mw, shared := mate.Weights[e]; shared {
			if rng.Float64() < 0.5 {
				child.Weights[e] = mw
			} else {
				child.Weights[e] = w
			}
		} else if rng.Float64() < 0.7 {
			child.Weights[e] = w
		}
	}
	for _, e := range sortedEdges(mate.Weights) {
		if !seen[e] && rng.Float64() < 0.7 {
			child.Weights[e] = mate.Weights[e]
		}
	}

	return child, nil
}

// Complexity counts concepts plus causal links.
func (b *FCMBrain) Complexity() int {
	return len(b.Concepts) + len(b.Weights)
}

// conceptIDs returns the concept ids in sorted order.
func (b *FCMBrain) conceptIDs() []string {
	ids := make([]string, 0, len(b.Concepts))
	for id := range b.Concepts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// sortedEdges returns the edge keys ordered by (From, To).
func sortedEdges(weights map[Edge]float64) []Edge {
	edges := make([]Edge, 0, len(weights))
	for e := range weights {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges
}

// fcmData is the wire shape of FCM internals.
type fcmData struct {
	Concepts []fcmConceptJSON `json:"concepts"`
	Weights  []fcmWeightJSON  `json:"weights"`
	Config   FCMConfig        `json:"config"`
}

type fcmConceptJSON struct {
	ID         string  `json:"id"`
	Activation float64 `json:"activation"`
	DecayRate  float64 `json:"decayRate"`
	Bias       float64 `json:"bias"`
	Type       string  `json:"type"`
}

type fcmWeightJSON struct {
	FromID string  `json:"fromId"`
	ToID   string  `json:"toId"`
	Weight float64 `json:"weight"`
}

// Serialize encodes the brain as a tagged State.
func (b *FCMBrain) Serialize() (State, error) {
	data := fcmData{
		Concepts: make([]fcmConceptJSON, 0, len(b.Concepts)),
		Weights:  make([]fcmWeightJSON, 0, len(b.Weights)),
		Config:   b.Config,
	}

	for _, id := range b.conceptIDs() {
		c := b.Concepts[id]
		data.Concepts = append(data.Concepts, fcmConceptJSON{
			ID:         id,
			Activation: c.Activation,
			DecayRate:  c.DecayRate,
			Bias:       c.Bias,
			Type:       string(c.Type),
		})
	}

	for _, e := range sortedEdges(b.Weights) {
		data.Weights = append(data.Weights, fcmWeightJSON{FromID: e.From, ToID: e.To, Weight: b.Weights[e]})
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return State{}, fmt.Errorf("fcm: encoding state: %w", err)
	}

	return State{
		Type:    TypeFCM,
		Version: 1,
		Config:  StateConfig{Label: b.Label},
		Data:    raw,
	}, nil
}

func fcmFromState(state State) (*FCMBrain, error) {
	var data fcmData
	if err := json.Unmarshal(state.Data, &data); err != nil {
		return nil, fmt.Errorf("fcm: decoding state: %w", err)
	}

	b := &FCMBrain{
		Concepts: make(map[string]*Concept, len(data.Concepts)),
		Weights:  make(map[Edge]float64, len(data.Weights)),
		Config:   data.Config,
		Label:    state.Config.Label,
	}
	for _, c := range data.Concepts {
		b.Concepts[c.ID] = &Concept{
			Activation: c.Activation,
			DecayRate:  c.DecayRate,
			Bias:       c.Bias,
			Type:       ConceptType(c.Type),
		}
	}
	for _, w := range data.Weights {
		b.Weights[Edge{From: w.FromID, To: w.ToID}] = w.Weight
	}
	return b, nil
}

// activationFor resolves an activation function by name, defaulting to tanh.
func activationFor(name string) func(float64) float64 {
	switch name {
	case "sigmoid":
		// Logistic rescaled to [-1,1]
		return func(x float64) float64 { return 2/(1+math.Exp(-x)) - 1 }
	case "linear":
		return func(x float64) float64 { return clamp(x, -1, 1) }
	case "step":
		return func(x float64) float64 {
			if x > 0 {
				return 1
			}
			return -1
		}
	default:
		return math.Tanh
	}
}
