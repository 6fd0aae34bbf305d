package brain

// Default cognitive map: 28 concepts wired by a sparse default edge set.
// Presets overlay concept and weight overrides on top of this shared
// topology; they never change the propagation algorithm.

type conceptSpec struct {
	id    string
	typ   ConceptType
	decay float64
	bias  float64
}

var defaultConcepts = []conceptSpec{
	// Inputs, written only by sensory mapping
	{"food_front", ConceptInput, 0, 0},
	{"food_left", ConceptInput, 0, 0},
	{"food_right", ConceptInput, 0, 0},
	{"energy", ConceptInput, 0, 0},
	{"threat", ConceptInput, 0, 0},
	{"prey_scent", ConceptInput, 0, 0},
	{"bias", ConceptInput, 0, 0},

	// Hidden drives
	{"hunger", ConceptHidden, 0.1, 0},
	{"fear", ConceptHidden, 0.15, 0},
	{"aggression", ConceptHidden, 0.1, 0},
	{"curiosity", ConceptHidden, 0.1, 0},
	{"satiation", ConceptHidden, 0.1, 0},
	{"vigilance", ConceptHidden, 0.1, 0},
	{"mate_drive", ConceptHidden, 0.1, 0},
	{"fatigue", ConceptHidden, 0.05, 0},
	{"boldness", ConceptHidden, 0.1, 0},
	{"comfort", ConceptHidden, 0.1, 0},

	// Memory, slow to decay
	{"food_memory", ConceptMemory, 0.02, 0},
	{"danger_memory", ConceptMemory, 0.02, 0},
	{"mate_memory", ConceptMemory, 0.02, 0},
	{"path_memory", ConceptMemory, 0.02, 0},

	// Outputs
	{"move_forward", ConceptOutput, 0.2, 0},
	{"turn_left", ConceptOutput, 0.2, 0},
	{"turn_right", ConceptOutput, 0.2, 0},
	{"eat", ConceptOutput, 0.2, 0},
	{"flee", ConceptOutput, 0.2, 0},
	{"hunt", ConceptOutput, 0.2, 0},
	{"reproduce", ConceptOutput, 0.2, 0},
}

type weightSpec struct {
	from, to string
	weight   float64
}

var defaultWeights = []weightSpec{
	{"food_front", "move_forward", 0.8},
	{"food_front", "eat", 0.9},
	{"food_left", "turn_left", 0.7},
	{"food_right", "turn_right", 0.7},
	{"energy", "hunger", -0.9},
	{"bias", "hunger", 0.4},
	{"hunger", "move_forward", 0.5},
	{"hunger", "eat", 0.6},
	{"hunger", "hunt", 0.3},
	{"threat", "fear", 0.9},
	{"fear", "flee", 0.9},
	{"fear", "eat", -0.5},
	{"fear", "reproduce", -0.6},
	{"threat", "vigilance", 0.6},
	{"vigilance", "boldness", -0.4},
	{"prey_scent", "aggression", 0.7},
	{"aggression", "hunt", 0.8},
	{"boldness", "hunt", 0.2},
	{"energy", "satiation", 0.8},
	{"satiation", "mate_drive", 0.6},
	{"mate_drive", "reproduce", 0.7},
	{"bias", "curiosity", 0.3},
	{"curiosity", "move_forward", 0.3},
	{"food_front", "food_memory", 0.5},
	{"food_memory", "move_forward", 0.2},
	{"threat", "danger_memory", 0.5},
	{"danger_memory", "vigilance", 0.3},
	{"fear", "comfort", -0.6},
	{"comfort", "reproduce", 0.2},
}

// presetOverlay is a declarative override set applied atop the default
// topology.
type presetOverlay struct {
	conceptBias map[string]float64
	weights     []weightSpec
}

var presets = map[string]presetOverlay{
	"herbivore": {
		weights: []weightSpec{
			{"threat", "fear", 1.0},
			{"prey_scent", "aggression", 0.1},
			{"food_front", "eat", 1.0},
			{"hunger", "hunt", 0.0},
		},
	},
	"carnivore": {
		weights: []weightSpec{
			{"prey_scent", "aggression", 0.9},
			{"aggression", "hunt", 1.0},
			{"hunger", "hunt", 0.6},
			{"food_front", "eat", 0.5},
		},
	},
	"omnivore": {
		weights: []weightSpec{
			{"prey_scent", "aggression", 0.5},
			{"aggression", "hunt", 0.6},
		},
	},
	"timid": {
		conceptBias: map[string]float64{"fear": 0.3, "vigilance": 0.2},
		weights: []weightSpec{
			{"threat", "fear", 1.0},
			{"fear", "flee", 1.0},
		},
	},
	"aggressive": {
		conceptBias: map[string]float64{"aggression": 0.3, "boldness": 0.2},
		weights: []weightSpec{
			{"aggression", "hunt", 0.9},
			{"fear", "flee", 0.5},
		},
	},
}

// PresetNames lists the available preset labels.
func PresetNames() []string {
	return []string{"herbivore", "carnivore", "omnivore", "timid", "aggressive"}
}

// NewFCMBrainPreset builds a brain from the default topology with the
// named preset overlay applied. An empty or unknown name yields the plain
// default topology.
func NewFCMBrainPreset(name string) *FCMBrain {
	b := &FCMBrain{
		Concepts: make(map[string]*Concept, len(defaultConcepts)),
		Weights:  make(map[Edge]float64, len(defaultWeights)),
		Config:   DefaultFCMConfig(),
		Label:    name,
	}

	for _, spec := range defaultConcepts {
		b.Concepts[spec.id] = &Concept{
			DecayRate: spec.decay,
			Bias:      spec.bias,
			Type:      spec.typ,
		}
	}
	for _, w := range defaultWeights {
		b.Weights[Edge{From: w.from, To: w.to}] = w.weight
	}

	overlay, ok := presets[name]
	if !ok {
		return b
	}
	for id, bias := range overlay.conceptBias {
		if c, exists := b.Concepts[id]; exists {
			c.Bias = bias
		}
	}
	for _, w := range overlay.weights {
		b.Weights[Edge{From: w.from, To: w.to}] = w.weight
	}
	return b
}
