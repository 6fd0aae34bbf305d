package trophic

import (
	"math"
	"math/rand"
	"sort"
)

// Agent is the view of a simulated agent the predation system needs.
type Agent struct {
	ID        string
	SpeciesID string
	X, Y      float64
	Energy    float64
	Size      float64
	Speed     float64
	Strength  float64
	Alive     bool
}

// EntityDistance pairs an agent with its distance from a query origin.
type EntityDistance struct {
	Agent    *Agent
	Distance float64
}

// SpatialIndex is the external spatial-query collaborator. Results are
// sorted ascending by distance; internals are the host's concern.
type SpatialIndex interface {
	QueryRadiusSorted(x, y, radius float64) []EntityDistance
}

// Hunt failure reasons. A failed hunt is a normal result variant, not an
// error.
const (
	ReasonInsufficientEnergy = "insufficient_energy"
	ReasonCooldown           = "cooldown"
	ReasonOutOfRange         = "out_of_range"
	ReasonInvalidTarget      = "invalid_target"
	ReasonPreyEscaped        = "prey_escaped"
)

// HuntResult reports the outcome of one predation attempt.
type HuntResult struct {
	Success      bool
	Reason       string // Empty on success
	EnergyGained float64
	EnergySpent  float64
	PreyKilled   bool
	Chance       float64 // Success probability used for the roll
}

// HuntingConfig controls predation resolution.
type HuntingConfig struct {
	HuntingRange             float64 `yaml:"hunting_range"`
	HuntingCooldown          int64   `yaml:"hunting_cooldown"`
	MinEnergyToHunt          float64 `yaml:"min_energy_to_hunt"`
	HuntingEnergyCost        float64 `yaml:"hunting_energy_cost"`
	BaseHuntingSuccessRate   float64 `yaml:"base_hunting_success_rate"`
	SizeAdvantageMultiplier  float64 `yaml:"size_advantage_multiplier"`
	SpeedAdvantageMultiplier float64 `yaml:"speed_advantage_multiplier"`
	EnergyTransferRatio      float64 `yaml:"energy_transfer_ratio"`
}

// DefaultHuntingConfig returns the standard predation parameters.
func DefaultHuntingConfig() HuntingConfig {
	return HuntingConfig{
		HuntingRange:             30,
		HuntingCooldown:          20,
		MinEnergyToHunt:          20,
		HuntingEnergyCost:        5,
		BaseHuntingSuccessRate:   0.5,
		SizeAdvantageMultiplier:  0.3,
		SpeedAdvantageMultiplier: 0.2,
		EnergyTransferRatio:      0.7,
	}
}

// HuntingSystem resolves predator/prey interactions, one attempt per call.
// Cooldown state is per predator id.
type HuntingSystem struct {
	cfg       HuntingConfig
	tracker   *Tracker
	spatial   SpatialIndex
	cooldowns map[string]int64 // predator id -> tick of last hunt

	AttemptedHunts  int
	SuccessfulHunts int
}

// NewHuntingSystem creates a hunting system sharing the given tracker and
// spatial collaborator.
func NewHuntingSystem(cfg HuntingConfig, tracker *Tracker, spatial SpatialIndex) *HuntingSystem {
	return &HuntingSystem{
		cfg:       cfg,
		tracker:   tracker,
		spatial:   spatial,
		cooldowns: make(map[string]int64),
	}
}

// CanHunt reports whether the predator has the energy and is off cooldown.
func (h *HuntingSystem) CanHunt(predator *Agent, tick int64) bool {
	if predator.Energy < h.cfg.MinEnergyToHunt {
		return false
	}
	if last, ok := h.cooldowns[predator.ID]; ok && tick < last+h.cfg.HuntingCooldown {
		return false
	}
	return true
}

// IsValidPrey reports whether prey is huntable by predator. Same-species
// predation is never allowed; otherwise eligibility follows the tracker's
// observed threat relationship.
func (h *HuntingSystem) IsValidPrey(predator, prey *Agent) bool {
	if prey == nil || !prey.Alive {
		return false
	}
	if predator.SpeciesID == prey.SpeciesID {
		return false
	}
	return h.tracker.IsThreatTo(predator.SpeciesID, prey.SpeciesID)
}

// SuccessChance estimates the probability of a successful hunt at the
// given distance. The result is always within [0.05, 0.95]: never certain,
// never impossible.
func (h *HuntingSystem) SuccessChance(predator, prey *Agent, distance float64) float64 {
	chance := h.cfg.BaseHuntingSuccessRate

	// Size ratio: advantage capped at +0.3, disadvantage double-weighted
	// and capped at -0.4.
	if prey.Size > 0 {
		ratio := predator.Size / prey.Size
		if ratio >= 1 {
			adv := (ratio - 1) * h.cfg.SizeAdvantageMultiplier
			if adv > 0.3 {
				adv = 0.3
			}
			chance += adv
		} else {
			dis := (ratio - 1) * h.cfg.SizeAdvantageMultiplier * 2
			if dis < -0.4 {
				dis = -0.4
			}
			chance += dis
		}
	}

	chance += (predator.Speed - prey.Speed) * h.cfg.SpeedAdvantageMultiplier

	if predator.Strength > prey.Strength {
		chance += 0.1
	}

	// Distance penalty up to -0.2 at the edge of hunting range.
	if h.cfg.HuntingRange > 0 {
		chance -= 0.2 * (distance / h.cfg.HuntingRange)
	}

	// Weak prey is easier: up to +0.1 as prey energy falls below 50.
	if prey.Energy < 50 {
		weakness := 0.1 * (1 - prey.Energy/50)
		if weakness > 0.1 {
			weakness = 0.1
		}
		chance += weakness
	}

	if math.IsNaN(chance) {
		chance = h.cfg.BaseHuntingSuccessRate
	}
	if chance < 0.05 {
		chance = 0.05
	}
	if chance > 0.95 {
		chance = 0.95
	}
	return chance
}

// AttemptHunt resolves one predation attempt. Failure checks run in order:
// energy, cooldown, range, target validity. Once those pass the cooldown is
// set before the probabilistic roll, so an escaped prey still costs the
// predator its cooldown. Interactions are recorded with the tracker only
// for the success and prey-escaped outcomes.
func (h *HuntingSystem) AttemptHunt(rng *rand.Rand, predator, prey *Agent, tick int64) HuntResult {
	if predator.Energy < h.cfg.MinEnergyToHunt || predator.Energy < h.cfg.HuntingEnergyCost {
		return HuntResult{Reason: ReasonInsufficientEnergy}
	}
	if last, ok := h.cooldowns[predator.ID]; ok && tick < last+h.cfg.HuntingCooldown {
		return HuntResult{Reason: ReasonCooldown}
	}

	dx := predator.X - prey.X
	dy := predator.Y - prey.Y
	distance := math.Sqrt(dx*dx + dy*dy)
	if distance > h.cfg.HuntingRange {
		return HuntResult{Reason: ReasonOutOfRange}
	}

	if !prey.Alive || predator.SpeciesID == prey.SpeciesID {
		return HuntResult{Reason: ReasonInvalidTarget}
	}

	// All preconditions passed: the bite happens, hit or miss.
	h.cooldowns[predator.ID] = tick
	h.AttemptedHunts++

	chance := h.SuccessChance(predator, prey, distance)
	if rng.Float64() >= chance {
		h.tracker.RecordHuntInteraction(HuntInteraction{
			Tick:            tick,
			PredatorID:      predator.ID,
			PreyID:          prey.ID,
			PredatorSpecies: predator.SpeciesID,
			PreySpecies:     prey.SpeciesID,
			Success:         false,
		})
		return HuntResult{Reason: ReasonPreyEscaped, Chance: chance}
	}

	energyGained := prey.Energy * h.cfg.EnergyTransferRatio
	preyKilled := prey.Energy <= energyGained/h.cfg.EnergyTransferRatio

	predator.Energy += energyGained - h.cfg.HuntingEnergyCost
	prey.Energy -= energyGained / h.cfg.EnergyTransferRatio
	if prey.Energy <= 0 {
		prey.Energy = 0
		prey.Alive = false
	}

	h.SuccessfulHunts++
	h.tracker.RecordHuntInteraction(HuntInteraction{
		Tick:            tick,
		PredatorID:      predator.ID,
		PreyID:          prey.ID,
		PredatorSpecies: predator.SpeciesID,
		PreySpecies:     prey.SpeciesID,
		Success:         true,
		PreyKilled:      preyKilled,
		EnergyGained:    energyGained,
	})

	return HuntResult{
		Success:      true,
		EnergyGained: energyGained,
		EnergySpent:  h.cfg.HuntingEnergyCost,
		PreyKilled:   preyKilled,
		Chance:       chance,
	}
}

// PreyCandidate is a ranked potential target.
type PreyCandidate struct {
	Agent        *Agent
	Distance     float64
	Chance       float64
	ExpectedGain float64
}

// FindPotentialPrey queries the spatial collaborator for valid prey within
// hunting range, ranked descending by chance × expected energy gain.
func (h *HuntingSystem) FindPotentialPrey(predator *Agent) []PreyCandidate {
	if h.spatial == nil {
		return nil
	}

	var candidates []PreyCandidate
	for _, ed := range h.spatial.QueryRadiusSorted(predator.X, predator.Y, h.cfg.HuntingRange) {
		target := ed.Agent
		if target == nil || target.ID == predator.ID {
			continue
		}
		if !h.IsValidPrey(predator, target) {
			continue
		}
		chance := h.SuccessChance(predator, target, ed.Distance)
		candidates = append(candidates, PreyCandidate{
			Agent:        target,
			Distance:     ed.Distance,
			Chance:       chance,
			ExpectedGain: target.Energy * h.cfg.EnergyTransferRatio,
		})
	}

	// Spatial results arrive distance-sorted; re-rank by expected value.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Chance*candidates[i].ExpectedGain > candidates[j].Chance*candidates[j].ExpectedGain
	})
	return candidates
}

// BestTarget returns the highest-value prey candidate, or nil.
func (h *HuntingSystem) BestTarget(predator *Agent) *PreyCandidate {
	candidates := h.FindPotentialPrey(predator)
	if len(candidates) == 0 {
		return nil
	}
	return &candidates[0]
}

// ClearCooldown drops one predator's cooldown entry, typically on death.
func (h *HuntingSystem) ClearCooldown(predatorID string) {
	delete(h.cooldowns, predatorID)
}

// ClearAllCooldowns resets every predator's cooldown.
func (h *HuntingSystem) ClearAllCooldowns() {
	h.cooldowns = make(map[string]int64)
}
