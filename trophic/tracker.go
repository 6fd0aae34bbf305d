// Package trophic infers predator/prey roles from observed interactions
// and resolves hunting attempts between agents.
package trophic

import (
	"sort"
)

// TrophicRole is an emergent behavioral classification of a species,
// inferred from its interaction history rather than pre-assigned.
type TrophicRole string

const (
	RoleUndetermined TrophicRole = "undetermined"
	RoleProducer     TrophicRole = "producer" // Assigned externally (flora); never inferred
	RoleHerbivore    TrophicRole = "herbivore"
	RoleCarnivore    TrophicRole = "carnivore"
	RoleOmnivore     TrophicRole = "omnivore"
	RoleApexPredator TrophicRole = "apex_predator"
	RoleScavenger    TrophicRole = "scavenger"
)

// TrophicProfile accumulates per-species interaction history. Profiles are
// created lazily on first interaction, one per species id, never per agent.
type TrophicProfile struct {
	SpeciesID       string
	Role            TrophicRole
	Confidence      float64
	HuntAttempts    int
	HuntSuccesses   int
	FoodConsumed    int
	AgentsConsumed  int
	PreySpecies     map[string]struct{}
	PredatorSpecies map[string]struct{}
	LastRoleUpdate  int64
}

// HuntInteraction is one observed predation event.
type HuntInteraction struct {
	Tick            int64
	PredatorID      string
	PreyID          string
	PredatorSpecies string
	PreySpecies     string
	Success         bool
	PreyKilled      bool
	EnergyGained    float64
}

// TrackerConfig controls role inference.
type TrackerConfig struct {
	MinInteractionsForRole  int     `yaml:"min_interactions_for_role"`
	HerbivoreAgentRatioMax  float64 `yaml:"herbivore_agent_ratio_max"` // Agent-consumption share below which a species is herbivore
	CarnivoreAgentRatioMin  float64 `yaml:"carnivore_agent_ratio_min"` // Agent-consumption share above which a species is carnivore
	ApexSuccessRateMin      float64 `yaml:"apex_success_rate_min"`     // Hunting success rate qualifying for apex status
	ScavengerSuccessRateMax float64 `yaml:"scavenger_success_rate_max"`
}

// DefaultTrackerConfig returns the standard role-inference thresholds.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		MinInteractionsForRole:  10,
		HerbivoreAgentRatioMax:  0.1,
		CarnivoreAgentRatioMin:  0.9,
		ApexSuccessRateMin:      0.7,
		ScavengerSuccessRateMax: 0.2,
	}
}

// Tracker observes hunting and feeding interactions and periodically
// recomputes per-species trophic roles.
type Tracker struct {
	cfg      TrackerConfig
	profiles map[string]*TrophicProfile
}

// NewTracker creates an empty tracker.
func NewTracker(cfg TrackerConfig) *Tracker {
	return &Tracker{
		cfg:      cfg,
		profiles: make(map[string]*TrophicProfile),
	}
}

func (t *Tracker) profile(speciesID string) *TrophicProfile {
	p, ok := t.profiles[speciesID]
	if !ok {
		p = &TrophicProfile{
			SpeciesID:       speciesID,
			Role:            RoleUndetermined,
			PreySpecies:     make(map[string]struct{}),
			PredatorSpecies: make(map[string]struct{}),
		}
		t.profiles[speciesID] = p
	}
	return p
}

// Profile returns the profile for a species, or nil if none exists yet.
func (t *Tracker) Profile(speciesID string) *TrophicProfile {
	return t.profiles[speciesID]
}

// RecordHuntInteraction updates both species' profiles from one observed
// hunt. A successful hunt marks the prey species as prey of the predator
// and the predator species as a predator of the prey.
func (t *Tracker) RecordHuntInteraction(in HuntInteraction) {
	pred := t.profile(in.PredatorSpecies)
	prey := t.profile(in.PreySpecies)

	pred.HuntAttempts++
	if in.Success {
		pred.HuntSuccesses++
		pred.AgentsConsumed++
		pred.PreySpecies[in.PreySpecies] = struct{}{}
		prey.PredatorSpecies[in.PredatorSpecies] = struct{}{}
	}
}

// RecordFoodConsumption notes one plant/resource feeding event.
func (t *Tracker) RecordFoodConsumption(speciesID string) {
	t.profile(speciesID).FoodConsumed++
}

// MarkProducer pins a species to the producer role. Producers are not
// inferred from interactions; flora is declared by the host simulation.
func (t *Tracker) MarkProducer(speciesID string) {
	p := t.profile(speciesID)
	p.Role = RoleProducer
	p.Confidence = 1
}

// UpdateRoles recomputes the role of every tracked species from its
// interaction counters. Species below the interaction gate stay
// undetermined with partial confidence.
func (t *Tracker) UpdateRoles(tick int64) {
	for _, p := range t.profiles {
		if p.Role == RoleProducer {
			continue
		}
		p.LastRoleUpdate = tick

		total := p.HuntAttempts + p.FoodConsumed
		if total < t.cfg.MinInteractionsForRole {
			p.Role = RoleUndetermined
			p.Confidence = float64(total) / float64(t.cfg.MinInteractionsForRole)
			continue
		}

		consumed := p.AgentsConsumed + p.FoodConsumed
		agentRatio := 0.0
		if consumed > 0 {
			agentRatio = float64(p.AgentsConsumed) / float64(consumed)
		}
		successRate := 0.0
		if p.HuntAttempts > 0 {
			successRate = float64(p.HuntSuccesses) / float64(p.HuntAttempts)
		}

		switch {
		case agentRatio < t.cfg.HerbivoreAgentRatioMax:
			p.Role = RoleHerbivore
		case agentRatio > t.cfg.CarnivoreAgentRatioMin:
			switch {
			case successRate >= t.cfg.ApexSuccessRateMin && len(p.PredatorSpecies) == 0:
				p.Role = RoleApexPredator
			case successRate <= t.cfg.ScavengerSuccessRateMax && p.AgentsConsumed > 0:
				// Eats agents it rarely kills itself: carrion feeder
				p.Role = RoleScavenger
			default:
				p.Role = RoleCarnivore
			}
		default:
			p.Role = RoleOmnivore
		}

		p.Confidence = float64(total) / float64(2*t.cfg.MinInteractionsForRole)
		if p.Confidence > 1 {
			p.Confidence = 1
		}
	}
}

// IsThreatTo reports whether species a preys on species b. The relation is
// learned: a is a threat once b has been observed as its prey, or while a's
// inferred role is carnivorous. Species without enough history to classify
// are treated as potential threats so early hunts can seed the record.
func (t *Tracker) IsThreatTo(a, b string) bool {
	if a == b {
		return false
	}
	p, ok := t.profiles[a]
	if !ok {
		return true // No history yet: exploratory hunting allowed
	}
	if _, observed := p.PreySpecies[b]; observed {
		return true
	}
	switch p.Role {
	case RoleCarnivore, RoleOmnivore, RoleApexPredator, RoleScavenger:
		return true
	case RoleUndetermined:
		return p.HuntAttempts+p.FoodConsumed < t.cfg.MinInteractionsForRole
	default:
		return false
	}
}

// TrackerStats summarizes the tracked ecosystem.
type TrackerStats struct {
	SpeciesTracked    int
	TotalInteractions int
	RoleCounts        map[TrophicRole]int
}

// Stats returns aggregate counters over all profiles.
func (t *Tracker) Stats() TrackerStats {
	stats := TrackerStats{RoleCounts: make(map[TrophicRole]int)}
	for _, p := range t.profiles {
		stats.SpeciesTracked++
		stats.TotalInteractions += p.HuntAttempts + p.FoodConsumed
		stats.RoleCounts[p.Role]++
	}
	return stats
}

// SpeciesIDs returns all tracked species ids in sorted order.
func (t *Tracker) SpeciesIDs() []string {
	ids := make([]string, 0, len(t.profiles))
	for id := range t.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
