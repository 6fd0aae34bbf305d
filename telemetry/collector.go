package telemetry

// Collector accumulates events within tick windows and produces
// WindowStats on flush.
type Collector struct {
	windowTicks     int64
	windowStartTick int64

	births           int
	deaths           int
	huntsAttempted   int
	huntsSucceeded   int
	kills            int
	forageEvents     int
	energyGrazed     float64
	speciationEvents int
}

// NewCollector creates a stats collector flushing every windowTicks.
func NewCollector(windowTicks int64) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{windowTicks: windowTicks}
}

// RecordBirth records a birth event.
func (c *Collector) RecordBirth() { c.births++ }

// RecordDeath records a death event.
func (c *Collector) RecordDeath() { c.deaths++ }

// RecordHunt records a hunt attempt; successful hunts also pass the kill
// flag.
func (c *Collector) RecordHunt(succeeded, killed bool) {
	c.huntsAttempted++
	if succeeded {
		c.huntsSucceeded++
	}
	if killed {
		c.kills++
	}
}

// RecordForage records a grazing event and the energy gained.
func (c *Collector) RecordForage(energy float64) {
	c.forageEvents++
	c.energyGrazed += energy
}

// RecordSpeciation records an emitted speciation event.
func (c *Collector) RecordSpeciation() { c.speciationEvents++ }

// ShouldFlush reports whether the current window is complete.
func (c *Collector) ShouldFlush(tick int64) bool {
	return tick-c.windowStartTick >= c.windowTicks
}

// Census carries the point-in-time state sampled by the caller at flush.
type Census struct {
	Population    int
	Energies      []float64
	TotalResource float64

	Herbivores   int
	Carnivores   int
	Omnivores    int
	ApexSpecies  int
	Scavengers   int
	Undetermined int

	Populations    int
	MeanDivergence float64
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(tick int64, census Census) WindowStats {
	var hitRate float64
	if c.huntsAttempted > 0 {
		hitRate = float64(c.huntsSucceeded) / float64(c.huntsAttempted)
	}

	mean, p10, p50, p90 := EnergySummary(census.Energies)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   tick,

		Population: census.Population,
		Births:     c.births,
		Deaths:     c.deaths,

		HuntsAttempted: c.huntsAttempted,
		HuntsSucceeded: c.huntsSucceeded,
		Kills:          c.kills,
		HuntHitRate:    hitRate,

		ForageEvents:  c.forageEvents,
		EnergyGrazed:  c.energyGrazed,
		TotalResource: census.TotalResource,

		EnergyMean: mean,
		EnergyP10:  p10,
		EnergyP50:  p50,
		EnergyP90:  p90,

		Herbivores:   census.Herbivores,
		Carnivores:   census.Carnivores,
		Omnivores:    census.Omnivores,
		ApexSpecies:  census.ApexSpecies,
		Scavengers:   census.Scavengers,
		Undetermined: census.Undetermined,

		Populations:      census.Populations,
		MeanDivergence:   census.MeanDivergence,
		SpeciationEvents: c.speciationEvents,
	}

	c.windowStartTick = tick
	c.births = 0
	c.deaths = 0
	c.huntsAttempted = 0
	c.huntsSucceeded = 0
	c.kills = 0
	c.forageEvents = 0
	c.energyGrazed = 0
	c.speciationEvents = 0

	return stats
}

// WindowTicks returns the number of ticks per window.
func (c *Collector) WindowTicks() int64 {
	return c.windowTicks
}
