// Package telemetry provides windowed simulation statistics and CSV
// output.
package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for one tick window.
type WindowStats struct {
	WindowStartTick int64 `csv:"-"`
	WindowEndTick   int64 `csv:"window_end"`

	// Population at window end
	Population int `csv:"population"`

	// Events during window
	Births int `csv:"births"`
	Deaths int `csv:"deaths"`

	// Predation
	HuntsAttempted int     `csv:"hunts_attempted"`
	HuntsSucceeded int     `csv:"hunts_succeeded"`
	Kills          int     `csv:"kills"`
	HuntHitRate    float64 `csv:"hunt_hit_rate"`

	// Foraging
	ForageEvents  int     `csv:"forage_events"`
	EnergyGrazed  float64 `csv:"energy_grazed"`
	TotalResource float64 `csv:"total_resource"`

	// Energy distribution sampled at window end
	EnergyMean float64 `csv:"energy_mean"`
	EnergyP10  float64 `csv:"energy_p10"`
	EnergyP50  float64 `csv:"energy_p50"`
	EnergyP90  float64 `csv:"energy_p90"`

	// Trophic role census
	Herbivores   int `csv:"herbivores"`
	Carnivores   int `csv:"carnivores"`
	Omnivores    int `csv:"omnivores"`
	ApexSpecies  int `csv:"apex_species"`
	Scavengers   int `csv:"scavengers"`
	Undetermined int `csv:"undetermined"`

	// Speciation
	Populations      int     `csv:"populations"`
	MeanDivergence   float64 `csv:"mean_divergence"`
	SpeciationEvents int     `csv:"speciation_events"`
}

// EnergySummary computes mean and percentiles over a sample of energy
// values. Returns zeros for an empty sample.
func EnergySummary(values []float64) (mean, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean = stat.Mean(sorted, nil)
	p10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	return mean, p10, p50, p90
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"population", s.Population,
		"births", s.Births,
		"deaths", s.Deaths,
		"hunts_attempted", s.HuntsAttempted,
		"hunts_succeeded", s.HuntsSucceeded,
		"kills", s.Kills,
		"hunt_hit_rate", s.HuntHitRate,
		"forage_events", s.ForageEvents,
		"energy_grazed", s.EnergyGrazed,
		"total_resource", s.TotalResource,
		"energy_mean", s.EnergyMean,
		"energy_p10", s.EnergyP10,
		"energy_p50", s.EnergyP50,
		"energy_p90", s.EnergyP90,
		"herbivores", s.Herbivores,
		"carnivores", s.Carnivores,
		"omnivores", s.Omnivores,
		"apex_species", s.ApexSpecies,
		"scavengers", s.Scavengers,
		"undetermined", s.Undetermined,
		"populations", s.Populations,
		"mean_divergence", s.MeanDivergence,
		"speciation_events", s.SpeciationEvents,
	)
}
