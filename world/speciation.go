package world

import (
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/ecosysx/terrarium/genome"
	"github.com/ecosysx/terrarium/speciation"
	"github.com/ecosysx/terrarium/systems"
)

// updateSpeciation refreshes population descriptors on the centroid
// interval, then lets the engine scan for splits.
func (w *World) updateSpeciation() {
	if interval := w.cfg.Speciation.CentroidUpdateInterval; interval > 0 && w.tick%interval == 0 {
		w.refreshPopulations()
	}

	events := w.engine.Update(w.tick)
	for range events {
		w.collector.RecordSpeciation()
	}
	if err := w.output.WriteEvents(events); err != nil {
		slog.Error("writing speciation events", "error", err)
	}
}

type populationSample struct {
	genomes []*genome.Genome
	xs, ys  []float64
	maxGen  int
}

// refreshPopulations recomputes per-population membership, spatial extent
// and genetic centroids, and prunes populations that died out.
func (w *World) refreshPopulations() {
	samples := make(map[string]*populationSample)

	query := w.entityFilter.Query()
	for query.Next() {
		pos, _, energy, org := query.Get()
		if !energy.Alive {
			continue
		}
		s, ok := samples[org.PopulationID]
		if !ok {
			s = &populationSample{}
			samples[org.PopulationID] = s
		}
		s.xs = append(s.xs, pos.X)
		s.ys = append(s.ys, pos.Y)
		if org.Generation > s.maxGen {
			s.maxGen = org.Generation
		}
		if g := w.genomes[org.ID]; g != nil && len(s.genomes) < w.cfg.Speciation.CentroidSampleSize {
			s.genomes = append(s.genomes, g)
		}
	}

	for id, s := range samples {
		cx := circularMean(s.xs, w.cfg.World.Width)
		cy := circularMean(s.ys, w.cfg.World.Height)
		radius := w.spatialRadius(s.xs, s.ys, cx, cy)

		pop := w.matrix.Population(id)
		if pop == nil {
			w.matrix.RegisterPopulation(&speciation.PopulationDescriptor{
				ID:          id,
				LineageID:   uuid.NewString(),
				MemberCount: len(s.xs),
				CenterX:     cx,
				CenterY:     cy,
				Radius:      radius,
				Generation:  s.maxGen,
			}, w.tick)
		} else {
			pop.MemberCount = len(s.xs)
			pop.CenterX = cx
			pop.CenterY = cy
			pop.Radius = radius
			pop.Generation = s.maxGen
			pop.UpdatedTick = w.tick
		}

		if len(s.genomes) > 0 {
			w.matrix.UpdatePopulationCentroid(id, s.genomes, w.tick)
		}
	}

	// Populations with no living members go extinct
	for _, pop := range w.matrix.Populations() {
		if _, ok := samples[pop.ID]; !ok {
			pop.MemberCount = 0
		}
	}
	w.matrix.PruneExtinctPopulations()
}

// circularMean averages positions on a wrapped axis of the given period,
// so clusters straddling the world seam get a sensible center.
func circularMean(values []float64, period float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sinSum, cosSum float64
	for _, v := range values {
		theta := 2 * math.Pi * v / period
		sinSum += math.Sin(theta)
		cosSum += math.Cos(theta)
	}
	mean := math.Atan2(sinSum, cosSum) / (2 * math.Pi) * period
	if mean < 0 {
		mean += period
	}
	return mean
}

// spatialRadius estimates a population's extent as twice the mean
// toroidal distance from its center.
func (w *World) spatialRadius(xs, ys []float64, cx, cy float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for i := range xs {
		dx, dy := systems.ToroidalDelta(cx, cy, xs[i], ys[i], w.cfg.World.Width, w.cfg.World.Height)
		sum += math.Sqrt(dx*dx + dy*dy)
	}
	return 2 * sum / float64(len(xs))
}
