// Package systems provides host-simulation infrastructure: spatial
// indexing and the vegetation resource field.
package systems

import (
	"math"
	"sort"

	"github.com/mlange-42/ark/ecs"

	"github.com/ecosysx/terrarium/components"
)

// Neighbor holds a nearby entity with precomputed spatial data, avoiding
// recomputation of toroidal deltas in callers.
type Neighbor struct {
	E      ecs.Entity
	DX, DY float64 // Toroidal delta from query origin
	Dist   float64
}

// MaxQueryResults caps the number of neighbors returned by spatial
// queries, bounding work under density spikes.
const MaxQueryResults = 128

// SpatialGrid provides O(1) neighbor lookups using a cell-based grid with
// toroidal wrap.
type SpatialGrid struct {
	cellSize float64
	cols     int
	rows     int
	width    float64
	height   float64
	cells    [][]ecs.Entity
}

// NewSpatialGrid creates a spatial grid covering the given world size.
func NewSpatialGrid(width, height, cellSize float64) *SpatialGrid {
	cols := int(width/cellSize) + 1
	rows := int(height/cellSize) + 1

	cells := make([][]ecs.Entity, cols*rows)
	for i := range cells {
		cells[i] = make([]ecs.Entity, 0, 8)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		width:    width,
		height:   height,
		cells:    cells,
	}
}

// Clear removes all entities from the grid.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert adds an entity to the grid at the given position.
func (g *SpatialGrid) Insert(e ecs.Entity, x, y float64) {
	idx := g.cellIndex(x, y)
	if idx >= 0 && idx < len(g.cells) {
		g.cells[idx] = append(g.cells[idx], e)
	}
}

// QueryRadiusInto finds entities within radius and appends them to dst,
// up to MaxQueryResults. Reuse dst across calls to avoid allocations.
func (g *SpatialGrid) QueryRadiusInto(dst []Neighbor, x, y, radius float64, exclude ecs.Entity, posMap *ecs.Map1[components.Position]) []Neighbor {
	cellRadius := int(radius/g.cellSize) + 1

	centerCol := int(x / g.cellSize)
	centerRow := int(y / g.cellSize)

	radiusSq := radius * radius

	for dc := -cellRadius; dc <= cellRadius; dc++ {
		for dr := -cellRadius; dr <= cellRadius; dr++ {
			col := (centerCol + dc + g.cols) % g.cols
			row := (centerRow + dr + g.rows) % g.rows
			idx := row*g.cols + col

			for _, e := range g.cells[idx] {
				if e == exclude {
					continue
				}

				pos := posMap.Get(e)
				if pos == nil {
					continue
				}

				dx, dy := ToroidalDelta(x, y, pos.X, pos.Y, g.width, g.height)
				distSq := dx*dx + dy*dy

				if distSq <= radiusSq {
					dst = append(dst, Neighbor{E: e, DX: dx, DY: dy, Dist: math.Sqrt(distSq)})
					if len(dst) >= MaxQueryResults {
						return dst
					}
				}
			}
		}
	}

	return dst
}

// QueryRadiusSorted returns entities within radius, sorted ascending by
// distance from the query origin.
func (g *SpatialGrid) QueryRadiusSorted(x, y, radius float64, exclude ecs.Entity, posMap *ecs.Map1[components.Position]) []Neighbor {
	neighbors := g.QueryRadiusInto(nil, x, y, radius, exclude, posMap)
	sort.Slice(neighbors, func(i, j int) bool { return neighbors[i].Dist < neighbors[j].Dist })
	return neighbors
}

// cellIndex returns the flat index for a world position.
func (g *SpatialGrid) cellIndex(x, y float64) int {
	col := int(x / g.cellSize)
	row := int(y / g.cellSize)

	if col < 0 {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}

	return row*g.cols + col
}

// ToroidalDelta returns the shortest path delta from (x1,y1) to (x2,y2)
// on a torus of size w x h.
func ToroidalDelta(x1, y1, x2, y2, w, h float64) (dx, dy float64) {
	dx = x2 - x1
	dy = y2 - y1

	if dx > w/2 {
		dx -= w
	} else if dx < -w/2 {
		dx += w
	}
	if dy > h/2 {
		dy -= h
	} else if dy < -h/2 {
		dy += h
	}

	return dx, dy
}

// WrapPosition wraps a coordinate pair back into [0,w) x [0,h).
func WrapPosition(x, y, w, h float64) (float64, float64) {
	x = math.Mod(x, w)
	if x < 0 {
		x += w
	}
	y = math.Mod(y, h)
	if y < 0 {
		y += h
	}
	return x, y
}
