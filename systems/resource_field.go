package systems

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// ResourceField is a tileable vegetation grid with depletion and regrowth.
// Capacity comes from fractal simplex noise and drifts slowly over time,
// so resource patches migrate instead of staying pinned.
type ResourceField struct {
	W, H int

	// Current resource [0,1], what grazers consume
	Res []float64
	// Capacity [0,1], what Res regrows toward
	Cap []float64

	worldW, worldH float64

	noise opensimplex.Noise

	// Parameters
	RegrowRate float64 // per tick toward Cap
	DriftSpeed float64 // noise-space drift per tick
	Scale      float64 // base noise frequency
	Octaves    int
	Lacunarity float64
	Gain       float64
	Contrast   float64 // exponent shaping; higher = sparser patches

	time           float64
	evolveInterval float64 // ticks between capacity rebuilds
	lastEvolve     float64
}

// NewResourceField creates a resource field over a worldW x worldH world,
// discretized to a w x h grid, seeded deterministically.
func NewResourceField(w, h int, worldW, worldH float64, seed int64) *ResourceField {
	rf := &ResourceField{
		W: w, H: h,
		Res:    make([]float64, w*h),
		Cap:    make([]float64, w*h),
		worldW: worldW,
		worldH: worldH,
		noise:  opensimplex.NewNormalized(seed),

		RegrowRate: 0.005,
		DriftSpeed: 0.002,
		Scale:      3.0,
		Octaves:    4,
		Lacunarity: 2.0,
		Gain:       0.5,
		Contrast:   2.0,

		evolveInterval: 60,
	}

	rf.rebuildCapacity(0)
	copy(rf.Res, rf.Cap)

	return rf
}

// Sample returns the current resource level at world coordinates using
// bilinear interpolation.
func (rf *ResourceField) Sample(x, y float64) float64 {
	u := fract(x / rf.worldW)
	v := fract(y / rf.worldH)
	return rf.sampleBilinear(rf.Res, u, v)
}

// Graze removes resource near (x,y) over a (2r+1)-cell kernel and returns
// the amount actually removed, bounded by availability.
func (rf *ResourceField) Graze(x, y, want float64, radiusCells int) float64 {
	if want <= 0 {
		return 0
	}

	u := fract(x / rf.worldW)
	v := fract(y / rf.worldH)
	cx := int(u * float64(rf.W))
	cy := int(v * float64(rf.H))

	// Tent-weighted kernel
	var wsum float64
	for oy := -radiusCells; oy <= radiusCells; oy++ {
		for ox := -radiusCells; ox <= radiusCells; ox++ {
			w := float64(radiusCells+1) - float64(absInt(ox)+absInt(oy))
			if w > 0 {
				wsum += w
			}
		}
	}
	if wsum <= 0 {
		return 0
	}

	var removed float64
	for oy := -radiusCells; oy <= radiusCells; oy++ {
		yy := modInt(cy+oy, rf.H)
		for ox := -radiusCells; ox <= radiusCells; ox++ {
			w := float64(radiusCells+1) - float64(absInt(ox)+absInt(oy))
			if w <= 0 {
				continue
			}
			xx := modInt(cx+ox, rf.W)

			i := yy*rf.W + xx
			take := want * (w / wsum)
			if take > rf.Res[i] {
				take = rf.Res[i]
			}
			rf.Res[i] -= take
			removed += take
		}
	}
	return removed
}

// Step advances the field by one tick: periodic capacity rebuilds with
// drift, then regrowth toward capacity.
func (rf *ResourceField) Step() {
	rf.time++

	if rf.evolveInterval > 0 && rf.time-rf.lastEvolve >= rf.evolveInterval {
		rf.rebuildCapacity(rf.time)
		rf.lastEvolve = rf.time
	}

	if rf.RegrowRate > 0 {
		for i := range rf.Res {
			rf.Res[i] += (rf.Cap[i] - rf.Res[i]) * rf.RegrowRate
			rf.Res[i] = clamp01(rf.Res[i])
		}
	}
}

// TotalResource returns the summed resource across the grid.
func (rf *ResourceField) TotalResource() float64 {
	var sum float64
	for _, v := range rf.Res {
		sum += v
	}
	return sum
}

// rebuildCapacity regenerates the capacity grid from fractal noise. The
// third noise axis carries the temporal drift so the field tiles spatially
// at all times.
func (rf *ResourceField) rebuildCapacity(t float64) {
	z := t * rf.DriftSpeed
	for y := 0; y < rf.H; y++ {
		v := (float64(y) + 0.5) / float64(rf.H)
		for x := 0; x < rf.W; x++ {
			u := (float64(x) + 0.5) / float64(rf.W)
			rf.Cap[y*rf.W+x] = rf.fbm(u, v, z)
		}
	}
}

// fbm sums noise octaves sampled on a torus embedding, so capacity wraps
// seamlessly at the world edges.
func (rf *ResourceField) fbm(u, v, z float64) float64 {
	sum := 0.0
	amp := 0.5
	freq := rf.Scale

	// Map (u,v) onto a circle per axis; 4D would be exact, two offset 3D
	// samples are close enough for vegetation.
	for o := 0; o < rf.Octaves; o++ {
		nx := math.Cos(2*math.Pi*u) * freq / (2 * math.Pi)
		ny := math.Sin(2*math.Pi*u) * freq / (2 * math.Pi)
		nz := v*freq + z
		sum += amp * rf.noise.Eval3(nx, ny, nz)
		freq *= rf.Lacunarity
		amp *= rf.Gain
	}

	return clamp01(math.Pow(clamp01(sum), rf.Contrast))
}

func (rf *ResourceField) sampleBilinear(grid []float64, u, v float64) float64 {
	fx := u * float64(rf.W)
	fy := v * float64(rf.H)

	x0 := modInt(int(math.Floor(fx)), rf.W)
	y0 := modInt(int(math.Floor(fy)), rf.H)
	x1 := modInt(x0+1, rf.W)
	y1 := modInt(y0+1, rf.H)

	tx := fx - math.Floor(fx)
	ty := fy - math.Floor(fy)

	a := grid[y0*rf.W+x0] + (grid[y0*rf.W+x1]-grid[y0*rf.W+x0])*tx
	b := grid[y1*rf.W+x0] + (grid[y1*rf.W+x1]-grid[y1*rf.W+x0])*tx
	return a + (b-a)*ty
}

func fract(x float64) float64 {
	return x - math.Floor(x)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func modInt(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
