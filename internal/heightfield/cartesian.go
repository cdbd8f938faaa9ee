package heightfield

import (
	"math"

	"github.com/chrissnell/cornealfit/internal/types"
)

// Cartesian interpolates a square elevation grid. The triangulation of the
// valid samples is built once, when the field is created.
type Cartesian struct {
	grid *types.Grid
	tri  *Triangulation
}

// NewCartesian triangulates the valid samples of grid
func NewCartesian(grid *types.Grid) *Cartesian {
	var samples []Sample
	for row, values := range grid.Values {
		for col, z := range values {
			if math.IsNaN(z) || math.IsInf(z, 0) {
				continue
			}
			samples = append(samples, Sample{X: grid.Coord(col), Y: grid.Coord(row), Z: z})
		}
	}
	return &Cartesian{grid: grid, tri: Triangulate(samples)}
}

// Elevation projects the query onto the grid plane, clamped to the sampled
// square, and interpolates linearly inside the triangulation. Outside of it
// the nearest grid node is used, even when that node is itself missing.
func (c *Cartesian) Elevation(angleDeg, radiusMM float64) (float64, error) {
	theta := NormalizeAngle(angleDeg) * math.Pi / 180
	e := c.grid.Extent
	x := clamp(radiusMM*math.Cos(theta), -e, e)
	y := clamp(radiusMM*math.Sin(theta), -e, e)

	if z, ok := c.tri.Interpolate(x, y); ok {
		return math.Abs(z), nil
	}
	return math.Abs(c.nearest(x, y)), nil
}

func (c *Cartesian) nearest(x, y float64) float64 {
	n := c.grid.Size()
	if n == 0 {
		return math.NaN()
	}
	index := func(v float64) int {
		if n == 1 {
			return 0
		}
		step := 2 * c.grid.Extent / float64(n-1)
		i := int(math.Round((v + c.grid.Extent) / step))
		return min(max(i, 0), n-1)
	}
	return c.grid.Values[index(y)][index(x)]
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
