package heightfield

import (
	"fmt"
	"math"
	"sort"

	"github.com/chrissnell/cornealfit/internal/types"
	"gonum.org/v1/gonum/interp"
)

// angleTolerance decides whether a query angle lands on a sampled row
const angleTolerance = 1e-9

// Polar interpolates a table of equally spaced meridians
type Polar struct {
	table *types.PolarTable
	step  float64
}

// NewPolar wraps a polar table. The radius and height tables must have the
// same shape.
func NewPolar(table *types.PolarTable) (*Polar, error) {
	if table.Rows() == 0 || len(table.Height) != table.Rows() {
		return nil, fmt.Errorf("polar table has %d radius rows and %d height rows: %w",
			table.Rows(), len(table.Height), types.ErrFormat)
	}
	for i := range table.Radius {
		if len(table.Radius[i]) != len(table.Height[i]) {
			return nil, fmt.Errorf("polar row %d has %d radii and %d heights: %w",
				i, len(table.Radius[i]), len(table.Height[i]), types.ErrFormat)
		}
	}
	return &Polar{table: table, step: table.AngleStep()}, nil
}

// Elevation interpolates along radius within the row at angleDeg. Between
// sampled rows the two bracketing rows are blended first. A radius outside the
// row's valid support yields NaN; a row without any valid sample is an error.
func (p *Polar) Elevation(angleDeg, radiusMM float64) (float64, error) {
	radius, height := p.row(NormalizeAngle(angleDeg))

	xs, ys := validPairs(radius, height)
	if len(xs) == 0 {
		return math.NaN(), fmt.Errorf("no valid samples on meridian %.2f°: %w", angleDeg, types.ErrOutOfRange)
	}

	if radiusMM < xs[0] || radiusMM > xs[len(xs)-1] {
		return math.NaN(), nil
	}
	if len(xs) == 1 {
		return math.Abs(ys[0]), nil
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return math.NaN(), fmt.Errorf("interpolating meridian %.2f°: %w", angleDeg, err)
	}
	return math.Abs(pl.Predict(radiusMM)), nil
}

// row returns the radius and height samples at angle, blending neighbours
// when angle falls between rows. The blend wraps from the last row to row 0.
func (p *Polar) row(angle float64) ([]float64, []float64) {
	rows := p.table.Rows()
	pos := angle / p.step
	i := int(math.Floor(pos))
	frac := pos - float64(i)

	switch {
	case frac < angleTolerance:
		return p.table.Radius[i%rows], p.table.Height[i%rows]
	case 1-frac < angleTolerance:
		return p.table.Radius[(i+1)%rows], p.table.Height[(i+1)%rows]
	}

	lo, hi := i%rows, (i+1)%rows
	radius := blend(p.table.Radius[lo], p.table.Radius[hi], frac)
	height := blend(p.table.Height[lo], p.table.Height[hi], frac)
	return radius, height
}

// blend mixes two rows column by column. NaN on either side stays NaN.
func blend(a, b []float64, w float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = (1-w)*a[i] + w*b[i]
	}
	return out
}

// validPairs drops NaN and infinite pairs and returns the remainder sorted by
// radius. Of repeated radii only the first is kept.
func validPairs(radius, height []float64) ([]float64, []float64) {
	type pair struct{ r, h float64 }
	pairs := make([]pair, 0, len(radius))
	for i := range radius {
		r, h := radius[i], height[i]
		if math.IsNaN(r) || math.IsNaN(h) || math.IsInf(r, 0) || math.IsInf(h, 0) {
			continue
		}
		pairs = append(pairs, pair{r, h})
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].r < pairs[j].r })

	xs := make([]float64, 0, len(pairs))
	ys := make([]float64, 0, len(pairs))
	for _, pr := range pairs {
		if len(xs) > 0 && pr.r == xs[len(xs)-1] {
			continue
		}
		xs = append(xs, pr.r)
		ys = append(ys, pr.h)
	}
	return xs, ys
}
