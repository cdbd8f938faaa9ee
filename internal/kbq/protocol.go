package kbq

import (
	"fmt"

	"github.com/chrissnell/cornealfit/internal/heightfield"
	"github.com/chrissnell/cornealfit/internal/types"
)

// Options select the candidate grids of a protocol
type Options struct {
	Vendor  types.Vendor
	Special bool
}

// TwoMeridianResult holds the flat and steep fits of a standard protocol
type TwoMeridianResult struct {
	Flat  types.MeridianFit
	Steep types.MeridianFit
}

// FitTwoMeridian fits the flat meridian pair (flat, flat+180) freely, then
// the steep pair (steep, steep+180) pinned to the flat fit's Q and B.
func FitTwoMeridian(hf heightfield.HeightField, radii []float64, flatAngle, steepAngle float64, opts Options) (TwoMeridianResult, error) {
	var res TwoMeridianResult

	flat, err := FitMeridians(hf, radii, opposite(flatAngle), FreeGrid(opts.Vendor, opts.Special))
	if err != nil {
		return res, fmt.Errorf("flat meridian: %w", err)
	}

	steep, err := FitMeridians(hf, radii, opposite(steepAngle), PinnedGrid(opts.Vendor, opts.Special, flat.Q, flat.B))
	if err != nil {
		return res, fmt.Errorf("steep meridian: %w", err)
	}

	res.Flat, res.Steep = flat, steep
	return res, nil
}

// FitFourAxis fits the meridians angle, angle+90, angle+180 and angle+270
// one at a time. The first is fitted freely; the other three are pinned to
// its Q and B with the standard pinned grid, whatever opts.Special says.
func FitFourAxis(hf heightfield.HeightField, radii []float64, angle float64, opts Options) ([]types.MeridianFit, error) {
	angles := FourAxisAngles(angle)
	fits := make([]types.MeridianFit, 0, len(angles))

	first, err := FitMeridians(hf, radii, angles[:1], FreeGrid(opts.Vendor, opts.Special))
	if err != nil {
		return nil, fmt.Errorf("meridian 1: %w", err)
	}
	fits = append(fits, first)

	pinned := PinnedGrid(opts.Vendor, false, first.Q, first.B)
	for i, a := range angles[1:] {
		fit, err := FitMeridians(hf, radii, []float64{a}, pinned)
		if err != nil {
			return nil, fmt.Errorf("meridian %d: %w", i+2, err)
		}
		fits = append(fits, fit)
	}
	return fits, nil
}

// FourAxisAngles returns the four meridians 90° apart starting at angle
func FourAxisAngles(angle float64) []float64 {
	return []float64{
		heightfield.NormalizeAngle(angle),
		heightfield.NormalizeAngle(angle + 90),
		heightfield.NormalizeAngle(angle + 180),
		heightfield.NormalizeAngle(angle + 270),
	}
}

func opposite(angle float64) []float64 {
	return []float64{heightfield.NormalizeAngle(angle), heightfield.NormalizeAngle(angle + 180)}
}
