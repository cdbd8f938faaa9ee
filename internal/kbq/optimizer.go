package kbq

import (
	"errors"
	"fmt"
	"math"

	"github.com/chrissnell/cornealfit/internal/heightfield"
	"github.com/chrissnell/cornealfit/internal/types"
)

// Targets returns the measured elevation at every radius, averaged over the
// given meridians. A radius where any meridian has no value is NaN. Meridians
// with no valid sample at all count as missing rather than failing the fit.
func Targets(hf heightfield.HeightField, radii, angles []float64) ([]float64, error) {
	targets := make([]float64, len(radii))
	for i, r := range radii {
		sum := 0.0
		for _, a := range angles {
			z, err := hf.Elevation(a, r)
			if err != nil {
				if errors.Is(err, types.ErrOutOfRange) {
					z = math.NaN()
				} else {
					return nil, fmt.Errorf("elevation at %.1f°, %.1f mm: %w", a, r, err)
				}
			}
			sum += z
		}
		targets[i] = sum / float64(len(angles))
	}
	return targets, nil
}

// Search evaluates every candidate of g against the targets and returns the
// one with the smallest mean squared deviation. The first of equal minima
// wins. Candidates without a single finite deviation are skipped; if every
// candidate is skipped the fit fails with ErrInsufficientData.
func Search(radii, targets []float64, g Grid) (types.MeridianFit, error) {
	best := types.MeridianFit{MSE: math.Inf(1)}
	found := false

	for _, k := range g.K {
		for _, b := range g.B {
			for _, q := range g.Q {
				mse, ok := meanSquaredError(radii, targets, k, q, b)
				if !ok {
					continue
				}
				if !found || mse < best.MSE {
					best = types.MeridianFit{K: k, Q: q, B: b, MSE: mse}
					found = true
				}
			}
		}
	}

	if !found {
		return types.MeridianFit{}, fmt.Errorf("none of %d candidates has a valid radius: %w", g.Len(), types.ErrInsufficientData)
	}
	return best, nil
}

func meanSquaredError(radii, targets []float64, k, q, b float64) (float64, bool) {
	sum := 0.0
	n := 0
	for i, r := range radii {
		t := targets[i]
		if math.IsNaN(t) || math.IsInf(t, 0) {
			continue
		}
		d := Sag(k, r, q, b) - t
		if math.IsNaN(d) || math.IsInf(d, 0) {
			continue
		}
		sum += d * d
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// FitMeridians fits one meridian set: the targets are the mean elevation of
// angles at every radius.
func FitMeridians(hf heightfield.HeightField, radii, angles []float64, g Grid) (types.MeridianFit, error) {
	targets, err := Targets(hf, radii, angles)
	if err != nil {
		return types.MeridianFit{}, err
	}
	fit, err := Search(radii, targets, g)
	if err != nil {
		return types.MeridianFit{}, fmt.Errorf("fitting meridians %v: %w", angles, err)
	}
	fit.Angles = append([]float64(nil), angles...)
	return fit, nil
}
