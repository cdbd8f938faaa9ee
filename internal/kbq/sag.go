// Package kbq fits conic lens parameters (curvature K, asphericity Q and
// vertical offset B) to corneal elevation by exhaustive grid search.
package kbq

import (
	"math"

	"github.com/chrissnell/cornealfit/internal/constants"
)

// Curvature converts a power in diopters into the conic's apical curvature
// (1/mm).
func Curvature(k float64) float64 {
	return k / constants.KeratometricIndex
}

// Sag returns the conic sagitta (mm) at radial distance x (mm) for power k
// (D), asphericity q and offset b (µm). Points outside the conic's domain
// yield NaN.
func Sag(k, x, q, b float64) float64 {
	c := Curvature(k)
	disc := 1 - (1+q)*c*c*x*x
	if disc < 0 {
		return math.NaN()
	}
	return c*x*x/(1+math.Sqrt(disc)) + b/1000
}

// SagMicrons is Sag in micrometres
func SagMicrons(k, x, q, b float64) float64 {
	return 1000 * Sag(k, x, q, b)
}

// Slope returns d(sag)/dx of the conic without offset, in mm/mm
func Slope(k, x, q float64) float64 {
	c := Curvature(k)
	disc := 1 - (1+q)*c*c*x*x
	if disc <= 0 {
		return math.NaN()
	}
	return c * x / math.Sqrt(disc)
}

// Round1 rounds to one decimal place, the resolution of every radius used in
// fitting and profiling.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
