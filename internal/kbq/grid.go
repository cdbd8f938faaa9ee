package kbq

import (
	"fmt"

	"github.com/chrissnell/cornealfit/internal/constants"
	"github.com/chrissnell/cornealfit/internal/types"
	"gonum.org/v1/gonum/floats"
)

// Candidate ranges
const (
	MinK      = 35.0
	MaxK      = 50.0
	KStep     = 0.25
	MinB      = -50.0
	MaxB      = 50.0
	BStep     = 5.0
	SpecialQ  = -0.25
	kSamples  = int((MaxK-MinK)/KStep) + 1
	bSamples  = int((MaxB-MinB)/BStep) + 1
	maxRadii  = 1000
)

// StandardQ is the asphericity sweep of a free standard fit
var StandardQ = []float64{0, -0.25, -0.5, -0.75, -1}

// Grid is the candidate space of one fit. Candidates are enumerated with K
// outermost, then B, then Q. An exact tie between candidates that differ in
// both K and B goes to the earlier K; a B-outermost order would pick the
// earlier B. Only the Medmont special B sweep can produce such ties.
type Grid struct {
	K []float64
	Q []float64
	B []float64
}

// Len returns the number of candidates
func (g Grid) Len() int {
	return len(g.K) * len(g.Q) * len(g.B)
}

// KValues returns 35..50 D in 0.25 D steps
func KValues() []float64 {
	return floats.Span(make([]float64, kSamples), MinK, MaxK)
}

// specialB is the offset sweep used by the special grids. Only the Medmont
// pipeline sweeps B; the other vendors hold it at zero.
func specialB(vendor types.Vendor) []float64 {
	if vendor == types.VendorMedmont {
		return floats.Span(make([]float64, bSamples), MinB, MaxB)
	}
	return []float64{0}
}

// FreeGrid is the candidate space of an unconstrained fit
func FreeGrid(vendor types.Vendor, special bool) Grid {
	if special {
		return Grid{K: KValues(), Q: []float64{SpecialQ}, B: specialB(vendor)}
	}
	return Grid{K: KValues(), Q: append([]float64(nil), StandardQ...), B: []float64{0}}
}

// PinnedGrid is the candidate space of a fit constrained to a prior fit's Q
// and B. The special variant fixes Q at -0.25 and sweeps B again.
func PinnedGrid(vendor types.Vendor, special bool, q, b float64) Grid {
	if special {
		return Grid{K: KValues(), Q: []float64{SpecialQ}, B: specialB(vendor)}
	}
	return Grid{K: KValues(), Q: []float64{q}, B: []float64{b}}
}

// Radii samples [r0, r1] every 0.1 mm, rounded to 0.1 mm
func Radii(r0, r1 float64) ([]float64, error) {
	if r1 < r0 || r0 < 0 {
		return nil, fmt.Errorf("radius interval [%.2f, %.2f]: %w", r0, r1, types.ErrOutOfRange)
	}
	n := int((r1-r0)/constants.RadiusStep+1e-9) + 1
	if n > maxRadii {
		return nil, fmt.Errorf("radius interval [%.2f, %.2f] has %d samples: %w", r0, r1, n, types.ErrOutOfRange)
	}
	radii := make([]float64, n)
	for i := range radii {
		radii[i] = Round1(r0 + float64(i)*constants.RadiusStep)
	}
	return radii, nil
}
