package tearfilm

import (
	"fmt"
	"math"
	"sort"

	"github.com/chrissnell/cornealfit/internal/types"
	"gonum.org/v1/gonum/floats"
)

// stainingColumns is the angular resolution of a staining map (1° steps)
const stainingColumns = 360

// StainingMap is the tear-film thickness (µm) over the whole lens, one row
// per radius and one column per degree.
type StainingMap struct {
	Angles    []float64       `json:"angles"`
	Radii     []float64       `json:"radii"`
	Thickness []types.Samples `json:"thickness"`
}

// Staining spreads the clearance of a four-axis profile over every angle.
// Between two consecutive meridians (sorted by angle, wrapping at 360°) the
// thickness follows a cos(2α) blend from one meridian's clearance to the
// next. Radii run evenly from the centre to the lens edge.
func Staining(p *types.TearFilmProfile, overallDiameter float64) (*StainingMap, error) {
	if p == nil || len(p.Meridians) != 4 {
		return nil, fmt.Errorf("staining needs a four-axis profile: %w", types.ErrInsufficientData)
	}
	n := len(p.Meridians[0].Clearance)
	if n < 2 {
		return nil, fmt.Errorf("staining needs at least 2 radii, got %d: %w", n, types.ErrInsufficientData)
	}

	ms := append([]types.MeridianProfile(nil), p.Meridians...)
	sort.SliceStable(ms, func(i, j int) bool { return ms[i].Angle < ms[j].Angle })
	for _, m := range ms {
		if len(m.Clearance) != n {
			return nil, fmt.Errorf("meridian %.0f° has %d samples, want %d: %w", m.Angle, len(m.Clearance), n, types.ErrFormat)
		}
	}

	sm := &StainingMap{
		Angles:    make([]float64, stainingColumns),
		Radii:     floats.Span(make([]float64, n), 0, overallDiameter/2),
		Thickness: make([]types.Samples, n),
	}
	for i := range sm.Angles {
		sm.Angles[i] = float64(i)
	}

	for j := 0; j < n; j++ {
		row := make([]float64, stainingColumns)
		for i, alpha := range sm.Angles {
			lo := sector(ms, alpha)
			hi := (lo + 1) % len(ms)
			h1, h2 := ms[lo].Clearance[j], ms[hi].Clearance[j]
			d := math.Mod(alpha-ms[lo].Angle+360, 360)
			row[i] = 0.5*(h1-h2)*math.Cos(2*d*math.Pi/180) + 0.5*(h1+h2)
		}
		sm.Thickness[j] = row
	}
	return sm, nil
}

// sector returns the index of the last meridian at or before alpha, wrapping
// to the final meridian for angles below the first.
func sector(ms []types.MeridianProfile, alpha float64) int {
	idx := len(ms) - 1
	for i, m := range ms {
		if m.Angle <= alpha {
			idx = i
		}
	}
	return idx
}
