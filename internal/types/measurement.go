package types

import (
	"image"
	"math"
)

// TopographyFile is a measurement file as handed to a decoder. HeightPath and
// HeightPayload are only used by the Tomey CSV export, which ships radius and
// height tables as two separate files.
type TopographyFile struct {
	Vendor        Vendor
	Path          string
	Payload       []byte
	HeightPath    string
	HeightPayload []byte
}

// KeratometricIndices are the instrument's simulated K readings in diopters
// and their axes in degrees.
type KeratometricIndices struct {
	FlatK     float64 `json:"flat_k" yaml:"flat_k"`
	FlatAxis  float64 `json:"flat_axis" yaml:"flat_axis"`
	SteepK    float64 `json:"steep_k" yaml:"steep_k"`
	SteepAxis float64 `json:"steep_axis" yaml:"steep_axis"`
}

// DeltaK returns the corneal toricity |flat - steep|
func (k KeratometricIndices) DeltaK() float64 {
	return math.Abs(k.FlatK - k.SteepK)
}

// Grid is a square Cartesian elevation matrix. Values[row][col] holds the
// height at y = Y(row), x = X(col); missing samples are NaN.
type Grid struct {
	Values [][]float64
	Extent float64
}

// Size returns the number of samples along each axis
func (g *Grid) Size() int {
	return len(g.Values)
}

// Coord returns the coordinate (mm) of sample index i along either axis
func (g *Grid) Coord(i int) float64 {
	n := g.Size()
	if n < 2 {
		return 0
	}
	return -g.Extent + 2*g.Extent*float64(i)/float64(n-1)
}

// PolarTable holds parallel radius and height tables. Row i is the meridian
// at i*360/Rows() degrees; columns are samples along that meridian. A missing
// pair is NaN in either table.
type PolarTable struct {
	Radius [][]float64
	Height [][]float64
}

// Rows returns the number of angular samples
func (p *PolarTable) Rows() int {
	return len(p.Radius)
}

// AngleStep returns the spacing between consecutive rows in degrees
func (p *PolarTable) AngleStep() float64 {
	if p.Rows() == 0 {
		return 0
	}
	return 360 / float64(p.Rows())
}

// Measurement is the decoded content of one topography file. Exactly one of
// Grid and Polar is set.
type Measurement struct {
	Vendor  Vendor
	Source  string
	Indices KeratometricIndices
	Grid    *Grid
	Polar   *PolarTable

	// Stats carries named instrument indicators when the format provides them
	Stats map[string]float64

	// Preview is the instrument's capture image, if the file embeds one
	Preview image.Image
}

// Empty reports whether every sample in the measurement's matrix is missing
func (m *Measurement) Empty() bool {
	switch {
	case m.Grid != nil:
		for _, row := range m.Grid.Values {
			for _, v := range row {
				if !math.IsNaN(v) {
					return false
				}
			}
		}
	case m.Polar != nil:
		for i, row := range m.Polar.Height {
			for j, v := range row {
				if !math.IsNaN(v) && !math.IsNaN(m.Polar.Radius[i][j]) {
					return false
				}
			}
		}
	}
	return true
}
