package heightfield

import (
	"math"

	"github.com/fogleman/delaunay"
)

// Sample is a scattered elevation sample
type Sample struct {
	X, Y, Z float64
}

// Triangulation is a Delaunay triangulation of scattered samples
type Triangulation struct {
	samples []Sample

	// triangles holds three sample indices per triangle
	triangles []int
}

// Triangulate builds the Delaunay triangulation of samples. Fewer than three
// samples, or samples that are all collinear, give an empty triangulation.
func Triangulate(samples []Sample) *Triangulation {
	t := &Triangulation{samples: samples}
	if len(samples) < 3 {
		return t
	}

	points := make([]delaunay.Point, len(samples))
	for i, s := range samples {
		points[i] = delaunay.Point{X: s.X, Y: s.Y}
	}
	tri, err := delaunay.Triangulate(points)
	if err != nil {
		return t
	}
	t.triangles = tri.Triangles
	return t
}

// Len returns the number of triangles
func (t *Triangulation) Len() int {
	return len(t.triangles) / 3
}

// Interpolate returns the linear (barycentric) interpolation of the samples
// at (x, y). ok is false when the point is outside the convex hull.
func (t *Triangulation) Interpolate(x, y float64) (z float64, ok bool) {
	const tolerance = 1e-12

	for i := 0; i+2 < len(t.triangles); i += 3 {
		a, b, c := t.samples[t.triangles[i]], t.samples[t.triangles[i+1]], t.samples[t.triangles[i+2]]

		det := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
		if det == 0 {
			continue
		}
		l1 := ((b.Y-c.Y)*(x-c.X) + (c.X-b.X)*(y-c.Y)) / det
		l2 := ((c.Y-a.Y)*(x-c.X) + (a.X-c.X)*(y-c.Y)) / det
		l3 := 1 - l1 - l2
		if l1 < -tolerance || l2 < -tolerance || l3 < -tolerance {
			continue
		}
		return l1*a.Z + l2*b.Z + l3*c.Z, true
	}
	return math.NaN(), false
}
