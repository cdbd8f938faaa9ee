// Package heightfield answers corneal elevation queries in polar coordinates
// over the vendor-native sampling of a measurement.
package heightfield

import (
	"fmt"
	"math"

	"github.com/chrissnell/cornealfit/internal/types"
)

// HeightField returns the absolute corneal elevation (mm) at a meridian angle
// (degrees) and radius (mm). NaN means the field has no value there.
type HeightField interface {
	Elevation(angleDeg, radiusMM float64) (float64, error)
}

// New builds the height field matching the shape of a measurement
func New(m *types.Measurement) (HeightField, error) {
	switch {
	case m.Grid != nil:
		return NewCartesian(m.Grid), nil
	case m.Polar != nil:
		return NewPolar(m.Polar)
	default:
		return nil, fmt.Errorf("measurement [%s] holds no elevation matrix: %w", m.Source, types.ErrFormat)
	}
}

// NormalizeAngle maps an angle in degrees into [0, 360)
func NormalizeAngle(deg float64) float64 {
	a := math.Mod(deg, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a = 0
	}
	return a
}
