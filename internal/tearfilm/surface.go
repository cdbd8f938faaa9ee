package tearfilm

import (
	"fmt"
	"math"
	"strings"

	"github.com/chrissnell/cornealfit/internal/constants"
	"github.com/chrissnell/cornealfit/internal/kbq"
	"github.com/chrissnell/cornealfit/internal/lens"
	"github.com/chrissnell/cornealfit/internal/reftable"
	"github.com/chrissnell/cornealfit/internal/types"
)

const (
	// bcApexOffset lifts the base curve apex (µm)
	bcApexOffset = 5.0

	// bcSplitRadius separates the two base-curve segments (mm)
	bcSplitRadius = 2.0

	// sideArcDivisor scales the side arc position into the edge-lift angle
	// added to the AC end tangent (degrees).
	sideArcDivisor = 3.0

	// zoneTolerance absorbs rounding in zone boundary comparisons
	zoneTolerance = 1e-9
)

// Lens families
const (
	FamilySingle = "s"
	FamilyA      = "A"
	FamilyPRO    = "PRO"
)

// LensType returns the reference series used for the lens surface. The "A"
// and "PRO" families are resolved by optical zone diameter.
func LensType(family string, ozd float64) string {
	if !strings.EqualFold(family, FamilyA) && !strings.EqualFold(family, FamilyPRO) {
		return family
	}
	switch {
	case ozd >= 4.7-zoneTolerance && ozd <= 5.3+zoneTolerance:
		return "A+++"
	case ozd >= 5.4-zoneTolerance && ozd <= 5.7+zoneTolerance:
		return "A++"
	default:
		return FamilyPRO
	}
}

// conic is one rotationally symmetric segment of the lens back surface
type conic struct {
	k, q float64
}

// height returns the segment height (µm) at x shifted by offset
func (c conic) height(x, offset float64) float64 {
	return -kbq.SagMicrons(c.k, x, c.q, 0) + offset
}

// Surface is the lens back surface for one AC power: base curve, reverse
// curve, alignment curve and peripheral curve.
type Surface struct {
	zones types.Zones

	bc      []conic
	split   bool
	ac      conic
	acLift  float64
	rcK     float64
	rcR     float64
	pcStart float64
	pcSlope float64

	lensType  string
	reference types.ReferenceEntry
}

// NewSurface builds the surface for a customization at the given AC power.
// The base curve is snapped against table using the lens type of family.
func NewSurface(table *reftable.Table, tc *types.ToricCustomization, zones types.Zones, family string, ozd, acK float64) (*Surface, error) {
	s := &Surface{
		zones:    zones,
		ac:       conic{k: acK, q: tc.ACE},
		acLift:   tc.ReverseArcHeight - lens.ReverseArcHeightOffset,
		lensType: LensType(family, ozd),
	}

	first, err := table.Nearest(s.lensType, reftable.LevelPrimary, tc.BaseCurveRadius)
	if err != nil {
		return nil, fmt.Errorf("snapping base curve for lens type %s: %w", s.lensType, err)
	}
	s.reference = first
	s.bc = append(s.bc, conic{k: constants.KeratometricIndex / first.Radius, q: first.Asphericity})

	if !strings.EqualFold(s.lensType, FamilySingle) {
		second, err := table.Nearest(s.lensType, reftable.LevelSecondary, tc.BaseCurveRadius)
		if err != nil {
			return nil, fmt.Errorf("snapping second base curve segment for lens type %s: %w", s.lensType, err)
		}
		s.bc = append(s.bc, conic{k: constants.KeratometricIndex / second.Radius, q: second.Asphericity})
		s.split = true
	}

	if err := s.joinReverseCurve(); err != nil {
		return nil, err
	}
	s.joinPeripheralCurve(tc.SideArcPosition)
	return s, nil
}

// joinReverseCurve fits the circle centred on the lens axis through the BC
// end and the AC start.
func (s *Surface) joinReverseCurve() error {
	b, a := s.zones.BCEnd, s.zones.ACStart
	h1 := s.baseCurve(b) / 1000
	h2 := s.alignmentCurve(a) / 1000

	if math.IsNaN(h1) || math.IsNaN(h2) || h1 == h2 {
		return fmt.Errorf("reverse curve between %.2f and %.2f mm: %w", b, a, types.ErrInvalidGeometry)
	}

	s.rcK = (a*a + h2*h2 - b*b - h1*h1) / (2 * (h2 - h1))
	s.rcR = math.Sqrt(b*b + (h1-s.rcK)*(h1-s.rcK))
	return nil
}

// joinPeripheralCurve continues the AC end tangent, tilted by the side arc
func (s *Surface) joinPeripheralCurve(sideArc float64) {
	end := s.zones.ACEnd
	slope := -kbq.Slope(s.ac.k, end, s.ac.q)
	theta := math.Atan(slope)*180/math.Pi + sideArc/sideArcDivisor

	s.pcStart = s.alignmentCurve(end)
	s.pcSlope = math.Tan(theta * math.Pi / 180)
}

func (s *Surface) baseCurve(x float64) float64 {
	seg := s.bc[0]
	if s.split && x > bcSplitRadius+zoneTolerance {
		seg = s.bc[1]
	}
	return seg.height(x, bcApexOffset)
}

func (s *Surface) alignmentCurve(x float64) float64 {
	return s.ac.height(x, -s.acLift)
}

// Height returns the lens surface height (µm) at radius x (mm)
func (s *Surface) Height(x float64) float64 {
	z := s.zones
	switch {
	case x <= z.BCEnd+zoneTolerance:
		return s.baseCurve(x)
	case x < z.ACStart-zoneTolerance:
		return 1000 * (math.Sqrt(s.rcR*s.rcR-x*x) + s.rcK)
	case x <= z.ACEnd+zoneTolerance:
		return s.alignmentCurve(x)
	default:
		return s.pcStart + 1000*s.pcSlope*(x-z.ACEnd)
	}
}

// LensType returns the reference series the base curve was snapped against
func (s *Surface) LensType() string {
	return s.lensType
}

// Reference returns the level-1 base curve entry
func (s *Surface) Reference() types.ReferenceEntry {
	return s.reference
}
