// Package lens derives the toric lens customization from meridian fits
package lens

import (
	"fmt"
	"math"

	"github.com/chrissnell/cornealfit/internal/constants"
	"github.com/chrissnell/cornealfit/internal/reftable"
	"github.com/chrissnell/cornealfit/internal/types"
)

// Fixed geometry of the lens design
const (
	// ReverseArcWidth is the width (mm) of the reverse curve between BC and AC
	ReverseArcWidth = 0.8

	// acEndInset is the distance (mm) between the AC end and the lens edge
	acEndInset = 0.5

	// ReverseArcHeightOffset is added to the fitted B (µm)
	ReverseArcHeightOffset = 5.0

	// DefaultSideArcPosition is the side arc angle of edge-lift position +0
	DefaultSideArcPosition = 8.8

	// baseCurveAllowance is the fixed power allowance (D) of the base curve
	baseCurveAllowance = 0.75

	// A toroidal difference of exactly tacSnapFrom is replaced by tacSnapTo
	// and the steep power collapses onto the flat one.
	tacSnapFrom      = 0.25
	tacSnapTo        = 0.50
	tacSnapTolerance = 1e-9
)

// Convention selects how sphere and overcorrection enter the base curve.
// The vendor pipelines disagree on the sign of the overcorrection and the
// difference is kept.
type Convention int

const (
	// ConventionStandard: 337.5 / (flatK + (sphere - over) - 0.75)
	ConventionStandard Convention = iota
	// ConventionSeour: 337.5 / (flatK - sphere + over)
	ConventionSeour
	// ConventionFourAxis: 337.5 / (flatK + sphere - 0.75)
	ConventionFourAxis
)

// Request carries the prescription and lens design inputs of a derivation
type Request struct {
	Vendor              types.Vendor
	FourAxis            bool
	Sphere              float64
	Overcorrection      float64
	Family              string
	FitLevel            int
	OpticalZoneDiameter float64
	OverallDiameter     float64
	SideArcPosition     float64
}

// ConventionFor returns the base-curve convention of a pipeline
func ConventionFor(vendor types.Vendor, fourAxis bool) Convention {
	switch {
	case fourAxis:
		return ConventionFourAxis
	case vendor == types.VendorSeour:
		return ConventionSeour
	default:
		return ConventionStandard
	}
}

// BaseCurveRadius returns the computed base-arc radius (mm) before it is
// snapped to the reference table.
func BaseCurveRadius(c Convention, flatK, sphere, over float64) float64 {
	var power float64
	switch c {
	case ConventionSeour:
		power = flatK - sphere + over
	case ConventionFourAxis:
		power = flatK + sphere - baseCurveAllowance
	default:
		power = flatK + (sphere - over) - baseCurveAllowance
	}
	return constants.KeratometricIndex / power
}

// EvenDiameter lowers a diameter whose tenths digit is odd by 0.1 mm
func EvenDiameter(d float64) float64 {
	tenths := int(math.Round(d * 10))
	if tenths%2 != 0 {
		return float64(tenths-1) / 10
	}
	return float64(tenths) / 10
}

// ArcWindow returns the AC start and end radii (mm) for the given diameters.
// Medmont and Seour diameters are first made even.
func ArcWindow(vendor types.Vendor, ozd, oad float64) (start, end float64, err error) {
	if vendor == types.VendorMedmont || vendor == types.VendorSeour {
		ozd, oad = EvenDiameter(ozd), EvenDiameter(oad)
	}
	start = ozd/2 + ReverseArcWidth
	end = oad/2 - acEndInset

	if !(start > 0 && start < end && end < oad/2) {
		return start, end, fmt.Errorf("AC arc [%.2f, %.2f] for diameters %.1f/%.1f: %w",
			start, end, ozd, oad, types.ErrInvalidGeometry)
	}
	return start, end, nil
}

// ToroidalDifference returns |steepK - flatK| and applies the 0.25 D snap.
// When snapped, the returned steep power equals flatK.
func ToroidalDifference(flatK, steepK float64) (tac, steep float64, snapped bool) {
	tac = math.Abs(steepK - flatK)
	if math.Abs(tac-tacSnapFrom) < tacSnapTolerance {
		return tacSnapTo, flatK, true
	}
	return tac, steepK, false
}

// Deriver turns fits into customizations against a reference table
type Deriver struct {
	table *reftable.Table
}

// NewDeriver creates a deriver that snaps base curves against table
func NewDeriver(table *reftable.Table) *Deriver {
	return &Deriver{table: table}
}

// TwoMeridian derives a customization from a flat fit and a steep fit pinned
// to it.
func (d *Deriver) TwoMeridian(req Request, indices types.KeratometricIndices, flat, steep types.MeridianFit) (*types.ToricCustomization, error) {
	if err := checkFits(flat, steep); err != nil {
		return nil, err
	}

	tc, err := d.base(req, indices, flat)
	if err != nil {
		return nil, err
	}
	tc.ACK2, tc.ACK3, tc.ACK4 = flat.K, flat.K, flat.K
	tc.ToroidalDifference, tc.SteepK, tc.TacSnapped = ToroidalDifference(flat.K, steep.K)
	tc.FlatFit, tc.SteepFit = flat, steep
	return tc, nil
}

// FourAxis derives a customization from four meridian fits 90° apart. The
// steep power is the first meridian refitted against its own Q and B, so it
// equals ACK1 and the toroidal difference is never snapped.
func (d *Deriver) FourAxis(req Request, indices types.KeratometricIndices, fits []types.MeridianFit) (*types.ToricCustomization, error) {
	if len(fits) != 4 {
		return nil, fmt.Errorf("four-axis derivation needs 4 fits, got %d: %w", len(fits), types.ErrInsufficientData)
	}
	if err := checkFits(fits...); err != nil {
		return nil, err
	}

	req.FourAxis = true
	tc, err := d.base(req, indices, fits[0])
	if err != nil {
		return nil, err
	}
	tc.ACK2, tc.ACK3, tc.ACK4 = fits[1].K, fits[2].K, fits[3].K
	tc.SteepK = fits[0].K
	tc.ToroidalDifference = math.Abs(tc.SteepK - tc.ACK1)
	tc.FlatFit, tc.SteepFit = fits[0], fits[0]
	tc.AxisFits = append([]types.MeridianFit(nil), fits...)
	return tc, nil
}

// base fills everything that depends only on the first (flat) fit
func (d *Deriver) base(req Request, indices types.KeratometricIndices, flat types.MeridianFit) (*types.ToricCustomization, error) {
	start, end, err := ArcWindow(req.Vendor, req.OpticalZoneDiameter, req.OverallDiameter)
	if err != nil {
		return nil, err
	}

	bc := BaseCurveRadius(ConventionFor(req.Vendor, req.FourAxis), indices.FlatK, req.Sphere, req.Overcorrection)
	if math.IsNaN(bc) || math.IsInf(bc, 0) || bc <= 0 {
		return nil, fmt.Errorf("base curve radius %v from flat K %.2f: %w", bc, indices.FlatK, types.ErrInvalidGeometry)
	}

	level := req.FitLevel
	if level == 0 {
		level = reftable.LevelPrimary
	}
	ref, err := d.table.Nearest(req.Family, level, bc)
	if err != nil {
		return nil, fmt.Errorf("snapping base curve %.3f: %w", bc, err)
	}

	side := req.SideArcPosition
	if side == 0 {
		side = DefaultSideArcPosition
	}

	return &types.ToricCustomization{
		Vendor:           req.Vendor,
		FourAxis:         req.FourAxis,
		ACK1:             flat.K,
		BaseCurveRadius:  bc,
		ReverseArcHeight: flat.B + ReverseArcHeightOffset,
		ACE:              flat.Q,
		SideArcPosition:  side,
		ACArcStart:       start,
		ACArcEnd:         end,
		ACArcWidth:       end - start,
		ReverseArcWidth:  ReverseArcWidth,
		Reference:        ref,
		Indices:          indices,
	}, nil
}

func checkFits(fits ...types.MeridianFit) error {
	for i, f := range fits {
		if math.IsNaN(f.MSE) || math.IsInf(f.MSE, 0) {
			return fmt.Errorf("fit %d has non-finite error %v: %w", i+1, f.MSE, types.ErrInsufficientData)
		}
	}
	return nil
}
