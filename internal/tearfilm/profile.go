// Package tearfilm builds the clearance profile between a customized lens
// and the cornea along the fitted meridians.
package tearfilm

import (
	"errors"
	"fmt"
	"math"

	"github.com/chrissnell/cornealfit/internal/constants"
	"github.com/chrissnell/cornealfit/internal/heightfield"
	"github.com/chrissnell/cornealfit/internal/kbq"
	"github.com/chrissnell/cornealfit/internal/lens"
	"github.com/chrissnell/cornealfit/internal/reftable"
	"github.com/chrissnell/cornealfit/internal/smoothing"
	"github.com/chrissnell/cornealfit/internal/types"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// pcEndMargin extends the peripheral curve past the lens edge (mm)
const pcEndMargin = 0.1

// Request carries the lens design inputs of a profile
type Request struct {
	Family              string
	OpticalZoneDiameter float64
	OverallDiameter     float64

	// Presentation adds the denoised, mirrored clearance series
	Presentation bool
}

// NewZones returns the radial zones of a customization
func NewZones(tc *types.ToricCustomization, overallDiameter float64) types.Zones {
	return types.Zones{
		BCEnd:   tc.ACArcStart - lens.ReverseArcWidth,
		ACStart: tc.ACArcStart,
		ACEnd:   tc.ACArcEnd,
		PCEnd:   kbq.Round1(overallDiameter/2 + pcEndMargin),
	}
}

// ProfileRadii returns the sampling radii 0, 0.1, ... strictly below pcEnd
func ProfileRadii(pcEnd float64) []float64 {
	n := int(math.Ceil(pcEnd/constants.RadiusStep - zoneTolerance))
	radii := make([]float64, 0, max(n, 0))
	for i := 0; i < n; i++ {
		radii = append(radii, kbq.Round1(float64(i)*constants.RadiusStep))
	}
	return radii
}

// leadingZeros returns how many innermost samples a vendor's profile blanks
func leadingZeros(v types.Vendor) int {
	switch v {
	case types.VendorSeour:
		return 2
	case types.VendorTomey:
		return 3
	default:
		return 0
	}
}

// meridian pairs a profile angle with the AC power used along it
type meridian struct {
	angle float64
	acK   float64
}

// Builder computes tear-film profiles against a reference table
type Builder struct {
	table  *reftable.Table
	logger *zap.SugaredLogger
}

// NewBuilder creates a profile builder
func NewBuilder(table *reftable.Table, logger *zap.SugaredLogger) *Builder {
	return &Builder{table: table, logger: logger}
}

// Build computes the lens, cornea and clearance series for every meridian
// of the customization. Two-meridian customizations are profiled along the
// flat meridian and its opposite at ACK1, plus the steep pair at SteepK;
// four-axis customizations along the four fitted axes at ACK1..ACK4.
func (b *Builder) Build(tc *types.ToricCustomization, hf heightfield.HeightField, req Request) (*types.TearFilmProfile, error) {
	if tc == nil {
		return nil, fmt.Errorf("no customization: %w", types.ErrInsufficientData)
	}

	zones := NewZones(tc, req.OverallDiameter)
	radii := ProfileRadii(zones.PCEnd)
	profile := &types.TearFilmProfile{
		Radii: radii,
		Zones: zones,
	}

	for _, m := range meridiansOf(tc) {
		surface, err := NewSurface(b.table, tc, zones, req.Family, req.OpticalZoneDiameter, m.acK)
		if err != nil {
			return nil, err
		}
		profile.LensType = surface.LensType()
		profile.ReferenceRadius = surface.Reference().Radius

		mp, err := b.meridianProfile(tc, hf, surface, zones, radii, m)
		if err != nil {
			return nil, fmt.Errorf("meridian %.0f°: %w", m.angle, err)
		}
		profile.Meridians = append(profile.Meridians, mp)
	}

	for _, m := range steepMeridiansOf(tc) {
		surface, err := NewSurface(b.table, tc, zones, req.Family, req.OpticalZoneDiameter, m.acK)
		if err != nil {
			return nil, err
		}
		mp, err := b.meridianProfile(tc, hf, surface, zones, radii, m)
		if err != nil {
			return nil, fmt.Errorf("steep meridian %.0f°: %w", m.angle, err)
		}
		profile.Steep = append(profile.Steep, mp)
	}

	if req.Presentation {
		profile.Presentation = b.present(profile)
	}

	b.logger.Debugw("built tear-film profile",
		"vendor", tc.Vendor,
		"lens_type", profile.LensType,
		"meridians", len(profile.Meridians),
		"steep_meridians", len(profile.Steep),
		"samples", len(radii),
	)
	return profile, nil
}

func meridiansOf(tc *types.ToricCustomization) []meridian {
	if tc.FourAxis {
		angles := kbq.FourAxisAngles(tc.Indices.FlatAxis)
		for i, f := range tc.AxisFits {
			if i < len(angles) && len(f.Angles) > 0 {
				angles[i] = f.Angles[0]
			}
		}
		ks := tc.ACKs()
		out := make([]meridian, len(angles))
		for i, a := range angles {
			out[i] = meridian{angle: a, acK: ks[i]}
		}
		return out
	}

	flat := tc.Indices.FlatAxis
	if len(tc.FlatFit.Angles) > 0 {
		flat = tc.FlatFit.Angles[0]
	}
	return []meridian{
		{angle: heightfield.NormalizeAngle(flat), acK: tc.ACK1},
		{angle: heightfield.NormalizeAngle(flat + 180), acK: tc.ACK1},
	}
}

// steepMeridiansOf returns the steep axis and its opposite at SteepK. Four-axis
// customizations and those without a steep fit have none.
func steepMeridiansOf(tc *types.ToricCustomization) []meridian {
	if tc.FourAxis || tc.SteepK <= 0 {
		return nil
	}
	steep := tc.Indices.SteepAxis
	if len(tc.SteepFit.Angles) > 0 {
		steep = tc.SteepFit.Angles[0]
	}
	return []meridian{
		{angle: heightfield.NormalizeAngle(steep), acK: tc.SteepK},
		{angle: heightfield.NormalizeAngle(steep + 180), acK: tc.SteepK},
	}
}

func (b *Builder) meridianProfile(tc *types.ToricCustomization, hf heightfield.HeightField, surface *Surface,
	zones types.Zones, radii []float64, m meridian) (types.MeridianProfile, error) {
	mp := types.MeridianProfile{
		Angle:     m.angle,
		ACK:       m.acK,
		Lens:      make([]float64, len(radii)),
		Cornea:    make([]float64, len(radii)),
		Clearance: make([]float64, len(radii)),
	}

	cornea, err := CorneaHeights(hf, m.angle, radii)
	if err != nil {
		return mp, err
	}
	lift := tc.ReverseArcHeight - lens.ReverseArcHeightOffset
	if err := FillMissing(cornea, radii, zones, m.acK, tc.ACE, lift); err != nil {
		return mp, err
	}

	for i, x := range radii {
		mp.Lens[i] = surface.Height(x)
		mp.Cornea[i] = 1000 * cornea[i]
		mp.Clearance[i] = mp.Lens[i] - mp.Cornea[i]
	}
	for i := 0; i < leadingZeros(tc.Vendor) && i < len(radii); i++ {
		mp.Cornea[i] = 0
		mp.Clearance[i] = 0
	}
	return mp, nil
}

// CorneaHeights samples the height field along one meridian and returns the
// negated elevations (mm). Radii outside the support are NaN.
func CorneaHeights(hf heightfield.HeightField, angle float64, radii []float64) ([]float64, error) {
	out := make([]float64, len(radii))
	for i, r := range radii {
		h, err := hf.Elevation(angle, r)
		switch {
		case errors.Is(err, types.ErrOutOfRange):
			h = math.NaN()
		case err != nil:
			return nil, fmt.Errorf("sampling cornea at %.1f mm: %w", r, err)
		}
		out[i] = -h
	}
	return out, nil
}

// FillMissing replaces missing cornea samples between the AC start and the
// PC end with the AC conic, shifted by its mean offset from the valid AC
// samples. Heights are in mm; lift is the fitted B in µm.
func FillMissing(cornea, radii []float64, zones types.Zones, acK, acE, lift float64) error {
	model := func(x float64) float64 {
		return -kbq.Sag(acK, x, acE, lift)
	}
	inAC := func(x float64) bool {
		return x >= zones.ACStart-zoneTolerance && x <= zones.ACEnd+zoneTolerance
	}

	var diffs []float64
	missing := false
	for i, x := range radii {
		if x < zones.ACStart-zoneTolerance || x > zones.PCEnd+zoneTolerance {
			continue
		}
		if math.IsNaN(cornea[i]) {
			missing = true
			continue
		}
		if inAC(x) {
			if d := model(x) - cornea[i]; !math.IsNaN(d) {
				diffs = append(diffs, d)
			}
		}
	}
	if !missing {
		return nil
	}
	if len(diffs) == 0 {
		return fmt.Errorf("no valid cornea sample in the AC zone to anchor missing values: %w", types.ErrInsufficientData)
	}

	offset := stat.Mean(diffs, nil)
	for i, x := range radii {
		if x < zones.ACStart-zoneTolerance || x > zones.PCEnd+zoneTolerance {
			continue
		}
		if math.IsNaN(cornea[i]) {
			cornea[i] = model(x) - offset
		}
	}
	return nil
}

// present denoises the first two clearance meridians for charting. Profiles
// with missing clearance inside the lens are not presented.
func (b *Builder) present(p *types.TearFilmProfile) *types.Presentation {
	if len(p.Meridians) < 2 {
		return nil
	}
	first, second := p.Meridians[0].Clearance, p.Meridians[1].Clearance
	for i := range first {
		if math.IsNaN(first[i]) || math.IsNaN(second[i]) {
			b.logger.Warnw("skipping presentation: clearance has missing samples", "radius", p.Radii[i])
			return nil
		}
	}

	x, y := smoothing.Symmetric(p.Radii, first, second)
	return &types.Presentation{X: x, Y: y}
}
