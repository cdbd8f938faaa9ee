package app

import (
	"context"
	"fmt"

	"github.com/chrissnell/cornealfit/internal/heightfield"
	"github.com/chrissnell/cornealfit/internal/kbq"
	"github.com/chrissnell/cornealfit/internal/lens"
	"github.com/chrissnell/cornealfit/internal/reftable"
	"github.com/chrissnell/cornealfit/internal/tearfilm"
	"github.com/chrissnell/cornealfit/internal/topography"
	"github.com/chrissnell/cornealfit/internal/types"
	"github.com/chrissnell/cornealfit/pkg/config"
	"go.uber.org/zap"
)

// FitRequest describes one lens fit
type FitRequest struct {
	File types.TopographyFile

	// RadiusInterval is the fitted radius range (mm). The zero value selects
	// the AC arc of the requested lens.
	RadiusInterval [2]float64

	// MeridianAngles are the flat and steep axes of a two-meridian fit, or
	// the starting axis of a four-axis fit. Empty selects the axes reported
	// by the instrument.
	MeridianAngles []float64

	// Indices replace the decoded keratometric indices when set, for formats
	// that carry none.
	Indices *types.KeratometricIndices

	Sphere              float64
	Overcorrection      float64
	Family              string
	FitLevel            int
	OpticalZoneDiameter float64
	OverallDiameter     float64
	SideArcPosition     float64
	FourAxis            bool
	Special             bool
}

// Service runs fits and tear-film profiles against a shared reference table
type Service struct {
	deriver *lens.Deriver
	builder *tearfilm.Builder
	fitting config.FittingData
	logger  *zap.SugaredLogger
}

// NewService creates a service. The table is read-only and may be shared.
func NewService(table *reftable.Table, fitting config.FittingData, logger *zap.SugaredLogger) *Service {
	return &Service{
		deriver: lens.NewDeriver(table),
		builder: tearfilm.NewBuilder(table, logger),
		fitting: fitting,
		logger:  logger,
	}
}

// measure decodes a file into a measurement and its height field
func (s *Service) measure(file types.TopographyFile) (*types.Measurement, heightfield.HeightField, error) {
	m, err := topography.Decode(file, s.logger)
	if err != nil {
		return nil, nil, err
	}
	hf, err := heightfield.New(m)
	if err != nil {
		return nil, nil, fmt.Errorf("building height field for [%s]: %w", file.Path, err)
	}
	return m, hf, nil
}

// Fit decodes the request's file, fits the meridians and derives the lens
// customization.
func (s *Service) Fit(ctx context.Context, req FitRequest) (*types.ToricCustomization, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, hf, err := s.measure(req.File)
	if err != nil {
		return nil, err
	}
	indices := m.Indices
	if req.Indices != nil {
		indices = *req.Indices
	}

	r0, r1 := req.RadiusInterval[0], req.RadiusInterval[1]
	if r0 == 0 && r1 == 0 {
		if r0, r1, err = lens.ArcWindow(m.Vendor, req.OpticalZoneDiameter, req.OverallDiameter); err != nil {
			return nil, err
		}
	}
	radii, err := kbq.Radii(kbq.Round1(r0), kbq.Round1(r1))
	if err != nil {
		return nil, err
	}

	angles := req.MeridianAngles
	if len(angles) == 0 {
		angles = []float64{indices.FlatAxis, indices.SteepAxis}
	}

	special := req.Special || s.fitting.Special
	opts := kbq.Options{Vendor: m.Vendor, Special: special}
	derive := lens.Request{
		Vendor:              m.Vendor,
		FourAxis:            req.FourAxis,
		Sphere:              req.Sphere,
		Overcorrection:      req.Overcorrection,
		Family:              req.Family,
		FitLevel:            req.FitLevel,
		OpticalZoneDiameter: req.OpticalZoneDiameter,
		OverallDiameter:     req.OverallDiameter,
		SideArcPosition:     req.SideArcPosition,
	}
	if derive.SideArcPosition == 0 {
		derive.SideArcPosition = s.fitting.SideArcPosition
	}

	s.logger.Debugw("fitting measurement",
		"source", m.Source,
		"vendor", m.Vendor,
		"radii", fmt.Sprintf("%.1f..%.1f", r0, r1),
		"angles", angles,
		"four_axis", req.FourAxis,
		"special", special,
	)

	if req.FourAxis {
		fits, err := kbq.FitFourAxis(hf, radii, angles[0], opts)
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return s.deriver.FourAxis(derive, indices, fits)
	}

	if len(angles) < 2 {
		return nil, fmt.Errorf("two-meridian fit needs flat and steep angles, got %v: %w", angles, types.ErrInsufficientData)
	}
	res, err := kbq.FitTwoMeridian(hf, radii, angles[0], angles[1], opts)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.deriver.TwoMeridian(derive, indices, res.Flat, res.Steep)
}

// Profile builds the tear-film profile of a customization over the
// measurement in file.
func (s *Service) Profile(ctx context.Context, tc *types.ToricCustomization, file types.TopographyFile, family string, ozd, oad float64) (*types.TearFilmProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	_, hf, err := s.measure(file)
	if err != nil {
		return nil, err
	}
	return s.builder.Build(tc, hf, tearfilm.Request{
		Family:              family,
		OpticalZoneDiameter: ozd,
		OverallDiameter:     oad,
		Presentation:        s.fitting.Presentation,
	})
}
