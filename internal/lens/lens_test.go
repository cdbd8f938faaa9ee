package lens

import (
	"errors"
	"math"
	"testing"

	"github.com/chrissnell/cornealfit/internal/reftable"
	"github.com/chrissnell/cornealfit/internal/types"
)

const epsilon = 1e-9

func TestToroidalDifference(t *testing.T) {
	tests := []struct {
		name        string
		flat, steep float64
		wantTac     float64
		wantSteep   float64
		wantSnapped bool
	}{
		{"0.24 unchanged", 42, 42.24, 0.24, 42.24, false},
		{"0.25 snaps", 42, 42.25, 0.5, 42, true},
		{"0.25 below flat snaps", 42.25, 42, 0.5, 42.25, true},
		{"0.26 unchanged", 42, 42.26, 0.26, 42.26, false},
		{"no toricity", 43, 43, 0, 43, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tac, steep, snapped := ToroidalDifference(tt.flat, tt.steep)
			if math.Abs(tac-tt.wantTac) > epsilon || steep != tt.wantSteep || snapped != tt.wantSnapped {
				t.Errorf("expected (%v, %v, %v), got (%v, %v, %v)",
					tt.wantTac, tt.wantSteep, tt.wantSnapped, tac, steep, snapped)
			}
		})
	}
}

func TestBaseCurveRadius(t *testing.T) {
	tests := []struct {
		name   string
		conv   Convention
		want   float64
		vendor types.Vendor
		four   bool
	}{
		{"standard", ConventionStandard, 337.5 / (43 + (-3 - 0.5) - 0.75), types.VendorTomey, false},
		{"seour", ConventionSeour, 337.5 / (43 + 3 + 0.5), types.VendorSeour, false},
		{"four axis", ConventionFourAxis, 337.5 / (43 - 3 - 0.75), types.VendorSeour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if c := ConventionFor(tt.vendor, tt.four); c != tt.conv {
				t.Errorf("expected convention %v, got %v", tt.conv, c)
			}
			got := BaseCurveRadius(tt.conv, 43, -3, 0.5)
			if math.Abs(got-tt.want) > epsilon {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestEvenDiameter(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{10.6, 10.6},
		{10.7, 10.6},
		{5.9, 5.8},
		{11, 11},
	}
	for _, tt := range tests {
		if got := EvenDiameter(tt.in); math.Abs(got-tt.want) > epsilon {
			t.Errorf("EvenDiameter(%v): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestArcWindow(t *testing.T) {
	start, end, err := ArcWindow(types.VendorMedmont, 6.1, 10.7)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(start-3.8) > epsilon || math.Abs(end-4.8) > epsilon {
		t.Errorf("expected [3.8, 4.8], got [%v, %v]", start, end)
	}

	start, _, err = ArcWindow(types.VendorTomey, 6.1, 10.7)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(start-3.85) > epsilon {
		t.Errorf("expected unrounded start 3.85 for tomey, got %v", start)
	}

	start, end, err = ArcWindow(types.VendorSeour, 6.1, 10.7)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(start-3.8) > epsilon || math.Abs(end-4.8) > epsilon {
		t.Errorf("expected even seour diameters [3.8, 4.8], got [%v, %v]", start, end)
	}

	if _, _, err := ArcWindow(types.VendorSeour, 8, 9); !errors.Is(err, types.ErrInvalidGeometry) {
		t.Errorf("expected ErrInvalidGeometry, got %v", err)
	}
}

func testDeriver(t *testing.T) *Deriver {
	table, err := reftable.Load(reftable.NewEmbeddedProvider())
	if err != nil {
		t.Fatal(err)
	}
	return NewDeriver(table)
}

func TestTwoMeridian(t *testing.T) {
	req := Request{
		Vendor:              types.VendorMedmont,
		Sphere:              -3,
		Overcorrection:      0.5,
		Family:              "A",
		OpticalZoneDiameter: 6,
		OverallDiameter:     10.6,
	}
	indices := types.KeratometricIndices{FlatK: 43, SteepK: 44}
	flat := types.MeridianFit{K: 42.5, Q: -0.5, B: 10, MSE: 1e-4}
	steep := types.MeridianFit{K: 42.75, Q: -0.5, B: 10, MSE: 2e-4}

	tc, err := testDeriver(t).TwoMeridian(req, indices, flat, steep)
	if err != nil {
		t.Fatal(err)
	}

	if tc.ACK1 != 42.5 || tc.ACK2 != 42.5 || tc.ACK4 != 42.5 {
		t.Errorf("expected every AC power to be the flat fit, got %v", tc.ACKs())
	}
	if !tc.TacSnapped || tc.ToroidalDifference != 0.5 || tc.SteepK != 42.5 {
		t.Errorf("expected snapped tac 0.5 with steep 42.5, got tac=%v steep=%v", tc.ToroidalDifference, tc.SteepK)
	}
	if tc.ReverseArcHeight != 15 || tc.ACE != -0.5 {
		t.Errorf("expected RAH 15 and ACE -0.5, got %v and %v", tc.ReverseArcHeight, tc.ACE)
	}
	if tc.SideArcPosition != DefaultSideArcPosition {
		t.Errorf("expected default side arc position, got %v", tc.SideArcPosition)
	}

	wantBC := 337.5 / (43 - 3.5 - 0.75)
	if math.Abs(tc.BaseCurveRadius-wantBC) > epsilon {
		t.Errorf("expected base curve %v, got %v", wantBC, tc.BaseCurveRadius)
	}
	// 8.7097 sits between 8.71 and 8.65 in the A level 1 series
	if tc.Reference.Radius != 8.71 || tc.Reference.Family != "A" {
		t.Errorf("expected reference radius 8.71, got %+v", tc.Reference)
	}
	if math.Abs(tc.ACArcWidth-(tc.ACArcEnd-tc.ACArcStart)) > epsilon {
		t.Errorf("inconsistent AC width %v", tc.ACArcWidth)
	}
}

func TestFourAxis(t *testing.T) {
	req := Request{
		Vendor:              types.VendorSeour,
		Sphere:              -2,
		Family:              "PRO",
		OpticalZoneDiameter: 6,
		OverallDiameter:     10.6,
		SideArcPosition:     9.5,
	}
	fits := []types.MeridianFit{
		{K: 42, Q: -0.25, MSE: 1},
		{K: 43, Q: -0.25, MSE: 1},
		{K: 42.25, Q: -0.25, MSE: 1},
		{K: 43.5, Q: -0.25, MSE: 1},
	}

	tc, err := testDeriver(t).FourAxis(req, types.KeratometricIndices{FlatK: 42.2}, fits)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{42, 43, 42.25, 43.5}
	for i, k := range tc.ACKs() {
		if k != want[i] {
			t.Errorf("ACK%d: expected %v, got %v", i+1, want[i], k)
		}
	}
	if tc.SteepK != 42 || tc.ToroidalDifference != 0 || tc.TacSnapped {
		t.Errorf("expected steep 42 and tac 0 unsnapped, got %v, %v, %v", tc.SteepK, tc.ToroidalDifference, tc.TacSnapped)
	}
	if tc.SteepFit.K != fits[0].K {
		t.Errorf("expected the steep fit to be the first meridian, got K %v", tc.SteepFit.K)
	}
	wantBC := 337.5 / (42.2 - 2 - 0.75)
	if math.Abs(tc.BaseCurveRadius-wantBC) > epsilon {
		t.Errorf("expected four-axis base curve %v, got %v", wantBC, tc.BaseCurveRadius)
	}
	if tc.SideArcPosition != 9.5 || !tc.FourAxis || len(tc.AxisFits) != 4 {
		t.Errorf("unexpected customization %+v", tc)
	}
}

func TestDeriveRejectsInvalidInputs(t *testing.T) {
	d := testDeriver(t)
	req := Request{Vendor: types.VendorTomey, Family: "A", OpticalZoneDiameter: 6, OverallDiameter: 10.6}
	good := types.MeridianFit{K: 42, MSE: 0.1}

	_, err := d.TwoMeridian(req, types.KeratometricIndices{FlatK: 43}, good, types.MeridianFit{K: 42, MSE: math.Inf(1)})
	if !errors.Is(err, types.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData for infinite MSE, got %v", err)
	}

	_, err = d.TwoMeridian(req, types.KeratometricIndices{FlatK: 0.75}, good, good)
	if !errors.Is(err, types.ErrInvalidGeometry) {
		t.Errorf("expected ErrInvalidGeometry for a degenerate base curve, got %v", err)
	}

	req.Family = "Z"
	if _, err := d.TwoMeridian(req, types.KeratometricIndices{FlatK: 43}, good, good); err == nil {
		t.Error("expected an error for an unknown family")
	}

	if _, err := d.FourAxis(req, types.KeratometricIndices{FlatK: 43}, []types.MeridianFit{good}); err == nil {
		t.Error("expected an error for too few fits")
	}
}
