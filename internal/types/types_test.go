package types

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestParseVendor(t *testing.T) {
	tests := []struct {
		in      string
		want    Vendor
		wantErr bool
	}{
		{"tomey", VendorTomey, false},
		{" Medmont ", VendorMedmont, false},
		{"medment", VendorMedmont, false},
		{"SW6000", VendorSeour, false},
		{"pentacam", "", true},
	}

	for _, tt := range tests {
		got, err := ParseVendor(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownVendor) {
				t.Errorf("ParseVendor(%q) error = %v, want ErrUnknownVendor", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseVendor(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestGridCoord(t *testing.T) {
	g := &Grid{Values: make([][]float64, 50), Extent: 6}
	if got := g.Coord(0); got != -6 {
		t.Errorf("Coord(0) = %v, want -6", got)
	}
	if got := g.Coord(49); math.Abs(got-6) > 1e-12 {
		t.Errorf("Coord(49) = %v, want 6", got)
	}
}

func TestMeasurementEmpty(t *testing.T) {
	nan := math.NaN()
	m := &Measurement{Polar: &PolarTable{
		Radius: [][]float64{{1, nan}, {nan, nan}},
		Height: [][]float64{{nan, 0.2}, {0.1, nan}},
	}}
	if !m.Empty() {
		t.Error("expected polar table without complete pairs to be empty")
	}

	m.Polar.Height[0][0] = 0
	if m.Empty() {
		t.Error("a zero height paired with a radius is valid data")
	}
}

func TestSamplesJSON(t *testing.T) {
	in := Samples{1.5, math.NaN(), -2, math.Inf(1)}

	data, err := json.Marshal(struct {
		S Samples `json:"s"`
	}{in})
	if err != nil {
		t.Fatalf("marshal returned error: %v", err)
	}
	if got, want := string(data), `{"s":[1.5,null,-2,null]}`; got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}

	var out Samples
	if err := json.Unmarshal([]byte(`[1.5,null,-2]`), &out); err != nil {
		t.Fatalf("unmarshal returned error: %v", err)
	}
	if len(out) != 3 || out[0] != 1.5 || !math.IsNaN(out[1]) || out[2] != -2 {
		t.Errorf("unexpected samples %v", out)
	}

	var empty Samples
	if err := json.Unmarshal([]byte(`null`), &empty); err != nil || empty != nil {
		t.Errorf("expected nil samples from null, got %v (%v)", empty, err)
	}
}
