package types

// MeridianFit is the optimizer's best candidate for one meridian set
type MeridianFit struct {
	K      float64   `json:"k"`
	Q      float64   `json:"q"`
	B      float64   `json:"b"`
	MSE    float64   `json:"mse"`
	Angles []float64 `json:"angles"`
}

// ReferenceEntry is one manufacturable base curve from the reference table
type ReferenceEntry struct {
	Family      string  `json:"family" yaml:"family"`
	Level       int     `json:"level" yaml:"level"`
	Radius      float64 `json:"radius" yaml:"radius"`
	Asphericity float64 `json:"asphericity" yaml:"asphericity"`
}

// ToricCustomization is the derived lens parameter record. It is produced
// whole by the derivation step and never patched afterwards.
type ToricCustomization struct {
	Vendor   Vendor `json:"vendor"`
	FourAxis bool   `json:"four_axis"`

	ACK1 float64 `json:"ac_arc_k1"`
	ACK2 float64 `json:"ac_arc_k2"`
	ACK3 float64 `json:"ac_arc_k3"`
	ACK4 float64 `json:"ac_arc_k4"`

	SteepK             float64 `json:"steep_k"`
	BaseCurveRadius    float64 `json:"base_arc_curvature_radius"`
	ToroidalDifference float64 `json:"tac"`
	TacSnapped         bool    `json:"tac_snapped"`

	ReverseArcHeight float64 `json:"reverse_arc_height"`
	ACE              float64 `json:"ace_position"`
	SideArcPosition  float64 `json:"side_arc_position"`

	ACArcStart      float64 `json:"ac_arc_start"`
	ACArcEnd        float64 `json:"ac_arc_end"`
	ACArcWidth      float64 `json:"ac_arc_width"`
	ReverseArcWidth float64 `json:"reverse_arc_width"`

	Reference ReferenceEntry      `json:"reference"`
	Indices   KeratometricIndices `json:"indices"`

	FlatFit  MeridianFit   `json:"flat_fit"`
	SteepFit MeridianFit   `json:"steep_fit"`
	AxisFits []MeridianFit `json:"axis_fits,omitempty"`
}

// ACKs returns the alignment-curve powers in meridian order
func (t *ToricCustomization) ACKs() []float64 {
	return []float64{t.ACK1, t.ACK2, t.ACK3, t.ACK4}
}

// Zones are the radial boundaries (mm) of the lens surface model
type Zones struct {
	BCEnd   float64 `json:"bc_end"`
	ACStart float64 `json:"ac_start"`
	ACEnd   float64 `json:"ac_end"`
	PCEnd   float64 `json:"pc_end"`
}

// RCEnd is the reverse-curve end, which coincides with the AC start
func (z Zones) RCEnd() float64 {
	return z.ACStart
}

// MeridianProfile holds the lens, cornea and clearance series (µm) along one
// meridian, sampled at the profile's radii.
type MeridianProfile struct {
	Angle     float64 `json:"angle"`
	ACK       float64 `json:"ac_k"`
	Lens      Samples `json:"lens"`
	Cornea    Samples `json:"cornea"`
	Clearance Samples `json:"clearance"`
}

// Presentation is the denoised, mirrored clearance curve for charting
type Presentation struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

// TearFilmProfile is the zoned clearance profile for a customization
type TearFilmProfile struct {
	Radii           []float64         `json:"radii"`
	Zones           Zones             `json:"zones"`
	LensType        string            `json:"lens_type"`
	ReferenceRadius float64           `json:"reference_radius"`
	Meridians       []MeridianProfile `json:"meridians"`

	// Steep holds the steep meridian and its opposite at SteepK. Only
	// two-meridian customizations carry it.
	Steep []MeridianProfile `json:"steep,omitempty"`

	Presentation *Presentation `json:"presentation,omitempty"`
}
