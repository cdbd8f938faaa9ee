package smoothing

// Presentation defaults
const (
	// DenoiseLevel is the requested decomposition depth, capped per signal
	DenoiseLevel = 8

	// LowessNeighbours is the neighbourhood size of the final LOWESS pass
	LowessNeighbours = 7
)

// Symmetric denoises two clearance meridians sampled at x and mirrors them
// into a single chart series running from -x to x. The negative half is the
// denoised second meridian reversed and the positive half is the smoothed
// first meridian.
func Symmetric(x, first, second []float64) (sx, sy []float64) {
	n := len(x)
	if n == 0 || len(first) != n || len(second) != n {
		return nil, nil
	}

	frac := float64(LowessNeighbours) / float64(n)
	smoothed := Lowess(x, WaveletDenoise(first, DenoiseLevel), frac)
	mirrored := WaveletDenoise(second, DenoiseLevel)

	sx = make([]float64, 0, 2*n)
	sy = make([]float64, 0, 2*n)
	for i := n - 1; i >= 0; i-- {
		sx = append(sx, -x[i])
		sy = append(sy, mirrored[i])
	}
	sx = append(sx, x...)
	sy = append(sy, smoothed...)
	return sx, sy
}
