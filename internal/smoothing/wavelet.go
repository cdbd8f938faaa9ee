// Package smoothing denoises clearance curves for presentation: a Daubechies
// wavelet shrinkage pass followed by LOWESS.
package smoothing

import (
	"math"
	"sort"
)

// db6 is the Daubechies 6 reconstruction low-pass filter (pywt rec_lo)
var db6 = []float64{
	0.11154074335008017,
	0.4946238903983854,
	0.7511339080215775,
	0.3152503517092432,
	-0.22626469396516913,
	-0.12976686756709563,
	0.09750160558707936,
	0.02752286553001629,
	-0.031582039318031156,
	0.0005538422009938016,
	0.004777257511010651,
	-0.00107730108499558,
}

// highPass derives the quadrature mirror filter g[n] = (-1)^n h[L-1-n]
func highPass(h []float64) []float64 {
	l := len(h)
	g := make([]float64, l)
	for n := range g {
		g[n] = h[l-1-n]
		if n%2 == 1 {
			g[n] = -g[n]
		}
	}
	return g
}

// MaxLevel returns the deepest useful decomposition level for a signal of
// length n and a filter of length filterLen (pywt dwt_max_level compatible)
func MaxLevel(n, filterLen int) int {
	if filterLen < 2 || n < filterLen-1 {
		return 0
	}
	return int(math.Floor(math.Log2(float64(n) / float64(filterLen-1))))
}

// Decomposition is a multilevel periodized wavelet transform. Details[0] is
// the coarsest band.
type Decomposition struct {
	Approx  []float64
	Details [][]float64
	n       int
}

// Decompose runs a periodized db6 transform of up to level levels. The level
// is capped at MaxLevel and the signal is padded by repeating its last sample
// to a multiple of 2^level.
func Decompose(data []float64, level int) Decomposition {
	level = min(level, MaxLevel(len(data), len(db6)))
	level = max(level, 0)

	block := 1 << level
	padded := append([]float64(nil), data...)
	for len(padded)%block != 0 {
		padded = append(padded, padded[len(padded)-1])
	}

	d := Decomposition{n: len(data)}
	g := highPass(db6)
	approx := padded
	for i := 0; i < level; i++ {
		a, det := analyze(approx, db6, g)
		d.Details = append([][]float64{det}, d.Details...)
		approx = a
	}
	d.Approx = approx
	return d
}

// Reconstruct inverts the transform and truncates to the original length
func (d Decomposition) Reconstruct() []float64 {
	g := highPass(db6)
	approx := d.Approx
	for _, det := range d.Details {
		approx = synthesize(approx, det, db6, g)
	}
	if len(approx) > d.n {
		approx = approx[:d.n]
	}
	return approx
}

func analyze(x, h, g []float64) (approx, detail []float64) {
	n := len(x)
	half := n / 2
	approx = make([]float64, half)
	detail = make([]float64, half)
	for k := 0; k < half; k++ {
		var a, dt float64
		for i := range h {
			v := x[(2*k+i)%n]
			a += h[i] * v
			dt += g[i] * v
		}
		approx[k] = a
		detail[k] = dt
	}
	return approx, detail
}

func synthesize(approx, detail, h, g []float64) []float64 {
	n := 2 * len(approx)
	out := make([]float64, n)
	for k := range approx {
		for i := range h {
			out[(2*k+i)%n] += h[i]*approx[k] + g[i]*detail[k]
		}
	}
	return out
}

// SUREThreshold picks a soft threshold for a detail band by minimizing the
// risk (n - 2k + sum of the k smallest squared magnitudes) / n.
func SUREThreshold(c []float64) float64 {
	n := len(c)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	for i, v := range c {
		sorted[i] = math.Abs(v)
	}
	sort.Float64s(sorted)

	best, bestRisk := 0, math.Inf(1)
	cum := 0.0
	for k := 1; k <= n; k++ {
		cum += sorted[k-1] * sorted[k-1]
		risk := (float64(n) - 2*float64(k) + cum) / float64(n)
		if risk < bestRisk {
			best, bestRisk = k-1, risk
		}
	}
	return sorted[best]
}

// SoftThreshold shrinks every coefficient towards zero by t
func SoftThreshold(c []float64, t float64) []float64 {
	out := make([]float64, len(c))
	for i, v := range c {
		m := math.Abs(v) - t
		if m > 0 {
			out[i] = math.Copysign(m, v)
		}
	}
	return out
}

// WaveletDenoise decomposes data, soft-thresholds every detail band at its
// SURE threshold and reconstructs. The approximation band is kept.
func WaveletDenoise(data []float64, level int) []float64 {
	if len(data) == 0 {
		return nil
	}
	d := Decompose(data, level)
	for i, det := range d.Details {
		d.Details[i] = SoftThreshold(det, SUREThreshold(det))
	}
	return d.Reconstruct()
}
