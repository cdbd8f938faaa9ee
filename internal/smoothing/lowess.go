package smoothing

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Lowess fits a locally weighted linear regression at every x using the
// int(frac*n) nearest neighbours with tricube weights. No robustness
// iterations are run. Results are returned in input order.
func Lowess(x, y []float64, frac float64) []float64 {
	n := len(x)
	out := make([]float64, n)
	copy(out, y)

	k := int(frac*float64(n) + 1e-10)
	k = min(k, n)
	if n < 2 || k < 2 || len(y) != n {
		return out
	}

	// Neighbourhoods are windows over the x-sorted order
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return x[order[a]] < x[order[b]] })

	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, j := range order {
		xs[i], ys[i] = x[j], y[j]
	}
	span := xs[n-1] - xs[0]

	w := make([]float64, k)
	left := 0
	for i := 0; i < n; i++ {
		xi := xs[i]
		for left+k < n && xi-xs[left] > xs[left+k]-xi {
			left++
		}
		wx := xs[left : left+k]
		wy := ys[left : left+k]
		radius := math.Max(xi-wx[0], wx[k-1]-xi)

		for j, v := range wx {
			w[j] = tricube(math.Abs(v-xi), radius)
		}
		if floats.Sum(w) == 0 {
			out[order[i]] = ys[i]
			continue
		}

		// A window with no spread in x degrades to a weighted mean
		if _, v := stat.PopMeanVariance(wx, w); math.Sqrt(v) <= 1e-3*span {
			out[order[i]] = stat.Mean(wy, w)
			continue
		}
		alpha, beta := stat.LinearRegression(wx, wy, w, false)
		out[order[i]] = alpha + beta*xi
	}
	return out
}

func tricube(d, radius float64) float64 {
	if radius <= 0 {
		return 1
	}
	u := d / radius
	if u >= 1 {
		return 0
	}
	v := 1 - u*u*u
	return v * v * v
}
