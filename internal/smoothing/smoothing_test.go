package smoothing

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func TestFilterIsOrthonormal(t *testing.T) {
	var sum, energy float64
	for _, h := range db6 {
		sum += h
		energy += h * h
	}
	if math.Abs(sum-math.Sqrt2) > 1e-12 {
		t.Errorf("expected filter sum sqrt(2), got %v", sum)
	}
	if math.Abs(energy-1) > 1e-11 {
		t.Errorf("expected unit energy, got %v", energy)
	}

	var g float64
	for _, v := range highPass(db6) {
		g += v
	}
	if math.Abs(g) > 1e-12 {
		t.Errorf("expected high-pass filter to sum to zero, got %v", g)
	}
}

func TestMaxLevel(t *testing.T) {
	tests := []struct {
		n, filterLen, want int
	}{
		{50, 12, 2},
		{62, 12, 2},
		{100, 12, 3},
		{1024, 12, 6},
		{10, 12, 0},
	}
	for _, tt := range tests {
		if got := MaxLevel(tt.n, tt.filterLen); got != tt.want {
			t.Errorf("MaxLevel(%d, %d): expected %d, got %d", tt.n, tt.filterLen, tt.want, got)
		}
	}
}

func TestPerfectReconstruction(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		level int
	}{
		{"power of two", 64, 3},
		{"padded length", 50, 8},
		{"odd length", 97, 2},
		{"level zero", 20, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]float64, tt.n)
			for i := range data {
				x := float64(i) / 10
				data[i] = math.Sin(x) + 0.3*math.Cos(5*x) + 0.01*float64(i%3)
			}

			got := Decompose(data, tt.level).Reconstruct()
			if len(got) != len(data) {
				t.Fatalf("expected %d samples, got %d", len(data), len(got))
			}
			for i := range data {
				if math.Abs(got[i]-data[i]) > epsilon {
					t.Fatalf("sample %d: expected %v, got %v", i, data[i], got[i])
				}
			}
		})
	}
}

func TestSUREThreshold(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want float64
	}{
		{"large coefficients keep the smallest", []float64{3, -1, 2}, 1},
		{"small coefficients take the largest", []float64{0.1, -0.2, 0.3, 0.4}, 0.4},
		{"empty", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SUREThreshold(tt.in); math.Abs(got-tt.want) > epsilon {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSoftThreshold(t *testing.T) {
	got := SoftThreshold([]float64{3, -1, 2, -0.5, -4}, 1)
	want := []float64{2, 0, 1, 0, -3}
	for i := range want {
		if math.Abs(got[i]-want[i]) > epsilon {
			t.Errorf("coefficient %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestWaveletDenoiseConstant(t *testing.T) {
	data := make([]float64, 50)
	for i := range data {
		data[i] = 12.5
	}
	for i, v := range WaveletDenoise(data, DenoiseLevel) {
		if math.Abs(v-12.5) > 1e-6 {
			t.Fatalf("sample %d: expected 12.5, got %v", i, v)
		}
	}
	if WaveletDenoise(nil, 3) != nil {
		t.Error("expected nil for empty input")
	}
}

func TestLowessReproducesLine(t *testing.T) {
	x := make([]float64, 21)
	y := make([]float64, 21)
	for i := range x {
		x[i] = float64(i) / 10
		y[i] = 2*x[i] + 1
	}

	got := Lowess(x, y, 7.0/21)
	for i := range y {
		if math.Abs(got[i]-y[i]) > epsilon {
			t.Errorf("sample %d: expected %v, got %v", i, y[i], got[i])
		}
	}

	// Input order is preserved for unsorted x
	rx := make([]float64, len(x))
	ry := make([]float64, len(y))
	for i := range x {
		rx[i], ry[i] = x[len(x)-1-i], y[len(y)-1-i]
	}
	got = Lowess(rx, ry, 7.0/21)
	for i := range ry {
		if math.Abs(got[i]-ry[i]) > epsilon {
			t.Errorf("reversed sample %d: expected %v, got %v", i, ry[i], got[i])
		}
	}
}

func TestLowessSmallNeighbourhood(t *testing.T) {
	y := []float64{1, 5, 2}
	got := Lowess([]float64{0, 1, 2}, y, 0.5)
	for i := range y {
		if got[i] != y[i] {
			t.Errorf("expected input unchanged, got %v", got)
		}
	}
}

func TestSymmetric(t *testing.T) {
	n := 30
	x := make([]float64, n)
	a := make([]float64, n)
	b := make([]float64, n)
	for i := range x {
		x[i] = float64(i) / 10
		a[i] = 10
		b[i] = 20
	}

	sx, sy := Symmetric(x, a, b)
	if len(sx) != 2*n || len(sy) != 2*n {
		t.Fatalf("expected %d samples, got %d/%d", 2*n, len(sx), len(sy))
	}
	if sx[0] != -x[n-1] || sx[n] != x[0] || sx[2*n-1] != x[n-1] {
		t.Errorf("unexpected mirrored x: %v", sx)
	}
	if math.Abs(sy[0]-20) > 1e-6 || math.Abs(sy[2*n-1]-10) > 1e-6 {
		t.Errorf("expected the second meridian on the left and the first on the right, got %v and %v", sy[0], sy[2*n-1])
	}

	if sx, _ := Symmetric(x, a, b[:2]); sx != nil {
		t.Error("expected nil for mismatched lengths")
	}
}
