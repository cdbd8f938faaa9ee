package seour

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/chrissnell/cornealfit/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const columns = 8

func table(rows int, f func(row, col int) float64) string {
	var sb strings.Builder
	for r := 0; r < rows; r++ {
		vals := make([]string, columns)
		for c := range vals {
			vals[c] = fmt.Sprintf("%g", f(r, c))
		}
		sb.WriteString(strings.Join(vals, ","))
		sb.WriteString("\n")
	}
	return sb.String()
}

func radiusAt(row, col int) float64 {
	if row == 3 && col == 0 {
		return 0
	}
	return 0.5 * float64(col+1)
}

func heightAt(row, col int) float64 {
	if row == 4 && col == 2 {
		return -100
	}
	return -0.02 * float64(col) * float64(col)
}

func patientTest(flatK float64) string {
	return fmt.Sprintf(`<SW6000PatientTest>
    <EyeType>OD</EyeType>
    <Data>
      <KeratometricIndices3mm>
        <FlatK>%g</FlatK>
        <FlatAngle>178</FlatAngle>
        <SteepK>44.1</SteepK>
        <SteepAngle>88</SteepAngle>
      </KeratometricIndices3mm>
    </Data>
  </SW6000PatientTest>`, flatK)
}

func export(tests string, rows int) []byte {
	return []byte(`<SW6000>
  ` + tests + `
  <RadiusMillimeter><Data>` + table(rows, radiusAt) + `</Data></RadiusMillimeter>
  <CornealHeight><Data>` + table(rows, heightAt) + `</Data></CornealHeight>
</SW6000>`)
}

func TestDecode(t *testing.T) {
	data := export(patientTest(42.0)+patientTest(42.6), Rows)

	m, err := NewDecoder(zap.NewNop().Sugar()).Decode(types.TopographyFile{Path: "exam.xml", Payload: data})
	require.NoError(t, err)
	require.NotNil(t, m.Polar)

	assert.Equal(t, 42.6, m.Indices.FlatK, "last patient test should win")
	assert.Equal(t, 178.0, m.Indices.FlatAxis)
	assert.Equal(t, 88.0, m.Indices.SteepAxis)

	assert.Equal(t, Rows, m.Polar.Rows())
	assert.Equal(t, 1.0, m.Polar.AngleStep())
	assert.InDelta(t, 2.0, m.Polar.Radius[10][3], 1e-12)
	assert.InDelta(t, -0.18, m.Polar.Height[10][3], 1e-12)

	assert.True(t, math.IsNaN(m.Polar.Radius[3][0]))
	assert.True(t, math.IsNaN(m.Polar.Height[3][0]), "missing radius drops the pair")
	assert.True(t, math.IsNaN(m.Polar.Height[4][2]))
	assert.True(t, math.IsNaN(m.Polar.Radius[4][2]), "missing height drops the pair")

	assert.Equal(t, 0.0, m.Polar.Height[10][0], "zero height is a valid sample")
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"no patient test", export("", Rows), types.ErrMissingBlock},
		{"short table", export(patientTest(42), Rows-1), types.ErrFormat},
		{"broken xml", []byte("<SW6000>"), types.ErrFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDecoder(zap.NewNop().Sugar()).Decode(types.TopographyFile{Payload: tt.data})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseTable(t *testing.T) {
	rows, err := ParseTable("1,2 3\n4 5,6\n\n")
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 2, 3}, {4, 5, 6}}, rows)

	_, err = ParseTable("1,2\n3")
	assert.ErrorIs(t, err, types.ErrFormat)

	_, err = ParseTable("1,x")
	assert.ErrorIs(t, err, types.ErrFormat)
}
