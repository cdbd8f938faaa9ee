package medmont

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

// matrixText renders a matrix the way the exporter does: a leading newline,
// tab-indented space-separated rows with a trailing space, and a closing
// indentation line.
func matrixText(n int, f func(row, col int) string) string {
	var sb strings.Builder
	sb.WriteString("\n")
	for r := 0; r < n; r++ {
		sb.WriteString("\t\t\t\t\t")
		for c := 0; c < n; c++ {
			sb.WriteString(f(r, c))
			sb.WriteString(" ")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\t\t\t\t")
	return sb.String()
}

func heightValue(row, col int) string {
	switch {
	case row == 0 && col == 0:
		return "-5e+20"
	case row == 1 && col == 1:
		return ""
	}
	return fmt.Sprintf("%.4f", 0.01*float64(row)+0.001*float64(col))
}

func exam(indices, height string) []byte {
	return []byte(`<?xml version="1.0" encoding="utf-8"?>
<MxfExam>
  <Exam>
    ` + indices + `
    <CornealHeight>
      <Units>mm</Units>
      <Data>` + height + `</Data>
    </CornealHeight>
    <TangentialCurvature>
      <Data>` + matrixText(GridSize, func(r, c int) string {
		if r == c {
			return "0"
		}
		return "43.5"
	}) + `</Data>
    </TangentialCurvature>
  </Exam>
</MxfExam>`)
}

const indices7mm = `<KeratometricIndices7mm>
      <FlatK>42.75</FlatK>
      <FlatAngle>12</FlatAngle>
      <SteepK>44.00</SteepK>
      <SteepAngle>102</SteepAngle>
    </KeratometricIndices7mm>`

func newTestDecoder() *Decoder {
	return NewDecoder(zap.NewNop().Sugar())
}

func TestDecode(t *testing.T) {
	data := exam(indices7mm, matrixText(GridSize, heightValue))

	m, err := newTestDecoder().Decode(types.TopographyFile{Path: "exam.mxf", Payload: data})
	require.NoError(t, err)
	require.NotNil(t, m.Grid)

	assert.Equal(t, types.KeratometricIndices{FlatK: 42.75, FlatAxis: 12, SteepK: 44, SteepAxis: 102}, m.Indices)
	assert.Equal(t, GridSize, m.Grid.Size())
	assert.Equal(t, GridExtent, m.Grid.Extent)

	assert.True(t, math.IsNaN(m.Grid.Values[0][0]), "sentinel height should be NaN")
	assert.True(t, math.IsNaN(m.Grid.Values[1][1]), "empty field should be NaN")
	assert.InDelta(t, 0.01*7+0.001*9, m.Grid.Values[7][9], 1e-12)
	assert.InDelta(t, 0.01*49+0.001*49, m.Grid.Values[49][49], 1e-12)
}

func TestDecodeRadianFallback(t *testing.T) {
	loose := `<Keratometry>
      <FlatK>41.5</FlatK>
      <FlatAngle>1.5707963267948966</FlatAngle>
      <SteepK>42.5</SteepK>
      <SteepAngle>0</SteepAngle>
    </Keratometry>`
	data := exam(loose, matrixText(GridSize, heightValue))

	m, err := newTestDecoder().Decode(types.TopographyFile{Payload: data})
	require.NoError(t, err)
	assert.InDelta(t, 90, m.Indices.FlatAxis, 1e-9)
	assert.Equal(t, 41.5, m.Indices.FlatK)
	assert.Equal(t, 42.5, m.Indices.SteepK)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"not xml", []byte("<MxfExam><Exam>"), types.ErrFormat},
		{"no indices", exam("", matrixText(GridSize, heightValue)), types.ErrMissingBlock},
		{"wrong size", exam(indices7mm, matrixText(GridSize-1, heightValue)), types.ErrFormat},
		{
			"no height",
			[]byte(`<MxfExam>` + indices7mm + `</MxfExam>`),
			types.ErrMissingBlock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestDecoder().Decode(types.TopographyFile{Payload: tt.data})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDecodeMap(t *testing.T) {
	data := exam(indices7mm, matrixText(GridSize, heightValue))

	g, err := newTestDecoder().DecodeMap(types.TopographyFile{Payload: data}, MapTangential)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(g.Values[3][3]))
	assert.Equal(t, 43.5, g.Values[3][4])

	_, err = newTestDecoder().DecodeMap(types.TopographyFile{Payload: data}, MapAxial)
	assert.ErrorIs(t, err, types.ErrMissingBlock)
}

func TestParseMatrixPadsRaggedRows(t *testing.T) {
	rows := ParseMatrix("1 2 3\n4,5\nx")
	require.Len(t, rows, 3)
	for _, r := range rows {
		assert.Len(t, r, 3)
	}
	assert.Equal(t, 5.0, rows[1][1])
	assert.True(t, math.IsNaN(rows[1][2]))
	assert.True(t, math.IsNaN(rows[2][0]))
}
