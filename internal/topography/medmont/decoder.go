// Package medmont decodes Medmont .mxf exam files. The exam embeds a 50x50
// Cartesian elevation matrix covering -6..6 mm on both axes.
package medmont

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/chrissnell/cornealfit/internal/types"
	"go.uber.org/zap"
)

const (
	// GridSize is the number of samples along each axis of the matrix
	GridSize = 50

	// GridExtent is the half-width (mm) of the sampled square
	GridExtent = 6.0

	// missingHeight is written by the instrument where no elevation was measured
	missingHeight = -5e+20
)

// Map names a matrix embedded in the exam
type Map string

const (
	MapHeight     Map = "CornealHeight"
	MapTangential Map = "TangentialCurvature"
	MapAxial      Map = "AxialCurvature"
)

const indicesElement = "KeratometricIndices7mm"

// Decoder turns Medmont exam files into measurements
type Decoder struct {
	logger *zap.SugaredLogger
}

// NewDecoder creates a Medmont decoder
func NewDecoder(logger *zap.SugaredLogger) *Decoder {
	return &Decoder{logger: logger}
}

// Vendor returns the vendor handled by this decoder
func (d *Decoder) Vendor() types.Vendor {
	return types.VendorMedmont
}

// Decode reads the keratometric indices and the corneal height matrix
func (d *Decoder) Decode(file types.TopographyFile) (*types.Measurement, error) {
	doc, err := readDocument(file)
	if err != nil {
		return nil, err
	}

	indices, err := d.readIndices(doc)
	if err != nil {
		return nil, fmt.Errorf("reading indices of %s: %w", file.Path, err)
	}

	grid, err := d.readMatrix(doc, MapHeight)
	if err != nil {
		return nil, fmt.Errorf("reading elevation of %s: %w", file.Path, err)
	}
	for _, row := range grid.Values {
		for i, v := range row {
			if v == missingHeight {
				row[i] = math.NaN()
			}
		}
	}

	return &types.Measurement{
		Vendor:  types.VendorMedmont,
		Source:  file.Path,
		Indices: indices,
		Grid:    grid,
	}, nil
}

// DecodeMap reads one of the curvature maps. Zero marks an unmeasured sample
// in these maps and is returned as NaN.
func (d *Decoder) DecodeMap(file types.TopographyFile, m Map) (*types.Grid, error) {
	doc, err := readDocument(file)
	if err != nil {
		return nil, err
	}
	grid, err := d.readMatrix(doc, m)
	if err != nil {
		return nil, fmt.Errorf("reading %s of %s: %w", m, file.Path, err)
	}
	if m == MapHeight {
		return grid, nil
	}
	for _, row := range grid.Values {
		for i, v := range row {
			if v == 0 {
				row[i] = math.NaN()
			}
		}
	}
	return grid, nil
}

func readDocument(file types.TopographyFile) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(file.Payload); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", types.ErrFormat, file.Path, err)
	}
	return doc, nil
}

// readIndices prefers the 7 mm indices block, which records axes in degrees.
// Older exports only carry loose FlatK/SteepK elements with axes in radians.
func (d *Decoder) readIndices(doc *etree.Document) (types.KeratometricIndices, error) {
	if el := doc.FindElement("//" + indicesElement); el != nil {
		return indicesFrom(el, false)
	}
	d.logger.Debugf("no %s element, falling back to loose keratometry elements", indicesElement)
	return indicesFrom(&doc.Element, true)
}

func indicesFrom(el *etree.Element, radians bool) (types.KeratometricIndices, error) {
	var idx types.KeratometricIndices
	fields := []struct {
		name  string
		dst   *float64
		angle bool
	}{
		{"FlatK", &idx.FlatK, false},
		{"FlatAngle", &idx.FlatAxis, true},
		{"SteepK", &idx.SteepK, false},
		{"SteepAngle", &idx.SteepAxis, true},
	}

	for _, f := range fields {
		child := el.FindElement(".//" + f.name)
		if child == nil {
			return idx, fmt.Errorf("%w: %s not found", types.ErrMissingBlock, f.name)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(child.Text()), 64)
		if err != nil {
			return idx, fmt.Errorf("%w: %s: %v", types.ErrFormat, f.name, err)
		}
		if f.angle && radians {
			v = v * 180 / math.Pi
		}
		*f.dst = v
	}
	return idx, nil
}

func (d *Decoder) readMatrix(doc *etree.Document, m Map) (*types.Grid, error) {
	el := doc.FindElement("//" + string(m) + "/Data")
	if el == nil {
		return nil, fmt.Errorf("%w: %s/Data not found", types.ErrMissingBlock, m)
	}

	rows := ParseMatrix(el.Text())
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: %s holds %d rows", types.ErrFormat, m, len(rows))
	}
	rows = rows[1 : len(rows)-1]

	values := make([][]float64, len(rows))
	for i, row := range rows {
		if len(row) == 0 {
			return nil, fmt.Errorf("%w: %s row %d is empty", types.ErrFormat, m, i)
		}
		values[i] = row[:len(row)-1]
	}

	if len(values) != GridSize {
		return nil, fmt.Errorf("%w: %s has %d rows, want %d", types.ErrFormat, m, len(values), GridSize)
	}
	for i, row := range values {
		if len(row) != GridSize {
			return nil, fmt.Errorf("%w: %s row %d has %d columns, want %d",
				types.ErrFormat, m, i, len(row), GridSize)
		}
	}
	d.logger.Debugf("read %dx%d %s matrix", GridSize, GridSize, m)

	return &types.Grid{Values: values, Extent: GridExtent}, nil
}

// ParseMatrix splits the text of a Data element into rows of values. Rows are
// newline separated and indented with tabs; values are separated by single
// spaces or commas. Empty and unparsable values become NaN and short rows are
// padded with NaN to the width of the widest row. The framing rows and the
// trailing column produced by the exporter are kept.
func ParseMatrix(text string) [][]float64 {
	lines := strings.Split(text, "\n")
	rows := make([][]float64, 0, len(lines))
	width := 0

	for _, line := range lines {
		line = strings.TrimRight(strings.TrimLeft(line, "\t"), "\r")
		fields := strings.Split(strings.ReplaceAll(line, " ", ","), ",")

		row := make([]float64, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				v = math.NaN()
			}
			row[i] = v
		}
		if len(row) > width {
			width = len(row)
		}
		rows = append(rows, row)
	}

	for i, row := range rows {
		for len(row) < width {
			row = append(row, math.NaN())
		}
		rows[i] = row
	}
	return rows
}
