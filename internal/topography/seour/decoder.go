// Package seour decodes SW6000 exam exports, which carry a polar table of
// one row per degree with parallel radius and height values.
package seour

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/chrissnell/cornealfit/internal/types"
	"go.uber.org/zap"
)

// Rows is the number of angular samples, one per degree
const Rows = 360

// Sentinels for unmeasured samples
const (
	missingHeight = -100
	missingRadius = 0
)

const (
	radiusPath  = "//RadiusMillimeter/Data"
	heightPath  = "//CornealHeight/Data"
	testPath    = "//SW6000PatientTest"
	indicesPath = "Data/KeratometricIndices3mm"
)

// Decoder turns SW6000 exam exports into measurements
type Decoder struct {
	logger *zap.SugaredLogger
}

// NewDecoder creates a Seour decoder
func NewDecoder(logger *zap.SugaredLogger) *Decoder {
	return &Decoder{logger: logger}
}

// Vendor returns the vendor handled by this decoder
func (d *Decoder) Vendor() types.Vendor {
	return types.VendorSeour
}

// Decode reads the polar radius/height tables and the 3 mm keratometric
// indices.
func (d *Decoder) Decode(file types.TopographyFile) (*types.Measurement, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(file.Payload); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", types.ErrFormat, file.Path, err)
	}

	indices, err := d.readIndices(doc)
	if err != nil {
		return nil, fmt.Errorf("reading indices of %s: %w", file.Path, err)
	}

	radius, err := readTable(doc, radiusPath)
	if err != nil {
		return nil, fmt.Errorf("reading radius table of %s: %w", file.Path, err)
	}
	height, err := readTable(doc, heightPath)
	if err != nil {
		return nil, fmt.Errorf("reading height table of %s: %w", file.Path, err)
	}
	if len(radius[0]) != len(height[0]) {
		return nil, fmt.Errorf("%w: radius table has %d columns, height table %d",
			types.ErrFormat, len(radius[0]), len(height[0]))
	}

	missing := 0
	for i := range radius {
		for j := range radius[i] {
			if radius[i][j] == missingRadius || height[i][j] == missingHeight {
				radius[i][j] = math.NaN()
				height[i][j] = math.NaN()
				missing++
			}
		}
	}
	d.logger.Debugf("%s: %d of %d samples unmeasured", file.Path, missing, Rows*len(radius[0]))

	return &types.Measurement{
		Vendor:  types.VendorSeour,
		Source:  file.Path,
		Indices: indices,
		Polar:   &types.PolarTable{Radius: radius, Height: height},
	}, nil
}

// readIndices reads the indices of the last patient test in the export
func (d *Decoder) readIndices(doc *etree.Document) (types.KeratometricIndices, error) {
	var idx types.KeratometricIndices

	tests := doc.FindElements(testPath)
	if len(tests) == 0 {
		return idx, fmt.Errorf("%w: no SW6000PatientTest element", types.ErrMissingBlock)
	}
	if len(tests) > 1 {
		d.logger.Debugf("export holds %d patient tests, using the last", len(tests))
	}

	el := tests[len(tests)-1].FindElement(indicesPath)
	if el == nil {
		return idx, fmt.Errorf("%w: %s not found", types.ErrMissingBlock, indicesPath)
	}

	fields := []struct {
		name string
		dst  *float64
	}{
		{"FlatK", &idx.FlatK},
		{"FlatAngle", &idx.FlatAxis},
		{"SteepK", &idx.SteepK},
		{"SteepAngle", &idx.SteepAxis},
	}
	for _, f := range fields {
		child := el.SelectElement(f.name)
		if child == nil {
			return idx, fmt.Errorf("%w: %s not found", types.ErrMissingBlock, f.name)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(child.Text()), 64)
		if err != nil {
			return idx, fmt.Errorf("%w: %s: %v", types.ErrFormat, f.name, err)
		}
		*f.dst = v
	}
	return idx, nil
}

func readTable(doc *etree.Document, path string) ([][]float64, error) {
	el := doc.FindElement(path)
	if el == nil {
		return nil, fmt.Errorf("%w: %s not found", types.ErrMissingBlock, path)
	}
	rows, err := ParseTable(el.Text())
	if err != nil {
		return nil, err
	}
	if len(rows) != Rows {
		return nil, fmt.Errorf("%w: %d rows, want %d", types.ErrFormat, len(rows), Rows)
	}
	return rows, nil
}

// ParseTable parses newline separated rows of comma or space separated
// values. Trailing blank lines are ignored; every remaining row must parse and
// have the same width.
func ParseTable(text string) ([][]float64, error) {
	lines := strings.Split(strings.TrimRight(text, " \t\r\n"), "\n")
	rows := make([][]float64, 0, len(lines))

	for i, line := range lines {
		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\r'
		})
		if len(fields) == 0 {
			if i == 0 {
				continue
			}
			return nil, fmt.Errorf("%w: row %d is empty", types.ErrFormat, i)
		}

		row := make([]float64, len(fields))
		for j, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d column %d: %v", types.ErrFormat, i, j, err)
			}
			row[j] = v
		}
		if len(rows) > 0 && len(row) != len(rows[0]) {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", types.ErrFormat, i, len(row), len(rows[0]))
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty table", types.ErrFormat)
	}
	return rows, nil
}
