package tomey

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chrissnell/cornealfit/internal/types"
)

// DecodeExport decodes the radius and height tables exported by the Tomey
// software (256 angle rows of 34 comma-separated ring values each). The
// export carries no keratometric indices, so the caller supplies them.
func (d *Decoder) DecodeExport(radiusCSV, heightCSV []byte, indices types.KeratometricIndices) (*types.Measurement, error) {
	radius, err := d.parseExport(radiusCSV, "radius")
	if err != nil {
		return nil, err
	}
	height, err := d.parseExport(heightCSV, "height")
	if err != nil {
		return nil, err
	}

	return &types.Measurement{
		Vendor:  types.VendorTomey,
		Indices: indices,
		Polar:   polarTable(transpose(radius), transpose(height)),
	}, nil
}

// parseExport reads one export table. Blank lines are skipped and so are
// lines that do not parse, which the exporter emits for some firmware.
func (d *Decoder) parseExport(data []byte, name string) ([][]float64, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	var rows [][]float64
	line := 0
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			d.logger.Warnf("skipping unreadable %s export line %d: %v", name, line, err)
			continue
		}

		row, err := parseRecord(record)
		if err != nil {
			d.logger.Warnf("skipping %s export line %d: %v", name, line, err)
			continue
		}
		if row != nil {
			rows = append(rows, row)
		}
	}

	if len(rows) != AngleSamples {
		return nil, fmt.Errorf("%w: %s export has %d rows, want %d", types.ErrFormat, name, len(rows), AngleSamples)
	}
	for i, row := range rows {
		if len(row) != Rings {
			return nil, fmt.Errorf("%w: %s export row %d has %d values, want %d",
				types.ErrFormat, name, i, len(row), Rings)
		}
	}
	return rows, nil
}

// parseRecord converts a CSV record, ignoring embedded spaces. A record with
// nothing but whitespace yields a nil row.
func parseRecord(record []string) ([]float64, error) {
	if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
		return nil, nil
	}
	row := make([]float64, len(record))
	for i, field := range record {
		v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(field), " ", ""), 64)
		if err != nil {
			return nil, err
		}
		row[i] = v
	}
	return row, nil
}

// transpose converts [angle][ring] rows into [ring][angle]
func transpose(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows[0]))
	for c := range out {
		out[c] = make([]float64, len(rows))
		for j := range rows {
			out[c][j] = rows[j][c]
		}
	}
	return out
}
