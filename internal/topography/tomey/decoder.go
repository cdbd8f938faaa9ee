package tomey

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"

	"github.com/chrissnell/cornealfit/internal/types"
	"go.uber.org/zap"
)

// Matrix geometry of the radius and height blocks
const (
	Rings         = 34
	AngleSamples  = 256
	sampleBytes   = 2
	radiusDivisor = 1000
	heightDivisor = 10000
)

// invalidThreshold marks exported values that the instrument uses for "no data"
const invalidThreshold = -1e10

// Decoder turns Tomey exam files into measurements
type Decoder struct {
	logger *zap.SugaredLogger
}

// NewDecoder creates a Tomey decoder
func NewDecoder(logger *zap.SugaredLogger) *Decoder {
	return &Decoder{logger: logger}
}

// Vendor returns the vendor handled by this decoder
func (d *Decoder) Vendor() types.Vendor {
	return types.VendorTomey
}

// Decode decodes a binary exam file, or the CSV export pair when the file
// carries a separate height table.
func (d *Decoder) Decode(file types.TopographyFile) (*types.Measurement, error) {
	if file.HeightPayload != nil {
		return d.DecodeExport(file.Payload, file.HeightPayload, types.KeratometricIndices{})
	}

	blocks, err := ReadBlocks(file.Payload)
	if err != nil {
		return nil, fmt.Errorf("reading block chain of %s: %w", file.Path, err)
	}
	for id, b := range blocks {
		d.logger.Debugf("tomey block %s: %v", id, b)
	}

	for _, id := range []Identity{BlockRadius, BlockHeight, BlockStats} {
		if _, ok := blocks[id]; !ok {
			return nil, fmt.Errorf("%w: %s block not found in %s", types.ErrMissingBlock, id, file.Path)
		}
	}
	preview := d.readPreview(file, blocks)

	radius, err := readMatrix(file.Payload, blocks[BlockRadius], radiusDivisor)
	if err != nil {
		return nil, err
	}
	height, err := readMatrix(file.Payload, blocks[BlockHeight], heightDivisor)
	if err != nil {
		return nil, err
	}

	stats, err := ReadStats(file.Payload, blocks[BlockStats])
	if err != nil {
		return nil, err
	}

	return &types.Measurement{
		Vendor:  types.VendorTomey,
		Source:  file.Path,
		Indices: IndicesFromStats(stats),
		Polar:   polarTable(radius, height),
		Stats:   stats,
		Preview: preview,
	}, nil
}

// readPreview decodes the placido preview. It is informational only, so a
// missing or broken bitmap is logged and skipped.
func (d *Decoder) readPreview(file types.TopographyFile, blocks map[Identity]Block) image.Image {
	b, ok := blocks[BlockPreview]
	if !ok {
		d.logger.Warnf("no preview image block in %s", file.Path)
		return nil
	}
	raw, err := bitmap(file.Payload, b)
	if err == nil {
		var img image.Image
		if img, err = decodeBitmap(raw); err == nil {
			d.logger.Debugf("%s: preview %v", file.Path, img.Bounds().Size())
			return img
		}
	}
	d.logger.Warnf("skipping preview image of %s: %v", file.Path, err)
	return nil
}

// readMatrix reads the column-major int16 payload of a radius or height
// block. The result is indexed [ring][angle sample].
func readMatrix(data []byte, b Block, divisor float64) ([][]float64, error) {
	need := Rings * AngleSamples * sampleBytes
	start := b.DataStart()
	if start+need > b.End() {
		return nil, fmt.Errorf("%w: %s block holds %d payload bytes, need %d",
			types.ErrFormat, b.ID, b.End()-start, need)
	}

	out := make([][]float64, Rings)
	pos := start
	for c := 0; c < Rings; c++ {
		out[c] = make([]float64, AngleSamples)
		for j := 0; j < AngleSamples; j++ {
			raw := int16(binary.LittleEndian.Uint16(data[pos:]))
			out[c][j] = float64(raw) / divisor
			pos += sampleBytes
		}
	}
	return out, nil
}

// polarTable transposes [ring][angle] matrices into angle rows and applies
// the missing-value rules: extreme negatives are missing, and so is any
// non-positive radius.
func polarTable(radius, height [][]float64) *types.PolarTable {
	rows := len(radius[0])
	t := &types.PolarTable{
		Radius: make([][]float64, rows),
		Height: make([][]float64, rows),
	}
	for j := 0; j < rows; j++ {
		t.Radius[j] = make([]float64, len(radius))
		t.Height[j] = make([]float64, len(radius))
		for c := range radius {
			r, h := radius[c][j], height[c][j]
			if r < invalidThreshold || r <= 0 {
				r = math.NaN()
			}
			if h < invalidThreshold {
				h = math.NaN()
			}
			t.Radius[j][c] = r
			t.Height[j][c] = h
		}
	}
	return t
}
