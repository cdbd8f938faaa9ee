package tomey

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/chrissnell/cornealfit/internal/types"
)

// Indicator names stored in the statistics block
const (
	StatSimKSteep      = "SimK1/ks"
	StatSimKFlat       = "SimK2/kf"
	StatMinK           = "MinK"
	StatCyl            = "Cyl"
	StatSimKSteepAxis  = "SimK1/ks Ang"
	StatSimKFlatAxis   = "SimK2/kf Ang"
	StatMinKAxis       = "MinK Ang."
	StatSurfaceReg     = "SRI"
	StatSurfaceAsym    = "SAI"
	statValueByteCount = 4
)

// statOffsets maps each indicator to its byte offset from the block's payload
var statOffsets = []struct {
	name   string
	offset int
}{
	{StatSimKSteep, 0},
	{StatSimKFlat, 4},
	{StatMinK, 8},
	{StatCyl, 12},
	{StatSimKSteepAxis, 16},
	{StatSimKFlatAxis, 20},
	{StatMinKAxis, 24},
	{StatSurfaceReg, 32},
	{StatSurfaceAsym, 36},
}

// ReadStats reads every indicator of the statistics block as a little-endian
// float32.
func ReadStats(data []byte, b Block) (map[string]float64, error) {
	stats := make(map[string]float64, len(statOffsets))
	for _, s := range statOffsets {
		pos := b.DataStart() + s.offset
		if pos+statValueByteCount > b.End() {
			return nil, fmt.Errorf("%w: statistics block too short for %s", types.ErrFormat, s.name)
		}
		bits := binary.LittleEndian.Uint32(data[pos:])
		stats[s.name] = float64(math.Float32frombits(bits))
	}
	return stats, nil
}

// IndicesFromStats maps the simulated K indicators onto keratometric indices
func IndicesFromStats(stats map[string]float64) types.KeratometricIndices {
	return types.KeratometricIndices{
		FlatK:     stats[StatSimKFlat],
		FlatAxis:  stats[StatSimKFlatAxis],
		SteepK:    stats[StatSimKSteep],
		SteepAxis: stats[StatSimKSteepAxis],
	}
}
