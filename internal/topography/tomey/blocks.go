// Package tomey decodes Tomey topographer measurements: the block-structured
// binary exam file and the radius/height CSV export pair.
package tomey

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/chrissnell/cornealfit/internal/types"
)

// Layout of the binary exam file
const (
	FileHeaderLength  = 128
	BlockHeaderLength = 64
	blockFieldsLength = 14
	remarkPadding     = 1
	remarkLength      = 16
)

// Identity names a block by the data it carries
type Identity string

const (
	BlockRadius  Identity = "RAD"
	BlockHeight  Identity = "HIT"
	BlockStats   Identity = "STA"
	BlockPreview Identity = "BMP"
)

// remarkMarkers are matched in order against a block's remark text. The code
// field is not stable across firmware revisions, so identity comes from here.
var remarkMarkers = []struct {
	id     Identity
	marker string
}{
	{BlockRadius, "Radi"},
	{BlockHeight, "Height"},
	{BlockStats, "Stat"},
	{BlockPreview, "Video   "},
}

// Block is one parsed block header
type Block struct {
	ID           Identity
	Code         int16
	Offset       int
	Next         int
	Previous     int
	StoredOffset int
	Length       int
	Remark       string
}

// DataStart returns the absolute offset of the block's payload
func (b Block) DataStart() int {
	return b.Offset + BlockHeaderLength
}

// End returns the absolute offset one past the block
func (b Block) End() int {
	return b.Offset + b.Length
}

func (b Block) String() string {
	return fmt.Sprintf("%s code=%d offset=%d next=%d prev=%d length=%d remark=%q",
		b.ID, b.Code, b.Offset, b.Next, b.Previous, b.Length, b.Remark)
}

// ReadBlocks walks the block chain that follows the file header and returns
// the recognised blocks keyed by identity. Walking stops once every identity
// has been seen or the chain reaches the end of the file. Unrecognised blocks
// are skipped.
func ReadBlocks(data []byte) (map[Identity]Block, error) {
	if len(data) < FileHeaderLength {
		return nil, fmt.Errorf("%w: file is %d bytes, shorter than the %d byte header",
			types.ErrFormat, len(data), FileHeaderLength)
	}

	blocks := make(map[Identity]Block, len(remarkMarkers))
	offset := FileHeaderLength

	for len(blocks) < len(remarkMarkers) && offset < len(data) {
		block, err := readBlockHeader(data, offset)
		if err != nil {
			return nil, err
		}

		if block.ID != "" {
			if _, seen := blocks[block.ID]; !seen {
				blocks[block.ID] = block
			}
		}
		offset += block.Length
	}

	return blocks, nil
}

func readBlockHeader(data []byte, offset int) (Block, error) {
	end := offset + blockFieldsLength + remarkPadding + remarkLength
	if end > len(data) {
		return Block{}, fmt.Errorf("%w: truncated block header at offset %d", types.ErrFormat, offset)
	}

	b := Block{
		Code:         int16(binary.LittleEndian.Uint16(data[offset:])),
		Next:         int(binary.LittleEndian.Uint32(data[offset+2:])),
		Previous:     int(binary.LittleEndian.Uint32(data[offset+6:])),
		StoredOffset: int(binary.LittleEndian.Uint32(data[offset+10:])),
		Offset:       offset,
	}
	b.Length = b.Next - offset

	if b.Length <= 0 {
		return Block{}, fmt.Errorf("%w: block at offset %d points back to %d", types.ErrFormat, offset, b.Next)
	}
	if b.Next > len(data) {
		return Block{}, fmt.Errorf("%w: block at offset %d declares %d bytes but only %d remain",
			types.ErrFormat, offset, b.Length, len(data)-offset)
	}

	remarkStart := offset + blockFieldsLength + remarkPadding
	b.Remark = strings.ToValidUTF8(string(data[remarkStart:remarkStart+remarkLength]), "")
	b.ID = identify(b.Remark)

	return b, nil
}

func identify(remark string) Identity {
	for _, m := range remarkMarkers {
		if strings.Contains(remark, m.marker) {
			return m.id
		}
	}
	return ""
}
