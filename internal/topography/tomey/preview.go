package tomey

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"

	"github.com/chrissnell/cornealfit/internal/types"
	"golang.org/x/image/bmp"
)

// PreviewBytes returns the raw BMP file embedded in the video block
func PreviewBytes(data []byte) ([]byte, error) {
	blocks, err := ReadBlocks(data)
	if err != nil {
		return nil, err
	}
	b, ok := blocks[BlockPreview]
	if !ok {
		return nil, fmt.Errorf("%w: %s block not found", types.ErrMissingBlock, BlockPreview)
	}
	return bitmap(data, b)
}

func bitmap(data []byte, b Block) ([]byte, error) {
	start := b.DataStart()
	if start+6 > len(data) {
		return nil, fmt.Errorf("%w: truncated bitmap header", types.ErrFormat)
	}
	if string(data[start:start+2]) != "BM" {
		return nil, fmt.Errorf("%w: preview block does not hold a bitmap", types.ErrFormat)
	}

	size := int(binary.LittleEndian.Uint32(data[start+2:]))
	if start+size > len(data) {
		return nil, fmt.Errorf("%w: bitmap declares %d bytes, only %d available",
			types.ErrFormat, size, len(data)-start)
	}
	return data[start : start+size], nil
}

// Preview decodes the embedded placido preview image
func Preview(data []byte) (image.Image, error) {
	raw, err := PreviewBytes(data)
	if err != nil {
		return nil, err
	}
	return decodeBitmap(raw)
}

func decodeBitmap(raw []byte) (image.Image, error) {
	img, err := bmp.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding preview bitmap: %v", types.ErrFormat, err)
	}
	return img, nil
}
