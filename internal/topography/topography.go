// Package topography selects the vendor decoder for a measurement file
package topography

import (
	"fmt"
	"os"

	"github.com/chrissnell/cornealfit/internal/topography/medmont"
	"github.com/chrissnell/cornealfit/internal/topography/seour"
	"github.com/chrissnell/cornealfit/internal/topography/tomey"
	"github.com/chrissnell/cornealfit/internal/types"
	"go.uber.org/zap"
)

// Decoder is implemented by every vendor decoder
type Decoder interface {
	Decode(file types.TopographyFile) (*types.Measurement, error)
	Vendor() types.Vendor
}

// NewDecoder creates the decoder for a vendor
func NewDecoder(vendor types.Vendor, logger *zap.SugaredLogger) (Decoder, error) {
	switch vendor {
	case types.VendorTomey:
		return tomey.NewDecoder(logger), nil
	case types.VendorMedmont:
		return medmont.NewDecoder(logger), nil
	case types.VendorSeour:
		return seour.NewDecoder(logger), nil
	default:
		return nil, fmt.Errorf("no decoder for vendor [%s]: %w", vendor, types.ErrUnknownVendor)
	}
}

// ReadFile loads a measurement file from disk. heightPath is only used for
// the Tomey CSV export and may be empty otherwise.
func ReadFile(vendor types.Vendor, path, heightPath string) (types.TopographyFile, error) {
	file := types.TopographyFile{Vendor: vendor, Path: path, HeightPath: heightPath}

	payload, err := os.ReadFile(path)
	if err != nil {
		return file, fmt.Errorf("failed to read measurement file: %w: %w", types.ErrFormat, err)
	}
	file.Payload = payload

	if heightPath != "" {
		if vendor != types.VendorTomey {
			return file, fmt.Errorf("separate height file is only supported for %s: %w", types.VendorTomey, types.ErrFormat)
		}
		if file.HeightPayload, err = os.ReadFile(heightPath); err != nil {
			return file, fmt.Errorf("failed to read height file: %w: %w", types.ErrFormat, err)
		}
	}
	return file, nil
}

// Decode decodes a file with the decoder for its vendor. A measurement with
// no valid sample is returned as is; fitting it fails later.
func Decode(file types.TopographyFile, logger *zap.SugaredLogger) (*types.Measurement, error) {
	d, err := NewDecoder(file.Vendor, logger)
	if err != nil {
		return nil, err
	}

	m, err := d.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("error decoding %s file [%s]: %w", file.Vendor, file.Path, err)
	}
	if m.Source == "" {
		m.Source = file.Path
	}
	if m.Empty() {
		logger.Warnf("measurement [%s] holds no valid elevation samples", file.Path)
	}
	return m, nil
}
