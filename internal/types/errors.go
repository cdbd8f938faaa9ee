package types

import "errors"

// Failure classes shared by the decoders, height fields, optimizer and
// derivation steps. Callers test for them with errors.Is.
var (
	// ErrFormat reports a malformed, truncated or unsupported file
	ErrFormat = errors.New("malformed topography file")

	// ErrMissingBlock reports that a required data section is absent
	ErrMissingBlock = errors.New("required data section missing")

	// ErrInsufficientData reports that no candidate fit had any valid sample
	ErrInsufficientData = errors.New("insufficient data")

	// ErrOutOfRange reports a query outside the sampled support
	ErrOutOfRange = errors.New("query outside sampled support")

	// ErrInvalidGeometry reports lens diameters that cannot produce valid zones
	ErrInvalidGeometry = errors.New("invalid lens geometry")

	// ErrUnknownVendor reports an unsupported vendor tag
	ErrUnknownVendor = errors.New("unknown vendor")
)
