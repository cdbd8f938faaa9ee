package types

import (
	"fmt"
	"strings"
)

// Vendor identifies the topographer that produced a measurement file
type Vendor string

const (
	// VendorTomey is the block-structured binary format (and its CSV export pair)
	VendorTomey Vendor = "tomey"
	// VendorMedmont is the XML format carrying a Cartesian height matrix
	VendorMedmont Vendor = "medmont"
	// VendorSeour is the XML format carrying a polar radius/height table
	VendorSeour Vendor = "seour"
)

// ParseVendor converts a configuration string into a Vendor
func ParseVendor(s string) (Vendor, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tomey", "vendora", "a":
		return VendorTomey, nil
	case "medmont", "medment", "vendorb", "b":
		return VendorMedmont, nil
	case "seour", "sw6000", "vendorc", "c":
		return VendorSeour, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownVendor, s)
	}
}

func (v Vendor) String() string {
	return string(v)
}
