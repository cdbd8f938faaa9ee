package config

import (
	"fmt"
	"runtime"
)

// Reference table sources
const (
	ReferenceEmbedded = "embedded"
	ReferenceYAML     = "yaml"
	ReferenceSQLite   = "sqlite"
)

// Default fitting settings
const (
	DefaultSideArcPosition = 8.8
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetFitting() (*FittingData, error)
	GetReferenceTable() (*ReferenceTableData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Fitting        FittingData        `json:"fitting"`
	ReferenceTable ReferenceTableData `json:"reference_table"`
	Logging        LoggingData        `json:"logging,omitempty"`
}

// FittingData holds defaults applied to every fit job
type FittingData struct {
	Workers         int     `json:"workers,omitempty"`
	SideArcPosition float64 `json:"side_arc_position,omitempty"`
	Presentation    bool    `json:"presentation,omitempty"`
	Special         bool    `json:"special,omitempty"`
}

// ReferenceTableData selects where the base-curve reference table comes from
type ReferenceTableData struct {
	Source string `json:"source,omitempty"`
	Path   string `json:"path,omitempty"`
}

// LoggingData configures the optional rotated log file
type LoggingData struct {
	Debug bool   `json:"debug,omitempty"`
	File  string `json:"file,omitempty"`
}

// ApplyDefaults fills unset settings
func (c *ConfigData) ApplyDefaults() {
	if c.Fitting.Workers <= 0 {
		c.Fitting.Workers = runtime.NumCPU()
	}
	if c.Fitting.SideArcPosition == 0 {
		c.Fitting.SideArcPosition = DefaultSideArcPosition
	}
	if c.ReferenceTable.Source == "" {
		c.ReferenceTable.Source = ReferenceEmbedded
	}
}

// Validate reports settings that cannot be used
func (c *ConfigData) Validate() error {
	switch c.ReferenceTable.Source {
	case ReferenceEmbedded:
	case ReferenceYAML, ReferenceSQLite:
		if c.ReferenceTable.Path == "" {
			return fmt.Errorf("reference table source [%s] requires a path", c.ReferenceTable.Source)
		}
	default:
		return fmt.Errorf("unknown reference table source [%s]", c.ReferenceTable.Source)
	}
	return nil
}

// Default returns a configuration with every default applied
func Default() *ConfigData {
	c := &ConfigData{}
	c.ApplyDefaults()
	return c
}
