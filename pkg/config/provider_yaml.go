package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// YAML-specific structs
type configYAML struct {
	Fitting        FittingYAML        `yaml:"fitting"`
	ReferenceTable ReferenceTableYAML `yaml:"reference_table"`
	Logging        LoggingYAML        `yaml:"logging,omitempty"`
}

type FittingYAML struct {
	Workers         int     `yaml:"workers,omitempty"`
	SideArcPosition float64 `yaml:"side_arc_position,omitempty"`
	Presentation    bool    `yaml:"presentation,omitempty"`
	Special         bool    `yaml:"special,omitempty"`
}

type ReferenceTableYAML struct {
	Source string `yaml:"source,omitempty"`
	Path   string `yaml:"path,omitempty"`
}

type LoggingYAML struct {
	Debug bool   `yaml:"debug,omitempty"`
	File  string `yaml:"file,omitempty"`
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}
	return ParseYAML(cfgFile)
}

// ParseYAML converts YAML configuration into ConfigData with defaults applied
func ParseYAML(data []byte) (*ConfigData, error) {
	var yamlConfig configYAML
	if err := yaml.Unmarshal(data, &yamlConfig); err != nil {
		return nil, err
	}

	// Convert to our internal format
	config := &ConfigData{
		Fitting: FittingData{
			Workers:         yamlConfig.Fitting.Workers,
			SideArcPosition: yamlConfig.Fitting.SideArcPosition,
			Presentation:    yamlConfig.Fitting.Presentation,
			Special:         yamlConfig.Fitting.Special,
		},
		ReferenceTable: ReferenceTableData{
			Source: yamlConfig.ReferenceTable.Source,
			Path:   yamlConfig.ReferenceTable.Path,
		},
		Logging: LoggingData{
			Debug: yamlConfig.Logging.Debug,
			File:  yamlConfig.Logging.File,
		},
	}
	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// GetFitting returns the fitting section
func (y *YAMLProvider) GetFitting() (*FittingData, error) {
	config, err := y.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &config.Fitting, nil
}

// GetReferenceTable returns the reference table section
func (y *YAMLProvider) GetReferenceTable() (*ReferenceTableData, error) {
	config, err := y.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &config.ReferenceTable, nil
}

// IsReadOnly returns true since YAML files are read-only through this interface
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}
