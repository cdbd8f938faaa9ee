package reftable

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/chrissnell/cornealfit/internal/types"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

// Series is one run of radii sharing a family, level and asphericity, as
// written in the YAML seed.
type Series struct {
	Family      string    `yaml:"family"`
	Level       int       `yaml:"level"`
	Asphericity float64   `yaml:"asphericity"`
	Radii       []float64 `yaml:"radii"`
}

type seedDocument struct {
	Series []Series `yaml:"series"`
}

// YAMLProvider reads entries from a YAML seed file. An empty path selects the
// seed compiled into the binary.
type YAMLProvider struct {
	path string
}

// NewYAMLProvider creates a provider for the seed at path
func NewYAMLProvider(path string) *YAMLProvider {
	return &YAMLProvider{path: path}
}

// NewEmbeddedProvider creates a provider for the built-in seed
func NewEmbeddedProvider() *YAMLProvider {
	return &YAMLProvider{}
}

// LoadEntries parses the seed and flattens its series in order
func (p *YAMLProvider) LoadEntries() ([]types.ReferenceEntry, error) {
	data := seedYAML
	if p.path != "" {
		var err error
		data, err = os.ReadFile(p.path)
		if err != nil {
			return nil, fmt.Errorf("failed to read reference seed: %w", err)
		}
	}
	return ParseSeed(data)
}

// ParseSeed parses a YAML seed document into entries in document order
func ParseSeed(data []byte) ([]types.ReferenceEntry, error) {
	var doc seedDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse reference seed: %w", err)
	}

	var entries []types.ReferenceEntry
	for _, s := range doc.Series {
		for _, r := range s.Radii {
			entries = append(entries, types.ReferenceEntry{
				Family:      s.Family,
				Level:       s.Level,
				Radius:      r,
				Asphericity: s.Asphericity,
			})
		}
	}
	return entries, nil
}

// MarshalSeed groups consecutive entries that share family, level and
// asphericity back into series.
func MarshalSeed(entries []types.ReferenceEntry) ([]byte, error) {
	var doc seedDocument
	for _, e := range entries {
		n := len(doc.Series)
		if n > 0 {
			last := &doc.Series[n-1]
			if last.Family == e.Family && last.Level == e.Level && last.Asphericity == e.Asphericity {
				last.Radii = append(last.Radii, e.Radius)
				continue
			}
		}
		doc.Series = append(doc.Series, Series{
			Family:      e.Family,
			Level:       e.Level,
			Asphericity: e.Asphericity,
			Radii:       []float64{e.Radius},
		})
	}
	return yaml.Marshal(&doc)
}
