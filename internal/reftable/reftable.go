// Package reftable holds the base-curve reference table: the manufacturable
// base-arc radii per lens family and fit level, with their asphericities.
package reftable

import (
	"fmt"
	"math"
	"strings"

	"github.com/chrissnell/cornealfit/internal/types"
)

// Fit levels of a lens family's reference series
const (
	LevelPrimary   = 1
	LevelSecondary = 2
)

// Provider supplies table entries in their significant order
type Provider interface {
	LoadEntries() ([]types.ReferenceEntry, error)
}

// Table is an ordered, read-only list of reference entries. It is safe for
// concurrent use.
type Table struct {
	entries []types.ReferenceEntry
}

// New builds a table from entries, keeping their order
func New(entries []types.ReferenceEntry) *Table {
	return &Table{entries: append([]types.ReferenceEntry(nil), entries...)}
}

// Load builds a table from a provider
func Load(p Provider) (*Table, error) {
	entries, err := p.LoadEntries()
	if err != nil {
		return nil, fmt.Errorf("failed to load reference entries: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("reference table is empty")
	}
	for i, e := range entries {
		if e.Family == "" || e.Radius <= 0 || math.IsNaN(e.Radius) {
			return nil, fmt.Errorf("reference entry %d (%+v) is invalid", i, e)
		}
	}
	return New(entries), nil
}

// Len returns the number of entries
func (t *Table) Len() int {
	return len(t.entries)
}

// Entries returns a copy of every entry in table order
func (t *Table) Entries() []types.ReferenceEntry {
	return append([]types.ReferenceEntry(nil), t.entries...)
}

// Series returns the entries of one family and level in table order. Family
// names are matched case-insensitively.
func (t *Table) Series(family string, level int) []types.ReferenceEntry {
	var out []types.ReferenceEntry
	for _, e := range t.entries {
		if strings.EqualFold(e.Family, family) && e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// Nearest returns the entry of family and level whose radius is closest to
// radius. Of equally close entries the first in table order wins.
func (t *Table) Nearest(family string, level int, radius float64) (types.ReferenceEntry, error) {
	var (
		best  types.ReferenceEntry
		bestD = math.Inf(1)
		found bool
	)
	for _, e := range t.entries {
		if !strings.EqualFold(e.Family, family) || e.Level != level {
			continue
		}
		if d := math.Abs(e.Radius - radius); d < bestD {
			best, bestD, found = e, d, true
		}
	}
	if !found {
		return best, fmt.Errorf("no reference series for family [%s] level %d", family, level)
	}
	return best, nil
}

// Families returns the distinct family names in order of first appearance
func (t *Table) Families() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range t.entries {
		if !seen[e.Family] {
			seen[e.Family] = true
			out = append(out, e.Family)
		}
	}
	return out
}
