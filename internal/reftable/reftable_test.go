package reftable

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/chrissnell/cornealfit/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedSeed(t *testing.T) {
	table, err := Load(NewEmbeddedProvider())
	require.NoError(t, err)

	assert.Equal(t, 495, table.Len())
	assert.Equal(t, []string{"A", "PRO", "s", "A++", "A+++"}, table.Families())

	level1 := table.Series("A", LevelPrimary)
	require.NotEmpty(t, level1)
	assert.Equal(t, 7.5, level1[0].Radius)
	assert.Equal(t, 0.23, level1[0].Asphericity)

	assert.NotEmpty(t, table.Series("a+++", LevelSecondary), "family lookup ignores case")
}

func TestNearest(t *testing.T) {
	table := New([]types.ReferenceEntry{
		{Family: "A", Level: 1, Radius: 7.5, Asphericity: 0.1},
		{Family: "A", Level: 1, Radius: 8.5, Asphericity: 0.2},
		{Family: "A", Level: 2, Radius: 8.0, Asphericity: -1.5},
		{Family: "s", Level: 1, Radius: 8.0, Asphericity: 0},
	})

	tests := []struct {
		name   string
		family string
		level  int
		radius float64
		want   float64
		asph   float64
	}{
		{"below range", "A", 1, 7.0, 7.5, 0.1},
		{"above range", "A", 1, 9.9, 8.5, 0.2},
		{"tie keeps first", "A", 1, 8.0, 7.5, 0.1},
		{"closer to second", "A", 1, 8.25, 8.5, 0.2},
		{"level filter", "A", 2, 7.5, 8.0, -1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := table.Nearest(tt.family, tt.level, tt.radius)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Radius)
			assert.Equal(t, tt.asph, got.Asphericity)
		})
	}

	_, err := table.Nearest("PRO", 1, 8)
	assert.Error(t, err)
}

func TestSeedRoundTripKeepsOrder(t *testing.T) {
	entries, err := NewEmbeddedProvider().LoadEntries()
	require.NoError(t, err)

	data, err := MarshalSeed(entries)
	require.NoError(t, err)

	again, err := ParseSeed(data)
	require.NoError(t, err)
	assert.Equal(t, entries, again)
}

func TestSQLiteProvider(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "reftable.db")

	p, err := NewSQLiteProvider(dbPath)
	require.NoError(t, err)
	defer p.Close()

	seed, err := NewEmbeddedProvider().LoadEntries()
	require.NoError(t, err)
	require.NoError(t, p.Replace(ctx, seed))

	n, err := p.Count()
	require.NoError(t, err)
	assert.Equal(t, len(seed), n)

	table, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, seed, table.Entries())

	// Replacing again must not duplicate rows
	require.NoError(t, p.Replace(ctx, seed[:10]))
	n, err = p.Count()
	require.NoError(t, err)
	assert.Equal(t, 10, n)
}

func TestLoadRejectsBadEntries(t *testing.T) {
	_, err := Load(staticProvider(nil))
	assert.Error(t, err)

	_, err = Load(staticProvider{{Family: "A", Level: 1, Radius: 0}})
	assert.Error(t, err)
}

type staticProvider []types.ReferenceEntry

func (s staticProvider) LoadEntries() ([]types.ReferenceEntry, error) {
	return s, nil
}
