package managers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFitManagerRunsEveryJob(t *testing.T) {
	m, err := NewFitManager(2, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer m.Close()

	var ran atomic.Int32
	boom := errors.New("boom")
	jobs := []Job{
		{Name: "a", Run: func(context.Context) error { ran.Add(1); return nil }},
		{ID: "fixed", Name: "b", Run: func(context.Context) error { ran.Add(1); return boom }},
		{Name: "c", Run: func(context.Context) error { ran.Add(1); return nil }},
	}

	statuses := m.Run(context.Background(), jobs)
	require.Len(t, statuses, 3)
	assert.Equal(t, int32(3), ran.Load())

	assert.NotEmpty(t, statuses[0].ID)
	assert.NoError(t, statuses[0].Err)
	assert.Equal(t, "fixed", statuses[1].ID)
	assert.ErrorIs(t, statuses[1].Err, boom)
	assert.Equal(t, "boom", statuses[1].Error)
	assert.NoError(t, statuses[2].Err, "a failing job does not affect the others")
	assert.NotEqual(t, statuses[0].ID, statuses[2].ID)
}

func TestFitManagerCancelled(t *testing.T) {
	m, err := NewFitManager(1, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer m.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	statuses := m.Run(ctx, []Job{{Name: "late", Run: func(context.Context) error { called = true; return nil }}})
	assert.False(t, called)
	assert.ErrorIs(t, statuses[0].Err, context.Canceled)
}
