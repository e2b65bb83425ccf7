package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/attendance-engine/generic"
)

func TestMemory_Runs(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	require.NoError(t, m.SaveRun(ctx, generic.RunRecord{ID: "a", Status: generic.RunCompleted, Payload: []byte("{}")}))
	m.now = func() time.Time { return base.Add(time.Hour) }
	require.NoError(t, m.SaveRun(ctx, generic.RunRecord{ID: "b", Status: generic.RunFailed, Error: "bad header"}))

	got, err := m.GetRun(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, base, got.CreatedAt)

	runs, err := m.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, generic.RunID("b"), runs[0].ID, "newest first")

	runs, err = m.ListRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	n, err := m.PruneRuns(ctx, base.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.ErrorIs(t, m.DeleteRun(ctx, "a"), generic.ErrRunNotFound)
	require.NoError(t, m.DeleteRun(ctx, "b"))
	_, err = m.GetRun(ctx, "b")
	assert.ErrorIs(t, err, generic.ErrRunNotFound)
}

func TestMemory_Stages(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }
	key := generic.CacheKey{ContentKey: "abc", Stage: generic.StageReconcile}

	_, err := m.GetStage(ctx, key)
	assert.ErrorIs(t, err, generic.ErrCacheMiss)

	payload := []byte(`{"x":1}`)
	require.NoError(t, m.PutStage(ctx, key, payload))
	payload[0] = 'X'

	got, err := m.GetStage(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `{"x":1}`, string(got), "stored payload is a copy")

	n, err := m.PruneStages(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "cutoff is exclusive")

	n, err = m.PruneStages(ctx, base.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
