package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/generic/store"
)

func TestRetentionScheduler_PrunesExpired(t *testing.T) {
	// GIVEN: One old run, one fresh run and one cached stage
	ctx := context.Background()
	mem := store.NewMemory()
	now := time.Now()
	require.NoError(t, mem.SaveRun(ctx, generic.RunRecord{ID: "old", Status: generic.RunCompleted, CreatedAt: now.Add(-40 * 24 * time.Hour)}))
	require.NoError(t, mem.SaveRun(ctx, generic.RunRecord{ID: "fresh", Status: generic.RunCompleted, CreatedAt: now.Add(-time.Hour)}))
	require.NoError(t, mem.PutStage(ctx, generic.CacheKey{ContentKey: "k", Stage: generic.StageReport}, []byte("{}")))

	rs := NewRetentionScheduler(mem, mem, 0)
	assert.Equal(t, DefaultRetention, rs.Retention)

	// WHEN: Pruning now
	runs, stages := rs.RunNow()

	// THEN: Only the run past retention is removed
	assert.Equal(t, 1, runs)
	assert.Equal(t, 0, stages)
	_, err := mem.GetRun(ctx, "old")
	assert.ErrorIs(t, err, generic.ErrRunNotFound)
	_, err = mem.GetRun(ctx, "fresh")
	assert.NoError(t, err)

	// WHEN: The clock moves past retention for everything
	rs.now = func() time.Time { return now.Add(DefaultRetention + time.Hour) }
	runs, stages = rs.RunNow()

	// THEN: The rest goes too
	assert.Equal(t, 1, runs)
	assert.Equal(t, 1, stages)
}

func TestRetentionScheduler_StartStop(t *testing.T) {
	mem := store.NewMemory()
	require.NoError(t, mem.SaveRun(context.Background(), generic.RunRecord{
		ID: "old", Status: generic.RunFailed, CreatedAt: time.Now().Add(-time.Hour),
	}))

	rs := NewRetentionScheduler(mem, mem, time.Minute)
	rs.CheckInterval = time.Hour
	rs.Start()
	rs.Start() // second start is a no-op
	rs.Stop()
	rs.Stop()

	// The immediate prune on start removed the expired run
	_, err := mem.GetRun(context.Background(), "old")
	assert.ErrorIs(t, err, generic.ErrRunNotFound)
}

func TestRetentionScheduler_Disabled(t *testing.T) {
	rs := NewRetentionScheduler(store.NewMemory(), nil, time.Hour)
	rs.Enabled = false
	rs.Start()
	assert.Nil(t, rs.ticker)
	rs.Stop()
}
