package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/attendance-engine/generic"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRuns_SaveGetListDelete(t *testing.T) {
	// GIVEN: Two archived runs a minute apart
	s := newStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)
	period := generic.Period{
		Start: generic.MustParseDate("2024-03-04"),
		End:   generic.MustParseDate("2024-03-08"),
	}

	older := generic.RunRecord{
		ID: "run-1", ContentKey: "abc", Period: period, Status: generic.RunCompleted,
		Employees: 3, Diagnostics: 1, Payload: []byte(`{"a":1}`), CreatedAt: base,
	}
	newer := generic.RunRecord{
		ID: "run-2", Status: generic.RunFailed, Error: "no overlap", CreatedAt: base.Add(time.Minute),
	}
	require.NoError(t, s.SaveRun(ctx, older))
	require.NoError(t, s.SaveRun(ctx, newer))

	// WHEN: Reading them back
	got, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	list, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)

	// THEN: Fields survive and the list is newest first without payloads
	assert.Equal(t, "abc", got.ContentKey)
	assert.Equal(t, period, got.Period)
	assert.Equal(t, 3, got.Employees)
	assert.Equal(t, []byte(`{"a":1}`), got.Payload)
	assert.True(t, got.CreatedAt.Equal(base))

	require.Len(t, list, 2)
	assert.Equal(t, generic.RunID("run-2"), list[0].ID)
	assert.Equal(t, "no overlap", list[0].Error)
	assert.True(t, list[0].Period.Start.Time.IsZero())
	assert.Nil(t, list[1].Payload)

	limited, err := s.ListRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	require.NoError(t, s.DeleteRun(ctx, "run-1"))
	_, err = s.GetRun(ctx, "run-1")
	assert.ErrorIs(t, err, generic.ErrRunNotFound)
	assert.ErrorIs(t, s.DeleteRun(ctx, "run-1"), generic.ErrRunNotFound)
}

func TestRuns_SaveReplaces(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRun(ctx, generic.RunRecord{ID: "r", Status: generic.RunFailed}))
	require.NoError(t, s.SaveRun(ctx, generic.RunRecord{ID: "r", Status: generic.RunCompleted, Employees: 9}))

	got, err := s.GetRun(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, generic.RunCompleted, got.Status)
	assert.Equal(t, 9, got.Employees)
}

func TestStageCache_MissPutPrune(t *testing.T) {
	// GIVEN: A store whose clock we control
	s := newStore(t)
	ctx := context.Background()
	clock := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }
	key := generic.CacheKey{ContentKey: "k1", Stage: generic.StageReconcile}

	// WHEN/THEN: Miss, then hit, then overwrite
	_, err := s.GetStage(ctx, key)
	assert.ErrorIs(t, err, generic.ErrCacheMiss)

	require.NoError(t, s.PutStage(ctx, key, []byte("one")))
	require.NoError(t, s.PutStage(ctx, key, []byte("two")))
	got, err := s.GetStage(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), got)

	// A different stage of the same content is a separate entry
	_, err = s.GetStage(ctx, generic.CacheKey{ContentKey: "k1", Stage: generic.StageReport})
	assert.ErrorIs(t, err, generic.ErrCacheMiss)

	// Entries written before the cutoff are pruned
	clock = clock.Add(48 * time.Hour)
	fresh := generic.CacheKey{ContentKey: "k2", Stage: generic.StageReconcile}
	require.NoError(t, s.PutStage(ctx, fresh, []byte("x")))

	n, err := s.PruneStages(ctx, clock.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = s.GetStage(ctx, key)
	assert.ErrorIs(t, err, generic.ErrCacheMiss)
	_, err = s.GetStage(ctx, fresh)
	assert.NoError(t, err)
}

func TestPruneRuns(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []generic.RunID{"a", "b", "c"} {
		require.NoError(t, s.SaveRun(ctx, generic.RunRecord{
			ID: id, Status: generic.RunCompleted, CreatedAt: base.Add(time.Duration(i) * 24 * time.Hour),
		}))
	}

	n, err := s.PruneRuns(ctx, base.Add(36*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, generic.RunID("c"), list[0].ID)
}

func TestHolidays_Calendar(t *testing.T) {
	// GIVEN: A global dated holiday, a recurring one and a company-only one
	s := newStore(t)
	ctx := context.Background()

	dated, err := s.SaveHoliday(ctx, generic.Holiday{Date: generic.MustParseDate("2024-04-09"), Name: "Araw ng Kagitingan"})
	require.NoError(t, err)
	assert.NotEmpty(t, dated.ID)

	_, err = s.SaveHoliday(ctx, generic.Holiday{Date: generic.MustParseDate("2020-12-25"), Name: "Christmas", Recurring: true})
	require.NoError(t, err)
	_, err = s.SaveHoliday(ctx, generic.Holiday{CompanyID: "acme", Date: generic.MustParseDate("2024-03-15"), Name: "Founding Day"})
	require.NoError(t, err)

	// THEN: Lookups respect the year, recurrence and company scope
	assert.True(t, s.IsHoliday("", generic.MustParseDate("2024-04-09")))
	assert.False(t, s.IsHoliday("", generic.MustParseDate("2025-04-09")))
	assert.True(t, s.IsHoliday("", generic.MustParseDate("2031-12-25")))
	assert.True(t, s.IsHoliday("acme", generic.MustParseDate("2024-03-15")))
	assert.False(t, s.IsHoliday("other", generic.MustParseDate("2024-03-15")))

	year := s.GetHolidays("acme", 2024)
	require.Len(t, year, 3)
	assert.Equal(t, "Founding Day", year[0].Name)
	assert.Equal(t, generic.MustParseDate("2024-12-25"), year[2].Date)

	all, err := s.ListHolidays(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestHolidays_UpsertAndDelete(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	day := generic.MustParseDate("2024-06-12")

	first, err := s.SaveHoliday(ctx, generic.Holiday{Date: day, Name: "Independence Day"})
	require.NoError(t, err)
	// Same (company, date, name) keeps the original ID
	second, err := s.SaveHoliday(ctx, generic.Holiday{Date: day, Name: "Independence Day", Recurring: true})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	all, err := s.ListHolidays(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Recurring)

	require.NoError(t, s.DeleteHoliday(ctx, first.ID))
	assert.ErrorIs(t, s.DeleteHoliday(ctx, first.ID), generic.ErrHolidayNotFound)
	assert.False(t, s.IsHoliday("", day))
}

func TestReset(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveRun(ctx, generic.RunRecord{ID: "r", Status: generic.RunCompleted}))

	require.NoError(t, s.Reset(ctx))

	list, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}
