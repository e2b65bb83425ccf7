/*
scenarios_test.go - Unit tests for demo scenarios

PURPOSE:
	Tests that each scenario reconciles cleanly and produces the exceptions
	it is named after:
	- Every scenario archives a completed run
	- Tags land on the expected employee-days
	- Diagnostics report the unknown badge and unreadable punches

These tests double as integration tests of the whole pipeline.
*/
package api

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/pipeline"
	"github.com/warp/attendance-engine/reconcile"
)

func runScenario(t *testing.T, h *Handler, id string) (*generic.RunRecord, *pipeline.Result) {
	t.Helper()
	in, ok := ScenarioInputs(id)
	require.True(t, ok, id)
	run, res, err := h.execute(context.Background(), in)
	require.NoError(t, err, id)
	return run, res
}

// cellText finds the rendered cell of one employee on one date.
func cellText(t *testing.T, res *pipeline.Result, work, date string) string {
	t.Helper()
	for _, row := range res.Grid.Rows {
		if row.Identity.WorkNumber != work {
			continue
		}
		for i, d := range res.Grid.Dates {
			if d.String() == date {
				return row.Cells[i].Text()
			}
		}
	}
	t.Fatalf("no cell for %s on %s", work, date)
	return ""
}

func TestScenario_AllRun(t *testing.T) {
	// GIVEN: Every registered scenario
	// WHEN: Running each one
	// THEN: Each archives a completed run covering its attendance days
	h := setupTestHandler(t)

	for _, s := range scenarios {
		t.Run(s.ID, func(t *testing.T) {
			run, res := runScenario(t, h, s.ID)
			assert.Equal(t, generic.RunCompleted, run.Status)
			assert.Equal(t, demoStart.String(), res.Period.Start.String())
			assert.Len(t, res.Ledger, len(res.Grid.Rows)*len(res.Grid.Dates))
		})
	}

	runs, err := h.Store.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, runs, len(scenarios))
}

func TestScenario_CleanWeek(t *testing.T) {
	h := setupTestHandler(t)
	_, res := runScenario(t, h, "clean-week")

	assert.Equal(t, 0, res.Totals.Late)
	assert.Equal(t, 0, res.Totals.Missed)
	assert.Equal(t, 0, res.Totals.Multiple)
	assert.Empty(t, res.Diagnostics)
	assert.Equal(t, "08:58-18:02", cellText(t, res, "WB00101", "2024-03-04"))
}

func TestScenario_Exceptions(t *testing.T) {
	// GIVEN: The exceptions scenario
	h := setupTestHandler(t)

	// WHEN: Reconciling it
	_, res := runScenario(t, h, "exceptions")

	// THEN: Each exception is tagged on its day
	assert.Equal(t, "09:12-18:00 (L)", cellText(t, res, "WB00101", "2024-03-04"))
	assert.Equal(t, "08:30-19:00 (OT)", cellText(t, res, "WB00101", "2024-03-05"))
	assert.Equal(t, "09:01 (MIS)", cellText(t, res, "WB00101", "2024-03-06"))
	assert.Equal(t, "(ABSENT)", cellText(t, res, "WB00101", "2024-03-07"))
	assert.Contains(t, cellText(t, res, "WB00101", "2024-03-08"), "(MUL)")

	assert.Equal(t, "(VL)", cellText(t, res, "WB00102", "2024-03-04"))
	assert.Contains(t, cellText(t, res, "WB00102", "2024-03-05"), "(NCNS)")
	assert.Equal(t, "09:00-18:00 (TRN)", cellText(t, res, "WB00102", "2024-03-07"))

	// Unknown badge and unreadable punch are reported, not fatal
	kinds := make(map[reconcile.DiagnosticKind]int)
	for _, d := range res.Diagnostics {
		kinds[d.Kind]++
	}
	assert.Equal(t, 1, kinds[reconcile.DiagUnresolvedIdentity])
	assert.Equal(t, 1, kinds[reconcile.DiagUnrecognizedPunch])

	for _, mc := range res.ByManager {
		assert.NotEmpty(t, mc.Key, "unresolved rows stay out of the manager breakdown")
	}
}

func TestScenario_PartialScheduleReportsMissingDates(t *testing.T) {
	h := setupTestHandler(t)
	_, res := runScenario(t, h, "partial-schedule")

	var missing []string
	for _, d := range res.Diagnostics {
		if d.Kind == reconcile.DiagMissingScheduleDate {
			missing = append(missing, d.DateString())
		}
	}
	assert.Equal(t, []string{"2024-03-07", "2024-03-08"}, missing)
	assert.Equal(t, "09:20-18:00 (L)", cellText(t, res, "WB00101", "2024-03-05"))
}

func TestScenario_RerunIsCached(t *testing.T) {
	// GIVEN: A scenario already reconciled once
	h := setupTestHandler(t)
	_, first := runScenario(t, h, "night-shift")

	// WHEN: Running the same inputs again
	_, second := runScenario(t, h, "night-shift")

	// THEN: The second run is served from the stage cache with the same result
	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Totals, second.Totals)
}

func TestScenarioInputs_Unknown(t *testing.T) {
	_, ok := ScenarioInputs("does-not-exist")
	assert.False(t, ok)
}
