package report_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/reconcile"
	"github.com/warp/attendance-engine/report"
	"github.com/warp/attendance-engine/roster"
	"github.com/warp/attendance-engine/schedule"
)

var monday = generic.NewTimePoint(2024, 3, 4)

func identity(work, name, manager string) roster.Identity {
	id := roster.Identity{RawWorkNumber: work, WorkNumber: work, Name: name}
	if manager != "" {
		id.Profile = &roster.Profile{EmployeeID: "E-" + work, Manager: manager, LOB: "Voice", Site: "MNL"}
	}
	return id
}

// sampleGrid reconciles three employees over three weekdays against a
// 9am-6pm shift.
func sampleGrid(t *testing.T) *reconcile.Grid {
	t.Helper()
	dates := []generic.TimePoint{monday, monday.AddDays(1), monday.AddDays(2)}
	shift := []string{"9:00am-6:00pm", "9:00am-6:00pm", "9:00am-6:00pm"}
	idx := schedule.Build([]schedule.Row{
		{WorkNumber: "WB1", Cells: shift},
		{WorkNumber: "WB2", Cells: []string{"9:00am-6:00pm", "VL", "9:00am-6:00pm"}},
		{WorkNumber: "WB3", Cells: shift},
	}, dates, "WB")

	in := reconcile.Input{
		Dates: dates,
		Employees: []reconcile.Employee{
			{Identity: identity("WB1", "Ana", "Lee"), Cells: []string{"09:00\n12:00\n18:00", "09:05", ""}},
			{Identity: identity("WB2", "Ben", "Kim"), Cells: []string{"09:10\n18:00", "", "08:55\n13:00\n18:00"}},
			{Identity: identity("WB3", "Cruz", ""), Cells: []string{"08:30\n18:00", "09:00\n12:00\n18:30", "09:02"}},
		},
		Schedule: idx,
	}
	grid := reconcile.NewEngine(reconcile.DefaultRules()).Run(in)
	require.Len(t, grid.Rows, 3)
	return grid
}

func TestExplode_OneRowPerEmployeeDay(t *testing.T) {
	grid := sampleGrid(t)
	rows := report.Explode(grid)

	require.Len(t, rows, 9)
	assert.Equal(t, "Ana", rows[0].Name)
	assert.Equal(t, "2024-03-04", rows[0].Date.String())
	assert.Equal(t, "Ana", rows[2].Name)
	assert.Equal(t, "Ben", rows[3].Name)

	assert.Equal(t, "09:00", rows[0].TimeIn)
	assert.Equal(t, "18:00", rows[0].TimeOut)
	assert.Equal(t, "(MUL)", rows[0].Remarks)
	assert.Equal(t, "Lee", rows[0].Manager)

	assert.Equal(t, "09:05", rows[1].TimeIn)
	assert.Equal(t, "", rows[1].TimeOut)
	assert.Equal(t, "(MIS)", rows[1].Remarks)

	assert.Equal(t, "(ABSENT)", rows[2].Remarks)
	assert.Equal(t, reconcile.CategoryAbsent, rows[2].Category)

	assert.Equal(t, "(VL)", rows[4].Remarks)
	assert.Equal(t, "VL", rows[4].Schedule)

	assert.False(t, rows[6].Resolved)
	assert.Equal(t, "", rows[6].Manager)
}

func TestMetrics_MatchesPerEmployeeCounts(t *testing.T) {
	// GIVEN: A reconciled grid
	grid := sampleGrid(t)

	// WHEN: Totalling the ledger and ranking employees
	totals := report.Metrics(report.Explode(grid))
	mul, mis := report.EmployeeCounts(grid)

	// THEN: Per-employee counts add up to the grid-wide totals
	sum := func(counts []report.EmployeeCount) int {
		n := 0
		for _, c := range counts {
			n += c.Count
		}
		return n
	}
	assert.Equal(t, totals.Multiple, sum(mul))
	assert.Equal(t, totals.Missed, sum(mis))

	assert.Equal(t, 9, totals.Cells)
	assert.Equal(t, 3, totals.Multiple)
	assert.Equal(t, 2, totals.Missed)
	assert.Equal(t, 1, totals.Absent)
	assert.Equal(t, 1, totals.Late)
	assert.Equal(t, 2, totals.Overtime)
	assert.Equal(t, 1, totals.Coded)
}

func TestEmployeeCounts_RankedAndStable(t *testing.T) {
	mul, mis := report.EmployeeCounts(sampleGrid(t))

	require.Len(t, mul, 3)
	// Ana and Ben and Cruz each have one MUL day; ties keep attendance order.
	assert.Equal(t, []string{"Ana", "Ben", "Cruz"}, []string{mul[0].Name, mul[1].Name, mul[2].Name})

	require.Len(t, mis, 3)
	assert.Equal(t, 1, mis[0].Count)
	assert.Equal(t, "Ana", mis[0].Name)
	assert.Equal(t, "Cruz", mis[1].Name)
	assert.Equal(t, 0, mis[2].Count)
}

func TestByManager_ZeroFilledAndExcludesUnresolved(t *testing.T) {
	out := report.ByManager(report.Explode(sampleGrid(t)))

	// Two managers × four status codes; Cruz has no manager.
	require.Len(t, out, 8)
	assert.Equal(t, "Kim", out[0].Key)
	assert.Equal(t, "(ABSENT)", out[0].Label())
	assert.Equal(t, 0, out[0].Count)

	counts := map[string]int{}
	for _, c := range out {
		counts[c.Key+c.Label()] = c.Count
	}
	assert.Equal(t, 1, counts["Lee(ABSENT)"])
	assert.Equal(t, 1, counts["Lee(MUL)"])
	assert.Equal(t, 1, counts["Lee(MIS)"])
	assert.Equal(t, 1, counts["Kim(L)"])
	assert.Equal(t, 1, counts["Kim(MUL)"])
}

func TestByDate_FullCartesian(t *testing.T) {
	out := report.ByDate(report.Explode(sampleGrid(t)))

	require.Len(t, out, 12)
	assert.Equal(t, "2024-03-04", out[0].Key)
	assert.Equal(t, "2024-03-06", out[11].Key)
	assert.Equal(t, "(L)", out[11].Label())
}

func TestRemarkCounts(t *testing.T) {
	rows := []report.Row{
		{Remarks: "(MIS)"}, {Remarks: ""}, {Remarks: "(MUL)"}, {Remarks: "(MIS)"}, {Remarks: "(ABSENT)"},
	}
	out := report.RemarkCounts(rows)

	require.Len(t, out, 3)
	assert.Equal(t, report.RemarkCount{Remarks: "(MIS)", Count: 2}, out[0])
	assert.Equal(t, "(MUL)", out[1].Remarks)
	assert.Equal(t, "(ABSENT)", out[2].Remarks)
}

func TestWorkedHours(t *testing.T) {
	hours := report.WorkedHours(sampleGrid(t))

	require.Len(t, hours, 3)
	// Ana: 09:00-18:00 only (MIS and ABSENT days have no span)
	assert.Equal(t, 1, hours[0].Days)
	assert.Equal(t, "9", hours[0].Hours.Value.String())
	// Ben: 09:10-18:00 and 08:55-18:00
	assert.Equal(t, 2, hours[1].Days)
	assert.Equal(t, "17.92", hours[1].Hours.Value.String())
}

func TestFilter(t *testing.T) {
	rows := report.Explode(sampleGrid(t))

	assert.Len(t, report.Filter{}.Apply(rows), 9)
	assert.Len(t, report.Filter{Managers: []string{"Lee"}}.Apply(rows), 3)
	assert.Len(t, report.Filter{Managers: []string{"Lee", "Kim"}}.Apply(rows), 6)
	assert.Len(t, report.Filter{Managers: []string{"Lee"}, Employees: []string{"Ben"}}.Apply(rows), 0)
	assert.Len(t, report.Filter{Sites: []string{"MNL"}}.Apply(rows), 6)
}

func TestFindDuplicates(t *testing.T) {
	// GIVEN: Two rows sharing a key, one unique row and two null keys
	rows := []report.KeyedRow{
		{Name: "Ana", Key: "WB1"},
		{Name: "Ben", Key: "WB2"},
		{Name: "Ana B.", Key: "WB1"},
		{Name: "Nobody", Key: ""},
		{Name: "Nobody 2", Key: ""},
	}

	// WHEN: Looking for duplicates
	dups := report.FindDuplicates(report.SourceSchedule, rows)

	// THEN: Every occurrence of the shared key is reported, nulls never are
	require.Len(t, dups, 2)
	assert.Equal(t, "Ana", dups[0].Name)
	assert.Equal(t, "Ana B.", dups[1].Name)
	assert.Equal(t, report.SourceSchedule, dups[0].Source)
}
