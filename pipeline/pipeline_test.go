package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/generic/store"
	"github.com/warp/attendance-engine/pipeline"
	"github.com/warp/attendance-engine/reconcile"
	"github.com/warp/attendance-engine/report"
)

const header = "统计日期：2024-03-04 至 2024-03-06"

func attendanceGrid(hdr string, rows ...[]string) pipeline.AttendanceGrid {
	return pipeline.AttendanceGrid{
		Header: hdr,
		Rows: append([][]string{
			{"Name", "Attendance Group", "Department", "WB Work Number", "Position", "User ID", "4", "5", "6"},
			{"", "", "", "", "", "", "Mon", "Tue", "Wed"},
		}, rows...),
	}
}

func scheduleGrid(dates []string, rows ...[]string) pipeline.ScheduleGrid {
	head := append([]string{"", "", "", "", "", ""}, dates...)
	return pipeline.ScheduleGrid{Sheets: []pipeline.ScheduleSheet{
		{Name: "RBC", Rows: append([][]string{head, {"meta"}, {"meta"}}, rows...)},
		{Name: "HSQ", Rows: [][]string{head, {}, {}}},
	}}
}

func rosterSheets() pipeline.RosterSheets {
	hdr := []string{"Employee Name", "Employee Code (ID)", "WB Work Number", "RAG", "Work Location", "Shift", "Site", "LOB", "Leader", "Employer"}
	return pipeline.RosterSheets{
		Active: [][]string{
			hdr,
			{"Ana Cruz", "E-001", "WB 00101", "Green", "Office", "Day", "MNL", "Voice", "Lee", "Neusoft"},
			{"Ben Diaz", "E-002", "wb-00102", "Amber", "Home", "Day", "MNL", "Chat", "Kim", "Neusoft"},
		},
		Inactive: [][]string{
			hdr,
			{"Ana Dup", "E-009", "WB00101", "", "", "", "", "", "", ""},
		},
	}
}

func sampleInputs() pipeline.Inputs {
	return pipeline.Inputs{
		Attendance: attendanceGrid(header,
			[]string{"Ana", "G1", "Ops", "WB00101", "Agent", "u1", "09:00\n18:00", "外勤\n09:05", ""},
			[]string{"Ben", "G1", "Ops", "WB00102", "Agent", "u2", "09:10\n12:00\n18:00", "", "08:30\n18:00"},
			[]string{"Stranger", "G1", "Ops", "XX", "Agent", "u3", "09:00\n18:00"},
		),
		Schedule: scheduleGrid([]string{"2024-03-04", "2024-03-05", "2024-03-06"},
			[]string{"1", "1", "Voice", "E-001", "WB00101", "Ana", "9:00am-6:00pm", "9:00am-6:00pm", "9:00am-6:00pm"},
			[]string{"2", "2", "Chat", "E-002", "", "Ben", "9:00am-6:00pm", "VL", "9:00am-6:00pm"},
		),
		Roster: rosterSheets(),
	}
}

func TestRun_EndToEnd(t *testing.T) {
	// GIVEN: Three consistent inputs
	p := pipeline.New(reconcile.DefaultRules())

	// WHEN: Running the pipeline
	res, err := p.Run(context.Background(), sampleInputs())
	require.NoError(t, err)

	// THEN: Every employee-day is reconciled
	require.Len(t, res.Grid.Rows, 3)
	require.Len(t, res.Grid.Dates, 3)
	assert.Len(t, res.Ledger, 9)
	assert.Equal(t, "2024-03-04", res.Period.Start.String())
	assert.Equal(t, "2024-03-06", res.Period.End.String())

	ana := res.Grid.Rows[0]
	assert.Equal(t, "Ana Cruz", ana.Identity.Name, "resolved rows take the roster name")
	assert.Equal(t, "09:00-18:00", ana.Cells[0].Text())
	assert.Equal(t, "09:05 (MIS)", ana.Cells[1].Text())
	assert.Equal(t, "(ABSENT)", ana.Cells[2].Text())

	// Ben has no work number in the schedule and is found by employee id
	ben := res.Grid.Rows[1]
	assert.Equal(t, "09:10-18:00 (MUL) (L)", ben.Cells[0].Text())
	assert.Equal(t, "(VL)", ben.Cells[1].Text())
	assert.Equal(t, "08:30-18:00 (OT)", ben.Cells[2].Text())

	stranger := res.Grid.Rows[2]
	assert.False(t, stranger.Identity.Resolved())
	assert.Equal(t, "Stranger", stranger.Identity.Name)

	assert.Equal(t, 1, res.Totals.Multiple)
	assert.Equal(t, 1, res.Totals.Missed)
	assert.Equal(t, 1, res.Totals.Absent)
	assert.Equal(t, 1, res.Totals.Late)
	assert.Equal(t, 1, res.Totals.Overtime)
	assert.Len(t, res.ByDate, 12)
	assert.Len(t, res.ByManager, 8)

	kinds := map[reconcile.DiagnosticKind]int{}
	for _, d := range res.Diagnostics {
		kinds[d.Kind]++
	}
	assert.Equal(t, 1, kinds[reconcile.DiagDuplicateRosterKey])
	assert.Equal(t, 1, kinds[reconcile.DiagUnresolvedIdentity])
	assert.Equal(t, reconcile.DiagDuplicateRosterKey, res.Diagnostics[0].Kind, "roster findings come first")

	require.Len(t, res.Duplicates, 2)
	assert.Equal(t, report.SourceRoster, res.Duplicates[0].Source)
	assert.Equal(t, "WB00101", res.Duplicates[0].WorkNumber)
}

func TestRun_MalformedHeaderIsFatal(t *testing.T) {
	in := sampleInputs()
	in.Attendance.Header = "Attendance export"

	_, err := pipeline.New(reconcile.DefaultRules()).Run(context.Background(), in)

	require.Error(t, err)
	assert.ErrorIs(t, err, generic.ErrMalformedDateRange)
	assert.True(t, generic.IsFatal(err))
}

func TestParseDateRange(t *testing.T) {
	tests := []struct {
		header string
		start  string
		end    string
		ok     bool
	}{
		{"统计日期：2024-03-01 至 2024-03-15", "2024-03-01", "2024-03-15", true},
		{"Period: 2024-03-01至2024-03-02", "2024-03-01", "2024-03-02", true},
		{"统计日期：2024/3/1 至 2024/3/3", "2024-03-01", "2024-03-03", true},
		{"统计日期：2024-03-15 至 2024-03-01", "", "", false},
		{"统计日期 2024-03-01 - 2024-03-15", "", "", false},
		{"", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			p, err := pipeline.ParseDateRange(tt.header)
			if !tt.ok {
				var dre *generic.DateRangeError
				assert.True(t, errors.As(err, &dre))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.start, p.Start.String())
			assert.Equal(t, tt.end, p.End.String())
		})
	}
}

func TestRun_WideAttendanceRowIsSchemaMismatch(t *testing.T) {
	in := sampleInputs()
	in.Attendance = attendanceGrid(header,
		[]string{"Ana", "G1", "Ops", "WB00101", "Agent", "u1", "09:00", "09:00", "09:00", "09:00"},
	)

	_, err := pipeline.New(reconcile.DefaultRules()).Run(context.Background(), in)

	assert.ErrorIs(t, err, generic.ErrSchemaMismatch)
}

func TestRun_RosterMissingColumnIsSchemaMismatch(t *testing.T) {
	in := sampleInputs()
	in.Roster.Active[0] = []string{"Employee Name", "WB Work Number"}

	_, err := pipeline.New(reconcile.DefaultRules()).Run(context.Background(), in)

	var se *generic.SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "roster", se.Input)
	assert.True(t, generic.IsClientError(err))
}

func TestRun_BadScheduleLabelIsSchemaMismatch(t *testing.T) {
	in := sampleInputs()
	in.Schedule = scheduleGrid([]string{"2024-03-04", "Tuesday"})

	_, err := pipeline.New(reconcile.DefaultRules()).Run(context.Background(), in)

	assert.ErrorIs(t, err, generic.ErrSchemaMismatch)
}

func TestRun_DisjointPeriodsAreFatal(t *testing.T) {
	// GIVEN: A schedule for April against a March export
	in := sampleInputs()
	in.Schedule = scheduleGrid([]string{"2024-04-01", "2024-04-02"},
		[]string{"1", "1", "Voice", "E-001", "WB00101", "Ana", "VL", "VL"},
	)

	// WHEN: Running
	_, err := pipeline.New(reconcile.DefaultRules()).Run(context.Background(), in)

	// THEN: The run stops with both periods attached
	var ire *generic.IncompatibleRangesError
	require.True(t, errors.As(err, &ire))
	assert.Equal(t, "2024-03-04", ire.Attendance.Start.String())
	assert.Equal(t, "2024-04-01", ire.Schedule.Start.String())
	assert.ErrorIs(t, err, generic.ErrIncompatibleDateRanges)
}

func TestRun_PartialOverlapIsNotFatal(t *testing.T) {
	// GIVEN: A schedule covering only the first two days
	in := sampleInputs()
	in.Schedule = scheduleGrid([]string{"2024-03-04", "2024-03-05"},
		[]string{"1", "1", "Voice", "E-001", "WB00101", "Ana", "9:00am-6:00pm", "9:00am-6:00pm"},
	)

	// WHEN: Running
	res, err := pipeline.New(reconcile.DefaultRules()).Run(context.Background(), in)
	require.NoError(t, err)

	// THEN: The third day is unscheduled and reported
	assert.Equal(t, "", res.Grid.Rows[0].Cells[2].Text())
	var missing []string
	for _, d := range res.Diagnostics {
		if d.Kind == reconcile.DiagMissingScheduleDate {
			missing = append(missing, d.DateString())
		}
	}
	assert.Equal(t, []string{"2024-03-06"}, missing)
}

func TestRun_InvalidRules(t *testing.T) {
	rules := reconcile.DefaultRules()
	rules.EarlyOut = -1

	_, err := pipeline.New(rules).Run(context.Background(), sampleInputs())

	assert.ErrorIs(t, err, generic.ErrInvalidRules)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pipeline.New(reconcile.DefaultRules()).Run(ctx, sampleInputs())

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_StageCache(t *testing.T) {
	// GIVEN: A pipeline with an in-memory stage cache
	p := pipeline.New(reconcile.DefaultRules())
	p.Cache = store.NewMemory()
	ctx := context.Background()

	// WHEN: Running the same inputs twice
	first, err := p.Run(ctx, sampleInputs())
	require.NoError(t, err)
	second, err := p.Run(ctx, sampleInputs())
	require.NoError(t, err)

	// THEN: The second run is served from the cache with identical output
	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, first.ContentKey, second.ContentKey)
	assert.Equal(t, first.Totals, second.Totals)
	assert.Equal(t, len(first.Ledger), len(second.Ledger))
	assert.Equal(t, first.Ledger[4].Remarks, second.Ledger[4].Remarks)
	assert.Equal(t, first.Diagnostics, second.Diagnostics)
}

func TestRun_StageCacheFollowsHolidays(t *testing.T) {
	// GIVEN: A work-from-home day with no punches, reconciled and cached
	in := pipeline.Inputs{
		Attendance: attendanceGrid(header,
			[]string{"Ana", "G1", "Ops", "WB00101", "Agent", "u1", "09:00\n18:00", "09:00\n18:00", ""},
		),
		Schedule: scheduleGrid([]string{"2024-03-04", "2024-03-05", "2024-03-06"},
			[]string{"1", "1", "Voice", "E-001", "WB00101", "Ana", "9:00am-6:00pm", "9:00am-6:00pm", "WFH"},
		),
		Roster: rosterSheets(),
	}
	calendar := &generic.StaticHolidayCalendar{}
	p := pipeline.New(reconcile.DefaultRules())
	p.Calendar = calendar
	p.Cache = store.NewMemory()
	ctx := context.Background()

	first, err := p.Run(ctx, in)
	require.NoError(t, err)
	require.Equal(t, "(ABSENT)", first.Grid.Rows[0].Cells[2].Text())
	require.Equal(t, 1, first.Totals.Absent)

	// WHEN: That day becomes a holiday and the same files are run again
	calendar.Holidays = append(calendar.Holidays, generic.Holiday{
		Date: generic.NewTimePoint(2024, 3, 6),
		Name: "Company Day",
	})
	second, err := p.Run(ctx, in)
	require.NoError(t, err)

	// THEN: The cached grid is not reused and the day is no longer absent
	assert.False(t, second.Cached)
	assert.NotEqual(t, first.ContentKey, second.ContentKey)
	assert.Equal(t, "", second.Grid.Rows[0].Cells[2].Text())
	assert.Equal(t, 0, second.Totals.Absent)

	// The uncached answer agrees
	fresh := pipeline.New(reconcile.DefaultRules())
	fresh.Calendar = calendar
	uncached, err := fresh.Run(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, second.Grid.Rows[0].Cells[2].Text(), uncached.Grid.Rows[0].Cells[2].Text())
}

func TestContentKey_DependsOnRules(t *testing.T) {
	in := sampleInputs()
	a, err := pipeline.ContentKey(in, reconcile.DefaultRules(), nil)
	require.NoError(t, err)

	again, err := pipeline.ContentKey(sampleInputs(), reconcile.DefaultRules(), nil)
	require.NoError(t, err)
	assert.Equal(t, a, again)

	rules := reconcile.DefaultRules()
	rules.LateIn = 5
	b, err := pipeline.ContentKey(in, rules, nil)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 64)

	c, err := pipeline.ContentKey(in, reconcile.DefaultRules(), []generic.TimePoint{generic.NewTimePoint(2024, 3, 6)})
	require.NoError(t, err)
	assert.NotEqual(t, a, c, "holidays are part of the key")
}
