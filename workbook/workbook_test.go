package workbook_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/pipeline"
	"github.com/warp/attendance-engine/reconcile"
	"github.com/warp/attendance-engine/workbook"
)

type tab struct {
	name string
	rows [][]interface{}
}

func xlsx(t *testing.T, tabs ...tab) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for i, tb := range tabs {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", tb.name))
		} else {
			_, err := f.NewSheet(tb.name)
			require.NoError(t, err)
		}
		for r, row := range tb.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			values := row
			require.NoError(t, f.SetSheetRow(tb.name, cell, &values))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func day(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }

func attendanceBook(t *testing.T) []byte {
	return xlsx(t, tab{name: "Report", rows: [][]interface{}{
		{"统计日期：2024-03-04 至 2024-03-05"},
		{"Name", "Attendance Group", "Department", "WB Work Number", "Position", "User ID", "4", "5"},
		{nil, nil, nil, nil, nil, nil, "Mon", "Tue"},
		{"Ana", "G1", "Ops", "WB00101", "Agent", "u1", "09:20\n18:00", ""},
	}})
}

func scheduleBook(t *testing.T) []byte {
	head := []interface{}{nil, nil, nil, nil, nil, nil, day(4), day(5)}
	return xlsx(t,
		tab{name: "RBC", rows: [][]interface{}{
			head, {"meta"}, {"meta"},
			{1, 1, "Voice", "E-001", "WB00101", "Ana", "9:00am-6:00pm", "9:00am-6:00pm"},
		}},
		tab{name: "Notes", rows: [][]interface{}{{"ignored"}}},
		tab{name: "HSQ", rows: [][]interface{}{head, {}, {}}},
	)
}

func rosterBook(t *testing.T) []byte {
	return xlsx(t,
		tab{name: "Active", rows: [][]interface{}{
			{"Employee Name", "Employee Code (ID)", "WB Work Number", "RAG", "Work Location", "Shift", "Site", "LOB", "Leader", "Employer"},
			{"Ana Cruz", "E-001", "WB00101", "Green", "Office", "Day", "MNL", "Voice", "Lee", "Neusoft"},
		}},
		tab{name: "Inactive", rows: [][]interface{}{
			{"Employee Name", "Employee Code (ID)", "WB Work Number", "RAG", "Work Location", "Shift", "Site", "LOB", "Leader", "Employer"},
		}},
	)
}

func TestLoader_SchedulePicksConfiguredTabs(t *testing.T) {
	g, err := workbook.NewLoader().LoadSchedule(context.Background(), bytes.NewReader(scheduleBook(t)))
	require.NoError(t, err)

	require.Len(t, g.Sheets, 2)
	assert.Equal(t, "RBC", g.Sheets[0].Name)
	assert.Equal(t, "HSQ", g.Sheets[1].Name)

	// Date cells come back as ISO dates regardless of display format
	assert.Equal(t, "2024-03-04", g.Sheets[0].Rows[0][6])
	assert.Equal(t, "2024-03-05", g.Sheets[0].Rows[0][7])
}

func TestLoader_AttendanceHeader(t *testing.T) {
	g, err := workbook.NewLoader().LoadAttendance(context.Background(), bytes.NewReader(attendanceBook(t)))
	require.NoError(t, err)

	assert.Equal(t, "统计日期：2024-03-04 至 2024-03-05", g.Header)
	require.Len(t, g.Rows, 3)
	assert.Equal(t, "09:20\n18:00", g.Rows[2][6])
}

func TestLoader_RosterNeedsActiveTab(t *testing.T) {
	book := xlsx(t, tab{name: "Employees", rows: [][]interface{}{{"Employee Name"}}})

	_, err := workbook.NewLoader().LoadRoster(context.Background(), bytes.NewReader(book))

	var se *generic.SchemaError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Got, "Employees")
}

func TestLoader_UnsupportedFormat(t *testing.T) {
	_, err := workbook.NewLoader().LoadAttendance(context.Background(), strings.NewReader("Name,Date\nAna,2024-03-04\n"))

	assert.ErrorIs(t, err, generic.ErrUnsupportedFormat)
	assert.True(t, generic.IsClientError(err))
}

func TestLoadAndExport_RoundTrip(t *testing.T) {
	// GIVEN: Three workbooks loaded through the pipeline
	ctx := context.Background()
	in, err := pipeline.LoadInputs(ctx, workbook.NewLoader(), pipeline.Sources{
		Attendance: bytes.NewReader(attendanceBook(t)),
		Schedule:   bytes.NewReader(scheduleBook(t)),
		Roster:     bytes.NewReader(rosterBook(t)),
	})
	require.NoError(t, err)
	res, err := pipeline.New(reconcile.DefaultRules()).Run(ctx, in)
	require.NoError(t, err)
	require.Len(t, res.Grid.Rows, 1)
	assert.Equal(t, "09:20-18:00 (L)", res.Grid.Rows[0].Cells[0].Text())
	assert.Equal(t, "(ABSENT)", res.Grid.Rows[0].Cells[1].Text())

	// WHEN: Exporting the result
	var buf bytes.Buffer
	require.NoError(t, workbook.Export(&buf, res))

	// THEN: The workbook carries every sheet and colors flagged cells
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{
		workbook.SheetAttendance, workbook.SheetLedger, workbook.SheetSummary,
		workbook.SheetDiagnostics, workbook.SheetDuplicates,
	}, f.GetSheetList())

	text, err := f.GetCellValue(workbook.SheetAttendance, "I2")
	require.NoError(t, err)
	assert.Equal(t, "09:20-18:00 (L)", text)

	late, err := f.GetCellStyle(workbook.SheetAttendance, "I2")
	require.NoError(t, err)
	absent, err := f.GetCellStyle(workbook.SheetAttendance, "J2")
	require.NoError(t, err)
	plain, err := f.GetCellStyle(workbook.SheetAttendance, "A2")
	require.NoError(t, err)
	assert.NotEqual(t, plain, late)
	assert.NotEqual(t, late, absent, "each category has its own fill")

	ledger, err := f.GetRows(workbook.SheetLedger)
	require.NoError(t, err)
	require.Len(t, ledger, 3)
	assert.Equal(t, workbook.LedgerHeader(), ledger[0])
	assert.Equal(t, "2024-03-04", ledger[1][0])
	assert.Equal(t, "(L)", ledger[1][12])
}
