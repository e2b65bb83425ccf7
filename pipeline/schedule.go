package pipeline

import (
	"fmt"

	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/schedule"
)

// ScheduleSheet is one tab of the schedule workbook.
type ScheduleSheet struct {
	Name string
	Rows [][]string
}

// ScheduleGrid is every schedule tab, in workbook order.
type ScheduleGrid struct {
	Sheets []ScheduleSheet
}

// DefaultScheduleSheets are the account tabs of the schedule workbook.
var DefaultScheduleSheets = []string{"RBC", "HSQ", "IDN", "ISA"}

// Schedule identity columns, in sheet order.
const (
	ColIndex        = "i"
	ColNumber       = "No."
	ColLOB          = "LOB"
	ColEmployeeID   = "EmployeeID"
	ColSchedWorkNum = "WBWorkNumber"
	ColSchedName    = "Name"
)

const (
	// schedulePreamble is the number of metadata rows atop each sheet.
	schedulePreamble = 3
	// scheduleDateRow holds the date labels on the first sheet.
	scheduleDateRow = 0
)

// ScheduleSchema reads date labels from the first sheet. Labels start after
// the identity columns and end at the first trailing blank.
func ScheduleSchema(g ScheduleGrid) (Schema, error) {
	cols := identityColumns(ColIndex, ColNumber, ColLOB, ColEmployeeID, ColSchedWorkNum, ColSchedName)
	if len(g.Sheets) == 0 || len(g.Sheets[0].Rows) <= scheduleDateRow {
		return Schema{}, &generic.SchemaError{Input: "schedule", Expected: "a sheet with a date row", Got: "no rows"}
	}

	labels := trimTrailing(g.Sheets[0].Rows[scheduleDateRow])
	if len(labels) <= len(cols) {
		return Schema{}, &generic.SchemaError{
			Input:    "schedule",
			Expected: fmt.Sprintf("date labels from column %d", len(cols)+1),
			Got:      "none",
		}
	}

	dates := make([]generic.TimePoint, 0, len(labels)-len(cols))
	for i := len(cols); i < len(labels); i++ {
		d, err := generic.ParseDate(labels[i])
		if err != nil {
			return Schema{}, &generic.SchemaError{
				Input:    "schedule",
				Expected: fmt.Sprintf("a date in column %d", i+1),
				Got:      fmt.Sprintf("%q", labels[i]),
			}
		}
		dates = append(dates, d)
	}
	return Schema{Input: "schedule", Columns: append(cols, dateColumns(dates)...)}, nil
}

// ParseSchedule flattens every sheet's data rows into schedule rows aligned
// with the schema's dates.
func ParseSchedule(g ScheduleGrid) (Schema, []schedule.Row, error) {
	schema, err := ScheduleSchema(g)
	if err != nil {
		return Schema{}, nil, err
	}

	var (
		numIdx  = schema.Index(ColNumber)
		lobIdx  = schema.Index(ColLOB)
		empIdx  = schema.Index(ColEmployeeID)
		workIdx = schema.Index(ColSchedWorkNum)
		nameIdx = schema.Index(ColSchedName)
		dateIdx = schema.DateIndexes()
	)

	var rows []schedule.Row
	for _, sheet := range g.Sheets {
		if len(sheet.Rows) <= schedulePreamble {
			continue
		}
		for _, raw := range sheet.Rows[schedulePreamble:] {
			if blank(raw) {
				continue
			}
			r := schedule.Row{
				Sheet:      sheet.Name,
				Number:     cell(raw, numIdx),
				LOB:        cell(raw, lobIdx),
				EmployeeID: cell(raw, empIdx),
				WorkNumber: cell(raw, workIdx),
				Name:       cell(raw, nameIdx),
				Cells:      make([]string, len(dateIdx)),
			}
			if r.EmployeeID == "" && r.WorkNumber == "" {
				continue
			}
			for j, idx := range dateIdx {
				r.Cells[j] = cell(raw, idx)
			}
			rows = append(rows, r)
		}
	}
	return schema, rows, nil
}
