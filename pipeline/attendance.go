package pipeline

import (
	"fmt"
	"regexp"

	"github.com/warp/attendance-engine/generic"
)

// AttendanceGrid is the raw time-clock export. Header is the title cell that
// carries the covered date range; Rows are every row below it.
type AttendanceGrid struct {
	Header string
	Rows   [][]string
}

// Attendance identity columns, in export order.
const (
	ColName            = "Name"
	ColAttendanceGroup = "Attendance Group"
	ColDepartment      = "Department"
	ColWorkNumber      = "WB Work Number"
	ColPosition        = "Position"
	ColUserID          = "User ID"
)

// attendancePreamble is the number of title rows under the header.
const attendancePreamble = 2

// Header form: "<label>：<start> 至 <end>", fullwidth or ASCII colon.
var dateRangePattern = regexp.MustCompile(`[：:]\s*(\d{4}[-/]\d{1,2}[-/]\d{1,2})\s*至\s*(\d{4}[-/]\d{1,2}[-/]\d{1,2})\s*$`)

// ParseDateRange reads the covered period from the attendance header.
func ParseDateRange(header string) (generic.Period, error) {
	m := dateRangePattern.FindStringSubmatch(header)
	if m == nil {
		return generic.Period{}, &generic.DateRangeError{Header: header, Reason: "expected <label>：<start> 至 <end>"}
	}
	start, err := generic.ParseDate(m[1])
	if err != nil {
		return generic.Period{}, &generic.DateRangeError{Header: header, Reason: err.Error()}
	}
	end, err := generic.ParseDate(m[2])
	if err != nil {
		return generic.Period{}, &generic.DateRangeError{Header: header, Reason: err.Error()}
	}
	p, err := generic.NewPeriod(start, end)
	if err != nil {
		return generic.Period{}, &generic.DateRangeError{Header: header, Reason: "end date is before start date"}
	}
	return p, nil
}

// AttendanceSchema builds the six identity columns followed by one date
// column per day of the header range.
func AttendanceSchema(header string) (Schema, error) {
	period, err := ParseDateRange(header)
	if err != nil {
		return Schema{}, err
	}
	cols := identityColumns(ColName, ColAttendanceGroup, ColDepartment, ColWorkNumber, ColPosition, ColUserID)
	cols = append(cols, dateColumns(period.Days())...)
	return Schema{Input: "attendance", Columns: cols}, nil
}

// AttendanceRow is one employee of the export, cells aligned with the
// schema's dates.
type AttendanceRow struct {
	Name       string
	WorkNumber string
	Cells      []string
}

// ParseAttendance applies the schema to the grid. A row wider than the
// schema means the file is not an attendance export for that range.
func ParseAttendance(g AttendanceGrid) (Schema, []AttendanceRow, error) {
	schema, err := AttendanceSchema(g.Header)
	if err != nil {
		return Schema{}, nil, err
	}

	rows := g.Rows
	if len(rows) > attendancePreamble {
		rows = rows[attendancePreamble:]
	} else {
		rows = nil
	}

	nameIdx := schema.Index(ColName)
	workIdx := schema.Index(ColWorkNumber)
	dateIdx := schema.DateIndexes()

	out := make([]AttendanceRow, 0, len(rows))
	for i, raw := range rows {
		if blank(raw) {
			continue
		}
		if w := len(trimTrailing(raw)); w > schema.Width() {
			return Schema{}, nil, &generic.SchemaError{
				Input:    schema.Input,
				Expected: fmt.Sprintf("%d columns", schema.Width()),
				Got:      fmt.Sprintf("%d columns on data row %d", w, i+1),
			}
		}
		r := AttendanceRow{
			Name:       cell(raw, nameIdx),
			WorkNumber: cell(raw, workIdx),
			Cells:      make([]string, len(dateIdx)),
		}
		for j, idx := range dateIdx {
			// Multi-line punches are kept verbatim; only the ends are trimmed.
			r.Cells[j] = cell(raw, idx)
		}
		out = append(out, r)
	}
	return schema, out, nil
}
