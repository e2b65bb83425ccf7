package workbook

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/warp/attendance-engine/pipeline"
	"github.com/warp/attendance-engine/reconcile"
)

// Sheet names of the exported workbook.
const (
	SheetAttendance  = "Attendance"
	SheetLedger      = "Ledger"
	SheetSummary     = "Summary"
	SheetDiagnostics = "Diagnostics"
	SheetDuplicates  = "Duplicates"
)

const headerFill = "#4472C4"

var ledgerHeader = []string{
	"Date", "Employee Name", "Employee ID", "WB Work Number", "Manager", "LOB",
	"Shift", "Site", "Employer", "Schedule", "Time In", "Time Out", "Remarks",
}

// exporter caches one fill style per color.
type exporter struct {
	f      *excelize.File
	header int
	fills  map[string]int
}

// Export writes the run as an xlsx workbook: the colored attendance grid,
// the long-form ledger, the summary counts, diagnostics and duplicates.
func Export(w io.Writer, res *pipeline.Result) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerFill}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	x := &exporter{f: f, header: header, fills: make(map[string]int)}

	if err := f.SetSheetName("Sheet1", SheetAttendance); err != nil {
		return err
	}
	steps := []func(*pipeline.Result) error{
		x.attendance, x.ledger, x.summary, x.diagnostics, x.duplicates,
	}
	for _, step := range steps {
		if err := step(res); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)
	return f.Write(w)
}

func (x *exporter) fill(color string) (int, error) {
	if id, ok := x.fills[color]; ok {
		return id, nil
	}
	id, err := x.f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return 0, err
	}
	x.fills[color] = id
	return id, nil
}

func (x *exporter) newSheet(name string) error {
	_, err := x.f.NewSheet(name)
	return err
}

// row writes values starting at column A of the given 1-based row.
func (x *exporter) row(sheet string, r int, values ...interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, r)
	if err != nil {
		return err
	}
	return x.f.SetSheetRow(sheet, cell, &values)
}

func (x *exporter) headerRow(sheet string, names ...string) error {
	values := make([]interface{}, len(names))
	for i, n := range names {
		values[i] = n
	}
	if err := x.row(sheet, 1, values...); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(names), 1)
	if err != nil {
		return err
	}
	return x.f.SetCellStyle(sheet, "A1", last, x.header)
}

// =============================================================================
// SHEETS
// =============================================================================

func (x *exporter) attendance(res *pipeline.Result) error {
	const sheet = SheetAttendance
	grid := res.Grid
	if grid == nil {
		return x.headerRow(sheet, "Employee Name")
	}

	names := []string{"Employee Name", "WB Work Number", "Employee ID", "Manager", "LOB", "Shift", "Site", "Employer"}
	identityCols := len(names)
	for _, d := range grid.Dates {
		names = append(names, d.String())
	}
	if err := x.headerRow(sheet, names...); err != nil {
		return err
	}

	for i, gr := range grid.Rows {
		r := i + 2
		id := gr.Identity
		values := []interface{}{id.Name, id.WorkNumber, id.EmployeeID(), id.Manager(), "", "", "", ""}
		if p := id.Profile; p != nil {
			values[4], values[5], values[6], values[7] = p.LOB, p.Shift, p.Site, p.Employer
		}
		for _, c := range gr.Cells {
			values = append(values, c.Text())
		}
		if err := x.row(sheet, r, values...); err != nil {
			return err
		}
		for j, c := range gr.Cells {
			if err := x.colorCell(sheet, identityCols+j+1, r, c.Category()); err != nil {
				return err
			}
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(names))
	if err != nil {
		return err
	}
	if err := x.f.SetColWidth(sheet, "A", "A", 24); err != nil {
		return err
	}
	firstDate, err := excelize.ColumnNumberToName(identityCols + 1)
	if err != nil {
		return err
	}
	if len(grid.Dates) > 0 {
		if err := x.f.SetColWidth(sheet, firstDate, lastCol, 16); err != nil {
			return err
		}
	}
	return x.f.AutoFilter(sheet, "A1:"+lastCol+"1", nil)
}

func (x *exporter) colorCell(sheet string, col, row int, cat reconcile.Category) error {
	color := cat.Color()
	if color == "" {
		return nil
	}
	style, err := x.fill(color)
	if err != nil {
		return err
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return x.f.SetCellStyle(sheet, cell, cell, style)
}

func (x *exporter) ledger(res *pipeline.Result) error {
	const sheet = SheetLedger
	if err := x.newSheet(sheet); err != nil {
		return err
	}
	if err := x.headerRow(sheet, ledgerHeader...); err != nil {
		return err
	}
	remarksCol := len(ledgerHeader)
	for i, lr := range res.Ledger {
		r := i + 2
		if err := x.row(sheet, r,
			lr.Date.String(), lr.Name, lr.EmployeeID, lr.WorkNumber, lr.Manager, lr.LOB,
			lr.Shift, lr.Site, lr.Employer, lr.Schedule, lr.TimeIn, lr.TimeOut, lr.Remarks,
		); err != nil {
			return err
		}
		if err := x.colorCell(sheet, remarksCol, r, lr.Category); err != nil {
			return err
		}
	}
	if err := x.f.SetColWidth(sheet, "A", "M", 14); err != nil {
		return err
	}
	last, err := excelize.ColumnNumberToName(len(ledgerHeader))
	if err != nil {
		return err
	}
	return x.f.AutoFilter(sheet, "A1:"+last+"1", nil)
}

func (x *exporter) summary(res *pipeline.Result) error {
	const sheet = SheetSummary
	if err := x.newSheet(sheet); err != nil {
		return err
	}
	if err := x.headerRow(sheet, "Metric", "Value"); err != nil {
		return err
	}
	t := res.Totals
	lines := [][]interface{}{
		{"Period", fmt.Sprintf("%s to %s", res.Period.Start, res.Period.End)},
		{"Missed Punch Count", t.Missed},
		{"Multiple Punches Count", t.Multiple},
		{"Absent Count", t.Absent},
		{"Late Count", t.Late},
		{"Overtime Count", t.Overtime},
		{"Coded Days", t.Coded},
	}
	r := 2
	for _, line := range lines {
		if err := x.row(sheet, r, line...); err != nil {
			return err
		}
		r++
	}

	r++
	if err := x.row(sheet, r, "Employee", "Multiple Logs Count", "", "Employee", "Missed Punch Count"); err != nil {
		return err
	}
	r++
	for i := 0; i < len(res.MultipleCounts) || i < len(res.MissedCounts); i++ {
		values := make([]interface{}, 5)
		if i < len(res.MultipleCounts) {
			values[0], values[1] = res.MultipleCounts[i].Name, res.MultipleCounts[i].Count
		}
		if i < len(res.MissedCounts) {
			values[3], values[4] = res.MissedCounts[i].Name, res.MissedCounts[i].Count
		}
		if err := x.row(sheet, r, values...); err != nil {
			return err
		}
		r++
	}
	return x.f.SetColWidth(sheet, "A", "E", 24)
}

func (x *exporter) diagnostics(res *pipeline.Result) error {
	const sheet = SheetDiagnostics
	if err := x.newSheet(sheet); err != nil {
		return err
	}
	if err := x.headerRow(sheet, "Kind", "WB Work Number", "Name", "Date", "Raw", "Message"); err != nil {
		return err
	}
	for i, d := range res.Diagnostics {
		if err := x.row(sheet, i+2, string(d.Kind), d.WorkNumber, d.Name, d.DateString(), d.Raw, d.Message); err != nil {
			return err
		}
	}
	return nil
}

func (x *exporter) duplicates(res *pipeline.Result) error {
	const sheet = SheetDuplicates
	if err := x.newSheet(sheet); err != nil {
		return err
	}
	if err := x.headerRow(sheet, "Source", "Name", "WB Work Number"); err != nil {
		return err
	}
	for i, d := range res.Duplicates {
		if err := x.row(sheet, i+2, string(d.Source), d.Name, d.WorkNumber); err != nil {
			return err
		}
	}
	return nil
}

// LedgerHeader returns the ledger sheet's column names.
func LedgerHeader() []string {
	return append([]string(nil), ledgerHeader...)
}
