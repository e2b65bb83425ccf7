/*
loader.go - Spreadsheet readers for the three pipeline inputs

PURPOSE:
  Turns uploaded workbooks into the plain string grids the pipeline parses.
  The format is sniffed from the file signature, so callers never pass a
  filename:

    PK\x03\x04            -> .xlsx (excelize)
    D0 CF 11 E0 A1 B1 ... -> legacy .xls (extrame/xls)

  Date labels in the schedule header are often stored as Excel serial
  numbers behind a display format. They are converted to ISO dates here so
  the pipeline only ever sees text.

SEE ALSO:
  - pipeline/loader.go: the interfaces implemented here
  - export.go: the reverse direction
*/
package workbook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/pipeline"
)

// maxXLSRows bounds legacy sheet reads.
const maxXLSRows = 100000

var (
	xlsxMagic = []byte("PK\x03\x04")
	xlsMagic  = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// Loader reads xlsx and xls workbooks.
type Loader struct {
	// ScheduleSheets selects and orders schedule tabs. Empty means every tab.
	ScheduleSheets []string
}

// NewLoader returns a loader reading the default schedule tabs.
func NewLoader() *Loader {
	return &Loader{ScheduleSheets: pipeline.DefaultScheduleSheets}
}

var _ pipeline.Loader = (*Loader)(nil)

// sheet is one named tab of any supported format.
type sheet struct {
	name string
	rows [][]string
}

// book is a format-neutral workbook.
type book struct {
	sheets []sheet
}

func (b *book) find(name string) (sheet, bool) {
	for _, s := range b.sheets {
		if strings.EqualFold(strings.TrimSpace(s.name), name) {
			return s, true
		}
	}
	return sheet{}, false
}

func (b *book) names() []string {
	out := make([]string, len(b.sheets))
	for i, s := range b.sheets {
		out[i] = s.name
	}
	return out
}

// LoadAttendance reads the first tab. Its first non-empty cell is the
// date-range header.
func (l *Loader) LoadAttendance(ctx context.Context, r io.Reader) (pipeline.AttendanceGrid, error) {
	b, err := open(ctx, r)
	if err != nil {
		return pipeline.AttendanceGrid{}, err
	}
	if len(b.sheets) == 0 || len(b.sheets[0].rows) == 0 {
		return pipeline.AttendanceGrid{}, &generic.SchemaError{Input: "attendance", Expected: "a header row", Got: "empty workbook"}
	}
	rows := b.sheets[0].rows
	header := ""
	for _, c := range rows[0] {
		if c = strings.TrimSpace(c); c != "" {
			header = c
			break
		}
	}
	return pipeline.AttendanceGrid{Header: header, Rows: rows[1:]}, nil
}

// LoadSchedule reads the configured tabs in order, skipping absent ones.
func (l *Loader) LoadSchedule(ctx context.Context, r io.Reader) (pipeline.ScheduleGrid, error) {
	b, err := open(ctx, r)
	if err != nil {
		return pipeline.ScheduleGrid{}, err
	}

	var picked []sheet
	if len(l.ScheduleSheets) == 0 {
		picked = b.sheets
	} else {
		for _, name := range l.ScheduleSheets {
			if s, ok := b.find(name); ok {
				picked = append(picked, s)
			}
		}
	}
	if len(picked) == 0 {
		return pipeline.ScheduleGrid{}, &generic.SchemaError{
			Input:    "schedule",
			Expected: "tabs " + strings.Join(l.ScheduleSheets, ", "),
			Got:      "tabs " + strings.Join(b.names(), ", "),
		}
	}

	g := pipeline.ScheduleGrid{Sheets: make([]pipeline.ScheduleSheet, len(picked))}
	for i, s := range picked {
		g.Sheets[i] = pipeline.ScheduleSheet{Name: s.name, Rows: s.rows}
	}
	return g, nil
}

// LoadRoster reads the Active and Inactive tabs. Inactive may be absent.
func (l *Loader) LoadRoster(ctx context.Context, r io.Reader) (pipeline.RosterSheets, error) {
	b, err := open(ctx, r)
	if err != nil {
		return pipeline.RosterSheets{}, err
	}
	active, ok := b.find("Active")
	if !ok {
		return pipeline.RosterSheets{}, &generic.SchemaError{
			Input:    "roster",
			Expected: "an Active tab",
			Got:      "tabs " + strings.Join(b.names(), ", "),
		}
	}
	inactive, _ := b.find("Inactive")
	return pipeline.RosterSheets{Active: active.rows, Inactive: inactive.rows}, nil
}

// =============================================================================
// FORMAT DISPATCH
// =============================================================================

func open(ctx context.Context, r io.Reader) (*book, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: no file", generic.ErrUnsupportedFormat)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch {
	case bytes.HasPrefix(data, xlsxMagic):
		return openXLSX(data)
	case bytes.HasPrefix(data, xlsMagic):
		return openXLS(data)
	}
	return nil, fmt.Errorf("%w: not an xlsx or xls workbook", generic.ErrUnsupportedFormat)
}

func openXLSX(data []byte) (*book, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generic.ErrUnsupportedFormat, err)
	}
	defer func() { _ = f.Close() }()

	b := &book{}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", name, err)
		}
		if len(rows) > 0 {
			raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
			if err == nil && len(raw) > 0 {
				rows[0] = serialDates(rows[0], raw[0])
			}
		}
		b.sheets = append(b.sheets, sheet{name: name, rows: rows})
	}
	return b, nil
}

func openXLS(data []byte) (*book, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generic.ErrUnsupportedFormat, err)
	}
	b := &book{}
	for i := 0; i < wb.NumSheets(); i++ {
		ws := wb.GetSheet(i)
		if ws == nil {
			continue
		}
		var rows [][]string
		for j := 0; j <= int(ws.MaxRow) && j < maxXLSRows; j++ {
			row := ws.Row(j)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			cells := make([]string, row.LastCol())
			for k := range cells {
				cells[k] = row.Col(k)
			}
			rows = append(rows, cells)
		}
		b.sheets = append(b.sheets, sheet{name: ws.Name, rows: rows})
	}
	return b, nil
}

// serialDates replaces formatted header cells whose raw value is an Excel
// date serial with the ISO date. Unformatted numbers are left alone.
func serialDates(formatted, raw []string) []string {
	for i := range formatted {
		if i >= len(raw) {
			break
		}
		if formatted[i] == raw[i] {
			continue
		}
		if _, err := generic.ParseDate(formatted[i]); err == nil {
			continue
		}
		serial, err := strconv.ParseFloat(strings.TrimSpace(raw[i]), 64)
		if err != nil || serial < 1 {
			continue
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			continue
		}
		formatted[i] = generic.DayOf(t).String()
	}
	return formatted
}
