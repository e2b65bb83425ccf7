/*
ledger.go - Long-form ledger of reconciled cells

PURPOSE:
  Flattens a reconciled grid into one row per (employee, date) carrying the
  roster enrichment, the split punch times and the rendered remarks. Every
  dashboard aggregate and the spreadsheet export read this ledger.

SEE ALSO:
  - metrics.go: counts over ledger rows
  - reconcile/engine.go: produces the grid
*/
package report

import (
	"strings"

	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/punch"
	"github.com/warp/attendance-engine/reconcile"
)

// Row is one employee-day of the ledger.
type Row struct {
	Date generic.TimePoint

	Name         string
	WorkNumber   string
	EmployeeID   string
	Manager      string
	LOB          string
	Shift        string
	Site         string
	Employer     string
	RAG          string
	WorkLocation string
	Status       string
	Resolved     bool

	Schedule string
	TimeIn   string
	TimeOut  string
	Remarks  string

	Flags    reconcile.TagSet
	Category reconcile.Category
}

// Explode emits every cell of the grid, employee-major then date order.
func Explode(grid *reconcile.Grid) []Row {
	if grid == nil {
		return nil
	}
	rows := make([]Row, 0, len(grid.Rows)*len(grid.Dates))
	for _, gr := range grid.Rows {
		base := Row{
			Name:       gr.Identity.Name,
			WorkNumber: gr.Identity.WorkNumber,
			Resolved:   gr.Identity.Resolved(),
		}
		if base.WorkNumber == "" {
			base.WorkNumber = gr.Identity.RawWorkNumber
		}
		if p := gr.Identity.Profile; p != nil {
			base.EmployeeID = p.EmployeeID
			base.Manager = p.Manager
			base.LOB = p.LOB
			base.Shift = p.Shift
			base.Site = p.Site
			base.Employer = p.Employer
			base.RAG = p.RAG
			base.WorkLocation = p.WorkLocation
			base.Status = string(p.Status)
		}

		for _, cell := range gr.Cells {
			r := base
			r.Date = cell.Date
			r.Schedule = cell.Schedule.Raw
			r.Flags = cell.Flags
			r.Category = cell.Category()
			r.TimeIn, r.TimeOut, r.Remarks = splitCell(cell)
			rows = append(rows, r)
		}
	}
	return rows
}

func splitCell(cell reconcile.Cell) (in, out, remarks string) {
	remarks = cell.Remarks()
	switch cell.Punch.Kind {
	case punch.KindRange, punch.KindMultiple:
		return cell.Punch.In, cell.Punch.Out, remarks
	case punch.KindMissed:
		return cell.Punch.In, "", remarks
	case punch.KindUnrecognized:
		// Keep the unparsed text visible next to any tags.
		return "", "", strings.TrimSpace(cell.Punch.Render() + " " + remarks)
	}
	return "", "", remarks
}

// =============================================================================
// FILTER
// =============================================================================

// Filter selects ledger rows by roster attributes. Each field is a set of
// accepted values; an empty set accepts everything.
type Filter struct {
	Employees []string
	LOBs      []string
	Shifts    []string
	Sites     []string
	Managers  []string
	Employers []string
}

// Empty reports whether the filter accepts every row.
func (f Filter) Empty() bool {
	return len(f.Employees)+len(f.LOBs)+len(f.Shifts)+len(f.Sites)+len(f.Managers)+len(f.Employers) == 0
}

// Match reports whether r passes every non-empty set.
func (f Filter) Match(r Row) bool {
	return in(f.Employees, r.Name) &&
		in(f.LOBs, r.LOB) &&
		in(f.Shifts, r.Shift) &&
		in(f.Sites, r.Site) &&
		in(f.Managers, r.Manager) &&
		in(f.Employers, r.Employer)
}

// Apply returns the matching rows in their original order.
func (f Filter) Apply(rows []Row) []Row {
	if f.Empty() {
		return rows
	}
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

func in(set []string, v string) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
