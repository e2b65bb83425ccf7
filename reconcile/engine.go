/*
engine.go - Per-cell attendance reconciliation

PURPOSE:
  Overlays each employee-day punch with the schedule entry for that day and
  produces a tagged cell. The passes run in a fixed order:

    0. day kind      (excused code, weekend or holiday makes empty cells Off)
    1. code overlay  (VL, NCNS, ...)
    2. punch shape   (MIS, MUL)
    3. absence       (no log against a shift or free-text schedule)
    4. time deltas   (L, OT against the scheduled shift)

  Every cell is a pure function of (raw punch, schedule entry, date, rules),
  so rows can be processed in any order and in parallel.

SEE ALSO:
  - punch/punch.go: shape classification
  - schedule/schedule.go: entry lookup
  - report/: aggregation over the resulting grid
*/
package reconcile

import (
	"errors"
	"sync"

	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/punch"
	"github.com/warp/attendance-engine/roster"
	"github.com/warp/attendance-engine/schedule"
)

// =============================================================================
// GRID
// =============================================================================

// Cell is one reconciled employee-day.
type Cell struct {
	Date     generic.TimePoint
	Punch    punch.Cell
	Schedule schedule.Entry
	Tags     []Tag
	Flags    TagSet
}

func (c *Cell) tag(t Tag, flags TagSet) {
	for _, existing := range c.Tags {
		if existing == t {
			c.Flags |= flags
			return
		}
	}
	c.Tags = append(c.Tags, t)
	c.Flags |= flags
}

// Remarks returns the tags rendered in order, e.g. "(MUL) (L)".
func (c Cell) Remarks() string { return JoinTags(c.Tags) }

// Text renders the cell the way the reconciled sheet shows it: the punch
// followed by its tags, or the bare tags when there is no punch.
func (c Cell) Text() string {
	punchText := c.Punch.Render()
	remarks := c.Remarks()
	switch {
	case punchText == "":
		return remarks
	case remarks == "":
		return punchText
	}
	return punchText + " " + remarks
}

// Category returns the display class of the cell.
func (c Cell) Category() Category { return Classify(c.Flags) }

// Row is one employee's reconciled days, aligned with Grid.Dates.
type Row struct {
	Identity roster.Identity
	Cells    []Cell
}

// Grid is the output of a run: rows in attendance order, columns in date order.
type Grid struct {
	Dates       []generic.TimePoint
	Rows        []Row
	Diagnostics []Diagnostic
}

// Employee is one attendance row ready for reconciliation. Cells are aligned
// with Input.Dates; a short slice leaves trailing days empty.
type Employee struct {
	Identity roster.Identity
	Cells    []string
}

// Input bundles what the engine reads. Schedule may be nil, in which case
// every day is unscheduled.
type Input struct {
	Dates     []generic.TimePoint
	Employees []Employee
	Schedule  *schedule.Index
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine applies Rules to every cell of an Input.
type Engine struct {
	Rules    Rules
	Calendar generic.HolidayCalendar
	Workers  int
}

// NewEngine creates an engine with the default holiday calendar and a
// sequential pass.
func NewEngine(rules Rules) *Engine {
	return &Engine{
		Rules:    rules,
		Calendar: &generic.DefaultHolidayCalendar{},
		Workers:  1,
	}
}

// Run reconciles every employee-day. Missing schedule dates and unresolved
// identities become diagnostics; nothing here is fatal.
func (e *Engine) Run(in Input) *Grid {
	grid := &Grid{
		Dates: in.Dates,
		Rows:  make([]Row, len(in.Employees)),
	}

	if in.Schedule != nil {
		for _, d := range in.Dates {
			if !in.Schedule.Has(d) {
				grid.Diagnostics = append(grid.Diagnostics, MissingScheduleDiagnostic(d))
			}
		}
	}

	rowDiags := make([][]Diagnostic, len(in.Employees))
	process := func(i int) {
		grid.Rows[i], rowDiags[i] = e.reconcileRow(in.Employees[i], in.Dates, in.Schedule)
	}

	workers := e.Workers
	if workers > len(in.Employees) {
		workers = len(in.Employees)
	}
	if workers <= 1 {
		for i := range in.Employees {
			process(i)
		}
	} else {
		jobs := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range jobs {
					process(i)
				}
			}()
		}
		for i := range in.Employees {
			jobs <- i
		}
		close(jobs)
		wg.Wait()
	}

	// Row order, not completion order.
	for _, diags := range rowDiags {
		grid.Diagnostics = append(grid.Diagnostics, diags...)
	}
	return grid
}

func (e *Engine) reconcileRow(emp Employee, dates []generic.TimePoint, idx *schedule.Index) (Row, []Diagnostic) {
	row := Row{Identity: emp.Identity, Cells: make([]Cell, len(dates))}

	var diags []Diagnostic
	if !emp.Identity.Resolved() {
		diags = append(diags, unresolvedDiagnostic(emp.Identity))
	}

	for j, date := range dates {
		raw := ""
		if j < len(emp.Cells) {
			raw = emp.Cells[j]
		}
		var entry schedule.Entry
		if idx != nil {
			entry = idx.Lookup(emp.Identity.WorkNumber, emp.Identity.EmployeeID(), date)
		}
		cell, diag := e.Reconcile(emp.Identity, date, raw, entry)
		row.Cells[j] = cell
		if diag != nil {
			diags = append(diags, *diag)
		}
	}
	return row, diags
}

// Reconcile annotates a single employee-day. The returned diagnostic is
// non-nil for unrecognized punches and unparseable shift or punch times.
func (e *Engine) Reconcile(id roster.Identity, date generic.TimePoint, raw string, entry schedule.Entry) (Cell, *Diagnostic) {
	cell := Cell{
		Date:     date,
		Schedule: entry,
		Punch:    punch.Normalize(raw, e.dayKind(date, entry), e.Rules.NoiseToken),
	}

	var diag *Diagnostic

	if entry.Kind == schedule.EntryCode {
		cell.tag(CodeTag(entry.Code.Code), CodeFlags(entry.Code.Code))
	}

	switch cell.Punch.Kind {
	case punch.KindMissed:
		cell.tag(TagMissed, FlagMissed)
	case punch.KindMultiple:
		cell.tag(TagMultiple, FlagMultiple)
	case punch.KindUnrecognized:
		diag = &Diagnostic{
			Kind:       DiagUnrecognizedPunch,
			WorkNumber: id.WorkNumber,
			Name:       id.Name,
			Date:       date,
			Raw:        raw,
			Message:    "punch text matches no known shape",
		}
	}

	if cell.Punch.Kind == punch.KindNoLog &&
		(entry.Kind == schedule.EntryShift || entry.Kind == schedule.EntryText) {
		cell.tag(TagAbsent, FlagAbsent)
	}

	if entry.Kind == schedule.EntryShift && cell.Punch.HasRange() {
		tags, err := e.deltaTags(id, date, entry, cell.Punch)
		if err != nil {
			var cerr *generic.CellError
			if errors.As(err, &cerr) {
				d := cellParseDiagnostic(id, date, cerr)
				diag = &d
			}
		}
		for _, t := range tags {
			cell.tag(t, deltaFlags[t])
		}
	}

	return cell, diag
}

func (e *Engine) dayKind(date generic.TimePoint, entry schedule.Entry) punch.DayKind {
	switch {
	case entry.Excused():
		return punch.RestDay
	case entry.Kind == schedule.EntryShift:
		return punch.Workday
	case !date.IsWorkdayWithHolidays(e.Calendar, e.Rules.CompanyID):
		return punch.RestDay
	}
	return punch.Workday
}

func (e *Engine) deltaTags(id roster.Identity, date generic.TimePoint, entry schedule.Entry, p punch.Cell) ([]Tag, error) {
	cellErr := func(operand string, err error) error {
		return &generic.CellError{WorkNumber: id.WorkNumber, Date: date, Operand: operand, Err: err}
	}

	schedIn, schedOut, err := entry.Shift.Clock()
	if err != nil {
		return nil, cellErr(entry.Raw, err)
	}
	actualIn, err := generic.Parse24h(p.In)
	if err != nil {
		return nil, cellErr(p.In, err)
	}
	actualOut, err := generic.Parse24h(p.Out)
	if err != nil {
		return nil, cellErr(p.Out, err)
	}
	return e.Rules.DeltaTags(schedIn, schedOut, actualIn, actualOut), nil
}
