/*
pipeline.go - One reconciliation run, inputs to report

PURPOSE:
  Wires the core modules together for one run:

    roster sheets    -> roster.Roster       (identity resolver)
    attendance grid  -> attendance schema   (date range from the header)
    schedule grid    -> schedule.Index
    all three        -> reconcile.Engine    -> reconcile.Grid
    grid             -> report aggregates

ERROR POLICY:
  Only three error classes stop a run (see generic.IsFatal):
  a malformed date-range header, an input in the wrong slot, and attendance
  and schedule periods that share no day. Everything else becomes a
  diagnostic on the Result.

CACHING:
  With a StageCache set, the reconciled grid is stored under the content key
  of the inputs, rules and holidays in the period. A repeated upload of the same files skips the
  engine and recomputes only the cheap aggregates.

SEE ALSO:
  - cache.go: content key and stage (de)serialization
  - generic/errors.go: fatal error classes
*/
package pipeline

import (
	"context"
	"log"
	"time"

	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/reconcile"
	"github.com/warp/attendance-engine/report"
	"github.com/warp/attendance-engine/roster"
	"github.com/warp/attendance-engine/schedule"
)

// Pipeline runs reconciliations with fixed rules.
type Pipeline struct {
	Rules    reconcile.Rules
	Calendar generic.HolidayCalendar
	Workers  int
	Cache    generic.StageCache // optional
}

// New creates a pipeline with no holidays, no cache and a sequential engine.
func New(rules reconcile.Rules) *Pipeline {
	return &Pipeline{
		Rules:    rules,
		Calendar: &generic.DefaultHolidayCalendar{},
		Workers:  1,
	}
}

// Result is everything one run produces.
type Result struct {
	ContentKey string
	Cached     bool
	Period     generic.Period

	Grid   *reconcile.Grid
	Ledger []report.Row

	Totals         report.Totals
	MultipleCounts []report.EmployeeCount
	MissedCounts   []report.EmployeeCount
	ByManager      []report.StatusCount
	ByDate         []report.StatusCount
	Remarks        []report.RemarkCount
	Hours          []report.EmployeeHours

	Duplicates  []report.Duplicate
	Diagnostics []reconcile.Diagnostic
}

// Run reconciles one set of inputs.
func (p *Pipeline) Run(ctx context.Context, in Inputs) (*Result, error) {
	if err := p.Rules.Validate(); err != nil {
		return nil, err
	}
	started := time.Now()

	key, err := ContentKey(in, p.Rules, p.holidaysIn(in))
	if err != nil {
		log.Printf("[Pipeline] Content key unavailable, caching disabled: %v", err)
		key = ""
	}

	stage, cached := p.loadStage(ctx, key)
	if !cached {
		if stage, err = p.reconcile(ctx, in); err != nil {
			return nil, err
		}
		p.storeStage(ctx, key, stage)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := buildResult(stage)
	res.ContentKey = key
	res.Cached = cached

	log.Printf("[Pipeline] Run %s: %d employees x %d days, %d diagnostics, %d duplicates, cached=%v (%v)",
		short(key), len(res.Grid.Rows), len(res.Grid.Dates), len(res.Diagnostics),
		len(res.Duplicates), cached, time.Since(started).Round(time.Millisecond))
	return res, nil
}

func (p *Pipeline) reconcile(ctx context.Context, in Inputs) (*reconcileStage, error) {
	prefix := p.Rules.WorkNumberPrefix

	// Roster
	active, inactive, err := ParseRoster(in.Roster)
	if err != nil {
		return nil, err
	}
	rost, warnings := roster.New(active, inactive, prefix)
	log.Printf("[Pipeline] Roster: %d records, %d duplicate keys dropped", rost.Len(), len(warnings))

	// Attendance
	attSchema, attRows, err := ParseAttendance(in.Attendance)
	if err != nil {
		return nil, err
	}
	attDates := attSchema.Dates()
	attPeriod, _ := generic.PeriodOf(attDates)

	// Schedule
	schedSchema, schedRows, err := ParseSchedule(in.Schedule)
	if err != nil {
		return nil, err
	}
	idx := schedule.Build(schedRows, schedSchema.Dates(), prefix)
	schedPeriod, _ := idx.Period()
	if !overlaps(attDates, idx) {
		return nil, &generic.IncompatibleRangesError{Attendance: attPeriod, Schedule: schedPeriod}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Reconcile
	employees := make([]reconcile.Employee, len(attRows))
	for i, r := range attRows {
		employees[i] = reconcile.Employee{
			Identity: rost.Resolve(r.WorkNumber, r.Name),
			Cells:    r.Cells,
		}
	}
	engine := &reconcile.Engine{Rules: p.Rules, Calendar: p.Calendar, Workers: p.Workers}
	grid := engine.Run(reconcile.Input{Dates: attDates, Employees: employees, Schedule: idx})
	grid.Diagnostics = append(reconcile.DuplicateDiagnostics(warnings), grid.Diagnostics...)

	return &reconcileStage{
		Period:     attPeriod,
		Grid:       grid,
		Duplicates: duplicates(rost, active, inactive, employees, schedRows, prefix),
	}, nil
}

func buildResult(st *reconcileStage) *Result {
	ledger := report.Explode(st.Grid)
	mul, mis := report.EmployeeCounts(st.Grid)
	return &Result{
		Period:         st.Period,
		Grid:           st.Grid,
		Ledger:         ledger,
		Totals:         report.Metrics(ledger),
		MultipleCounts: mul,
		MissedCounts:   mis,
		ByManager:      report.ByManager(ledger),
		ByDate:         report.ByDate(ledger),
		Remarks:        report.RemarkCounts(ledger),
		Hours:          report.WorkedHours(st.Grid),
		Duplicates:     st.Duplicates,
		Diagnostics:    st.Grid.Diagnostics,
	}
}

func overlaps(dates []generic.TimePoint, idx *schedule.Index) bool {
	for _, d := range dates {
		if idx.Has(d) {
			return true
		}
	}
	return false
}

func duplicates(rost *roster.Roster, active, inactive []roster.Record, employees []reconcile.Employee, schedRows []schedule.Row, prefix string) []report.Duplicate {
	var out []report.Duplicate

	rosterKeys := make([]report.KeyedRow, 0, len(active)+len(inactive))
	for _, set := range [][]roster.Record{active, inactive} {
		for _, r := range set {
			rosterKeys = append(rosterKeys, report.KeyedRow{Name: r.Name, Key: roster.NormalizeWorkNumber(r.WorkNumber, rost.Prefix())})
		}
	}
	out = append(out, report.FindDuplicates(report.SourceRoster, rosterKeys)...)

	attKeys := make([]report.KeyedRow, len(employees))
	for i, e := range employees {
		attKeys[i] = report.KeyedRow{Name: e.Identity.Name, Key: e.Identity.WorkNumber}
	}
	out = append(out, report.FindDuplicates(report.SourceAttendance, attKeys)...)

	schedKeys := make([]report.KeyedRow, len(schedRows))
	for i, r := range schedRows {
		schedKeys[i] = report.KeyedRow{Name: r.Name, Key: roster.NormalizeWorkNumber(r.WorkNumber, prefix)}
	}
	out = append(out, report.FindDuplicates(report.SourceSchedule, schedKeys)...)

	return out
}
