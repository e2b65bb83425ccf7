/*
Package schedule indexes the published shift schedule by employee and day.

PURPOSE:
  Each schedule cell is one of:
    - a 12-hour shift range "9:00am - 6:00pm"     -> EntryShift
    - a code from the vocabulary (VL, NCNS, OFF)  -> EntryCode
    - empty                                       -> EntryUnscheduled
    - anything else                               -> EntryText
  Whitespace is stripped from every cell at load time, so "9:00 am-6:00 pm"
  and "9:00am-6:00pm" are the same entry.

LOOKUP:
  The index is keyed by (canonical work number, day) and by
  (employee id, day). Lookup tries the work number first and falls back to
  the employee id; a miss is EntryUnscheduled. Both lookups are map reads.

DUPLICATES:
  When two schedule rows share a key the first row wins. Duplicates are
  reported by report.FindDuplicates, not filtered here.

SEE ALSO:
  - codes.go: Built-in vocabulary
  - pipeline/schema.go: Builds Rows from the schedule sheets
*/
package schedule

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/roster"
)

// =============================================================================
// ENTRY
// =============================================================================

type EntryKind int

const (
	EntryUnscheduled EntryKind = iota
	EntryShift
	EntryCode
	EntryText
)

func (k EntryKind) String() string {
	switch k {
	case EntryShift:
		return "shift"
	case EntryCode:
		return "code"
	case EntryText:
		return "text"
	default:
		return "unscheduled"
	}
}

// ShiftRange keeps the scheduled in/out text; Clock parses it on demand so a
// malformed time fails only the cell that uses it.
type ShiftRange struct {
	InText  string
	OutText string
}

// Clock parses both ends as 12-hour times.
func (s ShiftRange) Clock() (in, out generic.ClockTime, err error) {
	if in, err = generic.Parse12h(s.InText); err != nil {
		return 0, 0, fmt.Errorf("scheduled in %q: %w", s.InText, err)
	}
	if out, err = generic.Parse12h(s.OutText); err != nil {
		return 0, 0, fmt.Errorf("scheduled out %q: %w", s.OutText, err)
	}
	return in, out, nil
}

// Entry is the schedule for one employee-day.
type Entry struct {
	Kind  EntryKind
	Shift ShiftRange
	Code  generic.CodeInfo
	Raw   string // whitespace-stripped cell text
}

var shiftPattern = regexp.MustCompile(`^(\d{1,2}:\d{2}[AaPp][Mm])[-–~](\d{1,2}:\d{2}[AaPp][Mm])$`)

// ParseEntry classifies one schedule cell.
func ParseEntry(raw string) Entry {
	text := stripSpace(raw)
	if text == "" {
		return Entry{Kind: EntryUnscheduled}
	}
	if info, ok := generic.LookupCode(text); ok {
		return Entry{Kind: EntryCode, Code: info, Raw: text}
	}
	if m := shiftPattern.FindStringSubmatch(text); m != nil {
		return Entry{Kind: EntryShift, Shift: ShiftRange{InText: m[1], OutText: m[2]}, Raw: text}
	}
	return Entry{Kind: EntryText, Raw: text}
}

// Excused reports whether an empty punch under this entry is a rest day.
func (e Entry) Excused() bool {
	return e.Kind == EntryCode && e.Code.Class.Excused()
}

// Scheduled reports whether the cell had any content.
func (e Entry) Scheduled() bool {
	return e.Kind != EntryUnscheduled
}

func (e Entry) String() string {
	return e.Raw
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// =============================================================================
// INDEX
// =============================================================================

// Row is one employee line of the concatenated schedule sheets. Cells are
// aligned with the dates passed to Build.
type Row struct {
	Sheet      string
	Number     string
	LOB        string
	EmployeeID string
	WorkNumber string // raw; canonicalized by Build
	Name       string
	Cells      []string
}

type indexKey struct {
	id  string
	day string
}

// Index is the read-only (employee, day) -> Entry lookup for one run.
type Index struct {
	dates  []generic.TimePoint
	days   map[string]bool
	byWork map[indexKey]Entry
	byEmp  map[indexKey]Entry
	rows   []Row
}

// Build indexes rows against dates. prefix canonicalizes work numbers the
// same way the roster does.
func Build(rows []Row, dates []generic.TimePoint, prefix string) *Index {
	idx := &Index{
		dates:  append([]generic.TimePoint(nil), dates...),
		days:   make(map[string]bool, len(dates)),
		byWork: make(map[indexKey]Entry),
		byEmp:  make(map[indexKey]Entry),
		rows:   make([]Row, 0, len(rows)),
	}
	for _, d := range dates {
		idx.days[d.String()] = true
	}

	for _, row := range rows {
		row.WorkNumber = roster.NormalizeWorkNumber(row.WorkNumber, prefix)
		row.EmployeeID = strings.TrimSpace(row.EmployeeID)
		idx.rows = append(idx.rows, row)

		for i, d := range dates {
			if i >= len(row.Cells) {
				break
			}
			entry := ParseEntry(row.Cells[i])
			day := d.String()
			if row.WorkNumber != "" {
				k := indexKey{id: row.WorkNumber, day: day}
				if _, exists := idx.byWork[k]; !exists {
					idx.byWork[k] = entry
				}
			}
			if row.EmployeeID != "" {
				k := indexKey{id: row.EmployeeID, day: day}
				if _, exists := idx.byEmp[k]; !exists {
					idx.byEmp[k] = entry
				}
			}
		}
	}
	return idx
}

// Lookup returns the entry for an employee-day. The work number is tried
// first, then the employee id.
func (idx *Index) Lookup(workNumber, employeeID string, date generic.TimePoint) Entry {
	day := date.String()
	if workNumber != "" {
		if e, ok := idx.byWork[indexKey{id: workNumber, day: day}]; ok {
			return e
		}
	}
	if employeeID != "" {
		if e, ok := idx.byEmp[indexKey{id: employeeID, day: day}]; ok {
			return e
		}
	}
	return Entry{Kind: EntryUnscheduled}
}

// Knows reports whether any schedule row carries this employee.
func (idx *Index) Knows(workNumber, employeeID string) bool {
	for _, d := range idx.dates {
		if workNumber != "" {
			if _, ok := idx.byWork[indexKey{id: workNumber, day: d.String()}]; ok {
				return true
			}
		}
		if employeeID != "" {
			if _, ok := idx.byEmp[indexKey{id: employeeID, day: d.String()}]; ok {
				return true
			}
		}
	}
	return false
}

// Has reports whether the schedule has a column for date.
func (idx *Index) Has(date generic.TimePoint) bool {
	return idx.days[date.String()]
}

// Dates returns the schedule's date columns in sheet order.
func (idx *Index) Dates() []generic.TimePoint {
	return append([]generic.TimePoint(nil), idx.dates...)
}

// Period returns the range spanned by the date columns.
func (idx *Index) Period() (generic.Period, bool) {
	return generic.PeriodOf(idx.dates)
}

// Rows returns the indexed rows with canonical work numbers.
func (idx *Index) Rows() []Row {
	return append([]Row(nil), idx.rows...)
}
