package report

import (
	"sort"

	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/reconcile"
)

// =============================================================================
// TOTALS
// =============================================================================

// Totals counts cells carrying each flag. A cell tagged (OT) (L) counts once
// toward Overtime and once toward Late.
type Totals struct {
	Cells     int
	Missed    int
	Multiple  int
	Absent    int
	Late      int
	Overtime  int
	Undertime int
	Coded     int
}

// Metrics computes grid-wide totals over ledger rows.
func Metrics(rows []Row) Totals {
	var t Totals
	for _, r := range rows {
		t.Cells++
		count := func(f reconcile.TagSet, n *int) {
			if r.Flags.Has(f) {
				*n++
			}
		}
		count(reconcile.FlagMissed, &t.Missed)
		count(reconcile.FlagMultiple, &t.Multiple)
		count(reconcile.FlagAbsent, &t.Absent)
		count(reconcile.FlagLate, &t.Late)
		count(reconcile.FlagOvertime, &t.Overtime)
		count(reconcile.FlagUndertime, &t.Undertime)
		count(reconcile.FlagCode, &t.Coded)
	}
	return t
}

// =============================================================================
// PER EMPLOYEE
// =============================================================================

// EmployeeCount is one employee's number of flagged days.
type EmployeeCount struct {
	Name       string
	WorkNumber string
	Count      int
}

// EmployeeCounts ranks every employee by MUL days and by MIS days, highest
// first. Ties keep attendance order.
func EmployeeCounts(grid *reconcile.Grid) (mul, mis []EmployeeCount) {
	if grid == nil {
		return nil, nil
	}
	mul = make([]EmployeeCount, 0, len(grid.Rows))
	mis = make([]EmployeeCount, 0, len(grid.Rows))
	for _, row := range grid.Rows {
		m := EmployeeCount{Name: row.Identity.Name, WorkNumber: row.Identity.WorkNumber}
		s := m
		for _, c := range row.Cells {
			if c.Flags.Has(reconcile.FlagMultiple) {
				m.Count++
			}
			if c.Flags.Has(reconcile.FlagMissed) {
				s.Count++
			}
		}
		mul = append(mul, m)
		mis = append(mis, s)
	}
	rank := func(counts []EmployeeCount) {
		sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	}
	rank(mul)
	rank(mis)
	return mul, mis
}

// =============================================================================
// BREAKDOWNS
// =============================================================================

// StatusCount is the number of cells with one status code for one key
// (a manager or an ISO date).
type StatusCount struct {
	Key    string
	Status reconcile.TagSet
	Count  int
}

// Label returns the rendered status tag, e.g. "(ABSENT)".
func (s StatusCount) Label() string { return reconcile.FlagLabel(s.Status) }

// ByManager returns managers × {ABSENT, MUL, MIS, L}, zero-filled, managers
// in ascending order. Rows without a manager are left out.
func ByManager(rows []Row) []StatusCount {
	return breakdown(rows, func(r Row) (string, bool) {
		return r.Manager, r.Manager != ""
	})
}

// ByDate returns dates × {ABSENT, MUL, MIS, L}, zero-filled, in date order.
func ByDate(rows []Row) []StatusCount {
	return breakdown(rows, func(r Row) (string, bool) {
		return r.Date.String(), !r.Date.IsZero()
	})
}

func breakdown(rows []Row, keyOf func(Row) (string, bool)) []StatusCount {
	type cell struct {
		key    string
		status reconcile.TagSet
	}
	counts := make(map[cell]int)
	seen := make(map[string]bool)
	var keys []string
	for _, r := range rows {
		key, ok := keyOf(r)
		if !ok {
			continue
		}
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
		for _, status := range reconcile.StatusCodes {
			if r.Flags.Has(status) {
				counts[cell{key, status}]++
			}
		}
	}
	sort.Strings(keys)

	out := make([]StatusCount, 0, len(keys)*len(reconcile.StatusCodes))
	for _, key := range keys {
		for _, status := range reconcile.StatusCodes {
			out = append(out, StatusCount{Key: key, Status: status, Count: counts[cell{key, status}]})
		}
	}
	return out
}

// RemarkCount is the number of ledger rows sharing one remark string.
type RemarkCount struct {
	Remarks string
	Count   int
}

// RemarkCounts tallies distinct non-empty remarks, most frequent first.
// Ties keep first-seen order.
func RemarkCounts(rows []Row) []RemarkCount {
	index := make(map[string]int)
	var out []RemarkCount
	for _, r := range rows {
		if r.Remarks == "" {
			continue
		}
		i, ok := index[r.Remarks]
		if !ok {
			i = len(out)
			index[r.Remarks] = i
			out = append(out, RemarkCount{Remarks: r.Remarks})
		}
		out[i].Count++
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// =============================================================================
// WORKED HOURS
// =============================================================================

// EmployeeHours is the time between first and last punch summed over the
// days that have both.
type EmployeeHours struct {
	Name       string
	WorkNumber string
	Days       int
	Hours      generic.Amount
}

// WorkedHours sums first-to-last punch spans per employee. Spans crossing
// midnight wrap to the next day. Cells whose times do not parse are skipped.
func WorkedHours(grid *reconcile.Grid) []EmployeeHours {
	if grid == nil {
		return nil
	}
	out := make([]EmployeeHours, 0, len(grid.Rows))
	for _, row := range grid.Rows {
		minutes, days := 0, 0
		for _, c := range row.Cells {
			if !c.Punch.HasRange() {
				continue
			}
			start, err := generic.Parse24h(c.Punch.In)
			if err != nil {
				continue
			}
			end, err := generic.Parse24h(c.Punch.Out)
			if err != nil {
				continue
			}
			minutes += start.MinutesUntil(end)
			days++
		}
		out = append(out, EmployeeHours{
			Name:       row.Identity.Name,
			WorkNumber: row.Identity.WorkNumber,
			Days:       days,
			Hours:      generic.MinutesToHours(minutes).Round(2),
		})
	}
	return out
}
