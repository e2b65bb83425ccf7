package generic

// =============================================================================
// PERIOD - The date range covered by one attendance export or schedule
// =============================================================================

// Period is an inclusive range of calendar days.
//
// Examples:
//   - Attendance export header "统计日期：2024-03-01 至 2024-03-15"
//   - Schedule sheet with date columns 2024-03-01 .. 2024-03-31
type Period struct {
	Start TimePoint
	End   TimePoint
}

// NewPeriod validates that end is not before start.
func NewPeriod(start, end TimePoint) (Period, error) {
	if end.Before(start) {
		return Period{}, ErrInvalidPeriod
	}
	return Period{Start: start, End: end}, nil
}

// PeriodOf returns the smallest period covering all dates. ok is false for
// an empty slice.
func PeriodOf(dates []TimePoint) (p Period, ok bool) {
	for i, d := range dates {
		if i == 0 || d.Before(p.Start) {
			p.Start = d
		}
		if i == 0 || d.After(p.End) {
			p.End = d
		}
	}
	return p, len(dates) > 0
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Overlaps reports whether the two periods share at least one day.
func (p Period) Overlaps(other Period) bool {
	return p.Start.BeforeOrEqual(other.End) && other.Start.BeforeOrEqual(p.End)
}

// Days returns all days in the period as a slice of TimePoints.
func (p Period) Days() []TimePoint {
	var days []TimePoint
	current := p.Start
	for current.BeforeOrEqual(p.End) {
		days = append(days, current)
		current = current.AddDays(1)
	}
	return days
}

// Len is the number of days in the period.
func (p Period) Len() int {
	return int(p.End.Time.Sub(p.Start.Time).Hours()/24) + 1
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
