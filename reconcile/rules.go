package reconcile

import (
	"fmt"

	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/punch"
	"github.com/warp/attendance-engine/roster"
)

// Rules holds the thresholds and tokens the engine applies. Thresholds are
// minutes and always positive; the sign is implied by the field.
type Rules struct {
	// EarlyInOvertime: arriving at least this many minutes early is OT.
	EarlyInOvertime int
	// LateIn: arriving at least this many minutes late is L.
	LateIn int
	// LateOutOvertime: leaving at least this many minutes late is OT.
	LateOutOvertime int
	// EarlyOut: leaving at least this many minutes early is L.
	EarlyOut int

	WorkNumberPrefix string
	NoiseToken       string

	// CompanyID selects company-specific holidays from the calendar.
	CompanyID string
}

// DefaultRules returns the thresholds used by the attendance team.
func DefaultRules() Rules {
	return Rules{
		EarlyInOvertime:  16,
		LateIn:           1,
		LateOutOvertime:  16,
		EarlyOut:         1,
		WorkNumberPrefix: roster.DefaultPrefix,
		NoiseToken:       punch.DefaultNoiseToken,
	}
}

// Validate rejects non-positive thresholds and an empty prefix.
func (r Rules) Validate() error {
	checks := []struct {
		name  string
		value int
	}{
		{"early_in_overtime", r.EarlyInOvertime},
		{"late_in", r.LateIn},
		{"late_out_overtime", r.LateOutOvertime},
		{"early_out", r.EarlyOut},
	}
	for _, c := range checks {
		if c.value <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", generic.ErrInvalidRules, c.name, c.value)
		}
	}
	if r.WorkNumberPrefix == "" {
		return fmt.Errorf("%w: work number prefix is empty", generic.ErrInvalidRules)
	}
	return nil
}

// DeltaTags compares actual against scheduled clock times. Deltas are the
// plain difference in minutes; only a shift that crosses midnight (out
// earlier than in) takes them to the nearest day. Check-in tags come before
// check-out tags; a tag is never repeated.
func (r Rules) DeltaTags(schedIn, schedOut, actualIn, actualOut generic.ClockTime) []Tag {
	var tags []Tag
	add := func(t Tag) {
		for _, existing := range tags {
			if existing == t {
				return
			}
		}
		tags = append(tags, t)
	}

	delta := literalDelta
	if schedOut < schedIn {
		delta = nearestDelta
	}

	in := delta(schedIn, actualIn)
	switch {
	case in <= -r.EarlyInOvertime:
		add(TagOvertime)
	case in >= r.LateIn:
		add(TagLate)
	}

	out := delta(schedOut, actualOut)
	switch {
	case out >= r.LateOutOvertime:
		add(TagOvertime)
	case out <= -r.EarlyOut:
		add(TagLate)
	}
	return tags
}

// literalDelta returns actual - scheduled in minutes.
func literalDelta(scheduled, actual generic.ClockTime) int {
	return int(actual - scheduled)
}

// nearestDelta returns actual - scheduled in minutes, wrapped into [-720, 720).
func nearestDelta(scheduled, actual generic.ClockTime) int {
	const day = 24 * 60
	d := int(actual - scheduled)
	d = ((d+day/2)%day+day)%day - day/2
	return d
}
