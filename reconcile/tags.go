package reconcile

import (
	"strings"

	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/schedule"
)

// =============================================================================
// TAGS - The annotation vocabulary of a reconciled cell
// =============================================================================

// Tag is one parenthesized annotation, e.g. "MUL" renders as "(MUL)".
type Tag string

const (
	TagMissed    Tag = "MIS"
	TagMultiple  Tag = "MUL"
	TagLate      Tag = "L"
	TagOvertime  Tag = "OT"
	TagUndertime Tag = "UT"
	TagAbsent    Tag = "ABSENT"
)

// CodeTag wraps a schedule code as a tag.
func CodeTag(code generic.Code) Tag { return Tag(code) }

func (t Tag) String() string { return "(" + string(t) + ")" }

// TagSet is the flag form of a cell's tags. Every consumer (coloring,
// counting, filtering) reads flags instead of searching the tag text.
type TagSet uint16

const (
	FlagMissed TagSet = 1 << iota
	FlagMultiple
	FlagLate
	FlagOvertime
	FlagUndertime
	FlagAbsent
	FlagCode
)

// Has reports whether every flag in f is set.
func (s TagSet) Has(f TagSet) bool { return s&f == f }

// Any reports whether at least one flag in f is set.
func (s TagSet) Any(f TagSet) bool { return s&f != 0 }

// CodeFlags returns the flags a schedule code overlay sets. The LATE and
// ABSENT codes also count as late and absent.
func CodeFlags(code generic.Code) TagSet {
	switch code {
	case schedule.CodeAbsent:
		return FlagCode | FlagAbsent
	case schedule.CodeLate:
		return FlagCode | FlagLate
	}
	return FlagCode
}

var deltaFlags = map[Tag]TagSet{
	TagLate:      FlagLate,
	TagOvertime:  FlagOvertime,
	TagUndertime: FlagUndertime,
}

// StatusCodes are the four codes the dashboard breaks down by manager and date.
var StatusCodes = []TagSet{FlagAbsent, FlagMultiple, FlagMissed, FlagLate}

// FlagLabel returns the rendered tag for a single status flag.
func FlagLabel(f TagSet) string {
	switch f {
	case FlagMissed:
		return TagMissed.String()
	case FlagMultiple:
		return TagMultiple.String()
	case FlagLate:
		return TagLate.String()
	case FlagOvertime:
		return TagOvertime.String()
	case FlagUndertime:
		return TagUndertime.String()
	case FlagAbsent:
		return TagAbsent.String()
	case FlagCode:
		return "(CODE)"
	}
	return ""
}

// JoinTags renders tags space-separated in order.
func JoinTags(tags []Tag) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}
