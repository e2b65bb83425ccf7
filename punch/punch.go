/*
Package punch turns one raw time-clock cell into a canonical punch shape.

PURPOSE:
  The time-clock export writes every punch of a day into one cell,
  newline-delimited, sometimes with a field-duty marker ("外勤") in front.
  The reconciliation engine only needs to know the shape of the day:

    NoLog        empty cell on a workday
    Off          empty cell on a rest day (weekend, holiday, leave code)
    Missed       exactly one timestamp            -> tagged MIS downstream
    Range        exactly two timestamps (in, out)
    Multiple     more than two, collapsed to first/last -> tagged MUL
    Unrecognized anything else, passed through verbatim

CLASSIFICATION (first match wins):
  1. no segment contains a colon      -> Off / NoLog
  2. three or more segments           -> Multiple(first, last)
  3. two segments and two colons      -> Range(first, last)
  4. one line "HH:MM-HH:MM"           -> Range (re-reading rendered output)
  5. exactly one colon                -> Missed(text)
  6. otherwise                        -> Unrecognized(text)

IDEMPOTENCE:
  Normalize(c.Render()) returns c's shape again. Tag text such as "(MIS)"
  left over from an earlier rendering is stripped before classifying, and a
  "(MUL)" tag on a single-line range restores Multiple.

SEE ALSO:
  - reconcile/engine.go: Picks the DayKind and turns shapes into tags
*/
package punch

import (
	"regexp"
	"strings"

	"github.com/warp/attendance-engine/generic"
)

// DefaultNoiseToken is the field-duty marker some clocks prepend to punches.
const DefaultNoiseToken = "外勤"

// Kind is the terminal shape of a normalized cell.
type Kind int

const (
	KindNoLog Kind = iota
	KindOff
	KindMissed
	KindRange
	KindMultiple
	KindUnrecognized
)

func (k Kind) String() string {
	switch k {
	case KindNoLog:
		return "no_log"
	case KindOff:
		return "off"
	case KindMissed:
		return "missed"
	case KindRange:
		return "range"
	case KindMultiple:
		return "multiple"
	default:
		return "unrecognized"
	}
}

// DayKind tells the normalizer how to read an empty cell.
type DayKind int

const (
	Workday DayKind = iota
	RestDay
)

// Cell is one normalized employee-day.
type Cell struct {
	Kind Kind

	// In and Out are the first and last timestamps for Range and Multiple.
	// For Missed, In holds the cleaned cell text.
	In  string
	Out string

	// Raw is the cell text exactly as received.
	Raw string

	// Punches is the number of timestamp segments seen. Zero when the cell
	// was re-read from rendered text and the original count is unknown.
	Punches int
}

// Empty reports whether the cell carries no punch at all.
func (c Cell) Empty() bool {
	return c.Kind == KindNoLog || c.Kind == KindOff
}

// HasRange reports whether the cell has both an in and an out punch.
func (c Cell) HasRange() bool {
	return c.Kind == KindRange || c.Kind == KindMultiple
}

// Render returns the canonical text of the punch, without tags.
func (c Cell) Render() string {
	switch c.Kind {
	case KindRange, KindMultiple:
		return c.In + "-" + c.Out
	case KindMissed:
		return c.In
	case KindUnrecognized:
		return c.cleaned()
	default:
		return ""
	}
}

func (c Cell) cleaned() string {
	if c.In != "" {
		return c.In
	}
	return strings.TrimSpace(c.Raw)
}

// =============================================================================
// NORMALIZER
// =============================================================================

var (
	tagPattern       = regexp.MustCompile(`\(\s*([A-Za-z]+)\s*\)`)
	renderedRangeRe  = regexp.MustCompile(`^(\d{1,2}:\d{2})\s*[-–]\s*(\d{1,2}:\d{2})$`)
	multipleTagLabel = "MUL"
)

// NormalizeOn normalizes raw for a date using the weekend rule only.
func NormalizeOn(raw string, date generic.TimePoint) Cell {
	day := Workday
	if date.IsWeekend() {
		day = RestDay
	}
	return Normalize(raw, day, DefaultNoiseToken)
}

// Normalize classifies one raw cell. noise is removed wherever it appears;
// pass "" to disable noise stripping.
func Normalize(raw string, day DayKind, noise string) Cell {
	text := raw
	if noise != "" {
		text = strings.ReplaceAll(text, noise, "")
	}

	multipleTagged := false
	text = tagPattern.ReplaceAllStringFunc(text, func(m string) string {
		if strings.EqualFold(tagPattern.FindStringSubmatch(m)[1], multipleTagLabel) {
			multipleTagged = true
		}
		return ""
	})
	text = strings.TrimSpace(text)

	segments := splitSegments(text)
	colons := strings.Count(text, ":")
	// Blank lines inside the cell still count as punch slots
	lines := 0
	if text != "" {
		lines = strings.Count(text, "\n") + 1
	}

	stamped := 0
	for _, s := range segments {
		if strings.Contains(s, ":") {
			stamped++
		}
	}

	switch {
	case stamped == 0:
		if day == RestDay {
			return Cell{Kind: KindOff, Raw: raw}
		}
		return Cell{Kind: KindNoLog, Raw: raw}

	case lines >= 3:
		return Cell{
			Kind:    KindMultiple,
			In:      segments[0],
			Out:     segments[len(segments)-1],
			Raw:     raw,
			Punches: len(segments),
		}

	case len(segments) == 2 && colons == 2:
		kind := KindRange
		if multipleTagged {
			kind = KindMultiple
		}
		return Cell{Kind: kind, In: segments[0], Out: segments[1], Raw: raw, Punches: 2}
	}

	if len(segments) == 1 {
		if m := renderedRangeRe.FindStringSubmatch(segments[0]); m != nil {
			kind := KindRange
			if multipleTagged {
				kind = KindMultiple
			}
			return Cell{Kind: kind, In: m[1], Out: m[2], Raw: raw}
		}
	}

	if colons == 1 {
		return Cell{Kind: KindMissed, In: strings.Join(segments, " "), Raw: raw, Punches: 1}
	}

	return Cell{Kind: KindUnrecognized, In: strings.Join(segments, " "), Raw: raw}
}

// splitSegments splits on newlines, trims each piece and drops blanks.
func splitSegments(text string) []string {
	if text == "" {
		return nil
	}
	parts := strings.Split(text, "\n")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
