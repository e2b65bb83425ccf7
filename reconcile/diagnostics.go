package reconcile

import (
	"fmt"

	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/roster"
)

// DiagnosticKind names a recoverable anomaly found during a run.
type DiagnosticKind string

const (
	DiagUnresolvedIdentity  DiagnosticKind = "unresolved_identity"
	DiagUnrecognizedPunch   DiagnosticKind = "unrecognized_punch"
	DiagCellParseFailure    DiagnosticKind = "cell_parse_failure"
	DiagMissingScheduleDate DiagnosticKind = "missing_schedule_date"
	DiagDuplicateRosterKey  DiagnosticKind = "duplicate_roster_key"
)

// Diagnostic is a non-fatal finding. Date is zero when the finding is not
// tied to a single day.
type Diagnostic struct {
	Kind       DiagnosticKind
	WorkNumber string
	Name       string
	Date       generic.TimePoint
	Raw        string
	Message    string
}

// DateString returns the ISO date or "" when the diagnostic has no date.
func (d Diagnostic) DateString() string {
	if d.Date.IsZero() {
		return ""
	}
	return d.Date.String()
}

func unresolvedDiagnostic(id roster.Identity) Diagnostic {
	msg := "work number not found in roster"
	if id.WorkNumber == "" {
		msg = "work number has no digits"
	}
	return Diagnostic{
		Kind:       DiagUnresolvedIdentity,
		WorkNumber: id.RawWorkNumber,
		Name:       id.Name,
		Message:    msg,
	}
}

func cellParseDiagnostic(id roster.Identity, date generic.TimePoint, cerr *generic.CellError) Diagnostic {
	return Diagnostic{
		Kind:       DiagCellParseFailure,
		WorkNumber: id.WorkNumber,
		Name:       id.Name,
		Date:       date,
		Raw:        cerr.Operand,
		Message:    cerr.Error(),
	}
}

// MissingScheduleDiagnostic records an attendance date the schedule does not cover.
func MissingScheduleDiagnostic(date generic.TimePoint) Diagnostic {
	return Diagnostic{
		Kind:    DiagMissingScheduleDate,
		Date:    date,
		Message: fmt.Sprintf("schedule has no column for %s; treated as unscheduled", date),
	}
}

// DuplicateDiagnostics converts roster duplicate warnings.
func DuplicateDiagnostics(warnings []roster.DuplicateWarning) []Diagnostic {
	out := make([]Diagnostic, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, Diagnostic{
			Kind:       DiagDuplicateRosterKey,
			WorkNumber: w.WorkNumber,
			Name:       w.Dropped.Name,
			Message:    fmt.Sprintf("duplicate roster row for %s dropped; kept %q", w.WorkNumber, w.Kept.Name),
		})
	}
	return out
}
