/*
errors.go - Centralized error types for the reconciliation engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages wrap these errors with additional context.

ERROR CATEGORIES:
  1. Fatal run errors - The pipeline stops and reports to the caller
     (malformed date-range header, schema mismatch, incompatible ranges)
  2. Cell errors - Localized to one employee-day; recorded, never fatal
  3. Store errors - Run archive and cache lookups

PROPAGATION POLICY:
  Only IsFatal errors stop a run. Identity mismatches, unrecognized punches,
  duplicate keys and cell parse failures degrade into diagnostics.

USAGE:
    if errors.Is(err, generic.ErrIncompatibleDateRanges) {
        // tell the user the three files do not cover the same dates
    }

SEE ALSO:
  - pipeline/pipeline.go: Raises the fatal classes
  - reconcile/diagnostics.go: Records cell-level failures
  - api/handlers.go: Maps errors to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMalformedDateRange is returned when the attendance header cannot be
	// parsed into a start/end date pair. Fatal for the run.
	ErrMalformedDateRange = errors.New("malformed attendance date-range header")

	// ErrSchemaMismatch is returned when an input grid does not have the
	// columns its role expects (wrong file in the wrong slot). Fatal.
	ErrSchemaMismatch = errors.New("input does not match expected schema")

	// ErrIncompatibleDateRanges is returned when the schedule and attendance
	// files share no dates at all. Fatal.
	ErrIncompatibleDateRanges = errors.New("incompatible date ranges")

	// ErrCellParse is recorded when a time-delta operand cannot be parsed.
	// Never returned from a run.
	ErrCellParse = errors.New("cell parse failure")

	// ErrInvalidRules is returned when reconciliation rules fail validation.
	ErrInvalidRules = errors.New("invalid reconciliation rules")

	// ErrUnsupportedFormat is returned for spreadsheet formats no loader reads.
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

	// ErrRunNotFound is returned when a referenced run doesn't exist.
	ErrRunNotFound = errors.New("run not found")

	// ErrHolidayNotFound is returned when a referenced holiday doesn't exist.
	ErrHolidayNotFound = errors.New("holiday not found")

	// ErrCacheMiss is returned by a StageCache when no entry exists.
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DateRangeError reports the header text that could not be parsed.
type DateRangeError struct {
	Header string
	Reason string
}

func (e *DateRangeError) Error() string {
	return fmt.Sprintf("cannot read date range from header %q: %s", e.Header, e.Reason)
}

func (e *DateRangeError) Unwrap() error {
	return ErrMalformedDateRange
}

// SchemaError reports which input and column expectation failed.
type SchemaError struct {
	Input    string // "attendance", "schedule", "roster"
	Expected string
	Got      string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Input, e.Expected, e.Got)
}

func (e *SchemaError) Unwrap() error {
	return ErrSchemaMismatch
}

// IncompatibleRangesError carries both periods so the caller can show them.
type IncompatibleRangesError struct {
	Attendance Period
	Schedule   Period
}

func (e *IncompatibleRangesError) Error() string {
	return fmt.Sprintf("attendance %s and schedule %s do not overlap", e.Attendance, e.Schedule)
}

func (e *IncompatibleRangesError) Unwrap() error {
	return ErrIncompatibleDateRanges
}

// CellError describes one employee-day whose operands could not be parsed.
type CellError struct {
	WorkNumber string
	Date       TimePoint
	Operand    string
	Err        error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("cell %s@%s: cannot parse %q: %v", e.WorkNumber, e.Date, e.Operand, e.Err)
}

func (e *CellError) Unwrap() []error {
	return []error{ErrCellParse, e.Err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsFatal returns true for the error classes that abort a pipeline run.
func IsFatal(err error) bool {
	return errors.Is(err, ErrMalformedDateRange) ||
		errors.Is(err, ErrSchemaMismatch) ||
		errors.Is(err, ErrIncompatibleDateRanges)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return IsFatal(err) ||
		errors.Is(err, ErrInvalidRules) ||
		errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrInvalidPeriod)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRunNotFound) ||
		errors.Is(err, ErrHolidayNotFound)
}
