/*
Package generic provides the domain-agnostic building blocks of the
attendance reconciliation engine.

PURPOSE:
  Everything in here is shared by the roster, punch, schedule, reconcile
  and report packages without knowing about any of them: calendar days,
  date ranges, quantities, the status-code vocabulary registry, error
  types and the persistence interfaces used by the HTTP service.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A quantity with a unit (e.g., 7.5 hours worked)
  - RunID: Identifier of one pipeline invocation in the run archive

DESIGN PRINCIPLES:
  1. Precision: Amounts use decimal.Decimal, never float64
  2. Type Safety: Distinct ID types prevent mixing keys
  3. Purity: No I/O in this package except through the Store interfaces

SEE ALSO:
  - time.go: TimePoint and holiday calendars
  - period.go: Inclusive date ranges
  - vocabulary.go: Schedule/status code registry
  - store.go: Run archive and stage cache interfaces
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity with unit (always time-based for this system)
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const (
	UnitDays    Unit = "days"
	UnitHours   Unit = "hours"
	UnitMinutes Unit = "minutes"
)

func NewAmount(value float64, unit Unit) Amount {
	return Amount{Value: decimal.NewFromFloat(value), Unit: unit}
}

func NewAmountFromInt(value int, unit Unit) Amount {
	return Amount{Value: decimal.NewFromInt(int64(value)), Unit: unit}
}

// MinutesToHours converts a whole number of minutes to an hour amount.
func MinutesToHours(minutes int) Amount {
	return Amount{Value: decimal.NewFromInt(int64(minutes)).Div(decimal.NewFromInt(60)), Unit: UnitHours}
}

func (a Amount) Zero() Amount              { return Amount{Value: decimal.Zero, Unit: a.Unit} }
func (a Amount) Add(b Amount) Amount       { return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit} }
func (a Amount) Sub(b Amount) Amount       { return Amount{Value: a.Value.Sub(b.Value), Unit: a.Unit} }
func (a Amount) IsZero() bool              { return a.Value.IsZero() }
func (a Amount) IsNegative() bool          { return a.Value.IsNegative() }
func (a Amount) GreaterThan(b Amount) bool { return a.Value.GreaterThan(b.Value) }

// Round returns the amount rounded to the given number of decimal places.
func (a Amount) Round(places int32) Amount {
	return Amount{Value: a.Value.Round(places), Unit: a.Unit}
}

func (a Amount) String() string {
	return a.Value.String() + " " + string(a.Unit)
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type RunID string

// Stage names one cacheable step of the pipeline.
type Stage string

const (
	StageRoster    Stage = "roster"
	StageSchedule  Stage = "schedule"
	StageReconcile Stage = "reconcile"
	StageReport    Stage = "report"
)
