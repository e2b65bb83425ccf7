/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the pipeline's Go types from the external API contract, allowing:
  - Field renaming without breaking clients
  - Flags rendered as labels and colors instead of bit sets

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Runs:
    RunDTO

  Run contents:
    LedgerRowDTO, SummaryDTO, DiagnosticDTO, DuplicateDTO

  Vocabulary:
    CodeDTO, CategoryDTO

  Holidays:
    HolidayDTO, CreateHolidayRequest

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - pipeline/pipeline.go: Result type
*/
package api

import (
	"time"

	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/pipeline"
	"github.com/warp/attendance-engine/reconcile"
	"github.com/warp/attendance-engine/report"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// RunDTO represents an archived run in API responses.
type RunDTO struct {
	ID          string    `json:"id"`
	ContentKey  string    `json:"content_key,omitempty"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	PeriodStart string    `json:"period_start,omitempty"`
	PeriodEnd   string    `json:"period_end,omitempty"`
	Employees   int       `json:"employees"`
	Diagnostics int       `json:"diagnostics"`
	Cached      bool      `json:"cached,omitempty"`
	Scenario    string    `json:"scenario,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// LedgerRowDTO is one employee-day of the long-form ledger.
type LedgerRowDTO struct {
	Date       string `json:"date"`
	Name       string `json:"name"`
	WorkNumber string `json:"work_number"`
	EmployeeID string `json:"employee_id,omitempty"`
	Manager    string `json:"manager,omitempty"`
	LOB        string `json:"lob,omitempty"`
	Shift      string `json:"shift,omitempty"`
	Site       string `json:"site,omitempty"`
	Employer   string `json:"employer,omitempty"`
	Status     string `json:"status,omitempty"`
	Resolved   bool   `json:"resolved"`
	Schedule   string `json:"schedule"`
	TimeIn     string `json:"time_in"`
	TimeOut    string `json:"time_out"`
	Remarks    string `json:"remarks"`
	Category   string `json:"category"`
	Color      string `json:"color,omitempty"`
}

// LedgerDTO is a filtered ledger page.
type LedgerDTO struct {
	Total int            `json:"total"`
	Rows  []LedgerRowDTO `json:"rows"`
}

// TotalsDTO mirrors report.Totals.
type TotalsDTO struct {
	Cells     int `json:"cells"`
	Missed    int `json:"missed"`
	Multiple  int `json:"multiple"`
	Absent    int `json:"absent"`
	Late      int `json:"late"`
	Overtime  int `json:"overtime"`
	Undertime int `json:"undertime"`
	Coded     int `json:"coded"`
}

// EmployeeCountDTO is one employee's flagged-day count.
type EmployeeCountDTO struct {
	Name       string `json:"name"`
	WorkNumber string `json:"work_number"`
	Count      int    `json:"count"`
}

// StatusCountDTO is one (key, status) cell of a breakdown.
type StatusCountDTO struct {
	Key    string `json:"key"`
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// RemarkCountDTO is one remark string and its frequency.
type RemarkCountDTO struct {
	Remarks string `json:"remarks"`
	Count   int    `json:"count"`
}

// EmployeeHoursDTO is one employee's punched hours.
type EmployeeHoursDTO struct {
	Name       string `json:"name"`
	WorkNumber string `json:"work_number"`
	Days       int    `json:"days"`
	Hours      string `json:"hours"`
}

// SummaryDTO carries every dashboard aggregate of a run.
type SummaryDTO struct {
	PeriodStart    string             `json:"period_start"`
	PeriodEnd      string             `json:"period_end"`
	Totals         TotalsDTO          `json:"totals"`
	MultipleCounts []EmployeeCountDTO `json:"multiple_counts"`
	MissedCounts   []EmployeeCountDTO `json:"missed_counts"`
	ByManager      []StatusCountDTO   `json:"by_manager"`
	ByDate         []StatusCountDTO   `json:"by_date"`
	Remarks        []RemarkCountDTO   `json:"remarks"`
	Hours          []EmployeeHoursDTO `json:"hours"`
}

// DiagnosticDTO is one data-quality observation.
type DiagnosticDTO struct {
	Kind       string `json:"kind"`
	WorkNumber string `json:"work_number,omitempty"`
	Name       string `json:"name,omitempty"`
	Date       string `json:"date,omitempty"`
	Raw        string `json:"raw,omitempty"`
	Message    string `json:"message"`
}

// DuplicateDTO is one repeated key.
type DuplicateDTO struct {
	Source     string `json:"source"`
	Name       string `json:"name"`
	WorkNumber string `json:"work_number"`
}

// CodeDTO describes one schedule code.
type CodeDTO struct {
	Code    string `json:"code"`
	Class   string `json:"class"`
	Excused bool   `json:"excused"`
	Color   string `json:"color,omitempty"`
}

// CategoryDTO is one color of the legend.
type CategoryDTO struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// HolidayDTO represents a holiday in API responses.
type HolidayDTO struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`
	Date      string `json:"date"`
	Name      string `json:"name"`
	Recurring bool   `json:"recurring"`
}

// CreateHolidayRequest is the body of POST /api/holidays.
type CreateHolidayRequest struct {
	CompanyID string `json:"company_id"`
	Date      string `json:"date"`
	Name      string `json:"name"`
	Recurring bool   `json:"recurring"`
}

// ScenarioDTO represents a demo dataset.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the body of POST /api/scenarios/load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toRunDTO(run generic.RunRecord) RunDTO {
	dto := RunDTO{
		ID:          string(run.ID),
		ContentKey:  run.ContentKey,
		Status:      string(run.Status),
		Error:       run.Error,
		Employees:   run.Employees,
		Diagnostics: run.Diagnostics,
		CreatedAt:   run.CreatedAt,
	}
	if !run.Period.Start.Time.IsZero() {
		dto.PeriodStart = run.Period.Start.String()
		dto.PeriodEnd = run.Period.End.String()
	}
	return dto
}

func toLedgerRowDTOs(rows []report.Row) []LedgerRowDTO {
	out := make([]LedgerRowDTO, len(rows))
	for i, r := range rows {
		out[i] = LedgerRowDTO{
			Date:       r.Date.String(),
			Name:       r.Name,
			WorkNumber: r.WorkNumber,
			EmployeeID: r.EmployeeID,
			Manager:    r.Manager,
			LOB:        r.LOB,
			Shift:      r.Shift,
			Site:       r.Site,
			Employer:   r.Employer,
			Status:     r.Status,
			Resolved:   r.Resolved,
			Schedule:   r.Schedule,
			TimeIn:     r.TimeIn,
			TimeOut:    r.TimeOut,
			Remarks:    r.Remarks,
			Category:   r.Category.String(),
			Color:      r.Category.Color(),
		}
	}
	return out
}

func toSummaryDTO(res *pipeline.Result) SummaryDTO {
	t := res.Totals
	return SummaryDTO{
		PeriodStart: res.Period.Start.String(),
		PeriodEnd:   res.Period.End.String(),
		Totals: TotalsDTO{
			Cells: t.Cells, Missed: t.Missed, Multiple: t.Multiple, Absent: t.Absent,
			Late: t.Late, Overtime: t.Overtime, Undertime: t.Undertime, Coded: t.Coded,
		},
		MultipleCounts: toEmployeeCountDTOs(res.MultipleCounts),
		MissedCounts:   toEmployeeCountDTOs(res.MissedCounts),
		ByManager:      toStatusCountDTOs(res.ByManager),
		ByDate:         toStatusCountDTOs(res.ByDate),
		Remarks:        toRemarkCountDTOs(res.Remarks),
		Hours:          toEmployeeHoursDTOs(res.Hours),
	}
}

func toEmployeeCountDTOs(in []report.EmployeeCount) []EmployeeCountDTO {
	out := make([]EmployeeCountDTO, len(in))
	for i, c := range in {
		out[i] = EmployeeCountDTO{Name: c.Name, WorkNumber: c.WorkNumber, Count: c.Count}
	}
	return out
}

func toStatusCountDTOs(in []report.StatusCount) []StatusCountDTO {
	out := make([]StatusCountDTO, len(in))
	for i, c := range in {
		out[i] = StatusCountDTO{Key: c.Key, Status: c.Label(), Count: c.Count}
	}
	return out
}

func toRemarkCountDTOs(in []report.RemarkCount) []RemarkCountDTO {
	out := make([]RemarkCountDTO, len(in))
	for i, c := range in {
		out[i] = RemarkCountDTO{Remarks: c.Remarks, Count: c.Count}
	}
	return out
}

func toEmployeeHoursDTOs(in []report.EmployeeHours) []EmployeeHoursDTO {
	out := make([]EmployeeHoursDTO, len(in))
	for i, h := range in {
		out[i] = EmployeeHoursDTO{Name: h.Name, WorkNumber: h.WorkNumber, Days: h.Days, Hours: h.Hours.Value.String()}
	}
	return out
}

func toDiagnosticDTOs(in []reconcile.Diagnostic) []DiagnosticDTO {
	out := make([]DiagnosticDTO, len(in))
	for i, d := range in {
		out[i] = DiagnosticDTO{
			Kind:       string(d.Kind),
			WorkNumber: d.WorkNumber,
			Name:       d.Name,
			Date:       d.DateString(),
			Raw:        d.Raw,
			Message:    d.Message,
		}
	}
	return out
}

func toDuplicateDTOs(in []report.Duplicate) []DuplicateDTO {
	out := make([]DuplicateDTO, len(in))
	for i, d := range in {
		out[i] = DuplicateDTO{Source: string(d.Source), Name: d.Name, WorkNumber: d.WorkNumber}
	}
	return out
}

func toHolidayDTO(h generic.Holiday) HolidayDTO {
	return HolidayDTO{
		ID:        h.ID,
		CompanyID: h.CompanyID,
		Date:      h.Date.String(),
		Name:      h.Name,
		Recurring: h.Recurring,
	}
}
