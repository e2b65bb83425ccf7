/*
handlers.go - HTTP API handlers for the attendance reconciliation service

PURPOSE:
  Exposes the reconciliation pipeline via REST API. Handles uploads,
  archives each run, and serves the dashboard views of archived runs.

ENDPOINTS:
  Runs:
    POST   /api/runs                   Upload attendance, roster, schedule; reconcile
    GET    /api/runs                   List archived runs
    GET    /api/runs/{id}              Get one run
    DELETE /api/runs/{id}              Delete one run

  Run contents:
    GET    /api/runs/{id}/ledger       Long-form ledger, filterable
    GET    /api/runs/{id}/summary      Totals, rankings, breakdowns, hours
    GET    /api/runs/{id}/diagnostics  Data-quality observations
    GET    /api/runs/{id}/duplicates   Repeated keys per input
    GET    /api/runs/{id}/export       xlsx download

  Vocabulary and calendar:
    GET    /api/codes                  Schedule codes and the color legend
    GET    /api/holidays               List holidays
    POST   /api/holidays               Create holiday
    DELETE /api/holidays/{id}          Delete holiday

  Scenarios:
    GET    /api/scenarios              List demo datasets
    POST   /api/scenarios/load         Reconcile a demo dataset

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Run archive, stage cache and holidays
  - Pipeline: Rules, workers, cache and calendar for every run
  - Loader: Workbook readers for uploads

REQUEST FLOW:
  1. Parse HTTP request
  2. Load workbooks
  3. Run the pipeline
  4. Archive the result (failures are archived too)
  5. Serialize response

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Missing files, unsupported format, invalid input
  - 404: Run or holiday not found
  - 409: Run exists but failed, so it has no contents
  - 422: Files in the wrong slot or with incompatible dates
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo datasets
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/warp/attendance-engine/factory"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/pipeline"
	"github.com/warp/attendance-engine/reconcile"
	"github.com/warp/attendance-engine/report"
	"github.com/warp/attendance-engine/store/sqlite"
	"github.com/warp/attendance-engine/workbook"
)

// User-facing messages for the fatal error classes.
const (
	MsgMismatchedFiles  = "You uploaded mismatched files. Make sure to upload files to their corresponding File Uploader tab."
	MsgIncompatibleDate = "Please check the dates within Raw Attendance Data and Schedule Data. They must be compatible or within each other."
	MsgUnsupportedFile  = "Unsupported file format. Upload .xlsx or .xls workbooks."
)

// Upload form fields.
const (
	FieldAttendance = "attendance"
	FieldRoster     = "roster"
	FieldSchedule   = "schedule"
)

// DefaultMaxUploadBytes bounds the multipart form held in memory.
const DefaultMaxUploadBytes = 32 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store          *sqlite.Store
	Pipeline       *pipeline.Pipeline
	Loader         pipeline.Loader
	MaxUploadBytes int64

	// Track the last loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler wires a pipeline configured by cfg to the store's cache and
// holiday calendar.
func NewHandler(store *sqlite.Store, cfg *factory.Config) *Handler {
	if cfg == nil {
		cfg = factory.NewRulesFactory().Default()
	}
	p := pipeline.New(cfg.Rules)
	p.Workers = cfg.Workers
	p.Cache = store
	p.Calendar = store

	return &Handler{
		Store:          store,
		Pipeline:       p,
		Loader:         &workbook.Loader{ScheduleSheets: cfg.ScheduleSheets},
		MaxUploadBytes: DefaultMaxUploadBytes,
	}
}

// =============================================================================
// RUN HANDLERS
// =============================================================================

// CreateRun reconciles three uploaded workbooks.
// POST /api/runs (multipart: attendance, roster, schedule)
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form", err)
		return
	}

	var files []multipart.File
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()
	open := func(field string) (multipart.File, bool) {
		f, _, err := r.FormFile(field)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("The %s file is required", field), err)
			return nil, false
		}
		files = append(files, f)
		return f, true
	}

	att, ok := open(FieldAttendance)
	if !ok {
		return
	}
	rost, ok := open(FieldRoster)
	if !ok {
		return
	}
	sched, ok := open(FieldSchedule)
	if !ok {
		return
	}

	ctx := r.Context()
	in, err := pipeline.LoadInputs(ctx, h.Loader, pipeline.Sources{
		Attendance: att,
		Schedule:   sched,
		Roster:     rost,
	})
	if err != nil {
		h.archiveFailure(ctx, err)
		writePipelineError(w, err)
		return
	}

	run, res, err := h.execute(ctx, in)
	if err != nil {
		writePipelineError(w, err)
		return
	}

	dto := toRunDTO(*run)
	dto.Cached = res.Cached
	writeJSON(w, http.StatusCreated, dto)
}

// execute runs the pipeline and archives the outcome either way.
func (h *Handler) execute(ctx context.Context, in pipeline.Inputs) (*generic.RunRecord, *pipeline.Result, error) {
	res, err := h.Pipeline.Run(ctx, in)
	if err != nil {
		h.archiveFailure(ctx, err)
		return nil, nil, err
	}

	payload, err := json.Marshal(res)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode result: %w", err)
	}
	run := generic.RunRecord{
		ID:          generic.RunID(uuid.New().String()),
		ContentKey:  res.ContentKey,
		Period:      res.Period,
		Status:      generic.RunCompleted,
		Employees:   len(res.Grid.Rows),
		Diagnostics: len(res.Diagnostics),
		Payload:     payload,
	}
	if err := h.Store.SaveRun(ctx, run); err != nil {
		return nil, nil, fmt.Errorf("failed to archive run: %w", err)
	}
	saved, err := h.Store.GetRun(ctx, run.ID)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("[API] Archived run %s (%d employees)", run.ID, run.Employees)
	return saved, res, nil
}

// archiveFailure records a run that did not produce a result. Only input
// errors are archived; internal failures are just logged.
func (h *Handler) archiveFailure(ctx context.Context, cause error) {
	if !generic.IsClientError(cause) {
		log.Printf("[API] Run failed: %v", cause)
		return
	}
	run := generic.RunRecord{
		ID:     generic.RunID(uuid.New().String()),
		Status: generic.RunFailed,
		Error:  cause.Error(),
	}
	var rangeErr *generic.IncompatibleRangesError
	if errors.As(cause, &rangeErr) {
		run.Period = rangeErr.Attendance
	}
	if err := h.Store.SaveRun(ctx, run); err != nil {
		log.Printf("[API] Failed to archive failed run: %v", err)
	}
}

// ListRuns returns archived runs, newest first.
// GET /api/runs?limit=
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	runs, err := h.Store.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs", err)
		return
	}

	dtos := make([]RunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toRunDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRun returns one run without its contents.
// GET /api/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.Store.GetRun(r.Context(), generic.RunID(chi.URLParam(r, "id")))
	if err != nil {
		writeStoreError(w, "Run not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toRunDTO(*run))
}

// DeleteRun removes a run from the archive.
// DELETE /api/runs/{id}
func (h *Handler) DeleteRun(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteRun(r.Context(), generic.RunID(chi.URLParam(r, "id"))); err != nil {
		writeStoreError(w, "Run not found", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// loadResult decodes a completed run's payload. It writes the error
// response itself and returns nil on failure.
func (h *Handler) loadResult(w http.ResponseWriter, r *http.Request) *pipeline.Result {
	run, err := h.Store.GetRun(r.Context(), generic.RunID(chi.URLParam(r, "id")))
	if err != nil {
		writeStoreError(w, "Run not found", err)
		return nil
	}
	if run.Status != generic.RunCompleted {
		writeError(w, http.StatusConflict, "Run did not complete", errors.New(run.Error))
		return nil
	}
	var res pipeline.Result
	if err := json.Unmarshal(run.Payload, &res); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to decode run", err)
		return nil
	}
	return &res
}

// =============================================================================
// RUN CONTENT HANDLERS
// =============================================================================

// GetLedger returns the long-form ledger of a run.
// GET /api/runs/{id}/ledger?employee=&lob=&shift=&site=&manager=&employer=
// Each parameter may repeat or hold a comma-separated list.
func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	res := h.loadResult(w, r)
	if res == nil {
		return
	}
	rows := parseFilter(r).Apply(res.Ledger)
	writeJSON(w, http.StatusOK, LedgerDTO{Total: len(rows), Rows: toLedgerRowDTOs(rows)})
}

// GetSummary returns every aggregate of a run. Filters narrow the ledger
// the totals and breakdowns are computed from.
// GET /api/runs/{id}/summary
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	res := h.loadResult(w, r)
	if res == nil {
		return
	}
	if f := parseFilter(r); !f.Empty() {
		rows := f.Apply(res.Ledger)
		res.Totals = report.Metrics(rows)
		res.ByManager = report.ByManager(rows)
		res.ByDate = report.ByDate(rows)
		res.Remarks = report.RemarkCounts(rows)
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(res))
}

// GetDiagnostics returns a run's data-quality observations.
// GET /api/runs/{id}/diagnostics?kind=
func (h *Handler) GetDiagnostics(w http.ResponseWriter, r *http.Request) {
	res := h.loadResult(w, r)
	if res == nil {
		return
	}
	diags := res.Diagnostics
	if kind := r.URL.Query().Get("kind"); kind != "" {
		filtered := make([]reconcile.Diagnostic, 0, len(diags))
		for _, d := range diags {
			if string(d.Kind) == kind {
				filtered = append(filtered, d)
			}
		}
		diags = filtered
	}
	writeJSON(w, http.StatusOK, toDiagnosticDTOs(diags))
}

// GetDuplicates returns repeated keys found in the three inputs.
// GET /api/runs/{id}/duplicates
func (h *Handler) GetDuplicates(w http.ResponseWriter, r *http.Request) {
	res := h.loadResult(w, r)
	if res == nil {
		return
	}
	writeJSON(w, http.StatusOK, toDuplicateDTOs(res.Duplicates))
}

// ExportRun streams the run as an xlsx workbook.
// GET /api/runs/{id}/export
func (h *Handler) ExportRun(w http.ResponseWriter, r *http.Request) {
	res := h.loadResult(w, r)
	if res == nil {
		return
	}

	var buf bytes.Buffer
	if err := workbook.Export(&buf, res); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to export run", err)
		return
	}

	name := fmt.Sprintf("attendance_%s_%s.xlsx", res.Period.Start, res.Period.End)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func parseFilter(r *http.Request) report.Filter {
	q := r.URL.Query()
	values := func(key string) []string {
		var out []string
		for _, v := range q[key] {
			for _, part := range strings.Split(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					out = append(out, part)
				}
			}
		}
		return out
	}
	return report.Filter{
		Employees: values("employee"),
		LOBs:      values("lob"),
		Shifts:    values("shift"),
		Sites:     values("site"),
		Managers:  values("manager"),
		Employers: values("employer"),
	}
}

// =============================================================================
// VOCABULARY
// =============================================================================

// ListCodes returns the schedule vocabulary and the color legend.
// GET /api/codes
func (h *Handler) ListCodes(w http.ResponseWriter, r *http.Request) {
	infos := generic.ListCodes()
	codes := make([]CodeDTO, len(infos))
	for i, info := range infos {
		codes[i] = CodeDTO{
			Code:    string(info.Code),
			Class:   string(info.Class),
			Excused: info.Class.Excused(),
			Color:   reconcile.Classify(reconcile.CodeFlags(info.Code)).Color(),
		}
	}

	legend := make([]CategoryDTO, len(reconcile.Categories))
	for i, c := range reconcile.Categories {
		legend[i] = CategoryDTO{Name: c.String(), Color: c.Color()}
	}

	writeJSON(w, http.StatusOK, map[string]any{"codes": codes, "categories": legend})
}

// =============================================================================
// HOLIDAY ENDPOINTS
// =============================================================================

// ListHolidays returns all holidays.
// GET /api/holidays?company_id=
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Store.ListHolidays(r.Context(), r.URL.Query().Get("company_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get holidays", err)
		return
	}

	dtos := make([]HolidayDTO, 0, len(holidays))
	for _, hol := range holidays {
		dtos = append(dtos, toHolidayDTO(hol))
	}
	writeJSON(w, http.StatusOK, map[string]any{"holidays": dtos})
}

// CreateHoliday creates a new holiday. Holidays change later runs only;
// archived runs keep the calendar they were reconciled with.
// POST /api/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Date == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "Date and name are required", nil)
		return
	}
	date, err := generic.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	saved, err := h.Store.SaveHoliday(r.Context(), generic.Holiday{
		CompanyID: req.CompanyID,
		Date:      date,
		Name:      req.Name,
		Recurring: req.Recurring,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, toHolidayDTO(saved))
}

// DeleteHoliday deletes a holiday.
// DELETE /api/holidays/{id}
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteHoliday(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, "Holiday not found", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writePipelineError maps run failures to the messages the upload page shows.
func writePipelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, generic.ErrIncompatibleDateRanges):
		writeJSONError(w, http.StatusUnprocessableEntity, MsgIncompatibleDate, "incompatible_date_ranges", err)
	case errors.Is(err, generic.ErrSchemaMismatch), errors.Is(err, generic.ErrMalformedDateRange):
		writeJSONError(w, http.StatusUnprocessableEntity, MsgMismatchedFiles, "mismatched_files", err)
	case errors.Is(err, generic.ErrUnsupportedFormat):
		writeJSONError(w, http.StatusBadRequest, MsgUnsupportedFile, "unsupported_format", err)
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid input", err)
	case errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, "Request cancelled", err)
	default:
		writeError(w, http.StatusInternalServerError, "Reconciliation failed", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message, code string, err error) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code, Details: err.Error()})
}

func writeStoreError(w http.ResponseWriter, notFound string, err error) {
	if generic.IsNotFound(err) {
		writeError(w, http.StatusNotFound, notFound, nil)
		return
	}
	writeError(w, http.StatusInternalServerError, "Storage error", err)
}
