/*
scenarios.go - Demo datasets for testing and demonstrations

PURPOSE:
	Provides pre-built input sets that exercise the reconciliation rules end
	to end without uploading workbooks. Each scenario builds the three input
	grids in memory, runs them through the same pipeline as an upload, and
	archives the result like any other run.

AVAILABLE SCENARIOS:
	clean-week:       Everyone on schedule, no exceptions
	exceptions:       Late, overtime, missed and multiple punches, absences, codes
	night-shift:      Overnight shifts compared across midnight
	partial-schedule: Schedule covering only part of the attendance period

USAGE VIA API:
	POST /api/scenarios/load
	{"scenario_id": "exceptions"}

ADDING NEW SCENARIOS:
 1. Add an entry to 'scenarios' with its ID, name, description
 2. Give it a build function returning pipeline.Inputs

SEE ALSO:
  - handlers.go: execute (shared with uploads)
  - pipeline/attendance.go: Grid layout the builders produce
*/
package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/pipeline"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type scenario struct {
	ScenarioDTO
	build func() pipeline.Inputs
}

// demoStart is a Monday.
var demoStart = generic.NewTimePoint(2024, 3, 4)

const (
	dayShift   = "9:00am-6:00pm"
	nightShift = "10:00pm-7:00am"
)

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "clean-week",
			Name:        "Clean Week",
			Description: "Three agents on the day shift, every punch inside the thresholds",
		},
		build: func() pipeline.Inputs {
			week := []string{dayShift, dayShift, dayShift, dayShift, dayShift, "", ""}
			return demoInputs(7, 7, []demoEmployee{
				{name: "Ana Reyes", work: "WB00101", id: "E-101", lob: "Voice", shift: "Day", manager: "Lee",
					punches: repeat("08:58\n18:02", 5), schedule: week},
				{name: "Ben Cruz", work: "WB00102", id: "E-102", lob: "Voice", shift: "Day", manager: "Lee",
					punches: repeat("09:00\n18:00", 5), schedule: week},
				{name: "Carla Dizon", work: "WB00103", id: "E-103", lob: "Chat", shift: "Day", manager: "Mora",
					punches: repeat("08:50\n18:10", 5), schedule: week},
			})
		},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "exceptions",
			Name:        "Exceptions",
			Description: "Late, overtime, missed and multiple punches, absences, leave codes, a clock export with seconds and an unknown badge",
		},
		build: func() pipeline.Inputs {
			return demoInputs(5, 5, []demoEmployee{
				{name: "Ana Reyes", work: "WB00101", id: "E-101", lob: "Voice", shift: "Day", manager: "Lee",
					punches:  []string{"09:12\n18:00", "08:30\n19:00", "09:01", "", "08:55\n12:00\n13:00\n18:05"},
					schedule: []string{dayShift, dayShift, dayShift, dayShift, dayShift}},
				{name: "Ben Cruz", work: "WB00102", id: "E-102", lob: "Voice", shift: "Day", manager: "Lee",
					punches:  []string{"", "", "09:00\n17:30", "09:00\n18:00", "外勤09:05\n18:00"},
					schedule: []string{"VL", "NCNS", dayShift, "TRN", dayShift}},
				{name: "Carla Dizon", work: "WB00103", id: "E-103", lob: "Chat", shift: "Day", manager: "Mora",
					punches:  []string{"09:00\n18:00", "08:01:10\n17:05:00", "09:00\n18:00", "", ""},
					schedule: []string{dayShift, dayShift, "WFH", "WFH", "OFF"}},
				{name: "Walk In", work: "WB00999", unlisted: true,
					punches:  []string{"09:00\n18:00", "", "", "", ""},
					schedule: []string{"", "", "", "", ""}},
			})
		},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "night-shift",
			Name:        "Night Shift",
			Description: "Overnight shifts where check-out falls on the next calendar day",
		},
		build: func() pipeline.Inputs {
			return demoInputs(3, 3, []demoEmployee{
				{name: "Dino Yap", work: "WB00201", id: "E-201", lob: "Support", shift: "Night", manager: "Ortiz",
					punches:  []string{"21:45\n07:00", "22:05\n07:00", "21:58\n06:40"},
					schedule: []string{nightShift, nightShift, nightShift}},
				{name: "Eva Lim", work: "WB00202", id: "E-202", lob: "Support", shift: "Night", manager: "Ortiz",
					punches:  []string{"22:00\n07:30", "21:55\n07:20", ""},
					schedule: []string{nightShift, nightShift, nightShift}},
			})
		},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "partial-schedule",
			Name:        "Partial Schedule",
			Description: "Attendance covers five days but the schedule only the first three",
		},
		build: func() pipeline.Inputs {
			return demoInputs(5, 3, []demoEmployee{
				{name: "Ana Reyes", work: "WB00101", id: "E-101", lob: "Voice", shift: "Day", manager: "Lee",
					punches:  []string{"09:00\n18:00", "09:20\n18:00", "09:00\n18:00", "09:00\n18:00", ""},
					schedule: []string{dayShift, dayShift, dayShift}},
			})
		},
	},
}

// ScenarioInputs builds the inputs of a named scenario.
func ScenarioInputs(id string) (pipeline.Inputs, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s.build(), true
		}
	}
	return pipeline.Inputs{}, false
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	out := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		out[i] = s.ScenarioDTO
	}
	writeJSON(w, http.StatusOK, out)
}

// GetCurrentScenario returns the last loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s.ScenarioDTO)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario reconciles a demo dataset and archives it as a run.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	in, ok := ScenarioInputs(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	run, res, err := h.execute(r.Context(), in)
	if err != nil {
		writePipelineError(w, err)
		return
	}

	h.mu.Lock()
	h.currentScenario = req.ScenarioID
	h.mu.Unlock()

	dto := toRunDTO(*run)
	dto.Cached = res.Cached
	dto.Scenario = req.ScenarioID
	writeJSON(w, http.StatusCreated, dto)
}

// =============================================================================
// GRID BUILDERS
// =============================================================================

type demoEmployee struct {
	name, work, id, lob, shift, manager string
	unlisted                            bool // not on the roster
	punches                             []string
	schedule                            []string
}

func repeat(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}

// demoInputs lays out the three grids the way the source exports do:
// attendance covering attDays from demoStart, schedule covering schedDays.
func demoInputs(attDays, schedDays int, emps []demoEmployee) pipeline.Inputs {
	end := demoStart.AddDays(attDays - 1)

	// Attendance
	header := []string{
		pipeline.ColName, pipeline.ColAttendanceGroup, pipeline.ColDepartment,
		pipeline.ColWorkNumber, pipeline.ColPosition, pipeline.ColUserID,
	}
	weekdays := make([]string, len(header))
	for d := 0; d < attDays; d++ {
		day := demoStart.AddDays(d)
		header = append(header, strconv.Itoa(day.Day()))
		weekdays = append(weekdays, day.Time.Weekday().String()[:3])
	}
	att := pipeline.AttendanceGrid{
		Header: fmt.Sprintf("统计日期：%s 至 %s", demoStart, end),
		Rows:   [][]string{header, weekdays},
	}
	for i, e := range emps {
		row := []string{e.name, "Default", e.lob, e.work, "Agent", fmt.Sprintf("u%03d", i+1)}
		att.Rows = append(att.Rows, append(row, pad(e.punches, attDays)...))
	}

	// Schedule
	labels := make([]string, 6)
	for d := 0; d < schedDays; d++ {
		labels = append(labels, demoStart.AddDays(d).String())
	}
	sheet := pipeline.ScheduleSheet{Name: "RBC", Rows: [][]string{labels, {"Schedule"}, {"i", "No.", "LOB", "EmployeeID", "WBWorkNumber", "Name"}}}
	for i, e := range emps {
		row := []string{strconv.Itoa(i + 1), strconv.Itoa(i + 1), e.lob, e.id, e.work, e.name}
		sheet.Rows = append(sheet.Rows, append(row, pad(e.schedule, schedDays)...))
	}

	// Roster
	active := [][]string{{
		"Employee Name", "Employee Code (ID)", "WB Work Number", "RAG", "Work Location",
		"Shift", "Site", "LOB", "Leader", "Employer",
	}}
	for _, e := range emps {
		if e.unlisted {
			continue
		}
		active = append(active, []string{e.name, e.id, e.work, "Green", "Office", e.shift, "MNL", e.lob, e.manager, "Neusoft"})
	}

	return pipeline.Inputs{
		Attendance: att,
		Schedule:   pipeline.ScheduleGrid{Sheets: []pipeline.ScheduleSheet{sheet}},
		Roster:     pipeline.RosterSheets{Active: active},
	}
}

func pad(cells []string, n int) []string {
	out := make([]string, n)
	copy(out, cells)
	return out
}
