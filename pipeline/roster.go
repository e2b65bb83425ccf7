package pipeline

import (
	"strings"

	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/roster"
)

// RosterSheets are the Active and Inactive tabs of the master list, each
// with a header row.
type RosterSheets struct {
	Active   [][]string
	Inactive [][]string
}

// Roster header names.
const (
	ColEmployeeName = "Employee Name"
	ColEmployeeCode = "Employee Code (ID)"
	ColRAG          = "RAG"
	ColWorkLocation = "Work Location"
	ColShift        = "Shift"
	ColSite         = "Site"
	ColLeader       = "Leader"
	ColEmployer     = "Employer"
)

var rosterHeaders = []string{
	ColEmployeeName, ColEmployeeCode, ColWorkNumber, ColRAG, ColWorkLocation,
	ColShift, ColSite, ColLOB, ColLeader, ColEmployer,
}

// ParseRoster maps both tabs to records by header name. An empty tab is
// allowed; a tab whose header lacks any roster column is not.
func ParseRoster(s RosterSheets) (active, inactive []roster.Record, err error) {
	if active, err = parseRosterSheet("Active", s.Active); err != nil {
		return nil, nil, err
	}
	if inactive, err = parseRosterSheet("Inactive", s.Inactive); err != nil {
		return nil, nil, err
	}
	return active, inactive, nil
}

func parseRosterSheet(tab string, rows [][]string) ([]roster.Record, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	index := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}
	col := make(map[string]int, len(rosterHeaders))
	for _, h := range rosterHeaders {
		i, ok := index[strings.ToLower(h)]
		if !ok {
			return nil, &generic.SchemaError{
				Input:    "roster",
				Expected: "column " + h + " on tab " + tab,
				Got:      "missing",
			}
		}
		col[h] = i
	}

	out := make([]roster.Record, 0, len(rows)-1)
	for _, raw := range rows[1:] {
		if blank(raw) {
			continue
		}
		out = append(out, roster.Record{
			Name:         cell(raw, col[ColEmployeeName]),
			EmployeeID:   cell(raw, col[ColEmployeeCode]),
			WorkNumber:   cell(raw, col[ColWorkNumber]),
			RAG:          cell(raw, col[ColRAG]),
			WorkLocation: cell(raw, col[ColWorkLocation]),
			Shift:        cell(raw, col[ColShift]),
			Site:         cell(raw, col[ColSite]),
			LOB:          cell(raw, col[ColLOB]),
			Manager:      cell(raw, col[ColLeader]),
			Employer:     cell(raw, col[ColEmployer]),
		})
	}
	return out, nil
}
