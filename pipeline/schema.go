package pipeline

import (
	"strings"

	"github.com/warp/attendance-engine/generic"
)

// Role tells the pipeline what a column holds. Date columns are always found
// by role, never by position.
type Role int

const (
	RoleIgnored Role = iota
	RoleIdentity
	RoleDate
)

// Column is one tagged input column.
type Column struct {
	Name string
	Role Role
	Date generic.TimePoint // set for RoleDate
}

// Schema is the column layout of one input grid.
type Schema struct {
	Input   string
	Columns []Column
}

// Width is the number of columns the schema expects.
func (s Schema) Width() int { return len(s.Columns) }

// Index returns the position of the named identity column, or -1.
func (s Schema) Index(name string) int {
	for i, c := range s.Columns {
		if c.Role == RoleIdentity && strings.EqualFold(c.Name, name) {
			return i
		}
	}
	return -1
}

// DateIndexes returns the positions of every date column in order.
func (s Schema) DateIndexes() []int {
	var out []int
	for i, c := range s.Columns {
		if c.Role == RoleDate {
			out = append(out, i)
		}
	}
	return out
}

// Dates returns the dates of the date columns in order.
func (s Schema) Dates() []generic.TimePoint {
	var out []generic.TimePoint
	for _, c := range s.Columns {
		if c.Role == RoleDate {
			out = append(out, c.Date)
		}
	}
	return out
}

func identityColumns(names ...string) []Column {
	cols := make([]Column, len(names))
	for i, n := range names {
		cols[i] = Column{Name: n, Role: RoleIdentity}
	}
	return cols
}

func dateColumns(dates []generic.TimePoint) []Column {
	cols := make([]Column, len(dates))
	for i, d := range dates {
		cols[i] = Column{Name: d.String(), Role: RoleDate, Date: d}
	}
	return cols
}

// cell returns row[i] trimmed, or "" past the end of a short row.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// trimTrailing drops empty cells from the end of a row.
func trimTrailing(row []string) []string {
	n := len(row)
	for n > 0 && strings.TrimSpace(row[n-1]) == "" {
		n--
	}
	return row[:n]
}

func blank(row []string) bool {
	return len(trimTrailing(row)) == 0
}
