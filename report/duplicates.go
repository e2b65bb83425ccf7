package report

// Source names the input a duplicate was found in.
type Source string

const (
	SourceRoster     Source = "roster"
	SourceAttendance Source = "attendance"
	SourceSchedule   Source = "schedule"
)

// KeyedRow is one input row reduced to its display name and canonical work
// number. An empty Key means the row had no usable work number.
type KeyedRow struct {
	Name string
	Key  string
}

// Duplicate is one occurrence of a work number that appears more than once.
type Duplicate struct {
	Source     Source
	Name       string
	WorkNumber string
}

// FindDuplicates reports every occurrence of every key that appears more
// than once, in input order. Rows without a key are never reported.
func FindDuplicates(source Source, rows []KeyedRow) []Duplicate {
	seen := make(map[string]int, len(rows))
	for _, r := range rows {
		if r.Key != "" {
			seen[r.Key]++
		}
	}
	var out []Duplicate
	for _, r := range rows {
		if r.Key != "" && seen[r.Key] > 1 {
			out = append(out, Duplicate{Source: source, Name: r.Name, WorkNumber: r.Key})
		}
	}
	return out
}
