/*
Package roster resolves raw time-clock work numbers to employee identities.

PURPOSE:
  The attendance export only carries a free-text work-number cell
  ("wb 00123-a", "00123", "WB00123 "). The master roster carries the
  canonical work number plus the enrichment fields the report needs
  (employee id, site, shift, LOB, manager, employer). This package
  canonicalizes both sides the same way and joins them.

CANONICAL KEY:
  All digit characters of the raw token, in order, prefixed with a fixed
  literal (default "WB"). A token without digits has no key (null).

    "wb  00123-a" -> "WB00123"
    "00123"       -> "WB00123"
    "n/a"         -> ""

UNRESOLVED IDENTITIES:
  A token that does not match any roster row still yields an Identity with
  the display name and keys populated and Profile == nil. Unresolved rows
  flow through the whole pipeline with null enrichment; they are never an
  error.

SEE ALSO:
  - pipeline/schema.go: Builds Records from the roster sheets
  - report/duplicates.go: Duplicate key reporting
*/
package roster

import (
	"strings"
	"unicode"
)

// DefaultPrefix is prepended to the digits of every work number.
const DefaultPrefix = "WB"

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Record is one row of the master roster.
type Record struct {
	Name         string
	EmployeeID   string
	WorkNumber   string // canonical after New
	RAG          string
	WorkLocation string
	Shift        string
	Site         string
	LOB          string
	Manager      string
	Employer     string
	Status       Status
}

// Profile holds the enrichment fields copied from a matched roster row.
type Profile struct {
	EmployeeID   string
	RAG          string
	WorkLocation string
	Shift        string
	Site         string
	LOB          string
	Manager      string
	Employer     string
	Status       Status
}

// Identity is the resolved (or unresolved) employee behind one attendance row.
type Identity struct {
	RawWorkNumber string
	WorkNumber    string // canonical key, "" when the raw token had no digits
	Name          string
	Profile       *Profile
}

// Resolved reports whether the work number matched a roster row.
func (i Identity) Resolved() bool { return i.Profile != nil }

// EmployeeID returns "" for unresolved identities.
func (i Identity) EmployeeID() string {
	if i.Profile == nil {
		return ""
	}
	return i.Profile.EmployeeID
}

// Manager returns "" for unresolved identities.
func (i Identity) Manager() string {
	if i.Profile == nil {
		return ""
	}
	return i.Profile.Manager
}

// NormalizeWorkNumber extracts every digit of raw and prefixes them.
func NormalizeWorkNumber(raw, prefix string) string {
	var b strings.Builder
	for _, r := range raw {
		if r <= unicode.MaxASCII && unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return prefix + b.String()
}

// =============================================================================
// ROSTER
// =============================================================================

// Roster is the immutable, deduplicated master list for one run.
type Roster struct {
	prefix  string
	records []Record
	byKey   map[string]int
}

// DuplicateWarning records a roster row dropped because an earlier row
// already claimed its canonical work number.
type DuplicateWarning struct {
	WorkNumber string
	Kept       Record
	Dropped    Record
}

// New concatenates active then inactive records, canonicalizes their work
// numbers and deduplicates by key. The first occurrence wins; every later
// occurrence is returned as a warning and kept out of the index.
func New(active, inactive []Record, prefix string) (*Roster, []DuplicateWarning) {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	r := &Roster{
		prefix:  prefix,
		records: make([]Record, 0, len(active)+len(inactive)),
		byKey:   make(map[string]int, len(active)+len(inactive)),
	}

	var warnings []DuplicateWarning
	add := func(rec Record, status Status) {
		rec.Status = status
		rec.WorkNumber = NormalizeWorkNumber(rec.WorkNumber, prefix)
		if rec.WorkNumber != "" {
			if idx, dup := r.byKey[rec.WorkNumber]; dup {
				warnings = append(warnings, DuplicateWarning{
					WorkNumber: rec.WorkNumber,
					Kept:       r.records[idx],
					Dropped:    rec,
				})
				return
			}
			r.byKey[rec.WorkNumber] = len(r.records)
		}
		r.records = append(r.records, rec)
	}

	for _, rec := range active {
		add(rec, StatusActive)
	}
	for _, rec := range inactive {
		add(rec, StatusInactive)
	}
	return r, warnings
}

// Prefix returns the literal used to build canonical keys.
func (r *Roster) Prefix() string { return r.prefix }

// Len returns the number of deduplicated records.
func (r *Roster) Len() int { return len(r.records) }

// Records returns a copy of the deduplicated records in load order.
func (r *Roster) Records() []Record {
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// Lookup finds a record by canonical key.
func (r *Roster) Lookup(key string) (Record, bool) {
	if key == "" {
		return Record{}, false
	}
	idx, ok := r.byKey[key]
	if !ok {
		return Record{}, false
	}
	return r.records[idx], true
}

// Resolve canonicalizes rawToken and joins it against the roster.
func (r *Roster) Resolve(rawToken, displayName string) Identity {
	id := Identity{
		RawWorkNumber: rawToken,
		WorkNumber:    NormalizeWorkNumber(rawToken, r.prefix),
		Name:          strings.TrimSpace(displayName),
	}

	rec, ok := r.Lookup(id.WorkNumber)
	if !ok {
		return id
	}

	id.Name = rec.Name
	id.Profile = &Profile{
		EmployeeID:   rec.EmployeeID,
		RAG:          rec.RAG,
		WorkLocation: rec.WorkLocation,
		Shift:        rec.Shift,
		Site:         rec.Site,
		LOB:          rec.LOB,
		Manager:      rec.Manager,
		Employer:     rec.Employer,
		Status:       rec.Status,
	}
	return id
}
