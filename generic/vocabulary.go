/*
vocabulary.go - Schedule/status code registration and lookup

PURPOSE:
  Provides a registry for the closed vocabulary of schedule codes (VL, SL,
  NCNS, OFF, ...). The schedule package registers the built-in codes on
  init(); deployments add site-specific codes from the rules JSON.

HOW IT WORKS:
  1. schedule/codes.go registers every built-in code with its class
  2. factory/rules.go registers extra codes from configuration
  3. schedule.ParseEntry uses LookupCode to tell codes from free text

USAGE:
  // In schedule/codes.go
  func init() {
      generic.RegisterCode(CodeVacation, ClassLeave)
  }

  // In the parser
  if info, ok := generic.LookupCode("vl"); ok { ... }

SEE ALSO:
  - schedule/codes.go: Built-in vocabulary
  - reconcile/engine.go: Excused codes turn empty punches into Off days
*/
package generic

import (
	"sort"
	"strings"
	"sync"
)

// =============================================================================
// CODE REGISTRY
// =============================================================================

// Code is one entry of the schedule vocabulary, always upper case.
type Code string

// CodeClass groups codes by how an empty punch on that day is treated.
type CodeClass string

const (
	ClassLeave    CodeClass = "leave"    // VL, SL, EL ... excused
	ClassRest     CodeClass = "rest"     // OFF, HD, RDOT ... excused
	ClassTraining CodeClass = "training" // TRN ... excused
	ClassStatus   CodeClass = "status"   // NCNS, ABSU, ATTRIT ... not excused
)

// Excused reports whether an empty punch under this class is a rest day.
func (c CodeClass) Excused() bool {
	return c == ClassLeave || c == ClassRest || c == ClassTraining
}

// CodeInfo is the registered metadata of one code.
type CodeInfo struct {
	Code  Code
	Class CodeClass
}

var (
	codeRegistry = make(map[Code]CodeInfo)
	registryMu   sync.RWMutex
)

// RegisterCode adds or replaces a code in the global registry.
// Call this from package init() functions or configuration loading.
func RegisterCode(code Code, class CodeClass) {
	registryMu.Lock()
	defer registryMu.Unlock()
	c := Code(strings.ToUpper(strings.TrimSpace(string(code))))
	codeRegistry[c] = CodeInfo{Code: c, Class: class}
}

// LookupCode finds a registered code, ignoring case and surrounding space.
func LookupCode(s string) (CodeInfo, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	info, ok := codeRegistry[Code(strings.ToUpper(strings.TrimSpace(s)))]
	return info, ok
}

// ListCodes returns all registered codes sorted by code.
func ListCodes() []CodeInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()
	result := make([]CodeInfo, 0, len(codeRegistry))
	for _, info := range codeRegistry {
		result = append(result, info)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result
}
