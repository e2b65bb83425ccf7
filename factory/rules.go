/*
Package factory provides JSON to Go rules conversion.

PURPOSE:
  Converts a JSON rules file into reconcile.Rules plus the loader and
  engine settings that travel with it. Attendance teams tune thresholds
  and add site-specific schedule codes without a rebuild.

JSON SCHEMA:
  {
    "thresholds": {
      "early_in_overtime": 16,
      "late_in": 1,
      "late_out_overtime": 16,
      "early_out": 1
    },
    "work_number_prefix": "WB",
    "noise_token": "外勤",
    "company_id": "",
    "schedule_sheets": ["RBC", "HSQ", "IDN", "ISA"],
    "workers": 4,
    "codes": [
      {"code": "PL", "class": "leave"},
      {"code": "SUSP", "class": "status"}
    ]
  }

  Every field is optional. A missing field takes the default; an explicit
  zero threshold is rejected by validation.

CUSTOM CODES:
  Extra codes are registered in the global vocabulary (generic.RegisterCode)
  so schedule.ParseEntry recognizes them. Built-in codes cannot be
  redefined.

USAGE:
  f := factory.NewRulesFactory()
  cfg, err := f.LoadFile("rules.json")
  p := pipeline.New(cfg.Rules)
  p.Workers = cfg.Workers

SEE ALSO:
  - reconcile/rules.go: Rules type and validation
  - generic/vocabulary.go: Code registry
  - schedule/codes.go: Built-in vocabulary
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/pipeline"
	"github.com/warp/attendance-engine/reconcile"
	"github.com/warp/attendance-engine/schedule"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// RulesJSON is the JSON representation of a rules file.
type RulesJSON struct {
	Thresholds       *ThresholdsJSON `json:"thresholds,omitempty"`
	WorkNumberPrefix string          `json:"work_number_prefix,omitempty"`
	NoiseToken       string          `json:"noise_token,omitempty"`
	CompanyID        string          `json:"company_id,omitempty"`
	ScheduleSheets   []string        `json:"schedule_sheets,omitempty"`
	Workers          int             `json:"workers,omitempty"`
	Codes            []CodeJSON      `json:"codes,omitempty"`
}

// ThresholdsJSON holds the four minute thresholds. Nil means default.
type ThresholdsJSON struct {
	EarlyInOvertime *int `json:"early_in_overtime,omitempty"`
	LateIn          *int `json:"late_in,omitempty"`
	LateOutOvertime *int `json:"late_out_overtime,omitempty"`
	EarlyOut        *int `json:"early_out,omitempty"`
}

// CodeJSON is one custom schedule code.
type CodeJSON struct {
	Code  string `json:"code"`
	Class string `json:"class"` // leave, rest, training, status
}

// Config is a parsed rules file.
type Config struct {
	Rules          reconcile.Rules
	ScheduleSheets []string
	Workers        int
	Codes          []generic.CodeInfo
}

// =============================================================================
// RULES FACTORY
// =============================================================================

// RulesFactory converts JSON rules to Go structs.
type RulesFactory struct{}

// NewRulesFactory creates a new rules factory.
func NewRulesFactory() *RulesFactory {
	return &RulesFactory{}
}

// Default returns the configuration used when no rules file is given.
func (f *RulesFactory) Default() *Config {
	return &Config{
		Rules:          reconcile.DefaultRules(),
		ScheduleSheets: append([]string(nil), pipeline.DefaultScheduleSheets...),
		Workers:        1,
	}
}

// LoadFile reads and parses a rules file.
func (f *RulesFactory) LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return f.ParseRules(string(data))
}

// ParseRules parses a JSON string into a Config and registers its codes.
func (f *RulesFactory) ParseRules(jsonStr string) (*Config, error) {
	var rj RulesJSON
	if err := json.Unmarshal([]byte(jsonStr), &rj); err != nil {
		return nil, fmt.Errorf("%w: failed to parse rules JSON: %v", generic.ErrInvalidRules, err)
	}
	return f.FromJSON(rj)
}

// FromJSON converts RulesJSON to a validated Config. Custom codes are
// registered only when the whole file is valid.
func (f *RulesFactory) FromJSON(rj RulesJSON) (*Config, error) {
	cfg := f.Default()

	if t := rj.Thresholds; t != nil {
		override(&cfg.Rules.EarlyInOvertime, t.EarlyInOvertime)
		override(&cfg.Rules.LateIn, t.LateIn)
		override(&cfg.Rules.LateOutOvertime, t.LateOutOvertime)
		override(&cfg.Rules.EarlyOut, t.EarlyOut)
	}
	if rj.WorkNumberPrefix != "" {
		cfg.Rules.WorkNumberPrefix = strings.ToUpper(strings.TrimSpace(rj.WorkNumberPrefix))
	}
	if rj.NoiseToken != "" {
		cfg.Rules.NoiseToken = rj.NoiseToken
	}
	cfg.Rules.CompanyID = rj.CompanyID

	if len(rj.ScheduleSheets) > 0 {
		cfg.ScheduleSheets = rj.ScheduleSheets
	}
	if rj.Workers < 0 {
		return nil, fmt.Errorf("%w: workers must not be negative, got %d", generic.ErrInvalidRules, rj.Workers)
	}
	if rj.Workers > 0 {
		cfg.Workers = rj.Workers
	}

	if err := cfg.Rules.Validate(); err != nil {
		return nil, err
	}

	for _, cj := range rj.Codes {
		info, err := parseCode(cj)
		if err != nil {
			return nil, err
		}
		cfg.Codes = append(cfg.Codes, info)
	}
	for _, info := range cfg.Codes {
		generic.RegisterCode(info.Code, info.Class)
	}

	return cfg, nil
}

// ToJSON converts a Config back to its JSON form.
func (f *RulesFactory) ToJSON(cfg *Config) RulesJSON {
	r := cfg.Rules
	rj := RulesJSON{
		Thresholds: &ThresholdsJSON{
			EarlyInOvertime: intPtr(r.EarlyInOvertime),
			LateIn:          intPtr(r.LateIn),
			LateOutOvertime: intPtr(r.LateOutOvertime),
			EarlyOut:        intPtr(r.EarlyOut),
		},
		WorkNumberPrefix: r.WorkNumberPrefix,
		NoiseToken:       r.NoiseToken,
		CompanyID:        r.CompanyID,
		ScheduleSheets:   cfg.ScheduleSheets,
		Workers:          cfg.Workers,
	}
	for _, c := range cfg.Codes {
		rj.Codes = append(rj.Codes, CodeJSON{Code: string(c.Code), Class: string(c.Class)})
	}
	return rj
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func override(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func intPtr(v int) *int { return &v }

func parseCode(cj CodeJSON) (generic.CodeInfo, error) {
	code := generic.Code(strings.ToUpper(strings.TrimSpace(cj.Code)))
	if code == "" {
		return generic.CodeInfo{}, fmt.Errorf("%w: empty code", generic.ErrInvalidRules)
	}
	if strings.ContainsAny(string(code), " -:") {
		return generic.CodeInfo{}, fmt.Errorf("%w: code %q contains a separator", generic.ErrInvalidRules, code)
	}
	if schedule.IsBuiltin(code) {
		return generic.CodeInfo{}, fmt.Errorf("%w: %s is a built-in code", generic.ErrInvalidRules, code)
	}
	class, err := parseCodeClass(cj.Class)
	if err != nil {
		return generic.CodeInfo{}, err
	}
	return generic.CodeInfo{Code: code, Class: class}, nil
}

func parseCodeClass(s string) (generic.CodeClass, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "leave":
		return generic.ClassLeave, nil
	case "rest":
		return generic.ClassRest, nil
	case "training":
		return generic.ClassTraining, nil
	case "status", "":
		return generic.ClassStatus, nil
	default:
		return "", fmt.Errorf("%w: unknown code class %q", generic.ErrInvalidRules, s)
	}
}
