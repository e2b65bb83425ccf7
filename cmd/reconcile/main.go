/*
main.go - Command-line reconciliation

PURPOSE:
  Runs the pipeline once over three local workbooks (or a demo scenario)
  without starting the server, and writes the xlsx report plus a JSON
  summary. Useful for batch jobs and for checking a rules file.

USAGE:
  reconcile -attendance raw.xlsx -roster roster.xlsx -schedule schedule.xlsx -out report.xlsx
  reconcile -demo exceptions -out demo.xlsx -summary -

FLAGS:
  -attendance, -roster, -schedule   Input workbooks (.xlsx or .xls)
  -demo                             Scenario ID instead of input files
  -rules                            Rules JSON file
  -out                              xlsx report path (skipped when empty)
  -summary                          JSON summary path, "-" for stdout

EXIT CODES:
  0 success, 1 the run failed, 2 bad usage
*/
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/warp/attendance-engine/api"
	"github.com/warp/attendance-engine/factory"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/generic/store"
	"github.com/warp/attendance-engine/pipeline"
	"github.com/warp/attendance-engine/report"
	"github.com/warp/attendance-engine/workbook"
)

// summary is the JSON written by -summary.
type summary struct {
	PeriodStart string                 `json:"period_start"`
	PeriodEnd   string                 `json:"period_end"`
	Employees   int                    `json:"employees"`
	Totals      report.Totals          `json:"totals"`
	Diagnostics map[string]int         `json:"diagnostics"`
	Missed      []report.EmployeeCount `json:"missed"`
	Multiple    []report.EmployeeCount `json:"multiple"`
}

func main() {
	attPath := flag.String("attendance", "", "Raw attendance workbook")
	rosterPath := flag.String("roster", "", "Roster workbook")
	schedPath := flag.String("schedule", "", "Schedule workbook")
	demo := flag.String("demo", "", "Demo scenario ID instead of input files")
	rulesFile := flag.String("rules", "", "Rules JSON file")
	outPath := flag.String("out", "", "xlsx report path")
	summaryPath := flag.String("summary", "", `JSON summary path, "-" for stdout`)
	flag.Parse()

	rf := factory.NewRulesFactory()
	cfg := rf.Default()
	if *rulesFile != "" {
		loaded, err := rf.LoadFile(*rulesFile)
		if err != nil {
			log.Fatalf("Failed to load rules: %v", err)
		}
		cfg = loaded
	}

	ctx := context.Background()

	var in pipeline.Inputs
	switch {
	case *demo != "":
		var ok bool
		if in, ok = api.ScenarioInputs(*demo); !ok {
			fmt.Fprintf(os.Stderr, "unknown scenario %q\n", *demo)
			os.Exit(2)
		}
	case *attPath != "" && *rosterPath != "" && *schedPath != "":
		loaded, err := loadFiles(ctx, &workbook.Loader{ScheduleSheets: cfg.ScheduleSheets}, *attPath, *schedPath, *rosterPath)
		if err != nil {
			fail(err)
		}
		in = loaded
	default:
		flag.Usage()
		os.Exit(2)
	}

	p := pipeline.New(cfg.Rules)
	p.Workers = cfg.Workers
	p.Cache = store.NewMemory()

	res, err := p.Run(ctx, in)
	if err != nil {
		fail(err)
	}
	log.Printf("[Pipeline] Reconciled %d employees over %s..%s with %d diagnostics",
		len(res.Grid.Rows), res.Period.Start, res.Period.End, len(res.Diagnostics))

	if *outPath != "" {
		if err := writeFile(*outPath, func(w io.Writer) error { return workbook.Export(w, res) }); err != nil {
			log.Fatalf("Failed to write report: %v", err)
		}
		log.Printf("Wrote %s", *outPath)
	}

	if *summaryPath != "" {
		if err := writeSummary(*summaryPath, res); err != nil {
			log.Fatalf("Failed to write summary: %v", err)
		}
	}
}

func loadFiles(ctx context.Context, l pipeline.Loader, att, sched, rost string) (pipeline.Inputs, error) {
	var files []*os.File
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()
	open := func(path string) (*os.File, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
		return f, nil
	}

	a, err := open(att)
	if err != nil {
		return pipeline.Inputs{}, err
	}
	s, err := open(sched)
	if err != nil {
		return pipeline.Inputs{}, err
	}
	r, err := open(rost)
	if err != nil {
		return pipeline.Inputs{}, err
	}
	return pipeline.LoadInputs(ctx, l, pipeline.Sources{Attendance: a, Schedule: s, Roster: r})
}

func writeSummary(path string, res *pipeline.Result) error {
	sum := summary{
		PeriodStart: res.Period.Start.String(),
		PeriodEnd:   res.Period.End.String(),
		Employees:   len(res.Grid.Rows),
		Totals:      res.Totals,
		Diagnostics: make(map[string]int),
		Missed:      res.MissedCounts,
		Multiple:    res.MultipleCounts,
	}
	for _, d := range res.Diagnostics {
		sum.Diagnostics[string(d.Kind)]++
	}

	encode := func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	}
	if path == "-" {
		return encode(os.Stdout)
	}
	return writeFile(path, encode)
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// fail prints the message users see in the upload page for the fatal
// classes, and the raw error otherwise.
func fail(err error) {
	switch {
	case errors.Is(err, generic.ErrIncompatibleDateRanges):
		fmt.Fprintln(os.Stderr, api.MsgIncompatibleDate)
	case errors.Is(err, generic.ErrSchemaMismatch), errors.Is(err, generic.ErrMalformedDateRange):
		fmt.Fprintln(os.Stderr, api.MsgMismatchedFiles)
	case errors.Is(err, generic.ErrUnsupportedFormat):
		fmt.Fprintln(os.Stderr, api.MsgUnsupportedFile)
	}
	fmt.Fprintf(os.Stderr, "reconcile: %v\n", err)
	os.Exit(1)
}
