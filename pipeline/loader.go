package pipeline

import (
	"context"
	"fmt"
	"io"
)

// RosterLoader reads the master list workbook.
type RosterLoader interface {
	LoadRoster(ctx context.Context, r io.Reader) (RosterSheets, error)
}

// AttendanceLoader reads the time-clock export.
type AttendanceLoader interface {
	LoadAttendance(ctx context.Context, r io.Reader) (AttendanceGrid, error)
}

// ScheduleLoader reads the schedule workbook.
type ScheduleLoader interface {
	LoadSchedule(ctx context.Context, r io.Reader) (ScheduleGrid, error)
}

// Loader reads all three inputs. workbook.Loader implements it.
type Loader interface {
	RosterLoader
	AttendanceLoader
	ScheduleLoader
}

// Inputs are the three parsed grids of one run.
type Inputs struct {
	Attendance AttendanceGrid
	Schedule   ScheduleGrid
	Roster     RosterSheets
}

// Sources are the three raw uploads of one run.
type Sources struct {
	Attendance io.Reader
	Schedule   io.Reader
	Roster     io.Reader
}

// LoadInputs reads every source with l.
func LoadInputs(ctx context.Context, l Loader, src Sources) (Inputs, error) {
	var (
		in  Inputs
		err error
	)
	if in.Attendance, err = l.LoadAttendance(ctx, src.Attendance); err != nil {
		return Inputs{}, fmt.Errorf("load attendance: %w", err)
	}
	if in.Schedule, err = l.LoadSchedule(ctx, src.Schedule); err != nil {
		return Inputs{}, fmt.Errorf("load schedule: %w", err)
	}
	if in.Roster, err = l.LoadRoster(ctx, src.Roster); err != nil {
		return Inputs{}, fmt.Errorf("load roster: %w", err)
	}
	return in, nil
}
