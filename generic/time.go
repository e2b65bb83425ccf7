package generic

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// TIME POINT - One calendar day (the grain of the attendance grid)
// =============================================================================

type TimePoint struct {
	Time time.Time
}

// DateLayout is the ISO layout used for column labels and ledger dates.
const DateLayout = "2006-01-02"

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayOf truncates t to its calendar day.
func DayOf(t time.Time) TimePoint {
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

// dateLayouts are the label formats seen in schedule and attendance exports.
var dateLayouts = []string{
	DateLayout,
	"2006/01/02",
	"2006-1-2",
	"2006/1/2",
	"01/02/2006",
	"1/2/2006",
	"01-02-06",
	"1/2/06",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseDate accepts the ISO form first, then the other layouts exports use.
func ParseDate(s string) (TimePoint, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DayOf(t), nil
		}
	}
	return TimePoint{}, fmt.Errorf("unrecognized date %q", s)
}

// MustParseDate panics on malformed input. Use in tests and fixtures.
func MustParseDate(s string) TimePoint {
	tp, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return tp
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.Time.Before(other.Time) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.Time.Equal(other.Time) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.Time.After(other.Time) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return !tp.After(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return !tp.Before(other) }

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint { return TimePoint{Time: tp.Time.AddDate(0, 0, n)} }

// Properties
func (tp TimePoint) Year() int             { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month     { return tp.Time.Month() }
func (tp TimePoint) Day() int              { return tp.Time.Day() }
func (tp TimePoint) Weekday() time.Weekday { return tp.Time.Weekday() }
func (tp TimePoint) IsWeekend() bool {
	wd := tp.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
func (tp TimePoint) IsWorkday() bool { return !tp.IsWeekend() }
func (tp TimePoint) IsZero() bool    { return tp.Time.IsZero() }

func (tp TimePoint) String() string {
	return tp.Time.Format(DateLayout)
}

// =============================================================================
// HOLIDAY CALENDAR - Company-specific holidays
// =============================================================================

// Holiday is a company rest day. Empty punches on a holiday are Off, not NoLog.
type Holiday struct {
	ID        string
	CompanyID string    // Empty string = global/default holidays
	Date      TimePoint // The holiday date
	Name      string    // e.g., "Independence Day", "Labor Day"
	Recurring bool      // true = same month/day every year
}

// HolidayCalendar provides holiday lookup functionality.
type HolidayCalendar interface {
	// IsHoliday checks if a date is a holiday for the given company.
	// Checks company-specific holidays first, then global holidays.
	IsHoliday(companyID string, date TimePoint) bool

	// GetHolidays returns all holidays for a company in a given year.
	// Includes both company-specific and global holidays.
	GetHolidays(companyID string, year int) []Holiday
}

// DefaultHolidayCalendar is a no-op calendar for when holidays are disabled.
type DefaultHolidayCalendar struct{}

func (d *DefaultHolidayCalendar) IsHoliday(companyID string, date TimePoint) bool { return false }
func (d *DefaultHolidayCalendar) GetHolidays(companyID string, year int) []Holiday { return nil }

// StaticHolidayCalendar is an in-memory calendar built from a fixed list.
type StaticHolidayCalendar struct {
	Holidays []Holiday
}

func (c *StaticHolidayCalendar) IsHoliday(companyID string, date TimePoint) bool {
	for _, h := range c.Holidays {
		if h.CompanyID != "" && h.CompanyID != companyID {
			continue
		}
		if h.matches(date) {
			return true
		}
	}
	return false
}

func (c *StaticHolidayCalendar) GetHolidays(companyID string, year int) []Holiday {
	var out []Holiday
	for _, h := range c.Holidays {
		if h.CompanyID != "" && h.CompanyID != companyID {
			continue
		}
		if h.Recurring {
			h.Date = NewTimePoint(year, h.Date.Month(), h.Date.Day())
			out = append(out, h)
		} else if h.Date.Year() == year {
			out = append(out, h)
		}
	}
	return out
}

func (h Holiday) matches(date TimePoint) bool {
	if h.Recurring {
		return h.Date.Month() == date.Month() && h.Date.Day() == date.Day()
	}
	return h.Date.Equal(date)
}

// IsWorkdayWithHolidays checks if a date is a working day, considering holidays.
func (tp TimePoint) IsWorkdayWithHolidays(calendar HolidayCalendar, companyID string) bool {
	if tp.IsWeekend() {
		return false
	}
	if calendar != nil && calendar.IsHoliday(companyID, tp) {
		return false
	}
	return true
}

// =============================================================================
// CLOCK TIME - Minutes since midnight, for punch and shift arithmetic
// =============================================================================

// ClockTime is a wall-clock time of day in minutes since midnight.
type ClockTime int

const minutesPerDay = 24 * 60

// Parse24h reads "15:04" (one- or two-digit hour).
func Parse24h(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	return ClockTime(t.Hour()*60 + t.Minute()), nil
}

// Parse12h reads "3:04PM" in any letter case, with or without a space
// before the meridiem.
func Parse12h(s string) (ClockTime, error) {
	s = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	t, err := time.Parse("3:04PM", s)
	if err != nil {
		return 0, err
	}
	return ClockTime(t.Hour()*60 + t.Minute()), nil
}

// MinutesUntil returns the minutes from c to later. A later value before c
// is taken to fall on the next day.
func (c ClockTime) MinutesUntil(later ClockTime) int {
	d := int(later - c)
	if d < 0 {
		d += minutesPerDay
	}
	return d
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}
