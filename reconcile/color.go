package reconcile

// Category is the display class of a cell, chosen by descending specificity.
type Category int

const (
	CategoryNone Category = iota
	CategoryMultipleOvertimeLate
	CategoryMultipleUndertimeLate
	CategoryUndertimeLate
	CategoryOvertimeLate
	CategoryAbsent
	CategoryLate
	CategoryMultiple
	CategoryMissed
	CategoryOvertime
	CategoryUndertime
)

// Classify picks the most specific category for a tag set:
// {MUL+OT+L} > {MUL+UT+L} > {UT+L} > {OT+L} > ABSENT > L > MUL > MIS > OT > UT.
func Classify(s TagSet) Category {
	switch {
	case s.Has(FlagMultiple | FlagOvertime | FlagLate):
		return CategoryMultipleOvertimeLate
	case s.Has(FlagMultiple | FlagUndertime | FlagLate):
		return CategoryMultipleUndertimeLate
	case s.Has(FlagUndertime | FlagLate):
		return CategoryUndertimeLate
	case s.Has(FlagOvertime | FlagLate):
		return CategoryOvertimeLate
	case s.Has(FlagAbsent):
		return CategoryAbsent
	case s.Has(FlagLate):
		return CategoryLate
	case s.Has(FlagMultiple):
		return CategoryMultiple
	case s.Has(FlagMissed):
		return CategoryMissed
	case s.Has(FlagOvertime):
		return CategoryOvertime
	case s.Has(FlagUndertime):
		return CategoryUndertime
	}
	return CategoryNone
}

// Categories lists every colored category, most specific first.
var Categories = []Category{
	CategoryMultipleOvertimeLate,
	CategoryMultipleUndertimeLate,
	CategoryUndertimeLate,
	CategoryOvertimeLate,
	CategoryAbsent,
	CategoryLate,
	CategoryMultiple,
	CategoryMissed,
	CategoryOvertime,
	CategoryUndertime,
}

var categoryColors = map[Category]string{
	CategoryMultipleOvertimeLate:  "#A93226",
	CategoryMultipleUndertimeLate: "#E74C3C",
	CategoryUndertimeLate:         "#EC7063",
	CategoryOvertimeLate:          "#EE82EE", // violet
	CategoryAbsent:                "#FF0000",
	CategoryLate:                  "#FFFF00",
	CategoryMultiple:              "#808080",
	CategoryMissed:                "#FFC0CB",
	CategoryOvertime:              "#0000FF",
	CategoryUndertime:             "#FFA500",
}

// Color returns the fill color for the category, "" for none.
func (c Category) Color() string {
	return categoryColors[c]
}

func (c Category) String() string {
	switch c {
	case CategoryMultipleOvertimeLate:
		return "multiple_overtime_late"
	case CategoryMultipleUndertimeLate:
		return "multiple_undertime_late"
	case CategoryUndertimeLate:
		return "undertime_late"
	case CategoryOvertimeLate:
		return "overtime_late"
	case CategoryAbsent:
		return "absent"
	case CategoryLate:
		return "late"
	case CategoryMultiple:
		return "multiple"
	case CategoryMissed:
		return "missed"
	case CategoryOvertime:
		return "overtime"
	case CategoryUndertime:
		return "undertime"
	}
	return "none"
}
