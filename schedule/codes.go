package schedule

import "github.com/warp/attendance-engine/generic"

// Built-in schedule vocabulary. Anything in a schedule cell that is neither
// one of these (or a code registered from configuration) nor a shift range
// is free text.
const (
	CodeTraining         generic.Code = "TRN"
	CodeHoliday          generic.Code = "HD"
	CodeVacation         generic.Code = "VL"
	CodeAbsentApproved   generic.Code = "ABSA"
	CodeAbsentUnapproved generic.Code = "ABSU"
	CodeNoCallNoShow     generic.Code = "NCNS"
	CodeRestDayOT        generic.Code = "RDOT"
	CodeReturnToWork     generic.Code = "RTWO"
	CodeAttrition        generic.Code = "ATTRIT"
	CodeSick             generic.Code = "SL"
	CodeEmergency        generic.Code = "EL"
	CodeBereavement      generic.Code = "BL"
	CodeMaternity        generic.Code = "ML"
	CodeOff              generic.Code = "OFF"
	CodeSuspended        generic.Code = "SUSPENDED"
	CodeLate             generic.Code = "LATE"
	CodeAbsent           generic.Code = "ABSENT"
)

var builtinCodes = map[generic.Code]generic.CodeClass{
	CodeVacation:         generic.ClassLeave,
	CodeSick:             generic.ClassLeave,
	CodeEmergency:        generic.ClassLeave,
	CodeBereavement:      generic.ClassLeave,
	CodeMaternity:        generic.ClassLeave,
	CodeOff:              generic.ClassRest,
	CodeHoliday:          generic.ClassRest,
	CodeRestDayOT:        generic.ClassRest,
	CodeTraining:         generic.ClassTraining,
	CodeAbsentApproved:   generic.ClassStatus,
	CodeAbsentUnapproved: generic.ClassStatus,
	CodeNoCallNoShow:     generic.ClassStatus,
	CodeReturnToWork:     generic.ClassStatus,
	CodeAttrition:        generic.ClassStatus,
	CodeSuspended:        generic.ClassStatus,
	CodeLate:             generic.ClassStatus,
	CodeAbsent:           generic.ClassStatus,
}

// Register all built-in codes with the generic registry
func init() {
	for code, class := range builtinCodes {
		generic.RegisterCode(code, class)
	}
}

// IsBuiltin reports whether code ships with the engine.
func IsBuiltin(code generic.Code) bool {
	_, ok := builtinCodes[code]
	return ok
}
