/*
Package attendance derives daily attendance status from clock punches.

PURPOSE:
  Given an employee's shift and the day's check-in/check-out punches,
  decide whether the day is Present, Late, HalfDay, or Absent, and how
  many worked and overtime hours it carries. This is the leaf component
  of the payroll pipeline: it has no dependencies beyond the domain model
  and performs no I/O.

CLASSIFICATION RULES:
  - No check-in by end of day      -> Absent, 0 hours
  - Check-in within 15 min grace   -> Present, 8 hours (+overtime past 8h)
  - 15 < delay <= 120 min          -> Late, 8 - minutesLate/60 hours
  - delay > 120 min                -> HalfDay, 4 hours, checkout ignored
  - Short-leave flag               -> status unchanged, hours capped at 6

NIGHT SHIFT:
  The 23:00 shift wraps past midnight, so lateness is computed modulo 24
  hours (see hcm.ClockTime.DeltaMinutes). A 00:10 punch against a 23:00
  start is 70 minutes late, not 22 hours early.

SEE ALSO:
  - summary.go: Monthly aggregation over classified days
  - payroll package: Consumes the monthly summary
*/
package attendance

import (
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/hcm"
)

// =============================================================================
// POLICY CONSTANTS
// =============================================================================

const (
	// GraceMinutes is the window after shift start during which a
	// check-in still counts as on time.
	GraceMinutes = 15

	// HalfDayCutoffMinutes is the lateness beyond which the employee is
	// credited for only half a day.
	HalfDayCutoffMinutes = 120

	// StandardShiftHours is the length of a full shift.
	StandardShiftHours = 8

	// HalfDayHours is the credit for a HalfDay classification.
	HalfDayHours = 4

	// ShortLeaveHours is the credit cap for a day with an approved
	// short leave.
	ShortLeaveHours = 6
)

// =============================================================================
// CLASSIFICATION
// =============================================================================

// Day is the raw material for one classification: the authoritative
// punches for one employee-day, after event resolution.
type Day struct {
	Date       hcm.TimePoint
	CheckIn    *hcm.ClockTime
	CheckOut   *hcm.ClockTime
	ShortLeave bool
}

// Result is the classifier's verdict for one day.
type Result struct {
	Status        hcm.AttendanceStatus
	WorkedHours   decimal.Decimal
	OvertimeHours decimal.Decimal

	// MinutesLate is the positive lateness that drove the status.
	// Zero for on-time and absent days.
	MinutesLate int
}

var (
	standardHours = decimal.NewFromInt(StandardShiftHours)
	halfDayHours  = decimal.NewFromInt(HalfDayHours)
	shortHours    = decimal.NewFromInt(ShortLeaveHours)
	sixty         = decimal.NewFromInt(60)
)

// Classify derives the attendance status and hour credits for one day.
// Classification never fails on valid punches; the only error is an
// impossible punch pair (checkout before check-in on a non-wrapping
// shift), reported as InvalidAttendanceError.
func Classify(shift hcm.Shift, day Day) (Result, error) {
	if day.CheckIn == nil {
		// A checkout without a check-in is an impossible state.
		if day.CheckOut != nil {
			return Result{}, &hcm.InvalidAttendanceError{
				Date:   day.Date,
				Reason: "checkout recorded without check-in",
			}
		}
		return Result{Status: hcm.StatusAbsent, WorkedHours: decimal.Zero, OvertimeHours: decimal.Zero}, nil
	}

	if day.CheckOut != nil && !shift.CrossesMidnight() && day.CheckOut.Minutes < day.CheckIn.Minutes {
		return Result{}, &hcm.InvalidAttendanceError{
			Date:   day.Date,
			Reason: "checkout before check-in",
		}
	}

	late := day.CheckIn.DeltaMinutes(shift.Start)
	if late < 0 {
		// Early arrival. The shift window still starts at shift start.
		late = 0
	}

	var res Result
	switch {
	case late <= GraceMinutes:
		res.Status = hcm.StatusPresent
		res.WorkedHours = standardHours
		res.OvertimeHours = overtime(shift, day)
	case late <= HalfDayCutoffMinutes:
		// Credited only for hours actually present within the shift
		// window; no makeup, no overtime.
		res.Status = hcm.StatusLate
		res.MinutesLate = late
		res.WorkedHours = standardHours.Sub(decimal.NewFromInt(int64(late)).Div(sixty))
	default:
		res.Status = hcm.StatusHalfDay
		res.MinutesLate = late
		res.WorkedHours = halfDayHours
	}

	if day.ShortLeave && res.WorkedHours.GreaterThan(shortHours) {
		res.WorkedHours = shortHours
	}

	return res, nil
}

// overtime computes hours worked past the standard shift length. The
// payable window opens at shift start: an early arrival does not move
// the 8-hour mark forward. A missing checkout means no overtime can be
// credited; it never changes the status.
func overtime(shift hcm.Shift, day Day) decimal.Decimal {
	if day.CheckOut == nil {
		return decimal.Zero
	}
	start := *day.CheckIn
	if start.DeltaMinutes(shift.Start) < 0 {
		start = shift.Start
	}
	span := start.SpanMinutes(*day.CheckOut)
	worked := decimal.NewFromInt(int64(span)).Div(sixty)
	ot := worked.Sub(standardHours)
	if ot.IsNegative() {
		return decimal.Zero
	}
	return ot
}

// =============================================================================
// EVENT RESOLUTION - First check-in and last check-out are authoritative
// =============================================================================

type PunchType string

const (
	PunchIn  PunchType = "IN"
	PunchOut PunchType = "OUT"
)

// Punch is one raw clock event as received from a kiosk or terminal.
type Punch struct {
	Type PunchType
	At   hcm.ClockTime
}

// ResolveDay collapses a day's raw punches into the authoritative pair:
// the first check-in and the last check-out. Intermediate events are
// ignored; a re-punch never re-classifies the day.
func ResolveDay(date hcm.TimePoint, punches []Punch, shortLeave bool) Day {
	day := Day{Date: date, ShortLeave: shortLeave}
	for _, p := range punches {
		at := p.At
		switch p.Type {
		case PunchIn:
			if day.CheckIn == nil {
				day.CheckIn = &at
			}
		case PunchOut:
			day.CheckOut = &at
		}
	}
	return day
}
