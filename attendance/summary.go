/*
summary.go - Monthly aggregation of classified attendance

PURPOSE:
  Collapses one month of classified AttendanceRecords into the counts and
  per-day overtime figures the payroll calculator consumes. Impossible
  records (checkout before check-in, duplicate days) are excluded from the
  aggregate with a recorded warning rather than failing the month.

SEE ALSO:
  - classifier.go: Produces the per-day records
  - payroll/calculator.go: Consumes MonthlySummary
*/
package attendance

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/hcm"
)

// =============================================================================
// DIAGNOSTICS
// =============================================================================

// Diagnostic is a recoverable problem found while aggregating. The run
// continues; the caller reports these alongside the results.
type Diagnostic struct {
	EmployeeID hcm.EmployeeID
	Date       hcm.TimePoint
	Code       string
	Message    string
}

const (
	DiagInvalidDay   = "invalid_attendance"
	DiagDuplicateDay = "duplicate_day"
)

// =============================================================================
// MONTHLY SUMMARY
// =============================================================================

// OvertimeDay pairs overtime hours with their date, so the calculator
// can apply the Sunday/holiday multiplier per day.
type OvertimeDay struct {
	Date  hcm.TimePoint
	Hours decimal.Decimal
}

// MonthlySummary is one employee's attendance month, aggregated.
type MonthlySummary struct {
	EmployeeID hcm.EmployeeID
	Month      hcm.Month

	Present  int
	Late     int
	HalfDays int
	Absent   int
	Leave    int

	WorkedHours decimal.Decimal
	Overtime    []OvertimeDay

	Diagnostics []Diagnostic
}

// PaidDays returns the count of days with any credit at all.
func (s MonthlySummary) PaidDays() int {
	return s.Present + s.Late + s.HalfDays + s.Leave
}

// Summarize aggregates a month of classified records for one employee.
// Records outside the month are ignored; duplicate and impossible days
// are excluded with diagnostics. At most one record per day survives:
// the first one seen wins, matching the first-check-in authority rule.
func Summarize(emp hcm.Employee, month hcm.Month, records []hcm.AttendanceRecord) MonthlySummary {
	s := MonthlySummary{
		EmployeeID:  emp.ID,
		Month:       month,
		WorkedHours: decimal.Zero,
	}

	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		if !month.Contains(rec.Date) {
			continue
		}
		key := rec.Date.String()
		if seen[key] {
			s.Diagnostics = append(s.Diagnostics, Diagnostic{
				EmployeeID: emp.ID,
				Date:       rec.Date,
				Code:       DiagDuplicateDay,
				Message:    fmt.Sprintf("second record for %s ignored", rec.Date),
			})
			continue
		}
		seen[key] = true

		if err := validate(emp.Shift, rec); err != nil {
			s.Diagnostics = append(s.Diagnostics, Diagnostic{
				EmployeeID: emp.ID,
				Date:       rec.Date,
				Code:       DiagInvalidDay,
				Message:    err.Error(),
			})
			continue
		}

		switch rec.Status {
		case hcm.StatusPresent:
			s.Present++
		case hcm.StatusLate:
			s.Late++
		case hcm.StatusHalfDay:
			s.HalfDays++
		case hcm.StatusAbsent:
			s.Absent++
		case hcm.StatusLeave:
			s.Leave++
		}

		s.WorkedHours = s.WorkedHours.Add(rec.WorkedHours)
		if rec.OvertimeHours.IsPositive() {
			s.Overtime = append(s.Overtime, OvertimeDay{Date: rec.Date, Hours: rec.OvertimeHours})
		}
	}

	return s
}

// validate rejects records in an impossible state. Status consistency is
// the classifier's job; this guards against records mutated after the
// fact or imported from outside.
func validate(shift hcm.Shift, rec hcm.AttendanceRecord) error {
	if rec.CheckOut != nil && rec.CheckIn == nil {
		return &hcm.InvalidAttendanceError{
			EmployeeID: rec.EmployeeID,
			Date:       rec.Date,
			Reason:     "checkout recorded without check-in",
		}
	}
	if rec.CheckIn != nil && rec.CheckOut != nil &&
		!shift.CrossesMidnight() && rec.CheckOut.Minutes < rec.CheckIn.Minutes {
		return &hcm.InvalidAttendanceError{
			EmployeeID: rec.EmployeeID,
			Date:       rec.Date,
			Reason:     "checkout before check-in",
		}
	}
	if rec.WorkedHours.IsNegative() || rec.OvertimeHours.IsNegative() {
		return &hcm.InvalidAttendanceError{
			EmployeeID: rec.EmployeeID,
			Date:       rec.Date,
			Reason:     "negative hour credit",
		}
	}
	return nil
}
