/*
errors.go - Centralized error types for the payroll engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Service packages wrap these errors with additional context.

ERROR CATEGORIES:
  1. Recoverable per-employee errors - the run continues without the
     affected employee or day (missing position, invalid attendance)
  2. Fatal configuration errors - the run aborts (a malformed tax table
     invalidates every employee's tax figure equally)
  3. Not-found / validation errors - surfaced to API callers

USAGE:
  if errors.Is(err, hcm.ErrMissingPosition) {
      // skip employee, record diagnostic
  }
*/
package hcm

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMissingPosition is returned when an employee references a position
	// that is not in the lookup table. The employee is skipped, not the run.
	ErrMissingPosition = errors.New("position not found")

	// ErrInvalidAttendance is returned for an attendance record in an
	// impossible state, e.g. checkout before check-in. The day is excluded
	// from the monthly aggregate with a warning.
	ErrInvalidAttendance = errors.New("invalid attendance record")

	// ErrInvalidConfiguration is returned for a malformed tax-bracket table
	// or shift definition. Fatal to the entire payroll run.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrEmployeeNotFound is returned when a referenced employee does not exist.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrLoanNotFound is returned when a referenced loan does not exist.
	ErrLoanNotFound = errors.New("loan not found")

	// ErrIllegalLoanTransition is returned for a status change the loan
	// state machine forbids (e.g. approving a rejected loan).
	ErrIllegalLoanTransition = errors.New("illegal loan status transition")

	// ErrDuplicateAttendance is returned when a second record is created
	// for the same (employee, date) pair.
	ErrDuplicateAttendance = errors.New("attendance record already exists for day")

	// ErrAttendanceNotFound is returned when no record exists for the
	// requested (employee, date) pair.
	ErrAttendanceNotFound = errors.New("attendance record not found")

	// ErrRunNotFound is returned when a referenced payroll run does not exist.
	ErrRunNotFound = errors.New("payroll run not found")

	// ErrRunImmutable is returned when a run past the draft stage is
	// recomputed or approved again. Approved runs have posted their loan
	// installments and cannot change.
	ErrRunImmutable = errors.New("payroll run is not a draft")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// MissingPositionError identifies which employee referenced which missing
// position.
type MissingPositionError struct {
	EmployeeID EmployeeID
	PositionID PositionID
}

func (e *MissingPositionError) Error() string {
	return fmt.Sprintf("employee %s references unknown position %s", e.EmployeeID, e.PositionID)
}

func (e *MissingPositionError) Unwrap() error { return ErrMissingPosition }

// InvalidAttendanceError identifies the offending employee-day and why it
// is impossible.
type InvalidAttendanceError struct {
	EmployeeID EmployeeID
	Date       TimePoint
	Reason     string
}

func (e *InvalidAttendanceError) Error() string {
	return fmt.Sprintf("invalid attendance for %s on %s: %s", e.EmployeeID, e.Date, e.Reason)
}

func (e *InvalidAttendanceError) Unwrap() error { return ErrInvalidAttendance }

// ConfigurationError describes a malformed policy table. Always fatal.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrInvalidConfiguration }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsFatal returns true if the error invalidates an entire payroll run
// rather than a single employee or day.
func IsFatal(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrIllegalLoanTransition) ||
		errors.Is(err, ErrDuplicateAttendance) ||
		errors.Is(err, ErrInvalidAttendance) ||
		errors.Is(err, ErrRunImmutable)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrMissingPosition) ||
		errors.Is(err, ErrLoanNotFound) ||
		errors.Is(err, ErrAttendanceNotFound) ||
		errors.Is(err, ErrRunNotFound)
}
