/*
store.go - Persistence interfaces for the HCM domain

PURPOSE:
  Defines the interface between the domain logic and the database.
  Different implementations can use SQLite or in-memory storage.

KEY INTERFACES:
  EmployeeStore:   Employee records
  PositionStore:   Compensation templates
  AttendanceStore: One record per employee-day, uniqueness enforced here
  LoanStore:       Loan requests and balance updates
  HolidayStore:    Company holiday calendar

UNIQUENESS CONTRACT:
  CreateAttendance rejects a second record for the same (employee, date)
  pair with ErrDuplicateAttendance. Clock-out events go through
  UpdateAttendance; re-punches never create a second record.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - hcm/store/memory.go: In-memory for testing

SEE ALSO:
  - payroll/store.go: Payroll run persistence (depends on payroll types)
*/
package hcm

import "context"

// =============================================================================
// DOMAIN STORES
// =============================================================================

type EmployeeStore interface {
	SaveEmployee(ctx context.Context, emp Employee) error
	GetEmployee(ctx context.Context, id EmployeeID) (Employee, error)
	// ListEmployees returns all employees, active and inactive.
	ListEmployees(ctx context.Context) ([]Employee, error)
}

type PositionStore interface {
	SavePosition(ctx context.Context, pos Position) error
	GetPosition(ctx context.Context, id PositionID) (Position, error)
	ListPositions(ctx context.Context) ([]Position, error)
}

type AttendanceStore interface {
	// CreateAttendance persists a new employee-day. Returns
	// ErrDuplicateAttendance if the day already has a record.
	CreateAttendance(ctx context.Context, rec AttendanceRecord) error

	// UpdateAttendance replaces the existing record for the same
	// (employee, date) pair.
	UpdateAttendance(ctx context.Context, rec AttendanceRecord) error

	GetAttendanceByDay(ctx context.Context, id EmployeeID, date TimePoint) (AttendanceRecord, error)

	// ListAttendanceByMonth returns one employee's records inside the month.
	ListAttendanceByMonth(ctx context.Context, id EmployeeID, month Month) ([]AttendanceRecord, error)

	// ListAttendanceByDate returns every employee's record for one date.
	// The absent-backfill job uses this to find who never clocked in.
	ListAttendanceByDate(ctx context.Context, date TimePoint) ([]AttendanceRecord, error)
}

type LoanStore interface {
	SaveLoan(ctx context.Context, loan LoanRequest) error
	GetLoan(ctx context.Context, id LoanID) (LoanRequest, error)
	ListLoansByEmployee(ctx context.Context, id EmployeeID) ([]LoanRequest, error)
	ListLoans(ctx context.Context) ([]LoanRequest, error)
}

type HolidayStore interface {
	SaveHoliday(ctx context.Context, h Holiday) error
	ListHolidays(ctx context.Context) ([]Holiday, error)
}

// Store aggregates the domain stores a full deployment provides.
type Store interface {
	EmployeeStore
	PositionStore
	AttendanceStore
	LoanStore
	HolidayStore
}
