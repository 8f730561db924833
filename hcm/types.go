/*
Package hcm provides the shared domain model for the payroll engine.

PURPOSE:
  This package contains the data types that flow between the attendance
  classifier, the payroll calculator, and the surrounding service layer:
  money, employees, positions, attendance records, and loans. It has no
  dependency on storage or transport.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A monetary amount backed by decimal.Decimal
  - Position: A compensation template shared by many employees
  - Employee: A person record with shift, allowances, and leave balances
  - AttendanceRecord: One classified day per employee

DESIGN PRINCIPLES:
  1. Precision: Money uses decimal.Decimal; rounding happens only at display
  2. Immutability: the computation engines receive snapshots and never
     mutate them
  3. Type Safety: strong ID types prevent mixing employee/position IDs

SEE ALSO:
  - time.go: Clock times, months, working-day calendars
  - loan.go: Loan requests and their status machine
  - errors.go: Centralized error types
*/
package hcm

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Monetary amount with decimal precision
// =============================================================================

type Money struct {
	Value decimal.Decimal
}

func NewMoney(value float64) Money {
	return Money{Value: decimal.NewFromFloat(value)}
}

func NewMoneyFromInt(value int64) Money {
	return Money{Value: decimal.NewFromInt(value)}
}

func ZeroMoney() Money {
	return Money{Value: decimal.Zero}
}

func MustParseMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ZeroMoney()
	}
	return Money{Value: d}
}

func (m Money) Add(o Money) Money           { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) Sub(o Money) Money           { return Money{Value: m.Value.Sub(o.Value)} }
func (m Money) Mul(s decimal.Decimal) Money { return Money{Value: m.Value.Mul(s)} }
func (m Money) Div(s decimal.Decimal) Money { return Money{Value: m.Value.Div(s)} }
func (m Money) Neg() Money                  { return Money{Value: m.Value.Neg()} }
func (m Money) IsZero() bool                { return m.Value.IsZero() }
func (m Money) IsNegative() bool            { return m.Value.IsNegative() }
func (m Money) IsPositive() bool            { return m.Value.IsPositive() }
func (m Money) GreaterThan(o Money) bool    { return m.Value.GreaterThan(o.Value) }
func (m Money) LessThan(o Money) bool       { return m.Value.LessThan(o.Value) }
func (m Money) Equal(o Money) bool          { return m.Value.Equal(o.Value) }

func (m Money) Min(o Money) Money {
	if m.LessThan(o) {
		return m
	}
	return o
}

func (m Money) Float64() float64 {
	f, _ := m.Value.Float64()
	return f
}

// Rounded returns the amount rounded to the nearest currency unit.
// Intermediate payroll steps never call this; only display formatting does.
func (m Money) Rounded() Money {
	return Money{Value: m.Value.Round(2)}
}

func (m Money) String() string {
	return m.Value.StringFixed(2)
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type PositionID string
type LoanID string

// =============================================================================
// POSITION - Compensation template shared by many employees
// =============================================================================

// EmployeeType distinguishes shop-floor labor from salaried management.
type EmployeeType string

const (
	TypeLabor      EmployeeType = "Labor"
	TypeManagement EmployeeType = "Management"
)

// ManagementLevel is the rung on the management ladder. Only meaningful
// when the position type is Management.
type ManagementLevel string

const (
	LevelMTO             ManagementLevel = "MTO"
	LevelExecutive       ManagementLevel = "Executive"
	LevelSeniorExecutive ManagementLevel = "Senior Executive"
	LevelOfficer         ManagementLevel = "Officer"
	LevelAssistantMgr    ManagementLevel = "Assistant Manager"
	LevelDeputyMgr       ManagementLevel = "Deputy Manager"
	LevelManager         ManagementLevel = "Manager"
	LevelSeniorManager   ManagementLevel = "Senior Manager"
	LevelHOD             ManagementLevel = "Head of Department"
	LevelDirector        ManagementLevel = "Director"
	LevelCEO             ManagementLevel = "CEO"
)

// CustomAllowance is a named fixed amount attached to a position
// (tool allowance, heat allowance, ...).
type CustomAllowance struct {
	Name   string
	Amount Money
}

// Position is the compensation contract for a job title.
//
// Invariants: BaseSalary and allowance amounts are non-negative. A zero
// OvertimeRate means the position is not overtime-eligible at all; this is
// policy for senior management, not a configuration mistake.
type Position struct {
	ID         PositionID
	Title      string
	BaseSalary Money

	// SalaryCap splits base pay into a bank component (up to the cap) and
	// an off-ledger cash component (the excess). Nil means no cap.
	SalaryCap *Money

	Type  EmployeeType
	Level ManagementLevel

	// TaxPercentage is the flat withholding rate in [0,100]. Positions
	// under a bracketed jurisdiction override this via the payroll
	// package's TaxPolicy.
	TaxPercentage decimal.Decimal

	OvertimeRate decimal.Decimal

	CustomAllowances []CustomAllowance
}

// TotalCustomAllowances sums the position's named allowances.
func (p Position) TotalCustomAllowances() Money {
	total := ZeroMoney()
	for _, a := range p.CustomAllowances {
		total = total.Add(a.Amount)
	}
	return total
}

// OvertimeEligible reports whether the position earns overtime pay.
func (p Position) OvertimeEligible() bool {
	return p.OvertimeRate.IsPositive()
}

// =============================================================================
// EMPLOYEE
// =============================================================================

// LeaveBalance tracks per-type leave counters for an employee. All
// components are non-negative; decrements go through the leave workflow.
type LeaveBalance struct {
	Casual      int
	Annual      int
	Sick        int
	HalfDays    int
	ShortLeaves int
}

// StandardAllowances are the per-employee fixed monthly allowances.
type StandardAllowances struct {
	Medical Money
	Mobile  Money
	Food    Money
}

func (a StandardAllowances) Total() Money {
	return a.Medical.Add(a.Mobile).Add(a.Food)
}

// Employee is the subset of the person record the engines consume.
type Employee struct {
	ID         EmployeeID
	FirstName  string
	LastName   string
	Email      string
	PositionID PositionID
	Shift      Shift
	JoinDate   TimePoint
	IsActive   bool

	Allowances StandardAllowances

	// ProvidentFundPct is the percentage of base salary withheld as a
	// provident-fund contribution. Zero for employees not enrolled.
	ProvidentFundPct decimal.Decimal

	Leave LeaveBalance
}

func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// =============================================================================
// ATTENDANCE RECORD - One classified day per employee
// =============================================================================

type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "Present"
	StatusAbsent  AttendanceStatus = "Absent"
	StatusLate    AttendanceStatus = "Late"
	StatusHalfDay AttendanceStatus = "HalfDay"
	StatusLeave   AttendanceStatus = "Leave"
)

// AttendanceRecord is one employee-day. Status is derived by the
// attendance classifier, never set directly; at most one record exists per
// (employee, date) pair.
type AttendanceRecord struct {
	ID         string
	EmployeeID EmployeeID
	Date       TimePoint
	Status     AttendanceStatus

	CheckIn  *ClockTime
	CheckOut *ClockTime

	WorkedHours   decimal.Decimal
	OvertimeHours decimal.Decimal
	ShortLeave    bool
}
