/*
Package payroll computes monthly pay from attendance, positions, and loans.

PURPOSE:
  The calculator is the heart of the engine: it turns one month of
  classified attendance plus the employee's compensation contract into a
  LineItem with every component itemized. The pipeline runs six ordered
  steps per employee:

    1. Allowances   standard (employee) + custom (position), into gross
    2. Overtime     per-day hours at base/(workingDays*8), x2 on
                    Sundays and holidays
    3. Lates        one day's base pay deducted per three late arrivals
    4. Tax          flat or bracketed withholding on gross (tax.go)
    5. Loans        installments capped at the remaining balance
    6. Net          gross + overtime + incentive - all deductions

  A provident-fund contribution and an optional production incentive
  ride alongside, and a position-level salary cap splits the net figure
  into bank and cash payables.

ERROR DISCIPLINE:
  Per-employee problems (unknown position) skip that employee and add a
  diagnostic; the run continues. A malformed tax table aborts the run
  before any employee is computed, since it would corrupt every figure.

SEE ALSO:
  - tax.go: TaxPolicy and the bracket computation
  - attendance package: Produces the MonthlySummary consumed here
*/
package payroll

import (
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/hcm"
)

// =============================================================================
// POLICY CONSTANTS
// =============================================================================

const (
	// LatesPerDeduction is how many late arrivals cost one day's base pay.
	LatesPerDeduction = 3

	// HoursPerWorkingDay is the divisor that turns a working day into
	// payable hours for the overtime rate.
	HoursPerWorkingDay = 8
)

// holidayMultiplier applies to overtime worked on Sundays and holidays.
var holidayMultiplier = decimal.NewFromFloat(2.0)

// =============================================================================
// LINE ITEM - One employee's computed month
// =============================================================================

// LineItem is the fully itemized pay for one employee-month. Every
// component is carried separately so that the identity
//
//	Net = Gross + OvertimePay + Incentive - Tax - LateDeduction
//	      - LoanDeduction - PFDeduction
//
// can be audited from the record alone.
type LineItem struct {
	EmployeeID   hcm.EmployeeID
	EmployeeName string
	PositionID   hcm.PositionID
	Position     string
	Month        hcm.Month

	BaseSalary hcm.Money
	Allowances hcm.Money
	Gross      hcm.Money

	OvertimeHours decimal.Decimal
	OvertimePay   hcm.Money
	Incentive     hcm.Money

	Tax           hcm.Money
	LateDeduction hcm.Money
	LoanDeduction hcm.Money
	PFDeduction   hcm.Money

	// LoanPostings freezes the per-loan installments behind LoanDeduction
	// at computation time. Approval posts exactly these amounts, so a loan
	// that changes between compute and approve cannot shift the figures.
	LoanPostings []LoanPosting

	Net hcm.Money

	// BankPayable and CashPayable split Net when the position carries a
	// salary cap. Without a cap the whole net figure goes to the bank.
	BankPayable hcm.Money
	CashPayable hcm.Money

	PresentDays int
	LateDays    int
	HalfDays    int
	AbsentDays  int
	LeaveDays   int
	WorkingDays int
}

// =============================================================================
// RUN INPUT / RESULT
// =============================================================================

// LoanPosting is one loan's installment as deducted by a line item.
type LoanPosting struct {
	LoanID hcm.LoanID
	Amount hcm.Money
}

// RunDiagnostic is a recoverable problem found during a run: the
// affected employee or day is skipped and the run continues.
type RunDiagnostic struct {
	EmployeeID hcm.EmployeeID
	Code       string
	Message    string
}

const (
	DiagMissingPosition = "missing_position"
	DiagInvalidDay      = attendance.DiagInvalidDay
	DiagDuplicateDay    = attendance.DiagDuplicateDay
)

// RunInput is the read-only snapshot a payroll run computes from. The
// calculator never mutates it; loan balance updates happen when the run
// is approved, not here.
type RunInput struct {
	Month     hcm.Month
	Employees []hcm.Employee
	Positions map[hcm.PositionID]hcm.Position

	// Attendance holds the month's classified records per employee.
	Attendance map[hcm.EmployeeID][]hcm.AttendanceRecord

	// Loans holds every loan per employee; only deductible ones
	// (approved, balance remaining) contribute an installment.
	Loans map[hcm.EmployeeID][]hcm.LoanRequest

	// Incentives are optional per-employee production incentives.
	Incentives map[hcm.EmployeeID]hcm.Money

	// TaxOverrides replaces the position's flat rate for positions under
	// a bracketed jurisdiction. Absent entries fall back to
	// Flat(position.TaxPercentage).
	TaxOverrides map[hcm.PositionID]TaxPolicy

	Calendar hcm.HolidayCalendar
}

// RunResult is the outcome of one payroll run: a line item per computed
// employee plus the diagnostics for everything skipped along the way.
type RunResult struct {
	Month       hcm.Month
	WorkingDays int
	Items       []LineItem
	Diagnostics []RunDiagnostic
}

// TotalNet sums the net pay across all line items.
func (r *RunResult) TotalNet() hcm.Money {
	total := hcm.ZeroMoney()
	for _, it := range r.Items {
		total = total.Add(it.Net)
	}
	return total
}

// =============================================================================
// CALCULATOR
// =============================================================================

type Calculator struct{}

func NewCalculator() *Calculator {
	return &Calculator{}
}

// Run computes the month for every employee in the input. Inactive
// employees are skipped silently; employees with an unknown position are
// skipped with a diagnostic. A malformed tax policy aborts the run.
func (c *Calculator) Run(in RunInput) (*RunResult, error) {
	for _, policy := range in.TaxOverrides {
		if err := policy.Validate(); err != nil {
			return nil, err
		}
	}
	for _, pos := range in.Positions {
		if err := Flat(pos.TaxPercentage).Validate(); err != nil {
			return nil, err
		}
	}

	calendar := in.Calendar
	if calendar == nil {
		calendar = &hcm.DefaultHolidayCalendar{}
	}

	result := &RunResult{
		Month:       in.Month,
		WorkingDays: in.Month.WorkingDays(calendar),
	}

	for _, emp := range in.Employees {
		if !emp.IsActive {
			continue
		}

		pos, ok := in.Positions[emp.PositionID]
		if !ok {
			err := &hcm.MissingPositionError{EmployeeID: emp.ID, PositionID: emp.PositionID}
			result.Diagnostics = append(result.Diagnostics, RunDiagnostic{
				EmployeeID: emp.ID,
				Code:       DiagMissingPosition,
				Message:    err.Error(),
			})
			continue
		}

		summary := attendance.Summarize(emp, in.Month, in.Attendance[emp.ID])
		for _, d := range summary.Diagnostics {
			result.Diagnostics = append(result.Diagnostics, RunDiagnostic{
				EmployeeID: d.EmployeeID,
				Code:       d.Code,
				Message:    d.Message,
			})
		}

		item := c.ComputeLineItem(
			emp, pos, summary,
			in.Loans[emp.ID],
			in.Incentives[emp.ID],
			c.taxFor(in, pos),
			result.WorkingDays,
			calendar,
		)
		result.Items = append(result.Items, item)
	}

	return result, nil
}

func (c *Calculator) taxFor(in RunInput, pos hcm.Position) TaxPolicy {
	if policy, ok := in.TaxOverrides[pos.ID]; ok {
		return policy
	}
	return Flat(pos.TaxPercentage)
}

// ComputeLineItem runs the six-step pipeline for one employee-month.
// The summary must already be aggregated for the same month.
func (c *Calculator) ComputeLineItem(
	emp hcm.Employee,
	pos hcm.Position,
	summary attendance.MonthlySummary,
	loans []hcm.LoanRequest,
	incentive hcm.Money,
	tax TaxPolicy,
	workingDays int,
	calendar hcm.HolidayCalendar,
) LineItem {
	if calendar == nil {
		calendar = &hcm.DefaultHolidayCalendar{}
	}
	item := LineItem{
		EmployeeID:   emp.ID,
		EmployeeName: emp.FullName(),
		PositionID:   pos.ID,
		Position:     pos.Title,
		Month:        summary.Month,
		BaseSalary:   pos.BaseSalary,
		Incentive:    incentive,
		PresentDays:  summary.Present,
		LateDays:     summary.Late,
		HalfDays:     summary.HalfDays,
		AbsentDays:   summary.Absent,
		LeaveDays:    summary.Leave,
		WorkingDays:  workingDays,
	}

	// Step 1: allowances into gross.
	item.Allowances = emp.Allowances.Total().Add(pos.TotalCustomAllowances())
	item.Gross = pos.BaseSalary.Add(item.Allowances)

	// Step 2: overtime.
	item.OvertimeHours, item.OvertimePay = c.overtimePay(pos, summary, workingDays, calendar)

	// Step 3: late deduction, one day's base pay per three lates.
	item.LateDeduction = c.lateDeduction(pos.BaseSalary, summary.Late, workingDays)

	// Step 4: tax on gross.
	item.Tax = tax.MonthlyTax(item.Gross)

	// Step 5: loan installments, each capped at its remaining balance.
	item.LoanDeduction, item.LoanPostings = c.loanDeduction(loans)

	// Provident fund rides on base salary, not gross.
	item.PFDeduction = pos.BaseSalary.Mul(emp.ProvidentFundPct).Div(hundred)

	// Step 6: net.
	item.Net = item.Gross.
		Add(item.OvertimePay).
		Add(item.Incentive).
		Sub(item.Tax).
		Sub(item.LateDeduction).
		Sub(item.LoanDeduction).
		Sub(item.PFDeduction)

	item.BankPayable, item.CashPayable = c.splitPayable(pos, item.Net)

	return item
}

// overtimePay prices each overtime day at the derived hourly rate.
// Sundays and holidays pay double. A zero overtime rate means the
// position earns no overtime at all, weekend or not.
func (c *Calculator) overtimePay(
	pos hcm.Position,
	summary attendance.MonthlySummary,
	workingDays int,
	calendar hcm.HolidayCalendar,
) (decimal.Decimal, hcm.Money) {
	totalHours := decimal.Zero
	for _, day := range summary.Overtime {
		totalHours = totalHours.Add(day.Hours)
	}

	if !pos.OvertimeEligible() || workingDays <= 0 {
		return totalHours, hcm.ZeroMoney()
	}

	payableHours := decimal.NewFromInt(int64(workingDays) * HoursPerWorkingDay)
	hourlyRate := pos.BaseSalary.Div(payableHours)

	pay := hcm.ZeroMoney()
	for _, day := range summary.Overtime {
		mult := pos.OvertimeRate
		if day.Date.IsSunday() || calendar.IsHoliday(day.Date) {
			mult = holidayMultiplier
		}
		pay = pay.Add(hourlyRate.Mul(day.Hours).Mul(mult))
	}

	return totalHours, pay
}

// lateDeduction costs one day's base pay per full group of three lates.
// The count resets every month; a leftover of one or two lates carries
// no penalty.
func (c *Calculator) lateDeduction(base hcm.Money, lates, workingDays int) hcm.Money {
	if workingDays <= 0 {
		return hcm.ZeroMoney()
	}
	groups := lates / LatesPerDeduction
	if groups == 0 {
		return hcm.ZeroMoney()
	}
	perDay := base.Div(decimal.NewFromInt(int64(workingDays)))
	return perDay.Mul(decimal.NewFromInt(int64(groups)))
}

// loanDeduction sums this month's installment across the employee's
// deductible loans and records each one as a posting. The installment
// never exceeds the remaining balance, so the final payment can be
// smaller than the agreed monthly amount.
func (c *Calculator) loanDeduction(loans []hcm.LoanRequest) (hcm.Money, []LoanPosting) {
	total := hcm.ZeroMoney()
	var postings []LoanPosting
	for _, loan := range loans {
		if !loan.Deductible() {
			continue
		}
		installment := loan.Installment()
		total = total.Add(installment)
		postings = append(postings, LoanPosting{LoanID: loan.ID, Amount: installment})
	}
	return total, postings
}

// splitPayable divides the net figure between the bank transfer and the
// cash envelope. The cash component is the base salary's excess over the
// cap; everything else goes through the bank. A negative bank figure is
// clamped to zero with the shortfall taken out of cash.
func (c *Calculator) splitPayable(pos hcm.Position, net hcm.Money) (bank, cash hcm.Money) {
	if pos.SalaryCap == nil || !pos.BaseSalary.GreaterThan(*pos.SalaryCap) {
		return net, hcm.ZeroMoney()
	}

	cash = pos.BaseSalary.Sub(*pos.SalaryCap)
	bank = net.Sub(cash)
	if bank.IsNegative() {
		cash = cash.Add(bank)
		bank = hcm.ZeroMoney()
		if cash.IsNegative() {
			cash = net
		}
	}
	return bank, cash
}
