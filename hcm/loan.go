/*
loan.go - Cash advances and their status machine

PURPOSE:
  A LoanRequest is a cash advance repaid through fixed monthly payroll
  deductions. Only the status machine lives here; the payroll calculator
  computes installments and the service layer posts them against balances
  when a payroll run is approved.

STATUS MACHINE:
  Pending -> Approved | Rejected
  Approved -> Paid        (when remaining balance reaches zero)
  Rejected, Paid          terminal

INVARIANTS:
  - RemainingBalance never exceeds Principal
  - An installment is min(MonthlyDeduction, RemainingBalance)
  - Only Approved loans with a positive balance are deducted
*/
package hcm

// =============================================================================
// LOAN REQUEST
// =============================================================================

type LoanStatus string

const (
	LoanPending  LoanStatus = "Pending"
	LoanApproved LoanStatus = "Approved"
	LoanRejected LoanStatus = "Rejected"
	LoanPaid     LoanStatus = "Paid"
)

type LoanRequest struct {
	ID               LoanID
	EmployeeID       EmployeeID
	Principal        Money
	MonthlyDeduction Money
	RemainingBalance Money
	Reason           string
	Status           LoanStatus
	RequestDate      TimePoint
}

// Deductible reports whether this loan participates in payroll deduction.
func (l LoanRequest) Deductible() bool {
	return l.Status == LoanApproved && l.RemainingBalance.IsPositive()
}

// Installment returns this month's deduction, capped by the remaining
// balance so the final installment never overshoots.
func (l LoanRequest) Installment() Money {
	if !l.Deductible() {
		return ZeroMoney()
	}
	return l.MonthlyDeduction.Min(l.RemainingBalance)
}

// CanTransition reports whether the status change is legal.
func (l LoanRequest) CanTransition(to LoanStatus) bool {
	switch l.Status {
	case LoanPending:
		return to == LoanApproved || to == LoanRejected
	case LoanApproved:
		return to == LoanPaid
	default:
		// Rejected and Paid are terminal.
		return false
	}
}

// ApplyInstallment reduces the remaining balance by the given amount and
// flips the loan to Paid when it reaches zero. The amount is expected to
// come from Installment(); anything larger is capped at the balance.
func (l LoanRequest) ApplyInstallment(amount Money) LoanRequest {
	if !l.Deductible() || !amount.IsPositive() {
		return l
	}
	applied := amount.Min(l.RemainingBalance)
	l.RemainingBalance = l.RemainingBalance.Sub(applied)
	if l.RemainingBalance.IsZero() {
		l.Status = LoanPaid
	}
	return l
}
