package hcm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func approvedLoan(monthly, remaining float64) LoanRequest {
	return LoanRequest{
		ID:               "loan-1",
		EmployeeID:       "emp-1",
		Principal:        NewMoney(20000),
		MonthlyDeduction: NewMoney(monthly),
		RemainingBalance: NewMoney(remaining),
		Status:           LoanApproved,
	}
}

func TestLoanStatusMachine(t *testing.T) {
	tests := []struct {
		from, to LoanStatus
		ok       bool
	}{
		{LoanPending, LoanApproved, true},
		{LoanPending, LoanRejected, true},
		{LoanPending, LoanPaid, false},
		{LoanApproved, LoanPaid, true},
		{LoanApproved, LoanRejected, false},
		{LoanApproved, LoanPending, false},
		{LoanRejected, LoanApproved, false},
		{LoanPaid, LoanApproved, false},
	}
	for _, tc := range tests {
		loan := LoanRequest{Status: tc.from}
		assert.Equal(t, tc.ok, loan.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestInstallmentCappedByBalance(t *testing.T) {
	// GIVEN 500 remaining on a 2,000 monthly deduction
	loan := approvedLoan(2000, 500)

	// THEN only the balance is due
	assert.True(t, loan.Installment().Equal(NewMoney(500)))

	// Pending and rejected loans owe nothing.
	loan.Status = LoanPending
	assert.True(t, loan.Installment().IsZero())
	loan.Status = LoanRejected
	assert.True(t, loan.Installment().IsZero())
}

func TestApplyInstallment(t *testing.T) {
	loan := approvedLoan(2000, 4000)

	loan = loan.ApplyInstallment(loan.Installment())
	assert.True(t, loan.RemainingBalance.Equal(NewMoney(2000)))
	assert.Equal(t, LoanApproved, loan.Status)

	// The final installment settles the loan.
	loan = loan.ApplyInstallment(loan.Installment())
	assert.True(t, loan.RemainingBalance.IsZero())
	assert.Equal(t, LoanPaid, loan.Status)

	// Further applications are no-ops on a settled loan.
	after := loan.ApplyInstallment(NewMoney(100))
	assert.True(t, after.RemainingBalance.IsZero())
	assert.Equal(t, LoanPaid, after.Status)
}

func TestApplyInstallmentNeverOvershoots(t *testing.T) {
	loan := approvedLoan(2000, 500)
	loan = loan.ApplyInstallment(NewMoney(2000))
	assert.True(t, loan.RemainingBalance.IsZero(), "balance must clamp at zero, got %s", loan.RemainingBalance)
	assert.Equal(t, LoanPaid, loan.Status)
}
