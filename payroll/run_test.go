package payroll

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/hcm"
)

func draftRun(t *testing.T) *PayrollRun {
	t.Helper()
	calc := NewCalculator()
	result, err := calc.Run(RunInput{
		Month:     august,
		Employees: []hcm.Employee{operator()},
		Positions: map[hcm.PositionID]hcm.Position{"pos-operator": operatorPosition()},
	})
	require.NoError(t, err)
	return NewRun("run-1", result, time.Date(2025, time.September, 1, 9, 0, 0, 0, time.UTC))
}

func TestRunStartsAsDraft(t *testing.T) {
	run := draftRun(t)
	assert.Equal(t, RunDraft, run.Status)
	assert.Nil(t, run.ApprovedAt)
	assert.Len(t, run.Items, 1)
	assert.Equal(t, 26, run.WorkingDays)
}

func TestApproveDraftOnce(t *testing.T) {
	run := draftRun(t)
	when := time.Date(2025, time.September, 2, 10, 0, 0, 0, time.UTC)

	require.NoError(t, run.Approve("director@plant", when))
	assert.Equal(t, RunApproved, run.Status)
	assert.Equal(t, "director@plant", run.ApprovedBy)
	require.NotNil(t, run.ApprovedAt)
	assert.Equal(t, when, *run.ApprovedAt)

	// A second approval must be rejected as a client error.
	err := run.Approve("director@plant", when.Add(time.Hour))
	require.Error(t, err)
	assert.True(t, hcm.IsClientError(err))
}

func TestLoanPostingsMatchInstallments(t *testing.T) {
	// GIVEN a run whose line item deducted a capped installment
	calc := NewCalculator()
	loans := map[hcm.EmployeeID][]hcm.LoanRequest{
		"emp-1": {
			{
				ID:               "loan-1",
				EmployeeID:       "emp-1",
				Principal:        money(20000),
				MonthlyDeduction: money(2000),
				RemainingBalance: money(500),
				Status:           hcm.LoanApproved,
			},
			{
				ID:               "loan-rejected",
				EmployeeID:       "emp-1",
				MonthlyDeduction: money(1000),
				RemainingBalance: money(1000),
				Status:           hcm.LoanRejected,
			},
		},
	}
	result, err := calc.Run(RunInput{
		Month:     august,
		Employees: []hcm.Employee{operator()},
		Positions: map[hcm.PositionID]hcm.Position{"pos-operator": operatorPosition()},
		Loans:     loans,
	})
	require.NoError(t, err)
	run := NewRun("run-1", result, time.Now())

	// WHEN deriving the postings an approval must apply
	postings := run.LoanPostings()

	// THEN only the deductible loan appears, at its capped amount
	require.Len(t, postings, 1)
	assert.True(t, postings["loan-1"].Equal(money(500)))

	// AND the amounts are frozen in the run: a balance that moved after
	// the compute does not change what approval posts.
	loans["emp-1"][0].RemainingBalance = money(300)
	assert.True(t, run.LoanPostings()["loan-1"].Equal(money(500)))

	// AND applying a posting settles the loan
	loan := loans["emp-1"][0]
	loan.RemainingBalance = money(500)
	settled := loan.ApplyInstallment(postings["loan-1"])
	assert.True(t, settled.RemainingBalance.IsZero())
	assert.Equal(t, hcm.LoanPaid, settled.Status)
}
