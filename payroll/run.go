/*
run.go - Payroll run lifecycle

PURPOSE:
  A payroll run is the persisted outcome of one Calculator.Run: the line
  items, the diagnostics, and an approval state. Runs start as Draft and
  become Approved exactly once; approval is when loan installments are
  posted against their balances, which is why a run cannot be approved
  twice.

SEE ALSO:
  - calculator.go: Produces the line items a run snapshots
  - hcm/loan.go: ApplyInstallment, called during approval
*/
package payroll

import (
	"fmt"
	"time"

	"github.com/warp/payroll-engine/hcm"
)

// =============================================================================
// RUN RECORD
// =============================================================================

type RunStatus string

const (
	RunDraft    RunStatus = "Draft"
	RunApproved RunStatus = "Approved"
)

// PayrollRun is one computed month, persisted. Draft runs can be
// recomputed and overwritten; an Approved run is immutable because its
// loan installments have been posted.
type PayrollRun struct {
	ID     string
	Month  hcm.Month
	Status RunStatus

	WorkingDays int
	Items       []LineItem
	Diagnostics []RunDiagnostic

	CreatedAt  time.Time
	ApprovedAt *time.Time
	ApprovedBy string
}

// NewRun snapshots a calculator result as a draft run.
func NewRun(id string, result *RunResult, now time.Time) *PayrollRun {
	return &PayrollRun{
		ID:          id,
		Month:       result.Month,
		Status:      RunDraft,
		WorkingDays: result.WorkingDays,
		Items:       result.Items,
		Diagnostics: result.Diagnostics,
		CreatedAt:   now,
	}
}

// TotalNet sums net pay across the run's line items.
func (r *PayrollRun) TotalNet() hcm.Money {
	total := hcm.ZeroMoney()
	for _, it := range r.Items {
		total = total.Add(it.Net)
	}
	return total
}

// Approve marks the run approved. It fails on anything but a draft;
// posting the loan installments is the caller's next step, inside the
// same transaction as this status flip.
func (r *PayrollRun) Approve(by string, now time.Time) error {
	if r.Status != RunDraft {
		return fmt.Errorf("payroll run %s is %s: %w", r.ID, r.Status, hcm.ErrRunImmutable)
	}
	r.Status = RunApproved
	r.ApprovedBy = by
	r.ApprovedAt = &now
	return nil
}

// LoanPostings collects the per-loan installments the calculator froze
// into the line items. Approval applies exactly these amounts; the
// loans' current state is never re-read, so a balance that moved after
// the compute cannot change what the run posts.
func (r *PayrollRun) LoanPostings() map[hcm.LoanID]hcm.Money {
	postings := make(map[hcm.LoanID]hcm.Money)
	for _, it := range r.Items {
		for _, p := range it.LoanPostings {
			if p.Amount.IsPositive() {
				postings[p.LoanID] = p.Amount
			}
		}
	}
	return postings
}
