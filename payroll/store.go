/*
store.go - Payroll run persistence

PURPOSE:
  Run persistence lives here rather than in hcm because the stored rows
  embed payroll line items. The same backends that implement hcm.Store
  also implement RunStore.
*/
package payroll

import (
	"context"

	"github.com/warp/payroll-engine/hcm"
)

// RunStore persists payroll runs. At most one run exists per month;
// recomputing a draft replaces it, and approved runs are immutable.
type RunStore interface {
	SaveRun(ctx context.Context, run *PayrollRun) error
	GetRun(ctx context.Context, id string) (*PayrollRun, error)
	GetRunByMonth(ctx context.Context, month hcm.Month) (*PayrollRun, error)
	ListRuns(ctx context.Context) ([]*PayrollRun, error)
}
