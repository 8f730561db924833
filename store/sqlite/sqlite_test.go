package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/hcm"
	"github.com/warp/payroll-engine/payroll"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestEmployeeRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	join, _ := hcm.ParseDate("2023-02-01")
	emp := hcm.Employee{
		ID:         "emp-1",
		FirstName:  "Ayesha",
		LastName:   "Khan",
		Email:      "ayesha@plant.example",
		PositionID: "pos-operator",
		Shift: hcm.Shift{
			ID: "day", Name: "Day",
			Start: hcm.NewClockTime(9, 0), End: hcm.NewClockTime(17, 0),
		},
		JoinDate: join,
		IsActive: true,
		Allowances: hcm.StandardAllowances{
			Medical: hcm.NewMoney(5000),
			Mobile:  hcm.NewMoney(3000),
			Food:    hcm.NewMoney(3000),
		},
		ProvidentFundPct: decimal.NewFromInt(5),
		Leave:            hcm.LeaveBalance{Casual: 10, Annual: 14, ShortLeaves: 3},
	}
	require.NoError(t, s.SaveEmployee(ctx, emp))

	got, err := s.GetEmployee(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, emp.FullName(), got.FullName())
	assert.Equal(t, emp.PositionID, got.PositionID)
	assert.Equal(t, emp.Shift.Start, got.Shift.Start)
	assert.True(t, got.Allowances.Total().Equal(hcm.NewMoney(11000)))
	assert.True(t, got.ProvidentFundPct.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, 3, got.Leave.ShortLeaves)

	// Save again updates in place.
	emp.IsActive = false
	require.NoError(t, s.SaveEmployee(ctx, emp))
	got, err = s.GetEmployee(ctx, "emp-1")
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	_, err = s.GetEmployee(ctx, "emp-missing")
	assert.True(t, errors.Is(err, hcm.ErrEmployeeNotFound))
}

func TestPositionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	salaryCap := hcm.NewMoney(50000)
	pos := hcm.Position{
		ID:            "pos-operator",
		Title:         "Machine Operator",
		BaseSalary:    hcm.NewMoney(60000),
		SalaryCap:     &salaryCap,
		Type:          hcm.TypeLabor,
		TaxPercentage: decimal.NewFromFloat(2.5),
		OvertimeRate:  decimal.NewFromFloat(1.5),
		CustomAllowances: []hcm.CustomAllowance{
			{Name: "Tool Allowance", Amount: hcm.NewMoney(1500)},
		},
	}
	require.NoError(t, s.SavePosition(ctx, pos))

	got, err := s.GetPosition(ctx, "pos-operator")
	require.NoError(t, err)
	assert.True(t, got.BaseSalary.Equal(pos.BaseSalary))
	require.NotNil(t, got.SalaryCap)
	assert.True(t, got.SalaryCap.Equal(salaryCap))
	assert.True(t, got.TaxPercentage.Equal(pos.TaxPercentage))
	assert.True(t, got.TotalCustomAllowances().Equal(hcm.NewMoney(1500)))

	_, err = s.GetPosition(ctx, "pos-missing")
	assert.True(t, errors.Is(err, hcm.ErrMissingPosition))
}

func TestAttendanceUniquenessPerDay(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := hcm.NewClockTime(9, 0)
	date, _ := hcm.ParseDate("2025-08-04")
	rec := hcm.AttendanceRecord{
		ID:          "att-1",
		EmployeeID:  "emp-1",
		Date:        date,
		Status:      hcm.StatusPresent,
		CheckIn:     &in,
		WorkedHours: decimal.NewFromInt(8),
	}
	require.NoError(t, s.CreateAttendance(ctx, rec))

	// A second record for the same day must be rejected.
	dup := rec
	dup.ID = "att-2"
	err := s.CreateAttendance(ctx, dup)
	assert.True(t, errors.Is(err, hcm.ErrDuplicateAttendance))

	// The clock-out path updates the existing row instead.
	out := hcm.NewClockTime(17, 0)
	rec.CheckOut = &out
	require.NoError(t, s.UpdateAttendance(ctx, rec))

	got, err := s.GetAttendanceByDay(ctx, "emp-1", date)
	require.NoError(t, err)
	require.NotNil(t, got.CheckOut)
	assert.Equal(t, out, *got.CheckOut)

	// Updating a day with no record is an error.
	missing := rec
	missing.Date, _ = hcm.ParseDate("2025-08-05")
	err = s.UpdateAttendance(ctx, missing)
	assert.True(t, errors.Is(err, hcm.ErrAttendanceNotFound))
}

func TestAttendanceQueries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, day := range []string{"2025-07-31", "2025-08-04", "2025-08-05"} {
		date, _ := hcm.ParseDate(day)
		require.NoError(t, s.CreateAttendance(ctx, hcm.AttendanceRecord{
			ID:            string(rune('a' + i)),
			EmployeeID:    "emp-1",
			Date:          date,
			Status:        hcm.StatusPresent,
			WorkedHours:   decimal.NewFromInt(8),
			OvertimeHours: decimal.Zero,
		}))
	}
	other, _ := hcm.ParseDate("2025-08-04")
	require.NoError(t, s.CreateAttendance(ctx, hcm.AttendanceRecord{
		ID: "other", EmployeeID: "emp-2", Date: other,
		Status: hcm.StatusLate, WorkedHours: decimal.NewFromInt(7),
		OvertimeHours: decimal.Zero,
	}))

	august, _ := hcm.ParseMonth("2025-08")
	byMonth, err := s.ListAttendanceByMonth(ctx, "emp-1", august)
	require.NoError(t, err)
	assert.Len(t, byMonth, 2, "July record must not leak into August")

	byDate, err := s.ListAttendanceByDate(ctx, other)
	require.NoError(t, err)
	assert.Len(t, byDate, 2, "both employees clocked on the 4th")
}

func TestLoanRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	requested, _ := hcm.ParseDate("2025-06-01")
	loan := hcm.LoanRequest{
		ID:               "loan-1",
		EmployeeID:       "emp-1",
		Principal:        hcm.NewMoney(20000),
		MonthlyDeduction: hcm.NewMoney(2000),
		RemainingBalance: hcm.NewMoney(20000),
		Reason:           "medical",
		Status:           hcm.LoanPending,
		RequestDate:      requested,
	}
	require.NoError(t, s.SaveLoan(ctx, loan))

	loan.Status = hcm.LoanApproved
	loan.RemainingBalance = hcm.NewMoney(18000)
	require.NoError(t, s.SaveLoan(ctx, loan))

	got, err := s.GetLoan(ctx, "loan-1")
	require.NoError(t, err)
	assert.Equal(t, hcm.LoanApproved, got.Status)
	assert.True(t, got.RemainingBalance.Equal(hcm.NewMoney(18000)))
	// Principal is immutable across saves.
	assert.True(t, got.Principal.Equal(hcm.NewMoney(20000)))

	byEmployee, err := s.ListLoansByEmployee(ctx, "emp-1")
	require.NoError(t, err)
	assert.Len(t, byEmployee, 1)

	_, err = s.GetLoan(ctx, "loan-missing")
	assert.True(t, errors.Is(err, hcm.ErrLoanNotFound))
}

func TestRunRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	august, _ := hcm.ParseMonth("2025-08")
	run := &payroll.PayrollRun{
		ID:          "run-1",
		Month:       august,
		Status:      payroll.RunDraft,
		WorkingDays: 26,
		Items: []payroll.LineItem{
			{
				EmployeeID: "emp-1",
				Month:      august,
				BaseSalary: hcm.NewMoney(60000),
				Gross:      hcm.NewMoney(71000),
				Tax:        hcm.NewMoney(1775),
				Net:        hcm.NewMoney(69225),
			},
		},
		Diagnostics: []payroll.RunDiagnostic{
			{EmployeeID: "emp-2", Code: payroll.DiagMissingPosition, Message: "skipped"},
		},
		CreatedAt: time.Date(2025, time.September, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.SaveRun(ctx, run))

	got, err := s.GetRunByMonth(ctx, august)
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.ID)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].Net.Equal(hcm.NewMoney(69225)))
	require.Len(t, got.Diagnostics, 1)
	assert.Nil(t, got.ApprovedAt)

	// Approval persists through the same upsert.
	when := time.Date(2025, time.September, 2, 10, 0, 0, 0, time.UTC)
	require.NoError(t, got.Approve("director@plant", when))
	require.NoError(t, s.SaveRun(ctx, got))

	again, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, payroll.RunApproved, again.Status)
	require.NotNil(t, again.ApprovedAt)
	assert.True(t, again.ApprovedAt.Equal(when))

	_, err = s.GetRun(ctx, "run-missing")
	assert.True(t, errors.Is(err, hcm.ErrRunNotFound))
}
