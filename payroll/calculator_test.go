package payroll

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/hcm"
)

// August 2025 has five Sundays, leaving 26 working days.
var august = hcm.Month{Year: 2025, Month: time.August}

func operatorPosition() hcm.Position {
	return hcm.Position{
		ID:            "pos-operator",
		Title:         "Machine Operator",
		BaseSalary:    money(60000),
		Type:          hcm.TypeLabor,
		TaxPercentage: dec(2.5),
		OvertimeRate:  dec(1.5),
	}
}

func operator() hcm.Employee {
	return hcm.Employee{
		ID:         "emp-1",
		FirstName:  "Ayesha",
		LastName:   "Khan",
		PositionID: "pos-operator",
		Shift: hcm.Shift{
			ID:    "day",
			Name:  "Day",
			Start: hcm.NewClockTime(9, 0),
			End:   hcm.NewClockTime(17, 0),
		},
		IsActive: true,
		Allowances: hcm.StandardAllowances{
			Medical: money(5000),
			Mobile:  money(3000),
			Food:    money(3000),
		},
	}
}

func summaryWith(mutate func(*attendance.MonthlySummary)) attendance.MonthlySummary {
	s := attendance.MonthlySummary{
		EmployeeID:  "emp-1",
		Month:       august,
		Present:     26,
		WorkedHours: decimal.NewFromInt(26 * 8),
	}
	if mutate != nil {
		mutate(&s)
	}
	return s
}

func TestComputeLineItemGrossTaxNet(t *testing.T) {
	// GIVEN base 60,000 with 5,000 + 3,000 + 3,000 allowances and 2.5% tax
	calc := NewCalculator()
	emp := operator()
	pos := operatorPosition()

	// WHEN computing a clean month
	item := calc.ComputeLineItem(emp, pos, summaryWith(nil), nil, hcm.ZeroMoney(), Flat(pos.TaxPercentage), 26, nil)

	// THEN gross is 71,000, tax 1,775, net 69,225
	assert.True(t, item.Gross.Equal(money(71000)), "gross %s", item.Gross)
	assert.True(t, item.Tax.Equal(money(1775)), "tax %s", item.Tax)
	assert.True(t, item.Net.Equal(money(69225)), "net %s", item.Net)
	assert.True(t, item.BankPayable.Equal(item.Net))
	assert.True(t, item.CashPayable.IsZero())
}

func TestLateDeductionAtMultiplesOfThree(t *testing.T) {
	calc := NewCalculator()
	base := money(60000)
	dayRate := base.Div(decimal.NewFromInt(26))

	tests := []struct {
		lates    int
		dayRates int64
	}{
		{0, 0},
		{2, 0},
		{3, 1},
		{5, 1},
		{6, 2},
		{9, 3},
	}
	for _, tc := range tests {
		got := calc.lateDeduction(base, tc.lates, 26)
		want := dayRate.Mul(decimal.NewFromInt(tc.dayRates))
		assert.True(t, got.Equal(want), "%d lates: want %s, got %s", tc.lates, want, got)
	}
}

func TestThreeLatesCostOneDayRate(t *testing.T) {
	// GIVEN the 60,000 operator with three late arrivals in a 26-day month
	calc := NewCalculator()
	emp := operator()
	pos := operatorPosition()
	summary := summaryWith(func(s *attendance.MonthlySummary) {
		s.Present = 23
		s.Late = 3
	})

	item := calc.ComputeLineItem(emp, pos, summary, nil, hcm.ZeroMoney(), Flat(pos.TaxPercentage), 26, nil)

	// THEN exactly one day's base pay is deducted
	want := money(60000).Div(decimal.NewFromInt(26))
	assert.True(t, item.LateDeduction.Equal(want), "want %s, got %s", want, item.LateDeduction)
}

func TestOvertimePayWeekdayAndSunday(t *testing.T) {
	calc := NewCalculator()
	emp := operator()
	pos := operatorPosition()

	// GIVEN 2h overtime on a weekday and 3h on a Sunday
	summary := summaryWith(func(s *attendance.MonthlySummary) {
		s.Overtime = []attendance.OvertimeDay{
			{Date: hcm.NewTimePoint(2025, time.August, 4), Hours: dec(2)},  // Monday
			{Date: hcm.NewTimePoint(2025, time.August, 10), Hours: dec(3)}, // Sunday
		}
	})

	item := calc.ComputeLineItem(emp, pos, summary, nil, hcm.ZeroMoney(), Flat(pos.TaxPercentage), 26, nil)

	// THEN the hourly rate is base/(26*8), the weekday pays 1.5x, Sunday 2.0x
	hourly := money(60000).Div(decimal.NewFromInt(26 * 8))
	want := hourly.Mul(dec(2)).Mul(dec(1.5)).Add(hourly.Mul(dec(3)).Mul(dec(2.0)))
	assert.True(t, item.OvertimePay.Equal(want), "want %s, got %s", want, item.OvertimePay)
	assert.True(t, item.OvertimeHours.Equal(dec(5)))
}

func TestOvertimeIneligiblePositionEarnsNothing(t *testing.T) {
	// GIVEN a senior position with overtime rate zero
	calc := NewCalculator()
	emp := operator()
	pos := operatorPosition()
	pos.OvertimeRate = decimal.Zero

	// WHEN the month carries Sunday overtime
	summary := summaryWith(func(s *attendance.MonthlySummary) {
		s.Overtime = []attendance.OvertimeDay{
			{Date: hcm.NewTimePoint(2025, time.August, 10), Hours: dec(4)},
		}
	})
	item := calc.ComputeLineItem(emp, pos, summary, nil, hcm.ZeroMoney(), Flat(pos.TaxPercentage), 26, nil)

	// THEN the hours are recorded but nothing is paid
	assert.True(t, item.OvertimeHours.Equal(dec(4)))
	assert.True(t, item.OvertimePay.IsZero())
}

func TestHolidayOvertimePaysDouble(t *testing.T) {
	calc := NewCalculator()
	emp := operator()
	pos := operatorPosition()
	independence := hcm.NewTimePoint(2025, time.August, 14) // Thursday
	calendar := &hcm.ListHolidayCalendar{Holidays: []hcm.Holiday{
		{Date: independence, Name: "Independence Day"},
	}}

	summary := summaryWith(func(s *attendance.MonthlySummary) {
		s.Overtime = []attendance.OvertimeDay{{Date: independence, Hours: dec(2)}}
	})
	item := calc.ComputeLineItem(emp, pos, summary, nil, hcm.ZeroMoney(), Flat(pos.TaxPercentage), 26, calendar)

	hourly := money(60000).Div(decimal.NewFromInt(26 * 8))
	want := hourly.Mul(dec(2)).Mul(dec(2.0))
	assert.True(t, item.OvertimePay.Equal(want), "want %s, got %s", want, item.OvertimePay)
}

func TestLoanInstallmentCappedByBalance(t *testing.T) {
	// GIVEN an approved loan with 500 remaining on a 2,000 monthly deduction
	calc := NewCalculator()
	loans := []hcm.LoanRequest{
		{
			ID:               "loan-1",
			EmployeeID:       "emp-1",
			Principal:        money(20000),
			MonthlyDeduction: money(2000),
			RemainingBalance: money(500),
			Status:           hcm.LoanApproved,
		},
		// Pending loans never deduct.
		{
			ID:               "loan-2",
			EmployeeID:       "emp-1",
			MonthlyDeduction: money(1000),
			RemainingBalance: money(1000),
			Status:           hcm.LoanPending,
		},
	}

	got, _ := calc.loanDeduction(loans)

	// THEN only the 500 balance is deducted
	assert.True(t, got.Equal(money(500)), "got %s", got)
}

func TestProvidentFundDeductsFromBase(t *testing.T) {
	calc := NewCalculator()
	emp := operator()
	emp.ProvidentFundPct = dec(5)
	pos := operatorPosition()

	item := calc.ComputeLineItem(emp, pos, summaryWith(nil), nil, hcm.ZeroMoney(), Flat(pos.TaxPercentage), 26, nil)

	// 5% of the 60,000 base, not of gross.
	assert.True(t, item.PFDeduction.Equal(money(3000)), "got %s", item.PFDeduction)
	assert.True(t, item.Net.Equal(money(69225-3000)), "got %s", item.Net)
}

func TestSalaryCapSplitsBankAndCash(t *testing.T) {
	// GIVEN a 60,000 base capped at 50,000 for the bank transfer
	calc := NewCalculator()
	emp := operator()
	pos := operatorPosition()
	pos.SalaryCap = moneyPtr(50000)

	item := calc.ComputeLineItem(emp, pos, summaryWith(nil), nil, hcm.ZeroMoney(), Flat(pos.TaxPercentage), 26, nil)

	// THEN the 10,000 excess is paid in cash and the rest via bank
	assert.True(t, item.CashPayable.Equal(money(10000)), "cash %s", item.CashPayable)
	assert.True(t, item.BankPayable.Equal(item.Net.Sub(money(10000))), "bank %s", item.BankPayable)
	assert.True(t, item.BankPayable.Add(item.CashPayable).Equal(item.Net))
}

func TestNetIdentityHoldsForRandomInputs(t *testing.T) {
	// Property check over randomized valid inputs with a fixed seed.
	calc := NewCalculator()
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		emp := operator()
		emp.ProvidentFundPct = dec(float64(rng.Intn(10)))
		emp.Allowances = hcm.StandardAllowances{
			Medical: money(float64(rng.Intn(10000))),
			Mobile:  money(float64(rng.Intn(5000))),
			Food:    money(float64(rng.Intn(5000))),
		}

		pos := operatorPosition()
		pos.BaseSalary = money(float64(20000 + rng.Intn(200000)))
		pos.TaxPercentage = dec(float64(rng.Intn(30)))
		pos.OvertimeRate = dec(float64(rng.Intn(3)))

		summary := summaryWith(func(s *attendance.MonthlySummary) {
			s.Late = rng.Intn(8)
			s.Present = 26 - s.Late
			if rng.Intn(2) == 0 {
				s.Overtime = []attendance.OvertimeDay{
					{Date: hcm.NewTimePoint(2025, time.August, 4+rng.Intn(20)), Hours: dec(float64(1 + rng.Intn(4)))},
				}
			}
		})

		var loans []hcm.LoanRequest
		if rng.Intn(2) == 0 {
			loans = append(loans, hcm.LoanRequest{
				ID:               "loan",
				EmployeeID:       emp.ID,
				MonthlyDeduction: money(float64(500 + rng.Intn(5000))),
				RemainingBalance: money(float64(rng.Intn(10000))),
				Status:           hcm.LoanApproved,
			})
		}

		incentive := money(float64(rng.Intn(5000)))
		item := calc.ComputeLineItem(emp, pos, summary, loans, incentive, Flat(pos.TaxPercentage), 26, nil)

		want := item.Gross.
			Add(item.OvertimePay).
			Add(item.Incentive).
			Sub(item.Tax).
			Sub(item.LateDeduction).
			Sub(item.LoanDeduction).
			Sub(item.PFDeduction)
		require.True(t, item.Net.Equal(want), "iteration %d: net %s, components sum %s", i, item.Net, want)
		require.True(t, item.BankPayable.Add(item.CashPayable).Equal(item.Net), "iteration %d: split does not sum to net", i)
	}
}

func TestRunSkipsMissingPositionWithDiagnostic(t *testing.T) {
	// GIVEN one employee whose position is not in the lookup table
	calc := NewCalculator()
	orphan := operator()
	orphan.ID = "emp-orphan"
	orphan.PositionID = "pos-gone"

	result, err := calc.Run(RunInput{
		Month:     august,
		Employees: []hcm.Employee{operator(), orphan},
		Positions: map[hcm.PositionID]hcm.Position{"pos-operator": operatorPosition()},
	})
	require.NoError(t, err)

	// THEN the run completes with one item and one diagnostic
	require.Len(t, result.Items, 1)
	assert.Equal(t, hcm.EmployeeID("emp-1"), result.Items[0].EmployeeID)
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, DiagMissingPosition, result.Diagnostics[0].Code)
	assert.Equal(t, hcm.EmployeeID("emp-orphan"), result.Diagnostics[0].EmployeeID)
}

func TestRunSkipsInactiveEmployees(t *testing.T) {
	calc := NewCalculator()
	former := operator()
	former.ID = "emp-former"
	former.IsActive = false

	result, err := calc.Run(RunInput{
		Month:     august,
		Employees: []hcm.Employee{former},
		Positions: map[hcm.PositionID]hcm.Position{"pos-operator": operatorPosition()},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Empty(t, result.Diagnostics)
}

func TestRunFailsOnInvalidTaxPolicy(t *testing.T) {
	// GIVEN a bracket table with reversed edges
	calc := NewCalculator()
	result, err := calc.Run(RunInput{
		Month:     august,
		Employees: []hcm.Employee{operator()},
		Positions: map[hcm.PositionID]hcm.Position{"pos-operator": operatorPosition()},
		TaxOverrides: map[hcm.PositionID]TaxPolicy{
			"pos-operator": Bracketed([]TaxBracket{
				{UpTo: moneyPtr(1200000), RatePct: decimal.Zero},
				{UpTo: moneyPtr(600000), RatePct: dec(5)},
			}),
		},
	})

	// THEN the whole run aborts, nothing partial
	require.Error(t, err)
	assert.True(t, hcm.IsFatal(err))
	assert.Nil(t, result)
}

func TestRunCountsWorkingDaysFromCalendar(t *testing.T) {
	// GIVEN a holiday on a weekday of the month
	calc := NewCalculator()
	calendar := &hcm.ListHolidayCalendar{Holidays: []hcm.Holiday{
		{Date: hcm.NewTimePoint(2025, time.August, 14)},
	}}

	result, err := calc.Run(RunInput{
		Month:     august,
		Employees: []hcm.Employee{operator()},
		Positions: map[hcm.PositionID]hcm.Position{"pos-operator": operatorPosition()},
		Calendar:  calendar,
	})
	require.NoError(t, err)

	// August 2025: 31 days - 5 Sundays - 1 holiday.
	assert.Equal(t, 25, result.WorkingDays)
}

func TestRunPropagatesAttendanceDiagnostics(t *testing.T) {
	// GIVEN a month containing one impossible record
	calc := NewCalculator()
	in9 := hcm.NewClockTime(9, 0)
	out8 := hcm.NewClockTime(8, 0)

	result, err := calc.Run(RunInput{
		Month:     august,
		Employees: []hcm.Employee{operator()},
		Positions: map[hcm.PositionID]hcm.Position{"pos-operator": operatorPosition()},
		Attendance: map[hcm.EmployeeID][]hcm.AttendanceRecord{
			"emp-1": {
				{
					EmployeeID: "emp-1",
					Date:       hcm.NewTimePoint(2025, time.August, 4),
					Status:     hcm.StatusPresent,
					CheckIn:    &in9,
					CheckOut:   &out8,
				},
			},
		},
	})
	require.NoError(t, err)

	// THEN the day is excluded with a warning and the employee still computes
	require.Len(t, result.Items, 1)
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, DiagInvalidDay, result.Diagnostics[0].Code)
	assert.Equal(t, 0, result.Items[0].PresentDays)
}

func TestRunTotalNet(t *testing.T) {
	calc := NewCalculator()
	second := operator()
	second.ID = "emp-2"

	result, err := calc.Run(RunInput{
		Month:     august,
		Employees: []hcm.Employee{operator(), second},
		Positions: map[hcm.PositionID]hcm.Position{"pos-operator": operatorPosition()},
	})
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	assert.True(t, result.TotalNet().Equal(result.Items[0].Net.Add(result.Items[1].Net)))
}
