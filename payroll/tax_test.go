package payroll

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/hcm"
)

func money(v float64) hcm.Money { return hcm.NewMoney(v) }

func moneyPtr(v float64) *hcm.Money {
	m := hcm.NewMoney(v)
	return &m
}

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func TestFlatTax(t *testing.T) {
	// GIVEN a 2.5% flat policy
	policy := Flat(dec(2.5))
	require.NoError(t, policy.Validate())

	// WHEN taxing a 71,000 monthly gross
	tax := policy.MonthlyTax(money(71000))

	// THEN the withholding is 1,775
	assert.True(t, tax.Equal(money(1775)), "got %s", tax)
}

func TestFlatTaxZeroRate(t *testing.T) {
	policy := Flat(decimal.Zero)
	require.NoError(t, policy.Validate())
	assert.True(t, policy.MonthlyTax(money(50000)).IsZero())
}

func TestBracketedTaxMarginal(t *testing.T) {
	// GIVEN annual brackets: 0% to 600k, 5% to 1.2M, 15% above
	policy := Bracketed([]TaxBracket{
		{UpTo: moneyPtr(600000), RatePct: decimal.Zero},
		{UpTo: moneyPtr(1200000), RatePct: dec(5)},
		{UpTo: nil, RatePct: dec(15)},
	})
	require.NoError(t, policy.Validate())

	tests := []struct {
		name    string
		monthly float64
		want    float64
	}{
		// 480k annual sits entirely in the free bracket.
		{"within free bracket", 40000, 0},
		// 1.2M annual: 600k free + 600k at 5% = 30k/yr = 2.5k/mo.
		{"fills second bracket exactly", 100000, 2500},
		// 1.8M annual: 30k + 600k at 15% = 120k/yr = 10k/mo.
		{"into the open top bracket", 150000, 10000},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tax := policy.MonthlyTax(money(tc.monthly))
			assert.True(t, tax.Equal(money(tc.want)), "want %v, got %s", tc.want, tax)
		})
	}
}

func TestBracketedTaxOnlyTaxesTheSliceAboveTheEdge(t *testing.T) {
	// GIVEN a single edge at 600k with 10% above it
	policy := Bracketed([]TaxBracket{
		{UpTo: moneyPtr(600000), RatePct: decimal.Zero},
		{UpTo: nil, RatePct: dec(10)},
	})
	require.NoError(t, policy.Validate())

	// WHEN annual income is 600,012 (one unit over the edge per month)
	tax := policy.MonthlyTax(money(50001))

	// THEN only the 12 over-the-edge units are taxed: 1.2/yr = 0.1/mo
	assert.True(t, tax.Equal(money(0.1)), "got %s", tax)
}

func TestTaxPolicyValidation(t *testing.T) {
	tests := []struct {
		name   string
		policy TaxPolicy
		ok     bool
	}{
		{"flat in range", Flat(dec(25)), true},
		{"flat negative", Flat(dec(-1)), false},
		{"flat over 100", Flat(dec(101)), false},
		{"empty bracket table", Bracketed(nil), false},
		{"single open bracket", Bracketed([]TaxBracket{
			{UpTo: nil, RatePct: dec(10)},
		}), true},
		{"non-monotonic edges", Bracketed([]TaxBracket{
			{UpTo: moneyPtr(1200000), RatePct: decimal.Zero},
			{UpTo: moneyPtr(600000), RatePct: dec(5)},
		}), false},
		{"duplicate edges", Bracketed([]TaxBracket{
			{UpTo: moneyPtr(600000), RatePct: decimal.Zero},
			{UpTo: moneyPtr(600000), RatePct: dec(5)},
		}), false},
		{"open bracket not last", Bracketed([]TaxBracket{
			{UpTo: nil, RatePct: dec(5)},
			{UpTo: moneyPtr(600000), RatePct: decimal.Zero},
		}), false},
		{"bracket rate over 100", Bracketed([]TaxBracket{
			{UpTo: nil, RatePct: dec(120)},
		}), false},
		{"non-positive edge", Bracketed([]TaxBracket{
			{UpTo: moneyPtr(0), RatePct: decimal.Zero},
			{UpTo: nil, RatePct: dec(5)},
		}), false},
		{"unknown mode", TaxPolicy{Mode: "weird"}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.policy.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, hcm.IsFatal(err), "validation failures must be fatal")
			}
		})
	}
}
