/*
tax.go - Tax withholding policies

PURPOSE:
  Models the two withholding schemes the business runs under as one
  TaxPolicy abstraction:

    Flat:      monthly tax = gross * rate / 100
    Bracketed: marginal computation over the annualized gross
               (monthly * 12), divided back down to a monthly figure

  Bracket edges and rates are configuration, never hardcoded in the
  calculation. A malformed table (non-monotonic edges, rates outside
  [0,100]) is a ConfigurationError and aborts the whole payroll run,
  since it would invalidate every employee's tax figure equally.

EXAMPLE:
  policy := payroll.Bracketed([]payroll.TaxBracket{
      {UpTo: money(600000), RatePct: dec(0)},
      {UpTo: money(1200000), RatePct: dec(5)},
      {UpTo: nil, RatePct: dec(15)},           // open-ended top bracket
  })
  tax := policy.MonthlyTax(gross)
*/
package payroll

import (
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/hcm"
)

// =============================================================================
// TAX POLICY - Flat rate or annual brackets
// =============================================================================

type TaxMode string

const (
	TaxFlat      TaxMode = "flat"
	TaxBracketed TaxMode = "bracketed"
)

// TaxBracket is one slice of annual income. UpTo is the inclusive upper
// edge of the bracket; nil marks the open-ended top bracket.
type TaxBracket struct {
	UpTo    *hcm.Money
	RatePct decimal.Decimal
}

// TaxPolicy is a tagged union: exactly one of the two modes applies.
type TaxPolicy struct {
	Mode     TaxMode
	RatePct  decimal.Decimal // flat mode
	Brackets []TaxBracket    // bracketed mode, ascending by edge
}

// Flat builds a flat-percentage policy.
func Flat(ratePct decimal.Decimal) TaxPolicy {
	return TaxPolicy{Mode: TaxFlat, RatePct: ratePct}
}

// Bracketed builds an annual-bracket policy.
func Bracketed(brackets []TaxBracket) TaxPolicy {
	return TaxPolicy{Mode: TaxBracketed, Brackets: brackets}
}

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
	zeroPct = decimal.Zero
	maxRate = decimal.NewFromInt(100)
)

// Validate checks the policy before a run. The read-only policy table is
// shared by every employee in the run, so any defect here is fatal.
func (p TaxPolicy) Validate() error {
	switch p.Mode {
	case TaxFlat:
		if p.RatePct.LessThan(zeroPct) || p.RatePct.GreaterThan(maxRate) {
			return &hcm.ConfigurationError{Field: "tax.rate", Reason: "flat rate must be within [0,100]"}
		}
		return nil

	case TaxBracketed:
		if len(p.Brackets) == 0 {
			return &hcm.ConfigurationError{Field: "tax.brackets", Reason: "bracket table is empty"}
		}
		var prev *hcm.Money
		for i, b := range p.Brackets {
			if b.RatePct.LessThan(zeroPct) || b.RatePct.GreaterThan(maxRate) {
				return &hcm.ConfigurationError{Field: "tax.brackets", Reason: "bracket rate must be within [0,100]"}
			}
			if b.UpTo == nil {
				if i != len(p.Brackets)-1 {
					return &hcm.ConfigurationError{Field: "tax.brackets", Reason: "open-ended bracket must be last"}
				}
				continue
			}
			if !b.UpTo.IsPositive() {
				return &hcm.ConfigurationError{Field: "tax.brackets", Reason: "bracket edge must be positive"}
			}
			if prev != nil && !b.UpTo.GreaterThan(*prev) {
				return &hcm.ConfigurationError{Field: "tax.brackets", Reason: "bracket edges must be strictly increasing"}
			}
			edge := *b.UpTo
			prev = &edge
		}
		return nil

	default:
		return &hcm.ConfigurationError{Field: "tax.mode", Reason: "unknown tax mode"}
	}
}

// MonthlyTax computes the monthly withholding for a monthly gross.
// The caller is expected to have run Validate first; an invalid policy
// here yields a zero figure rather than a panic.
func (p TaxPolicy) MonthlyTax(monthlyGross hcm.Money) hcm.Money {
	switch p.Mode {
	case TaxFlat:
		return monthlyGross.Mul(p.RatePct).Div(hundred)

	case TaxBracketed:
		annual := monthlyGross.Mul(twelve)
		return p.annualTax(annual).Div(twelve)

	default:
		return hcm.ZeroMoney()
	}
}

// annualTax runs the marginal bracket computation: each slice of income
// is taxed at its own bracket's rate.
func (p TaxPolicy) annualTax(annualGross hcm.Money) hcm.Money {
	tax := hcm.ZeroMoney()
	lower := hcm.ZeroMoney()

	for _, b := range p.Brackets {
		if !annualGross.GreaterThan(lower) {
			break
		}

		upper := annualGross
		if b.UpTo != nil && b.UpTo.LessThan(annualGross) {
			upper = *b.UpTo
		}

		slice := upper.Sub(lower)
		if slice.IsPositive() {
			tax = tax.Add(slice.Mul(b.RatePct).Div(hundred))
		}

		if b.UpTo == nil {
			break
		}
		lower = *b.UpTo
	}

	return tax
}
