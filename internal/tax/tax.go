// Package tax provides the default tax oracle consumed by the simulation
// engine. It is an estimate, not tax advice: 2025 federal parameters are
// applied to all projection years with no inflation indexing.
package tax

import (
	"github.com/planfire/retirement-planner/internal/calculation"
	"github.com/planfire/retirement-planner/internal/domain"
	"github.com/shopspring/decimal"
)

// Bracket is one federal tax bracket. Max of zero means unbounded.
type Bracket struct {
	Min  decimal.Decimal
	Max  decimal.Decimal
	Rate decimal.Decimal
}

// Calculator implements calculation.TaxOracle with 2025 federal brackets,
// a flat long-term capital-gains estimate, and the 10% early-withdrawal
// penalty below age 59½.
type Calculator struct {
	standardDeductionSingle decimal.Decimal
	standardDeductionMFJ    decimal.Decimal
	bracketsSingle          []Bracket
	bracketsMFJ             []Bracket

	ltcgRate         decimal.Decimal
	ordinaryGainRate decimal.Decimal
	penaltyRate      decimal.Decimal
}

// NewCalculator creates the default 2025 calculator.
func NewCalculator() *Calculator {
	return &Calculator{
		standardDeductionSingle: decimal.NewFromInt(15000),
		standardDeductionMFJ:    decimal.NewFromInt(30000),
		bracketsSingle: []Bracket{
			{Min: dec(0), Max: dec(11925), Rate: decimal.NewFromFloat(0.10)},
			{Min: dec(11925), Max: dec(48475), Rate: decimal.NewFromFloat(0.12)},
			{Min: dec(48475), Max: dec(103350), Rate: decimal.NewFromFloat(0.22)},
			{Min: dec(103350), Max: dec(197300), Rate: decimal.NewFromFloat(0.24)},
			{Min: dec(197300), Max: dec(250525), Rate: decimal.NewFromFloat(0.32)},
			{Min: dec(250525), Max: dec(626350), Rate: decimal.NewFromFloat(0.35)},
			{Min: dec(626350), Max: decimal.Zero, Rate: decimal.NewFromFloat(0.37)},
		},
		bracketsMFJ: []Bracket{
			{Min: dec(0), Max: dec(23850), Rate: decimal.NewFromFloat(0.10)},
			{Min: dec(23850), Max: dec(96950), Rate: decimal.NewFromFloat(0.12)},
			{Min: dec(96950), Max: dec(206700), Rate: decimal.NewFromFloat(0.22)},
			{Min: dec(206700), Max: dec(394600), Rate: decimal.NewFromFloat(0.24)},
			{Min: dec(394600), Max: dec(501050), Rate: decimal.NewFromFloat(0.32)},
			{Min: dec(501050), Max: dec(751600), Rate: decimal.NewFromFloat(0.35)},
			{Min: dec(751600), Max: decimal.Zero, Rate: decimal.NewFromFloat(0.37)},
		},
		ltcgRate:         decimal.NewFromFloat(0.15),
		ordinaryGainRate: decimal.NewFromFloat(0.24),
		penaltyRate:      decimal.NewFromFloat(0.10),
	}
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func (c *Calculator) deductionAndBrackets(filingStatus string) (decimal.Decimal, []Bracket) {
	// Head of household is approximated with single parameters.
	if filingStatus == domain.FilingMarriedJointly {
		return c.standardDeductionMFJ, c.bracketsMFJ
	}
	return c.standardDeductionSingle, c.bracketsSingle
}

// ComputeProgressiveIncomeTax returns federal income tax on ordinary
// taxable income after the standard deduction.
func (c *Calculator) ComputeProgressiveIncomeTax(taxableIncome decimal.Decimal, filingStatus string, year int) decimal.Decimal {
	deduction, brackets := c.deductionAndBrackets(filingStatus)
	income := taxableIncome.Sub(deduction)
	if income.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	tax := decimal.Zero
	for _, b := range brackets {
		if income.LessThanOrEqual(b.Min) {
			break
		}
		upper := income
		if !b.Max.IsZero() && upper.GreaterThan(b.Max) {
			upper = b.Max
		}
		tax = tax.Add(upper.Sub(b.Min).Mul(b.Rate))
	}
	return tax
}

// EstimateRetirementWithdrawalTaxes sizes gross draws across the three
// buckets, taxable first, so the net of taxes and penalties covers the
// requested need. Tax-deferred draws are grossed up against the brackets
// by fixed-point iteration; tax-free draws cover any remainder untaxed.
func (c *Calculator) EstimateRetirementWithdrawalTaxes(req calculation.WithdrawalTaxRequest) calculation.WithdrawalTaxPlan {
	var plan calculation.WithdrawalTaxPlan
	need := req.WithdrawalNeeded
	if need.LessThanOrEqual(decimal.Zero) {
		return plan
	}
	one := decimal.NewFromInt(1)

	// Taxable bucket: only the realized-gain share is taxed.
	if req.TaxableBalance.GreaterThan(decimal.Zero) {
		gainRate := c.ltcgRate
		if !req.IsLongTermGain {
			gainRate = c.ordinaryGainRate
		}
		effRate := req.TaxableGainPercent.Mul(gainRate)
		gross := need.Div(one.Sub(effRate))
		if gross.GreaterThan(req.TaxableBalance) {
			gross = req.TaxableBalance
		}
		tax := gross.Mul(effRate)
		plan.FromTaxable = gross
		plan.TotalTax = plan.TotalTax.Add(tax)
		need = need.Sub(gross.Sub(tax))
	}

	// Tax-deferred bucket: ordinary income on top of other income, plus
	// the early-withdrawal penalty below 59½.
	if need.GreaterThan(decimal.Zero) && req.TaxDeferredBalance.GreaterThan(decimal.Zero) {
		baseTax := c.ComputeProgressiveIncomeTax(req.OtherIncome, req.FilingStatus, req.Year)
		gross := need
		var tax, penalty decimal.Decimal
		for iter := 0; iter < 5; iter++ {
			tax = c.ComputeProgressiveIncomeTax(req.OtherIncome.Add(gross), req.FilingStatus, req.Year).Sub(baseTax)
			penalty = decimal.Zero
			if req.Age < 60 {
				penalty = gross.Mul(c.penaltyRate)
			}
			gross = need.Add(tax).Add(penalty)
		}
		if gross.GreaterThan(req.TaxDeferredBalance) {
			gross = req.TaxDeferredBalance
			tax = c.ComputeProgressiveIncomeTax(req.OtherIncome.Add(gross), req.FilingStatus, req.Year).Sub(baseTax)
			penalty = decimal.Zero
			if req.Age < 60 {
				penalty = gross.Mul(c.penaltyRate)
			}
		}
		plan.FromTaxDeferred = gross
		plan.TotalTax = plan.TotalTax.Add(tax)
		plan.TotalPenalty = plan.TotalPenalty.Add(penalty)
		need = need.Sub(gross.Sub(tax).Sub(penalty))
	}

	// Tax-free bucket: qualified withdrawals carry no tax.
	if need.GreaterThan(decimal.Zero) && req.TaxFreeBalance.GreaterThan(decimal.Zero) {
		gross := need
		if gross.GreaterThan(req.TaxFreeBalance) {
			gross = req.TaxFreeBalance
		}
		plan.FromTaxFree = gross
	}
	return plan
}

// Contribution limits, 2025 statutory amounts for all years.

// Get401kLimit returns the elective deferral limit, with the age-50
// catch-up.
func (c *Calculator) Get401kLimit(year, age int) decimal.Decimal {
	limit := decimal.NewFromInt(23500)
	if age >= 50 {
		limit = limit.Add(decimal.NewFromInt(7500))
	}
	return limit
}

// GetRothIRALimit returns the IRA contribution limit, with the age-50
// catch-up.
func (c *Calculator) GetRothIRALimit(year, age int) decimal.Decimal {
	limit := decimal.NewFromInt(7000)
	if age >= 50 {
		limit = limit.Add(decimal.NewFromInt(1000))
	}
	return limit
}

// GetHSALimit returns the HSA contribution limit by coverage type.
func (c *Calculator) GetHSALimit(year int, familyCoverage bool) decimal.Decimal {
	if familyCoverage {
		return decimal.NewFromInt(8550)
	}
	return decimal.NewFromInt(4300)
}
