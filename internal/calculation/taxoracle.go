package calculation

import (
	"github.com/shopspring/decimal"
)

// WithdrawalTaxRequest describes a retirement cash need the tax oracle
// turns into a bucket-by-bucket withdrawal plan.
type WithdrawalTaxRequest struct {
	WithdrawalNeeded   decimal.Decimal
	TaxableBalance     decimal.Decimal
	TaxDeferredBalance decimal.Decimal
	TaxFreeBalance     decimal.Decimal

	// TaxableGainPercent is the estimated realized-gain fraction (0..1) of
	// a taxable-bucket withdrawal.
	TaxableGainPercent decimal.Decimal
	IsLongTermGain     bool

	FilingStatus string
	Age          int
	Year         int

	// OtherIncome is taxable income arriving outside the portfolio
	// (pension, Social Security).
	OtherIncome decimal.Decimal
}

// WithdrawalTaxPlan is the oracle's answer: gross draws per bucket plus the
// resulting tax and early-withdrawal penalty.
type WithdrawalTaxPlan struct {
	FromTaxable     decimal.Decimal
	FromTaxDeferred decimal.Decimal
	FromTaxFree     decimal.Decimal
	TotalTax        decimal.Decimal
	TotalPenalty    decimal.Decimal
}

// GrossTotal returns the total amount drawn across all buckets.
func (p WithdrawalTaxPlan) GrossTotal() decimal.Decimal {
	return p.FromTaxable.Add(p.FromTaxDeferred).Add(p.FromTaxFree)
}

// TaxOracle is the external tax-calculation contract the engine consumes.
// Implementations are pure functions of their arguments; the engine never
// implements tax law itself.
type TaxOracle interface {
	// ComputeProgressiveIncomeTax returns income tax on ordinary taxable
	// income for the given filing status and tax year.
	ComputeProgressiveIncomeTax(taxableIncome decimal.Decimal, filingStatus string, year int) decimal.Decimal

	// EstimateRetirementWithdrawalTaxes sizes a tax-aware withdrawal across
	// the three buckets to cover the requested need plus resulting taxes.
	EstimateRetirementWithdrawalTaxes(req WithdrawalTaxRequest) WithdrawalTaxPlan

	// Statutory contribution limits for the given year.
	Get401kLimit(year, age int) decimal.Decimal
	GetRothIRALimit(year, age int) decimal.Decimal
	GetHSALimit(year int, familyCoverage bool) decimal.Decimal
}
