package domain

import (
	"github.com/shopspring/decimal"
)

// Collateral / liability event types recorded by the simulation.
const (
	CollateralEventTopUp       = "collateral_top_up"
	CollateralEventLiquidation = "collateral_liquidation"
	CollateralEventRelease     = "collateral_release"
	LiabilityEventPaidOff      = "liability_paid_off"
)

// CollateralEvent is one discrete top-up, liquidation, release, or payoff
// that occurred during a simulated year.
type CollateralEvent struct {
	Year         int             `json:"year"`
	LiabilityID  LiabilityID     `json:"liability_id"`
	Name         string          `json:"name"`
	Type         string          `json:"type"`
	BTCAmount    decimal.Decimal `json:"btc_amount"`
	Proceeds     decimal.Decimal `json:"proceeds"`
	ResultingLTV decimal.Decimal `json:"resulting_ltv"`
}

// WithdrawalBreakdown records how a year's cash need was met by source.
type WithdrawalBreakdown struct {
	FromTaxable     decimal.Decimal `json:"from_taxable"`
	FromTaxDeferred decimal.Decimal `json:"from_tax_deferred"`
	FromTaxFree     decimal.Decimal `json:"from_tax_free"`
	FromRealEstate  decimal.Decimal `json:"from_real_estate"`
}

// Total returns the sum across all withdrawal sources.
func (w WithdrawalBreakdown) Total() decimal.Decimal {
	return w.FromTaxable.Add(w.FromTaxDeferred).Add(w.FromTaxFree).Add(w.FromRealEstate)
}

// ProjectionYear is one immutable row of the deterministic projection.
type ProjectionYear struct {
	Year int `json:"year"` // absolute calendar year
	Age  int `json:"age"`

	// End-of-year balances, bucket by asset class.
	Balances   map[Bucket]map[AssetClass]decimal.Decimal `json:"balances"`
	RealEstate decimal.Decimal                           `json:"real_estate"`

	TotalAssets  decimal.Decimal `json:"total_assets"`
	LiquidAssets decimal.Decimal `json:"liquid_assets"`
	TotalDebt    decimal.Decimal `json:"total_debt"`

	GrossIncome decimal.Decimal     `json:"gross_income"`
	Spending    decimal.Decimal     `json:"spending"`
	TaxPaid     decimal.Decimal     `json:"tax_paid"`
	PenaltyPaid decimal.Decimal     `json:"penalty_paid"`
	RMDFloor    decimal.Decimal     `json:"rmd_floor"`
	YearSavings decimal.Decimal     `json:"year_savings"`
	Withdrawals WithdrawalBreakdown `json:"withdrawals"`

	Events []CollateralEvent `json:"events,omitempty"`

	IsRetired     bool `json:"is_retired"`
	RanOutOfMoney bool `json:"ran_out_of_money"`
}

// Projection is the full deterministic output, one row per calendar year
// from now through life expectancy.
type Projection struct {
	Years []ProjectionYear `json:"years"`

	// DepletionYear is the first calendar year the plan ran out of money,
	// zero if it never did.
	DepletionYear int `json:"depletion_year,omitempty"`
}

// RanOutOfMoney reports whether any simulated year hit depletion.
func (p *Projection) RanOutOfMoney() bool { return p.DepletionYear != 0 }

// FinalNetWorth returns total assets minus total debt in the last year.
func (p *Projection) FinalNetWorth() decimal.Decimal {
	if len(p.Years) == 0 {
		return decimal.Zero
	}
	last := p.Years[len(p.Years)-1]
	return last.TotalAssets.Sub(last.TotalDebt)
}

// PercentileBand is the aggregated Monte Carlo outcome for one year index.
type PercentileBand struct {
	YearIndex        int             `json:"year_index"`
	Year             int             `json:"year"` // absolute calendar year
	P10              decimal.Decimal `json:"p10"`
	P25              decimal.Decimal `json:"p25"`
	P50              decimal.Decimal `json:"p50"`
	P75              decimal.Decimal `json:"p75"`
	P90              decimal.Decimal `json:"p90"`
	MedianWithdrawal decimal.Decimal `json:"median_withdrawal"`
}

// MonteCarloResult aggregates N independent trials into a chartable series
// and a scalar success probability.
type MonteCarloResult struct {
	NumTrials          int              `json:"num_trials"`
	SuccessProbability decimal.Decimal  `json:"success_probability"` // 0..1
	Bands              []PercentileBand `json:"bands"`
	MedianEndingValue  decimal.Decimal  `json:"median_ending_value"`
}

// SolverResult bundles the scalar sustainability answers.
type SolverResult struct {
	// EarliestRetirementAge is nil when no candidate age sustains the plan.
	EarliestRetirementAge  *int            `json:"earliest_retirement_age"`
	MaxSustainableSpending decimal.Decimal `json:"max_sustainable_spending"`
}
