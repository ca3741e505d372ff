package calculation

import (
	"fmt"

	"github.com/planfire/retirement-planner/internal/domain"
	"github.com/shopspring/decimal"
)

// FallbackBTCPrice is used when neither the input snapshot nor the price
// feed supplies a BTC spot price. The tool is advisory; a stale price is
// preferable to refusing to run.
var FallbackBTCPrice = decimal.NewFromInt(100000)

// depletionThreshold: a liquid portfolio below this counts as ran-out.
var depletionThreshold = decimal.NewFromInt(1)

// Engine runs the deterministic projection, the Monte Carlo simulation,
// and the sustainability solvers. Each run is a pure function of its input
// snapshot; no state survives between runs.
type Engine struct {
	Oracle TaxOracle
	Logger Logger
}

// NewEngine creates an engine around the given tax oracle.
func NewEngine(oracle TaxOracle) *Engine {
	return &Engine{Oracle: oracle, Logger: NopLogger{}}
}

// SetLogger sets the engine logger. Nil installs the no-op logger.
func (e *Engine) SetLogger(l Logger) {
	if l == nil {
		e.Logger = NopLogger{}
		return
	}
	e.Logger = l
}

// validateInput enforces the caller contract. Out-of-range ages are a
// defect at the boundary, not something to simulate around.
func (e *Engine) validateInput(input *domain.PlanInput) error {
	if input == nil {
		return fmt.Errorf("plan input is nil")
	}
	a := input.Assumptions
	if a.CurrentAge <= 0 {
		return fmt.Errorf("current age must be positive, got %d", a.CurrentAge)
	}
	if a.LifeExpectancy <= a.CurrentAge {
		return fmt.Errorf("life expectancy (%d) must exceed current age (%d)", a.LifeExpectancy, a.CurrentAge)
	}
	if a.RetirementAge <= 0 {
		return fmt.Errorf("retirement age must be positive, got %d", a.RetirementAge)
	}
	if a.RetirementAge > a.LifeExpectancy {
		return fmt.Errorf("retirement age (%d) cannot exceed life expectancy (%d)", a.RetirementAge, a.LifeExpectancy)
	}
	return nil
}

// btcSpotOrFallback resolves the BTC price the run will grow forward.
func (e *Engine) btcSpotOrFallback(input *domain.PlanInput) decimal.Decimal {
	if input.BTCSpotPrice.GreaterThan(decimal.Zero) {
		return input.BTCSpotPrice
	}
	e.Logger.Warnf("no BTC spot price supplied, using fallback %s", FallbackBTCPrice.StringFixed(0))
	return FallbackBTCPrice
}

// inflationFactor returns (1 + inflation/100)^yearOffset.
func inflationFactor(rate decimal.Decimal, yearOffset int) decimal.Decimal {
	if yearOffset <= 0 {
		return decimal.NewFromInt(1)
	}
	return one.Add(rate.Div(hundred)).Pow(decimal.NewFromInt(int64(yearOffset)))
}

// forceWithdraw drains buckets in the strict taxable -> tax-deferred ->
// tax-free -> real-estate order to meet amount. Touching real estate sells
// all of it; proceeds beyond the need land in the taxable cash slot.
// Returns the breakdown and any still-unmet remainder.
func forceWithdraw(pf *Portfolio, amount decimal.Decimal) (domain.WithdrawalBreakdown, decimal.Decimal) {
	var wd domain.WithdrawalBreakdown
	unmet := amount
	if unmet.LessThanOrEqual(decimal.Zero) {
		return wd, decimal.Zero
	}

	wd.FromTaxable = pf.WithdrawProportional(domain.BucketTaxable, unmet)
	unmet = unmet.Sub(wd.FromTaxable)
	if unmet.GreaterThan(decimal.Zero) {
		wd.FromTaxDeferred = pf.WithdrawProportional(domain.BucketTaxDeferred, unmet)
		unmet = unmet.Sub(wd.FromTaxDeferred)
	}
	if unmet.GreaterThan(decimal.Zero) {
		wd.FromTaxFree = pf.WithdrawProportional(domain.BucketTaxFree, unmet)
		unmet = unmet.Sub(wd.FromTaxFree)
	}
	if unmet.GreaterThan(decimal.Zero) && pf.RealEstate.GreaterThan(decimal.Zero) {
		proceeds := pf.RealEstate
		pf.RealEstate = decimal.Zero
		used := unmet
		if used.GreaterThan(proceeds) {
			used = proceeds
		}
		wd.FromRealEstate = used
		if leftover := proceeds.Sub(used); leftover.GreaterThan(decimal.Zero) {
			pf.AddToSlot(domain.BucketTaxable, domain.AssetCash, leftover)
			pf.TaxableCostBasis = pf.TaxableCostBasis.Add(leftover)
		}
		unmet = unmet.Sub(used)
	}
	return wd, unmet
}
