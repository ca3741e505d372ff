package calculation

import (
	"github.com/planfire/retirement-planner/internal/domain"
	"github.com/shopspring/decimal"
)

// Flat tax approximations used by the Monte Carlo and solver paths. The
// deterministic engine consults the full tax oracle instead; these cheaper
// estimates are intentionally conservative, so solver answers stay
// directionally consistent with the tax-aware projection.
var (
	approxIncomeTaxRate     = decimal.NewFromFloat(0.25)
	approxWithdrawalTaxRate = decimal.NewFromFloat(0.20) // 15% federal + state LTCG estimate
)

// solverSpendingTolerance is the binary-search convergence bound.
var solverSpendingTolerance = decimal.NewFromFloat(0.01)

const maxSolverIterations = 100

// simplifiedNetCashFlow approximates a pre-retirement year's net savings:
// grown income after a flat tax estimate, minus inflated spending.
func simplifiedNetCashFlow(a domain.Assumptions, yearOffset int) decimal.Decimal {
	return simplifiedNetCashFlowAt(a, yearOffset, a.AnnualSpending)
}

func simplifiedNetCashFlowAt(a domain.Assumptions, yearOffset int, baseSpending decimal.Decimal) decimal.Decimal {
	gross := a.AnnualIncome.Mul(inflationFactor(a.IncomeGrowthRate, yearOffset))
	net := gross.Mul(one.Sub(approxIncomeTaxRate))
	spending := baseSpending.Mul(inflationFactor(a.InflationRate, yearOffset))
	return net.Sub(spending)
}

// simplifiedRetirementNeed approximates a retirement year's gross portfolio
// draw: inflated spending net of pension and Social Security, grossed up by
// the flat combined tax rate.
func simplifiedRetirementNeed(a domain.Assumptions, yearOffset, age int) decimal.Decimal {
	return simplifiedRetirementNeedAt(a, yearOffset, age, a.AnnualSpending)
}

func simplifiedRetirementNeedAt(a domain.Assumptions, yearOffset, age int, baseSpending decimal.Decimal) decimal.Decimal {
	spending := baseSpending.Mul(inflationFactor(a.InflationRate, yearOffset))
	other := a.AnnualPension
	if age >= a.SocialSecurityStartAge {
		other = other.Add(a.SocialSecurityAnnual.Mul(inflationFactor(a.InflationRate, yearOffset)))
	}
	need := spending.Sub(other)
	if need.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return need.Div(one.Sub(approxWithdrawalTaxRate))
}

// blendedRate returns a single allocation-weighted expected return in
// percent for the given year offset.
func blendedRate(growth *GrowthModel, allocation map[domain.AssetClass]decimal.Decimal, yearOffset int) decimal.Decimal {
	rate := decimal.Zero
	for _, asset := range domain.AssetClasses {
		rate = rate.Add(allocation[asset].Mul(growth.ExpectedReturn(asset, yearOffset)))
	}
	return rate
}

// survivesSimplified runs the fast forward simulation: one blended growth
// rate per year, flat tax approximations, no per-asset modeling. Returns
// true when the portfolio lasts through life expectancy.
func survivesSimplified(a domain.Assumptions, growth *GrowthModel, allocation map[domain.AssetClass]decimal.Decimal, startLiquid decimal.Decimal, retirementAge int, baseSpending decimal.Decimal) bool {
	balance := startLiquid
	horizon := a.LifeExpectancy - a.CurrentAge + 1

	for i := 0; i < horizon; i++ {
		age := a.CurrentAge + i
		if i > 0 {
			balance = balance.Mul(one.Add(blendedRate(growth, allocation, i).Div(hundred)))
		}
		if age < retirementAge {
			balance = balance.Add(simplifiedNetCashFlowAt(a, i, baseSpending))
			if balance.LessThan(decimal.Zero) {
				balance = decimal.Zero
			}
		} else {
			balance = balance.Sub(simplifiedRetirementNeedAt(a, i, age, baseSpending))
			if balance.LessThanOrEqual(decimal.Zero) {
				return false
			}
		}
	}
	return true
}

// FindEarliestSustainableRetirementAge scans candidate retirement ages and
// returns the first for which the simplified forward simulation survives to
// life expectancy, or nil when no age qualifies.
func (e *Engine) FindEarliestSustainableRetirementAge(input *domain.PlanInput) (*int, error) {
	if err := e.validateInput(input); err != nil {
		return nil, err
	}
	a := input.Assumptions
	growth := NewGrowthModel(a, nowFunc().Year())
	start := NewPortfolioFromHoldings(input.Holdings, a.RealEstateValue)
	allocation := start.AllocationPercent()
	liquid := start.LiquidTotal()

	for age := a.CurrentAge + 1; age <= a.LifeExpectancy-5; age++ {
		if survivesSimplified(a, growth, allocation, liquid, age, a.AnnualSpending) {
			result := age
			return &result, nil
		}
	}
	return nil, nil
}

// FindMaxSustainableSpending binary-searches the highest annual spending
// (today's dollars) the simplified simulation sustains through life
// expectancy, converging to within one cent.
func (e *Engine) FindMaxSustainableSpending(input *domain.PlanInput) (decimal.Decimal, error) {
	if err := e.validateInput(input); err != nil {
		return decimal.Zero, err
	}
	a := input.Assumptions
	growth := NewGrowthModel(a, nowFunc().Year())
	start := NewPortfolioFromHoldings(input.Holdings, a.RealEstateValue)
	allocation := start.AllocationPercent()
	liquid := start.LiquidTotal()

	low := decimal.Zero
	high := liquid.Add(a.AnnualIncome).Add(a.AnnualPension).Add(a.SocialSecurityAnnual)
	if high.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, nil
	}

	for i := 0; i < maxSolverIterations && high.Sub(low).GreaterThan(solverSpendingTolerance); i++ {
		mid := low.Add(high).Div(decimal.NewFromInt(2))
		if survivesSimplified(a, growth, allocation, liquid, a.RetirementAge, mid) {
			low = mid
		} else {
			high = mid
		}
	}
	return low.Round(2), nil
}

// SolveSustainability bundles both solver answers.
func (e *Engine) SolveSustainability(input *domain.PlanInput) (*domain.SolverResult, error) {
	age, err := e.FindEarliestSustainableRetirementAge(input)
	if err != nil {
		return nil, err
	}
	spending, err := e.FindMaxSustainableSpending(input)
	if err != nil {
		return nil, err
	}
	return &domain.SolverResult{
		EarliestRetirementAge:  age,
		MaxSustainableSpending: spending,
	}, nil
}
