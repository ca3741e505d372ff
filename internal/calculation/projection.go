package calculation

import (
	"github.com/planfire/retirement-planner/internal/domain"
	"github.com/shopspring/decimal"
)

// RunProjection runs the deterministic year-by-year projection from the
// current age through life expectancy, one row per calendar year.
func (e *Engine) RunProjection(input *domain.PlanInput) (*domain.Projection, error) {
	if err := e.validateInput(input); err != nil {
		return nil, err
	}

	a := input.Assumptions
	baseYear := nowFunc().Year()
	horizon := input.HorizonYears()

	pf := NewPortfolioFromHoldings(input.Holdings, a.RealEstateValue)
	growth := NewGrowthModel(a, baseYear)
	lm := NewLiabilityManager(input.Liabilities, input.Loans, CollateralPolicy{
		AutoTopUp:  a.AutoTopUpEnabled,
		TriggerLTV: a.TopUpTriggerLTV,
		TargetLTV:  a.TargetLTV,
	}, e.Logger)
	overlay := NewOverlay(input.LifeEvents, input.Goals)

	btcPrice := e.btcSpotOrFallback(input)
	ranOut := false

	proj := &domain.Projection{Years: make([]domain.ProjectionYear, 0, horizon)}

	for i := 0; i < horizon; i++ {
		age := a.CurrentAge + i
		calYear := baseYear + i
		retired := age >= a.RetirementAge

		if i > 0 {
			btcPrice = btcPrice.Mul(one.Add(growth.ExpectedReturn(domain.AssetBTC, i).Div(hundred)))
		}

		row := domain.ProjectionYear{
			Year:      calYear,
			Age:       age,
			IsRetired: retired,
		}

		if ranOut {
			// Terminal state: zeros from here on, no growth, no withdrawals.
			row.RanOutOfMoney = true
			row.TotalDebt = lm.TotalDebt()
			row.Balances = pf.Snapshot()
			proj.Years = append(proj.Years, row)
			continue
		}

		// 1. Return BTC released last year to the liquid slot.
		lm.BeginYear(pf, btcPrice)

		// 2. Life-event income/expense adjustments for this calendar year.
		incomeAdj, expenseAdj := overlay.CashFlowAdjustments(calYear)

		// 3. Asset impacts and scheduled goal withdrawals. Custom
		// allocations hit buckets now; the aggregate delta applies after
		// growth.
		assetDelta, directImpacts := overlay.AssetImpacts(calYear)
		for _, imp := range directImpacts {
			applyAllocatedImpact(pf, imp)
		}
		goalWithdrawals := overlay.GoalWithdrawals(calYear)

		// 4. Debt-payoff goals pay the liability directly and withdraw the
		// same amount from the portfolio; the liability skips regular
		// amortization this year.
		skip := make(map[domain.LiabilityID]bool)
		payoffNeed := decimal.Zero
		for _, g := range overlay.DebtPayoffGoals(calYear) {
			amount := decimal.Zero
			switch g.PayoffStrategy {
			case domain.PayoffSpreadPayments:
				amount = g.TargetAmount.Div(decimal.NewFromInt(int64(g.PayoffYears)))
			case domain.PayoffLumpSum:
				amount = lm.BalanceOf(g.LinkedLiabilityID)
			}
			applied := lm.ReduceBalance(g.LinkedLiabilityID, amount)
			if applied.GreaterThan(decimal.Zero) {
				payoffNeed = payoffNeed.Add(applied)
				skip[g.LinkedLiabilityID] = true
			}
		}
		if payoffNeed.GreaterThan(decimal.Zero) {
			wd, _ := forceWithdraw(pf, payoffNeed)
			row.Withdrawals = addBreakdown(row.Withdrawals, wd)
		}

		// 5. Amortization and collateral management.
		row.Events = append(row.Events, lm.Tick(i, calYear, btcPrice, pf, skip)...)

		// 6. Growth (skipped in year 0), real estate on its own CAGR.
		if i > 0 {
			rates := growth.RatesForYear(i)
			for _, bucket := range domain.Buckets {
				pf.Grow(bucket, rates)
			}
			pf.RealEstate = pf.RealEstate.Mul(one.Add(a.RealEstateGrowthRate.Div(hundred)))
		}

		// Aggregate life-event asset delta, after growth.
		if assetDelta.GreaterThan(decimal.Zero) {
			pf.DepositProportional(domain.BucketTaxable, assetDelta)
		} else if assetDelta.LessThan(decimal.Zero) {
			wd, _ := forceWithdraw(pf, assetDelta.Neg())
			row.Withdrawals = addBreakdown(row.Withdrawals, wd)
		}

		inflation := inflationFactor(a.InflationRate, i)
		spending := a.AnnualSpending.Mul(inflation).Add(expenseAdj)
		row.Spending = spending

		if !retired {
			e.simulateWorkingYear(input, pf, &row, i, calYear, age, incomeAdj, spending, goalWithdrawals)
		} else {
			ranOut = e.simulateRetirementYear(input, pf, lm, &row, i, calYear, age, incomeAdj, spending, goalWithdrawals)
			if ranOut {
				pf.ZeroAll()
				proj.DepletionYear = calYear
				row.RanOutOfMoney = true
				e.Logger.Warnf("portfolio depleted at age %d (%d)", age, calYear)
			}
		}

		row.Balances = pf.Snapshot()
		row.RealEstate = pf.RealEstate
		row.LiquidAssets = pf.LiquidTotal()
		row.TotalAssets = pf.TotalAssets()
		row.TotalDebt = lm.TotalDebt()
		proj.Years = append(proj.Years, row)
	}

	return proj, nil
}

// simulateWorkingYear handles a pre-retirement year: income grows, capped
// contributions land in their buckets, and positive savings flow into the
// taxable bucket. A shortfall draws through the waterfall.
func (e *Engine) simulateWorkingYear(input *domain.PlanInput, pf *Portfolio, row *domain.ProjectionYear, yearOffset, calYear, age int, incomeAdj, spending, goalWithdrawals decimal.Decimal) {
	a := input.Assumptions

	gross := a.AnnualIncome.Mul(inflationFactor(a.IncomeGrowthRate, yearOffset)).Add(incomeAdj)
	if gross.LessThan(decimal.Zero) {
		gross = decimal.Zero
	}
	row.GrossIncome = gross

	preTax := a.PreTaxContribution
	if limit := e.Oracle.Get401kLimit(calYear, age); preTax.GreaterThan(limit) {
		preTax = limit
	}
	if preTax.GreaterThan(gross) {
		preTax = gross
	}

	taxableIncome := gross.Sub(preTax)
	tax := e.Oracle.ComputeProgressiveIncomeTax(taxableIncome, a.FilingStatus, calYear)
	row.TaxPaid = tax
	net := taxableIncome.Sub(tax)

	afterTax := a.AfterTaxContribution
	if limit := e.Oracle.GetRothIRALimit(calYear, age); afterTax.GreaterThan(limit) {
		afterTax = limit
	}

	pf.DepositProportional(domain.BucketTaxDeferred, preTax)
	pf.DepositProportional(domain.BucketTaxFree, afterTax)

	savings := net.Sub(spending).Sub(afterTax).Sub(goalWithdrawals)
	row.YearSavings = savings

	if savings.GreaterThan(decimal.Zero) {
		pf.DepositProportional(domain.BucketTaxable, savings)
		return
	}
	if savings.LessThan(decimal.Zero) {
		wd, tax2, penalty := e.withdrawWaterfall(input, pf, savings.Neg(), calYear, age, decimal.Zero)
		row.Withdrawals = addBreakdown(row.Withdrawals, wd)
		row.TaxPaid = row.TaxPaid.Add(tax2)
		row.PenaltyPaid = row.PenaltyPaid.Add(penalty)
	}
}

// simulateRetirementYear handles a retirement year: inflation-adjusted
// spending raised to at least the RMD floor, the tax-aware waterfall, and
// the strict forced order for any remainder. Returns true when the plan
// ran out of money this year.
func (e *Engine) simulateRetirementYear(input *domain.PlanInput, pf *Portfolio, lm *LiabilityManager, row *domain.ProjectionYear, yearOffset, calYear, age int, incomeAdj, spending, goalWithdrawals decimal.Decimal) bool {
	a := input.Assumptions

	otherIncome := a.AnnualPension
	if age >= a.SocialSecurityStartAge {
		otherIncome = otherIncome.Add(a.SocialSecurityAnnual.Mul(inflationFactor(a.InflationRate, yearOffset)))
	}
	otherIncome = otherIncome.Add(incomeAdj)
	if otherIncome.LessThan(decimal.Zero) {
		otherIncome = decimal.Zero
	}
	row.GrossIncome = otherIncome

	need := spending.Add(goalWithdrawals).Sub(otherIncome)
	surplus := decimal.Zero
	if need.LessThan(decimal.Zero) {
		surplus = need.Neg()
		need = decimal.Zero
	}

	// RMD floor from the tax-deferred bucket once eligible. Mandatory even
	// when pension and Social Security already cover the year's spending.
	rmd := CalculateRMD(pf.BucketTotal(domain.BucketTaxDeferred), age)
	row.RMDFloor = rmd
	withdrawalNeeded := need
	if rmd.GreaterThan(withdrawalNeeded) {
		withdrawalNeeded = rmd
	}

	wd, tax, penalty := e.withdrawWaterfall(input, pf, withdrawalNeeded, calYear, age, otherIncome)
	row.Withdrawals = addBreakdown(row.Withdrawals, wd)
	row.TaxPaid = row.TaxPaid.Add(tax)
	row.PenaltyPaid = row.PenaltyPaid.Add(penalty)

	delivered := wd.Total().Sub(tax).Sub(penalty)
	remainder := withdrawalNeeded.Sub(delivered)
	if remainder.GreaterThan(decimal.Zero) {
		forced, unmet := forceWithdraw(pf, remainder)
		row.Withdrawals = addBreakdown(row.Withdrawals, forced)
		if unmet.GreaterThan(decimal.Zero) && pf.LiquidTotal().LessThan(depletionThreshold) {
			return true
		}
	}

	// RMD beyond the spending need and surplus retirement income both stay
	// invested, but outside the tax-deferred bucket.
	if excess := withdrawalNeeded.Sub(need); excess.GreaterThan(decimal.Zero) {
		surplus = surplus.Add(excess)
	}
	if surplus.GreaterThan(decimal.Zero) {
		pf.DepositProportional(domain.BucketTaxable, surplus)
	}
	return false
}

// withdrawWaterfall asks the tax oracle how to split a cash need across
// buckets, applies the proportional withdrawals, and returns the breakdown
// with the resulting tax and penalty.
func (e *Engine) withdrawWaterfall(input *domain.PlanInput, pf *Portfolio, amount decimal.Decimal, calYear, age int, otherIncome decimal.Decimal) (domain.WithdrawalBreakdown, decimal.Decimal, decimal.Decimal) {
	var wd domain.WithdrawalBreakdown
	if amount.LessThanOrEqual(decimal.Zero) {
		return wd, decimal.Zero, decimal.Zero
	}

	plan := e.Oracle.EstimateRetirementWithdrawalTaxes(WithdrawalTaxRequest{
		WithdrawalNeeded:   amount,
		TaxableBalance:     pf.BucketTotal(domain.BucketTaxable),
		TaxDeferredBalance: pf.BucketTotal(domain.BucketTaxDeferred),
		TaxFreeBalance:     pf.BucketTotal(domain.BucketTaxFree),
		TaxableGainPercent: pf.TaxableGainRatio(),
		IsLongTermGain:     true,
		FilingStatus:       input.Assumptions.FilingStatus,
		Age:                age,
		Year:               calYear,
		OtherIncome:        otherIncome,
	})

	wd.FromTaxable = pf.WithdrawProportional(domain.BucketTaxable, plan.FromTaxable)
	wd.FromTaxDeferred = pf.WithdrawProportional(domain.BucketTaxDeferred, plan.FromTaxDeferred)
	wd.FromTaxFree = pf.WithdrawProportional(domain.BucketTaxFree, plan.FromTaxFree)
	return wd, plan.TotalTax, plan.TotalPenalty
}

// applyAllocatedImpact applies a life-event amount with a custom asset
// split directly to the taxable bucket's slots.
func applyAllocatedImpact(pf *Portfolio, imp AllocatedImpact) {
	for asset, pct := range imp.Allocation {
		delta := imp.Amount.Mul(pct.Div(hundred))
		pf.AddToSlot(domain.BucketTaxable, asset, delta)
	}
}

func addBreakdown(a, b domain.WithdrawalBreakdown) domain.WithdrawalBreakdown {
	return domain.WithdrawalBreakdown{
		FromTaxable:     a.FromTaxable.Add(b.FromTaxable),
		FromTaxDeferred: a.FromTaxDeferred.Add(b.FromTaxDeferred),
		FromTaxFree:     a.FromTaxFree.Add(b.FromTaxFree),
		FromRealEstate:  a.FromRealEstate.Add(b.FromRealEstate),
	}
}
