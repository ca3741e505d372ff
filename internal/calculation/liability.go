package calculation

import (
	"github.com/planfire/retirement-planner/internal/domain"
	"github.com/planfire/retirement-planner/pkg/dateutil"
	"github.com/shopspring/decimal"
)

// paidOffThreshold: a balance at or below this is considered retired debt.
var paidOffThreshold = decimal.NewFromFloat(0.01)

var (
	one        = decimal.NewFromInt(1)
	hundred    = decimal.NewFromInt(100)
	twelve     = decimal.NewFromInt(12)
	twelveByHd = decimal.NewFromInt(1200)
)

// CollateralPolicy holds the user's collateral-management toggles. LTV
// values are fractions (0.5 means 50%).
type CollateralPolicy struct {
	AutoTopUp  bool
	TriggerLTV decimal.Decimal
	TargetLTV  decimal.Decimal
}

// LiabilityState is the mutable per-run copy of a liability.
type LiabilityState struct {
	domain.Liability
	PaidOff bool
}

// LiabilityManager owns the debt ledger for one simulation run: monthly
// amortization, interest capitalization, and the BTC collateral LTV state
// machine. The encumbered and released maps are owned here and never
// aliased elsewhere; pledged BTC is excluded from the liquid taxable slot.
type LiabilityManager struct {
	states []*LiabilityState
	policy CollateralPolicy
	logger Logger

	// encumbered maps liability id to BTC quantity currently pledged.
	encumbered map[domain.LiabilityID]decimal.Decimal

	// releasedLastYear holds BTC released by the previous year's tick,
	// returned to the liquid slot at the start of the next year.
	releasedLastYear map[domain.LiabilityID]decimal.Decimal
}

// NewLiabilityManager builds the ledger from the liabilities and
// collateralized-loans snapshots. Loan records are folded into the common
// liability shape; their collateral seeds the encumbered ledger.
func NewLiabilityManager(liabilities []domain.Liability, loans []domain.CollateralizedLoan, policy CollateralPolicy, logger Logger) *LiabilityManager {
	if logger == nil {
		logger = NopLogger{}
	}
	lm := &LiabilityManager{
		policy:           policy,
		logger:           logger,
		encumbered:       make(map[domain.LiabilityID]decimal.Decimal),
		releasedLastYear: make(map[domain.LiabilityID]decimal.Decimal),
	}
	for _, l := range liabilities {
		lm.addState(l)
	}
	for _, loan := range loans {
		lm.addState(loan.AsLiability())
	}
	return lm
}

func (lm *LiabilityManager) addState(l domain.Liability) {
	st := &LiabilityState{Liability: l}
	if st.CurrentBalance.LessThanOrEqual(paidOffThreshold) {
		st.CurrentBalance = decimal.Zero
		st.PaidOff = true
	}
	lm.states = append(lm.states, st)
	if l.IsBTCCollateralized() && l.CollateralBTCAmount.GreaterThan(decimal.Zero) {
		lm.encumbered[l.ID] = l.CollateralBTCAmount
	}
}

// BeginYear returns BTC released by last year's tick to the liquid taxable
// slot at this year's price, then resets the release map.
func (lm *LiabilityManager) BeginYear(pf *Portfolio, btcPrice decimal.Decimal) {
	for id, qty := range lm.releasedLastYear {
		if qty.GreaterThan(decimal.Zero) && btcPrice.GreaterThan(decimal.Zero) {
			pf.AddToSlot(domain.BucketTaxable, domain.AssetBTC, qty.Mul(btcPrice))
			lm.logger.Debugf("released %s BTC from %s back to liquid slot", qty.StringFixed(8), id)
		}
	}
	lm.releasedLastYear = make(map[domain.LiabilityID]decimal.Decimal)
}

// TotalDebt returns the sum of all outstanding balances.
func (lm *LiabilityManager) TotalDebt() decimal.Decimal {
	total := decimal.Zero
	for _, st := range lm.states {
		if !st.PaidOff {
			total = total.Add(st.CurrentBalance)
		}
	}
	return total
}

// BalanceOf returns the outstanding balance of one liability (zero when
// paid off or unknown).
func (lm *LiabilityManager) BalanceOf(id domain.LiabilityID) decimal.Decimal {
	for _, st := range lm.states {
		if st.ID == id && !st.PaidOff {
			return st.CurrentBalance
		}
	}
	return decimal.Zero
}

// EncumberedBTC returns the BTC quantity currently pledged for a liability.
func (lm *LiabilityManager) EncumberedBTC(id domain.LiabilityID) decimal.Decimal {
	return lm.encumbered[id]
}

// ReduceBalance pays down a liability directly (debt-payoff goals) and
// returns the amount actually applied.
func (lm *LiabilityManager) ReduceBalance(id domain.LiabilityID, amount decimal.Decimal) decimal.Decimal {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	for _, st := range lm.states {
		if st.ID != id || st.PaidOff {
			continue
		}
		actual := amount
		if actual.GreaterThan(st.CurrentBalance) {
			actual = st.CurrentBalance
		}
		st.CurrentBalance = st.CurrentBalance.Sub(actual)
		if st.CurrentBalance.LessThanOrEqual(paidOffThreshold) {
			st.CurrentBalance = decimal.Zero
			st.PaidOff = true
		}
		return actual
	}
	return decimal.Zero
}

// Tick advances every liability one simulated year: up to 12 monthly
// amortization sub-steps (year 0 starts at the current month), interest
// capitalization when no payment exists, then the BTC collateral state
// machine at this year's BTC price. Liabilities in skip were already
// handled by a payoff goal this year.
func (lm *LiabilityManager) Tick(yearIndex, calendarYear int, btcPrice decimal.Decimal, pf *Portfolio, skip map[domain.LiabilityID]bool) []domain.CollateralEvent {
	var events []domain.CollateralEvent

	months := 12
	if yearIndex == 0 {
		months = dateutil.MonthsRemaining(nowFunc())
	}

	for _, st := range lm.states {
		if st.PaidOff || skip[st.ID] {
			continue
		}

		if st.MonthlyPayment.GreaterThan(decimal.Zero) {
			events = append(events, lm.amortize(st, months, calendarYear)...)
		} else if st.InterestRate.GreaterThan(decimal.Zero) {
			lm.capitalizeInterest(st, months)
		}

		if st.IsBTCCollateralized() {
			events = append(events, lm.manageCollateral(st, calendarYear, btcPrice, pf)...)
		}
	}
	return events
}

// amortize runs the monthly payment sub-steps, stopping early once the
// balance clears the paid-off threshold.
func (lm *LiabilityManager) amortize(st *LiabilityState, months, calendarYear int) []domain.CollateralEvent {
	monthlyRate := st.InterestRate.Div(twelveByHd)
	for m := 0; m < months; m++ {
		interest := st.CurrentBalance.Mul(monthlyRate)
		payment := st.MonthlyPayment
		owed := st.CurrentBalance.Add(interest)
		if payment.GreaterThan(owed) {
			payment = owed
		}
		st.CurrentBalance = owed.Sub(payment)
		if st.CurrentBalance.LessThanOrEqual(paidOffThreshold) {
			st.CurrentBalance = decimal.Zero
			st.PaidOff = true
			lm.logger.Debugf("%s paid off in %d", st.Name, calendarYear)
			return []domain.CollateralEvent{{
				Year:        calendarYear,
				LiabilityID: st.ID,
				Name:        st.Name,
				Type:        domain.LiabilityEventPaidOff,
			}}
		}
	}
	return nil
}

// capitalizeInterest accrues interest on payment-free debt: annually for
// ordinary liabilities, by monthly compounding for BTC-collateralized ones.
func (lm *LiabilityManager) capitalizeInterest(st *LiabilityState, months int) {
	if st.IsBTCCollateralized() {
		monthlyFactor := one.Add(st.InterestRate.Div(twelveByHd))
		st.CurrentBalance = st.CurrentBalance.Mul(monthlyFactor.Pow(decimal.NewFromInt(int64(months))))
		return
	}
	fraction := decimal.NewFromInt(int64(months)).Div(twelve)
	st.CurrentBalance = st.CurrentBalance.Mul(one.Add(st.InterestRate.Div(hundred).Mul(fraction)))
}

// manageCollateral evaluates the LTV sub-state machine for one liability:
// auto top-up, liquidation, and release, in that order, all at this year's
// BTC price.
func (lm *LiabilityManager) manageCollateral(st *LiabilityState, calendarYear int, btcPrice decimal.Decimal, pf *Portfolio) []domain.CollateralEvent {
	if btcPrice.LessThanOrEqual(decimal.Zero) {
		return nil
	}
	pledged := lm.encumbered[st.ID]
	var events []domain.CollateralEvent

	// Debt already cleared: all pledged BTC goes back.
	if st.CurrentBalance.LessThanOrEqual(paidOffThreshold) {
		if pledged.GreaterThan(decimal.Zero) {
			lm.releasedLastYear[st.ID] = lm.releasedLastYear[st.ID].Add(pledged)
			lm.encumbered[st.ID] = decimal.Zero
			events = append(events, domain.CollateralEvent{
				Year:        calendarYear,
				LiabilityID: st.ID,
				Name:        st.Name,
				Type:        domain.CollateralEventRelease,
				BTCAmount:   pledged,
			})
		}
		return events
	}
	if pledged.LessThanOrEqual(decimal.Zero) {
		return nil
	}

	target := lm.policy.TargetLTV
	ltv := st.CurrentBalance.Div(pledged.Mul(btcPrice))

	// Auto top-up: pledge liquid BTC to pull LTV down to target before the
	// liquidation threshold is hit.
	if lm.policy.AutoTopUp && target.GreaterThan(decimal.Zero) &&
		ltv.GreaterThanOrEqual(lm.policy.TriggerLTV) && ltv.LessThan(st.LiquidationLTV) {
		neededQty := st.CurrentBalance.Div(target.Mul(btcPrice)).Sub(pledged)
		liquidQty := pf.Balance(domain.BucketTaxable, domain.AssetBTC).Div(btcPrice)
		if neededQty.GreaterThan(decimal.Zero) && liquidQty.GreaterThanOrEqual(neededQty) {
			pf.AddToSlot(domain.BucketTaxable, domain.AssetBTC, neededQty.Mul(btcPrice).Neg())
			pledged = pledged.Add(neededQty)
			lm.encumbered[st.ID] = pledged
			ltv = st.CurrentBalance.Div(pledged.Mul(btcPrice))
			events = append(events, domain.CollateralEvent{
				Year:         calendarYear,
				LiabilityID:  st.ID,
				Name:         st.Name,
				Type:         domain.CollateralEventTopUp,
				BTCAmount:    neededQty,
				ResultingLTV: ltv,
			})
			lm.logger.Infof("topped up %s with %s BTC, LTV now %s", st.Name, neededQty.StringFixed(8), ltv.StringFixed(4))
		}
	}

	switch {
	case ltv.GreaterThanOrEqual(st.LiquidationLTV):
		events = append(events, lm.liquidate(st, calendarYear, btcPrice, pledged, target, pf)...)
	case ltv.LessThanOrEqual(st.CollateralReleaseLTV):
		events = append(events, lm.release(st, calendarYear, btcPrice, pledged, target)...)
	}
	return events
}

// liquidate sells just enough pledged BTC to restore the target LTV, or
// everything if even that cannot reach it. Proceeds reduce the balance; a
// fully repaid loan returns unsold collateral to the liquid slot at once.
func (lm *LiabilityManager) liquidate(st *LiabilityState, calendarYear int, btcPrice, pledged, target decimal.Decimal, pf *Portfolio) []domain.CollateralEvent {
	var events []domain.CollateralEvent

	// Solve balance - q*price = target * price * (pledged - q) for q.
	sellQty := pledged
	if target.GreaterThan(decimal.Zero) && target.LessThan(one) {
		sellQty = st.CurrentBalance.Sub(target.Mul(btcPrice).Mul(pledged)).Div(btcPrice.Mul(one.Sub(target)))
	}
	full := false
	if sellQty.GreaterThanOrEqual(pledged) {
		sellQty = pledged
		full = true
	}
	if sellQty.LessThanOrEqual(decimal.Zero) {
		return nil
	}

	proceeds := sellQty.Mul(btcPrice)
	if proceeds.GreaterThan(st.CurrentBalance) {
		proceeds = st.CurrentBalance
	}
	st.CurrentBalance = st.CurrentBalance.Sub(proceeds)
	pledged = pledged.Sub(sellQty)
	lm.encumbered[st.ID] = pledged

	resultingLTV := decimal.Zero
	if pledged.GreaterThan(decimal.Zero) && st.CurrentBalance.GreaterThan(decimal.Zero) {
		resultingLTV = st.CurrentBalance.Div(pledged.Mul(btcPrice))
	}
	events = append(events, domain.CollateralEvent{
		Year:         calendarYear,
		LiabilityID:  st.ID,
		Name:         st.Name,
		Type:         domain.CollateralEventLiquidation,
		BTCAmount:    sellQty,
		Proceeds:     proceeds,
		ResultingLTV: resultingLTV,
	})
	lm.logger.Warnf("liquidated %s BTC from %s (full=%v), balance now %s", sellQty.StringFixed(8), st.Name, full, st.CurrentBalance.StringFixed(2))

	if st.CurrentBalance.LessThanOrEqual(paidOffThreshold) {
		st.CurrentBalance = decimal.Zero
		st.PaidOff = true
		if pledged.GreaterThan(decimal.Zero) {
			pf.AddToSlot(domain.BucketTaxable, domain.AssetBTC, pledged.Mul(btcPrice))
			lm.encumbered[st.ID] = decimal.Zero
		}
		events = append(events, domain.CollateralEvent{
			Year:        calendarYear,
			LiabilityID: st.ID,
			Name:        st.Name,
			Type:        domain.LiabilityEventPaidOff,
		})
	}
	return events
}

// release frees pledged BTC beyond what holding the target LTV requires.
// Released quantities return to the liquid slot at the start of next year.
func (lm *LiabilityManager) release(st *LiabilityState, calendarYear int, btcPrice, pledged, target decimal.Decimal) []domain.CollateralEvent {
	releaseQty := pledged
	if st.CurrentBalance.GreaterThan(decimal.Zero) && target.GreaterThan(decimal.Zero) {
		needed := st.CurrentBalance.Div(target.Mul(btcPrice))
		releaseQty = pledged.Sub(needed)
	}
	if releaseQty.LessThanOrEqual(decimal.Zero) {
		return nil
	}

	pledged = pledged.Sub(releaseQty)
	lm.encumbered[st.ID] = pledged
	lm.releasedLastYear[st.ID] = lm.releasedLastYear[st.ID].Add(releaseQty)

	resultingLTV := decimal.Zero
	if pledged.GreaterThan(decimal.Zero) {
		resultingLTV = st.CurrentBalance.Div(pledged.Mul(btcPrice))
	}
	return []domain.CollateralEvent{{
		Year:         calendarYear,
		LiabilityID:  st.ID,
		Name:         st.Name,
		Type:         domain.CollateralEventRelease,
		BTCAmount:    releaseQty,
		ResultingLTV: resultingLTV,
	}}
}
