package calculation

import (
	"github.com/planfire/retirement-planner/internal/domain"
	"github.com/shopspring/decimal"
)

// AllocatedImpact is a life-event asset change carrying a custom
// asset-class split, applied directly to bucket slots.
type AllocatedImpact struct {
	Amount     decimal.Decimal
	Allocation map[domain.AssetClass]decimal.Decimal // percents summing to 100
}

// Overlay derives per-year cash-flow and lump-sum adjustments from the
// read-only life-event and goal records. It never mutates its inputs.
type Overlay struct {
	events []domain.LifeEvent
	goals  []domain.Goal
}

// NewOverlay wraps the event and goal snapshots.
func NewOverlay(events []domain.LifeEvent, goals []domain.Goal) *Overlay {
	return &Overlay{events: events, goals: goals}
}

// CashFlowAdjustments returns the signed income and expense adjustments
// from events active in the given calendar year. Recurring events stay
// active while year < startYear + recurringYears.
func (o *Overlay) CashFlowAdjustments(calendarYear int) (incomeAdj, expenseAdj decimal.Decimal) {
	for _, e := range o.events {
		if !e.ActiveInYear(calendarYear) {
			continue
		}
		switch e.EventType {
		case domain.EventIncomeChange:
			incomeAdj = incomeAdj.Add(e.Amount)
		case domain.EventExpenseChange:
			expenseAdj = expenseAdj.Add(e.Amount)
		default:
			if e.Affects == domain.AffectsExpenses || e.Affects == domain.AffectsMultiple {
				expenseAdj = expenseAdj.Add(e.Amount)
			}
		}
	}
	return incomeAdj, expenseAdj
}

// AssetImpacts returns this year's portfolio-level changes from life
// events: a signed aggregate delta applied after growth, plus impacts with
// custom asset-class allocations that are applied directly to buckets.
func (o *Overlay) AssetImpacts(calendarYear int) (aggregate decimal.Decimal, direct []AllocatedImpact) {
	for _, e := range o.events {
		if !e.ActiveInYear(calendarYear) {
			continue
		}
		if e.Affects != domain.AffectsAssets && e.Affects != domain.AffectsMultiple {
			continue
		}
		if e.EventType == domain.EventIncomeChange || e.EventType == domain.EventExpenseChange {
			continue
		}
		if len(e.AssetAllocation) > 0 {
			direct = append(direct, AllocatedImpact{Amount: e.Amount, Allocation: e.AssetAllocation})
		} else {
			aggregate = aggregate.Add(e.Amount)
		}
	}
	return aggregate, direct
}

// GoalWithdrawals returns the total will-be-spent goal amount scheduled for
// the given calendar year. Debt-payoff goals are excluded; they route
// through DebtPayoffGoals.
func (o *Overlay) GoalWithdrawals(calendarYear int) decimal.Decimal {
	total := decimal.Zero
	for _, g := range o.goals {
		if g.IsDebtPayoff() || !g.WillBeSpent {
			continue
		}
		if g.TargetYear == calendarYear {
			total = total.Add(g.TargetAmount)
		}
	}
	return total
}

// DebtPayoffGoals returns the debt-payoff goals active in the given
// calendar year. A spread_payments goal is active for PayoffYears starting
// at its target year; a lump_sum goal only in the target year itself.
func (o *Overlay) DebtPayoffGoals(calendarYear int) []domain.Goal {
	var active []domain.Goal
	for _, g := range o.goals {
		if !g.IsDebtPayoff() {
			continue
		}
		switch g.PayoffStrategy {
		case domain.PayoffSpreadPayments:
			if g.PayoffYears > 0 && calendarYear >= g.TargetYear && calendarYear < g.TargetYear+g.PayoffYears {
				active = append(active, g)
			}
		case domain.PayoffLumpSum:
			if calendarYear == g.TargetYear {
				active = append(active, g)
			}
		}
	}
	return active
}
