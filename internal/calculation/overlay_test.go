package calculation

import (
	"testing"

	"github.com/planfire/retirement-planner/internal/domain"
	"github.com/shopspring/decimal"
)

func TestCashFlowAdjustments(t *testing.T) {
	overlay := NewOverlay([]domain.LifeEvent{
		{Name: "raise", Year: 2030, EventType: domain.EventIncomeChange, Amount: decimal.NewFromInt(20000), IsRecurring: true, RecurringYears: 5},
		{Name: "tuition", Year: 2030, EventType: domain.EventExpenseChange, Amount: decimal.NewFromInt(30000)},
		{Name: "relocation", Year: 2030, EventType: domain.EventRelocation, Amount: decimal.NewFromInt(-5000), Affects: domain.AffectsExpenses},
	}, nil)

	income, expense := overlay.CashFlowAdjustments(2030)
	if !income.Equal(decimal.NewFromInt(20000)) {
		t.Errorf("income adjustment: got %s", income)
	}
	if !expense.Equal(decimal.NewFromInt(25000)) {
		t.Errorf("expense adjustment: got %s", expense)
	}

	// Recurring income continues; the one-shot expense does not.
	income, expense = overlay.CashFlowAdjustments(2032)
	if !income.Equal(decimal.NewFromInt(20000)) {
		t.Errorf("recurring income in 2032: got %s", income)
	}
	if !expense.IsZero() {
		t.Errorf("expense in 2032 should be zero, got %s", expense)
	}

	// Past the recurring window.
	income, _ = overlay.CashFlowAdjustments(2035)
	if !income.IsZero() {
		t.Errorf("income in 2035 should be zero, got %s", income)
	}
}

func TestAssetImpacts(t *testing.T) {
	overlay := NewOverlay([]domain.LifeEvent{
		{Name: "inheritance", Year: 2031, EventType: domain.EventWindfall, Amount: decimal.NewFromInt(100000), Affects: domain.AffectsAssets},
		{Name: "downpayment", Year: 2031, EventType: domain.EventHomePurchase, Amount: decimal.NewFromInt(-80000), Affects: domain.AffectsAssets},
		{Name: "allocated gift", Year: 2031, EventType: domain.EventWindfall, Amount: decimal.NewFromInt(10000), Affects: domain.AffectsAssets,
			AssetAllocation: map[domain.AssetClass]decimal.Decimal{
				domain.AssetBTC:    decimal.NewFromInt(50),
				domain.AssetStocks: decimal.NewFromInt(50),
			}},
		{Name: "raise", Year: 2031, EventType: domain.EventIncomeChange, Amount: decimal.NewFromInt(5000), Affects: domain.AffectsMultiple},
	}, nil)

	aggregate, direct := overlay.AssetImpacts(2031)
	if !aggregate.Equal(decimal.NewFromInt(20000)) {
		t.Errorf("aggregate delta: got %s", aggregate)
	}
	if len(direct) != 1 {
		t.Fatalf("expected one allocated impact, got %d", len(direct))
	}
	if !direct[0].Amount.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("allocated amount: got %s", direct[0].Amount)
	}
}

func TestGoalWithdrawals(t *testing.T) {
	overlay := NewOverlay(nil, []domain.Goal{
		{Name: "sabbatical", TargetAmount: decimal.NewFromInt(40000), TargetYear: 2033, WillBeSpent: true},
		{Name: "college fund", TargetAmount: decimal.NewFromInt(80000), TargetYear: 2033, WillBeSpent: false},
		{Name: "mortgage payoff", TargetAmount: decimal.NewFromInt(200000), TargetYear: 2033, WillBeSpent: true, LinkedLiabilityID: "mortgage", PayoffStrategy: domain.PayoffLumpSum},
	})

	// Only the spendable non-payoff goal counts.
	if got := overlay.GoalWithdrawals(2033); !got.Equal(decimal.NewFromInt(40000)) {
		t.Errorf("goal withdrawals 2033: got %s", got)
	}
	if got := overlay.GoalWithdrawals(2034); !got.IsZero() {
		t.Errorf("goal withdrawals 2034: got %s", got)
	}
}

func TestDebtPayoffGoals(t *testing.T) {
	overlay := NewOverlay(nil, []domain.Goal{
		{Name: "spread", TargetAmount: decimal.NewFromInt(50000), TargetYear: 2030, LinkedLiabilityID: "a", PayoffStrategy: domain.PayoffSpreadPayments, PayoffYears: 5},
		{Name: "lump", TargetAmount: decimal.NewFromInt(30000), TargetYear: 2032, LinkedLiabilityID: "b", PayoffStrategy: domain.PayoffLumpSum},
	})

	if got := overlay.DebtPayoffGoals(2029); len(got) != 0 {
		t.Errorf("2029: expected none, got %d", len(got))
	}
	if got := overlay.DebtPayoffGoals(2030); len(got) != 1 || got[0].Name != "spread" {
		t.Errorf("2030: expected the spread goal, got %v", got)
	}
	if got := overlay.DebtPayoffGoals(2032); len(got) != 2 {
		t.Errorf("2032: expected both goals, got %d", len(got))
	}
	if got := overlay.DebtPayoffGoals(2035); len(got) != 0 {
		t.Errorf("2035: spread window over, lump done, got %d", len(got))
	}
}
