package calculation

import (
	"testing"

	"github.com/planfire/retirement-planner/internal/domain"
	"github.com/shopspring/decimal"
)

func TestNewPortfolioFromHoldings(t *testing.T) {
	holdings := []domain.Holding{
		{Ticker: "BTC", AssetType: domain.AssetBTC, Quantity: decimal.NewFromInt(2), CurrentPrice: decimal.NewFromInt(100000), AccountType: domain.BucketTaxable, CostBasisTotal: decimal.NewFromInt(50000)},
		{Ticker: "VTI", AssetType: domain.AssetStocks, Quantity: decimal.NewFromInt(100), CurrentPrice: decimal.NewFromInt(250), AccountType: domain.BucketTaxable, CostBasisTotal: decimal.NewFromInt(20000)},
		{Ticker: "VTI", AssetType: domain.AssetStocks, Quantity: decimal.NewFromInt(400), CurrentPrice: decimal.NewFromInt(250), AccountType: domain.BucketTaxDeferred},
	}
	pf := NewPortfolioFromHoldings(holdings, decimal.NewFromInt(300000))

	if got := pf.Balance(domain.BucketTaxable, domain.AssetBTC); !got.Equal(decimal.NewFromInt(200000)) {
		t.Errorf("taxable btc slot: got %s", got)
	}
	if got := pf.BucketTotal(domain.BucketTaxable); !got.Equal(decimal.NewFromInt(225000)) {
		t.Errorf("taxable total: got %s", got)
	}
	if got := pf.BucketTotal(domain.BucketTaxDeferred); !got.Equal(decimal.NewFromInt(100000)) {
		t.Errorf("deferred total: got %s", got)
	}
	if got := pf.LiquidTotal(); !got.Equal(decimal.NewFromInt(325000)) {
		t.Errorf("liquid total: got %s", got)
	}
	if got := pf.TotalAssets(); !got.Equal(decimal.NewFromInt(625000)) {
		t.Errorf("total assets should include real estate: got %s", got)
	}
	// Cost basis only accumulates from the taxable bucket.
	if got := pf.TaxableCostBasis; !got.Equal(decimal.NewFromInt(70000)) {
		t.Errorf("taxable cost basis: got %s", got)
	}
}

func TestDepositProportional(t *testing.T) {
	pf := NewPortfolio()
	pf.SetBalance(domain.BucketTaxable, domain.AssetStocks, decimal.NewFromInt(6000))
	pf.SetBalance(domain.BucketTaxable, domain.AssetBonds, decimal.NewFromInt(4000))

	pf.DepositProportional(domain.BucketTaxable, decimal.NewFromInt(1000))

	if got := pf.Balance(domain.BucketTaxable, domain.AssetStocks); !got.Equal(decimal.NewFromInt(6600)) {
		t.Errorf("stocks after proportional deposit: got %s", got)
	}
	if got := pf.Balance(domain.BucketTaxable, domain.AssetBonds); !got.Equal(decimal.NewFromInt(4400)) {
		t.Errorf("bonds after proportional deposit: got %s", got)
	}
	if got := pf.TaxableCostBasis; !got.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("deposit should raise cost basis dollar for dollar: got %s", got)
	}
}

func TestDepositIntoEmptyBucketUsesDefaultSlot(t *testing.T) {
	pf := NewPortfolio()
	pf.DepositProportional(domain.BucketTaxFree, decimal.NewFromInt(5000))
	if got := pf.Balance(domain.BucketTaxFree, domain.AssetStocks); !got.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("empty-bucket deposit should land in stocks, got %s", got)
	}
}

func TestWithdrawProportional(t *testing.T) {
	pf := NewPortfolio()
	pf.SetBalance(domain.BucketTaxable, domain.AssetStocks, decimal.NewFromInt(8000))
	pf.SetBalance(domain.BucketTaxable, domain.AssetCash, decimal.NewFromInt(2000))
	pf.TaxableCostBasis = decimal.NewFromInt(5000)

	actual := pf.WithdrawProportional(domain.BucketTaxable, decimal.NewFromInt(1000))
	if !actual.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("expected full withdrawal, got %s", actual)
	}
	if got := pf.Balance(domain.BucketTaxable, domain.AssetStocks); !got.Equal(decimal.NewFromInt(7200)) {
		t.Errorf("stocks after withdrawal: got %s", got)
	}
	if got := pf.Balance(domain.BucketTaxable, domain.AssetCash); !got.Equal(decimal.NewFromInt(1800)) {
		t.Errorf("cash after withdrawal: got %s", got)
	}
	if got := pf.TaxableCostBasis; !got.Equal(decimal.NewFromInt(4500)) {
		t.Errorf("cost basis should shrink proportionally: got %s", got)
	}
}

func TestWithdrawProportionalOverdraw(t *testing.T) {
	pf := NewPortfolio()
	pf.SetBalance(domain.BucketTaxDeferred, domain.AssetBonds, decimal.NewFromInt(3000))

	actual := pf.WithdrawProportional(domain.BucketTaxDeferred, decimal.NewFromInt(10000))
	if !actual.Equal(decimal.NewFromInt(3000)) {
		t.Errorf("overdraw should return what was available, got %s", actual)
	}
	if got := pf.BucketTotal(domain.BucketTaxDeferred); !got.IsZero() {
		t.Errorf("bucket should be empty after overdraw, got %s", got)
	}
	// Balances never go negative.
	for _, a := range domain.AssetClasses {
		if pf.Balance(domain.BucketTaxDeferred, a).IsNegative() {
			t.Errorf("negative balance in slot %s", a)
		}
	}
}

func TestTaxableGainRatio(t *testing.T) {
	pf := NewPortfolio()
	pf.SetBalance(domain.BucketTaxable, domain.AssetStocks, decimal.NewFromInt(10000))

	pf.TaxableCostBasis = decimal.NewFromInt(4000)
	if got := pf.TaxableGainRatio(); !got.Equal(decimal.NewFromFloat(0.6)) {
		t.Errorf("gain ratio: got %s", got)
	}

	// Basis above value clamps to zero gain.
	pf.TaxableCostBasis = decimal.NewFromInt(15000)
	if got := pf.TaxableGainRatio(); !got.IsZero() {
		t.Errorf("gain ratio should clamp at zero, got %s", got)
	}

	pf.TaxableCostBasis = decimal.Zero
	if got := pf.TaxableGainRatio(); !got.Equal(decimal.NewFromInt(1)) {
		t.Errorf("zero basis means all gain, got %s", got)
	}
}

func TestAllocationPercentSumsToOne(t *testing.T) {
	pf := NewPortfolio()
	pf.SetBalance(domain.BucketTaxable, domain.AssetBTC, decimal.NewFromInt(25000))
	pf.SetBalance(domain.BucketTaxDeferred, domain.AssetStocks, decimal.NewFromInt(50000))
	pf.SetBalance(domain.BucketTaxFree, domain.AssetBonds, decimal.NewFromInt(25000))

	alloc := pf.AllocationPercent()
	sum := decimal.Zero
	for _, share := range alloc {
		sum = sum.Add(share)
	}
	if !sum.Equal(decimal.NewFromInt(1)) {
		t.Errorf("allocation shares should sum to 1, got %s", sum)
	}
	if !alloc[domain.AssetStocks].Equal(decimal.NewFromFloat(0.5)) {
		t.Errorf("stocks share: got %s", alloc[domain.AssetStocks])
	}
}

func TestGrowAppliesPerAssetRates(t *testing.T) {
	pf := NewPortfolio()
	pf.SetBalance(domain.BucketTaxable, domain.AssetStocks, decimal.NewFromInt(1000))
	pf.SetBalance(domain.BucketTaxable, domain.AssetBonds, decimal.NewFromInt(1000))

	pf.Grow(domain.BucketTaxable, map[domain.AssetClass]decimal.Decimal{
		domain.AssetStocks: decimal.NewFromInt(10),
		domain.AssetBonds:  decimal.NewFromInt(-5),
	})

	if got := pf.Balance(domain.BucketTaxable, domain.AssetStocks); !got.Equal(decimal.NewFromInt(1100)) {
		t.Errorf("stocks after growth: got %s", got)
	}
	if got := pf.Balance(domain.BucketTaxable, domain.AssetBonds); !got.Equal(decimal.NewFromInt(950)) {
		t.Errorf("bonds after negative growth: got %s", got)
	}
}
