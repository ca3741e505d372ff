package calculation

import (
	"github.com/planfire/retirement-planner/internal/domain"
	"github.com/shopspring/decimal"
)

// defaultDepositSlot receives deposits made into an empty bucket.
var defaultDepositSlot = domain.AssetStocks

// Portfolio is the mutable multi-bucket, multi-asset state of a single
// simulation run. It is built once from the holdings snapshot and never
// re-derived mid-simulation.
type Portfolio struct {
	buckets map[domain.Bucket]map[domain.AssetClass]decimal.Decimal

	// RealEstate is an illiquid balance outside the three tax buckets.
	RealEstate decimal.Decimal

	// TaxableCostBasis tracks the cost basis of the taxable bucket for
	// realized-gain estimation. Deposits raise it dollar for dollar;
	// withdrawals reduce it proportionally.
	TaxableCostBasis decimal.Decimal
}

// NewPortfolio creates an empty portfolio with all slots zeroed.
func NewPortfolio() *Portfolio {
	p := &Portfolio{
		buckets: make(map[domain.Bucket]map[domain.AssetClass]decimal.Decimal, len(domain.Buckets)),
	}
	for _, b := range domain.Buckets {
		slots := make(map[domain.AssetClass]decimal.Decimal, len(domain.AssetClasses))
		for _, a := range domain.AssetClasses {
			slots[a] = decimal.Zero
		}
		p.buckets[b] = slots
	}
	return p
}

// NewPortfolioFromHoldings initializes the portfolio once from the external
// holdings snapshot, mapping each position by tax treatment and asset class.
func NewPortfolioFromHoldings(holdings []domain.Holding, realEstate decimal.Decimal) *Portfolio {
	p := NewPortfolio()
	for _, h := range holdings {
		bucket, ok := p.buckets[h.AccountType]
		if !ok {
			continue
		}
		if _, ok := bucket[h.AssetType]; !ok {
			continue
		}
		bucket[h.AssetType] = bucket[h.AssetType].Add(h.MarketValue())
		if h.AccountType == domain.BucketTaxable {
			p.TaxableCostBasis = p.TaxableCostBasis.Add(h.CostBasisTotal)
		}
	}
	p.RealEstate = realEstate
	return p
}

// Balance returns the current value of one bucket slot.
func (p *Portfolio) Balance(bucket domain.Bucket, asset domain.AssetClass) decimal.Decimal {
	return p.buckets[bucket][asset]
}

// SetBalance overwrites one bucket slot, flooring at zero.
func (p *Portfolio) SetBalance(bucket domain.Bucket, asset domain.AssetClass, value decimal.Decimal) {
	if value.LessThan(decimal.Zero) {
		value = decimal.Zero
	}
	p.buckets[bucket][asset] = value
}

// AddToSlot adjusts one bucket slot by delta, flooring at zero.
func (p *Portfolio) AddToSlot(bucket domain.Bucket, asset domain.AssetClass, delta decimal.Decimal) {
	p.SetBalance(bucket, asset, p.buckets[bucket][asset].Add(delta))
}

// BucketTotal returns the sum of all slots in a bucket.
func (p *Portfolio) BucketTotal(bucket domain.Bucket) decimal.Decimal {
	total := decimal.Zero
	for _, v := range p.buckets[bucket] {
		total = total.Add(v)
	}
	return total
}

// AssetClassTotal returns the value of one asset class summed across the
// three tax buckets.
func (p *Portfolio) AssetClassTotal(asset domain.AssetClass) decimal.Decimal {
	total := decimal.Zero
	for _, b := range domain.Buckets {
		total = total.Add(p.buckets[b][asset])
	}
	return total
}

// LiquidTotal returns the sum of the three tax buckets, excluding real estate.
func (p *Portfolio) LiquidTotal() decimal.Decimal {
	total := decimal.Zero
	for _, b := range domain.Buckets {
		total = total.Add(p.BucketTotal(b))
	}
	return total
}

// TotalAssets returns liquid total plus real estate.
func (p *Portfolio) TotalAssets() decimal.Decimal {
	return p.LiquidTotal().Add(p.RealEstate)
}

// Grow multiplies each asset slot in a bucket by (1 + rate/100) using the
// per-asset rates map (rates in percent).
func (p *Portfolio) Grow(bucket domain.Bucket, rates map[domain.AssetClass]decimal.Decimal) {
	slots := p.buckets[bucket]
	for asset, value := range slots {
		rate, ok := rates[asset]
		if !ok || value.IsZero() {
			continue
		}
		slots[asset] = value.Mul(decimal.NewFromInt(1).Add(rate.Div(decimal.NewFromInt(100))))
	}
}

// DepositProportional adds amount to a bucket split across existing slot
// ratios; an empty bucket receives the whole deposit in the default slot.
// Taxable deposits raise the tracked cost basis.
func (p *Portfolio) DepositProportional(bucket domain.Bucket, amount decimal.Decimal) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return
	}
	total := p.BucketTotal(bucket)
	slots := p.buckets[bucket]
	if total.IsZero() {
		slots[defaultDepositSlot] = slots[defaultDepositSlot].Add(amount)
	} else {
		for asset, value := range slots {
			if value.IsZero() {
				continue
			}
			slots[asset] = value.Add(amount.Mul(value.Div(total)))
		}
	}
	if bucket == domain.BucketTaxable {
		p.TaxableCostBasis = p.TaxableCostBasis.Add(amount)
	}
}

// WithdrawProportional removes min(amount, bucketTotal) split proportionally
// across slots and returns the amount actually removed. A return smaller
// than the request signals depletion. Taxable withdrawals reduce the cost
// basis proportionally.
func (p *Portfolio) WithdrawProportional(bucket domain.Bucket, amount decimal.Decimal) decimal.Decimal {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	total := p.BucketTotal(bucket)
	if total.IsZero() {
		return decimal.Zero
	}
	actual := amount
	if actual.GreaterThan(total) {
		actual = total
	}
	ratio := actual.Div(total)
	slots := p.buckets[bucket]
	for asset, value := range slots {
		if value.IsZero() {
			continue
		}
		remaining := value.Sub(value.Mul(ratio))
		if remaining.LessThan(decimal.Zero) {
			remaining = decimal.Zero
		}
		slots[asset] = remaining
	}
	if bucket == domain.BucketTaxable {
		p.TaxableCostBasis = p.TaxableCostBasis.Sub(p.TaxableCostBasis.Mul(ratio))
		if p.TaxableCostBasis.LessThan(decimal.Zero) {
			p.TaxableCostBasis = decimal.Zero
		}
	}
	return actual
}

// TaxableGainRatio estimates the realized-gain fraction of the taxable
// bucket from tracked cost basis vs. current value, clamped to [0, 1].
func (p *Portfolio) TaxableGainRatio() decimal.Decimal {
	total := p.BucketTotal(domain.BucketTaxable)
	if total.IsZero() {
		return decimal.Zero
	}
	gain := decimal.NewFromInt(1).Sub(p.TaxableCostBasis.Div(total))
	if gain.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	if gain.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return gain
}

// ZeroAll empties every bucket slot and real estate. Used when a simulation
// reaches the ran-out-of-money terminal state.
func (p *Portfolio) ZeroAll() {
	for _, b := range domain.Buckets {
		for _, a := range domain.AssetClasses {
			p.buckets[b][a] = decimal.Zero
		}
	}
	p.RealEstate = decimal.Zero
	p.TaxableCostBasis = decimal.Zero
}

// Snapshot returns a deep copy of the bucket balances for recording in a
// projection row.
func (p *Portfolio) Snapshot() map[domain.Bucket]map[domain.AssetClass]decimal.Decimal {
	out := make(map[domain.Bucket]map[domain.AssetClass]decimal.Decimal, len(domain.Buckets))
	for _, b := range domain.Buckets {
		slots := make(map[domain.AssetClass]decimal.Decimal, len(domain.AssetClasses))
		for _, a := range domain.AssetClasses {
			slots[a] = p.buckets[b][a]
		}
		out[b] = slots
	}
	return out
}

// AllocationPercent returns each asset class's share of the liquid
// portfolio, as fractions summing to 1 (zero map for an empty portfolio).
func (p *Portfolio) AllocationPercent() map[domain.AssetClass]decimal.Decimal {
	out := make(map[domain.AssetClass]decimal.Decimal, len(domain.AssetClasses))
	liquid := p.LiquidTotal()
	for _, a := range domain.AssetClasses {
		if liquid.IsZero() {
			out[a] = decimal.Zero
			continue
		}
		out[a] = p.AssetClassTotal(a).Div(liquid)
	}
	return out
}
