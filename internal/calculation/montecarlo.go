package calculation

import (
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/planfire/retirement-planner/internal/domain"
	"github.com/shopspring/decimal"
)

// DefaultNumTrials is the Monte Carlo trial count when none is configured.
const DefaultNumTrials = 1000

// Return clamps in percent, applied to the stochastic draws.
const (
	btcReturnMin        = -60
	btcReturnMax        = 200
	stocksReturnMin     = -40
	stocksReturnMax     = 50
	bondsNoiseBand      = 2 // uniform +/- percent
	otherNoiseBand      = 3
	realEstateNoiseBand = 2
)

// MonteCarloConfig holds the stochastic run parameters.
type MonteCarloConfig struct {
	NumTrials int
	Seed      int64
}

// trialOutcome is one full-horizon randomized walk.
type trialOutcome struct {
	values      []decimal.Decimal // liquid buckets plus real estate, per year index
	withdrawals []decimal.Decimal
	failed      bool
}

// RunMonteCarlo runs N independent randomized full-horizon trials using the
// same starting allocation and withdrawal order as the deterministic path,
// but with a single blended portfolio return per year and no tax modeling
// (a deliberate precision trade-off; the deterministic engine remains the
// authoritative tax-aware path). Trials are embarrassingly parallel.
func (e *Engine) RunMonteCarlo(input *domain.PlanInput, cfg MonteCarloConfig) (*domain.MonteCarloResult, error) {
	if err := e.validateInput(input); err != nil {
		return nil, err
	}
	if cfg.NumTrials <= 0 {
		cfg.NumTrials = DefaultNumTrials
	}
	if cfg.Seed == 0 {
		cfg.Seed = seedFunc()
	}

	a := input.Assumptions
	baseYear := nowFunc().Year()
	horizon := input.HorizonYears()
	growth := NewGrowthModel(a, baseYear)

	start := NewPortfolioFromHoldings(input.Holdings, a.RealEstateValue)
	allocation := start.AllocationPercent()
	startBalances := [3]decimal.Decimal{
		start.BucketTotal(domain.BucketTaxable),
		start.BucketTotal(domain.BucketTaxDeferred),
		start.BucketTotal(domain.BucketTaxFree),
	}

	trials := make([]trialOutcome, cfg.NumTrials)
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 10)
	for t := 0; t < cfg.NumTrials; t++ {
		wg.Add(1)
		go func(trial int) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			rng := rand.New(rand.NewSource(cfg.Seed + int64(trial)))
			trials[trial] = e.runTrial(a, growth, allocation, startBalances, horizon, rng)
		}(t)
	}
	wg.Wait()

	return aggregateTrials(trials, baseYear, horizon), nil
}

// runTrial walks one randomized horizon.
func (e *Engine) runTrial(a domain.Assumptions, growth *GrowthModel, allocation map[domain.AssetClass]decimal.Decimal, start [3]decimal.Decimal, horizon int, rng *rand.Rand) trialOutcome {
	balances := start
	out := trialOutcome{
		values:      make([]decimal.Decimal, horizon),
		withdrawals: make([]decimal.Decimal, horizon),
	}

	stocksCagr := a.StocksGrowthRate.InexactFloat64()
	stocksVol := a.StocksVolatility.InexactFloat64()
	bondsCagr := a.BondsGrowthRate.InexactFloat64()
	cashCagr := a.CashGrowthRate.InexactFloat64()
	otherCagr := a.OtherGrowthRate.InexactFloat64()
	reCagr := a.RealEstateGrowthRate.InexactFloat64()

	// Real estate rides along stochastically but cannot be drawn down.
	realEstate := a.RealEstateValue

	for i := 0; i < horizon; i++ {
		age := a.CurrentAge + i

		if out.failed {
			out.values[i] = decimal.Zero
			out.withdrawals[i] = decimal.Zero
			continue
		}

		if i > 0 {
			z1, z2 := boxMuller(rng.Float64(), rng.Float64())
			btcR := clampFloat(growth.ExpectedReturn(domain.AssetBTC, i).InexactFloat64()+growth.BTCVolatility(i).InexactFloat64()*z1, btcReturnMin, btcReturnMax)
			stocksR := clampFloat(stocksCagr+stocksVol*z2, stocksReturnMin, stocksReturnMax)
			bondsR := bondsCagr + (rng.Float64()*2-1)*bondsNoiseBand
			otherR := otherCagr + (rng.Float64()*2-1)*otherNoiseBand

			blended := allocation[domain.AssetBTC].InexactFloat64()*btcR +
				allocation[domain.AssetStocks].InexactFloat64()*stocksR +
				allocation[domain.AssetBonds].InexactFloat64()*bondsR +
				allocation[domain.AssetCash].InexactFloat64()*cashCagr +
				allocation[domain.AssetOther].InexactFloat64()*otherR

			factor := decimal.NewFromFloat(1 + blended/100)
			for b := range balances {
				balances[b] = balances[b].Mul(factor)
			}

			reR := reCagr + (rng.Float64()*2-1)*realEstateNoiseBand
			realEstate = realEstate.Mul(decimal.NewFromFloat(1 + reR/100))
		}

		if age < a.RetirementAge {
			flow := simplifiedNetCashFlow(a, i)
			if flow.GreaterThan(decimal.Zero) {
				balances[0] = balances[0].Add(flow)
			} else if flow.LessThan(decimal.Zero) {
				withdrawInOrder(&balances, flow.Neg())
			}
		} else {
			need := simplifiedRetirementNeed(a, i, age)
			actual := withdrawInOrder(&balances, need)
			out.withdrawals[i] = actual
			if total(balances).LessThanOrEqual(decimal.Zero) {
				out.failed = true
			}
		}

		out.values[i] = total(balances).Add(realEstate)
	}
	return out
}

// aggregateTrials reduces the trial set into percentile bands, the median
// withdrawal, and the success probability.
func aggregateTrials(trials []trialOutcome, baseYear, horizon int) *domain.MonteCarloResult {
	n := len(trials)
	result := &domain.MonteCarloResult{
		NumTrials: n,
		Bands:     make([]domain.PercentileBand, horizon),
	}

	successes := 0
	for _, tr := range trials {
		if !tr.failed {
			successes++
		}
	}
	result.SuccessProbability = decimal.NewFromInt(int64(successes)).Div(decimal.NewFromInt(int64(n)))

	values := make([]decimal.Decimal, n)
	withdrawals := make([]decimal.Decimal, n)
	for i := 0; i < horizon; i++ {
		for t, tr := range trials {
			values[t] = tr.values[i]
			withdrawals[t] = tr.withdrawals[i]
		}
		sortDecimals(values)
		sortDecimals(withdrawals)
		result.Bands[i] = domain.PercentileBand{
			YearIndex:        i,
			Year:             baseYear + i,
			P10:              values[n/10],
			P25:              values[n/4],
			P50:              values[n/2],
			P75:              values[3*n/4],
			P90:              values[9*n/10],
			MedianWithdrawal: withdrawals[n/2],
		}
	}
	if horizon > 0 {
		result.MedianEndingValue = result.Bands[horizon-1].P50
	}
	return result
}

// boxMuller converts two uniform(0,1) draws into two independent standard
// normal variates.
func boxMuller(u1, u2 float64) (float64, float64) {
	if u1 <= 0 {
		u1 = math.SmallestNonzeroFloat64
	}
	r := math.Sqrt(-2 * math.Log(u1))
	return r * math.Cos(2*math.Pi*u2), r * math.Sin(2*math.Pi*u2)
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// withdrawInOrder drains the taxable, tax-deferred, tax-free balances in
// that fixed order and returns the amount actually withdrawn.
func withdrawInOrder(balances *[3]decimal.Decimal, amount decimal.Decimal) decimal.Decimal {
	withdrawn := decimal.Zero
	remaining := amount
	for b := range balances {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		take := remaining
		if take.GreaterThan(balances[b]) {
			take = balances[b]
		}
		balances[b] = balances[b].Sub(take)
		withdrawn = withdrawn.Add(take)
		remaining = remaining.Sub(take)
	}
	return withdrawn
}

func total(balances [3]decimal.Decimal) decimal.Decimal {
	return balances[0].Add(balances[1]).Add(balances[2])
}

func sortDecimals(values []decimal.Decimal) {
	sort.Slice(values, func(i, j int) bool { return values[i].LessThan(values[j]) })
}
