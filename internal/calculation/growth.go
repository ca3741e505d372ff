package calculation

import (
	"math"

	"github.com/planfire/retirement-planner/internal/domain"
	"github.com/shopspring/decimal"
)

// Saylor24 curve breakpoints (absolute calendar years).
const (
	saylorDeclineStart = 2025
	saylorPlateauStart = 2037
	saylorPlateauEnd   = 2045
	saylorTerminalYear = 2075
)

var (
	saylorStartRate   = decimal.NewFromInt(50)
	saylorPlateauRate = decimal.NewFromInt(20)
	conservativeRate  = decimal.NewFromInt(10)
)

// GrowthModel maps (asset class, year offset) to an expected annual return
// in percent, anchored to an absolute base calendar year so the phased BTC
// curve tracks calendar time rather than simulation offsets.
type GrowthModel struct {
	assumptions domain.Assumptions
	baseYear    int
}

// NewGrowthModel creates a growth model anchored at baseYear (year offset 0).
func NewGrowthModel(assumptions domain.Assumptions, baseYear int) *GrowthModel {
	return &GrowthModel{assumptions: assumptions, baseYear: baseYear}
}

// ExpectedReturn returns the expected annual return in percent for an asset
// class at the given year offset.
func (g *GrowthModel) ExpectedReturn(asset domain.AssetClass, yearOffset int) decimal.Decimal {
	switch asset {
	case domain.AssetBTC:
		return g.btcReturn(yearOffset)
	case domain.AssetStocks:
		return g.assumptions.StocksGrowthRate
	case domain.AssetBonds:
		return g.assumptions.BondsGrowthRate
	case domain.AssetCash:
		return g.assumptions.CashGrowthRate
	case domain.AssetOther:
		return g.assumptions.OtherGrowthRate
	default:
		return decimal.Zero
	}
}

// RatesForYear returns the expected return for every asset class at the
// given year offset.
func (g *GrowthModel) RatesForYear(yearOffset int) map[domain.AssetClass]decimal.Decimal {
	rates := make(map[domain.AssetClass]decimal.Decimal, len(domain.AssetClasses))
	for _, asset := range domain.AssetClasses {
		rates[asset] = g.ExpectedReturn(asset, yearOffset)
	}
	return rates
}

func (g *GrowthModel) btcReturn(yearOffset int) decimal.Decimal {
	switch g.assumptions.BTCGrowthModel {
	case domain.BTCModelSaylor24:
		return g.saylor24Return(g.baseYear + yearOffset)
	case domain.BTCModelConservative:
		return conservativeRate
	default:
		return g.assumptions.BTCGrowthRate
	}
}

// saylor24Return implements the four-phase BTC return curve keyed to the
// absolute calendar year: linear 50%->20% through 2037, a 20% plateau
// through 2045, a linear glide to inflation+3 through 2075, and a terminal
// inflation+2 thereafter.
func (g *GrowthModel) saylor24Return(calendarYear int) decimal.Decimal {
	inflation := g.assumptions.InflationRate
	switch {
	case calendarYear <= saylorDeclineStart:
		return saylorStartRate
	case calendarYear <= saylorPlateauStart:
		span := decimal.NewFromInt(saylorPlateauStart - saylorDeclineStart)
		elapsed := decimal.NewFromInt(int64(calendarYear - saylorDeclineStart))
		drop := saylorStartRate.Sub(saylorPlateauRate).Mul(elapsed).Div(span)
		return saylorStartRate.Sub(drop)
	case calendarYear <= saylorPlateauEnd:
		return saylorPlateauRate
	case calendarYear <= saylorTerminalYear:
		target := inflation.Add(decimal.NewFromInt(3))
		span := decimal.NewFromInt(saylorTerminalYear - saylorPlateauEnd)
		elapsed := decimal.NewFromInt(int64(calendarYear - saylorPlateauEnd))
		return saylorPlateauRate.Add(target.Sub(saylorPlateauRate).Mul(elapsed).Div(span))
	default:
		return inflation.Add(decimal.NewFromInt(2))
	}
}

// BTCVolatility returns the annualized BTC volatility in percent at the
// given year offset, decaying exponentially from the initial level toward
// the floor: floor + (initial-floor)*e^(-decay*year). Used only by the
// stochastic engine.
func (g *GrowthModel) BTCVolatility(yearOffset int) decimal.Decimal {
	initial := g.assumptions.BTCInitialVolatility
	floor := g.assumptions.BTCVolatilityFloor
	decay := g.assumptions.BTCVolatilityDecay
	if initial.LessThanOrEqual(floor) {
		return floor
	}
	factor := math.Exp(-decay.InexactFloat64() * float64(yearOffset))
	return floor.Add(initial.Sub(floor).Mul(decimal.NewFromFloat(factor)))
}
