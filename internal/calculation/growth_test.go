package calculation

import (
	"testing"

	"github.com/planfire/retirement-planner/internal/domain"
	"github.com/shopspring/decimal"
)

func TestSaylor24Curve(t *testing.T) {
	assumptions := domain.Assumptions{
		BTCGrowthModel: domain.BTCModelSaylor24,
		InflationRate:  decimal.NewFromInt(3),
	}
	growth := NewGrowthModel(assumptions, 2025)

	tests := []struct {
		name       string
		yearOffset int
		expected   decimal.Decimal
	}{
		{"start of decline", 0, decimal.NewFromInt(50)},
		{"mid decline 2031", 6, decimal.NewFromInt(35)},
		{"plateau start 2037", 12, decimal.NewFromInt(20)},
		{"plateau 2040", 15, decimal.NewFromInt(20)},
		{"plateau end 2045", 20, decimal.NewFromInt(20)},
		{"glide midpoint 2060", 35, decimal.NewFromInt(13)},
		{"terminal 2076", 51, decimal.NewFromInt(5)},
	}

	for _, tt := range tests {
		got := growth.ExpectedReturn(domain.AssetBTC, tt.yearOffset)
		if !got.Equal(tt.expected) {
			t.Errorf("%s: expected %s%%, got %s%%", tt.name, tt.expected, got)
		}
	}
}

func TestBTCModelSelection(t *testing.T) {
	custom := NewGrowthModel(domain.Assumptions{
		BTCGrowthModel: domain.BTCModelCustom,
		BTCGrowthRate:  decimal.NewFromInt(25),
	}, 2025)
	if got := custom.ExpectedReturn(domain.AssetBTC, 10); !got.Equal(decimal.NewFromInt(25)) {
		t.Errorf("custom model should use the configured rate, got %s", got)
	}

	conservative := NewGrowthModel(domain.Assumptions{
		BTCGrowthModel: domain.BTCModelConservative,
	}, 2025)
	if got := conservative.ExpectedReturn(domain.AssetBTC, 10); !got.Equal(decimal.NewFromInt(10)) {
		t.Errorf("conservative model should return 10%%, got %s", got)
	}
}

func TestNonBTCRatesAreFlat(t *testing.T) {
	growth := NewGrowthModel(domain.Assumptions{
		StocksGrowthRate: decimal.NewFromInt(7),
		BondsGrowthRate:  decimal.NewFromInt(4),
		CashGrowthRate:   decimal.NewFromInt(2),
	}, 2025)

	for _, offset := range []int{0, 10, 40} {
		if got := growth.ExpectedReturn(domain.AssetStocks, offset); !got.Equal(decimal.NewFromInt(7)) {
			t.Errorf("stocks rate at offset %d: got %s", offset, got)
		}
		if got := growth.ExpectedReturn(domain.AssetBonds, offset); !got.Equal(decimal.NewFromInt(4)) {
			t.Errorf("bonds rate at offset %d: got %s", offset, got)
		}
	}
}

func TestBTCVolatilityDecay(t *testing.T) {
	growth := NewGrowthModel(domain.Assumptions{
		BTCInitialVolatility: decimal.NewFromInt(80),
		BTCVolatilityFloor:   decimal.NewFromInt(40),
		BTCVolatilityDecay:   decimal.NewFromFloat(0.25),
	}, 2025)

	if got := growth.BTCVolatility(0); !got.Equal(decimal.NewFromInt(80)) {
		t.Errorf("year 0 volatility should equal initial, got %s", got)
	}

	prev := growth.BTCVolatility(0)
	for offset := 1; offset <= 30; offset++ {
		v := growth.BTCVolatility(offset)
		if v.GreaterThan(prev) {
			t.Fatalf("volatility must decay monotonically, rose at offset %d: %s > %s", offset, v, prev)
		}
		if v.LessThan(decimal.NewFromInt(40)) {
			t.Fatalf("volatility fell below the floor at offset %d: %s", offset, v)
		}
		prev = v
	}

	// After 30 years the decay term is negligible.
	if diff := growth.BTCVolatility(30).Sub(decimal.NewFromInt(40)); diff.GreaterThan(decimal.NewFromFloat(0.1)) {
		t.Errorf("volatility should approach the floor, still %s above it", diff)
	}
}

func TestVolatilityAtOrBelowFloor(t *testing.T) {
	growth := NewGrowthModel(domain.Assumptions{
		BTCInitialVolatility: decimal.NewFromInt(30),
		BTCVolatilityFloor:   decimal.NewFromInt(40),
		BTCVolatilityDecay:   decimal.NewFromFloat(0.25),
	}, 2025)
	if got := growth.BTCVolatility(5); !got.Equal(decimal.NewFromInt(40)) {
		t.Errorf("initial below floor should pin to floor, got %s", got)
	}
}
