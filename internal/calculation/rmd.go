package calculation

import (
	"github.com/shopspring/decimal"
)

// RMDStartAge is the age at which required minimum distributions begin
// (SECURE 2.0 threshold for current retirees).
const RMDStartAge = 73

// uniformLifetimeTable is the IRS Uniform Lifetime Table distribution
// period by age (simplified).
var uniformLifetimeTable = map[int]decimal.Decimal{
	73:  decimal.NewFromFloat(26.5),
	74:  decimal.NewFromFloat(25.5),
	75:  decimal.NewFromFloat(24.6),
	76:  decimal.NewFromFloat(23.7),
	77:  decimal.NewFromFloat(22.9),
	78:  decimal.NewFromFloat(22.0),
	79:  decimal.NewFromFloat(21.1),
	80:  decimal.NewFromFloat(20.2),
	81:  decimal.NewFromFloat(19.4),
	82:  decimal.NewFromFloat(18.5),
	83:  decimal.NewFromFloat(17.7),
	84:  decimal.NewFromFloat(16.8),
	85:  decimal.NewFromFloat(16.0),
	86:  decimal.NewFromFloat(15.2),
	87:  decimal.NewFromFloat(14.4),
	88:  decimal.NewFromFloat(13.7),
	89:  decimal.NewFromFloat(12.9),
	90:  decimal.NewFromFloat(12.2),
	91:  decimal.NewFromFloat(11.5),
	92:  decimal.NewFromFloat(10.8),
	93:  decimal.NewFromFloat(10.1),
	94:  decimal.NewFromFloat(9.5),
	95:  decimal.NewFromFloat(8.9),
	96:  decimal.NewFromFloat(8.4),
	97:  decimal.NewFromFloat(7.8),
	98:  decimal.NewFromFloat(7.3),
	99:  decimal.NewFromFloat(6.8),
	100: decimal.NewFromFloat(6.4),
}

// rmdFloorDivisor applies for ages beyond the table.
var rmdFloorDivisor = decimal.NewFromFloat(6.0)

// CalculateRMD returns the required minimum distribution for the given age
// and tax-deferred balance; zero before the RMD start age.
func CalculateRMD(taxDeferredBalance decimal.Decimal, age int) decimal.Decimal {
	if age < RMDStartAge || taxDeferredBalance.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	if period, ok := uniformLifetimeTable[age]; ok {
		return taxDeferredBalance.Div(period)
	}
	return taxDeferredBalance.Div(rmdFloorDivisor)
}
