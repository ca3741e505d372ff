package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/planfire/retirement-planner/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPlanYAML = `
assumptions:
  current_age: 40
  retirement_age: 65
  life_expectancy: 90
  filing_status: single
  annual_income: 150000
  annual_spending: 70000
  inflation_rate: 3
  btc_growth_model: saylor24
  stocks_growth_rate: 7
  auto_top_up_enabled: true
  top_up_trigger_ltv: 0.7
  target_ltv: 0.5
holdings:
  - ticker: BTC
    asset_type: btc
    quantity: 2
    current_price: 100000
    account_type: taxable
    cost_basis_total: 60000
  - ticker: VTI
    asset_type: stocks
    quantity: 1000
    current_price: 250
    account_type: tax_deferred
liabilities:
  - id: mortgage
    name: Mortgage
    current_balance: 300000
    interest_rate: 4
    monthly_payment: 1800
collateralized_loans:
  - id: btc-loan
    name: BTC Loan
    current_balance: 50000
    interest_rate: 9
    collateral_btc_amount: 1.5
    liquidation_ltv: 0.85
    collateral_release_ltv: 0.25
life_events:
  - name: Inheritance
    year: 2030
    event_type: windfall
    amount: 100000
    affects: assets
goals:
  - name: Pay off mortgage
    target_amount: 100000
    target_year: 2032
    linked_liability_id: mortgage
    payoff_strategy: spread_payments
    payoff_years: 4
btc_spot_price: 100000
`

func writePlanFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFromFileValid(t *testing.T) {
	parser := NewInputParser()
	input, err := parser.LoadFromFile(writePlanFile(t, validPlanYAML))
	require.NoError(t, err)

	assert.Equal(t, 40, input.Assumptions.CurrentAge)
	assert.Equal(t, domain.BTCModelSaylor24, input.Assumptions.BTCGrowthModel)
	assert.Len(t, input.Holdings, 2)
	assert.Len(t, input.Liabilities, 1)
	assert.Len(t, input.Loans, 1)
	assert.True(t, input.BTCSpotPrice.Equal(decimal.NewFromInt(100000)))
	assert.True(t, input.Loans[0].CollateralBTCAmount.Equal(decimal.NewFromFloat(1.5)))
}

func TestLoadFromFileMissing(t *testing.T) {
	parser := NewInputParser()
	_, err := parser.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadFromFileBadYAML(t *testing.T) {
	parser := NewInputParser()
	_, err := parser.LoadFromFile(writePlanFile(t, "assumptions: [not a map"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse YAML")
}

func TestDefaultsApplied(t *testing.T) {
	parser := NewInputParser()
	input, err := parser.LoadFromFile(writePlanFile(t, `
assumptions:
  current_age: 40
  retirement_age: 65
  life_expectancy: 90
liabilities:
  - name: Card
    current_balance: 5000
`))
	require.NoError(t, err)

	// Omitted enum fields pick up defaults; liability ids are generated.
	assert.Equal(t, domain.FilingSingle, input.Assumptions.FilingStatus)
	assert.Equal(t, domain.BTCModelCustom, input.Assumptions.BTCGrowthModel)
	assert.NotEmpty(t, input.Liabilities[0].ID)
}

func TestValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			"retirement after life expectancy",
			`
assumptions:
  current_age: 40
  retirement_age: 95
  life_expectancy: 90
`,
		},
		{
			"bad filing status",
			`
assumptions:
  current_age: 40
  retirement_age: 65
  life_expectancy: 90
  filing_status: quadruple
`,
		},
		{
			"bad btc model",
			`
assumptions:
  current_age: 40
  retirement_age: 65
  life_expectancy: 90
  btc_growth_model: moonshot
`,
		},
		{
			"goal linked to unknown liability",
			`
assumptions:
  current_age: 40
  retirement_age: 65
  life_expectancy: 90
goals:
  - name: Payoff
    target_amount: 1000
    target_year: 2030
    linked_liability_id: ghost
    payoff_strategy: lump_sum
`,
		},
		{
			"release above liquidation",
			`
assumptions:
  current_age: 40
  retirement_age: 65
  life_expectancy: 90
liabilities:
  - id: loan
    name: Loan
    current_balance: 10000
    type: btc_collateralized
    collateral_btc_amount: 1
    liquidation_ltv: 0.5
    collateral_release_ltv: 0.8
`,
		},
		{
			"target ltv above trigger",
			`
assumptions:
  current_age: 40
  retirement_age: 65
  life_expectancy: 90
  auto_top_up_enabled: true
  top_up_trigger_ltv: 0.5
  target_ltv: 0.7
`,
		},
		{
			"allocation does not sum to 100",
			`
assumptions:
  current_age: 40
  retirement_age: 65
  life_expectancy: 90
life_events:
  - name: Gift
    year: 2030
    event_type: windfall
    amount: 1000
    affects: assets
    asset_allocation:
      btc: 60
      stocks: 60
`,
		},
	}

	parser := NewInputParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.LoadFromFile(writePlanFile(t, tt.yaml))
			require.Error(t, err)
		})
	}
}

func TestDuplicateLiabilityIDs(t *testing.T) {
	parser := NewInputParser()
	_, err := parser.LoadFromFile(writePlanFile(t, `
assumptions:
  current_age: 40
  retirement_age: 65
  life_expectancy: 90
liabilities:
  - id: x
    name: A
    current_balance: 1000
  - id: x
    name: B
    current_balance: 2000
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}
