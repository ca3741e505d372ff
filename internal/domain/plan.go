package domain

import (
	"github.com/shopspring/decimal"
)

// Bucket identifies the tax treatment of an account.
type Bucket string

const (
	BucketTaxable     Bucket = "taxable"
	BucketTaxDeferred Bucket = "tax_deferred"
	BucketTaxFree     Bucket = "tax_free"
)

// Buckets lists the three liquid tax buckets in withdrawal-waterfall order.
var Buckets = []Bucket{BucketTaxable, BucketTaxDeferred, BucketTaxFree}

// AssetClass identifies an asset-class slot within a bucket.
type AssetClass string

const (
	AssetBTC    AssetClass = "btc"
	AssetStocks AssetClass = "stocks"
	AssetBonds  AssetClass = "bonds"
	AssetCash   AssetClass = "cash"
	AssetOther  AssetClass = "other"
)

// AssetClasses lists the five slots carried by every bucket.
var AssetClasses = []AssetClass{AssetBTC, AssetStocks, AssetBonds, AssetCash, AssetOther}

// LiabilityID is the key for liabilities and collateralized loans
// throughout the engine, including the encumbered-BTC ledger.
type LiabilityID string

// BTC growth model selection.
const (
	BTCModelCustom       = "custom"
	BTCModelSaylor24     = "saylor24"
	BTCModelConservative = "conservative"
)

// Filing status values understood by the tax oracle.
const (
	FilingSingle          = "single"
	FilingMarriedJointly  = "married_jointly"
	FilingHeadOfHousehold = "head_of_household"
)

// Holding is one position from the user's holdings snapshot. Quantity and
// price are kept separately so cost basis can be tracked per position.
type Holding struct {
	Ticker         string          `yaml:"ticker" json:"ticker"`
	AssetType      AssetClass      `yaml:"asset_type" json:"asset_type"`
	Quantity       decimal.Decimal `yaml:"quantity" json:"quantity"`
	CurrentPrice   decimal.Decimal `yaml:"current_price" json:"current_price"`
	AccountType    Bucket          `yaml:"account_type" json:"account_type"`
	CostBasisTotal decimal.Decimal `yaml:"cost_basis_total" json:"cost_basis_total"`
}

// MarketValue returns quantity times current price.
func (h Holding) MarketValue() decimal.Decimal {
	return h.Quantity.Mul(h.CurrentPrice)
}

// LiabilityTypeBTCCollateralized marks a debt backed by pledged BTC.
const LiabilityTypeBTCCollateralized = "btc_collateralized"

// Liability is one debt from the user's snapshot. BTC-collateralized
// liabilities additionally carry the collateral and LTV thresholds.
type Liability struct {
	ID             LiabilityID     `yaml:"id" json:"id"`
	Name           string          `yaml:"name" json:"name"`
	CurrentBalance decimal.Decimal `yaml:"current_balance" json:"current_balance"`
	InterestRate   decimal.Decimal `yaml:"interest_rate" json:"interest_rate"` // annual percent
	MonthlyPayment decimal.Decimal `yaml:"monthly_payment" json:"monthly_payment"`
	Type           string          `yaml:"type,omitempty" json:"type,omitempty"`

	// BTC collateral parameters; meaningful only for btc_collateralized.
	CollateralBTCAmount  decimal.Decimal `yaml:"collateral_btc_amount,omitempty" json:"collateral_btc_amount,omitempty"`
	LiquidationLTV       decimal.Decimal `yaml:"liquidation_ltv,omitempty" json:"liquidation_ltv,omitempty"`
	CollateralReleaseLTV decimal.Decimal `yaml:"collateral_release_ltv,omitempty" json:"collateral_release_ltv,omitempty"`
}

// IsBTCCollateralized reports whether the liability is backed by pledged BTC.
func (l Liability) IsBTCCollateralized() bool {
	return l.Type == LiabilityTypeBTCCollateralized
}

// CollateralizedLoan has the same shape as a BTC-collateralized Liability but
// lives in a parallel ledger because it can carry a minimum monthly payment
// independent of regular liabilities.
type CollateralizedLoan struct {
	ID                    LiabilityID     `yaml:"id" json:"id"`
	Name                  string          `yaml:"name" json:"name"`
	CurrentBalance        decimal.Decimal `yaml:"current_balance" json:"current_balance"`
	InterestRate          decimal.Decimal `yaml:"interest_rate" json:"interest_rate"`
	MinimumMonthlyPayment decimal.Decimal `yaml:"minimum_monthly_payment" json:"minimum_monthly_payment"`
	CollateralBTCAmount   decimal.Decimal `yaml:"collateral_btc_amount" json:"collateral_btc_amount"`
	LiquidationLTV        decimal.Decimal `yaml:"liquidation_ltv" json:"liquidation_ltv"`
	CollateralReleaseLTV  decimal.Decimal `yaml:"collateral_release_ltv" json:"collateral_release_ltv"`
}

// AsLiability converts the loan to the common liability shape used by the
// amortization and collateral state machine.
func (cl CollateralizedLoan) AsLiability() Liability {
	return Liability{
		ID:                   cl.ID,
		Name:                 cl.Name,
		CurrentBalance:       cl.CurrentBalance,
		InterestRate:         cl.InterestRate,
		MonthlyPayment:       cl.MinimumMonthlyPayment,
		Type:                 LiabilityTypeBTCCollateralized,
		CollateralBTCAmount:  cl.CollateralBTCAmount,
		LiquidationLTV:       cl.LiquidationLTV,
		CollateralReleaseLTV: cl.CollateralReleaseLTV,
	}
}

// LifeEvent event types.
const (
	EventIncomeChange  = "income_change"
	EventExpenseChange = "expense_change"
	EventHomePurchase  = "home_purchase"
	EventWindfall      = "windfall"
	EventRelocation    = "relocation"
)

// LifeEvent "affects" values.
const (
	AffectsAssets   = "assets"
	AffectsExpenses = "expenses"
	AffectsMultiple = "multiple"
)

// LifeEvent is a read-only record describing a scheduled cash-flow or asset
// change. Recurring events stay active while year < Year + RecurringYears.
type LifeEvent struct {
	ID             string          `yaml:"id" json:"id"`
	Name           string          `yaml:"name" json:"name"`
	Year           int             `yaml:"year" json:"year"` // absolute calendar year
	EventType      string          `yaml:"event_type" json:"event_type"`
	Amount         decimal.Decimal `yaml:"amount" json:"amount"`
	IsRecurring    bool            `yaml:"is_recurring" json:"is_recurring"`
	RecurringYears int             `yaml:"recurring_years" json:"recurring_years"`
	Affects        string          `yaml:"affects" json:"affects"`

	// Optional percentage split across asset classes, applied directly to
	// bucket slots when present. Values are percents summing to 100.
	AssetAllocation map[AssetClass]decimal.Decimal `yaml:"asset_allocation,omitempty" json:"asset_allocation,omitempty"`
}

// ActiveInYear reports whether the event applies to the given calendar year.
func (e LifeEvent) ActiveInYear(year int) bool {
	if !e.IsRecurring {
		return e.Year == year
	}
	return year >= e.Year && year < e.Year+e.RecurringYears
}

// Goal payoff strategies for debt-payoff goals.
const (
	PayoffSpreadPayments = "spread_payments"
	PayoffLumpSum        = "lump_sum"
)

// Goal is a read-only savings or debt-payoff target. A will-be-spent goal
// produces a scheduled withdrawal in its target year; a debt-payoff goal
// reduces the linked liability directly.
type Goal struct {
	ID           string          `yaml:"id" json:"id"`
	Name         string          `yaml:"name" json:"name"`
	TargetAmount decimal.Decimal `yaml:"target_amount" json:"target_amount"`
	TargetYear   int             `yaml:"target_year" json:"target_year"` // absolute calendar year
	WillBeSpent  bool            `yaml:"will_be_spent" json:"will_be_spent"`

	LinkedLiabilityID LiabilityID `yaml:"linked_liability_id,omitempty" json:"linked_liability_id,omitempty"`
	PayoffStrategy    string      `yaml:"payoff_strategy,omitempty" json:"payoff_strategy,omitempty"`
	PayoffYears       int         `yaml:"payoff_years,omitempty" json:"payoff_years,omitempty"`
}

// IsDebtPayoff reports whether the goal targets a linked liability.
func (g Goal) IsDebtPayoff() bool { return g.LinkedLiabilityID != "" }

// Assumptions holds the user settings and rate assumptions driving a run.
// Rates are annual percents (5 means 5%).
type Assumptions struct {
	CurrentAge     int `yaml:"current_age" json:"current_age"`
	RetirementAge  int `yaml:"retirement_age" json:"retirement_age"`
	LifeExpectancy int `yaml:"life_expectancy" json:"life_expectancy"`

	FilingStatus string `yaml:"filing_status" json:"filing_status"`

	AnnualIncome     decimal.Decimal `yaml:"annual_income" json:"annual_income"`
	IncomeGrowthRate decimal.Decimal `yaml:"income_growth_rate" json:"income_growth_rate"`
	AnnualSpending   decimal.Decimal `yaml:"annual_spending" json:"annual_spending"`
	InflationRate    decimal.Decimal `yaml:"inflation_rate" json:"inflation_rate"`

	// Retirement contributions, annual amounts in today's dollars.
	PreTaxContribution   decimal.Decimal `yaml:"pre_tax_contribution" json:"pre_tax_contribution"`
	AfterTaxContribution decimal.Decimal `yaml:"after_tax_contribution" json:"after_tax_contribution"`

	// Other retirement income.
	AnnualPension          decimal.Decimal `yaml:"annual_pension" json:"annual_pension"`
	SocialSecurityAnnual   decimal.Decimal `yaml:"social_security_annual" json:"social_security_annual"`
	SocialSecurityStartAge int             `yaml:"social_security_start_age" json:"social_security_start_age"`

	// Expected returns, annual percents.
	BTCGrowthModel       string          `yaml:"btc_growth_model" json:"btc_growth_model"`
	BTCGrowthRate        decimal.Decimal `yaml:"btc_growth_rate" json:"btc_growth_rate"` // used by the custom model
	StocksGrowthRate     decimal.Decimal `yaml:"stocks_growth_rate" json:"stocks_growth_rate"`
	BondsGrowthRate      decimal.Decimal `yaml:"bonds_growth_rate" json:"bonds_growth_rate"`
	CashGrowthRate       decimal.Decimal `yaml:"cash_growth_rate" json:"cash_growth_rate"`
	OtherGrowthRate      decimal.Decimal `yaml:"other_growth_rate" json:"other_growth_rate"`
	RealEstateGrowthRate decimal.Decimal `yaml:"real_estate_growth_rate" json:"real_estate_growth_rate"`

	// Stochastic parameters, annual percents.
	BTCInitialVolatility decimal.Decimal `yaml:"btc_initial_volatility" json:"btc_initial_volatility"`
	BTCVolatilityFloor   decimal.Decimal `yaml:"btc_volatility_floor" json:"btc_volatility_floor"`
	BTCVolatilityDecay   decimal.Decimal `yaml:"btc_volatility_decay" json:"btc_volatility_decay"`
	StocksVolatility     decimal.Decimal `yaml:"stocks_volatility" json:"stocks_volatility"`

	// Collateral management toggles.
	AutoTopUpEnabled bool            `yaml:"auto_top_up_enabled" json:"auto_top_up_enabled"`
	TopUpTriggerLTV  decimal.Decimal `yaml:"top_up_trigger_ltv" json:"top_up_trigger_ltv"`
	TargetLTV        decimal.Decimal `yaml:"target_ltv" json:"target_ltv"`

	RealEstateValue decimal.Decimal `yaml:"real_estate_value" json:"real_estate_value"`
}

// PlanInput is the read-only snapshot a single run consumes. The engine
// never mutates or persists it.
type PlanInput struct {
	Assumptions Assumptions          `yaml:"assumptions" json:"assumptions"`
	Holdings    []Holding            `yaml:"holdings" json:"holdings"`
	Liabilities []Liability          `yaml:"liabilities" json:"liabilities"`
	Loans       []CollateralizedLoan `yaml:"collateralized_loans" json:"collateralized_loans"`
	LifeEvents  []LifeEvent          `yaml:"life_events" json:"life_events"`
	Goals       []Goal               `yaml:"goals" json:"goals"`

	// Spot price of BTC at run time; zero means "use the feed or fallback".
	BTCSpotPrice decimal.Decimal `yaml:"btc_spot_price" json:"btc_spot_price"`
}

// HorizonYears returns the number of simulated years, one per calendar year
// from now through life expectancy inclusive.
func (p *PlanInput) HorizonYears() int {
	return p.Assumptions.LifeExpectancy - p.Assumptions.CurrentAge + 1
}
