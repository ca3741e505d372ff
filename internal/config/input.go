package config

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/planfire/retirement-planner/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// InputParser handles parsing of plan input files
type InputParser struct{}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadFromFile loads a plan input from a YAML file
func (ip *InputParser) LoadFromFile(filename string) (*domain.PlanInput, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	var input domain.PlanInput
	if err := yaml.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	ip.applyDefaults(&input)

	if err := ip.ValidateInput(&input); err != nil {
		return nil, fmt.Errorf("input validation failed: %w", err)
	}

	return &input, nil
}

// applyDefaults fills in values the file may omit, including generated
// ids for liabilities that goals need to reference.
func (ip *InputParser) applyDefaults(input *domain.PlanInput) {
	for i := range input.Liabilities {
		if input.Liabilities[i].ID == "" {
			input.Liabilities[i].ID = domain.LiabilityID(uuid.NewString())
		}
	}
	for i := range input.Loans {
		if input.Loans[i].ID == "" {
			input.Loans[i].ID = domain.LiabilityID(uuid.NewString())
		}
	}
	if input.Assumptions.FilingStatus == "" {
		input.Assumptions.FilingStatus = domain.FilingSingle
	}
	if input.Assumptions.BTCGrowthModel == "" {
		input.Assumptions.BTCGrowthModel = domain.BTCModelCustom
	}
}

// ValidateInput validates the loaded plan input
func (ip *InputParser) ValidateInput(input *domain.PlanInput) error {
	if err := ip.validateAssumptions(&input.Assumptions); err != nil {
		return fmt.Errorf("assumptions validation failed: %w", err)
	}

	for i, holding := range input.Holdings {
		if err := ip.validateHolding(i, &holding); err != nil {
			return fmt.Errorf("holding %d validation failed: %w", i, err)
		}
	}

	ids := make(map[domain.LiabilityID]bool)
	for i, liability := range input.Liabilities {
		if err := ip.validateLiability(i, &liability, ids); err != nil {
			return fmt.Errorf("liability %d validation failed: %w", i, err)
		}
	}
	for i, loan := range input.Loans {
		liability := loan.AsLiability()
		if err := ip.validateLiability(i, &liability, ids); err != nil {
			return fmt.Errorf("loan %d validation failed: %w", i, err)
		}
	}

	for i, event := range input.LifeEvents {
		if err := ip.validateLifeEvent(i, &event); err != nil {
			return fmt.Errorf("life event %d validation failed: %w", i, err)
		}
	}

	for i, goal := range input.Goals {
		if err := ip.validateGoal(i, &goal, ids); err != nil {
			return fmt.Errorf("goal %d validation failed: %w", i, err)
		}
	}

	return nil
}

func (ip *InputParser) validateAssumptions(a *domain.Assumptions) error {
	if a.CurrentAge <= 0 {
		return fmt.Errorf("current age must be positive, got %d", a.CurrentAge)
	}
	if a.LifeExpectancy <= a.CurrentAge {
		return fmt.Errorf("life expectancy %d must exceed current age %d", a.LifeExpectancy, a.CurrentAge)
	}
	if a.RetirementAge <= 0 {
		return fmt.Errorf("retirement age must be positive, got %d", a.RetirementAge)
	}
	if a.RetirementAge > a.LifeExpectancy {
		return fmt.Errorf("retirement age %d exceeds life expectancy %d", a.RetirementAge, a.LifeExpectancy)
	}
	switch a.FilingStatus {
	case domain.FilingSingle, domain.FilingMarriedJointly, domain.FilingHeadOfHousehold:
	default:
		return fmt.Errorf("unknown filing status %q", a.FilingStatus)
	}
	switch a.BTCGrowthModel {
	case domain.BTCModelCustom, domain.BTCModelSaylor24, domain.BTCModelConservative:
	default:
		return fmt.Errorf("unknown btc growth model %q", a.BTCGrowthModel)
	}
	if a.AnnualSpending.IsNegative() {
		return fmt.Errorf("annual spending cannot be negative")
	}
	if a.AutoTopUpEnabled {
		if a.TopUpTriggerLTV.LessThanOrEqual(decimal.Zero) || a.TargetLTV.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("auto top-up requires positive trigger and target LTV")
		}
		if a.TargetLTV.GreaterThanOrEqual(a.TopUpTriggerLTV) {
			return fmt.Errorf("target LTV %s must be below trigger LTV %s", a.TargetLTV, a.TopUpTriggerLTV)
		}
	}
	return nil
}

func (ip *InputParser) validateHolding(index int, h *domain.Holding) error {
	if h.Ticker == "" {
		return fmt.Errorf("ticker is required")
	}
	valid := false
	for _, asset := range domain.AssetClasses {
		if h.AssetType == asset {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("unknown asset type %q", h.AssetType)
	}
	valid = false
	for _, bucket := range domain.Buckets {
		if h.AccountType == bucket {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("unknown account type %q", h.AccountType)
	}
	if h.Quantity.IsNegative() {
		return fmt.Errorf("quantity cannot be negative")
	}
	if h.CurrentPrice.IsNegative() {
		return fmt.Errorf("current price cannot be negative")
	}
	return nil
}

func (ip *InputParser) validateLiability(index int, l *domain.Liability, ids map[domain.LiabilityID]bool) error {
	if l.Name == "" {
		return fmt.Errorf("name is required")
	}
	if ids[l.ID] {
		return fmt.Errorf("duplicate liability id %q", l.ID)
	}
	ids[l.ID] = true
	if l.CurrentBalance.IsNegative() {
		return fmt.Errorf("balance cannot be negative")
	}
	if l.InterestRate.IsNegative() {
		return fmt.Errorf("interest rate cannot be negative")
	}
	if l.MonthlyPayment.IsNegative() {
		return fmt.Errorf("monthly payment cannot be negative")
	}
	if l.IsBTCCollateralized() {
		if l.LiquidationLTV.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("collateralized liability needs a positive liquidation LTV")
		}
		if l.CollateralReleaseLTV.IsNegative() {
			return fmt.Errorf("collateral release LTV cannot be negative")
		}
		if l.CollateralReleaseLTV.GreaterThanOrEqual(l.LiquidationLTV) {
			return fmt.Errorf("release LTV %s must be below liquidation LTV %s", l.CollateralReleaseLTV, l.LiquidationLTV)
		}
	}
	return nil
}

func (ip *InputParser) validateLifeEvent(index int, e *domain.LifeEvent) error {
	if e.Year <= 0 {
		return fmt.Errorf("year is required")
	}
	if e.IsRecurring && e.RecurringYears <= 0 {
		return fmt.Errorf("recurring event needs positive recurring years")
	}
	if len(e.AssetAllocation) > 0 {
		sum := decimal.Zero
		for _, share := range e.AssetAllocation {
			if share.IsNegative() {
				return fmt.Errorf("allocation shares cannot be negative")
			}
			sum = sum.Add(share)
		}
		if !sum.Equal(decimal.NewFromInt(100)) {
			return fmt.Errorf("asset allocation must sum to 100, got %s", sum)
		}
	}
	return nil
}

func (ip *InputParser) validateGoal(index int, g *domain.Goal, ids map[domain.LiabilityID]bool) error {
	if g.TargetYear <= 0 {
		return fmt.Errorf("target year is required")
	}
	if g.TargetAmount.IsNegative() {
		return fmt.Errorf("target amount cannot be negative")
	}
	if g.IsDebtPayoff() {
		if !ids[g.LinkedLiabilityID] {
			return fmt.Errorf("linked liability %q does not exist", g.LinkedLiabilityID)
		}
		switch g.PayoffStrategy {
		case domain.PayoffSpreadPayments:
			if g.PayoffYears <= 0 {
				return fmt.Errorf("spread payoff needs positive payoff years")
			}
		case domain.PayoffLumpSum, "":
		default:
			return fmt.Errorf("unknown payoff strategy %q", g.PayoffStrategy)
		}
	}
	return nil
}
