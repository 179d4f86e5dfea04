// Package mortgage defines the mortgage conditions and shared market
// assumptions that are compared by a simulation run.
package mortgage

import (
	"fmt"

	"github.com/iwvelando/mortgage-simulator/pkg/constants"
	"github.com/shopspring/decimal"
)

// GeneralInput holds the assumptions shared by every condition in a run.
type GeneralInput struct {
	Principal            float64 `json:"principal" yaml:"principal" mapstructure:"principal"`
	CurrentReferenceRate float64 `json:"currentEuribor" yaml:"currentEuribor" mapstructure:"currentEuribor"`
	YearlyVariance       float64 `json:"yearlyVariance" yaml:"yearlyVariance" mapstructure:"yearlyVariance"`
	YearlyExpenses       float64 `json:"yearlyExpenses" yaml:"yearlyExpenses" mapstructure:"yearlyExpenses"`
}

// Condition is one mortgage offer. Rates are fractions (0.02 is 2%),
// periods are whole years and bonifications are currency per year.
type Condition struct {
	Name                         string  `json:"name" yaml:"name" mapstructure:"name"`
	Rate                         float64 `json:"rate" yaml:"rate" mapstructure:"rate"`
	FixedPeriod                  int     `json:"fixedPeriod" yaml:"fixedPeriod" mapstructure:"fixedPeriod"`
	EuriborDelta                 float64 `json:"euriborDelta" yaml:"euriborDelta" mapstructure:"euriborDelta"`
	TotalYears                   int     `json:"totalYears" yaml:"totalYears" mapstructure:"totalYears"`
	FixedPeriodBonification      float64 `json:"fixedPeriodBonification" yaml:"fixedPeriodBonification" mapstructure:"fixedPeriodBonification"`
	AfterFixedPeriodBonification float64 `json:"afterFixedPeriodBonification" yaml:"afterFixedPeriodBonification" mapstructure:"afterFixedPeriodBonification"`
}

// DefaultGeneralInput returns the initial market assumptions.
func DefaultGeneralInput() GeneralInput {
	return GeneralInput{
		Principal:            constants.DefaultPrincipal,
		CurrentReferenceRate: constants.DefaultCurrentEuribor,
		YearlyVariance:       constants.DefaultYearlyVariance,
		YearlyExpenses:       constants.DefaultYearlyExpenses,
	}
}

// DefaultCondition returns the seed used for newly added conditions. The
// name is left empty; the store assigns "Condition n".
func DefaultCondition() Condition {
	return Condition{
		Rate:                         constants.DefaultConditionRate,
		FixedPeriod:                  constants.DefaultConditionFixedPeriod,
		EuriborDelta:                 constants.DefaultConditionEuriborDelta,
		TotalYears:                   constants.DefaultConditionTotalYears,
		FixedPeriodBonification:      constants.DefaultConditionFixedPeriodBonification,
		AfterFixedPeriodBonification: constants.DefaultConditionAfterFixedPeriodBonification,
	}
}

// ConditionName is the display name given to the n-th condition (1-based).
func ConditionName(n int) string {
	return fmt.Sprintf("Condition %d", n)
}

// ToPercentagePoints converts a stored fraction to the points shown in a
// percentage field without binary artifacts (0.025 -> 2.5).
func ToPercentagePoints(fraction float64) float64 {
	return decimal.NewFromFloat(fraction).Mul(decimal.NewFromFloat(constants.PercentageMultiplier)).InexactFloat64()
}

// FromPercentagePoints is the inverse of ToPercentagePoints.
func FromPercentagePoints(points float64) float64 {
	return decimal.NewFromFloat(points).Div(decimal.NewFromFloat(constants.PercentageMultiplier)).InexactFloat64()
}
