package mortgage

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnknownField is returned for a field name outside the known set.
var ErrUnknownField = errors.New("unknown field")

// Kind selects how a field is displayed and parsed.
type Kind int

const (
	KindText Kind = iota
	KindCurrency
	KindPercentage
	KindYears
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindCurrency:
		return "currency"
	case KindPercentage:
		return "percentage"
	case KindYears:
		return "years"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// GeneralField names a GeneralInput field by its wire name.
type GeneralField string

const (
	FieldPrincipal      GeneralField = "principal"
	FieldCurrentEuribor GeneralField = "currentEuribor"
	FieldYearlyVariance GeneralField = "yearlyVariance"
	FieldYearlyExpenses GeneralField = "yearlyExpenses"
)

// GeneralFields lists the general fields in display order.
var GeneralFields = []GeneralField{
	FieldPrincipal,
	FieldCurrentEuribor,
	FieldYearlyVariance,
	FieldYearlyExpenses,
}

// ParseGeneralField validates a general field name.
func ParseGeneralField(name string) (GeneralField, error) {
	for _, f := range GeneralFields {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: general input has no field %q", ErrUnknownField, name)
}

// Kind reports how the field is edited.
func (f GeneralField) Kind() Kind {
	switch f {
	case FieldCurrentEuribor, FieldYearlyVariance:
		return KindPercentage
	default:
		return KindCurrency
	}
}

// Get returns the stored value of field.
func (g GeneralInput) Get(field GeneralField) float64 {
	switch field {
	case FieldPrincipal:
		return g.Principal
	case FieldCurrentEuribor:
		return g.CurrentReferenceRate
	case FieldYearlyVariance:
		return g.YearlyVariance
	case FieldYearlyExpenses:
		return g.YearlyExpenses
	}
	return 0
}

// Set stores value into field.
func (g *GeneralInput) Set(field GeneralField, value float64) {
	switch field {
	case FieldPrincipal:
		g.Principal = value
	case FieldCurrentEuribor:
		g.CurrentReferenceRate = value
	case FieldYearlyVariance:
		g.YearlyVariance = value
	case FieldYearlyExpenses:
		g.YearlyExpenses = value
	}
}

// ConditionField names a Condition field by its wire name.
type ConditionField string

const (
	FieldName                         ConditionField = "name"
	FieldRate                         ConditionField = "rate"
	FieldFixedPeriod                  ConditionField = "fixedPeriod"
	FieldEuriborDelta                 ConditionField = "euriborDelta"
	FieldTotalYears                   ConditionField = "totalYears"
	FieldFixedPeriodBonification      ConditionField = "fixedPeriodBonification"
	FieldAfterFixedPeriodBonification ConditionField = "afterFixedPeriodBonification"
)

// ConditionFields lists the condition fields in display order.
var ConditionFields = []ConditionField{
	FieldName,
	FieldRate,
	FieldFixedPeriod,
	FieldEuriborDelta,
	FieldTotalYears,
	FieldFixedPeriodBonification,
	FieldAfterFixedPeriodBonification,
}

// ParseConditionField validates a condition field name.
func ParseConditionField(name string) (ConditionField, error) {
	for _, f := range ConditionFields {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: condition has no field %q", ErrUnknownField, name)
}

// Kind reports how the field is edited.
func (f ConditionField) Kind() Kind {
	switch f {
	case FieldName:
		return KindText
	case FieldRate, FieldEuriborDelta:
		return KindPercentage
	case FieldFixedPeriod, FieldTotalYears:
		return KindYears
	default:
		return KindCurrency
	}
}

// Get returns the numeric value of field; the name reads as zero.
func (c Condition) Get(field ConditionField) float64 {
	switch field {
	case FieldRate:
		return c.Rate
	case FieldFixedPeriod:
		return float64(c.FixedPeriod)
	case FieldEuriborDelta:
		return c.EuriborDelta
	case FieldTotalYears:
		return float64(c.TotalYears)
	case FieldFixedPeriodBonification:
		return c.FixedPeriodBonification
	case FieldAfterFixedPeriodBonification:
		return c.AfterFixedPeriodBonification
	}
	return 0
}

// Set stores a numeric value into field. Year fields are rounded to whole
// years; the name is not numeric and is ignored here.
func (c *Condition) Set(field ConditionField, value float64) {
	switch field {
	case FieldRate:
		c.Rate = value
	case FieldFixedPeriod:
		c.FixedPeriod = int(math.Round(value))
	case FieldEuriborDelta:
		c.EuriborDelta = value
	case FieldTotalYears:
		c.TotalYears = int(math.Round(value))
	case FieldFixedPeriodBonification:
		c.FixedPeriodBonification = value
	case FieldAfterFixedPeriodBonification:
		c.AfterFixedPeriodBonification = value
	}
}
