package conditions

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/iwvelando/mortgage-simulator/internal/mortgage"
	"github.com/iwvelando/mortgage-simulator/pkg/constants"
	"github.com/iwvelando/mortgage-simulator/pkg/format"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

func newTestStore() *Store {
	codecs := Codecs{
		Currency:   format.NewCurrencyCodec(language.English, currency.EUR, constants.SymbolPositionPrefix),
		Percentage: format.NewPercentageCodec(language.English, constants.DefaultPercentageMax),
		Years:      format.YearsCodec{},
	}
	return NewStore(codecs, mortgage.DefaultGeneralInput(), mortgage.DefaultCondition())
}

func TestAddConditionNamesAndDefaults(t *testing.T) {
	s := newTestStore()
	for i := 0; i < 5; i++ {
		assert.Equal(t, i, s.AddCondition())
	}

	conds := s.Conditions()
	require.Len(t, conds, 5)
	for i, c := range conds {
		assert.Equal(t, fmt.Sprintf("Condition %d", i+1), c.Name)
	}

	first := conds[0]
	assert.Equal(t, 0.02, first.Rate)
	assert.Equal(t, 5, first.FixedPeriod)
	assert.Equal(t, 0.01, first.EuriborDelta)
	assert.Equal(t, 10, first.TotalYears)
	assert.Equal(t, 1000.0, first.FixedPeriodBonification)
	assert.Equal(t, 500.0, first.AfterFixedPeriodBonification)
}

func TestAddConditionNameFollowsCurrentCount(t *testing.T) {
	s := newTestStore()
	s.AddCondition()
	s.AddCondition()
	require.NoError(t, s.RemoveCondition(0))
	s.AddCondition()

	names := []string{s.Conditions()[0].Name, s.Conditions()[1].Name}
	assert.Equal(t, []string{"Condition 2", "Condition 2"}, names)
}

func TestRemoveConditionKeepsRelativeOrder(t *testing.T) {
	s := newTestStore()
	for i := 0; i < 4; i++ {
		s.AddCondition()
	}

	require.NoError(t, s.RemoveCondition(1))

	conds := s.Conditions()
	require.Len(t, conds, 3)
	assert.Equal(t, "Condition 1", conds[0].Name)
	assert.Equal(t, "Condition 3", conds[1].Name)
	assert.Equal(t, "Condition 4", conds[2].Name)
}

func TestRemoveConditionOutOfRangeIsNoOp(t *testing.T) {
	s := newTestStore()
	s.AddCondition()
	s.AddCondition()
	before := s.Snapshot()

	for _, index := range []int{2, 3, 100, -1} {
		err := s.RemoveCondition(index)
		assert.ErrorIs(t, err, ErrIndexOutOfRange, "index %d", index)
		assert.Equal(t, before, s.Snapshot(), "index %d", index)
	}

	empty := newTestStore()
	assert.ErrorIs(t, empty.RemoveCondition(0), ErrIndexOutOfRange)
	assert.Zero(t, empty.Len())
}

func TestUpdateConditionFieldInvalidKeepsValueAndWarns(t *testing.T) {
	s := newTestStore()
	s.AddCondition()
	s.AddCondition()

	for _, field := range []mortgage.ConditionField{
		mortgage.FieldRate,
		mortgage.FieldFixedPeriod,
		mortgage.FieldEuriborDelta,
		mortgage.FieldTotalYears,
		mortgage.FieldFixedPeriodBonification,
		mortgage.FieldAfterFixedPeriodBonification,
	} {
		before := s.Conditions()[1].Get(field)

		err := s.UpdateConditionField(1, field, "abc")
		require.Error(t, err, field)
		assert.True(t, errors.Is(err, ErrInvalidInput), field)
		assert.True(t, errors.Is(err, format.ErrParse), field)

		var fieldErr *FieldError
		require.True(t, errors.As(err, &fieldErr))
		assert.Equal(t, ConditionKey(1, field), fieldErr.Key)

		assert.Equal(t, before, s.Conditions()[1].Get(field), field)
		msg, ok := s.Warning("condition-1-" + string(field))
		assert.True(t, ok, field)
		assert.Equal(t, InvalidNumberWarning, msg)
	}
}

func TestValidUpdateClearsOnlyItsWarning(t *testing.T) {
	s := newTestStore()
	s.AddCondition()

	require.Error(t, s.UpdateConditionField(0, mortgage.FieldRate, "abc"))
	require.Error(t, s.UpdateConditionField(0, mortgage.FieldTotalYears, "x"))
	require.Error(t, s.UpdateGeneralField(mortgage.FieldPrincipal, "lots"))
	require.Len(t, s.Warnings(), 3)

	require.NoError(t, s.UpdateConditionField(0, mortgage.FieldRate, "3.5"))

	warnings := s.Warnings()
	assert.NotContains(t, warnings, "condition-0-rate")
	assert.Contains(t, warnings, "condition-0-totalYears")
	assert.Contains(t, warnings, "condition-general-principal")
	assert.InDelta(t, 0.035, s.Conditions()[0].Rate, 1e-12)
}

func TestUpdateConditionNumericFields(t *testing.T) {
	s := newTestStore()
	s.AddCondition()

	require.NoError(t, s.UpdateConditionField(0, mortgage.FieldRate, "1.90%"))
	require.NoError(t, s.UpdateConditionField(0, mortgage.FieldFixedPeriod, "10"))
	require.NoError(t, s.UpdateConditionField(0, mortgage.FieldEuriborDelta, "0.8"))
	require.NoError(t, s.UpdateConditionField(0, mortgage.FieldTotalYears, "30"))
	require.NoError(t, s.UpdateConditionField(0, mortgage.FieldFixedPeriodBonification, "130000"))
	require.NoError(t, s.UpdateConditionField(0, mortgage.FieldAfterFixedPeriodBonification, "€1,300.00"))

	c := s.Conditions()[0]
	assert.Equal(t, 0.019, c.Rate)
	assert.Equal(t, 10, c.FixedPeriod)
	assert.Equal(t, 0.008, c.EuriborDelta)
	assert.Equal(t, 30, c.TotalYears)
	assert.Equal(t, 1300.0, c.FixedPeriodBonification)
	assert.Equal(t, 1300.0, c.AfterFixedPeriodBonification)

	display, err := s.DisplayCondition(0, mortgage.FieldRate)
	require.NoError(t, err)
	assert.Equal(t, "1.90%", display)
}

func TestUpdateConditionRateClampsToWholeFraction(t *testing.T) {
	s := newTestStore()
	s.AddCondition()

	require.NoError(t, s.UpdateConditionField(0, mortgage.FieldRate, "150"))
	assert.Equal(t, 1.0, s.Conditions()[0].Rate)
}

func TestUpdateConditionNameIsFreeText(t *testing.T) {
	s := newTestStore()
	s.AddCondition()

	require.NoError(t, s.UpdateConditionField(0, mortgage.FieldName, "mixed_30 (bonified)"))
	assert.Equal(t, "mixed_30 (bonified)", s.Conditions()[0].Name)

	require.NoError(t, s.UpdateConditionField(0, mortgage.FieldName, ""))
	assert.Equal(t, "", s.Conditions()[0].Name)
	assert.Empty(t, s.Warnings())
}

func TestUpdateConditionFieldOutOfRange(t *testing.T) {
	s := newTestStore()
	s.AddCondition()

	assert.ErrorIs(t, s.UpdateConditionField(1, mortgage.FieldRate, "2"), ErrIndexOutOfRange)
	assert.ErrorIs(t, s.UpdateConditionField(-1, mortgage.FieldName, "x"), ErrIndexOutOfRange)
	assert.Empty(t, s.Warnings())
}

func TestUpdateUnknownField(t *testing.T) {
	s := newTestStore()
	s.AddCondition()

	assert.ErrorIs(t, s.UpdateConditionField(0, "colour", "red"), mortgage.ErrUnknownField)
	assert.ErrorIs(t, s.UpdateGeneralField("colour", "red"), mortgage.ErrUnknownField)
	assert.Empty(t, s.Warnings())
}

func TestUpdateGeneralField(t *testing.T) {
	s := newTestStore()

	require.NoError(t, s.UpdateGeneralField(mortgage.FieldPrincipal, "54000000"))
	require.NoError(t, s.UpdateGeneralField(mortgage.FieldCurrentEuribor, "0.7"))
	require.NoError(t, s.UpdateGeneralField(mortgage.FieldYearlyVariance, "0.30%"))
	require.NoError(t, s.UpdateGeneralField(mortgage.FieldYearlyExpenses, "577000"))

	g := s.General()
	assert.Equal(t, 540000.0, g.Principal)
	assert.Equal(t, 0.007, g.CurrentReferenceRate)
	assert.Equal(t, 0.003, g.YearlyVariance)
	assert.Equal(t, 5770.0, g.YearlyExpenses)

	err := s.UpdateGeneralField(mortgage.FieldCurrentEuribor, "n/a")
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, 0.007, s.General().CurrentReferenceRate)
	assert.Equal(t, InvalidNumberWarning, s.Warnings()["condition-general-currentEuribor"])

	require.NoError(t, s.UpdateGeneralField(mortgage.FieldCurrentEuribor, "1"))
	assert.NotContains(t, s.Warnings(), "condition-general-currentEuribor")
}

func TestCurrencyFieldCentsFirstTyping(t *testing.T) {
	s := newTestStore()

	require.NoError(t, s.UpdateGeneralField(mortgage.FieldPrincipal, "5"))
	assert.Equal(t, 0.05, s.General().Principal)

	// The user keeps typing into the displayed string.
	require.NoError(t, s.UpdateGeneralField(mortgage.FieldPrincipal, s.DisplayGeneral(mortgage.FieldPrincipal)+"0"))
	assert.Equal(t, 0.5, s.General().Principal)

	require.NoError(t, s.UpdateGeneralField(mortgage.FieldPrincipal, s.DisplayGeneral(mortgage.FieldPrincipal)+"0"))
	assert.Equal(t, 5.0, s.General().Principal)
	assert.Equal(t, "€5.00", s.DisplayGeneral(mortgage.FieldPrincipal))
}

func TestRemoveShiftsWarningsWithConditions(t *testing.T) {
	s := newTestStore()
	for i := 0; i < 3; i++ {
		s.AddCondition()
	}
	require.Error(t, s.UpdateConditionField(0, mortgage.FieldRate, "bad"))
	require.Error(t, s.UpdateConditionField(1, mortgage.FieldRate, "bad"))
	require.Error(t, s.UpdateConditionField(2, mortgage.FieldTotalYears, "bad"))
	require.Error(t, s.UpdateGeneralField(mortgage.FieldPrincipal, "bad"))

	require.NoError(t, s.RemoveCondition(1))

	assert.Equal(t, map[string]string{
		"condition-0-rate":            InvalidNumberWarning,
		"condition-1-totalYears":      InvalidNumberWarning,
		"condition-general-principal": InvalidNumberWarning,
	}, s.Warnings())
}

func TestDisplayResyncsAfterRemoveAndReplace(t *testing.T) {
	s := newTestStore()
	s.AddCondition()
	s.AddCondition()
	require.NoError(t, s.UpdateConditionField(0, mortgage.FieldTotalYears, "20"))
	require.NoError(t, s.UpdateConditionField(1, mortgage.FieldTotalYears, "35"))

	display, err := s.DisplayCondition(0, mortgage.FieldTotalYears)
	require.NoError(t, err)
	require.Equal(t, "20", display)

	require.NoError(t, s.RemoveCondition(0))
	display, err = s.DisplayCondition(0, mortgage.FieldTotalYears)
	require.NoError(t, err)
	assert.Equal(t, "35", display)

	_, err = s.DisplayCondition(1, mortgage.FieldTotalYears)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	replacement := mortgage.DefaultCondition()
	replacement.Name = "imported"
	replacement.TotalYears = 25
	require.NoError(t, s.Replace(mortgage.DefaultGeneralInput(), []mortgage.Condition{replacement}))

	display, err = s.DisplayCondition(0, mortgage.FieldTotalYears)
	require.NoError(t, err)
	assert.Equal(t, "25", display)
	assert.Equal(t, "2.50%", s.DisplayGeneral(mortgage.FieldCurrentEuribor))
}

func TestSnapshotRestore(t *testing.T) {
	s := newTestStore()
	s.AddCondition()
	require.NoError(t, s.UpdateGeneralField(mortgage.FieldPrincipal, "100000"))
	require.Error(t, s.UpdateConditionField(0, mortgage.FieldRate, "bad"))

	snap := s.Snapshot()

	other := newTestStore()
	other.Restore(snap)
	assert.Equal(t, snap, other.Snapshot())
	assert.Equal(t, "€1,000.00", other.DisplayGeneral(mortgage.FieldPrincipal))

	// The snapshot is detached from the store it came from.
	snap.Conditions[0].Name = "changed"
	assert.Equal(t, "Condition 1", s.Conditions()[0].Name)
}

func TestValidateAdvisories(t *testing.T) {
	s := newTestStore()
	assert.Len(t, s.Validate(), 1, "default principal of zero is reported")

	require.NoError(t, s.UpdateGeneralField(mortgage.FieldPrincipal, "100"))
	s.AddCondition()
	assert.Empty(t, s.Validate())

	require.NoError(t, s.UpdateConditionField(0, mortgage.FieldFixedPeriod, "15"))
	s.AddCondition()
	require.NoError(t, s.UpdateConditionField(1, mortgage.FieldName, "Condition 1"))
	require.NoError(t, s.UpdateConditionField(1, mortgage.FieldTotalYears, "0"))
	require.NoError(t, s.UpdateConditionField(1, mortgage.FieldFixedPeriod, "0"))

	warnings := s.Validate()
	require.Len(t, warnings, 3)
	assert.Contains(t, warnings[0], "longer than its 10 year term")
	assert.Contains(t, warnings[1], "same name")
	assert.Contains(t, warnings[2], "term of zero years")

	// Advisories never touch the stored values.
	assert.Equal(t, 15, s.Conditions()[0].FixedPeriod)
}

func TestReplaceRejectsOutOfRangeValues(t *testing.T) {
	s := newTestStore()
	s.AddCondition()
	require.NoError(t, s.UpdateConditionField(0, mortgage.FieldName, "kept"))
	before := s.Snapshot()

	general := mortgage.DefaultGeneralInput()
	general.Principal = -5000
	general.CurrentReferenceRate = 3
	bad := mortgage.DefaultCondition()
	bad.Name = "bad"
	bad.Rate = 7.5
	bad.FixedPeriod = -4
	bad.TotalYears = -10

	err := s.Replace(general, []mortgage.Condition{bad})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOutOfRange)

	var rangeErr *RangeError
	require.True(t, errors.As(err, &rangeErr))
	assert.Equal(t, GeneralKey(mortgage.FieldPrincipal), rangeErr.Key)
	for _, key := range []string{
		GeneralKey(mortgage.FieldCurrentEuribor),
		ConditionKey(0, mortgage.FieldRate),
		ConditionKey(0, mortgage.FieldFixedPeriod),
		ConditionKey(0, mortgage.FieldTotalYears),
	} {
		assert.Contains(t, err.Error(), key)
	}

	assert.Equal(t, before, s.Snapshot())
}

func TestReplaceAcceptsBoundaryValues(t *testing.T) {
	s := newTestStore()

	general := mortgage.GeneralInput{CurrentReferenceRate: 1}
	edge := mortgage.Condition{Name: "edge", Rate: 1}
	require.NoError(t, s.Replace(general, []mortgage.Condition{edge}))
	assert.Equal(t, "100.00%", s.DisplayGeneral(mortgage.FieldCurrentEuribor))

	edge.EuriborDelta = math.Inf(1)
	assert.ErrorIs(t, s.Replace(general, []mortgage.Condition{edge}), ErrOutOfRange)
}
