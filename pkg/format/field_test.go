package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestFieldInputEmitsParsedValue(t *testing.T) {
	var emitted []float64
	field := NewField(NewPercentageCodec(language.English, 100), 2, func(v float64) {
		emitted = append(emitted, v)
	})
	assert.Equal(t, "2.00%", field.Display())

	got, err := field.Input("3.5")
	require.NoError(t, err)
	assert.Equal(t, 3.5, got)
	assert.Equal(t, "3.50%", field.Display())
	assert.Equal(t, []float64{3.5}, emitted)
}

func TestFieldInputFailureKeepsState(t *testing.T) {
	calls := 0
	field := NewField(YearsCodec{}, 10, func(float64) { calls++ })

	got, err := field.Input("ten")
	require.ErrorIs(t, err, ErrParse)
	assert.Equal(t, 10.0, got)
	assert.Equal(t, 10.0, field.Value())
	assert.Equal(t, "10", field.Display())
	assert.Zero(t, calls)
}

func TestFieldSyncReplacesStaleDisplay(t *testing.T) {
	calls := 0
	field := NewField(YearsCodec{}, 5, func(float64) { calls++ })
	_, err := field.Input("7")
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	assert.True(t, field.Sync(30))
	assert.Equal(t, "30", field.Display())
	assert.Equal(t, 30.0, field.Value())
	assert.False(t, field.Sync(30))
	assert.Equal(t, 1, calls, "sync must not emit")
}

func TestFieldFocusSelectsAll(t *testing.T) {
	field := NewField(NewPercentageCodec(language.English, 100), 12.5, nil)
	assert.Equal(t, Selection{Start: 0, End: len("12.50%")}, field.Focus())
}
