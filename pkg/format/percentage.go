package format

import (
	"strconv"
	"strings"

	"github.com/iwvelando/mortgage-simulator/pkg/constants"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PercentageCodec formats values expressed in percentage points ("5" is
// five percent) and parses them back, clamping to [0, Max].
type PercentageCodec struct {
	printer *message.Printer
	sep     rune
	max     float64
}

// NewPercentageCodec builds a codec for the locale. A non-positive max
// falls back to constants.DefaultPercentageMax.
func NewPercentageCodec(tag language.Tag, max float64) *PercentageCodec {
	if max <= 0 {
		max = constants.DefaultPercentageMax
	}
	return &PercentageCodec{
		printer: message.NewPrinter(tag),
		sep:     decimalSeparator(tag),
		max:     max,
	}
}

// Max returns the clamp applied by Parse.
func (c *PercentageCodec) Max() float64 {
	return c.max
}

// Format returns e.g. "5.00%" for English locales.
func (c *PercentageCodec) Format(value float64) string {
	return fixed(c.printer, value, constants.PercentageDecimals) + "%"
}

// Parse keeps digits and the first decimal point, discarding anything after
// a second one, and clamps the result to [0, Max]. The decimal point is the
// locale separator; "." is accepted as well unless the input contains the
// locale separator, in which case "." is read as grouping.
func (c *PercentageCodec) Parse(input string) (float64, error) {
	if containsLetter(input) {
		return 0, &ParseError{Input: input, Reason: "contains non-numeric characters"}
	}

	dotIsDecimal := c.sep == '.' || !strings.ContainsRune(input, c.sep)

	var cleaned strings.Builder
	seenSep := false
	hasDigit := false
scan:
	for _, r := range input {
		switch {
		case isASCIIDigit(r):
			cleaned.WriteRune(r)
			hasDigit = true
		case r == c.sep || (r == '.' && dotIsDecimal):
			if seenSep {
				break scan
			}
			seenSep = true
			cleaned.WriteByte('.')
		}
	}
	if !hasDigit {
		return 0, &ParseError{Input: input, Reason: "no digits"}
	}

	value, err := strconv.ParseFloat(strings.TrimSuffix(cleaned.String(), "."), 64)
	if err != nil {
		return 0, &ParseError{Input: input, Reason: err.Error()}
	}
	if value > c.max {
		value = c.max
	}
	if value < 0 {
		value = 0
	}
	return value, nil
}
