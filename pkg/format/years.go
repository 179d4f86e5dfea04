package format

import (
	"strconv"
	"strings"
)

// YearsCodec handles whole, non-negative year counts.
type YearsCodec struct{}

// Format renders the integer part of value.
func (YearsCodec) Format(value float64) string {
	return strconv.Itoa(int(value))
}

// Parse accepts a base-10 integer surrounded by optional whitespace.
func (YearsCodec) Parse(input string) (float64, error) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, &ParseError{Input: input, Reason: "not a whole number"}
	}
	if n < 0 {
		return 0, &ParseError{Input: input, Reason: "must not be negative"}
	}
	return float64(n), nil
}
