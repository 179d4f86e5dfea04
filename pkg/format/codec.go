// Package format converts between numeric values and the locale-formatted
// strings shown in input fields.
package format

import (
	"errors"
	"fmt"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// ErrParse is matched by every parse failure returned from a Codec.
var ErrParse = errors.New("invalid numeric input")

// Codec converts a value to its display string and parses user input back.
type Codec interface {
	Format(value float64) string
	Parse(input string) (float64, error)
}

// ParseError describes why an input string was rejected.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %q: %s", e.Input, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}

// fixed formats value with exactly decimals fractional digits using the
// printer's locale separators.
func fixed(p *message.Printer, value float64, decimals int) string {
	return p.Sprint(number.Decimal(value,
		number.MinFractionDigits(decimals),
		number.MaxFractionDigits(decimals),
	))
}

// decimalSeparator returns the rune the locale uses between the integer and
// fractional part.
func decimalSeparator(tag language.Tag) rune {
	sample := fixed(message.NewPrinter(tag), 1.5, 1)
	for _, r := range sample {
		if !isASCIIDigit(r) {
			return r
		}
	}
	return '.'
}

func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func containsLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
