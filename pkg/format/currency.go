package format

import (
	"strings"

	"github.com/iwvelando/mortgage-simulator/pkg/constants"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CurrencyCodec formats amounts with locale grouping, two decimals and a
// currency symbol. Parsing follows a cents-first entry model: every digit in
// the input is kept and the last two are the fractional part, so typing "5"
// then "0" yields 0.05 and then 0.50.
type CurrencyCodec struct {
	printer *message.Printer
	symbol  string
	prefix  bool
}

// NewCurrencyCodec builds a codec for the given locale and currency. position
// is constants.SymbolPositionPrefix or constants.SymbolPositionSuffix; any
// other value falls back to suffix.
func NewCurrencyCodec(tag language.Tag, unit currency.Unit, position string) *CurrencyCodec {
	p := message.NewPrinter(tag)
	symbol := strings.TrimSpace(p.Sprint(currency.Symbol(unit)))
	if symbol == "" {
		symbol = unit.String()
	}
	return &CurrencyCodec{
		printer: p,
		symbol:  symbol,
		prefix:  position == constants.SymbolPositionPrefix,
	}
}

// Symbol returns the currency symbol used in display strings.
func (c *CurrencyCodec) Symbol() string {
	return c.symbol
}

// Format returns e.g. "1.234,56 €" for de-DE and EUR.
func (c *CurrencyCodec) Format(value float64) string {
	amount := fixed(c.printer, value, constants.CurrencyDecimals)
	if c.prefix {
		return c.symbol + amount
	}
	return amount + " " + c.symbol
}

// Parse strips every non-digit and interprets the remaining digits as
// integer cents. An input without digits parses to zero; an input
// containing letters other than the currency symbol is rejected.
func (c *CurrencyCodec) Parse(input string) (float64, error) {
	if containsLetter(strings.ReplaceAll(input, c.symbol, "")) {
		return 0, &ParseError{Input: input, Reason: "contains non-numeric characters"}
	}

	var digits strings.Builder
	for _, r := range input {
		if isASCIIDigit(r) {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0, nil
	}

	cents, err := decimal.NewFromString(digits.String())
	if err != nil {
		return 0, &ParseError{Input: input, Reason: err.Error()}
	}
	return cents.Shift(-constants.CurrencyDecimals).InexactFloat64(), nil
}
