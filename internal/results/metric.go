// Package results turns the trial distributions returned by a simulation
// into per-condition series, box-plot summaries and chart models for the
// selected metric.
package results

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrUnknownMetric is returned for a metric outside the selectable set.
var ErrUnknownMetric = errors.New("unknown metric")

// Metric is a plot-eligible field of a simulation entry.
type Metric string

const (
	MetricAverageMonthlyPayment       Metric = "average_monthly_payment"
	MetricEquivalentFixedInterestRate Metric = "equivalent_fixed_interest_rate"
	MetricTotalBonificationPayments   Metric = "total_bonification_payments"
	MetricTotalExpenses               Metric = "total_expenses"
	MetricTotalInterestPaid           Metric = "total_interest_paid"
	MetricTotalPaid                   Metric = "total_paid"
	MetricTotalPaidWithoutExpenses    Metric = "total_paid_without_expenses"
)

// DefaultMetric is selected until the user picks another one.
const DefaultMetric = MetricEquivalentFixedInterestRate

// Metrics lists the selectable metrics in display order. The remaining entry
// fields (average_euribor, average_interest_rate, total_capital_paid,
// total_years) are not selectable.
var Metrics = []Metric{
	MetricAverageMonthlyPayment,
	MetricEquivalentFixedInterestRate,
	MetricTotalBonificationPayments,
	MetricTotalExpenses,
	MetricTotalInterestPaid,
	MetricTotalPaid,
	MetricTotalPaidWithoutExpenses,
}

// ParseMetric validates name against the selectable set.
func ParseMetric(name string) (Metric, error) {
	for _, m := range Metrics {
		if string(m) == name {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMetric, name)
}

// Label is the human-readable name: words split on underscores with only
// the first one capitalized ("Average monthly payment").
func (m Metric) Label() string {
	words := strings.Split(string(m), "_")
	for i, w := range words {
		w = strings.ToLower(w)
		if i == 0 && w != "" {
			r, size := utf8.DecodeRuneInString(w)
			w = string(unicode.ToUpper(r)) + w[size:]
		}
		words[i] = w
	}
	return strings.Join(words, " ")
}

// Title is the chart heading, e.g. "TOTAL PAID Distribution by Condition".
func (m Metric) Title() string {
	return strings.ToUpper(strings.ReplaceAll(string(m), "_", " ")) + " Distribution by Condition"
}

// IsRate reports whether the metric is a fraction rather than an amount.
func (m Metric) IsRate() bool {
	return m == MetricEquivalentFixedInterestRate
}
