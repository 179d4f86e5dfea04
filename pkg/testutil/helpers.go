// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/mortgage-simulator/internal/results"
	"github.com/iwvelando/mortgage-simulator/internal/simulation"
)

// FindSeries finds a series by condition name.
// Returns a pointer to the series if found, nil otherwise.
func FindSeries(series []results.Series, name string) *results.Series {
	for i := range series {
		if series[i].Name == name {
			return &series[i]
		}
	}
	return nil
}

// Entry returns a simulation entry with every metric set to value, so a
// projection of any metric yields value.
func Entry(value float64) simulation.Entry {
	return simulation.Entry{
		AverageEuribor:              value,
		AverageInterestRate:         value,
		EquivalentFixedInterestRate: value,
		TotalInterestPaid:           value,
		TotalCapitalPaid:            value,
		TotalExpenses:               value,
		TotalBonificationPayments:   value,
		TotalPaid:                   value,
		TotalPaidWithoutExpenses:    value,
		AverageMonthlyPayment:       value,
		TotalYears:                  value,
		Type:                        "fixed",
	}
}

// Results builds results with one condition per name, in the given order,
// each holding one entry per value.
func Results(names []string, values ...[]float64) *simulation.Results {
	res := simulation.NewResults()
	for i, name := range names {
		var entries []simulation.Entry
		if i < len(values) {
			for _, v := range values[i] {
				entries = append(entries, Entry(v))
			}
		}
		res.Add(name, entries)
	}
	return res
}
