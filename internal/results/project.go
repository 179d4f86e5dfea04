package results

import (
	"fmt"

	"github.com/iwvelando/mortgage-simulator/internal/simulation"
)

// Series is the distribution of one metric for one condition, in trial
// order.
type Series struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// Project extracts metric from every trial of every condition. Conditions
// come out in the order of the results themselves, which need not match the
// order in which they were submitted. Project is pure and never triggers a
// new simulation.
func Project(res *simulation.Results, metric Metric) ([]Series, error) {
	if _, err := ParseMetric(string(metric)); err != nil {
		return nil, err
	}

	names := res.Names()
	series := make([]Series, 0, len(names))
	for _, name := range names {
		entries := res.Entries(name)
		values := make([]float64, 0, len(entries))
		for _, e := range entries {
			v, ok := e.Value(string(metric))
			if !ok {
				return nil, fmt.Errorf("%w: entry has no field %q", ErrUnknownMetric, metric)
			}
			values = append(values, v)
		}
		series = append(series, Series{Name: name, Values: values})
	}
	return series, nil
}
