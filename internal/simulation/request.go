// Package simulation talks to the external Monte Carlo simulation service:
// it builds the request body from the edited conditions, posts it and
// validates the distribution of outcomes that comes back.
package simulation

import "github.com/iwvelando/mortgage-simulator/internal/mortgage"

// Request is the JSON body accepted by the simulation service.
type Request struct {
	GeneralInput mortgage.GeneralInput `json:"generalInput"`
	Conditions   []mortgage.Condition  `json:"conditions"`
}

// BuildRequest serializes the general input and the full ordered condition
// sequence verbatim. It performs no validation; callers refuse to submit an
// empty sequence.
func BuildRequest(general mortgage.GeneralInput, conditions []mortgage.Condition) Request {
	copied := make([]mortgage.Condition, len(conditions))
	copy(copied, conditions)
	return Request{
		GeneralInput: general,
		Conditions:   copied,
	}
}
