package conditions

import (
	"errors"
	"fmt"
	"math"

	"github.com/iwvelando/mortgage-simulator/internal/mortgage"
	"github.com/iwvelando/mortgage-simulator/pkg/constants"
)

// ErrOutOfRange is matched by every RangeError.
var ErrOutOfRange = errors.New("value out of range")

// RangeError reports a value outside the domain of its field. Values typed
// into a field never produce it; the codecs already bound them.
type RangeError struct {
	Key    string
	Value  float64
	Reason string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: %v %s", e.Key, e.Value, e.Reason)
}

func (e *RangeError) Unwrap() error {
	return ErrOutOfRange
}

// percentageMax returns the largest fraction a percentage field may hold.
func (c Codecs) percentageMax() float64 {
	limit := constants.DefaultPercentageMax
	if m, ok := c.Percentage.(interface{ Max() float64 }); ok && m.Max() > 0 {
		limit = m.Max()
	}
	return mortgage.FromPercentagePoints(limit)
}

func checkValue(key string, kind mortgage.Kind, value, rateMax float64) error {
	switch {
	case math.IsNaN(value) || math.IsInf(value, 0):
		return &RangeError{Key: key, Value: value, Reason: "is not a finite number"}
	case value < 0:
		return &RangeError{Key: key, Value: value, Reason: "must not be negative"}
	case kind == mortgage.KindPercentage && value > rateMax:
		return &RangeError{Key: key, Value: value, Reason: fmt.Sprintf("exceeds the maximum rate of %v", rateMax)}
	}
	return nil
}

// checkRanges applies the bounds the codecs enforce on typed input to values
// that arrive whole, as on import. Every violation is reported.
func (s *Store) checkRanges(general mortgage.GeneralInput, conditions []mortgage.Condition) error {
	rateMax := s.codecs.percentageMax()

	var errs []error
	for _, f := range mortgage.GeneralFields {
		if err := checkValue(GeneralKey(f), f.Kind(), general.Get(f), rateMax); err != nil {
			errs = append(errs, err)
		}
	}
	for i, c := range conditions {
		for _, f := range mortgage.ConditionFields {
			if f == mortgage.FieldName {
				continue
			}
			if err := checkValue(ConditionKey(i, f), f.Kind(), c.Get(f), rateMax); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Validate reports advisory problems with the current state. None of them
// block a submission; the values are passed to the simulation service as
// entered.
func (s *Store) Validate() []string {
	var warnings []string

	if s.general.Principal <= 0 {
		warnings = append(warnings, "principal should be greater than zero")
	}
	if s.general.CurrentReferenceRate <= 0 {
		warnings = append(warnings, "current Euribor should be greater than zero")
	}
	if s.general.YearlyVariance <= 0 {
		warnings = append(warnings, "yearly variance should be greater than zero")
	}

	seen := make(map[string]int, len(s.conditions))
	for i, c := range s.conditions {
		label := c.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
			warnings = append(warnings, fmt.Sprintf("condition %s has an empty name", label))
		} else if first, dup := seen[c.Name]; dup {
			warnings = append(warnings, fmt.Sprintf(
				"condition %q at position %d has the same name as position %d; results are grouped by name",
				c.Name, i+1, first+1))
		} else {
			seen[c.Name] = i
		}

		if c.TotalYears == 0 {
			warnings = append(warnings, fmt.Sprintf("condition %s has a term of zero years", label))
		}
		if c.FixedPeriod > c.TotalYears {
			warnings = append(warnings, fmt.Sprintf(
				"condition %s has a fixed period of %d years, longer than its %d year term",
				label, c.FixedPeriod, c.TotalYears))
		}
	}

	return warnings
}
