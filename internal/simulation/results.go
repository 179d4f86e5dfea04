package simulation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrSchema is matched by every SchemaError.
var ErrSchema = errors.New("response does not match the expected schema")

// SchemaError reports where a simulation response diverged from the
// expected shape.
type SchemaError struct {
	Path   string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

func (e *SchemaError) Unwrap() error {
	return ErrSchema
}

// Entry is the outcome of one simulated trial of one condition.
type Entry struct {
	AverageEuribor              float64 `json:"average_euribor"`
	AverageInterestRate         float64 `json:"average_interest_rate"`
	EquivalentFixedInterestRate float64 `json:"equivalent_fixed_interest_rate"`
	TotalInterestPaid           float64 `json:"total_interest_paid"`
	TotalCapitalPaid            float64 `json:"total_capital_paid"`
	TotalExpenses               float64 `json:"total_expenses"`
	TotalBonificationPayments   float64 `json:"total_bonification_payments"`
	TotalPaid                   float64 `json:"total_paid"`
	TotalPaidWithoutExpenses    float64 `json:"total_paid_without_expenses"`
	AverageMonthlyPayment       float64 `json:"average_monthly_payment"`
	TotalYears                  float64 `json:"total_years"`
	Type                        string  `json:"type"`
}

// numericFields lists the wire names of every numeric Entry field.
var numericFields = []string{
	"average_euribor",
	"average_interest_rate",
	"equivalent_fixed_interest_rate",
	"total_interest_paid",
	"total_capital_paid",
	"total_expenses",
	"total_bonification_payments",
	"total_paid",
	"total_paid_without_expenses",
	"average_monthly_payment",
	"total_years",
}

// Value returns the numeric field with the given wire name.
func (e Entry) Value(field string) (float64, bool) {
	switch field {
	case "average_euribor":
		return e.AverageEuribor, true
	case "average_interest_rate":
		return e.AverageInterestRate, true
	case "equivalent_fixed_interest_rate":
		return e.EquivalentFixedInterestRate, true
	case "total_interest_paid":
		return e.TotalInterestPaid, true
	case "total_capital_paid":
		return e.TotalCapitalPaid, true
	case "total_expenses":
		return e.TotalExpenses, true
	case "total_bonification_payments":
		return e.TotalBonificationPayments, true
	case "total_paid":
		return e.TotalPaid, true
	case "total_paid_without_expenses":
		return e.TotalPaidWithoutExpenses, true
	case "average_monthly_payment":
		return e.AverageMonthlyPayment, true
	case "total_years":
		return e.TotalYears, true
	}
	return 0, false
}

func decodeEntry(path string, raw json.RawMessage) (Entry, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Entry{}, &SchemaError{Path: path, Reason: "expected an object"}
	}

	for _, name := range numericFields {
		value, ok := fields[name]
		if !ok {
			return Entry{}, &SchemaError{Path: path + "." + name, Reason: "missing"}
		}
		var n float64
		if err := json.Unmarshal(value, &n); err != nil || bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			return Entry{}, &SchemaError{Path: path + "." + name, Reason: "expected a number"}
		}
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return Entry{}, &SchemaError{Path: path + "." + name, Reason: "not a finite number"}
		}
	}

	typ, ok := fields["type"]
	if !ok {
		return Entry{}, &SchemaError{Path: path + ".type", Reason: "missing"}
	}
	var s string
	if err := json.Unmarshal(typ, &s); err != nil || bytes.Equal(bytes.TrimSpace(typ), []byte("null")) {
		return Entry{}, &SchemaError{Path: path + ".type", Reason: "expected a string"}
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return Entry{}, &SchemaError{Path: path, Reason: err.Error()}
	}
	return entry, nil
}

// Results maps condition names to their trial outcomes and remembers the
// order in which the names arrived. A Results value is never modified once
// it has been handed to a session.
type Results struct {
	names   []string
	entries map[string][]Entry
}

// NewResults returns an empty Results.
func NewResults() *Results {
	return &Results{entries: make(map[string][]Entry)}
}

// Add appends name with its entries. Adding an existing name replaces its
// entries and keeps its original position.
func (r *Results) Add(name string, entries []Entry) {
	if r.entries == nil {
		r.entries = make(map[string][]Entry)
	}
	if _, ok := r.entries[name]; !ok {
		r.names = append(r.names, name)
	}
	copied := make([]Entry, len(entries))
	copy(copied, entries)
	r.entries[name] = copied
}

// Names returns the condition names in response order.
func (r *Results) Names() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.names...)
}

// Entries returns the trials recorded for name.
func (r *Results) Entries(name string) []Entry {
	if r == nil {
		return nil
	}
	return r.entries[name]
}

// Len returns the number of conditions.
func (r *Results) Len() int {
	if r == nil {
		return 0
	}
	return len(r.names)
}

// MarshalJSON writes the mapping as a JSON object in response order.
func (r *Results) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.Names() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(r.entries[name])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object of condition name to entry arrays,
// keeping key order and validating every entry.
func (r *Results) UnmarshalJSON(data []byte) error {
	const path = "average_results"

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return &SchemaError{Path: path, Reason: err.Error()}
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return &SchemaError{Path: path, Reason: "expected an object"}
	}

	out := NewResults()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return &SchemaError{Path: path, Reason: err.Error()}
		}
		name, ok := tok.(string)
		if !ok {
			return &SchemaError{Path: path, Reason: "expected a condition name"}
		}

		entryPath := fmt.Sprintf("%s[%q]", path, name)
		var raw []json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return &SchemaError{Path: entryPath, Reason: "expected an array of entries"}
		}
		if raw == nil {
			return &SchemaError{Path: entryPath, Reason: "expected an array of entries"}
		}

		entries := make([]Entry, 0, len(raw))
		for i, item := range raw {
			entry, err := decodeEntry(fmt.Sprintf("%s[%d]", entryPath, i), item)
			if err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		out.Add(name, entries)
	}
	if _, err := dec.Token(); err != nil {
		return &SchemaError{Path: path, Reason: err.Error()}
	}

	*r = *out
	return nil
}

// DecodeResponse decodes and validates a simulation service body. Keys other
// than average_results are ignored.
func DecodeResponse(body []byte) (*Results, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, &SchemaError{Path: "$", Reason: "body is not a JSON object"}
	}
	raw, ok := fields["average_results"]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, &SchemaError{Path: "average_results", Reason: "missing"}
	}

	results := NewResults()
	if err := results.UnmarshalJSON(raw); err != nil {
		return nil, err
	}
	return results, nil
}
