// Package conditions holds the editable state of a comparison: one shared
// GeneralInput and an ordered list of mortgage Conditions, together with the
// per-field warnings produced by rejected input.
package conditions

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/iwvelando/mortgage-simulator/internal/mortgage"
	"github.com/iwvelando/mortgage-simulator/pkg/format"
)

// InvalidNumberWarning is the message recorded for a rejected numeric input.
const InvalidNumberWarning = "Invalid number"

var (
	// ErrIndexOutOfRange is returned for a condition index that does not
	// exist. The store is left unchanged.
	ErrIndexOutOfRange = errors.New("condition index out of range")

	// ErrInvalidInput is matched by every FieldError.
	ErrInvalidInput = errors.New("invalid input")
)

// FieldError reports a rejected edit. The previous value is kept and
// Warning is recorded under Key.
type FieldError struct {
	Key     string
	Warning string
	Err     error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Key, e.Warning, e.Err)
}

func (e *FieldError) Unwrap() []error {
	return []error{ErrInvalidInput, e.Err}
}

// Codecs supplies the parser/formatter for each numeric field kind.
type Codecs struct {
	Currency   format.Codec
	Percentage format.Codec
	Years      format.Codec
}

func (c Codecs) forKind(kind mortgage.Kind) format.Codec {
	switch kind {
	case mortgage.KindPercentage:
		return c.Percentage
	case mortgage.KindYears:
		return c.Years
	default:
		return c.Currency
	}
}

// GeneralKey is the warning key of a general input field.
func GeneralKey(field mortgage.GeneralField) string {
	return "condition-general-" + string(field)
}

// ConditionKey is the warning key of a condition field.
func ConditionKey(index int, field mortgage.ConditionField) string {
	return fmt.Sprintf("condition-%d-%s", index, field)
}

// Store is the explicit state container for one comparison. It is not safe
// for concurrent use; callers serialize access.
type Store struct {
	codecs     Codecs
	seed       mortgage.Condition
	general    mortgage.GeneralInput
	conditions []mortgage.Condition
	warnings   map[string]string
	fields     map[string]*format.Field
}

// NewStore creates a store with the given general input and no conditions.
// seed provides the values of every added condition except its name.
func NewStore(codecs Codecs, general mortgage.GeneralInput, seed mortgage.Condition) *Store {
	return &Store{
		codecs:   codecs,
		seed:     seed,
		general:  general,
		warnings: make(map[string]string),
		fields:   make(map[string]*format.Field),
	}
}

// General returns the shared general input.
func (s *Store) General() mortgage.GeneralInput {
	return s.general
}

// Conditions returns a copy of the ordered conditions.
func (s *Store) Conditions() []mortgage.Condition {
	return append([]mortgage.Condition(nil), s.conditions...)
}

// Len returns the number of conditions.
func (s *Store) Len() int {
	return len(s.conditions)
}

// Warnings returns a copy of the active warnings keyed by field key.
func (s *Store) Warnings() map[string]string {
	out := make(map[string]string, len(s.warnings))
	for k, v := range s.warnings {
		out[k] = v
	}
	return out
}

// Warning returns the warning recorded for key, if any.
func (s *Store) Warning(key string) (string, bool) {
	w, ok := s.warnings[key]
	return w, ok
}

// UpdateGeneralField parses raw into field. A rejected input keeps the old
// value, records a warning for this field only and returns a *FieldError.
func (s *Store) UpdateGeneralField(field mortgage.GeneralField, raw string) error {
	if _, err := mortgage.ParseGeneralField(string(field)); err != nil {
		return err
	}

	key := GeneralKey(field)
	if _, err := s.generalField(field).Input(raw); err != nil {
		s.warnings[key] = InvalidNumberWarning
		return &FieldError{Key: key, Warning: InvalidNumberWarning, Err: err}
	}
	delete(s.warnings, key)
	return nil
}

// AddCondition appends a seeded condition named "Condition n+1" and returns
// its index.
func (s *Store) AddCondition() int {
	c := s.seed
	c.Name = mortgage.ConditionName(len(s.conditions) + 1)
	s.conditions = append(s.conditions, c)
	return len(s.conditions) - 1
}

// RemoveCondition deletes the condition at index. Later conditions move down
// one position and carry their warnings with them. An index outside the
// sequence leaves the store untouched and returns ErrIndexOutOfRange.
func (s *Store) RemoveCondition(index int) error {
	if index < 0 || index >= len(s.conditions) {
		return fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, index, len(s.conditions))
	}

	s.conditions = append(s.conditions[:index:index], s.conditions[index+1:]...)

	shifted := make(map[string]string, len(s.warnings))
	for key, msg := range s.warnings {
		i, field, ok := parseConditionKey(key)
		switch {
		case !ok || i < index:
			shifted[key] = msg
		case i > index:
			shifted[ConditionKey(i-1, field)] = msg
		}
	}
	s.warnings = shifted

	// Cached fields are bound by position and resync on next use; only the
	// slot past the new end is gone.
	s.dropFieldsFrom(len(s.conditions))
	return nil
}

// UpdateConditionField applies raw to one field of the condition at index.
// The name is stored verbatim; numeric fields follow the same warning
// discipline as UpdateGeneralField.
func (s *Store) UpdateConditionField(index int, field mortgage.ConditionField, raw string) error {
	if index < 0 || index >= len(s.conditions) {
		return fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, index, len(s.conditions))
	}
	if _, err := mortgage.ParseConditionField(string(field)); err != nil {
		return err
	}

	key := ConditionKey(index, field)
	if field == mortgage.FieldName {
		s.conditions[index].Name = raw
		delete(s.warnings, key)
		return nil
	}

	if _, err := s.conditionField(index, field).Input(raw); err != nil {
		s.warnings[key] = InvalidNumberWarning
		return &FieldError{Key: key, Warning: InvalidNumberWarning, Err: err}
	}
	delete(s.warnings, key)
	return nil
}

// DisplayGeneral returns the formatted display string of field.
func (s *Store) DisplayGeneral(field mortgage.GeneralField) string {
	return s.generalField(field).Display()
}

// DisplayCondition returns the formatted display string of one condition
// field. The name is returned as is.
func (s *Store) DisplayCondition(index int, field mortgage.ConditionField) (string, error) {
	if index < 0 || index >= len(s.conditions) {
		return "", fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, index, len(s.conditions))
	}
	if field == mortgage.FieldName {
		return s.conditions[index].Name, nil
	}
	return s.conditionField(index, field).Display(), nil
}

// Replace swaps in a new general input and condition list, as on import.
// Values outside their field's range reject the whole replacement with
// errors matching ErrOutOfRange and leave the store untouched. On success
// warnings are cleared and every display resyncs to the new values.
func (s *Store) Replace(general mortgage.GeneralInput, conditions []mortgage.Condition) error {
	if err := s.checkRanges(general, conditions); err != nil {
		return err
	}
	s.replace(general, conditions)
	return nil
}

func (s *Store) replace(general mortgage.GeneralInput, conditions []mortgage.Condition) {
	s.general = general
	s.conditions = append([]mortgage.Condition(nil), conditions...)
	s.warnings = make(map[string]string)
	s.dropFieldsFrom(len(s.conditions))
}

func (s *Store) dropFieldsFrom(n int) {
	for key := range s.fields {
		if i, _, ok := parseConditionKey(key); ok && i >= n {
			delete(s.fields, key)
		}
	}
}

// generalField returns the bound input for field, resynced to the stored
// value so an external change never leaves a stale display behind.
func (s *Store) generalField(field mortgage.GeneralField) *format.Field {
	kind := field.Kind()
	current := toDisplay(kind, s.general.Get(field))

	key := GeneralKey(field)
	f, ok := s.fields[key]
	if !ok {
		f = format.NewField(s.codecs.forKind(kind), current, func(v float64) {
			s.general.Set(field, fromDisplay(kind, v))
		})
		s.fields[key] = f
		return f
	}
	f.Sync(current)
	return f
}

func (s *Store) conditionField(index int, field mortgage.ConditionField) *format.Field {
	kind := field.Kind()
	current := toDisplay(kind, s.conditions[index].Get(field))

	key := ConditionKey(index, field)
	f, ok := s.fields[key]
	if !ok {
		f = format.NewField(s.codecs.forKind(kind), current, func(v float64) {
			s.conditions[index].Set(field, fromDisplay(kind, v))
		})
		s.fields[key] = f
		return f
	}
	f.Sync(current)
	return f
}

func toDisplay(kind mortgage.Kind, stored float64) float64 {
	if kind == mortgage.KindPercentage {
		return mortgage.ToPercentagePoints(stored)
	}
	return stored
}

func fromDisplay(kind mortgage.Kind, shown float64) float64 {
	if kind == mortgage.KindPercentage {
		return mortgage.FromPercentagePoints(shown)
	}
	return shown
}

// parseConditionKey splits "condition-<i>-<field>"; general keys report !ok.
func parseConditionKey(key string) (int, mortgage.ConditionField, bool) {
	rest, found := strings.CutPrefix(key, "condition-")
	if !found {
		return 0, "", false
	}
	idx, field, found := strings.Cut(rest, "-")
	if !found {
		return 0, "", false
	}
	i, err := strconv.Atoi(idx)
	if err != nil {
		return 0, "", false
	}
	return i, mortgage.ConditionField(field), true
}
