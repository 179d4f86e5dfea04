package format

import "unicode/utf8"

// Selection is a rune range inside a field's display string.
type Selection struct {
	Start int
	End   int
}

// Field is a controlled numeric input. It caches the display string for its
// current value and only changes it on a successful Input or an explicit
// Sync from the owner.
type Field struct {
	codec    Codec
	value    float64
	display  string
	onChange func(float64)
}

// NewField creates a field showing initial. onChange may be nil.
func NewField(codec Codec, initial float64, onChange func(float64)) *Field {
	return &Field{
		codec:    codec,
		value:    initial,
		display:  codec.Format(initial),
		onChange: onChange,
	}
}

// Value returns the last accepted value.
func (f *Field) Value() float64 {
	return f.value
}

// Display returns the formatted string for Value.
func (f *Field) Display() string {
	return f.display
}

// Input parses raw. On success the value and display are replaced and the
// value is emitted to the owner; on failure the field is left untouched.
func (f *Field) Input(raw string) (float64, error) {
	value, err := f.codec.Parse(raw)
	if err != nil {
		return f.value, err
	}
	f.value = value
	f.display = f.codec.Format(value)
	if f.onChange != nil {
		f.onChange(value)
	}
	return value, nil
}

// Sync tells the field its externally owned value is now external. It
// reports whether the display string changed. Sync never emits onChange.
func (f *Field) Sync(external float64) bool {
	display := f.codec.Format(external)
	changed := display != f.display
	f.value = external
	f.display = display
	return changed
}

// Focus selects the whole display string so typing replaces it.
func (f *Field) Focus() Selection {
	return Selection{Start: 0, End: utf8.RuneCountInString(f.display)}
}
