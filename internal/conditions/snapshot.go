package conditions

import "github.com/iwvelando/mortgage-simulator/internal/mortgage"

// Snapshot is the serializable form of a Store. Cached display strings are
// not part of it; they are rebuilt from the values on Restore.
type Snapshot struct {
	General    mortgage.GeneralInput `json:"general" yaml:"generalInput"`
	Conditions []mortgage.Condition  `json:"conditions" yaml:"conditions"`
	Warnings   map[string]string     `json:"warnings,omitempty" yaml:"-"`
}

// Snapshot captures the current state.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		General:    s.general,
		Conditions: s.Conditions(),
		Warnings:   s.Warnings(),
	}
}

// Restore replaces the state with snap, including its warnings.
func (s *Store) Restore(snap Snapshot) {
	s.replace(snap.General, snap.Conditions)
	for k, v := range snap.Warnings {
		s.warnings[k] = v
	}
}
