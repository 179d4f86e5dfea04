package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

type memoryEntry struct {
	data    []byte
	touched time.Time
}

// MemoryRepository keeps snapshots in process memory, encoded as JSON so a
// loaded snapshot never aliases the stored one. Idle entries are removed by
// Sweep.
type MemoryRepository struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryRepository creates an empty repository. Entries untouched for
// longer than ttl are removed by Sweep; a non-positive ttl keeps them
// forever.
func NewMemoryRepository(ttl time.Duration) *MemoryRepository {
	return &MemoryRepository{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Load implements Repository.
func (r *MemoryRepository) Load(_ context.Context, id string) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	entry.touched = r.now()
	r.entries[id] = entry

	var snap Snapshot
	if err := json.Unmarshal(entry.data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return snap, nil
}

// Save implements Repository.
func (r *MemoryRepository) Save(_ context.Context, id string, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", id, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = memoryEntry{data: data, touched: r.now()}
	return nil
}

// Delete implements Repository.
func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(r.entries, id)
	return nil
}

// Len returns the number of stored sessions.
func (r *MemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep removes entries idle for longer than the ttl and returns how many
// were removed.
func (r *MemoryRepository) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.ttl)
	removed := 0
	for id, entry := range r.entries {
		if entry.touched.Before(cutoff) {
			delete(r.entries, id)
			removed++
		}
	}
	return removed
}
