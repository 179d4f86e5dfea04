// Package session owns the per-user comparison state between requests: the
// edited conditions, the last simulation results and the selected metric.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/iwvelando/mortgage-simulator/internal/conditions"
	"github.com/iwvelando/mortgage-simulator/internal/results"
	"github.com/iwvelando/mortgage-simulator/internal/simulation"
)

// ErrSessionNotFound is returned for an unknown or expired session ID.
var ErrSessionNotFound = errors.New("session not found")

// Snapshot is the persisted form of a session.
type Snapshot struct {
	Conditions conditions.Snapshot `json:"conditions"`
	Results    *simulation.Results `json:"results,omitempty"`
	Metric     results.Metric      `json:"metric"`
	UpdatedAt  time.Time           `json:"updatedAt"`
}

// Claimer is implemented by repositories shared between processes. It keeps
// the pending-simulation flag where every instance sees it. Claim reports
// false when the flag is already held.
type Claimer interface {
	Claim(ctx context.Context, id string, ttl time.Duration) (bool, error)
	Claimed(ctx context.Context, id string) (bool, error)
	Release(ctx context.Context, id string) error
}

// Repository stores session snapshots by ID.
type Repository interface {
	Load(ctx context.Context, id string) (Snapshot, error)
	Save(ctx context.Context, id string, snap Snapshot) error
	Delete(ctx context.Context, id string) error
}
