package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/mortgage-simulator/internal/conditions"
	"github.com/iwvelando/mortgage-simulator/internal/mortgage"
	"github.com/iwvelando/mortgage-simulator/internal/results"
	"github.com/iwvelando/mortgage-simulator/internal/simulation"
	"github.com/iwvelando/mortgage-simulator/pkg/constants"
	"go.uber.org/zap"
)

var (
	// ErrNoConditions is returned when submitting a session without any
	// condition. No request is sent.
	ErrNoConditions = errors.New("at least one condition is required")

	// ErrSimulationInFlight is returned when submitting while a previous
	// submission of the same session is still pending.
	ErrSimulationInFlight = errors.New("a simulation is already running for this session")
)

// Session is a loaded working copy of one session. Changes to it are only
// persisted through Manager.Update.
type Session struct {
	ID         string
	Store      *conditions.Store
	Results    *simulation.Results
	Metric     results.Metric
	Simulating bool
	UpdatedAt  time.Time
}

// HasResults reports whether a simulation has completed for the session.
func (s *Session) HasResults() bool {
	return s.Results != nil
}

// CanSubmit reports whether a simulation may be requested now.
func (s *Session) CanSubmit() bool {
	return s.Store.Len() > 0 && !s.Simulating
}

// Chart projects the stored results onto the selected metric.
func (s *Session) Chart() (results.Chart, error) {
	return results.NewVisualizer(s.Metric).Chart(s.Results)
}

// Defaults seeds new sessions.
type Defaults struct {
	General   mortgage.GeneralInput
	Condition mortgage.Condition
}

// Manager serializes load, mutate and save of sessions and guards the
// one-simulation-per-session rule. The outbound simulation call runs without
// holding the lock so other requests, including edits of the same session,
// proceed meanwhile.
//
// The mutex and inFlight only cover this process. When the repository is a
// Claimer the pending flag is also held there, so instances sharing it refuse
// concurrent submissions too.
type Manager struct {
	repo      Repository
	claimer   Claimer
	claimTTL  time.Duration
	simulator simulation.Simulator
	codecs    conditions.Codecs
	defaults  Defaults
	logger    *zap.Logger
	now       func() time.Time

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewManager wires a manager.
func NewManager(repo Repository, simulator simulation.Simulator, codecs conditions.Codecs, defaults Defaults, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	claimer, _ := repo.(Claimer)
	return &Manager{
		repo:      repo,
		claimer:   claimer,
		claimTTL:  constants.DefaultSimulationClaimTTL,
		simulator: simulator,
		codecs:    codecs,
		defaults:  defaults,
		logger:    logger,
		now:       time.Now,
		inFlight:  make(map[string]bool),
	}
}

func (m *Manager) newStore() *conditions.Store {
	return conditions.NewStore(m.codecs, m.defaults.General, m.defaults.Condition)
}

func (m *Manager) load(ctx context.Context, id string) (*Session, error) {
	snap, err := m.repo.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	store := m.newStore()
	store.Restore(snap.Conditions)

	metric := snap.Metric
	if _, err := results.ParseMetric(string(metric)); err != nil {
		metric = results.DefaultMetric
	}

	simulating := m.inFlight[id]
	if !simulating && m.claimer != nil {
		if simulating, err = m.claimer.Claimed(ctx, id); err != nil {
			return nil, err
		}
	}

	return &Session{
		ID:         id,
		Store:      store,
		Results:    snap.Results,
		Metric:     metric,
		Simulating: simulating,
		UpdatedAt:  snap.UpdatedAt,
	}, nil
}

func (m *Manager) save(ctx context.Context, s *Session) error {
	s.UpdatedAt = m.now()
	return m.repo.Save(ctx, s.ID, Snapshot{
		Conditions: s.Store.Snapshot(),
		Results:    s.Results,
		Metric:     s.Metric,
		UpdatedAt:  s.UpdatedAt,
	})
}

// Create starts a session with the default general input and no conditions.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	s := &Session{
		ID:     uuid.NewString(),
		Store:  m.newStore(),
		Metric: results.DefaultMetric,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.save(ctx, s); err != nil {
		return nil, err
	}

	m.logger.Debug("session created", zap.String("op", "session.Create"), zap.String("session", s.ID))
	return s, nil
}

// Get loads a session.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(ctx, id)
}

// Delete discards a session.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.repo.Delete(ctx, id)
}

// Update loads the session, applies fn and saves the result. fn may return
// an error after changing state, as a rejected field edit does by recording
// its warning; the state is saved either way and the session is returned
// together with fn's error.
func (m *Manager) Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}

	fnErr := fn(s)
	if err := m.save(ctx, s); err != nil {
		return nil, err
	}
	return s, fnErr
}

// SelectMetric changes the metric used to project the results. It never
// requests a new simulation.
func (m *Manager) SelectMetric(ctx context.Context, id, name string) (*Session, error) {
	metric, err := results.ParseMetric(name)
	if err != nil {
		return nil, err
	}
	return m.Update(ctx, id, func(s *Session) error {
		s.Metric = metric
		return nil
	})
}

// Simulate submits the session's current conditions. It refuses without a
// network call when there are no conditions or a submission is pending. On
// success the results are replaced wholesale; on failure the previous
// results are kept. The pending flag is cleared in both cases.
//
// The call is not cancelled when ctx is; only ctx values are passed on.
func (m *Manager) Simulate(ctx context.Context, id string) (*Session, error) {
	logger := m.logger.With(zap.String("op", "session.Simulate"), zap.String("session", id))

	req, err := m.begin(ctx, id)
	if err != nil {
		return nil, err
	}
	defer m.finish(ctx, id)

	start := m.now()
	res, err := m.simulator.Simulate(context.WithoutCancel(ctx), req)
	if err != nil {
		logger.Error("simulation failed", zap.Error(err))
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.release(ctx, id)

	s, err := m.load(ctx, id)
	if err != nil {
		logger.Warn("session disappeared while simulating", zap.Error(err))
		return nil, err
	}
	s.Results = res
	if err := m.save(ctx, s); err != nil {
		return nil, err
	}

	logger.Info("simulation stored",
		zap.Int("conditions", len(req.Conditions)),
		zap.Int("results", res.Len()),
		zap.Duration("duration", m.now().Sub(start)),
	)
	return s, nil
}

func (m *Manager) begin(ctx context.Context, id string) (simulation.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.load(ctx, id)
	if err != nil {
		return simulation.Request{}, err
	}
	if s.Store.Len() == 0 {
		return simulation.Request{}, ErrNoConditions
	}
	if m.inFlight[id] {
		return simulation.Request{}, fmt.Errorf("%w: %s", ErrSimulationInFlight, id)
	}

	if m.claimer != nil {
		ok, err := m.claimer.Claim(ctx, id, m.claimTTL)
		if err != nil {
			return simulation.Request{}, err
		}
		if !ok {
			return simulation.Request{}, fmt.Errorf("%w: %s", ErrSimulationInFlight, id)
		}
	}

	m.inFlight[id] = true
	return simulation.BuildRequest(s.Store.General(), s.Store.Conditions()), nil
}

func (m *Manager) finish(ctx context.Context, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release(ctx, id)
}

// release clears the pending flag. Callers hold m.mu.
func (m *Manager) release(ctx context.Context, id string) {
	if !m.inFlight[id] {
		return
	}
	delete(m.inFlight, id)
	if m.claimer == nil {
		return
	}
	if err := m.claimer.Release(context.WithoutCancel(ctx), id); err != nil {
		m.logger.Warn("releasing simulation claim failed",
			zap.String("op", "session.release"),
			zap.String("session", id),
			zap.Error(err),
		)
	}
}
