package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/iwvelando/mortgage-simulator/internal/conditions"
	"github.com/iwvelando/mortgage-simulator/internal/mortgage"
	"github.com/iwvelando/mortgage-simulator/internal/results"
	"github.com/iwvelando/mortgage-simulator/internal/simulation"
	"github.com/iwvelando/mortgage-simulator/pkg/constants"
	"github.com/iwvelando/mortgage-simulator/pkg/format"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

type fakeSimulator struct {
	mu       sync.Mutex
	calls    int
	requests []simulation.Request
	results  *simulation.Results
	err      error
	block    chan struct{}
	started  chan struct{}
}

func (f *fakeSimulator) Simulate(_ context.Context, req simulation.Request) (*simulation.Results, error) {
	f.mu.Lock()
	f.calls++
	f.requests = append(f.requests, req)
	block, started := f.block, f.started
	res, err := f.results, f.err
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if block != nil {
		<-block
	}
	return res, err
}

func (f *fakeSimulator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testCodecs() conditions.Codecs {
	return conditions.Codecs{
		Currency:   format.NewCurrencyCodec(language.English, currency.EUR, "prefix"),
		Percentage: format.NewPercentageCodec(language.English, 100),
		Years:      format.YearsCodec{},
	}
}

func newTestManager(sim simulation.Simulator) (*Manager, *MemoryRepository) {
	repo := NewMemoryRepository(time.Hour)
	defaults := Defaults{General: mortgage.DefaultGeneralInput(), Condition: mortgage.DefaultCondition()}
	return NewManager(repo, sim, testCodecs(), defaults, nil), repo
}

func sampleResults(totalPaid float64) *simulation.Results {
	res := simulation.NewResults()
	res.Add("Condition 1", []simulation.Entry{{TotalPaid: totalPaid, Type: "fixed"}})
	return res
}

func addCondition(t *testing.T, m *Manager, id string) {
	t.Helper()
	_, err := m.Update(context.Background(), id, func(s *Session) error {
		s.Store.AddCondition()
		return nil
	})
	require.NoError(t, err)
}

func TestCreateAndGet(t *testing.T) {
	m, _ := newTestManager(&fakeSimulator{})
	ctx := context.Background()

	s, err := m.Create(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, results.DefaultMetric, s.Metric)
	assert.False(t, s.CanSubmit())
	assert.False(t, s.HasResults())

	got, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, mortgage.DefaultGeneralInput(), got.Store.General())

	_, err = m.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestUpdatePersistsWarningsWithFieldError(t *testing.T) {
	m, _ := newTestManager(&fakeSimulator{})
	ctx := context.Background()
	s, err := m.Create(ctx)
	require.NoError(t, err)
	addCondition(t, m, s.ID)

	updated, err := m.Update(ctx, s.ID, func(s *Session) error {
		return s.Store.UpdateConditionField(0, mortgage.FieldRate, "abc")
	})
	require.ErrorIs(t, err, conditions.ErrInvalidInput)
	require.NotNil(t, updated)

	got, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, conditions.InvalidNumberWarning, got.Store.Warnings()["condition-0-rate"])
	assert.Equal(t, 0.02, got.Store.Conditions()[0].Rate)
}

func TestSimulateWithoutConditionsNeverCallsService(t *testing.T) {
	sim := &fakeSimulator{results: sampleResults(1)}
	m, _ := newTestManager(sim)
	ctx := context.Background()
	s, err := m.Create(ctx)
	require.NoError(t, err)

	_, err = m.Simulate(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNoConditions)
	assert.Zero(t, sim.callCount())

	got, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, got.Simulating)
}

func TestSimulateStoresResults(t *testing.T) {
	sim := &fakeSimulator{results: sampleResults(100000)}
	m, _ := newTestManager(sim)
	ctx := context.Background()
	s, err := m.Create(ctx)
	require.NoError(t, err)
	addCondition(t, m, s.ID)

	got, err := m.Simulate(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, got.HasResults())
	assert.False(t, got.Simulating)
	assert.Equal(t, []string{"Condition 1"}, got.Results.Names())

	require.Len(t, sim.requests, 1)
	assert.Equal(t, "Condition 1", sim.requests[0].Conditions[0].Name)

	reloaded, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 100000.0, reloaded.Results.Entries("Condition 1")[0].TotalPaid)
}

func TestSimulateFailureKeepsPriorResults(t *testing.T) {
	sim := &fakeSimulator{results: sampleResults(100000)}
	m, _ := newTestManager(sim)
	ctx := context.Background()
	s, err := m.Create(ctx)
	require.NoError(t, err)
	addCondition(t, m, s.ID)

	_, err = m.Simulate(ctx, s.ID)
	require.NoError(t, err)

	sim.mu.Lock()
	sim.err = &simulation.StatusError{StatusCode: 500}
	sim.results = nil
	sim.mu.Unlock()

	_, err = m.Simulate(ctx, s.ID)
	require.ErrorIs(t, err, simulation.ErrSimulationFailed)

	got, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, got.Simulating)
	require.True(t, got.HasResults())
	assert.Equal(t, 100000.0, got.Results.Entries("Condition 1")[0].TotalPaid)

	// A failure with no earlier run leaves results unset.
	fresh, err := m.Create(ctx)
	require.NoError(t, err)
	addCondition(t, m, fresh.ID)
	_, err = m.Simulate(ctx, fresh.ID)
	require.Error(t, err)
	got, err = m.Get(ctx, fresh.ID)
	require.NoError(t, err)
	assert.False(t, got.HasResults())
	assert.True(t, got.CanSubmit())
}

func TestSimulateRejectsConcurrentSubmitAndAllowsEdits(t *testing.T) {
	sim := &fakeSimulator{
		results: sampleResults(1),
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	m, _ := newTestManager(sim)
	ctx := context.Background()
	s, err := m.Create(ctx)
	require.NoError(t, err)
	addCondition(t, m, s.ID)

	done := make(chan error, 1)
	go func() {
		_, err := m.Simulate(ctx, s.ID)
		done <- err
	}()
	<-sim.started

	_, err = m.Simulate(ctx, s.ID)
	assert.ErrorIs(t, err, ErrSimulationInFlight)

	pending, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, pending.Simulating)
	assert.False(t, pending.CanSubmit())

	_, err = m.Update(ctx, s.ID, func(s *Session) error {
		return s.Store.UpdateConditionField(0, mortgage.FieldName, "renamed")
	})
	require.NoError(t, err)

	close(sim.block)
	require.NoError(t, <-done)

	assert.Equal(t, 1, sim.callCount())
	assert.Equal(t, "Condition 1", sim.requests[0].Conditions[0].Name)

	got, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Store.Conditions()[0].Name)
	assert.True(t, got.HasResults())
	assert.False(t, got.Simulating)
}

func TestSelectMetric(t *testing.T) {
	m, _ := newTestManager(&fakeSimulator{})
	ctx := context.Background()
	s, err := m.Create(ctx)
	require.NoError(t, err)

	got, err := m.SelectMetric(ctx, s.ID, "total_paid")
	require.NoError(t, err)
	assert.Equal(t, results.MetricTotalPaid, got.Metric)

	_, err = m.SelectMetric(ctx, s.ID, "total_capital_paid")
	assert.ErrorIs(t, err, results.ErrUnknownMetric)

	got, err = m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, results.MetricTotalPaid, got.Metric)
}

func TestDelete(t *testing.T) {
	m, repo := newTestManager(&fakeSimulator{})
	ctx := context.Background()
	s, err := m.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx, s.ID))
	assert.Zero(t, repo.Len())
	assert.ErrorIs(t, m.Delete(ctx, s.ID), ErrSessionNotFound)
}

func TestMemoryRepositorySweep(t *testing.T) {
	repo := NewMemoryRepository(time.Hour)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "old", Snapshot{}))
	now = now.Add(50 * time.Minute)
	require.NoError(t, repo.Save(ctx, "new", Snapshot{}))
	now = now.Add(20 * time.Minute)

	assert.Equal(t, 1, repo.Sweep())
	_, err := repo.Load(ctx, "old")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = repo.Load(ctx, "new")
	assert.NoError(t, err)

	forever := NewMemoryRepository(0)
	require.NoError(t, forever.Save(ctx, "a", Snapshot{}))
	assert.Zero(t, forever.Sweep())
}

func TestSweeperRun(t *testing.T) {
	repo := NewMemoryRepository(time.Minute)
	now := time.Now()
	repo.now = func() time.Time { return now }
	require.NoError(t, repo.Save(context.Background(), "idle", Snapshot{}))
	now = now.Add(time.Hour)

	sweeper, err := NewSweeper(repo, "@every 10m", nil)
	require.NoError(t, err)
	sweeper.Run()
	assert.Zero(t, repo.Len())

	_, err = NewSweeper(repo, "not a schedule", nil)
	assert.Error(t, err)

	sweeper.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	sweeper.Stop(ctx)
}

func TestRedisRepositoryRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	repo := NewRedisRepository(client, "test:", time.Hour)
	ctx := context.Background()
	require.NoError(t, repo.Ping(ctx))

	store := conditions.NewStore(testCodecs(), mortgage.DefaultGeneralInput(), mortgage.DefaultCondition())
	store.AddCondition()
	require.Error(t, store.UpdateConditionField(0, mortgage.FieldTotalYears, "ten"))

	snap := Snapshot{
		Conditions: store.Snapshot(),
		Results:    sampleResults(42),
		Metric:     results.MetricTotalPaid,
		UpdatedAt:  time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Save(ctx, "abc", snap))
	assert.True(t, mr.Exists("test:abc"))
	assert.Equal(t, time.Hour, mr.TTL("test:abc"))

	loaded, err := repo.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, snap.Conditions, loaded.Conditions)
	assert.Equal(t, snap.Metric, loaded.Metric)
	assert.True(t, snap.UpdatedAt.Equal(loaded.UpdatedAt))
	assert.Equal(t, []string{"Condition 1"}, loaded.Results.Names())

	mr.FastForward(2 * time.Hour)
	_, err = repo.Load(ctx, "abc")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, "abc"), ErrSessionNotFound)
}

func TestManagerWithRedisRepository(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	repo := NewRedisRepository(client, "mortgage:session:", time.Hour)
	sim := &fakeSimulator{results: sampleResults(7)}
	m := NewManager(repo, sim, testCodecs(), Defaults{General: mortgage.DefaultGeneralInput(), Condition: mortgage.DefaultCondition()}, nil)
	ctx := context.Background()

	s, err := m.Create(ctx)
	require.NoError(t, err)
	addCondition(t, m, s.ID)

	got, err := m.Simulate(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, got.HasResults())

	require.NoError(t, m.Delete(ctx, s.ID))
	_, err = m.Get(ctx, s.ID)
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}

func TestSimulateClaimSharedAcrossManagers(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	defaults := Defaults{General: mortgage.DefaultGeneralInput(), Condition: mortgage.DefaultCondition()}
	blocking := &fakeSimulator{
		results: sampleResults(1),
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	other := &fakeSimulator{results: sampleResults(2)}
	first := NewManager(NewRedisRepository(client, "test:", time.Hour), blocking, testCodecs(), defaults, nil)
	second := NewManager(NewRedisRepository(client, "test:", time.Hour), other, testCodecs(), defaults, nil)
	ctx := context.Background()

	s, err := first.Create(ctx)
	require.NoError(t, err)
	addCondition(t, first, s.ID)

	done := make(chan error, 1)
	go func() {
		_, err := first.Simulate(ctx, s.ID)
		done <- err
	}()
	<-blocking.started

	assert.True(t, mr.Exists("test:"+s.ID+":simulating"))
	assert.Equal(t, constants.DefaultSimulationClaimTTL, mr.TTL("test:"+s.ID+":simulating"))

	_, err = second.Simulate(ctx, s.ID)
	assert.ErrorIs(t, err, ErrSimulationInFlight)
	assert.Equal(t, 0, other.callCount())

	pending, err := second.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, pending.Simulating)

	close(blocking.block)
	require.NoError(t, <-done)
	assert.False(t, mr.Exists("test:"+s.ID+":simulating"))

	got, err := second.Simulate(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, got.Simulating)
	assert.Equal(t, 1, other.callCount())
}

func TestSimulateClaimExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	repo := NewRedisRepository(client, "test:", time.Hour)
	sim := &fakeSimulator{results: sampleResults(3)}
	m := NewManager(repo, sim, testCodecs(), Defaults{General: mortgage.DefaultGeneralInput(), Condition: mortgage.DefaultCondition()}, nil)
	ctx := context.Background()

	s, err := m.Create(ctx)
	require.NoError(t, err)
	addCondition(t, m, s.ID)

	// A claim left behind by an instance that died mid-call.
	ok, err := repo.Claim(ctx, s.ID, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = m.Simulate(ctx, s.ID)
	assert.ErrorIs(t, err, ErrSimulationInFlight)

	mr.FastForward(2 * time.Minute)
	_, err = m.Simulate(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, sim.callCount())
}
