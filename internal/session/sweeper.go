package session

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweepable is a repository whose idle entries must be removed explicitly.
type Sweepable interface {
	Sweep() int
}

// Sweeper runs Sweep on a cron schedule.
type Sweeper struct {
	cron   *cron.Cron
	target Sweepable
	logger *zap.Logger
}

// NewSweeper schedules target.Sweep with a standard cron spec or a
// descriptor such as "@every 10m".
func NewSweeper(target Sweepable, schedule string, logger *zap.Logger) (*Sweeper, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Sweeper{cron: cron.New(), target: target, logger: logger}
	if _, err := s.cron.AddFunc(schedule, s.Run); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Run sweeps once.
func (s *Sweeper) Run() {
	removed := s.target.Sweep()
	if removed > 0 {
		s.logger.Info("removed idle sessions",
			zap.String("op", "session.Sweep"),
			zap.Int("removed", removed),
		)
	}
}

// Start begins the schedule in the background.
func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop ends the schedule and waits for a running sweep until ctx is done.
func (s *Sweeper) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
