// Package scheduler periodically promotes scheduled content and sunsets
// expired live content.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/tendant/simple-cms/pkg/simplecms"
)

// DefaultSpec runs the schedule once a minute.
const DefaultSpec = "@every 1m"

// Runner is the part of simplecms.Service the scheduler drives.
type Runner interface {
	RunSchedule(ctx context.Context) (*simplecms.ScheduleResult, error)
}

// Scheduler runs Runner.RunSchedule on a cron spec. Overlapping runs are skipped.
type Scheduler struct {
	runner Runner
	spec   string
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

// New validates spec and prepares a stopped scheduler.
func New(runner Runner, spec string) (*Scheduler, error) {
	if runner == nil {
		return nil, fmt.Errorf("runner is required")
	}
	if spec == "" {
		spec = DefaultSpec
	}
	s := &Scheduler{
		runner: runner,
		spec:   spec,
		cron:   cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	if _, err := s.cron.AddFunc(spec, func() { s.RunOnce(s.ctx) }); err != nil {
		s.cancel()
		return nil, fmt.Errorf("invalid schedule spec %q: %w", spec, err)
	}
	return s, nil
}

// RunOnce runs the schedule immediately.
func (s *Scheduler) RunOnce(ctx context.Context) {
	result, err := s.runner.RunSchedule(ctx)
	if err != nil {
		slog.Error("Schedule run failed", "error", err)
		return
	}
	if result.Published > 0 || result.Sunset > 0 {
		slog.Info("Schedule run", "published", result.Published, "sunset", result.Sunset)
	}
}

// Start begins running in the background.
func (s *Scheduler) Start() {
	slog.Info("Scheduler started", "spec", s.spec)
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running job to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	s.cancel()
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
	slog.Info("Scheduler stopped")
}
