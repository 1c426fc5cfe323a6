package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/skincare-catalog/backend/internal/etl"
	"github.com/skincare-catalog/backend/internal/logger"
	"github.com/skincare-catalog/backend/internal/services"
)

// Runner is the part of the pipeline the scheduler drives.
type Runner interface {
	Run(ctx context.Context, opts services.RunOptions) (*etl.RunReport, error)
}

// PipelineJob adapts a pipeline run into a scheduled job. A run skipped because another
// process holds the lock is not an error.
func PipelineJob(r Runner, opts services.RunOptions) func(ctx context.Context) {
	return func(ctx context.Context) {
		_, err := r.Run(ctx, opts)
		switch {
		case err == nil:
		case errors.Is(err, services.ErrRunInProgress):
			logger.Info("Scheduled run skipped: %v", err)
		case errors.Is(err, context.Canceled):
			logger.Warn("Scheduled run cancelled")
		default:
			logger.Error("Scheduled run failed: %v", err)
		}
	}
}

// Scheduler triggers pipeline runs on a standard five-field cron spec.
// Overlapping ticks are skipped rather than queued.
type Scheduler struct {
	cron   *cron.Cron
	spec   string
	run    func(ctx context.Context)
	ctx    context.Context
	cancel context.CancelFunc
}

// New validates spec and wires job. job receives a context cancelled by Stop.
func New(spec string, job func(ctx context.Context)) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		spec:   spec,
		run:    job,
		ctx:    ctx,
		cancel: cancel,
	}
	if _, err := s.cron.AddFunc(spec, func() { s.run(s.ctx) }); err != nil {
		cancel()
		return nil, err
	}
	return s, nil
}

// Start begins the cron loop. With runNow the job also fires once immediately, in the background.
func (s *Scheduler) Start(runNow bool) {
	s.cron.Start()
	logger.Info("Scheduler started (%s), next run at %s", s.spec, s.Next().Format(time.RFC3339))
	if runNow {
		go s.run(s.ctx)
	}
}

// Next returns the time of the next scheduled run.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	if !entries[0].Next.IsZero() {
		return entries[0].Next
	}
	return entries[0].Schedule.Next(time.Now())
}

// Stop cancels in-flight jobs and waits for them, or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return errors.New("scheduler: timed out waiting for running jobs")
	}
}
