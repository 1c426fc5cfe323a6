/**
 * @description
 * Service layer for reconciliation runs.
 * One run: fetch unsynced observations -> transform -> load -> refresh aggregates.
 *
 * @dependencies
 * - backend/internal/etl
 * - backend/internal/metrics
 * - github.com/redis/go-redis/v9: run lock and catalog version
 * - github.com/google/uuid: run ids
 *
 * @notes
 * - Runs are serialized by a Redis lock. A second caller gets ErrRunInProgress and touches nothing.
 * - A load failure is returned as an error; a refresh failure is only reported, the load stays committed.
 */

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/skincare-catalog/backend/internal/etl"
	"github.com/skincare-catalog/backend/internal/logger"
	"github.com/skincare-catalog/backend/internal/metrics"
	"gorm.io/gorm"
)

const (
	RunLockKey        = "etl:run_lock"
	CatalogVersionKey = "catalog:version"

	defaultRunLockTTL = 15 * time.Minute
)

var ErrRunInProgress = errors.New("pipeline run already in progress")

// releaseLockScript deletes the lock only if this run still owns it.
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RunOptions struct {
	Limit       int  // 0 means every unsynced observation
	DryRun      bool // transform only; records are returned in the report
	SkipRefresh bool
}

type PipelineOptions struct {
	LockTTL             time.Duration
	MaxReportedFailures int
}

type PipelineService struct {
	Observations *ObservationService
	Transformer  *etl.Transformer
	Loader       *etl.Loader
	Refresher    *etl.Refresher
	Redis        *redis.Client
	Metrics      *metrics.Registry
	opts         PipelineOptions
}

func NewPipelineService(db *gorm.DB, rdb *redis.Client, transformer *etl.Transformer, m *metrics.Registry, opts PipelineOptions) *PipelineService {
	if m == nil {
		m = metrics.NewRegistry()
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = defaultRunLockTTL
	}
	return &PipelineService{
		Observations: NewObservationService(db, m),
		Transformer:  transformer,
		Loader:       etl.NewLoader(db),
		Refresher:    etl.NewRefresher(db),
		Redis:        rdb,
		Metrics:      m,
		opts:         opts,
	}
}

// Run executes one pipeline run. The returned report is non-nil whenever the lock was acquired,
// including when err is a *etl.LoadError.
func (s *PipelineService) Run(ctx context.Context, opts RunOptions) (*etl.RunReport, error) {
	report := &etl.RunReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		DryRun:    opts.DryRun,
		Failures:  []etl.RowFailure{},
	}

	unlock, err := s.acquireRunLock(ctx, report.RunID)
	if err != nil {
		if errors.Is(err, ErrRunInProgress) {
			s.Metrics.RunsSkipped.Inc()
		}
		return nil, err
	}
	defer unlock()

	err = s.run(ctx, opts, report)
	report.Duration = time.Since(report.StartedAt)

	outcome := "ok"
	switch {
	case err != nil:
		outcome = "failed"
	case report.RefreshError != "":
		outcome = "refresh_failed"
	case opts.DryRun:
		outcome = "dry_run"
	}
	s.Metrics.RunDurationSec.WithLabelValues(outcome).Observe(report.Duration.Seconds())

	if err != nil {
		logger.Error("ETL run %s failed after %s: %v", report.RunID, report.Duration, err)
		return report, err
	}
	if !opts.DryRun && report.RefreshError == "" {
		s.Metrics.LastSuccessUnix.SetToCurrentTime()
	}
	logger.Info("ETL run %s: pulled=%d extracted=%d dropped=%d loaded=%d warnings=%d dry_run=%t (%s)",
		report.RunID, report.Pulled, report.Extracted, report.Dropped, report.Loaded, report.CleaningWarnings, report.DryRun, report.Duration)
	return report, nil
}

func (s *PipelineService) run(ctx context.Context, opts RunOptions, report *etl.RunReport) error {
	rows, err := s.Observations.FetchUnsynced(ctx, opts.Limit)
	if err != nil {
		return err
	}
	report.Pulled = len(rows)
	s.Metrics.RowsPulled.Add(float64(len(rows)))

	result, err := s.Transformer.Transform(ctx, rows)
	if err != nil {
		return err
	}
	report.Extracted = len(result.Records)
	report.CleaningWarnings = result.CleaningWarnings
	report.AddFailures(result.Failures, s.opts.MaxReportedFailures)
	s.Metrics.RowsExtracted.Add(float64(len(result.Records)))
	s.Metrics.CleaningWarns.Add(float64(result.CleaningWarnings))
	for _, f := range result.Failures {
		s.Metrics.RowsDropped.WithLabelValues(string(f.Kind)).Inc()
	}

	if opts.DryRun {
		report.Records = result.Records
		return nil
	}

	loaded, err := s.Loader.Load(ctx, result.Records)
	// rows still unsynced after the load move behind the rest of the queue
	if markErr := s.Observations.MarkAttempted(ctx, rows); markErr != nil {
		logger.Warn("ETL run %s: %v", report.RunID, markErr)
	}
	if err != nil {
		report.LoadError = err.Error()
		s.Metrics.LoadFailures.Inc()
		return err
	}
	report.Load = &loaded
	report.Loaded = loaded.Records
	s.Metrics.RowsLoaded.Add(float64(loaded.Records))

	if opts.SkipRefresh {
		return nil
	}
	n, err := s.Refresher.Refresh(ctx)
	if err != nil {
		report.RefreshError = err.Error()
		s.Metrics.RefreshFailures.Inc()
		logger.Error("ETL run %s: aggregate refresh failed, serving stale aggregates: %v", report.RunID, err)
		return nil
	}
	report.AggregateRows = n
	s.bumpCatalogVersion(ctx)
	return nil
}

func (s *PipelineService) acquireRunLock(ctx context.Context, runID string) (func(), error) {
	if s.Redis == nil {
		return func() {}, nil
	}
	ok, err := s.Redis.SetNX(ctx, RunLockKey, runID, s.opts.LockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !ok {
		return nil, ErrRunInProgress
	}
	return func() {
		// the run context may already be cancelled
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseLockScript.Run(releaseCtx, s.Redis, []string{RunLockKey}, runID).Err(); err != nil {
			logger.Warn("failed to release run lock %s: %v", runID, err)
		}
	}, nil
}

// bumpCatalogVersion invalidates every cached query result built on the previous aggregates.
func (s *PipelineService) bumpCatalogVersion(ctx context.Context) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Incr(ctx, CatalogVersionKey).Err(); err != nil {
		logger.Warn("failed to bump catalog version: %v", err)
	}
}
