/**
 * @description
 * One-shot pipeline runner.
 * Pulls unsynced raw observations, merges them into the catalog and refreshes the aggregates.
 *
 * @dependencies
 * - backend/internal/config
 * - backend/internal/db
 * - backend/internal/services
 *
 * @notes
 * - Falls back to an in-memory Redis when REDIS_URL is unreachable; the run lock then only guards this process.
 * - Exit status is 1 when the load was rolled back, 0 otherwise (refresh failures are reported, not fatal).
 */

package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/skincare-catalog/backend/internal/config"
	"github.com/skincare-catalog/backend/internal/db"
	"github.com/skincare-catalog/backend/internal/etl"
	"github.com/skincare-catalog/backend/internal/logger"
	"github.com/skincare-catalog/backend/internal/retailers"
	"github.com/skincare-catalog/backend/internal/services"
)

func main() {
	limit := flag.Int("limit", -1, "max unsynced observations to pull (default ETL_BATCH_LIMIT, 0 = all)")
	dryRun := flag.Bool("dry-run", false, "transform only and print the normalized records")
	noRefresh := flag.Bool("no-refresh", false, "skip the aggregate refresh after loading")
	asJSON := flag.Bool("json", false, "print the run report as JSON")
	migrate := flag.Bool("migrate", true, "apply schema migrations before running (also DB_AUTO_MIGRATE)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config: %v", err)
	}
	logger.Init(cfg.Server.Env)
	defer logger.Sync()

	if *limit < 0 {
		*limit = cfg.ETL.BatchLimit
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !*migrate {
		cfg.DB.AutoMigrate = false
	}
	pgDB, err := db.ConnectPostgres(cfg)
	if err != nil {
		logger.Fatal("failed to connect to postgres: %v", err)
	}

	redisClient, err := db.ConnectRedis(ctx, cfg)
	if err != nil {
		logger.Warn("redis unavailable (%v), using in-memory redis", err)
		mr, mrErr := miniredis.Run()
		if mrErr != nil {
			logger.Fatal("failed to start in-memory redis: %v", mrErr)
		}
		defer mr.Close()
		redisClient = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	}
	defer redisClient.Close()

	tagger, err := etl.TaggerFromFile(cfg.ETL.VocabularyPath)
	if err != nil {
		logger.Fatal("failed to build condition tagger: %v", err)
	}
	transformer := etl.NewTransformer(retailers.DefaultRegistry(), tagger, cfg.ETL.Workers)
	pipeline := services.NewPipelineService(pgDB, redisClient, transformer, nil, services.PipelineOptions{
		LockTTL:             cfg.ETL.RunLockTTL,
		MaxReportedFailures: cfg.ETL.MaxReportedFailures,
	})

	logger.Info("Starting pipeline run (limit=%d dry_run=%t)", *limit, *dryRun)
	report, err := pipeline.Run(ctx, services.RunOptions{
		Limit:       *limit,
		DryRun:      *dryRun,
		SkipRefresh: *noRefresh,
	})
	if report == nil {
		logger.Fatal("pipeline run failed: %v", err)
	}

	if *asJSON || *dryRun {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(report); encErr != nil {
			logger.Error("failed to encode report: %v", encErr)
		}
	} else {
		printSummary(report)
	}

	if err != nil {
		logger.Sync()
		os.Exit(1)
	}
}

func printSummary(r *etl.RunReport) {
	logger.Info("Run %s finished in %s", r.RunID, r.Duration)
	logger.Info("  pulled=%d extracted=%d dropped=%d loaded=%d cleaning_warnings=%d",
		r.Pulled, r.Extracted, r.Dropped, r.Loaded, r.CleaningWarnings)
	if r.Load != nil {
		logger.Info("  new_products=%d offers_upserted=%d new_price_points=%d new_condition_tags=%d synced=%d",
			r.Load.NewProducts, r.Load.OffersUpserted, r.Load.NewPricePoints, r.Load.NewConditionTags, r.Load.ObservationsSynced)
	}
	for _, f := range r.Failures {
		logger.Warn("  dropped %s (%s, %s): %s", f.OfferID, f.Retailer, f.Kind, f.Message)
	}
	if r.Dropped > len(r.Failures) {
		logger.Warn("  ... and %d more dropped rows", r.Dropped-len(r.Failures))
	}
	if r.LoadError != "" {
		logger.Error("  load rolled back: %s", r.LoadError)
	}
	if r.RefreshError != "" {
		logger.Error("  aggregate refresh failed: %s", r.RefreshError)
	}
}
