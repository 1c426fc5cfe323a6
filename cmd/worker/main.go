/**
 * @description
 * Worker Service Entry Point.
 * Responsible for background tasks:
 * 1. Running the reconciliation pipeline on ETL_SCHEDULE (and once at startup).
 * 2. Exposing Prometheus metrics on METRICS_ADDR.
 *
 * @dependencies
 * - backend/internal/config
 * - backend/internal/db
 * - backend/internal/scheduler
 * - backend/internal/services
 */

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skincare-catalog/backend/internal/config"
	"github.com/skincare-catalog/backend/internal/db"
	"github.com/skincare-catalog/backend/internal/etl"
	"github.com/skincare-catalog/backend/internal/logger"
	"github.com/skincare-catalog/backend/internal/metrics"
	"github.com/skincare-catalog/backend/internal/retailers"
	"github.com/skincare-catalog/backend/internal/scheduler"
	"github.com/skincare-catalog/backend/internal/services"
)

func main() {
	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}
	logger.Init(cfg.Server.Env)
	defer logger.Sync()

	logger.Info("Starting catalog worker...")

	// 2. Connect DBs
	pgDB, err := db.ConnectPostgres(cfg)
	if err != nil {
		logger.Fatal("Postgres connection failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	redisClient, err := db.ConnectRedis(ctx, cfg)
	cancel()
	if err != nil {
		logger.Fatal("Redis connection failed: %v", err)
	}
	defer redisClient.Close()

	// 3. Initialize Services
	tagger, err := etl.TaggerFromFile(cfg.ETL.VocabularyPath)
	if err != nil {
		logger.Fatal("Failed to build condition tagger: %v", err)
	}
	reg := metrics.NewRegistry()
	transformer := etl.NewTransformer(retailers.DefaultRegistry(), tagger, cfg.ETL.Workers)
	pipeline := services.NewPipelineService(pgDB, redisClient, transformer, reg, services.PipelineOptions{
		LockTTL:             cfg.ETL.RunLockTTL,
		MaxReportedFailures: cfg.ETL.MaxReportedFailures,
	})

	// 4. Metrics listener
	mux := http.NewServeMux()
	mux.Handle("/metrics", reg.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	metricsSrv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("Metrics listening on %s", cfg.Metrics.Addr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed: %v", err)
		}
	}()

	// 5. Schedule pipeline runs
	sched, err := scheduler.New(cfg.ETL.Schedule, scheduler.PipelineJob(pipeline, services.RunOptions{Limit: cfg.ETL.BatchLimit}))
	if err != nil {
		logger.Fatal("Failed to create scheduler: %v", err)
	}
	sched.Start(true)

	// 6. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := sched.Stop(shutdownCtx); err != nil {
		logger.Error("Error stopping scheduler: %v", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error stopping metrics server: %v", err)
	}
	logger.Info("Worker exited.")
}
