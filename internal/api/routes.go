/**
 * @description
 * API Route definitions.
 * Sets up the router groups and assigns handlers.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/api/handlers
 * - backend/internal/api/middleware
 * - backend/internal/services
 */

package api

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"github.com/skincare-catalog/backend/internal/api/handlers"
	"github.com/skincare-catalog/backend/internal/api/middleware"
	"github.com/skincare-catalog/backend/internal/config"
	"github.com/skincare-catalog/backend/internal/etl"
	"github.com/skincare-catalog/backend/internal/metrics"
	"github.com/skincare-catalog/backend/internal/retailers"
	"github.com/skincare-catalog/backend/internal/services"
	"gorm.io/gorm"
)

// SetupRoutes configures all API routes. The returned AdminAuth must be closed on shutdown.
func SetupRoutes(app *fiber.App, db *gorm.DB, rdb *redis.Client, cfg *config.Config, m *metrics.Registry) (*middleware.AdminAuth, error) {
	// 1. Initialize Middleware
	auth, err := middleware.NewAdminAuth(cfg.Auth)
	if err != nil {
		return nil, err
	}

	// 2. Initialize Services
	tagger, err := etl.TaggerFromFile(cfg.ETL.VocabularyPath)
	if err != nil {
		auth.Close()
		return nil, fmt.Errorf("failed to build condition tagger: %w", err)
	}
	transformer := etl.NewTransformer(retailers.DefaultRegistry(), tagger, cfg.ETL.Workers)

	catalogService := services.NewCatalogService(db, rdb, cfg.Server.CacheTTL)
	pipelineService := services.NewPipelineService(db, rdb, transformer, m, services.PipelineOptions{
		LockTTL:             cfg.ETL.RunLockTTL,
		MaxReportedFailures: cfg.ETL.MaxReportedFailures,
	})

	// 3. Initialize Handlers
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	observationHandler := handlers.NewObservationHandler(pipelineService.Observations)
	etlHandler := handlers.NewETLHandler(pipelineService)

	// 4. Define Routes
	app.Get("/metrics", adaptor.HTTPHandler(pipelineService.Metrics.Handler()))

	api := app.Group("/api")
	v1 := api.Group("/v1")

	// Public Routes
	v1.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	v1.Post("/recommend", catalogHandler.Recommend)

	// Crawler + operator routes (Protected)
	v1.Post("/observations", auth.AdminOnly(), observationHandler.Ingest)

	etlGroup := v1.Group("/etl", auth.AdminOnly())
	etlGroup.Post("/runs", etlHandler.TriggerRun)
	etlGroup.Get("/queue", etlHandler.QueueDepth)

	return auth, nil
}
