/**
 * @description
 * Main entry point for the catalog API.
 * Initializes the Fiber web server, loads configuration, and sets up routes.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2: Web framework
 * - backend/internal/config: Config loader
 * - backend/internal/db: Database connections
 * - backend/internal/api: Routes
 *
 * @notes
 * - Connects to Postgres and Redis on startup; migrations run unless DB_AUTO_MIGRATE=false.
 * - Sets up basic middleware (CORS, Logger, Recover).
 */

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/skincare-catalog/backend/internal/api"
	"github.com/skincare-catalog/backend/internal/config"
	"github.com/skincare-catalog/backend/internal/db"
	"github.com/skincare-catalog/backend/internal/logger"
	"github.com/skincare-catalog/backend/internal/metrics"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}
	logger.Init(cfg.Server.Env)
	defer logger.Sync()

	// 2. Initialize Database Connections
	pgDB, err := db.ConnectPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to Postgres: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	redisClient, err := db.ConnectRedis(ctx, cfg)
	cancel()
	if err != nil {
		logger.Fatal("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// 3. Initialize Fiber App
	app := fiber.New(fiber.Config{
		AppName:       "Skincare Catalog API",
		StrictRouting: true,
		CaseSensitive: true,
		ReadTimeout:   15 * time.Second,
		// synchronous pipeline runs from the operator endpoint can take a while
		WriteTimeout: 10 * time.Minute,
	})

	// 4. Global Middleware
	app.Use(recover.New())     // Panic recovery
	app.Use(fiberlogger.New()) // Request logging
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	// Liveness probe, outside the versioned API
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// 5. Routes
	auth, err := api.SetupRoutes(app, pgDB, redisClient, cfg, metrics.NewRegistry())
	if err != nil {
		logger.Fatal("Failed to set up routes: %v", err)
	}
	defer auth.Close()

	// 6. Start Server
	go func() {
		logger.Info("Starting catalog API on port %s", cfg.Server.Port)
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down API...")
	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		logger.Error("Error during shutdown: %v", err)
	}
}
