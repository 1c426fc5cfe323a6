/**
 * @description
 * PostgreSQL connection manager using GORM.
 * Opens the catalog database, sizes the pool for the pipeline workers and applies migrations.
 *
 * @dependencies
 * - gorm.io/gorm: ORM library
 * - gorm.io/driver/postgres: Postgres driver
 *
 * @notes
 * - A pipeline run holds one connection for its load transaction while the transform
 *   workers and the API share the rest.
 */

package db

import (
	"fmt"
	"time"

	"github.com/skincare-catalog/backend/internal/config"
	"github.com/skincare-catalog/backend/internal/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// apiConns is the share of the pool reserved for API queries and the run lock bookkeeping.
const apiConns = 6

// ConnectPostgres opens the catalog database and, when cfg.DB.AutoMigrate is set,
// brings the schema up to date.
func ConnectPostgres(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DB.URL,
		PreferSimpleProtocol: true, // disable prepared statements to avoid stmtcache collisions behind poolers
	}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogLevel(cfg.Server.Env)),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	maxOpen, maxIdle := poolLimits(cfg)
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	logger.Info("Connected to PostgreSQL (max_open=%d max_idle=%d)", maxOpen, maxIdle)

	if cfg.DB.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
		logger.Info("Catalog schema migrated")
	}
	return db, nil
}

// poolLimits honours DB_MAX_OPEN_CONNS, otherwise leaves one connection per transform
// worker on top of the API share.
func poolLimits(cfg *config.Config) (maxOpen, maxIdle int) {
	maxOpen = cfg.DB.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = cfg.ETL.Workers + apiConns
	}
	maxIdle = maxOpen / 2
	if maxIdle < 1 {
		maxIdle = 1
	}
	return maxOpen, maxIdle
}

func gormLogLevel(env string) gormLogger.LogLevel {
	switch env {
	case "development", "staging":
		return gormLogger.Warn
	case "test":
		return gormLogger.Silent
	default:
		return gormLogger.Error
	}
}
