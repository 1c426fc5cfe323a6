package db

import (
	"fmt"

	"github.com/skincare-catalog/backend/internal/models"
	"gorm.io/gorm"
)

// Migrate creates or updates the staging, canonical and aggregate tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
