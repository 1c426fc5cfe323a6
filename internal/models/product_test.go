package models_test

import (
	"testing"
	"time"

	"github.com/skincare-catalog/backend/internal/models"
	"github.com/skincare-catalog/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfferReferencesProduct(t *testing.T) {
	db := testutil.DB(t)
	// the test store opens with enforcement off
	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)

	seen := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	err := db.Create(&models.Offer{OfferID: "sephora-1", ProductID: "acme__missing__", LastSeenAt: seen}).Error
	assert.Error(t, err, "an offer cannot point at an unknown product")

	require.NoError(t, db.Create(&models.Product{
		ProductID:   "acme__gel__",
		Brand:       "Acme",
		Name:        "Gel",
		ProductType: models.UncategorizedProductType,
	}).Error)
	require.NoError(t, db.Create(&models.Offer{OfferID: "sephora-1", ProductID: "acme__gel__", LastSeenAt: seen}).Error)

	err = db.Where("product_id = ?", "acme__gel__").Delete(&models.Product{}).Error
	assert.Error(t, err, "a product with offers cannot be deleted")
}
