package etl

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/skincare-catalog/backend/internal/models"
	"github.com/skincare-catalog/backend/internal/retailers"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func sephoraPayload(brand, name, variant, price string) string {
	return fmt.Sprintf(`{"brand":{"displayName":%q},"displayName":%q,"currentSku":{"variantValue":%q,"listPrice":%q},"rating":4.5}`,
		brand, name, variant, price)
}

func rawRow(offerID, retailer, payload string, seen time.Time) models.RawObservation {
	return models.RawObservation{OfferID: offerID, Retailer: retailer, Payload: payload, LastSeenAt: seen}
}

func newTestTransformer(t *testing.T, workers int) *Transformer {
	t.Helper()
	tagger, err := NewTagger(DefaultVocabulary())
	require.NoError(t, err)
	return NewTransformer(retailers.DefaultRegistry(), tagger, workers)
}

func record(offerID, productID, brand, price string, seen time.Time, tags ...string) NormalizedRecord {
	if tags == nil {
		tags = []string{}
	}
	return NormalizedRecord{
		ProductID:     productID,
		OfferID:       offerID,
		Retailer:      "sephora",
		Brand:         brand,
		Name:          "Hydra Gel",
		Variant:       "50ml",
		ProductType:   models.UncategorizedProductType,
		Price:         CleanPrice(price),
		Currency:      "USD",
		Rating:        decimal.NewNullDecimal(decimal.RequireFromString("4.5")),
		URL:           "https://www.sephora.com/p/" + offerID,
		Availability:  models.AvailabilityInStock,
		ConditionTags: tags,
		ObservedAt:    seen,
	}
}
