package etl

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/skincare-catalog/backend/internal/logger"
	"github.com/skincare-catalog/backend/internal/models"
	"github.com/skincare-catalog/backend/internal/retailers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.SetNop()
}

func TestTransform_SephoraScenario(t *testing.T) {
	rows := []models.RawObservation{rawRow("sephora-123", "sephora",
		`{"brand":{"displayName":"Acme"},"displayName":"Hydra Gel","currentSku":{"variantValue":"50ml","listPrice":"$25.00"},"rating":4.5}`, t0)}

	res, err := newTestTransformer(t, 1).Transform(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Empty(t, res.Failures)

	rec := res.Records[0]
	assert.Equal(t, "acme__hydra-gel__50ml", rec.ProductID)
	assert.Equal(t, "sephora-123", rec.OfferID)
	assert.Equal(t, "sephora", rec.Retailer)
	assert.Equal(t, "Acme", rec.Brand)
	assert.Equal(t, "Hydra Gel", rec.Name)
	assert.Equal(t, "50ml", rec.Variant)
	assert.True(t, rec.Price.Valid)
	assert.True(t, rec.Price.Decimal.Equal(decimal.RequireFromString("25.00")))
	assert.True(t, rec.Rating.Valid)
	assert.True(t, rec.Rating.Decimal.Equal(decimal.RequireFromString("4.5")))
	assert.Equal(t, t0, rec.ObservedAt)
	assert.Equal(t, []string{}, rec.ConditionTags)
}

func TestTransform_DropsMalformedRow(t *testing.T) {
	var rows []models.RawObservation
	for i := 0; i < 9; i++ {
		rows = append(rows, rawRow(fmt.Sprintf("sephora-%d", i), "sephora",
			sephoraPayload("Acme", fmt.Sprintf("Gel %d", i), "50ml", "$10.00"), t0))
	}
	rows = append(rows[:4], append([]models.RawObservation{rawRow("sephora-bad", "sephora", `{"displayName": "Gel`, t0)}, rows[4:]...)...)

	res, err := newTestTransformer(t, 4).Transform(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, res.Records, 9)
	require.Len(t, res.Failures, 1)

	f := res.Failures[0]
	assert.Equal(t, "sephora-bad", f.OfferID)
	assert.Equal(t, FailureMalformedPayload, f.Kind)
	assert.True(t, errors.Is(f, ErrMalformedPayload))

	// order of the surviving rows is the input order
	for i, rec := range res.Records {
		assert.Equal(t, fmt.Sprintf("sephora-%d", i), rec.OfferID)
	}
}

func TestTransform_UnknownRetailerAndMissingFields(t *testing.T) {
	rows := []models.RawObservation{
		rawRow("boots-1", "boots", sephoraPayload("Acme", "Gel", "", "$1"), t0),
		rawRow("sephora-2", "sephora", `{"brand":{"displayName":"Acme"}}`, t0),
		rawRow("", "sephora", sephoraPayload("Acme", "Gel", "", "$1"), t0),
		rawRow("ulta-3", "ULTA", `{"name":"Glow Drops","brand":{"name":"Shine"},"pricing":{"listPrice":"$9"}}`, t0),
	}

	res, err := newTestTransformer(t, 2).Transform(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "ulta", res.Records[0].Retailer)

	kinds := map[string]FailureKind{}
	for _, f := range res.Failures {
		kinds[f.OfferID] = f.Kind
	}
	assert.Equal(t, map[string]FailureKind{
		"boots-1":   FailureUnknownRetailer,
		"sephora-2": FailureMissingField,
		"":          FailureMissingField,
	}, kinds)
}

func TestTransform_CleaningFailuresKeepTheRow(t *testing.T) {
	rows := []models.RawObservation{
		rawRow("sephora-1", "sephora", `{"displayName":"Gel","currentSku":{"listPrice":"call us"},"rating":"N/A"}`, t0),
		rawRow("sephora-2", "sephora", `{"displayName":"Gel","rating":9}`, t0),
		rawRow("sephora-3", "sephora", `{"displayName":"Gel"}`, t0),
	}

	res, err := newTestTransformer(t, 1).Transform(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, res.Records, 3)
	assert.Empty(t, res.Failures)
	assert.Equal(t, 3, res.CleaningWarnings)

	for _, rec := range res.Records {
		assert.False(t, rec.Rating.Valid, rec.OfferID)
	}
	assert.False(t, res.Records[0].Price.Valid)
}

func TestTransform_OversizedPriceIsAbsentNotFatal(t *testing.T) {
	rows := []models.RawObservation{
		rawRow("sephora-1", "sephora", sephoraPayload("Acme", "Hydra Gel", "50ml", "123456789012"), t0),
		rawRow("sephora-2", "sephora", sephoraPayload("Acme", "Hydra Gel", "100ml", "$99,999,999.99"), t0),
	}

	res, err := newTestTransformer(t, 2).Transform(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Empty(t, res.Failures)
	assert.Equal(t, 1, res.CleaningWarnings)

	assert.False(t, res.Records[0].Price.Valid)
	require.True(t, res.Records[1].Price.Valid)
	assert.Equal(t, "99999999.99", res.Records[1].Price.Decimal.StringFixed(2))
}

func TestTransform_TagsDescription(t *testing.T) {
	rows := []models.RawObservation{rawRow("sephora-1", "sephora",
		`{"brand":{"displayName":"Acme"},"displayName":"Hydra Gel","quickLook":{"heading":"for dry, dehydrated skin"}}`, t0)}

	res, err := newTestTransformer(t, 1).Transform(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, []string{"dryness"}, res.Records[0].ConditionTags)
}

func TestTransform_EmptyBatch(t *testing.T) {
	res, err := newTestTransformer(t, 4).Transform(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, res.Records)
	assert.Empty(t, res.Records)
	assert.Empty(t, res.Failures)
}

type panickingExtractor struct{}

func (panickingExtractor) Retailer() string { return "flaky" }

func (panickingExtractor) Extract([]byte) (retailers.Fields, error) {
	panic("nil map write")
}

func TestTransform_RecoversPanics(t *testing.T) {
	tagger, err := NewTagger(DefaultVocabulary())
	require.NoError(t, err)
	tr := NewTransformer(retailers.NewRegistry(panickingExtractor{}, retailers.SephoraExtractor{}), tagger, 2)

	rows := []models.RawObservation{
		rawRow("flaky-1", "flaky", `{}`, t0),
		rawRow("sephora-1", "sephora", sephoraPayload("Acme", "Gel", "", "$5"), t0),
	}
	res, err := tr.Transform(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, FailurePanic, res.Failures[0].Kind)
}

func TestTransform_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rows := []models.RawObservation{rawRow("sephora-1", "sephora", sephoraPayload("Acme", "Gel", "", "$5"), t0)}
	_, err := newTestTransformer(t, 1).Transform(ctx, rows)
	assert.ErrorIs(t, err, context.Canceled)
}
