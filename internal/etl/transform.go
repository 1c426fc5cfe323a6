package etl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/skincare-catalog/backend/internal/logger"
	"github.com/skincare-catalog/backend/internal/models"
	"github.com/skincare-catalog/backend/internal/retailers"
	"golang.org/x/sync/errgroup"
)

// NormalizedRecord is one successfully extracted raw observation.
// It only lives for the duration of a pipeline run.
type NormalizedRecord struct {
	ProductID     string              `json:"product_id"`
	OfferID       string              `json:"offer_id"`
	Retailer      string              `json:"retailer"`
	Brand         string              `json:"brand"`
	Name          string              `json:"name"`
	Variant       string              `json:"variant"`
	ProductType   string              `json:"product_type"`
	Ingredients   string              `json:"ingredients_text"`
	Price         decimal.NullDecimal `json:"price"`
	Currency      string              `json:"currency"`
	Rating        decimal.NullDecimal `json:"rating"`
	URL           string              `json:"url"`
	Availability  models.Availability `json:"availability"`
	Description   string              `json:"description"`
	ConditionTags []string            `json:"condition_tags"`
	ObservedAt    time.Time           `json:"observed_at"`
}

// TransformResult is the normalized batch plus everything that was dropped or degraded.
type TransformResult struct {
	Records  []NormalizedRecord
	Failures []*ExtractionError
	// CleaningWarnings counts price/rating fields that were present but unparsable or out of range.
	CleaningWarnings int
}

// rowResult is exactly one of record or failure.
type rowResult struct {
	record   *NormalizedRecord
	failure  *ExtractionError
	warnings []string
}

// Transformer turns raw observations into normalized records.
type Transformer struct {
	registry *retailers.Registry
	tagger   *Tagger
	workers  int
}

// NewTransformer wires the extractor registry and tagger. workers < 1 means sequential.
func NewTransformer(registry *retailers.Registry, tagger *Tagger, workers int) *Transformer {
	if workers < 1 {
		workers = 1
	}
	return &Transformer{registry: registry, tagger: tagger, workers: workers}
}

// Transform extracts every row independently. A failing row is logged and left out of
// Records; it never aborts the batch. Records keep the input order.
// Only context cancellation returns an error.
func (t *Transformer) Transform(ctx context.Context, rows []models.RawObservation) (*TransformResult, error) {
	result := &TransformResult{Records: []NormalizedRecord{}}
	if len(rows) == 0 {
		return result, nil
	}

	results := make([]rowResult, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.workers)
	for i := range rows {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = t.transformRow(rows[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("transform cancelled: %w", err)
	}

	for _, r := range results {
		result.CleaningWarnings += len(r.warnings)
		if r.failure != nil {
			logger.Warn("dropping offer %s (retailer=%s kind=%s): %v", r.failure.OfferID, r.failure.Retailer, r.failure.Kind, r.failure.Err)
			result.Failures = append(result.Failures, r.failure)
			continue
		}
		for _, w := range r.warnings {
			logger.Debug("offer %s: %s", r.record.OfferID, w)
		}
		result.Records = append(result.Records, *r.record)
	}
	return result, nil
}

func (t *Transformer) transformRow(row models.RawObservation) (res rowResult) {
	defer func() {
		if p := recover(); p != nil {
			res = rowResult{failure: &ExtractionError{
				OfferID:  row.OfferID,
				Retailer: row.Retailer,
				Kind:     FailurePanic,
				Err:      fmt.Errorf("%v", p),
			}}
		}
	}()

	if strings.TrimSpace(row.OfferID) == "" {
		return rowResult{failure: newExtractionError(row.OfferID, row.Retailer, fmt.Errorf("%w: offer_id", ErrMissingField))}
	}
	extractor, ok := t.registry.Lookup(row.Retailer)
	if !ok {
		return rowResult{failure: newExtractionError(row.OfferID, row.Retailer, fmt.Errorf("%w: %q", ErrUnknownRetailer, row.Retailer))}
	}
	fields, err := extractor.Extract([]byte(row.Payload))
	if err != nil {
		return rowResult{failure: newExtractionError(row.OfferID, row.Retailer, err)}
	}

	var warnings []string
	price := CleanPrice(fields.Price)
	if !price.Valid && strings.TrimSpace(fields.Price) != "" {
		warnings = append(warnings, fmt.Sprintf("unparsable price %q", fields.Price))
	}
	if !inPriceRange(price) {
		warnings = append(warnings, fmt.Sprintf("price %s does not fit below %s", price.Decimal, maxPrice))
		price = decimal.NullDecimal{}
	}
	rating := CleanRating(fields.Rating)
	if !rating.Valid && strings.TrimSpace(fields.Rating) != "" {
		warnings = append(warnings, fmt.Sprintf("unparsable rating %q", fields.Rating))
	}
	if !inRatingScale(rating) {
		warnings = append(warnings, fmt.Sprintf("rating %s outside 0..%d", rating.Decimal, MaxRating))
		rating = decimal.NullDecimal{}
	}

	rec := &NormalizedRecord{
		ProductID:     ResolveProductID(fields.Brand, fields.Name, fields.Variant),
		OfferID:       row.OfferID,
		Retailer:      extractor.Retailer(),
		Brand:         fields.Brand,
		Name:          fields.Name,
		Variant:       fields.Variant,
		ProductType:   fields.ProductType,
		Ingredients:   fields.Ingredients,
		Price:         price,
		Currency:      fields.Currency,
		Rating:        rating,
		URL:           fields.URL,
		Availability:  fields.Availability,
		Description:   fields.Description,
		ConditionTags: t.tagger.Tag(fields.Description),
		ObservedAt:    row.LastSeenAt.UTC(),
	}
	return rowResult{record: rec, warnings: warnings}
}
