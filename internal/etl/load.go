package etl

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/skincare-catalog/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	loadBatchSize   = 100
	maxLoadAttempts = 5
)

// LoadReport counts what one committed load actually changed.
type LoadReport struct {
	Records            int   `json:"records"`
	NewProducts        int64 `json:"new_products"`
	OffersUpserted     int64 `json:"offers_upserted"`
	NewPricePoints     int64 `json:"new_price_points"`
	NewConditionTags   int64 `json:"new_condition_tags"`
	ObservationsSynced int64 `json:"observations_synced"`
}

// Loader merges normalized records into the canonical tables.
type Loader struct {
	db  *gorm.DB
	now func() time.Time
}

func NewLoader(db *gorm.DB) *Loader {
	return &Loader{db: db, now: time.Now}
}

// Load runs the whole merge in one transaction:
//
//  1. products       insert-if-absent (first write wins)
//  2. offers         insert-or-replace, product_id never updated
//  3. price_history  insert-if-absent on (offer_id, observed_at)
//  4. condition_tags insert-if-absent on (product_id, condition)
//  5. staging rows   synced_at set where (offer_id, last_seen_at) is still the merged observation
//
// Any error rolls everything back, so no observation is marked synced without its facts.
// A row re-ingested after the batch was pulled has a newer last_seen_at and stays queued.
// Serialization failures and deadlocks are retried; every step is idempotent, so a replay is safe.
func (l *Loader) Load(ctx context.Context, records []NormalizedRecord) (LoadReport, error) {
	report := LoadReport{Records: len(records)}
	if len(records) == 0 {
		return report, nil
	}

	var err error
	for attempt := 1; attempt <= maxLoadAttempts; attempt++ {
		report = LoadReport{Records: len(records)}
		err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return l.merge(tx, records, &report)
		})
		if err == nil {
			return report, nil
		}
		if !isRetryable(err) || ctx.Err() != nil {
			break
		}
		backoff := time.Duration(attempt*100+rand.Intn(100)) * time.Millisecond
		select {
		case <-ctx.Done():
			return LoadReport{Records: len(records)}, &LoadError{Records: len(records), Err: ctx.Err()}
		case <-time.After(backoff):
		}
	}
	return LoadReport{Records: len(records)}, &LoadError{Records: len(records), Err: err}
}

func (l *Loader) merge(tx *gorm.DB, records []NormalizedRecord, report *LoadReport) error {
	products, offers, history, tags := splitRecords(records)

	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}},
		DoNothing: true,
	}).CreateInBatches(&products, loadBatchSize)
	if res.Error != nil {
		return res.Error
	}
	report.NewProducts = res.RowsAffected

	res = tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "offer_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"retailer",
			"price",
			"currency",
			"rating",
			"url",
			"availability",
			"last_seen_at",
		}),
	}).CreateInBatches(&offers, loadBatchSize)
	if res.Error != nil {
		return res.Error
	}
	report.OffersUpserted = int64(len(offers))

	res = tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "offer_id"}, {Name: "observed_at"}},
		DoNothing: true,
	}).CreateInBatches(&history, loadBatchSize)
	if res.Error != nil {
		return res.Error
	}
	report.NewPricePoints = res.RowsAffected

	if len(tags) > 0 {
		res = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "condition"}},
			DoNothing: true,
		}).CreateInBatches(&tags, loadBatchSize)
		if res.Error != nil {
			return res.Error
		}
		report.NewConditionTags = res.RowsAffected
	}

	syncedAt := l.now().UTC()
	for _, o := range offers {
		res = tx.Model(&models.RawObservation{}).
			Where("offer_id = ? AND last_seen_at = ?", o.OfferID, o.LastSeenAt).
			Update("synced_at", syncedAt)
		if res.Error != nil {
			return res.Error
		}
		report.ObservationsSynced += res.RowsAffected
	}
	return nil
}

// splitRecords projects the batch onto the four relations, deduplicating keys so a single
// INSERT never touches the same row twice (Postgres rejects that for ON CONFLICT DO UPDATE).
// The first record of a product wins; the last record of an offer wins.
func splitRecords(records []NormalizedRecord) ([]models.Product, []models.Offer, []models.PriceHistory, []models.ConditionTag) {
	var (
		products   []models.Product
		history    []models.PriceHistory
		tags       []models.ConditionTag
		seenProd   = make(map[string]bool)
		offerIndex = make(map[string]int)
		offers     []models.Offer
		seenPoint  = make(map[string]bool)
		seenTag    = make(map[models.ConditionTag]bool)
	)

	for _, r := range records {
		if !seenProd[r.ProductID] {
			seenProd[r.ProductID] = true
			products = append(products, models.Product{
				ProductID:   r.ProductID,
				Brand:       r.Brand,
				Name:        r.Name,
				Variant:     r.Variant,
				ProductType: r.ProductType,
				Ingredients: r.Ingredients,
			})
		}

		offer := models.Offer{
			OfferID:      r.OfferID,
			ProductID:    r.ProductID,
			Retailer:     r.Retailer,
			Price:        r.Price,
			Currency:     r.Currency,
			Rating:       r.Rating,
			URL:          r.URL,
			Availability: r.Availability,
			LastSeenAt:   r.ObservedAt,
		}
		if i, ok := offerIndex[r.OfferID]; ok {
			offers[i] = offer
		} else {
			offerIndex[r.OfferID] = len(offers)
			offers = append(offers, offer)
		}

		pointKey := r.OfferID + "|" + r.ObservedAt.Format(time.RFC3339Nano)
		if !seenPoint[pointKey] {
			seenPoint[pointKey] = true
			history = append(history, models.PriceHistory{
				OfferID:    r.OfferID,
				ObservedAt: r.ObservedAt,
				Price:      r.Price,
			})
		}

		for _, c := range r.ConditionTags {
			tag := models.ConditionTag{ProductID: r.ProductID, Condition: c}
			if !seenTag[tag] {
				seenTag[tag] = true
				tags = append(tags, tag)
			}
		}
	}
	return products, offers, history, tags
}

// isRetryable reports whether Postgres aborted the transaction for a serialization
// failure (40001) or deadlock (40P01).
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
