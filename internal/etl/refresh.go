package etl

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/skincare-catalog/backend/internal/models"
	"gorm.io/gorm"
)

const refreshBatchSize = 500

// Refresher rebuilds the products_latest aggregate table from products and offers.
type Refresher struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRefresher(db *gorm.DB) *Refresher {
	return &Refresher{db: db, now: time.Now}
}

type offerStats struct {
	priceMin, priceMax, priceSum decimal.Decimal
	priced                       int
	ratingSum                    decimal.Decimal
	rated                        int
	offers                       int
	lastSeen                     *time.Time
}

// Refresh replaces the whole aggregate snapshot in one transaction and returns the
// number of product rows written. Running it without new data rewrites identical values.
func (r *Refresher) Refresh(ctx context.Context) (int, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).Order("product_id").Find(&products).Error; err != nil {
		return 0, fmt.Errorf("load products: %w", err)
	}

	stats := make(map[string]*offerStats, len(products))
	var batch []models.Offer
	err := r.db.WithContext(ctx).
		Select("offer_id", "product_id", "price", "rating", "last_seen_at").
		FindInBatches(&batch, refreshBatchSize, func(tx *gorm.DB, _ int) error {
			for _, o := range batch {
				s := stats[o.ProductID]
				if s == nil {
					s = &offerStats{}
					stats[o.ProductID] = s
				}
				s.add(o)
			}
			return nil
		}).Error
	if err != nil {
		return 0, fmt.Errorf("load offers: %w", err)
	}

	refreshedAt := r.now().UTC()
	aggregates := make([]models.ProductAggregate, 0, len(products))
	for _, p := range products {
		agg := models.ProductAggregate{
			ProductID:   p.ProductID,
			Brand:       p.Brand,
			Name:        p.Name,
			Variant:     p.Variant,
			ProductType: p.ProductType,
			Ingredients: p.Ingredients,
			RefreshedAt: refreshedAt,
		}
		if s := stats[p.ProductID]; s != nil {
			s.fill(&agg)
		}
		agg.Sanitize()
		aggregates = append(aggregates, agg)
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.ProductAggregate{}).Error; err != nil {
			return err
		}
		if len(aggregates) == 0 {
			return nil
		}
		return tx.CreateInBatches(&aggregates, refreshBatchSize).Error
	})
	if err != nil {
		return 0, fmt.Errorf("replace aggregates: %w", err)
	}
	return len(aggregates), nil
}

func (s *offerStats) add(o models.Offer) {
	s.offers++
	if o.Price.Valid {
		p := o.Price.Decimal
		if s.priced == 0 || p.LessThan(s.priceMin) {
			s.priceMin = p
		}
		if s.priced == 0 || p.GreaterThan(s.priceMax) {
			s.priceMax = p
		}
		s.priceSum = s.priceSum.Add(p)
		s.priced++
	}
	if o.Rating.Valid {
		s.ratingSum = s.ratingSum.Add(o.Rating.Decimal)
		s.rated++
	}
	if !o.LastSeenAt.IsZero() && (s.lastSeen == nil || o.LastSeenAt.After(*s.lastSeen)) {
		t := o.LastSeenAt
		s.lastSeen = &t
	}
}

func (s *offerStats) fill(agg *models.ProductAggregate) {
	agg.OfferCount = s.offers
	agg.LastSeenAt = s.lastSeen
	if s.priced > 0 {
		agg.MinPrice = floatPtr(s.priceMin)
		agg.MaxPrice = floatPtr(s.priceMax)
		agg.AvgPrice = floatPtr(s.priceSum.Div(decimal.NewFromInt(int64(s.priced))).Round(2))
	}
	if s.rated > 0 {
		agg.AvgRating = floatPtr(s.ratingSum.Div(decimal.NewFromInt(int64(s.rated))).Round(2))
	}
}

func floatPtr(d decimal.Decimal) *float64 {
	f := d.InexactFloat64()
	return &f
}
