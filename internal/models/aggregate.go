/**
 * @description
 * Aggregate view row.
 * Maps to the 'products_latest' table, rebuilt wholesale after every load.
 */

package models

import (
	"math"
	"time"
)

// ProductAggregate summarises a product's offers for query serving.
// Price and rating aggregates are nil when the product has no priced / rated offers.
type ProductAggregate struct {
	ProductID   string     `gorm:"primaryKey;column:product_id" json:"product_id"`
	Brand       string     `gorm:"column:brand" json:"brand"`
	Name        string     `gorm:"column:name" json:"name"`
	Variant     string     `gorm:"column:variant" json:"variant"`
	ProductType string     `gorm:"column:product_type" json:"product_type"`
	Ingredients string     `gorm:"column:ingredients_text" json:"ingredients_text"`
	MinPrice    *float64   `gorm:"column:min_price;index" json:"min_price"`
	MaxPrice    *float64   `gorm:"column:max_price" json:"max_price"`
	AvgPrice    *float64   `gorm:"column:avg_price" json:"avg_price"`
	AvgRating   *float64   `gorm:"column:avg_rating;index" json:"avg_rating"`
	OfferCount  int        `gorm:"column:offer_count" json:"offer_count"`
	LastSeenAt  *time.Time `gorm:"column:last_seen_at" json:"last_seen_at"`
	RefreshedAt time.Time  `gorm:"column:refreshed_at" json:"refreshed_at"`
}

func (ProductAggregate) TableName() string {
	return "products_latest"
}

// Sanitize drops NaN / Inf values that some drivers surface for empty averages.
func (a *ProductAggregate) Sanitize() {
	a.MinPrice = finiteOrNil(a.MinPrice)
	a.MaxPrice = finiteOrNil(a.MaxPrice)
	a.AvgPrice = finiteOrNil(a.AvgPrice)
	a.AvgRating = finiteOrNil(a.AvgRating)
}

func finiteOrNil(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return v
}

// All returns every model managed by AutoMigrate, parents first.
func All() []interface{} {
	return []interface{}{
		&RawObservation{},
		&Product{},
		&Offer{},
		&PriceHistory{},
		&ConditionTag{},
		&ProductAggregate{},
	}
}
