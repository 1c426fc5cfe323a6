/**
 * @description
 * Canonical product and offer models.
 * Maps to the 'products' and 'offers' tables in PostgreSQL.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/shopspring/decimal
 */

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UncategorizedProductType is stored when no retailer reports a category.
const UncategorizedProductType = "uncategorized"

// Availability is the stock state reported by a retailer.
type Availability string

const (
	AvailabilityInStock    Availability = "in_stock"
	AvailabilityOutOfStock Availability = "out_of_stock"
)

// Product is the deduplicated "this branded item in this variant" entity.
// Rows are written once; later sightings of the same ProductID never update them.
type Product struct {
	ProductID   string    `gorm:"primaryKey;column:product_id" json:"product_id"`
	Brand       string    `gorm:"column:brand;not null" json:"brand"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Variant     string    `gorm:"column:variant;not null" json:"variant"`
	ProductType string    `gorm:"column:product_type;not null" json:"product_type"`
	Ingredients string    `gorm:"column:ingredients_text;not null" json:"ingredients_text"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName overrides the table name used by Product to `products`
func (Product) TableName() string {
	return "products"
}

// Offer is one retailer's listing of a product.
// ProductID references products and is fixed when the row is first inserted.
type Offer struct {
	OfferID      string              `gorm:"primaryKey;column:offer_id" json:"offer_id"`
	ProductID    string              `gorm:"column:product_id;not null;index" json:"product_id"`
	Retailer     string              `gorm:"column:retailer;index" json:"retailer"`
	Price        decimal.NullDecimal `gorm:"column:price;type:numeric(10,2)" json:"price"`
	Currency     string              `gorm:"column:currency;type:char(3)" json:"currency"`
	Rating       decimal.NullDecimal `gorm:"column:rating;type:numeric(3,1)" json:"rating"`
	URL          string              `gorm:"column:url" json:"url"`
	Availability Availability        `gorm:"column:availability" json:"availability"`
	LastSeenAt   time.Time           `gorm:"column:last_seen_at" json:"last_seen_at"`

	Product *Product `gorm:"foreignKey:ProductID;references:ProductID;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT" json:"-"`
}

// TableName overrides the table name used by Offer to `offers`
func (Offer) TableName() string {
	return "offers"
}
