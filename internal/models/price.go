/**
 * @description
 * Price History database model.
 * Maps to the 'price_history' table in PostgreSQL.
 *
 * @dependencies
 * - gorm.io/gorm
 */

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceHistory is one observation of an offer's price. Rows are append-only.
type PriceHistory struct {
	OfferID    string              `gorm:"primaryKey;column:offer_id" json:"offer_id"`
	ObservedAt time.Time           `gorm:"primaryKey;column:observed_at" json:"observed_at"`
	Price      decimal.NullDecimal `gorm:"column:price;type:numeric(10,2)" json:"price"`
}

// TableName overrides the table name used by PriceHistory to `price_history`
func (PriceHistory) TableName() string {
	return "price_history"
}
