/**
 * @description
 * Raw observation staging model.
 * Maps to the 'staging_raw_offers' table written by the crawlers.
 *
 * @notes
 * - SyncedAt is NULL until the observation's facts have been merged into the canonical tables.
 *   Unsynced rows are the pipeline's retry queue.
 * - Attempts counts the runs that pulled the current payload; rows that keep failing sink
 *   behind fresh ones. A new payload resets it.
 */

package models

import "time"

type RawObservation struct {
	OfferID    string     `gorm:"primaryKey;column:offer_id" json:"offer_id"`
	Retailer   string     `gorm:"column:retailer;index" json:"retailer"`
	Payload    string     `gorm:"column:json_blob;type:text" json:"payload"`
	LastSeenAt time.Time  `gorm:"column:last_seen_at" json:"last_seen_at"`
	SyncedAt   *time.Time `gorm:"column:synced_at;index" json:"synced_at"`

	Attempts      int        `gorm:"column:attempts;not null;default:0" json:"attempts"`
	LastAttemptAt *time.Time `gorm:"column:last_attempt_at" json:"last_attempt_at"`
}

// TableName overrides the table name used by RawObservation to `staging_raw_offers`
func (RawObservation) TableName() string {
	return "staging_raw_offers"
}
