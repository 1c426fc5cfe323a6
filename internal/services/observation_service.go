/**
 * @description
 * Service layer for raw observations.
 * The crawlers write here; the pipeline reads the unsynced rows back as its work queue.
 *
 * @dependencies
 * - backend/internal/models
 * - gorm.io/gorm
 *
 * @notes
 * - A re-observed offer has its synced_at and attempt count cleared so the next run merges the
 *   new payload. A run that pulled the old payload only marks the row synced while its
 *   last_seen_at still matches, so the overwrite stays queued.
 * - The queue is served least-attempted first; rows that fail extraction on every run cannot
 *   starve newer rows out of a limited batch.
 */

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/skincare-catalog/backend/internal/metrics"
	"github.com/skincare-catalog/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInvalidObservation = errors.New("invalid observation")

// ObservationInput is one crawler sighting of a retailer offer.
type ObservationInput struct {
	OfferID    string          `json:"offer_id"`
	Retailer   string          `json:"retailer"`
	Payload    json.RawMessage `json:"payload"`
	LastSeenAt *time.Time      `json:"last_seen_at"`
}

type ObservationService struct {
	DB      *gorm.DB
	Metrics *metrics.Registry
	now     func() time.Time
}

func NewObservationService(db *gorm.DB, m *metrics.Registry) *ObservationService {
	if m == nil {
		m = metrics.NewRegistry()
	}
	return &ObservationService{DB: db, Metrics: m, now: time.Now}
}

// Upsert validates the whole batch, then inserts or overwrites each observation by offer_id.
// Returns the number of distinct offers written.
func (s *ObservationService) Upsert(ctx context.Context, inputs []ObservationInput) (int, error) {
	if len(inputs) == 0 {
		return 0, nil
	}

	now := s.now().UTC()
	index := make(map[string]int, len(inputs))
	rows := make([]models.RawObservation, 0, len(inputs))
	for i, in := range inputs {
		row, err := toRawObservation(in, now)
		if err != nil {
			return 0, fmt.Errorf("observation %d: %w", i, err)
		}
		// last sighting in the batch wins
		if j, ok := index[row.OfferID]; ok {
			rows[j] = row
			continue
		}
		index[row.OfferID] = len(rows)
		rows = append(rows, row)
	}

	updates := clause.AssignmentColumns([]string{"retailer", "json_blob", "last_seen_at"})
	updates = append(updates,
		clause.Assignment{Column: clause.Column{Name: "synced_at"}, Value: nil},
		clause.Assignment{Column: clause.Column{Name: "attempts"}, Value: 0},
		clause.Assignment{Column: clause.Column{Name: "last_attempt_at"}, Value: nil},
	)

	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "offer_id"}},
		DoUpdates: updates,
	}).CreateInBatches(&rows, 100).Error
	if err != nil {
		return 0, fmt.Errorf("failed to upsert observations: %w", err)
	}

	s.Metrics.Observations.Add(float64(len(rows)))
	return len(rows), nil
}

// FetchUnsynced returns observations not yet merged into the catalog, least attempted
// first and then oldest first. limit <= 0 means no limit.
func (s *ObservationService) FetchUnsynced(ctx context.Context, limit int) ([]models.RawObservation, error) {
	q := s.DB.WithContext(ctx).
		Where("synced_at IS NULL").
		Order("attempts ASC").
		Order("last_seen_at ASC").
		Order("offer_id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []models.RawObservation
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch unsynced observations: %w", err)
	}
	return rows, nil
}

// MarkAttempted counts a run against every pulled row it left unsynced. A row overwritten
// by the crawler since the pull has a different last_seen_at and keeps its reset count.
func (s *ObservationService) MarkAttempted(ctx context.Context, rows []models.RawObservation) error {
	if len(rows) == 0 {
		return nil
	}
	now := s.now().UTC()
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, row := range rows {
			err := tx.Model(&models.RawObservation{}).
				Where("offer_id = ? AND last_seen_at = ? AND synced_at IS NULL", row.OfferID, row.LastSeenAt).
				Updates(map[string]interface{}{
					"attempts":        gorm.Expr("attempts + 1"),
					"last_attempt_at": now,
				}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record observation attempts: %w", err)
	}
	return nil
}

// CountUnsynced reports the current depth of the retry queue.
func (s *ObservationService) CountUnsynced(ctx context.Context) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&models.RawObservation{}).Where("synced_at IS NULL").Count(&n).Error
	return n, err
}

func toRawObservation(in ObservationInput, now time.Time) (models.RawObservation, error) {
	offerID := strings.TrimSpace(in.OfferID)
	if offerID == "" {
		return models.RawObservation{}, fmt.Errorf("%w: offer_id is required", ErrInvalidObservation)
	}

	prefix := retailerPrefix(offerID)
	retailer := strings.ToLower(strings.TrimSpace(in.Retailer))
	switch {
	case retailer == "" && prefix == "":
		return models.RawObservation{}, fmt.Errorf("%w: cannot infer retailer from offer_id %q", ErrInvalidObservation, offerID)
	case retailer == "":
		retailer = prefix
	case prefix != retailer:
		return models.RawObservation{}, fmt.Errorf("%w: offer_id %q does not start with %q", ErrInvalidObservation, offerID, retailer+"-")
	}

	payload := strings.TrimSpace(string(in.Payload))
	if payload == "" || payload == "null" || !json.Valid([]byte(payload)) {
		return models.RawObservation{}, fmt.Errorf("%w: payload for %s is not JSON", ErrInvalidObservation, offerID)
	}
	// crawlers that double-encode send the document as a JSON string
	var inner string
	if err := json.Unmarshal([]byte(payload), &inner); err == nil {
		payload = inner
	}

	seen := now
	if in.LastSeenAt != nil && !in.LastSeenAt.IsZero() {
		seen = in.LastSeenAt.UTC()
	}

	return models.RawObservation{
		OfferID:    offerID,
		Retailer:   retailer,
		Payload:    payload,
		LastSeenAt: seen,
	}, nil
}

func retailerPrefix(offerID string) string {
	i := strings.Index(offerID, "-")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(offerID[:i])
}
