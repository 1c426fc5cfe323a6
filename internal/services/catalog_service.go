/**
 * @description
 * Service layer for catalog queries.
 * Serves condition-based recommendations from the products_latest aggregates, preferring Cache -> DB.
 *
 * @dependencies
 * - backend/internal/models
 * - gorm.io/gorm
 * - github.com/redis/go-redis/v9
 *
 * @notes
 * - Cache keys embed the catalog version bumped after each aggregate refresh, so stale entries
 *   are never read; they simply expire.
 */

package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/skincare-catalog/backend/internal/logger"
	"github.com/skincare-catalog/backend/internal/models"
	"gorm.io/gorm"
)

const (
	CacheKeyRecommendPrefix = "recommend"
	DefaultCacheTTL         = 5 * time.Minute

	DefaultRecommendLimit = 10
	MaxRecommendLimit     = 100
)

const (
	SortRating    = "rating"
	SortPriceLow  = "price_low"
	SortPriceHigh = "price_high"
	SortBrand     = "brand"
)

var ErrInvalidQuery = errors.New("invalid query")

var sortOrders = map[string]string{
	SortRating:    "avg_rating DESC NULLS LAST, min_price ASC, product_id ASC",
	SortPriceLow:  "min_price ASC, avg_rating DESC NULLS LAST, product_id ASC",
	SortPriceHigh: "min_price DESC, avg_rating DESC NULLS LAST, product_id ASC",
	SortBrand:     "brand ASC, avg_rating DESC NULLS LAST, product_id ASC",
}

type RecommendRequest struct {
	Conditions []string `json:"conditions"`
	BudgetMin  *float64 `json:"budget_min"`
	BudgetMax  *float64 `json:"budget_max"`
	Sort       string   `json:"sort"`
	Limit      int      `json:"limit"`
}

type Recommendation struct {
	ProductID  string   `json:"product_id"`
	Brand      string   `json:"brand"`
	Name       string   `json:"name"`
	MinPrice   *float64 `json:"min_price"`
	AvgRating  *float64 `json:"avg_rating"`
	OfferCount int      `json:"offer_count"`
}

type CatalogService struct {
	DB       *gorm.DB
	Redis    *redis.Client
	CacheTTL time.Duration
}

func NewCatalogService(db *gorm.DB, rdb *redis.Client, cacheTTL time.Duration) *CatalogService {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	return &CatalogService{DB: db, Redis: rdb, CacheTTL: cacheTTL}
}

// Recommend returns priced products tagged with any of the requested conditions.
func (s *CatalogService) Recommend(ctx context.Context, req RecommendRequest) ([]Recommendation, error) {
	req, err := normalizeRecommendRequest(req)
	if err != nil {
		return nil, err
	}

	// 1. Try Redis
	cacheKey := s.cacheKey(ctx, req)
	if cacheKey != "" {
		if val, err := s.Redis.Get(ctx, cacheKey).Result(); err == nil {
			var cached []Recommendation
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				return cached, nil
			}
			// If unmarshal fails, fall through to DB
		}
	}

	// 2. Fallback to DB
	tagged := s.DB.WithContext(ctx).Model(&models.ConditionTag{}).
		Select("product_id").
		Where("condition IN ?", req.Conditions)

	q := s.DB.WithContext(ctx).
		Model(&models.ProductAggregate{}).
		Where("product_id IN (?)", tagged).
		Where("min_price IS NOT NULL")
	if req.BudgetMin != nil {
		q = q.Where("min_price >= ?", *req.BudgetMin)
	}
	if req.BudgetMax != nil {
		q = q.Where("min_price <= ?", *req.BudgetMax)
	}

	var rows []models.ProductAggregate
	if err := q.Order(sortOrders[req.Sort]).Limit(req.Limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}

	out := make([]Recommendation, 0, len(rows))
	for _, row := range rows {
		row.Sanitize()
		out = append(out, Recommendation{
			ProductID:  row.ProductID,
			Brand:      row.Brand,
			Name:       row.Name,
			MinPrice:   row.MinPrice,
			AvgRating:  row.AvgRating,
			OfferCount: row.OfferCount,
		})
	}

	if cacheKey != "" {
		if data, err := json.Marshal(out); err != nil {
			logger.Warn("Failed to marshal recommendations for cache: %v", err)
		} else if err := s.Redis.Set(ctx, cacheKey, data, s.CacheTTL).Err(); err != nil {
			logger.Warn("Failed to set recommendations cache: %v", err)
		}
	}
	return out, nil
}

// cacheKey returns "" when caching is unavailable.
func (s *CatalogService) cacheKey(ctx context.Context, req RecommendRequest) string {
	if s.Redis == nil {
		return ""
	}
	version, err := s.Redis.Get(ctx, CatalogVersionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		logger.Warn("Failed to read catalog version, bypassing cache: %v", err)
		return ""
	}
	data, _ := json.Marshal(req)
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:v%d:%s", CacheKeyRecommendPrefix, version, hex.EncodeToString(sum[:12]))
}

func normalizeRecommendRequest(req RecommendRequest) (RecommendRequest, error) {
	seen := make(map[string]bool, len(req.Conditions))
	conditions := make([]string, 0, len(req.Conditions))
	for _, c := range req.Conditions {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		conditions = append(conditions, c)
	}
	if len(conditions) == 0 {
		return req, fmt.Errorf("%w: at least one condition is required", ErrInvalidQuery)
	}
	sort.Strings(conditions)
	req.Conditions = conditions

	if req.BudgetMin != nil && req.BudgetMax != nil && *req.BudgetMin > *req.BudgetMax {
		return req, fmt.Errorf("%w: budget_min %.2f exceeds budget_max %.2f", ErrInvalidQuery, *req.BudgetMin, *req.BudgetMax)
	}

	req.Sort = strings.ToLower(strings.TrimSpace(req.Sort))
	if _, ok := sortOrders[req.Sort]; !ok {
		req.Sort = SortRating
	}

	switch {
	case req.Limit <= 0:
		req.Limit = DefaultRecommendLimit
	case req.Limit > MaxRecommendLimit:
		req.Limit = MaxRecommendLimit
	}
	return req, nil
}
