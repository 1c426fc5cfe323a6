/**
 * @description
 * Catalog API Handlers.
 * Serves condition-based product recommendations.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/services
 */

package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/skincare-catalog/backend/internal/logger"
	"github.com/skincare-catalog/backend/internal/services"
)

type CatalogHandler struct {
	Service *services.CatalogService
}

func NewCatalogHandler(service *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{Service: service}
}

// Recommend returns priced products matching any of the requested skin conditions
// POST /api/v1/recommend
func (h *CatalogHandler) Recommend(c *fiber.Ctx) error {
	var req services.RecommendRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	recs, err := h.Service.Recommend(c.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidQuery) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		logger.Error("CatalogHandler: Failed to recommend: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch recommendations",
		})
	}
	return c.JSON(recs)
}
