/**
 * @description
 * Observation API Handlers.
 * Write boundary for the crawlers: raw retailer payloads land in the staging table.
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

const maxObservationsPerRequest = 1000

type IngestRequest struct {
	Observations []services.ObservationInput `json:"observations"`
}

type ObservationHandler struct {
	Service *services.ObservationService
}

func NewObservationHandler(service *services.ObservationService) *ObservationHandler {
	return &ObservationHandler{Service: service}
}

// Ingest upserts a batch of raw observations
// POST /api/v1/observations
func (h *ObservationHandler) Ingest(c *fiber.Ctx) error {
	var req IngestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if len(req.Observations) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "At least one observation is required",
		})
	}
	if len(req.Observations) > maxObservationsPerRequest {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": "Too many observations in one request",
		})
	}

	n, err := h.Service.Upsert(c.Context(), req.Observations)
	if err != nil {
		if errors.Is(err, services.ErrInvalidObservation) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		logger.Error("ObservationHandler: Failed to ingest: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store observations",
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"accepted": n,
	})
}
