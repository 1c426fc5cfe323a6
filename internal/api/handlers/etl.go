/**
 * @description
 * ETL API Handlers.
 * Lets operators trigger a pipeline run and inspect the retry queue.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/services
 */

package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/skincare-catalog/backend/internal/api/middleware"
	"github.com/skincare-catalog/backend/internal/etl"
	"github.com/skincare-catalog/backend/internal/logger"
	"github.com/skincare-catalog/backend/internal/services"
)

type TriggerRunRequest struct {
	Limit       int  `json:"limit"`
	DryRun      bool `json:"dry_run"`
	SkipRefresh bool `json:"skip_refresh"`
}

type ETLHandler struct {
	Pipeline *services.PipelineService
}

func NewETLHandler(pipeline *services.PipelineService) *ETLHandler {
	return &ETLHandler{Pipeline: pipeline}
}

// TriggerRun executes one pipeline run synchronously and returns its report
// POST /api/v1/etl/runs
func (h *ETLHandler) TriggerRun(c *fiber.Ctx) error {
	var req TriggerRunRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}
	}
	if req.Limit < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "limit must not be negative",
		})
	}

	sub, _ := middleware.GetAdminSubject(c)
	logger.Info("ETLHandler: run requested by %q (limit=%d dry_run=%t)", sub, req.Limit, req.DryRun)

	report, err := h.Pipeline.Run(c.Context(), services.RunOptions{
		Limit:       req.Limit,
		DryRun:      req.DryRun,
		SkipRefresh: req.SkipRefresh,
	})
	if err != nil {
		if errors.Is(err, services.ErrRunInProgress) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		var loadErr *etl.LoadError
		if errors.As(err, &loadErr) && report != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(report)
		}
		logger.Error("ETLHandler: run failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Pipeline run failed",
		})
	}
	return c.JSON(report)
}

// QueueDepth reports how many observations are waiting to be merged
// GET /api/v1/etl/queue
func (h *ETLHandler) QueueDepth(c *fiber.Ctx) error {
	n, err := h.Pipeline.Observations.CountUnsynced(c.Context())
	if err != nil {
		logger.Error("ETLHandler: failed to count unsynced observations: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read queue",
		})
	}
	return c.JSON(fiber.Map{"unsynced": n})
}
