package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nsu-it/helpdesk-service/internal/service"
)

// StatsHandler serves the staff dashboard aggregates.
type StatsHandler struct {
	service *service.StatsService
}

// NewStatsHandler constructs handler.
func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{service: statsService}
}

// Dashboard GET /staff/stats.
func (h *StatsHandler) Dashboard(c *fiber.Ctx) error {
	if _, err := staffPrincipal(c); err != nil {
		return err
	}
	stats, err := h.service.Dashboard(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}
