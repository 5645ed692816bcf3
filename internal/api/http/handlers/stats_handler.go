package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/climcare/repair-service/internal/service"
)

// StatsHandler exposes the reporting aggregates.
type StatsHandler struct {
	service *service.ReportService
}

// NewStatsHandler constructs handler.
func NewStatsHandler(reportService *service.ReportService) *StatsHandler {
	return &StatsHandler{service: reportService}
}

// Statistics GET /stats.
func (h *StatsHandler) Statistics(c *fiber.Ctx) error {
	stats, err := h.service.Statistics(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}
