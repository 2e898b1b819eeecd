package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ivovalerieviliev/help-desk-sub001/internal/observability"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/service"
	apperrors "github.com/ivovalerieviliev/help-desk-sub001/pkg/util"
)

// AnalyticsHandler serves dashboard aggregates and request metrics.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
	metrics   *observability.Metrics
}

// NewAnalyticsHandler constructs handler.
func NewAnalyticsHandler(analytics *service.AnalyticsService, metrics *observability.Metrics) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, metrics: metrics}
}

// Overview GET /analytics/overview?from=&to=.
func (h *AnalyticsHandler) Overview(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	from, err := parseTime(c.Query("from"))
	if err != nil {
		return err
	}
	to, err := parseTime(c.Query("to"))
	if err != nil {
		return err
	}
	overview, err := h.analytics.Overview(c.UserContext(), user, from, to)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": analyticsResponse(overview)})
}

// Metrics GET /analytics/metrics. Admin only.
func (h *AnalyticsHandler) Metrics(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if !user.IsAdmin() {
		return apperrors.NewForbidden("admin role required")
	}
	return c.JSON(fiber.Map{"data": h.metrics.Snapshot()})
}
