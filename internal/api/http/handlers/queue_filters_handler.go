package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ivovalerieviliev/help-desk-sub001/internal/api/dto"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/domain"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/service"
)

// QueueFiltersHandler exposes saved filters.
type QueueFiltersHandler struct {
	filters *service.QueueFilterService
}

// NewQueueFiltersHandler constructs handler.
func NewQueueFiltersHandler(filters *service.QueueFilterService) *QueueFiltersHandler {
	return &QueueFiltersHandler{filters: filters}
}

// Create POST /queue-filters.
func (h *QueueFiltersHandler) Create(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.QueueFilterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	filter, err := h.filters.Create(c.UserContext(), user, queueFilterInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": queueFilterResponse(filter)})
}

// List GET /queue-filters.
func (h *QueueFiltersHandler) List(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	filters, err := h.filters.List(c.UserContext(), user)
	if err != nil {
		return err
	}
	items := make([]dto.QueueFilterResponse, 0, len(filters))
	for i := range filters {
		items = append(items, queueFilterResponse(&filters[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /queue-filters/:id.
func (h *QueueFiltersHandler) Get(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "queue filter")
	if err != nil {
		return err
	}
	filter, err := h.filters.Get(c.UserContext(), user, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": queueFilterResponse(filter)})
}

// Update PUT /queue-filters/:id.
func (h *QueueFiltersHandler) Update(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.QueueFilterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	id, err := pathID(c, "id", "queue filter")
	if err != nil {
		return err
	}
	filter, err := h.filters.Update(c.UserContext(), user, id, queueFilterInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": queueFilterResponse(filter)})
}

// Delete DELETE /queue-filters/:id.
func (h *QueueFiltersHandler) Delete(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "queue filter")
	if err != nil {
		return err
	}
	if err := h.filters.Delete(c.UserContext(), user, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// SetDefault POST /queue-filters/:id/default.
func (h *QueueFiltersHandler) SetDefault(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "queue filter")
	if err != nil {
		return err
	}
	filter, err := h.filters.SetDefault(c.UserContext(), user, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": queueFilterResponse(filter)})
}

// Apply GET /queue-filters/:id/tickets.
func (h *QueueFiltersHandler) Apply(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "queue filter")
	if err != nil {
		return err
	}
	views, err := h.filters.Apply(c.UserContext(), user, id, parsePage(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponses(views)})
}

// Preview POST /queue-filters/preview runs an unsaved config.
func (h *QueueFiltersHandler) Preview(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var cfg domain.FilterConfig
	if err := parseBody(c, &cfg); err != nil {
		return err
	}
	views, err := h.filters.Preview(c.UserContext(), user, cfg, parsePage(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponses(views)})
}

func queueFilterInput(req dto.QueueFilterRequest) service.QueueFilterInput {
	return service.QueueFilterInput{
		Name:           req.Name,
		Description:    req.Description,
		FilterType:     domain.FilterType(req.FilterType),
		OrganizationID: req.OrganizationID,
		Config:         req.Config,
		SortField:      req.SortField,
		SortOrder:      req.SortOrder,
		IsDefault:      req.IsDefault,
	}
}
