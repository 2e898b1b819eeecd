package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ivovalerieviliev/help-desk-sub001/internal/api/dto"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/domain"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/service"
)

// HandoversHandler exposes shift handover reports.
type HandoversHandler struct {
	handovers *service.HandoverService
}

// NewHandoversHandler constructs handler.
func NewHandoversHandler(handovers *service.HandoverService) *HandoversHandler {
	return &HandoversHandler{handovers: handovers}
}

// Create POST /handovers.
func (h *HandoversHandler) Create(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.HandoverRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	handover, err := h.handovers.Create(c.UserContext(), user, handoverInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": handoverResponse(handover)})
}

// List GET /handovers.
func (h *HandoversHandler) List(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var status *domain.HandoverStatus
	if raw := c.Query("status"); raw != "" {
		s := domain.HandoverStatus(strings.ToLower(raw))
		status = &s
	}
	handovers, err := h.handovers.List(c.UserContext(), user, status, parseInt(c.Query("limit"), 50), parseInt(c.Query("offset"), 0))
	if err != nil {
		return err
	}
	items := make([]dto.HandoverResponse, 0, len(handovers))
	for i := range handovers {
		items = append(items, handoverResponse(&handovers[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /handovers/:id.
func (h *HandoversHandler) Get(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "handover")
	if err != nil {
		return err
	}
	handover, err := h.handovers.Get(c.UserContext(), user, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": handoverResponse(handover)})
}

// Update PUT /handovers/:id.
func (h *HandoversHandler) Update(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.HandoverRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	id, err := pathID(c, "id", "handover")
	if err != nil {
		return err
	}
	handover, err := h.handovers.Update(c.UserContext(), user, id, handoverInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": handoverResponse(handover)})
}

// Delete DELETE /handovers/:id.
func (h *HandoversHandler) Delete(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "handover")
	if err != nil {
		return err
	}
	if err := h.handovers.Delete(c.UserContext(), user, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Review POST /handovers/:id/review.
func (h *HandoversHandler) Review(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "handover")
	if err != nil {
		return err
	}
	handover, err := h.handovers.MarkReviewed(c.UserContext(), user, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": handoverResponse(handover)})
}

// AddActionItem POST /handovers/:id/action-items.
func (h *HandoversHandler) AddActionItem(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.ActionItemRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	id, err := pathID(c, "id", "handover")
	if err != nil {
		return err
	}
	item, err := h.handovers.AddActionItem(c.UserContext(), user, id, req.Description, req.AssigneeID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": actionItemResponse(item)})
}

// CompleteActionItem POST /handovers/:id/action-items/:itemId/complete.
func (h *HandoversHandler) CompleteActionItem(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "handover")
	if err != nil {
		return err
	}
	itemID, err := pathID(c, "itemId", "action item")
	if err != nil {
		return err
	}
	item, err := h.handovers.CompleteActionItem(c.UserContext(), user, id, itemID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": actionItemResponse(item)})
}

func handoverInput(req dto.HandoverRequest) service.HandoverInput {
	tickets := make([]service.HandoverTicketInput, 0, len(req.Tickets))
	for _, t := range req.Tickets {
		tickets = append(tickets, service.HandoverTicketInput{TicketID: t.TicketID, Note: t.Note})
	}
	return service.HandoverInput{Title: req.Title, ShiftNotes: req.ShiftNotes, Tickets: tickets}
}
