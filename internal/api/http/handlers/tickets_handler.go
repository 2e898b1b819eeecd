package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ivovalerieviliev/help-desk-sub001/internal/api/dto"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/domain"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/service"
	apperrors "github.com/ivovalerieviliev/help-desk-sub001/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	tickets     *service.TicketService
	comments    *service.CommentService
	assignments *service.AssignmentService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, comments *service.CommentService, assignments *service.AssignmentService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, comments: comments, assignments: assignments}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	view, err := h.tickets.CreateTicket(c.UserContext(), user, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		Category:    req.Category,
		AssigneeID:  req.AssigneeID,
		AuthorID:    req.AuthorID,
		DueDate:     req.DueDate,
		Tags:        req.Tags,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(view)})
}

// ListTickets GET /tickets. Query parameters map onto an ad-hoc filter.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	views, err := h.tickets.Search(c.UserContext(), user, parseTicketQuery(c), parsePage(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponses(views)})
}

// ListUrgent GET /tickets/urgent.
func (h *TicketsHandler) ListUrgent(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	views, err := h.tickets.ListUrgent(c.UserContext(), user, parseInt(c.Query("limit"), 0))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponses(views)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "ticket")
	if err != nil {
		return err
	}
	view, err := h.tickets.GetTicket(c.UserContext(), user, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(view)})
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	id, err := pathID(c, "id", "ticket")
	if err != nil {
		return err
	}
	view, err := h.tickets.UpdateTicket(c.UserContext(), user, id, service.TicketUpdateInput{
		Title:         req.Title,
		Description:   req.Description,
		Status:        req.Status,
		Priority:      req.Priority,
		Category:      req.Category,
		AssigneeID:    req.AssigneeID,
		ClearAssignee: req.ClearAssignee,
		DueDate:       req.DueDate,
		ClearDueDate:  req.ClearDueDate,
		Tags:          req.Tags,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(view)})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "ticket")
	if err != nil {
		return err
	}
	if err := h.tickets.DeleteTicket(c.UserContext(), user, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListHistory GET /tickets/:id/history.
func (h *TicketsHandler) ListHistory(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "ticket")
	if err != nil {
		return err
	}
	entries, err := h.tickets.ListHistory(c.UserContext(), user, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": historyResponses(entries)})
}

// SLAStatus GET /tickets/:id/sla.
func (h *TicketsHandler) SLAStatus(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "ticket")
	if err != nil {
		return err
	}
	status, err := h.tickets.SLAStatus(c.UserContext(), user, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": slaResponse(status)})
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Body) == "" {
		return apperrors.NewMissingField("body")
	}
	id, err := pathID(c, "id", "ticket")
	if err != nil {
		return err
	}
	comment, err := h.comments.AddComment(c.UserContext(), user, id, req.Body, req.IsInternal)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": commentResponse(comment)})
}

// ListComments GET /tickets/:id/comments.
func (h *TicketsHandler) ListComments(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "ticket")
	if err != nil {
		return err
	}
	comments, err := h.comments.ListComments(c.UserContext(), user, id)
	if err != nil {
		return err
	}
	items := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		items = append(items, commentResponse(&comments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Assign POST /tickets/:id/assign.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.AssignTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	id, err := pathID(c, "id", "ticket")
	if err != nil {
		return err
	}
	view, err := h.assignments.Assign(c.UserContext(), user, id, req.AssigneeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(view)})
}

// SelfAssign POST /tickets/:id/assign/self.
func (h *TicketsHandler) SelfAssign(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "ticket")
	if err != nil {
		return err
	}
	view, err := h.assignments.SelfAssign(c.UserContext(), user, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(view)})
}

// AutoAssign POST /tickets/:id/assign/auto.
func (h *TicketsHandler) AutoAssign(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "ticket")
	if err != nil {
		return err
	}
	view, err := h.assignments.AutoAssign(c.UserContext(), user, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(view)})
}

func parseTicketQuery(c *fiber.Ctx) domain.FilterConfig {
	cfg := domain.FilterConfig{
		Status:          splitList(c.Query("status")),
		Priority:        splitList(c.Query("priority")),
		Category:        splitList(c.Query("category")),
		AssigneeType:    strings.ToLower(c.Query("assignee")),
		AssigneeIDs:     splitList(c.Query("assignee_ids")),
		ReporterIDs:     splitList(c.Query("reporter_ids")),
		OrganizationIDs: splitList(c.Query("organization_ids")),
		SearchPhrase:    strings.TrimSpace(c.Query("q")),
	}
	if op := c.Query("created"); op != "" {
		cfg.DateCreated = &domain.DateRule{
			Operator: strings.ToLower(op),
			Start:    c.Query("created_start"),
			End:      c.Query("created_end"),
		}
	}
	if state := c.Query("sla_first_response"); state != "" {
		cfg.SLAFirstResponse = domain.SLAState(strings.ToLower(state))
	}
	if state := c.Query("sla_resolution"); state != "" {
		cfg.SLAResolution = domain.SLAState(strings.ToLower(state))
	}
	return cfg
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
