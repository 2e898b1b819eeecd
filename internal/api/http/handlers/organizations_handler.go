package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ivovalerieviliev/help-desk-sub001/internal/api/dto"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/domain"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/repository"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/service"
	apperrors "github.com/ivovalerieviliev/help-desk-sub001/pkg/util"
)

// OrganizationsHandler exposes organizations, members and their audit log.
type OrganizationsHandler struct {
	orgs *service.OrganizationService
}

// NewOrganizationsHandler constructs handler.
func NewOrganizationsHandler(orgs *service.OrganizationService) *OrganizationsHandler {
	return &OrganizationsHandler{orgs: orgs}
}

// Create POST /organizations.
func (h *OrganizationsHandler) Create(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.OrganizationRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	org, err := h.orgs.Create(c.UserContext(), user, organizationInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": organizationResponse(org)})
}

// List GET /organizations.
func (h *OrganizationsHandler) List(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	filter := repository.OrganizationFilter{
		Search: strings.TrimSpace(c.Query("q")),
		Limit:  parseInt(c.Query("limit"), 50),
		Offset: parseInt(c.Query("offset"), 0),
	}
	if status := c.Query("status"); status != "" {
		s := domain.OrganizationStatus(strings.ToLower(status))
		filter.Status = &s
	}
	orgs, err := h.orgs.List(c.UserContext(), user, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": organizationResponses(orgs)})
}

// Get GET /organizations/:id.
func (h *OrganizationsHandler) Get(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "organization")
	if err != nil {
		return err
	}
	detail, err := h.orgs.Get(c.UserContext(), user, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.OrganizationDetailResponse{
		OrganizationResponse: organizationResponse(&detail.Organization),
		Members:              memberResponses(detail.Members),
	}})
}

// Update PATCH /organizations/:id.
func (h *OrganizationsHandler) Update(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.OrganizationRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	id, err := pathID(c, "id", "organization")
	if err != nil {
		return err
	}
	org, err := h.orgs.Update(c.UserContext(), user, id, organizationInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": organizationResponse(org)})
}

// Delete DELETE /organizations/:id.
func (h *OrganizationsHandler) Delete(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "organization")
	if err != nil {
		return err
	}
	if err := h.orgs.Delete(c.UserContext(), user, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListMembers GET /organizations/:id/members.
func (h *OrganizationsHandler) ListMembers(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "organization")
	if err != nil {
		return err
	}
	members, err := h.orgs.ListMembers(c.UserContext(), user, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": memberResponses(members)})
}

// AddMember POST /organizations/:id/members.
func (h *OrganizationsHandler) AddMember(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.AddMemberRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.UserID) == "" {
		return apperrors.NewMissingField("user_id")
	}
	id, err := pathID(c, "id", "organization")
	if err != nil {
		return err
	}
	member, err := h.orgs.AddMember(c.UserContext(), user, id, req.UserID, req.IsAdmin)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": memberResponse(member)})
}

// SetMemberAdmin PATCH /organizations/:id/members/:userId.
func (h *OrganizationsHandler) SetMemberAdmin(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.MemberRoleRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	id, err := pathID(c, "id", "organization")
	if err != nil {
		return err
	}
	memberID, err := pathID(c, "userId", "membership")
	if err != nil {
		return err
	}
	member, err := h.orgs.SetMemberAdmin(c.UserContext(), user, id, memberID, req.IsAdmin)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": memberResponse(member)})
}

// RemoveMember DELETE /organizations/:id/members/:userId.
func (h *OrganizationsHandler) RemoveMember(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "organization")
	if err != nil {
		return err
	}
	memberID, err := pathID(c, "userId", "membership")
	if err != nil {
		return err
	}
	if err := h.orgs.RemoveMember(c.UserContext(), user, id, memberID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListLogs GET /organizations/:id/logs.
func (h *OrganizationsHandler) ListLogs(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "organization")
	if err != nil {
		return err
	}
	logs, err := h.orgs.ListLogs(c.UserContext(), user, id, parseInt(c.Query("limit"), 100))
	if err != nil {
		return err
	}
	items := make([]dto.OrganizationLogResponse, 0, len(logs))
	for _, entry := range logs {
		items = append(items, dto.OrganizationLogResponse{
			ID:        entry.ID,
			ActorID:   entry.ActorID,
			Action:    entry.Action,
			Details:   entry.Details,
			CreatedAt: entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func organizationInput(req dto.OrganizationRequest) service.OrganizationInput {
	input := service.OrganizationInput{
		Name:           req.Name,
		Slug:           req.Slug,
		Description:    req.Description,
		AllowedDomains: req.AllowedDomains,
		Settings:       req.Settings,
	}
	if req.Status != nil {
		status := domain.OrganizationStatus(strings.ToLower(strings.TrimSpace(*req.Status)))
		input.Status = &status
	}
	return input
}
