package service

import (
	"context"
	"sort"

	"github.com/ivovalerieviliev/help-desk-sub001/internal/domain"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/repository"
	apperrors "github.com/ivovalerieviliev/help-desk-sub001/pkg/util"
)

// AssignmentService routes tickets to staff. Every change goes through the
// ticket service so history and events stay consistent.
type AssignmentService struct {
	tickets *TicketService
	users   repository.UserRepository
}

// NewAssignmentService creates the service.
func NewAssignmentService(tickets *TicketService, users repository.UserRepository) *AssignmentService {
	return &AssignmentService{tickets: tickets, users: users}
}

// SelfAssign assigns the ticket to the calling staff member.
func (s *AssignmentService) SelfAssign(ctx context.Context, actor *domain.User, ticketID string) (*TicketView, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	id := actor.ID
	return s.tickets.UpdateTicket(ctx, actor, ticketID, TicketUpdateInput{AssigneeID: &id})
}

// Assign hands the ticket to assigneeID, or unassigns it when assigneeID is nil.
func (s *AssignmentService) Assign(ctx context.Context, actor *domain.User, ticketID string, assigneeID *string) (*TicketView, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if assigneeID == nil {
		return s.tickets.UpdateTicket(ctx, actor, ticketID, TicketUpdateInput{ClearAssignee: true})
	}
	return s.tickets.UpdateTicket(ctx, actor, ticketID, TicketUpdateInput{AssigneeID: assigneeID})
}

// AutoAssign picks an active agent deterministically from the ticket ID.
func (s *AssignmentService) AutoAssign(ctx context.Context, actor *domain.User, ticketID string) (*TicketView, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	role := domain.RoleAgent
	active := true
	agents, err := s.users.List(ctx, repository.UserFilter{Role: &role, Active: &active, Limit: 1000})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(agents) == 0 {
		return nil, apperrors.NewConflict("no eligible agents", nil)
	}
	sort.Slice(agents, func(i, j int) bool {
		return agents[i].CreatedAt.Before(agents[j].CreatedAt)
	})
	assignee := agents[selectIndex(ticketID, len(agents))].ID
	return s.tickets.UpdateTicket(ctx, actor, ticketID, TicketUpdateInput{AssigneeID: &assignee})
}

func selectIndex(key string, length int) int {
	if length == 0 {
		return 0
	}
	sum := 0
	for _, ch := range key {
		sum += int(ch)
	}
	return sum % length
}
