package service

import (
	"context"
	"strings"

	"github.com/ivovalerieviliev/help-desk-sub001/internal/domain"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/events"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/repository"
	apperrors "github.com/ivovalerieviliev/help-desk-sub001/pkg/util"
)

// HandoverService manages shift handover reports. All operations are staff only.
type HandoverService struct {
	handovers  repository.HandoverRepository
	tickets    repository.TicketRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	now        Clock
}

// HandoverDependencies bundles collaborators for the handover service.
type HandoverDependencies struct {
	HandoverRepo repository.HandoverRepository
	TicketRepo   repository.TicketRepository
	UserRepo     repository.UserRepository
	Dispatcher   events.Dispatcher
	Clock        Clock
}

// HandoverTicketInput references a ticket with an optional note.
type HandoverTicketInput struct {
	TicketID string
	Note     string
}

// HandoverInput describes handover create/update payloads.
type HandoverInput struct {
	Title      string
	ShiftNotes string
	Tickets    []HandoverTicketInput
}

// NewHandoverService constructs the service.
func NewHandoverService(deps HandoverDependencies) *HandoverService {
	return &HandoverService{
		handovers:  deps.HandoverRepo,
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		now:        clockOrNow(deps.Clock),
	}
}

// Create stores a pending handover authored by user.
func (s *HandoverService) Create(ctx context.Context, user *domain.User, input HandoverInput) (*domain.Handover, error) {
	if err := requireStaff(user); err != nil {
		return nil, err
	}
	handover := &domain.Handover{AuthorID: user.ID, Status: domain.HandoverPending}
	if err := s.apply(ctx, handover, input); err != nil {
		return nil, err
	}
	if err := s.handovers.Create(ctx, handover); err != nil {
		return nil, apperrors.MapError(err)
	}
	handover.ActionItems = []domain.ActionItem{}
	return handover, nil
}

// Get returns a handover with tickets and action items.
func (s *HandoverService) Get(ctx context.Context, user *domain.User, id string) (*domain.Handover, error) {
	if err := requireStaff(user); err != nil {
		return nil, err
	}
	handover, err := s.handovers.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.FromRepo(err, "handover", map[string]any{"handover_id": id})
	}
	return handover, nil
}

// List returns handover headers, optionally filtered by status.
func (s *HandoverService) List(ctx context.Context, user *domain.User, status *domain.HandoverStatus, limit, offset int) ([]domain.Handover, error) {
	if err := requireStaff(user); err != nil {
		return nil, err
	}
	if status != nil && *status != domain.HandoverPending && *status != domain.HandoverReviewed {
		return nil, apperrors.NewValidationError("unknown handover status", map[string]any{"status": *status})
	}
	handovers, err := s.handovers.List(ctx, status, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return handovers, nil
}

// Update rewrites title, notes and the ordered ticket list. Reviewed
// handovers are frozen.
func (s *HandoverService) Update(ctx context.Context, user *domain.User, id string, input HandoverInput) (*domain.Handover, error) {
	handover, err := s.Get(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if handover.Status == domain.HandoverReviewed {
		return nil, apperrors.NewConflict("handover already reviewed", map[string]any{"handover_id": id})
	}
	if handover.AuthorID != user.ID && !user.IsAdmin() {
		return nil, apperrors.NewForbidden("only the author may edit a handover")
	}
	if err := s.apply(ctx, handover, input); err != nil {
		return nil, err
	}
	if err := s.handovers.Update(ctx, handover); err != nil {
		return nil, apperrors.FromRepo(err, "handover", map[string]any{"handover_id": id})
	}
	return handover, nil
}

// MarkReviewed acknowledges a pending handover.
func (s *HandoverService) MarkReviewed(ctx context.Context, user *domain.User, id string) (*domain.Handover, error) {
	handover, err := s.Get(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if handover.Status == domain.HandoverReviewed {
		return nil, apperrors.NewConflict("handover already reviewed", map[string]any{"handover_id": id})
	}
	now := s.now()
	reviewer := user.ID
	handover.Status = domain.HandoverReviewed
	handover.ReviewedBy = &reviewer
	handover.ReviewedAt = &now
	if err := s.handovers.MarkReviewed(ctx, handover); err != nil {
		return nil, apperrors.FromRepo(err, "handover", map[string]any{"handover_id": id})
	}

	ticketIDs := make([]string, 0, len(handover.Tickets))
	for _, t := range handover.Tickets {
		ticketIDs = append(ticketIDs, t.TicketID)
	}
	publish(ctx, s.dispatcher, s.now, events.Event{
		Type:  events.EventHandoverReviewed,
		Actor: actorOf(user),
		Payload: events.HandoverReviewedPayload{
			HandoverID: handover.ID,
			AuthorID:   handover.AuthorID,
			TicketIDs:  ticketIDs,
		},
	})
	return handover, nil
}

// Delete removes a handover. Only its author or an admin may delete it.
func (s *HandoverService) Delete(ctx context.Context, user *domain.User, id string) error {
	handover, err := s.Get(ctx, user, id)
	if err != nil {
		return err
	}
	if handover.AuthorID != user.ID && !user.IsAdmin() {
		return apperrors.NewForbidden("only the author may delete a handover")
	}
	if err := s.handovers.Delete(ctx, id); err != nil {
		return apperrors.FromRepo(err, "handover", map[string]any{"handover_id": id})
	}
	return nil
}

// AddActionItem attaches a follow-up task.
func (s *HandoverService) AddActionItem(ctx context.Context, user *domain.User, handoverID, description string, assigneeID *string) (*domain.ActionItem, error) {
	if _, err := s.Get(ctx, user, handoverID); err != nil {
		return nil, err
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, apperrors.NewMissingField("description")
	}
	if assigneeID != nil {
		assignee, err := s.users.GetByID(ctx, *assigneeID)
		if err != nil {
			return nil, apperrors.FromRepo(err, "assignee", map[string]any{"user_id": *assigneeID})
		}
		if !assignee.IsStaff() {
			return nil, apperrors.NewValidationError("action items can only be assigned to staff", map[string]any{"user_id": *assigneeID})
		}
	}
	item := &domain.ActionItem{HandoverID: handoverID, Description: description, AssigneeID: assigneeID}
	if err := s.handovers.AddActionItem(ctx, item); err != nil {
		return nil, apperrors.MapError(err)
	}
	return item, nil
}

// CompleteActionItem marks an action item done. Completing twice keeps the
// first completion time.
func (s *HandoverService) CompleteActionItem(ctx context.Context, user *domain.User, handoverID, itemID string) (*domain.ActionItem, error) {
	if err := requireStaff(user); err != nil {
		return nil, err
	}
	item, err := s.handovers.CompleteActionItem(ctx, handoverID, itemID)
	if err != nil {
		return nil, apperrors.FromRepo(err, "action item", map[string]any{"handover_id": handoverID, "item_id": itemID})
	}
	return item, nil
}

func (s *HandoverService) apply(ctx context.Context, handover *domain.Handover, input HandoverInput) error {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return apperrors.NewMissingField("title")
	}
	seen := make(map[string]struct{}, len(input.Tickets))
	links := make([]domain.HandoverTicket, 0, len(input.Tickets))
	for i, t := range input.Tickets {
		ticketID := strings.TrimSpace(t.TicketID)
		if ticketID == "" {
			return apperrors.NewMissingField("tickets.ticket_id")
		}
		if _, dup := seen[ticketID]; dup {
			return apperrors.NewValidationError("ticket listed twice", map[string]any{"ticket_id": ticketID})
		}
		seen[ticketID] = struct{}{}
		if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
			if isNotFound(err) {
				return apperrors.NewValidationError("unknown ticket", map[string]any{"ticket_id": ticketID})
			}
			return apperrors.MapError(err)
		}
		links = append(links, domain.HandoverTicket{
			HandoverID: handover.ID,
			TicketID:   ticketID,
			Position:   i,
			Note:       strings.TrimSpace(t.Note),
		})
	}
	handover.Title = title
	handover.ShiftNotes = strings.TrimSpace(input.ShiftNotes)
	handover.Tickets = links
	return nil
}
