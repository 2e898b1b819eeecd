package service

import (
	"context"
	"strings"

	"github.com/ivovalerieviliev/help-desk-sub001/internal/access"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/domain"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/events"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/repository"
	apperrors "github.com/ivovalerieviliev/help-desk-sub001/pkg/util"
)

// CommentService posts and lists ticket comments.
type CommentService struct {
	tickets    repository.TicketRepository
	comments   repository.CommentRepository
	slas       repository.SLARepository
	gate       *access.Gate
	dispatcher events.Dispatcher
	now        Clock
}

// CommentDependencies bundles collaborators for the comment service.
type CommentDependencies struct {
	TicketRepo  repository.TicketRepository
	CommentRepo repository.CommentRepository
	SLARepo     repository.SLARepository
	Gate        *access.Gate
	Dispatcher  events.Dispatcher
	Clock       Clock
}

// NewCommentService constructs the service.
func NewCommentService(deps CommentDependencies) *CommentService {
	return &CommentService{
		tickets:    deps.TicketRepo,
		comments:   deps.CommentRepo,
		slas:       deps.SLARepo,
		gate:       deps.Gate,
		dispatcher: deps.Dispatcher,
		now:        clockOrNow(deps.Clock),
	}
}

// AddComment appends a comment. The first external reply from a staff member
// other than the requester records the ticket's first response.
func (s *CommentService) AddComment(ctx context.Context, user *domain.User, ticketID, body string, internal bool) (*domain.Comment, error) {
	ticket, err := s.visibleTicket(ctx, user, ticketID)
	if err != nil {
		return nil, err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewMissingField("body")
	}
	if internal && !user.IsStaff() {
		return nil, apperrors.NewForbidden("only staff may post internal comments")
	}

	comment := &domain.Comment{
		TicketID:   ticket.ID,
		AuthorID:   user.ID,
		Body:       body,
		IsInternal: internal,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	if !internal && user.IsStaff() && user.ID != ticket.AuthorID {
		if err := s.slas.MarkFirstResponse(ctx, ticket.ID, comment.CreatedAt); err != nil && !isNotFound(err) {
			return nil, apperrors.MapError(err)
		}
	}

	publish(ctx, s.dispatcher, s.now, events.Event{
		Type:     events.EventCommentAdded,
		TicketID: ticket.ID,
		Actor:    actorOf(user),
		Payload: events.CommentAddedPayload{
			CommentID:   comment.ID,
			AuthorID:    comment.AuthorID,
			IsInternal:  comment.IsInternal,
			BodyPreview: stringPreview(comment.Body, 120),
		},
	})
	return comment, nil
}

// ListComments returns the ticket's comments, oldest first. Internal comments
// are included only for subjects allowed to read them.
func (s *CommentService) ListComments(ctx context.Context, user *domain.User, ticketID string) ([]domain.Comment, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.FromRepo(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	subject, err := s.gate.Resolve(ctx, user)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !subject.CanView(ticket) {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	comments, err := s.comments.ListByTicket(ctx, ticket.ID, subject.CanViewInternal())
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return comments, nil
}

func (s *CommentService) visibleTicket(ctx context.Context, user *domain.User, ticketID string) (*domain.Ticket, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.FromRepo(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	subject, err := s.gate.Resolve(ctx, user)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !subject.CanView(ticket) {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	return ticket, nil
}
