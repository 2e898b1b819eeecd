package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ivovalerieviliev/help-desk-sub001/internal/access"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/config"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/domain"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/events"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/queuefilter"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/repository"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/sla"
	apperrors "github.com/ivovalerieviliev/help-desk-sub001/pkg/util"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	history    repository.TicketHistoryRepository
	slas       repository.SLARepository
	users      repository.UserRepository
	gate       *access.Gate
	translator *queuefilter.Translator
	engine     *sla.Engine
	helpdesk   config.HelpdeskConfig
	dispatcher events.Dispatcher
	now        Clock
	newKey     func() string
}

// ticketKeyAttempts bounds how often a colliding ticket key is regenerated.
const ticketKeyAttempts = 3

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	HistoryRepo repository.TicketHistoryRepository
	SLARepo     repository.SLARepository
	UserRepo    repository.UserRepository
	Gate        *access.Gate
	Translator  *queuefilter.Translator
	Engine      *sla.Engine
	Helpdesk    config.HelpdeskConfig
	Dispatcher  events.Dispatcher
	Clock       Clock
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Status      string
	Priority    string
	Category    string
	AssigneeID  *string
	// AuthorID lets staff open a ticket on behalf of a requester.
	AuthorID *string
	DueDate  *time.Time
	Tags     []string
}

// TicketUpdateInput carries the fields to change. Nil fields are untouched.
type TicketUpdateInput struct {
	Title         *string
	Description   *string
	Status        *string
	Priority      *string
	Category      *string
	AssigneeID    *string
	ClearAssignee bool
	DueDate       *time.Time
	ClearDueDate  bool
	Tags          *[]string
}

// TicketView is a ticket with its SLA evaluated at read time.
type TicketView struct {
	Ticket domain.Ticket
	SLA    *domain.SLAStatus
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		history:    deps.HistoryRepo,
		slas:       deps.SLARepo,
		users:      deps.UserRepo,
		gate:       deps.Gate,
		translator: deps.Translator,
		engine:     deps.Engine,
		helpdesk:   deps.Helpdesk,
		dispatcher: deps.Dispatcher,
		now:        clockOrNow(deps.Clock),
		newKey:     generateTicketKey,
	}
}

// insertWithFreshKey stores ticket, drawing a new key whenever the previous
// one collided with an existing ticket.
func (s *TicketService) insertWithFreshKey(ctx context.Context, ticket *domain.Ticket) error {
	var err error
	for attempt := 0; attempt < ticketKeyAttempts; attempt++ {
		ticket.Key = s.newKey()
		if err = s.tickets.Create(ctx, ticket); !repository.IsUniqueViolation(err) {
			return err
		}
	}
	return fmt.Errorf("allocate ticket key after %d attempts: %w", ticketKeyAttempts, err)
}

// CreateTicket opens a ticket, starts its SLA clock and records the creation.
func (s *TicketService) CreateTicket(ctx context.Context, user *domain.User, input TicketCreateInput) (*TicketView, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	subject, err := s.gate.Resolve(ctx, user)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !subject.CanCreate() {
		return nil, apperrors.NewForbidden("organization does not allow ticket creation")
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewMissingField("title")
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, apperrors.NewMissingField("description")
	}
	status, err := s.resolveStatus(input.Status)
	if err != nil {
		return nil, err
	}
	priority, err := s.resolvePriority(input.Priority)
	if err != nil {
		return nil, err
	}

	authorID := user.ID
	if input.AuthorID != nil && *input.AuthorID != user.ID {
		if !user.IsStaff() {
			return nil, apperrors.NewForbidden("only staff may open tickets for other users")
		}
		if _, err := s.users.GetByID(ctx, *input.AuthorID); err != nil {
			return nil, apperrors.FromRepo(err, "requester", map[string]any{"user_id": *input.AuthorID})
		}
		authorID = *input.AuthorID
	}
	if input.AssigneeID != nil {
		if !user.IsStaff() {
			return nil, apperrors.NewForbidden("only staff may assign tickets")
		}
		if err := s.validateAssignee(ctx, *input.AssigneeID); err != nil {
			return nil, err
		}
	}

	ticket := &domain.Ticket{
		AuthorID:    authorID,
		Title:       title,
		Description: description,
		Status:      status,
		Priority:    priority,
		Category:    strings.TrimSpace(input.Category),
		AssigneeID:  input.AssigneeID,
		DueDate:     input.DueDate,
		Tags:        normalizeList(input.Tags),
	}
	if err := s.insertWithFreshKey(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	record := s.engine.Deadlines(ticket.ID, ticket.CreatedAt, ticket.Priority)
	if err := s.slas.Create(ctx, &record); err != nil {
		return nil, apperrors.MapError(err)
	}
	if s.helpdesk.IsResolved(ticket.Status) {
		if err := s.slas.MarkResolved(ctx, ticket.ID, ticket.CreatedAt); err != nil {
			return nil, apperrors.MapError(err)
		}
		resolvedAt := ticket.CreatedAt
		record.ResolvedAt = &resolvedAt
	}
	if err := s.recordHistory(ctx, user, ticket.ID, domain.ActionCreated, "", ticket.Status); err != nil {
		return nil, err
	}

	publish(ctx, s.dispatcher, s.now, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    actorOf(user),
		Payload: events.TicketCreatedPayload{
			Key:      ticket.Key,
			Title:    ticket.Title,
			Priority: ticket.Priority,
			Category: ticket.Category,
			AuthorID: ticket.AuthorID,
		},
	})
	if ticket.AssigneeID != nil {
		publish(ctx, s.dispatcher, s.now, events.Event{
			Type:     events.EventTicketAssigned,
			TicketID: ticket.ID,
			Actor:    actorOf(user),
			Payload:  events.TicketAssignedPayload{AssigneeID: ticket.AssigneeID},
		})
	}

	slaStatus := s.engine.Evaluate(record, s.now())
	return &TicketView{Ticket: *ticket, SLA: &slaStatus}, nil
}

// GetTicket returns a ticket the user may see. Tickets outside the user's
// visibility are reported as not found.
func (s *TicketService) GetTicket(ctx context.Context, user *domain.User, ticketID string) (*TicketView, error) {
	ticket, _, err := s.loadVisible(ctx, user, ticketID)
	if err != nil {
		return nil, err
	}
	views, err := s.withSLA(ctx, []domain.Ticket{*ticket}, nil)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// UpdateTicket applies input, appending one history entry per changed field.
func (s *TicketService) UpdateTicket(ctx context.Context, user *domain.User, ticketID string, input TicketUpdateInput) (*TicketView, error) {
	ticket, subject, err := s.loadVisible(ctx, user, ticketID)
	if err != nil {
		return nil, err
	}
	if !subject.CanEdit(ticket) {
		return nil, apperrors.NewForbidden("not allowed to edit this ticket")
	}

	before := *ticket
	changes := []events.FieldChange{}
	change := func(action domain.HistoryAction, oldValue, newValue string) {
		changes = append(changes, events.FieldChange{Action: action, OldValue: oldValue, NewValue: newValue})
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.NewMissingField("title")
		}
		if title != ticket.Title {
			change(domain.ActionTitleChanged, ticket.Title, title)
			ticket.Title = title
		}
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description == "" {
			return nil, apperrors.NewMissingField("description")
		}
		if description != ticket.Description {
			change(domain.ActionDescriptionChanged, ticket.Description, description)
			ticket.Description = description
		}
	}
	if input.Status != nil {
		status, err := s.resolveStatus(*input.Status)
		if err != nil {
			return nil, err
		}
		if status != ticket.Status {
			change(domain.ActionStatusChanged, ticket.Status, status)
			ticket.Status = status
		}
	}
	if input.Priority != nil {
		priority, err := s.resolvePriority(*input.Priority)
		if err != nil {
			return nil, err
		}
		if priority != ticket.Priority {
			change(domain.ActionPriorityChanged, ticket.Priority, priority)
			ticket.Priority = priority
		}
	}
	if input.Category != nil {
		category := strings.TrimSpace(*input.Category)
		if category != ticket.Category {
			change(domain.ActionCategoryChanged, ticket.Category, category)
			ticket.Category = category
		}
	}
	if input.ClearAssignee || input.AssigneeID != nil {
		if !user.IsStaff() {
			return nil, apperrors.NewForbidden("only staff may assign tickets")
		}
		var next *string
		if !input.ClearAssignee {
			if err := s.validateAssignee(ctx, *input.AssigneeID); err != nil {
				return nil, err
			}
			id := *input.AssigneeID
			next = &id
		}
		if !sameStringPtr(ticket.AssigneeID, next) {
			change(domain.ActionAssigneeChanged, valueOrEmpty(ticket.AssigneeID), valueOrEmpty(next))
			ticket.AssigneeID = next
		}
	}
	if input.ClearDueDate || input.DueDate != nil {
		var next *time.Time
		if !input.ClearDueDate {
			due := *input.DueDate
			next = &due
		}
		if !sameTimePtr(ticket.DueDate, next) {
			change(domain.ActionDueDateChanged, formatTimePtr(ticket.DueDate), formatTimePtr(next))
			ticket.DueDate = next
		}
	}
	if input.Tags != nil {
		tags := normalizeList(*input.Tags)
		if !sameList(tags, ticket.Tags) {
			change(domain.ActionTagsChanged, strings.Join(ticket.Tags, ","), strings.Join(tags, ","))
			ticket.Tags = tags
		}
	}

	if len(changes) == 0 {
		return s.GetTicket(ctx, user, ticketID)
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.FromRepo(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	for _, c := range changes {
		if err := s.recordHistory(ctx, user, ticket.ID, c.Action, c.OldValue, c.NewValue); err != nil {
			return nil, err
		}
	}

	if ticket.Priority != before.Priority {
		if err := s.rescheduleSLA(ctx, ticket); err != nil {
			return nil, err
		}
	}
	enteredResolved := ticket.Status != before.Status && s.helpdesk.IsResolved(ticket.Status)
	if enteredResolved {
		if err := s.slas.MarkResolved(ctx, ticket.ID, s.now()); err != nil && !isNotFound(err) {
			return nil, apperrors.MapError(err)
		}
	}

	s.publishChanges(ctx, user, &before, ticket, changes, enteredResolved)
	return s.GetTicket(ctx, user, ticketID)
}

// DeleteTicket removes a ticket and everything hanging off it.
func (s *TicketService) DeleteTicket(ctx context.Context, user *domain.User, ticketID string) error {
	ticket, subject, err := s.loadVisible(ctx, user, ticketID)
	if err != nil {
		return err
	}
	if !subject.CanDelete(ticket) {
		return apperrors.NewForbidden("not allowed to delete this ticket")
	}
	if err := s.tickets.Delete(ctx, ticket.ID); err != nil {
		return apperrors.FromRepo(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	return nil
}

// Search lists the tickets matching cfg that the user may see.
func (s *TicketService) Search(ctx context.Context, user *domain.User, cfg domain.FilterConfig, page Page) ([]TicketView, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	subject, err := s.gate.Resolve(ctx, user)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	translation, err := s.translator.Translate(ctx, cfg, subject)
	if err != nil {
		if errors.Is(err, queuefilter.ErrInvalidConfig) {
			return nil, apperrors.NewValidationError(err.Error(), nil)
		}
		return nil, apperrors.MapError(err)
	}

	query := translation.Query
	if err := s.applyPage(&query, page); err != nil {
		return nil, err
	}
	tickets, err := s.tickets.List(ctx, query)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.withSLA(ctx, tickets, translation.MatchSLA)
}

// ListUrgent returns open tickets with an urgent priority, nearest
// resolution deadline first.
func (s *TicketService) ListUrgent(ctx context.Context, user *domain.User, limit int) ([]TicketView, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	subject, err := s.gate.Resolve(ctx, user)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	query := repository.TicketQuery{
		Priorities:      s.helpdesk.UrgentPriorities,
		ExcludeStatuses: s.helpdesk.ResolvedStatuses,
	}
	if len(query.Priorities) == 0 {
		return []TicketView{}, nil
	}
	if !subject.Visibility.All() {
		query.RestrictAuthors = true
		query.AuthorIDs = subject.Visibility.AuthorIDs
	}
	if err := s.applyPage(&query, Page{SortField: "sla_due", SortOrder: "asc", Limit: limit}); err != nil {
		return nil, err
	}
	tickets, err := s.tickets.List(ctx, query)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.withSLA(ctx, tickets, nil)
}

// ListHistory returns the change log of a visible ticket, oldest first.
func (s *TicketService) ListHistory(ctx context.Context, user *domain.User, ticketID string) ([]domain.HistoryEntry, error) {
	if _, _, err := s.loadVisible(ctx, user, ticketID); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// SLAStatus evaluates the deadlines of a visible ticket now.
func (s *TicketService) SLAStatus(ctx context.Context, user *domain.User, ticketID string) (*domain.SLAStatus, error) {
	if _, _, err := s.loadVisible(ctx, user, ticketID); err != nil {
		return nil, err
	}
	record, err := s.slas.Get(ctx, ticketID)
	if err != nil {
		return nil, apperrors.FromRepo(err, "sla record", map[string]any{"ticket_id": ticketID})
	}
	status := s.engine.Evaluate(*record, s.now())
	return &status, nil
}

func (s *TicketService) loadVisible(ctx context.Context, user *domain.User, ticketID string) (*domain.Ticket, *access.Subject, error) {
	if err := requireUser(user); err != nil {
		return nil, nil, err
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, nil, apperrors.FromRepo(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	subject, err := s.gate.Resolve(ctx, user)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	if !subject.CanView(ticket) {
		return nil, nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	return ticket, subject, nil
}

func (s *TicketService) withSLA(ctx context.Context, tickets []domain.Ticket, keep func(*domain.SLAStatus) bool) ([]TicketView, error) {
	ids := make([]string, 0, len(tickets))
	for _, t := range tickets {
		ids = append(ids, t.ID)
	}
	records, err := s.slas.GetMany(ctx, ids)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	now := s.now()
	views := make([]TicketView, 0, len(tickets))
	for _, t := range tickets {
		view := TicketView{Ticket: t}
		if record, ok := records[t.ID]; ok {
			status := s.engine.Evaluate(record, now)
			view.SLA = &status
		}
		if keep != nil && !keep(view.SLA) {
			continue
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *TicketService) applyPage(query *repository.TicketQuery, page Page) error {
	if page.SortField != "" {
		if !repository.IsSortField(page.SortField) {
			return apperrors.NewValidationError("unsupported sort field", map[string]any{"sort_field": page.SortField})
		}
		query.SortField = page.SortField
	}
	switch strings.ToLower(page.SortOrder) {
	case "":
	case "asc", "desc":
		query.SortOrder = strings.ToLower(page.SortOrder)
	default:
		return apperrors.NewValidationError("sort order must be asc or desc", map[string]any{"sort_order": page.SortOrder})
	}
	query.Limit = clampLimit(page.Limit, s.helpdesk.DefaultPageSize, s.helpdesk.MaxPageSize)
	query.Offset = page.Offset
	if query.Offset < 0 {
		query.Offset = 0
	}
	return nil
}

func clampLimit(limit, fallback, max int) int {
	if limit <= 0 {
		limit = fallback
	}
	if max > 0 && limit > max {
		limit = max
	}
	return limit
}

func (s *TicketService) resolveStatus(raw string) (string, error) {
	status := strings.ToLower(strings.TrimSpace(raw))
	if status == "" {
		return s.helpdesk.InitialStatus(), nil
	}
	if !s.helpdesk.HasStatus(status) {
		return "", apperrors.NewValidationError("unknown status", map[string]any{"status": raw, "allowed": s.helpdesk.Statuses})
	}
	return status, nil
}

func (s *TicketService) resolvePriority(raw string) (string, error) {
	priority := strings.ToLower(strings.TrimSpace(raw))
	if priority == "" {
		return s.helpdesk.DefaultPriority, nil
	}
	if _, ok := s.helpdesk.Priority(priority); !ok {
		return "", apperrors.NewValidationError("unknown priority", map[string]any{"priority": raw})
	}
	return priority, nil
}

func (s *TicketService) validateAssignee(ctx context.Context, assigneeID string) error {
	assignee, err := s.users.GetByID(ctx, assigneeID)
	if err != nil {
		return apperrors.FromRepo(err, "assignee", map[string]any{"user_id": assigneeID})
	}
	if !assignee.IsStaff() || !assignee.Active {
		return apperrors.NewValidationError("assignee must be an active staff member", map[string]any{"user_id": assigneeID})
	}
	return nil
}

func (s *TicketService) rescheduleSLA(ctx context.Context, ticket *domain.Ticket) error {
	record, err := s.slas.Get(ctx, ticket.ID)
	if isNotFound(err) {
		fresh := s.engine.Deadlines(ticket.ID, ticket.CreatedAt, ticket.Priority)
		if err := s.slas.Create(ctx, &fresh); err != nil {
			return apperrors.MapError(err)
		}
		return nil
	}
	if err != nil {
		return apperrors.MapError(err)
	}
	updated := s.engine.Reschedule(*record, ticket.Priority)
	if err := s.slas.UpdateDeadlines(ctx, &updated); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *TicketService) recordHistory(ctx context.Context, user *domain.User, ticketID string, action domain.HistoryAction, oldValue, newValue string) error {
	actorID := user.ID
	entry := &domain.HistoryEntry{
		TicketID: ticketID,
		Action:   action,
		OldValue: oldValue,
		NewValue: newValue,
		ActorID:  &actorID,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *TicketService) publishChanges(ctx context.Context, user *domain.User, before, after *domain.Ticket, changes []events.FieldChange, resolved bool) {
	actor := actorOf(user)
	publish(ctx, s.dispatcher, s.now, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: after.ID,
		Actor:    actor,
		Payload:  events.TicketUpdatedPayload{Changes: changes},
	})
	if before.Status != after.Status {
		publish(ctx, s.dispatcher, s.now, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: after.ID,
			Actor:    actor,
			Payload: events.TicketStatusChangedPayload{
				OldStatus: before.Status,
				NewStatus: after.Status,
				Resolved:  resolved,
			},
		})
	}
	if before.Priority != after.Priority {
		publish(ctx, s.dispatcher, s.now, events.Event{
			Type:     events.EventTicketPriorityChanged,
			TicketID: after.ID,
			Actor:    actor,
			Payload: events.TicketPriorityChangedPayload{
				OldPriority: before.Priority,
				NewPriority: after.Priority,
			},
		})
	}
	if !sameStringPtr(before.AssigneeID, after.AssigneeID) {
		publish(ctx, s.dispatcher, s.now, events.Event{
			Type:     events.EventTicketAssigned,
			TicketID: after.ID,
			Actor:    actor,
			Payload: events.TicketAssignedPayload{
				PreviousAssigneeID: before.AssigneeID,
				AssigneeID:         after.AssigneeID,
			},
		})
	}
}
