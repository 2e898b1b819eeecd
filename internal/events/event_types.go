package events

import (
	"time"

	"github.com/ivovalerieviliev/help-desk-sub001/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated         EventType = "ticket_created"
	EventTicketUpdated         EventType = "ticket_updated"
	EventTicketStatusChanged   EventType = "ticket_status_changed"
	EventTicketPriorityChanged EventType = "ticket_priority_changed"
	EventTicketAssigned        EventType = "ticket_assigned"
	EventCommentAdded          EventType = "comment_added"
	EventHandoverReviewed      EventType = "handover_reviewed"
)

// AllEventTypes lists every event a service may publish.
var AllEventTypes = []EventType{
	EventTicketCreated,
	EventTicketUpdated,
	EventTicketStatusChanged,
	EventTicketPriorityChanged,
	EventTicketAssigned,
	EventCommentAdded,
	EventHandoverReviewed,
}

// Actor identifies who caused an event.
type Actor struct {
	UserID string          `json:"user_id"`
	Role   domain.UserRole `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Key      string `json:"key"`
	Title    string `json:"title"`
	Priority string `json:"priority"`
	Category string `json:"category,omitempty"`
	AuthorID string `json:"author_id"`
}

// FieldChange is one changed ticket field.
type FieldChange struct {
	Action   domain.HistoryAction `json:"action"`
	OldValue string               `json:"old_value"`
	NewValue string               `json:"new_value"`
}

// TicketUpdatedPayload payload.
type TicketUpdatedPayload struct {
	Changes []FieldChange `json:"changes"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
	Resolved  bool   `json:"resolved"`
}

// TicketPriorityChangedPayload payload.
type TicketPriorityChangedPayload struct {
	OldPriority string `json:"old_priority"`
	NewPriority string `json:"new_priority"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	PreviousAssigneeID *string `json:"previous_assignee_id,omitempty"`
	AssigneeID         *string `json:"assignee_id,omitempty"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID   string `json:"comment_id"`
	AuthorID    string `json:"author_id"`
	IsInternal  bool   `json:"is_internal"`
	BodyPreview string `json:"body_preview"`
}

// HandoverReviewedPayload payload.
type HandoverReviewedPayload struct {
	HandoverID string   `json:"handover_id"`
	AuthorID   string   `json:"author_id"`
	TicketIDs  []string `json:"ticket_ids"`
}
