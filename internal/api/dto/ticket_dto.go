package dto

import (
	"time"

	"github.com/ivovalerieviliev/help-desk-sub001/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	Category    string     `json:"category"`
	AssigneeID  *string    `json:"assignee_id"`
	AuthorID    *string    `json:"author_id"`
	DueDate     *time.Time `json:"due_date"`
	Tags        []string   `json:"tags"`
}

// UpdateTicketRequest payload. Absent fields stay unchanged; the clear_*
// flags remove optional values.
type UpdateTicketRequest struct {
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	Status        *string    `json:"status"`
	Priority      *string    `json:"priority"`
	Category      *string    `json:"category"`
	AssigneeID    *string    `json:"assignee_id"`
	ClearAssignee bool       `json:"clear_assignee"`
	DueDate       *time.Time `json:"due_date"`
	ClearDueDate  bool       `json:"clear_due_date"`
	Tags          *[]string  `json:"tags"`
}

// AssignTicketRequest payload. A null assignee unassigns the ticket.
type AssignTicketRequest struct {
	AssigneeID *string `json:"assignee_id"`
}

// SLAStatusResponse is the evaluated SLA of a ticket.
type SLAStatusResponse struct {
	FirstResponse    domain.SLAState `json:"first_response"`
	Resolution       domain.SLAState `json:"resolution"`
	FirstResponseDue time.Time       `json:"first_response_due"`
	ResolutionDue    time.Time       `json:"resolution_due"`
	FirstResponseAt  *time.Time      `json:"first_response_at,omitempty"`
	ResolvedAt       *time.Time      `json:"resolved_at,omitempty"`
	EvaluatedAt      time.Time       `json:"evaluated_at"`
}

// TicketResponse is a ticket with its SLA when one is tracked.
type TicketResponse struct {
	ID          string             `json:"id"`
	Key         string             `json:"key"`
	AuthorID    string             `json:"author_id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Status      string             `json:"status"`
	Priority    string             `json:"priority"`
	Category    string             `json:"category"`
	AssigneeID  *string            `json:"assignee_id"`
	DueDate     *time.Time         `json:"due_date"`
	Tags        []string           `json:"tags"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	SLA         *SLAStatusResponse `json:"sla,omitempty"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Body       string `json:"body"`
	IsInternal bool   `json:"is_internal"`
}

// CommentResponse represents a thread message.
type CommentResponse struct {
	ID         string    `json:"id"`
	TicketID   string    `json:"ticket_id"`
	AuthorID   string    `json:"author_id"`
	Body       string    `json:"body"`
	IsInternal bool      `json:"is_internal"`
	CreatedAt  time.Time `json:"created_at"`
}

// TicketHistoryResponse is one audit entry.
type TicketHistoryResponse struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	OldValue  string    `json:"old_value"`
	NewValue  string    `json:"new_value"`
	ActorID   *string   `json:"actor_id"`
	CreatedAt time.Time `json:"created_at"`
}
