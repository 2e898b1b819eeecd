package dto

import "time"

// HandoverTicketRequest references a ticket in a handover.
type HandoverTicketRequest struct {
	TicketID string `json:"ticket_id"`
	Note     string `json:"note"`
}

// HandoverRequest payload for create and update.
type HandoverRequest struct {
	Title      string                  `json:"title"`
	ShiftNotes string                  `json:"shift_notes"`
	Tickets    []HandoverTicketRequest `json:"tickets"`
}

// ActionItemRequest payload.
type ActionItemRequest struct {
	Description string  `json:"description"`
	AssigneeID  *string `json:"assignee_id"`
}

// HandoverTicketResponse is a ticket reference in display order.
type HandoverTicketResponse struct {
	TicketID string `json:"ticket_id"`
	Position int    `json:"position"`
	Note     string `json:"note"`
}

// ActionItemResponse describes a follow-up task.
type ActionItemResponse struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	AssigneeID  *string    `json:"assignee_id"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// HandoverResponse describes a handover report.
type HandoverResponse struct {
	ID          string                   `json:"id"`
	AuthorID    string                   `json:"author_id"`
	Title       string                   `json:"title"`
	ShiftNotes  string                   `json:"shift_notes"`
	Status      string                   `json:"status"`
	ReviewedBy  *string                  `json:"reviewed_by"`
	ReviewedAt  *time.Time               `json:"reviewed_at"`
	Tickets     []HandoverTicketResponse `json:"tickets"`
	ActionItems []ActionItemResponse     `json:"action_items"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
}
