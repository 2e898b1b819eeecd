package domain

import "time"

// HandoverStatus tracks whether the incoming shift acknowledged a report.
type HandoverStatus string

const (
	HandoverPending  HandoverStatus = "pending"
	HandoverReviewed HandoverStatus = "reviewed"
)

// Handover is a shift-change report bundling tickets with notes.
type Handover struct {
	ID          string
	AuthorID    string
	Title       string
	ShiftNotes  string
	Status      HandoverStatus
	ReviewedBy  *string
	ReviewedAt  *time.Time
	Tickets     []HandoverTicket
	ActionItems []ActionItem
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HandoverTicket is a ticket referenced by a handover, in display order.
type HandoverTicket struct {
	HandoverID string
	TicketID   string
	Position   int
	Note       string
}

// ActionItem is a follow-up task attached to a handover.
type ActionItem struct {
	ID          string
	HandoverID  string
	Description string
	AssigneeID  *string
	Completed   bool
	CompletedAt *time.Time
	CreatedAt   time.Time
}
