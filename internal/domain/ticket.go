package domain

import "time"

// Ticket is the aggregate for support requests. Status and priority are
// drawn from the configured vocabulary rather than a fixed enum.
type Ticket struct {
	ID          string
	Key         string
	AuthorID    string
	Title       string
	Description string
	Status      string
	Priority    string
	Category    string
	AssigneeID  *string
	DueDate     *time.Time
	Tags        []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsAssigned reports whether an agent owns the ticket.
func (t *Ticket) IsAssigned() bool {
	return t.AssigneeID != nil && *t.AssigneeID != ""
}
