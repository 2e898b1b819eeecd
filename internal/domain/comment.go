package domain

import "time"

// Comment is an immutable message on a ticket thread. Internal comments are
// only shown to staff and to organizations allowed to see them.
type Comment struct {
	ID         string
	TicketID   string
	AuthorID   string
	Body       string
	IsInternal bool
	CreatedAt  time.Time
}
