package domain

import "time"

// HistoryAction captures what changed in a history entry.
type HistoryAction string

const (
	ActionCreated            HistoryAction = "created"
	ActionStatusChanged      HistoryAction = "status_changed"
	ActionPriorityChanged    HistoryAction = "priority_changed"
	ActionAssigneeChanged    HistoryAction = "assignee_changed"
	ActionCategoryChanged    HistoryAction = "category_changed"
	ActionDueDateChanged     HistoryAction = "due_date_changed"
	ActionTagsChanged        HistoryAction = "tags_changed"
	ActionTitleChanged       HistoryAction = "title_changed"
	ActionDescriptionChanged HistoryAction = "description_changed"
)

// HistoryEntry is an append-only audit record for a ticket field change.
type HistoryEntry struct {
	ID        string
	TicketID  string
	Action    HistoryAction
	OldValue  string
	NewValue  string
	ActorID   *string
	CreatedAt time.Time
}
