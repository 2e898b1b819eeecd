package domain

import "time"

// FilterType scopes a saved queue filter to its owner.
type FilterType string

const (
	FilterTypeUser         FilterType = "user"
	FilterTypeOrganization FilterType = "organization"
)

// Assignee rules understood by the filter translator.
const (
	AssigneeMe         = "me"
	AssigneeSpecific   = "specific"
	AssigneeUnassigned = "unassigned"
)

// Date operators understood by the filter translator.
const (
	DateOn      = "on"
	DateBefore  = "before"
	DateAfter   = "after"
	DateBetween = "between"
)

// DateRule restricts the creation date. Dates use YYYY-MM-DD.
type DateRule struct {
	Operator string `json:"operator"`
	Start    string `json:"start,omitempty"`
	End      string `json:"end,omitempty"`
}

// FilterConfig is the declarative predicate set of a queue filter. Every
// field is optional; an empty config matches every visible ticket.
type FilterConfig struct {
	Status           []string  `json:"status,omitempty"`
	Priority         []string  `json:"priority,omitempty"`
	Category         []string  `json:"category,omitempty"`
	AssigneeType     string    `json:"assignee_type,omitempty"`
	AssigneeIDs      []string  `json:"assignee_ids,omitempty"`
	ReporterIDs      []string  `json:"reporter_ids,omitempty"`
	DateCreated      *DateRule `json:"date_created,omitempty"`
	SearchPhrase     string    `json:"search_phrase,omitempty"`
	OrganizationIDs  []string  `json:"organization_ids,omitempty"`
	SLAFirstResponse SLAState  `json:"sla_first_response,omitempty"`
	SLAResolution    SLAState  `json:"sla_resolution,omitempty"`
}

// QueueFilter is a saved, named filter owned by a user or an organization.
type QueueFilter struct {
	ID             string
	Name           string
	Description    string
	FilterType     FilterType
	UserID         *string
	OrganizationID *string
	Config         FilterConfig
	SortField      string
	SortOrder      string
	IsDefault      bool
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OwnerID returns the user or organization the filter belongs to.
func (f *QueueFilter) OwnerID() string {
	if f.FilterType == FilterTypeOrganization && f.OrganizationID != nil {
		return *f.OrganizationID
	}
	if f.UserID != nil {
		return *f.UserID
	}
	return ""
}
