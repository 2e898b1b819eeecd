package domain

import "time"

// OrganizationStatus toggles whether an organization's settings apply.
type OrganizationStatus string

const (
	OrganizationActive   OrganizationStatus = "active"
	OrganizationInactive OrganizationStatus = "inactive"
)

// Permission flags stored in an organization's settings bag.
const (
	SettingViewAllTickets          = "view_all_tickets"
	SettingViewOrganizationTickets = "view_organization_tickets"
	SettingViewSpecificOrgs        = "view_specific_orgs"
	SettingCreateTickets           = "create_tickets"
	SettingEditTickets             = "edit_tickets"
	SettingDeleteTickets           = "delete_tickets"
	SettingViewInternalComments    = "view_internal_comments"
)

// KnownSettings lists every flag the permission gate reads.
var KnownSettings = []string{
	SettingViewAllTickets,
	SettingViewOrganizationTickets,
	SettingViewSpecificOrgs,
	SettingCreateTickets,
	SettingEditTickets,
	SettingDeleteTickets,
	SettingViewInternalComments,
}

// OrganizationSettings is the serialized settings bag of an organization.
type OrganizationSettings struct {
	Flags          map[string]bool `json:"flags"`
	ViewableOrgIDs []string        `json:"viewable_org_ids,omitempty"`
}

// Enabled reports whether flag is switched on. Missing flags are off.
func (s OrganizationSettings) Enabled(flag string) bool {
	if s.Flags == nil {
		return false
	}
	return s.Flags[flag]
}

// DefaultOrganizationSettings is applied to organizations created without settings.
func DefaultOrganizationSettings() OrganizationSettings {
	return OrganizationSettings{Flags: map[string]bool{
		SettingCreateTickets: true,
		SettingEditTickets:   true,
	}}
}

// Organization groups users that share ticket visibility settings.
type Organization struct {
	ID             string
	Name           string
	Slug           string
	Description    string
	AllowedDomains []string
	Settings       OrganizationSettings
	Status         OrganizationStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsActive reports whether the organization's settings are in force.
func (o *Organization) IsActive() bool {
	return o != nil && o.Status == OrganizationActive
}

// OrganizationMember links a user to an organization.
type OrganizationMember struct {
	OrganizationID string
	UserID         string
	IsAdmin        bool
	CreatedAt      time.Time
}

// OrganizationLog records a change made to an organization.
type OrganizationLog struct {
	ID             string
	OrganizationID string
	ActorID        *string
	Action         string
	Details        map[string]any
	CreatedAt      time.Time
}

// Membership is a user's view of one of their organizations.
type Membership struct {
	Organization Organization
	IsAdmin      bool
	JoinedAt     time.Time
}
