package dto

import (
	"time"

	"github.com/ivovalerieviliev/help-desk-sub001/internal/domain"
)

// OrganizationRequest is used for create and partial update.
type OrganizationRequest struct {
	Name           *string                      `json:"name"`
	Slug           *string                      `json:"slug"`
	Description    *string                      `json:"description"`
	AllowedDomains *[]string                    `json:"allowed_domains"`
	Settings       *domain.OrganizationSettings `json:"settings"`
	Status         *string                      `json:"status"`
}

// OrganizationResponse describes an organization.
type OrganizationResponse struct {
	ID             string                      `json:"id"`
	Name           string                      `json:"name"`
	Slug           string                      `json:"slug"`
	Description    string                      `json:"description"`
	AllowedDomains []string                    `json:"allowed_domains"`
	Settings       domain.OrganizationSettings `json:"settings"`
	Status         string                      `json:"status"`
	CreatedAt      time.Time                   `json:"created_at"`
	UpdatedAt      time.Time                   `json:"updated_at"`
}

// OrganizationDetailResponse adds the member list.
type OrganizationDetailResponse struct {
	OrganizationResponse
	Members []MemberResponse `json:"members"`
}

// AddMemberRequest payload.
type AddMemberRequest struct {
	UserID  string `json:"user_id"`
	IsAdmin bool   `json:"is_admin"`
}

// MemberRoleRequest toggles the organization admin flag.
type MemberRoleRequest struct {
	IsAdmin bool `json:"is_admin"`
}

// MemberResponse is one membership row.
type MemberResponse struct {
	OrganizationID string    `json:"organization_id"`
	UserID         string    `json:"user_id"`
	IsAdmin        bool      `json:"is_admin"`
	CreatedAt      time.Time `json:"created_at"`
}

// OrganizationLogResponse is one audit entry.
type OrganizationLogResponse struct {
	ID        string         `json:"id"`
	ActorID   *string        `json:"actor_id"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
