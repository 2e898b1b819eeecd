package dto

import (
	"time"

	"github.com/ivovalerieviliev/help-desk-sub001/internal/domain"
)

// QueueFilterRequest payload for create and update.
type QueueFilterRequest struct {
	Name           string              `json:"name"`
	Description    string              `json:"description"`
	FilterType     string              `json:"filter_type"`
	OrganizationID *string             `json:"organization_id"`
	Config         domain.FilterConfig `json:"config"`
	SortField      string              `json:"sort_field"`
	SortOrder      string              `json:"sort_order"`
	IsDefault      bool                `json:"is_default"`
}

// QueueFilterResponse describes a saved filter.
type QueueFilterResponse struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Description    string              `json:"description"`
	FilterType     string              `json:"filter_type"`
	UserID         *string             `json:"user_id,omitempty"`
	OrganizationID *string             `json:"organization_id,omitempty"`
	Config         domain.FilterConfig `json:"config"`
	SortField      string              `json:"sort_field"`
	SortOrder      string              `json:"sort_order"`
	IsDefault      bool                `json:"is_default"`
	CreatedBy      string              `json:"created_by"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}
