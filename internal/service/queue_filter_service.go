package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ivovalerieviliev/help-desk-sub001/internal/access"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/domain"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/queuefilter"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/repository"
	apperrors "github.com/ivovalerieviliev/help-desk-sub001/pkg/util"
)

// QueueFilterService manages saved queue filters and runs them.
type QueueFilterService struct {
	filters    repository.QueueFilterRepository
	gate       *access.Gate
	translator *queuefilter.Translator
	tickets    *TicketService
}

// QueueFilterDependencies bundles collaborators for the queue filter service.
type QueueFilterDependencies struct {
	FilterRepo    repository.QueueFilterRepository
	Gate          *access.Gate
	Translator    *queuefilter.Translator
	TicketService *TicketService
}

// QueueFilterInput describes a saved filter. On update, FilterType and
// OrganizationID are ignored.
type QueueFilterInput struct {
	Name           string
	Description    string
	FilterType     domain.FilterType
	OrganizationID *string
	Config         domain.FilterConfig
	SortField      string
	SortOrder      string
	IsDefault      bool
}

// NewQueueFilterService constructs the service.
func NewQueueFilterService(deps QueueFilterDependencies) *QueueFilterService {
	return &QueueFilterService{
		filters:    deps.FilterRepo,
		gate:       deps.Gate,
		translator: deps.Translator,
		tickets:    deps.TicketService,
	}
}

// Create saves a filter for the caller or, for admins and organization
// admins, for an organization.
func (s *QueueFilterService) Create(ctx context.Context, user *domain.User, input QueueFilterInput) (*domain.QueueFilter, error) {
	subject, err := s.subject(ctx, user)
	if err != nil {
		return nil, err
	}
	filter := &domain.QueueFilter{CreatedBy: user.ID}
	switch input.FilterType {
	case "", domain.FilterTypeUser:
		filter.FilterType = domain.FilterTypeUser
		id := user.ID
		filter.UserID = &id
	case domain.FilterTypeOrganization:
		if input.OrganizationID == nil || strings.TrimSpace(*input.OrganizationID) == "" {
			return nil, apperrors.NewMissingField("organization_id")
		}
		orgID := strings.TrimSpace(*input.OrganizationID)
		if !user.IsAdmin() && !subject.IsOrganizationAdmin(orgID) {
			return nil, apperrors.NewForbidden("only organization admins may create organization filters")
		}
		filter.FilterType = domain.FilterTypeOrganization
		filter.OrganizationID = &orgID
	default:
		return nil, apperrors.NewValidationError("unknown filter type", map[string]any{"filter_type": input.FilterType})
	}
	if err := s.apply(ctx, subject, filter, input); err != nil {
		return nil, err
	}
	if err := s.filters.Create(ctx, filter); err != nil {
		return nil, apperrors.MapError(err)
	}
	return filter, nil
}

// Update replaces the editable fields of a filter.
func (s *QueueFilterService) Update(ctx context.Context, user *domain.User, filterID string, input QueueFilterInput) (*domain.QueueFilter, error) {
	filter, subject, err := s.editable(ctx, user, filterID)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, subject, filter, input); err != nil {
		return nil, err
	}
	if err := s.filters.Update(ctx, filter); err != nil {
		return nil, apperrors.FromRepo(err, "queue filter", map[string]any{"filter_id": filterID})
	}
	return filter, nil
}

// Delete removes a filter.
func (s *QueueFilterService) Delete(ctx context.Context, user *domain.User, filterID string) error {
	if _, _, err := s.editable(ctx, user, filterID); err != nil {
		return err
	}
	if err := s.filters.Delete(ctx, filterID); err != nil {
		return apperrors.FromRepo(err, "queue filter", map[string]any{"filter_id": filterID})
	}
	return nil
}

// Get returns a filter the caller may use.
func (s *QueueFilterService) Get(ctx context.Context, user *domain.User, filterID string) (*domain.QueueFilter, error) {
	subject, err := s.subject(ctx, user)
	if err != nil {
		return nil, err
	}
	return s.readable(ctx, subject, filterID)
}

// List returns the caller's own filters and their organizations' filters.
func (s *QueueFilterService) List(ctx context.Context, user *domain.User) ([]domain.QueueFilter, error) {
	subject, err := s.subject(ctx, user)
	if err != nil {
		return nil, err
	}
	filters, err := s.filters.ListForOwner(ctx, user.ID, subject.OrganizationIDs)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return filters, nil
}

// SetDefault makes the filter the default of its scope, clearing the flag on
// the scope's other filters first.
func (s *QueueFilterService) SetDefault(ctx context.Context, user *domain.User, filterID string) (*domain.QueueFilter, error) {
	filter, _, err := s.editable(ctx, user, filterID)
	if err != nil {
		return nil, err
	}
	if err := s.filters.SetDefault(ctx, filter); err != nil {
		return nil, apperrors.FromRepo(err, "queue filter", map[string]any{"filter_id": filterID})
	}
	return filter, nil
}

// Apply runs a saved filter. Page sort settings override the filter's own.
func (s *QueueFilterService) Apply(ctx context.Context, user *domain.User, filterID string, page Page) ([]TicketView, error) {
	subject, err := s.subject(ctx, user)
	if err != nil {
		return nil, err
	}
	filter, err := s.readable(ctx, subject, filterID)
	if err != nil {
		return nil, err
	}
	if page.SortField == "" {
		page.SortField = filter.SortField
	}
	if page.SortOrder == "" {
		page.SortOrder = filter.SortOrder
	}
	return s.tickets.Search(ctx, user, filter.Config, page)
}

// Preview runs an unsaved configuration.
func (s *QueueFilterService) Preview(ctx context.Context, user *domain.User, cfg domain.FilterConfig, page Page) ([]TicketView, error) {
	return s.tickets.Search(ctx, user, cfg, page)
}

func (s *QueueFilterService) subject(ctx context.Context, user *domain.User) (*access.Subject, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	subject, err := s.gate.Resolve(ctx, user)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return subject, nil
}

func (s *QueueFilterService) readable(ctx context.Context, subject *access.Subject, filterID string) (*domain.QueueFilter, error) {
	filter, err := s.filters.GetByID(ctx, filterID)
	if err != nil {
		return nil, apperrors.FromRepo(err, "queue filter", map[string]any{"filter_id": filterID})
	}
	if subject.User.IsAdmin() {
		return filter, nil
	}
	switch filter.FilterType {
	case domain.FilterTypeUser:
		if filter.OwnerID() == subject.User.ID {
			return filter, nil
		}
	case domain.FilterTypeOrganization:
		if subject.BelongsTo(filter.OwnerID()) {
			return filter, nil
		}
	}
	return nil, apperrors.NewNotFound("queue filter", map[string]any{"filter_id": filterID})
}

func (s *QueueFilterService) editable(ctx context.Context, user *domain.User, filterID string) (*domain.QueueFilter, *access.Subject, error) {
	subject, err := s.subject(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	filter, err := s.readable(ctx, subject, filterID)
	if err != nil {
		return nil, nil, err
	}
	if filter.FilterType == domain.FilterTypeOrganization && !user.IsAdmin() && !subject.IsOrganizationAdmin(filter.OwnerID()) {
		return nil, nil, apperrors.NewForbidden("only organization admins may change organization filters")
	}
	return filter, subject, nil
}

func (s *QueueFilterService) apply(ctx context.Context, subject *access.Subject, filter *domain.QueueFilter, input QueueFilterInput) error {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return apperrors.NewMissingField("name")
	}
	sortField := strings.TrimSpace(input.SortField)
	if sortField == "" {
		sortField = "created_at"
	}
	if !repository.IsSortField(sortField) {
		return apperrors.NewValidationError("unsupported sort field", map[string]any{"sort_field": input.SortField})
	}
	sortOrder := strings.ToLower(strings.TrimSpace(input.SortOrder))
	if sortOrder == "" {
		sortOrder = "desc"
	}
	if sortOrder != "asc" && sortOrder != "desc" {
		return apperrors.NewValidationError("sort order must be asc or desc", map[string]any{"sort_order": input.SortOrder})
	}
	if _, err := s.translator.Translate(ctx, input.Config, subject); err != nil {
		if errors.Is(err, queuefilter.ErrInvalidConfig) {
			return apperrors.NewValidationError(err.Error(), nil)
		}
		return apperrors.MapError(err)
	}

	filter.Name = name
	filter.Description = strings.TrimSpace(input.Description)
	filter.Config = input.Config
	filter.SortField = sortField
	filter.SortOrder = sortOrder
	filter.IsDefault = input.IsDefault
	return nil
}
