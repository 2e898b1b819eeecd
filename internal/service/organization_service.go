package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ivovalerieviliev/help-desk-sub001/internal/access"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/domain"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/repository"
	apperrors "github.com/ivovalerieviliev/help-desk-sub001/pkg/util"
)

// Organization log actions.
const (
	OrgLogCreated       = "organization_created"
	OrgLogUpdated       = "organization_updated"
	OrgLogMemberAdded   = "member_added"
	OrgLogMemberRemoved = "member_removed"
	OrgLogMemberRole    = "member_role_changed"
	OrgLogAutoJoined    = "member_auto_joined"
)

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// OrganizationService manages organizations and their members.
type OrganizationService struct {
	orgs   repository.OrganizationRepository
	users  repository.UserRepository
	gate   *access.Gate
	logger *zap.Logger
}

// OrganizationDependencies bundles collaborators for the organization service.
type OrganizationDependencies struct {
	OrganizationRepo repository.OrganizationRepository
	UserRepo         repository.UserRepository
	Gate             *access.Gate
	Logger           *zap.Logger
}

// OrganizationInput describes organization create/update payloads. On update
// nil fields are left untouched.
type OrganizationInput struct {
	Name           *string
	Slug           *string
	Description    *string
	AllowedDomains *[]string
	Settings       *domain.OrganizationSettings
	Status         *domain.OrganizationStatus
}

// OrganizationDetail is an organization with its members.
type OrganizationDetail struct {
	Organization domain.Organization
	Members      []domain.OrganizationMember
}

// NewOrganizationService constructs the service.
func NewOrganizationService(deps OrganizationDependencies) *OrganizationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrganizationService{
		orgs:   deps.OrganizationRepo,
		users:  deps.UserRepo,
		gate:   deps.Gate,
		logger: logger,
	}
}

// Create adds an organization. The slug is derived from the name when empty.
func (s *OrganizationService) Create(ctx context.Context, actor *domain.User, input OrganizationInput) (*domain.Organization, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	org := &domain.Organization{
		Settings: domain.DefaultOrganizationSettings(),
		Status:   domain.OrganizationActive,
	}
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		return nil, apperrors.NewMissingField("name")
	}
	if err := applyOrganizationInput(org, input); err != nil {
		return nil, err
	}
	if err := s.orgs.Create(ctx, org); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("organization slug already in use", map[string]any{"slug": org.Slug})
		}
		return nil, apperrors.MapError(err)
	}
	s.log(ctx, actor, org.ID, OrgLogCreated, map[string]any{"name": org.Name, "slug": org.Slug})
	return org, nil
}

// Update changes organization fields.
func (s *OrganizationService) Update(ctx context.Context, actor *domain.User, orgID string, input OrganizationInput) (*domain.Organization, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		return nil, apperrors.FromRepo(err, "organization", map[string]any{"organization_id": orgID})
	}
	if err := applyOrganizationInput(org, input); err != nil {
		return nil, err
	}
	if err := s.orgs.Update(ctx, org); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("organization slug already in use", map[string]any{"slug": org.Slug})
		}
		return nil, apperrors.FromRepo(err, "organization", map[string]any{"organization_id": orgID})
	}
	s.log(ctx, actor, org.ID, OrgLogUpdated, map[string]any{"status": org.Status, "settings": org.Settings.Flags})
	return org, nil
}

// Delete removes the organization and its memberships. Tickets stay.
func (s *OrganizationService) Delete(ctx context.Context, actor *domain.User, orgID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.orgs.Delete(ctx, orgID); err != nil {
		return apperrors.FromRepo(err, "organization", map[string]any{"organization_id": orgID})
	}
	s.logger.Info("organization deleted", zap.String("organization_id", orgID), zap.String("actor_id", actor.ID))
	return nil
}

// Get returns an organization with members to admins and to its own members.
func (s *OrganizationService) Get(ctx context.Context, user *domain.User, orgID string) (*OrganizationDetail, error) {
	if err := s.requireMemberOrAdmin(ctx, user, orgID); err != nil {
		return nil, err
	}
	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		return nil, apperrors.FromRepo(err, "organization", map[string]any{"organization_id": orgID})
	}
	members, err := s.orgs.ListMembers(ctx, orgID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &OrganizationDetail{Organization: *org, Members: members}, nil
}

// List returns every organization to admins and the caller's own
// organizations to everyone else.
func (s *OrganizationService) List(ctx context.Context, user *domain.User, filter repository.OrganizationFilter) ([]domain.Organization, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	if user.IsAdmin() {
		orgs, err := s.orgs.List(ctx, filter)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		return orgs, nil
	}
	memberships, err := s.orgs.ListMemberships(ctx, user.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	result := make([]domain.Organization, 0, len(memberships))
	for _, m := range memberships {
		result = append(result, m.Organization)
	}
	return result, nil
}

// ListMembers returns the members of an organization.
func (s *OrganizationService) ListMembers(ctx context.Context, user *domain.User, orgID string) ([]domain.OrganizationMember, error) {
	if err := s.requireMemberOrAdmin(ctx, user, orgID); err != nil {
		return nil, err
	}
	members, err := s.orgs.ListMembers(ctx, orgID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return members, nil
}

// AddMember adds userID to the organization or updates their admin flag.
func (s *OrganizationService) AddMember(ctx context.Context, actor *domain.User, orgID, userID string, isAdmin bool) (*domain.OrganizationMember, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := s.orgs.GetByID(ctx, orgID); err != nil {
		return nil, apperrors.FromRepo(err, "organization", map[string]any{"organization_id": orgID})
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, apperrors.FromRepo(err, "user", map[string]any{"user_id": userID})
	}
	member := &domain.OrganizationMember{OrganizationID: orgID, UserID: userID, IsAdmin: isAdmin}
	if err := s.orgs.AddMember(ctx, member); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.log(ctx, actor, orgID, OrgLogMemberAdded, map[string]any{"user_id": userID, "is_admin": isAdmin})
	return member, nil
}

// SetMemberAdmin toggles the admin flag of an existing member.
func (s *OrganizationService) SetMemberAdmin(ctx context.Context, actor *domain.User, orgID, userID string, isAdmin bool) (*domain.OrganizationMember, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	members, err := s.orgs.ListMembers(ctx, orgID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	found := false
	for _, m := range members {
		if m.UserID == userID {
			found = true
			break
		}
	}
	if !found {
		return nil, apperrors.NewNotFound("membership", map[string]any{"organization_id": orgID, "user_id": userID})
	}
	member := &domain.OrganizationMember{OrganizationID: orgID, UserID: userID, IsAdmin: isAdmin}
	if err := s.orgs.AddMember(ctx, member); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.log(ctx, actor, orgID, OrgLogMemberRole, map[string]any{"user_id": userID, "is_admin": isAdmin})
	return member, nil
}

// RemoveMember drops userID from the organization.
func (s *OrganizationService) RemoveMember(ctx context.Context, actor *domain.User, orgID, userID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.orgs.RemoveMember(ctx, orgID, userID); err != nil {
		return apperrors.FromRepo(err, "membership", map[string]any{"organization_id": orgID, "user_id": userID})
	}
	s.log(ctx, actor, orgID, OrgLogMemberRemoved, map[string]any{"user_id": userID})
	return nil
}

// ListLogs returns the organization's audit log, newest first.
func (s *OrganizationService) ListLogs(ctx context.Context, actor *domain.User, orgID string, limit int) ([]domain.OrganizationLog, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	logs, err := s.orgs.ListLogs(ctx, orgID, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return logs, nil
}

// AutoJoin adds user to every active organization whose allowed domains
// include the domain of their email. It returns the joined organizations.
func (s *OrganizationService) AutoJoin(ctx context.Context, user *domain.User) ([]domain.Organization, error) {
	emailDomain := domainOf(user.Email)
	if emailDomain == "" {
		return nil, nil
	}
	orgs, err := s.orgs.FindByEmailDomain(ctx, emailDomain)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	for _, org := range orgs {
		member := &domain.OrganizationMember{OrganizationID: org.ID, UserID: user.ID}
		if err := s.orgs.AddMember(ctx, member); err != nil {
			return nil, apperrors.MapError(err)
		}
		s.log(ctx, user, org.ID, OrgLogAutoJoined, map[string]any{"user_id": user.ID, "domain": emailDomain})
	}
	return orgs, nil
}

func (s *OrganizationService) requireMemberOrAdmin(ctx context.Context, user *domain.User, orgID string) error {
	if err := requireUser(user); err != nil {
		return err
	}
	if user.IsAdmin() {
		return nil
	}
	subject, err := s.gate.Resolve(ctx, user)
	if err != nil {
		return apperrors.MapError(err)
	}
	if subject.Administrator || subject.BelongsTo(orgID) {
		return nil
	}
	return apperrors.NewNotFound("organization", map[string]any{"organization_id": orgID})
}

func (s *OrganizationService) log(ctx context.Context, actor *domain.User, orgID, action string, details map[string]any) {
	entry := &domain.OrganizationLog{OrganizationID: orgID, Action: action, Details: details}
	if actor != nil {
		id := actor.ID
		entry.ActorID = &id
	}
	if err := s.orgs.AddLog(ctx, entry); err != nil {
		s.logger.Warn("write organization log",
			zap.String("organization_id", orgID),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}

func applyOrganizationInput(org *domain.Organization, input OrganizationInput) error {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return apperrors.NewMissingField("name")
		}
		org.Name = name
	}
	if input.Slug != nil {
		org.Slug = Slugify(*input.Slug)
	}
	if org.Slug == "" {
		org.Slug = Slugify(org.Name)
	}
	if org.Slug == "" {
		return apperrors.NewValidationError("slug cannot be derived from name", map[string]any{"name": org.Name})
	}
	if input.Description != nil {
		org.Description = strings.TrimSpace(*input.Description)
	}
	if input.AllowedDomains != nil {
		domains := make([]string, 0, len(*input.AllowedDomains))
		for _, d := range *input.AllowedDomains {
			domains = append(domains, strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), "@"))
		}
		org.AllowedDomains = normalizeList(domains)
	}
	if input.Settings != nil {
		if err := validateSettings(*input.Settings); err != nil {
			return err
		}
		org.Settings = *input.Settings
		if org.Settings.Flags == nil {
			org.Settings.Flags = map[string]bool{}
		}
		org.Settings.ViewableOrgIDs = normalizeList(org.Settings.ViewableOrgIDs)
	}
	if input.Status != nil {
		switch *input.Status {
		case domain.OrganizationActive, domain.OrganizationInactive:
			org.Status = *input.Status
		default:
			return apperrors.NewValidationError("unknown organization status", map[string]any{"status": *input.Status})
		}
	}
	return nil
}

func validateSettings(settings domain.OrganizationSettings) error {
	known := make(map[string]struct{}, len(domain.KnownSettings))
	for _, flag := range domain.KnownSettings {
		known[flag] = struct{}{}
	}
	for flag := range settings.Flags {
		if _, ok := known[flag]; !ok {
			return apperrors.NewValidationError("unknown organization setting", map[string]any{"setting": flag})
		}
	}
	for _, id := range settings.ViewableOrgIDs {
		if id = strings.TrimSpace(id); id == "" {
			continue
		}
		if _, err := uuid.Parse(id); err != nil {
			return apperrors.NewValidationError("invalid viewable organization id", map[string]any{"viewable_org_ids": id})
		}
	}
	return nil
}

// Slugify lowercases s and collapses every run of non-alphanumerics into a dash.
func Slugify(s string) string {
	slug := slugInvalid.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
	return strings.Trim(slug, "-")
}

func domainOf(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}
