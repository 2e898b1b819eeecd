// Package access decides which tickets a user may see and change, based on
// their role and the settings of their organization.
package access

import (
	"context"
	"fmt"

	"github.com/ivovalerieviliev/help-desk-sub001/internal/domain"
)

// MembershipLookup is the slice of the organization store the gate reads.
type MembershipLookup interface {
	ListMemberships(ctx context.Context, userID string) ([]domain.Membership, error)
	ListMemberUserIDs(ctx context.Context, orgIDs []string) ([]string, error)
}

// VisibilityMode names which rule granted a subject its ticket visibility.
type VisibilityMode string

const (
	VisibilityAll          VisibilityMode = "all"
	VisibilityOrganization VisibilityMode = "organization"
	VisibilitySpecificOrgs VisibilityMode = "specific_orgs"
	VisibilityOwn          VisibilityMode = "own"
)

// Visibility is the set of ticket authors a subject may see. AuthorIDs is
// ignored when Mode is VisibilityAll.
type Visibility struct {
	Mode      VisibilityMode
	AuthorIDs []string
}

// All reports whether every ticket is visible.
func (v Visibility) All() bool {
	return v.Mode == VisibilityAll
}

// Covers reports whether tickets written by authorID are visible.
func (v Visibility) Covers(authorID string) bool {
	if v.All() {
		return true
	}
	for _, id := range v.AuthorIDs {
		if id == authorID {
			return true
		}
	}
	return false
}

// Subject is a user with their permissions resolved for one request.
type Subject struct {
	User          *domain.User
	Administrator bool
	// Membership is the user's primary organization, nil when the user has
	// none or it is inactive.
	Membership      *domain.Membership
	OrganizationIDs []string
	Visibility      Visibility
}

// Gate resolves subjects.
type Gate struct {
	lookup MembershipLookup
}

// NewGate constructs the gate.
func NewGate(lookup MembershipLookup) *Gate {
	return &Gate{lookup: lookup}
}

// Resolve loads the user's memberships and computes their visibility.
// Staff short-circuit to full visibility without touching the store.
func (g *Gate) Resolve(ctx context.Context, user *domain.User) (*Subject, error) {
	if user == nil {
		return nil, fmt.Errorf("resolve subject: nil user")
	}
	subject := &Subject{User: user}
	if user.IsStaff() {
		subject.Administrator = true
		subject.Visibility = Visibility{Mode: VisibilityAll}
		return subject, nil
	}

	memberships, err := g.lookup.ListMemberships(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	for i := range memberships {
		if memberships[i].Organization.IsActive() {
			subject.OrganizationIDs = append(subject.OrganizationIDs, memberships[i].Organization.ID)
		}
	}
	if len(memberships) > 0 && memberships[0].Organization.IsActive() {
		primary := memberships[0]
		subject.Membership = &primary
	}

	subject.Visibility, err = g.visibility(ctx, user, subject.Membership)
	if err != nil {
		return nil, err
	}
	return subject, nil
}

func (g *Gate) visibility(ctx context.Context, user *domain.User, membership *domain.Membership) (Visibility, error) {
	own := Visibility{Mode: VisibilityOwn, AuthorIDs: []string{user.ID}}
	if membership == nil {
		return own, nil
	}
	settings := membership.Organization.Settings

	var (
		mode   VisibilityMode
		orgIDs []string
	)
	switch {
	case settings.Enabled(domain.SettingViewAllTickets):
		return Visibility{Mode: VisibilityAll}, nil
	case settings.Enabled(domain.SettingViewOrganizationTickets):
		mode, orgIDs = VisibilityOrganization, []string{membership.Organization.ID}
	case settings.Enabled(domain.SettingViewSpecificOrgs):
		mode, orgIDs = VisibilitySpecificOrgs, settings.ViewableOrgIDs
	default:
		return own, nil
	}

	members, err := g.lookup.ListMemberUserIDs(ctx, orgIDs)
	if err != nil {
		return Visibility{}, fmt.Errorf("list organization members: %w", err)
	}
	return Visibility{Mode: mode, AuthorIDs: appendUnique(members, user.ID)}, nil
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

// CanCreate reports whether the subject may open tickets.
func (s *Subject) CanCreate() bool {
	if s.Administrator || s.Membership == nil {
		return true
	}
	return s.Membership.Organization.Settings.Enabled(domain.SettingCreateTickets)
}

// CanView reports whether the ticket is inside the subject's visibility.
func (s *Subject) CanView(ticket *domain.Ticket) bool {
	return s.Visibility.Covers(ticket.AuthorID)
}

// CanEdit reports whether the subject may change the ticket.
func (s *Subject) CanEdit(ticket *domain.Ticket) bool {
	if s.Administrator {
		return true
	}
	if s.Membership == nil {
		return ticket.AuthorID == s.User.ID
	}
	return s.orgAction(domain.SettingEditTickets, ticket)
}

// CanDelete reports whether the subject may delete the ticket.
func (s *Subject) CanDelete(ticket *domain.Ticket) bool {
	if s.Administrator {
		return true
	}
	if s.Membership == nil {
		return false
	}
	return s.orgAction(domain.SettingDeleteTickets, ticket)
}

// CanViewInternal reports whether internal comments are shown to the subject.
func (s *Subject) CanViewInternal() bool {
	if s.Administrator {
		return true
	}
	if s.Membership == nil {
		return false
	}
	return s.Membership.Organization.Settings.Enabled(domain.SettingViewInternalComments)
}

func (s *Subject) orgAction(flag string, ticket *domain.Ticket) bool {
	if !s.Membership.Organization.Settings.Enabled(flag) {
		return false
	}
	if ticket.AuthorID == s.User.ID {
		return true
	}
	return s.Membership.IsAdmin && s.Visibility.Covers(ticket.AuthorID)
}

// IsOrganizationAdmin reports whether the subject administers orgID.
func (s *Subject) IsOrganizationAdmin(orgID string) bool {
	return s.Membership != nil && s.Membership.IsAdmin && s.Membership.Organization.ID == orgID
}

// BelongsTo reports whether the subject is an active member of orgID.
func (s *Subject) BelongsTo(orgID string) bool {
	for _, id := range s.OrganizationIDs {
		if id == orgID {
			return true
		}
	}
	return false
}
