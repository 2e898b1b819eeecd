package service

import (
	"context"
	"testing"
	"time"

	"github.com/ivovalerieviliev/help-desk-sub001/internal/domain"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/events"
	apperrors "github.com/ivovalerieviliev/help-desk-sub001/pkg/util"
)

func TestFirstResponseRecordedByStaffReply(t *testing.T) {
	alice := newUser("alice", domain.RoleCustomer)
	agent := newUser("agent", domain.RoleAgent)
	h := newHarness(alice, agent)
	view := openTicket(t, h, alice, TicketCreateInput{})
	ctx := context.Background()

	if _, err := h.commentSvc.AddComment(ctx, alice, view.Ticket.ID, "any update?", false); err != nil {
		t.Fatalf("customer comment: %v", err)
	}
	h.clock.Advance(10 * time.Minute)
	if _, err := h.commentSvc.AddComment(ctx, agent, view.Ticket.ID, "checking logs", true); err != nil {
		t.Fatalf("internal comment: %v", err)
	}
	if h.slas.records[view.Ticket.ID].FirstResponseAt != nil {
		t.Fatalf("internal notes and requester comments must not count as a response")
	}

	h.clock.Advance(10 * time.Minute)
	if _, err := h.commentSvc.AddComment(ctx, agent, view.Ticket.ID, "on it", false); err != nil {
		t.Fatalf("agent reply: %v", err)
	}
	got := h.slas.records[view.Ticket.ID].FirstResponseAt
	if got == nil || !got.Equal(baseTime.Add(20*time.Minute)) {
		t.Fatalf("expected first response at +20m, got %v", got)
	}

	h.clock.Advance(time.Hour)
	if _, err := h.commentSvc.AddComment(ctx, agent, view.Ticket.ID, "fixed", false); err != nil {
		t.Fatalf("second reply: %v", err)
	}
	if again := h.slas.records[view.Ticket.ID].FirstResponseAt; !again.Equal(*got) {
		t.Fatalf("first response must be recorded once")
	}
}

func TestInternalCommentsHiddenFromCustomers(t *testing.T) {
	alice := newUser("alice", domain.RoleCustomer)
	agent := newUser("agent", domain.RoleAgent)
	h := newHarness(alice, agent)
	view := openTicket(t, h, alice, TicketCreateInput{})
	ctx := context.Background()

	if _, err := h.commentSvc.AddComment(ctx, alice, view.Ticket.ID, "secret", true); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("customers cannot post internal comments, got %v", err)
	}
	if _, err := h.commentSvc.AddComment(ctx, agent, view.Ticket.ID, "internal note", true); err != nil {
		t.Fatalf("internal: %v", err)
	}
	if _, err := h.commentSvc.AddComment(ctx, agent, view.Ticket.ID, "public reply", false); err != nil {
		t.Fatalf("public: %v", err)
	}

	customerView, err := h.commentSvc.ListComments(ctx, alice, view.Ticket.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(customerView) != 1 || customerView[0].IsInternal {
		t.Fatalf("customer should only see the public reply, got %+v", customerView)
	}
	staffView, err := h.commentSvc.ListComments(ctx, agent, view.Ticket.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(staffView) != 2 {
		t.Fatalf("staff should see both comments, got %d", len(staffView))
	}
}

func TestOrganizationFlagRevealsInternalComments(t *testing.T) {
	alice := newUser("alice", domain.RoleCustomer)
	agent := newUser("agent", domain.RoleAgent)
	h := newHarness(alice, agent)
	h.addOrg("acme", domain.SettingCreateTickets, domain.SettingViewInternalComments)
	h.join("acme", alice.ID, false)
	view := openTicket(t, h, alice, TicketCreateInput{})
	ctx := context.Background()

	if _, err := h.commentSvc.AddComment(ctx, agent, view.Ticket.ID, "internal note", true); err != nil {
		t.Fatalf("internal: %v", err)
	}
	comments, err := h.commentSvc.ListComments(ctx, alice, view.Ticket.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(comments) != 1 {
		t.Fatalf("flag should reveal internal comments, got %d", len(comments))
	}
}

func TestCommentValidationAndEvents(t *testing.T) {
	alice := newUser("alice", domain.RoleCustomer)
	bob := newUser("bob", domain.RoleCustomer)
	h := newHarness(alice, bob)
	view := openTicket(t, h, alice, TicketCreateInput{})
	ctx := context.Background()

	if _, err := h.commentSvc.AddComment(ctx, alice, view.Ticket.ID, "   ", false); !apperrors.IsCode(err, "MISSING_REQUIRED_FIELD") {
		t.Fatalf("expected missing body, got %v", err)
	}
	if _, err := h.commentSvc.AddComment(ctx, bob, view.Ticket.ID, "hi", false); !apperrors.IsCode(err, "NOT_FOUND") {
		t.Fatalf("expected not found for invisible ticket, got %v", err)
	}
	if _, err := h.commentSvc.AddComment(ctx, alice, view.Ticket.ID, "hello", false); err != nil {
		t.Fatalf("comment: %v", err)
	}
	types := h.recorded.types()
	if types[len(types)-1] != events.EventCommentAdded {
		t.Fatalf("expected comment_added event, got %v", types)
	}
}
