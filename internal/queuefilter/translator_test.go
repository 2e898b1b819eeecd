package queuefilter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ivovalerieviliev/help-desk-sub001/internal/access"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/domain"
)

const (
	orgOne    = "8f14e45f-ceea-4e67-a1c2-000000000001"
	userOne   = "c4ca4238-a0b9-4382-8dcc-000000000001"
	userTwo   = "c81e728d-9d4c-4f63-b13a-000000000002"
	userThree = "eccbc87e-4b5c-4e2f-8a3c-000000000003"
)

type fakeMembers map[string][]string

func (f fakeMembers) ListMemberUserIDs(_ context.Context, orgIDs []string) ([]string, error) {
	result := []string{}
	for _, id := range orgIDs {
		result = append(result, f[id]...)
	}
	return result, nil
}

func staff() *access.Subject {
	return &access.Subject{
		User:          &domain.User{ID: "agent-1", Role: domain.RoleAgent},
		Administrator: true,
		Visibility:    access.Visibility{Mode: access.VisibilityAll},
	}
}

func ownOnly(id string) *access.Subject {
	return &access.Subject{
		User:       &domain.User{ID: id, Role: domain.RoleCustomer},
		Visibility: access.Visibility{Mode: access.VisibilityOwn, AuthorIDs: []string{id}},
	}
}

func TestEmptyConfigHasNoPredicates(t *testing.T) {
	tr := NewTranslator(fakeMembers{})
	out, err := tr.Translate(context.Background(), domain.FilterConfig{}, staff())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	q := out.Query
	if q.Statuses != nil || q.Priorities != nil || q.RestrictAuthors || q.CreatedFrom != nil || q.Search != "" || q.Unassigned {
		t.Fatalf("expected empty query, got %+v", q)
	}
	if out.NeedsSLA() {
		t.Fatalf("no SLA predicate expected")
	}
}

func TestAssigneeRules(t *testing.T) {
	tr := NewTranslator(fakeMembers{})
	ctx := context.Background()

	me, _ := tr.Translate(ctx, domain.FilterConfig{AssigneeType: "me"}, staff())
	if len(me.Query.AssigneeIDs) != 1 || me.Query.AssigneeIDs[0] != "agent-1" {
		t.Fatalf("expected assignee me, got %v", me.Query.AssigneeIDs)
	}
	unassigned, _ := tr.Translate(ctx, domain.FilterConfig{AssigneeType: "unassigned"}, staff())
	if !unassigned.Query.Unassigned {
		t.Fatalf("expected unassigned")
	}
	unknown, _ := tr.Translate(ctx, domain.FilterConfig{AssigneeType: "someone", AssigneeIDs: []string{"x"}}, staff())
	if unknown.Query.AssigneeIDs != nil || unknown.Query.Unassigned {
		t.Fatalf("unknown assignee type should be ignored")
	}
}

func TestReporterAndOrganizationIntersect(t *testing.T) {
	tr := NewTranslator(fakeMembers{orgOne: {userOne, userTwo}})
	cfg := domain.FilterConfig{
		ReporterIDs:     []string{userTwo, userThree},
		OrganizationIDs: []string{orgOne},
	}
	out, err := tr.Translate(context.Background(), cfg, staff())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Query.RestrictAuthors || len(out.Query.AuthorIDs) != 1 || out.Query.AuthorIDs[0] != userTwo {
		t.Fatalf("expected intersection [%s], got %v", userTwo, out.Query.AuthorIDs)
	}
}

func TestDisjointScopeMatchesNothing(t *testing.T) {
	tr := NewTranslator(fakeMembers{})
	out, err := tr.Translate(context.Background(), domain.FilterConfig{ReporterIDs: []string{userThree}}, ownOnly(userOne))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Query.MatchesNothing() {
		t.Fatalf("expected empty intersection, got %v", out.Query.AuthorIDs)
	}
}

func TestMalformedIDsRejected(t *testing.T) {
	tr := NewTranslator(fakeMembers{})
	for name, cfg := range map[string]domain.FilterConfig{
		"assignee":     {AssigneeType: "specific", AssigneeIDs: []string{userOne, "bob"}},
		"reporter":     {ReporterIDs: []string{"not-a-uuid"}},
		"organization": {OrganizationIDs: []string{"acme"}},
	} {
		_, err := tr.Translate(context.Background(), cfg, staff())
		if !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: expected invalid config, got %v", name, err)
		}
	}

	out, err := tr.Translate(context.Background(), domain.FilterConfig{AssigneeType: "specific", AssigneeIDs: []string{" " + userOne + " "}}, staff())
	if err != nil || len(out.Query.AssigneeIDs) != 1 || out.Query.AssigneeIDs[0] != userOne {
		t.Fatalf("expected trimmed assignee id, got %v %v", out.Query.AssigneeIDs, err)
	}
}

func TestVisibilityScopeApplied(t *testing.T) {
	tr := NewTranslator(fakeMembers{})
	out, _ := tr.Translate(context.Background(), domain.FilterConfig{}, ownOnly("u-1"))
	if !out.Query.RestrictAuthors || len(out.Query.AuthorIDs) != 1 || out.Query.AuthorIDs[0] != "u-1" {
		t.Fatalf("expected own-only scope, got %+v", out.Query)
	}
}

func TestDateOperators(t *testing.T) {
	day := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	next := day.Add(24 * time.Hour)
	end := time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		rule       domain.DateRule
		wantFrom   *time.Time
		wantBefore *time.Time
	}{
		{rule: domain.DateRule{Operator: "on", Start: "2026-05-10"}, wantFrom: &day, wantBefore: &next},
		{rule: domain.DateRule{Operator: "before", Start: "2026-05-10"}, wantBefore: &day},
		{rule: domain.DateRule{Operator: "after", Start: "2026-05-10"}, wantFrom: &next},
		{rule: domain.DateRule{Operator: "between", Start: "2026-05-10", End: "2026-05-11"}, wantFrom: &day, wantBefore: &end},
	}
	tr := NewTranslator(fakeMembers{})
	for _, tc := range cases {
		t.Run(tc.rule.Operator, func(t *testing.T) {
			rule := tc.rule
			out, err := tr.Translate(context.Background(), domain.FilterConfig{DateCreated: &rule}, staff())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertTime(t, "from", tc.wantFrom, out.Query.CreatedFrom)
			assertTime(t, "before", tc.wantBefore, out.Query.CreatedBefore)
		})
	}
}

func assertTime(t *testing.T, label string, want, got *time.Time) {
	t.Helper()
	if want == nil && got == nil {
		return
	}
	if want == nil || got == nil || !want.Equal(*got) {
		t.Fatalf("%s: expected %v, got %v", label, want, got)
	}
}

func TestInvalidDatesRejected(t *testing.T) {
	tr := NewTranslator(fakeMembers{})
	for _, rule := range []domain.DateRule{
		{Operator: "on", Start: "10/05/2026"},
		{Operator: "between", Start: "2026-05-10"},
		{Operator: "between", Start: "2026-05-10", End: "2026-05-01"},
	} {
		r := rule
		_, err := tr.Translate(context.Background(), domain.FilterConfig{DateCreated: &r}, staff())
		if !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("expected invalid config for %+v, got %v", rule, err)
		}
	}
}

func TestSLAPostFilter(t *testing.T) {
	tr := NewTranslator(fakeMembers{})
	out, _ := tr.Translate(context.Background(), domain.FilterConfig{
		SLAResolution:    domain.SLAStateBreached,
		SLAFirstResponse: "bogus",
	}, staff())

	if out.SLAFirstResponse != "" {
		t.Fatalf("unknown SLA state should be dropped")
	}
	if out.MatchSLA(nil) {
		t.Fatalf("tickets without SLA record should not match")
	}
	if !out.MatchSLA(&domain.SLAStatus{Resolution: domain.SLAStateBreached}) {
		t.Fatalf("breached resolution should match")
	}
	if out.MatchSLA(&domain.SLAStatus{Resolution: domain.SLAStateOK}) {
		t.Fatalf("ok resolution should not match")
	}
}
