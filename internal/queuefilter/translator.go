// Package queuefilter turns a declarative queue filter configuration into a
// ticket store query, scoped to what the viewer may see.
package queuefilter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ivovalerieviliev/help-desk-sub001/internal/access"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/domain"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/repository"
)

const dateLayout = "2006-01-02"

// ErrInvalidConfig wraps configuration values that cannot be translated.
var ErrInvalidConfig = errors.New("invalid filter configuration")

// MemberResolver expands organization IDs into member user IDs.
type MemberResolver interface {
	ListMemberUserIDs(ctx context.Context, orgIDs []string) ([]string, error)
}

// Translation is a store query plus the SLA predicates that can only be
// checked once tickets are loaded.
type Translation struct {
	Query            repository.TicketQuery
	SLAFirstResponse domain.SLAState
	SLAResolution    domain.SLAState
}

// NeedsSLA reports whether results must be post-filtered by SLA state.
func (t Translation) NeedsSLA() bool {
	return t.SLAFirstResponse != "" || t.SLAResolution != ""
}

// MatchSLA checks the post-filter against a ticket's evaluated SLA. Tickets
// without an SLA record never match an SLA predicate.
func (t Translation) MatchSLA(status *domain.SLAStatus) bool {
	if !t.NeedsSLA() {
		return true
	}
	if status == nil {
		return false
	}
	if t.SLAFirstResponse != "" && status.FirstResponse != t.SLAFirstResponse {
		return false
	}
	if t.SLAResolution != "" && status.Resolution != t.SLAResolution {
		return false
	}
	return true
}

// Translator builds ticket queries from filter configurations.
type Translator struct {
	members MemberResolver
}

// NewTranslator constructs a translator.
func NewTranslator(members MemberResolver) *Translator {
	return &Translator{members: members}
}

// Translate maps cfg onto a TicketQuery for subject. Empty or unknown keys add
// no predicate. Reporters, organization members and the subject's visibility
// are intersected; an empty intersection matches nothing.
func (tr *Translator) Translate(ctx context.Context, cfg domain.FilterConfig, subject *access.Subject) (Translation, error) {
	var out Translation
	q := &out.Query

	q.Statuses = clean(cfg.Status)
	q.Priorities = clean(cfg.Priority)
	q.Categories = clean(cfg.Category)
	q.Search = strings.TrimSpace(cfg.SearchPhrase)

	switch strings.ToLower(strings.TrimSpace(cfg.AssigneeType)) {
	case domain.AssigneeMe:
		q.AssigneeIDs = []string{subject.User.ID}
	case domain.AssigneeSpecific:
		ids, err := idList(cfg.AssigneeIDs, "assignee_ids")
		if err != nil {
			return Translation{}, err
		}
		q.AssigneeIDs = ids
	case domain.AssigneeUnassigned:
		q.Unassigned = true
	}

	if cfg.DateCreated != nil {
		from, before, err := dateBounds(*cfg.DateCreated)
		if err != nil {
			return Translation{}, err
		}
		q.CreatedFrom, q.CreatedBefore = from, before
	}

	var (
		authors    []string
		restricted bool
	)
	reporters, err := idList(cfg.ReporterIDs, "reporter_ids")
	if err != nil {
		return Translation{}, err
	}
	orgIDs, err := idList(cfg.OrganizationIDs, "organization_ids")
	if err != nil {
		return Translation{}, err
	}
	if len(reporters) > 0 {
		authors, restricted = reporters, true
	}
	if len(orgIDs) > 0 {
		members, err := tr.members.ListMemberUserIDs(ctx, orgIDs)
		if err != nil {
			return Translation{}, fmt.Errorf("resolve organization members: %w", err)
		}
		authors, restricted = narrow(authors, restricted, members), true
	}
	if !subject.Visibility.All() {
		authors, restricted = narrow(authors, restricted, subject.Visibility.AuthorIDs), true
	}
	if restricted {
		q.RestrictAuthors = true
		q.AuthorIDs = authors
		if q.AuthorIDs == nil {
			q.AuthorIDs = []string{}
		}
	}

	if cfg.SLAFirstResponse.Valid() {
		out.SLAFirstResponse = cfg.SLAFirstResponse
	}
	if cfg.SLAResolution.Valid() {
		out.SLAResolution = cfg.SLAResolution
	}
	return out, nil
}

// dateBounds returns the half-open creation window [from, before) in UTC.
func dateBounds(rule domain.DateRule) (*time.Time, *time.Time, error) {
	op := strings.ToLower(strings.TrimSpace(rule.Operator))
	if op == "" {
		return nil, nil, nil
	}
	start, err := parseDate(rule.Start, "start")
	if err != nil {
		return nil, nil, err
	}
	day := 24 * time.Hour

	switch op {
	case domain.DateOn:
		next := start.Add(day)
		return &start, &next, nil
	case domain.DateBefore:
		return nil, &start, nil
	case domain.DateAfter:
		next := start.Add(day)
		return &next, nil, nil
	case domain.DateBetween:
		end, err := parseDate(rule.End, "end")
		if err != nil {
			return nil, nil, err
		}
		if end.Before(start) {
			return nil, nil, fmt.Errorf("%w: date_created end precedes start", ErrInvalidConfig)
		}
		next := end.Add(day)
		return &start, &next, nil
	}
	return nil, nil, nil
}

func parseDate(value, field string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: date_created %s is required", ErrInvalidConfig, field)
	}
	parsed, err := time.ParseInLocation(dateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date_created %s %q is not YYYY-MM-DD", ErrInvalidConfig, field, value)
	}
	return parsed, nil
}

// idList cleans values and rejects any entry that is not a UUID.
func idList(values []string, field string) ([]string, error) {
	ids := clean(values)
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("%w: %s entry %q is not a valid id", ErrInvalidConfig, field, id)
		}
	}
	return ids, nil
}

// narrow intersects current with next. An unrestricted current is replaced.
func narrow(current []string, restricted bool, next []string) []string {
	if !restricted {
		return dedupe(next)
	}
	allowed := make(map[string]struct{}, len(next))
	for _, id := range next {
		allowed[id] = struct{}{}
	}
	result := []string{}
	for _, id := range current {
		if _, ok := allowed[id]; ok {
			result = append(result, id)
		}
	}
	return result
}

func clean(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	result := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return dedupe(result)
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
