package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ivovalerieviliev/help-desk-sub001/internal/access"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/config"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/domain"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/events"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/queuefilter"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/repository"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/sla"
)

var baseTime = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type idSeq struct {
	mu   sync.Mutex
	next int
}

func (s *idSeq) id(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return fmt.Sprintf("%s-%d", prefix, s.next)
}

type fakeUserRepo struct {
	ids   *idSeq
	users map[string]*domain.User
}

func newFakeUserRepo(ids *idSeq, users ...*domain.User) *fakeUserRepo {
	r := &fakeUserRepo{ids: ids, users: map[string]*domain.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	user.ID = r.ids.id("user")
	user.CreatedAt = baseTime
	user.UpdatedAt = baseTime
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	result := []domain.User{}
	for _, u := range r.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if filter.Active != nil && u.Active != *filter.Active {
			continue
		}
		result = append(result, *u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

type fakeTicketRepo struct {
	ids     *idSeq
	clock   *testClock
	tickets map[string]*domain.Ticket
	order   []string
	queries []repository.TicketQuery
}

func newFakeTicketRepo(ids *idSeq, clock *testClock) *fakeTicketRepo {
	return &fakeTicketRepo{ids: ids, clock: clock, tickets: map[string]*domain.Ticket{}}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	for _, existing := range r.tickets {
		if existing.Key == ticket.Key {
			return &pgconn.PgError{Code: "23505", ConstraintName: "tickets_ticket_key_key"}
		}
	}
	ticket.ID = r.ids.id("ticket")
	ticket.CreatedAt = r.clock.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	clone := *ticket
	r.tickets[ticket.ID] = &clone
	r.order = append(r.order, ticket.ID)
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = r.clock.Now()
	clone := *ticket
	r.tickets[ticket.ID] = &clone
	return nil
}

func (r *fakeTicketRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tickets, id)
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	t, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *t
	return &clone, nil
}

// List honours the author restriction and status/priority sets only.
func (r *fakeTicketRepo) List(_ context.Context, query repository.TicketQuery) ([]domain.Ticket, error) {
	r.queries = append(r.queries, query)
	result := []domain.Ticket{}
	if query.MatchesNothing() {
		return result, nil
	}
	for _, id := range r.order {
		t, ok := r.tickets[id]
		if !ok {
			continue
		}
		if query.RestrictAuthors && !containsString(query.AuthorIDs, t.AuthorID) {
			continue
		}
		if len(query.Statuses) > 0 && !containsString(query.Statuses, t.Status) {
			continue
		}
		if containsString(query.ExcludeStatuses, t.Status) {
			continue
		}
		if len(query.Priorities) > 0 && !containsString(query.Priorities, t.Priority) {
			continue
		}
		result = append(result, *t)
	}
	return result, nil
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

type fakeHistoryRepo struct {
	ids     *idSeq
	entries []domain.HistoryEntry
}

func (r *fakeHistoryRepo) Create(_ context.Context, entry *domain.HistoryEntry) error {
	entry.ID = r.ids.id("history")
	entry.CreatedAt = baseTime
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeHistoryRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.HistoryEntry, error) {
	result := []domain.HistoryEntry{}
	for _, e := range r.entries {
		if e.TicketID == ticketID {
			result = append(result, e)
		}
	}
	return result, nil
}

type fakeSLARepo struct {
	records map[string]*domain.SLARecord
}

func newFakeSLARepo() *fakeSLARepo {
	return &fakeSLARepo{records: map[string]*domain.SLARecord{}}
}

func (r *fakeSLARepo) Create(_ context.Context, record *domain.SLARecord) error {
	clone := *record
	r.records[record.TicketID] = &clone
	return nil
}

func (r *fakeSLARepo) Get(_ context.Context, ticketID string) (*domain.SLARecord, error) {
	rec, ok := r.records[ticketID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *rec
	return &clone, nil
}

func (r *fakeSLARepo) GetMany(_ context.Context, ticketIDs []string) (map[string]domain.SLARecord, error) {
	result := map[string]domain.SLARecord{}
	for _, id := range ticketIDs {
		if rec, ok := r.records[id]; ok {
			result[id] = *rec
		}
	}
	return result, nil
}

func (r *fakeSLARepo) UpdateDeadlines(_ context.Context, record *domain.SLARecord) error {
	rec, ok := r.records[record.TicketID]
	if !ok {
		return pgx.ErrNoRows
	}
	rec.FirstResponseDue = record.FirstResponseDue
	rec.ResolutionDue = record.ResolutionDue
	return nil
}

func (r *fakeSLARepo) MarkFirstResponse(_ context.Context, ticketID string, at time.Time) error {
	rec, ok := r.records[ticketID]
	if !ok {
		return pgx.ErrNoRows
	}
	if rec.FirstResponseAt == nil {
		t := at
		rec.FirstResponseAt = &t
	}
	return nil
}

func (r *fakeSLARepo) MarkResolved(_ context.Context, ticketID string, at time.Time) error {
	rec, ok := r.records[ticketID]
	if !ok {
		return pgx.ErrNoRows
	}
	if rec.ResolvedAt == nil {
		t := at
		rec.ResolvedAt = &t
	}
	return nil
}

type fakeCommentRepo struct {
	ids      *idSeq
	clock    *testClock
	comments []domain.Comment
}

func (r *fakeCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	comment.ID = r.ids.id("comment")
	comment.CreatedAt = r.clock.Now()
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *fakeCommentRepo) ListByTicket(_ context.Context, ticketID string, includeInternal bool) ([]domain.Comment, error) {
	result := []domain.Comment{}
	for _, c := range r.comments {
		if c.TicketID != ticketID || (c.IsInternal && !includeInternal) {
			continue
		}
		result = append(result, c)
	}
	return result, nil
}

type fakeOrgRepo struct {
	ids     *idSeq
	orgs    map[string]*domain.Organization
	members []domain.OrganizationMember
	logs    []domain.OrganizationLog
}

func newFakeOrgRepo(ids *idSeq) *fakeOrgRepo {
	return &fakeOrgRepo{ids: ids, orgs: map[string]*domain.Organization{}}
}

func (r *fakeOrgRepo) Create(_ context.Context, org *domain.Organization) error {
	for _, existing := range r.orgs {
		if existing.Slug == org.Slug {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	if org.ID == "" {
		org.ID = r.ids.id("org")
	}
	org.CreatedAt = baseTime
	org.UpdatedAt = baseTime
	clone := *org
	r.orgs[org.ID] = &clone
	return nil
}

func (r *fakeOrgRepo) Update(_ context.Context, org *domain.Organization) error {
	if _, ok := r.orgs[org.ID]; !ok {
		return pgx.ErrNoRows
	}
	for _, existing := range r.orgs {
		if existing.ID != org.ID && existing.Slug == org.Slug {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	clone := *org
	r.orgs[org.ID] = &clone
	return nil
}

func (r *fakeOrgRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.orgs[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.orgs, id)
	members := r.members[:0]
	for _, m := range r.members {
		if m.OrganizationID != id {
			members = append(members, m)
		}
	}
	r.members = members
	logs := r.logs[:0]
	for _, l := range r.logs {
		if l.OrganizationID != id {
			logs = append(logs, l)
		}
	}
	r.logs = logs
	return nil
}

func (r *fakeOrgRepo) GetByID(_ context.Context, id string) (*domain.Organization, error) {
	org, ok := r.orgs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *org
	return &clone, nil
}

func (r *fakeOrgRepo) GetBySlug(_ context.Context, slug string) (*domain.Organization, error) {
	for _, org := range r.orgs {
		if org.Slug == slug {
			clone := *org
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeOrgRepo) List(_ context.Context, _ repository.OrganizationFilter) ([]domain.Organization, error) {
	result := []domain.Organization{}
	for _, org := range r.orgs {
		result = append(result, *org)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *fakeOrgRepo) FindByEmailDomain(_ context.Context, emailDomain string) ([]domain.Organization, error) {
	result := []domain.Organization{}
	for _, org := range r.orgs {
		if org.IsActive() && containsString(org.AllowedDomains, emailDomain) {
			result = append(result, *org)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *fakeOrgRepo) AddMember(_ context.Context, member *domain.OrganizationMember) error {
	member.CreatedAt = baseTime
	for i, m := range r.members {
		if m.OrganizationID == member.OrganizationID && m.UserID == member.UserID {
			r.members[i].IsAdmin = member.IsAdmin
			return nil
		}
	}
	r.members = append(r.members, *member)
	return nil
}

func (r *fakeOrgRepo) RemoveMember(_ context.Context, orgID, userID string) error {
	for i, m := range r.members {
		if m.OrganizationID == orgID && m.UserID == userID {
			r.members = append(r.members[:i], r.members[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeOrgRepo) ListMembers(_ context.Context, orgID string) ([]domain.OrganizationMember, error) {
	result := []domain.OrganizationMember{}
	for _, m := range r.members {
		if m.OrganizationID == orgID {
			result = append(result, m)
		}
	}
	return result, nil
}

func (r *fakeOrgRepo) ListMemberships(_ context.Context, userID string) ([]domain.Membership, error) {
	result := []domain.Membership{}
	for _, m := range r.members {
		if m.UserID != userID {
			continue
		}
		if org, ok := r.orgs[m.OrganizationID]; ok {
			result = append(result, domain.Membership{Organization: *org, IsAdmin: m.IsAdmin, JoinedAt: m.CreatedAt})
		}
	}
	return result, nil
}

func (r *fakeOrgRepo) ListMemberUserIDs(_ context.Context, orgIDs []string) ([]string, error) {
	result := []string{}
	for _, m := range r.members {
		if containsString(orgIDs, m.OrganizationID) && !containsString(result, m.UserID) {
			result = append(result, m.UserID)
		}
	}
	return result, nil
}

func (r *fakeOrgRepo) AddLog(_ context.Context, entry *domain.OrganizationLog) error {
	entry.ID = r.ids.id("log")
	r.logs = append(r.logs, *entry)
	return nil
}

func (r *fakeOrgRepo) ListLogs(_ context.Context, orgID string, _ int) ([]domain.OrganizationLog, error) {
	result := []domain.OrganizationLog{}
	for _, l := range r.logs {
		if l.OrganizationID == orgID {
			result = append(result, l)
		}
	}
	return result, nil
}

type fakeFilterRepo struct {
	ids     *idSeq
	filters map[string]*domain.QueueFilter
}

func newFakeFilterRepo(ids *idSeq) *fakeFilterRepo {
	return &fakeFilterRepo{ids: ids, filters: map[string]*domain.QueueFilter{}}
}

func (r *fakeFilterRepo) clearDefault(filter *domain.QueueFilter) {
	for _, f := range r.filters {
		if f.ID != filter.ID && f.FilterType == filter.FilterType && f.OwnerID() == filter.OwnerID() {
			f.IsDefault = false
		}
	}
}

func (r *fakeFilterRepo) Create(_ context.Context, filter *domain.QueueFilter) error {
	filter.ID = r.ids.id("filter")
	if filter.IsDefault {
		r.clearDefault(filter)
	}
	clone := *filter
	r.filters[filter.ID] = &clone
	return nil
}

func (r *fakeFilterRepo) Update(_ context.Context, filter *domain.QueueFilter) error {
	if _, ok := r.filters[filter.ID]; !ok {
		return pgx.ErrNoRows
	}
	if filter.IsDefault {
		r.clearDefault(filter)
	}
	clone := *filter
	r.filters[filter.ID] = &clone
	return nil
}

func (r *fakeFilterRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.filters[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.filters, id)
	return nil
}

func (r *fakeFilterRepo) GetByID(_ context.Context, id string) (*domain.QueueFilter, error) {
	f, ok := r.filters[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *f
	return &clone, nil
}

func (r *fakeFilterRepo) ListForOwner(_ context.Context, userID string, orgIDs []string) ([]domain.QueueFilter, error) {
	result := []domain.QueueFilter{}
	for _, f := range r.filters {
		if (f.FilterType == domain.FilterTypeUser && f.OwnerID() == userID) ||
			(f.FilterType == domain.FilterTypeOrganization && containsString(orgIDs, f.OwnerID())) {
			result = append(result, *f)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *fakeFilterRepo) SetDefault(_ context.Context, filter *domain.QueueFilter) error {
	stored, ok := r.filters[filter.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	r.clearDefault(filter)
	stored.IsDefault = true
	filter.IsDefault = true
	return nil
}

type fakeHandoverRepo struct {
	ids       *idSeq
	handovers map[string]*domain.Handover
}

func newFakeHandoverRepo(ids *idSeq) *fakeHandoverRepo {
	return &fakeHandoverRepo{ids: ids, handovers: map[string]*domain.Handover{}}
}

func (r *fakeHandoverRepo) Create(_ context.Context, handover *domain.Handover) error {
	handover.ID = r.ids.id("handover")
	handover.CreatedAt = baseTime
	handover.UpdatedAt = baseTime
	for i := range handover.Tickets {
		handover.Tickets[i].HandoverID = handover.ID
	}
	clone := *handover
	r.handovers[handover.ID] = &clone
	return nil
}

func (r *fakeHandoverRepo) Update(_ context.Context, handover *domain.Handover) error {
	if _, ok := r.handovers[handover.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *handover
	r.handovers[handover.ID] = &clone
	return nil
}

func (r *fakeHandoverRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.handovers[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.handovers, id)
	return nil
}

func (r *fakeHandoverRepo) GetByID(_ context.Context, id string) (*domain.Handover, error) {
	h, ok := r.handovers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *h
	clone.ActionItems = append([]domain.ActionItem{}, h.ActionItems...)
	return &clone, nil
}

func (r *fakeHandoverRepo) List(_ context.Context, status *domain.HandoverStatus, _, _ int) ([]domain.Handover, error) {
	result := []domain.Handover{}
	for _, h := range r.handovers {
		if status == nil || h.Status == *status {
			result = append(result, *h)
		}
	}
	return result, nil
}

func (r *fakeHandoverRepo) MarkReviewed(_ context.Context, handover *domain.Handover) error {
	stored, ok := r.handovers[handover.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Status = handover.Status
	stored.ReviewedBy = handover.ReviewedBy
	stored.ReviewedAt = handover.ReviewedAt
	return nil
}

func (r *fakeHandoverRepo) AddActionItem(_ context.Context, item *domain.ActionItem) error {
	stored, ok := r.handovers[item.HandoverID]
	if !ok {
		return pgx.ErrNoRows
	}
	item.ID = r.ids.id("item")
	item.CreatedAt = baseTime
	stored.ActionItems = append(stored.ActionItems, *item)
	return nil
}

func (r *fakeHandoverRepo) CompleteActionItem(_ context.Context, handoverID, itemID string) (*domain.ActionItem, error) {
	stored, ok := r.handovers[handoverID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	for i := range stored.ActionItems {
		item := &stored.ActionItems[i]
		if item.ID != itemID {
			continue
		}
		if item.CompletedAt == nil {
			t := baseTime
			item.CompletedAt = &t
		}
		item.Completed = true
		clone := *item
		return &clone, nil
	}
	return nil, pgx.ErrNoRows
}

type recordedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordedEvents) handler(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordedEvents) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

// harness wires every service against in-memory fakes.
type harness struct {
	clock    *testClock
	ids      *idSeq
	users    *fakeUserRepo
	tickets  *fakeTicketRepo
	history  *fakeHistoryRepo
	slas     *fakeSLARepo
	comments *fakeCommentRepo
	orgs     *fakeOrgRepo
	filters  *fakeFilterRepo
	handover *fakeHandoverRepo
	recorded *recordedEvents
	helpdesk config.HelpdeskConfig

	ticketSvc   *TicketService
	commentSvc  *CommentService
	filterSvc   *QueueFilterService
	orgSvc      *OrganizationService
	handoverSvc *HandoverService
	assignSvc   *AssignmentService
}

func newHarness(users ...*domain.User) *harness {
	h := &harness{
		clock:    &testClock{now: baseTime},
		ids:      &idSeq{},
		recorded: &recordedEvents{},
		helpdesk: config.DefaultHelpdesk(),
	}
	h.users = newFakeUserRepo(h.ids, users...)
	h.tickets = newFakeTicketRepo(h.ids, h.clock)
	h.history = &fakeHistoryRepo{ids: h.ids}
	h.slas = newFakeSLARepo()
	h.comments = &fakeCommentRepo{ids: h.ids, clock: h.clock}
	h.orgs = newFakeOrgRepo(h.ids)
	h.filters = newFakeFilterRepo(h.ids)
	h.handover = newFakeHandoverRepo(h.ids)

	dispatcher := events.NewInMemoryDispatcher(nil)
	events.SubscribeAll(dispatcher, h.recorded.handler)

	gate := access.NewGate(h.orgs)
	translator := queuefilter.NewTranslator(h.orgs)
	h.ticketSvc = NewTicketService(TicketDependencies{
		TicketRepo:  h.tickets,
		HistoryRepo: h.history,
		SLARepo:     h.slas,
		UserRepo:    h.users,
		Gate:        gate,
		Translator:  translator,
		Engine:      sla.NewEngine(h.helpdesk),
		Helpdesk:    h.helpdesk,
		Dispatcher:  dispatcher,
		Clock:       h.clock.Now,
	})
	h.commentSvc = NewCommentService(CommentDependencies{
		TicketRepo:  h.tickets,
		CommentRepo: h.comments,
		SLARepo:     h.slas,
		Gate:        gate,
		Dispatcher:  dispatcher,
		Clock:       h.clock.Now,
	})
	h.filterSvc = NewQueueFilterService(QueueFilterDependencies{
		FilterRepo:    h.filters,
		Gate:          gate,
		Translator:    translator,
		TicketService: h.ticketSvc,
	})
	h.orgSvc = NewOrganizationService(OrganizationDependencies{
		OrganizationRepo: h.orgs,
		UserRepo:         h.users,
		Gate:             gate,
	})
	h.handoverSvc = NewHandoverService(HandoverDependencies{
		HandoverRepo: h.handover,
		TicketRepo:   h.tickets,
		UserRepo:     h.users,
		Dispatcher:   dispatcher,
		Clock:        h.clock.Now,
	})
	h.assignSvc = NewAssignmentService(h.ticketSvc, h.users)
	return h
}

// addOrg stores an active organization with flags switched on.
func (h *harness) addOrg(id string, flags ...string) *domain.Organization {
	org := &domain.Organization{
		ID:       id,
		Name:     id,
		Slug:     id,
		Status:   domain.OrganizationActive,
		Settings: domain.OrganizationSettings{Flags: map[string]bool{}},
	}
	for _, f := range flags {
		org.Settings.Flags[f] = true
	}
	h.orgs.orgs[id] = org
	return org
}

func (h *harness) join(orgID, userID string, admin bool) {
	h.orgs.members = append(h.orgs.members, domain.OrganizationMember{
		OrganizationID: orgID, UserID: userID, IsAdmin: admin, CreatedAt: baseTime,
	})
}

func newUser(id string, role domain.UserRole) *domain.User {
	return &domain.User{ID: id, Name: id, Email: id + "@example.com", Role: role, Active: true, CreatedAt: baseTime}
}
