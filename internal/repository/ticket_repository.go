package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivovalerieviliev/help-desk-sub001/internal/domain"
)

// TicketQuery is the store-level description of a ticket listing. Nil or
// empty fields add no predicate. When RestrictAuthors is set, AuthorIDs is an
// allow-list and an empty list matches nothing.
type TicketQuery struct {
	Statuses        []string
	ExcludeStatuses []string
	Priorities      []string
	Categories      []string
	AssigneeIDs     []string
	Unassigned      bool
	AuthorIDs       []string
	RestrictAuthors bool
	CreatedFrom     *time.Time
	CreatedBefore   *time.Time
	Search          string
	SortField       string
	SortOrder       string
	Limit           int
	Offset          int
}

// MatchesNothing reports whether the author restriction excludes every ticket.
func (q TicketQuery) MatchesNothing() bool {
	return q.RestrictAuthors && len(q.AuthorIDs) == 0
}

// sortColumns maps accepted sort fields to SQL expressions.
var sortColumns = map[string]string{
	"created_at": "t.created_at",
	"updated_at": "t.updated_at",
	"due_date":   "t.due_date",
	"status":     "t.status",
	"priority":   "t.priority",
	"title":      "t.title",
	"sla_due":    "s.resolution_due",
}

// IsSortField reports whether field can be used to order tickets.
func IsSortField(field string) bool {
	_, ok := sortColumns[field]
	return ok
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, query TicketQuery) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `t.id, t.ticket_key, t.author_id, t.title, t.description, t.status, t.priority,
               t.category, t.assignee_id, t.due_date, t.tags, t.created_at, t.updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_key, author_id, title, description, status, priority, category, assignee_id, due_date, tags)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Key,
		ticket.AuthorID,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.Category,
		ticket.AssigneeID,
		ticket.DueDate,
		nonNilTags(ticket.Tags),
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, status=$3, priority=$4, category=$5,
            assignee_id=$6, due_date=$7, tags=$8, updated_at=NOW()
        WHERE id=$9
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.Category,
		ticket.AssigneeID,
		ticket.DueDate,
		nonNilTags(ticket.Tags),
		ticket.ID,
	).Scan(&ticket.UpdatedAt)
}

// Delete removes the ticket. Comments, history, SLA rows and handover links
// go with it through ON DELETE CASCADE.
func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets t WHERE t.id=$1`
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, id), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, q TicketQuery) ([]domain.Ticket, error) {
	if q.MatchesNothing() {
		return []domain.Ticket{}, nil
	}
	where, args := BuildTicketWhere(q)

	orderBy := sortColumns["created_at"]
	if col, ok := sortColumns[q.SortField]; ok {
		orderBy = col
	}
	direction := "DESC"
	if strings.EqualFold(q.SortOrder, "asc") {
		direction = "ASC"
	}

	limit, offset := pageBounds(q.Limit, q.Offset, 20)
	query := fmt.Sprintf(`SELECT %s FROM tickets t LEFT JOIN sla_log s ON s.ticket_id = t.id
             WHERE %s ORDER BY %s %s NULLS LAST, t.id LIMIT %d OFFSET %d`,
		ticketColumns, where, orderBy, direction, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// BuildTicketWhere renders q into a WHERE expression over alias t with
// positional arguments.
func BuildTicketWhere(q TicketQuery) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if len(q.Statuses) > 0 {
		args = append(args, q.Statuses)
		clauses = append(clauses, fmt.Sprintf("t.status = ANY($%d)", len(args)))
	}
	if len(q.ExcludeStatuses) > 0 {
		args = append(args, q.ExcludeStatuses)
		clauses = append(clauses, fmt.Sprintf("NOT (t.status = ANY($%d))", len(args)))
	}
	if len(q.Priorities) > 0 {
		args = append(args, q.Priorities)
		clauses = append(clauses, fmt.Sprintf("t.priority = ANY($%d)", len(args)))
	}
	if len(q.Categories) > 0 {
		args = append(args, q.Categories)
		clauses = append(clauses, fmt.Sprintf("t.category = ANY($%d)", len(args)))
	}
	switch {
	case q.Unassigned:
		clauses = append(clauses, "t.assignee_id IS NULL")
	case len(q.AssigneeIDs) > 0:
		args = append(args, q.AssigneeIDs)
		clauses = append(clauses, fmt.Sprintf("t.assignee_id = ANY($%d::uuid[])", len(args)))
	}
	if q.RestrictAuthors {
		args = append(args, q.AuthorIDs)
		clauses = append(clauses, fmt.Sprintf("t.author_id = ANY($%d::uuid[])", len(args)))
	}
	if q.CreatedFrom != nil {
		args = append(args, *q.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("t.created_at >= $%d", len(args)))
	}
	if q.CreatedBefore != nil {
		args = append(args, *q.CreatedBefore)
		clauses = append(clauses, fmt.Sprintf("t.created_at < $%d", len(args)))
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		args = append(args, "%"+search+"%")
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(t.title ILIKE %s OR t.description ILIKE %s OR t.ticket_key ILIKE %s)",
			placeholder, placeholder, placeholder))
	}
	return strings.Join(clauses, " AND "), args
}

func scanTicket(row pgx.Row, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.Key,
		&ticket.AuthorID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.Category,
		&ticket.AssigneeID,
		&ticket.DueDate,
		&ticket.Tags,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	result := []domain.Ticket{}
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
