package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivovalerieviliev/help-desk-sub001/internal/domain"
)

// HandoverRepository stores shift handovers with their tickets and action items.
type HandoverRepository interface {
	Create(ctx context.Context, handover *domain.Handover) error
	Update(ctx context.Context, handover *domain.Handover) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Handover, error)
	List(ctx context.Context, status *domain.HandoverStatus, limit, offset int) ([]domain.Handover, error)
	MarkReviewed(ctx context.Context, handover *domain.Handover) error
	AddActionItem(ctx context.Context, item *domain.ActionItem) error
	CompleteActionItem(ctx context.Context, handoverID, itemID string) (*domain.ActionItem, error)
}

type handoverRepository struct {
	pool *pgxpool.Pool
}

// NewHandoverRepository builds repository.
func NewHandoverRepository(pool *pgxpool.Pool) HandoverRepository {
	return &handoverRepository{pool: pool}
}

const handoverColumns = `id, author_id, title, shift_notes, status, reviewed_by, reviewed_at, created_at, updated_at`

// Create inserts the handover and its ticket links atomically.
func (r *handoverRepository) Create(ctx context.Context, handover *domain.Handover) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `
            INSERT INTO handovers (author_id, title, shift_notes, status)
            VALUES ($1,$2,$3,$4)
            RETURNING id, created_at, updated_at`
		if err := tx.QueryRow(ctx, query,
			handover.AuthorID,
			handover.Title,
			handover.ShiftNotes,
			handover.Status,
		).Scan(&handover.ID, &handover.CreatedAt, &handover.UpdatedAt); err != nil {
			return err
		}
		return insertHandoverTickets(ctx, tx, handover)
	})
}

// Update rewrites title and notes and replaces the ticket list.
func (r *handoverRepository) Update(ctx context.Context, handover *domain.Handover) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `
            UPDATE handovers SET title=$1, shift_notes=$2, updated_at=NOW()
            WHERE id=$3
            RETURNING updated_at`
		if err := tx.QueryRow(ctx, query, handover.Title, handover.ShiftNotes, handover.ID).
			Scan(&handover.UpdatedAt); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM handover_tickets WHERE handover_id=$1`, handover.ID); err != nil {
			return fmt.Errorf("clear handover tickets: %w", err)
		}
		return insertHandoverTickets(ctx, tx, handover)
	})
}

func insertHandoverTickets(ctx context.Context, tx pgx.Tx, handover *domain.Handover) error {
	for i := range handover.Tickets {
		link := &handover.Tickets[i]
		link.HandoverID = handover.ID
		link.Position = i
		if _, err := tx.Exec(ctx,
			`INSERT INTO handover_tickets (handover_id, ticket_id, position, note) VALUES ($1,$2,$3,$4)`,
			link.HandoverID, link.TicketID, link.Position, link.Note,
		); err != nil {
			return fmt.Errorf("insert handover ticket %s: %w", link.TicketID, err)
		}
	}
	return nil
}

func (r *handoverRepository) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.pool, `DELETE FROM handovers WHERE id=$1`, id)
}

func (r *handoverRepository) GetByID(ctx context.Context, id string) (*domain.Handover, error) {
	query := `SELECT ` + handoverColumns + ` FROM handovers WHERE id=$1`
	var handover domain.Handover
	if err := scanHandover(r.pool.QueryRow(ctx, query, id), &handover); err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
        SELECT handover_id, ticket_id, position, note
        FROM handover_tickets WHERE handover_id=$1 ORDER BY position ASC`, id)
	if err != nil {
		return nil, err
	}
	handover.Tickets = []domain.HandoverTicket{}
	for rows.Next() {
		var link domain.HandoverTicket
		if err := rows.Scan(&link.HandoverID, &link.TicketID, &link.Position, &link.Note); err != nil {
			rows.Close()
			return nil, err
		}
		handover.Tickets = append(handover.Tickets, link)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	items, err := r.pool.Query(ctx, `
        SELECT id, handover_id, description, assignee_id, completed, completed_at, created_at
        FROM handover_action_items WHERE handover_id=$1 ORDER BY created_at ASC`, id)
	if err != nil {
		return nil, err
	}
	defer items.Close()
	handover.ActionItems = []domain.ActionItem{}
	for items.Next() {
		var item domain.ActionItem
		if err := scanActionItem(items, &item); err != nil {
			return nil, err
		}
		handover.ActionItems = append(handover.ActionItems, item)
	}
	return &handover, items.Err()
}

// List returns handover headers, newest first. Tickets and action items are
// only loaded by GetByID.
func (r *handoverRepository) List(ctx context.Context, status *domain.HandoverStatus, limit, offset int) ([]domain.Handover, error) {
	query := `SELECT ` + handoverColumns + ` FROM handovers`
	args := []any{}
	if status != nil {
		args = append(args, *status)
		query += " WHERE status=$1"
	}
	limit, offset = pageBounds(limit, offset, 20)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Handover{}
	for rows.Next() {
		var handover domain.Handover
		if err := scanHandover(rows, &handover); err != nil {
			return nil, err
		}
		result = append(result, handover)
	}
	return result, rows.Err()
}

func (r *handoverRepository) MarkReviewed(ctx context.Context, handover *domain.Handover) error {
	const query = `
        UPDATE handovers SET status=$1, reviewed_by=$2, reviewed_at=$3, updated_at=NOW()
        WHERE id=$4
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query, handover.Status, handover.ReviewedBy, handover.ReviewedAt, handover.ID).
		Scan(&handover.UpdatedAt)
}

func (r *handoverRepository) AddActionItem(ctx context.Context, item *domain.ActionItem) error {
	const query = `
        INSERT INTO handover_action_items (handover_id, description, assignee_id)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, item.HandoverID, item.Description, item.AssigneeID).
		Scan(&item.ID, &item.CreatedAt)
}

// CompleteActionItem marks the item done, keeping the first completion time.
func (r *handoverRepository) CompleteActionItem(ctx context.Context, handoverID, itemID string) (*domain.ActionItem, error) {
	const query = `
        UPDATE handover_action_items SET completed=TRUE, completed_at=COALESCE(completed_at, NOW())
        WHERE id=$1 AND handover_id=$2
        RETURNING id, handover_id, description, assignee_id, completed, completed_at, created_at`
	var item domain.ActionItem
	if err := scanActionItem(r.pool.QueryRow(ctx, query, itemID, handoverID), &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func scanHandover(row pgx.Row, handover *domain.Handover) error {
	return row.Scan(
		&handover.ID,
		&handover.AuthorID,
		&handover.Title,
		&handover.ShiftNotes,
		&handover.Status,
		&handover.ReviewedBy,
		&handover.ReviewedAt,
		&handover.CreatedAt,
		&handover.UpdatedAt,
	)
}

func scanActionItem(row pgx.Row, item *domain.ActionItem) error {
	return row.Scan(
		&item.ID,
		&item.HandoverID,
		&item.Description,
		&item.AssigneeID,
		&item.Completed,
		&item.CompletedAt,
		&item.CreatedAt,
	)
}
