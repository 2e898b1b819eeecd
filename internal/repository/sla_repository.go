package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivovalerieviliev/help-desk-sub001/internal/domain"
)

// SLARepository persists one SLA record per ticket.
type SLARepository interface {
	Create(ctx context.Context, record *domain.SLARecord) error
	Get(ctx context.Context, ticketID string) (*domain.SLARecord, error)
	GetMany(ctx context.Context, ticketIDs []string) (map[string]domain.SLARecord, error)
	UpdateDeadlines(ctx context.Context, record *domain.SLARecord) error
	MarkFirstResponse(ctx context.Context, ticketID string, at time.Time) error
	MarkResolved(ctx context.Context, ticketID string, at time.Time) error
}

type slaRepository struct {
	pool *pgxpool.Pool
}

// NewSLARepository builds repository.
func NewSLARepository(pool *pgxpool.Pool) SLARepository {
	return &slaRepository{pool: pool}
}

const slaColumns = `ticket_id, started_at, first_response_due, first_response_at, resolution_due, resolved_at, updated_at`

func (r *slaRepository) Create(ctx context.Context, record *domain.SLARecord) error {
	const query = `
        INSERT INTO sla_log (ticket_id, started_at, first_response_due, resolution_due)
        VALUES ($1,$2,$3,$4)
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		record.TicketID,
		record.StartedAt,
		record.FirstResponseDue,
		record.ResolutionDue,
	).Scan(&record.UpdatedAt)
}

func (r *slaRepository) Get(ctx context.Context, ticketID string) (*domain.SLARecord, error) {
	query := `SELECT ` + slaColumns + ` FROM sla_log WHERE ticket_id=$1`
	var record domain.SLARecord
	if err := scanSLA(r.pool.QueryRow(ctx, query, ticketID), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *slaRepository) GetMany(ctx context.Context, ticketIDs []string) (map[string]domain.SLARecord, error) {
	result := make(map[string]domain.SLARecord, len(ticketIDs))
	if len(ticketIDs) == 0 {
		return result, nil
	}
	query := `SELECT ` + slaColumns + ` FROM sla_log WHERE ticket_id = ANY($1::uuid[])`
	rows, err := r.pool.Query(ctx, query, ticketIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var record domain.SLARecord
		if err := scanSLA(rows, &record); err != nil {
			return nil, err
		}
		result[record.TicketID] = record
	}
	return result, rows.Err()
}

func (r *slaRepository) UpdateDeadlines(ctx context.Context, record *domain.SLARecord) error {
	const query = `
        UPDATE sla_log SET first_response_due=$1, resolution_due=$2, updated_at=NOW()
        WHERE ticket_id=$3
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		record.FirstResponseDue,
		record.ResolutionDue,
		record.TicketID,
	).Scan(&record.UpdatedAt)
}

// MarkFirstResponse records the first response time; later calls keep the
// original timestamp.
func (r *slaRepository) MarkFirstResponse(ctx context.Context, ticketID string, at time.Time) error {
	const query = `
        UPDATE sla_log SET first_response_at=COALESCE(first_response_at, $1), updated_at=NOW()
        WHERE ticket_id=$2`
	return execOne(ctx, r.pool, query, at, ticketID)
}

// MarkResolved records the resolution time. resolved_at is never cleared or
// moved once set.
func (r *slaRepository) MarkResolved(ctx context.Context, ticketID string, at time.Time) error {
	const query = `
        UPDATE sla_log SET resolved_at=COALESCE(resolved_at, $1), updated_at=NOW()
        WHERE ticket_id=$2`
	return execOne(ctx, r.pool, query, at, ticketID)
}

func scanSLA(row pgx.Row, record *domain.SLARecord) error {
	return row.Scan(
		&record.TicketID,
		&record.StartedAt,
		&record.FirstResponseDue,
		&record.FirstResponseAt,
		&record.ResolutionDue,
		&record.ResolvedAt,
		&record.UpdatedAt,
	)
}

func execOne(ctx context.Context, pool *pgxpool.Pool, query string, args ...any) error {
	cmd, err := pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
