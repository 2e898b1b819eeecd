package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivovalerieviliev/help-desk-sub001/internal/domain"
)

// QueueFilterRepository persists saved queue filters.
type QueueFilterRepository interface {
	Create(ctx context.Context, filter *domain.QueueFilter) error
	Update(ctx context.Context, filter *domain.QueueFilter) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.QueueFilter, error)
	ListForOwner(ctx context.Context, userID string, orgIDs []string) ([]domain.QueueFilter, error)
	SetDefault(ctx context.Context, filter *domain.QueueFilter) error
}

type queueFilterRepository struct {
	pool *pgxpool.Pool
}

// NewQueueFilterRepository builds repository.
func NewQueueFilterRepository(pool *pgxpool.Pool) QueueFilterRepository {
	return &queueFilterRepository{pool: pool}
}

const queueFilterColumns = `id, name, description, filter_type, user_id, organization_id, config,
               sort_field, sort_order, is_default, COALESCE(created_by::text, ''), created_at, updated_at`

// Create inserts filter. A default filter first clears the flag on the rest
// of its scope in the same transaction.
func (r *queueFilterRepository) Create(ctx context.Context, filter *domain.QueueFilter) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if filter.IsDefault {
			if err := clearDefault(ctx, tx, filter, ""); err != nil {
				return err
			}
		}
		const query = `
            INSERT INTO queue_filters (name, description, filter_type, user_id, organization_id, config,
                sort_field, sort_order, is_default, created_by)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
            RETURNING id, created_at, updated_at`
		return tx.QueryRow(ctx, query,
			filter.Name,
			filter.Description,
			filter.FilterType,
			filter.UserID,
			filter.OrganizationID,
			filter.Config,
			filter.SortField,
			filter.SortOrder,
			filter.IsDefault,
			nullableID(filter.CreatedBy),
		).Scan(&filter.ID, &filter.CreatedAt, &filter.UpdatedAt)
	})
}

func (r *queueFilterRepository) Update(ctx context.Context, filter *domain.QueueFilter) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if filter.IsDefault {
			if err := clearDefault(ctx, tx, filter, filter.ID); err != nil {
				return err
			}
		}
		const query = `
            UPDATE queue_filters SET name=$1, description=$2, config=$3, sort_field=$4, sort_order=$5,
                is_default=$6, updated_at=NOW()
            WHERE id=$7
            RETURNING updated_at`
		return tx.QueryRow(ctx, query,
			filter.Name,
			filter.Description,
			filter.Config,
			filter.SortField,
			filter.SortOrder,
			filter.IsDefault,
			filter.ID,
		).Scan(&filter.UpdatedAt)
	})
}

func (r *queueFilterRepository) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.pool, `DELETE FROM queue_filters WHERE id=$1`, id)
}

func (r *queueFilterRepository) GetByID(ctx context.Context, id string) (*domain.QueueFilter, error) {
	query := `SELECT ` + queueFilterColumns + ` FROM queue_filters WHERE id=$1`
	var filter domain.QueueFilter
	if err := scanQueueFilter(r.pool.QueryRow(ctx, query, id), &filter); err != nil {
		return nil, err
	}
	return &filter, nil
}

// ListForOwner returns the user's own filters followed by filters shared
// with any of orgIDs.
func (r *queueFilterRepository) ListForOwner(ctx context.Context, userID string, orgIDs []string) ([]domain.QueueFilter, error) {
	if orgIDs == nil {
		orgIDs = []string{}
	}
	query := `SELECT ` + queueFilterColumns + ` FROM queue_filters
        WHERE (filter_type='user' AND user_id=$1)
           OR (filter_type='organization' AND organization_id = ANY($2::uuid[]))
        ORDER BY filter_type DESC, is_default DESC, name ASC`
	rows, err := r.pool.Query(ctx, query, userID, orgIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.QueueFilter{}
	for rows.Next() {
		var filter domain.QueueFilter
		if err := scanQueueFilter(rows, &filter); err != nil {
			return nil, err
		}
		result = append(result, filter)
	}
	return result, rows.Err()
}

// SetDefault marks filter as the default of its scope, unsetting every other
// filter of that scope first.
func (r *queueFilterRepository) SetDefault(ctx context.Context, filter *domain.QueueFilter) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := clearDefault(ctx, tx, filter, filter.ID); err != nil {
			return err
		}
		err := tx.QueryRow(ctx,
			`UPDATE queue_filters SET is_default=TRUE, updated_at=NOW() WHERE id=$1 RETURNING updated_at`,
			filter.ID,
		).Scan(&filter.UpdatedAt)
		if err != nil {
			return err
		}
		filter.IsDefault = true
		return nil
	})
}

func clearDefault(ctx context.Context, tx pgx.Tx, filter *domain.QueueFilter, exceptID string) error {
	column := "user_id"
	if filter.FilterType == domain.FilterTypeOrganization {
		column = "organization_id"
	}
	query := fmt.Sprintf(`
        UPDATE queue_filters SET is_default=FALSE, updated_at=NOW()
        WHERE filter_type=$1 AND %s=$2 AND is_default AND ($3 = '' OR id::text <> $3)`, column)
	if _, err := tx.Exec(ctx, query, filter.FilterType, filter.OwnerID(), exceptID); err != nil {
		return fmt.Errorf("clear default filter: %w", err)
	}
	return nil
}

func scanQueueFilter(row pgx.Row, filter *domain.QueueFilter) error {
	return row.Scan(
		&filter.ID,
		&filter.Name,
		&filter.Description,
		&filter.FilterType,
		&filter.UserID,
		&filter.OrganizationID,
		&filter.Config,
		&filter.SortField,
		&filter.SortOrder,
		&filter.IsDefault,
		&filter.CreatedBy,
		&filter.CreatedAt,
		&filter.UpdatedAt,
	)
}

func nullableID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
