package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivovalerieviliev/help-desk-sub001/internal/domain"
)

// AnalyticsRepository runs aggregate queries over tickets created in [from, to).
type AnalyticsRepository interface {
	CountTotal(ctx context.Context, from, to time.Time) (int64, error)
	CountBy(ctx context.Context, column string, from, to time.Time) ([]domain.CountBucket, error)
	DailyVolume(ctx context.Context, from, to time.Time) ([]domain.DailyVolume, error)
	AgentWorkload(ctx context.Context, from, to time.Time, resolved []string) ([]domain.AgentWorkload, error)
	SLASummary(ctx context.Context, from, to time.Time) (domain.SLASummary, error)
}

type analyticsRepository struct {
	pool *pgxpool.Pool
}

// NewAnalyticsRepository builds repository.
func NewAnalyticsRepository(pool *pgxpool.Pool) AnalyticsRepository {
	return &analyticsRepository{pool: pool}
}

const dailyVolumeQuery = `
        SELECT date_trunc('day', created_at) AS day, COUNT(*)
        FROM tickets WHERE created_at >= $1 AND created_at < $2
        GROUP BY day ORDER BY day ASC`

const agentWorkloadQuery = `
        SELECT u.id, u.name,
               COUNT(t.id) FILTER (WHERE NOT (t.status = ANY($3))) AS assigned,
               COUNT(t.id) FILTER (WHERE s.resolved_at >= $1 AND s.resolved_at < $2) AS resolved
        FROM users u
        LEFT JOIN tickets t ON t.assignee_id = u.id
        LEFT JOIN sla_log s ON s.ticket_id = t.id
        WHERE u.role IN ('admin','agent') AND u.active_flag
        GROUP BY u.id, u.name
        ORDER BY assigned DESC, u.name ASC`

const slaSummaryQuery = `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE COALESCE(s.first_response_at, NOW()) > s.first_response_due),
               COUNT(*) FILTER (WHERE COALESCE(s.resolved_at, NOW()) > s.resolution_due),
               COALESCE(AVG(EXTRACT(EPOCH FROM (s.first_response_at - s.started_at))), 0),
               COALESCE(AVG(EXTRACT(EPOCH FROM (s.resolved_at - s.started_at))), 0)
        FROM sla_log s JOIN tickets t ON t.id = s.ticket_id
        WHERE t.created_at >= $1 AND t.created_at < $2`

var groupableColumns = map[string]string{
	"status":   "status",
	"priority": "priority",
	"category": "category",
}

func (r *analyticsRepository) CountTotal(ctx context.Context, from, to time.Time) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM tickets WHERE created_at >= $1 AND created_at < $2`, from, to,
	).Scan(&total)
	return total, err
}

// CountBy groups tickets by one of status, priority or category.
func (r *analyticsRepository) CountBy(ctx context.Context, column string, from, to time.Time) ([]domain.CountBucket, error) {
	col, ok := groupableColumns[column]
	if !ok {
		return nil, fmt.Errorf("unsupported group column %q", column)
	}
	query := fmt.Sprintf(`
        SELECT %[1]s, COUNT(*) FROM tickets
        WHERE created_at >= $1 AND created_at < $2
        GROUP BY %[1]s ORDER BY COUNT(*) DESC, %[1]s ASC`, col)
	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.CountBucket{}
	for rows.Next() {
		var bucket domain.CountBucket
		if err := rows.Scan(&bucket.Key, &bucket.Count); err != nil {
			return nil, err
		}
		result = append(result, bucket)
	}
	return result, rows.Err()
}

func (r *analyticsRepository) DailyVolume(ctx context.Context, from, to time.Time) ([]domain.DailyVolume, error) {
	rows, err := r.pool.Query(ctx, dailyVolumeQuery, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.DailyVolume{}
	for rows.Next() {
		var day domain.DailyVolume
		if err := rows.Scan(&day.Day, &day.Count); err != nil {
			return nil, err
		}
		result = append(result, day)
	}
	return result, rows.Err()
}

// AgentWorkload counts, per staff member, open assigned tickets and tickets
// resolved inside the range.
func (r *analyticsRepository) AgentWorkload(ctx context.Context, from, to time.Time, resolved []string) ([]domain.AgentWorkload, error) {
	if resolved == nil {
		resolved = []string{}
	}
	rows, err := r.pool.Query(ctx, agentWorkloadQuery, from, to, resolved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.AgentWorkload{}
	for rows.Next() {
		var agent domain.AgentWorkload
		if err := rows.Scan(&agent.AgentID, &agent.Name, &agent.Assigned, &agent.Resolved); err != nil {
			return nil, err
		}
		result = append(result, agent)
	}
	return result, rows.Err()
}

// SLASummary counts breaches as of now and averages completion times of the
// deadlines that were completed.
func (r *analyticsRepository) SLASummary(ctx context.Context, from, to time.Time) (domain.SLASummary, error) {
	var summary domain.SLASummary
	err := r.pool.QueryRow(ctx, slaSummaryQuery, from, to).Scan(
		&summary.Tracked,
		&summary.FirstResponseBreached,
		&summary.ResolutionBreached,
		&summary.AvgFirstResponseSeconds,
		&summary.AvgResolutionSeconds,
	)
	return summary, err
}
