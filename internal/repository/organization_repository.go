package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivovalerieviliev/help-desk-sub001/internal/domain"
)

// OrganizationFilter narrows organization listings.
type OrganizationFilter struct {
	Status *domain.OrganizationStatus
	Search string
	Limit  int
	Offset int
}

// OrganizationRepository manages organizations, their members and audit log.
type OrganizationRepository interface {
	Create(ctx context.Context, org *domain.Organization) error
	Update(ctx context.Context, org *domain.Organization) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Organization, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Organization, error)
	List(ctx context.Context, filter OrganizationFilter) ([]domain.Organization, error)
	FindByEmailDomain(ctx context.Context, emailDomain string) ([]domain.Organization, error)

	AddMember(ctx context.Context, member *domain.OrganizationMember) error
	RemoveMember(ctx context.Context, orgID, userID string) error
	ListMembers(ctx context.Context, orgID string) ([]domain.OrganizationMember, error)
	ListMemberships(ctx context.Context, userID string) ([]domain.Membership, error)
	ListMemberUserIDs(ctx context.Context, orgIDs []string) ([]string, error)

	AddLog(ctx context.Context, entry *domain.OrganizationLog) error
	ListLogs(ctx context.Context, orgID string, limit int) ([]domain.OrganizationLog, error)
}

type organizationRepository struct {
	pool *pgxpool.Pool
}

// NewOrganizationRepository builds repository.
func NewOrganizationRepository(pool *pgxpool.Pool) OrganizationRepository {
	return &organizationRepository{pool: pool}
}

const orgColumns = `o.id, o.name, o.slug, o.description, o.allowed_domains, o.settings, o.status, o.created_at, o.updated_at`

func (r *organizationRepository) Create(ctx context.Context, org *domain.Organization) error {
	const query = `
        INSERT INTO organizations (name, slug, description, allowed_domains, settings, status)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		org.Name,
		org.Slug,
		org.Description,
		nonNilTags(org.AllowedDomains),
		org.Settings,
		org.Status,
	).Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt)
}

func (r *organizationRepository) Update(ctx context.Context, org *domain.Organization) error {
	const query = `
        UPDATE organizations SET name=$1, slug=$2, description=$3, allowed_domains=$4, settings=$5,
            status=$6, updated_at=NOW()
        WHERE id=$7
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		org.Name,
		org.Slug,
		org.Description,
		nonNilTags(org.AllowedDomains),
		org.Settings,
		org.Status,
		org.ID,
	).Scan(&org.UpdatedAt)
}

// Delete removes the organization together with its memberships. Tickets
// written by former members are untouched.
func (r *organizationRepository) Delete(ctx context.Context, id string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM organization_members WHERE organization_id=$1`, id); err != nil {
			return fmt.Errorf("delete members: %w", err)
		}
		cmd, err := tx.Exec(ctx, `DELETE FROM organizations WHERE id=$1`, id)
		if err != nil {
			return fmt.Errorf("delete organization: %w", err)
		}
		if cmd.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
}

func (r *organizationRepository) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations o WHERE o.id=$1`
	var org domain.Organization
	if err := scanOrganization(r.pool.QueryRow(ctx, query, id), &org); err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *organizationRepository) GetBySlug(ctx context.Context, slug string) (*domain.Organization, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations o WHERE o.slug=$1`
	var org domain.Organization
	if err := scanOrganization(r.pool.QueryRow(ctx, query, slug), &org); err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *organizationRepository) List(ctx context.Context, filter OrganizationFilter) ([]domain.Organization, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations o`
	args := []any{}
	clauses := []string{}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("o.status=$%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		clauses = append(clauses, fmt.Sprintf("(o.name ILIKE $%d OR o.slug ILIKE $%d)", len(args), len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	limit, offset := pageBounds(filter.Limit, filter.Offset, 50)
	query += fmt.Sprintf(" ORDER BY o.name ASC LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrganizations(rows)
}

func (r *organizationRepository) FindByEmailDomain(ctx context.Context, emailDomain string) ([]domain.Organization, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations o
        WHERE o.status='active' AND LOWER($1) = ANY(o.allowed_domains)
        ORDER BY o.created_at ASC`
	rows, err := r.pool.Query(ctx, query, emailDomain)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrganizations(rows)
}

func (r *organizationRepository) AddMember(ctx context.Context, member *domain.OrganizationMember) error {
	const query = `
        INSERT INTO organization_members (organization_id, user_id, is_admin)
        VALUES ($1,$2,$3)
        ON CONFLICT (organization_id, user_id) DO UPDATE SET is_admin=EXCLUDED.is_admin
        RETURNING created_at`
	return r.pool.QueryRow(ctx, query, member.OrganizationID, member.UserID, member.IsAdmin).Scan(&member.CreatedAt)
}

func (r *organizationRepository) RemoveMember(ctx context.Context, orgID, userID string) error {
	return execOne(ctx, r.pool, `DELETE FROM organization_members WHERE organization_id=$1 AND user_id=$2`, orgID, userID)
}

func (r *organizationRepository) ListMembers(ctx context.Context, orgID string) ([]domain.OrganizationMember, error) {
	const query = `
        SELECT organization_id, user_id, is_admin, created_at
        FROM organization_members WHERE organization_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.OrganizationMember{}
	for rows.Next() {
		var member domain.OrganizationMember
		if err := rows.Scan(&member.OrganizationID, &member.UserID, &member.IsAdmin, &member.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, member)
	}
	return result, rows.Err()
}

// ListMemberships returns the user's organizations, oldest membership first.
func (r *organizationRepository) ListMemberships(ctx context.Context, userID string) ([]domain.Membership, error) {
	query := `SELECT ` + orgColumns + `, m.is_admin, m.created_at
        FROM organization_members m JOIN organizations o ON o.id = m.organization_id
        WHERE m.user_id=$1 ORDER BY m.created_at ASC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Membership{}
	for rows.Next() {
		var m domain.Membership
		org := &m.Organization
		if err := rows.Scan(
			&org.ID,
			&org.Name,
			&org.Slug,
			&org.Description,
			&org.AllowedDomains,
			&org.Settings,
			&org.Status,
			&org.CreatedAt,
			&org.UpdatedAt,
			&m.IsAdmin,
			&m.JoinedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func (r *organizationRepository) ListMemberUserIDs(ctx context.Context, orgIDs []string) ([]string, error) {
	if len(orgIDs) == 0 {
		return []string{}, nil
	}
	const query = `
        SELECT DISTINCT user_id FROM organization_members WHERE organization_id = ANY($1::uuid[])`
	rows, err := r.pool.Query(ctx, query, orgIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result = append(result, id)
	}
	return result, rows.Err()
}

func (r *organizationRepository) AddLog(ctx context.Context, entry *domain.OrganizationLog) error {
	const query = `
        INSERT INTO organization_logs (organization_id, actor_id, action, details)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	details := entry.Details
	if details == nil {
		details = map[string]any{}
	}
	return r.pool.QueryRow(ctx, query, entry.OrganizationID, entry.ActorID, entry.Action, details).
		Scan(&entry.ID, &entry.CreatedAt)
}

func (r *organizationRepository) ListLogs(ctx context.Context, orgID string, limit int) ([]domain.OrganizationLog, error) {
	limit, _ = pageBounds(limit, 0, 100)
	query := fmt.Sprintf(`
        SELECT id, organization_id, actor_id, action, details, created_at
        FROM organization_logs WHERE organization_id=$1 ORDER BY created_at DESC LIMIT %d`, limit)
	rows, err := r.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.OrganizationLog{}
	for rows.Next() {
		var entry domain.OrganizationLog
		if err := rows.Scan(&entry.ID, &entry.OrganizationID, &entry.ActorID, &entry.Action, &entry.Details, &entry.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func scanOrganization(row pgx.Row, org *domain.Organization) error {
	return row.Scan(
		&org.ID,
		&org.Name,
		&org.Slug,
		&org.Description,
		&org.AllowedDomains,
		&org.Settings,
		&org.Status,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
}

func scanOrganizations(rows pgx.Rows) ([]domain.Organization, error) {
	result := []domain.Organization{}
	for rows.Next() {
		var org domain.Organization
		if err := scanOrganization(rows, &org); err != nil {
			return nil, err
		}
		result = append(result, org)
	}
	return result, rows.Err()
}
