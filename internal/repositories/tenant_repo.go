package repositories

import (
	"context"

	"tablekeep/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TenantRepository is the durable record of tenants. Tenants are never
// hard-deleted.
type TenantRepository interface {
	// CreateWithOwner inserts the tenant and an active OWNER assignment for
	// owner in one transaction.
	CreateWithOwner(ctx context.Context, tenant *models.Tenant, owner *models.StaffAssignment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*models.Tenant, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	List(ctx context.Context, limit, offset int) ([]*models.Tenant, error)
}

type tenantRepo struct {
	db Database
}

func NewTenantRepo(db Database) TenantRepository {
	return &tenantRepo{db: db}
}

func (r *tenantRepo) CreateWithOwner(ctx context.Context, tenant *models.Tenant, owner *models.StaffAssignment) error {
	return withTx(ctx, r.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
		INSERT INTO tenants (id, name, slug, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`, tenant.ID, tenant.Name, tenant.Slug, tenant.Active)
		if err != nil {
			return mapError(err, "tenant")
		}
		_, err = tx.Exec(ctx, insertAssignmentSQL,
			owner.ID, owner.PrincipalID, owner.TenantID, owner.Role, owner.InvitedBy)
		return mapError(err, "staff assignment")
	})
}

func (r *tenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	tenant := &models.Tenant{}
	query := `
		SELECT id, name, slug, active, created_at, updated_at
		FROM tenants
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&tenant.ID, &tenant.Name, &tenant.Slug, &tenant.Active, &tenant.CreatedAt, &tenant.UpdatedAt)
	if err != nil {
		return nil, mapError(err, "tenant")
	}
	return tenant, nil
}

func (r *tenantRepo) GetBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	tenant := &models.Tenant{}
	query := `
		SELECT id, name, slug, active, created_at, updated_at
		FROM tenants
		WHERE slug = $1
	`
	err := r.db.QueryRow(ctx, query, slug).Scan(&tenant.ID, &tenant.Name, &tenant.Slug, &tenant.Active, &tenant.CreatedAt, &tenant.UpdatedAt)
	if err != nil {
		return nil, mapError(err, "tenant")
	}
	return tenant, nil
}

func (r *tenantRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `UPDATE tenants SET active = $1, updated_at = NOW() WHERE id = $2`
	tag, err := r.db.Exec(ctx, query, active, id)
	if err != nil {
		return mapError(err, "tenant")
	}
	return requireAffected(tag, "tenant")
}

func (r *tenantRepo) List(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	query := `
		SELECT id, name, slug, active, created_at, updated_at
		FROM tenants
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		tenant := &models.Tenant{}
		if err := rows.Scan(&tenant.ID, &tenant.Name, &tenant.Slug, &tenant.Active, &tenant.CreatedAt, &tenant.UpdatedAt); err != nil {
			return nil, err
		}
		tenants = append(tenants, tenant)
	}
	return tenants, rows.Err()
}
