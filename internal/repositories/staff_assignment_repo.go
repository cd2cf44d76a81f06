package repositories

import (
	"context"

	"tablekeep/internal/common"
	"tablekeep/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const insertAssignmentSQL = `
		INSERT INTO staff_assignments (id, principal_id, tenant_id, role, active, invited_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, $5, NOW(), NOW())
		ON CONFLICT (tenant_id, principal_id)
		DO UPDATE SET role = EXCLUDED.role, active = TRUE, invited_by = EXCLUDED.invited_by, deactivated_at = NULL, updated_at = NOW()
	`

// StaffAssignmentRepository stores principal-to-tenant role grants.
// Assignments are deactivated, never deleted. A write that would leave a
// tenant without an active OWNER fails with Invalid.
type StaffAssignmentRepository interface {
	// Assign creates or reactivates the assignment of a principal to a tenant.
	Assign(ctx context.Context, assignment *models.StaffAssignment) error
	Deactivate(ctx context.Context, tenantID, principalID uuid.UUID) error
	GetActive(ctx context.Context, tenantID, principalID uuid.UUID) (*models.StaffAssignment, error)
	// ListByPrincipal returns every active assignment of the principal across
	// tenants, annotated with the tenant's slug and active flag.
	ListByPrincipal(ctx context.Context, principalID uuid.UUID) ([]*models.StaffAssignment, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID, includeInactive bool) ([]*models.StaffAssignment, error)
}

type staffAssignmentRepo struct {
	db Database
}

func NewStaffAssignmentRepo(db Database) StaffAssignmentRepository {
	return &staffAssignmentRepo{db: db}
}

func (r *staffAssignmentRepo) Assign(ctx context.Context, a *models.StaffAssignment) error {
	if a.Role == models.RoleOwner {
		_, err := r.db.Exec(ctx, insertAssignmentSQL, a.ID, a.PrincipalID, a.TenantID, a.Role, a.InvitedBy)
		return mapError(err, "staff assignment")
	}
	return withTx(ctx, r.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if err := keepOwner(ctx, tx, a.TenantID, a.PrincipalID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, insertAssignmentSQL, a.ID, a.PrincipalID, a.TenantID, a.Role, a.InvitedBy)
		return mapError(err, "staff assignment")
	})
}

func (r *staffAssignmentRepo) Deactivate(ctx context.Context, tenantID, principalID uuid.UUID) error {
	query := `
		UPDATE staff_assignments
		SET active = FALSE, deactivated_at = NOW(), updated_at = NOW()
		WHERE tenant_id = $1 AND principal_id = $2 AND active
	`
	return withTx(ctx, r.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if err := keepOwner(ctx, tx, tenantID, principalID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, query, tenantID, principalID)
		if err != nil {
			return mapError(err, "staff assignment")
		}
		return requireAffected(tag, "staff assignment")
	})
}

// keepOwner locks the tenant's active OWNER rows and fails if principalID
// holds the only one. Concurrent removals queue on the row locks and see each
// other's result.
func keepOwner(ctx context.Context, tx pgx.Tx, tenantID, principalID uuid.UUID) error {
	query := `
		SELECT principal_id FROM staff_assignments
		WHERE tenant_id = $1 AND active AND role = $2
		FOR UPDATE
	`
	rows, err := tx.Query(ctx, query, tenantID, models.RoleOwner)
	if err != nil {
		return err
	}
	owners, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return err
	}
	if len(owners) == 1 && owners[0] == principalID {
		return common.NewError(common.KindInvalid, "a tenant must keep at least one active owner")
	}
	return nil
}

func (r *staffAssignmentRepo) GetActive(ctx context.Context, tenantID, principalID uuid.UUID) (*models.StaffAssignment, error) {
	a := &models.StaffAssignment{}
	query := `
		SELECT id, principal_id, tenant_id, role, active, invited_by, created_at, updated_at, deactivated_at
		FROM staff_assignments
		WHERE tenant_id = $1 AND principal_id = $2 AND active
	`
	err := r.db.QueryRow(ctx, query, tenantID, principalID).Scan(
		&a.ID, &a.PrincipalID, &a.TenantID, &a.Role, &a.Active, &a.InvitedBy, &a.CreatedAt, &a.UpdatedAt, &a.DeactivatedAt)
	if err != nil {
		return nil, mapError(err, "staff assignment")
	}
	return a, nil
}

func (r *staffAssignmentRepo) ListByPrincipal(ctx context.Context, principalID uuid.UUID) ([]*models.StaffAssignment, error) {
	query := `
		SELECT sa.id, sa.principal_id, sa.tenant_id, sa.role, sa.active, sa.invited_by, sa.created_at, sa.updated_at, sa.deactivated_at,
		       t.slug, t.active
		FROM staff_assignments sa
		JOIN tenants t ON t.id = sa.tenant_id
		WHERE sa.principal_id = $1 AND sa.active
		ORDER BY sa.created_at
	`
	rows, err := r.db.Query(ctx, query, principalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []*models.StaffAssignment
	for rows.Next() {
		a := &models.StaffAssignment{}
		if err := rows.Scan(&a.ID, &a.PrincipalID, &a.TenantID, &a.Role, &a.Active, &a.InvitedBy, &a.CreatedAt, &a.UpdatedAt, &a.DeactivatedAt,
			&a.TenantSlug, &a.TenantActive); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func (r *staffAssignmentRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, includeInactive bool) ([]*models.StaffAssignment, error) {
	query := `
		SELECT id, principal_id, tenant_id, role, active, invited_by, created_at, updated_at, deactivated_at
		FROM staff_assignments
		WHERE tenant_id = $1 AND (active OR $2)
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query, tenantID, includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []*models.StaffAssignment
	for rows.Next() {
		a := &models.StaffAssignment{}
		if err := rows.Scan(&a.ID, &a.PrincipalID, &a.TenantID, &a.Role, &a.Active, &a.InvitedBy, &a.CreatedAt, &a.UpdatedAt, &a.DeactivatedAt); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}
