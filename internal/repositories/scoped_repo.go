package repositories

import (
	"context"
	"errors"

	"tablekeep/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// ScopedRepository is the storage contract for tenant-scoped entities. Every
// read and write is filtered by tenant_id; rows of other tenants are
// indistinguishable from missing rows.
type ScopedRepository[T models.Scoped] interface {
	Insert(ctx context.Context, entity T) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (T, error)
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]T, error)
	Update(ctx context.Context, entity T) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	ExistsInTenant(ctx context.Context, tenantID, id uuid.UUID) (bool, error)
}

// scopedTable holds the queries shared by every scoped table.
type scopedTable struct {
	db       Querier
	table    string
	resource string
}

// Delete removes a row of tenantID. Foreign keys are (tenant_id, id) pairs,
// so a violation here always comes from a row of the same tenant.
func (t scopedTable) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := t.db.Exec(ctx, `DELETE FROM `+t.table+` WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == sqlStateForeignKeyViolation {
		return stillReferenced(t.resource, err)
	}
	if err != nil {
		return mapError(err, t.resource)
	}
	return requireAffected(tag, t.resource)
}

func (t scopedTable) ExistsInTenant(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	var exists bool
	err := t.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM `+t.table+` WHERE tenant_id = $1 AND id = $2)`, tenantID, id).Scan(&exists)
	return exists, err
}
