package repositories

import (
	"context"

	"tablekeep/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type MenuItemRepository interface {
	ScopedRepository[*models.MenuItem]
	// ListPublished returns the tenant's published items for the public menu.
	ListPublished(ctx context.Context, tenantID uuid.UUID) ([]*models.MenuItem, error)
}

type menuItemRepo struct {
	scopedTable
}

func NewMenuItemRepo(db Querier) MenuItemRepository {
	return &menuItemRepo{scopedTable{db: db, table: "menu_items", resource: "menu item"}}
}

const menuItemColumns = `id, tenant_id, recipe_id, category_id, name, description, price_cents, published, created_at, updated_at`

func scanMenuItem(row pgx.Row) (*models.MenuItem, error) {
	item := &models.MenuItem{}
	err := row.Scan(&item.ID, &item.TenantID, &item.RecipeID, &item.CategoryID, &item.Name, &item.Description,
		&item.PriceCents, &item.Published, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *menuItemRepo) Insert(ctx context.Context, item *models.MenuItem) error {
	query := `
		INSERT INTO menu_items (id, tenant_id, recipe_id, category_id, name, description, price_cents, published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, item.ID, item.TenantID, item.RecipeID, item.CategoryID, item.Name,
		item.Description, item.PriceCents, item.Published)
	return mapError(err, r.resource)
}

func (r *menuItemRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.MenuItem, error) {
	query := `SELECT ` + menuItemColumns + ` FROM menu_items WHERE tenant_id = $1 AND id = $2`
	item, err := scanMenuItem(r.db.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		return nil, mapError(err, r.resource)
	}
	return item, nil
}

func (r *menuItemRepo) list(ctx context.Context, query string, args ...interface{}) ([]*models.MenuItem, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.MenuItem
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *menuItemRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.MenuItem, error) {
	query := `SELECT ` + menuItemColumns + `
		FROM menu_items
		WHERE tenant_id = $1
		ORDER BY name
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, query, tenantID, limit, offset)
}

func (r *menuItemRepo) ListPublished(ctx context.Context, tenantID uuid.UUID) ([]*models.MenuItem, error) {
	query := `SELECT ` + menuItemColumns + `
		FROM menu_items
		WHERE tenant_id = $1 AND published
		ORDER BY name
	`
	return r.list(ctx, query, tenantID)
}

func (r *menuItemRepo) Update(ctx context.Context, item *models.MenuItem) error {
	query := `
		UPDATE menu_items
		SET recipe_id = $1, category_id = $2, name = $3, description = $4, price_cents = $5, published = $6, updated_at = NOW()
		WHERE tenant_id = $7 AND id = $8
	`
	tag, err := r.db.Exec(ctx, query, item.RecipeID, item.CategoryID, item.Name, item.Description,
		item.PriceCents, item.Published, item.TenantID, item.ID)
	if err != nil {
		return mapError(err, r.resource)
	}
	return requireAffected(tag, r.resource)
}
