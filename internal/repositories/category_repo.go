package repositories

import (
	"context"

	"tablekeep/internal/models"

	"github.com/google/uuid"
)

type CategoryRepository = ScopedRepository[*models.Category]

type categoryRepo struct {
	scopedTable
}

func NewCategoryRepo(db Querier) CategoryRepository {
	return &categoryRepo{scopedTable{db: db, table: "categories", resource: "category"}}
}

func (r *categoryRepo) Insert(ctx context.Context, category *models.Category) error {
	query := `
		INSERT INTO categories (id, tenant_id, name, description, parent_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, category.ID, category.TenantID, category.Name, category.Description, category.ParentID)
	return mapError(err, r.resource)
}

func (r *categoryRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Category, error) {
	category := &models.Category{}
	query := `
		SELECT id, tenant_id, name, description, parent_id, created_at, updated_at
		FROM categories
		WHERE tenant_id = $1 AND id = $2
	`
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(&category.ID, &category.TenantID, &category.Name,
		&category.Description, &category.ParentID, &category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		return nil, mapError(err, r.resource)
	}
	return category, nil
}

func (r *categoryRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Category, error) {
	query := `
		SELECT id, tenant_id, name, description, parent_id, created_at, updated_at
		FROM categories
		WHERE tenant_id = $1
		ORDER BY name
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		category := &models.Category{}
		if err := rows.Scan(&category.ID, &category.TenantID, &category.Name, &category.Description,
			&category.ParentID, &category.CreatedAt, &category.UpdatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

func (r *categoryRepo) Update(ctx context.Context, category *models.Category) error {
	query := `
		UPDATE categories
		SET name = $1, description = $2, parent_id = $3, updated_at = NOW()
		WHERE tenant_id = $4 AND id = $5
	`
	tag, err := r.db.Exec(ctx, query, category.Name, category.Description, category.ParentID, category.TenantID, category.ID)
	if err != nil {
		return mapError(err, r.resource)
	}
	return requireAffected(tag, r.resource)
}
