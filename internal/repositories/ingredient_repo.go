package repositories

import (
	"context"

	"tablekeep/internal/common"
	"tablekeep/internal/models"

	"github.com/google/uuid"
)

type IngredientRepository = ScopedRepository[*models.Ingredient]

type ingredientRepo struct {
	scopedTable
}

func NewIngredientRepo(db Querier) IngredientRepository {
	return &ingredientRepo{scopedTable{db: db, table: "ingredients", resource: "ingredient"}}
}

func (r *ingredientRepo) Insert(ctx context.Context, ingredient *models.Ingredient) error {
	query := `
		INSERT INTO ingredients (id, tenant_id, name, unit, allergens, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, ingredient.ID, ingredient.TenantID, ingredient.Name, ingredient.Unit, ingredient.Allergens)
	return mapError(err, r.resource)
}

func (r *ingredientRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Ingredient, error) {
	ingredient := &models.Ingredient{}
	query := `
		SELECT id, tenant_id, name, unit, allergens, created_at, updated_at
		FROM ingredients
		WHERE tenant_id = $1 AND id = $2
	`
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(&ingredient.ID, &ingredient.TenantID, &ingredient.Name,
		&ingredient.Unit, &ingredient.Allergens, &ingredient.CreatedAt, &ingredient.UpdatedAt)
	if err != nil {
		return nil, mapError(err, r.resource)
	}
	return ingredient, nil
}

func (r *ingredientRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Ingredient, error) {
	query := `
		SELECT id, tenant_id, name, unit, allergens, created_at, updated_at
		FROM ingredients
		WHERE tenant_id = $1
		ORDER BY name
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ingredients []*models.Ingredient
	for rows.Next() {
		ingredient := &models.Ingredient{}
		if err := rows.Scan(&ingredient.ID, &ingredient.TenantID, &ingredient.Name, &ingredient.Unit,
			&ingredient.Allergens, &ingredient.CreatedAt, &ingredient.UpdatedAt); err != nil {
			return nil, err
		}
		ingredients = append(ingredients, ingredient)
	}
	return ingredients, rows.Err()
}

func (r *ingredientRepo) Update(ctx context.Context, ingredient *models.Ingredient) error {
	query := `
		UPDATE ingredients
		SET name = $1, unit = $2, allergens = $3, updated_at = NOW()
		WHERE tenant_id = $4 AND id = $5
	`
	tag, err := r.db.Exec(ctx, query, ingredient.Name, ingredient.Unit, ingredient.Allergens, ingredient.TenantID, ingredient.ID)
	if err != nil {
		return mapError(err, r.resource)
	}
	return requireAffected(tag, r.resource)
}

// Delete refuses to remove an ingredient that a recipe of the same tenant
// still lists. Recipe lines are JSONB, so no foreign key guards them.
func (r *ingredientRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `
		WITH used AS (
			SELECT EXISTS(
				SELECT 1 FROM recipes
				WHERE tenant_id = $1 AND ingredients @> jsonb_build_array(jsonb_build_object('ingredient_id', $3::text))
			) AS referenced
		), removed AS (
			DELETE FROM ingredients
			WHERE tenant_id = $1 AND id = $2 AND NOT (SELECT referenced FROM used)
			RETURNING id
		)
		SELECT (SELECT referenced FROM used), EXISTS(SELECT 1 FROM removed)
	`
	var referenced, deleted bool
	if err := r.db.QueryRow(ctx, query, tenantID, id, id.String()).Scan(&referenced, &deleted); err != nil {
		return mapError(err, r.resource)
	}
	if referenced {
		return common.NewError(common.KindInvalid, r.resource+" is still referenced")
	}
	if !deleted {
		return common.NotFound(r.resource)
	}
	return nil
}
