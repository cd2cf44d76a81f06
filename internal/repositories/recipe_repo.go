package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"tablekeep/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type RecipeRepository = ScopedRepository[*models.Recipe]

type recipeRepo struct {
	scopedTable
}

func NewRecipeRepo(db Querier) RecipeRepository {
	return &recipeRepo{scopedTable{db: db, table: "recipes", resource: "recipe"}}
}

func (r *recipeRepo) Insert(ctx context.Context, recipe *models.Recipe) error {
	lines, err := json.Marshal(recipe.Ingredients)
	if err != nil {
		return fmt.Errorf("failed to encode recipe ingredients: %w", err)
	}
	query := `
		INSERT INTO recipes (id, tenant_id, category_id, name, instructions, ingredients, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`
	_, err = r.db.Exec(ctx, query, recipe.ID, recipe.TenantID, recipe.CategoryID, recipe.Name, recipe.Instructions, lines)
	return mapError(err, r.resource)
}

func scanRecipe(row pgx.Row) (*models.Recipe, error) {
	recipe := &models.Recipe{}
	var lines []byte
	if err := row.Scan(&recipe.ID, &recipe.TenantID, &recipe.CategoryID, &recipe.Name, &recipe.Instructions,
		&lines, &recipe.CreatedAt, &recipe.UpdatedAt); err != nil {
		return nil, err
	}
	if len(lines) > 0 {
		if err := json.Unmarshal(lines, &recipe.Ingredients); err != nil {
			return nil, fmt.Errorf("failed to decode recipe ingredients: %w", err)
		}
	}
	return recipe, nil
}

func (r *recipeRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Recipe, error) {
	query := `
		SELECT id, tenant_id, category_id, name, instructions, ingredients, created_at, updated_at
		FROM recipes
		WHERE tenant_id = $1 AND id = $2
	`
	recipe, err := scanRecipe(r.db.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		return nil, mapError(err, r.resource)
	}
	return recipe, nil
}

func (r *recipeRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Recipe, error) {
	query := `
		SELECT id, tenant_id, category_id, name, instructions, ingredients, created_at, updated_at
		FROM recipes
		WHERE tenant_id = $1
		ORDER BY name
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipes []*models.Recipe
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, recipe)
	}
	return recipes, rows.Err()
}

func (r *recipeRepo) Update(ctx context.Context, recipe *models.Recipe) error {
	lines, err := json.Marshal(recipe.Ingredients)
	if err != nil {
		return fmt.Errorf("failed to encode recipe ingredients: %w", err)
	}
	query := `
		UPDATE recipes
		SET category_id = $1, name = $2, instructions = $3, ingredients = $4, updated_at = NOW()
		WHERE tenant_id = $5 AND id = $6
	`
	tag, err := r.db.Exec(ctx, query, recipe.CategoryID, recipe.Name, recipe.Instructions, lines, recipe.TenantID, recipe.ID)
	if err != nil {
		return mapError(err, r.resource)
	}
	return requireAffected(tag, r.resource)
}
