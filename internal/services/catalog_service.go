package services

import (
	"context"

	"tablekeep/internal/common"
	"tablekeep/internal/models"
	"tablekeep/internal/repositories"
)

// Catalog groups the tenant-scoped stores for menu data.
type Catalog struct {
	Categories  *ScopedStore[*models.Category]
	Ingredients *ScopedStore[*models.Ingredient]
	Recipes     *ScopedStore[*models.Recipe]
	MenuItems   *ScopedStore[*models.MenuItem]

	menuItemRepo repositories.MenuItemRepository
}

// NewCatalog wires the scoped stores with a shared reference checker so that
// recipes and menu items can only point at entities of their own tenant.
func NewCatalog(
	categoryRepo repositories.CategoryRepository,
	ingredientRepo repositories.IngredientRepository,
	recipeRepo repositories.RecipeRepository,
	menuItemRepo repositories.MenuItemRepository,
) *Catalog {
	refs := ReferenceChecker{
		models.KindCategory:   categoryRepo,
		models.KindIngredient: ingredientRepo,
		models.KindRecipe:     recipeRepo,
		models.KindMenuItem:   menuItemRepo,
	}
	return &Catalog{
		Categories:   NewScopedStore(categoryRepo, refs),
		Ingredients:  NewScopedStore(ingredientRepo, refs),
		Recipes:      NewScopedStore(recipeRepo, refs),
		MenuItems:    NewScopedStore[*models.MenuItem](menuItemRepo, refs),
		menuItemRepo: menuItemRepo,
	}
}

// PublicMenu lists the published menu of the resolved tenant.
func (c *Catalog) PublicMenu(ctx context.Context) ([]*models.MenuItem, error) {
	tc, err := common.RequireTenantContext(ctx)
	if err != nil {
		return nil, err
	}
	return c.menuItemRepo.ListPublished(ctx, tc.TenantID)
}
