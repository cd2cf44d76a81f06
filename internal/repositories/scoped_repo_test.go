package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"tablekeep/internal/common"
	"tablekeep/internal/models"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ScopedRepoTestSuite struct {
	suite.Suite
	mock        pgxmock.PgxPoolIface
	categories  CategoryRepository
	recipes     RecipeRepository
	menuItems   MenuItemRepository
	ingredients IngredientRepository
	tenantID1   uuid.UUID
	tenantID2   uuid.UUID
	context     context.Context
}

func (suite *ScopedRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	require.NoError(suite.T(), err)
	suite.mock = mock

	suite.categories = NewCategoryRepo(mock)
	suite.recipes = NewRecipeRepo(mock)
	suite.menuItems = NewMenuItemRepo(mock)
	suite.ingredients = NewIngredientRepo(mock)
	suite.tenantID1 = uuid.New()
	suite.tenantID2 = uuid.New()
	suite.context = context.Background()
}

func (suite *ScopedRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestScopedRepoTestSuite(t *testing.T) {
	suite.Run(t, new(ScopedRepoTestSuite))
}

func (suite *ScopedRepoTestSuite) TestCategoryFindByID_OtherTenantIsNotFound() {
	id := uuid.New()
	suite.mock.ExpectQuery(`FROM categories\s+WHERE tenant_id = \$1 AND id = \$2`).
		WithArgs(suite.tenantID2, id).
		WillReturnError(pgx.ErrNoRows)

	category, err := suite.categories.FindByID(suite.context, suite.tenantID2, id)
	assert.Nil(suite.T(), category)
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
	assert.Equal(suite.T(), "category not found", err.Error())
}

func (suite *ScopedRepoTestSuite) TestCategoryUpdate_NoRowsAffected() {
	category := &models.Category{ID: uuid.New(), TenantID: suite.tenantID1, Name: "Mains"}
	suite.mock.ExpectExec(`UPDATE categories`).
		WithArgs(category.Name, category.Description, category.ParentID, suite.tenantID1, category.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := suite.categories.Update(suite.context, category)
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
}

func (suite *ScopedRepoTestSuite) TestDelete_FiltersByTenant() {
	id := uuid.New()
	suite.mock.ExpectExec(`DELETE FROM categories WHERE tenant_id = \$1 AND id = \$2`).
		WithArgs(suite.tenantID1, id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	suite.mock.ExpectExec(`DELETE FROM categories WHERE tenant_id = \$1 AND id = \$2`).
		WithArgs(suite.tenantID2, id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.NoError(suite.T(), suite.categories.Delete(suite.context, suite.tenantID1, id))
	assert.ErrorIs(suite.T(), suite.categories.Delete(suite.context, suite.tenantID2, id), common.ErrNotFound)
}

func (suite *ScopedRepoTestSuite) TestDelete_StillReferencedIsNotCrossTenant() {
	id := uuid.New()
	suite.mock.ExpectExec(`DELETE FROM categories WHERE tenant_id = \$1 AND id = \$2`).
		WithArgs(suite.tenantID1, id).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "menu_items_tenant_id_category_id_fkey"})

	err := suite.categories.Delete(suite.context, suite.tenantID1, id)
	assert.ErrorIs(suite.T(), err, common.ErrInvalid)
	assert.NotErrorIs(suite.T(), err, common.ErrCrossTenantReference)
	var appErr *common.Error
	require.True(suite.T(), errors.As(err, &appErr))
	assert.Equal(suite.T(), "category is still referenced", appErr.Msg)
}

func (suite *ScopedRepoTestSuite) TestIngredientDelete() {
	id := uuid.New()
	expect := func(referenced, deleted bool) {
		suite.mock.ExpectQuery(`WITH used AS`).
			WithArgs(suite.tenantID1, id, id.String()).
			WillReturnRows(pgxmock.NewRows([]string{"referenced", "exists"}).AddRow(referenced, deleted))
	}

	expect(true, false)
	assert.ErrorIs(suite.T(), suite.ingredients.Delete(suite.context, suite.tenantID1, id), common.ErrInvalid)

	expect(false, false)
	assert.ErrorIs(suite.T(), suite.ingredients.Delete(suite.context, suite.tenantID1, id), common.ErrNotFound)

	expect(false, true)
	assert.NoError(suite.T(), suite.ingredients.Delete(suite.context, suite.tenantID1, id))
}

func (suite *ScopedRepoTestSuite) TestExistsInTenant() {
	id := uuid.New()
	suite.mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM recipes WHERE tenant_id = \$1 AND id = \$2\)`).
		WithArgs(suite.tenantID2, id).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	exists, err := suite.recipes.ExistsInTenant(suite.context, suite.tenantID2, id)
	require.NoError(suite.T(), err)
	assert.False(suite.T(), exists)
}

func (suite *ScopedRepoTestSuite) TestRecipeFindByID_DecodesIngredients() {
	id := uuid.New()
	ingredientID := uuid.New()
	now := time.Now()
	lines := []byte(`[{"ingredient_id":"` + ingredientID.String() + `","quantity":0.25,"unit":"kg"}]`)
	suite.mock.ExpectQuery(`FROM recipes`).
		WithArgs(suite.tenantID1, id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "tenant_id", "category_id", "name", "instructions", "ingredients", "created_at", "updated_at"}).
			AddRow(id, suite.tenantID1, nil, "Risotto", nil, lines, now, now))

	recipe, err := suite.recipes.FindByID(suite.context, suite.tenantID1, id)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), recipe.Ingredients, 1)
	assert.Equal(suite.T(), ingredientID, recipe.Ingredients[0].IngredientID)
	assert.Equal(suite.T(), []models.Reference{{Kind: models.KindIngredient, ID: ingredientID}}, recipe.References())
}

func (suite *ScopedRepoTestSuite) TestMenuItemInsert_ForeignKeyViolation() {
	recipeID := uuid.New()
	item := &models.MenuItem{ID: uuid.New(), TenantID: suite.tenantID1, RecipeID: &recipeID, Name: "Risotto", PriceCents: 1800}
	suite.mock.ExpectExec(`INSERT INTO menu_items`).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	err := suite.menuItems.Insert(suite.context, item)
	assert.ErrorIs(suite.T(), err, common.ErrCrossTenantReference)
}

func (suite *ScopedRepoTestSuite) TestListPublished() {
	now := time.Now()
	suite.mock.ExpectQuery(`WHERE tenant_id = \$1 AND published`).
		WithArgs(suite.tenantID1).
		WillReturnRows(pgxmock.NewRows([]string{"id", "tenant_id", "recipe_id", "category_id", "name", "description",
			"price_cents", "published", "created_at", "updated_at"}).
			AddRow(uuid.New(), suite.tenantID1, nil, nil, "Tiramisu", nil, int64(900), true, now, now))

	items, err := suite.menuItems.ListPublished(suite.context, suite.tenantID1)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), items, 1)
	assert.Equal(suite.T(), "Tiramisu", items[0].Name)
}
