package handlers

import (
	"net/http"
	"strings"

	"tablekeep/internal/common"
	"tablekeep/internal/models"
	"tablekeep/internal/services"

	"github.com/labstack/echo/v4"
)

// ScopedHandlers serves CRUD for one kind of tenant-scoped catalog entity.
type ScopedHandlers[T models.Scoped] struct {
	store     *services.ScopedStore[T]
	plural    string
	newEntity func() T
	validate  func(T) error
}

func NewScopedHandlers[T models.Scoped](store *services.ScopedStore[T], plural string, newEntity func() T, validate func(T) error) *ScopedHandlers[T] {
	return &ScopedHandlers[T]{store: store, plural: plural, newEntity: newEntity, validate: validate}
}

// Register mounts list/create/get/update/delete under path. read and write
// guard the read and mutating routes.
func (h *ScopedHandlers[T]) Register(g *echo.Group, path string, read, write echo.MiddlewareFunc) {
	g.GET(path, h.List, read)
	g.POST(path, h.Create, write)
	g.GET(path+"/:id", h.Get, read)
	g.PUT(path+"/:id", h.Update, write)
	g.DELETE(path+"/:id", h.Delete, write)
}

func (h *ScopedHandlers[T]) List(c echo.Context) error {
	page, err := bindPage(c)
	if err != nil {
		return common.SendError(c, err)
	}
	items, err := h.store.List(c.Request().Context(), page.Limit, page.Offset)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		h.plural: items,
		"limit":  page.Limit,
		"offset": page.Offset,
	})
}

func (h *ScopedHandlers[T]) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}
	item, err := h.store.Find(c.Request().Context(), id)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *ScopedHandlers[T]) Create(c echo.Context) error {
	entity := h.newEntity()
	if err := bindBody(c, entity); err != nil {
		return common.SendError(c, err)
	}
	if err := h.validate(entity); err != nil {
		return common.SendError(c, err)
	}
	if err := h.store.Create(c.Request().Context(), entity); err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusCreated, entity)
}

func (h *ScopedHandlers[T]) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}
	entity := h.newEntity()
	if err := bindBody(c, entity); err != nil {
		return common.SendError(c, err)
	}
	entity.SetID(id)
	if err := h.validate(entity); err != nil {
		return common.SendError(c, err)
	}
	if err := h.store.Update(c.Request().Context(), entity); err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, entity)
}

func (h *ScopedHandlers[T]) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}
	if err := h.store.Delete(c.Request().Context(), id); err != nil {
		return common.SendError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func requireName(name string) error {
	return common.ValidateRequiredString(name, "name")
}

// NewCategoryHandlers serves /categories.
func NewCategoryHandlers(catalog *services.Catalog) *ScopedHandlers[*models.Category] {
	return NewScopedHandlers(catalog.Categories, "categories",
		func() *models.Category { return &models.Category{} },
		func(c *models.Category) error { return requireName(c.Name) },
	)
}

// NewIngredientHandlers serves /ingredients.
func NewIngredientHandlers(catalog *services.Catalog) *ScopedHandlers[*models.Ingredient] {
	return NewScopedHandlers(catalog.Ingredients, "ingredients",
		func() *models.Ingredient { return &models.Ingredient{} },
		func(i *models.Ingredient) error {
			for n, a := range i.Allergens {
				i.Allergens[n] = strings.ToLower(strings.TrimSpace(a))
			}
			return requireName(i.Name)
		},
	)
}

// NewRecipeHandlers serves /recipes.
func NewRecipeHandlers(catalog *services.Catalog) *ScopedHandlers[*models.Recipe] {
	return NewScopedHandlers(catalog.Recipes, "recipes",
		func() *models.Recipe { return &models.Recipe{} },
		func(r *models.Recipe) error {
			for _, line := range r.Ingredients {
				if line.Quantity <= 0 {
					return common.NewError(common.KindInvalid, "ingredient quantity must be positive")
				}
			}
			return requireName(r.Name)
		},
	)
}

// NewMenuItemHandlers serves /menu-items.
func NewMenuItemHandlers(catalog *services.Catalog) *ScopedHandlers[*models.MenuItem] {
	return NewScopedHandlers(catalog.MenuItems, "menu_items",
		func() *models.MenuItem { return &models.MenuItem{} },
		func(m *models.MenuItem) error {
			if m.PriceCents < 0 {
				return common.NewError(common.KindInvalid, "price_cents cannot be negative")
			}
			return requireName(m.Name)
		},
	)
}
