package models

import (
	"time"

	"github.com/google/uuid"
)

// RecipeIngredient is one line of a recipe. It is stored inline with the recipe.
type RecipeIngredient struct {
	IngredientID uuid.UUID `json:"ingredient_id"`
	Quantity     float64   `json:"quantity"`
	Unit         string    `json:"unit"`
}

type Recipe struct {
	ID           uuid.UUID          `json:"id" db:"id"`
	TenantID     uuid.UUID          `json:"tenant_id" db:"tenant_id"`
	CategoryID   *uuid.UUID         `json:"category_id,omitempty" db:"category_id"`
	Name         string             `json:"name" db:"name"`
	Instructions *string            `json:"instructions,omitempty" db:"instructions"`
	Ingredients  []RecipeIngredient `json:"ingredients" db:"ingredients"`
	CreatedAt    time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" db:"updated_at"`
}

func (r *Recipe) GetID() uuid.UUID         { return r.ID }
func (r *Recipe) SetID(id uuid.UUID)       { r.ID = id }
func (r *Recipe) GetTenantID() uuid.UUID   { return r.TenantID }
func (r *Recipe) SetTenantID(id uuid.UUID) { r.TenantID = id }

func (r *Recipe) References() []Reference {
	refs := make([]Reference, 0, len(r.Ingredients)+1)
	if r.CategoryID != nil {
		refs = append(refs, Reference{Kind: KindCategory, ID: *r.CategoryID})
	}
	for _, line := range r.Ingredients {
		refs = append(refs, Reference{Kind: KindIngredient, ID: line.IngredientID})
	}
	return refs
}
