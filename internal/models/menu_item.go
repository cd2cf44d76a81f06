package models

import (
	"time"

	"github.com/google/uuid"
)

// MenuItem is a priced dish on a tenant's menu. Published items appear on the
// public menu.
type MenuItem struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	TenantID    uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	RecipeID    *uuid.UUID `json:"recipe_id,omitempty" db:"recipe_id"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty" db:"category_id"`
	Name        string     `json:"name" db:"name"`
	Description *string    `json:"description,omitempty" db:"description"`
	PriceCents  int64      `json:"price_cents" db:"price_cents"`
	Published   bool       `json:"published" db:"published"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

func (m *MenuItem) GetID() uuid.UUID         { return m.ID }
func (m *MenuItem) SetID(id uuid.UUID)       { m.ID = id }
func (m *MenuItem) GetTenantID() uuid.UUID   { return m.TenantID }
func (m *MenuItem) SetTenantID(id uuid.UUID) { m.TenantID = id }

func (m *MenuItem) References() []Reference {
	var refs []Reference
	if m.RecipeID != nil {
		refs = append(refs, Reference{Kind: KindRecipe, ID: *m.RecipeID})
	}
	if m.CategoryID != nil {
		refs = append(refs, Reference{Kind: KindCategory, ID: *m.CategoryID})
	}
	return refs
}
