package models

import "github.com/google/uuid"

// EntityKind names a kind of tenant-scoped entity.
type EntityKind string

const (
	KindCategory   EntityKind = "category"
	KindIngredient EntityKind = "ingredient"
	KindRecipe     EntityKind = "recipe"
	KindMenuItem   EntityKind = "menu_item"
)

// Reference points from one scoped entity to another of the given kind.
// Both ends must belong to the same tenant.
type Reference struct {
	Kind EntityKind
	ID   uuid.UUID
}

// Scoped is implemented by every persisted entity that belongs to a tenant.
type Scoped interface {
	GetID() uuid.UUID
	SetID(id uuid.UUID)
	GetTenantID() uuid.UUID
	SetTenantID(id uuid.UUID)
	// References lists the other scoped entities this one points to.
	References() []Reference
}
