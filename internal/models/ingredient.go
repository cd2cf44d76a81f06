package models

import (
	"time"

	"github.com/google/uuid"
)

type Ingredient struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Name      string    `json:"name" db:"name"`
	Unit      string    `json:"unit" db:"unit"`
	Allergens []string  `json:"allergens" db:"allergens"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (i *Ingredient) GetID() uuid.UUID         { return i.ID }
func (i *Ingredient) SetID(id uuid.UUID)       { i.ID = id }
func (i *Ingredient) GetTenantID() uuid.UUID   { return i.TenantID }
func (i *Ingredient) SetTenantID(id uuid.UUID) { i.TenantID = id }
func (i *Ingredient) References() []Reference  { return nil }
