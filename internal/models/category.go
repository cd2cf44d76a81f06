package models

import (
	"time"

	"github.com/google/uuid"
)

type Category struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	TenantID    uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	Name        string     `json:"name" db:"name"`
	Description *string    `json:"description,omitempty" db:"description"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty" db:"parent_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

func (c *Category) GetID() uuid.UUID         { return c.ID }
func (c *Category) SetID(id uuid.UUID)       { c.ID = id }
func (c *Category) GetTenantID() uuid.UUID   { return c.TenantID }
func (c *Category) SetTenantID(id uuid.UUID) { c.TenantID = id }

func (c *Category) References() []Reference {
	if c.ParentID == nil {
		return nil
	}
	return []Reference{{Kind: KindCategory, ID: *c.ParentID}}
}
