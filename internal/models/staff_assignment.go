package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// StaffAssignment grants a principal a role within one tenant.
type StaffAssignment struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	PrincipalID   uuid.UUID  `json:"principal_id" db:"principal_id"`
	TenantID      uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	Role          Role       `json:"role" db:"role"`
	Active        bool       `json:"active" db:"active"`
	InvitedBy     *uuid.UUID `json:"invited_by,omitempty" db:"invited_by"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty" db:"deactivated_at"`

	// Populated from the tenants table when listing a principal's assignments.
	TenantSlug   string `json:"tenant_slug,omitempty" db:"-"`
	TenantActive bool   `json:"-" db:"-"`
}

// Usable reports whether the assignment can be used to act within its tenant.
func (a *StaffAssignment) Usable() bool {
	return a.Active && a.TenantActive && a.Role.Valid()
}

// Matches reports whether selector names the assignment's tenant, either by
// id or by slug.
func (a *StaffAssignment) Matches(selector string) bool {
	if id, err := uuid.Parse(selector); err == nil {
		return id == a.TenantID
	}
	return a.TenantSlug != "" && strings.EqualFold(a.TenantSlug, selector)
}
