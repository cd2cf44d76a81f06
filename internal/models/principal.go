package models

import "github.com/google/uuid"

// Principal is an authenticated actor together with its staff assignments.
type Principal struct {
	ID          uuid.UUID
	Assignments []*StaffAssignment
}

// UsableAssignments returns the assignments that may be used to resolve a tenant.
func (p *Principal) UsableAssignments() []*StaffAssignment {
	if p == nil {
		return nil
	}
	var usable []*StaffAssignment
	for _, a := range p.Assignments {
		if a != nil && a.Usable() {
			usable = append(usable, a)
		}
	}
	return usable
}

// TenantContext is the outcome of tenant resolution for one request. It is
// carried through the call chain in the request context.
type TenantContext struct {
	TenantID    uuid.UUID
	Slug        string
	PrincipalID uuid.UUID
	// Role is empty for public requests.
	Role Role
	// Public is set when the tenant was resolved by slug without any
	// membership check.
	Public bool
}

// Authenticated reports whether the request carries a principal.
func (tc *TenantContext) Authenticated() bool {
	return tc != nil && tc.PrincipalID != uuid.Nil
}
