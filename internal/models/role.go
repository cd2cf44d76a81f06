package models

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Role is a staff role within a single tenant. Roles are totally ordered by
// rank; a higher rank carries every privilege of the lower ones.
type Role string

const (
	RoleStaff Role = "STAFF"
	RoleAdmin Role = "ADMIN"
	RoleOwner Role = "OWNER"
)

// roleRanks is the role hierarchy. Adding a role means adding a row here.
var roleRanks = map[Role]int{
	RoleStaff: 1,
	RoleAdmin: 2,
	RoleOwner: 3,
}

// ParseRole parses a role name case-insensitively.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Valid reports whether r is part of the hierarchy.
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// Rank returns the position of r in the hierarchy, or 0 for unknown roles.
func (r Role) Rank() int {
	return roleRanks[r]
}

// AtLeast reports whether r is greater than or equal to required.
// An unknown role never satisfies anything, and nothing satisfies an
// unknown requirement.
func (r Role) AtLeast(required Role) bool {
	if !r.Valid() || !required.Valid() {
		return false
	}
	return r.Rank() >= required.Rank()
}

// Roles returns every role, lowest rank first.
func Roles() []Role {
	roles := make([]Role, 0, len(roleRanks))
	for r := range roleRanks {
		roles = append(roles, r)
	}
	slices.SortFunc(roles, func(a, b Role) int { return cmp.Compare(a.Rank(), b.Rank()) })
	return roles
}
