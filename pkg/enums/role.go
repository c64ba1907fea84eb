package enums

import (
	"fmt"
	"strings"
)

// Role is the permission tier stored on every user.
type Role string

const (
	RoleCEO        Role = "CEO"
	RoleDirector   Role = "Director"
	RoleSupervisor Role = "Supervisor"
	RoleCustomer   Role = "customer"
)

var validRoles = []Role{
	RoleCEO,
	RoleDirector,
	RoleSupervisor,
	RoleCustomer,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the role belongs to shop staff.
func (r Role) IsAdmin() bool {
	return r.Rank() > RoleCustomer.Rank()
}

// Rank orders roles by privilege; unknown roles rank below customers.
func (r Role) Rank() int {
	switch r {
	case RoleCEO:
		return 3
	case RoleDirector:
		return 2
	case RoleSupervisor:
		return 1
	case RoleCustomer:
		return 0
	default:
		return -1
	}
}

// ParseRole converts raw input into a Role. Matching is case-insensitive.
func ParseRole(value string) (Role, error) {
	trimmed := strings.TrimSpace(value)
	for _, candidate := range validRoles {
		if strings.EqualFold(string(candidate), trimmed) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
