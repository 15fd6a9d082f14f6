package auth

import (
	"fmt"
	"strings"
)

// Role represents an admin role for role-based access control
type Role string

const (
	// RoleAdmin has full access to all admin endpoints
	RoleAdmin Role = "admin"

	// RoleViewer can read usage data
	RoleViewer Role = "viewer"
)

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleViewer:
		return true
	default:
		return false
	}
}

// HasPermission checks if a role has permission for a required role
// Admin has all permissions, viewer only has viewer permissions
func (r Role) HasPermission(required Role) bool {
	if r == RoleAdmin {
		return true
	}
	return r == required
}

// ParseRoles parses a comma separated role list such as "admin,viewer".
func ParseRoles(s string) ([]Role, error) {
	var roles []Role
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		if part == "" {
			continue
		}
		role := Role(part)
		if !role.IsValid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidRole, part)
		}
		roles = append(roles, role)
	}
	if len(roles) == 0 {
		return nil, fmt.Errorf("%w: no roles given", ErrInvalidRole)
	}
	return roles, nil
}

// AnyHasPermission reports whether any of the granted role names covers one
// of the required roles.
func AnyHasPermission(granted []string, required ...Role) bool {
	if len(required) == 0 {
		return true
	}
	for _, req := range required {
		for _, g := range granted {
			if Role(g).HasPermission(req) {
				return true
			}
		}
	}
	return false
}
