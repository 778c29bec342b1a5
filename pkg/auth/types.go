package auth

import "fmt"

// Role is the administrative tier of a user
type Role string

const (
	RoleMasterAdmin     Role = "MASTER_ADMIN"
	RoleSuperAdmin      Role = "SUPER_ADMIN"
	RoleAdmin           Role = "ADMIN"
	RoleCustomer        Role = "CUSTOMER"
	RoleServiceProvider Role = "SERVICE_PROVIDER"
)

// AdminRoles are the roles allowed into the admin API at all
var AdminRoles = []Role{RoleMasterAdmin, RoleSuperAdmin, RoleAdmin}

// IsAdmin reports whether the role is one of the admin tiers
func (r Role) IsAdmin() bool {
	switch r {
	case RoleMasterAdmin, RoleSuperAdmin, RoleAdmin:
		return true
	}
	return false
}

// ParseRole validates a role string
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleMasterAdmin, RoleSuperAdmin, RoleAdmin, RoleCustomer, RoleServiceProvider:
		return r, nil
	}
	return "", fmt.Errorf("unknown role: %q", s)
}

// Identity is the authenticated caller
type Identity struct {
	UserID              int64  `json:"userId"`
	Role                Role   `json:"role"`
	CityCorporationCode string `json:"cityCorporationCode,omitempty"`
	// ZoneID is the legacy single-zone field
	ZoneID *int64 `json:"zoneId,omitempty"`
	WardID *int64 `json:"wardId,omitempty"`
}

// HasRole reports whether the identity holds one of roles
func (i *Identity) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}
