package identity

import "strings"

// Role tags a principal with its Tech-Care account type.
type Role string

const (
	// RoleUser is the default role when claims carry nothing more specific.
	RoleUser Role = "user"
	// RoleTechnician is a service technician account.
	RoleTechnician Role = "technician"
	// RoleCustomer is a customer account.
	RoleCustomer Role = "customer"
	// RoleAdmin is an administrative account.
	RoleAdmin Role = "admin"
)

// ParseRole canonicalizes a claims-supplied role string.
// Unknown or empty values fall back to RoleUser.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleTechnician:
		return RoleTechnician
	case RoleCustomer:
		return RoleCustomer
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleUser
	}
}
