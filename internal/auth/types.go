package auth

import "errors"

// Role is an authorisation tier.
type Role string

// Roles, lowest to highest.
const (
	// RoleViewer can read shades, state and history.
	RoleViewer Role = "viewer"

	// RoleOperator can also command shades.
	RoleOperator Role = "operator"

	// RoleAdmin can also read diagnostics and the command audit trail.
	RoleAdmin Role = "admin"
)

// ValidRoles lists every assignable role.
var ValidRoles = []Role{RoleViewer, RoleOperator, RoleAdmin}

// IsValidRole reports whether r is an assignable role.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// Client is a configured API identity.
type Client struct {
	ID         string `json:"id"`
	Role       Role   `json:"role"`
	SecretHash string `json:"-"`
}

// Domain errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrForbidden          = errors.New("insufficient permissions")
	ErrInvalidClient      = errors.New("invalid client configuration")
)
