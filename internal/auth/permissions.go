package auth

// Permission names an action on the API.
type Permission string

// Permissions.
const (
	PermShadeRead       Permission = "shade:read"
	PermShadeOperate    Permission = "shade:operate"
	PermDiagnosticsRead Permission = "diagnostics:read"
	PermAuditRead       Permission = "audit:read"
)

// rolePermissions is the whole authorisation model.
var rolePermissions = map[Role][]Permission{
	RoleViewer: {
		PermShadeRead,
	},
	RoleOperator: {
		PermShadeRead,
		PermShadeOperate,
	},
	RoleAdmin: {
		PermShadeRead,
		PermShadeOperate,
		PermDiagnosticsRead,
		PermAuditRead,
	},
}

// HasPermission reports whether role grants perm.
func HasPermission(role Role, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}

// PermissionsForRole returns a copy of the permissions of role, or nil for
// an unknown role.
func PermissionsForRole(role Role) []Permission {
	perms := rolePermissions[role]
	if perms == nil {
		return nil
	}
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}
