package domain

import "slices"

// System roles. Exactly these four are allowed to sign in; any other role
// carried by a user record is rejected at authentication time.
const (
	RoleStudent = "student"
	RoleTutor   = "tutor"
	RoleChief   = "chief" // chief of department
	RoleCTSV    = "ctsv"  // student affairs office
)

// PermViewAll is the sentinel permission. A permission set containing it
// satisfies every permission check, which is how the CTSV office gets
// read/manage access across the platform without enumerating permissions.
const PermViewAll = "view:all"

// rolePermissions is the static role -> permission table. Permissions are
// derived from the role at session-creation time, never stored per-user.
var rolePermissions = map[string][]string{
	RoleStudent: {"view:tutors", "book:sessions", "ask:questions", "register:contests", "request:courses"},
	RoleTutor:   {"view:students", "manage:sessions", "answer:questions"},
	RoleChief:   {"manage:courses", "review:requests", "view:reports"},
	RoleCTSV:    {PermViewAll, "review:requests", "view:reports"},
}

// IsAllowedRole reports whether role is one of the four system roles.
func IsAllowedRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}

// PermissionsForRole returns a copy of the fixed permission set for role, or
// nil for roles outside the system set.
func PermissionsForRole(role string) []string {
	perms, ok := rolePermissions[role]
	if !ok {
		return nil
	}
	return slices.Clone(perms)
}

// HasPermission reports whether the permission set grants required, either
// directly or through the view-all sentinel.
func HasPermission(permissions []string, required string) bool {
	return slices.Contains(permissions, required) || slices.Contains(permissions, PermViewAll)
}
